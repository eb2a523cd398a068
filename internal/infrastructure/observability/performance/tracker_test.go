package performance

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestMarkerCompleteIsIdempotent(t *testing.T) {
	tracker := NewTracker(nil)
	marker := tracker.StartOperation("get_story_request", "story-1")

	marker.Complete()
	first := marker.Duration
	marker.Complete()

	assert.True(t, marker.Completed)
	assert.Equal(t, first, marker.Duration)
	assert.Equal(t, 1, tracker.GetOverallStats()["completedOperations"])
	assert.Equal(t, 0, tracker.GetOverallStats()["activeOperations"])
}

func TestHealthReflectsFailures(t *testing.T) {
	tracker := NewTracker(nil)
	assert.Equal(t, HealthUnknown, tracker.Health())

	for i := 0; i < 10; i++ {
		tracker.StartOperation("ok", "").Complete()
	}
	assert.Equal(t, HealthHealthy, tracker.Health())

	for i := 0; i < 3; i++ {
		m := tracker.StartOperation("broken", "")
		m.SetError(errors.New("boom"))
		m.Complete()
	}
	assert.Equal(t, HealthUnhealthy, tracker.Health())
}

func TestSlowOperationRaisesAlert(t *testing.T) {
	tracker := NewTracker(nil)
	marker := tracker.StartOperation("post_login_request", "")
	marker.StartTime = time.Now().Add(-time.Second)
	marker.Complete()

	alerts := tracker.GetAlerts()
	if assert.Len(t, alerts, 1) {
		assert.Equal(t, AlertWarning, alerts[0].Severity)
		assert.Equal(t, "post_login_request", alerts[0].Operation)
	}
}

func TestRetentionIsBounded(t *testing.T) {
	tracker := NewTracker(&TrackerConfig{MaxMarkers: 3, MaxAlerts: 1, EnableAlerts: false})
	for i := 0; i < 10; i++ {
		tracker.StartOperation("op", "").Complete()
	}
	assert.Equal(t, 3, tracker.GetOverallStats()["completedOperations"])
}
