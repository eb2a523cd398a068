package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestInstancesDoNotCollide(t *testing.T) {
	a := NewMetrics()
	b := NewMetrics()

	a.RecordLike("page", true)
	a.RecordLike("page", true)
	a.RecordLike("page", false)

	assert.Equal(t, 2.0, testutil.ToFloat64(a.LikesToggledTotal.WithLabelValues("page", "like")))
	assert.Equal(t, 1.0, testutil.ToFloat64(a.LikesToggledTotal.WithLabelValues("page", "unlike")))
	assert.Equal(t, 0.0, testutil.ToFloat64(b.LikesToggledTotal.WithLabelValues("page", "like")))
}

func TestRecordRequestAndNavigation(t *testing.T) {
	m := NewMetrics()

	m.RecordRequest("GET", "/api/v1/stories", "200", 15*time.Millisecond)
	m.RecordNavigation("next", true)
	m.RecordNavigation("next", false)
	m.RecordComment("story")

	assert.Equal(t, 1.0, testutil.ToFloat64(m.HTTPRequestsTotal.WithLabelValues("GET", "/api/v1/stories", "200")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.NavigationTotal.WithLabelValues("next", "end")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.NavigationTotal.WithLabelValues("next", "page")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.CommentsPostedTotal.WithLabelValues("story")))
}
