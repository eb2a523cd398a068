// Package performance provides performance tracking and monitoring capabilities
// for story reader operations.
package performance

import (
	"strings"
	"sync"
	"time"
)

// Tracker manages performance markers and provides metrics aggregation
type Tracker struct {
	recent     []Marker
	alerts     []*PerformanceAlert
	active     int
	thresholds *AlertThresholds
	config     *TrackerConfig
	started    time.Time
	mu         sync.RWMutex
}

// TrackerConfig contains configuration options for the performance tracker
type TrackerConfig struct {
	MaxMarkers   int  `json:"maxMarkers"`   // Completed markers retained for health checks
	MaxAlerts    int  `json:"maxAlerts"`    // Alerts retained
	EnableAlerts bool `json:"enableAlerts"` // Whether to generate performance alerts
}

// DefaultTrackerConfig returns a sensible default configuration
func DefaultTrackerConfig() *TrackerConfig {
	return &TrackerConfig{
		MaxMarkers:   2000,
		MaxAlerts:    200,
		EnableAlerts: true,
	}
}

// AlertThresholds defines performance thresholds for generating alerts
type AlertThresholds struct {
	VerySlowResponseThreshold time.Duration `json:"verySlowResponseThreshold"`
	CriticalResponseThreshold time.Duration `json:"criticalResponseThreshold"`
	AuthOperationThreshold    time.Duration `json:"authOperationThreshold"`
	ImportOperationThreshold  time.Duration `json:"importOperationThreshold"`
}

// DefaultAlertThresholds returns sensible default alert thresholds
func DefaultAlertThresholds() *AlertThresholds {
	return &AlertThresholds{
		VerySlowResponseThreshold: 2 * time.Second,
		CriticalResponseThreshold: 5 * time.Second,
		AuthOperationThreshold:    500 * time.Millisecond,
		ImportOperationThreshold:  2 * time.Minute,
	}
}

// NewTracker creates a new performance tracker with the given configuration
func NewTracker(config *TrackerConfig) *Tracker {
	if config == nil {
		config = DefaultTrackerConfig()
	}
	return &Tracker{
		thresholds: DefaultAlertThresholds(),
		config:     config,
		started:    time.Now(),
	}
}

// StartOperation creates and tracks a new performance marker for an operation
func (t *Tracker) StartOperation(operation, scope string) *Marker {
	t.mu.Lock()
	t.active++
	t.mu.Unlock()

	return &Marker{
		Operation:  operation,
		Scope:      scope,
		StartTime:  time.Now(),
		Metadata:   make(map[string]any),
		Success:    true,
		onComplete: t.record,
	}
}

func (t *Tracker) record(marker *Marker) {
	var alerts []*PerformanceAlert
	if t.config.EnableAlerts {
		alerts = t.evaluateThresholds(marker)
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	t.active--
	t.recent = append(t.recent, *marker)
	if len(t.recent) > t.config.MaxMarkers {
		t.recent = t.recent[len(t.recent)-t.config.MaxMarkers:]
	}

	t.alerts = append(t.alerts, alerts...)
	if len(t.alerts) > t.config.MaxAlerts {
		t.alerts = t.alerts[len(t.alerts)-t.config.MaxAlerts:]
	}
}

func (t *Tracker) evaluateThresholds(marker *Marker) []*PerformanceAlert {
	var alerts []*PerformanceAlert

	if marker.Duration > t.thresholds.CriticalResponseThreshold {
		alerts = append(alerts, t.createAlert(marker, AlertCritical,
			"Operation exceeded critical response time threshold"))
	} else if marker.Duration > t.thresholds.VerySlowResponseThreshold &&
		!strings.Contains(marker.Operation, "import") {
		alerts = append(alerts, t.createAlert(marker, AlertWarning,
			"Operation exceeded slow response time threshold"))
	}

	switch {
	case strings.Contains(marker.Operation, "login"):
		if marker.Duration > t.thresholds.AuthOperationThreshold {
			alerts = append(alerts, t.createAlert(marker, AlertWarning,
				"Authentication operation exceeded threshold"))
		}
	case strings.Contains(marker.Operation, "import"):
		if marker.Duration > t.thresholds.ImportOperationThreshold {
			alerts = append(alerts, t.createAlert(marker, AlertWarning,
				"Import operation exceeded threshold"))
		}
	}

	return alerts
}

func (t *Tracker) createAlert(marker *Marker, severity AlertSeverity, message string) *PerformanceAlert {
	return &PerformanceAlert{
		Timestamp: time.Now(),
		Severity:  severity,
		Operation: marker.Operation,
		Scope:     marker.Scope,
		Actual:    marker.Duration,
		Message:   message,
	}
}

// GetAlerts returns a copy of the retained alerts
func (t *Tracker) GetAlerts() []PerformanceAlert {
	t.mu.RLock()
	defer t.mu.RUnlock()

	out := make([]PerformanceAlert, 0, len(t.alerts))
	for _, alert := range t.alerts {
		out = append(out, *alert)
	}
	return out
}

// Health grades the retained markers: more than 10% failed or critical is unhealthy,
// more than 5% critical or 20% slow is degraded.
func (t *Tracker) Health() HealthStatus {
	t.mu.RLock()
	defer t.mu.RUnlock()

	if len(t.recent) == 0 {
		return HealthUnknown
	}

	critical, warning := 0, 0
	for _, m := range t.recent {
		if !m.Success || m.Duration > t.thresholds.CriticalResponseThreshold {
			critical++
		} else if m.Duration > t.thresholds.VerySlowResponseThreshold {
			warning++
		}
	}

	total := float64(len(t.recent))
	criticalRatio := float64(critical) / total
	warningRatio := float64(warning) / total

	switch {
	case criticalRatio > 0.1:
		return HealthUnhealthy
	case criticalRatio > 0.05 || warningRatio > 0.2:
		return HealthDegraded
	default:
		return HealthHealthy
	}
}

// GetOverallStats returns overall tracker statistics
func (t *Tracker) GetOverallStats() map[string]any {
	t.mu.RLock()
	defer t.mu.RUnlock()

	return map[string]any{
		"trackerUptime":       time.Since(t.started).String(),
		"activeOperations":    t.active,
		"completedOperations": len(t.recent),
		"totalAlerts":         len(t.alerts),
	}
}
