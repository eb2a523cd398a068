// Package metrics provides Prometheus metrics for the story reader
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the story reader
type Metrics struct {
	Registry *prometheus.Registry

	// HTTP request metrics
	HTTPRequestsTotal    *prometheus.CounterVec
	HTTPRequestDuration  *prometheus.HistogramVec
	HTTPRequestsInFlight prometheus.Gauge

	// Reader activity
	LikesToggledTotal   *prometheus.CounterVec
	CommentsPostedTotal *prometheus.CounterVec
	NavigationTotal     *prometheus.CounterVec
	StaleProgressTotal  prometheus.Counter

	// Authoring
	StoriesImportedTotal *prometheus.CounterVec
	PagesCreatedTotal    prometheus.Counter

	// Realtime
	LiveConnections prometheus.Gauge

	ServerStartTime time.Time
}

// NewMetrics creates all metrics on a fresh registry so that several instances can
// coexist in one process.
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector())
	factory := promauto.With(reg)

	m := &Metrics{
		Registry:        reg,
		ServerStartTime: time.Now(),
	}

	m.HTTPRequestsTotal = factory.NewCounterVec(
		prometheus.CounterOpts{
			Name: "storyreader_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "route", "status"},
	)

	m.HTTPRequestDuration = factory.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "storyreader_http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds",
			Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
		},
		[]string{"method", "route"},
	)

	m.HTTPRequestsInFlight = factory.NewGauge(
		prometheus.GaugeOpts{
			Name: "storyreader_http_requests_in_flight",
			Help: "Number of HTTP requests currently being processed",
		},
	)

	m.LikesToggledTotal = factory.NewCounterVec(
		prometheus.CounterOpts{
			Name: "storyreader_likes_toggled_total",
			Help: "Like toggles by target type and resulting action",
		},
		[]string{"target", "action"},
	)

	m.CommentsPostedTotal = factory.NewCounterVec(
		prometheus.CounterOpts{
			Name: "storyreader_comments_posted_total",
			Help: "Comments posted by target type",
		},
		[]string{"target"},
	)

	m.NavigationTotal = factory.NewCounterVec(
		prometheus.CounterOpts{
			Name: "storyreader_navigation_total",
			Help: "Page navigations by direction and outcome",
		},
		[]string{"direction", "result"},
	)

	m.StaleProgressTotal = factory.NewCounter(
		prometheus.CounterOpts{
			Name: "storyreader_progress_stale_total",
			Help: "Reading progress updates discarded because a newer update was already stored",
		},
	)

	m.StoriesImportedTotal = factory.NewCounterVec(
		prometheus.CounterOpts{
			Name: "storyreader_stories_imported_total",
			Help: "Stories created through import or generation",
		},
		[]string{"format"},
	)

	m.PagesCreatedTotal = factory.NewCounter(
		prometheus.CounterOpts{
			Name: "storyreader_pages_created_total",
			Help: "Pages created by the authoring workflow",
		},
	)

	m.LiveConnections = factory.NewGauge(
		prometheus.GaugeOpts{
			Name: "storyreader_live_connections",
			Help: "Open websocket connections to story rooms",
		},
	)

	return m
}

// RecordRequest records a completed HTTP request
func (m *Metrics) RecordRequest(method, route, status string, duration time.Duration) {
	m.HTTPRequestsTotal.WithLabelValues(method, route, status).Inc()
	m.HTTPRequestDuration.WithLabelValues(method, route).Observe(duration.Seconds())
}

// RecordLike records a like toggle; liked reports the state after the toggle
func (m *Metrics) RecordLike(target string, liked bool) {
	action := "unlike"
	if liked {
		action = "like"
	}
	m.LikesToggledTotal.WithLabelValues(target, action).Inc()
}

// RecordComment records a posted comment
func (m *Metrics) RecordComment(target string) {
	m.CommentsPostedTotal.WithLabelValues(target).Inc()
}

// RecordNavigation records a navigation outcome
func (m *Metrics) RecordNavigation(direction string, endOfStory bool) {
	result := "page"
	if endOfStory {
		result = "end"
	}
	m.NavigationTotal.WithLabelValues(direction, result).Inc()
}
