package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/AtRiskMedia/storyreader-go/internal/domain/authoring"
	"github.com/AtRiskMedia/storyreader-go/internal/infrastructure/observability/logging"
	"github.com/AtRiskMedia/storyreader-go/internal/infrastructure/observability/metrics"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type tokenResolver string

func (r tokenResolver) CapabilityFor(token string) authoring.Capability {
	return authoring.Capability{Admin: token != "" && token == string(r)}
}

func TestSessionMiddlewarePrefersHeader(t *testing.T) {
	r := gin.New()
	r.Use(SessionMiddleware())
	r.GET("/", func(c *gin.Context) { c.String(http.StatusOK, GetSession(c)) })

	req := httptest.NewRequest(http.MethodGet, "/?session=session_query", nil)
	req.Header.Set(SessionHeader, " session_header ")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, "session_header", w.Body.String())

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/?session=session_query", nil))
	assert.Equal(t, "session_query", w.Body.String())
}

func TestAdminMiddleware(t *testing.T) {
	r := gin.New()
	r.Use(AdminMiddleware(tokenResolver("good"), logging.NewDiscardLogger()))
	r.GET("/", func(c *gin.Context) {
		if GetCapability(c).Admin {
			c.Status(http.StatusNoContent)
			return
		}
		c.Status(http.StatusTeapot)
	})

	tests := []struct {
		name   string
		header string
		cookie string
		want   int
	}{
		{"no token", "", "", http.StatusUnauthorized},
		{"bad bearer", "Bearer nope", "", http.StatusUnauthorized},
		{"good bearer", "Bearer good", "", http.StatusNoContent},
		{"good cookie", "", "good", http.StatusNoContent},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			if tt.cookie != "" {
				req.AddCookie(&http.Cookie{Name: "admin_auth", Value: tt.cookie})
			}
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)
			assert.Equal(t, tt.want, w.Code)
		})
	}
}

func TestGetCapabilityDefaultsToReader(t *testing.T) {
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	assert.False(t, GetCapability(c).Admin)
}

func TestMetricsMiddlewareUsesRouteTemplate(t *testing.T) {
	m := metrics.NewMetrics()
	r := gin.New()
	r.Use(MetricsMiddleware(m))
	r.GET("/pages/:id", func(c *gin.Context) { c.Status(http.StatusOK) })

	for _, path := range []string{"/pages/a", "/pages/b", "/missing"} {
		r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, path, nil))
	}

	assert.Equal(t, 2.0, testutil.ToFloat64(m.HTTPRequestsTotal.WithLabelValues("GET", "/pages/:id", "200")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.HTTPRequestsTotal.WithLabelValues("GET", "unmatched", "404")))
	assert.Equal(t, 0.0, testutil.ToFloat64(m.HTTPRequestsInFlight))
}
