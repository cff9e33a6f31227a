package observability

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetrics_Handler(t *testing.T) {
	m := NewMetrics()
	m.ObserveRequest("POST /api/auth/login", http.StatusUnauthorized, 0.2)
	m.RateLimitedTotal.Inc()
	m.HashDuration.Observe(0.3)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)

	out := string(body)
	assert.Contains(t, out, "go_goroutines")
	assert.Contains(t, out, "process_")
	assert.Contains(t, out, `codilore_http_requests_total{code="401",route="POST /api/auth/login"} 1`)
	assert.Contains(t, out, "codilore_rate_limited_requests_total 1")
	assert.Contains(t, out, "codilore_password_hash_duration_seconds_count 1")
}

func TestMetrics_ObserveRequest(t *testing.T) {
	m := NewMetrics()
	m.ObserveRequest("GET /api/auth/me", http.StatusOK, 0.01)
	m.ObserveRequest("GET /api/auth/me", http.StatusOK, 0.02)
	m.ObserveRequest("GET /api/auth/me", http.StatusUnauthorized, 0.01)

	assert.InDelta(t, 2, testutil.ToFloat64(m.RequestsTotal.WithLabelValues("GET /api/auth/me", "200")), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(m.RequestsTotal.WithLabelValues("GET /api/auth/me", "401")), 0)
}

func TestNewMetrics_IndependentRegistries(t *testing.T) {
	a := NewMetrics()
	b := NewMetrics()
	a.RateLimitedTotal.Inc()

	assert.InDelta(t, 1, testutil.ToFloat64(a.RateLimitedTotal), 0)
	assert.InDelta(t, 0, testutil.ToFloat64(b.RateLimitedTotal), 0)
}
