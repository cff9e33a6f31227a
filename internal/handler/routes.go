package handler

import (
	"net/http"

	"github.com/codilore/codilore/internal/observability"
	"github.com/codilore/codilore/internal/service"
)

// RegisterRoutes sets up all HTTP routes on the given mux. limiter and
// metrics may be nil.
func RegisterRoutes(mux *http.ServeMux, auth *service.AuthService, limiter Limiter, metrics *observability.Metrics) {
	ah := NewAuthHandler(auth)

	route := func(pattern string, h http.Handler) {
		mux.Handle(pattern, Instrument(metrics, pattern, h))
	}
	limited := func(h http.Handler) http.Handler {
		return RateLimit(limiter, metrics, h)
	}

	mux.HandleFunc("GET /healthz", HandleHealthz)
	if metrics != nil {
		mux.Handle("GET /metrics", metrics.Handler())
	}

	route("POST /api/auth/register", limited(http.HandlerFunc(ah.HandleRegister)))
	route("POST /api/auth/login", limited(http.HandlerFunc(ah.HandleLogin)))
	route("GET /api/auth/me", RequireAuth(auth, http.HandlerFunc(ah.HandleMe)))
	route("POST /api/auth/password", limited(RequireAuth(auth, http.HandlerFunc(ah.HandleChangePassword))))
}

// NewServerHandler builds the root handler: routes wrapped in request
// logging and security headers.
func NewServerHandler(auth *service.AuthService, limiter Limiter, metrics *observability.Metrics) http.Handler {
	mux := http.NewServeMux()
	RegisterRoutes(mux, auth, limiter, metrics)
	return LogRequests(SecurityHeaders(mux))
}
