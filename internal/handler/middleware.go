package handler

import (
	"context"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/codilore/codilore/internal/domain"
	"github.com/codilore/codilore/internal/observability"
	"github.com/codilore/codilore/internal/service"
)

const (
	msgTokenRequired   = "Authorization token required"
	msgInvalidToken    = "Invalid or expired token"
	msgTooManyRequests = "Too many requests"
)

const bearerPrefix = "Bearer "

type contextKey string

const profileContextKey contextKey = "profile"

// ProfileFromContext extracts the authenticated profile from the request context.
func ProfileFromContext(ctx context.Context) (domain.Profile, bool) {
	p, ok := ctx.Value(profileContextKey).(domain.Profile)
	return p, ok
}

// RequireAuth is middleware that protects routes requiring authentication.
// It reads the bearer token from the Authorization header, verifies it and
// injects the profile into the request context. The store is not consulted.
func RequireAuth(auth *service.AuthService, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		if !strings.HasPrefix(header, bearerPrefix) {
			writeError(w, http.StatusUnauthorized, msgTokenRequired)
			return
		}

		profile, ok := auth.VerifyToken(header[len(bearerPrefix):])
		if !ok {
			writeError(w, http.StatusUnauthorized, msgInvalidToken)
			return
		}

		ctx := context.WithValue(r.Context(), profileContextKey, profile)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// SecurityHeaders sets conservative response headers on every response.
func SecurityHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h := w.Header()
		h.Set("X-Content-Type-Options", "nosniff")
		h.Set("X-Frame-Options", "DENY")
		h.Set("Referrer-Policy", "no-referrer")
		h.Set("Cache-Control", "no-store")
		h.Set("Content-Security-Policy", "default-src 'none'; frame-ancestors 'none'")
		next.ServeHTTP(w, r)
	})
}

// Limiter decides whether a client key may make another request.
// *service.TokenBucket and *service.RedisLimiter implement it.
type Limiter interface {
	Allow(key string) bool
}

// RateLimit rejects requests with 429 once the client's budget is spent.
// Clients are keyed by remote IP. A nil limiter disables limiting.
func RateLimit(limiter Limiter, metrics *observability.Metrics, next http.Handler) http.Handler {
	if limiter == nil {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !limiter.Allow(clientIP(r)) {
			if metrics != nil {
				metrics.RateLimitedTotal.Inc()
			}
			w.Header().Set("Retry-After", "1")
			writeError(w, http.StatusTooManyRequests, msgTooManyRequests)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// Instrument records request count and latency for route. A nil metrics
// returns next unchanged.
func Instrument(metrics *observability.Metrics, route string, next http.Handler) http.Handler {
	if metrics == nil {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		metrics.ObserveRequest(route, rec.status, time.Since(start).Seconds())
	})
}

// LogRequests logs one line per request after it completes.
func LogRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)

		level := slog.LevelInfo
		if rec.status >= http.StatusInternalServerError {
			level = slog.LevelError
		}
		slog.Log(r.Context(), level, "http request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", rec.status,
			"duration", time.Since(start),
			"remote", clientIP(r),
		)
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status      int
	wroteHeader bool
}

func (s *statusRecorder) WriteHeader(code int) {
	if !s.wroteHeader {
		s.status = code
		s.wroteHeader = true
	}
	s.ResponseWriter.WriteHeader(code)
}

func (s *statusRecorder) Unwrap() http.ResponseWriter {
	return s.ResponseWriter
}

func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
