package middleware

import (
	"context"
	"crypto/subtle"
	"log/slog"
	"net/http"
	"runtime/debug"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"vcissuer/internal/platform/metrics"
	"vcissuer/internal/platform/privacy"
	dErrors "vcissuer/pkg/domain-errors"
	"vcissuer/pkg/platform/httputil"
	"vcissuer/pkg/secrets"
)

// Recovery recovers from panics and returns a 500 error.
func Recovery(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if err := recover(); err != nil {
					logger.ErrorContext(r.Context(), "panic recovered",
						"error", err,
						"stack", string(debug.Stack()),
						"path", r.URL.Path,
						"method", r.Method,
						"request_id", chimw.GetReqID(r.Context()),
					)
					http.Error(w, "Internal Server Error", http.StatusInternalServerError)
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}

// Logger logs each request and records latency by chi route pattern.
func Logger(logger *slog.Logger, m *metrics.HTTP) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)

			next.ServeHTTP(ww, r)

			status := ww.Status()
			if status == 0 {
				status = http.StatusOK
			}
			duration := time.Since(start)
			route := r.URL.Path
			if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
				route = rctx.RoutePattern()
			}
			if m != nil {
				m.ObserveRequest(route, status, duration.Seconds())
			}

			logger.InfoContext(r.Context(), "http request",
				"method", r.Method,
				"route", route,
				"status", status,
				"duration_ms", duration.Milliseconds(),
				"client", privacy.ClientAddr(r),
				"request_id", chimw.GetReqID(r.Context()),
			)
		})
	}
}

type contextKeyAdminActor struct{}

// AdminActorID returns the X-Admin-Actor-ID of an admin request, or "".
func AdminActorID(ctx context.Context) string {
	if actor, ok := ctx.Value(contextKeyAdminActor{}).(string); ok {
		return actor
	}
	return ""
}

// RequireAdminToken guards admin routes with the X-Admin-Token header.
// expected is either the token itself or its bcrypt hash. An empty expected
// token leaves the routes open (development).
func RequireAdminToken(expected string, logger *slog.Logger) func(http.Handler) http.Handler {
	verify := func(token string) bool {
		return subtle.ConstantTimeCompare([]byte(token), []byte(expected)) == 1
	}
	if secrets.IsHash(expected) {
		verify = func(token string) bool {
			return token != "" && secrets.Verify(token, expected) == nil
		}
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			if expected != "" && !verify(r.Header.Get("X-Admin-Token")) {
				logger.WarnContext(ctx, "admin token mismatch", "request_id", chimw.GetReqID(ctx))
				httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "admin token required"))
				return
			}
			// Attributed in operator action logs.
			if actor := r.Header.Get("X-Admin-Actor-ID"); actor != "" {
				ctx = context.WithValue(ctx, contextKeyAdminActor{}, actor)
			}
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
