package http

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/utafrali/storefront/internal/session"
	"github.com/utafrali/storefront/pkg/httputil"
	"github.com/utafrali/storefront/pkg/logger"
	"github.com/utafrali/storefront/pkg/middleware"
)

type contextKey string

const sessionKey contextKey = "session"

// SessionFromPath resolves the {sessionID} path parameter through the
// registry and stores the session in the request context. Invalid IDs are
// rejected with 400.
func SessionFromPath(registry *session.Registry, log *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id := chi.URLParam(r, middleware.SessionParam)
			s, err := registry.Get(r.Context(), id)
			if err != nil {
				httputil.WriteError(w, r, err, log)
				return
			}

			ctx := r.Context()
			if logger.SessionIDFromContext(ctx) != id {
				ctx = logger.WithSessionID(ctx, id)
				if l := logger.FromContext(ctx); l != slog.Default() {
					ctx = logger.NewContext(ctx, l.With(slog.String("session_id", id)))
				}
			}
			ctx = context.WithValue(ctx, sessionKey, s)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// sessionFromContext returns the session stored by SessionFromPath.
func sessionFromContext(ctx context.Context) *session.Session {
	s, _ := ctx.Value(sessionKey).(*session.Session)
	return s
}
