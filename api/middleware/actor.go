package middleware

import (
	"context"
	"net/http"

	"github.com/oakhill-health/checkup-backend/api/responses"
	pkgerrors "github.com/oakhill-health/checkup-backend/pkg/errors"
	"github.com/oakhill-health/checkup-backend/pkg/logger"
)

// The engine never authenticates; the gateway in front of it does. The actor
// id rides in on a header and is recorded verbatim in history and events.
const actorIDHeader = "X-Actor-Id"

type actorCtxKey struct{}

// ActorIDFromContext returns the actor id set by the Actor middleware.
func ActorIDFromContext(ctx context.Context) string {
	if v, ok := ctx.Value(actorCtxKey{}).(string); ok {
		return v
	}
	return ""
}

// Actor lifts the actor header into the request context and log fields.
func Actor(logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			actorID := r.Header.Get(actorIDHeader)
			if actorID == "" {
				next.ServeHTTP(w, r)
				return
			}

			ctx := context.WithValue(r.Context(), actorCtxKey{}, actorID)
			if logg != nil {
				ctx = logg.WithActorID(ctx, actorID)
			}
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireActor rejects mutations that do not identify who performed them.
func RequireActor(logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if ActorIDFromContext(r.Context()) == "" {
				responses.WriteError(r.Context(), logg, w,
					pkgerrors.New(pkgerrors.CodeValidation, "X-Actor-Id header required"))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
