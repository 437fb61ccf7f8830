package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/rs/zerolog"

	"github.com/RaniyaAK/arts/internal/http/render"
	"github.com/RaniyaAK/arts/internal/identity"
)

type contextKey string

const actorKey contextKey = "actor"

// TokenParser turns a bearer token into the actor it was issued to.
type TokenParser interface {
	Parse(raw string) (identity.Actor, error)
}

func WithActor(ctx context.Context, actor identity.Actor) context.Context {
	return context.WithValue(ctx, actorKey, actor)
}

// ActorFrom returns the authenticated actor. ok is false on unauthenticated routes.
func ActorFrom(ctx context.Context) (identity.Actor, bool) {
	actor, ok := ctx.Value(actorKey).(identity.Actor)
	return actor, ok
}

// Authenticate rejects requests without a valid token. Browsers cannot set headers on
// websocket upgrades, so a token query parameter is accepted as well.
func Authenticate(tokens TokenParser) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			actor, err := tokens.Parse(extractToken(r))
			if err != nil {
				render.JSON(w, r, http.StatusUnauthorized, map[string]string{
					"error":   "unauthorized",
					"message": "missing or invalid token",
				})

				return
			}

			logger := zerolog.Ctx(r.Context()).With().
				Str("actor_id", actor.ID.String()).
				Str("actor_role", string(actor.Role)).
				Logger()

			ctx := WithActor(logger.WithContext(r.Context()), actor)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireRole lets through only actors holding one of roles.
func RequireRole(roles ...identity.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			actor, ok := ActorFrom(r.Context())
			if !ok {
				render.JSON(w, r, http.StatusUnauthorized, map[string]string{"error": "unauthorized", "message": "missing auth"})
				return
			}

			for _, role := range roles {
				if actor.Is(role) {
					next.ServeHTTP(w, r)
					return
				}
			}

			render.JSON(w, r, http.StatusForbidden, map[string]string{"error": "forbidden", "message": "insufficient role"})
		})
	}
}

func extractToken(r *http.Request) string {
	if authz := r.Header.Get("Authorization"); strings.HasPrefix(authz, "Bearer ") {
		return strings.TrimSpace(strings.TrimPrefix(authz, "Bearer "))
	}

	return r.URL.Query().Get("token")
}
