package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/gosuda/lethe/internal/auth"
	"github.com/gosuda/lethe/internal/domain"
)

// Auth authenticates requests with an HS256 bearer token. Token parsing
// and the claims shape live in the auth package; this middleware maps
// the validated claims into request context. An absent act claim means
// a regular user. Tokens claiming the system actor type are rejected,
// that identity is reserved for the scheduler.
func Auth(jwtSecret string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if tok := extractBearer(r); tok != "" {
				ctx, ok := authenticateJWT(r.Context(), tok, jwtSecret)
				if ok {
					next.ServeHTTP(w, r.WithContext(ctx))
					return
				}
			}

			http.Error(w, `{"title":"Unauthorized","status":401,"detail":"missing or invalid credentials"}`, http.StatusUnauthorized)
		})
	}
}

func extractBearer(r *http.Request) string {
	header := r.Header.Get("Authorization")
	if len(header) > 7 && strings.EqualFold(header[:7], "bearer ") {
		return header[7:]
	}
	return ""
}

func authenticateJWT(ctx context.Context, tokenStr, secret string) (context.Context, bool) {
	claims, err := auth.ValidateToken(secret, tokenStr)
	if err != nil {
		return ctx, false
	}

	tenantID, err := uuid.Parse(claims.TenantID)
	if err != nil {
		return ctx, false
	}

	actorType := domain.ActorUser
	if claims.ActorType != "" {
		actorType = domain.ActorType(claims.ActorType)
	}
	if !actorType.Valid() || actorType == domain.ActorSystem {
		return ctx, false
	}

	actorID := claims.ActorID
	if actorID == "" {
		actorID = domain.ActorIDAnonymous
	}

	ctx = context.WithValue(ctx, ContextKeyTenantID, tenantID)
	ctx = context.WithValue(ctx, ContextKeyActor, domain.Actor{Type: actorType, ID: actorID})
	ctx = context.WithValue(ctx, ContextKeyUserRole, claims.Role)
	return ctx, true
}
