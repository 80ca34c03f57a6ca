package middleware

import (
	"context"

	"github.com/google/uuid"

	"github.com/gosuda/lethe/internal/domain"
)

type contextKey string

const (
	ContextKeyTenantID contextKey = "tenant_id"
	ContextKeyActor    contextKey = "actor"
	ContextKeyUserRole contextKey = "role"
)

func TenantIDFromContext(ctx context.Context) (uuid.UUID, bool) {
	v, ok := ctx.Value(ContextKeyTenantID).(uuid.UUID)
	return v, ok
}

// ActorFromContext returns the authenticated actor. Absent only when the
// Auth middleware did not run.
func ActorFromContext(ctx context.Context) (domain.Actor, bool) {
	v, ok := ctx.Value(ContextKeyActor).(domain.Actor)
	return v, ok
}

func RoleFromContext(ctx context.Context) (string, bool) {
	v, ok := ctx.Value(ContextKeyUserRole).(string)
	return v, ok
}
