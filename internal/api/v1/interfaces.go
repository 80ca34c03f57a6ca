package v1

import (
	"context"

	"github.com/google/uuid"

	"github.com/gosuda/lethe/internal/domain"
)

// DataStore abstracts the repository accessor pattern for handler testing.
// *postgres.Store satisfies this interface.
type DataStore interface {
	Tenants() domain.TenantRepository
	Accounts() domain.AccountRepository
	Audit() domain.AuditRepository
}

// DeletionService abstracts the request lifecycle for handler testing.
// *deletion.Service satisfies this interface.
type DeletionService interface {
	RequestDeletion(ctx context.Context, tenantID, accountID uuid.UUID, actor domain.Actor, reason string) (*domain.DeletionRequest, error)
	CancelDeletion(ctx context.Context, tenantID, accountID uuid.UUID, actor domain.Actor) error
	GetActiveRequest(ctx context.Context, tenantID, accountID uuid.UUID) (*domain.DeletionRequest, error)
	ListRequests(ctx context.Context, tenantID uuid.UUID, needsReview bool, limit, offset int) ([]*domain.DeletionRequest, error)
}

// AuditRecorder is the write side of the audit trail, used by handlers
// that change directory state outside the deletion lifecycle.
// *audit.Recorder satisfies this interface.
type AuditRecorder interface {
	Record(ctx context.Context, entry *domain.AuditEntry) error
}
