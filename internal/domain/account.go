package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// AccountStatus mirrors the platform's view of an account. "purged" is
// set after the purge executor confirms irreversible removal.
type AccountStatus string

const (
	AccountActive AccountStatus = "active"
	AccountPurged AccountStatus = "purged"
)

// Account is a directory entry synced from the platform's identity
// service. The engine only needs existence and lifecycle state; profile
// data stays with the platform.
type Account struct {
	ID          uuid.UUID
	TenantID    uuid.UUID
	ExternalRef string // identifier in the upstream identity service
	Email       string
	Status      AccountStatus
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

type AccountRepository interface {
	Create(ctx context.Context, a *Account) error
	GetByID(ctx context.Context, tenantID, id uuid.UUID) (*Account, error)
	List(ctx context.Context, tenantID uuid.UUID, limit, offset int) ([]*Account, error)
	// UpdateStatus marks the directory entry after a confirmed purge.
	UpdateStatus(ctx context.Context, tenantID, id uuid.UUID, status AccountStatus) error
}
