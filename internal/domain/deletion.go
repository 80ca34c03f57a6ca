package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// DeletionStatus is the lifecycle state of a deletion request.
// "cancelled" and "executed" are terminal; every transition out of
// "pending" is conditional on the current stored status.
type DeletionStatus string

const (
	DeletionPending   DeletionStatus = "pending"
	DeletionCancelled DeletionStatus = "cancelled"
	DeletionExecuted  DeletionStatus = "executed"
)

// Valid reports whether s is a known deletion status.
func (s DeletionStatus) Valid() bool {
	switch s {
	case DeletionPending, DeletionCancelled, DeletionExecuted:
		return true
	}
	return false
}

// DeletionRequest is an account's scheduled removal from the platform.
// The account keeps working during the grace period between RequestedAt
// and ScheduledFor; the sweeper executes the purge once the period lapses.
type DeletionRequest struct {
	ID            uuid.UUID
	TenantID      uuid.UUID
	AccountID     uuid.UUID
	Reason        string // optional, immutable once set
	Status        DeletionStatus
	RequestedAt   time.Time
	ScheduledFor  time.Time
	PurgeAttempts int
	NeedsReview   bool // purge retries exhausted, waiting on an operator
	UpdatedAt     time.Time
}

// CanCancel reports whether the request is still cancellable.
func (d *DeletionRequest) CanCancel() bool {
	return d.Status == DeletionPending
}

// Due reports whether the grace period has lapsed at the given instant.
func (d *DeletionRequest) Due(now time.Time) bool {
	return d.Status == DeletionPending && !now.Before(d.ScheduledFor)
}

type DeletionRequestRepository interface {
	// Create inserts a new pending request. Returns ErrConflict when the
	// account already has a pending request (partial unique index).
	Create(ctx context.Context, d *DeletionRequest) error

	GetByID(ctx context.Context, tenantID, id uuid.UUID) (*DeletionRequest, error)

	// GetActive returns the account's pending request, or ErrNotFound.
	GetActive(ctx context.Context, tenantID, accountID uuid.UUID) (*DeletionRequest, error)

	// ListDue returns pending requests whose scheduled_for has lapsed,
	// excluding requests flagged for operator review.
	ListDue(ctx context.Context, now time.Time, limit int) ([]*DeletionRequest, error)

	ListByTenant(ctx context.Context, tenantID uuid.UUID, needsReview bool, limit, offset int) ([]*DeletionRequest, error)

	// TransitionStatus performs a compare-and-swap on the status column.
	// Returns ErrInvalidState when the stored status no longer matches
	// from, so concurrent transitions resolve first-successful-wins.
	TransitionStatus(ctx context.Context, id uuid.UUID, from, to DeletionStatus) error

	// RecordPurgeFailure increments the attempt counter and optionally
	// flags the request for operator review.
	RecordPurgeFailure(ctx context.Context, id uuid.UUID, needsReview bool) error
}
