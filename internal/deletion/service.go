package deletion

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/gosuda/lethe/internal/domain"
)

// Clock supplies the current time. Injectable so grace-period expiry is
// deterministic in tests.
type Clock func() time.Time

// AuditRecorder is the write side of the audit trail. *audit.Recorder
// satisfies this interface.
type AuditRecorder interface {
	Record(ctx context.Context, entry *domain.AuditEntry) error
}

// entityAccount is the audit entity type for account lifecycle records.
const entityAccount = "account"

// Service owns the deletion-request lifecycle: creation, cancellation,
// and reads. Execution belongs to the Sweeper. All state is behind the
// repositories; concurrent API instances coordinate through conditional
// writes, never held locks.
type Service struct {
	accounts    domain.AccountRepository
	requests    domain.DeletionRequestRepository
	recorder    AuditRecorder
	gracePeriod time.Duration
	now         Clock
}

// NewService creates a deletion Service. now may be nil, in which case
// time.Now is used.
func NewService(accounts domain.AccountRepository, requests domain.DeletionRequestRepository, recorder AuditRecorder, gracePeriod time.Duration, now Clock) *Service {
	if now == nil {
		now = time.Now
	}

	return &Service{
		accounts:    accounts,
		requests:    requests,
		recorder:    recorder,
		gracePeriod: gracePeriod,
		now:         now,
	}
}

// RequestDeletion opens a pending deletion request for the account.
// Returns ErrNotFound when the account is unknown, ErrConflict when a
// pending request already exists, and ErrInvalidState when the account
// was already purged.
func (s *Service) RequestDeletion(ctx context.Context, tenantID, accountID uuid.UUID, actor domain.Actor, reason string) (*domain.DeletionRequest, error) {
	account, err := s.accounts.GetByID(ctx, tenantID, accountID)
	if err != nil {
		return nil, fmt.Errorf("deletion.RequestDeletion: %w", err)
	}
	if account.Status == domain.AccountPurged {
		return nil, fmt.Errorf("deletion.RequestDeletion: account already purged: %w", domain.ErrInvalidState)
	}

	_, err = s.requests.GetActive(ctx, tenantID, accountID)
	if err == nil {
		return nil, fmt.Errorf("deletion.RequestDeletion: %w", domain.ErrConflict)
	}
	if !errors.Is(err, domain.ErrNotFound) {
		return nil, fmt.Errorf("deletion.RequestDeletion: %w", err)
	}

	now := s.now()
	req := &domain.DeletionRequest{
		ID:           uuid.New(),
		TenantID:     tenantID,
		AccountID:    accountID,
		Reason:       reason,
		Status:       domain.DeletionPending,
		RequestedAt:  now,
		ScheduledFor: now.Add(s.gracePeriod),
		UpdatedAt:    now,
	}

	// The partial unique index backing Create resolves the race two
	// concurrent requests lose against the pre-check above.
	if err := s.requests.Create(ctx, req); err != nil {
		return nil, fmt.Errorf("deletion.RequestDeletion: %w", err)
	}

	s.audit(ctx, tenantID, actor, accountID, map[string]any{
		"status":        string(domain.DeletionPending),
		"scheduled_for": req.ScheduledFor.UTC().Format(time.RFC3339),
		"reason":        reason,
	})

	return req, nil
}

// CancelDeletion cancels the account's pending request. Returns
// ErrNotFound when no pending request exists and ErrInvalidState when
// the conditional transition loses the race to the sweeper.
func (s *Service) CancelDeletion(ctx context.Context, tenantID, accountID uuid.UUID, actor domain.Actor) error {
	req, err := s.requests.GetActive(ctx, tenantID, accountID)
	if err != nil {
		return fmt.Errorf("deletion.CancelDeletion: %w", err)
	}

	// First successful transition wins: if the sweeper executed the
	// request between the read above and this write, the CAS fails
	// with ErrInvalidState instead of clobbering the terminal state.
	err = s.requests.TransitionStatus(ctx, req.ID, domain.DeletionPending, domain.DeletionCancelled)
	if err != nil {
		return fmt.Errorf("deletion.CancelDeletion: %w", err)
	}

	s.audit(ctx, tenantID, actor, accountID, map[string]any{
		"status": string(domain.DeletionCancelled),
	})

	return nil
}

// GetActiveRequest returns the account's pending request, or
// ErrNotFound. Pure read, no side effects.
func (s *Service) GetActiveRequest(ctx context.Context, tenantID, accountID uuid.UUID) (*domain.DeletionRequest, error) {
	req, err := s.requests.GetActive(ctx, tenantID, accountID)
	if err != nil {
		return nil, fmt.Errorf("deletion.GetActiveRequest: %w", err)
	}

	return req, nil
}

// ListRequests returns the tenant's deletion requests, optionally
// filtered to those flagged for operator review.
func (s *Service) ListRequests(ctx context.Context, tenantID uuid.UUID, needsReview bool, limit, offset int) ([]*domain.DeletionRequest, error) {
	requests, err := s.requests.ListByTenant(ctx, tenantID, needsReview, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("deletion.ListRequests: %w", err)
	}

	return requests, nil
}

// audit emits a best-effort lifecycle record. The recorder only rejects
// vocabulary violations, which would be a programming error here.
func (s *Service) audit(ctx context.Context, tenantID uuid.UUID, actor domain.Actor, accountID uuid.UUID, diff map[string]any) {
	err := s.recorder.Record(ctx, &domain.AuditEntry{
		TenantID:   tenantID,
		ActorType:  actor.Type,
		ActorID:    actor.ID,
		EntityType: entityAccount,
		EntityID:   accountID.String(),
		Action:     domain.ActionDelete,
		Diff:       diff,
	})
	if err != nil {
		log.Warn().Err(err).Str("account_id", accountID.String()).Msg("deletion: audit record rejected")
	}
}
