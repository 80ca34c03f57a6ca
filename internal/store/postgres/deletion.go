package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/gosuda/lethe/internal/domain"
)

// DeletionRequestRepo persists deletion requests. A partial unique index
// on (account_id) WHERE status = 'pending' enforces the one-pending-
// request-per-account invariant at the storage layer, so racing API
// instances resolve to exactly one winner.
type DeletionRequestRepo struct {
	pool *pgxpool.Pool
}

func NewDeletionRequestRepo(pool *pgxpool.Pool) *DeletionRequestRepo {
	return &DeletionRequestRepo{pool: pool}
}

const deletionColumns = `id, tenant_id, account_id, reason, status, requested_at, scheduled_for, purge_attempts, needs_review, updated_at`

func (r *DeletionRequestRepo) Create(ctx context.Context, d *domain.DeletionRequest) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO deletion_requests (`+deletionColumns+`)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		d.ID, d.TenantID, d.AccountID, d.Reason, d.Status,
		d.RequestedAt, d.ScheduledFor, d.PurgeAttempts, d.NeedsReview, d.UpdatedAt,
	)
	if isUniqueViolation(err) {
		return fmt.Errorf("deletionRepo.Create: %w", domain.ErrConflict)
	}
	if err != nil {
		return fmt.Errorf("deletionRepo.Create: %w", err)
	}

	return nil
}

func (r *DeletionRequestRepo) GetByID(ctx context.Context, tenantID, id uuid.UUID) (*domain.DeletionRequest, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT `+deletionColumns+`
		 FROM deletion_requests WHERE tenant_id = $1 AND id = $2`,
		tenantID, id,
	)

	return scanDeletionRequest(row, "deletionRepo.GetByID")
}

func (r *DeletionRequestRepo) GetActive(ctx context.Context, tenantID, accountID uuid.UUID) (*domain.DeletionRequest, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT `+deletionColumns+`
		 FROM deletion_requests
		 WHERE tenant_id = $1 AND account_id = $2 AND status = 'pending'`,
		tenantID, accountID,
	)

	return scanDeletionRequest(row, "deletionRepo.GetActive")
}

func (r *DeletionRequestRepo) ListDue(ctx context.Context, now time.Time, limit int) ([]*domain.DeletionRequest, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+deletionColumns+`
		 FROM deletion_requests
		 WHERE status = 'pending' AND scheduled_for <= $1 AND needs_review = false
		 ORDER BY scheduled_for
		 LIMIT $2`,
		now, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("deletionRepo.ListDue: %w", err)
	}
	defer rows.Close()

	return scanDeletionRequests(rows, "deletionRepo.ListDue")
}

func (r *DeletionRequestRepo) ListByTenant(ctx context.Context, tenantID uuid.UUID, needsReview bool, limit, offset int) ([]*domain.DeletionRequest, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+deletionColumns+`
		 FROM deletion_requests
		 WHERE tenant_id = $1 AND ($2 = false OR needs_review = true)
		 ORDER BY requested_at DESC
		 LIMIT $3 OFFSET $4`,
		tenantID, needsReview, limit, offset,
	)
	if err != nil {
		return nil, fmt.Errorf("deletionRepo.ListByTenant: %w", err)
	}
	defer rows.Close()

	return scanDeletionRequests(rows, "deletionRepo.ListByTenant")
}

// TransitionStatus is the conditional update guarding every lifecycle
// transition. Zero affected rows means the stored status no longer
// matches from: either the id is unknown or another writer won the
// race. First successful transition wins; there is no last-writer-wins
// path.
func (r *DeletionRequestRepo) TransitionStatus(ctx context.Context, id uuid.UUID, from, to domain.DeletionStatus) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE deletion_requests SET status = $1, updated_at = now()
		 WHERE id = $2 AND status = $3`,
		to, id, from,
	)
	if err != nil {
		return fmt.Errorf("deletionRepo.TransitionStatus: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("deletionRepo.TransitionStatus %s->%s: %w", from, to, domain.ErrInvalidState)
	}

	return nil
}

func (r *DeletionRequestRepo) RecordPurgeFailure(ctx context.Context, id uuid.UUID, needsReview bool) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE deletion_requests
		 SET purge_attempts = purge_attempts + 1, needs_review = $1, updated_at = now()
		 WHERE id = $2`,
		needsReview, id,
	)
	if err != nil {
		return fmt.Errorf("deletionRepo.RecordPurgeFailure: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("deletionRepo.RecordPurgeFailure: %w", domain.ErrNotFound)
	}

	return nil
}

func scanDeletionRequest(row pgx.Row, caller string) (*domain.DeletionRequest, error) {
	var d domain.DeletionRequest

	err := row.Scan(
		&d.ID, &d.TenantID, &d.AccountID, &d.Reason, &d.Status,
		&d.RequestedAt, &d.ScheduledFor, &d.PurgeAttempts, &d.NeedsReview, &d.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("%s: %w", caller, domain.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", caller, err)
	}

	return &d, nil
}

func scanDeletionRequests(rows pgx.Rows, caller string) ([]*domain.DeletionRequest, error) {
	var requests []*domain.DeletionRequest
	for rows.Next() {
		var d domain.DeletionRequest

		if err := rows.Scan(
			&d.ID, &d.TenantID, &d.AccountID, &d.Reason, &d.Status,
			&d.RequestedAt, &d.ScheduledFor, &d.PurgeAttempts, &d.NeedsReview, &d.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("%s: scan: %w", caller, err)
		}

		requests = append(requests, &d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: rows: %w", caller, err)
	}

	return requests, nil
}
