package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/gosuda/lethe/internal/domain"
)

type AccountRepo struct {
	pool *pgxpool.Pool
}

func NewAccountRepo(pool *pgxpool.Pool) *AccountRepo {
	return &AccountRepo{pool: pool}
}

func (r *AccountRepo) Create(ctx context.Context, a *domain.Account) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO accounts (id, tenant_id, external_ref, email, status, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		a.ID, a.TenantID, a.ExternalRef, a.Email, a.Status, a.CreatedAt, a.UpdatedAt,
	)
	if isUniqueViolation(err) {
		return fmt.Errorf("accountRepo.Create: %w", domain.ErrConflict)
	}
	if err != nil {
		return fmt.Errorf("accountRepo.Create: %w", err)
	}

	return nil
}

func (r *AccountRepo) GetByID(ctx context.Context, tenantID, id uuid.UUID) (*domain.Account, error) {
	var a domain.Account

	err := r.pool.QueryRow(ctx,
		`SELECT id, tenant_id, external_ref, email, status, created_at, updated_at
		 FROM accounts WHERE tenant_id = $1 AND id = $2`,
		tenantID, id,
	).Scan(&a.ID, &a.TenantID, &a.ExternalRef, &a.Email, &a.Status, &a.CreatedAt, &a.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("accountRepo.GetByID: %w", domain.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("accountRepo.GetByID: %w", err)
	}

	return &a, nil
}

func (r *AccountRepo) List(ctx context.Context, tenantID uuid.UUID, limit, offset int) ([]*domain.Account, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, tenant_id, external_ref, email, status, created_at, updated_at
		 FROM accounts WHERE tenant_id = $1
		 ORDER BY created_at
		 LIMIT $2 OFFSET $3`,
		tenantID, limit, offset,
	)
	if err != nil {
		return nil, fmt.Errorf("accountRepo.List: %w", err)
	}
	defer rows.Close()

	var accounts []*domain.Account
	for rows.Next() {
		var a domain.Account

		err = rows.Scan(&a.ID, &a.TenantID, &a.ExternalRef, &a.Email, &a.Status, &a.CreatedAt, &a.UpdatedAt)
		if err != nil {
			return nil, fmt.Errorf("accountRepo.List: scan: %w", err)
		}

		accounts = append(accounts, &a)
	}
	err = rows.Err()
	if err != nil {
		return nil, fmt.Errorf("accountRepo.List: rows: %w", err)
	}

	return accounts, nil
}

func (r *AccountRepo) UpdateStatus(ctx context.Context, tenantID, id uuid.UUID, status domain.AccountStatus) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE accounts SET status = $1, updated_at = now() WHERE tenant_id = $2 AND id = $3`,
		status, tenantID, id,
	)
	if err != nil {
		return fmt.Errorf("accountRepo.UpdateStatus: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("accountRepo.UpdateStatus: %w", domain.ErrNotFound)
	}

	return nil
}
