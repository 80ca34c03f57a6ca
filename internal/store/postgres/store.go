package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/gosuda/lethe/internal/domain"
)

type Store struct {
	pool      *pgxpool.Pool
	tenants   *TenantRepo
	accounts  *AccountRepo
	deletions *DeletionRequestRepo
	audit     *AuditRepo
}

func New(ctx context.Context, dsn string, maxConns int32) (*Store, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("postgres.New: parse config: %w", err)
	}

	cfg.MaxConns = maxConns

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("postgres.New: connect: %w", err)
	}

	err = pool.Ping(ctx)
	if err != nil {
		pool.Close()
		return nil, fmt.Errorf("postgres.New: ping: %w", err)
	}

	return &Store{
		pool:      pool,
		tenants:   NewTenantRepo(pool),
		accounts:  NewAccountRepo(pool),
		deletions: NewDeletionRequestRepo(pool),
		audit:     NewAuditRepo(pool),
	}, nil
}

func (s *Store) Close() {
	s.pool.Close()
}

func (s *Store) Tenants() domain.TenantRepository            { return s.tenants }
func (s *Store) Accounts() domain.AccountRepository          { return s.accounts }
func (s *Store) Deletions() domain.DeletionRequestRepository { return s.deletions }
func (s *Store) Audit() domain.AuditRepository               { return s.audit }
