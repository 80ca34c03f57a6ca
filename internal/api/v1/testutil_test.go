package v1_test

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/gosuda/lethe/internal/domain"
	"github.com/gosuda/lethe/internal/server/middleware"
)

// ---------------------------------------------------------------------------
// Context helpers: inject tenant/actor/role into context for DoCtx
// ---------------------------------------------------------------------------

func tenantCtx(tenantID uuid.UUID) context.Context {
	ctx := context.Background()
	ctx = context.WithValue(ctx, middleware.ContextKeyTenantID, tenantID)
	ctx = context.WithValue(ctx, middleware.ContextKeyActor, domain.UserActor("user-1"))
	return ctx
}

func adminCtx(tenantID uuid.UUID) context.Context {
	ctx := tenantCtx(tenantID)
	ctx = context.WithValue(ctx, middleware.ContextKeyUserRole, "admin")
	return ctx
}

func actorCtx(tenantID uuid.UUID, actor domain.Actor) context.Context {
	ctx := context.Background()
	ctx = context.WithValue(ctx, middleware.ContextKeyTenantID, tenantID)
	ctx = context.WithValue(ctx, middleware.ContextKeyActor, actor)
	return ctx
}

// ---------------------------------------------------------------------------
// Mock DataStore
// ---------------------------------------------------------------------------

type mockDataStore struct {
	tenants  domain.TenantRepository
	accounts domain.AccountRepository
	audit    domain.AuditRepository
}

func (m *mockDataStore) Tenants() domain.TenantRepository   { return m.tenants }
func (m *mockDataStore) Accounts() domain.AccountRepository { return m.accounts }
func (m *mockDataStore) Audit() domain.AuditRepository      { return m.audit }

// ---------------------------------------------------------------------------
// Mock TenantRepository
// ---------------------------------------------------------------------------

type mockTenantRepo struct {
	createFunc    func(ctx context.Context, t *domain.Tenant) error
	getByIDFunc   func(ctx context.Context, id uuid.UUID) (*domain.Tenant, error)
	getBySlugFunc func(ctx context.Context, slug string) (*domain.Tenant, error)
	updateFunc    func(ctx context.Context, t *domain.Tenant) error
	listFunc      func(ctx context.Context) ([]*domain.Tenant, error)
}

func (m *mockTenantRepo) Create(ctx context.Context, t *domain.Tenant) error {
	return m.createFunc(ctx, t)
}

func (m *mockTenantRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Tenant, error) {
	return m.getByIDFunc(ctx, id)
}

func (m *mockTenantRepo) GetBySlug(ctx context.Context, slug string) (*domain.Tenant, error) {
	return m.getBySlugFunc(ctx, slug)
}

func (m *mockTenantRepo) Update(ctx context.Context, t *domain.Tenant) error {
	return m.updateFunc(ctx, t)
}

func (m *mockTenantRepo) List(ctx context.Context) ([]*domain.Tenant, error) {
	return m.listFunc(ctx)
}

// ---------------------------------------------------------------------------
// Mock AccountRepository
// ---------------------------------------------------------------------------

type mockAccountRepo struct {
	createFunc       func(ctx context.Context, a *domain.Account) error
	getByIDFunc      func(ctx context.Context, tenantID, id uuid.UUID) (*domain.Account, error)
	listFunc         func(ctx context.Context, tenantID uuid.UUID, limit, offset int) ([]*domain.Account, error)
	updateStatusFunc func(ctx context.Context, tenantID, id uuid.UUID, status domain.AccountStatus) error
}

func (m *mockAccountRepo) Create(ctx context.Context, a *domain.Account) error {
	return m.createFunc(ctx, a)
}

func (m *mockAccountRepo) GetByID(ctx context.Context, tenantID, id uuid.UUID) (*domain.Account, error) {
	return m.getByIDFunc(ctx, tenantID, id)
}

func (m *mockAccountRepo) List(ctx context.Context, tenantID uuid.UUID, limit, offset int) ([]*domain.Account, error) {
	return m.listFunc(ctx, tenantID, limit, offset)
}

func (m *mockAccountRepo) UpdateStatus(ctx context.Context, tenantID, id uuid.UUID, status domain.AccountStatus) error {
	return m.updateStatusFunc(ctx, tenantID, id, status)
}

// ---------------------------------------------------------------------------
// Mock AuditRepository
// ---------------------------------------------------------------------------

type mockAuditRepo struct {
	recordFunc       func(ctx context.Context, entry *domain.AuditEntry) error
	listByTenantFunc func(ctx context.Context, tenantID uuid.UUID, from, to time.Time, limit, offset int) ([]*domain.AuditEntry, error)
	listByEntityFunc func(ctx context.Context, tenantID uuid.UUID, entityType, entityID string) ([]*domain.AuditEntry, error)
	listByActorFunc  func(ctx context.Context, tenantID uuid.UUID, actorID string, limit, offset int) ([]*domain.AuditEntry, error)
}

func (m *mockAuditRepo) Record(ctx context.Context, entry *domain.AuditEntry) error {
	return m.recordFunc(ctx, entry)
}

func (m *mockAuditRepo) ListByTenant(ctx context.Context, tenantID uuid.UUID, from, to time.Time, limit, offset int) ([]*domain.AuditEntry, error) {
	return m.listByTenantFunc(ctx, tenantID, from, to, limit, offset)
}

func (m *mockAuditRepo) ListByEntity(ctx context.Context, tenantID uuid.UUID, entityType, entityID string) ([]*domain.AuditEntry, error) {
	return m.listByEntityFunc(ctx, tenantID, entityType, entityID)
}

func (m *mockAuditRepo) ListByActor(ctx context.Context, tenantID uuid.UUID, actorID string, limit, offset int) ([]*domain.AuditEntry, error) {
	return m.listByActorFunc(ctx, tenantID, actorID, limit, offset)
}

// ---------------------------------------------------------------------------
// Mock DeletionService
// ---------------------------------------------------------------------------

type mockDeletionService struct {
	requestFunc   func(ctx context.Context, tenantID, accountID uuid.UUID, actor domain.Actor, reason string) (*domain.DeletionRequest, error)
	cancelFunc    func(ctx context.Context, tenantID, accountID uuid.UUID, actor domain.Actor) error
	getActiveFunc func(ctx context.Context, tenantID, accountID uuid.UUID) (*domain.DeletionRequest, error)
	listFunc      func(ctx context.Context, tenantID uuid.UUID, needsReview bool, limit, offset int) ([]*domain.DeletionRequest, error)
}

func (m *mockDeletionService) RequestDeletion(ctx context.Context, tenantID, accountID uuid.UUID, actor domain.Actor, reason string) (*domain.DeletionRequest, error) {
	return m.requestFunc(ctx, tenantID, accountID, actor, reason)
}

func (m *mockDeletionService) CancelDeletion(ctx context.Context, tenantID, accountID uuid.UUID, actor domain.Actor) error {
	return m.cancelFunc(ctx, tenantID, accountID, actor)
}

func (m *mockDeletionService) GetActiveRequest(ctx context.Context, tenantID, accountID uuid.UUID) (*domain.DeletionRequest, error) {
	return m.getActiveFunc(ctx, tenantID, accountID)
}

func (m *mockDeletionService) ListRequests(ctx context.Context, tenantID uuid.UUID, needsReview bool, limit, offset int) ([]*domain.DeletionRequest, error) {
	return m.listFunc(ctx, tenantID, needsReview, limit, offset)
}

// ---------------------------------------------------------------------------
// Mock AuditRecorder
// ---------------------------------------------------------------------------

type mockRecorder struct {
	entries []*domain.AuditEntry
}

func (m *mockRecorder) Record(_ context.Context, entry *domain.AuditEntry) error {
	if err := entry.Validate(); err != nil {
		return err
	}
	m.entries = append(m.entries, entry)
	return nil
}

// ---------------------------------------------------------------------------
// Deterministic UUIDs for stable tests
// ---------------------------------------------------------------------------

func fixedTenantID() uuid.UUID {
	return uuid.MustParse("00000000-0000-0000-0000-000000000001")
}

func fixedAccountID() uuid.UUID {
	return uuid.MustParse("00000000-0000-0000-0000-00000000000a")
}
