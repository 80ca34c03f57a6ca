package deletion_test

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/gosuda/lethe/internal/domain"
)

// ---------------------------------------------------------------------------
// In-memory DeletionRequestRepository with real CAS semantics
// ---------------------------------------------------------------------------

// memRequestRepo mirrors the storage contract closely enough to exercise
// the conditional-transition races: one pending request per account and
// first-successful-transition-wins.
type memRequestRepo struct {
	mu   sync.Mutex
	byID map[uuid.UUID]*domain.DeletionRequest
}

func newMemRequestRepo() *memRequestRepo {
	return &memRequestRepo{byID: make(map[uuid.UUID]*domain.DeletionRequest)}
}

func (m *memRequestRepo) Create(_ context.Context, d *domain.DeletionRequest) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, existing := range m.byID {
		if existing.AccountID == d.AccountID && existing.Status == domain.DeletionPending {
			return fmt.Errorf("memRequestRepo.Create: %w", domain.ErrConflict)
		}
	}

	cp := *d
	m.byID[d.ID] = &cp
	return nil
}

func (m *memRequestRepo) GetByID(_ context.Context, tenantID, id uuid.UUID) (*domain.DeletionRequest, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	d, ok := m.byID[id]
	if !ok || d.TenantID != tenantID {
		return nil, fmt.Errorf("memRequestRepo.GetByID: %w", domain.ErrNotFound)
	}
	cp := *d
	return &cp, nil
}

func (m *memRequestRepo) GetActive(_ context.Context, tenantID, accountID uuid.UUID) (*domain.DeletionRequest, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, d := range m.byID {
		if d.TenantID == tenantID && d.AccountID == accountID && d.Status == domain.DeletionPending {
			cp := *d
			return &cp, nil
		}
	}
	return nil, fmt.Errorf("memRequestRepo.GetActive: %w", domain.ErrNotFound)
}

func (m *memRequestRepo) ListDue(_ context.Context, now time.Time, limit int) ([]*domain.DeletionRequest, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var due []*domain.DeletionRequest
	for _, d := range m.byID {
		if d.Status == domain.DeletionPending && !d.NeedsReview && !now.Before(d.ScheduledFor) {
			cp := *d
			due = append(due, &cp)
			if len(due) == limit {
				break
			}
		}
	}
	return due, nil
}

func (m *memRequestRepo) ListByTenant(_ context.Context, tenantID uuid.UUID, needsReview bool, limit, offset int) ([]*domain.DeletionRequest, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var out []*domain.DeletionRequest
	for _, d := range m.byID {
		if d.TenantID != tenantID {
			continue
		}
		if needsReview && !d.NeedsReview {
			continue
		}
		cp := *d
		out = append(out, &cp)
	}

	// Same ordering and pagination as the storage query.
	sort.Slice(out, func(i, j int) bool {
		return out[i].RequestedAt.After(out[j].RequestedAt)
	})
	if offset >= len(out) {
		return nil, nil
	}
	out = out[offset:]
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *memRequestRepo) TransitionStatus(_ context.Context, id uuid.UUID, from, to domain.DeletionStatus) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	d, ok := m.byID[id]
	if !ok || d.Status != from {
		return fmt.Errorf("memRequestRepo.TransitionStatus %s->%s: %w", from, to, domain.ErrInvalidState)
	}
	d.Status = to
	return nil
}

func (m *memRequestRepo) RecordPurgeFailure(_ context.Context, id uuid.UUID, needsReview bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	d, ok := m.byID[id]
	if !ok {
		return fmt.Errorf("memRequestRepo.RecordPurgeFailure: %w", domain.ErrNotFound)
	}
	d.PurgeAttempts++
	d.NeedsReview = needsReview
	return nil
}

func (m *memRequestRepo) get(id uuid.UUID) *domain.DeletionRequest {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *m.byID[id]
	return &cp
}

// ---------------------------------------------------------------------------
// Mock AccountRepository
// ---------------------------------------------------------------------------

type mockAccountRepo struct {
	mu       sync.Mutex
	accounts map[uuid.UUID]*domain.Account
}

func newMockAccountRepo(accounts ...*domain.Account) *mockAccountRepo {
	m := &mockAccountRepo{accounts: make(map[uuid.UUID]*domain.Account)}
	for _, a := range accounts {
		m.accounts[a.ID] = a
	}
	return m
}

func (m *mockAccountRepo) Create(_ context.Context, a *domain.Account) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.accounts[a.ID] = a
	return nil
}

func (m *mockAccountRepo) GetByID(_ context.Context, tenantID, id uuid.UUID) (*domain.Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	a, ok := m.accounts[id]
	if !ok || a.TenantID != tenantID {
		return nil, fmt.Errorf("mockAccountRepo.GetByID: %w", domain.ErrNotFound)
	}
	cp := *a
	return &cp, nil
}

func (m *mockAccountRepo) List(_ context.Context, _ uuid.UUID, _, _ int) ([]*domain.Account, error) {
	panic("not implemented")
}

func (m *mockAccountRepo) UpdateStatus(_ context.Context, tenantID, id uuid.UUID, status domain.AccountStatus) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	a, ok := m.accounts[id]
	if !ok || a.TenantID != tenantID {
		return fmt.Errorf("mockAccountRepo.UpdateStatus: %w", domain.ErrNotFound)
	}
	a.Status = status
	return nil
}

// ---------------------------------------------------------------------------
// Mock recorder, purger, alerts
// ---------------------------------------------------------------------------

type mockRecorder struct {
	mu      sync.Mutex
	entries []*domain.AuditEntry
}

func (m *mockRecorder) Record(_ context.Context, entry *domain.AuditEntry) error {
	if err := entry.Validate(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries = append(m.entries, entry)
	return nil
}

func (m *mockRecorder) recorded() []*domain.AuditEntry {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]*domain.AuditEntry(nil), m.entries...)
}

type mockPurger struct {
	mu    sync.Mutex
	calls int
	errs  []error // consumed per call; nil entry means success
}

func (m *mockPurger) Purge(_ context.Context, _, _ uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	if len(m.errs) > 0 {
		err := m.errs[0]
		m.errs = m.errs[1:]
		return err
	}
	return nil
}

func (m *mockPurger) callCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

type mockAlerts struct {
	mu    sync.Mutex
	texts []string
}

func (m *mockAlerts) Alert(_ context.Context, text string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.texts = append(m.texts, text)
	return nil
}

func (m *mockAlerts) alerts() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.texts...)
}

// ---------------------------------------------------------------------------
// Fixtures
// ---------------------------------------------------------------------------

func activeAccount(tenantID uuid.UUID) *domain.Account {
	return &domain.Account{
		ID:       uuid.New(),
		TenantID: tenantID,
		Email:    "user@example.com",
		Status:   domain.AccountActive,
	}
}

// fixedClock returns a Clock pinned to t plus an advance function.
func fixedClock(t time.Time) (func() time.Time, func(d time.Duration)) {
	var mu sync.Mutex
	current := t
	now := func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		return current
	}
	advance := func(d time.Duration) {
		mu.Lock()
		defer mu.Unlock()
		current = current.Add(d)
	}
	return now, advance
}
