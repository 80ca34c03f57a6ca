package v1_test

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/danielgtaylor/huma/v2/humatest"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	v1 "github.com/gosuda/lethe/internal/api/v1"
	"github.com/gosuda/lethe/internal/domain"
)

// ---------------------------------------------------------------------------
// POST /accounts/{accountID}/deletion-request
// ---------------------------------------------------------------------------

func TestRequestDeletionRoute(t *testing.T) {
	t.Parallel()

	t.Run("happy_path", func(t *testing.T) {
		t.Parallel()

		_, api := humatest.New(t)
		now := time.Date(2026, 8, 23, 10, 0, 0, 0, time.UTC)
		svc := &mockDeletionService{
			requestFunc: func(_ context.Context, tenantID, accountID uuid.UUID, actor domain.Actor, reason string) (*domain.DeletionRequest, error) {
				assert.Equal(t, fixedTenantID(), tenantID)
				assert.Equal(t, fixedAccountID(), accountID)
				assert.Equal(t, domain.UserActor("user-1"), actor)
				assert.Equal(t, "leaving", reason)
				return &domain.DeletionRequest{
					ID:           uuid.New(),
					TenantID:     tenantID,
					AccountID:    accountID,
					Reason:       reason,
					Status:       domain.DeletionPending,
					RequestedAt:  now,
					ScheduledFor: now.Add(30 * 24 * time.Hour),
				}, nil
			},
		}

		v1.RegisterDeletionRoutes(api, svc)

		resp := api.PostCtx(tenantCtx(fixedTenantID()),
			"/accounts/"+fixedAccountID().String()+"/deletion-request",
			map[string]any{"reason": "leaving"})

		require.Equal(t, http.StatusOK, resp.Code)

		var body domain.DeletionRequest
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
		assert.Equal(t, domain.DeletionPending, body.Status)
		assert.Equal(t, now.Add(30*24*time.Hour), body.ScheduledFor)
	})

	t.Run("conflict_on_duplicate_pending", func(t *testing.T) {
		t.Parallel()

		_, api := humatest.New(t)
		svc := &mockDeletionService{
			requestFunc: func(_ context.Context, _, _ uuid.UUID, _ domain.Actor, _ string) (*domain.DeletionRequest, error) {
				return nil, fmt.Errorf("deletion.RequestDeletion: %w", domain.ErrConflict)
			},
		}

		v1.RegisterDeletionRoutes(api, svc)

		resp := api.PostCtx(tenantCtx(fixedTenantID()),
			"/accounts/"+fixedAccountID().String()+"/deletion-request",
			map[string]any{})

		assert.Equal(t, http.StatusConflict, resp.Code)
	})

	t.Run("unknown_account_404", func(t *testing.T) {
		t.Parallel()

		_, api := humatest.New(t)
		svc := &mockDeletionService{
			requestFunc: func(_ context.Context, _, _ uuid.UUID, _ domain.Actor, _ string) (*domain.DeletionRequest, error) {
				return nil, fmt.Errorf("deletion.RequestDeletion: %w", domain.ErrNotFound)
			},
		}

		v1.RegisterDeletionRoutes(api, svc)

		resp := api.PostCtx(tenantCtx(fixedTenantID()),
			"/accounts/"+fixedAccountID().String()+"/deletion-request",
			map[string]any{})

		assert.Equal(t, http.StatusNotFound, resp.Code)
	})

	t.Run("purged_account_409", func(t *testing.T) {
		t.Parallel()

		_, api := humatest.New(t)
		svc := &mockDeletionService{
			requestFunc: func(_ context.Context, _, _ uuid.UUID, _ domain.Actor, _ string) (*domain.DeletionRequest, error) {
				return nil, fmt.Errorf("deletion.RequestDeletion: %w", domain.ErrInvalidState)
			},
		}

		v1.RegisterDeletionRoutes(api, svc)

		resp := api.PostCtx(tenantCtx(fixedTenantID()),
			"/accounts/"+fixedAccountID().String()+"/deletion-request",
			map[string]any{})

		assert.Equal(t, http.StatusConflict, resp.Code)
	})

	t.Run("missing_tenant_forbidden", func(t *testing.T) {
		t.Parallel()

		_, api := humatest.New(t)
		v1.RegisterDeletionRoutes(api, &mockDeletionService{})

		resp := api.PostCtx(context.Background(),
			"/accounts/"+fixedAccountID().String()+"/deletion-request",
			map[string]any{})

		assert.Equal(t, http.StatusForbidden, resp.Code)
	})

	t.Run("integration_actor_forwarded", func(t *testing.T) {
		t.Parallel()

		_, api := humatest.New(t)
		connector := domain.Actor{Type: domain.ActorIntegration, ID: "crm-sync"}
		svc := &mockDeletionService{
			requestFunc: func(_ context.Context, _, accountID uuid.UUID, actor domain.Actor, _ string) (*domain.DeletionRequest, error) {
				assert.Equal(t, connector, actor)
				return &domain.DeletionRequest{ID: uuid.New(), AccountID: accountID, Status: domain.DeletionPending}, nil
			},
		}

		v1.RegisterDeletionRoutes(api, svc)

		resp := api.PostCtx(actorCtx(fixedTenantID(), connector),
			"/accounts/"+fixedAccountID().String()+"/deletion-request",
			map[string]any{})

		assert.Equal(t, http.StatusOK, resp.Code)
	})
}

// ---------------------------------------------------------------------------
// DELETE /accounts/{accountID}/deletion-request
// ---------------------------------------------------------------------------

func TestCancelDeletionRoute(t *testing.T) {
	t.Parallel()

	t.Run("happy_path", func(t *testing.T) {
		t.Parallel()

		_, api := humatest.New(t)
		svc := &mockDeletionService{
			cancelFunc: func(_ context.Context, tenantID, accountID uuid.UUID, actor domain.Actor) error {
				assert.Equal(t, fixedTenantID(), tenantID)
				assert.Equal(t, fixedAccountID(), accountID)
				assert.Equal(t, domain.UserActor("user-1"), actor)
				return nil
			},
		}

		v1.RegisterDeletionRoutes(api, svc)

		resp := api.DeleteCtx(tenantCtx(fixedTenantID()),
			"/accounts/"+fixedAccountID().String()+"/deletion-request")

		assert.Equal(t, http.StatusNoContent, resp.Code)
	})

	t.Run("no_pending_request_404", func(t *testing.T) {
		t.Parallel()

		_, api := humatest.New(t)
		svc := &mockDeletionService{
			cancelFunc: func(_ context.Context, _, _ uuid.UUID, _ domain.Actor) error {
				return fmt.Errorf("deletion.CancelDeletion: %w", domain.ErrNotFound)
			},
		}

		v1.RegisterDeletionRoutes(api, svc)

		resp := api.DeleteCtx(tenantCtx(fixedTenantID()),
			"/accounts/"+fixedAccountID().String()+"/deletion-request")

		assert.Equal(t, http.StatusNotFound, resp.Code)
	})

	t.Run("lost_race_409", func(t *testing.T) {
		t.Parallel()

		_, api := humatest.New(t)
		svc := &mockDeletionService{
			cancelFunc: func(_ context.Context, _, _ uuid.UUID, _ domain.Actor) error {
				return fmt.Errorf("deletion.CancelDeletion: %w", domain.ErrInvalidState)
			},
		}

		v1.RegisterDeletionRoutes(api, svc)

		resp := api.DeleteCtx(tenantCtx(fixedTenantID()),
			"/accounts/"+fixedAccountID().String()+"/deletion-request")

		assert.Equal(t, http.StatusConflict, resp.Code)
	})
}

// ---------------------------------------------------------------------------
// GET /accounts/{accountID}/deletion-request
// ---------------------------------------------------------------------------

func TestGetDeletionRequestRoute(t *testing.T) {
	t.Parallel()

	t.Run("happy_path", func(t *testing.T) {
		t.Parallel()

		_, api := humatest.New(t)
		want := &domain.DeletionRequest{
			ID:        uuid.New(),
			TenantID:  fixedTenantID(),
			AccountID: fixedAccountID(),
			Status:    domain.DeletionPending,
		}
		svc := &mockDeletionService{
			getActiveFunc: func(_ context.Context, _, _ uuid.UUID) (*domain.DeletionRequest, error) {
				return want, nil
			},
		}

		v1.RegisterDeletionRoutes(api, svc)

		resp := api.GetCtx(tenantCtx(fixedTenantID()),
			"/accounts/"+fixedAccountID().String()+"/deletion-request")

		require.Equal(t, http.StatusOK, resp.Code)

		var body domain.DeletionRequest
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
		assert.Equal(t, want.ID, body.ID)
	})

	t.Run("none_active_404", func(t *testing.T) {
		t.Parallel()

		_, api := humatest.New(t)
		svc := &mockDeletionService{
			getActiveFunc: func(_ context.Context, _, _ uuid.UUID) (*domain.DeletionRequest, error) {
				return nil, fmt.Errorf("deletion.GetActiveRequest: %w", domain.ErrNotFound)
			},
		}

		v1.RegisterDeletionRoutes(api, svc)

		resp := api.GetCtx(tenantCtx(fixedTenantID()),
			"/accounts/"+fixedAccountID().String()+"/deletion-request")

		assert.Equal(t, http.StatusNotFound, resp.Code)
	})
}

// ---------------------------------------------------------------------------
// GET /deletion-requests
// ---------------------------------------------------------------------------

func TestListDeletionRequestsRoute(t *testing.T) {
	t.Parallel()

	t.Run("needs_review_filter_forwarded", func(t *testing.T) {
		t.Parallel()

		_, api := humatest.New(t)
		svc := &mockDeletionService{
			listFunc: func(_ context.Context, tenantID uuid.UUID, needsReview bool, limit, offset int) ([]*domain.DeletionRequest, error) {
				assert.Equal(t, fixedTenantID(), tenantID)
				assert.True(t, needsReview)
				assert.Equal(t, 10, limit)
				assert.Equal(t, 20, offset)
				return []*domain.DeletionRequest{
					{ID: uuid.New(), NeedsReview: true, PurgeAttempts: 3},
				}, nil
			},
		}

		v1.RegisterDeletionRoutes(api, svc)

		resp := api.GetCtx(tenantCtx(fixedTenantID()),
			"/deletion-requests?needs_review=true&limit=10&offset=20")

		require.Equal(t, http.StatusOK, resp.Code)

		var body []*domain.DeletionRequest
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
		require.Len(t, body, 1)
		assert.True(t, body[0].NeedsReview)
	})

	t.Run("defaults_applied", func(t *testing.T) {
		t.Parallel()

		_, api := humatest.New(t)
		svc := &mockDeletionService{
			listFunc: func(_ context.Context, _ uuid.UUID, needsReview bool, limit, offset int) ([]*domain.DeletionRequest, error) {
				assert.False(t, needsReview)
				assert.Equal(t, 50, limit)
				assert.Zero(t, offset)
				return nil, nil
			},
		}

		v1.RegisterDeletionRoutes(api, svc)

		resp := api.GetCtx(tenantCtx(fixedTenantID()), "/deletion-requests")
		assert.Equal(t, http.StatusOK, resp.Code)
	})
}
