package v1

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/gosuda/lethe/internal/domain"
	"github.com/gosuda/lethe/internal/server/middleware"
)

type CreateTenantInput struct {
	Body struct {
		Name string `json:"name" minLength:"1" maxLength:"255" doc:"Tenant name"`
		Slug string `json:"slug" minLength:"1" maxLength:"63" pattern:"^[a-z0-9]+(?:-[a-z0-9]+)*$" doc:"URL-safe slug (lowercase alphanumeric with hyphens)"`
	}
}

type CreateTenantOutput struct {
	Body *domain.Tenant
}

type GetTenantBySlugInput struct {
	Slug string `path:"slug" maxLength:"63" doc:"Tenant slug"`
}

type GetTenantOutput struct {
	Body *domain.Tenant
}

type UpdateTenantSettingsInput struct {
	TenantID uuid.UUID `path:"tenantID" doc:"Tenant ID"`
	Body     struct {
		Settings map[string]any `json:"settings" doc:"Replacement settings document"`
	}
}

type UpdateTenantSettingsOutput struct {
	Body *domain.Tenant
}

type ListTenantsOutput struct {
	Body []*domain.Tenant
}

func RegisterTenantRoutes(api huma.API, store DataStore, recorder AuditRecorder) {
	huma.Register(api, huma.Operation{
		OperationID: "create-tenant",
		Method:      http.MethodPost,
		Path:        "/tenants",
		Summary:     "Create a new tenant",
		Tags:        []string{"Tenants"},
	}, func(ctx context.Context, input *CreateTenantInput) (*CreateTenantOutput, error) {
		if err := requireAdmin(ctx); err != nil {
			return nil, err
		}

		now := time.Now()
		t := &domain.Tenant{
			ID:        uuid.New(),
			Name:      input.Body.Name,
			Slug:      input.Body.Slug,
			CreatedAt: now,
			UpdatedAt: now,
		}

		if err := store.Tenants().Create(ctx, t); err != nil {
			if errors.Is(err, domain.ErrConflict) {
				return nil, huma.Error409Conflict("tenant with this slug already exists")
			}
			return nil, huma.Error500InternalServerError("failed to create tenant", err)
		}

		return &CreateTenantOutput{Body: t}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "get-tenant-by-slug",
		Method:      http.MethodGet,
		Path:        "/tenants/{slug}",
		Summary:     "Look up a tenant by slug",
		Tags:        []string{"Tenants"},
	}, func(ctx context.Context, input *GetTenantBySlugInput) (*GetTenantOutput, error) {
		if err := requireAdmin(ctx); err != nil {
			return nil, err
		}

		t, err := store.Tenants().GetBySlug(ctx, input.Slug)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				return nil, huma.Error404NotFound("tenant not found")
			}
			return nil, huma.Error500InternalServerError("failed to get tenant", err)
		}

		return &GetTenantOutput{Body: t}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "update-tenant-settings",
		Method:      http.MethodPut,
		Path:        "/tenants/{tenantID}/settings",
		Summary:     "Replace a tenant's settings document",
		Tags:        []string{"Tenants"},
	}, func(ctx context.Context, input *UpdateTenantSettingsInput) (*UpdateTenantSettingsOutput, error) {
		if err := requireAdmin(ctx); err != nil {
			return nil, err
		}

		t, err := store.Tenants().GetByID(ctx, input.TenantID)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				return nil, huma.Error404NotFound("tenant not found")
			}
			return nil, huma.Error500InternalServerError("failed to get tenant", err)
		}

		t.Settings = input.Body.Settings
		if err := store.Tenants().Update(ctx, t); err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				return nil, huma.Error404NotFound("tenant not found")
			}
			return nil, huma.Error500InternalServerError("failed to update tenant", err)
		}

		actor, ok := middleware.ActorFromContext(ctx)
		if !ok {
			actor = domain.UserActor("")
		}
		recordErr := recorder.Record(ctx, &domain.AuditEntry{
			TenantID:   t.ID,
			ActorType:  actor.Type,
			ActorID:    actor.ID,
			EntityType: "tenant",
			EntityID:   t.ID.String(),
			Action:     domain.ActionUpdate,
			Diff: map[string]any{
				"settings": t.Settings,
			},
		})
		if recordErr != nil {
			log.Warn().Err(recordErr).Str("tenant_id", t.ID.String()).Msg("tenants: audit record rejected")
		}

		return &UpdateTenantSettingsOutput{Body: t}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "list-tenants",
		Method:      http.MethodGet,
		Path:        "/tenants",
		Summary:     "List all tenants",
		Tags:        []string{"Tenants"},
	}, func(ctx context.Context, _ *struct{}) (*ListTenantsOutput, error) {
		if err := requireAdmin(ctx); err != nil {
			return nil, err
		}

		tenants, err := store.Tenants().List(ctx)
		if err != nil {
			return nil, huma.Error500InternalServerError("failed to list tenants", err)
		}

		return &ListTenantsOutput{Body: tenants}, nil
	})
}

// requireAdmin gates tenant provisioning on the admin role.
func requireAdmin(ctx context.Context) error {
	role, ok := middleware.RoleFromContext(ctx)
	if !ok || role != middleware.RoleAdmin {
		return huma.Error403Forbidden("admin role required")
	}
	return nil
}
