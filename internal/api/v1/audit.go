package v1

import (
	"context"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"

	"github.com/gosuda/lethe/internal/domain"
	"github.com/gosuda/lethe/internal/server/middleware"
)

type ListAuditInput struct {
	From    time.Time `query:"from" doc:"Start of the time range (RFC3339), zero means unbounded"`
	To      time.Time `query:"to" doc:"End of the time range (RFC3339), zero means now"`
	ActorID string    `query:"actor_id" doc:"Filter by acting principal"`
	Limit   int       `query:"limit" minimum:"1" maximum:"500" default:"100" doc:"Max results"`
	Offset  int       `query:"offset" minimum:"0" default:"0" doc:"Offset for pagination"`
}

type ListAuditOutput struct {
	Body []*domain.AuditEntry
}

type ListEntityAuditInput struct {
	EntityType string `path:"entityType" doc:"Entity type, e.g. account"`
	EntityID   string `path:"entityID" doc:"Entity identifier"`
}

type ListEntityAuditOutput struct {
	Body []*domain.AuditEntry
}

func RegisterAuditRoutes(api huma.API, store DataStore) {
	huma.Register(api, huma.Operation{
		OperationID: "list-audit",
		Method:      http.MethodGet,
		Path:        "/audit",
		Summary:     "List the tenant's audit trail",
		Tags:        []string{"Audit"},
	}, func(ctx context.Context, input *ListAuditInput) (*ListAuditOutput, error) {
		tenantID, ok := middleware.TenantIDFromContext(ctx)
		if !ok {
			return nil, huma.Error403Forbidden("missing tenant context")
		}

		if input.ActorID != "" {
			entries, err := store.Audit().ListByActor(ctx, tenantID, input.ActorID, input.Limit, input.Offset)
			if err != nil {
				return nil, huma.Error500InternalServerError("failed to list audit entries", err)
			}
			return &ListAuditOutput{Body: entries}, nil
		}

		to := input.To
		if to.IsZero() {
			to = time.Now()
		}

		entries, err := store.Audit().ListByTenant(ctx, tenantID, input.From, to, input.Limit, input.Offset)
		if err != nil {
			return nil, huma.Error500InternalServerError("failed to list audit entries", err)
		}

		return &ListAuditOutput{Body: entries}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "list-entity-audit",
		Method:      http.MethodGet,
		Path:        "/audit/{entityType}/{entityID}",
		Summary:     "List the audit trail of one entity",
		Tags:        []string{"Audit"},
	}, func(ctx context.Context, input *ListEntityAuditInput) (*ListEntityAuditOutput, error) {
		tenantID, ok := middleware.TenantIDFromContext(ctx)
		if !ok {
			return nil, huma.Error403Forbidden("missing tenant context")
		}

		entries, err := store.Audit().ListByEntity(ctx, tenantID, input.EntityType, input.EntityID)
		if err != nil {
			return nil, huma.Error500InternalServerError("failed to list audit entries", err)
		}

		return &ListEntityAuditOutput{Body: entries}, nil
	})
}
