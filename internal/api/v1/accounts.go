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

type CreateAccountInput struct {
	Body struct {
		ExternalRef string `json:"external_ref" minLength:"1" maxLength:"255" doc:"Identifier in the upstream identity service"`
		Email       string `json:"email" format:"email" doc:"Account email"`
	}
}

type CreateAccountOutput struct {
	Body *domain.Account
}

type GetAccountInput struct {
	AccountID uuid.UUID `path:"accountID" doc:"Account ID"`
}

type GetAccountOutput struct {
	Body *domain.Account
}

type ListAccountsInput struct {
	Limit  int `query:"limit" minimum:"1" maximum:"200" default:"50" doc:"Max results"`
	Offset int `query:"offset" minimum:"0" default:"0" doc:"Offset for pagination"`
}

type ListAccountsOutput struct {
	Body []*domain.Account
}

func RegisterAccountRoutes(api huma.API, store DataStore, recorder AuditRecorder) {
	huma.Register(api, huma.Operation{
		OperationID: "create-account",
		Method:      http.MethodPost,
		Path:        "/accounts",
		Summary:     "Register an account directory entry",
		Tags:        []string{"Accounts"},
	}, func(ctx context.Context, input *CreateAccountInput) (*CreateAccountOutput, error) {
		tenantID, actor, err := callerIdentity(ctx)
		if err != nil {
			return nil, err
		}

		now := time.Now()
		a := &domain.Account{
			ID:          uuid.New(),
			TenantID:    tenantID,
			ExternalRef: input.Body.ExternalRef,
			Email:       input.Body.Email,
			Status:      domain.AccountActive,
			CreatedAt:   now,
			UpdatedAt:   now,
		}

		if err := store.Accounts().Create(ctx, a); err != nil {
			if errors.Is(err, domain.ErrConflict) {
				return nil, huma.Error409Conflict("account with this external reference already exists")
			}
			return nil, huma.Error500InternalServerError("failed to create account", err)
		}

		// Connector-driven writes are tagged as sync, manual ones as create.
		action := domain.ActionCreate
		if actor.Type == domain.ActorIntegration {
			action = domain.ActionSync
		}
		recordErr := recorder.Record(ctx, &domain.AuditEntry{
			TenantID:   tenantID,
			ActorType:  actor.Type,
			ActorID:    actor.ID,
			EntityType: "account",
			EntityID:   a.ID.String(),
			Action:     action,
			Diff: map[string]any{
				"external_ref": a.ExternalRef,
				"status":       string(a.Status),
			},
		})
		if recordErr != nil {
			log.Warn().Err(recordErr).Str("account_id", a.ID.String()).Msg("accounts: audit record rejected")
		}

		return &CreateAccountOutput{Body: a}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "get-account",
		Method:      http.MethodGet,
		Path:        "/accounts/{accountID}",
		Summary:     "Get an account by ID",
		Tags:        []string{"Accounts"},
	}, func(ctx context.Context, input *GetAccountInput) (*GetAccountOutput, error) {
		tenantID, ok := middleware.TenantIDFromContext(ctx)
		if !ok {
			return nil, huma.Error403Forbidden("missing tenant context")
		}

		a, err := store.Accounts().GetByID(ctx, tenantID, input.AccountID)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				return nil, huma.Error404NotFound("account not found")
			}
			return nil, huma.Error500InternalServerError("failed to get account", err)
		}

		return &GetAccountOutput{Body: a}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "list-accounts",
		Method:      http.MethodGet,
		Path:        "/accounts",
		Summary:     "List the tenant's accounts",
		Tags:        []string{"Accounts"},
	}, func(ctx context.Context, input *ListAccountsInput) (*ListAccountsOutput, error) {
		tenantID, ok := middleware.TenantIDFromContext(ctx)
		if !ok {
			return nil, huma.Error403Forbidden("missing tenant context")
		}

		accounts, err := store.Accounts().List(ctx, tenantID, input.Limit, input.Offset)
		if err != nil {
			return nil, huma.Error500InternalServerError("failed to list accounts", err)
		}

		return &ListAccountsOutput{Body: accounts}, nil
	})
}
