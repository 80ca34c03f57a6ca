package v1

import (
	"context"
	"errors"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
	"github.com/google/uuid"

	"github.com/gosuda/lethe/internal/domain"
	"github.com/gosuda/lethe/internal/server/middleware"
)

type RequestDeletionInput struct {
	AccountID uuid.UUID `path:"accountID" doc:"Account ID"`
	Body      struct {
		Reason string `json:"reason,omitempty" maxLength:"1000" doc:"Optional free-form reason"`
	}
}

type RequestDeletionOutput struct {
	Body *domain.DeletionRequest
}

type CancelDeletionInput struct {
	AccountID uuid.UUID `path:"accountID" doc:"Account ID"`
}

type GetDeletionRequestInput struct {
	AccountID uuid.UUID `path:"accountID" doc:"Account ID"`
}

type GetDeletionRequestOutput struct {
	Body *domain.DeletionRequest
}

type ListDeletionRequestsInput struct {
	NeedsReview bool `query:"needs_review" doc:"Only requests parked for operator review"`
	Limit       int  `query:"limit" minimum:"1" maximum:"200" default:"50" doc:"Max results"`
	Offset      int  `query:"offset" minimum:"0" default:"0" doc:"Offset for pagination"`
}

type ListDeletionRequestsOutput struct {
	Body []*domain.DeletionRequest
}

func RegisterDeletionRoutes(api huma.API, svc DeletionService) {
	huma.Register(api, huma.Operation{
		OperationID: "request-deletion",
		Method:      http.MethodPost,
		Path:        "/accounts/{accountID}/deletion-request",
		Summary:     "Open a deletion request for an account",
		Tags:        []string{"Deletion"},
	}, func(ctx context.Context, input *RequestDeletionInput) (*RequestDeletionOutput, error) {
		tenantID, actor, err := callerIdentity(ctx)
		if err != nil {
			return nil, err
		}

		req, err := svc.RequestDeletion(ctx, tenantID, input.AccountID, actor, input.Body.Reason)
		if err != nil {
			switch {
			case errors.Is(err, domain.ErrNotFound):
				return nil, huma.Error404NotFound("account not found")
			case errors.Is(err, domain.ErrConflict):
				return nil, huma.Error409Conflict("a pending deletion request already exists")
			case errors.Is(err, domain.ErrInvalidState):
				return nil, huma.Error409Conflict("account is already purged")
			}
			return nil, huma.Error500InternalServerError("failed to create deletion request", err)
		}

		return &RequestDeletionOutput{Body: req}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "cancel-deletion",
		Method:      http.MethodDelete,
		Path:        "/accounts/{accountID}/deletion-request",
		Summary:     "Cancel the account's pending deletion request",
		Tags:        []string{"Deletion"},
	}, func(ctx context.Context, input *CancelDeletionInput) (*struct{}, error) {
		tenantID, actor, err := callerIdentity(ctx)
		if err != nil {
			return nil, err
		}

		if err := svc.CancelDeletion(ctx, tenantID, input.AccountID, actor); err != nil {
			switch {
			case errors.Is(err, domain.ErrNotFound):
				return nil, huma.Error404NotFound("no pending deletion request")
			case errors.Is(err, domain.ErrInvalidState):
				return nil, huma.Error409Conflict("deletion request already reached a terminal state")
			}
			return nil, huma.Error500InternalServerError("failed to cancel deletion request", err)
		}

		return nil, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "get-deletion-request",
		Method:      http.MethodGet,
		Path:        "/accounts/{accountID}/deletion-request",
		Summary:     "Get the account's pending deletion request",
		Tags:        []string{"Deletion"},
	}, func(ctx context.Context, input *GetDeletionRequestInput) (*GetDeletionRequestOutput, error) {
		tenantID, ok := middleware.TenantIDFromContext(ctx)
		if !ok {
			return nil, huma.Error403Forbidden("missing tenant context")
		}

		req, err := svc.GetActiveRequest(ctx, tenantID, input.AccountID)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				return nil, huma.Error404NotFound("no pending deletion request")
			}
			return nil, huma.Error500InternalServerError("failed to get deletion request", err)
		}

		return &GetDeletionRequestOutput{Body: req}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "list-deletion-requests",
		Method:      http.MethodGet,
		Path:        "/deletion-requests",
		Summary:     "List the tenant's deletion requests",
		Tags:        []string{"Deletion"},
	}, func(ctx context.Context, input *ListDeletionRequestsInput) (*ListDeletionRequestsOutput, error) {
		tenantID, ok := middleware.TenantIDFromContext(ctx)
		if !ok {
			return nil, huma.Error403Forbidden("missing tenant context")
		}

		requests, err := svc.ListRequests(ctx, tenantID, input.NeedsReview, input.Limit, input.Offset)
		if err != nil {
			return nil, huma.Error500InternalServerError("failed to list deletion requests", err)
		}

		return &ListDeletionRequestsOutput{Body: requests}, nil
	})
}

// callerIdentity pulls the tenant and actor the Auth middleware stored.
func callerIdentity(ctx context.Context) (uuid.UUID, domain.Actor, error) {
	tenantID, ok := middleware.TenantIDFromContext(ctx)
	if !ok {
		return uuid.Nil, domain.Actor{}, huma.Error403Forbidden("missing tenant context")
	}

	actor, ok := middleware.ActorFromContext(ctx)
	if !ok {
		actor = domain.UserActor("")
	}

	return tenantID, actor, nil
}
