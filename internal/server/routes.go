package server

import (
	"github.com/danielgtaylor/huma/v2"
	"github.com/go-chi/chi/v5"

	v1 "github.com/gosuda/lethe/internal/api/v1"
	"github.com/gosuda/lethe/internal/api/ws"
	"github.com/gosuda/lethe/internal/store/postgres"
)

func registerAPIRoutes(api huma.API, store *postgres.Store, deletions v1.DeletionService, recorder v1.AuditRecorder) {
	v1.RegisterTenantRoutes(api, store, recorder)
	v1.RegisterAccountRoutes(api, store, recorder)
	v1.RegisterDeletionRoutes(api, deletions)
	v1.RegisterAuditRoutes(api, store)
}

func registerWSRoutes(r chi.Router, hub *ws.Hub) {
	r.Get("/audit", hub.ServeAudit)
}
