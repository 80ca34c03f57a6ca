package domain

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// ActorType identifies who performed an audited action.
type ActorType string

const (
	ActorUser        ActorType = "user"
	ActorSystem      ActorType = "system"
	ActorIntegration ActorType = "integration"
)

// Valid reports whether t is a known actor type.
func (t ActorType) Valid() bool {
	switch t {
	case ActorUser, ActorSystem, ActorIntegration:
		return true
	}
	return false
}

// AuditAction is the closed vocabulary of recordable actions. Call sites
// tag the action explicitly; nothing is inferred from request paths.
type AuditAction string

const (
	ActionCreate       AuditAction = "create"
	ActionUpdate       AuditAction = "update"
	ActionDelete       AuditAction = "delete"
	ActionSync         AuditAction = "sync"
	ActionPolicyApply  AuditAction = "policy_apply"
	ActionOAuthConnect AuditAction = "oauth_connect"
	ActionOAuthRefresh AuditAction = "oauth_refresh"
)

// Valid reports whether a is a known audit action.
func (a AuditAction) Valid() bool {
	switch a {
	case ActionCreate, ActionUpdate, ActionDelete, ActionSync,
		ActionPolicyApply, ActionOAuthConnect, ActionOAuthRefresh:
		return true
	}
	return false
}

// Fallback actor identifiers used when no authenticated identity exists.
const (
	ActorIDAnonymous = "anonymous"
	ActorIDSystem    = "system"
)

// Actor is the identity performing an audited action.
type Actor struct {
	Type ActorType
	ID   string
}

// SystemActor is the fixed identity for sweeper and other internal actions.
func SystemActor() Actor {
	return Actor{Type: ActorSystem, ID: ActorIDSystem}
}

// UserActor returns a user identity, falling back to the anonymous
// identifier when no authenticated identity exists.
func UserActor(id string) Actor {
	if id == "" {
		id = ActorIDAnonymous
	}
	return Actor{Type: ActorUser, ID: id}
}

// AuditEntry is one immutable record of a state-changing action.
// TenantID is uuid.Nil for tenant-independent (system) actions.
type AuditEntry struct {
	ID         uuid.UUID
	TenantID   uuid.UUID
	ActorType  ActorType
	ActorID    string
	EntityType string // "account", "tenant", etc.
	EntityID   string
	Action     AuditAction
	RequestID  string         // correlation id, generated when absent
	Diff       map[string]any // what changed: before/after or status
	Metadata   map[string]any
	CreatedAt  time.Time
}

// Validate checks the closed vocabularies and required fields. Unknown
// values fail fast; there is no silent coercion.
func (e *AuditEntry) Validate() error {
	if !e.ActorType.Valid() {
		return fmt.Errorf("audit entry: actor type %q: %w", e.ActorType, ErrValidation)
	}
	if !e.Action.Valid() {
		return fmt.Errorf("audit entry: action %q: %w", e.Action, ErrValidation)
	}
	if e.EntityType == "" {
		return fmt.Errorf("audit entry: empty entity type: %w", ErrValidation)
	}
	return nil
}

// AuditRepository is append-only: entries are never updated or deleted
// once written.
type AuditRepository interface {
	Record(ctx context.Context, entry *AuditEntry) error
	ListByTenant(ctx context.Context, tenantID uuid.UUID, from, to time.Time, limit, offset int) ([]*AuditEntry, error)
	ListByEntity(ctx context.Context, tenantID uuid.UUID, entityType, entityID string) ([]*AuditEntry, error)
	ListByActor(ctx context.Context, tenantID uuid.UUID, actorID string, limit, offset int) ([]*AuditEntry, error)
}
