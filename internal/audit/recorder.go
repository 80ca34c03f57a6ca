package audit

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/gosuda/lethe/internal/domain"
	redisstore "github.com/gosuda/lethe/internal/store/redis"
)

// writeTimeout bounds each storage write so a slow audit store cannot
// back up the queue indefinitely.
const writeTimeout = 5 * time.Second

// Publisher pushes stored entries onto a live feed. *redis.PubSub
// satisfies this interface.
type Publisher interface {
	Publish(ctx context.Context, channel string, payload []byte) error
}

// Recorder is the write side of the audit trail. Validation happens
// synchronously so callers get ErrValidation immediately; the storage
// write happens on a background goroutine fed by a bounded queue.
// A full queue or a failed write is logged and dropped; an audit-store
// outage must never block a deletion flow.
type Recorder struct {
	repo      domain.AuditRepository
	publisher Publisher // nil disables the live feed
	now       func() time.Time

	queue     chan *domain.AuditEntry
	done      chan struct{}
	closeOnce sync.Once
}

// NewRecorder creates a Recorder and starts its writer goroutine.
// now may be nil, in which case time.Now is used.
func NewRecorder(repo domain.AuditRepository, publisher Publisher, bufferSize int, now func() time.Time) *Recorder {
	if now == nil {
		now = time.Now
	}

	r := &Recorder{
		repo:      repo,
		publisher: publisher,
		now:       now,
		queue:     make(chan *domain.AuditEntry, bufferSize),
		done:      make(chan struct{}),
	}

	go r.run()

	return r
}

// Record validates the entry, fills generated fields, and enqueues it
// for asynchronous storage. The only error returned is ErrValidation;
// downstream failures never propagate to the caller.
func (r *Recorder) Record(ctx context.Context, entry *domain.AuditEntry) error {
	if err := entry.Validate(); err != nil {
		return fmt.Errorf("audit.Recorder.Record: %w", err)
	}

	if entry.ID == uuid.Nil {
		entry.ID = uuid.New()
	}
	if entry.ActorID == "" {
		switch entry.ActorType {
		case domain.ActorSystem:
			entry.ActorID = domain.ActorIDSystem
		default:
			entry.ActorID = domain.ActorIDAnonymous
		}
	}
	if entry.RequestID == "" {
		if reqID := chimw.GetReqID(ctx); reqID != "" {
			entry.RequestID = reqID
		} else {
			entry.RequestID = uuid.NewString()
		}
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = r.now()
	}
	if entry.Metadata == nil {
		entry.Metadata = map[string]any{}
	}
	entry.Metadata["recorded_at"] = entry.CreatedAt.UTC().Format(time.RFC3339Nano)

	select {
	case r.queue <- entry:
	default:
		log.Warn().
			Str("entity_type", entry.EntityType).
			Str("entity_id", entry.EntityID).
			Str("action", string(entry.Action)).
			Msg("audit: buffer full, dropping entry")
	}

	return nil
}

// run is the single writer goroutine. Each entry gets its own bounded
// write context; failures are logged and swallowed.
func (r *Recorder) run() {
	defer close(r.done)

	for entry := range r.queue {
		ctx, cancel := context.WithTimeout(context.Background(), writeTimeout)

		if err := r.repo.Record(ctx, entry); err != nil {
			log.Error().Err(err).
				Str("audit_id", entry.ID.String()).
				Str("action", string(entry.Action)).
				Msg("audit: write failed, entry dropped")
			cancel()
			continue
		}

		r.publish(ctx, entry)
		cancel()
	}
}

// publish pushes the stored entry onto the tenant's live feed channel.
func (r *Recorder) publish(ctx context.Context, entry *domain.AuditEntry) {
	if r.publisher == nil {
		return
	}

	payload, err := json.Marshal(entryEvent(entry))
	if err != nil {
		log.Warn().Err(err).Msg("audit: marshal live feed event")
		return
	}

	if err := r.publisher.Publish(ctx, redisstore.AuditChannel(entry.TenantID), payload); err != nil {
		log.Warn().Err(err).Msg("audit: publish live feed event")
	}
}

// Close stops accepting entries and waits for the queue to drain, up to
// the context deadline.
func (r *Recorder) Close(ctx context.Context) error {
	r.closeOnce.Do(func() {
		close(r.queue)
	})

	select {
	case <-r.done:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("audit.Recorder.Close: %w", ctx.Err())
	}
}

// entryEvent is the wire shape of a live feed event.
func entryEvent(entry *domain.AuditEntry) map[string]any {
	return map[string]any{
		"id":          entry.ID,
		"tenant_id":   entry.TenantID,
		"actor_type":  entry.ActorType,
		"actor_id":    entry.ActorID,
		"entity_type": entry.EntityType,
		"entity_id":   entry.EntityID,
		"action":      entry.Action,
		"request_id":  entry.RequestID,
		"diff":        entry.Diff,
		"created_at":  entry.CreatedAt,
	}
}
