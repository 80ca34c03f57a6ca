package deletion

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/gosuda/lethe/internal/domain"
)

// Purger irreversibly removes an account's data. Implementations must
// tolerate being retried for the same account.
type Purger interface {
	Purge(ctx context.Context, tenantID, accountID uuid.UUID) error
}

// AlertNotifier delivers operator-visible escalations. *alert.Slack and
// *alert.Log satisfy this interface.
type AlertNotifier interface {
	Alert(ctx context.Context, text string) error
}

// SweeperConfig bounds the sweep loop.
type SweeperConfig struct {
	Interval     time.Duration
	BatchSize    int
	MaxAttempts  int
	PurgeTimeout time.Duration
}

// Sweeper periodically executes deletion requests whose grace period has
// lapsed. Multiple instances may sweep concurrently: each request is
// claimed with a conditional pending->executed transition, so exactly
// one sweeper wins and the purge runs at most once per sweep round.
type Sweeper struct {
	requests domain.DeletionRequestRepository
	accounts domain.AccountRepository
	purger   Purger
	recorder AuditRecorder
	alerts   AlertNotifier
	cfg      SweeperConfig
	now      Clock
}

// NewSweeper creates a Sweeper. now may be nil, in which case time.Now
// is used.
func NewSweeper(requests domain.DeletionRequestRepository, accounts domain.AccountRepository, purger Purger, recorder AuditRecorder, alerts AlertNotifier, cfg SweeperConfig, now Clock) *Sweeper {
	if now == nil {
		now = time.Now
	}

	return &Sweeper{
		requests: requests,
		accounts: accounts,
		purger:   purger,
		recorder: recorder,
		alerts:   alerts,
		cfg:      cfg,
		now:      now,
	}
}

// Run sweeps immediately, then on every tick until the context is
// cancelled.
func (s *Sweeper) Run(ctx context.Context) {
	log.Info().Dur("interval", s.cfg.Interval).Msg("sweeper started")

	s.sweep(ctx)

	ticker := time.NewTicker(s.cfg.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.sweep(ctx)
		case <-ctx.Done():
			log.Info().Msg("sweeper stopped")
			return
		}
	}
}

func (s *Sweeper) sweep(ctx context.Context) {
	executed, err := s.RunSweep(ctx)
	if err != nil {
		log.Error().Err(err).Msg("sweep failed")
		return
	}
	if executed > 0 {
		log.Info().Int("executed", executed).Msg("sweep completed")
	}
}

// RunSweep processes one batch of due requests and returns how many were
// executed. Purge failures are retried on later sweeps and never
// surface as an error here; only listing failures do.
func (s *Sweeper) RunSweep(ctx context.Context) (int, error) {
	due, err := s.requests.ListDue(ctx, s.now(), s.cfg.BatchSize)
	if err != nil {
		return 0, fmt.Errorf("deletion.RunSweep: %w", err)
	}

	executed := 0
	for _, req := range due {
		if ctx.Err() != nil {
			return executed, fmt.Errorf("deletion.RunSweep: %w", ctx.Err())
		}
		if s.process(ctx, req) {
			executed++
		}
	}

	return executed, nil
}

// process executes one due request. Returns true when this sweeper
// performed the purge and finalized the request.
func (s *Sweeper) process(ctx context.Context, req *domain.DeletionRequest) bool {
	// Claim the request. A concurrent sweeper or a racing cancellation
	// makes the CAS affect zero rows; either way this instance backs off.
	err := s.requests.TransitionStatus(ctx, req.ID, domain.DeletionPending, domain.DeletionExecuted)
	if errors.Is(err, domain.ErrInvalidState) {
		return false
	}
	if err != nil {
		log.Error().Err(err).Str("request_id", req.ID.String()).Msg("sweep: claim failed")
		return false
	}

	purgeCtx, cancel := context.WithTimeout(ctx, s.cfg.PurgeTimeout)
	err = s.purger.Purge(purgeCtx, req.TenantID, req.AccountID)
	cancel()

	if err != nil {
		s.handlePurgeFailure(ctx, req, err)
		return false
	}

	if err := s.accounts.UpdateStatus(ctx, req.TenantID, req.AccountID, domain.AccountPurged); err != nil {
		log.Warn().Err(err).Str("account_id", req.AccountID.String()).Msg("sweep: mark account purged")
	}

	s.auditExecuted(ctx, req)

	return true
}

// handlePurgeFailure reverts the claim so the request is retried on the
// next sweep. Once attempts reach the configured bound, the request is
// parked for operator review instead of being silently dropped.
func (s *Sweeper) handlePurgeFailure(ctx context.Context, req *domain.DeletionRequest, purgeErr error) {
	log.Warn().Err(purgeErr).
		Str("request_id", req.ID.String()).
		Int("attempts", req.PurgeAttempts+1).
		Msg("sweep: purge failed")

	if err := s.requests.TransitionStatus(ctx, req.ID, domain.DeletionExecuted, domain.DeletionPending); err != nil {
		log.Error().Err(err).Str("request_id", req.ID.String()).Msg("sweep: revert claim failed")
		return
	}

	needsReview := req.PurgeAttempts+1 >= s.cfg.MaxAttempts
	if err := s.requests.RecordPurgeFailure(ctx, req.ID, needsReview); err != nil {
		log.Error().Err(err).Str("request_id", req.ID.String()).Msg("sweep: record purge failure")
		return
	}

	if needsReview {
		text := fmt.Sprintf(
			"deletion request %s (tenant %s, account %s) exhausted %d purge attempts and needs manual review: %v",
			req.ID, req.TenantID, req.AccountID, req.PurgeAttempts+1, purgeErr,
		)
		if alertErr := s.alerts.Alert(ctx, text); alertErr != nil {
			log.Error().Err(alertErr).Str("request_id", req.ID.String()).Msg("sweep: operator alert failed")
		}
	}
}

// auditExecuted records the final lifecycle entry. Emitted only after
// the purge collaborator confirmed success.
func (s *Sweeper) auditExecuted(ctx context.Context, req *domain.DeletionRequest) {
	actor := domain.SystemActor()
	err := s.recorder.Record(ctx, &domain.AuditEntry{
		TenantID:   req.TenantID,
		ActorType:  actor.Type,
		ActorID:    actor.ID,
		EntityType: entityAccount,
		EntityID:   req.AccountID.String(),
		Action:     domain.ActionDelete,
		Diff: map[string]any{
			"status":     string(domain.DeletionExecuted),
			"request_id": req.ID.String(),
		},
	})
	if err != nil {
		log.Warn().Err(err).Str("request_id", req.ID.String()).Msg("sweep: audit record rejected")
	}
}
