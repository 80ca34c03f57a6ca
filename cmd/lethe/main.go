package main

import (
	"context"
	"fmt"
	"math"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	slacklib "github.com/slack-go/slack"

	"github.com/gosuda/lethe/internal/alert"
	"github.com/gosuda/lethe/internal/audit"
	"github.com/gosuda/lethe/internal/config"
	"github.com/gosuda/lethe/internal/deletion"
	"github.com/gosuda/lethe/internal/purge"
	"github.com/gosuda/lethe/internal/server"
	"github.com/gosuda/lethe/internal/store/postgres"
	redisstore "github.com/gosuda/lethe/internal/store/redis"
)

func main() {
	if err := run(); err != nil {
		log.Fatal().Err(err).Msg("startup failed")
	}
}

func run() error {
	// Initialize structured logging from environment.
	logLevel := os.Getenv("LETHE_LOG_LEVEL")
	level, parseErr := zerolog.ParseLevel(logLevel)
	if parseErr != nil {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)

	logFormat := os.Getenv("LETHE_LOG_FORMAT")
	if logFormat == "text" {
		log.Logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout}).With().Timestamp().Logger()
	} else {
		log.Logger = zerolog.New(os.Stdout).With().Timestamp().Logger()
	}

	ctx := context.Background()

	// Load configuration from environment.
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	if cfg.Database.MaxConns < 0 || cfg.Database.MaxConns > math.MaxInt32 {
		return fmt.Errorf("database max_conns %d out of int32 range", cfg.Database.MaxConns)
	}

	// Connect to PostgreSQL.
	store, err := postgres.New(ctx, cfg.Database.DSN(), int32(cfg.Database.MaxConns)) //nolint:gosec // bounds checked above
	if err != nil {
		return err
	}
	defer store.Close()

	// Connect to Redis.
	pubsub, err := redisstore.New(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
	if err != nil {
		return err
	}
	defer pubsub.Close()

	// Async audit recorder with a Redis-backed live feed.
	recorder := audit.NewRecorder(store.Audit(), pubsub, cfg.Deletion.AuditBufferSize, nil)

	// Operator escalations go to Slack when configured, else the log.
	var alerts deletion.AlertNotifier
	if cfg.Slack.BotToken != "" {
		alerts = alert.NewSlack(slacklib.New(cfg.Slack.BotToken), cfg.Slack.AlertChannel)
		log.Info().Str("channel", cfg.Slack.AlertChannel).Msg("slack alerting enabled")
	} else {
		alerts = alert.NewLog()
	}

	purger := purge.NewClient(cfg.Purge.Endpoint, cfg.Purge.Token)

	deletions := deletion.NewService(store.Accounts(), store.Deletions(), recorder, cfg.Deletion.GracePeriod(), nil)
	sweeper := deletion.NewSweeper(store.Deletions(), store.Accounts(), purger, recorder, alerts, deletion.SweeperConfig{
		Interval:     cfg.Deletion.SweepInterval,
		BatchSize:    cfg.Deletion.SweepBatchSize,
		MaxAttempts:  cfg.Deletion.MaxPurgeAttempts,
		PurgeTimeout: cfg.Purge.Timeout,
	}, nil)

	// Graceful shutdown on SIGINT / SIGTERM.
	ctx, cancel := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer cancel()

	go sweeper.Run(ctx)

	// Create HTTP server with all routes wired.
	srv := server.New(ctx, cfg, store, pubsub, deletions, recorder, sweeper)

	// Start server in background goroutine.
	go func() {
		log.Info().Str("addr", cfg.Server.Addr).Msg("starting server")
		if startErr := srv.Start(ctx); startErr != nil {
			log.Error().Err(startErr).Msg("server error")
		}
	}()

	// Block until shutdown signal.
	<-ctx.Done()
	log.Info().Msg("shutting down")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if shutdownErr := srv.Shutdown(shutdownCtx); shutdownErr != nil {
		return shutdownErr
	}

	// Drain queued audit entries before exit.
	if drainErr := recorder.Close(shutdownCtx); drainErr != nil {
		log.Warn().Err(drainErr).Msg("audit recorder drain incomplete")
	}

	log.Info().Msg("stopped")
	return nil
}
