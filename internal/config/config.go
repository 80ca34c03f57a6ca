package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
)

// Config holds all application configuration loaded from environment variables.
type Config struct {
	Database   DatabaseConfig
	Redis      RedisConfig
	JWT        JWTConfig
	Server     ServerConfig
	Deletion   DeletionConfig
	Purge      PurgeConfig
	Slack      SlackConfig
	SelfHosted bool
}

// DatabaseConfig holds PostgreSQL connection settings.
type DatabaseConfig struct {
	Host     string
	Port     int
	User     string
	Password string //nolint:gosec // G117: DB connection config
	DBName   string
	SSLMode  string
	MaxConns int
}

// RedisConfig holds Redis connection settings.
type RedisConfig struct {
	Addr     string
	Password string //nolint:gosec // G117: Redis connection config
	DB       int
}

// JWTConfig holds token verification settings. Tokens are minted by the
// platform's identity service; this service only verifies them.
type JWTConfig struct {
	Secret string //nolint:gosec // G117: JWT signing secret config
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Addr         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	CORSOrigins  []string
}

// DeletionConfig holds grace-period and sweeper settings.
type DeletionConfig struct {
	GracePeriodDays  int
	SweepInterval    time.Duration
	SweepBatchSize   int
	MaxPurgeAttempts int
	AuditBufferSize  int
}

// PurgeConfig holds the purge executor webhook settings.
type PurgeConfig struct {
	Endpoint string
	Token    string //nolint:gosec // G117: webhook auth token config
	Timeout  time.Duration
}

// SlackConfig holds operator alerting settings. Alerts fall back to the
// log when no bot token is configured.
type SlackConfig struct {
	BotToken     string
	AlertChannel string
}

// Load reads configuration from environment variables.
// Defaults are safe for local development only. In production,
// sensitive values (JWT secret, DB password) must be set explicitly.
func Load() (*Config, error) {
	dbPort, err := getEnvInt("LETHE_DB_PORT", 5432)
	if err != nil {
		return nil, fmt.Errorf("config.Load: %w", err)
	}

	dbMaxConns, err := getEnvInt("LETHE_DB_MAX_CONNS", 25)
	if err != nil {
		return nil, fmt.Errorf("config.Load: %w", err)
	}

	redisDB, err := getEnvInt("LETHE_REDIS_DB", 0)
	if err != nil {
		return nil, fmt.Errorf("config.Load: %w", err)
	}

	readTimeout, err := getEnvDuration("LETHE_SERVER_READ_TIMEOUT", 10*time.Second)
	if err != nil {
		return nil, fmt.Errorf("config.Load: %w", err)
	}

	writeTimeout, err := getEnvDuration("LETHE_SERVER_WRITE_TIMEOUT", 30*time.Second)
	if err != nil {
		return nil, fmt.Errorf("config.Load: %w", err)
	}

	graceDays, err := getEnvInt("LETHE_GRACE_PERIOD_DAYS", 30)
	if err != nil {
		return nil, fmt.Errorf("config.Load: %w", err)
	}

	sweepInterval, err := getEnvDuration("LETHE_SWEEP_INTERVAL", time.Hour)
	if err != nil {
		return nil, fmt.Errorf("config.Load: %w", err)
	}

	sweepBatch, err := getEnvInt("LETHE_SWEEP_BATCH_SIZE", 100)
	if err != nil {
		return nil, fmt.Errorf("config.Load: %w", err)
	}

	maxAttempts, err := getEnvInt("LETHE_MAX_PURGE_ATTEMPTS", 3)
	if err != nil {
		return nil, fmt.Errorf("config.Load: %w", err)
	}

	auditBuffer, err := getEnvInt("LETHE_AUDIT_BUFFER_SIZE", 1024)
	if err != nil {
		return nil, fmt.Errorf("config.Load: %w", err)
	}

	purgeTimeout, err := getEnvDuration("LETHE_PURGE_TIMEOUT", 30*time.Second)
	if err != nil {
		return nil, fmt.Errorf("config.Load: %w", err)
	}

	selfHosted, err := getEnvBool("LETHE_SELF_HOSTED", false)
	if err != nil {
		return nil, fmt.Errorf("config.Load: %w", err)
	}

	corsOrigins := getEnvList("LETHE_CORS_ORIGINS", []string{"http://localhost:5173"})

	cfg := &Config{
		Database: DatabaseConfig{
			Host:     getEnv("LETHE_DB_HOST", "localhost"),
			Port:     dbPort,
			User:     getEnv("LETHE_DB_USER", "lethe"),
			Password: getEnv("LETHE_DB_PASSWORD", ""),
			DBName:   getEnv("LETHE_DB_NAME", "lethe_dev"),
			SSLMode:  getEnv("LETHE_DB_SSLMODE", "disable"),
			MaxConns: dbMaxConns,
		},
		Redis: RedisConfig{
			Addr:     getEnv("LETHE_REDIS_ADDR", "localhost:6379"),
			Password: getEnv("LETHE_REDIS_PASSWORD", ""),
			DB:       redisDB,
		},
		JWT: JWTConfig{
			Secret: getEnv("LETHE_JWT_SECRET", ""),
		},
		Server: ServerConfig{
			Addr:         getEnv("LETHE_SERVER_ADDR", ":8080"),
			ReadTimeout:  readTimeout,
			WriteTimeout: writeTimeout,
			CORSOrigins:  corsOrigins,
		},
		Deletion: DeletionConfig{
			GracePeriodDays:  graceDays,
			SweepInterval:    sweepInterval,
			SweepBatchSize:   sweepBatch,
			MaxPurgeAttempts: maxAttempts,
			AuditBufferSize:  auditBuffer,
		},
		Purge: PurgeConfig{
			Endpoint: getEnv("LETHE_PURGE_ENDPOINT", ""),
			Token:    getEnv("LETHE_PURGE_TOKEN", ""),
			Timeout:  purgeTimeout,
		},
		Slack: SlackConfig{
			BotToken:     getEnv("LETHE_SLACK_BOT_TOKEN", ""),
			AlertChannel: getEnv("LETHE_SLACK_ALERT_CHANNEL", ""),
		},
		SelfHosted: selfHosted,
	}

	err = cfg.validate()
	if err != nil {
		return nil, fmt.Errorf("config.Load: %w", err)
	}

	return cfg, nil
}

// validate checks required fields and value bounds.
func (c *Config) validate() error {
	// JWT secret is required (no insecure default).
	if c.JWT.Secret == "" {
		return errors.New("LETHE_JWT_SECRET is required")
	}
	if len(c.JWT.Secret) < 32 {
		return errors.New("LETHE_JWT_SECRET must be at least 32 characters")
	}

	// DB SSL mode warning for non-self-hosted deployments.
	if c.Database.SSLMode == "disable" && !c.SelfHosted {
		log.Warn().Msg("LETHE_DB_SSLMODE=disable is insecure for production; set to 'require' or 'verify-full'")
	}

	// Bounds checks.
	if c.Database.Port < 1 || c.Database.Port > 65535 {
		return fmt.Errorf("LETHE_DB_PORT must be 1-65535, got %d", c.Database.Port)
	}
	if c.Database.MaxConns < 1 {
		return fmt.Errorf("LETHE_DB_MAX_CONNS must be >= 1, got %d", c.Database.MaxConns)
	}
	if c.Server.ReadTimeout <= 0 {
		return fmt.Errorf("LETHE_SERVER_READ_TIMEOUT must be positive, got %s", c.Server.ReadTimeout)
	}
	if c.Server.WriteTimeout <= 0 {
		return fmt.Errorf("LETHE_SERVER_WRITE_TIMEOUT must be positive, got %s", c.Server.WriteTimeout)
	}
	if c.Deletion.GracePeriodDays < 1 || c.Deletion.GracePeriodDays > 365 {
		return fmt.Errorf("LETHE_GRACE_PERIOD_DAYS must be 1-365, got %d", c.Deletion.GracePeriodDays)
	}
	if c.Deletion.SweepInterval <= 0 {
		return fmt.Errorf("LETHE_SWEEP_INTERVAL must be positive, got %s", c.Deletion.SweepInterval)
	}
	if c.Deletion.SweepBatchSize < 1 {
		return fmt.Errorf("LETHE_SWEEP_BATCH_SIZE must be >= 1, got %d", c.Deletion.SweepBatchSize)
	}
	if c.Deletion.MaxPurgeAttempts < 1 {
		return fmt.Errorf("LETHE_MAX_PURGE_ATTEMPTS must be >= 1, got %d", c.Deletion.MaxPurgeAttempts)
	}
	if c.Deletion.AuditBufferSize < 1 {
		return fmt.Errorf("LETHE_AUDIT_BUFFER_SIZE must be >= 1, got %d", c.Deletion.AuditBufferSize)
	}
	if c.Purge.Endpoint == "" {
		return errors.New("LETHE_PURGE_ENDPOINT is required")
	}
	if c.Purge.Timeout <= 0 {
		return fmt.Errorf("LETHE_PURGE_TIMEOUT must be positive, got %s", c.Purge.Timeout)
	}
	if c.Slack.BotToken != "" && c.Slack.AlertChannel == "" {
		return errors.New("LETHE_SLACK_ALERT_CHANNEL is required when LETHE_SLACK_BOT_TOKEN is set")
	}

	return nil
}

// DSN returns the PostgreSQL connection string.
func (c *DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.DBName, c.SSLMode,
	)
}

// GracePeriod returns the configured grace period as a duration.
func (c *DeletionConfig) GracePeriod() time.Duration {
	return time.Duration(c.GracePeriodDays) * 24 * time.Hour
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("parsing %s=%q as int: %w", key, v, err)
	}
	return n, nil
}

func getEnvBool(key string, fallback bool) (bool, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, fmt.Errorf("parsing %s=%q as bool: %w", key, v, err)
	}
	return b, nil
}

func getEnvDuration(key string, fallback time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("parsing %s=%q as duration: %w", key, v, err)
	}
	return d, nil
}

func getEnvList(key string, fallback []string) []string {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	parts := strings.Split(v, ",")
	result := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			result = append(result, p)
		}
	}
	return result
}
