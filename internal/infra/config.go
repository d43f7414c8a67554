package infra

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

// Store backends.
const (
	StoreBackendPostgres = "postgres"
	StoreBackendMemory   = "memory"
)

// Config holds all application configuration parsed from environment variables.
type Config struct {
	// Database
	DatabaseURL string `env:"DATABASE_URL"`
	PGHost      string `env:"PGHOST" envDefault:"localhost"`
	PGPort      int    `env:"PGPORT" envDefault:"5432"`
	PGUser      string `env:"PGUSER" envDefault:"playtest"`
	PGPassword  string `env:"PGPASSWORD" envDefault:"playtest"`
	PGDatabase  string `env:"PGDATABASE" envDefault:"playtest"`
	PGMaxConns  int32  `env:"PG_MAX_CONNS" envDefault:"10"`

	StoreBackend string `env:"STORE_BACKEND" envDefault:"postgres"`
	AutoMigrate  bool   `env:"AUTO_MIGRATE" envDefault:"false"`

	// Server
	APIPort  int    `env:"API_PORT" envDefault:"3000"`
	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`

	// Command guards. A limit of 0 disables throttling.
	CommandRateLimit  int           `env:"COMMAND_RATE_LIMIT" envDefault:"20"`
	CommandRateWindow time.Duration `env:"COMMAND_RATE_WINDOW" envDefault:"1m"`
	IdempotencyTTL    time.Duration `env:"IDEMPOTENCY_TTL" envDefault:"5m"`

	// Roster
	ResetHourUTC       int `env:"RESET_HOUR_UTC" envDefault:"5"`
	HistoryWindowWeeks int `env:"HISTORY_WINDOW_WEEKS" envDefault:"4"`
	DefaultRosterSize  int `env:"DEFAULT_ROSTER_SIZE" envDefault:"8"`
	MaxRosterSize      int `env:"MAX_ROSTER_SIZE" envDefault:"50"`
	// Draw seeds come from RANDOM.ORG when set, crypto/rand otherwise.
	RandomOrgAPIKey string `env:"RANDOM_ORG_API_KEY"`

	// Kafka
	KafkaBrokers     string `env:"KAFKA_BROKERS" envDefault:"localhost:9092"`
	KafkaEnabled     bool   `env:"KAFKA_ENABLED" envDefault:"false"`
	KafkaTopicPrefix string `env:"KAFKA_TOPIC_PREFIX" envDefault:""`
	KafkaGroupID     string `env:"KAFKA_GROUP_ID" envDefault:"playtest-roster-events"`

	// Publisher circuit breaker
	BreakerFailures int           `env:"PUBLISH_BREAKER_FAILURES" envDefault:"5"`
	BreakerReset    time.Duration `env:"PUBLISH_BREAKER_RESET" envDefault:"30s"`

	// Metrics
	MetricsEnabled bool `env:"METRICS_ENABLED" envDefault:"true"`
}

// LoadConfig parses environment variables into a Config struct.
func LoadConfig() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	return cfg, nil
}

// Validate rejects values the roster engine cannot run with.
func (c *Config) Validate() error {
	switch c.StoreBackend {
	case StoreBackendPostgres, StoreBackendMemory:
	default:
		return fmt.Errorf("STORE_BACKEND must be %q or %q, got %q", StoreBackendPostgres, StoreBackendMemory, c.StoreBackend)
	}
	if c.ResetHourUTC < 0 || c.ResetHourUTC > 23 {
		return fmt.Errorf("RESET_HOUR_UTC must be between 0 and 23, got %d", c.ResetHourUTC)
	}
	if c.HistoryWindowWeeks < 1 {
		return fmt.Errorf("HISTORY_WINDOW_WEEKS must be at least 1, got %d", c.HistoryWindowWeeks)
	}
	if c.MaxRosterSize < 1 {
		return fmt.Errorf("MAX_ROSTER_SIZE must be at least 1, got %d", c.MaxRosterSize)
	}
	if c.DefaultRosterSize < 1 || c.DefaultRosterSize > c.MaxRosterSize {
		return fmt.Errorf("DEFAULT_ROSTER_SIZE must be between 1 and %d, got %d", c.MaxRosterSize, c.DefaultRosterSize)
	}
	if c.CommandRateLimit < 0 {
		return fmt.Errorf("COMMAND_RATE_LIMIT must not be negative, got %d", c.CommandRateLimit)
	}
	return nil
}

// DSN returns the PostgreSQL connection string, preferring DATABASE_URL if set.
func (c *Config) DSN() string {
	if c.DatabaseURL != "" {
		return c.DatabaseURL
	}
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=disable",
		c.PGUser, c.PGPassword, c.PGHost, c.PGPort, c.PGDatabase)
}
