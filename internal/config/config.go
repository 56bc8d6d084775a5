package config

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Config holds application level configuration loaded from environment and flags.
type Config struct {
	RunAddress    string `env:"RUN_ADDRESS" envDefault:":8080"`
	DatabaseURI   string `env:"DATABASE_URI"`
	JWTSecret     string `env:"JWT_SECRET" envDefault:"change-me-in-production"`
	JWTSecretFile string `env:"JWT_SECRET_FILE,file"`
	LogLevel      string `env:"LOG_LEVEL" envDefault:"info"`

	RedisAddress  string `env:"REDIS_ADDRESS"`
	RedisPassword string `env:"REDIS_PASSWORD"`
	RedisDB       int    `env:"REDIS_DB" envDefault:"0"`
	EventsChannel string `env:"EVENTS_CHANNEL" envDefault:"ledger.withdrawals"`
	EventBuffer   int    `env:"EVENT_BUFFER" envDefault:"256"`

	ReconcileInterval time.Duration `env:"RECONCILE_INTERVAL" envDefault:"1m"`
	ReconcileBatch    int           `env:"RECONCILE_BATCH" envDefault:"100"`
	WorkerPoolSize    int           `env:"WORKER_POOL_SIZE" envDefault:"4"`
	OrphanGrace       time.Duration `env:"ORPHAN_GRACE" envDefault:"5m"`

	PersistenceRetries  int           `env:"PERSISTENCE_RETRIES" envDefault:"3"`
	RetryInterval       time.Duration `env:"RETRY_INTERVAL" envDefault:"50ms"`
	CompensationTimeout time.Duration `env:"COMPENSATION_TIMEOUT" envDefault:"5s"`

	SubmitRate  float64 `env:"SUBMIT_RATE" envDefault:"1"`
	SubmitBurst int     `env:"SUBMIT_BURST" envDefault:"5"`

	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"10s"`
}

const (
	defaultReconcileInterval   = time.Minute
	defaultReconcileBatch      = 100
	defaultWorkerPoolSize      = 4
	defaultEventBuffer         = 256
	defaultRetryInterval       = 50 * time.Millisecond
	defaultCompensationTimeout = 5 * time.Second
	defaultSubmitBurst         = 5
	defaultShutdownTimeout     = 10 * time.Second
)

// Load parses configuration from an optional .env file, environment variables and flags.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}
	return load(os.Args[1:], nil)
}

// load reads environ instead of the process environment when it is not nil.
func load(args []string, environ map[string]string) (*Config, error) {
	cfg := &Config{}
	if err := env.ParseWithOptions(cfg, env.Options{Environment: environ}); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	// The secret file stands in for JWT_SECRET; -jwt-secret still wins.
	if cfg.JWTSecretFile != "" {
		cfg.JWTSecret = strings.TrimSpace(cfg.JWTSecretFile)
	}

	fs := flag.NewFlagSet("pointledger", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	fs.StringVar(&cfg.RunAddress, "a", cfg.RunAddress, "HTTP server listen address")
	fs.StringVar(&cfg.DatabaseURI, "d", cfg.DatabaseURI, "PostgreSQL DSN")
	fs.StringVar(&cfg.JWTSecret, "jwt-secret", cfg.JWTSecret, "Secret for verifying auth tokens")
	fs.StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "Log level")
	fs.StringVar(&cfg.RedisAddress, "redis", cfg.RedisAddress, "Redis address for outbound events")
	fs.StringVar(&cfg.EventsChannel, "events-channel", cfg.EventsChannel, "Pub/sub channel for withdrawal events")
	fs.IntVar(&cfg.WorkerPoolSize, "worker-pool", cfg.WorkerPoolSize, "Number of concurrent reconciliation workers")
	fs.IntVar(&cfg.ReconcileBatch, "reconcile-batch", cfg.ReconcileBatch, "Users per reconciliation batch")
	fs.DurationVar(&cfg.ReconcileInterval, "reconcile-interval", cfg.ReconcileInterval, "Interval between reconciliation runs")
	fs.DurationVar(&cfg.OrphanGrace, "orphan-grace", cfg.OrphanGrace, "Age after which an unmatched debit is refunded")
	fs.DurationVar(&cfg.CompensationTimeout, "compensation-timeout", cfg.CompensationTimeout, "Synchronous compensation budget")
	fs.DurationVar(&cfg.ShutdownTimeout, "shutdown-timeout", cfg.ShutdownTimeout, "Graceful shutdown timeout")

	if err := fs.Parse(args); err != nil {
		return nil, fmt.Errorf("parse flags: %w", err)
	}

	if cfg.WorkerPoolSize <= 0 {
		cfg.WorkerPoolSize = defaultWorkerPoolSize
	}
	if cfg.ReconcileBatch <= 0 {
		cfg.ReconcileBatch = defaultReconcileBatch
	}
	if cfg.ReconcileInterval <= 0 {
		cfg.ReconcileInterval = defaultReconcileInterval
	}
	if cfg.EventBuffer <= 0 {
		cfg.EventBuffer = defaultEventBuffer
	}
	if cfg.PersistenceRetries < 0 {
		cfg.PersistenceRetries = 0
	}
	if cfg.RetryInterval <= 0 {
		cfg.RetryInterval = defaultRetryInterval
	}
	if cfg.CompensationTimeout <= 0 {
		cfg.CompensationTimeout = defaultCompensationTimeout
	}
	if cfg.SubmitBurst <= 0 {
		cfg.SubmitBurst = defaultSubmitBurst
	}
	if cfg.ShutdownTimeout <= 0 {
		cfg.ShutdownTimeout = defaultShutdownTimeout
	}

	if cfg.DatabaseURI == "" {
		return nil, fmt.Errorf("database URI must be provided")
	}

	return cfg, nil
}
