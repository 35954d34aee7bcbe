// Package registry is the query/rematch audit trail of §4.6: a
// Postgres-backed history log that observes the cache from the outside.
// Deleting it, or losing it across a restart, never affects a live
// Cache — it persists a history, not reconstructible cache state.
package registry

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Config holds the Postgres connection settings for the registry.
type Config struct {
	DSN               string        `mapstructure:"dsn"`
	MaxConns          int32         `mapstructure:"max_conns"`
	MinConns          int32         `mapstructure:"min_conns"`
	ConnectTimeout    time.Duration `mapstructure:"connect_timeout"`
	HealthCheckPeriod time.Duration `mapstructure:"health_check_period"`
}

// DefaultConfig returns sane defaults for local development.
func DefaultConfig() Config {
	return Config{
		MaxConns:          10,
		MinConns:          1,
		ConnectTimeout:    5 * time.Second,
		HealthCheckPeriod: 30 * time.Second,
	}
}

// Pool wraps a pgxpool.Pool with the logging discipline the rest of
// this repo uses: every failure is logged at the point of occurrence
// and returned wrapped, never swallowed.
type Pool struct {
	pool   *pgxpool.Pool
	logger *slog.Logger
}

// Connect opens a pool against cfg.DSN and verifies it with a ping.
func Connect(ctx context.Context, cfg Config, logger *slog.Logger) (*Pool, error) {
	if logger == nil {
		logger = slog.Default()
	}

	poolConfig, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("registry: parse dsn: %w", err)
	}
	poolConfig.MaxConns = cfg.MaxConns
	poolConfig.MinConns = cfg.MinConns
	poolConfig.HealthCheckPeriod = cfg.HealthCheckPeriod

	connectCtx, cancel := context.WithTimeout(ctx, cfg.ConnectTimeout)
	defer cancel()

	pool, err := pgxpool.NewWithConfig(connectCtx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("registry: connect: %w", err)
	}
	if err := pool.Ping(connectCtx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("registry: ping: %w", err)
	}

	logger.Info("registry connected to postgres", "max_conns", cfg.MaxConns, "min_conns", cfg.MinConns)
	return &Pool{pool: pool, logger: logger}, nil
}

// Close releases every pooled connection.
func (p *Pool) Close() {
	p.pool.Close()
}

// Raw exposes the underlying pgxpool.Pool for the recorder. The
// migration runner does not use it; it opens its own database/sql handle.
func (p *Pool) Raw() *pgxpool.Pool { return p.pool }
