package postgres

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Pool sizes the connection pool. Zero fields keep pgx's defaults.
type Pool struct {
	MaxConns        int32
	MinConns        int32
	MaxConnLifetime time.Duration
	HealthCheck     time.Duration
}

func poolConfig(dsn string, p Pool) (*pgxpool.Config, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, err
	}
	if p.MaxConns > 0 {
		cfg.MaxConns = p.MaxConns
	}
	if p.MinConns > 0 && p.MinConns <= cfg.MaxConns {
		cfg.MinConns = p.MinConns
	}
	if p.MaxConnLifetime > 0 {
		cfg.MaxConnLifetime = p.MaxConnLifetime
	}
	if p.HealthCheck > 0 {
		cfg.HealthCheckPeriod = p.HealthCheck
	}
	return cfg, nil
}

// Connect opens the pool and checks the server is reachable.
func Connect(ctx context.Context, dsn string, p Pool) (*pgxpool.Pool, error) {
	cfg, err := poolConfig(dsn, p)
	if err != nil {
		return nil, err
	}
	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, err
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return pool, nil
}

// Migrate applies schema.sql. Every statement is idempotent.
func Migrate(ctx context.Context, pool *pgxpool.Pool) error {
	_, err := pool.Exec(ctx, Schema)
	return err
}
