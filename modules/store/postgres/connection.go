// Package postgres implements the persistent store on PostgreSQL through a
// pgx connection pool.
package postgres

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/flemzord/chatdigest/internal/provider"
)

// pgBouncerPort is the transaction pooler port that rejects prepared
// statements.
const pgBouncerPort = 6543

// Option configures Open.
type Option func(*Store)

// WithLogger sets the logger. Defaults to a no-op logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Store) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithMaxConns caps the pool size.
func WithMaxConns(n int32) Option {
	return func(s *Store) { s.maxConns = n }
}

// Open connects to databaseURL, pings it and migrates the schema.
func Open(ctx context.Context, databaseURL string, opts ...Option) (*Store, error) {
	s := &Store{logger: provider.NopLogger(), maxConns: 10}
	for _, opt := range opts {
		opt(s)
	}

	cfg, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("postgres: parse connection string: %w", err)
	}
	cfg.MaxConns = s.maxConns
	cfg.MinConns = 1

	// An explicit default_query_exec_mode in the DSN wins.
	if cfg.ConnConfig.Port == pgBouncerPort && cfg.ConnConfig.DefaultQueryExecMode == pgx.QueryExecModeCacheStatement {
		cfg.ConnConfig.DefaultQueryExecMode = pgx.QueryExecModeCacheDescribe
		s.logger.Debug("postgres: cache_describe mode for pgbouncer", "port", pgBouncerPort)
	}

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("postgres: create pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("postgres: ping: %w", err)
	}
	if err := migrate(ctx, pool); err != nil {
		pool.Close()
		return nil, err
	}

	s.pool = pool
	s.logger.Info("postgres store opened", "host", cfg.ConnConfig.Host, "database", cfg.ConnConfig.Database)
	return s, nil
}
