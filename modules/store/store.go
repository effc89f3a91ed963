// Package store opens the persistent backend behind the chat log, the chat
// registry, the reply quota and the trait profiles.
package store

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/flemzord/chatdigest/internal/chatlog"
	"github.com/flemzord/chatdigest/internal/quota"
	"github.com/flemzord/chatdigest/internal/traits"
	"github.com/flemzord/chatdigest/modules/store/postgres"
	"github.com/flemzord/chatdigest/modules/store/sqlite"
)

// Supported drivers.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// Store is everything the bot persists. Profiles are a separate view
// because their Get collides with the log's.
type Store interface {
	chatlog.Log
	chatlog.Chats
	quota.Store

	Profiles() traits.Store
	Ping(ctx context.Context) error
	Close() error
}

// Compile-time interface checks.
var (
	_ Store = (*sqlite.Store)(nil)
	_ Store = (*postgres.Store)(nil)
)

// Config selects the persistence driver.
type Config struct {
	// Driver is "sqlite" or "postgres".
	Driver string `yaml:"driver"`
	Path   string `yaml:"path"`
	DSN    string `yaml:"dsn"`
}

// Open connects the configured driver and migrates its schema.
func Open(ctx context.Context, cfg Config, logger *slog.Logger) (Store, error) {
	switch cfg.Driver {
	case DriverSQLite, "":
		return sqlite.Open(ctx, cfg.Path, sqlite.WithLogger(logger))
	case DriverPostgres:
		return postgres.Open(ctx, cfg.DSN, postgres.WithLogger(logger))
	default:
		return nil, fmt.Errorf("store: unknown driver %q", cfg.Driver)
	}
}
