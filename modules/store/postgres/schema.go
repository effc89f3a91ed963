package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

const schemaVersion = 1

// migrationLock serialises concurrent migrations across processes.
const migrationLock = 0x63686174 // "chat"

var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS messages (
		chat_id     BIGINT      NOT NULL,
		message_id  BIGINT      NOT NULL,
		user_id     BIGINT      NOT NULL DEFAULT 0,
		username    TEXT        NOT NULL DEFAULT '',
		full_name   TEXT        NOT NULL DEFAULT '',
		text        TEXT        NOT NULL DEFAULT '',
		reply_to_id BIGINT      NOT NULL DEFAULT 0,
		ts          TIMESTAMPTZ NOT NULL,
		PRIMARY KEY (chat_id, message_id)
	)`,

	`CREATE INDEX IF NOT EXISTS idx_messages_chat_ts ON messages(chat_id, ts, message_id)`,

	`CREATE INDEX IF NOT EXISTS idx_messages_user_ts ON messages(user_id, ts)`,

	`CREATE TABLE IF NOT EXISTS chats (
		chat_id    BIGINT      PRIMARY KEY,
		type       TEXT        NOT NULL DEFAULT '',
		title      TEXT        NOT NULL DEFAULT '',
		username   TEXT        NOT NULL DEFAULT '',
		enabled    BOOLEAN     NOT NULL DEFAULT FALSE,
		updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,

	`CREATE TABLE IF NOT EXISTS reply_quota (
		user_id BIGINT  NOT NULL,
		chat_id BIGINT  NOT NULL,
		day     TEXT    NOT NULL,
		count   INTEGER NOT NULL,
		PRIMARY KEY (user_id, chat_id, day)
	)`,

	`CREATE TABLE IF NOT EXISTS user_traits (
		user_id    BIGINT      PRIMARY KEY,
		profile    JSONB       NOT NULL,
		updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
}

// migrate applies the schema inside one transaction holding an advisory
// lock.
func migrate(ctx context.Context, pool *pgxpool.Pool) error {
	tx, err := pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("postgres: migrate: begin: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if _, err := tx.Exec(ctx, `SELECT pg_advisory_xact_lock($1)`, migrationLock); err != nil {
		return fmt.Errorf("postgres: migrate: lock: %w", err)
	}
	if _, err := tx.Exec(ctx, `CREATE TABLE IF NOT EXISTS schema_version (version INTEGER PRIMARY KEY)`); err != nil {
		return fmt.Errorf("postgres: create schema_version: %w", err)
	}

	var current int
	if err := tx.QueryRow(ctx, `SELECT COALESCE(MAX(version), 0) FROM schema_version`).Scan(&current); err != nil {
		return fmt.Errorf("postgres: read schema version: %w", err)
	}
	if current >= schemaVersion {
		return tx.Commit(ctx)
	}

	for _, stmt := range schemaStatements {
		if _, err := tx.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("postgres: migrate: %w\nstatement: %s", describe(err), stmt)
		}
	}
	if _, err := tx.Exec(ctx, `INSERT INTO schema_version (version) VALUES ($1) ON CONFLICT DO NOTHING`, schemaVersion); err != nil {
		return fmt.Errorf("postgres: record schema version: %w", err)
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("postgres: migrate: commit: %w", err)
	}
	return nil
}
