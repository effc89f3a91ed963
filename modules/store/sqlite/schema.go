package sqlite

import (
	"context"
	"database/sql"
	"fmt"
)

const schemaVersion = 1

// schemaStatements are executed in order to create the database schema.
// All use IF NOT EXISTS for idempotent re-application. Times are unix
// seconds.
var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS messages (
		chat_id     INTEGER NOT NULL,
		message_id  INTEGER NOT NULL,
		user_id     INTEGER NOT NULL DEFAULT 0,
		username    TEXT    NOT NULL DEFAULT '',
		full_name   TEXT    NOT NULL DEFAULT '',
		text        TEXT    NOT NULL DEFAULT '',
		reply_to_id INTEGER NOT NULL DEFAULT 0,
		ts          INTEGER NOT NULL,
		PRIMARY KEY (chat_id, message_id)
	)`,

	`CREATE INDEX IF NOT EXISTS idx_messages_chat_ts ON messages(chat_id, ts, message_id)`,

	`CREATE INDEX IF NOT EXISTS idx_messages_user_ts ON messages(user_id, ts)`,

	`CREATE TABLE IF NOT EXISTS chats (
		chat_id    INTEGER PRIMARY KEY,
		type       TEXT    NOT NULL DEFAULT '',
		title      TEXT    NOT NULL DEFAULT '',
		username   TEXT    NOT NULL DEFAULT '',
		enabled    INTEGER NOT NULL DEFAULT 0,
		updated_at INTEGER NOT NULL
	)`,

	`CREATE TABLE IF NOT EXISTS reply_quota (
		user_id INTEGER NOT NULL,
		chat_id INTEGER NOT NULL,
		day     TEXT    NOT NULL,
		count   INTEGER NOT NULL,
		PRIMARY KEY (user_id, chat_id, day)
	)`,

	`CREATE TABLE IF NOT EXISTS user_traits (
		user_id    INTEGER PRIMARY KEY,
		profile    TEXT    NOT NULL,
		updated_at INTEGER NOT NULL
	)`,
}

// migrate creates or updates the database schema to the latest version.
func migrate(ctx context.Context, db *sql.DB) error {
	if _, err := db.ExecContext(ctx, "CREATE TABLE IF NOT EXISTS schema_version (version INTEGER PRIMARY KEY)"); err != nil {
		return fmt.Errorf("sqlite: create schema_version: %w", err)
	}

	var current int
	if err := db.QueryRowContext(ctx, "SELECT COALESCE(MAX(version), 0) FROM schema_version").Scan(&current); err != nil {
		return fmt.Errorf("sqlite: read schema version: %w", err)
	}

	if current >= schemaVersion {
		return nil
	}

	for _, stmt := range schemaStatements {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("sqlite: migrate: %w\nstatement: %s", err, stmt)
		}
	}

	if _, err := db.ExecContext(ctx, "INSERT OR REPLACE INTO schema_version (version) VALUES (?)", schemaVersion); err != nil {
		return fmt.Errorf("sqlite: record schema version: %w", err)
	}

	return nil
}
