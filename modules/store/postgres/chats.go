package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/flemzord/chatdigest/pkg/message"
)

// SetEnabled records the chat and its digest flag.
func (s *Store) SetEnabled(ctx context.Context, chat message.Chat, enabled bool) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO chats (chat_id, type, title, username, enabled, updated_at)
		VALUES ($1, $2, $3, $4, $5, now())
		ON CONFLICT (chat_id) DO UPDATE SET
			type = EXCLUDED.type,
			title = EXCLUDED.title,
			username = EXCLUDED.username,
			enabled = EXCLUDED.enabled,
			updated_at = EXCLUDED.updated_at`,
		chat.ID, string(chat.Type), chat.Title, chat.Username, enabled,
	)
	if err != nil {
		return fmt.Errorf("postgres: set chat enabled: %w", describe(err))
	}
	return nil
}

// Enabled reports whether digests are on for chatID. Unknown chats are off.
func (s *Store) Enabled(ctx context.Context, chatID int64) (bool, error) {
	var enabled bool
	err := s.pool.QueryRow(ctx, `SELECT enabled FROM chats WHERE chat_id = $1`, chatID).Scan(&enabled)
	if isNoRows(err) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("postgres: chat enabled: %w", describe(err))
	}
	return enabled, nil
}

// ListEnabled returns enabled chats ordered by id.
func (s *Store) ListEnabled(ctx context.Context) ([]message.Chat, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT chat_id, type, title, username FROM chats
		WHERE enabled
		ORDER BY chat_id`)
	if err != nil {
		return nil, fmt.Errorf("postgres: list enabled chats: %w", describe(err))
	}
	chats, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (message.Chat, error) {
		var (
			c   message.Chat
			typ string
		)
		err := row.Scan(&c.ID, &typ, &c.Title, &c.Username)
		c.Type = message.ChatType(typ)
		return c, err
	})
	if err != nil {
		return nil, fmt.Errorf("postgres: scan chats: %w", err)
	}
	return chats, nil
}
