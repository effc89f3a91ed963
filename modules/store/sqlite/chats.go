package sqlite

import (
	"context"
	"fmt"
	"time"

	"github.com/flemzord/chatdigest/pkg/message"
)

// SetEnabled records the chat and its digest flag.
func (s *Store) SetEnabled(ctx context.Context, chat message.Chat, enabled bool) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO chats (chat_id, type, title, username, enabled, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT (chat_id) DO UPDATE SET
			type = excluded.type,
			title = excluded.title,
			username = excluded.username,
			enabled = excluded.enabled,
			updated_at = excluded.updated_at`,
		chat.ID, string(chat.Type), chat.Title, chat.Username, enabled, time.Now().Unix(),
	)
	if err != nil {
		return fmt.Errorf("sqlite: set chat enabled: %w", err)
	}
	return nil
}

// Enabled reports whether digests are on for chatID. Unknown chats are off.
func (s *Store) Enabled(ctx context.Context, chatID int64) (bool, error) {
	var enabled bool
	err := s.db.QueryRowContext(ctx, `SELECT enabled FROM chats WHERE chat_id = ?`, chatID).Scan(&enabled)
	if isNoRows(err) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("sqlite: chat enabled: %w", err)
	}
	return enabled, nil
}

// ListEnabled returns enabled chats ordered by id.
func (s *Store) ListEnabled(ctx context.Context) ([]message.Chat, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT chat_id, type, title, username FROM chats
		WHERE enabled = 1
		ORDER BY chat_id`)
	if err != nil {
		return nil, fmt.Errorf("sqlite: list enabled chats: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var chats []message.Chat
	for rows.Next() {
		var (
			c   message.Chat
			typ string
		)
		if err := rows.Scan(&c.ID, &typ, &c.Title, &c.Username); err != nil {
			return nil, fmt.Errorf("sqlite: scan chat: %w", err)
		}
		c.Type = message.ChatType(typ)
		chats = append(chats, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterate chats: %w", err)
	}
	return chats, nil
}
