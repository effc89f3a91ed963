package postgres

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/flemzord/chatdigest/internal/chatlog"
	"github.com/flemzord/chatdigest/internal/quota"
	"github.com/flemzord/chatdigest/internal/traits"
	"github.com/flemzord/chatdigest/pkg/message"
)

// Store is the PostgreSQL-backed chat log, chat registry and quota store.
type Store struct {
	pool     *pgxpool.Pool
	logger   *slog.Logger
	maxConns int32
}

// Compile-time interface guards.
var (
	_ chatlog.Log   = (*Store)(nil)
	_ chatlog.Chats = (*Store)(nil)
	_ quota.Store   = (*Store)(nil)
)

const messageColumns = `chat_id, message_id, user_id, username, full_name, text, reply_to_id, ts`

// Insert stores m. A duplicate (chat, id) is ignored.
func (s *Store) Insert(ctx context.Context, m message.Message) error {
	m = m.Normalize()
	_, err := s.pool.Exec(ctx, `
		INSERT INTO messages (`+messageColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (chat_id, message_id) DO NOTHING`,
		m.ChatID, m.ID, m.UserID, m.Username, m.FullName, m.Text, m.ReplyToID, m.Time,
	)
	if err != nil {
		return fmt.Errorf("postgres: insert message: %w", describe(err))
	}
	return nil
}

// Range returns messages in [from, to), oldest first.
func (s *Store) Range(ctx context.Context, chatID int64, from, to time.Time) ([]message.Message, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT `+messageColumns+` FROM messages
		WHERE chat_id = $1 AND ts >= $2 AND ts < $3
		ORDER BY ts ASC, message_id ASC`,
		chatID, from, to,
	)
	if err != nil {
		return nil, fmt.Errorf("postgres: range messages: %w", describe(err))
	}
	return collectMessages(rows)
}

// Recent returns up to limit messages in [from, before), newest first.
func (s *Store) Recent(ctx context.Context, chatID int64, from, before time.Time, limit int) ([]message.Message, error) {
	if limit <= 0 {
		return nil, nil
	}
	var lower *time.Time
	if !from.IsZero() {
		lower = &from
	}
	rows, err := s.pool.Query(ctx, `
		SELECT `+messageColumns+` FROM messages
		WHERE chat_id = $1 AND ($2::timestamptz IS NULL OR ts >= $2) AND ts < $3
		ORDER BY ts DESC, message_id DESC
		LIMIT $4`,
		chatID, lower, before, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("postgres: recent messages: %w", describe(err))
	}
	return collectMessages(rows)
}

// Get returns one message or chatlog.ErrNotFound.
func (s *Store) Get(ctx context.Context, chatID, messageID int64) (message.Message, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT `+messageColumns+` FROM messages
		WHERE chat_id = $1 AND message_id = $2`,
		chatID, messageID,
	)
	if err != nil {
		return message.Message{}, fmt.Errorf("postgres: get message: %w", describe(err))
	}
	msgs, err := collectMessages(rows)
	if err != nil {
		return message.Message{}, err
	}
	if len(msgs) == 0 {
		return message.Message{}, chatlog.ErrNotFound
	}
	return msgs[0], nil
}

// ByUser returns the user's latest messages across chats, newest first.
func (s *Store) ByUser(ctx context.Context, userID int64, limit int) ([]message.Message, error) {
	if limit <= 0 {
		return nil, nil
	}
	rows, err := s.pool.Query(ctx, `
		SELECT `+messageColumns+` FROM messages
		WHERE user_id = $1
		ORDER BY ts DESC, message_id DESC
		LIMIT $2`,
		userID, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("postgres: messages by user: %w", describe(err))
	}
	return collectMessages(rows)
}

// ActiveUsers lists distinct human authors in [from, to), ascending.
func (s *Store) ActiveUsers(ctx context.Context, from, to time.Time) ([]int64, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT DISTINCT user_id FROM messages
		WHERE user_id > 0 AND ts >= $1 AND ts < $2
		ORDER BY user_id`,
		from, to,
	)
	if err != nil {
		return nil, fmt.Errorf("postgres: active users: %w", describe(err))
	}
	ids, err := pgx.CollectRows(rows, pgx.RowTo[int64])
	if err != nil {
		return nil, fmt.Errorf("postgres: scan users: %w", err)
	}
	return ids, nil
}

// Profiles returns the trait profile store sharing this pool.
func (s *Store) Profiles() traits.Store {
	return &profileStore{pool: s.pool}
}

// Ping checks the pool.
func (s *Store) Ping(ctx context.Context) error {
	if err := s.pool.Ping(ctx); err != nil {
		return fmt.Errorf("postgres: ping: %w", err)
	}
	return nil
}

// Close releases the pool.
func (s *Store) Close() error {
	s.logger.Info("postgres store closing")
	s.pool.Close()
	return nil
}

func collectMessages(rows pgx.Rows) ([]message.Message, error) {
	msgs, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (message.Message, error) {
		var m message.Message
		err := row.Scan(&m.ChatID, &m.ID, &m.UserID, &m.Username, &m.FullName, &m.Text, &m.ReplyToID, &m.Time)
		m.Time = m.Time.UTC()
		return m, err
	})
	if err != nil {
		return nil, fmt.Errorf("postgres: scan messages: %w", err)
	}
	return msgs, nil
}
