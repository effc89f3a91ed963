package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/flemzord/chatdigest/internal/chatlog"
	"github.com/flemzord/chatdigest/internal/traits"
	"github.com/flemzord/chatdigest/pkg/message"
)

// Store is the SQLite-backed chat log, chat registry and quota store.
type Store struct {
	db          *sql.DB
	logger      *slog.Logger
	busyTimeout int
}

// Compile-time interface guards.
var (
	_ chatlog.Log   = (*Store)(nil)
	_ chatlog.Chats = (*Store)(nil)
)

const messageColumns = `chat_id, message_id, user_id, username, full_name, text, reply_to_id, ts`

// Insert stores m. A duplicate (chat, id) is ignored.
func (s *Store) Insert(ctx context.Context, m message.Message) error {
	m = m.Normalize()
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO messages (`+messageColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (chat_id, message_id) DO NOTHING`,
		m.ChatID, m.ID, m.UserID, m.Username, m.FullName, m.Text, m.ReplyToID, m.Time.Unix(),
	)
	if err != nil {
		return fmt.Errorf("sqlite: insert message: %w", err)
	}
	return nil
}

// Range returns messages in [from, to), oldest first.
func (s *Store) Range(ctx context.Context, chatID int64, from, to time.Time) ([]message.Message, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+messageColumns+` FROM messages
		WHERE chat_id = ? AND ts >= ? AND ts < ?
		ORDER BY ts ASC, message_id ASC`,
		chatID, ceilUnix(from), ceilUnix(to),
	)
	if err != nil {
		return nil, fmt.Errorf("sqlite: range messages: %w", err)
	}
	return scanMessages(rows)
}

// Recent returns up to limit messages in [from, before), newest first.
func (s *Store) Recent(ctx context.Context, chatID int64, from, before time.Time, limit int) ([]message.Message, error) {
	if limit <= 0 {
		return nil, nil
	}
	lower := int64(math.MinInt64)
	if !from.IsZero() {
		lower = ceilUnix(from)
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+messageColumns+` FROM messages
		WHERE chat_id = ? AND ts >= ? AND ts < ?
		ORDER BY ts DESC, message_id DESC
		LIMIT ?`,
		chatID, lower, ceilUnix(before), limit,
	)
	if err != nil {
		return nil, fmt.Errorf("sqlite: recent messages: %w", err)
	}
	return scanMessages(rows)
}

// Get returns one message or chatlog.ErrNotFound.
func (s *Store) Get(ctx context.Context, chatID, messageID int64) (message.Message, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+messageColumns+` FROM messages
		WHERE chat_id = ? AND message_id = ?`,
		chatID, messageID,
	)
	if err != nil {
		return message.Message{}, fmt.Errorf("sqlite: get message: %w", err)
	}
	msgs, err := scanMessages(rows)
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
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+messageColumns+` FROM messages
		WHERE user_id = ?
		ORDER BY ts DESC, message_id DESC
		LIMIT ?`,
		userID, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("sqlite: messages by user: %w", err)
	}
	return scanMessages(rows)
}

// ActiveUsers lists distinct human authors in [from, to), ascending.
func (s *Store) ActiveUsers(ctx context.Context, from, to time.Time) ([]int64, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT DISTINCT user_id FROM messages
		WHERE user_id > 0 AND ts >= ? AND ts < ?
		ORDER BY user_id`,
		ceilUnix(from), ceilUnix(to),
	)
	if err != nil {
		return nil, fmt.Errorf("sqlite: active users: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("sqlite: scan user: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterate users: %w", err)
	}
	return ids, nil
}

// Profiles returns the trait profile store sharing this database.
func (s *Store) Profiles() traits.Store {
	return &profileStore{db: s.db}
}

// Ping checks the database connection.
func (s *Store) Ping(ctx context.Context) error {
	if err := s.db.PingContext(ctx); err != nil {
		return fmt.Errorf("sqlite: ping: %w", err)
	}
	return nil
}

// Close releases the database.
func (s *Store) Close() error {
	s.logger.Info("sqlite store closing")
	return s.db.Close()
}

func scanMessages(rows *sql.Rows) ([]message.Message, error) {
	defer func() { _ = rows.Close() }()

	var msgs []message.Message
	for rows.Next() {
		var (
			m  message.Message
			ts int64
		)
		if err := rows.Scan(&m.ChatID, &m.ID, &m.UserID, &m.Username, &m.FullName, &m.Text, &m.ReplyToID, &ts); err != nil {
			return nil, fmt.Errorf("sqlite: scan message: %w", err)
		}
		m.Time = time.Unix(ts, 0).UTC()
		msgs = append(msgs, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterate messages: %w", err)
	}
	return msgs, nil
}

// ceilUnix rounds t up to whole seconds. Stored times have second
// precision, so ts >= ceilUnix(t) matches Time >= t and ts < ceilUnix(t)
// matches Time < t.
func ceilUnix(t time.Time) int64 {
	u := t.Unix()
	if t.Nanosecond() > 0 {
		u++
	}
	return u
}

func isNoRows(err error) bool {
	return errors.Is(err, sql.ErrNoRows)
}
