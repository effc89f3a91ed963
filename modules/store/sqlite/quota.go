package sqlite

import (
	"context"
	"fmt"

	"github.com/flemzord/chatdigest/internal/quota"
)

var _ quota.Store = (*Store)(nil)

// Increment adds one to the counter of key while it is below limit. The
// check and the write are one conditional upsert, so concurrent callers
// cannot overshoot.
func (s *Store) Increment(ctx context.Context, key quota.Key, limit int) (int, bool, error) {
	if limit <= 0 {
		return 0, false, nil
	}
	var count int
	err := s.db.QueryRowContext(ctx, `
		INSERT INTO reply_quota (user_id, chat_id, day, count)
		VALUES (?, ?, ?, 1)
		ON CONFLICT (user_id, chat_id, day) DO UPDATE SET count = count + 1
		WHERE reply_quota.count < ?
		RETURNING count`,
		key.UserID, key.ChatID, key.Date, limit,
	).Scan(&count)
	if isNoRows(err) {
		return limit, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("sqlite: increment quota: %w", err)
	}
	return count, true, nil
}

// Reset deletes every counter of date.
func (s *Store) Reset(ctx context.Context, date string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM reply_quota WHERE day = ?`, date); err != nil {
		return fmt.Errorf("sqlite: reset quota: %w", err)
	}
	return nil
}
