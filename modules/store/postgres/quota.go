package postgres

import (
	"context"
	"fmt"

	"github.com/flemzord/chatdigest/internal/quota"
)

// Increment adds one to the counter of key while it is below limit, in a
// single conditional upsert.
func (s *Store) Increment(ctx context.Context, key quota.Key, limit int) (int, bool, error) {
	if limit <= 0 {
		return 0, false, nil
	}
	var count int
	err := s.pool.QueryRow(ctx, `
		INSERT INTO reply_quota AS q (user_id, chat_id, day, count)
		VALUES ($1, $2, $3, 1)
		ON CONFLICT (user_id, chat_id, day) DO UPDATE SET count = q.count + 1
		WHERE q.count < $4
		RETURNING q.count`,
		key.UserID, key.ChatID, key.Date, limit,
	).Scan(&count)
	if isNoRows(err) {
		return limit, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("postgres: increment quota: %w", describe(err))
	}
	return count, true, nil
}

// Reset deletes every counter of date.
func (s *Store) Reset(ctx context.Context, date string) error {
	if _, err := s.pool.Exec(ctx, `DELETE FROM reply_quota WHERE day = $1`, date); err != nil {
		return fmt.Errorf("postgres: reset quota: %w", describe(err))
	}
	return nil
}
