package postgres

import "context"

// Truncate empties every table. Tests only.
func (s *Store) Truncate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, `TRUNCATE messages, chats, reply_quota, user_traits`)
	return err
}
