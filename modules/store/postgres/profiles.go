package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/flemzord/chatdigest/internal/traits"
)

type profileStore struct {
	pool *pgxpool.Pool
}

var _ traits.Store = (*profileStore)(nil)

func (p *profileStore) Get(ctx context.Context, userID int64) (traits.Profile, bool, error) {
	var raw []byte
	err := p.pool.QueryRow(ctx, `SELECT profile::text FROM user_traits WHERE user_id = $1`, userID).Scan(&raw)
	if isNoRows(err) {
		return traits.Profile{}, false, nil
	}
	if err != nil {
		return traits.Profile{}, false, fmt.Errorf("postgres: get profile: %w", describe(err))
	}
	var prof traits.Profile
	if err := json.Unmarshal(raw, &prof); err != nil {
		return traits.Profile{}, false, fmt.Errorf("postgres: decode profile %d: %w", userID, err)
	}
	return prof, true, nil
}

func (p *profileStore) Put(ctx context.Context, userID int64, prof traits.Profile) error {
	raw, err := json.Marshal(prof)
	if err != nil {
		return fmt.Errorf("postgres: encode profile: %w", err)
	}
	_, err = p.pool.Exec(ctx, `
		INSERT INTO user_traits (user_id, profile, updated_at)
		VALUES ($1, $2::jsonb, now())
		ON CONFLICT (user_id) DO UPDATE SET
			profile = EXCLUDED.profile,
			updated_at = EXCLUDED.updated_at`,
		userID, string(raw),
	)
	if err != nil {
		return fmt.Errorf("postgres: put profile: %w", describe(err))
	}
	return nil
}
