package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/flemzord/chatdigest/internal/traits"
)

// profileStore keeps trait profiles as JSON documents.
type profileStore struct {
	db *sql.DB
}

var _ traits.Store = (*profileStore)(nil)

func (p *profileStore) Get(ctx context.Context, userID int64) (traits.Profile, bool, error) {
	var raw string
	err := p.db.QueryRowContext(ctx, `SELECT profile FROM user_traits WHERE user_id = ?`, userID).Scan(&raw)
	if isNoRows(err) {
		return traits.Profile{}, false, nil
	}
	if err != nil {
		return traits.Profile{}, false, fmt.Errorf("sqlite: get profile: %w", err)
	}
	var prof traits.Profile
	if err := json.Unmarshal([]byte(raw), &prof); err != nil {
		return traits.Profile{}, false, fmt.Errorf("sqlite: decode profile %d: %w", userID, err)
	}
	return prof, true, nil
}

func (p *profileStore) Put(ctx context.Context, userID int64, prof traits.Profile) error {
	raw, err := json.Marshal(prof)
	if err != nil {
		return fmt.Errorf("sqlite: encode profile: %w", err)
	}
	_, err = p.db.ExecContext(ctx, `
		INSERT INTO user_traits (user_id, profile, updated_at)
		VALUES (?, ?, ?)
		ON CONFLICT (user_id) DO UPDATE SET
			profile = excluded.profile,
			updated_at = excluded.updated_at`,
		userID, string(raw), time.Now().Unix(),
	)
	if err != nil {
		return fmt.Errorf("sqlite: put profile: %w", err)
	}
	return nil
}
