package history

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"time"
)

const trackPreferenceKey = "track_index"

// RememberTrack stores the track index used by tracks.mode = "remember".
func (s *Store) RememberTrack(ctx context.Context, index int) error {
	if index < 0 {
		return fmt.Errorf("track index must be >= 0, got %d", index)
	}
	err := s.exec(ctx,
		`INSERT INTO preferences (key, value, updated_at) VALUES (?, ?, ?)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
		trackPreferenceKey, strconv.Itoa(index), formatTime(time.Now()),
	)
	if err != nil {
		return fmt.Errorf("remember track: %w", err)
	}
	return nil
}

// RememberedTrack returns the stored track index. ok is false when none was stored.
func (s *Store) RememberedTrack(ctx context.Context) (index int, ok bool, err error) {
	var value string
	err = s.db.QueryRowContext(ctx, `SELECT value FROM preferences WHERE key = ?`, trackPreferenceKey).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("read remembered track: %w", err)
	}
	index, err = strconv.Atoi(value)
	if err != nil || index < 0 {
		return 0, false, nil
	}
	return index, true, nil
}
