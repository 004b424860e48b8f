package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"curator/internal/core"
)

// ApplyWeightDelta applies a single atomic, clamped increment to one
// tag weight. The whole update is one SQL statement, never a
// read-modify-write in Go, so concurrent feedback events for the same
// user cannot lose updates to each other.
func (s *Store) ApplyWeightDelta(ctx context.Context, userID, tag string, delta float64, at time.Time) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin weight update: %w", err)
	}
	defer tx.Rollback()

	// Lazily create the profile row on first feedback.
	_, err = tx.ExecContext(ctx, `
	INSERT INTO profiles (user_id, updated_at) VALUES (?, ?)
	ON CONFLICT(user_id) DO UPDATE SET updated_at = excluded.updated_at`, userID, at)
	if err != nil {
		return fmt.Errorf("failed to upsert profile: %w", err)
	}

	// Clamp to [0,1] inside the statement. A fresh tag starts from the
	// neutral midpoint so the first signal moves it off 0.5.
	_, err = tx.ExecContext(ctx, `
	INSERT INTO profile_weights (user_id, tag, weight)
	VALUES (?, ?, MAX(0.0, MIN(1.0, 0.5 + ?)))
	ON CONFLICT(user_id, tag) DO UPDATE SET weight = MAX(0.0, MIN(1.0, weight + ?))`,
		userID, tag, delta, delta)
	if err != nil {
		return fmt.Errorf("failed to apply weight delta: %w", err)
	}

	return tx.Commit()
}

// GetProfile returns a user's preference profile, or (nil, nil) when
// the user has never given feedback.
func (s *Store) GetProfile(ctx context.Context, userID string) (*core.UserPreferenceProfile, error) {
	var updatedAt time.Time
	err := s.db.QueryRowContext(ctx, "SELECT updated_at FROM profiles WHERE user_id = ?", userID).Scan(&updatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query profile: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, "SELECT tag, weight FROM profile_weights WHERE user_id = ?", userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query profile weights: %w", err)
	}
	defer rows.Close()

	profile := &core.UserPreferenceProfile{
		UserID:     userID,
		TagWeights: make(map[string]float64),
		UpdatedAt:  updatedAt,
	}
	for rows.Next() {
		var tag string
		var weight float64
		if err := rows.Scan(&tag, &weight); err != nil {
			return nil, fmt.Errorf("failed to scan profile weight: %w", err)
		}
		profile.TagWeights[tag] = weight
	}
	return profile, rows.Err()
}

// ReplaceProfile atomically replaces a user's full weight vector.
// Used only by the batch recompute, which is the authoritative write.
func (s *Store) ReplaceProfile(ctx context.Context, userID string, weights map[string]float64, at time.Time) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin profile replace: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `
	INSERT INTO profiles (user_id, updated_at) VALUES (?, ?)
	ON CONFLICT(user_id) DO UPDATE SET updated_at = excluded.updated_at`, userID, at); err != nil {
		return fmt.Errorf("failed to upsert profile: %w", err)
	}

	if _, err := tx.ExecContext(ctx, "DELETE FROM profile_weights WHERE user_id = ?", userID); err != nil {
		return fmt.Errorf("failed to clear profile weights: %w", err)
	}

	for tag, weight := range weights {
		if _, err := tx.ExecContext(ctx,
			"INSERT INTO profile_weights (user_id, tag, weight) VALUES (?, ?, MAX(0.0, MIN(1.0, ?)))",
			userID, tag, weight); err != nil {
			return fmt.Errorf("failed to insert profile weight: %w", err)
		}
	}

	return tx.Commit()
}
