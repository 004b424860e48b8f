package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"curator/internal/core"
)

// AppendFeedback appends one event to the immutable feedback log.
func (s *Store) AppendFeedback(ctx context.Context, ev core.FeedbackEvent) error {
	query := `
	INSERT INTO feedback_events (id, user_id, article_id, digest_id, type, seconds, created_at)
	VALUES (?, ?, ?, ?, ?, ?, ?)`

	_, err := s.db.ExecContext(ctx, query,
		ev.ID, ev.UserID, ev.ArticleID, ev.DigestID, string(ev.Type), ev.Seconds, ev.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to append feedback: %w", err)
	}
	return nil
}

// HasRecentDuplicate reports whether an identical event (same user,
// article, type) was already logged inside the coalescing window.
func (s *Store) HasRecentDuplicate(ctx context.Context, ev core.FeedbackEvent, window time.Duration) (bool, error) {
	query := `
	SELECT COUNT(*) FROM feedback_events
	WHERE user_id = ? AND article_id = ? AND type = ? AND created_at > ?`

	var count int
	cutoff := ev.CreatedAt.Add(-window)
	err := s.db.QueryRowContext(ctx, query, ev.UserID, ev.ArticleID, string(ev.Type), cutoff).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("failed to check duplicate feedback: %w", err)
	}
	return count > 0, nil
}

// ListFeedbackSince returns a user's feedback events newer than the
// cutoff, oldest first.
func (s *Store) ListFeedbackSince(ctx context.Context, userID string, since time.Time) ([]core.FeedbackEvent, error) {
	query := `
	SELECT id, user_id, article_id, digest_id, type, seconds, created_at
	FROM feedback_events
	WHERE user_id = ? AND created_at > ?
	ORDER BY created_at ASC`

	rows, err := s.db.QueryContext(ctx, query, userID, since)
	if err != nil {
		return nil, fmt.Errorf("failed to query feedback: %w", err)
	}
	defer rows.Close()

	var events []core.FeedbackEvent
	for rows.Next() {
		var ev core.FeedbackEvent
		var typ string
		if err := rows.Scan(&ev.ID, &ev.UserID, &ev.ArticleID, &ev.DigestID, &typ, &ev.Seconds, &ev.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan feedback event: %w", err)
		}
		ev.Type = core.FeedbackType(typ)
		events = append(events, ev)
	}
	return events, rows.Err()
}

// ListFeedbackUsers returns the distinct users with feedback newer than
// the cutoff; the batch recompute iterates over them.
func (s *Store) ListFeedbackUsers(ctx context.Context, since time.Time) ([]string, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT DISTINCT user_id FROM feedback_events WHERE created_at > ?", since)
	if err != nil {
		return nil, fmt.Errorf("failed to query feedback users: %w", err)
	}
	defer rows.Close()

	var users []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan user id: %w", err)
		}
		users = append(users, id)
	}
	return users, rows.Err()
}

// SaveDigestRun persists a completed digest run. Digest runs are
// immutable, so a duplicate ID is an error.
func (s *Store) SaveDigestRun(ctx context.Context, run core.DigestRun) error {
	ids, err := json.Marshal(run.ArticleIDs)
	if err != nil {
		return fmt.Errorf("failed to encode article ids: %w", err)
	}

	_, err = s.db.ExecContext(ctx,
		"INSERT INTO digest_runs (id, user_id, generated_at, article_ids) VALUES (?, ?, ?, ?)",
		run.ID, run.UserID, run.GeneratedAt, string(ids))
	if err != nil {
		return fmt.Errorf("failed to save digest run: %w", err)
	}
	return nil
}

// ListDigestRuns returns a user's digest runs, newest first.
func (s *Store) ListDigestRuns(ctx context.Context, userID string, limit int) ([]core.DigestRun, error) {
	query := `
	SELECT id, user_id, generated_at, article_ids
	FROM digest_runs WHERE user_id = ?
	ORDER BY generated_at DESC LIMIT ?`

	rows, err := s.db.QueryContext(ctx, query, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query digest runs: %w", err)
	}
	defer rows.Close()

	var runs []core.DigestRun
	for rows.Next() {
		var run core.DigestRun
		var ids string
		if err := rows.Scan(&run.ID, &run.UserID, &run.GeneratedAt, &ids); err != nil {
			return nil, fmt.Errorf("failed to scan digest run: %w", err)
		}
		if err := json.Unmarshal([]byte(ids), &run.ArticleIDs); err != nil {
			return nil, fmt.Errorf("failed to decode article ids: %w", err)
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}
