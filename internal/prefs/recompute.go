package prefs

import (
	"context"
	"fmt"
	"time"

	"curator/internal/core"
	"curator/internal/logger"
)

// coalesceKey identifies events the idempotency window treats as
// identical.
type coalesceKey struct {
	articleID string
	eventType core.FeedbackType
}

// Recompute rebuilds one user's profile from the feedback log inside
// the rolling recompute window and replaces the stored profile with the
// result. It holds the user's lock for the duration, so an
// incremental update can never interleave with the rebuild. The batch
// result is authoritative: weights drifted by lost or replayed events
// converge back to what the log supports.
func (l *Learner) Recompute(ctx context.Context, userID string, now time.Time) error {
	lock := l.userLock(userID)
	lock.Lock()
	defer lock.Unlock()

	events, err := l.store.ListFeedbackSince(ctx, userID, now.Add(-l.deltas.RecomputeSpan))
	if err != nil {
		return fmt.Errorf("failed to list feedback for recompute: %w", err)
	}

	weights := make(map[string]float64)
	tagCache := make(map[string][]string)
	lastSeen := make(map[coalesceKey]time.Time)

	for _, ev := range events {
		// The log keeps coalesced duplicates; the rebuild must count
		// them once, exactly as the live path did. Events arrive
		// ordered by created_at, so the previous sighting suffices.
		key := coalesceKey{articleID: ev.ArticleID, eventType: ev.Type}
		prev, seen := lastSeen[key]
		lastSeen[key] = ev.CreatedAt
		if seen && ev.CreatedAt.Sub(prev) < l.deltas.CoalesceWindow {
			continue
		}

		tags, ok := tagCache[ev.ArticleID]
		if !ok {
			article, err := l.store.GetArticle(ctx, ev.ArticleID)
			if err != nil {
				return fmt.Errorf("failed to load article for recompute: %w", err)
			}
			if article != nil {
				tags = article.Tags
			}
			tagCache[ev.ArticleID] = tags
		}

		delta := l.delta(ev)
		if delta == 0 {
			continue
		}
		for _, tag := range tags {
			w, ok := weights[tag]
			if !ok {
				w = 0.5
			}
			weights[tag] = clampWeight(w + delta)
		}
	}

	if err := l.store.ReplaceProfile(ctx, userID, weights, now); err != nil {
		return fmt.Errorf("failed to replace profile: %w", err)
	}

	logger.Info("profile recomputed", "user", userID,
		"events", len(events), "tags", len(weights))
	return nil
}

// RecomputeAll rebuilds every profile with feedback inside the rolling
// window. Per-user failures are logged and skipped so one bad profile
// does not block the rest.
func (l *Learner) RecomputeAll(ctx context.Context, now time.Time) error {
	users, err := l.store.ListFeedbackUsers(ctx, now.Add(-l.deltas.RecomputeSpan))
	if err != nil {
		return fmt.Errorf("failed to list users for recompute: %w", err)
	}

	var failed int
	for _, userID := range users {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if err := l.Recompute(ctx, userID, now); err != nil {
			failed++
			logger.Error("profile recompute failed", err, "user", userID)
		}
	}

	if failed > 0 {
		return fmt.Errorf("recompute failed for %d of %d users", failed, len(users))
	}
	return nil
}

func clampWeight(w float64) float64 {
	if w < 0 {
		return 0
	}
	if w > 1 {
		return 1
	}
	return w
}
