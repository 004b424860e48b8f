// Package prefs implements the preference learning loop: feedback
// events adjust per-tag profile weights incrementally, and a batch
// recompute periodically rebuilds each profile from the event log.
package prefs

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"curator/internal/core"
	"curator/internal/logger"
	"curator/internal/metrics"
	"curator/internal/store"

	"github.com/google/uuid"
)

// Deltas holds the per-event weight adjustments. Thumbs events apply
// the full delta, clicks a small one, and read-time a delta scaled by
// how much of a full read the duration represents.
type Deltas struct {
	ThumbsUp       float64
	ThumbsDown     float64
	Click          float64
	ReadTime       float64
	FullReadTime   time.Duration
	CoalesceWindow time.Duration
	RecomputeSpan  time.Duration
}

// DefaultDeltas returns the default learning deltas.
func DefaultDeltas() Deltas {
	return Deltas{
		ThumbsUp:       0.10,
		ThumbsDown:     -0.10,
		Click:          0.03,
		ReadTime:       0.05,
		FullReadTime:   3 * time.Minute,
		CoalesceWindow: 5 * time.Minute,
		RecomputeSpan:  90 * 24 * time.Hour,
	}
}

// Learner applies feedback events to user preference profiles.
type Learner struct {
	store  *store.Store
	deltas Deltas

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// NewLearner creates a learner.
func NewLearner(s *store.Store, deltas Deltas) *Learner {
	return &Learner{
		store:  s,
		deltas: deltas,
		locks:  make(map[string]*sync.Mutex),
	}
}

// userLock returns the per-user lock, creating it on first use. The
// lock serializes a user's feedback path end to end: the duplicate
// check, the log append, and the weight deltas happen as one unit, so
// two identical concurrent events cannot both pass the coalescing
// check. The batch recompute holds the same lock for its rebuild.
func (l *Learner) userLock(userID string) *sync.Mutex {
	l.mu.Lock()
	defer l.mu.Unlock()
	lock, ok := l.locks[userID]
	if !ok {
		lock = &sync.Mutex{}
		l.locks[userID] = lock
	}
	return lock
}

// RecordFeedback validates, logs, and applies one feedback event. A
// duplicate event inside the coalescing window is logged but applies no
// weight change, so repeated signals stay idempotent. Malformed events
// are rejected before anything is written.
func (l *Learner) RecordFeedback(ctx context.Context, ev core.FeedbackEvent) error {
	if err := validate(ev); err != nil {
		return err
	}
	if ev.ID == "" {
		ev.ID = uuid.NewString()
	}
	if ev.CreatedAt.IsZero() {
		ev.CreatedAt = time.Now().UTC()
	}

	article, err := l.store.GetArticle(ctx, ev.ArticleID)
	if err != nil {
		return fmt.Errorf("failed to load article: %w", err)
	}
	if article == nil {
		return fmt.Errorf("unknown article %q", ev.ArticleID)
	}

	lock := l.userLock(ev.UserID)
	lock.Lock()
	defer lock.Unlock()

	duplicate, err := l.store.HasRecentDuplicate(ctx, ev, l.deltas.CoalesceWindow)
	if err != nil {
		return fmt.Errorf("failed to check for duplicate feedback: %w", err)
	}

	if err := l.store.AppendFeedback(ctx, ev); err != nil {
		return err
	}
	metrics.FeedbackEvents.WithLabelValues(string(ev.Type)).Inc()

	if duplicate {
		metrics.FeedbackCoalesced.Inc()
		logger.Debug("feedback coalesced", "user", ev.UserID,
			"article", ev.ArticleID, "type", string(ev.Type))
		return nil
	}

	delta := l.delta(ev)
	if delta == 0 || len(article.Tags) == 0 {
		return nil
	}

	for _, tag := range article.Tags {
		if err := l.store.ApplyWeightDelta(ctx, ev.UserID, tag, delta, ev.CreatedAt); err != nil {
			return fmt.Errorf("failed to apply weight delta for tag %q: %w", tag, err)
		}
	}

	logger.Debug("profile weights adjusted", "user", ev.UserID,
		"type", string(ev.Type), "delta", delta, "tags", len(article.Tags))
	return nil
}

// delta maps an event to its weight adjustment.
func (l *Learner) delta(ev core.FeedbackEvent) float64 {
	switch ev.Type {
	case core.FeedbackThumbsUp:
		return l.deltas.ThumbsUp
	case core.FeedbackThumbsDown:
		return l.deltas.ThumbsDown
	case core.FeedbackClick:
		return l.deltas.Click
	case core.FeedbackReadTime:
		frac := ev.Seconds / l.deltas.FullReadTime.Seconds()
		if frac > 1 {
			frac = 1
		}
		return l.deltas.ReadTime * frac
	default:
		return 0
	}
}

func validate(ev core.FeedbackEvent) error {
	if strings.TrimSpace(ev.UserID) == "" {
		return fmt.Errorf("feedback event missing user id")
	}
	if strings.TrimSpace(ev.ArticleID) == "" {
		return fmt.Errorf("feedback event missing article id")
	}
	switch ev.Type {
	case core.FeedbackThumbsUp, core.FeedbackThumbsDown, core.FeedbackClick:
	case core.FeedbackReadTime:
		if ev.Seconds <= 0 {
			return fmt.Errorf("read_time event requires positive seconds, got %v", ev.Seconds)
		}
	default:
		return fmt.Errorf("unknown feedback type %q", ev.Type)
	}
	return nil
}
