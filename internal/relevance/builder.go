package relevance

import (
	"context"
	"fmt"
	"time"

	"curator/internal/core"
	"curator/internal/logger"
	"curator/internal/metrics"
	"curator/internal/store"
)

// Builder assembles per-user digests from stored candidates. All
// scoring goes through the pure Scorer; the builder only gathers its
// inputs and persists the result.
type Builder struct {
	store    *store.Store
	scorer   *Scorer
	size     int
	cap      int
	lookback time.Duration
}

// NewBuilder creates a digest builder.
func NewBuilder(s *store.Store, scorer *Scorer, size, categoryCap int, lookback time.Duration) *Builder {
	return &Builder{store: s, scorer: scorer, size: size, cap: categoryCap, lookback: lookback}
}

// BuildDigest scores every candidate article for the user, assembles a
// diversity-capped digest, and persists the run. A user with no
// candidates receives an empty digest, not an error.
func (b *Builder) BuildDigest(ctx context.Context, userID string, now time.Time) (*core.DigestRun, error) {
	candidates, err := b.store.ListCandidates(ctx, now.Add(-b.lookback))
	if err != nil {
		return nil, fmt.Errorf("failed to list candidates: %w", err)
	}

	profile, err := b.store.GetProfile(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load profile: %w", err)
	}

	history, err := b.loadHistory(ctx, userID, now)
	if err != nil {
		return nil, fmt.Errorf("failed to load feedback history: %w", err)
	}

	articles := make(map[string]core.Article, len(candidates))
	scored := make([]core.ScoredArticle, 0, len(candidates))
	for _, article := range candidates {
		articles[article.ID] = article
		sa := b.scorer.Score(profile, article, history, now)
		sa.UserID = userID
		scored = append(scored, sa)
	}

	run := Assemble(userID, scored, articles, b.size, b.cap, now)
	if err := b.store.SaveDigestRun(ctx, run); err != nil {
		return nil, fmt.Errorf("failed to save digest run: %w", err)
	}
	metrics.DigestRuns.Inc()

	logger.Info("digest assembled", "user", userID,
		"candidates", len(candidates), "selected", len(run.ArticleIDs))
	return &run, nil
}

// loadHistory joins the user's recent feedback events with the tags of
// the articles they were about.
func (b *Builder) loadHistory(ctx context.Context, userID string, now time.Time) ([]Interaction, error) {
	events, err := b.store.ListFeedbackSince(ctx, userID, now.Add(-b.scorer.engagementWindow))
	if err != nil {
		return nil, err
	}

	tagCache := make(map[string][]string)
	history := make([]Interaction, 0, len(events))
	for _, ev := range events {
		tags, ok := tagCache[ev.ArticleID]
		if !ok {
			article, err := b.store.GetArticle(ctx, ev.ArticleID)
			if err != nil {
				return nil, err
			}
			if article != nil {
				tags = article.Tags
			}
			tagCache[ev.ArticleID] = tags
		}
		history = append(history, Interaction{
			Tags:    tags,
			Type:    ev.Type,
			Seconds: ev.Seconds,
			At:      ev.CreatedAt,
		})
	}
	return history, nil
}
