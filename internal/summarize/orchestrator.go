// Package summarize orchestrates tiered AI summarization with
// bounded-latency degradation. A slow or unavailable AI backend
// degrades summary quality via fallback; it never fails an article.
package summarize

import (
	"context"
	"fmt"
	"strings"
	"time"

	"curator/internal/core"
	"curator/internal/llm"
	"curator/internal/logger"
	"curator/internal/metrics"
	"curator/internal/store"
)

// jobState is the per-job state machine position. Transitions:
// pending -> combined_attempt -> (success) done
//                             -> per_level_attempt -> fallback -> done
type jobState string

const (
	statePending         jobState = "pending"
	stateCombinedAttempt jobState = "combined_attempt"
	statePerLevelAttempt jobState = "per_level_attempt"
	stateFallback        jobState = "fallback"
	stateDone            jobState = "done"
)

// Budgets holds the orchestrator's time budgets and retry policy.
// Per-level budgets are shorter than the combined budget and ordered
// micro < standard < detailed.
type Budgets struct {
	Combined     time.Duration
	Micro        time.Duration
	Standard     time.Duration
	Detailed     time.Duration
	LevelRetries int
}

// DefaultBudgets returns the default time budgets.
func DefaultBudgets() Budgets {
	return Budgets{
		Combined:     45 * time.Second,
		Micro:        8 * time.Second,
		Standard:     15 * time.Second,
		Detailed:     25 * time.Second,
		LevelRetries: 1,
	}
}

func (b Budgets) forLevel(level core.SummaryLevel) time.Duration {
	switch level {
	case core.LevelMicro:
		return b.Micro
	case core.LevelStandard:
		return b.Standard
	default:
		return b.Detailed
	}
}

// Orchestrator drives summarization jobs for pending articles.
type Orchestrator struct {
	gen       llm.Generator
	store     *store.Store
	budgets   Budgets
	maxTokens int32
}

// New creates an orchestrator.
func New(gen llm.Generator, s *store.Store, budgets Budgets) *Orchestrator {
	return &Orchestrator{gen: gen, store: s, budgets: budgets, maxTokens: 2048}
}

// SetMaxTokens overrides the per-call output token cap.
func (o *Orchestrator) SetMaxTokens(n int32) {
	if n > 0 {
		o.maxTokens = n
	}
}

// job carries one article through the state machine.
type job struct {
	article  core.Article
	state    jobState
	resolved map[core.SummaryLevel]core.SummaryResult
}

// Summarize runs the full state machine for one pending article and
// returns the article's final status. Articles already claimed by
// another worker are skipped with StatusSummarizing.
func (o *Orchestrator) Summarize(ctx context.Context, article core.Article) (core.ArticleStatus, error) {
	if article.Status != core.StatusPending {
		return article.Status, nil
	}

	// Unusable body is the only path to failed: there is no text to
	// summarize or fall back to.
	if !usable(article) {
		if err := o.store.UpdateArticleStatus(ctx, article.ID, core.StatusFailed); err != nil {
			return "", err
		}
		metrics.SummaryJobs.WithLabelValues(string(core.StatusFailed)).Inc()
		logger.Warn("article body unusable, marked failed", "article", article.ID)
		return core.StatusFailed, nil
	}

	claimed, err := o.store.ClaimArticleForSummarization(ctx, article.ID)
	if err != nil {
		return "", err
	}
	if !claimed {
		return core.StatusSummarizing, nil
	}

	j := &job{
		article:  article,
		state:    statePending,
		resolved: make(map[core.SummaryLevel]core.SummaryResult),
	}

	// An empty body gives the AI nothing to work from; the extractive
	// fallback summarizes the title directly. Skipping the AI states
	// keeps every summary for such an article flagged fallback=true.
	if strings.TrimSpace(article.Body) == "" {
		j.state = stateFallback
	}

	for j.state != stateDone {
		switch j.state {
		case statePending:
			j.state = stateCombinedAttempt
		case stateCombinedAttempt:
			j.state = o.runCombined(ctx, j)
		case statePerLevelAttempt:
			j.state = o.runPerLevel(ctx, j)
		case stateFallback:
			j.state = o.runFallback(j)
		}
	}

	return o.finish(ctx, j)
}

// runCombined attempts a single call producing all three levels under
// one total budget. A timeout or error falls through to per-level
// attempts; a response missing some levels keeps the levels it did
// produce and falls through for the rest.
func (o *Orchestrator) runCombined(ctx context.Context, j *job) jobState {
	response, err := o.generate(ctx, BuildCombinedPrompt(j.article.Title, j.article.Body), o.budgets.Combined)
	if err != nil {
		logger.Debug("combined summarization attempt failed", "article", j.article.ID, "error", err.Error())
		return statePerLevelAttempt
	}

	sections := ParseCombinedResponse(response)
	now := time.Now().UTC()
	for level, text := range sections {
		j.resolved[level] = core.SummaryResult{
			ArticleID:   j.article.ID,
			Level:       level,
			Text:        text,
			Fallback:    false,
			ModelUsed:   o.gen.Model(),
			GeneratedAt: now,
		}
	}

	if len(j.resolved) < len(core.Levels()) {
		logger.Debug("combined response incomplete", "article", j.article.ID, "sections", len(sections))
		return statePerLevelAttempt
	}
	return stateDone
}

// runPerLevel attempts each unresolved level independently in priority
// order (micro first: broadest utility), each bounded by its own
// budget, with at most LevelRetries retries per level.
func (o *Orchestrator) runPerLevel(ctx context.Context, j *job) jobState {
	for _, level := range core.Levels() {
		if _, ok := j.resolved[level]; ok {
			continue
		}
		if ctx.Err() != nil {
			// Shutdown mid-job; remaining levels go to fallback.
			break
		}

		prompt := BuildLevelPrompt(level, j.article.Title, j.article.Body)
		budget := o.budgets.forLevel(level)

		for attempt := 0; attempt <= o.budgets.LevelRetries; attempt++ {
			text, err := o.generate(ctx, prompt, budget)
			if err != nil {
				logger.Debug("per-level summarization attempt failed",
					"article", j.article.ID, "level", string(level), "attempt", attempt, "error", err.Error())
				continue
			}
			j.resolved[level] = core.SummaryResult{
				ArticleID:   j.article.ID,
				Level:       level,
				Text:        strings.TrimSpace(text),
				Fallback:    false,
				ModelUsed:   o.gen.Model(),
				GeneratedAt: time.Now().UTC(),
			}
			break
		}
	}

	if len(j.resolved) == len(core.Levels()) {
		return stateDone
	}
	return stateFallback
}

// runFallback fills every still-unresolved level with a deterministic
// extractive summary flagged fallback=true.
func (o *Orchestrator) runFallback(j *job) jobState {
	now := time.Now().UTC()
	for _, level := range core.Levels() {
		if _, ok := j.resolved[level]; ok {
			continue
		}
		text := FallbackSummary(j.article.Title, j.article.Body, level)
		if text == "" {
			continue
		}
		j.resolved[level] = core.SummaryResult{
			ArticleID:   j.article.ID,
			Level:       level,
			Text:        text,
			Fallback:    true,
			GeneratedAt: now,
		}
	}
	return stateDone
}

// finish persists resolved summaries and the final status: completed
// when all three levels are present (AI or fallback), partial when some
// are missing.
func (o *Orchestrator) finish(ctx context.Context, j *job) (core.ArticleStatus, error) {
	for _, result := range j.resolved {
		if err := o.store.SaveSummary(ctx, result); err != nil {
			return "", fmt.Errorf("failed to save summary for %s: %w", j.article.ID, err)
		}
		origin := "ai"
		if result.Fallback {
			origin = "fallback"
		}
		metrics.SummaryLevels.WithLabelValues(string(result.Level), origin).Inc()
	}

	status := core.StatusCompleted
	if len(j.resolved) < len(core.Levels()) {
		status = core.StatusPartial
	}

	if err := o.store.UpdateArticleStatus(ctx, j.article.ID, status); err != nil {
		return "", fmt.Errorf("failed to update article status: %w", err)
	}
	metrics.SummaryJobs.WithLabelValues(string(status)).Inc()

	logger.Info("article summarized", "article", j.article.ID,
		"status", string(status), "levels", len(j.resolved))
	return status, nil
}

// generate runs one bounded AI call. A timed-out call is abandoned:
// the response channel is buffered, so a late reply is dropped and can
// never be merged after the fallback path has resolved the level.
func (o *Orchestrator) generate(ctx context.Context, prompt string, budget time.Duration) (string, error) {
	callCtx, cancel := context.WithTimeout(ctx, budget)
	defer cancel()

	type genResult struct {
		text string
		err  error
	}
	ch := make(chan genResult, 1)

	go func() {
		text, err := o.gen.Generate(callCtx, prompt, o.maxTokens)
		ch <- genResult{text: text, err: err}
	}()

	select {
	case <-callCtx.Done():
		return "", callCtx.Err()
	case r := <-ch:
		if r.err != nil {
			return "", r.err
		}
		if strings.TrimSpace(r.text) == "" {
			return "", fmt.Errorf("empty response from generator")
		}
		return r.text, nil
	}
}

func usable(article core.Article) bool {
	return strings.TrimSpace(article.Title) != "" || strings.TrimSpace(article.Body) != ""
}
