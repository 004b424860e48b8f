package summarize

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"curator/internal/core"
	"curator/internal/store"

	"github.com/google/uuid"
)

// scriptedGenerator returns canned responses in order, then errors.
type scriptedGenerator struct {
	responses []string
	errs      []error
	calls     int
}

func (g *scriptedGenerator) Generate(ctx context.Context, prompt string, maxTokens int32) (string, error) {
	i := g.calls
	g.calls++
	if i < len(g.errs) && g.errs[i] != nil {
		return "", g.errs[i]
	}
	if i < len(g.responses) {
		return g.responses[i], nil
	}
	return "", errors.New("generator exhausted")
}

func (g *scriptedGenerator) Model() string { return "scripted" }

// slowGenerator blocks until its context is cancelled.
type slowGenerator struct{}

func (g *slowGenerator) Generate(ctx context.Context, prompt string, maxTokens int32) (string, error) {
	<-ctx.Done()
	return "", ctx.Err()
}

func (g *slowGenerator) Model() string { return "slow" }

func testBudgets() Budgets {
	return Budgets{
		Combined:     200 * time.Millisecond,
		Micro:        50 * time.Millisecond,
		Standard:     50 * time.Millisecond,
		Detailed:     50 * time.Millisecond,
		LevelRetries: 1,
	}
}

func seedArticle(t *testing.T, s *store.Store, title, body string) core.Article {
	t.Helper()
	article := core.Article{
		ID:           uuid.NewString(),
		URL:          "https://example.com/" + uuid.NewString(),
		ContentHash:  uuid.NewString(),
		Title:        title,
		Body:         body,
		PublishedAt:  time.Now().UTC().Add(-time.Hour),
		Tags:         []string{"tech"},
		QualityScore: 60,
		Status:       core.StatusPending,
		SourceID:     "src-1",
		DateIngested: time.Now().UTC(),
	}
	inserted, err := s.InsertArticleIfAbsent(context.Background(), article)
	if err != nil || !inserted {
		t.Fatalf("failed to seed article: inserted=%v err=%v", inserted, err)
	}
	return article
}

func newTestStore(t *testing.T) *store.Store {
	t.Helper()
	s, err := store.NewInMemory()
	if err != nil {
		t.Fatalf("NewInMemory failed: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

const combinedResponse = `MICRO:
A short one-line summary.

STANDARD:
A paragraph-length summary covering the article's main points in a bit more depth.

DETAILED:
A long-form summary that walks through the article's arguments, evidence, and implications in detail.`

func TestSummarizeCombinedSuccess(t *testing.T) {
	s := newTestStore(t)
	article := seedArticle(t, s, "A Title", "A body with enough text to summarize. It has several sentences. They carry meaning.")

	gen := &scriptedGenerator{responses: []string{combinedResponse}}
	orch := New(gen, s, testBudgets())

	status, err := orch.Summarize(context.Background(), article)
	if err != nil {
		t.Fatalf("Summarize failed: %v", err)
	}
	if status != core.StatusCompleted {
		t.Fatalf("expected completed, got %s", status)
	}
	if gen.calls != 1 {
		t.Errorf("combined success should take exactly one call, took %d", gen.calls)
	}

	summaries, err := s.GetSummaries(context.Background(), article.ID)
	if err != nil {
		t.Fatalf("GetSummaries failed: %v", err)
	}
	if len(summaries) != 3 {
		t.Fatalf("expected 3 summaries, got %d", len(summaries))
	}
	for level, summary := range summaries {
		if summary.Fallback {
			t.Errorf("level %s should not be a fallback", level)
		}
		if summary.ModelUsed != "scripted" {
			t.Errorf("level %s missing model attribution: %q", level, summary.ModelUsed)
		}
	}
}

func TestSummarizeFallsBackPerLevel(t *testing.T) {
	s := newTestStore(t)
	article := seedArticle(t, s, "A Title", "First sentence of the body. Second sentence with more detail. Third one.")

	// Combined call returns only a micro section; per-level calls then
	// fill standard, and detailed exhausts its retries into fallback.
	gen := &scriptedGenerator{
		responses: []string{
			"MICRO:\nJust the micro section.",
			"A standard paragraph summary.",
		},
	}
	orch := New(gen, s, testBudgets())

	status, err := orch.Summarize(context.Background(), article)
	if err != nil {
		t.Fatalf("Summarize failed: %v", err)
	}
	if status != core.StatusCompleted {
		t.Fatalf("expected completed, got %s", status)
	}

	summaries, _ := s.GetSummaries(context.Background(), article.ID)
	if len(summaries) != 3 {
		t.Fatalf("expected 3 summaries, got %d", len(summaries))
	}
	if summaries[core.LevelMicro].Fallback || summaries[core.LevelStandard].Fallback {
		t.Error("AI-resolved levels should not be flagged fallback")
	}
	if !summaries[core.LevelDetailed].Fallback {
		t.Error("detailed level should be a fallback after retries are exhausted")
	}
}

func TestSummarizeAIUnavailableNeverFails(t *testing.T) {
	s := newTestStore(t)
	article := seedArticle(t, s, "A Title", "Sentence one of the article. Sentence two follows it. Sentence three ends it.")

	gen := &scriptedGenerator{} // Every call errors.
	orch := New(gen, s, testBudgets())

	status, err := orch.Summarize(context.Background(), article)
	if err != nil {
		t.Fatalf("Summarize failed: %v", err)
	}
	if status != core.StatusCompleted {
		t.Fatalf("AI unavailability should degrade to fallback, not fail; got %s", status)
	}

	summaries, _ := s.GetSummaries(context.Background(), article.ID)
	for level, summary := range summaries {
		if !summary.Fallback {
			t.Errorf("level %s should be a fallback", level)
		}
		if summary.Text == "" {
			t.Errorf("level %s fallback text is empty", level)
		}
	}
}

func TestSummarizeSlowBackendDegrades(t *testing.T) {
	s := newTestStore(t)
	article := seedArticle(t, s, "A Title", "The backend is slow today. The pipeline still resolves every level. Deadlines hold.")

	orch := New(&slowGenerator{}, s, testBudgets())

	start := time.Now()
	status, err := orch.Summarize(context.Background(), article)
	if err != nil {
		t.Fatalf("Summarize failed: %v", err)
	}
	if status != core.StatusCompleted {
		t.Fatalf("expected completed via fallback, got %s", status)
	}
	// Combined budget + per-level budgets with one retry each, plus slack.
	if elapsed := time.Since(start); elapsed > 2*time.Second {
		t.Errorf("summarization exceeded its budgets: %v", elapsed)
	}

	summaries, _ := s.GetSummaries(context.Background(), article.ID)
	if len(summaries) != 3 {
		t.Fatalf("expected 3 fallback summaries, got %d", len(summaries))
	}
}

func TestSummarizeEmptyBodyUsesTitle(t *testing.T) {
	s := newTestStore(t)
	article := seedArticle(t, s, "Title Is All We Have", "")

	// The generator works fine; it must still never be consulted for a
	// body-less article.
	gen := &scriptedGenerator{responses: []string{combinedResponse}}
	orch := New(gen, s, testBudgets())

	status, err := orch.Summarize(context.Background(), article)
	if err != nil {
		t.Fatalf("Summarize failed: %v", err)
	}
	if status != core.StatusCompleted {
		t.Fatalf("title-only article should complete via fallback, got %s", status)
	}
	if gen.calls != 0 {
		t.Errorf("empty body should skip AI generation, got %d calls", gen.calls)
	}

	summaries, _ := s.GetSummaries(context.Background(), article.ID)
	if len(summaries) != 3 {
		t.Fatalf("expected 3 summaries, got %d", len(summaries))
	}
	for level, summary := range summaries {
		if !summary.Fallback {
			t.Errorf("level %s must be flagged fallback for an empty body", level)
		}
		if summary.Text == "" {
			t.Errorf("level %s fallback from title should not be empty", level)
		}
	}
}

func TestSummarizeUnusableArticleFails(t *testing.T) {
	s := newTestStore(t)
	article := seedArticle(t, s, "", "")

	orch := New(&scriptedGenerator{}, s, testBudgets())

	status, err := orch.Summarize(context.Background(), article)
	if err != nil {
		t.Fatalf("Summarize failed: %v", err)
	}
	if status != core.StatusFailed {
		t.Fatalf("article with no text at all should fail, got %s", status)
	}
}

func TestSummarizeSkipsClaimedArticle(t *testing.T) {
	s := newTestStore(t)
	article := seedArticle(t, s, "A Title", "Some body text.")

	// Another worker already claimed it.
	claimed, err := s.ClaimArticleForSummarization(context.Background(), article.ID)
	if err != nil || !claimed {
		t.Fatalf("setup claim failed: claimed=%v err=%v", claimed, err)
	}

	gen := &scriptedGenerator{responses: []string{combinedResponse}}
	status, err := New(gen, s, testBudgets()).Summarize(context.Background(), article)
	if err != nil {
		t.Fatalf("Summarize failed: %v", err)
	}
	if status != core.StatusSummarizing {
		t.Fatalf("already-claimed article should be skipped, got %s", status)
	}
	if gen.calls != 0 {
		t.Errorf("no generation should happen for a claimed article, got %d calls", gen.calls)
	}
}

func TestParseCombinedResponse(t *testing.T) {
	sections := ParseCombinedResponse(combinedResponse)
	if len(sections) != 3 {
		t.Fatalf("expected 3 sections, got %d", len(sections))
	}
	if sections[core.LevelMicro] != "A short one-line summary." {
		t.Errorf("micro section mismatch: %q", sections[core.LevelMicro])
	}

	partial := ParseCombinedResponse("STANDARD:\nOnly the middle section.")
	if len(partial) != 1 {
		t.Errorf("expected 1 section, got %d", len(partial))
	}

	if got := ParseCombinedResponse("no markers at all"); len(got) != 0 {
		t.Errorf("markerless response should parse to nothing, got %v", got)
	}
}

func TestFallbackSummaryTruncates(t *testing.T) {
	body := "One two three four five six. Seven eight nine ten eleven twelve. " +
		"Thirteen fourteen fifteen sixteen seventeen eighteen. Nineteen twenty twentyone twentytwo twentythree twentyfour. " +
		"More words beyond the micro target keep coming here in this sentence."

	micro := FallbackSummary("Title", body, core.LevelMicro)
	if micro == "" {
		t.Fatal("micro fallback should not be empty")
	}
	if n := len(strings.Fields(micro)); n > 30 {
		t.Errorf("micro fallback too long: %d words", n)
	}

	detailed := FallbackSummary("Title", body, core.LevelDetailed)
	if len(detailed) < len(micro) {
		t.Error("detailed fallback should not be shorter than micro")
	}

	if got := FallbackSummary("", "", core.LevelMicro); got != "" {
		t.Errorf("no text at all should yield empty fallback, got %q", got)
	}
}
