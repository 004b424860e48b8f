package store

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"curator/internal/core"

	"github.com/google/uuid"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := NewInMemory()
	if err != nil {
		t.Fatalf("NewInMemory failed: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func testArticle(url, hash string) core.Article {
	return core.Article{
		ID:           uuid.NewString(),
		URL:          url,
		ContentHash:  hash,
		Title:        "Test Article",
		Body:         "Some body text for the article.",
		PublishedAt:  time.Now().UTC().Add(-time.Hour),
		Tags:         []string{"go", "testing"},
		QualityScore: 70,
		Status:       core.StatusPending,
		SourceID:     "src-1",
		DateIngested: time.Now().UTC(),
	}
}

func TestNew(t *testing.T) {
	tmpDir := t.TempDir()

	s, err := New(tmpDir)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	defer func() { _ = s.Close() }()

	dbPath := filepath.Join(tmpDir, "curator.db")
	if _, err := os.Stat(dbPath); os.IsNotExist(err) {
		t.Error("database file should be created")
	}
}

func TestInsertArticleIfAbsent(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	article := testArticle("https://example.com/a", "hash-a")
	inserted, err := s.InsertArticleIfAbsent(ctx, article)
	if err != nil {
		t.Fatalf("InsertArticleIfAbsent failed: %v", err)
	}
	if !inserted {
		t.Fatal("first insert should report inserted=true")
	}

	// Same content hash under a different URL is a duplicate, not an error.
	dup := testArticle("https://example.com/b", "hash-a")
	inserted, err = s.InsertArticleIfAbsent(ctx, dup)
	if err != nil {
		t.Fatalf("duplicate insert returned error: %v", err)
	}
	if inserted {
		t.Error("duplicate content hash should report inserted=false")
	}

	// Same URL with a different hash is also a duplicate.
	sameURL := testArticle("https://example.com/a", "hash-c")
	inserted, err = s.InsertArticleIfAbsent(ctx, sameURL)
	if err != nil {
		t.Fatalf("same-URL insert returned error: %v", err)
	}
	if inserted {
		t.Error("duplicate URL should report inserted=false")
	}

	got, err := s.GetArticleByHash(ctx, "hash-a")
	if err != nil {
		t.Fatalf("GetArticleByHash failed: %v", err)
	}
	if got == nil || got.ID != article.ID {
		t.Error("stored article should be the first insert")
	}
	if len(got.Tags) != 2 || got.Tags[0] != "go" {
		t.Errorf("tags not round-tripped: %v", got.Tags)
	}
}

func TestGetArticleMissing(t *testing.T) {
	s := newTestStore(t)

	got, err := s.GetArticle(context.Background(), "nope")
	if err != nil {
		t.Fatalf("GetArticle failed: %v", err)
	}
	if got != nil {
		t.Error("missing article should return nil, nil")
	}
}

func TestClaimArticleForSummarization(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	article := testArticle("https://example.com/claim", "hash-claim")
	if _, err := s.InsertArticleIfAbsent(ctx, article); err != nil {
		t.Fatalf("insert failed: %v", err)
	}

	claimed, err := s.ClaimArticleForSummarization(ctx, article.ID)
	if err != nil {
		t.Fatalf("claim failed: %v", err)
	}
	if !claimed {
		t.Fatal("first claim should succeed")
	}

	claimed, err = s.ClaimArticleForSummarization(ctx, article.ID)
	if err != nil {
		t.Fatalf("second claim failed: %v", err)
	}
	if claimed {
		t.Error("second claim should fail, article no longer pending")
	}
}

func TestApplyWeightDeltaClamps(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	now := time.Now().UTC()

	// New tag starts from the 0.5 baseline.
	if err := s.ApplyWeightDelta(ctx, "u1", "go", 0.1, now); err != nil {
		t.Fatalf("ApplyWeightDelta failed: %v", err)
	}
	profile, err := s.GetProfile(ctx, "u1")
	if err != nil {
		t.Fatalf("GetProfile failed: %v", err)
	}
	if got := profile.TagWeights["go"]; got < 0.59 || got > 0.61 {
		t.Errorf("expected weight near 0.6, got %v", got)
	}

	// Repeated positive deltas clamp at 1.0.
	for i := 0; i < 10; i++ {
		if err := s.ApplyWeightDelta(ctx, "u1", "go", 0.1, now); err != nil {
			t.Fatalf("ApplyWeightDelta failed: %v", err)
		}
	}
	profile, _ = s.GetProfile(ctx, "u1")
	if got := profile.TagWeights["go"]; got != 1.0 {
		t.Errorf("expected weight clamped to 1.0, got %v", got)
	}

	// Repeated negative deltas clamp at 0.0.
	for i := 0; i < 20; i++ {
		if err := s.ApplyWeightDelta(ctx, "u1", "go", -0.1, now); err != nil {
			t.Fatalf("ApplyWeightDelta failed: %v", err)
		}
	}
	profile, _ = s.GetProfile(ctx, "u1")
	if got := profile.TagWeights["go"]; got != 0.0 {
		t.Errorf("expected weight clamped to 0.0, got %v", got)
	}
}

func TestGetProfileMissing(t *testing.T) {
	s := newTestStore(t)

	profile, err := s.GetProfile(context.Background(), "nobody")
	if err != nil {
		t.Fatalf("GetProfile failed: %v", err)
	}
	if profile != nil {
		t.Error("missing profile should return nil, nil")
	}
}

func TestHasRecentDuplicate(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	ev := core.FeedbackEvent{
		ID:        uuid.NewString(),
		UserID:    "u1",
		ArticleID: "a1",
		Type:      core.FeedbackThumbsUp,
		CreatedAt: time.Now().UTC(),
	}

	dup, err := s.HasRecentDuplicate(ctx, ev, 5*time.Minute)
	if err != nil {
		t.Fatalf("HasRecentDuplicate failed: %v", err)
	}
	if dup {
		t.Error("no events logged yet, should not be a duplicate")
	}

	if err := s.AppendFeedback(ctx, ev); err != nil {
		t.Fatalf("AppendFeedback failed: %v", err)
	}

	second := ev
	second.ID = uuid.NewString()
	second.CreatedAt = ev.CreatedAt.Add(time.Minute)
	dup, err = s.HasRecentDuplicate(ctx, second, 5*time.Minute)
	if err != nil {
		t.Fatalf("HasRecentDuplicate failed: %v", err)
	}
	if !dup {
		t.Error("identical event inside the window should be a duplicate")
	}

	// A different type is not coalesced.
	click := second
	click.Type = core.FeedbackClick
	dup, err = s.HasRecentDuplicate(ctx, click, 5*time.Minute)
	if err != nil {
		t.Fatalf("HasRecentDuplicate failed: %v", err)
	}
	if dup {
		t.Error("different event type should not count as duplicate")
	}
}

func TestDigestRunRoundTrip(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	run := core.DigestRun{
		ID:          uuid.NewString(),
		UserID:      "u1",
		GeneratedAt: time.Now().UTC(),
		ArticleIDs:  []string{"a1", "a2", "a3"},
	}
	if err := s.SaveDigestRun(ctx, run); err != nil {
		t.Fatalf("SaveDigestRun failed: %v", err)
	}

	runs, err := s.ListDigestRuns(ctx, "u1", 10)
	if err != nil {
		t.Fatalf("ListDigestRuns failed: %v", err)
	}
	if len(runs) != 1 {
		t.Fatalf("expected 1 run, got %d", len(runs))
	}
	if len(runs[0].ArticleIDs) != 3 || runs[0].ArticleIDs[1] != "a2" {
		t.Errorf("article IDs not round-tripped: %v", runs[0].ArticleIDs)
	}
}

func TestRecordSourceFailureDeactivates(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	src := core.Source{
		ID:        "src-1",
		URL:       "https://example.com/feed.xml",
		Category:  "tech",
		Active:    true,
		DateAdded: time.Now().UTC(),
	}
	if err := s.AddSource(ctx, src); err != nil {
		t.Fatalf("AddSource failed: %v", err)
	}

	var deactivated bool
	for i := 0; i < 3; i++ {
		var err error
		_, deactivated, err = s.RecordSourceFailure(ctx, src.ID, "connection refused", 3)
		if err != nil {
			t.Fatalf("RecordSourceFailure failed: %v", err)
		}
	}
	if !deactivated {
		t.Error("source should deactivate at the failure threshold")
	}

	active, err := s.ListSources(ctx, true)
	if err != nil {
		t.Fatalf("ListSources failed: %v", err)
	}
	if len(active) != 0 {
		t.Errorf("deactivated source still listed as active: %d", len(active))
	}

	// A success resets the failure count and error.
	if err := s.SetSourceActive(ctx, src.ID, true); err != nil {
		t.Fatalf("SetSourceActive failed: %v", err)
	}
	if err := s.RecordSourceSuccess(ctx, src.ID, "", "", time.Now().UTC()); err != nil {
		t.Fatalf("RecordSourceSuccess failed: %v", err)
	}
	got, err := s.GetSource(ctx, src.ID)
	if err != nil {
		t.Fatalf("GetSource failed: %v", err)
	}
	if got.ErrorCount != 0 {
		t.Errorf("success should reset error count, got %d", got.ErrorCount)
	}
}
