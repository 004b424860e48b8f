package relevance

import (
	"testing"
	"time"

	"curator/internal/core"
)

func testScorer() *Scorer {
	return NewScorer(DefaultWeights(), DefaultRecencyParams(), 30*24*time.Hour)
}

func testProfile(weights map[string]float64) *core.UserPreferenceProfile {
	return &core.UserPreferenceProfile{
		UserID:     "u1",
		TagWeights: weights,
		UpdatedAt:  time.Now().UTC(),
	}
}

func article(id string, tags []string, published time.Time) core.Article {
	return core.Article{
		ID:           id,
		Title:        "An Article About Things",
		Body:         "The body discusses several things at length.",
		Tags:         tags,
		PublishedAt:  published,
		QualityScore: 60,
	}
}

func TestScoreDeterministic(t *testing.T) {
	scorer := testScorer()
	now := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	profile := testProfile(map[string]float64{"go": 0.8, "rust": 0.3})
	a := article("a1", []string{"go"}, now.Add(-6*time.Hour))
	history := []Interaction{
		{Tags: []string{"go"}, Type: core.FeedbackThumbsUp, At: now.Add(-24 * time.Hour)},
		{Tags: []string{"rust"}, Type: core.FeedbackThumbsDown, At: now.Add(-48 * time.Hour)},
	}

	first := scorer.Score(profile, a, history, now)
	for i := 0; i < 5; i++ {
		if got := scorer.Score(profile, a, history, now); got != first {
			t.Fatalf("score not deterministic: %+v vs %+v", got, first)
		}
	}

	if first.Score < 0 || first.Score > 100 {
		t.Errorf("score %v out of [0,100]", first.Score)
	}
}

func TestScoreNilProfileNeutral(t *testing.T) {
	scorer := testScorer()
	now := time.Now().UTC()
	a := article("a1", []string{"go"}, now.Add(-time.Hour))

	got := scorer.Score(nil, a, nil, now)
	if got.Breakdown.PreferenceMatch != neutralPreference {
		t.Errorf("nil profile should score neutral preference, got %v", got.Breakdown.PreferenceMatch)
	}
	if got.Breakdown.Engagement != 50 {
		t.Errorf("no history should score neutral engagement, got %v", got.Breakdown.Engagement)
	}
	if got.Score <= 0 {
		t.Error("new users should still get a usable positive score")
	}
}

func TestPreferenceMatchTierOrdering(t *testing.T) {
	scorer := testScorer()
	profile := testProfile(map[string]float64{"kubernetes": 0.9})

	exact := article("a1", []string{"kubernetes"}, time.Time{})
	related := article("a2", []string{"kubernetes-security"}, time.Time{})
	mention := article("a3", []string{"cloud"}, time.Time{})
	mention.Title = "Why kubernetes won the orchestration war"
	partial := article("a4", []string{"cloud"}, time.Time{})
	partial.Title = "Inside hyperkubernetes clusters"
	none := article("a5", []string{"cooking"}, time.Time{})
	none.Title = "Sourdough basics"
	none.Body = "Flour, water, salt."

	scores := []float64{
		scorer.preferenceMatch(profile, exact),
		scorer.preferenceMatch(profile, related),
		scorer.preferenceMatch(profile, mention),
		scorer.preferenceMatch(profile, partial),
		scorer.preferenceMatch(profile, none),
	}

	for i := 1; i < len(scores); i++ {
		if scores[i] >= scores[i-1] {
			t.Errorf("tier %d (%v) should score below tier %d (%v)", i, scores[i], i-1, scores[i-1])
		}
	}
	if scores[len(scores)-1] != 0 {
		t.Errorf("no match should score 0, got %v", scores[len(scores)-1])
	}
}

func TestRecencyMonotonic(t *testing.T) {
	scorer := testScorer()
	now := time.Now().UTC()

	ages := []time.Duration{
		0,
		6 * time.Hour,
		23 * time.Hour,
		25 * time.Hour,
		72 * time.Hour,
		7 * 24 * time.Hour,
		60 * 24 * time.Hour,
	}

	prev := 101.0
	for _, age := range ages {
		score := scorer.recencyScore(now.Add(-age), now)
		if score > prev {
			t.Errorf("recency must never increase with age: age=%v score=%v prev=%v", age, score, prev)
		}
		prev = score
	}

	// Inside the freshness window the score is full.
	if got := scorer.recencyScore(now.Add(-2*time.Hour), now); got != 100 {
		t.Errorf("fresh article should score 100, got %v", got)
	}

	// Very old articles bottom out at the floor, not zero.
	floor := DefaultRecencyParams().Floor * 100
	if got := scorer.recencyScore(now.Add(-365*24*time.Hour), now); got != floor {
		t.Errorf("ancient article should score the floor %v, got %v", floor, got)
	}

	// Unknown publication time is treated as old.
	if got := scorer.recencyScore(time.Time{}, now); got != floor {
		t.Errorf("zero publish time should score the floor, got %v", got)
	}
}

func TestEngagementReflectsHistory(t *testing.T) {
	scorer := testScorer()
	now := time.Now().UTC()
	a := article("a1", []string{"go"}, now)

	liked := []Interaction{
		{Tags: []string{"go"}, Type: core.FeedbackThumbsUp, At: now.Add(-24 * time.Hour)},
		{Tags: []string{"go"}, Type: core.FeedbackThumbsUp, At: now.Add(-48 * time.Hour)},
	}
	disliked := []Interaction{
		{Tags: []string{"go"}, Type: core.FeedbackThumbsDown, At: now.Add(-24 * time.Hour)},
	}
	unrelated := []Interaction{
		{Tags: []string{"cooking"}, Type: core.FeedbackThumbsUp, At: now.Add(-24 * time.Hour)},
	}

	up := scorer.engagement(a, liked, now)
	down := scorer.engagement(a, disliked, now)
	neutral := scorer.engagement(a, unrelated, now)

	if up <= neutral {
		t.Errorf("positive history should score above neutral: %v vs %v", up, neutral)
	}
	if down >= neutral {
		t.Errorf("negative history should score below neutral: %v vs %v", down, neutral)
	}
	if neutral != 50 {
		t.Errorf("history with no shared tags should be neutral 50, got %v", neutral)
	}
}

func TestWeightsNormalized(t *testing.T) {
	w := ComponentWeights{PreferenceMatch: 3, Engagement: 1, Recency: 0, Quality: 0}.normalized()
	if w.PreferenceMatch != 0.75 || w.Engagement != 0.25 {
		t.Errorf("normalization wrong: %+v", w)
	}

	// Degenerate config falls back to defaults rather than dividing by zero.
	zero := ComponentWeights{}.normalized()
	total := zero.PreferenceMatch + zero.Engagement + zero.Recency + zero.Quality
	if total < 0.999 || total > 1.001 {
		t.Errorf("fallback weights should sum to 1, got %v", total)
	}
}
