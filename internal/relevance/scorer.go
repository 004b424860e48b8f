// Package relevance computes per-user composite relevance scores and
// assembles diversity-aware ranked digests.
package relevance

import (
	"math"
	"strings"
	"time"

	"curator/internal/core"
)

// Interaction is one historical feedback event joined with the tags of
// the article it was about. The caller assembles the slice; passing
// history in keeps Score a pure function of its inputs.
type Interaction struct {
	Tags    []string
	Type    core.FeedbackType
	Seconds float64
	At      time.Time
}

// Scorer computes composite relevance scores. Score performs no I/O
// and is deterministic for a fixed now.
type Scorer struct {
	weights          ComponentWeights
	recency          RecencyParams
	engagementWindow time.Duration
	fullReadTime     time.Duration
}

// NewScorer creates a scorer with the given tuning.
func NewScorer(weights ComponentWeights, recency RecencyParams, engagementWindow time.Duration) *Scorer {
	if engagementWindow <= 0 {
		engagementWindow = 30 * 24 * time.Hour
	}
	return &Scorer{
		weights:          weights.normalized(),
		recency:          recency,
		engagementWindow: engagementWindow,
		fullReadTime:     3 * time.Minute,
	}
}

// Score computes the composite relevance of an article for a user.
// A nil profile falls back to a neutral preference match instead of
// erroring, so brand-new users still get ranked results.
func (s *Scorer) Score(profile *core.UserPreferenceProfile, article core.Article, history []Interaction, now time.Time) core.ScoredArticle {
	breakdown := core.ScoreBreakdown{
		PreferenceMatch: s.preferenceMatch(profile, article),
		Engagement:      s.engagement(article, history, now),
		Recency:         s.recencyScore(article.PublishedAt, now),
		Quality:         clamp(article.QualityScore, 0, 100),
	}

	score := breakdown.PreferenceMatch*s.weights.PreferenceMatch +
		breakdown.Engagement*s.weights.Engagement +
		breakdown.Recency*s.weights.Recency +
		breakdown.Quality*s.weights.Quality

	userID := ""
	if profile != nil {
		userID = profile.UserID
	}

	return core.ScoredArticle{
		ArticleID: article.ID,
		UserID:    userID,
		Score:     clamp(score, 0, 100),
		Breakdown: breakdown,
	}
}

// preferenceMatch runs the tiered lookup against the user's tag
// weights. The highest matching tier wins: exact subscribed topic,
// then related topic, then a tag mention in the title, then a partial
// text match.
func (s *Scorer) preferenceMatch(profile *core.UserPreferenceProfile, article core.Article) float64 {
	if profile == nil || len(profile.TagWeights) == 0 {
		return neutralPreference
	}

	title := strings.ToLower(article.Title)
	body := strings.ToLower(article.Body)

	best := 0.0
	for tag, weight := range profile.TagWeights {
		tier := 0.0
		switch {
		case tagInList(tag, article.Tags):
			tier = tierExactTopic
		case relatedTag(tag, article.Tags):
			tier = tierRelatedTopic
		case containsWord(title, tag):
			tier = tierTagMention
		case strings.Contains(title, tag) || strings.Contains(body, tag):
			tier = tierPartialText
		}
		if v := weight * tier * 100; v > best {
			best = v
		}
	}
	return best
}

// engagement is the exponentially-weighted historical interaction rate
// between this user and articles sharing the candidate's tags, scaled
// to [0,100]. No shared history yields the neutral midpoint.
func (s *Scorer) engagement(article core.Article, history []Interaction, now time.Time) float64 {
	if len(article.Tags) == 0 || len(history) == 0 {
		return 50
	}

	lambda := math.Ln2 / s.engagementWindow.Hours()

	var weighted, total float64
	for _, interaction := range history {
		if !sharesTag(article.Tags, interaction.Tags) {
			continue
		}
		age := now.Sub(interaction.At).Hours()
		if age < 0 {
			age = 0
		}
		decay := math.Exp(-lambda * age)
		weighted += decay * s.interactionValue(interaction)
		total += decay
	}

	if total == 0 {
		return 50
	}

	// Rate is in [-1,1]; map to [0,100].
	rate := weighted / total
	return clamp((rate+1)/2*100, 0, 100)
}

func (s *Scorer) interactionValue(interaction Interaction) float64 {
	switch interaction.Type {
	case core.FeedbackThumbsUp:
		return 1.0
	case core.FeedbackThumbsDown:
		return -1.0
	case core.FeedbackClick:
		return 0.4
	case core.FeedbackReadTime:
		frac := interaction.Seconds / s.fullReadTime.Seconds()
		if frac > 1 {
			frac = 1
		}
		return 0.6 * frac
	default:
		return 0
	}
}

// recencyScore is monotonically non-increasing in article age: full
// score inside the freshness window, exponential decay toward the
// floor afterwards. An unknown publication time scores the floor.
func (s *Scorer) recencyScore(publishedAt, now time.Time) float64 {
	floor := s.recency.Floor * 100

	if publishedAt.IsZero() {
		return floor
	}

	age := now.Sub(publishedAt)
	if age <= s.recency.FreshWindow {
		return 100
	}

	if s.recency.HalfLife <= 0 {
		return floor
	}

	excess := age - s.recency.FreshWindow
	decayed := 100 * math.Exp(-math.Ln2*excess.Hours()/s.recency.HalfLife.Hours())
	if decayed < floor {
		return floor
	}
	return decayed
}

func tagInList(tag string, tags []string) bool {
	for _, t := range tags {
		if t == tag {
			return true
		}
	}
	return false
}

// relatedTag reports whether a profile tag belongs to the same category
// family as one of the article's tags (one is a dash-separated
// refinement of the other, e.g. "ai" and "ai-infra").
func relatedTag(tag string, tags []string) bool {
	for _, t := range tags {
		if strings.HasPrefix(t, tag+"-") || strings.HasPrefix(tag, t+"-") {
			return true
		}
	}
	return false
}

func sharesTag(a, b []string) bool {
	for _, tag := range a {
		if tagInList(tag, b) {
			return true
		}
	}
	return false
}

func containsWord(text, word string) bool {
	for _, field := range strings.Fields(text) {
		if strings.Trim(field, ".,;:!?\"'()") == word {
			return true
		}
	}
	return false
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
