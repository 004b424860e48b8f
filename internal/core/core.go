package core

import "time"

// ArticleStatus tracks an article's progress through the summarization pipeline.
type ArticleStatus string

const (
	StatusPending     ArticleStatus = "pending"     // Deduplicated, awaiting summarization
	StatusSummarizing ArticleStatus = "summarizing" // Claimed by a summarization job
	StatusCompleted   ArticleStatus = "completed"   // All summary levels present (AI or fallback)
	StatusPartial     ArticleStatus = "partial"     // Some but not all summary levels present
	StatusFailed      ArticleStatus = "failed"      // Body unusable; excluded from digest candidates
)

// SummaryLevel identifies one of the three summary granularities.
type SummaryLevel string

const (
	LevelMicro    SummaryLevel = "micro"    // One-line gist
	LevelStandard SummaryLevel = "standard" // Paragraph summary
	LevelDetailed SummaryLevel = "detailed" // Full analysis
)

// Levels returns every summary level in fallback priority order
// (broadest utility first).
func Levels() []SummaryLevel {
	return []SummaryLevel{LevelMicro, LevelStandard, LevelDetailed}
}

// FeedbackType classifies a user feedback event.
type FeedbackType string

const (
	FeedbackThumbsUp   FeedbackType = "thumbs_up"
	FeedbackThumbsDown FeedbackType = "thumbs_down"
	FeedbackClick      FeedbackType = "click"
	FeedbackReadTime   FeedbackType = "read_time"
)

// Source represents a content source to ingest from.
type Source struct {
	ID           string    `json:"id"`            // Unique identifier for the source
	URL          string    `json:"url"`           // Feed or listing URL
	Category     string    `json:"category"`      // Category the source belongs to (e.g., "ai", "infra")
	Active       bool      `json:"active"`        // Whether the source is polled
	ErrorCount   int       `json:"error_count"`   // Consecutive failed runs
	LastError    string    `json:"last_error"`    // Last fetch error encountered
	LastFetched  time.Time `json:"last_fetched"`  // Last successful fetch time
	LastModified string    `json:"last_modified"` // Last-Modified header from the source
	ETag         string    `json:"etag"`          // ETag header from the source
	DateAdded    time.Time `json:"date_added"`    // When the source was registered
}

// RawItem is an item as fetched from a source, prior to deduplication.
// RawItems are transient and never persisted.
type RawItem struct {
	URL         string    `json:"url"`          // Item URL as reported by the source
	Title       string    `json:"title"`        // Item title
	Body        string    `json:"body"`         // Item body text (HTML stripped)
	PublishedAt time.Time `json:"published_at"` // Publication time reported by the source
}

// Article is the canonical, deduplicated content record.
// content_hash and url are unique across all non-purged articles.
type Article struct {
	ID           string        `json:"id"`            // Unique identifier for the article
	URL          string        `json:"url"`           // Normalized canonical URL
	ContentHash  string        `json:"content_hash"`  // Fingerprint of normalized title+body
	Title        string        `json:"title"`         // Article title
	Body         string        `json:"body"`          // Cleaned article body
	PublishedAt  time.Time     `json:"published_at"`  // Publication time
	Tags         []string      `json:"tags"`          // Topic tags (first tag is primary)
	QualityScore float64       `json:"quality_score"` // Precomputed quality score in [0,100]
	Status       ArticleStatus `json:"status"`        // Pipeline status
	SourceID     string        `json:"source_id"`     // Source the article was first seen on
	DateIngested time.Time     `json:"date_ingested"` // When the article was created
}

// PrimaryTag returns the tag used for diversity capping during digest
// assembly, or an empty string when the article is untagged.
func (a Article) PrimaryTag() string {
	if len(a.Tags) == 0 {
		return ""
	}
	return a.Tags[0]
}

// SummaryResult is one generated summary for one (article, level) pair.
// Created and overwritten only by the summarization orchestrator.
type SummaryResult struct {
	ArticleID   string       `json:"article_id"`   // Article this summary belongs to
	Level       SummaryLevel `json:"level"`        // Summary granularity
	Text        string       `json:"text"`         // Summary text
	Fallback    bool         `json:"fallback"`     // True when produced by extractive fallback, not AI
	ModelUsed   string       `json:"model_used"`   // Model that generated the text (empty for fallback)
	GeneratedAt time.Time    `json:"generated_at"` // When the summary was generated
}

// UserPreferenceProfile holds a user's learned tag weights.
// Created lazily on first feedback; weights stay within [0,1].
type UserPreferenceProfile struct {
	UserID     string             `json:"user_id"`
	TagWeights map[string]float64 `json:"tag_weights"`
	UpdatedAt  time.Time          `json:"updated_at"`
}

// FeedbackEvent is one user interaction, appended to an immutable log.
// The log is the source of truth for batch profile recomputes.
type FeedbackEvent struct {
	ID        string       `json:"id"`                  // Unique identifier for the event
	UserID    string       `json:"user_id"`             // User who gave the feedback
	ArticleID string       `json:"article_id"`          // Article the feedback is about
	DigestID  string       `json:"digest_id,omitempty"` // Digest the article appeared in, if any
	Type      FeedbackType `json:"type"`                // Kind of interaction
	Seconds   float64      `json:"seconds,omitempty"`   // Read duration for read_time events
	CreatedAt time.Time    `json:"created_at"`          // When the event occurred
}

// ScoreBreakdown itemizes the components of a composite relevance score.
// All components are in [0,100] before weighting.
type ScoreBreakdown struct {
	PreferenceMatch float64 `json:"preference_match"`
	Engagement      float64 `json:"engagement"`
	Recency         float64 `json:"recency"`
	Quality         float64 `json:"quality"`
}

// ScoredArticle pairs an article with its per-user relevance score.
// Transient: never persisted beyond a single digest assembly.
type ScoredArticle struct {
	ArticleID string         `json:"article_id"`
	UserID    string         `json:"user_id"`
	Score     float64        `json:"score"` // Composite score in [0,100]
	Breakdown ScoreBreakdown `json:"breakdown"`
}

// DigestRun is one ranked digest produced for one user.
// Immutable after creation; consumed by the notification dispatcher.
type DigestRun struct {
	ID          string    `json:"id"`
	UserID      string    `json:"user_id"`
	GeneratedAt time.Time `json:"generated_at"`
	ArticleIDs  []string  `json:"article_ids"` // Selected articles in rank order
}

// IngestReport summarizes the outcome of one ingestion run for one source.
type IngestReport struct {
	SourceID  string `json:"source_id"`
	Fetched   int    `json:"fetched"`   // Raw items returned by the source
	New       int    `json:"new"`       // Articles created
	Duplicate int    `json:"duplicate"` // Items matching an existing article
	Errors    int    `json:"errors"`    // Items that failed to process
}
