// Package store provides SQLite persistence for the content pipeline.
// The schema enforces the deduplication invariant (unique content_hash
// and url on articles) so concurrent writers cannot create duplicates.
package store

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// Store wraps the SQLite database.
type Store struct {
	db   *sql.DB
	path string
}

// New opens (or creates) the database under dataDir and runs migrations.
func New(dataDir string) (*Store, error) {
	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	dbPath := filepath.Join(dataDir, "curator.db")
	return open(dbPath)
}

// NewInMemory opens an in-memory database, used by tests. Each call
// gets its own database; the shared-cache DSN keeps every pooled
// connection on the same one.
func NewInMemory() (*Store, error) {
	name := fmt.Sprintf("file:mem%d?mode=memory&cache=shared", memSeq.Add(1))
	return open(name)
}

var memSeq atomic.Int64

func open(dbPath string) (*Store, error) {
	sep := "?"
	if strings.Contains(dbPath, "?") {
		sep = "&"
	}
	db, err := sql.Open("sqlite3", dbPath+sep+"_busy_timeout=5000&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	s := &Store{db: db, path: dbPath}
	if err := s.initialize(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	return s, nil
}

// initialize creates the necessary tables and indexes.
func (s *Store) initialize() error {
	sourcesTable := `
	CREATE TABLE IF NOT EXISTS sources (
		id TEXT PRIMARY KEY,
		url TEXT NOT NULL UNIQUE,
		category TEXT,
		active INTEGER NOT NULL DEFAULT 1,
		error_count INTEGER NOT NULL DEFAULT 0,
		last_error TEXT NOT NULL DEFAULT '',
		last_fetched DATETIME,
		last_modified TEXT NOT NULL DEFAULT '',
		etag TEXT NOT NULL DEFAULT '',
		date_added DATETIME NOT NULL
	);`

	articlesTable := `
	CREATE TABLE IF NOT EXISTS articles (
		id TEXT PRIMARY KEY,
		url TEXT NOT NULL,
		content_hash TEXT NOT NULL,
		title TEXT NOT NULL DEFAULT '',
		body TEXT NOT NULL DEFAULT '',
		published_at DATETIME,
		tags TEXT NOT NULL DEFAULT '',
		quality_score REAL NOT NULL DEFAULT 0,
		status TEXT NOT NULL DEFAULT 'pending',
		source_id TEXT,
		date_ingested DATETIME NOT NULL
	);
	CREATE UNIQUE INDEX IF NOT EXISTS idx_articles_content_hash ON articles (content_hash);
	CREATE UNIQUE INDEX IF NOT EXISTS idx_articles_url ON articles (url);
	CREATE INDEX IF NOT EXISTS idx_articles_status ON articles (status);`

	summariesTable := `
	CREATE TABLE IF NOT EXISTS summaries (
		article_id TEXT NOT NULL,
		level TEXT NOT NULL,
		text TEXT NOT NULL,
		fallback INTEGER NOT NULL DEFAULT 0,
		model_used TEXT NOT NULL DEFAULT '',
		generated_at DATETIME NOT NULL,
		PRIMARY KEY (article_id, level)
	);`

	profilesTable := `
	CREATE TABLE IF NOT EXISTS profiles (
		user_id TEXT PRIMARY KEY,
		updated_at DATETIME NOT NULL
	);
	CREATE TABLE IF NOT EXISTS profile_weights (
		user_id TEXT NOT NULL,
		tag TEXT NOT NULL,
		weight REAL NOT NULL,
		PRIMARY KEY (user_id, tag)
	);`

	feedbackTable := `
	CREATE TABLE IF NOT EXISTS feedback_events (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL,
		article_id TEXT NOT NULL,
		digest_id TEXT NOT NULL DEFAULT '',
		type TEXT NOT NULL,
		seconds REAL NOT NULL DEFAULT 0,
		created_at DATETIME NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_feedback_user_created ON feedback_events (user_id, created_at);`

	digestsTable := `
	CREATE TABLE IF NOT EXISTS digest_runs (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL,
		generated_at DATETIME NOT NULL,
		article_ids TEXT NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_digest_runs_user ON digest_runs (user_id, generated_at);`

	tables := []string{sourcesTable, articlesTable, summariesTable, profilesTable, feedbackTable, digestsTable}
	for _, table := range tables {
		if _, err := s.db.Exec(table); err != nil {
			return fmt.Errorf("failed to create table: %w", err)
		}
	}

	return nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Stats represents pipeline storage statistics.
type Stats struct {
	SourceCount   int
	ArticleCount  int
	SummaryCount  int
	ProfileCount  int
	FeedbackCount int
	DigestCount   int
	DatabaseSize  int64
	LastUpdated   time.Time
}

// GetStats returns row counts and database size.
func (s *Store) GetStats() (*Stats, error) {
	stats := &Stats{}

	counts := map[string]*int{
		"SELECT COUNT(*) FROM sources":         &stats.SourceCount,
		"SELECT COUNT(*) FROM articles":        &stats.ArticleCount,
		"SELECT COUNT(*) FROM summaries":       &stats.SummaryCount,
		"SELECT COUNT(*) FROM profiles":        &stats.ProfileCount,
		"SELECT COUNT(*) FROM feedback_events": &stats.FeedbackCount,
		"SELECT COUNT(*) FROM digest_runs":     &stats.DigestCount,
	}

	for query, target := range counts {
		if err := s.db.QueryRow(query).Scan(target); err != nil {
			return nil, fmt.Errorf("failed to get count: %w", err)
		}
	}

	if fileInfo, err := os.Stat(s.path); err == nil {
		stats.DatabaseSize = fileInfo.Size()
		stats.LastUpdated = fileInfo.ModTime()
	}

	return stats, nil
}
