package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"curator/internal/core"
)

// InsertArticleIfAbsent inserts a new article unless one with the same
// content_hash or url already exists. It returns true when the row was
// inserted. A losing concurrent writer gets (false, nil): duplicate
// content is a normal outcome, not an error.
func (s *Store) InsertArticleIfAbsent(ctx context.Context, article core.Article) (bool, error) {
	query := `
	INSERT INTO articles
	(id, url, content_hash, title, body, published_at, tags, quality_score, status, source_id, date_ingested)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	ON CONFLICT DO NOTHING`

	res, err := s.db.ExecContext(ctx, query,
		article.ID,
		article.URL,
		article.ContentHash,
		article.Title,
		article.Body,
		article.PublishedAt,
		encodeTags(article.Tags),
		article.QualityScore,
		string(article.Status),
		article.SourceID,
		article.DateIngested,
	)
	if err != nil {
		return false, fmt.Errorf("failed to insert article: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to read rows affected: %w", err)
	}
	return n > 0, nil
}

// GetArticleByURL returns the article with the given normalized URL,
// or (nil, nil) when none exists.
func (s *Store) GetArticleByURL(ctx context.Context, url string) (*core.Article, error) {
	return s.getArticle(ctx, "url = ?", url)
}

// GetArticleByHash returns the article with the given content hash,
// or (nil, nil) when none exists.
func (s *Store) GetArticleByHash(ctx context.Context, hash string) (*core.Article, error) {
	return s.getArticle(ctx, "content_hash = ?", hash)
}

// GetArticle returns the article with the given ID, or (nil, nil).
func (s *Store) GetArticle(ctx context.Context, id string) (*core.Article, error) {
	return s.getArticle(ctx, "id = ?", id)
}

func (s *Store) getArticle(ctx context.Context, where string, arg any) (*core.Article, error) {
	query := `
	SELECT id, url, content_hash, title, body, published_at, tags, quality_score, status, source_id, date_ingested
	FROM articles WHERE ` + where

	row := s.db.QueryRowContext(ctx, query, arg)
	article, err := scanArticle(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan article: %w", err)
	}
	return article, nil
}

// ListArticlesByStatus returns up to limit articles in the given status,
// oldest first.
func (s *Store) ListArticlesByStatus(ctx context.Context, status core.ArticleStatus, limit int) ([]core.Article, error) {
	query := `
	SELECT id, url, content_hash, title, body, published_at, tags, quality_score, status, source_id, date_ingested
	FROM articles WHERE status = ? ORDER BY date_ingested ASC LIMIT ?`

	rows, err := s.db.QueryContext(ctx, query, string(status), limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query articles: %w", err)
	}
	defer rows.Close()

	return collectArticles(rows)
}

// ListCandidates returns digest candidates: completed or partial
// articles published after the cutoff.
func (s *Store) ListCandidates(ctx context.Context, publishedAfter time.Time) ([]core.Article, error) {
	query := `
	SELECT id, url, content_hash, title, body, published_at, tags, quality_score, status, source_id, date_ingested
	FROM articles
	WHERE status IN ('completed', 'partial') AND published_at > ?
	ORDER BY published_at DESC`

	rows, err := s.db.QueryContext(ctx, query, publishedAfter)
	if err != nil {
		return nil, fmt.Errorf("failed to query candidates: %w", err)
	}
	defer rows.Close()

	return collectArticles(rows)
}

// UpdateArticleStatus transitions an article's pipeline status.
func (s *Store) UpdateArticleStatus(ctx context.Context, id string, status core.ArticleStatus) error {
	_, err := s.db.ExecContext(ctx, "UPDATE articles SET status = ? WHERE id = ?", string(status), id)
	if err != nil {
		return fmt.Errorf("failed to update article status: %w", err)
	}
	return nil
}

// ClaimArticleForSummarization atomically moves a pending article to
// summarizing. Returns false when another worker claimed it first.
func (s *Store) ClaimArticleForSummarization(ctx context.Context, id string) (bool, error) {
	res, err := s.db.ExecContext(ctx,
		"UPDATE articles SET status = ? WHERE id = ? AND status = ?",
		string(core.StatusSummarizing), id, string(core.StatusPending))
	if err != nil {
		return false, fmt.Errorf("failed to claim article: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// SaveSummary creates or overwrites the summary for one (article, level).
func (s *Store) SaveSummary(ctx context.Context, summary core.SummaryResult) error {
	query := `
	INSERT OR REPLACE INTO summaries (article_id, level, text, fallback, model_used, generated_at)
	VALUES (?, ?, ?, ?, ?, ?)`

	_, err := s.db.ExecContext(ctx, query,
		summary.ArticleID,
		string(summary.Level),
		summary.Text,
		summary.Fallback,
		summary.ModelUsed,
		summary.GeneratedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to save summary: %w", err)
	}
	return nil
}

// GetSummaries returns all summaries for an article keyed by level.
func (s *Store) GetSummaries(ctx context.Context, articleID string) (map[core.SummaryLevel]core.SummaryResult, error) {
	query := `
	SELECT article_id, level, text, fallback, model_used, generated_at
	FROM summaries WHERE article_id = ?`

	rows, err := s.db.QueryContext(ctx, query, articleID)
	if err != nil {
		return nil, fmt.Errorf("failed to query summaries: %w", err)
	}
	defer rows.Close()

	summaries := make(map[core.SummaryLevel]core.SummaryResult)
	for rows.Next() {
		var sr core.SummaryResult
		var level string
		if err := rows.Scan(&sr.ArticleID, &level, &sr.Text, &sr.Fallback, &sr.ModelUsed, &sr.GeneratedAt); err != nil {
			return nil, fmt.Errorf("failed to scan summary: %w", err)
		}
		sr.Level = core.SummaryLevel(level)
		summaries[sr.Level] = sr
	}
	return summaries, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanArticle(row rowScanner) (*core.Article, error) {
	var a core.Article
	var status, tags string
	var published sql.NullTime

	err := row.Scan(&a.ID, &a.URL, &a.ContentHash, &a.Title, &a.Body, &published,
		&tags, &a.QualityScore, &status, &a.SourceID, &a.DateIngested)
	if err != nil {
		return nil, err
	}

	a.Status = core.ArticleStatus(status)
	a.Tags = decodeTags(tags)
	if published.Valid {
		a.PublishedAt = published.Time
	}
	return &a, nil
}

func collectArticles(rows *sql.Rows) ([]core.Article, error) {
	var articles []core.Article
	for rows.Next() {
		a, err := scanArticle(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan article: %w", err)
		}
		articles = append(articles, *a)
	}
	return articles, rows.Err()
}

// Tags are stored as a comma-separated string; tags never contain commas
// because the ingestor lowercases and trims them from source categories.
func encodeTags(tags []string) string {
	return strings.Join(tags, ",")
}

func decodeTags(encoded string) []string {
	if encoded == "" {
		return nil
	}
	return strings.Split(encoded, ",")
}
