// Package ingest pulls raw items from sources and deduplicates them
// into canonical articles.
package ingest

import (
	"context"
	"fmt"
	"time"

	"curator/internal/core"
	"curator/internal/feeds"
	"curator/internal/logger"
	"curator/internal/metrics"
	"curator/internal/store"

	"github.com/google/uuid"
)

// SourceFetcher is the collaborator that pulls raw items for a source.
// The production implementation lives in the feeds package.
type SourceFetcher interface {
	Fetch(ctx context.Context, source core.Source) (*feeds.Result, error)
}

// Options tunes ingestion policy.
type Options struct {
	MaxFailures    int     // Consecutive failed runs before a source is deactivated
	EmptyBodyScore float64 // Quality score assigned to body-less items
}

// DefaultOptions returns sensible ingestion defaults.
func DefaultOptions() Options {
	return Options{
		MaxFailures:    5,
		EmptyBodyScore: 15.0,
	}
}

// Ingestor runs fetch and deduplication for sources.
type Ingestor struct {
	store   *store.Store
	fetcher SourceFetcher
	opts    Options
}

// New creates an ingestor.
func New(s *store.Store, fetcher SourceFetcher, opts Options) *Ingestor {
	return &Ingestor{store: s, fetcher: fetcher, opts: opts}
}

// IngestAll runs ingestion for every active source. A failing source
// never aborts the others; its failure is recorded on the source and
// reflected in its report's error count.
func (in *Ingestor) IngestAll(ctx context.Context) ([]core.IngestReport, error) {
	sources, err := in.store.ListSources(ctx, true)
	if err != nil {
		return nil, fmt.Errorf("failed to list sources: %w", err)
	}

	reports := make([]core.IngestReport, 0, len(sources))
	for _, source := range sources {
		report, err := in.Ingest(ctx, source)
		if err != nil {
			logger.Warn("source ingestion failed", "source", source.ID, "url", source.URL, "error", err.Error())
			report = core.IngestReport{SourceID: source.ID, Errors: 1}
		}
		reports = append(reports, report)
	}
	return reports, nil
}

// Ingest fetches one source and deduplicates its items into articles.
// Fetch failures count against the source; after MaxFailures
// consecutive failed runs the source is deactivated.
func (in *Ingestor) Ingest(ctx context.Context, source core.Source) (core.IngestReport, error) {
	report := core.IngestReport{SourceID: source.ID}

	result, err := in.fetcher.Fetch(ctx, source)
	if err != nil {
		metrics.FetchErrors.WithLabelValues(source.ID).Inc()
		count, deactivated, recErr := in.store.RecordSourceFailure(ctx, source.ID, err.Error(), in.opts.MaxFailures)
		if recErr != nil {
			logger.Error("failed to record source failure", recErr, "source", source.ID)
		}
		if deactivated {
			metrics.SourcesDeactivated.Inc()
			logger.Warn("source deactivated after consecutive failures", "source", source.ID, "failures", count)
		}
		return report, fmt.Errorf("fetch failed for source %s: %w", source.ID, err)
	}

	if result.NotModified {
		if err := in.store.RecordSourceSuccess(ctx, source.ID, source.LastModified, source.ETag, time.Now().UTC()); err != nil {
			logger.Error("failed to record source success", err, "source", source.ID)
		}
		return report, nil
	}

	for _, item := range result.Items {
		report.Fetched++
		outcome, err := in.ingestItem(ctx, source, item)
		if err != nil {
			logger.Warn("item ingestion failed", "source", source.ID, "url", item.URL, "error", err.Error())
			report.Errors++
			metrics.ItemsIngested.WithLabelValues("error").Inc()
			continue
		}
		switch outcome {
		case outcomeNew:
			report.New++
			metrics.ItemsIngested.WithLabelValues("new").Inc()
		case outcomeDuplicate:
			report.Duplicate++
			metrics.ItemsIngested.WithLabelValues("duplicate").Inc()
		}
	}

	if err := in.store.RecordSourceSuccess(ctx, source.ID, result.LastModified, result.ETag, time.Now().UTC()); err != nil {
		logger.Error("failed to record source success", err, "source", source.ID)
	}

	logger.Info("source ingested", "source", source.ID,
		"fetched", report.Fetched, "new", report.New, "duplicate", report.Duplicate, "errors", report.Errors)

	return report, nil
}

type itemOutcome int

const (
	outcomeNew itemOutcome = iota
	outcomeDuplicate
)

// ingestItem deduplicates a single raw item. Lookup order: URL match
// first (cheap), then fingerprint match (catches syndicated republishes
// under different URLs), then an atomic insert-if-absent keyed by the
// unique content_hash index. The losing side of a concurrent insert
// race lands on the conflict no-op and reports a duplicate.
func (in *Ingestor) ingestItem(ctx context.Context, source core.Source, item core.RawItem) (itemOutcome, error) {
	normalizedURL, err := NormalizeURL(item.URL)
	if err != nil || normalizedURL == "" {
		return 0, fmt.Errorf("invalid item URL %q: %w", item.URL, err)
	}

	if existing, err := in.store.GetArticleByURL(ctx, normalizedURL); err != nil {
		return 0, err
	} else if existing != nil {
		return outcomeDuplicate, nil
	}

	hash := Fingerprint(item.Title, item.Body)
	if existing, err := in.store.GetArticleByHash(ctx, hash); err != nil {
		return 0, err
	} else if existing != nil {
		return outcomeDuplicate, nil
	}

	quality := QualityScore(item.Title, item.Body)
	if item.Body == "" {
		// Accepted, but ranked low until a human signal says otherwise.
		quality = in.opts.EmptyBodyScore
	}

	article := core.Article{
		ID:           uuid.NewString(),
		URL:          normalizedURL,
		ContentHash:  hash,
		Title:        item.Title,
		Body:         item.Body,
		PublishedAt:  item.PublishedAt,
		Tags:         tagsForSource(source),
		QualityScore: quality,
		Status:       core.StatusPending,
		SourceID:     source.ID,
		DateIngested: time.Now().UTC(),
	}

	inserted, err := in.store.InsertArticleIfAbsent(ctx, article)
	if err != nil {
		return 0, err
	}
	if !inserted {
		return outcomeDuplicate, nil
	}
	return outcomeNew, nil
}

// tagsForSource derives an article's initial tags from its source
// category. Tags are lowercased; commas are reserved for storage.
func tagsForSource(source core.Source) []string {
	category := normalizeTag(source.Category)
	if category == "" {
		return nil
	}
	return []string{category}
}

func normalizeTag(tag string) string {
	tag = normalizeText(tag)
	// Commas are the storage separator.
	for i := 0; i < len(tag); i++ {
		if tag[i] == ',' {
			return tag[:i]
		}
	}
	return tag
}
