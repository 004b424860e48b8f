// Package feeds implements the source fetcher collaborator on top of
// RSS/Atom feeds.
package feeds

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"curator/internal/core"

	"github.com/PuerkitoBio/goquery"
	"github.com/mmcdole/gofeed"
)

// Fetcher fetches raw items from RSS/Atom sources with conditional
// requests so unchanged feeds cost a single 304 round trip.
type Fetcher struct {
	client    *http.Client
	parser    *gofeed.Parser
	userAgent string
	maxItems  int
}

// Options configures the fetcher.
type Options struct {
	Timeout   time.Duration
	UserAgent string
	MaxItems  int // Cap on items taken from one feed per run
}

// NewFetcher creates a feed fetcher.
func NewFetcher(opts Options) *Fetcher {
	if opts.Timeout == 0 {
		opts.Timeout = 30 * time.Second
	}
	if opts.MaxItems == 0 {
		opts.MaxItems = 100
	}
	return &Fetcher{
		client:    &http.Client{Timeout: opts.Timeout},
		parser:    gofeed.NewParser(),
		userAgent: opts.UserAgent,
		maxItems:  opts.MaxItems,
	}
}

// Result carries one fetch outcome plus the cache headers to persist.
type Result struct {
	Items        []core.RawItem
	NotModified  bool
	LastModified string
	ETag         string
}

// Fetch pulls the source's feed and converts entries to RawItems.
// Network and parse failures are returned to the caller; isolation
// across sources is the ingestor's job.
func (f *Fetcher) Fetch(ctx context.Context, source core.Source) (*Result, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, source.URL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	if source.LastModified != "" {
		req.Header.Set("If-Modified-Since", source.LastModified)
	}
	if source.ETag != "" {
		req.Header.Set("If-None-Match", source.ETag)
	}
	if f.userAgent != "" {
		req.Header.Set("User-Agent", f.userAgent)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch feed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode == http.StatusNotModified {
		return &Result{NotModified: true}, nil
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("feed returned status %d", resp.StatusCode)
	}

	feed, err := f.parser.Parse(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to parse feed: %w", err)
	}

	result := &Result{
		LastModified: resp.Header.Get("Last-Modified"),
		ETag:         resp.Header.Get("ETag"),
	}

	for i, item := range feed.Items {
		if i >= f.maxItems {
			break
		}
		result.Items = append(result.Items, toRawItem(item))
	}

	return result, nil
}

// toRawItem converts a feed entry, preferring full content over the
// description and stripping any embedded HTML.
func toRawItem(item *gofeed.Item) core.RawItem {
	body := item.Content
	if body == "" {
		body = item.Description
	}

	var published time.Time
	if item.PublishedParsed != nil {
		published = item.PublishedParsed.UTC()
	} else if item.UpdatedParsed != nil {
		published = item.UpdatedParsed.UTC()
	}

	return core.RawItem{
		URL:         item.Link,
		Title:       strings.TrimSpace(item.Title),
		Body:        StripHTML(body),
		PublishedAt: published,
	}
}

// StripHTML reduces feed HTML to plain text. Non-HTML input passes
// through with whitespace collapsed.
func StripHTML(content string) string {
	if !strings.Contains(content, "<") {
		return collapseWhitespace(content)
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(content))
	if err != nil {
		return collapseWhitespace(content)
	}

	doc.Find("script, style, iframe, noscript").Remove()
	return collapseWhitespace(doc.Text())
}

func collapseWhitespace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
