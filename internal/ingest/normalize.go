package ingest

import (
	"crypto/sha256"
	"encoding/hex"
	"net/url"
	"strings"
)

// trackingParams are query parameters stripped during URL
// normalization; they vary per campaign without changing the content.
var trackingParams = map[string]bool{
	"utm_source":   true,
	"utm_medium":   true,
	"utm_campaign": true,
	"utm_term":     true,
	"utm_content":  true,
	"ref":          true,
	"fbclid":       true,
	"gclid":        true,
}

// NormalizeURL produces the canonical key under which an article's URL
// is deduplicated: lowercased scheme/host, no fragment, no tracking
// parameters, no trailing slash.
func NormalizeURL(rawURL string) (string, error) {
	u, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil {
		return "", err
	}

	u.Scheme = strings.ToLower(u.Scheme)
	u.Host = strings.ToLower(u.Host)
	u.Fragment = ""

	q := u.Query()
	for param := range q {
		if trackingParams[strings.ToLower(param)] {
			q.Del(param)
		}
	}
	u.RawQuery = q.Encode()

	u.Path = strings.TrimSuffix(u.Path, "/")

	return u.String(), nil
}

// Fingerprint computes the content hash over normalized title+body.
// Two syndicated copies of the same article hash identically even when
// published under different URLs.
func Fingerprint(title, body string) string {
	normalized := normalizeText(title) + "\n" + normalizeText(body)
	sum := sha256.Sum256([]byte(normalized))
	return hex.EncodeToString(sum[:])
}

func normalizeText(s string) string {
	return strings.ToLower(strings.Join(strings.Fields(s), " "))
}

// QualityScore estimates content quality in [0,100] from cheap shape
// heuristics: body length, title shape, and sentence structure.
func QualityScore(title, body string) float64 {
	score := 50.0

	switch {
	case len(body) == 0:
		score -= 35
	case len(body) < 200:
		score -= 20
	case len(body) > 1500:
		score += 20
	case len(body) > 600:
		score += 10
	}

	if len(title) > 10 && len(title) < 120 {
		score += 10
	}
	if title != "" && strings.ToUpper(title) == title && len(title) > 10 {
		score -= 15 // All-caps titles read as spam
	}

	if strings.Count(body, ". ") >= 3 {
		score += 10
	}

	if score < 0 {
		return 0
	}
	if score > 100 {
		return 100
	}
	return score
}
