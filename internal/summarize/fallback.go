package summarize

import (
	"strings"

	"curator/internal/core"
)

// FallbackSummary produces a deterministic non-AI summary by extractive
// truncation of the body: leading sentences up to the level's word
// target. A body-less article falls back to its title, so any article
// with usable text always gets a summary at every level.
func FallbackSummary(title, body string, level core.SummaryLevel) string {
	source := body
	if strings.TrimSpace(source) == "" {
		source = title
	}

	targetWords := levelWordTargets[level]
	sentences := strings.Split(source, ". ")

	var summary strings.Builder
	wordCount := 0

	for _, sentence := range sentences {
		sentence = strings.TrimSpace(sentence)
		if sentence == "" {
			continue
		}

		words := strings.Fields(sentence)
		if wordCount+len(words) > targetWords && wordCount > 0 {
			break
		}

		if summary.Len() > 0 {
			summary.WriteString(". ")
		}
		summary.WriteString(strings.TrimSuffix(sentence, "."))
		wordCount += len(words)

		if wordCount >= targetWords {
			break
		}
	}

	result := summary.String()
	if result == "" {
		return ""
	}
	if !strings.HasSuffix(result, ".") {
		result += "."
	}
	return result
}
