package summarize

import (
	"fmt"
	"strings"

	"curator/internal/core"
)

// Word targets per summary level. These shape the prompts and the
// extractive fallback alike.
var levelWordTargets = map[core.SummaryLevel]int{
	core.LevelMicro:    25,
	core.LevelStandard: 120,
	core.LevelDetailed: 300,
}

const maxPromptContentChars = 8000

// BuildCombinedPrompt asks for all three summary levels in one call,
// with section markers the parser can split on.
func BuildCombinedPrompt(title, body string) string {
	var prompt strings.Builder

	prompt.WriteString("Summarize this article at three levels of detail. ")
	prompt.WriteString("Write only the summaries, no meta-commentary.\n\n")
	prompt.WriteString("Respond in exactly this structure:\n")
	prompt.WriteString(fmt.Sprintf("MICRO:\n<one sentence, at most %d words>\n\n", levelWordTargets[core.LevelMicro]))
	prompt.WriteString(fmt.Sprintf("STANDARD:\n<one paragraph, about %d words>\n\n", levelWordTargets[core.LevelStandard]))
	prompt.WriteString(fmt.Sprintf("DETAILED:\n<comprehensive analysis, about %d words>\n\n", levelWordTargets[core.LevelDetailed]))

	if title != "" {
		prompt.WriteString(fmt.Sprintf("Title: %s\n\n", title))
	}
	prompt.WriteString(fmt.Sprintf("Content:\n%s\n", truncateContent(body, maxPromptContentChars)))

	return prompt.String()
}

// BuildLevelPrompt asks for a single summary level.
func BuildLevelPrompt(level core.SummaryLevel, title, body string) string {
	var prompt strings.Builder

	switch level {
	case core.LevelMicro:
		prompt.WriteString(fmt.Sprintf("Summarize this article in one sentence of at most %d words. ", levelWordTargets[level]))
	case core.LevelStandard:
		prompt.WriteString(fmt.Sprintf("Summarize this article in one paragraph of about %d words. ", levelWordTargets[level]))
	case core.LevelDetailed:
		prompt.WriteString(fmt.Sprintf("Write a comprehensive summary of this article in about %d words, covering its key facts and implications. ", levelWordTargets[level]))
	}
	prompt.WriteString("Write only the summary.\n\n")

	if title != "" {
		prompt.WriteString(fmt.Sprintf("Title: %s\n\n", title))
	}
	prompt.WriteString(fmt.Sprintf("Content:\n%s\n", truncateContent(body, maxPromptContentChars)))

	return prompt.String()
}

var sectionMarkers = map[core.SummaryLevel]string{
	core.LevelMicro:    "MICRO:",
	core.LevelStandard: "STANDARD:",
	core.LevelDetailed: "DETAILED:",
}

// ParseCombinedResponse splits a combined-call response into per-level
// texts. A level missing its section, or with an empty section, is
// simply absent from the result; the caller decides whether that is
// acceptable.
func ParseCombinedResponse(response string) map[core.SummaryLevel]string {
	sections := make(map[core.SummaryLevel]string)

	for _, level := range core.Levels() {
		marker := sectionMarkers[level]
		start := strings.Index(response, marker)
		if start == -1 {
			continue
		}
		text := response[start+len(marker):]

		// Cut at the next section marker, whichever comes first.
		end := len(text)
		for _, other := range sectionMarkers {
			if other == marker {
				continue
			}
			if idx := strings.Index(text, other); idx != -1 && idx < end {
				end = idx
			}
		}

		if cleaned := strings.TrimSpace(text[:end]); cleaned != "" {
			sections[level] = cleaned
		}
	}

	return sections
}

func truncateContent(content string, maxChars int) string {
	if len(content) <= maxChars {
		return content
	}
	return content[:maxChars] + "..."
}
