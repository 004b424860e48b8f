package llm

import (
	"context"
	"strings"
)

// StaticGenerator returns a canned response for every prompt. It backs
// local development and tests where no AI backend is reachable.
type StaticGenerator struct {
	response string
}

// NewStaticGenerator creates a static generator. An empty response
// echoes the first line of the prompt instead.
func NewStaticGenerator(response string) *StaticGenerator {
	return &StaticGenerator{response: response}
}

func (s *StaticGenerator) Generate(ctx context.Context, prompt string, maxTokens int32) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if s.response != "" {
		return s.response, nil
	}
	line, _, _ := strings.Cut(prompt, "\n")
	return line, nil
}

func (s *StaticGenerator) Model() string {
	return "static"
}
