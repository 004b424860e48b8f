// Package llm provides the AI generation capability used by the
// summarization orchestrator. Backends are selected once at startup;
// callers only ever see the Generator interface.
package llm

import (
	"context"
	"fmt"
	"os"

	"google.golang.org/genai"
)

// Generator is the minimal generation capability the pipeline depends
// on. Implementations are expected to have unpredictable latency and
// availability; callers bound every call with a context deadline.
type Generator interface {
	// Generate produces text for a prompt, bounded by ctx.
	Generate(ctx context.Context, prompt string, maxTokens int32) (string, error)

	// Model names the backing model, recorded on summaries.
	Model() string
}

// Options configures generator construction.
type Options struct {
	Provider    string // "gemini" or "static"
	Model       string
	APIKey      string
	Temperature float32
}

// NewGenerator is the startup-time factory selecting the backend by
// provider name.
func NewGenerator(opts Options) (Generator, error) {
	switch opts.Provider {
	case "", "gemini":
		return newGeminiGenerator(opts)
	case "static":
		return NewStaticGenerator(""), nil
	default:
		return nil, fmt.Errorf("unknown AI provider %q", opts.Provider)
	}
}

// geminiGenerator generates text through the Gemini API.
type geminiGenerator struct {
	client      *genai.Client
	model       string
	temperature float32
}

func newGeminiGenerator(opts Options) (*geminiGenerator, error) {
	apiKey := opts.APIKey
	if apiKey == "" {
		apiKey = os.Getenv("GEMINI_API_KEY")
	}
	if apiKey == "" {
		return nil, fmt.Errorf("gemini API key is required; set GEMINI_API_KEY or ai.api_key")
	}

	model := opts.Model
	if model == "" {
		model = "gemini-flash-lite-latest"
	}

	client, err := genai.NewClient(context.Background(), &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	return &geminiGenerator{
		client:      client,
		model:       model,
		temperature: opts.Temperature,
	}, nil
}

func (g *geminiGenerator) Generate(ctx context.Context, prompt string, maxTokens int32) (string, error) {
	contents := []*genai.Content{{
		Parts: []*genai.Part{{Text: prompt}},
		Role:  "user",
	}}

	cfg := &genai.GenerateContentConfig{
		Temperature: genai.Ptr(g.temperature),
	}
	if maxTokens > 0 {
		cfg.MaxOutputTokens = maxTokens
	}

	resp, err := g.client.Models.GenerateContent(ctx, g.model, contents, cfg)
	if err != nil {
		return "", fmt.Errorf("failed to generate content: %w", err)
	}

	text := resp.Text()
	if text == "" {
		return "", fmt.Errorf("empty response from model")
	}
	return text, nil
}

func (g *geminiGenerator) Model() string {
	return g.model
}
