// Package llm holds the Gemini clients of the verification pipeline: the
// claim verifier, the pseudo-graph consistency checker, and the triplet
// relabeller. Each role keeps its own client so API keys (and quota) stay
// separate, mirroring how batch runs are provisioned.
package llm

import (
	"context"
	"fmt"
	"strings"

	"claimkg/internal/config"

	"google.golang.org/genai"
)

// generator is the single model call each client makes. Tests stub it;
// production uses geminiGenerator.
type generator interface {
	generate(ctx context.Context, prompt string, maxTokens int) (string, error)
}

type geminiGenerator struct {
	client      *genai.Client
	model       string
	temperature float32
	system      string
}

func newGeminiGenerator(apiKey, model, system string, temperature float64) (*geminiGenerator, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("llm: API key is required")
	}
	if model == "" {
		model = "gemini-2.0-flash"
	}

	ctx := context.Background()
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey: apiKey,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create genai client: %w", err)
	}

	return &geminiGenerator{
		client:      client,
		model:       model,
		temperature: float32(temperature),
		system:      system,
	}, nil
}

func (g *geminiGenerator) generate(ctx context.Context, prompt string, maxTokens int) (string, error) {
	cfg := &genai.GenerateContentConfig{
		Temperature:     genai.Ptr(g.temperature),
		MaxOutputTokens: int32(maxTokens),
	}
	if g.system != "" {
		cfg.SystemInstruction = genai.NewContentFromText(g.system, genai.RoleUser)
	}

	resp, err := g.client.Models.GenerateContent(ctx, g.model, genai.Text(prompt), cfg)
	if err != nil {
		return "", fmt.Errorf("generate failed: %w", err)
	}

	text := resp.Text()
	if strings.TrimSpace(text) == "" {
		return "", fmt.Errorf("no response from the LLM model")
	}
	return strings.TrimSpace(text), nil
}

// roleKey picks the per-role key with fallback to the shared key.
func roleKey(roleKey string, cfg config.LLMConfig) string {
	if roleKey != "" {
		return roleKey
	}
	return cfg.APIKey
}
