package llm

import (
	"context"
	"fmt"
	"strings"

	"claimkg/internal/config"
	"claimkg/internal/dataset"

	"go.uber.org/zap"
)

const relabellerSystem = "You are a tool to generate triplet representation from claim data, " +
	"entities, and evidence. Output one triplet per line as " +
	"<e>HEAD</e> || RELATION || <e>TAIL</e>. Hidden entities are unknown_i. " +
	"If there are any relations with prefix of ~, it's a reverse relation (not the negation)."

// Relabeller regenerates the tagged triplet representation for a sample
// whose mechanically derived triplets failed checking.
type Relabeller struct {
	gen       generator
	maxTokens int
	logger    *zap.Logger
}

// NewRelabeller builds a relabeller from config.
func NewRelabeller(cfg config.LLMConfig, logger *zap.Logger) (*Relabeller, error) {
	gen, err := newGeminiGenerator(roleKey(cfg.RelabellerKey, cfg), cfg.Model, relabellerSystem, cfg.Temperature)
	if err != nil {
		return nil, err
	}
	return newRelabeller(gen, cfg.MaxOutputTokens, logger), nil
}

func newRelabeller(gen generator, maxTokens int, logger *zap.Logger) *Relabeller {
	if logger == nil {
		logger = zap.NewNop()
	}
	if maxTokens <= 0 {
		maxTokens = 256
	}
	return &Relabeller{gen: gen, maxTokens: maxTokens, logger: logger}
}

// Relabel asks the model for a fresh triplet set and parses the reply
// back into structured triplets.
func (r *Relabeller) Relabel(ctx context.Context, claimData string, entities []string, evidence string) ([]dataset.Triplet, error) {
	prompt := fmt.Sprintf(`Claim data:
%s

Entities:
%s

Evidence:
%s

Generate the triplet representation. One triplet per line, in the form:
<e>HEAD</e> || RELATION || <e>TAIL</e>
Hidden entities must be written as unknown_0, unknown_1 and so on, without tags.`,
		claimData, strings.Join(entities, ", "), evidence)

	text, err := r.gen.generate(ctx, prompt, r.maxTokens)
	if err != nil {
		return nil, err
	}

	triplets, err := dataset.ParseTriplets(text)
	if err != nil {
		return nil, fmt.Errorf("relabel response: %w", err)
	}

	r.logger.Debug("Sample relabelled", zap.Int("triplets", len(triplets)))
	return triplets, nil
}
