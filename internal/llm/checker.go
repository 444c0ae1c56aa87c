package llm

import (
	"context"
	"fmt"
	"strings"

	"claimkg/internal/config"

	"go.uber.org/zap"
)

// CheckResult classifies generated triplets against their evidence.
type CheckResult string

const (
	CheckCorrect     CheckResult = "CORRECT"
	CheckIncorrect   CheckResult = "INCORRECT"
	CheckDataProblem CheckResult = "DATA_PROBLEM"
)

const checkerSystem = "You are a pseudo-graph checker. Evaluate whether the generated triplets " +
	"match the Evidence structure. Output only one token from [CORRECT, INCORRECT, DATA_PROBLEM]."

// GraphChecker verifies that generated pseudo-subgraph triplets are
// consistent with a sample's evidence structure. It judges the triplets,
// never the claim itself.
type GraphChecker struct {
	gen       generator
	maxTokens int
	logger    *zap.Logger
}

// NewGraphChecker builds a checker from config.
func NewGraphChecker(cfg config.LLMConfig, logger *zap.Logger) (*GraphChecker, error) {
	gen, err := newGeminiGenerator(roleKey(cfg.CheckerKey, cfg), cfg.Model, checkerSystem, cfg.Temperature)
	if err != nil {
		return nil, err
	}
	return newGraphChecker(gen, logger), nil
}

func newGraphChecker(gen generator, logger *zap.Logger) *GraphChecker {
	if logger == nil {
		logger = zap.NewNop()
	}
	// A one-token answer; 32 tokens is headroom, not budget.
	return &GraphChecker{gen: gen, maxTokens: 32, logger: logger}
}

// Check submits claim data (the sample JSON) and the triplets in tagged
// ERE form, returning the consistency verdict.
func (c *GraphChecker) Check(ctx context.Context, claimData, graph string) (CheckResult, error) {
	prompt := fmt.Sprintf(`Given the following JSON claim data:
%s

And the following triplets in the format:
<e>HEAD</e> || RELATION || <e>TAIL</e>
%s

Rules:
1. 'Entity_set' lists entities explicitly mentioned in the claim.
2. 'Evidence' maps each entity to one or more relation paths.
- A relation 'r' means HEAD --r--> TAIL.
- '~r' means TAIL --r--> HEAD.
3. Multi-hop paths must be broken into correct hop-by-hop triplets.
4. Hidden or implicit entities must be represented as unknown_i.
5. Triplets must match the structure implied by Evidence.
6. Only answer the correctness of the triplets, not the claim.

Your task:
Determine whether the triplets are consistent with the given Evidence.
Answer strictly with one of:
- CORRECT: triplets match Evidence structure
- INCORRECT: triplets disagree with Evidence
- DATA_PROBLEM: claim_data itself is malformed or contradictory`, claimData, graph)

	text, err := c.gen.generate(ctx, prompt, c.maxTokens)
	if err != nil {
		return "", err
	}

	result, err := parseCheckResult(text)
	if err != nil {
		return "", err
	}

	c.logger.Debug("Pseudo-graph checked", zap.String("result", string(result)))
	return result, nil
}

func parseCheckResult(text string) (CheckResult, error) {
	upper := strings.ToUpper(text)
	switch {
	// DATA_PROBLEM and INCORRECT before CORRECT: "INCORRECT" contains it.
	case strings.Contains(upper, string(CheckDataProblem)):
		return CheckDataProblem, nil
	case strings.Contains(upper, string(CheckIncorrect)):
		return CheckIncorrect, nil
	case strings.Contains(upper, string(CheckCorrect)):
		return CheckCorrect, nil
	default:
		return "", fmt.Errorf("no check token in response: %q", text)
	}
}
