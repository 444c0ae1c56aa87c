package llm

import (
	"context"
	"fmt"
	"strings"

	"claimkg/internal/config"

	"go.uber.org/zap"
)

// Label is a claim verification verdict.
type Label string

const (
	Supported     Label = "Supported"
	Refuted       Label = "Refuted"
	NotEnoughInfo Label = "NotEnoughInfo"
)

// Verdict is the verifier's answer for one claim.
type Verdict struct {
	Label       Label  `json:"label"`
	Explanation string `json:"explanation"`
}

const verifierSystem = "You are a fact checker. You are going to receive a claim, and evidence " +
	"as a graph in text format of triples. You need to determine whether the claim is supported " +
	"by the evidence, refuted by the evidence, or there is not enough information in the evidence " +
	"to determine whether the claim is true or false. If a relationship has prefix of ~, it means " +
	"the negation of that relationship. You should answer with one of [Supported, Refuted, " +
	"NotEnoughInfo] and give a short explanation in one sentence."

// Verifier decides whether a claim is supported by a triplet graph.
type Verifier struct {
	gen       generator
	maxTokens int
	logger    *zap.Logger
}

// NewVerifier builds a verifier from config.
func NewVerifier(cfg config.LLMConfig, logger *zap.Logger) (*Verifier, error) {
	gen, err := newGeminiGenerator(roleKey(cfg.VerifierKey, cfg), cfg.Model, verifierSystem, cfg.Temperature)
	if err != nil {
		return nil, err
	}
	return newVerifier(gen, cfg.MaxOutputTokens, logger), nil
}

func newVerifier(gen generator, maxTokens int, logger *zap.Logger) *Verifier {
	if maxTokens <= 0 {
		maxTokens = 256
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Verifier{gen: gen, maxTokens: maxTokens, logger: logger}
}

// Verify submits a claim with its evidence graph and parses the verdict.
func (v *Verifier) Verify(ctx context.Context, claim, graph string) (*Verdict, error) {
	prompt := fmt.Sprintf(`Claim: %s

Evidence:
%s

Question: Is the claim supported by the evidence?
Please answer with one of [Supported, Refuted, NotEnoughInfo]
and give a short explanation in one sentence.`, claim, strings.TrimSpace(graph))

	text, err := v.gen.generate(ctx, prompt, v.maxTokens)
	if err != nil {
		return nil, err
	}

	verdict, err := parseVerdict(text)
	if err != nil {
		return nil, err
	}

	v.logger.Debug("Claim verified",
		zap.String("claim", claim),
		zap.String("label", string(verdict.Label)),
	)
	return verdict, nil
}

// parseVerdict pulls the verdict token out of the response. The model is
// asked for one token plus a sentence; prose around the token is fine, an
// absent or unknown token is not.
func parseVerdict(text string) (*Verdict, error) {
	lower := strings.ToLower(text)

	// NotEnoughInfo first: "not enough info" must not lose to a stray
	// "supported" later in the explanation.
	idx := len(text)
	label := Label("")
	for _, candidate := range []struct {
		token string
		label Label
	}{
		{"notenoughinfo", NotEnoughInfo},
		{"not enough info", NotEnoughInfo},
		{"supported", Supported},
		{"refuted", Refuted},
	} {
		if i := strings.Index(lower, candidate.token); i >= 0 && i < idx {
			idx = i
			label = candidate.label
		}
	}
	if label == "" {
		return nil, fmt.Errorf("no verdict token in response: %q", text)
	}

	return &Verdict{Label: label, Explanation: text}, nil
}
