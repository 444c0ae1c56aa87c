package main

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"claimkg/internal/dataset"
	"claimkg/internal/llm"
)

var (
	verifySplit   string
	verifyWrite   bool
	verifyNoStore bool
)

var verifyCmd = &cobra.Command{
	Use:   "verify [claim]",
	Short: "Verify a claim against its pseudo-subgraph",
	Long: `Looks the claim up in a processed split and asks the verifier model
whether its triplet graph supports it. The verdict is one of Supported,
Refuted or NotEnoughInfo, and is logged to the local database.

Example:
  claimkg verify "Huế was the capital." --split factkg_test_with_triplets.json`,
	Args: cobra.ExactArgs(1),
	RunE: runVerify,
}

var checkCmd = &cobra.Command{
	Use:   "check [claim]",
	Short: "Check a claim's triplets against its evidence structure",
	Long: `Asks the checker model whether the generated triplets are consistent
with the sample's evidence paths. Answers CORRECT, INCORRECT or
DATA_PROBLEM; the claim itself is not judged.`,
	Args: cobra.ExactArgs(1),
	RunE: runCheck,
}

var relabelCmd = &cobra.Command{
	Use:   "relabel [claim]",
	Short: "Regenerate a claim's triplets with the relabelling model",
	Long: `Asks the relabelling model for a fresh triplet representation of the
claim, for samples whose mechanical triplets failed checking. Pass
--write to store the result back into the split file.`,
	Args: cobra.ExactArgs(1),
	RunE: runRelabel,
}

func init() {
	for _, c := range []*cobra.Command{verifyCmd, checkCmd, relabelCmd} {
		c.Flags().StringVar(&verifySplit, "split", "", "Processed split JSON (required)")
		c.MarkFlagRequired("split")
	}
	verifyCmd.Flags().BoolVar(&verifyNoStore, "no-store", false, "Do not log the verdict to the local database")
	relabelCmd.Flags().BoolVar(&verifyWrite, "write", false, "Write the regenerated triplets back to the split file")
}

// loadSample pulls one claim's sample out of a processed split.
func loadSample(claim string) (dataset.Split, *dataset.Sample, error) {
	split, err := dataset.LoadSplit(verifySplit)
	if err != nil {
		return nil, nil, err
	}
	sample, ok := split[claim]
	if !ok {
		return nil, nil, fmt.Errorf("claim not found in split: %q", claim)
	}
	return split, sample, nil
}

// tripletGraph renders triplets one per line in the tagged form.
func tripletGraph(triplets []dataset.Triplet) string {
	lines := make([]string, len(triplets))
	for i, t := range triplets {
		lines[i] = t.String()
	}
	return strings.Join(lines, "\n")
}

func llmContext() (context.Context, context.CancelFunc) {
	ctx, cancel := signalContext()
	tctx, tcancel := context.WithTimeout(ctx, cfg.LLMTimeout())
	return tctx, func() {
		tcancel()
		cancel()
	}
}

func runVerify(cmd *cobra.Command, args []string) error {
	claim := args[0]
	_, sample, err := loadSample(claim)
	if err != nil {
		return err
	}
	if len(sample.Triplets) == 0 {
		return fmt.Errorf("claim has no triplets; run 'claimkg dataset process' first")
	}

	verifier, err := llm.NewVerifier(cfg.LLM, logger)
	if err != nil {
		return err
	}

	ctx, cancel := llmContext()
	defer cancel()

	verdict, err := verifier.Verify(ctx, claim, tripletGraph(sample.Triplets))
	if err != nil {
		return err
	}

	if !verifyNoStore {
		db, err := openCache()
		if err != nil {
			return err
		}
		defer db.Close()
		if _, err := db.RecordVerdict(claim, string(verdict.Label), verdict.Explanation, cfg.LLM.Model); err != nil {
			logger.Warn("Failed to log verdict", zap.Error(err))
		}
	}

	fmt.Printf("%s\n%s\n", verdict.Label, verdict.Explanation)
	return nil
}

func runCheck(cmd *cobra.Command, args []string) error {
	claim := args[0]
	_, sample, err := loadSample(claim)
	if err != nil {
		return err
	}
	if len(sample.Triplets) == 0 {
		return fmt.Errorf("claim has no triplets; run 'claimkg dataset process' first")
	}

	claimData, err := json.Marshal(sample)
	if err != nil {
		return err
	}

	checker, err := llm.NewGraphChecker(cfg.LLM, logger)
	if err != nil {
		return err
	}

	ctx, cancel := llmContext()
	defer cancel()

	result, err := checker.Check(ctx, string(claimData), tripletGraph(sample.Triplets))
	if err != nil {
		return err
	}
	fmt.Println(result)
	return nil
}

func runRelabel(cmd *cobra.Command, args []string) error {
	claim := args[0]
	split, sample, err := loadSample(claim)
	if err != nil {
		return err
	}

	claimData, err := json.Marshal(sample)
	if err != nil {
		return err
	}
	evidence, err := json.Marshal(sample.Evidence)
	if err != nil {
		return err
	}

	relabeller, err := llm.NewRelabeller(cfg.LLM, logger)
	if err != nil {
		return err
	}

	ctx, cancel := llmContext()
	defer cancel()

	triplets, err := relabeller.Relabel(ctx, string(claimData), sample.EntitySet, string(evidence))
	if err != nil {
		return err
	}

	for _, t := range triplets {
		fmt.Println(t.String())
	}

	if verifyWrite {
		sample.Triplets = triplets
		if err := dataset.WriteSplit(verifySplit, split); err != nil {
			return err
		}
		logger.Info("Split updated", zap.String("path", verifySplit), zap.String("claim", claim))
	}
	return nil
}
