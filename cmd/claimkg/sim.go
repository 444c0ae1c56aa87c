package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"claimkg/internal/similarity"
)

var simK int

var simCmd = &cobra.Command{
	Use:   "sim [relation-a] [relation-b]",
	Short: "Score relation similarity with embeddings",
	Long: `Embeds relation names and reports cosine similarity. Vectors are
cached in the local database keyed by embedding engine, so repeated
scoring of the same relations skips the model.

Examples:
  claimkg sim capital capitalCity
  claimkg sim topk birthPlace placeOfBirth deathPlace nationality --k 2`,
	Args: cobra.ExactArgs(2),
	RunE: runSim,
}

var simTopKCmd = &cobra.Command{
	Use:   "topk [query] [candidates...]",
	Short: "Rank candidate relations against a query relation",
	Args:  cobra.MinimumNArgs(2),
	RunE:  runSimTopK,
}

func init() {
	simTopKCmd.Flags().IntVar(&simK, "k", 5, "Number of candidates to keep")
	simCmd.AddCommand(simTopKCmd)
}

func newScorer() (*similarity.Scorer, func() error, error) {
	engine, err := similarity.NewEngine(cfg.Embedding)
	if err != nil {
		return nil, nil, err
	}
	db, err := openCache()
	if err != nil {
		return nil, nil, err
	}
	return similarity.NewScorer(engine, db, logger), db.Close, nil
}

func runSim(cmd *cobra.Command, args []string) error {
	ctx, cancel := signalContext()
	defer cancel()

	scorer, closeCache, err := newScorer()
	if err != nil {
		return err
	}
	defer closeCache()

	score, err := scorer.Sim(ctx, args[0], args[1])
	if err != nil {
		return err
	}
	fmt.Printf("%.4f\n", score)
	return nil
}

func runSimTopK(cmd *cobra.Command, args []string) error {
	ctx, cancel := signalContext()
	defer cancel()

	scorer, closeCache, err := newScorer()
	if err != nil {
		return err
	}
	defer closeCache()

	ranked, err := scorer.TopK(ctx, args[0], args[1:], simK)
	if err != nil {
		return err
	}
	for _, r := range ranked {
		fmt.Printf("%.4f  %s\n", r.Score, r.Candidate)
	}
	return nil
}
