package main

import (
	"fmt"
	"os"
	"runtime"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"claimkg/internal/dataset"
	"claimkg/internal/plot"
)

var (
	datasetIn         string
	datasetOut        string
	datasetEntities   string
	datasetWorkers    int
	datasetUnderscore bool
	datasetPlotOut    string
	datasetExpect     int
)

var datasetCmd = &cobra.Command{
	Use:   "dataset",
	Short: "Dataset split processing",
}

var datasetProcessCmd = &cobra.Command{
	Use:   "process",
	Short: "Generate pseudo-subgraph triplets for every claim in a split",
	Long: `Reads a FactKG split, derives triplets from each sample's entity set
and evidence paths, and writes the augmented split. Hidden hop entities
become unknown_i placeholders; a ~ prefix marks a reversed relation.

Example:
  claimkg dataset process --in factkg_test.json --out factkg_test_with_triplets.json`,
	RunE: runDatasetProcess,
}

var datasetStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Print record and triplet counts for a split",
	RunE:  runDatasetStats,
}

var datasetPlotCmd = &cobra.Command{
	Use:   "plot [claim]",
	Short: "Render a claim's triplets as Graphviz DOT",
	Args:  cobra.ExactArgs(1),
	RunE:  runDatasetPlot,
}

func init() {
	datasetProcessCmd.Flags().StringVar(&datasetIn, "in", "", "Input split JSON (required)")
	datasetProcessCmd.Flags().StringVar(&datasetOut, "out", "", "Output split JSON (required)")
	datasetProcessCmd.Flags().StringVar(&datasetEntities, "entities", "", "Also write the distinct entity list to this file")
	datasetProcessCmd.Flags().IntVar(&datasetWorkers, "workers", runtime.NumCPU(), "Concurrent samples")
	datasetProcessCmd.Flags().BoolVar(&datasetUnderscore, "remove-underscore", true, "Replace underscores in entity names with spaces")
	datasetProcessCmd.MarkFlagRequired("in")
	datasetProcessCmd.MarkFlagRequired("out")

	datasetStatsCmd.Flags().StringVar(&datasetIn, "in", "", "Input split JSON (required)")
	datasetStatsCmd.Flags().IntVar(&datasetExpect, "expect", 0, "Fail unless the split has exactly this many records")
	datasetStatsCmd.MarkFlagRequired("in")

	datasetPlotCmd.Flags().StringVar(&datasetIn, "in", "", "Input split JSON (required)")
	datasetPlotCmd.Flags().StringVar(&datasetPlotOut, "out", "", "Output DOT file (default: stdout)")
	datasetPlotCmd.MarkFlagRequired("in")

	datasetCmd.AddCommand(datasetProcessCmd)
	datasetCmd.AddCommand(datasetStatsCmd)
	datasetCmd.AddCommand(datasetPlotCmd)
}

func runDatasetProcess(cmd *cobra.Command, args []string) error {
	ctx, cancel := signalContext()
	defer cancel()

	split, err := dataset.LoadSplit(datasetIn)
	if err != nil {
		return err
	}
	logger.Info("Split loaded", zap.String("path", datasetIn), zap.Int("records", len(split)))

	opts := dataset.Options{RemoveUnderscore: datasetUnderscore}
	entities, err := dataset.ProcessSplit(ctx, split, opts, datasetWorkers, logger)
	if err != nil {
		return err
	}

	if err := dataset.WriteSplit(datasetOut, split); err != nil {
		return err
	}

	if datasetEntities != "" {
		if err := writeLines(datasetEntities, entities); err != nil {
			return err
		}
	}

	stats := split.Stats()
	fmt.Printf("Processed %d records: %d triplets, %d distinct entities\n",
		stats.Records, stats.Triplets, len(entities))
	return nil
}

func runDatasetStats(cmd *cobra.Command, args []string) error {
	split, err := dataset.LoadSplit(datasetIn)
	if err != nil {
		return err
	}

	stats := split.Stats()
	fmt.Printf("Records:       %d\n", stats.Records)
	fmt.Printf("With triplets: %d\n", stats.WithTriplets)
	fmt.Printf("Triplets:      %d\n", stats.Triplets)

	if datasetExpect > 0 && stats.Records != datasetExpect {
		return fmt.Errorf("expected %d records, found %d", datasetExpect, stats.Records)
	}
	return nil
}

func runDatasetPlot(cmd *cobra.Command, args []string) error {
	split, err := dataset.LoadSplit(datasetIn)
	if err != nil {
		return err
	}

	sample, ok := split[args[0]]
	if !ok {
		return fmt.Errorf("claim not found in split: %q", args[0])
	}
	if len(sample.Triplets) == 0 {
		return fmt.Errorf("claim has no triplets; run 'claimkg dataset process' first")
	}

	out := os.Stdout
	if datasetPlotOut != "" {
		f, err := os.Create(datasetPlotOut)
		if err != nil {
			return err
		}
		defer f.Close()
		out = f
	}
	return plot.WriteTriplets(out, sample.Triplets)
}

func writeLines(path string, lines []string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	for _, line := range lines {
		if _, err := fmt.Fprintln(f, line); err != nil {
			return err
		}
	}
	return nil
}
