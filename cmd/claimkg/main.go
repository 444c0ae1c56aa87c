// Command claimkg is the pipeline CLI: dataset triplet generation, the
// entity trie, the Neo4j knowledge graph, relation similarity, and the
// Gemini verification roles.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"claimkg/internal/cache"
	"claimkg/internal/config"
	"claimkg/internal/kg"
	"claimkg/internal/logging"
)

var (
	cfgPath string
	verbose bool

	cfg    *config.Config
	logger *zap.Logger
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "claimkg",
	Short: "claimkg - KG-grounded claim verification pipeline",
	Long: `claimkg prepares FactKG-style datasets and verifies claims against a
DBpedia knowledge graph.

The pipeline: generate pseudo-subgraph triplets for each claim, index KG
entity names in a compressed trie, fetch entity neighborhoods from Neo4j,
rank candidate relations by embedding similarity, and ask a Gemini model
for the final verdict.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.Load(cfgPath)
		if err != nil {
			return err
		}

		if verbose {
			logger, err = logging.NewVerbose()
		} else {
			logger, err = logging.New(cfg.Logging)
		}
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose logging")
	rootCmd.PersistentFlags().StringVarP(&cfgPath, "config", "c", "claimkg.yaml", "Config file path (missing file falls back to defaults and environment)")

	rootCmd.AddCommand(datasetCmd)
	rootCmd.AddCommand(trieCmd)
	rootCmd.AddCommand(kgCmd)
	rootCmd.AddCommand(simCmd)
	rootCmd.AddCommand(verifyCmd)
	rootCmd.AddCommand(checkCmd)
	rootCmd.AddCommand(relabelCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// signalContext returns a context cancelled on SIGINT/SIGTERM.
func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
}

// openCache opens the configured cache database.
func openCache() (*cache.Cache, error) {
	return cache.Open(cfg.Cache.Path, cfg.EntityTTL(), logger)
}

// connectKG validates KG credentials and opens a connector.
func connectKG() (*kg.Connector, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return kg.Connect(cfg.KG, logger)
}
