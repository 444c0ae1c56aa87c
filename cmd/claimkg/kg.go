package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"claimkg/internal/cache"
	"claimkg/internal/kg"
	"claimkg/internal/plot"
)

var (
	kgTrieOut string
	kgDotOut  string
	kgNoCache bool
)

var kgCmd = &cobra.Command{
	Use:   "kg",
	Short: "Neo4j knowledge graph access",
	Long: `Queries the DBpedia knowledge graph over Bolt. Connection settings come
from the config file or the KG_URI, KG_USERNAME, KG_PASSWORD and KG_NAME
environment variables.`,
}

var kgCountCmd = &cobra.Command{
	Use:   "count",
	Short: "Count entity nodes in the graph",
	RunE:  runKGCount,
}

var kgEntityCmd = &cobra.Command{
	Use:   "entity [name-or-element-id]",
	Short: "Fetch an entity's direct neighborhood",
	Long: `Looks an entity up by name or element id and prints its direct
neighbors and relations as JSON. Results are cached locally; pass
--no-cache to force a fresh fetch.`,
	Args: cobra.ExactArgs(1),
	RunE: runKGEntity,
}

var kgQueryCmd = &cobra.Command{
	Use:   "query [cypher]",
	Short: "Run a read-only Cypher query",
	Args:  cobra.ExactArgs(1),
	RunE:  runKGQuery,
}

var kgBuildTrieCmd = &cobra.Command{
	Use:   "build-trie",
	Short: "Index every entity name into a trie file",
	RunE:  runKGBuildTrie,
}

func init() {
	kgEntityCmd.Flags().StringVar(&kgDotOut, "dot", "", "Also write the neighborhood as Graphviz DOT to this file")
	kgEntityCmd.Flags().BoolVar(&kgNoCache, "no-cache", false, "Bypass the local entity cache")

	kgBuildTrieCmd.Flags().StringVar(&kgTrieOut, "out", "", "Output trie file (required)")
	kgBuildTrieCmd.MarkFlagRequired("out")

	kgCmd.AddCommand(kgCountCmd)
	kgCmd.AddCommand(kgEntityCmd)
	kgCmd.AddCommand(kgQueryCmd)
	kgCmd.AddCommand(kgBuildTrieCmd)
}

func runKGCount(cmd *cobra.Command, args []string) error {
	ctx, cancel := signalContext()
	defer cancel()

	conn, err := connectKG()
	if err != nil {
		return err
	}
	defer conn.Close(ctx)

	n, err := conn.CountNodes(ctx)
	if err != nil {
		return err
	}
	fmt.Printf("%d entity nodes\n", n)
	return nil
}

func runKGEntity(cmd *cobra.Command, args []string) error {
	ctx, cancel := signalContext()
	defer cancel()

	input := args[0]

	db, err := openCache()
	if err != nil {
		return err
	}
	defer db.Close()

	var conns *kg.EntityConnections
	if !kgNoCache {
		var cached kg.EntityConnections
		switch err := db.GetEntity(input, &cached); {
		case err == nil:
			logger.Debug("Entity cache hit", zap.String("input", input))
			conns = &cached
		case errors.Is(err, cache.ErrMiss):
		default:
			return err
		}
	}

	if conns == nil {
		conn, err := connectKG()
		if err != nil {
			return err
		}
		defer conn.Close(ctx)

		conns, err = conn.EntityConnections(ctx, input)
		if err != nil {
			return err
		}
		if err := db.PutEntity(input, conns); err != nil {
			logger.Warn("Failed to cache entity", zap.String("input", input), zap.Error(err))
		}
	}

	if kgDotOut != "" {
		f, err := os.Create(kgDotOut)
		if err != nil {
			return err
		}
		defer f.Close()
		if err := plot.WriteDOT(f, conns); err != nil {
			return err
		}
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(conns)
}

func runKGQuery(cmd *cobra.Command, args []string) error {
	ctx, cancel := signalContext()
	defer cancel()

	conn, err := connectKG()
	if err != nil {
		return err
	}
	defer conn.Close(ctx)

	rows, err := conn.Run(ctx, args[0], nil)
	if err != nil {
		return err
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(rows)
}

func runKGBuildTrie(cmd *cobra.Command, args []string) error {
	ctx, cancel := signalContext()
	defer cancel()

	conn, err := connectKG()
	if err != nil {
		return err
	}
	defer conn.Close(ctx)

	t, err := conn.BuildTrie(ctx, kgTrieOut)
	if err != nil {
		return err
	}
	fmt.Printf("Indexed %d entity names into %s\n", t.Len(), kgTrieOut)
	return nil
}
