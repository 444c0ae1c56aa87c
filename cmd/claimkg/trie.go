package main

import (
	"bufio"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"claimkg/internal/trie"
)

var (
	trieIn    string
	trieOut   string
	triePath  string
	trieLimit int
)

var trieCmd = &cobra.Command{
	Use:   "trie",
	Short: "Compressed entity name index",
	Long: `Builds and queries the on-disk trie of KG entity names. Membership
and prefix lookups against millions of names stay in-process; the file
is a gzip-compressed sorted key list with a versioned header.`,
}

var trieBuildCmd = &cobra.Command{
	Use:   "build",
	Short: "Build a trie file from a newline-separated entity list",
	RunE:  runTrieBuild,
}

var trieLookupCmd = &cobra.Command{
	Use:   "lookup [name]",
	Short: "Test exact membership of an entity name",
	Args:  cobra.ExactArgs(1),
	RunE:  runTrieLookup,
}

var triePrefixCmd = &cobra.Command{
	Use:   "prefix [prefix]",
	Short: "List entity names beginning with a prefix",
	Args:  cobra.ExactArgs(1),
	RunE:  runTriePrefix,
}

func init() {
	trieBuildCmd.Flags().StringVar(&trieIn, "in", "", "Entity list, one name per line (required)")
	trieBuildCmd.Flags().StringVar(&trieOut, "out", "", "Output trie file (required)")
	trieBuildCmd.MarkFlagRequired("in")
	trieBuildCmd.MarkFlagRequired("out")

	trieLookupCmd.Flags().StringVar(&triePath, "trie", "", "Trie file (required)")
	trieLookupCmd.MarkFlagRequired("trie")

	triePrefixCmd.Flags().StringVar(&triePath, "trie", "", "Trie file (required)")
	triePrefixCmd.Flags().IntVar(&trieLimit, "limit", 20, "Maximum results")
	triePrefixCmd.MarkFlagRequired("trie")

	trieCmd.AddCommand(trieBuildCmd)
	trieCmd.AddCommand(trieLookupCmd)
	trieCmd.AddCommand(triePrefixCmd)
}

func runTrieBuild(cmd *cobra.Command, args []string) error {
	f, err := os.Open(trieIn)
	if err != nil {
		return err
	}
	defer f.Close()

	t := trie.New(nil)
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	for scanner.Scan() {
		if line := scanner.Text(); line != "" {
			t.Add(line)
		}
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("failed to read entity list: %w", err)
	}

	if err := t.Save(trieOut); err != nil {
		return err
	}
	logger.Info("Trie built", zap.String("path", trieOut), zap.Int("keys", t.Len()))
	fmt.Printf("Indexed %d entity names into %s\n", t.Len(), trieOut)
	return nil
}

func runTrieLookup(cmd *cobra.Command, args []string) error {
	t, err := trie.Load(triePath)
	if err != nil {
		return err
	}
	if t.Contains(args[0]) {
		fmt.Println("found")
		return nil
	}
	fmt.Println("not found")
	return nil
}

func runTriePrefix(cmd *cobra.Command, args []string) error {
	t, err := trie.Load(triePath)
	if err != nil {
		return err
	}
	matches := t.PrefixSearch(args[0], trieLimit)
	if len(matches) == 0 {
		fmt.Println("no matches")
		return nil
	}
	for _, m := range matches {
		fmt.Println(m)
	}
	return nil
}
