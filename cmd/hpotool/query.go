package main

import (
	"fmt"
	"strings"

	"github.com/bastiangx/hposerve/pkg/ontology"
	"github.com/bastiangx/hposerve/pkg/suggest"
	"github.com/spf13/cobra"
)

var (
	relatedK    int
	lookupLimit int
	searchLimit int
)

func init() {
	searchCmd.Flags().IntVarP(&searchLimit, "limit", "n", 0, "Print at most n matches (0 for all)")
	relatedCmd.Flags().IntVarP(&relatedK, "top", "k", 0, "Number of related terms (default from config)")
	lookupCmd.Flags().IntVarP(&lookupLimit, "limit", "n", 20, "Print at most n terms")
	rootCmd.AddCommand(searchCmd, relatedCmd, lookupCmd)
}

var searchCmd = &cobra.Command{
	Use:   "search <query>",
	Short: "Search terms by label, definition or synonym",
	Long: `Search terms by case-insensitive substring. Labels are tried first, then
definitions, then synonyms. Queries shorter than two characters match nothing.

Examples:
  hpotool search seizure
  hpotool search "short stature" --human`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		loaded, err := loadEngine(cmd.Context())
		if err != nil {
			return err
		}
		matches := loaded.Engine.Search(strings.Join(args, " "))
		if searchLimit > 0 && searchLimit < len(matches) {
			matches = matches[:searchLimit]
		}
		return printMatches(cmd, matches)
	},
}

var lookupCmd = &cobra.Command{
	Use:   "lookup <id-prefix>",
	Short: "List terms whose id starts with a prefix",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		loaded, err := loadEngine(cmd.Context())
		if err != nil {
			return err
		}
		return printMatches(cmd, loaded.Engine.Lookup(args[0], lookupLimit))
	},
}

var relatedCmd = &cobra.Command{
	Use:   "related <id>...",
	Short: "Rank terms related to the given term ids",
	Long: `Rank the neighbors of the given terms by similarity. A term reached from
several seeds keeps its best score; the seeds themselves are never listed.

Examples:
  hpotool related HP:0001250 HP:0001263 -k 5`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		loaded, err := loadEngine(cmd.Context())
		if err != nil {
			return err
		}
		if err := requireTerms(loaded.Engine, args); err != nil {
			return err
		}
		candidates := loaded.Engine.Related(args, relatedK)
		if !humanOutput {
			return outputJSON(cmd.OutOrStdout(), candidates)
		}
		for i, c := range candidates {
			fmt.Fprintf(cmd.OutOrStdout(), "%2d. %-12s %-50s %.3f\n", i+1, c.ID, c.Label, c.Score)
		}
		return nil
	},
}

func printMatches(cmd *cobra.Command, matches []ontology.Match) error {
	if !humanOutput {
		return outputJSON(cmd.OutOrStdout(), matches)
	}
	for i, m := range matches {
		fmt.Fprintf(cmd.OutOrStdout(), "%2d. %-12s %s\n", i+1, m.ID, m.Label)
	}
	return nil
}

// requireTerms fails with errUnknownTerm listing every id not in the dataset.
func requireTerms(searcher suggest.ISearcher, ids []string) error {
	var missing []string
	for _, id := range ids {
		if _, ok := searcher.Term(id); !ok {
			missing = append(missing, id)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: %s", errUnknownTerm, strings.Join(missing, ", "))
	}
	return nil
}
