// Package main provides hpotool, the maintenance and query CLI for HPO datasets.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/bastiangx/hposerve/internal/app"
	"github.com/bastiangx/hposerve/internal/logger"
	"github.com/bastiangx/hposerve/pkg/config"
	"github.com/spf13/cobra"
)

// Version is set at build time via ldflags
var Version = "dev"

var (
	configPath  string
	dataSource  string
	debugMode   bool
	humanOutput bool
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		os.Exit(exitCodeFor(err))
	}
}

var rootCmd = &cobra.Command{
	Use:   "hpotool",
	Short: "Prepare and query HPO term datasets",
	Long: `hpotool prepares HPO datasets for hposerve and queries them offline.

  preprocess   turn an ontology graph export into the compact term list
  version      print the cleaned hpo_version of a processed dataset
  search       search terms by label, definition or synonym
  lookup       list terms whose id starts with a prefix
  related      rank terms related to a set of term ids
  export       write a set of term ids as CSV
  config       show the config file in use or reset it

Query commands print JSON unless --human is given.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		logger.Setup(debugMode)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to a config file")
	rootCmd.PersistentFlags().StringVar(&dataSource, "data", "", "Dataset file or URL (default from config)")
	rootCmd.PersistentFlags().BoolVarP(&debugMode, "debug", "d", false, "Enable debug logging")
	rootCmd.PersistentFlags().BoolVar(&humanOutput, "human", false, "Use human-readable output instead of JSON")
	rootCmd.Version = Version
}

// loadEngine loads the configured dataset for the query commands.
func loadEngine(ctx context.Context) (*app.Loaded, error) {
	cfg, _, err := config.LoadConfigWithPriority(configPath)
	if err != nil {
		return nil, err
	}
	return app.Load(ctx, cfg, dataSource)
}

// outputJSON writes a value as formatted JSON.
func outputJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	return enc.Encode(v)
}
