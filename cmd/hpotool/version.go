package main

import (
	"fmt"
	"os"

	"github.com/bastiangx/hposerve/pkg/dataset"
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(versionCmd)
}

var versionCmd = &cobra.Command{
	Use:   "version <hpo_data.json>",
	Short: "Print the cleaned dataset version",
	Long: `Print the hpo_version of a processed dataset, cleaned for use in tags and
file names: spaces become "_" and slashes become "-".

Only the version is written to stdout. Exit codes:
  1  file not found
  2  hpo_version missing, empty or "Unknown"
  3  invalid JSON
  4  any other error`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		payload, err := os.ReadFile(args[0])
		if err != nil {
			return fmt.Errorf("reading %s: %w", args[0], err)
		}
		version, err := dataset.ReadVersion(payload)
		if err != nil {
			return fmt.Errorf("%s: %w", args[0], err)
		}
		fmt.Fprintln(cmd.OutOrStdout(), version)
		return nil
	},
}
