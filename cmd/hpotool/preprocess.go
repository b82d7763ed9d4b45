package main

import (
	"fmt"
	"io"
	"os"

	"github.com/bastiangx/hposerve/internal/utils"
	"github.com/bastiangx/hposerve/pkg/dataset"
	"github.com/spf13/cobra"
)

var preprocessOutput string

func init() {
	preprocessCmd.Flags().StringVarP(&preprocessOutput, "output", "o", "", "Write to this file instead of stdout")
	rootCmd.AddCommand(preprocessCmd)
}

var preprocessCmd = &cobra.Command{
	Use:   "preprocess <hp.json|->",
	Short: "Convert an ontology export into the compact term list",
	Long: `Convert an HPO graph export (hp.json) into the compact dataset hposerve loads.

Obsolete terms are dropped, ids are compacted to HP:nnnnnnn and the release
version is kept as hpo_version when the export carries one. Already compact
datasets pass through unchanged apart from cleanup.

Examples:
  hpotool preprocess hp.json -o hpo_data.json
  curl -sL https://purl.obolibrary.org/obo/hp.json | hpotool preprocess - > hpo_data.json`,
	Args: cobra.ExactArgs(1),
	RunE: runPreprocess,
}

func runPreprocess(cmd *cobra.Command, args []string) error {
	var in io.Reader = cmd.InOrStdin()
	if args[0] != "-" {
		f, err := os.Open(args[0])
		if err != nil {
			return fmt.Errorf("opening input: %w", err)
		}
		defer f.Close()
		in = f
	}

	var stats dataset.PreprocessStats
	write := func(w io.Writer) error {
		var err error
		stats, err = dataset.Preprocess(in, w)
		return err
	}

	if preprocessOutput == "" {
		if err := write(cmd.OutOrStdout()); err != nil {
			return err
		}
	} else {
		err := utils.WriteFileAtomic(preprocessOutput, func(f *os.File) error { return write(f) })
		if err != nil {
			return err
		}
	}

	version := stats.Version
	if version == "" {
		version = "unknown"
	}
	fmt.Fprintf(cmd.ErrOrStderr(), "%s: wrote %d of %d terms (%d obsolete, %d skipped), version %s\n",
		stats.Shape, stats.Written, stats.Total, stats.Obsolete, stats.Skipped, version)
	return nil
}
