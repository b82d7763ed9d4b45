package main

import (
	"fmt"
	"os"
	"time"

	"github.com/bastiangx/hposerve/internal/utils"
	"github.com/bastiangx/hposerve/pkg/selection"
	"github.com/spf13/cobra"
)

var exportOutput string

func init() {
	exportCmd.Flags().StringVarP(&exportOutput, "output", "o", "", `Output file, "auto" for hpo_selection_<date>.csv (default stdout)`)
	rootCmd.AddCommand(exportCmd)
}

var exportCmd = &cobra.Command{
	Use:   "export <id>...",
	Short: "Write term ids and names as CSV",
	Long: `Write the given terms, in the given order, as the same CSV the picker
downloads: a "HPO ID","Term Name" header and one row per term. Repeated ids
are written once.

Examples:
  hpotool export HP:0001250 HP:0001263
  hpotool export HP:0001250 -o auto`,
	Args: cobra.MinimumNArgs(1),
	RunE: runExport,
}

func runExport(cmd *cobra.Command, args []string) error {
	loaded, err := loadEngine(cmd.Context())
	if err != nil {
		return err
	}
	if err := requireTerms(loaded.Engine, args); err != nil {
		return err
	}

	sel := selection.New()
	for _, id := range args {
		term, _ := loaded.Engine.Term(id)
		sel.Select(term.ID, term.Label)
	}

	path := exportOutput
	switch path {
	case "":
		return sel.ExportCSV(cmd.OutOrStdout())
	case "auto":
		path = selection.FileName(time.Now())
	}
	if err := utils.WriteFileAtomic(path, func(f *os.File) error { return sel.ExportCSV(f) }); err != nil {
		return err
	}
	fmt.Fprintf(cmd.ErrOrStderr(), "Exported %d terms to %s\n", sel.Len(), path)
	return nil
}
