package main

import (
	"fmt"
	"io"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"blaise/internal/diag"
	"blaise/internal/diagfmt"
	"blaise/internal/source"
)

// printDiagnostics writes bag in format. Pretty and short go to stderr,
// json to stdout.
func printDiagnostics(cmd *cobra.Command, format string, bag *diag.Bag, fs *source.FileSet, baseDir string, withNotes bool) error {
	maxDiagnostics, err := cmd.Root().PersistentFlags().GetInt("max-diagnostics")
	if err != nil {
		return fmt.Errorf("failed to get max-diagnostics flag: %w", err)
	}
	bag.Sort()
	bag.Dedup()
	var errOut io.Writer = os.Stderr
	switch format {
	case "pretty", "":
		diagfmt.Pretty(errOut, bag, fs, diagfmt.PrettyOpts{
			Color:     !color.NoColor,
			PathMode:  diagfmt.PathModeRelative,
			BaseDir:   baseDir,
			ShowNotes: true,
			Max:       maxDiagnostics,
		})
	case "short":
		diagfmt.Short(errOut, bag, fs, withNotes)
	case "json":
		return diagfmt.JSON(cmd.OutOrStdout(), bag, fs, diagfmt.JSONOpts{
			IncludePositions: true,
			PathMode:         diagfmt.PathModeRelative,
			BaseDir:          baseDir,
			Max:              maxDiagnostics,
			IncludeNotes:     withNotes,
		})
	default:
		return fmt.Errorf("unknown format %q (expected pretty|short|json)", format)
	}
	return nil
}
