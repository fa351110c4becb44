package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"blaise/internal/buildpipeline"
	"blaise/internal/diag"
)

var diagCmd = &cobra.Command{
	Use:   "diag [flags] [file.pas]",
	Short: "Report syntax and semantic issues",
	Long: `Parse and bind a program or unit and everything it uses, printing every
diagnostic. Nothing is written to the unit cache.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runDiagnose,
}

func init() {
	diagCmd.Flags().String("format", "pretty", "output format (pretty|short|json)")
	diagCmd.Flags().Bool("no-warnings", false, "ignore warnings in diagnostics")
	diagCmd.Flags().Bool("warnings-as-errors", false, "treat warnings as errors")
	diagCmd.Flags().Bool("with-notes", false, "include diagnostic notes in short and json output")
	diagCmd.Flags().Int("jobs", 0, "parallel units per wave (0 = auto)")
}

func runDiagnose(cmd *cobra.Command, args []string) error {
	stopProfiling, err := setupProfiling(cmd)
	if err != nil {
		return err
	}
	defer stopProfiling()
	cleanup, err := setupTracing(cmd)
	if err != nil {
		return err
	}
	defer cleanup()

	settings, err := resolveProject(args)
	if err != nil {
		return err
	}
	if err := settings.applyFlags(cmd); err != nil {
		return err
	}
	format, err := cmd.Flags().GetString("format")
	if err != nil {
		return fmt.Errorf("failed to get format flag: %w", err)
	}
	noWarnings, err := cmd.Flags().GetBool("no-warnings")
	if err != nil {
		return fmt.Errorf("failed to get no-warnings flag: %w", err)
	}
	warningsAsErrors, err := cmd.Flags().GetBool("warnings-as-errors")
	if err != nil {
		return fmt.Errorf("failed to get warnings-as-errors flag: %w", err)
	}
	if noWarnings && warningsAsErrors {
		return fmt.Errorf("no-warnings and warnings-as-errors flags cannot be used together")
	}
	withNotes, err := cmd.Flags().GetBool("with-notes")
	if err != nil {
		return fmt.Errorf("failed to get with-notes flag: %w", err)
	}
	showTimings, err := cmd.Root().PersistentFlags().GetBool("timings")
	if err != nil {
		return fmt.Errorf("failed to get timings flag: %w", err)
	}
	maxDiagnostics, err := cmd.Root().PersistentFlags().GetInt("max-diagnostics")
	if err != nil {
		return fmt.Errorf("failed to get max-diagnostics flag: %w", err)
	}

	res, err := buildpipeline.Compile(cmd.Context(), &buildpipeline.CompileRequest{
		TargetPath:     settings.entry,
		BaseDir:        settings.baseDir,
		Search:         settings.search,
		Jobs:           settings.jobs,
		MaxDiagnostics: maxDiagnostics,
	})
	if err != nil && !errors.Is(err, buildpipeline.ErrDiagnostics) {
		return err
	}

	bag := filterWarnings(res.Driver.Bag, noWarnings, warningsAsErrors, maxDiagnostics)
	if bag.Len() > 0 || format == "json" {
		if err := printDiagnostics(cmd, format, bag, res.Driver.Files, settings.baseDir, withNotes); err != nil {
			return err
		}
	}
	if showTimings {
		fmt.Fprint(os.Stderr, res.Driver.Timer.Summary())
	}
	if bag.HasErrors() {
		return exitCodeError{code: 1}
	}
	return nil
}

func filterWarnings(in *diag.Bag, drop, promote bool, maxDiagnostics int) *diag.Bag {
	if !drop && !promote {
		return in
	}
	out := diag.NewBag(maxDiagnostics)
	for _, d := range in.Items() {
		if d.Severity == diag.SevWarning {
			if drop {
				continue
			}
			d.Severity = diag.SevError
		}
		out.Add(d)
	}
	return out
}
