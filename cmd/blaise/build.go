package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"blaise/internal/buildpipeline"
)

var buildCmd = &cobra.Command{
	Use:   "build [flags] [file.pas]",
	Short: "Compile a program into persisted units",
	Long: `Compile a program and the units it uses into .bcu files in the unit
cache. Units whose source and dependencies are unchanged are reused.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runBuild,
}

func init() {
	buildCmd.Flags().String("ui", "auto", "progress UI (auto|on|off)")
	buildCmd.Flags().String("format", "pretty", "diagnostic format (pretty|short|json)")
	buildCmd.Flags().Int("jobs", 0, "parallel units per wave (0 = auto)")
	buildCmd.Flags().String("cache-dir", "", "directory of compiled units")
}

func runBuild(cmd *cobra.Command, args []string) error {
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
	uiFlag, err := cmd.Flags().GetString("ui")
	if err != nil {
		return fmt.Errorf("failed to get ui flag: %w", err)
	}
	mode, err := readUIMode(uiFlag)
	if err != nil {
		return err
	}
	format, err := cmd.Flags().GetString("format")
	if err != nil {
		return fmt.Errorf("failed to get format flag: %w", err)
	}
	quiet, err := cmd.Root().PersistentFlags().GetBool("quiet")
	if err != nil {
		return fmt.Errorf("failed to get quiet flag: %w", err)
	}
	showTimings, err := cmd.Root().PersistentFlags().GetBool("timings")
	if err != nil {
		return fmt.Errorf("failed to get timings flag: %w", err)
	}
	maxDiagnostics, err := cmd.Root().PersistentFlags().GetInt("max-diagnostics")
	if err != nil {
		return fmt.Errorf("failed to get max-diagnostics flag: %w", err)
	}

	req := &buildpipeline.BuildRequest{CompileRequest: buildpipeline.CompileRequest{
		TargetPath:     settings.entry,
		BaseDir:        settings.baseDir,
		Search:         settings.search,
		CacheDir:       settings.cacheDir,
		Jobs:           settings.jobs,
		MaxDiagnostics: maxDiagnostics,
	}}

	var res buildpipeline.BuildResult
	if shouldUseTUI(mode, false) {
		res, err = runBuildWithUI(cmd.Context(), "build "+formatPathForOutput(settings.baseDir, settings.entry), req)
	} else {
		res, err = buildpipeline.Build(cmd.Context(), req)
	}
	if res.Driver != nil && res.Driver.Bag.Len() > 0 {
		if printErr := printDiagnostics(cmd, format, res.Driver.Bag, res.Driver.Files, settings.baseDir, true); printErr != nil {
			return printErr
		}
	}
	if err != nil {
		if errors.Is(err, buildpipeline.ErrDiagnostics) {
			return exitCodeError{code: 1}
		}
		return err
	}

	if !quiet {
		reused := 0
		for _, u := range res.Units {
			if res.Driver.Cached[u.Name] {
				reused++
			}
		}
		fmt.Fprintf(cmd.OutOrStdout(), "built %d units (%d reused) into %s\n",
			len(res.Units), reused, formatPathForOutput(settings.baseDir, settings.cacheDir))
	}
	if showTimings {
		printStageTimings(os.Stderr, res.Timings, false)
	}
	return nil
}
