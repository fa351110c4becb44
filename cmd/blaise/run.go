package main

import (
	"errors"
	"fmt"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"blaise/internal/buildpipeline"
)

var runCmd = &cobra.Command{
	Use:   "run [flags] [file.pas]",
	Short: "Compile and execute a Blaise program",
	Long: `Compile a program and the units it uses, then execute it on the VM.
Without a file, [run].main of the enclosing blaise.toml is run.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runExecution,
}

func init() {
	runCmd.Flags().String("ui", "auto", "progress UI (auto|on|off)")
	runCmd.Flags().String("format", "pretty", "diagnostic format (pretty|short|json)")
	runCmd.Flags().Bool("vm-trace", false, "trace every executed instruction to stderr")
	runCmd.Flags().Int("heap-budget", 0, "heap budget in words (0 = manifest or default)")
	runCmd.Flags().Int("max-frames", 0, "call depth limit (0 = manifest or default)")
	runCmd.Flags().Int("jobs", 0, "parallel units per wave (0 = auto)")
	runCmd.Flags().String("cache-dir", "", "directory of compiled units")
	runCmd.Flags().Bool("no-cache", false, "neither read nor write compiled units")
}

func runExecution(cmd *cobra.Command, args []string) error {
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
	vmTrace, err := cmd.Flags().GetBool("vm-trace")
	if err != nil {
		return fmt.Errorf("failed to get vm-trace flag: %w", err)
	}
	showTimings, err := cmd.Root().PersistentFlags().GetBool("timings")
	if err != nil {
		return fmt.Errorf("failed to get timings flag: %w", err)
	}
	maxDiagnostics, err := cmd.Root().PersistentFlags().GetInt("max-diagnostics")
	if err != nil {
		return fmt.Errorf("failed to get max-diagnostics flag: %w", err)
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()

	req := &buildpipeline.RunRequest{
		CompileRequest: buildpipeline.CompileRequest{
			TargetPath:     settings.entry,
			BaseDir:        settings.baseDir,
			Search:         settings.search,
			CacheDir:       settings.cacheDir,
			Jobs:           settings.jobs,
			MaxDiagnostics: maxDiagnostics,
		},
		HeapBudget: settings.heapBudget,
		MaxFrames:  settings.maxFrames,
	}
	if vmTrace {
		req.VMTrace = os.Stderr
	}

	var res buildpipeline.RunResult
	if shouldUseTUI(mode, true) {
		res, err = runWithUI(ctx, "run "+formatPathForOutput(settings.baseDir, settings.entry), req)
	} else {
		res, err = buildpipeline.Run(ctx, req)
	}
	if err != nil {
		if errors.Is(err, buildpipeline.ErrDiagnostics) && res.Driver != nil {
			if printErr := printDiagnostics(cmd, format, res.Driver.Bag, res.Driver.Files, settings.baseDir, true); printErr != nil {
				return printErr
			}
			return exitCodeError{code: 1}
		}
		return err
	}
	if res.Driver != nil && res.Driver.Bag.Len() > 0 {
		// Warnings only.
		if printErr := printDiagnostics(cmd, format, res.Driver.Bag, res.Driver.Files, settings.baseDir, true); printErr != nil {
			return printErr
		}
	}
	if res.Fault != nil {
		fmt.Fprint(os.Stderr, res.Fault.FormatWithFiles(res.Driver.Files))
	}
	if showTimings {
		printStageTimings(os.Stderr, res.Timings, true)
		printHeapStats(os.Stderr, res.Heap)
	}
	if res.ExitCode != 0 {
		return exitCodeError{code: res.ExitCode}
	}
	return nil
}
