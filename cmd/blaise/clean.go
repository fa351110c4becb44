package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var cleanCmd = &cobra.Command{
	Use:   "clean [path]",
	Short: "Remove the compiled unit cache",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runClean,
}

func runClean(cmd *cobra.Command, args []string) error {
	settings, err := resolveProject(args)
	if err != nil {
		return err
	}
	info, err := os.Stat(settings.cacheDir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			fmt.Fprintln(cmd.OutOrStdout(), "unit cache not found")
			return nil
		}
		return fmt.Errorf("failed to stat %q: %w", settings.cacheDir, err)
	}
	if !info.IsDir() {
		return fmt.Errorf("%q is not a directory", settings.cacheDir)
	}
	if err := os.RemoveAll(settings.cacheDir); err != nil {
		return fmt.Errorf("failed to remove %q: %w", settings.cacheDir, err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "removed %s\n", formatPathForOutput(settings.baseDir, settings.cacheDir))
	return nil
}
