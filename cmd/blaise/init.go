package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"blaise/internal/project"
)

var initCmd = &cobra.Command{
	Use:   "init [path|name]",
	Short: "Initialize a new Blaise project",
	Long: `Create blaise.toml and a hello-world main.pas. Without an argument the
current directory is initialized; a name that does not exist yet becomes a
new directory.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runInit,
}

const mainTemplate = `program %s;
begin
  writeln('Hello from %s')
end.
`

const manifestTemplate = `[package]
name = %q

[run]
main = "main.pas"

[build]
search = ["units"]
`

func runInit(cmd *cobra.Command, args []string) error {
	target := "."
	if len(args) > 0 && args[0] != "" {
		target = args[0]
	}
	target, err := filepath.Abs(target)
	if err != nil {
		return err
	}

	if st, err := os.Stat(target); err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			return err
		}
		if err := os.MkdirAll(target, 0o755); err != nil {
			return fmt.Errorf("failed to create directory %q: %w", target, err)
		}
	} else if !st.IsDir() {
		return fmt.Errorf("%q is not a directory", target)
	}

	name := strings.TrimSpace(filepath.Base(target))
	ident := programIdent(name)

	manifestPath := filepath.Join(target, project.ManifestName)
	if _, err := os.Stat(manifestPath); err == nil {
		return fmt.Errorf("project already initialized: %s exists", manifestPath)
	}
	if err := os.WriteFile(manifestPath, []byte(fmt.Sprintf(manifestTemplate, name)), 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", manifestPath, err)
	}
	if err := os.MkdirAll(filepath.Join(target, "units"), 0o755); err != nil {
		return fmt.Errorf("failed to create units directory: %w", err)
	}
	mainPath := filepath.Join(target, "main.pas")
	if _, err := os.Stat(mainPath); errors.Is(err, os.ErrNotExist) {
		if err := os.WriteFile(mainPath, []byte(fmt.Sprintf(mainTemplate, ident, name)), 0o644); err != nil {
			return fmt.Errorf("failed to write %s: %w", mainPath, err)
		}
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "created %s\n", manifestPath)
	fmt.Fprintf(out, "created %s\n", mainPath)
	return nil
}

// programIdent turns a directory name into a valid program name.
func programIdent(name string) string {
	var sb strings.Builder
	for i, r := range name {
		switch {
		case r == '_', r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z':
			sb.WriteRune(r)
		case r >= '0' && r <= '9':
			if i == 0 {
				sb.WriteByte('_')
			}
			sb.WriteRune(r)
		default:
			sb.WriteByte('_')
		}
	}
	if !project.IsValidModuleIdent(sb.String()) {
		return "Main"
	}
	return sb.String()
}
