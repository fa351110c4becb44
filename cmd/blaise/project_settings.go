package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"blaise/internal/project"
)

// projectSettings is what run, build and diag need to know about the
// target: the entry file and the limits from blaise.toml, if there is one,
// with command-line flags applied on top.
type projectSettings struct {
	entry      string
	baseDir    string
	search     []string
	cacheDir   string
	jobs       int
	heapBudget int
	maxFrames  int
	manifest   *project.Manifest
}

// resolveProject finds the entry file. An explicit file wins; otherwise
// [run].main of the enclosing blaise.toml is used.
func resolveProject(args []string) (projectSettings, error) {
	var s projectSettings
	startDir := "."
	if len(args) > 0 && args[0] != "" {
		info, err := os.Stat(args[0])
		if err != nil {
			return s, fmt.Errorf("failed to stat %q: %w", args[0], err)
		}
		if info.IsDir() {
			startDir = args[0]
		} else {
			s.entry = args[0]
			startDir = filepath.Dir(args[0])
		}
	}

	m, ok, err := project.Discover(startDir)
	if err != nil {
		return s, err
	}
	if ok {
		s.manifest = m
		s.baseDir = m.Root
		s.search = m.Build.Search
		s.cacheDir = m.Build.Cache
		s.jobs = m.Build.Jobs
		s.heapBudget = m.VM.HeapBudget
		s.maxFrames = m.VM.MaxFrames
		if s.entry == "" {
			s.entry = m.Run.Main
		}
	}
	if s.entry == "" {
		if ok {
			return s, fmt.Errorf("%s: no entry file; set [run].main or pass a file", filepath.Join(m.Root, project.ManifestName))
		}
		return s, fmt.Errorf("no entry file and no %s found", project.ManifestName)
	}
	abs, err := filepath.Abs(s.entry)
	if err != nil {
		return s, err
	}
	s.entry = abs
	if s.baseDir == "" {
		s.baseDir = filepath.Dir(abs)
	}
	if s.cacheDir == "" {
		s.cacheDir = filepath.Join(s.baseDir, filepath.FromSlash(project.DefaultCacheDir))
	}
	return s, nil
}

// applyFlags overrides manifest values with the flags the command has.
func (s *projectSettings) applyFlags(cmd *cobra.Command) error {
	flags := cmd.Flags()
	if f := flags.Lookup("jobs"); f != nil && f.Changed {
		jobs, err := flags.GetInt("jobs")
		if err != nil {
			return fmt.Errorf("failed to get jobs flag: %w", err)
		}
		s.jobs = jobs
	}
	if f := flags.Lookup("heap-budget"); f != nil && f.Changed {
		budget, err := flags.GetInt("heap-budget")
		if err != nil {
			return fmt.Errorf("failed to get heap-budget flag: %w", err)
		}
		s.heapBudget = budget
	}
	if f := flags.Lookup("max-frames"); f != nil && f.Changed {
		frames, err := flags.GetInt("max-frames")
		if err != nil {
			return fmt.Errorf("failed to get max-frames flag: %w", err)
		}
		s.maxFrames = frames
	}
	if f := flags.Lookup("cache-dir"); f != nil && f.Changed {
		dir, err := flags.GetString("cache-dir")
		if err != nil {
			return fmt.Errorf("failed to get cache-dir flag: %w", err)
		}
		s.cacheDir = dir
	}
	if f := flags.Lookup("no-cache"); f != nil {
		noCache, err := flags.GetBool("no-cache")
		if err != nil {
			return fmt.Errorf("failed to get no-cache flag: %w", err)
		}
		if noCache {
			s.cacheDir = ""
		}
	}
	if s.jobs < 0 || s.heapBudget < 0 || s.maxFrames < 0 {
		return fmt.Errorf("negative limits are not allowed")
	}
	return nil
}

func formatPathForOutput(baseDir, path string) string {
	if rel, err := filepath.Rel(baseDir, path); err == nil && !filepath.IsAbs(rel) && rel != "" && rel[0] != '.' {
		return rel
	}
	return path
}
