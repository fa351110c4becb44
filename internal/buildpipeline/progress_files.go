package buildpipeline

import (
	"path/filepath"
	"strings"
	"sync"
)

// progressFiles assigns display names to unit paths as the driver reports
// them. The set of files is not known before discovery, so each file is
// announced as queued the first time it is seen.
type progressFiles struct {
	base string
	sink ProgressSink

	mu    sync.Mutex
	names map[string]string
}

func newProgressFiles(baseDir string, sink ProgressSink) *progressFiles {
	base := strings.TrimSpace(baseDir)
	if base != "" {
		if abs, err := filepath.Abs(base); err == nil {
			base = abs
		}
	}
	return &progressFiles{base: base, sink: sink, names: make(map[string]string)}
}

func (p *progressFiles) see(path string) string {
	p.mu.Lock()
	name, ok := p.names[path]
	if !ok {
		name = displayPath(path, p.base)
		p.names[path] = name
	}
	p.mu.Unlock()
	if !ok && p.sink != nil {
		p.sink.OnEvent(Event{File: name, Stage: StageParse, Status: StatusQueued})
	}
	return name
}

// displayPath makes file relative to base when it lies under it.
func displayPath(file, base string) string {
	if file == "" {
		return file
	}
	path := filepath.Clean(file)
	if base != "" {
		if abs, err := filepath.Abs(path); err == nil {
			path = abs
		}
		if rel, err := filepath.Rel(base, path); err == nil && rel != "." && !strings.HasPrefix(rel, "..") {
			path = rel
		}
	}
	return filepath.ToSlash(path)
}
