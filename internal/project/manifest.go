package project

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
)

// DefaultCacheDir is where compiled units go when [build].cache is unset.
const DefaultCacheDir = ".blaise/cache"

// ErrPackageSectionMissing indicates that [package] is missing in blaise.toml.
var ErrPackageSectionMissing = errors.New("missing [package]")

// Manifest is the decoded blaise.toml. Relative paths are resolved
// against Root by LoadManifest.
type Manifest struct {
	Root    string         `toml:"-"`
	Package PackageSection `toml:"package"`
	Run     RunSection     `toml:"run"`
	Build   BuildSection   `toml:"build"`
	VM      VMSection      `toml:"vm"`
}

// PackageSection is [package].
type PackageSection struct {
	Name string `toml:"name"`
}

// RunSection is [run].
type RunSection struct {
	Main string `toml:"main"`
}

// BuildSection is [build].
type BuildSection struct {
	Search []string `toml:"search"`
	Cache  string   `toml:"cache"`
	Jobs   int      `toml:"jobs"`
}

// VMSection is [vm].
type VMSection struct {
	HeapBudget int `toml:"heap_budget"`
	MaxFrames  int `toml:"max_frames"`
}

// LoadManifest parses blaise.toml at path.
func LoadManifest(path string) (*Manifest, error) {
	var m Manifest
	meta, err := toml.DecodeFile(path, &m)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to parse TOML: %w", path, err)
	}
	if !meta.IsDefined("package") {
		return nil, fmt.Errorf("%s: %w", path, ErrPackageSectionMissing)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, 0, len(undecoded))
		for _, k := range undecoded {
			keys = append(keys, k.String())
		}
		return nil, fmt.Errorf("%s: unknown keys: %s", path, strings.Join(keys, ", "))
	}
	if m.VM.HeapBudget < 0 || m.VM.MaxFrames < 0 || m.Build.Jobs < 0 {
		return nil, fmt.Errorf("%s: negative limits are not allowed", path)
	}
	m.Root = filepath.Dir(path)
	m.Package.Name = strings.TrimSpace(m.Package.Name)
	for i, dir := range m.Build.Search {
		m.Build.Search[i] = m.resolve(dir)
	}
	if m.Build.Cache == "" {
		m.Build.Cache = DefaultCacheDir
	}
	m.Build.Cache = m.resolve(m.Build.Cache)
	if m.Run.Main != "" {
		m.Run.Main = m.resolve(m.Run.Main)
	}
	return &m, nil
}

func (m *Manifest) resolve(p string) string {
	if filepath.IsAbs(p) {
		return filepath.Clean(p)
	}
	return filepath.Join(m.Root, filepath.FromSlash(p))
}

// Discover finds and loads the manifest above startDir. A missing manifest
// is not an error: ok is false and m is nil.
func Discover(startDir string) (m *Manifest, ok bool, err error) {
	path, ok, err := FindManifest(startDir)
	if err != nil || !ok {
		return nil, ok, err
	}
	m, err = LoadManifest(path)
	if err != nil {
		return nil, true, err
	}
	return m, true, nil
}
