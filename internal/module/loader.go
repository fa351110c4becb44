package module

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"blaise/internal/ast"
	"blaise/internal/diag"
	"blaise/internal/parser"
	"blaise/internal/project"
	"blaise/internal/source"
)

// SourceExt is the extension of Blaise source files.
const SourceExt = ".pas"

// Source is one discovered module: its parsed file, metadata for the import
// graph and the bag its diagnostics go to. File is nil when the source had
// a syntax error.
type Source struct {
	Meta   project.ModuleMeta
	File   *ast.File
	FileID source.FileID
	Bag    *diag.Bag
}

// Reporter returns a reporter writing into the module's bag.
func (s *Source) Reporter() diag.Reporter {
	return &diag.BagReporter{Bag: s.Bag}
}

// Failed reports sources that must not be bound.
func (s *Source) Failed() bool {
	return s.File == nil || s.Bag.HasErrors()
}

type loadState uint8

const (
	stateUnvisited loadState = iota
	stateInProgress
	stateDone
)

// Loader discovers the transitive uses of an entry file.
type Loader struct {
	Files   *source.FileSet
	Search  []string
	MaxDiag int

	state   map[string]loadState
	byName  map[string]*Source
	order   []*Source
	chain   []string
	display map[string]string
}

// NewLoader returns a loader that resolves units next to the using file
// first, then in search.
func NewLoader(files *source.FileSet, search []string) *Loader {
	return &Loader{Files: files, Search: search, MaxDiag: 100}
}

// Discover parses entry and every unit it transitively uses. Sources are
// returned dependencies first, the entry last. Import cycles are detected
// with a visited/in-progress/done marker per unit and reported as
// CircularImport at the closing use.
func (l *Loader) Discover(entry string) ([]*Source, error) {
	l.state = make(map[string]loadState)
	l.byName = make(map[string]*Source)
	l.display = make(map[string]string)
	l.order = nil
	l.chain = nil

	src, err := l.load(entry)
	if err != nil {
		return nil, err
	}
	if src.File == nil {
		return []*Source{src}, nil
	}
	l.visit(src)
	return l.order, nil
}

func (l *Loader) load(path string) (*Source, error) {
	id, err := l.Files.Load(path)
	if err != nil {
		return nil, err
	}
	f := l.Files.Get(id)
	src := &Source{FileID: id, Bag: diag.NewBag(l.MaxDiag)}
	src.File = parser.ParseFile(f, src.Reporter())
	src.Meta = project.ModuleMeta{
		Path:        f.Path,
		ContentHash: project.Digest(f.Hash),
	}
	if src.File == nil {
		base := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
		src.Meta.Name = strings.ToLower(base)
		src.Meta.Display = base
		return src, nil
	}
	src.Meta.Name = src.File.Name.Name
	src.Meta.Display = src.File.Name.Text
	src.Meta.Span = src.File.Name.Span
	src.Meta.Kind = project.ModuleKindProgram
	if src.File.Kind == ast.FileUnit {
		src.Meta.Kind = project.ModuleKindUnit
	}
	for _, u := range src.File.AllUses() {
		src.Meta.Imports = append(src.Meta.Imports, project.ImportMeta{Name: u.Name.Name, Span: u.Name.Span})
	}
	return src, nil
}

func (l *Loader) visit(src *Source) {
	name := src.Meta.Name
	l.state[name] = stateInProgress
	l.byName[name] = src
	l.display[name] = src.Meta.Display
	l.chain = append(l.chain, name)

	if src.File != nil {
		seen := make(map[string]bool)
		for _, u := range src.File.AllUses() {
			if seen[u.Name.Name] {
				continue
			}
			seen[u.Name.Name] = true
			l.use(src, u)
		}
	}

	l.chain = l.chain[:len(l.chain)-1]
	l.state[name] = stateDone
	l.order = append(l.order, src)
}

func (l *Loader) use(from *Source, u ast.Use) {
	name := u.Name.Name
	switch l.state[name] {
	case stateInProgress:
		diag.ReportErrorf(from.Reporter(), diag.ModCircularImport, u.Name.Span,
			"circular unit reference: %s", l.cycleText(name)).Emit()
		return
	case stateDone:
		if dep := l.byName[name]; dep.Meta.Kind == project.ModuleKindProgram {
			diag.ReportErrorf(from.Reporter(), diag.ModImportProgram, u.Name.Span,
				"%s is a program and cannot be used", u.Name.Text).Emit()
		}
		return
	}

	path, ok := l.find(filepath.Dir(from.Meta.Path), u.Name.Text)
	if !ok {
		diag.ReportErrorf(from.Reporter(), diag.ModUnknownModule, u.Name.Span,
			"unit %s not found", u.Name.Text).Emit()
		return
	}
	dep, err := l.load(path)
	if err != nil {
		diag.ReportErrorf(from.Reporter(), diag.ModLoadFailed, u.Name.Span,
			"cannot read unit %s: %v", u.Name.Text, err).Emit()
		return
	}
	if dep.File == nil {
		dep.Meta.Name = name
	} else if dep.Meta.Name != name {
		diag.ReportErrorf(dep.Reporter(), diag.ModNameMismatch, dep.Meta.Span,
			"file %s declares %s, expected %s", filepath.Base(path), dep.Meta.Display, u.Name.Text).
			WithNote(u.Name.Span, "used here").Emit()
		dep.Meta.Name = name
	}
	if dep.Meta.Kind == project.ModuleKindProgram {
		diag.ReportErrorf(from.Reporter(), diag.ModImportProgram, u.Name.Span,
			"%s is a program and cannot be used", u.Name.Text).Emit()
	}
	l.visit(dep)
}

func (l *Loader) cycleText(closing string) string {
	start := 0
	for i, n := range l.chain {
		if n == closing {
			start = i
			break
		}
	}
	parts := make([]string, 0, len(l.chain)-start+1)
	for _, n := range l.chain[start:] {
		parts = append(parts, l.display[n])
	}
	parts = append(parts, l.display[closing])
	return strings.Join(parts, " -> ")
}

// find looks for the unit source next to the using file, then in the search
// directories. Both the spelling from the uses-clause and its lower-case
// form are tried.
func (l *Loader) find(dir, name string) (string, bool) {
	dirs := append([]string{dir}, l.Search...)
	names := []string{name + SourceExt}
	if lower := strings.ToLower(name); lower != name {
		names = append(names, lower+SourceExt)
	}
	for _, d := range dirs {
		for _, n := range names {
			p := filepath.Join(d, n)
			if info, err := os.Stat(p); err == nil && !info.IsDir() {
				return p, true
			}
		}
	}
	return "", false
}

// ByName indexes sources by folded module name.
func ByName(sources []*Source) map[string]*Source {
	out := make(map[string]*Source, len(sources))
	for _, s := range sources {
		out[s.Meta.Name] = s
	}
	return out
}

// Metas returns the graph metadata of sources.
func Metas(sources []*Source) []project.ModuleMeta {
	out := make([]project.ModuleMeta, len(sources))
	for i, s := range sources {
		out[i] = s.Meta
	}
	return out
}

// String implements fmt.Stringer for listings.
func (s *Source) String() string {
	return fmt.Sprintf("%s (%s)", s.Meta.Display, s.Meta.Path)
}
