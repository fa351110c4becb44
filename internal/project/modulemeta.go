package project

import (
	"blaise/internal/source"
)

// ImportMeta is one uses-clause entry.
type ImportMeta struct {
	Name string
	Span source.Span
}

// ModuleKind mirrors the file kind without importing the syntax tree.
type ModuleKind uint8

const (
	ModuleKindUnknown ModuleKind = iota
	ModuleKindProgram
	ModuleKindUnit
)

// ModuleMeta describes one discovered module before binding.
type ModuleMeta struct {
	Name        string // folded module name
	Display     string
	Path        string // source file path
	Kind        ModuleKind
	Span        source.Span // span of the module name in its header
	Imports     []ImportMeta
	ContentHash Digest // hash of the source file
	ModuleHash  Digest // content hash combined with dependency hashes
}

// IsValidModuleIdent reports whether name can name a unit file.
func IsValidModuleIdent(name string) bool {
	if name == "" {
		return false
	}
	for i, r := range name {
		switch {
		case r == '_', r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z':
		case i > 0 && r >= '0' && r <= '9':
		default:
			return false
		}
	}
	return true
}
