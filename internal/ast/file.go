// Package ast holds the syntax tree produced by the parser. Nodes are
// immutable once the parser returns; the binder builds a parallel tree
// (internal/hir) instead of annotating these nodes.
package ast

import "blaise/internal/source"

// FileKind distinguishes programs from units.
type FileKind uint8

const (
	FileProgram FileKind = iota + 1
	FileUnit
)

func (k FileKind) String() string {
	switch k {
	case FileProgram:
		return "program"
	case FileUnit:
		return "unit"
	default:
		return "invalid"
	}
}

// Ident is a name occurrence. Name is the folded spelling used for lookup,
// Text is what the user wrote.
type Ident struct {
	Name string
	Text string
	Span source.Span
}

// Use is one entry of a uses-clause.
type Use struct {
	Name Ident
}

// File is the root of one compilation unit.
//
// For programs Interface is empty and Implementation holds every declaration;
// Body is the main block. For units Body is the initialization part (may be nil).
type File struct {
	Kind           FileKind
	Name           Ident
	Uses           []Use
	Interface      []Decl
	ImplUses       []Use
	Implementation []Decl
	Body           *CompoundStmt
	Span           source.Span
}

// AllUses returns the uses of both unit parts in declaration order.
func (f *File) AllUses() []Use {
	out := make([]Use, 0, len(f.Uses)+len(f.ImplUses))
	out = append(out, f.Uses...)
	return append(out, f.ImplUses...)
}
