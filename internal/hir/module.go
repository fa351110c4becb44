// Package hir holds the bound tree produced by the binder: every expression
// carries its resolved type and every name its resolved symbol or storage.
package hir

import (
	"blaise/internal/source"
	"blaise/internal/symbols"
	"blaise/internal/types"
)

// ModuleKind distinguishes programs from units.
type ModuleKind uint8

const (
	ModuleProgram ModuleKind = iota
	ModuleUnit
)

func (k ModuleKind) String() string {
	if k == ModuleUnit {
		return "unit"
	}
	return "program"
}

// Slot describes one frame or global storage slot.
type Slot struct {
	Name string
	Type types.TypeID
}

// Routine is the bound form of one routine body. Slots holds params first
// (this is slot 0 for methods), then the result slot, then locals.
type Routine struct {
	Name    string
	Index   int
	Symbol  symbols.SymbolID
	Params  int
	Result  int // -1 for procedures
	Slots   []Slot
	Body    []*Stmt
	Class   types.TypeID
	Span    source.Span
	HasBody bool
}

// Module is the bound form of one program or unit.
type Module struct {
	Name     string
	Display  string
	Kind     ModuleKind
	Path     string
	File     source.FileID
	Uses     []string
	Globals  []Slot
	Routines []*Routine
	Init     int // initialization routine, -1 if none
	Main     int // program body, -1 for units
	Classes  []types.TypeID
	Exports  []symbols.SymbolID
	Private  []symbols.SymbolID
	Symbols  *symbols.Table
}
