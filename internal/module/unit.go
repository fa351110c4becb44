// Package module holds compiled units: the persisted container produced by
// the code generator and consumed by the VM, its interface as seen by the
// binder of importing units, and discovery of a program's import graph.
package module

import (
	"errors"
	"fmt"

	"blaise/internal/bytecode"
	"blaise/internal/hir"
	"blaise/internal/project"
	"blaise/internal/source"
	"blaise/internal/symbols"
	"blaise/internal/value"
)

const (
	// Magic opens every persisted unit.
	Magic = "BLAISEU"
	// Schema is bumped whenever the container layout changes.
	Schema uint16 = 1
	// Ext is the file extension of persisted units.
	Ext = ".bcu"
)

var (
	// ErrStaleUnit means the persisted unit no longer matches its source or
	// one of its dependencies.
	ErrStaleUnit = errors.New("stale compiled unit")
	// ErrCorruptUnit means the persisted unit cannot be decoded.
	ErrCorruptUnit = errors.New("corrupt compiled unit")
)

// DepHash records the module hash of a used unit at compile time.
type DepHash struct {
	Name string         `msgpack:"n"`
	Hash project.Digest `msgpack:"h"`
}

// GlobalDesc is one unit global.
type GlobalDesc struct {
	Name  string         `msgpack:"n"`
	Shape bytecode.Shape `msgpack:"s"`
}

// Unit is one compiled program or unit.
type Unit struct {
	Magic      string             `msgpack:"magic"`
	Schema     uint16             `msgpack:"schema"`
	Name       string             `msgpack:"name"`
	Display    string             `msgpack:"display"`
	Kind       hir.ModuleKind     `msgpack:"kind"`
	Path       string             `msgpack:"path"`
	SourceHash project.Digest     `msgpack:"src"`
	DepHashes  []DepHash          `msgpack:"deps"`
	Imports    []string           `msgpack:"imports"`
	Exports    []SymbolDesc       `msgpack:"exports"`
	Private    []SymbolDesc       `msgpack:"private"`
	Classes    []ClassDesc        `msgpack:"classes"`
	Globals    []GlobalDesc       `msgpack:"globals"`
	Routines   []bytecode.Routine `msgpack:"routines"`
	Pool       bytecode.Pool      `msgpack:"pool"`
	Init       int                `msgpack:"init"`
	Main       int                `msgpack:"main"`

	// File is the source file spans of exported symbols point into. It is
	// session state and never persisted.
	File source.FileID `msgpack:"-"`
}

// New returns an empty unit header.
func New(name, display string, kind hir.ModuleKind) *Unit {
	return &Unit{
		Magic:   Magic,
		Schema:  Schema,
		Name:    name,
		Display: display,
		Kind:    kind,
		Init:    -1,
		Main:    -1,
	}
}

// Hash combines the source hash with the dependency hashes in import order.
// Units that use this one record it in their DepHashes.
func (u *Unit) Hash() project.Digest {
	deps := make([]project.Digest, 0, len(u.DepHashes))
	for _, d := range u.DepHashes {
		deps = append(deps, d.Hash)
	}
	return project.Combine(u.SourceHash, deps...)
}

// CheckFresh compares the unit against the current source hash and the
// current hashes of its dependencies.
func (u *Unit) CheckFresh(src project.Digest, deps map[string]project.Digest) error {
	if u.SourceHash != src {
		return fmt.Errorf("%s: source changed: %w", u.Display, ErrStaleUnit)
	}
	if len(u.DepHashes) != len(u.Imports) {
		return fmt.Errorf("%s: dependency list changed: %w", u.Display, ErrStaleUnit)
	}
	for _, d := range u.DepHashes {
		cur, ok := deps[d.Name]
		if !ok || cur != d.Hash {
			return fmt.Errorf("%s: unit %s changed: %w", u.Display, d.Name, ErrStaleUnit)
		}
	}
	return nil
}

// Routine returns routine i or nil.
func (u *Unit) Routine(i int) *bytecode.Routine {
	if i < 0 || i >= len(u.Routines) {
		return nil
	}
	return &u.Routines[i]
}

// Class finds a class descriptor by folded name.
func (u *Unit) Class(name string) *ClassDesc {
	for i := range u.Classes {
		if u.Classes[i].Name == name {
			return &u.Classes[i]
		}
	}
	return nil
}

// Validate checks the structural invariants the VM relies on.
func (u *Unit) Validate() error {
	if u.Magic != Magic || u.Schema != Schema {
		return fmt.Errorf("%s: bad header: %w", u.Name, ErrCorruptUnit)
	}
	for i := range u.Routines {
		r := &u.Routines[i]
		if err := r.Code.Validate(); err != nil {
			return fmt.Errorf("%s: routine %s: %v: %w", u.Name, r.Name, err, ErrCorruptUnit)
		}
		if r.Params > len(r.Locals) || r.Result >= len(r.Locals) {
			return fmt.Errorf("%s: routine %s: bad frame layout: %w", u.Name, r.Name, ErrCorruptUnit)
		}
	}
	if u.Init >= len(u.Routines) || u.Main >= len(u.Routines) {
		return fmt.Errorf("%s: entry routine out of range: %w", u.Name, ErrCorruptUnit)
	}
	return nil
}

// SymbolDesc is the persisted form of a unit-scope symbol. Type-bearing
// fields use TypeDesc so the descriptor is independent of any interner.
type SymbolDesc struct {
	Name    string              `msgpack:"n"`
	Display string              `msgpack:"d"`
	Kind    symbols.SymbolKind  `msgpack:"k"`
	Flags   symbols.SymbolFlags `msgpack:"f,omitempty"`
	Type    *TypeDesc           `msgpack:"t,omitempty"`
	Const   value.Value         `msgpack:"c,omitempty"`
	Slot    int                 `msgpack:"s,omitempty"`
	Routine int                 `msgpack:"r,omitempty"`
	Class   *bytecode.ClassRef  `msgpack:"cl,omitempty"`
	Native  string              `msgpack:"nt,omitempty"`
	Params  []TypeDesc          `msgpack:"p,omitempty"`
	Result  *TypeDesc           `msgpack:"res,omitempty"`
	Start   uint32              `msgpack:"sb"`
	End     uint32              `msgpack:"se"`
}

// FieldDesc is one declared field.
type FieldDesc struct {
	Name   string   `msgpack:"n"`
	Type   TypeDesc `msgpack:"t"`
	Offset int      `msgpack:"o"`
}

// MethodDesc is one declared method.
type MethodDesc struct {
	Name     string              `msgpack:"n"`
	Selector string              `msgpack:"sel"`
	Kind     uint8               `msgpack:"k"`
	Params   []TypeDesc          `msgpack:"p,omitempty"`
	Result   *TypeDesc           `msgpack:"r,omitempty"`
	Virtual  bool                `msgpack:"v,omitempty"`
	Override bool                `msgpack:"o,omitempty"`
	Slot     int                 `msgpack:"s"`
	Routine  bytecode.RoutineRef `msgpack:"rt"`
}

// VMTDesc is one vmt slot.
type VMTDesc struct {
	Selector string              `msgpack:"sel"`
	Routine  bytecode.RoutineRef `msgpack:"rt"`
	Owner    bytecode.ClassRef   `msgpack:"o"`
}

// ClassDesc is the persisted layout of a class. FieldShapes covers every
// slot of an instance, inherited ones included, so the VM can allocate
// objects without walking the base chain.
type ClassDesc struct {
	Name        string             `msgpack:"n"`
	Base        *bytecode.ClassRef `msgpack:"b,omitempty"`
	Fields      []FieldDesc        `msgpack:"f,omitempty"`
	Methods     []MethodDesc       `msgpack:"m,omitempty"`
	VMT         []VMTDesc          `msgpack:"v,omitempty"`
	Slots       int                `msgpack:"s"`
	FieldShapes []bytecode.Shape   `msgpack:"fs,omitempty"`
}
