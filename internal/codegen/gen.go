// Package codegen lowers bound modules (internal/hir) into basic-block
// bytecode and assembles the compiled unit container.
package codegen

import (
	"errors"
	"fmt"
	"slices"

	"blaise/internal/bytecode"
	"blaise/internal/hir"
	"blaise/internal/module"
	"blaise/internal/types"
)

// genError unwinds lowering of one unit.
type genError struct{ err error }

type generator struct {
	mod *hir.Module
	in  *types.Interner
	b   types.Builtins
	u   *module.Unit
}

// Generate lowers mod into a compiled unit. The module must have been bound
// without errors. Source and dependency hashes are left for the caller.
func Generate(mod *hir.Module, in *types.Interner) (u *module.Unit, err error) {
	if mod == nil {
		return nil, errors.New("codegen: nil module")
	}
	g := &generator{mod: mod, in: in, b: in.Builtins()}
	defer func() {
		if r := recover(); r != nil {
			ge, ok := r.(genError)
			if !ok {
				panic(r)
			}
			u, err = nil, ge.err
		}
	}()
	g.u = module.New(mod.Name, mod.Display, mod.Kind)
	g.u.Path = mod.Path
	g.u.File = mod.File
	g.u.Imports = slices.Clone(mod.Uses)
	g.u.Init = mod.Init
	g.u.Main = mod.Main

	g.symbols()
	if err := g.classes(); err != nil {
		return nil, err
	}
	for _, s := range mod.Globals {
		g.u.Globals = append(g.u.Globals, module.GlobalDesc{Name: s.Name, Shape: g.shape(s.Type)})
	}
	g.u.Routines = make([]bytecode.Routine, len(mod.Routines))
	for i, r := range mod.Routines {
		g.u.Routines[i] = g.routine(r)
		if err := g.u.Routines[i].Code.Validate(); err != nil {
			return nil, fmt.Errorf("codegen: %s.%s: %w", mod.Name, r.Name, err)
		}
	}
	return g.u, nil
}

func (g *generator) failf(format string, args ...any) {
	panic(genError{err: fmt.Errorf("codegen: "+format, args...)})
}

func (g *generator) symbols() {
	for _, id := range g.mod.Exports {
		g.u.Exports = append(g.u.Exports, module.EncodeSymbol(g.in, g.mod.Symbols.Get(id)))
	}
	for _, id := range g.mod.Private {
		g.u.Private = append(g.u.Private, module.EncodeSymbol(g.in, g.mod.Symbols.Get(id)))
	}
}

// classes stores class descriptors base first so a loader can rely on the
// base of every class being known before the class itself.
func (g *generator) classes() error {
	ids := slices.Clone(g.mod.Classes)
	depth := func(id types.TypeID) int { return len(g.in.Chain(id)) }
	slices.SortStableFunc(ids, func(a, b types.TypeID) int { return depth(a) - depth(b) })
	for _, id := range ids {
		d, err := module.EncodeClass(g.in, id, g.shape)
		if err != nil {
			return fmt.Errorf("codegen: %w", err)
		}
		g.u.Classes = append(g.u.Classes, d)
	}
	return nil
}

// shape maps a type to the storage shape of a slot holding it.
func (g *generator) shape(id types.TypeID) bytecode.Shape {
	t, ok := g.in.Lookup(id)
	if !ok {
		g.failf("unknown type %d", id)
	}
	switch t.Kind {
	case types.KindBool:
		return bytecode.Shape{Kind: bytecode.ShapeBool}
	case types.KindInt:
		return bytecode.Shape{Kind: bytecode.ShapeInt}
	case types.KindReal:
		return bytecode.Shape{Kind: bytecode.ShapeReal}
	case types.KindChar:
		return bytecode.Shape{Kind: bytecode.ShapeChar}
	case types.KindString:
		return bytecode.Shape{Kind: bytecode.ShapeString}
	case types.KindProc, types.KindFunc:
		return bytecode.Shape{Kind: bytecode.ShapeRoutine}
	case types.KindArray:
		if t.IsDynamic() {
			return bytecode.Shape{Kind: bytecode.ShapeRef}
		}
		elem := g.shape(t.Elem)
		return bytecode.Shape{Kind: bytecode.ShapeArray, Len: int(t.Count), Elem: &elem}
	}
	return bytecode.Shape{Kind: bytecode.ShapeRef}
}

func (g *generator) isVoid(id types.TypeID) bool {
	k := g.in.Kind(id)
	return k == types.KindVoid || k == types.KindInvalid
}
