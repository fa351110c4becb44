// Package sema binds parsed units: it resolves names through the scope
// chain, lays out classes, checks and coerces types, resolves overloads,
// folds constants and produces the bound tree in internal/hir.
package sema

import (
	"fmt"

	"blaise/internal/ast"
	"blaise/internal/diag"
	"blaise/internal/hir"
	"blaise/internal/layout"
	"blaise/internal/native"
	"blaise/internal/source"
	"blaise/internal/symbols"
	"blaise/internal/types"
)

// Import is the interface of an already compiled unit as seen by importers.
type Import struct {
	Name    string
	Kind    hir.ModuleKind
	Symbols []symbols.Symbol
}

// Options configures one Bind call.
type Options struct {
	Reporter diag.Reporter
	Types    *types.Interner
	Natives  *native.Registry
	// Imports maps folded unit names to their interfaces.
	Imports map[string]*Import
	Path    string
}

// Binder holds the state of binding one file.
type Binder struct {
	opts     Options
	reporter *diag.CountingReporter
	in       *types.Interner
	builtins types.Builtins
	table    *symbols.Table
	layout   *layout.LayoutEngine
	mod      *hir.Module
	module   string

	builtinScope symbols.ScopeID
	unitScope    symbols.ScopeID
	unitScopes   map[string]symbols.ScopeID

	scope   symbols.ScopeID
	rt      *routineCtx
	inConst bool

	classes []*classDecl
	methods []*ast.RoutineDecl
	bodies  []*pendingBody
}

type pendingBody struct {
	routine *hir.Routine
	decl    *ast.RoutineDecl
	sym     symbols.SymbolID
	class   types.TypeID
	kind    ast.RoutineKind
	sig     types.Signature
}

// routineCtx is the binding context of one routine body.
type routineCtx struct {
	routine *hir.Routine
	scope   symbols.ScopeID
	class   types.TypeID
	fn      symbols.SymbolID
	result  int
	loops   int
}

// Bind binds file and returns its module. Errors are reported through
// opts.Reporter; the returned module must not be lowered when any error was
// reported (see Errors).
func Bind(file *ast.File, opts Options) (*hir.Module, int) {
	if opts.Types == nil {
		opts.Types = types.NewInterner()
	}
	if opts.Natives == nil {
		opts.Natives = native.Standard()
	}
	b := &Binder{
		opts:       opts,
		reporter:   &diag.CountingReporter{Next: opts.Reporter},
		in:         opts.Types,
		builtins:   opts.Types.Builtins(),
		table:      symbols.NewTable(symbols.Hints{Scopes: 32, Symbols: 128}),
		layout:     layout.New(opts.Types),
		unitScopes: make(map[string]symbols.ScopeID),
	}
	b.bindFile(file)
	return b.mod, b.reporter.Errors
}

func (b *Binder) errorf(code diag.Code, sp source.Span, format string, args ...any) {
	diag.ReportErrorf(b.reporter, code, sp, format, args...).Emit()
}

func (b *Binder) errorNote(code diag.Code, sp source.Span, msg string, noteSpan source.Span, note string) {
	diag.ReportError(b.reporter, code, sp, msg).WithNote(noteSpan, note).Emit()
}

func (b *Binder) bindFile(file *ast.File) {
	b.module = file.Name.Name
	kind := hir.ModuleProgram
	if file.Kind == ast.FileUnit {
		kind = hir.ModuleUnit
	}
	b.mod = &hir.Module{
		Name:    b.module,
		Display: file.Name.Text,
		Kind:    kind,
		Path:    b.opts.Path,
		File:    file.Span.File,
		Init:    -1,
		Main:    -1,
		Symbols: b.table,
	}

	b.setupScopes(file)

	b.registerClasses(file.Interface, true)
	b.registerClasses(file.Implementation, false)
	b.declareAll(file.Interface, true)
	b.declareAll(file.Implementation, false)
	b.layoutClasses()
	b.attachMethods()
	b.checkBodies()

	for _, p := range b.bodies {
		b.bindRoutineBody(p)
	}
	if file.Body != nil {
		name := "main"
		if kind == hir.ModuleUnit {
			name = "initialization"
		}
		r := b.newRoutine(name, symbols.NoSymbolID, types.NoTypeID, file.Body.Span)
		b.bindBlockRoutine(r, file.Body)
		if kind == hir.ModuleUnit {
			b.mod.Init = r.Index
		} else {
			b.mod.Main = r.Index
		}
	}
	b.collectExports()
}

// setupScopes builds builtin <- imports... <- uses <- unit.
func (b *Binder) setupScopes(file *ast.File) {
	b.builtinScope = b.table.NewChild(symbols.ScopeBuiltin, symbols.NoScopeID, symbols.NoSymbolID, file.Span)
	b.declareBuiltins()

	parent := b.builtinScope
	usedNames := make(map[string]source.Span)
	var order []ast.Use
	for _, u := range file.AllUses() {
		if prev, dup := usedNames[u.Name.Name]; dup {
			b.errorNote(diag.ModDuplicateModule, u.Name.Span, fmt.Sprintf("unit %s is listed twice", u.Name.Text), prev, "first listed here")
			continue
		}
		usedNames[u.Name.Name] = u.Name.Span
		order = append(order, u)
	}
	for _, u := range order {
		b.mod.Uses = append(b.mod.Uses, u.Name.Name)
		imp := b.opts.Imports[u.Name.Name]
		if imp == nil {
			b.errorf(diag.ModUnknownModule, u.Name.Span, "unknown unit %s", u.Name.Text)
			continue
		}
		if imp.Kind == hir.ModuleProgram {
			b.errorf(diag.ModImportProgram, u.Name.Span, "%s is a program and cannot be used", u.Name.Text)
			continue
		}
		scope := b.table.NewChild(symbols.ScopeExports, parent, symbols.NoSymbolID, u.Name.Span)
		for i := range imp.Symbols {
			sym := imp.Symbols[i]
			sym.Flags |= symbols.SymbolFlagImported
			b.table.Declare(scope, &sym, true)
		}
		b.unitScopes[u.Name.Name] = scope
		parent = scope
	}

	uses := b.table.NewChild(symbols.ScopeBlock, parent, symbols.NoSymbolID, file.Span)
	for _, u := range order {
		if _, ok := b.unitScopes[u.Name.Name]; ok {
			b.table.Declare(uses, &symbols.Symbol{Name: u.Name.Name, Display: u.Name.Text, Kind: symbols.SymbolUnit, Module: u.Name.Name, Span: u.Name.Span}, false)
		}
	}
	b.table.Declare(uses, &symbols.Symbol{Name: b.module, Display: file.Name.Text, Kind: symbols.SymbolUnit, Module: b.module, Span: file.Name.Span}, false)
	b.unitScope = b.table.NewChild(symbols.ScopeUnit, uses, symbols.NoSymbolID, file.Span)
	b.unitScopes[b.module] = b.unitScope
	b.scope = b.unitScope
}

func (b *Binder) declareBuiltins() {
	for _, bt := range []struct {
		name string
		id   types.TypeID
	}{
		{"integer", b.builtins.Integer},
		{"real", b.builtins.Real},
		{"boolean", b.builtins.Boolean},
		{"char", b.builtins.Char},
		{"string", b.builtins.String},
	} {
		b.table.Declare(b.builtinScope, &symbols.Symbol{Name: bt.name, Display: bt.name, Kind: symbols.SymbolType, Type: bt.id, Flags: symbols.SymbolFlagBuiltin}, false)
	}
	for _, name := range b.opts.Natives.Names() {
		b.table.Declare(b.builtinScope, &symbols.Symbol{Name: name, Display: name, Kind: symbols.SymbolNative, Native: name, Flags: symbols.SymbolFlagBuiltin}, true)
	}
}

func (b *Binder) newRoutine(name string, sym symbols.SymbolID, class types.TypeID, sp source.Span) *hir.Routine {
	r := &hir.Routine{
		Name:   name,
		Index:  len(b.mod.Routines),
		Symbol: sym,
		Result: -1,
		Class:  class,
		Span:   sp,
	}
	b.mod.Routines = append(b.mod.Routines, r)
	return r
}

func (b *Binder) collectExports() {
	sc := b.table.Scopes.Get(b.unitScope)
	for _, id := range sc.Symbols {
		if b.table.Get(id).Has(symbols.SymbolFlagExported) {
			b.mod.Exports = append(b.mod.Exports, id)
		} else {
			b.mod.Private = append(b.mod.Private, id)
		}
	}
}
