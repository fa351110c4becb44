package sema

import (
	"fmt"

	"blaise/internal/ast"
	"blaise/internal/diag"
	"blaise/internal/hir"
	"blaise/internal/symbols"
	"blaise/internal/types"
	"blaise/internal/value"
)

func exportFlag(exported bool) symbols.SymbolFlags {
	if exported {
		return symbols.SymbolFlagExported
	}
	return 0
}

// declare binds sym in scope and reports a conflict. It returns NoSymbolID
// when the name was already taken.
func (b *Binder) declare(scope symbols.ScopeID, sym *symbols.Symbol, overload bool) symbols.SymbolID {
	id, prev := b.table.Declare(scope, sym, overload)
	if id.IsValid() {
		return id
	}
	code := diag.SemaDuplicateSymbol
	if sym.Kind.IsTypeName() {
		code = diag.SemaDuplicateType
	}
	other := b.table.Get(prev)
	b.errorNote(code, sym.Span, fmt.Sprintf("%s is already declared in this scope", sym.Display), other.Span, "previous declaration")
	return symbols.NoSymbolID
}

// MakeConstantID binds a constant with its folded value.
func (b *Binder) MakeConstantID(scope symbols.ScopeID, name ast.Ident, typ types.TypeID, v value.Value, exported bool) symbols.SymbolID {
	return b.declare(scope, &symbols.Symbol{
		Name: name.Name, Display: name.Text, Kind: symbols.SymbolConst, Type: typ,
		Const: v, Span: name.Span, Module: b.module, Flags: exportFlag(exported),
	}, false)
}

// MakeTypeID binds a type name. Class types get SymbolClass.
func (b *Binder) MakeTypeID(scope symbols.ScopeID, name ast.Ident, typ types.TypeID, exported bool) symbols.SymbolID {
	kind := symbols.SymbolType
	if b.in.Kind(typ) == types.KindClass {
		kind = symbols.SymbolClass
	}
	return b.declare(scope, &symbols.Symbol{
		Name: name.Name, Display: name.Text, Kind: kind, Type: typ,
		Span: name.Span, Module: b.module, Flags: exportFlag(exported),
	}, false)
}

// MakeVariableID binds a variable. At unit level it takes the next global
// slot, inside a routine the next frame slot.
func (b *Binder) MakeVariableID(scope symbols.ScopeID, name ast.Ident, typ types.TypeID, exported bool) symbols.SymbolID {
	sym := &symbols.Symbol{
		Name: name.Name, Display: name.Text, Kind: symbols.SymbolVar, Type: typ,
		Span: name.Span, Module: b.module, Flags: exportFlag(exported),
	}
	if b.rt == nil {
		sym.Flags |= symbols.SymbolFlagGlobal
		sym.Slot = len(b.mod.Globals)
	} else {
		sym.Slot = len(b.rt.routine.Slots)
	}
	id := b.declare(scope, sym, false)
	if !id.IsValid() {
		return id
	}
	slot := hir.Slot{Name: name.Text, Type: typ}
	if b.rt == nil {
		b.mod.Globals = append(b.mod.Globals, slot)
	} else {
		b.rt.routine.Slots = append(b.rt.routine.Slots, slot)
	}
	return id
}

// MakeFunctionID binds a free procedure or function and allocates its
// routine. Overloads with distinct parameter types may share a name.
func (b *Binder) MakeFunctionID(scope symbols.ScopeID, h *ast.RoutineHeader, sig types.Signature, exported, forward bool) symbols.SymbolID {
	kind := symbols.SymbolProcedure
	if sig.Result != types.NoTypeID {
		kind = symbols.SymbolFunction
	}
	sym := &symbols.Symbol{
		Name: h.Name.Name, Display: h.Name.Text, Kind: kind, Type: b.in.Routine(sig),
		Span: h.Name.Span, Module: b.module, Sig: sig, Flags: exportFlag(exported),
	}
	if forward {
		sym.Flags |= symbols.SymbolFlagForward
	}
	sym.Routine = len(b.mod.Routines)
	id := b.declare(scope, sym, true)
	if !id.IsValid() {
		return id
	}
	b.newRoutine(h.Name.Text, id, types.NoTypeID, h.Span)
	return id
}

// MakeField binds a field in a class body scope.
func (b *Binder) MakeField(classScope symbols.ScopeID, class types.TypeID, name ast.Ident, typ types.TypeID) symbols.SymbolID {
	return b.declare(classScope, &symbols.Symbol{
		Name: name.Name, Display: name.Text, Kind: symbols.SymbolField, Type: typ,
		Span: name.Span, Module: b.module, Class: class,
	}, false)
}

// MakeMethod binds a method header in a class body scope and allocates its
// routine.
func (b *Binder) MakeMethod(classScope symbols.ScopeID, class types.TypeID, h *ast.RoutineHeader, sig types.Signature) symbols.SymbolID {
	info, _ := b.in.ClassInfo(class)
	sym := &symbols.Symbol{
		Name: h.Name.Name, Display: h.Name.Text, Kind: symbols.SymbolMethod, Type: b.in.Routine(sig),
		Span: h.Name.Span, Module: b.module, Class: class, Sig: sig,
		Flags: symbols.SymbolFlagForward, Routine: len(b.mod.Routines),
	}
	sel := b.in.SelectorOf(sym.Name, sig.Params)
	for _, prev := range b.table.LookupLocal(classScope, sym.Name) {
		p := b.table.Get(prev)
		if p.Kind != symbols.SymbolMethod || b.in.SelectorOf(p.Name, p.Sig.Params) == sel {
			b.errorNote(diag.SemaDuplicateSymbol, h.Name.Span, fmt.Sprintf("%s is already declared in this class", sel), p.Span, "previous declaration")
			return symbols.NoSymbolID
		}
	}
	id := b.declare(classScope, sym, true)
	if !id.IsValid() {
		return id
	}
	b.newRoutine(info.Key.Name+"."+h.Name.Text, id, class, h.Span)
	return id
}

func (b *Binder) declareAll(decls []ast.Decl, exported bool) {
	for _, d := range decls {
		switch d := d.(type) {
		case *ast.ConstDecl:
			b.declareConst(b.unitScope, d, exported)
		case *ast.TypeDecl:
			if _, isClass := d.Type.(*ast.ClassType); isClass {
				continue
			}
			if typ := b.resolveType(d.Type); typ != types.NoTypeID {
				b.MakeTypeID(b.unitScope, d.Name, typ, exported)
			}
		case *ast.VarDecl:
			b.declareVars(b.unitScope, d, exported)
		case *ast.RoutineDecl:
			if d.Header.Class != nil {
				b.methods = append(b.methods, d)
				continue
			}
			b.declareRoutine(d, exported)
		}
	}
}

func (b *Binder) declareConst(scope symbols.ScopeID, d *ast.ConstDecl, exported bool) {
	want := types.NoTypeID
	if d.Type != nil {
		want = b.resolveType(d.Type)
	}
	e := b.constExpr(d.Value, want)
	if e == nil {
		return
	}
	if want != types.NoTypeID {
		if e = b.coerce(e, want, d.Value.ExprSpan()); e == nil {
			return
		}
	} else {
		want = e.Type
	}
	b.MakeConstantID(scope, d.Name, want, e.ConstValue(), exported)
}

func (b *Binder) declareVars(scope symbols.ScopeID, d *ast.VarDecl, exported bool) {
	typ := b.resolveType(d.Type)
	if typ == types.NoTypeID {
		return
	}
	for _, name := range d.Names {
		b.MakeVariableID(scope, name, typ, exported)
	}
}

func (b *Binder) declareRoutine(d *ast.RoutineDecl, exported bool) {
	h := d.Header
	if h.Kind == ast.RoutineConstructor {
		b.errorf(diag.SemaNotAClass, h.Name.Span, "constructor %s must be declared inside a class", h.Name.Text)
		return
	}
	if h.Directives != 0 {
		b.errorf(diag.SemaBadOverride, h.Name.Span, "virtual and override apply only to methods")
	}
	sig, ok := b.resolveSignature(h.Params, h.Result)
	if !ok {
		return
	}
	sel := b.in.SelectorOf(h.Name.Name, sig.Params)
	for _, prevID := range b.table.LookupLocal(b.unitScope, h.Name.Name) {
		prev := b.table.Get(prevID)
		if !prev.Kind.IsRoutine() || b.in.SelectorOf(prev.Name, prev.Sig.Params) != sel {
			continue
		}
		if prev.Has(symbols.SymbolFlagForward) && d.Body != nil {
			if prev.Sig.Result != sig.Result {
				b.errorNote(diag.SemaTypeMismatch, h.Span, fmt.Sprintf("result type of %s differs from its declaration", h.Name.Text), prev.Span, "declared here")
				return
			}
			prev.Flags &^= symbols.SymbolFlagForward
			b.queueBody(b.mod.Routines[prev.Routine], d, prevID, types.NoTypeID, sig)
			return
		}
		b.errorNote(diag.SemaDuplicateSymbol, h.Name.Span, fmt.Sprintf("%s is already declared", sel), prev.Span, "previous declaration")
		return
	}
	id := b.MakeFunctionID(b.unitScope, h, sig, exported, d.Body == nil)
	if !id.IsValid() || d.Body == nil {
		return
	}
	sym := b.table.Get(id)
	b.queueBody(b.mod.Routines[sym.Routine], d, id, types.NoTypeID, sig)
}

func (b *Binder) queueBody(r *hir.Routine, d *ast.RoutineDecl, sym symbols.SymbolID, class types.TypeID, sig types.Signature) {
	r.HasBody = true
	r.Span = d.Span
	b.bodies = append(b.bodies, &pendingBody{routine: r, decl: d, sym: sym, class: class, kind: d.Header.Kind, sig: sig})
}

// checkBodies reports routines and methods declared without implementation.
func (b *Binder) checkBodies() {
	for _, r := range b.mod.Routines {
		if r.HasBody || !r.Symbol.IsValid() {
			continue
		}
		sym := b.table.Get(r.Symbol)
		b.errorf(diag.SemaMissingBody, sym.Span, "%s is declared but never implemented", r.Name)
	}
}

// declareLocals binds the const/type/var sections of a routine.
func (b *Binder) declareLocals(decls []ast.Decl) {
	for _, d := range decls {
		switch d := d.(type) {
		case *ast.ConstDecl:
			b.declareConst(b.scope, d, false)
		case *ast.TypeDecl:
			if _, isClass := d.Type.(*ast.ClassType); isClass {
				b.errorf(diag.SemaNotAType, d.Name.Span, "class %s must be declared at unit level", d.Name.Text)
				continue
			}
			if typ := b.resolveType(d.Type); typ != types.NoTypeID {
				b.MakeTypeID(b.scope, d.Name, typ, false)
			}
		case *ast.VarDecl:
			b.declareVars(b.scope, d, false)
		case *ast.RoutineDecl:
			b.errorf(diag.SynUnexpectedToken, d.Span, "nested routines are not supported")
		}
	}
}
