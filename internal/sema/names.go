package sema

import (
	"fmt"

	"blaise/internal/ast"
	"blaise/internal/diag"
	"blaise/internal/hir"
	"blaise/internal/source"
	"blaise/internal/symbols"
	"blaise/internal/types"
)

// resolution is the outcome of looking a name up from the current scope.
// Inside a method, members of the class (and its bases) are found after
// parameters and locals but before unit-level names.
type resolution struct {
	syms    []symbols.SymbolID
	field   *types.Field
	methods []types.Method
}

func (r resolution) empty() bool {
	return len(r.syms) == 0 && r.field == nil && len(r.methods) == 0
}

func (b *Binder) resolve(name string) resolution {
	for cur := b.scope; cur.IsValid(); {
		sc := b.table.Scopes.Get(cur)
		if ids := sc.NameIndex[name]; len(ids) > 0 {
			return resolution{syms: ids}
		}
		if b.rt != nil && cur == b.rt.scope && b.rt.class != types.NoTypeID {
			if f, ok := b.in.LookupField(b.rt.class, name); ok {
				return resolution{field: &f}
			}
			if ms := b.in.LookupMethods(b.rt.class, name); len(ms) > 0 {
				return resolution{methods: ms}
			}
		}
		cur = sc.Parent
	}
	return resolution{}
}

// resolveIn looks name up in the export scope of unit.
func (b *Binder) resolveIn(unit string, name string) resolution {
	scope, ok := b.unitScopes[unit]
	if !ok {
		return resolution{}
	}
	return resolution{syms: b.table.LookupLocal(scope, name)}
}

func (b *Binder) thisExpr(sp source.Span) *hir.Expr {
	if b.rt == nil || b.rt.class == types.NoTypeID {
		b.errorf(diag.SemaThisOutsideMethod, sp, "this is only available inside methods")
		return nil
	}
	return &hir.Expr{Kind: hir.ExprLocal, Type: b.rt.class, Span: sp, Data: hir.LocalData{Slot: 0, Symbol: b.thisSymbol()}}
}

func (b *Binder) thisSymbol() symbols.SymbolID {
	ids := b.table.LookupLocal(b.rt.scope, "this")
	if len(ids) == 0 {
		return symbols.NoSymbolID
	}
	return ids[0]
}

// bindName binds an identifier used as a value.
func (b *Binder) bindName(id ast.Ident, want types.TypeID) *hir.Expr {
	return b.bindResolved(b.resolve(id.Name), id, want)
}

func (b *Binder) bindResolved(res resolution, id ast.Ident, want types.TypeID) *hir.Expr {
	switch {
	case res.empty():
		b.errorf(diag.SemaUnresolvedIdentifier, id.Span, "undeclared identifier %s", id.Text)
		return nil
	case res.field != nil:
		this := b.thisExpr(id.Span)
		if this == nil {
			return nil
		}
		return b.fieldExpr(this, *res.field, id.Span)
	case len(res.methods) > 0:
		this := b.thisExpr(id.Span)
		if this == nil {
			return nil
		}
		return b.methodCall(this, res.methods, nil, id, false, id.Span)
	}
	sym := b.table.Get(res.syms[0])
	switch sym.Kind {
	case symbols.SymbolConst:
		return constOf(sym.Const, sym.Type, id.Span)
	case symbols.SymbolVar, symbols.SymbolParam:
		return b.storageExpr(res.syms[0], id.Span)
	case symbols.SymbolType, symbols.SymbolClass:
		b.errorf(diag.SemaTypeMismatch, id.Span, "type %s used as a value", id.Text)
		return nil
	case symbols.SymbolUnit:
		b.errorf(diag.SemaTypeMismatch, id.Span, "unit %s used as a value", id.Text)
		return nil
	}
	if b.in.MustLookup(want).IsRoutine() {
		return b.routineValue(res.syms, id, want)
	}
	return b.callSymbols(res.syms, nil, id, id.Span)
}

// storageExpr reads a variable or parameter.
func (b *Binder) storageExpr(id symbols.SymbolID, sp source.Span) *hir.Expr {
	sym := b.table.Get(id)
	if sym.Has(symbols.SymbolFlagGlobal) {
		return &hir.Expr{Kind: hir.ExprGlobal, Type: sym.Type, Span: sp, Data: hir.GlobalData{Symbol: id, Module: sym.Module, Slot: sym.Slot, Name: sym.Display}}
	}
	return &hir.Expr{Kind: hir.ExprLocal, Type: sym.Type, Span: sp, Data: hir.LocalData{Symbol: id, Slot: sym.Slot}}
}

func (b *Binder) fieldExpr(obj *hir.Expr, f types.Field, sp source.Span) *hir.Expr {
	return &hir.Expr{Kind: hir.ExprField, Type: f.Type, Span: sp, Data: hir.FieldData{Object: obj, Name: f.Name, Offset: f.Offset}}
}

// routineValue picks the overload whose procedural type equals want.
func (b *Binder) routineValue(ids []symbols.SymbolID, id ast.Ident, want types.TypeID) *hir.Expr {
	var fallback *symbols.Symbol
	for _, sid := range ids {
		sym := b.table.Get(sid)
		if sym.Kind == symbols.SymbolNative {
			continue
		}
		if want == types.NoTypeID || sym.Type == want {
			return &hir.Expr{Kind: hir.ExprRoutine, Type: sym.Type, Span: id.Span, Data: hir.RoutineData{
				Routine: types.RoutineRef{Module: sym.Module, Index: sym.Routine},
				Name:    sym.Display,
			}}
		}
		if fallback == nil {
			fallback = sym
		}
	}
	if fallback == nil {
		b.errorf(diag.SemaNotCallable, id.Span, "%s cannot be used as a routine value", id.Text)
		return nil
	}
	b.errorf(diag.SemaTypeMismatch, id.Span, "cannot use %s as %s", b.in.String(fallback.Type), b.in.String(want))
	return nil
}

// bindMember binds X.Name used as a value: a unit-qualified name, a field,
// or a method called without arguments.
func (b *Binder) bindMember(e *ast.MemberExpr, want types.TypeID) *hir.Expr {
	if unit, ok := b.unitQualifier(e.X); ok {
		res := b.resolveIn(unit, e.Name.Name)
		if res.empty() {
			b.errorf(diag.SemaUnknownMember, e.Name.Span, "unit %s exports no %s", unit, e.Name.Text)
			return nil
		}
		return b.bindResolved(res, e.Name, want)
	}
	if _, isBase := e.X.(*ast.BaseExpr); isBase {
		return b.baseCall(e, nil, e.Span)
	}
	obj := b.bindExpr(e.X, types.NoTypeID)
	if obj == nil {
		return nil
	}
	info, ok := b.in.ClassOf(obj.Type)
	if !ok {
		b.errorf(diag.SemaUnknownMember, e.Name.Span, "%s has no members", b.in.String(obj.Type))
		return nil
	}
	if f, ok := b.in.LookupField(info.Type, e.Name.Name); ok {
		return b.fieldExpr(obj, f, e.Span)
	}
	if ms := b.in.LookupMethods(info.Type, e.Name.Name); len(ms) > 0 {
		return b.methodCall(obj, ms, nil, e.Name, false, e.Span)
	}
	b.errorf(diag.SemaUnknownMember, e.Name.Span, "class %s has no member %s", info.Key.Name, e.Name.Text)
	return nil
}

// unitQualifier reports whether x names a unit rather than a value.
func (b *Binder) unitQualifier(x ast.Expr) (string, bool) {
	n, ok := x.(*ast.NameExpr)
	if !ok {
		return "", false
	}
	res := b.resolve(n.Name.Name)
	if len(res.syms) == 0 {
		return "", false
	}
	sym := b.table.Get(res.syms[0])
	if sym.Kind != symbols.SymbolUnit {
		return "", false
	}
	return sym.Module, true
}

func (b *Binder) describe(id symbols.SymbolID) string {
	sym := b.table.Get(id)
	return fmt.Sprintf("%s %s", sym.Kind, sym.Display)
}
