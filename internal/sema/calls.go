package sema

import (
	"fmt"
	"strings"

	"blaise/internal/ast"
	"blaise/internal/diag"
	"blaise/internal/hir"
	"blaise/internal/native"
	"blaise/internal/source"
	"blaise/internal/symbols"
	"blaise/internal/types"
	"blaise/internal/value"
)

// candidate is one overload considered by resolveOverload.
type candidate struct {
	sym    symbols.SymbolID
	method *types.Method
	native *native.Native
	sig    types.Signature
}

func (c candidate) arity(n int) bool {
	if c.native != nil {
		return c.native.Arity(n)
	}
	return len(c.sig.Params) == n
}

// bindCall binds callee(args).
func (b *Binder) bindCall(e *ast.CallExpr) *hir.Expr {
	switch callee := e.Callee.(type) {
	case *ast.NameExpr:
		res := b.resolve(callee.Name.Name)
		switch {
		case res.empty():
			b.errorf(diag.SemaUnresolvedIdentifier, callee.Name.Span, "undeclared identifier %s", callee.Name.Text)
			return nil
		case len(res.methods) > 0:
			this := b.thisExpr(callee.Name.Span)
			if this == nil {
				return nil
			}
			return b.methodCall(this, res.methods, e.Args, callee.Name, false, e.Span)
		case res.field != nil:
			this := b.thisExpr(callee.Name.Span)
			if this == nil {
				return nil
			}
			return b.indirectCall(b.fieldExpr(this, *res.field, callee.Name.Span), e.Args, e.Span)
		}
		return b.callResolved(res.syms, e.Args, callee.Name, e.Span)
	case *ast.MemberExpr:
		if unit, ok := b.unitQualifier(callee.X); ok {
			res := b.resolveIn(unit, callee.Name.Name)
			if res.empty() {
				b.errorf(diag.SemaUnknownMember, callee.Name.Span, "unit %s exports no %s", unit, callee.Name.Text)
				return nil
			}
			return b.callResolved(res.syms, e.Args, callee.Name, e.Span)
		}
		if _, isBase := callee.X.(*ast.BaseExpr); isBase {
			return b.baseCall(callee, e.Args, e.Span)
		}
		obj := b.bindExpr(callee.X, types.NoTypeID)
		if obj == nil {
			return nil
		}
		info, ok := b.in.ClassOf(obj.Type)
		if !ok {
			b.errorf(diag.SemaUnknownMember, callee.Name.Span, "%s has no members", b.in.String(obj.Type))
			return nil
		}
		if ms := b.in.LookupMethods(info.Type, callee.Name.Name); len(ms) > 0 {
			return b.methodCall(obj, ms, e.Args, callee.Name, false, e.Span)
		}
		if f, ok := b.in.LookupField(info.Type, callee.Name.Name); ok {
			return b.indirectCall(b.fieldExpr(obj, f, callee.Span), e.Args, e.Span)
		}
		b.errorf(diag.SemaUnknownMember, callee.Name.Span, "class %s has no member %s", info.Key.Name, callee.Name.Text)
		return nil
	}
	fn := b.bindExpr(e.Callee, types.NoTypeID)
	if fn == nil {
		return nil
	}
	return b.indirectCall(fn, e.Args, e.Span)
}

// callResolved calls the routines named by ids, or a procedural variable.
func (b *Binder) callResolved(ids []symbols.SymbolID, args []ast.Expr, id ast.Ident, sp source.Span) *hir.Expr {
	sym := b.table.Get(ids[0])
	switch sym.Kind {
	case symbols.SymbolVar, symbols.SymbolParam, symbols.SymbolConst:
		return b.indirectCall(b.storageOrConst(ids[0], id.Span), args, sp)
	case symbols.SymbolType, symbols.SymbolClass, symbols.SymbolUnit:
		b.errorf(diag.SemaNotCallable, id.Span, "%s cannot be called", b.describe(ids[0]))
		return nil
	}
	return b.callSymbols(ids, args, id, sp)
}

func (b *Binder) storageOrConst(id symbols.SymbolID, sp source.Span) *hir.Expr {
	sym := b.table.Get(id)
	if sym.Kind == symbols.SymbolConst {
		return constOf(sym.Const, sym.Type, sp)
	}
	return b.storageExpr(id, sp)
}

// callSymbols resolves an overloaded call among routines and natives.
func (b *Binder) callSymbols(ids []symbols.SymbolID, args []ast.Expr, id ast.Ident, sp source.Span) *hir.Expr {
	cands := make([]candidate, 0, len(ids))
	for _, sid := range ids {
		sym := b.table.Get(sid)
		switch {
		case sym.Kind == symbols.SymbolNative:
			n, ok := b.opts.Natives.Lookup(sym.Native)
			if ok {
				cands = append(cands, candidate{sym: sid, native: n})
			}
		case sym.Kind.IsRoutine():
			cands = append(cands, candidate{sym: sid, sig: sym.Sig})
		}
	}
	if len(cands) == 0 {
		b.errorf(diag.SemaNotCallable, id.Span, "%s is not callable", id.Text)
		return nil
	}
	bound, ok := b.bindArgs(cands, args)
	if !ok {
		return nil
	}
	c, found := b.resolveOverload(cands, bound)
	if !found {
		b.reportNoMatch(id, cands, bound, sp)
		return nil
	}
	if c.native != nil {
		return b.nativeCall(c.native, bound, sp)
	}
	sym := b.table.Get(c.sym)
	if b.inConst {
		b.errorf(diag.SemaNotAConstantExpression, sp, "call to %s is not constant", sym.Display)
		return nil
	}
	call := hir.CallData{
		Call:    hir.CallStatic,
		Routine: types.RoutineRef{Module: sym.Module, Index: sym.Routine},
		Args:    b.coerceArgs(bound, c.sig.Params),
		Name:    sym.Display,
	}
	return b.callExpr(call, c.sig.Result, sp)
}

func (b *Binder) callExpr(call hir.CallData, result types.TypeID, sp source.Span) *hir.Expr {
	if result == types.NoTypeID {
		result = b.builtins.Void
	}
	return &hir.Expr{Kind: hir.ExprCall, Type: result, Span: sp, Data: call}
}

// bindArgs binds arguments once. When every candidate of matching arity
// agrees on a parameter type it is used as the expected type, so routine
// names can be passed where a procedural parameter is expected.
func (b *Binder) bindArgs(cands []candidate, args []ast.Expr) ([]*hir.Expr, bool) {
	out := make([]*hir.Expr, len(args))
	ok := true
	for i, a := range args {
		want := types.NoTypeID
		for _, c := range cands {
			if c.native != nil || !c.arity(len(args)) {
				continue
			}
			switch {
			case want == types.NoTypeID:
				want = c.sig.Params[i]
			case want != c.sig.Params[i]:
				want = types.NoTypeID
			}
			if want == types.NoTypeID {
				break
			}
		}
		if !b.in.MustLookup(want).IsRoutine() {
			want = types.NoTypeID
		}
		out[i] = b.bindExpr(a, want)
		if out[i] == nil {
			ok = false
		}
	}
	return out, ok
}

// resolveOverload filters by arity, then tries an exact pass and a
// widening pass; the first survivor in declaration order wins.
func (b *Binder) resolveOverload(cands []candidate, args []*hir.Expr) (candidate, bool) {
	for _, pass := range []types.Compat{types.CompatExact, types.CompatWidening} {
		for _, c := range cands {
			if !c.arity(len(args)) {
				continue
			}
			if c.native != nil {
				if b.nativeAccepts(c.native, args) {
					return c, true
				}
				continue
			}
			if b.matches(c.sig.Params, args, pass) {
				return c, true
			}
		}
	}
	return candidate{}, false
}

func (b *Binder) matches(params []types.TypeID, args []*hir.Expr, pass types.Compat) bool {
	for i, a := range args {
		if b.accepts(a, params[i]) < pass {
			return false
		}
	}
	return true
}

func (b *Binder) nativeAccepts(n *native.Native, args []*hir.Expr) bool {
	for i, a := range args {
		if !n.Param(i).Accepts(b.in.Kind(a.Type)) {
			return false
		}
	}
	return true
}

func (b *Binder) coerceArgs(args []*hir.Expr, params []types.TypeID) []*hir.Expr {
	out := make([]*hir.Expr, len(args))
	for i, a := range args {
		out[i] = b.coerce(a, params[i], a.Span)
	}
	return out
}

func (b *Binder) reportNoMatch(id ast.Ident, cands []candidate, args []*hir.Expr, sp source.Span) {
	argTypes := make([]string, len(args))
	for i, a := range args {
		argTypes[i] = b.in.String(a.Type)
	}
	rb := diag.ReportErrorf(b.reporter, diag.SemaNoMatchingOverload, sp, "no overload of %s accepts (%s)", id.Text, strings.Join(argTypes, ", "))
	for _, c := range cands {
		switch {
		case c.sym.IsValid() && c.native == nil:
			sym := b.table.Get(c.sym)
			rb.WithNote(sym.Span, "candidate: "+b.in.String(sym.Type))
		case c.method != nil:
			rb.WithNote(source.Span{}, "candidate: "+c.method.Selector)
		}
	}
	rb.Emit()
}

func (b *Binder) nativeResult(n *native.Native, args []*hir.Expr) types.TypeID {
	switch n.Result {
	case native.ResultInt:
		return b.builtins.Integer
	case native.ResultReal:
		return b.builtins.Real
	case native.ResultChar:
		return b.builtins.Char
	case native.ResultString:
		return b.builtins.String
	case native.ResultBool:
		return b.builtins.Boolean
	case native.ResultArg0:
		return args[0].Type
	}
	return types.NoTypeID
}

// nativeCall folds pure natives over constant arguments.
func (b *Binder) nativeCall(n *native.Native, args []*hir.Expr, sp source.Span) *hir.Expr {
	result := b.nativeResult(n, args)
	if n.Pure && allConst(args) {
		vals := make([]value.Value, len(args))
		for i, a := range args {
			vals[i] = a.ConstValue()
		}
		if v, err := n.Fn(nil, vals); err == nil {
			return constOf(v, result, sp)
		}
	}
	if b.inConst {
		b.errorf(diag.SemaNotAConstantExpression, sp, "call to %s is not constant", n.Name)
		return nil
	}
	return b.callExpr(hir.CallData{Call: hir.CallNative, Native: n.Name, Args: args, Name: n.Name}, result, sp)
}

func allConst(args []*hir.Expr) bool {
	for _, a := range args {
		if !a.IsConst() {
			return false
		}
	}
	return true
}

// methodCall resolves a call on receiver obj among the visible methods.
func (b *Binder) methodCall(obj *hir.Expr, methods []types.Method, args []ast.Expr, id ast.Ident, viaBase bool, sp source.Span) *hir.Expr {
	if b.inConst {
		b.errorf(diag.SemaNotAConstantExpression, sp, "method call is not constant")
		return nil
	}
	cands := make([]candidate, len(methods))
	for i := range methods {
		cands[i] = candidate{method: &methods[i], sig: methods[i].Sig}
	}
	bound, ok := b.bindArgs(cands, args)
	if !ok {
		return nil
	}
	c, found := b.resolveOverload(cands, bound)
	if !found {
		b.reportNoMatch(id, cands, bound, sp)
		return nil
	}
	m := c.method
	call := hir.CallData{
		Call:    hir.CallStatic,
		Routine: m.Routine,
		Slot:    m.Slot,
		Args:    append([]*hir.Expr{obj}, b.coerceArgs(bound, m.Sig.Params)...),
		Name:    m.Selector,
	}
	if m.Slot >= 0 && !viaBase {
		call.Call = hir.CallVirtual
	}
	return b.callExpr(call, m.Sig.Result, sp)
}

// baseCall binds base.Name(args): a static call of the inherited method
// with this as receiver.
func (b *Binder) baseCall(e *ast.MemberExpr, args []ast.Expr, sp source.Span) *hir.Expr {
	this := b.thisExpr(e.X.ExprSpan())
	if this == nil {
		return nil
	}
	info, _ := b.in.ClassInfo(b.rt.class)
	if info.Base == types.NoTypeID {
		b.errorf(diag.SemaBaseWithoutInheritance, e.X.ExprSpan(), "class %s has no base class", info.Key.Name)
		return nil
	}
	ms := b.in.LookupMethods(info.Base, e.Name.Name)
	if len(ms) == 0 {
		if f, ok := b.in.LookupField(info.Base, e.Name.Name); ok {
			return b.fieldExpr(this, f, sp)
		}
		base, _ := b.in.ClassInfo(info.Base)
		b.errorf(diag.SemaUnknownMember, e.Name.Span, "class %s has no member %s", base.Key.Name, e.Name.Text)
		return nil
	}
	return b.methodCall(this, ms, args, e.Name, true, sp)
}

// indirectCall calls a routine value.
func (b *Binder) indirectCall(fn *hir.Expr, args []ast.Expr, sp source.Span) *hir.Expr {
	if fn == nil {
		return nil
	}
	sig, ok := b.in.Signature(fn.Type)
	if !ok {
		b.errorf(diag.SemaNotCallable, fn.Span, "%s is not callable", b.in.String(fn.Type))
		return nil
	}
	if len(args) != len(sig.Params) {
		b.errorf(diag.SemaNoMatchingOverload, sp, "%s expects %d arguments, got %d", b.in.String(fn.Type), len(sig.Params), len(args))
		return nil
	}
	if b.inConst {
		b.errorf(diag.SemaNotAConstantExpression, sp, "call is not constant")
		return nil
	}
	bound := make([]*hir.Expr, len(args))
	for i, a := range args {
		want := sig.Params[i]
		bound[i] = b.coerce(b.bindExpr(a, want), want, a.ExprSpan())
		if bound[i] == nil {
			return nil
		}
	}
	return b.callExpr(hir.CallData{Call: hir.CallIndirect, Callee: fn, Args: bound, Name: fmt.Sprintf("<%s>", b.in.String(fn.Type))}, sig.Result, sp)
}
