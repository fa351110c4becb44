package sema

import (
	"strconv"
	"strings"

	"blaise/internal/ast"
	"blaise/internal/diag"
	"blaise/internal/hir"
	"blaise/internal/source"
	"blaise/internal/symbols"
	"blaise/internal/token"
	"blaise/internal/types"
	"blaise/internal/value"
)

// bindExpr binds e. want is a hint used where the expression alone is
// ambiguous (routine names used as values); callers still coerce.
func (b *Binder) bindExpr(e ast.Expr, want types.TypeID) *hir.Expr {
	switch e := e.(type) {
	case *ast.Literal:
		return b.bindLiteral(e)
	case *ast.NameExpr:
		return b.bindName(e.Name, want)
	case *ast.ThisExpr:
		if b.inConst {
			b.errorf(diag.SemaNotAConstantExpression, e.Span, "this is not constant")
			return nil
		}
		return b.thisExpr(e.Span)
	case *ast.BaseExpr:
		if b.thisExpr(e.Span) == nil {
			return nil
		}
		b.errorf(diag.SemaBadOperand, e.Span, "base can only be used to reach an inherited member")
		return nil
	case *ast.UnaryExpr:
		return b.bindUnary(e)
	case *ast.BinaryExpr:
		return b.bindBinary(e)
	case *ast.MemberExpr:
		return b.bindMember(e, want)
	case *ast.IndexExpr:
		return b.bindIndex(e)
	case *ast.CallExpr:
		return b.bindCall(e)
	case *ast.DerefExpr:
		return b.bindDeref(e)
	case *ast.NewExpr:
		return b.bindNew(e)
	case *ast.AddrExpr:
		return b.bindAddr(e, want)
	}
	return nil
}

func (b *Binder) bindLiteral(e *ast.Literal) *hir.Expr {
	switch e.Kind {
	case ast.LitInt:
		n, err := strconv.ParseInt(e.Text, 10, 64)
		if err != nil {
			b.errorf(diag.SemaBadOperand, e.Span, "integer literal %s out of range", e.Text)
			return nil
		}
		return constOf(value.Int(n), b.builtins.Integer, e.Span)
	case ast.LitReal:
		f, err := strconv.ParseFloat(e.Text, 64)
		if err != nil {
			b.errorf(diag.SemaBadOperand, e.Span, "malformed real literal %s", e.Text)
			return nil
		}
		return constOf(value.Real(f), b.builtins.Real, e.Span)
	case ast.LitString:
		return constOf(value.String(e.Text), b.builtins.String, e.Span)
	case ast.LitChar:
		r := []rune(e.Text)
		if len(r) != 1 {
			return constOf(value.String(e.Text), b.builtins.String, e.Span)
		}
		return constOf(value.Char(r[0]), b.builtins.Char, e.Span)
	case ast.LitBool:
		return constOf(value.Bool(strings.EqualFold(e.Text, "true")), b.builtins.Boolean, e.Span)
	case ast.LitNil:
		return constOf(value.Nil(), b.builtins.Nil, e.Span)
	}
	return nil
}

// operand binds e and rejects procedure calls used as values.
func (b *Binder) operand(e ast.Expr) *hir.Expr {
	x := b.bindExpr(e, types.NoTypeID)
	if x != nil && x.Type == b.builtins.Void {
		b.errorf(diag.SemaTypeMismatch, e.ExprSpan(), "procedure call used as a value")
		return nil
	}
	return x
}

var binaryOps = map[token.Kind]hir.Op{
	token.Plus:  hir.OpAdd,
	token.Minus: hir.OpSub,
	token.Star:  hir.OpMul,
	token.Slash: hir.OpRealDiv,
	token.KwDiv: hir.OpDiv,
	token.KwMod: hir.OpMod,
	token.KwAnd: hir.OpAnd,
	token.KwOr:  hir.OpOr,
	token.KwXor: hir.OpXor,
	token.KwShl: hir.OpShl,
	token.KwShr: hir.OpShr,
	token.Eq:    hir.OpEq,
	token.NotEq: hir.OpNotEq,
	token.Lt:    hir.OpLt,
	token.LtEq:  hir.OpLtEq,
	token.Gt:    hir.OpGt,
	token.GtEq:  hir.OpGtEq,
}

func (b *Binder) bindUnary(e *ast.UnaryExpr) *hir.Expr {
	x := b.operand(e.Operand)
	if x == nil {
		return nil
	}
	t := b.in.MustLookup(x.Type)
	var op hir.Op
	switch e.Op {
	case token.Plus:
		if !t.IsNumeric() {
			b.errorf(diag.SemaBadOperand, e.Span, "unary + needs a number, got %s", b.in.String(x.Type))
			return nil
		}
		return x
	case token.Minus:
		if !t.IsNumeric() {
			b.errorf(diag.SemaBadOperand, e.Span, "unary - needs a number, got %s", b.in.String(x.Type))
			return nil
		}
		op = hir.OpNeg
	case token.KwNot:
		if t.Kind != types.KindBool && t.Kind != types.KindInt {
			b.errorf(diag.SemaBadOperand, e.Span, "not needs a boolean or integer, got %s", b.in.String(x.Type))
			return nil
		}
		op = hir.OpNot
	default:
		b.errorf(diag.SemaBadOperand, e.Span, "unknown unary operator %s", e.Op)
		return nil
	}
	if x.IsConst() {
		if v, ok := foldUnary(op, x.ConstValue()); ok {
			return constOf(v, x.Type, e.Span)
		}
	}
	return &hir.Expr{Kind: hir.ExprUnary, Type: x.Type, Span: e.Span, Data: hir.UnaryData{Op: op, Operand: x}}
}

func (b *Binder) bindBinary(e *ast.BinaryExpr) *hir.Expr {
	op, known := binaryOps[e.Op]
	l := b.operand(e.Left)
	r := b.operand(e.Right)
	if l == nil || r == nil {
		return nil
	}
	if !known {
		b.errorf(diag.SemaBadOperand, e.Span, "unknown binary operator %s", e.Op)
		return nil
	}
	l, r, result, ok := b.typeBinary(op, l, r)
	if !ok {
		b.errorf(diag.SemaBadOperand, e.Span, "operator %s is not defined for %s and %s", op, b.in.String(l.Type), b.in.String(r.Type))
		return nil
	}
	if op == hir.OpAdd && result == b.builtins.String {
		op = hir.OpConcat
	}
	if l.IsConst() && r.IsConst() {
		if v, ok := foldBinary(op, l.ConstValue(), r.ConstValue()); ok {
			return constOf(v, result, e.Span)
		}
	}
	return &hir.Expr{Kind: hir.ExprBinary, Type: result, Span: e.Span, Data: hir.BinaryData{Op: op, Left: l, Right: r}}
}

// typeBinary checks operand types, inserts conversions and returns the
// result type.
func (b *Binder) typeBinary(op hir.Op, l, r *hir.Expr) (*hir.Expr, *hir.Expr, types.TypeID, bool) {
	lt, rt := b.in.MustLookup(l.Type), b.in.MustLookup(r.Type)
	bothInt := lt.Kind == types.KindInt && rt.Kind == types.KindInt
	bothBool := lt.Kind == types.KindBool && rt.Kind == types.KindBool
	text := func(t types.Type) bool { return t.Kind == types.KindChar || t.Kind == types.KindString }

	switch {
	case op == hir.OpAdd && text(lt) && text(rt):
		return b.charToString(l), b.charToString(r), b.builtins.String, true
	case op == hir.OpAdd, op == hir.OpSub, op == hir.OpMul:
		if bothInt {
			return l, r, b.builtins.Integer, true
		}
		if lt.IsNumeric() && rt.IsNumeric() {
			return b.toReal(l), b.toReal(r), b.builtins.Real, true
		}
	case op == hir.OpRealDiv:
		if lt.IsNumeric() && rt.IsNumeric() {
			return b.toReal(l), b.toReal(r), b.builtins.Real, true
		}
	case op == hir.OpDiv, op == hir.OpMod, op == hir.OpShl, op == hir.OpShr:
		if bothInt {
			return l, r, b.builtins.Integer, true
		}
	case op == hir.OpAnd, op == hir.OpOr, op == hir.OpXor:
		if bothBool {
			return l, r, b.builtins.Boolean, true
		}
		if bothInt {
			return l, r, b.builtins.Integer, true
		}
	case op.IsComparison():
		equality := op == hir.OpEq || op == hir.OpNotEq
		if !b.in.Comparable(l.Type, r.Type, equality) {
			return l, r, types.NoTypeID, false
		}
		switch {
		case lt.IsNumeric() && rt.IsNumeric() && !bothInt:
			l, r = b.toReal(l), b.toReal(r)
		case text(lt) && text(rt) && lt.Kind != rt.Kind:
			l, r = b.charToString(l), b.charToString(r)
		}
		return l, r, b.builtins.Boolean, true
	}
	return l, r, types.NoTypeID, false
}

func (b *Binder) toReal(e *hir.Expr) *hir.Expr {
	if b.in.Kind(e.Type) == types.KindInt {
		return b.intToReal(e)
	}
	return e
}

func (b *Binder) bindIndex(e *ast.IndexExpr) *hir.Expr {
	x := b.operand(e.X)
	idx := b.operand(e.Index)
	if x == nil || idx == nil {
		return nil
	}
	if idx = b.coerce(idx, b.builtins.Integer, e.Index.ExprSpan()); idx == nil {
		return nil
	}
	t := b.in.MustLookup(x.Type)
	switch t.Kind {
	case types.KindString:
		if x.IsConst() && idx.IsConst() {
			runes := []rune(x.ConstValue().Str)
			if i := idx.ConstValue().Int; i >= 0 && i < int64(len(runes)) {
				return constOf(value.Char(runes[i]), b.builtins.Char, e.Span)
			}
		}
		return &hir.Expr{Kind: hir.ExprIndex, Type: b.builtins.Char, Span: e.Span, Data: hir.IndexData{Object: x, Index: idx, String: true}}
	case types.KindArray:
		if b.inConst {
			b.errorf(diag.SemaNotAConstantExpression, e.Span, "array element is not constant")
			return nil
		}
		return &hir.Expr{Kind: hir.ExprIndex, Type: t.Elem, Span: e.Span, Data: hir.IndexData{Object: x, Index: idx}}
	}
	b.errorf(diag.SemaBadOperand, e.X.ExprSpan(), "%s cannot be indexed", b.in.String(x.Type))
	return nil
}

// bindDeref binds p^. A pointer to a class already is the object
// reference, so dereferencing it only changes the static type.
func (b *Binder) bindDeref(e *ast.DerefExpr) *hir.Expr {
	p := b.operand(e.X)
	if p == nil {
		return nil
	}
	t := b.in.MustLookup(p.Type)
	if t.Kind != types.KindPointer {
		b.errorf(diag.SemaBadOperand, e.Span, "%s is not a pointer", b.in.String(p.Type))
		return nil
	}
	if b.in.Kind(t.Elem) == types.KindClass {
		out := *p
		out.Type = t.Elem
		out.Span = e.Span
		return &out
	}
	return &hir.Expr{Kind: hir.ExprDeref, Type: t.Elem, Span: e.Span, Data: hir.DerefData{Pointer: p}}
}

func (b *Binder) bindNew(e *ast.NewExpr) *hir.Expr {
	if b.inConst {
		b.errorf(diag.SemaNotAConstantExpression, e.Span, "allocation is not constant")
		return nil
	}
	typ := b.resolveType(e.Type)
	if typ == types.NoTypeID {
		return nil
	}
	if e.Size != nil {
		n := b.operand(e.Size)
		if n == nil {
			return nil
		}
		if n = b.coerce(n, b.builtins.Integer, e.Size.ExprSpan()); n == nil {
			return nil
		}
		if n.IsConst() && n.ConstValue().Int < 0 {
			b.errorf(diag.SemaBadArrayLength, e.Size.ExprSpan(), "array length %d is negative", n.ConstValue().Int)
			return nil
		}
		arr := b.in.Array(typ, types.ArrayDynamicLength)
		return &hir.Expr{Kind: hir.ExprNewArray, Type: arr, Span: e.Span, Data: hir.NewArrayData{Elem: typ, Length: n}}
	}
	if b.in.Kind(typ) == types.KindClass {
		return b.newObject(typ, e)
	}
	if len(e.Args) > 0 {
		b.errorf(diag.SemaNotAClass, e.Type.TypeSpan(), "%s has no constructor", b.in.String(typ))
		return nil
	}
	return &hir.Expr{Kind: hir.ExprNewCell, Type: b.in.Pointer(typ), Span: e.Span, Data: hir.NewCellData{Elem: typ}}
}

// constructors lists the constructors visible in class, most derived first.
func (b *Binder) constructors(class types.TypeID) []types.Method {
	var out []types.Method
	seen := make(map[string]bool)
	for _, info := range b.in.Chain(class) {
		for _, m := range info.Methods {
			if m.Kind != types.MethodConstructor || seen[m.Selector] {
				continue
			}
			seen[m.Selector] = true
			out = append(out, m)
		}
	}
	return out
}

func (b *Binder) newObject(class types.TypeID, e *ast.NewExpr) *hir.Expr {
	info, _ := b.in.ClassInfo(class)
	ctors := b.constructors(class)
	data := hir.NewObjectData{Class: info.Key}
	if len(ctors) == 0 {
		if len(e.Args) > 0 {
			b.errorf(diag.SemaNoMatchingOverload, e.Span, "class %s has no constructor taking arguments", info.Key.Name)
			return nil
		}
		return &hir.Expr{Kind: hir.ExprNewObject, Type: class, Span: e.Span, Data: data}
	}
	cands := make([]candidate, len(ctors))
	for i := range ctors {
		cands[i] = candidate{method: &ctors[i], sig: ctors[i].Sig}
	}
	bound, ok := b.bindArgs(cands, e.Args)
	if !ok {
		return nil
	}
	c, found := b.resolveOverload(cands, bound)
	if !found {
		b.reportNoMatch(ast.Ident{Name: info.Key.Name, Text: info.Key.Name, Span: e.Type.TypeSpan()}, cands, bound, e.Span)
		return nil
	}
	ref := c.method.Routine
	data.Ctor = &ref
	data.Args = b.coerceArgs(bound, c.sig.Params)
	return &hir.Expr{Kind: hir.ExprNewObject, Type: class, Span: e.Span, Data: data}
}

// bindAddr binds @Routine.
func (b *Binder) bindAddr(e *ast.AddrExpr, want types.TypeID) *hir.Expr {
	if !b.in.MustLookup(want).IsRoutine() {
		want = types.NoTypeID
	}
	var (
		res resolution
		id  ast.Ident
	)
	switch x := e.X.(type) {
	case *ast.NameExpr:
		id = x.Name
		res = b.resolve(id.Name)
	case *ast.MemberExpr:
		unit, ok := b.unitQualifier(x.X)
		if !ok {
			b.errorf(diag.SemaBadOperand, e.Span, "@ applies only to procedures and functions")
			return nil
		}
		id = x.Name
		res = b.resolveIn(unit, id.Name)
	default:
		b.errorf(diag.SemaBadOperand, e.Span, "@ applies only to procedures and functions")
		return nil
	}
	if res.empty() {
		b.errorf(diag.SemaUnresolvedIdentifier, id.Span, "undeclared identifier %s", id.Text)
		return nil
	}
	if len(res.syms) == 0 || !b.table.Get(res.syms[0]).Kind.IsRoutine() || b.table.Get(res.syms[0]).Kind == symbols.SymbolMethod {
		b.errorf(diag.SemaBadOperand, e.Span, "@ applies only to procedures and functions")
		return nil
	}
	return b.routineValue(res.syms, id, want)
}

// bindTarget binds the left side of an assignment.
func (b *Binder) bindTarget(e ast.Expr) *hir.Expr {
	if n, ok := e.(*ast.NameExpr); ok && b.rt != nil && b.rt.result >= 0 && b.rt.fn.IsValid() {
		if b.table.Get(b.rt.fn).Name == n.Name.Name {
			slot := b.rt.routine.Slots[b.rt.result]
			return &hir.Expr{Kind: hir.ExprLocal, Type: slot.Type, Span: n.Name.Span, Data: hir.LocalData{Slot: b.rt.result}}
		}
	}
	t := b.bindExpr(e, types.NoTypeID)
	if t == nil {
		return nil
	}
	if !t.IsAddressable() {
		b.notAssignable(t, e.ExprSpan())
		return nil
	}
	if d, ok := t.Data.(hir.LocalData); ok && d.Symbol.IsValid() && b.table.Get(d.Symbol).Has(symbols.SymbolFlagThis) {
		b.errorf(diag.SemaNotAssignable, e.ExprSpan(), "this cannot be assigned")
		return nil
	}
	return t
}

func (b *Binder) notAssignable(t *hir.Expr, sp source.Span) {
	switch {
	case t.Kind == hir.ExprIndex:
		b.errorf(diag.SemaNotAssignable, sp, "string characters are read-only")
	case t.Kind == hir.ExprConst:
		b.errorf(diag.SemaNotAssignable, sp, "cannot assign to a constant")
	default:
		b.errorf(diag.SemaNotAssignable, sp, "expression cannot be assigned")
	}
}
