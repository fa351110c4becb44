package sema

import (
	"blaise/internal/ast"
	"blaise/internal/diag"
	"blaise/internal/hir"
	"blaise/internal/source"
	"blaise/internal/types"
	"blaise/internal/value"
)

// constExpr binds e in a constant position. Anything that does not fold
// to a literal value is a NotAConstantExpression error.
func (b *Binder) constExpr(e ast.Expr, want types.TypeID) *hir.Expr {
	prev := b.inConst
	b.inConst = true
	bound := b.bindExpr(e, want)
	b.inConst = prev
	if bound == nil {
		return nil
	}
	if !bound.IsConst() {
		b.errorf(diag.SemaNotAConstantExpression, e.ExprSpan(), "expression is not constant")
		return nil
	}
	return bound
}

func constOf(v value.Value, t types.TypeID, sp source.Span) *hir.Expr {
	return &hir.Expr{Kind: hir.ExprConst, Type: t, Span: sp, Data: hir.ConstData{Value: v}}
}

// foldBinary evaluates op over two constants. ok is false when the
// operation would fault; the expression is then left for run time.
func foldBinary(op hir.Op, l, r value.Value) (value.Value, bool) {
	var (
		v   value.Value
		err error
	)
	switch op {
	case hir.OpAdd:
		v, err = value.Add(l, r)
	case hir.OpSub:
		v, err = value.Sub(l, r)
	case hir.OpMul:
		v, err = value.Mul(l, r)
	case hir.OpRealDiv:
		v, err = value.RealDiv(l, r)
	case hir.OpDiv:
		v, err = value.Div(l, r)
	case hir.OpMod:
		v, err = value.Mod(l, r)
	case hir.OpAnd:
		v, err = value.And(l, r)
	case hir.OpOr:
		v, err = value.Or(l, r)
	case hir.OpXor:
		v, err = value.Xor(l, r)
	case hir.OpShl:
		v, err = value.Shl(l, r)
	case hir.OpShr:
		v, err = value.Shr(l, r)
	case hir.OpConcat:
		v, err = value.Concat(l, r)
	case hir.OpEq:
		v = value.Bool(value.Equal(l, r))
	case hir.OpNotEq:
		v = value.Bool(!value.Equal(l, r))
	case hir.OpLt:
		v = value.Bool(value.Compare(l, r) < 0)
	case hir.OpLtEq:
		v = value.Bool(value.Compare(l, r) <= 0)
	case hir.OpGt:
		v = value.Bool(value.Compare(l, r) > 0)
	case hir.OpGtEq:
		v = value.Bool(value.Compare(l, r) >= 0)
	default:
		return value.Value{}, false
	}
	return v, err == nil
}

func foldUnary(op hir.Op, x value.Value) (value.Value, bool) {
	var (
		v   value.Value
		err error
	)
	switch op {
	case hir.OpNeg:
		v, err = value.Neg(x)
	case hir.OpNot:
		v, err = value.Not(x)
	default:
		return value.Value{}, false
	}
	return v, err == nil
}
