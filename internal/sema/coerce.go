package sema

import (
	"unicode/utf8"

	"blaise/internal/diag"
	"blaise/internal/hir"
	"blaise/internal/source"
	"blaise/internal/types"
	"blaise/internal/value"
)

// coerce converts e to type to, inserting implicit conversions. It reports
// TypeMismatch and returns nil when the types are incompatible.
func (b *Binder) coerce(e *hir.Expr, to types.TypeID, sp source.Span) *hir.Expr {
	if e == nil || to == types.NoTypeID {
		return e
	}
	if b.in.Kind(to) == types.KindChar && e.IsConst() {
		if v := e.ConstValue(); v.Kind == value.KString && utf8.RuneCountInString(v.Str) == 1 {
			r, _ := utf8.DecodeRuneInString(v.Str)
			return constOf(value.Char(r), to, e.Span)
		}
	}
	switch b.in.Assignable(e.Type, to) {
	case types.CompatExact:
		return e
	case types.CompatWidening:
		if b.in.Kind(e.Type) == types.KindInt && b.in.Kind(to) == types.KindReal {
			return b.intToReal(e)
		}
		return e
	}
	if e.Type == b.builtins.Void {
		b.errorf(diag.SemaTypeMismatch, sp, "procedure call used as a value")
		return nil
	}
	b.errorf(diag.SemaTypeMismatch, sp, "cannot use %s as %s", b.in.String(e.Type), b.in.String(to))
	return nil
}

func (b *Binder) intToReal(e *hir.Expr) *hir.Expr {
	if e.IsConst() {
		return constOf(value.Real(float64(e.ConstValue().Int)), b.builtins.Real, e.Span)
	}
	return &hir.Expr{Kind: hir.ExprConvert, Type: b.builtins.Real, Span: e.Span, Data: hir.ConvertData{Conv: hir.ConvIntToReal, Operand: e}}
}

func (b *Binder) charToString(e *hir.Expr) *hir.Expr {
	if b.in.Kind(e.Type) != types.KindChar {
		return e
	}
	if e.IsConst() {
		return constOf(value.String(string(e.ConstValue().AsChar())), b.builtins.String, e.Span)
	}
	return &hir.Expr{Kind: hir.ExprConvert, Type: b.builtins.String, Span: e.Span, Data: hir.ConvertData{Conv: hir.ConvCharToString, Operand: e}}
}

// accepts is the silent form of coerce used by overload resolution.
func (b *Binder) accepts(e *hir.Expr, to types.TypeID) types.Compat {
	if b.in.Kind(to) == types.KindChar && e.IsConst() {
		if v := e.ConstValue(); v.Kind == value.KString && utf8.RuneCountInString(v.Str) == 1 {
			return types.CompatWidening
		}
	}
	return b.in.Assignable(e.Type, to)
}
