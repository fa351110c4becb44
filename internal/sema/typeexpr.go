package sema

import (
	"fmt"

	"fortio.org/safecast"

	"blaise/internal/ast"
	"blaise/internal/diag"
	"blaise/internal/symbols"
	"blaise/internal/types"
	"blaise/internal/value"
)

// lookupTypeName resolves a named type without reporting.
func (b *Binder) lookupTypeName(t *ast.NamedType) *symbols.Symbol {
	var ids []symbols.SymbolID
	if t.Unit != nil {
		scope, ok := b.unitScopes[t.Unit.Name]
		if !ok {
			return nil
		}
		ids = b.table.LookupLocal(scope, t.Name.Name)
	} else {
		ids, _ = b.table.Lookup(b.scope, t.Name.Name)
	}
	if len(ids) == 0 {
		return nil
	}
	return b.table.Get(ids[0])
}

// resolveType maps a type expression to a TypeID, reporting failures.
func (b *Binder) resolveType(te ast.TypeExpr) types.TypeID {
	switch t := te.(type) {
	case *ast.NamedType:
		sym := b.lookupTypeName(t)
		switch {
		case sym == nil && t.Unit != nil:
			if _, ok := b.unitScopes[t.Unit.Name]; !ok {
				b.errorf(diag.ModUnknownModule, t.Unit.Span, "unknown unit %s", t.Unit.Text)
				return types.NoTypeID
			}
			b.errorf(diag.SemaUnresolvedIdentifier, t.Name.Span, "unit %s exports no %s", t.Unit.Text, t.Name.Text)
		case sym == nil:
			b.errorf(diag.SemaUnresolvedIdentifier, t.Name.Span, "undeclared type %s", t.Name.Text)
		case !sym.Kind.IsTypeName():
			b.errorNote(diag.SemaNotAType, t.Name.Span, fmt.Sprintf("%s is a %s, not a type", t.Name.Text, sym.Kind), sym.Span, "declared here")
		default:
			return sym.Type
		}
		return types.NoTypeID
	case *ast.ArrayType:
		elem := b.resolveType(t.Elem)
		if elem == types.NoTypeID {
			return types.NoTypeID
		}
		if t.Len == nil {
			return b.in.Array(elem, types.ArrayDynamicLength)
		}
		n, ok := b.arrayLength(t.Len)
		if !ok {
			return types.NoTypeID
		}
		return b.in.Array(elem, n)
	case *ast.PointerType:
		elem := b.resolveType(t.Elem)
		if elem == types.NoTypeID {
			return types.NoTypeID
		}
		return b.in.Pointer(elem)
	case *ast.ProcType:
		sig, ok := b.resolveSignature(t.Params, t.Result)
		if !ok {
			return types.NoTypeID
		}
		return b.in.Routine(sig)
	case *ast.ClassType:
		b.errorf(diag.SemaNotAType, t.Span, "class types must be declared in a type section")
	}
	return types.NoTypeID
}

// arrayLength folds an array bound; it must be a positive integer constant.
func (b *Binder) arrayLength(e ast.Expr) (uint32, bool) {
	bound := b.constExpr(e, b.builtins.Integer)
	if bound == nil {
		return 0, false
	}
	v := bound.ConstValue()
	if v.Kind != value.KInt {
		b.errorf(diag.SemaBadArrayLength, e.ExprSpan(), "array length must be an integer, got %s", b.in.String(bound.Type))
		return 0, false
	}
	n, err := safecast.Conv[uint32](v.Int)
	if err != nil || n == 0 || n == types.ArrayDynamicLength {
		b.errorf(diag.SemaBadArrayLength, e.ExprSpan(), "array length %d is out of range", v.Int)
		return 0, false
	}
	return n, true
}

func (b *Binder) resolveSignature(params []ast.Param, result ast.TypeExpr) (types.Signature, bool) {
	var sig types.Signature
	ok := true
	for _, p := range params {
		typ := b.resolveType(p.Type)
		if typ == types.NoTypeID {
			ok = false
			continue
		}
		for range p.Names {
			sig.Params = append(sig.Params, typ)
		}
	}
	if result != nil {
		sig.Result = b.resolveType(result)
		if sig.Result == types.NoTypeID {
			ok = false
		}
	}
	return sig, ok
}
