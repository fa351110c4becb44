package ast

import "blaise/internal/source"

type TypeExpr interface {
	typeNode()
	TypeSpan() source.Span
}

// NamedType refers to a type by name, optionally unit-qualified.
type NamedType struct {
	Unit *Ident
	Name Ident
	Span source.Span
}

// ArrayType is "array[Len] of Elem" or "array of Elem" (Len == nil).
type ArrayType struct {
	Len  Expr
	Elem TypeExpr
	Span source.Span
}

// PointerType is "pointer to T" or "^T".
type PointerType struct {
	Elem TypeExpr
	Span source.Span
}

// ClassMember is a field group or a method header inside a class body.
type ClassMember struct {
	Field  *VarDecl
	Method *RoutineHeader
}

type ClassType struct {
	Base    *NamedType
	Members []ClassMember
	Span    source.Span
}

// ProcType is a procedural type: "function(a: integer): integer".
type ProcType struct {
	Params []Param
	Result TypeExpr
	Span   source.Span
}

func (*NamedType) typeNode()   {}
func (*ArrayType) typeNode()   {}
func (*PointerType) typeNode() {}
func (*ClassType) typeNode()   {}
func (*ProcType) typeNode()    {}

func (t *NamedType) TypeSpan() source.Span   { return t.Span }
func (t *ArrayType) TypeSpan() source.Span   { return t.Span }
func (t *PointerType) TypeSpan() source.Span { return t.Span }
func (t *ClassType) TypeSpan() source.Span   { return t.Span }
func (t *ProcType) TypeSpan() source.Span    { return t.Span }
