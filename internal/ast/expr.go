package ast

import (
	"blaise/internal/source"
	"blaise/internal/token"
)

type Expr interface {
	exprNode()
	ExprSpan() source.Span
}

// LitKind enumerates literal categories.
type LitKind uint8

const (
	LitInt LitKind = iota + 1
	LitReal
	LitString
	LitChar
	LitBool
	LitNil
)

// Literal keeps the decoded text; the binder converts it to a value.
type Literal struct {
	Kind LitKind
	Text string
	Span source.Span
}

type NameExpr struct {
	Name Ident
}

type ThisExpr struct {
	Span source.Span
}

// BaseExpr is "base" used as a receiver: base.Speak().
type BaseExpr struct {
	Span source.Span
}

type UnaryExpr struct {
	Op      token.Kind // Minus, Plus, KwNot
	Operand Expr
	Span    source.Span
}

type BinaryExpr struct {
	Op    token.Kind
	Left  Expr
	Right Expr
	Span  source.Span
}

// MemberExpr is "X.Name": field, method, or unit-qualified name.
type MemberExpr struct {
	X    Expr
	Name Ident
	Span source.Span
}

type IndexExpr struct {
	X     Expr
	Index Expr
	Span  source.Span
}

type CallExpr struct {
	Callee Expr
	Args   []Expr
	Span   source.Span
}

// DerefExpr is "p^".
type DerefExpr struct {
	X    Expr
	Span source.Span
}

// NewExpr is "new Dog", "new Dog(args)" or "new integer[n]".
type NewExpr struct {
	Type TypeExpr
	Args []Expr
	Size Expr // non-nil for array allocation
	Span source.Span
}

// AddrExpr is "@Routine": an explicit routine value.
type AddrExpr struct {
	X    Expr
	Span source.Span
}

func (*Literal) exprNode()    {}
func (*NameExpr) exprNode()   {}
func (*ThisExpr) exprNode()   {}
func (*BaseExpr) exprNode()   {}
func (*UnaryExpr) exprNode()  {}
func (*BinaryExpr) exprNode() {}
func (*MemberExpr) exprNode() {}
func (*IndexExpr) exprNode()  {}
func (*CallExpr) exprNode()   {}
func (*DerefExpr) exprNode()  {}
func (*NewExpr) exprNode()    {}
func (*AddrExpr) exprNode()   {}

func (e *Literal) ExprSpan() source.Span    { return e.Span }
func (e *NameExpr) ExprSpan() source.Span   { return e.Name.Span }
func (e *ThisExpr) ExprSpan() source.Span   { return e.Span }
func (e *BaseExpr) ExprSpan() source.Span   { return e.Span }
func (e *UnaryExpr) ExprSpan() source.Span  { return e.Span }
func (e *BinaryExpr) ExprSpan() source.Span { return e.Span }
func (e *MemberExpr) ExprSpan() source.Span { return e.Span }
func (e *IndexExpr) ExprSpan() source.Span  { return e.Span }
func (e *CallExpr) ExprSpan() source.Span   { return e.Span }
func (e *DerefExpr) ExprSpan() source.Span  { return e.Span }
func (e *NewExpr) ExprSpan() source.Span    { return e.Span }
func (e *AddrExpr) ExprSpan() source.Span   { return e.Span }
