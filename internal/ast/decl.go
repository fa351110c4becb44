package ast

import "blaise/internal/source"

// Decl is any declaration in a const/type/var section or a routine.
type Decl interface {
	declNode()
	DeclSpan() source.Span
}

type ConstDecl struct {
	Name  Ident
	Type  TypeExpr // optional
	Value Expr
	Span  source.Span
}

type TypeDecl struct {
	Name Ident
	Type TypeExpr
	Span source.Span
}

// VarDecl declares one or more variables of the same type: "a, b: integer".
type VarDecl struct {
	Names []Ident
	Type  TypeExpr
	Span  source.Span
}

// RoutineKind enumerates procedures, functions and constructors.
type RoutineKind uint8

const (
	RoutineProcedure RoutineKind = iota + 1
	RoutineFunction
	RoutineConstructor
)

func (k RoutineKind) String() string {
	switch k {
	case RoutineProcedure:
		return "procedure"
	case RoutineFunction:
		return "function"
	case RoutineConstructor:
		return "constructor"
	default:
		return "routine"
	}
}

// Directive flags attached after a routine header ("virtual;", "override;").
type Directive uint8

const (
	DirVirtual Directive = 1 << iota
	DirOverride
)

// Param is a group of parameters sharing a type.
type Param struct {
	Names []Ident
	Type  TypeExpr
	Span  source.Span
}

// RoutineHeader is the signature part shared by forward declarations,
// class method declarations and implementations.
type RoutineHeader struct {
	Kind       RoutineKind
	Class      *Ident // non-nil for "function Animal.Speak"
	Name       Ident
	Params     []Param
	Result     TypeExpr // nil for procedures and constructors
	Directives Directive
	Span       source.Span
}

// RoutineDecl is a routine with an optional body. A nil Body marks a
// forward/interface declaration.
type RoutineDecl struct {
	Header *RoutineHeader
	Locals []Decl
	Body   *CompoundStmt
	Span   source.Span
}

func (*ConstDecl) declNode()   {}
func (*TypeDecl) declNode()    {}
func (*VarDecl) declNode()     {}
func (*RoutineDecl) declNode() {}

func (d *ConstDecl) DeclSpan() source.Span   { return d.Span }
func (d *TypeDecl) DeclSpan() source.Span    { return d.Span }
func (d *VarDecl) DeclSpan() source.Span     { return d.Span }
func (d *RoutineDecl) DeclSpan() source.Span { return d.Span }
