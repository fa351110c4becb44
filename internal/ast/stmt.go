package ast

import "blaise/internal/source"

type Stmt interface {
	stmtNode()
	StmtSpan() source.Span
}

type CompoundStmt struct {
	Stmts []Stmt
	Span  source.Span
}

type AssignStmt struct {
	Target Expr
	Value  Expr
	Span   source.Span
}

// CallStmt is an expression evaluated for its side effects (a call).
type CallStmt struct {
	Call Expr
	Span source.Span
}

type IfStmt struct {
	Cond Expr
	Then Stmt
	Else Stmt // may be nil
	Span source.Span
}

type WhileStmt struct {
	Cond Expr
	Body Stmt
	Span source.Span
}

type RepeatStmt struct {
	Body []Stmt
	Cond Expr
	Span source.Span
}

type ForStmt struct {
	Var    Ident
	From   Expr
	To     Expr
	Downto bool
	Body   Stmt
	Span   source.Span
}

// CaseArm is "1, 2: stmt".
type CaseArm struct {
	Labels []Expr
	Body   Stmt
	Span   source.Span
}

type CaseStmt struct {
	Subject Expr
	Arms    []CaseArm
	Else    []Stmt
	Span    source.Span
}

// JumpKind enumerates exit/break/continue.
type JumpKind uint8

const (
	JumpExit JumpKind = iota + 1
	JumpBreak
	JumpContinue
)

type JumpStmt struct {
	Kind JumpKind
	Span source.Span
}

// EmptyStmt appears between consecutive semicolons.
type EmptyStmt struct {
	Span source.Span
}

func (*CompoundStmt) stmtNode() {}
func (*AssignStmt) stmtNode()   {}
func (*CallStmt) stmtNode()     {}
func (*IfStmt) stmtNode()       {}
func (*WhileStmt) stmtNode()    {}
func (*RepeatStmt) stmtNode()   {}
func (*ForStmt) stmtNode()      {}
func (*CaseStmt) stmtNode()     {}
func (*JumpStmt) stmtNode()     {}
func (*EmptyStmt) stmtNode()    {}

func (s *CompoundStmt) StmtSpan() source.Span { return s.Span }
func (s *AssignStmt) StmtSpan() source.Span   { return s.Span }
func (s *CallStmt) StmtSpan() source.Span     { return s.Span }
func (s *IfStmt) StmtSpan() source.Span       { return s.Span }
func (s *WhileStmt) StmtSpan() source.Span    { return s.Span }
func (s *RepeatStmt) StmtSpan() source.Span   { return s.Span }
func (s *ForStmt) StmtSpan() source.Span      { return s.Span }
func (s *CaseStmt) StmtSpan() source.Span     { return s.Span }
func (s *JumpStmt) StmtSpan() source.Span     { return s.Span }
func (s *EmptyStmt) StmtSpan() source.Span    { return s.Span }
