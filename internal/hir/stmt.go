package hir

import (
	"blaise/internal/source"
	"blaise/internal/value"
)

// StmtKind enumerates bound statement kinds.
type StmtKind uint8

const (
	// StmtAssign stores a value into an addressable target.
	StmtAssign StmtKind = iota
	// StmtExpr evaluates a call for its effects.
	StmtExpr
	// StmtIf is a two-way branch.
	StmtIf
	// StmtWhile tests before each iteration.
	StmtWhile
	// StmtRepeat tests after each iteration.
	StmtRepeat
	// StmtFor counts a control variable up or down.
	StmtFor
	// StmtCase dispatches on constant labels.
	StmtCase
	// StmtExit returns from the routine.
	StmtExit
	// StmtBreak leaves the innermost loop.
	StmtBreak
	// StmtContinue jumps to the next iteration of the innermost loop.
	StmtContinue
)

// String returns a human-readable name for the statement kind.
func (k StmtKind) String() string {
	switch k {
	case StmtAssign:
		return "Assign"
	case StmtExpr:
		return "Expr"
	case StmtIf:
		return "If"
	case StmtWhile:
		return "While"
	case StmtRepeat:
		return "Repeat"
	case StmtFor:
		return "For"
	case StmtCase:
		return "Case"
	case StmtExit:
		return "Exit"
	case StmtBreak:
		return "Break"
	case StmtContinue:
		return "Continue"
	default:
		return "Unknown"
	}
}

// Stmt is a bound statement.
type Stmt struct {
	Kind StmtKind
	Span source.Span
	Data StmtData
}

// StmtData is the interface for statement-specific data.
type StmtData interface {
	stmtData()
}

// AssignData holds data for StmtAssign.
type AssignData struct {
	Target *Expr
	Value  *Expr
}

func (AssignData) stmtData() {}

// ExprStmtData holds data for StmtExpr.
type ExprStmtData struct {
	Expr *Expr
}

func (ExprStmtData) stmtData() {}

// IfData holds data for StmtIf.
type IfData struct {
	Cond *Expr
	Then []*Stmt
	Else []*Stmt
}

func (IfData) stmtData() {}

// WhileData holds data for StmtWhile.
type WhileData struct {
	Cond *Expr
	Body []*Stmt
}

func (WhileData) stmtData() {}

// RepeatData holds data for StmtRepeat.
type RepeatData struct {
	Body []*Stmt
	Cond *Expr
}

func (RepeatData) stmtData() {}

// ForData holds data for StmtFor. Var is an ExprLocal or ExprGlobal.
type ForData struct {
	Var    *Expr
	From   *Expr
	To     *Expr
	Downto bool
	Body   []*Stmt
}

func (ForData) stmtData() {}

// CaseArm is one labelled branch of a case statement.
type CaseArm struct {
	Labels []value.Value
	Body   []*Stmt
}

// CaseData holds data for StmtCase.
type CaseData struct {
	Subject *Expr
	Arms    []CaseArm
	Else    []*Stmt
}

func (CaseData) stmtData() {}

// JumpData holds data for exit, break and continue.
type JumpData struct{}

func (JumpData) stmtData() {}
