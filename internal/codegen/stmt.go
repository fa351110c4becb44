package codegen

import (
	"blaise/internal/bytecode"
	"blaise/internal/hir"
	"blaise/internal/value"
)

func (f *fnBuilder) stmts(list []*hir.Stmt) {
	for _, s := range list {
		f.stmt(s)
	}
}

func (f *fnBuilder) stmt(s *hir.Stmt) {
	switch d := s.Data.(type) {
	case hir.AssignData:
		f.assign(d.Target, d.Value)
	case hir.ExprStmtData:
		f.expr(d.Expr)
		if !f.g.isVoid(d.Expr.Type) {
			f.op(bytecode.OpPop, s.Span)
		}
	case hir.IfData:
		f.ifStmt(s, d)
	case hir.WhileData:
		f.whileStmt(s, d)
	case hir.RepeatData:
		f.repeatStmt(s, d)
	case hir.ForData:
		f.forStmt(s, d)
	case hir.CaseData:
		f.caseStmt(s, d)
	case hir.JumpData:
		switch s.Kind {
		case hir.StmtExit:
			f.ret(s.Span)
		case hir.StmtBreak:
			f.jump(f.loop().brk, s.Span)
		case hir.StmtContinue:
			f.jump(f.loop().cont, s.Span)
		}
	default:
		f.g.failf("%s: unsupported statement %s", f.r.Name, s.Kind)
	}
}

// assign evaluates the target's location operands, then the value, then
// stores.
func (f *fnBuilder) assign(target, val *hir.Expr) {
	sp := target.Span
	switch d := target.Data.(type) {
	case hir.LocalData:
		f.expr(val)
		f.emit(bytecode.OpStoreLocal, operand(d.Slot), 0, sp)
	case hir.GlobalData:
		f.expr(val)
		f.emit(bytecode.OpStoreGlobal, f.global(d), 0, sp)
	case hir.FieldData:
		f.expr(d.Object)
		f.expr(val)
		f.emit(bytecode.OpStoreField, operand(d.Offset), 0, sp)
	case hir.IndexData:
		f.expr(d.Object)
		f.expr(d.Index)
		f.expr(val)
		f.op(bytecode.OpStoreElem, sp)
	case hir.DerefData:
		// A cell is a one-element array.
		f.expr(d.Pointer)
		f.constant(value.Int(0), sp)
		f.expr(val)
		f.op(bytecode.OpStoreElem, sp)
	default:
		f.g.failf("%s: cannot assign to %s", f.r.Name, target.Kind)
	}
}

func (f *fnBuilder) ifStmt(s *hir.Stmt, d hir.IfData) {
	then, cont := f.newBlock(), f.newBlock()
	els := cont
	if len(d.Else) > 0 {
		els = f.newBlock()
	}
	f.expr(d.Cond)
	f.branch(then, els, s.Span)

	f.setBlock(then)
	f.stmts(d.Then)
	f.jump(cont, s.Span)

	if len(d.Else) > 0 {
		f.setBlock(els)
		f.stmts(d.Else)
		f.jump(cont, s.Span)
	}
	f.setBlock(cont)
}

func (f *fnBuilder) whileStmt(s *hir.Stmt, d hir.WhileData) {
	cond, body, exit := f.newBlock(), f.newBlock(), f.newBlock()
	f.jump(cond, s.Span)

	f.setBlock(cond)
	f.expr(d.Cond)
	f.branch(body, exit, d.Cond.Span)

	f.setBlock(body)
	f.pushLoop(exit, cond)
	f.stmts(d.Body)
	f.popLoop()
	f.jump(cond, s.Span)

	f.setBlock(exit)
}

func (f *fnBuilder) repeatStmt(s *hir.Stmt, d hir.RepeatData) {
	body, cond, exit := f.newBlock(), f.newBlock(), f.newBlock()
	f.jump(body, s.Span)

	f.setBlock(body)
	f.pushLoop(exit, cond)
	f.stmts(d.Body)
	f.popLoop()
	f.jump(cond, s.Span)

	f.setBlock(cond)
	f.expr(d.Cond)
	f.branch(exit, body, d.Cond.Span)

	f.setBlock(exit)
}

// forStmt evaluates both bounds once. The step block tests for the last
// value before incrementing so the control variable never overflows.
func (f *fnBuilder) forStmt(s *hir.Stmt, d hir.ForData) {
	f.expr(d.From)
	f.storeVar(d.Var)
	limit := f.temp(f.g.shape(d.Var.Type))
	f.expr(d.To)
	f.emit(bytecode.OpStoreLocal, operand(limit), 0, d.To.Span)

	check, body, step, inc, exit := f.newBlock(), f.newBlock(), f.newBlock(), f.newBlock(), f.newBlock()
	f.jump(check, s.Span)

	cmp, next := bytecode.OpLtEq, bytecode.OpSucc
	if d.Downto {
		cmp, next = bytecode.OpGtEq, bytecode.OpPred
	}
	f.setBlock(check)
	f.expr(d.Var)
	f.emit(bytecode.OpLoadLocal, operand(limit), 0, s.Span)
	f.op(cmp, s.Span)
	f.branch(body, exit, s.Span)

	f.setBlock(body)
	f.pushLoop(exit, step)
	f.stmts(d.Body)
	f.popLoop()
	f.jump(step, s.Span)

	f.setBlock(step)
	f.expr(d.Var)
	f.emit(bytecode.OpLoadLocal, operand(limit), 0, s.Span)
	f.op(bytecode.OpEq, s.Span)
	f.branch(exit, inc, s.Span)

	f.setBlock(inc)
	f.expr(d.Var)
	f.op(next, s.Span)
	f.storeVar(d.Var)
	f.jump(body, s.Span)

	f.setBlock(exit)
}

func (f *fnBuilder) storeVar(v *hir.Expr) {
	switch d := v.Data.(type) {
	case hir.LocalData:
		f.emit(bytecode.OpStoreLocal, operand(d.Slot), 0, v.Span)
	case hir.GlobalData:
		f.emit(bytecode.OpStoreGlobal, f.global(d), 0, v.Span)
	default:
		f.g.failf("%s: bad control variable %s", f.r.Name, v.Kind)
	}
}

// caseStmt stores the subject in a temp and tests labels in order.
func (f *fnBuilder) caseStmt(s *hir.Stmt, d hir.CaseData) {
	subject := f.temp(f.g.shape(d.Subject.Type))
	f.expr(d.Subject)
	f.emit(bytecode.OpStoreLocal, operand(subject), 0, d.Subject.Span)

	cont := f.newBlock()
	arms := make([]int, len(d.Arms))
	for i := range d.Arms {
		arms[i] = f.newBlock()
	}
	for i, arm := range d.Arms {
		for _, label := range arm.Labels {
			next := f.newBlock()
			f.emit(bytecode.OpLoadLocal, operand(subject), 0, s.Span)
			f.constant(label, s.Span)
			f.op(bytecode.OpEq, s.Span)
			f.branch(arms[i], next, s.Span)
			f.setBlock(next)
		}
	}
	f.stmts(d.Else)
	f.jump(cont, s.Span)

	for i, arm := range d.Arms {
		f.setBlock(arms[i])
		f.stmts(arm.Body)
		f.jump(cont, s.Span)
	}
	f.setBlock(cont)
}
