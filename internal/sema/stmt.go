package sema

import (
	"blaise/internal/ast"
	"blaise/internal/diag"
	"blaise/internal/hir"
	"blaise/internal/source"
	"blaise/internal/symbols"
	"blaise/internal/types"
	"blaise/internal/value"
)

// bindRoutineBody binds one queued routine or method body. Frame slots are
// laid out as this (methods only), params, result (functions only), locals.
func (b *Binder) bindRoutineBody(p *pendingBody) {
	r := p.routine
	scope := b.table.NewChild(symbols.ScopeRoutine, b.unitScope, p.sym, p.decl.Span)
	b.rt = &routineCtx{routine: r, scope: scope, class: p.class, fn: p.sym, result: -1}
	b.scope = scope
	defer func() {
		b.rt = nil
		b.scope = b.unitScope
	}()

	r.Slots = r.Slots[:0]
	if p.class != types.NoTypeID {
		b.declareSlot(scope, "this", "this", symbols.SymbolParam, symbols.SymbolFlagThis, p.class, p.decl.Header.Span)
	}
	i := 0
	for _, group := range p.decl.Header.Params {
		for _, name := range group.Names {
			b.declareSlot(scope, name.Name, name.Text, symbols.SymbolParam, 0, p.sig.Params[i], name.Span)
			i++
		}
	}
	r.Params = len(r.Slots)
	if p.sig.Result != types.NoTypeID {
		r.Result = len(r.Slots)
		b.rt.result = r.Result
		b.declareSlot(scope, "result", "Result", symbols.SymbolVar, symbols.SymbolFlagResult, p.sig.Result, p.decl.Header.Span)
	}
	b.declareLocals(p.decl.Locals)
	r.Body = b.bindStmts(p.decl.Body.Stmts)
}

func (b *Binder) declareSlot(scope symbols.ScopeID, name, display string, kind symbols.SymbolKind, flags symbols.SymbolFlags, typ types.TypeID, sp source.Span) {
	slot := len(b.rt.routine.Slots)
	b.rt.routine.Slots = append(b.rt.routine.Slots, hir.Slot{Name: display, Type: typ})
	b.declare(scope, &symbols.Symbol{
		Name: name, Display: display, Kind: kind, Flags: flags, Type: typ,
		Span: sp, Module: b.module, Slot: slot,
	}, false)
}

// bindBlockRoutine binds a program body or unit initialization block.
func (b *Binder) bindBlockRoutine(r *hir.Routine, body *ast.CompoundStmt) {
	scope := b.table.NewChild(symbols.ScopeRoutine, b.unitScope, symbols.NoSymbolID, body.Span)
	b.rt = &routineCtx{routine: r, scope: scope, result: -1}
	b.scope = scope
	r.HasBody = true
	r.Body = b.bindStmts(body.Stmts)
	b.rt = nil
	b.scope = b.unitScope
}

func (b *Binder) bindStmts(list []ast.Stmt) []*hir.Stmt {
	out := make([]*hir.Stmt, 0, len(list))
	for _, s := range list {
		out = b.appendStmt(out, s)
	}
	return out
}

// appendStmt binds s and appends the result; compound statements are
// flattened and erroneous statements dropped.
func (b *Binder) appendStmt(out []*hir.Stmt, s ast.Stmt) []*hir.Stmt {
	switch s := s.(type) {
	case nil, *ast.EmptyStmt:
		return out
	case *ast.CompoundStmt:
		for _, inner := range s.Stmts {
			out = b.appendStmt(out, inner)
		}
		return out
	}
	if bound := b.bindStmt(s); bound != nil {
		out = append(out, bound)
	}
	return out
}

func (b *Binder) body(s ast.Stmt) []*hir.Stmt {
	return b.appendStmt(nil, s)
}

func (b *Binder) bindStmt(s ast.Stmt) *hir.Stmt {
	switch s := s.(type) {
	case *ast.AssignStmt:
		return b.bindAssign(s)
	case *ast.CallStmt:
		e := b.bindExpr(s.Call, types.NoTypeID)
		if e == nil {
			return nil
		}
		if e.Kind != hir.ExprCall {
			b.errorf(diag.SemaTypeMismatch, s.Span, "expression used as a statement")
			return nil
		}
		return &hir.Stmt{Kind: hir.StmtExpr, Span: s.Span, Data: hir.ExprStmtData{Expr: e}}
	case *ast.IfStmt:
		cond := b.condition(s.Cond)
		then := b.body(s.Then)
		els := b.body(s.Else)
		if cond == nil {
			return nil
		}
		return &hir.Stmt{Kind: hir.StmtIf, Span: s.Span, Data: hir.IfData{Cond: cond, Then: then, Else: els}}
	case *ast.WhileStmt:
		cond := b.condition(s.Cond)
		body := b.loop(func() []*hir.Stmt { return b.body(s.Body) })
		if cond == nil {
			return nil
		}
		return &hir.Stmt{Kind: hir.StmtWhile, Span: s.Span, Data: hir.WhileData{Cond: cond, Body: body}}
	case *ast.RepeatStmt:
		body := b.loop(func() []*hir.Stmt { return b.bindStmts(s.Body) })
		cond := b.condition(s.Cond)
		if cond == nil {
			return nil
		}
		return &hir.Stmt{Kind: hir.StmtRepeat, Span: s.Span, Data: hir.RepeatData{Body: body, Cond: cond}}
	case *ast.ForStmt:
		return b.bindFor(s)
	case *ast.CaseStmt:
		return b.bindCase(s)
	case *ast.JumpStmt:
		return b.bindJump(s)
	}
	return nil
}

func (b *Binder) loop(fn func() []*hir.Stmt) []*hir.Stmt {
	b.rt.loops++
	defer func() { b.rt.loops-- }()
	return fn()
}

func (b *Binder) condition(e ast.Expr) *hir.Expr {
	c := b.operand(e)
	if c == nil {
		return nil
	}
	return b.coerce(c, b.builtins.Boolean, e.ExprSpan())
}

func (b *Binder) bindAssign(s *ast.AssignStmt) *hir.Stmt {
	target := b.bindTarget(s.Target)
	if target == nil {
		b.operand(s.Value)
		return nil
	}
	v := b.bindExpr(s.Value, target.Type)
	if v = b.coerce(v, target.Type, s.Value.ExprSpan()); v == nil {
		return nil
	}
	return &hir.Stmt{Kind: hir.StmtAssign, Span: s.Span, Data: hir.AssignData{Target: target, Value: v}}
}

func (b *Binder) bindFor(s *ast.ForStmt) *hir.Stmt {
	res := b.resolve(s.Var.Name)
	if len(res.syms) == 0 {
		if res.empty() {
			b.errorf(diag.SemaUnresolvedIdentifier, s.Var.Span, "undeclared identifier %s", s.Var.Text)
		} else {
			b.errorf(diag.SemaNotAssignable, s.Var.Span, "for loop variable must be a local or global variable")
		}
		return nil
	}
	sym := b.table.Get(res.syms[0])
	if sym.Kind != symbols.SymbolVar && sym.Kind != symbols.SymbolParam {
		b.errorf(diag.SemaNotAssignable, s.Var.Span, "for loop variable must be a variable, %s is a %s", s.Var.Text, sym.Kind)
		return nil
	}
	if !b.in.MustLookup(sym.Type).IsOrdinal() {
		b.errorf(diag.SemaTypeMismatch, s.Var.Span, "for loop variable must be ordinal, got %s", b.in.String(sym.Type))
		return nil
	}
	v := b.storageExpr(res.syms[0], s.Var.Span)
	from := b.coerce(b.operand(s.From), sym.Type, s.From.ExprSpan())
	to := b.coerce(b.operand(s.To), sym.Type, s.To.ExprSpan())
	body := b.loop(func() []*hir.Stmt { return b.body(s.Body) })
	if from == nil || to == nil {
		return nil
	}
	return &hir.Stmt{Kind: hir.StmtFor, Span: s.Span, Data: hir.ForData{Var: v, From: from, To: to, Downto: s.Downto, Body: body}}
}

func (b *Binder) bindCase(s *ast.CaseStmt) *hir.Stmt {
	subject := b.operand(s.Subject)
	if subject == nil {
		return nil
	}
	if !b.in.MustLookup(subject.Type).IsOrdinal() {
		b.errorf(diag.SemaTypeMismatch, s.Subject.ExprSpan(), "case selector must be ordinal, got %s", b.in.String(subject.Type))
		return nil
	}
	data := hir.CaseData{Subject: subject}
	seen := make(map[value.Value]ast.Expr)
	for _, arm := range s.Arms {
		var labels []value.Value
		for _, l := range arm.Labels {
			c := b.coerce(b.constExpr(l, subject.Type), subject.Type, l.ExprSpan())
			if c == nil {
				continue
			}
			v := c.ConstValue()
			if prev, dup := seen[v]; dup {
				b.errorNote(diag.SemaDuplicateSymbol, l.ExprSpan(), "duplicate case label "+v.Quote(), prev.ExprSpan(), "first used here")
				continue
			}
			seen[v] = l
			labels = append(labels, v)
		}
		data.Arms = append(data.Arms, hir.CaseArm{Labels: labels, Body: b.body(arm.Body)})
	}
	if s.Else != nil {
		data.Else = b.bindStmts(s.Else)
	}
	return &hir.Stmt{Kind: hir.StmtCase, Span: s.Span, Data: data}
}

func (b *Binder) bindJump(s *ast.JumpStmt) *hir.Stmt {
	switch s.Kind {
	case ast.JumpExit:
		return &hir.Stmt{Kind: hir.StmtExit, Span: s.Span, Data: hir.JumpData{}}
	case ast.JumpBreak, ast.JumpContinue:
		if b.rt.loops == 0 {
			b.errorf(diag.SemaBadLoopControl, s.Span, "%s outside of a loop", jumpWord(s.Kind))
			return nil
		}
		kind := hir.StmtBreak
		if s.Kind == ast.JumpContinue {
			kind = hir.StmtContinue
		}
		return &hir.Stmt{Kind: kind, Span: s.Span, Data: hir.JumpData{}}
	}
	return nil
}

func jumpWord(k ast.JumpKind) string {
	if k == ast.JumpContinue {
		return "continue"
	}
	return "break"
}
