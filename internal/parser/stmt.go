package parser

import (
	"blaise/internal/ast"
	"blaise/internal/diag"
	"blaise/internal/source"
	"blaise/internal/token"
)

func (p *Parser) parseCompound() *ast.CompoundStmt {
	start := p.expect(token.KwBegin, diag.SynUnexpectedToken).Span
	stmts := p.parseStmtList(token.KwEnd)
	p.expect(token.KwEnd, diag.SynExpectEnd)
	return &ast.CompoundStmt{Stmts: stmts, Span: p.spanFrom(start)}
}

// parseStmtList reads "stmt {; stmt}" until one of the terminators.
func (p *Parser) parseStmtList(terms ...token.Kind) []ast.Stmt {
	var stmts []ast.Stmt
	for {
		if p.at(terms...) {
			return stmts
		}
		if s := p.parseStmt(); s != nil {
			stmts = append(stmts, s)
		}
		if p.at(terms...) {
			return stmts
		}
		p.expect(token.Semicolon, diag.SynExpectSemicolon)
	}
}

func (p *Parser) parseStmt() ast.Stmt {
	start := p.peek().Span
	switch {
	case p.at(token.Semicolon):
		return &ast.EmptyStmt{Span: start}
	case p.at(token.KwBegin):
		return p.parseCompound()
	case p.accept(token.KwIf):
		s := &ast.IfStmt{Cond: p.parseExpr()}
		p.expect(token.KwThen, diag.SynUnexpectedToken)
		s.Then = p.parseBranch()
		if p.accept(token.KwElse) {
			s.Else = p.parseBranch()
		}
		s.Span = p.spanFrom(start)
		return s
	case p.accept(token.KwWhile):
		s := &ast.WhileStmt{Cond: p.parseExpr()}
		p.expect(token.KwDo, diag.SynUnexpectedToken)
		s.Body = p.parseBranch()
		s.Span = p.spanFrom(start)
		return s
	case p.accept(token.KwRepeat):
		s := &ast.RepeatStmt{Body: p.parseStmtList(token.KwUntil)}
		p.expect(token.KwUntil, diag.SynUnexpectedToken)
		s.Cond = p.parseExpr()
		s.Span = p.spanFrom(start)
		return s
	case p.accept(token.KwFor):
		return p.parseFor(start)
	case p.accept(token.KwCase):
		return p.parseCase(start)
	case p.accept(token.KwExit):
		return &ast.JumpStmt{Kind: ast.JumpExit, Span: start}
	case p.accept(token.KwBreak):
		return &ast.JumpStmt{Kind: ast.JumpBreak, Span: start}
	case p.accept(token.KwContinue):
		return &ast.JumpStmt{Kind: ast.JumpContinue, Span: start}
	}

	lhs := p.parseExpr()
	if p.accept(token.Assign) {
		rhs := p.parseExpr()
		return &ast.AssignStmt{Target: lhs, Value: rhs, Span: p.spanFrom(start)}
	}
	return &ast.CallStmt{Call: lhs, Span: p.spanFrom(start)}
}

// parseBranch parses the single statement after then/else/do; an empty
// branch ("if x then ;") becomes an EmptyStmt.
func (p *Parser) parseBranch() ast.Stmt {
	if p.at(token.Semicolon, token.KwElse, token.KwEnd) {
		return &ast.EmptyStmt{Span: p.peek().Span}
	}
	return p.parseStmt()
}

func (p *Parser) parseFor(start source.Span) ast.Stmt {
	s := &ast.ForStmt{Var: p.expectIdent()}
	p.expect(token.Assign, diag.SynUnexpectedToken)
	s.From = p.parseExpr()
	switch {
	case p.accept(token.KwTo):
	case p.accept(token.KwDownto):
		s.Downto = true
	default:
		p.errorf(diag.SynUnexpectedToken, p.peek().Span, "expected 'to' or 'downto', found %s", describe(p.peek()))
	}
	s.To = p.parseExpr()
	p.expect(token.KwDo, diag.SynUnexpectedToken)
	s.Body = p.parseBranch()
	s.Span = p.spanFrom(start)
	return s
}

func (p *Parser) parseCase(start source.Span) ast.Stmt {
	s := &ast.CaseStmt{Subject: p.parseExpr()}
	p.expect(token.KwOf, diag.SynUnexpectedToken)
	for !p.at(token.KwElse, token.KwEnd) {
		armStart := p.peek().Span
		arm := ast.CaseArm{Labels: []ast.Expr{p.parseExpr()}}
		for p.accept(token.Comma) {
			arm.Labels = append(arm.Labels, p.parseExpr())
		}
		p.expect(token.Colon, diag.SynUnexpectedToken)
		arm.Body = p.parseBranch()
		arm.Span = p.spanFrom(armStart)
		s.Arms = append(s.Arms, arm)
		if !p.accept(token.Semicolon) {
			break
		}
	}
	if p.accept(token.KwElse) {
		s.Else = p.parseStmtList(token.KwEnd)
	}
	p.expect(token.KwEnd, diag.SynExpectEnd)
	s.Span = p.spanFrom(start)
	return s
}
