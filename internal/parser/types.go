package parser

import (
	"blaise/internal/ast"
	"blaise/internal/diag"
	"blaise/internal/token"
)

func (p *Parser) parseType() ast.TypeExpr {
	start := p.peek().Span
	switch {
	case p.at(token.Ident):
		return p.parseNamedType()
	case p.accept(token.KwArray):
		t := &ast.ArrayType{}
		if p.accept(token.LBracket) {
			t.Len = p.parseExpr()
			p.expect(token.RBracket, diag.SynUnexpectedToken)
		}
		p.expect(token.KwOf, diag.SynExpectType)
		t.Elem = p.parseType()
		t.Span = p.spanFrom(start)
		return t
	case p.accept(token.KwPointer):
		p.expect(token.KwTo, diag.SynExpectType)
		elem := p.parseType()
		return &ast.PointerType{Elem: elem, Span: p.spanFrom(start)}
	case p.accept(token.Caret):
		elem := p.parseType()
		return &ast.PointerType{Elem: elem, Span: p.spanFrom(start)}
	case p.at(token.KwClass):
		return p.parseClassType()
	case p.at(token.KwProcedure, token.KwFunction):
		kind := p.advance().Kind
		t := &ast.ProcType{Params: p.parseParams()}
		if kind == token.KwFunction {
			p.expect(token.Colon, diag.SynExpectType)
			t.Result = p.parseType()
		}
		t.Span = p.spanFrom(start)
		return t
	}
	p.errorf(diag.SynExpectType, start, "expected type, found %s", describe(p.peek()))
	return nil
}

func (p *Parser) parseNamedType() *ast.NamedType {
	start := p.peek().Span
	name := p.expectIdent()
	t := &ast.NamedType{Name: name}
	if p.at(token.Dot) && p.peekAt(1).Kind == token.Ident {
		p.advance()
		unit := name
		t.Unit = &unit
		t.Name = p.expectIdent()
	}
	t.Span = p.spanFrom(start)
	return t
}

func (p *Parser) parseClassType() *ast.ClassType {
	start := p.advance().Span
	t := &ast.ClassType{}
	if p.accept(token.LParen) {
		t.Base = p.parseNamedType()
		p.expect(token.RParen, diag.SynUnexpectedToken)
	}
	for !p.at(token.KwEnd, token.EOF) {
		switch {
		case p.at(token.Ident):
			t.Members = append(t.Members, ast.ClassMember{Field: p.parseVarDecl()})
		case p.at(token.KwVar):
			p.advance()
		case p.at(token.KwProcedure, token.KwFunction, token.KwConstructor):
			hdr := p.parseRoutineHeader(false)
			p.expect(token.Semicolon, diag.SynExpectSemicolon)
			hdr.Directives = p.parseDirectives()
			t.Members = append(t.Members, ast.ClassMember{Method: hdr})
		default:
			p.errorf(diag.SynUnexpectedToken, p.peek().Span, "unexpected %s in class body", describe(p.peek()))
		}
	}
	p.expect(token.KwEnd, diag.SynExpectEnd)
	t.Span = p.spanFrom(start)
	return t
}
