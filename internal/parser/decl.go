package parser

import (
	"blaise/internal/ast"
	"blaise/internal/diag"
	"blaise/internal/token"
)

// parseDeclSections reads const/type/var sections and routines until a
// token that cannot start a declaration. withBodies is false in a unit
// interface, where routines are headers only.
func (p *Parser) parseDeclSections(withBodies bool) []ast.Decl {
	var decls []ast.Decl
	for {
		switch {
		case p.at(token.KwConst):
			p.advance()
			for p.at(token.Ident) {
				decls = append(decls, p.parseConstDecl())
			}
		case p.at(token.KwType):
			p.advance()
			for p.at(token.Ident) {
				decls = append(decls, p.parseTypeDecl())
			}
		case p.at(token.KwVar):
			p.advance()
			for p.at(token.Ident) {
				decls = append(decls, p.parseVarDecl())
			}
		case p.at(token.KwProcedure, token.KwFunction, token.KwConstructor):
			decls = append(decls, p.parseRoutine(withBodies))
		default:
			return decls
		}
	}
}

func (p *Parser) parseConstDecl() *ast.ConstDecl {
	start := p.peek().Span
	d := &ast.ConstDecl{Name: p.expectIdent()}
	if p.accept(token.Colon) {
		d.Type = p.parseType()
	}
	p.expect(token.Eq, diag.SynUnexpectedToken)
	d.Value = p.parseExpr()
	p.expect(token.Semicolon, diag.SynExpectSemicolon)
	d.Span = p.spanFrom(start)
	return d
}

func (p *Parser) parseTypeDecl() *ast.TypeDecl {
	start := p.peek().Span
	d := &ast.TypeDecl{Name: p.expectIdent()}
	p.expect(token.Eq, diag.SynUnexpectedToken)
	d.Type = p.parseType()
	p.expect(token.Semicolon, diag.SynExpectSemicolon)
	d.Span = p.spanFrom(start)
	return d
}

func (p *Parser) parseVarDecl() *ast.VarDecl {
	start := p.peek().Span
	d := &ast.VarDecl{Names: p.parseIdentList()}
	p.expect(token.Colon, diag.SynUnexpectedToken)
	d.Type = p.parseType()
	p.expect(token.Semicolon, diag.SynExpectSemicolon)
	d.Span = p.spanFrom(start)
	return d
}

func (p *Parser) parseIdentList() []ast.Ident {
	names := []ast.Ident{p.expectIdent()}
	for p.accept(token.Comma) {
		names = append(names, p.expectIdent())
	}
	return names
}

// parseRoutine reads a header and, when allowed and present, locals and body.
// In an implementation part a header directly followed by another
// declaration is a forward declaration.
func (p *Parser) parseRoutine(withBodies bool) *ast.RoutineDecl {
	start := p.peek().Span
	hdr := p.parseRoutineHeader(true)
	p.expect(token.Semicolon, diag.SynExpectSemicolon)
	hdr.Directives = p.parseDirectives()
	d := &ast.RoutineDecl{Header: hdr}
	if withBodies && p.at(token.KwConst, token.KwType, token.KwVar, token.KwBegin) {
		d.Locals = p.parseLocalSections()
		d.Body = p.parseCompound()
		p.expect(token.Semicolon, diag.SynExpectSemicolon)
	}
	d.Span = p.spanFrom(start)
	return d
}

// parseLocalSections is parseDeclSections without nested routines.
func (p *Parser) parseLocalSections() []ast.Decl {
	var decls []ast.Decl
	for p.at(token.KwConst, token.KwType, token.KwVar) {
		decls = append(decls, p.parseDeclSectionsOnce()...)
	}
	if p.at(token.KwProcedure, token.KwFunction) {
		p.errorf(diag.SynUnexpectedToken, p.peek().Span, "nested routines are not supported")
	}
	return decls
}

func (p *Parser) parseDeclSectionsOnce() []ast.Decl {
	var decls []ast.Decl
	kind := p.advance().Kind
	for p.at(token.Ident) {
		switch kind {
		case token.KwConst:
			decls = append(decls, p.parseConstDecl())
		case token.KwType:
			decls = append(decls, p.parseTypeDecl())
		default:
			decls = append(decls, p.parseVarDecl())
		}
	}
	return decls
}

func (p *Parser) parseRoutineHeader(allowQualified bool) *ast.RoutineHeader {
	start := p.peek().Span
	hdr := &ast.RoutineHeader{}
	switch p.advance().Kind {
	case token.KwProcedure:
		hdr.Kind = ast.RoutineProcedure
	case token.KwFunction:
		hdr.Kind = ast.RoutineFunction
	default:
		hdr.Kind = ast.RoutineConstructor
	}
	hdr.Name = p.expectIdent()
	if allowQualified && p.accept(token.Dot) {
		class := hdr.Name
		hdr.Class = &class
		hdr.Name = p.expectIdent()
	}
	hdr.Params = p.parseParams()
	if hdr.Kind == ast.RoutineFunction {
		p.expect(token.Colon, diag.SynExpectType)
		hdr.Result = p.parseType()
	}
	hdr.Span = p.spanFrom(start)
	return hdr
}

func (p *Parser) parseParams() []ast.Param {
	if !p.accept(token.LParen) {
		return nil
	}
	var params []ast.Param
	if p.accept(token.RParen) {
		return params
	}
	for {
		start := p.peek().Span
		p.accept(token.KwConst)
		names := p.parseIdentList()
		p.expect(token.Colon, diag.SynExpectType)
		typ := p.parseType()
		params = append(params, ast.Param{Names: names, Type: typ, Span: p.spanFrom(start)})
		if !p.accept(token.Semicolon) {
			break
		}
	}
	p.expect(token.RParen, diag.SynUnexpectedToken)
	return params
}

func (p *Parser) parseDirectives() ast.Directive {
	var dirs ast.Directive
	for {
		switch {
		case p.accept(token.KwVirtual):
			dirs |= ast.DirVirtual
		case p.accept(token.KwOverride):
			dirs |= ast.DirOverride
		default:
			return dirs
		}
		p.expect(token.Semicolon, diag.SynExpectSemicolon)
	}
}
