package parser

import (
	"blaise/internal/ast"
	"blaise/internal/diag"
	"blaise/internal/token"
)

// Pascal precedence, loosest first: relational, additive, multiplicative, unary.
func (p *Parser) parseExpr() ast.Expr {
	left := p.parseSimpleExpr()
	for p.at(token.Eq, token.NotEq, token.Lt, token.LtEq, token.Gt, token.GtEq) {
		op := p.advance().Kind
		right := p.parseSimpleExpr()
		left = &ast.BinaryExpr{Op: op, Left: left, Right: right, Span: left.ExprSpan().Cover(right.ExprSpan())}
	}
	return left
}

func (p *Parser) parseSimpleExpr() ast.Expr {
	left := p.parseTerm()
	for p.at(token.Plus, token.Minus, token.KwOr, token.KwXor) {
		op := p.advance().Kind
		right := p.parseTerm()
		left = &ast.BinaryExpr{Op: op, Left: left, Right: right, Span: left.ExprSpan().Cover(right.ExprSpan())}
	}
	return left
}

func (p *Parser) parseTerm() ast.Expr {
	left := p.parseFactor()
	for p.at(token.Star, token.Slash, token.KwDiv, token.KwMod, token.KwAnd, token.KwShl, token.KwShr) {
		op := p.advance().Kind
		right := p.parseFactor()
		left = &ast.BinaryExpr{Op: op, Left: left, Right: right, Span: left.ExprSpan().Cover(right.ExprSpan())}
	}
	return left
}

func (p *Parser) parseFactor() ast.Expr {
	start := p.peek().Span
	if p.at(token.KwNot, token.Minus, token.Plus) {
		op := p.advance().Kind
		operand := p.parseFactor()
		return &ast.UnaryExpr{Op: op, Operand: operand, Span: p.spanFrom(start)}
	}
	if p.accept(token.At) {
		x := p.parsePostfix(p.parsePrimary())
		return &ast.AddrExpr{X: x, Span: p.spanFrom(start)}
	}
	return p.parsePostfix(p.parsePrimary())
}

func (p *Parser) parsePostfix(x ast.Expr) ast.Expr {
	start := x.ExprSpan()
	for {
		switch {
		case p.accept(token.Dot):
			name := p.expectIdent()
			x = &ast.MemberExpr{X: x, Name: name, Span: p.spanFrom(start)}
		case p.accept(token.LBracket):
			idx := p.parseExpr()
			p.expect(token.RBracket, diag.SynUnexpectedToken)
			x = &ast.IndexExpr{X: x, Index: idx, Span: p.spanFrom(start)}
		case p.at(token.LParen):
			args := p.parseArgs()
			x = &ast.CallExpr{Callee: x, Args: args, Span: p.spanFrom(start)}
		case p.accept(token.Caret):
			x = &ast.DerefExpr{X: x, Span: p.spanFrom(start)}
		default:
			return x
		}
	}
}

func (p *Parser) parseArgs() []ast.Expr {
	p.expect(token.LParen, diag.SynUnexpectedToken)
	args := []ast.Expr{}
	if p.accept(token.RParen) {
		return args
	}
	for {
		args = append(args, p.parseExpr())
		if !p.accept(token.Comma) {
			break
		}
	}
	p.expect(token.RParen, diag.SynUnexpectedToken)
	return args
}

func (p *Parser) parsePrimary() ast.Expr {
	tok := p.peek()
	switch tok.Kind {
	case token.IntLit:
		p.advance()
		return &ast.Literal{Kind: ast.LitInt, Text: tok.Value, Span: tok.Span}
	case token.RealLit:
		p.advance()
		return &ast.Literal{Kind: ast.LitReal, Text: tok.Value, Span: tok.Span}
	case token.StringLit:
		p.advance()
		return &ast.Literal{Kind: ast.LitString, Text: tok.Value, Span: tok.Span}
	case token.CharLit:
		p.advance()
		return &ast.Literal{Kind: ast.LitChar, Text: tok.Value, Span: tok.Span}
	case token.KwTrue, token.KwFalse:
		p.advance()
		return &ast.Literal{Kind: ast.LitBool, Text: tok.Value, Span: tok.Span}
	case token.KwNil:
		p.advance()
		return &ast.Literal{Kind: ast.LitNil, Text: "nil", Span: tok.Span}
	case token.Ident:
		return &ast.NameExpr{Name: p.expectIdent()}
	case token.KwThis:
		p.advance()
		return &ast.ThisExpr{Span: tok.Span}
	case token.KwBase:
		p.advance()
		return &ast.BaseExpr{Span: tok.Span}
	case token.KwNew:
		return p.parseNew()
	case token.LParen:
		p.advance()
		x := p.parseExpr()
		p.expect(token.RParen, diag.SynUnexpectedToken)
		return x
	}
	p.errorf(diag.SynExpectExpression, tok.Span, "expected expression, found %s", describe(tok))
	return nil
}

// parseNew reads "new Dog", "new Dog(args)", "new U.Dog" or "new integer[n]".
func (p *Parser) parseNew() ast.Expr {
	start := p.advance().Span
	e := &ast.NewExpr{}
	if p.at(token.Ident) {
		e.Type = p.parseNamedType()
	} else {
		e.Type = p.parseType()
	}
	switch {
	case p.accept(token.LBracket):
		e.Size = p.parseExpr()
		p.expect(token.RBracket, diag.SynUnexpectedToken)
	case p.at(token.LParen):
		e.Args = p.parseArgs()
	}
	e.Span = p.spanFrom(start)
	return e
}
