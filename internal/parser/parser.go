// Package parser is a recursive-descent parser producing ast.File values.
// The first syntax error stops parsing of the file: a unit with a syntax
// error is never bound, so recovery would only produce follow-up noise.
package parser

import (
	"fmt"

	"blaise/internal/ast"
	"blaise/internal/diag"
	"blaise/internal/lexer"
	"blaise/internal/source"
	"blaise/internal/token"
)

// bailout unwinds the parser after the first reported error.
type bailout struct{}

// Parser holds the state of one file being parsed.
type Parser struct {
	toks     []token.Token
	pos      int
	reporter diag.Reporter
	lastSpan source.Span
}

// ParseFile tokenizes and parses file. It returns nil if a lexical or
// syntax error was reported.
func ParseFile(file *source.File, reporter diag.Reporter) (f *ast.File) {
	counter := &diag.CountingReporter{Next: reporter}
	toks := lexer.Tokenize(file, counter)
	if counter.Errors > 0 {
		return nil
	}
	p := &Parser{toks: toks, reporter: counter}
	defer func() {
		if r := recover(); r != nil {
			if _, ok := r.(bailout); !ok {
				panic(r)
			}
			f = nil
		}
	}()
	return p.parseFile()
}

func (p *Parser) peek() token.Token {
	return p.toks[p.pos]
}

func (p *Parser) peekAt(n int) token.Token {
	if p.pos+n >= len(p.toks) {
		return p.toks[len(p.toks)-1]
	}
	return p.toks[p.pos+n]
}

func (p *Parser) at(kinds ...token.Kind) bool {
	return p.peek().Is(kinds...)
}

func (p *Parser) advance() token.Token {
	tok := p.toks[p.pos]
	if tok.Kind != token.EOF {
		p.pos++
	}
	p.lastSpan = tok.Span
	return tok
}

func (p *Parser) accept(k token.Kind) bool {
	if p.at(k) {
		p.advance()
		return true
	}
	return false
}

func (p *Parser) expect(k token.Kind, code diag.Code) token.Token {
	if !p.at(k) {
		p.errorf(code, p.peek().Span, "expected %s, found %s", k, describe(p.peek()))
	}
	return p.advance()
}

func (p *Parser) expectIdent() ast.Ident {
	tok := p.peek()
	if tok.Kind != token.Ident {
		p.errorf(diag.SynExpectIdentifier, tok.Span, "expected identifier, found %s", describe(tok))
	}
	p.advance()
	return ast.Ident{Name: tok.Value, Text: tok.Text, Span: tok.Span}
}

// spanFrom covers everything from start to the last consumed token.
func (p *Parser) spanFrom(start source.Span) source.Span {
	return start.Cover(p.lastSpan)
}

func (p *Parser) errorf(code diag.Code, sp source.Span, format string, args ...any) {
	diag.ReportErrorf(p.reporter, code, sp, format, args...).Emit()
	panic(bailout{})
}

func describe(tok token.Token) string {
	switch tok.Kind {
	case token.Ident:
		return fmt.Sprintf("identifier %q", tok.Text)
	case token.EOF:
		return "end of file"
	case token.IntLit, token.RealLit, token.StringLit, token.CharLit:
		return fmt.Sprintf("%s %s", tok.Kind, tok.Text)
	default:
		return tok.Kind.String()
	}
}

func (p *Parser) parseFile() *ast.File {
	start := p.peek().Span
	switch {
	case p.at(token.KwProgram):
		return p.parseProgram(start)
	case p.at(token.KwUnit):
		return p.parseUnit(start)
	default:
		p.errorf(diag.SynBadHeader, start, "expected 'program' or 'unit', found %s", describe(p.peek()))
		return nil
	}
}

func (p *Parser) parseProgram(start source.Span) *ast.File {
	p.advance()
	f := &ast.File{Kind: ast.FileProgram, Name: p.expectIdent()}
	p.expect(token.Semicolon, diag.SynExpectSemicolon)
	f.Uses = p.parseUses()
	f.Implementation = p.parseDeclSections(true)
	f.Body = p.parseCompound()
	p.expect(token.Dot, diag.SynExpectEnd)
	p.expectEOF()
	f.Span = p.spanFrom(start)
	return f
}

func (p *Parser) parseUnit(start source.Span) *ast.File {
	p.advance()
	f := &ast.File{Kind: ast.FileUnit, Name: p.expectIdent()}
	p.expect(token.Semicolon, diag.SynExpectSemicolon)
	p.expect(token.KwInterface, diag.SynBadHeader)
	f.Uses = p.parseUses()
	f.Interface = p.parseDeclSections(false)
	p.expect(token.KwImplementation, diag.SynBadHeader)
	f.ImplUses = p.parseUses()
	f.Implementation = p.parseDeclSections(true)

	switch {
	case p.at(token.KwInitialization):
		initStart := p.advance().Span
		stmts := p.parseStmtList(token.KwEnd)
		p.expect(token.KwEnd, diag.SynExpectEnd)
		f.Body = &ast.CompoundStmt{Stmts: stmts, Span: p.spanFrom(initStart)}
	case p.at(token.KwBegin):
		f.Body = p.parseCompound()
	default:
		p.expect(token.KwEnd, diag.SynExpectEnd)
	}
	p.expect(token.Dot, diag.SynExpectEnd)
	p.expectEOF()
	f.Span = p.spanFrom(start)
	return f
}

func (p *Parser) expectEOF() {
	if !p.at(token.EOF) {
		p.errorf(diag.SynTrailingInput, p.peek().Span, "unexpected %s after end of %s", describe(p.peek()), "file")
	}
}

func (p *Parser) parseUses() []ast.Use {
	if !p.accept(token.KwUses) {
		return nil
	}
	var uses []ast.Use
	for {
		uses = append(uses, ast.Use{Name: p.expectIdent()})
		if !p.accept(token.Comma) {
			break
		}
	}
	p.expect(token.Semicolon, diag.SynExpectSemicolon)
	return uses
}
