// Package lexer turns Blaise source bytes into tokens.
package lexer

import (
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/unicode/norm"

	"blaise/internal/diag"
	"blaise/internal/source"
	"blaise/internal/token"
)

type Lexer struct {
	file     *source.File
	cursor   Cursor
	reporter diag.Reporter
	look     *token.Token
}

func New(file *source.File, reporter diag.Reporter) *Lexer {
	return &Lexer{
		file:     file,
		cursor:   NewCursor(file),
		reporter: reporter,
	}
}

// Tokenize scans the whole file. The last token is always EOF.
func Tokenize(file *source.File, reporter diag.Reporter) []token.Token {
	lx := New(file, reporter)
	out := make([]token.Token, 0, len(file.Content)/4+1)
	for {
		tok := lx.Next()
		out = append(out, tok)
		if tok.Kind == token.EOF {
			return out
		}
	}
}

// FoldIdent is the canonical spelling used for identifier comparison:
// NFC-normalized and lower-cased.
func FoldIdent(s string) string {
	return strings.ToLower(norm.NFC.String(s))
}

// Peek returns the next token without consuming it.
func (lx *Lexer) Peek() token.Token {
	if lx.look == nil {
		tok := lx.scan()
		lx.look = &tok
	}
	return *lx.look
}

// Next возвращает следующий значимый токен. После EOF всегда EOF.
func (lx *Lexer) Next() token.Token {
	if lx.look != nil {
		tok := *lx.look
		lx.look = nil
		return tok
	}
	return lx.scan()
}

func (lx *Lexer) scan() token.Token {
	lx.skipTrivia()
	if lx.cursor.EOF() {
		sp := lx.cursor.SpanFrom(lx.cursor.Mark())
		return token.Token{Kind: token.EOF, Span: sp}
	}

	ch := lx.cursor.Peek()
	switch {
	case isIdentStart(ch):
		return lx.scanIdent()
	case ch >= utf8.RuneSelf:
		r, _ := utf8.DecodeRune(lx.file.Content[lx.cursor.Off:])
		if unicode.IsLetter(r) {
			return lx.scanIdent()
		}
	case isDigit(ch):
		return lx.scanNumber()
	case ch == '$' && isHexDigit(lx.cursor.PeekAt(1)):
		return lx.scanHex()
	case ch == '\'' || ch == '"':
		return lx.scanString()
	case ch == '#':
		return lx.scanCharCode()
	}
	return lx.scanPunct()
}

func (lx *Lexer) skipTrivia() {
	for !lx.cursor.EOF() {
		ch := lx.cursor.Peek()
		switch {
		case ch == ' ' || ch == '\t' || ch == '\n' || ch == '\r':
			lx.cursor.Bump()
		case ch == '/' && lx.cursor.PeekAt(1) == '/':
			for !lx.cursor.EOF() && lx.cursor.Peek() != '\n' {
				lx.cursor.Bump()
			}
		case ch == '{':
			lx.skipBlockComment(1, func() bool { return lx.cursor.Peek() == '}' })
		case ch == '(' && lx.cursor.PeekAt(1) == '*':
			lx.skipBlockComment(2, func() bool { return lx.cursor.Peek() == '*' && lx.cursor.PeekAt(1) == ')' })
		default:
			return
		}
	}
}

func (lx *Lexer) skipBlockComment(width uint32, closing func() bool) {
	start := lx.cursor.Mark()
	for range width {
		lx.cursor.Bump()
	}
	for !lx.cursor.EOF() {
		if closing() {
			for range width {
				lx.cursor.Bump()
			}
			return
		}
		lx.cursor.Bump()
	}
	lx.errorf(diag.LexUnterminatedBlockComment, lx.cursor.SpanFrom(start), "unterminated comment")
}

func (lx *Lexer) scanIdent() token.Token {
	start := lx.cursor.Mark()
	for !lx.cursor.EOF() {
		ch := lx.cursor.Peek()
		if ch < utf8.RuneSelf {
			if !isIdentStart(ch) && !isDigit(ch) {
				break
			}
			lx.cursor.Bump()
			continue
		}
		r, size := utf8.DecodeRune(lx.file.Content[lx.cursor.Off:])
		if !unicode.IsLetter(r) && !unicode.IsDigit(r) {
			break
		}
		for range size {
			lx.cursor.Bump()
		}
	}
	sp := lx.cursor.SpanFrom(start)
	text := string(lx.file.Content[sp.Start:sp.End])
	folded := FoldIdent(text)
	if k, ok := token.LookupKeyword(folded); ok {
		return token.Token{Kind: k, Span: sp, Text: text, Value: folded}
	}
	return token.Token{Kind: token.Ident, Span: sp, Text: text, Value: folded}
}

func (lx *Lexer) scanNumber() token.Token {
	start := lx.cursor.Mark()
	kind := token.IntLit
	lx.eatDigits()
	// "1..5" is a range, not a real literal
	if lx.cursor.Peek() == '.' && isDigit(lx.cursor.PeekAt(1)) {
		kind = token.RealLit
		lx.cursor.Bump()
		lx.eatDigits()
	}
	if c := lx.cursor.Peek(); c == 'e' || c == 'E' {
		next := lx.cursor.PeekAt(1)
		if isDigit(next) || ((next == '+' || next == '-') && isDigit(lx.cursor.PeekAt(2))) {
			kind = token.RealLit
			lx.cursor.Bump()
			if next == '+' || next == '-' {
				lx.cursor.Bump()
			}
			lx.eatDigits()
		}
	}
	sp := lx.cursor.SpanFrom(start)
	text := string(lx.file.Content[sp.Start:sp.End])
	var err error
	if kind == token.IntLit {
		_, err = strconv.ParseInt(text, 10, 64)
	} else {
		_, err = strconv.ParseFloat(text, 64)
	}
	if err != nil {
		lx.errorf(diag.LexBadNumber, sp, "malformed number %q", text)
	}
	return token.Token{Kind: kind, Span: sp, Text: text, Value: text}
}

func (lx *Lexer) scanHex() token.Token {
	start := lx.cursor.Mark()
	lx.cursor.Bump()
	for isHexDigit(lx.cursor.Peek()) {
		lx.cursor.Bump()
	}
	sp := lx.cursor.SpanFrom(start)
	text := string(lx.file.Content[sp.Start:sp.End])
	n, err := strconv.ParseInt(text[1:], 16, 64)
	if err != nil {
		lx.errorf(diag.LexBadNumber, sp, "malformed hex number %q", text)
	}
	return token.Token{Kind: token.IntLit, Span: sp, Text: text, Value: strconv.FormatInt(n, 10)}
}

// scanString reads 'it''s' or "say ""hi""": the quote is escaped by doubling.
func (lx *Lexer) scanString() token.Token {
	start := lx.cursor.Mark()
	quote := lx.cursor.Bump()
	var sb strings.Builder
	for {
		if lx.cursor.EOF() || lx.cursor.Peek() == '\n' {
			sp := lx.cursor.SpanFrom(start)
			lx.errorf(diag.LexUnterminatedString, sp, "unterminated string literal")
			return token.Token{Kind: token.StringLit, Span: sp, Text: string(lx.file.Content[sp.Start:sp.End]), Value: sb.String()}
		}
		ch := lx.cursor.Bump()
		if ch == quote {
			if lx.cursor.Peek() == quote {
				lx.cursor.Bump()
				sb.WriteByte(quote)
				continue
			}
			break
		}
		sb.WriteByte(ch)
	}
	sp := lx.cursor.SpanFrom(start)
	return token.Token{Kind: token.StringLit, Span: sp, Text: string(lx.file.Content[sp.Start:sp.End]), Value: sb.String()}
}

func (lx *Lexer) scanCharCode() token.Token {
	start := lx.cursor.Mark()
	lx.cursor.Bump()
	lx.eatDigits()
	sp := lx.cursor.SpanFrom(start)
	text := string(lx.file.Content[sp.Start:sp.End])
	code, err := strconv.ParseUint(text[1:], 10, 32)
	if err != nil || code > unicode.MaxRune {
		lx.errorf(diag.LexBadCharCode, sp, "invalid character code %q", text)
		code = 0
	}
	return token.Token{Kind: token.CharLit, Span: sp, Text: text, Value: string(rune(code))}
}

var twoCharOps = map[string]token.Kind{
	":=": token.Assign,
	"<>": token.NotEq,
	"<=": token.LtEq,
	">=": token.GtEq,
	"..": token.DotDot,
}

var oneCharOps = map[byte]token.Kind{
	'+': token.Plus,
	'-': token.Minus,
	'*': token.Star,
	'/': token.Slash,
	'=': token.Eq,
	'<': token.Lt,
	'>': token.Gt,
	'(': token.LParen,
	')': token.RParen,
	'[': token.LBracket,
	']': token.RBracket,
	',': token.Comma,
	';': token.Semicolon,
	':': token.Colon,
	'.': token.Dot,
	'^': token.Caret,
	'@': token.At,
}

func (lx *Lexer) scanPunct() token.Token {
	start := lx.cursor.Mark()
	b0, b1 := lx.cursor.Peek(), lx.cursor.PeekAt(1)
	if k, ok := twoCharOps[string([]byte{b0, b1})]; ok {
		lx.cursor.Bump()
		lx.cursor.Bump()
		sp := lx.cursor.SpanFrom(start)
		return token.Token{Kind: k, Span: sp, Text: string([]byte{b0, b1})}
	}
	if k, ok := oneCharOps[b0]; ok {
		lx.cursor.Bump()
		return token.Token{Kind: k, Span: lx.cursor.SpanFrom(start), Text: string(b0)}
	}
	_, size := utf8.DecodeRune(lx.file.Content[lx.cursor.Off:])
	for range max(size, 1) {
		lx.cursor.Bump()
	}
	sp := lx.cursor.SpanFrom(start)
	text := string(lx.file.Content[sp.Start:sp.End])
	lx.errorf(diag.LexUnknownChar, sp, "unexpected character %q", text)
	return token.Token{Kind: token.Invalid, Span: sp, Text: text}
}

func (lx *Lexer) eatDigits() {
	for isDigit(lx.cursor.Peek()) {
		lx.cursor.Bump()
	}
}

func (lx *Lexer) errorf(code diag.Code, sp source.Span, format string, args ...any) {
	diag.ReportErrorf(lx.reporter, code, sp, format, args...).Emit()
}

func isIdentStart(b byte) bool {
	return b == '_' || (b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z')
}

func isDigit(b byte) bool { return b >= '0' && b <= '9' }

func isHexDigit(b byte) bool {
	return isDigit(b) || (b >= 'a' && b <= 'f') || (b >= 'A' && b <= 'F')
}
