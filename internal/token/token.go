package token

import (
	"blaise/internal/source"
)

// Token represents a single source token with its location.
// Text keeps the original spelling; Value holds the decoded payload of
// string and char literals and the folded spelling of identifiers.
type Token struct {
	Kind  Kind
	Span  source.Span
	Text  string
	Value string
}

// IsLiteral reports whether the token is a numeric, string or char literal.
func (t Token) IsLiteral() bool {
	switch t.Kind {
	case IntLit, RealLit, StringLit, CharLit, KwTrue, KwFalse, KwNil:
		return true
	default:
		return false
	}
}

func (t Token) Is(kinds ...Kind) bool {
	for _, k := range kinds {
		if t.Kind == k {
			return true
		}
	}
	return false
}
