package token

import "fmt"

// Kind represents the category of a source token.
type Kind uint8

const (
	Invalid Kind = iota
	EOF

	Ident
	IntLit
	RealLit
	StringLit
	CharLit // #65

	// keywords
	KwProgram
	KwUnit
	KwUses
	KwInterface
	KwImplementation
	KwInitialization
	KwConst
	KwType
	KwVar
	KwProcedure
	KwFunction
	KwConstructor
	KwBegin
	KwEnd
	KwIf
	KwThen
	KwElse
	KwWhile
	KwDo
	KwRepeat
	KwUntil
	KwFor
	KwTo
	KwDownto
	KwCase
	KwOf
	KwArray
	KwPointer
	KwClass
	KwNew
	KwNil
	KwThis
	KwBase
	KwVirtual
	KwOverride
	KwExit
	KwBreak
	KwContinue
	KwTrue
	KwFalse
	KwAnd
	KwOr
	KwXor
	KwNot
	KwDiv
	KwMod
	KwShl
	KwShr

	// punctuation and operators
	Plus      // +
	Minus     // -
	Star      // *
	Slash     // /
	Assign    // :=
	Eq        // =
	NotEq     // <>
	Lt        // <
	LtEq      // <=
	Gt        // >
	GtEq      // >=
	LParen    // (
	RParen    // )
	LBracket  // [
	RBracket  // ]
	Comma     // ,
	Semicolon // ;
	Colon     // :
	Dot       // .
	DotDot    // ..
	Caret     // ^
	At        // @
)

var kindNames = [...]string{
	Invalid:   "invalid",
	EOF:       "end of file",
	Ident:     "identifier",
	IntLit:    "integer literal",
	RealLit:   "real literal",
	StringLit: "string literal",
	CharLit:   "char literal",
	Plus:      "'+'",
	Minus:     "'-'",
	Star:      "'*'",
	Slash:     "'/'",
	Assign:    "':='",
	Eq:        "'='",
	NotEq:     "'<>'",
	Lt:        "'<'",
	LtEq:      "'<='",
	Gt:        "'>'",
	GtEq:      "'>='",
	LParen:    "'('",
	RParen:    "')'",
	LBracket:  "'['",
	RBracket:  "']'",
	Comma:     "','",
	Semicolon: "';'",
	Colon:     "':'",
	Dot:       "'.'",
	DotDot:    "'..'",
	Caret:     "'^'",
	At:        "'@'",
}

func (k Kind) String() string {
	if k.IsKeyword() {
		return "'" + KeywordText(k) + "'"
	}
	if int(k) < len(kindNames) && kindNames[k] != "" {
		return kindNames[k]
	}
	return fmt.Sprintf("Kind(%d)", k)
}

// IsKeyword reports whether k is a reserved word.
func (k Kind) IsKeyword() bool {
	return k >= KwProgram && k <= KwShr
}
