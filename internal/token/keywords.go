package token

import "sync"

var keywordSpelling = map[Kind]string{
	KwProgram:        "program",
	KwUnit:           "unit",
	KwUses:           "uses",
	KwInterface:      "interface",
	KwImplementation: "implementation",
	KwInitialization: "initialization",
	KwConst:          "const",
	KwType:           "type",
	KwVar:            "var",
	KwProcedure:      "procedure",
	KwFunction:       "function",
	KwConstructor:    "constructor",
	KwBegin:          "begin",
	KwEnd:            "end",
	KwIf:             "if",
	KwThen:           "then",
	KwElse:           "else",
	KwWhile:          "while",
	KwDo:             "do",
	KwRepeat:         "repeat",
	KwUntil:          "until",
	KwFor:            "for",
	KwTo:             "to",
	KwDownto:         "downto",
	KwCase:           "case",
	KwOf:             "of",
	KwArray:          "array",
	KwPointer:        "pointer",
	KwClass:          "class",
	KwNew:            "new",
	KwNil:            "nil",
	KwThis:           "this",
	KwBase:           "base",
	KwVirtual:        "virtual",
	KwOverride:       "override",
	KwExit:           "exit",
	KwBreak:          "break",
	KwContinue:       "continue",
	KwTrue:           "true",
	KwFalse:          "false",
	KwAnd:            "and",
	KwOr:             "or",
	KwXor:            "xor",
	KwNot:            "not",
	KwDiv:            "div",
	KwMod:            "mod",
	KwShl:            "shl",
	KwShr:            "shr",
}

var (
	keywordsOnce sync.Once
	keywords     map[string]Kind
)

// keywordTable builds the reverse lookup on first use. Several compilations
// may hit this concurrently; after the Once fires the map is read-only.
func keywordTable() map[string]Kind {
	keywordsOnce.Do(func() {
		table := make(map[string]Kind, len(keywordSpelling))
		for k, s := range keywordSpelling {
			table[s] = k
		}
		keywords = table
	})
	return keywords
}

// LookupKeyword expects an already case-folded identifier.
func LookupKeyword(ident string) (Kind, bool) {
	k, ok := keywordTable()[ident]
	return k, ok
}

// KeywordText returns the canonical spelling of a keyword kind.
func KeywordText(k Kind) string {
	return keywordSpelling[k]
}
