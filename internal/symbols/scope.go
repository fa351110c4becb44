package symbols

import "blaise/internal/source"

// ScopeKind enumerates supported scope categories.
type ScopeKind uint8

const (
	ScopeInvalid ScopeKind = iota
	ScopeBuiltin           // predeclared types and natives
	ScopeExports           // interface of an imported unit
	ScopeUnit              // declarations of the unit being compiled
	ScopeClass             // members of one class body
	ScopeRoutine           // parameters and locals of a routine
	ScopeBlock             // statement block
)

func (k ScopeKind) String() string {
	switch k {
	case ScopeBuiltin:
		return "builtin"
	case ScopeExports:
		return "exports"
	case ScopeUnit:
		return "unit"
	case ScopeClass:
		return "class"
	case ScopeRoutine:
		return "routine"
	case ScopeBlock:
		return "block"
	default:
		return "invalid"
	}
}

// Scope models a lexical scope with an explicit parent handle.
type Scope struct {
	Kind      ScopeKind
	Parent    ScopeID
	Owner     SymbolID
	Span      source.Span
	NameIndex map[string][]SymbolID
	Symbols   []SymbolID
}
