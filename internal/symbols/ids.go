package symbols

// ScopeID identifies a scope in the table arena.
type ScopeID uint32

// SymbolID identifies a symbol in the table arena.
type SymbolID uint32

const (
	// NoScopeID marks the absence of a scope.
	NoScopeID ScopeID = 0
	// NoSymbolID marks the absence of a symbol.
	NoSymbolID SymbolID = 0
)

// IsValid reports whether the id refers to an allocated scope.
func (id ScopeID) IsValid() bool { return id != NoScopeID }

// IsValid reports whether the id refers to an allocated symbol.
func (id SymbolID) IsValid() bool { return id != NoSymbolID }
