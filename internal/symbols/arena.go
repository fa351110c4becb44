package symbols

import (
	"fmt"

	"fortio.org/safecast"

	"blaise/internal/source"
)

// arena is a slice of T addressed by 1-based IDs; slot 0 is the invalid ID.
type arena[T any] struct {
	data []T
}

func newArena[T any](capacity uint32) arena[T] {
	return arena[T]{data: make([]T, 1, capacity+1)}
}

func (a *arena[T]) push(what string, v T) uint32 {
	n, err := safecast.Conv[uint32](len(a.data))
	if err != nil {
		panic(fmt.Errorf("%s arena overflow: %w", what, err))
	}
	a.data = append(a.data, v)
	return n
}

func (a *arena[T]) at(id uint32) *T {
	if id == 0 || int(id) >= len(a.data) {
		return nil
	}
	return &a.data[id]
}

func (a *arena[T]) len() int { return len(a.data) - 1 }

// Scopes stores every scope of one binding session.
type Scopes struct {
	arena arena[Scope]
}

// NewScopes creates a scope arena; capacity is a hint.
func NewScopes(capacity uint32) *Scopes {
	return &Scopes{arena: newArena[Scope](max(capacity, 32))}
}

// New allocates a scope.
func (s *Scopes) New(kind ScopeKind, parent ScopeID, owner SymbolID, span source.Span) ScopeID {
	return ScopeID(s.arena.push("scope", Scope{
		Kind:      kind,
		Parent:    parent,
		Owner:     owner,
		Span:      span,
		NameIndex: make(map[string][]SymbolID),
	}))
}

// Get returns the scope or nil for an invalid ID.
func (s *Scopes) Get(id ScopeID) *Scope { return s.arena.at(uint32(id)) }

// Len is the number of scopes.
func (s *Scopes) Len() int { return s.arena.len() }

// Symbols stores every declared symbol of one binding session.
type Symbols struct {
	arena arena[Symbol]
}

// NewSymbols creates a symbol arena; capacity is a hint.
func NewSymbols(capacity uint32) *Symbols {
	return &Symbols{arena: newArena[Symbol](max(capacity, 64))}
}

// New copies sym into the arena.
func (s *Symbols) New(sym *Symbol) SymbolID {
	if sym == nil {
		panic("symbols.New: nil symbol")
	}
	return SymbolID(s.arena.push("symbol", *sym))
}

// Get returns the symbol or nil for an invalid ID. The pointer is valid
// until the next New.
func (s *Symbols) Get(id SymbolID) *Symbol { return s.arena.at(uint32(id)) }

// Len is the number of symbols.
func (s *Symbols) Len() int { return s.arena.len() }
