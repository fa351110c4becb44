package symbols

import (
	"fmt"

	"fortio.org/safecast"

	"blaise/internal/source"
)

// Hints provide optional capacity suggestions for the symbol table arenas.
type Hints struct{ Scopes, Symbols uint }

// Table aggregates the scope and symbol arenas of one compilation.
type Table struct {
	Scopes  *Scopes
	Symbols *Symbols
}

// NewTable builds a fresh table with optional capacity hints.
func NewTable(h Hints) *Table {
	scopeCap, err := safecast.Conv[uint32](h.Scopes)
	if err != nil {
		panic(fmt.Errorf("scope capacity overflow: %w", err))
	}
	symCap, err := safecast.Conv[uint32](h.Symbols)
	if err != nil {
		panic(fmt.Errorf("symbol capacity overflow: %w", err))
	}
	return &Table{
		Scopes:  NewScopes(scopeCap),
		Symbols: NewSymbols(symCap),
	}
}

// Get is a shortcut for t.Symbols.Get.
func (t *Table) Get(id SymbolID) *Symbol { return t.Symbols.Get(id) }

// Declare binds sym in scope. A name already bound in that scope is a
// conflict unless overload is set and every existing binding is a routine;
// the first conflicting symbol is returned alongside NoSymbolID.
func (t *Table) Declare(scope ScopeID, sym *Symbol, overload bool) (SymbolID, SymbolID) {
	sc := t.Scopes.Get(scope)
	if sc == nil {
		panic(fmt.Errorf("declare into invalid scope %d", scope))
	}
	for _, prev := range sc.NameIndex[sym.Name] {
		if !overload || !t.Symbols.Get(prev).Kind.IsRoutine() {
			return NoSymbolID, prev
		}
	}
	sym.Scope = scope
	id := t.Symbols.New(sym)
	sc.NameIndex[sym.Name] = append(sc.NameIndex[sym.Name], id)
	sc.Symbols = append(sc.Symbols, id)
	return id, NoSymbolID
}

// LookupLocal returns the bindings of name in scope itself.
func (t *Table) LookupLocal(scope ScopeID, name string) []SymbolID {
	sc := t.Scopes.Get(scope)
	if sc == nil {
		return nil
	}
	return sc.NameIndex[name]
}

// Lookup walks the scope chain outward and returns the bindings of the
// innermost scope that knows name.
func (t *Table) Lookup(scope ScopeID, name string) ([]SymbolID, ScopeID) {
	for cur := scope; cur.IsValid(); {
		sc := t.Scopes.Get(cur)
		if ids := sc.NameIndex[name]; len(ids) > 0 {
			return ids, cur
		}
		cur = sc.Parent
	}
	return nil, NoScopeID
}

// Enclosing returns the nearest scope of the given kind, starting at scope.
func (t *Table) Enclosing(scope ScopeID, kind ScopeKind) ScopeID {
	for cur := scope; cur.IsValid(); {
		sc := t.Scopes.Get(cur)
		if sc.Kind == kind {
			return cur
		}
		cur = sc.Parent
	}
	return NoScopeID
}

// Validate checks arena integrity: every parent exists and every indexed
// symbol points back at its scope.
func (t *Table) Validate() error {
	for i := 1; i <= t.Scopes.Len(); i++ {
		n, err := safecast.Conv[uint32](i)
		if err != nil {
			return err
		}
		id := ScopeID(n)
		sc := t.Scopes.Get(id)
		if sc.Parent.IsValid() && t.Scopes.Get(sc.Parent) == nil {
			return fmt.Errorf("scope %d: dangling parent %d", id, sc.Parent)
		}
		for _, symID := range sc.Symbols {
			sym := t.Symbols.Get(symID)
			if sym == nil {
				return fmt.Errorf("scope %d: dangling symbol %d", id, symID)
			}
			if sym.Scope != id {
				return fmt.Errorf("symbol %q: scope %d, indexed in %d", sym.Name, sym.Scope, id)
			}
		}
	}
	return nil
}

// NewChild allocates a scope below parent.
func (t *Table) NewChild(kind ScopeKind, parent ScopeID, owner SymbolID, span source.Span) ScopeID {
	return t.Scopes.New(kind, parent, owner, span)
}
