package symbols

import "testing"

func TestLookupWalksOutward(t *testing.T) {
	table := NewTable(Hints{})
	unit := table.NewChild(ScopeUnit, NoScopeID, NoSymbolID, sp())
	routine := table.NewChild(ScopeRoutine, unit, NoSymbolID, sp())

	g, _ := table.Declare(unit, &Symbol{Name: "x", Kind: SymbolVar}, false)
	ids, found := table.Lookup(routine, "x")
	if len(ids) != 1 || ids[0] != g || found != unit {
		t.Fatalf("lookup = %v in %d", ids, found)
	}

	l, _ := table.Declare(routine, &Symbol{Name: "x", Kind: SymbolVar}, false)
	ids, _ = table.Lookup(routine, "x")
	if ids[0] != l {
		t.Fatalf("inner declaration should shadow outer")
	}
	if ids, _ := table.Lookup(routine, "missing"); ids != nil {
		t.Fatalf("unexpected result %v", ids)
	}
	if err := table.Validate(); err != nil {
		t.Fatalf("validate: %v", err)
	}
}

func TestDeclareConflicts(t *testing.T) {
	table := NewTable(Hints{})
	unit := table.NewChild(ScopeUnit, NoScopeID, NoSymbolID, sp())
	if _, prev := table.Declare(unit, &Symbol{Name: "t", Kind: SymbolType}, false); prev.IsValid() {
		t.Fatalf("first declaration conflicted")
	}
	if id, prev := table.Declare(unit, &Symbol{Name: "t", Kind: SymbolType}, false); id.IsValid() || !prev.IsValid() {
		t.Fatalf("duplicate accepted")
	}

	table.Declare(unit, &Symbol{Name: "add", Kind: SymbolFunction}, true)
	if _, prev := table.Declare(unit, &Symbol{Name: "add", Kind: SymbolFunction}, true); prev.IsValid() {
		t.Fatalf("overload rejected")
	}
	if got := len(table.LookupLocal(unit, "add")); got != 2 {
		t.Fatalf("want 2 overloads, got %d", got)
	}
}

func TestEnclosing(t *testing.T) {
	table := NewTable(Hints{})
	unit := table.NewChild(ScopeUnit, NoScopeID, NoSymbolID, sp())
	routine := table.NewChild(ScopeRoutine, unit, NoSymbolID, sp())
	block := table.NewChild(ScopeBlock, routine, NoSymbolID, sp())
	if got := table.Enclosing(block, ScopeRoutine); got != routine {
		t.Fatalf("Enclosing = %d", got)
	}
	if got := table.Enclosing(unit, ScopeRoutine); got.IsValid() {
		t.Fatalf("unit has no enclosing routine, got %d", got)
	}
}
