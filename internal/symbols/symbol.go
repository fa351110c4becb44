package symbols

import (
	"blaise/internal/source"
	"blaise/internal/types"
	"blaise/internal/value"
)

// SymbolKind classifies the semantic meaning of a symbol.
type SymbolKind uint8

const (
	SymbolInvalid SymbolKind = iota
	SymbolConst
	SymbolVar
	SymbolParam
	SymbolField
	SymbolType
	SymbolProcedure
	SymbolFunction
	SymbolMethod
	SymbolClass
	SymbolNative
	SymbolUnit
)

func (k SymbolKind) String() string {
	switch k {
	case SymbolConst:
		return "constant"
	case SymbolVar:
		return "variable"
	case SymbolParam:
		return "parameter"
	case SymbolField:
		return "field"
	case SymbolType:
		return "type"
	case SymbolProcedure:
		return "procedure"
	case SymbolFunction:
		return "function"
	case SymbolMethod:
		return "method"
	case SymbolClass:
		return "class"
	case SymbolNative:
		return "native"
	case SymbolUnit:
		return "unit"
	default:
		return "invalid"
	}
}

// IsRoutine reports procedures, functions, methods and natives.
func (k SymbolKind) IsRoutine() bool {
	return k == SymbolProcedure || k == SymbolFunction || k == SymbolMethod || k == SymbolNative
}

// IsTypeName reports symbols that name a type.
func (k SymbolKind) IsTypeName() bool {
	return k == SymbolType || k == SymbolClass
}

// SymbolFlags encode misc attributes for quick checks.
type SymbolFlags uint16

const (
	SymbolFlagExported SymbolFlags = 1 << iota
	SymbolFlagImported
	SymbolFlagBuiltin
	SymbolFlagGlobal  // storage in unit globals rather than a frame
	SymbolFlagForward // routine header still waiting for its body
	SymbolFlagResult  // implicit function result variable
	SymbolFlagThis
)

// Strings returns a slice of textual flag labels.
func (f SymbolFlags) Strings() []string {
	if f == 0 {
		return nil
	}
	names := []struct {
		flag  SymbolFlags
		label string
	}{
		{SymbolFlagExported, "exported"},
		{SymbolFlagImported, "imported"},
		{SymbolFlagBuiltin, "builtin"},
		{SymbolFlagGlobal, "global"},
		{SymbolFlagForward, "forward"},
		{SymbolFlagResult, "result"},
		{SymbolFlagThis, "this"},
	}
	labels := make([]string, 0, 4)
	for _, n := range names {
		if f&n.flag != 0 {
			labels = append(labels, n.label)
		}
	}
	return labels
}

// Symbol is a named entity bound in a scope.
//
// Slot is the frame slot of params and locals or the global slot of unit
// variables. Routine is the index of the compiled routine inside Module; for
// natives Native holds the registry name instead.
type Symbol struct {
	Name    string
	Display string
	Kind    SymbolKind
	Flags   SymbolFlags
	Type    types.TypeID
	Scope   ScopeID
	Span    source.Span
	Module  string
	Const   value.Value
	Slot    int
	Routine int
	Class   types.TypeID
	Native  string
	Sig     types.Signature
}

// Has reports whether all flags in f are set.
func (s *Symbol) Has(f SymbolFlags) bool { return s.Flags&f == f }
