package bytecode

import (
	"fmt"

	"blaise/internal/value"
)

// ShapeKind is the storage class of a slot, used to produce its initial value.
type ShapeKind uint8

const (
	ShapeBool ShapeKind = iota + 1
	ShapeInt
	ShapeReal
	ShapeChar
	ShapeString
	ShapeRef     // class, pointer or dynamic array: starts nil
	ShapeRoutine // procedural value: starts nil
	ShapeArray   // fixed-length array: allocated on entry
)

// Shape describes the zero value of a slot. Fixed arrays carry their length
// and element shape so that nested arrays are allocated too.
type Shape struct {
	Kind ShapeKind `msgpack:"k"`
	Len  int       `msgpack:"n,omitempty"`
	Elem *Shape    `msgpack:"e,omitempty"`
}

// Zero returns the initial value of a scalar shape. Fixed arrays have no
// scalar zero; callers allocate them.
func (s Shape) Zero() value.Value {
	switch s.Kind {
	case ShapeBool:
		return value.Bool(false)
	case ShapeInt:
		return value.Int(0)
	case ShapeReal:
		return value.Real(0)
	case ShapeChar:
		return value.Char(0)
	case ShapeString:
		return value.String("")
	case ShapeRoutine:
		return value.Routine("", 0)
	}
	return value.Nil()
}

func (s Shape) String() string {
	switch s.Kind {
	case ShapeBool:
		return "bool"
	case ShapeInt:
		return "int"
	case ShapeReal:
		return "real"
	case ShapeChar:
		return "char"
	case ShapeString:
		return "string"
	case ShapeRef:
		return "ref"
	case ShapeRoutine:
		return "routine"
	case ShapeArray:
		if s.Elem == nil {
			return fmt.Sprintf("[%d]?", s.Len)
		}
		return fmt.Sprintf("[%d]%s", s.Len, s.Elem)
	}
	return "?"
}
