// Package value defines the runtime values shared by the constant folder,
// the bytecode constant pools and the virtual machine.
package value

import (
	"fmt"
	"strconv"
)

// Kind identifies the runtime type of a Value.
type Kind uint8

const (
	// KInvalid is the zero Value.
	KInvalid Kind = iota
	// KBool is a boolean.
	KBool
	// KInt is a signed 64-bit integer.
	KInt
	// KReal is a float64.
	KReal
	// KChar is a single Unicode code point.
	KChar
	// KString is an immutable string.
	KString
	// KRef is a heap handle: object, array or pointer cell. Handle 0 is nil.
	KRef
	// KRoutine is a routine value (unit name + routine index).
	KRoutine
)

func (k Kind) String() string {
	switch k {
	case KInvalid:
		return "invalid"
	case KBool:
		return "boolean"
	case KInt:
		return "integer"
	case KReal:
		return "real"
	case KChar:
		return "char"
	case KString:
		return "string"
	case KRef:
		return "ref"
	case KRoutine:
		return "routine"
	default:
		return fmt.Sprintf("Kind(%d)", k)
	}
}

// Handle addresses a heap cell. NilHandle never refers to a live cell.
type Handle uint32

// NilHandle is the nil reference.
const NilHandle Handle = 0

// Value is a tagged runtime value. Routine values keep the unit in Str and
// the routine index in Int; a routine value with an empty unit is nil.
type Value struct {
	Kind Kind    `msgpack:"k"`
	Int  int64   `msgpack:"i,omitempty"`
	Real float64 `msgpack:"r,omitempty"`
	Str  string  `msgpack:"s,omitempty"`
	Ref  Handle  `msgpack:"h,omitempty"`
}

// Bool returns a boolean value.
func Bool(b bool) Value {
	v := Value{Kind: KBool}
	if b {
		v.Int = 1
	}
	return v
}

// Int returns an integer value.
func Int(n int64) Value { return Value{Kind: KInt, Int: n} }

// Real returns a real value.
func Real(f float64) Value { return Value{Kind: KReal, Real: f} }

// Char returns a char value.
func Char(r rune) Value { return Value{Kind: KChar, Int: int64(r)} }

// String returns a string value.
func String(s string) Value { return Value{Kind: KString, Str: s} }

// Ref returns a reference value.
func Ref(h Handle) Value { return Value{Kind: KRef, Ref: h} }

// Nil returns the nil reference.
func Nil() Value { return Value{Kind: KRef} }

// Routine returns a routine value.
func Routine(unit string, index int) Value {
	return Value{Kind: KRoutine, Str: unit, Int: int64(index)}
}

// AsBool reports the boolean payload.
func (v Value) AsBool() bool { return v.Int != 0 }

// AsChar reports the char payload.
func (v Value) AsChar() rune { return rune(v.Int) }

// AsReal converts integers to real on the fly.
func (v Value) AsReal() float64 {
	if v.Kind == KInt {
		return float64(v.Int)
	}
	return v.Real
}

// IsNil reports nil references and nil routine values.
func (v Value) IsNil() bool {
	switch v.Kind {
	case KRef:
		return v.Ref == NilHandle
	case KRoutine:
		return v.Str == ""
	}
	return false
}

// Equal compares two values of compatible kinds. References compare by handle,
// routine values by identity, nil equals any nil reference or routine.
func Equal(a, b Value) bool {
	if a.IsNil() || b.IsNil() {
		return a.IsNil() && b.IsNil()
	}
	switch {
	case a.Kind == KReal || b.Kind == KReal:
		return a.AsReal() == b.AsReal()
	case a.Kind == KString || b.Kind == KString:
		return a.Text() == b.Text()
	case a.Kind == KRef:
		return b.Kind == KRef && a.Ref == b.Ref
	case a.Kind == KRoutine:
		return b.Kind == KRoutine && a.Str == b.Str && a.Int == b.Int
	}
	return a.Kind == b.Kind && a.Int == b.Int
}

// Compare orders numeric, char and string values. It returns -1, 0 or 1.
func Compare(a, b Value) int {
	switch {
	case a.Kind == KReal || b.Kind == KReal:
		x, y := a.AsReal(), b.AsReal()
		switch {
		case x < y:
			return -1
		case x > y:
			return 1
		}
		return 0
	case a.Kind == KString || b.Kind == KString:
		x, y := a.Text(), b.Text()
		switch {
		case x < y:
			return -1
		case x > y:
			return 1
		}
		return 0
	}
	switch {
	case a.Int < b.Int:
		return -1
	case a.Int > b.Int:
		return 1
	}
	return 0
}

// Text renders chars and strings as their contents.
func (v Value) Text() string {
	switch v.Kind {
	case KString:
		return v.Str
	case KChar:
		return string(v.AsChar())
	}
	return v.String()
}

// String renders a value the way write/writeln print it.
func (v Value) String() string {
	switch v.Kind {
	case KBool:
		if v.AsBool() {
			return "TRUE"
		}
		return "FALSE"
	case KInt:
		return strconv.FormatInt(v.Int, 10)
	case KReal:
		return strconv.FormatFloat(v.Real, 'g', -1, 64)
	case KChar:
		return string(v.AsChar())
	case KString:
		return v.Str
	case KRef:
		if v.Ref == NilHandle {
			return "nil"
		}
		return fmt.Sprintf("<ref #%d>", v.Ref)
	case KRoutine:
		if v.Str == "" {
			return "nil"
		}
		return fmt.Sprintf("<routine %s#%d>", v.Str, v.Int)
	}
	return "<invalid>"
}

// Quote renders a value as a source literal for listings.
func (v Value) Quote() string {
	switch v.Kind {
	case KString:
		return strconv.Quote(v.Str)
	case KChar:
		return "#" + strconv.FormatInt(v.Int, 10)
	}
	return v.String()
}
