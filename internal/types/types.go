// Package types describes Blaise types: primitives, strings, pointers,
// arrays, classes and procedural signatures. TypeIDs are handles into an
// Interner; structural types are hash-consed so equal descriptors share an
// ID, classes are nominal and get a fresh ID per declaration.
package types

import "fmt"

// TypeID uniquely identifies a type inside the interner.
type TypeID uint32

// NoTypeID marks the absence of a type.
const NoTypeID TypeID = 0

// Kind enumerates all supported kinds of types.
type Kind uint8

const (
	KindInvalid Kind = iota
	KindVoid         // result "type" of procedures
	KindNil          // type of the nil literal
	KindBool
	KindInt
	KindReal
	KindChar
	KindString
	KindPointer
	KindArray
	KindClass
	KindProc // procedure signature
	KindFunc // function signature
)

func (k Kind) String() string {
	switch k {
	case KindInvalid:
		return "invalid"
	case KindVoid:
		return "void"
	case KindNil:
		return "nil"
	case KindBool:
		return "boolean"
	case KindInt:
		return "integer"
	case KindReal:
		return "real"
	case KindChar:
		return "char"
	case KindString:
		return "string"
	case KindPointer:
		return "pointer"
	case KindArray:
		return "array"
	case KindClass:
		return "class"
	case KindProc:
		return "procedure"
	case KindFunc:
		return "function"
	default:
		return fmt.Sprintf("Kind(%d)", k)
	}
}

// ArrayDynamicLength marks "array of T" whose length is only known at run time.
const ArrayDynamicLength = ^uint32(0)

// Type is a compact descriptor. Payload indexes the class or signature
// side tables for KindClass / KindProc / KindFunc.
type Type struct {
	Kind    Kind
	Elem    TypeID
	Count   uint32
	Payload uint32
}

// MakePointer describes "pointer to elem".
func MakePointer(elem TypeID) Type {
	return Type{Kind: KindPointer, Elem: elem}
}

// MakeArray describes "array[count] of elem"; use ArrayDynamicLength for "array of elem".
func MakeArray(elem TypeID, count uint32) Type {
	return Type{Kind: KindArray, Elem: elem, Count: count}
}

// IsDynamic reports whether an array type has no compile-time length.
func (t Type) IsDynamic() bool {
	return t.Kind == KindArray && t.Count == ArrayDynamicLength
}

// IsNumeric reports integer or real.
func (t Type) IsNumeric() bool {
	return t.Kind == KindInt || t.Kind == KindReal
}

// IsOrdinal reports integer, char or boolean.
func (t Type) IsOrdinal() bool {
	return t.Kind == KindInt || t.Kind == KindChar || t.Kind == KindBool
}

// IsRoutine reports procedure and function signatures.
func (t Type) IsRoutine() bool {
	return t.Kind == KindProc || t.Kind == KindFunc
}

// IsReference reports kinds whose runtime values live behind a heap handle
// or may be nil.
func (t Type) IsReference() bool {
	switch t.Kind {
	case KindPointer, KindArray, KindClass, KindProc, KindFunc, KindNil:
		return true
	default:
		return false
	}
}
