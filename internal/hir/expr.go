package hir

import (
	"blaise/internal/source"
	"blaise/internal/symbols"
	"blaise/internal/types"
	"blaise/internal/value"
)

// ExprKind enumerates bound expression kinds.
type ExprKind uint8

const (
	// ExprConst is a folded constant.
	ExprConst ExprKind = iota
	// ExprLocal reads a frame slot (params, locals, this, result).
	ExprLocal
	// ExprGlobal reads a unit global, possibly of another unit.
	ExprGlobal
	// ExprField reads a field through an object reference.
	ExprField
	// ExprIndex reads an array element or a string char.
	ExprIndex
	// ExprDeref reads through a pointer to a non-class type.
	ExprDeref
	// ExprUnary applies a unary operator.
	ExprUnary
	// ExprBinary applies a binary operator.
	ExprBinary
	// ExprConvert applies an implicit conversion.
	ExprConvert
	// ExprCall calls a routine, method, native or routine value.
	ExprCall
	// ExprNewObject allocates an object and runs its constructor.
	ExprNewObject
	// ExprNewArray allocates a dynamic array.
	ExprNewArray
	// ExprNewCell allocates a cell for a pointer to a non-class type.
	ExprNewCell
	// ExprRoutine produces a routine value.
	ExprRoutine
)

// String returns a human-readable name for the expression kind.
func (k ExprKind) String() string {
	switch k {
	case ExprConst:
		return "Const"
	case ExprLocal:
		return "Local"
	case ExprGlobal:
		return "Global"
	case ExprField:
		return "Field"
	case ExprIndex:
		return "Index"
	case ExprDeref:
		return "Deref"
	case ExprUnary:
		return "Unary"
	case ExprBinary:
		return "Binary"
	case ExprConvert:
		return "Convert"
	case ExprCall:
		return "Call"
	case ExprNewObject:
		return "NewObject"
	case ExprNewArray:
		return "NewArray"
	case ExprNewCell:
		return "NewCell"
	case ExprRoutine:
		return "Routine"
	default:
		return "Unknown"
	}
}

// Expr is a bound expression; Type is always resolved.
type Expr struct {
	Kind ExprKind
	Type types.TypeID
	Span source.Span
	Data ExprData
}

// ExprData is the interface for expression-specific data.
type ExprData interface {
	exprData()
}

// IsConst reports folded constants.
func (e *Expr) IsConst() bool { return e != nil && e.Kind == ExprConst }

// ConstValue returns the folded value of an ExprConst.
func (e *Expr) ConstValue() value.Value {
	if d, ok := e.Data.(ConstData); ok {
		return d.Value
	}
	return value.Value{}
}

// ConstData holds data for ExprConst.
type ConstData struct {
	Value value.Value
}

func (ConstData) exprData() {}

// LocalData holds data for ExprLocal.
type LocalData struct {
	Symbol symbols.SymbolID
	Slot   int
}

func (LocalData) exprData() {}

// GlobalData holds data for ExprGlobal.
type GlobalData struct {
	Symbol symbols.SymbolID
	Module string
	Slot   int
	Name   string
}

func (GlobalData) exprData() {}

// FieldData holds data for ExprField.
type FieldData struct {
	Object *Expr
	Name   string
	Offset int
}

func (FieldData) exprData() {}

// IndexData holds data for ExprIndex.
type IndexData struct {
	Object *Expr
	Index  *Expr
	String bool
}

func (IndexData) exprData() {}

// DerefData holds data for ExprDeref.
type DerefData struct {
	Pointer *Expr
}

func (DerefData) exprData() {}

// UnaryData holds data for ExprUnary.
type UnaryData struct {
	Op      Op
	Operand *Expr
}

func (UnaryData) exprData() {}

// BinaryData holds data for ExprBinary. Boolean and/or are lowered with
// short-circuit evaluation.
type BinaryData struct {
	Op    Op
	Left  *Expr
	Right *Expr
}

func (BinaryData) exprData() {}

// ConvKind enumerates implicit conversions.
type ConvKind uint8

const (
	ConvIntToReal ConvKind = iota + 1
	ConvCharToString
)

// ConvertData holds data for ExprConvert.
type ConvertData struct {
	Conv    ConvKind
	Operand *Expr
}

func (ConvertData) exprData() {}

// CallKind tells how the callee is reached.
type CallKind uint8

const (
	// CallStatic calls a known routine directly.
	CallStatic CallKind = iota
	// CallVirtual dispatches through the receiver's vmt slot.
	CallVirtual
	// CallNative calls a registered native.
	CallNative
	// CallIndirect calls a routine value.
	CallIndirect
)

// CallData holds data for ExprCall. For method calls Args[0] is the receiver.
type CallData struct {
	Call    CallKind
	Routine types.RoutineRef
	Slot    int
	Native  string
	Callee  *Expr
	Args    []*Expr
	Name    string
}

func (CallData) exprData() {}

// NewObjectData holds data for ExprNewObject.
type NewObjectData struct {
	Class types.ClassKey
	Ctor  *types.RoutineRef
	Args  []*Expr
}

func (NewObjectData) exprData() {}

// NewArrayData holds data for ExprNewArray.
type NewArrayData struct {
	Elem   types.TypeID
	Length *Expr
}

func (NewArrayData) exprData() {}

// NewCellData holds data for ExprNewCell.
type NewCellData struct {
	Elem types.TypeID
}

func (NewCellData) exprData() {}

// RoutineData holds data for ExprRoutine.
type RoutineData struct {
	Routine types.RoutineRef
	Name    string
}

func (RoutineData) exprData() {}

// IsAddressable reports whether e may appear on the left of an assignment.
func (e *Expr) IsAddressable() bool {
	switch e.Kind {
	case ExprLocal, ExprGlobal, ExprField, ExprDeref:
		return true
	case ExprIndex:
		return !e.Data.(IndexData).String
	}
	return false
}
