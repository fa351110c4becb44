package value

import (
	"errors"
	"fmt"
)

// ErrDivisionByZero is returned by Div, Mod and RealDiv.
var ErrDivisionByZero = errors.New("division by zero")

// ErrOperand is returned when an operator gets values it does not accept.
var ErrOperand = errors.New("invalid operand")

func operandErr(op string, a, b Value) error {
	return fmt.Errorf("%w: %s %s %s", ErrOperand, a.Kind, op, b.Kind)
}

// Add adds integers or reals; a real operand makes the result real.
func Add(a, b Value) (Value, error) {
	switch {
	case a.Kind == KInt && b.Kind == KInt:
		return Int(a.Int + b.Int), nil
	case isNum(a) && isNum(b):
		return Real(a.AsReal() + b.AsReal()), nil
	}
	return Value{}, operandErr("+", a, b)
}

// Sub subtracts integers or reals.
func Sub(a, b Value) (Value, error) {
	switch {
	case a.Kind == KInt && b.Kind == KInt:
		return Int(a.Int - b.Int), nil
	case isNum(a) && isNum(b):
		return Real(a.AsReal() - b.AsReal()), nil
	}
	return Value{}, operandErr("-", a, b)
}

// Mul multiplies integers or reals.
func Mul(a, b Value) (Value, error) {
	switch {
	case a.Kind == KInt && b.Kind == KInt:
		return Int(a.Int * b.Int), nil
	case isNum(a) && isNum(b):
		return Real(a.AsReal() * b.AsReal()), nil
	}
	return Value{}, operandErr("*", a, b)
}

// RealDiv always yields a real.
func RealDiv(a, b Value) (Value, error) {
	if !isNum(a) || !isNum(b) {
		return Value{}, operandErr("/", a, b)
	}
	if b.AsReal() == 0 {
		return Value{}, ErrDivisionByZero
	}
	return Real(a.AsReal() / b.AsReal()), nil
}

// Div is integer division truncating toward zero.
func Div(a, b Value) (Value, error) {
	if a.Kind != KInt || b.Kind != KInt {
		return Value{}, operandErr("div", a, b)
	}
	if b.Int == 0 {
		return Value{}, ErrDivisionByZero
	}
	return Int(a.Int / b.Int), nil
}

// Mod is the integer remainder with the sign of the dividend.
func Mod(a, b Value) (Value, error) {
	if a.Kind != KInt || b.Kind != KInt {
		return Value{}, operandErr("mod", a, b)
	}
	if b.Int == 0 {
		return Value{}, ErrDivisionByZero
	}
	return Int(a.Int % b.Int), nil
}

// Neg negates a number.
func Neg(a Value) (Value, error) {
	switch a.Kind {
	case KInt:
		return Int(-a.Int), nil
	case KReal:
		return Real(-a.Real), nil
	}
	return Value{}, fmt.Errorf("%w: -%s", ErrOperand, a.Kind)
}

// Not is logical not for booleans and bitwise complement for integers.
func Not(a Value) (Value, error) {
	switch a.Kind {
	case KBool:
		return Bool(!a.AsBool()), nil
	case KInt:
		return Int(^a.Int), nil
	}
	return Value{}, fmt.Errorf("%w: not %s", ErrOperand, a.Kind)
}

// And, Or and Xor work on two booleans or two integers.
func And(a, b Value) (Value, error) { return bitwise("and", a, b, func(x, y int64) int64 { return x & y }) }

// Or is the non-short-circuit form; see And.
func Or(a, b Value) (Value, error) { return bitwise("or", a, b, func(x, y int64) int64 { return x | y }) }

// Xor; see And.
func Xor(a, b Value) (Value, error) { return bitwise("xor", a, b, func(x, y int64) int64 { return x ^ y }) }

func bitwise(op string, a, b Value, f func(x, y int64) int64) (Value, error) {
	switch {
	case a.Kind == KBool && b.Kind == KBool:
		return Bool(f(a.Int, b.Int) != 0), nil
	case a.Kind == KInt && b.Kind == KInt:
		return Int(f(a.Int, b.Int)), nil
	}
	return Value{}, operandErr(op, a, b)
}

// Shl shifts left; negative counts shift by zero.
func Shl(a, b Value) (Value, error) {
	if a.Kind != KInt || b.Kind != KInt {
		return Value{}, operandErr("shl", a, b)
	}
	return Int(a.Int << uint64(max(b.Int, 0))), nil
}

// Shr is a logical right shift.
func Shr(a, b Value) (Value, error) {
	if a.Kind != KInt || b.Kind != KInt {
		return Value{}, operandErr("shr", a, b)
	}
	return Int(int64(uint64(a.Int) >> uint64(max(b.Int, 0)))), nil
}

// Concat joins chars and strings into a string.
func Concat(a, b Value) (Value, error) {
	if !isText(a) || !isText(b) {
		return Value{}, operandErr("+", a, b)
	}
	return String(a.Text() + b.Text()), nil
}

func isNum(v Value) bool  { return v.Kind == KInt || v.Kind == KReal }
func isText(v Value) bool { return v.Kind == KString || v.Kind == KChar }

// Succ returns the next ordinal value.
func Succ(v Value) (Value, error) {
	switch v.Kind {
	case KInt, KChar, KBool:
		v.Int++
		return v, nil
	}
	return Value{}, fmt.Errorf("%w: succ of %s", ErrOperand, v.Kind)
}

// Pred returns the previous ordinal value.
func Pred(v Value) (Value, error) {
	switch v.Kind {
	case KInt, KChar, KBool:
		v.Int--
		return v, nil
	}
	return Value{}, fmt.Errorf("%w: pred of %s", ErrOperand, v.Kind)
}
