package value

import (
	"errors"
	"testing"
)

func TestEqualMixedKinds(t *testing.T) {
	tests := []struct {
		a, b Value
		want bool
	}{
		{Int(2), Real(2), true},
		{Char('a'), String("a"), true},
		{Nil(), Ref(0), true},
		{Nil(), Routine("", 0), true},
		{Ref(3), Ref(3), true},
		{Ref(3), Nil(), false},
		{Routine("u", 1), Routine("u", 2), false},
		{Bool(true), Bool(true), true},
	}
	for _, tt := range tests {
		if got := Equal(tt.a, tt.b); got != tt.want {
			t.Errorf("Equal(%v, %v) = %v, want %v", tt.a, tt.b, got, tt.want)
		}
	}
}

func TestCompareOrdersStringsAndNumbers(t *testing.T) {
	if Compare(Int(1), Real(1.5)) != -1 {
		t.Fatalf("1 < 1.5 expected")
	}
	if Compare(String("b"), String("a")) != 1 {
		t.Fatalf("b > a expected")
	}
	if Compare(Char('a'), Char('a')) != 0 {
		t.Fatalf("a == a expected")
	}
}

func TestStringRendering(t *testing.T) {
	if got := Real(2.5).String(); got != "2.5" {
		t.Fatalf("got %q", got)
	}
	if got := Bool(false).String(); got != "FALSE" {
		t.Fatalf("got %q", got)
	}
	if got := Char('x').Quote(); got != "#120" {
		t.Fatalf("got %q", got)
	}
}

func TestArithmetic(t *testing.T) {
	if v, _ := Add(Int(2), Int(3)); v != Int(5) {
		t.Fatalf("2+3 = %v", v)
	}
	if v, _ := Add(Int(2), Real(0.5)); v.Kind != KReal || v.Real != 2.5 {
		t.Fatalf("2+0.5 = %v", v)
	}
	if v, _ := RealDiv(Int(7), Int(2)); v.Kind != KReal || v.Real != 3.5 {
		t.Fatalf("7/2 = %v", v)
	}
	if v, _ := Div(Int(-7), Int(2)); v.Int != -3 {
		t.Fatalf("-7 div 2 = %v", v)
	}
	if _, err := Mod(Int(1), Int(0)); !errors.Is(err, ErrDivisionByZero) {
		t.Fatalf("want division by zero, got %v", err)
	}
	if v, _ := Concat(Char('a'), String("bc")); v != String("abc") {
		t.Fatalf("concat = %v", v)
	}
	if v, _ := And(Bool(true), Bool(false)); v.AsBool() {
		t.Fatalf("true and false")
	}
	if v, _ := Xor(Int(6), Int(3)); v.Int != 5 {
		t.Fatalf("6 xor 3 = %v", v)
	}
	if _, err := Add(String("a"), Int(1)); !errors.Is(err, ErrOperand) {
		t.Fatalf("want operand error, got %v", err)
	}
}

func TestSuccPredOrdinals(t *testing.T) {
	c, err := Succ(Char('a'))
	if err != nil || c.Kind != KChar || c.AsChar() != 'b' {
		t.Fatalf("succ('a') = %v, %v", c, err)
	}
	n, err := Pred(Int(0))
	if err != nil || n.Int != -1 {
		t.Fatalf("pred(0) = %v, %v", n, err)
	}
	if _, err := Succ(Real(1)); !errors.Is(err, ErrOperand) {
		t.Fatalf("succ(real) error = %v, want ErrOperand", err)
	}
}
