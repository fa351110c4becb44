package native

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"unicode"

	"blaise/internal/value"
)

// Standard returns a registry holding the built-in library.
func Standard() *Registry {
	r := NewRegistry()
	for _, n := range stdlib() {
		if err := r.Register(n); err != nil {
			panic(err)
		}
	}
	return r
}

var errNoInput = errors.New("readln: no input")

func stdlib() []Native {
	return []Native{
		{Name: "write", Params: []ArgKind{ArgAny}, Variadic: true, Fn: write(false)},
		{Name: "writeln", Params: []ArgKind{ArgAny}, Variadic: true, Fn: write(true)},
		{Name: "readln", Result: ResultString, Fn: readln},
		{Name: "length", Params: []ArgKind{ArgSized}, Result: ResultInt, Pure: true, Fn: length},
		{Name: "ord", Params: []ArgKind{ArgOrdinal}, Result: ResultInt, Pure: true, Fn: ord},
		{Name: "chr", Params: []ArgKind{ArgInt}, Result: ResultChar, Pure: true, Fn: chr},
		{Name: "abs", Params: []ArgKind{ArgNumeric}, Result: ResultArg0, Pure: true, Fn: abs},
		{Name: "sqr", Params: []ArgKind{ArgNumeric}, Result: ResultArg0, Pure: true, Fn: sqr},
		{Name: "sqrt", Params: []ArgKind{ArgReal}, Result: ResultReal, Pure: true, Fn: sqrt},
		{Name: "trunc", Params: []ArgKind{ArgReal}, Result: ResultInt, Pure: true, Fn: trunc},
		{Name: "round", Params: []ArgKind{ArgReal}, Result: ResultInt, Pure: true, Fn: round},
		{Name: "inttostr", Params: []ArgKind{ArgInt}, Result: ResultString, Pure: true, Fn: intToStr},
		{Name: "strtoint", Params: []ArgKind{ArgString}, Result: ResultInt, Pure: true, Fn: strToInt},
		{Name: "floattostr", Params: []ArgKind{ArgReal}, Result: ResultString, Pure: true, Fn: floatToStr},
		{Name: "copy", Params: []ArgKind{ArgString, ArgInt, ArgInt}, Result: ResultString, Pure: true, Fn: copyStr},
		{Name: "pos", Params: []ArgKind{ArgString, ArgString}, Result: ResultInt, Pure: true, Fn: pos},
		{Name: "upcase", Params: []ArgKind{ArgText}, Result: ResultArg0, Pure: true, Fn: upcase},
		{Name: "halt", Params: []ArgKind{ArgInt}, Fn: halt},
	}
}

func write(newline bool) Func {
	return func(env Env, args []value.Value) (value.Value, error) {
		var sb strings.Builder
		for _, a := range args {
			sb.WriteString(a.String())
		}
		if newline {
			sb.WriteByte('\n')
		}
		_, err := env.Out().Write([]byte(sb.String()))
		return value.Value{}, err
	}
}

func readln(env Env, _ []value.Value) (value.Value, error) {
	in := env.In()
	if in == nil {
		return value.Value{}, errNoInput
	}
	line, err := in.ReadString('\n')
	if err != nil && line == "" {
		return value.String(""), nil
	}
	return value.String(strings.TrimRight(line, "\r\n")), nil
}

func length(env Env, args []value.Value) (value.Value, error) {
	a := args[0]
	switch a.Kind {
	case value.KString:
		return value.Int(int64(len([]rune(a.Str)))), nil
	case value.KChar:
		return value.Int(1), nil
	}
	if env == nil {
		return value.Value{}, errors.New("length: array outside a running program")
	}
	n, err := env.Len(a)
	return value.Int(int64(n)), err
}

func ord(_ Env, args []value.Value) (value.Value, error) {
	return value.Int(args[0].Int), nil
}

func chr(_ Env, args []value.Value) (value.Value, error) {
	n := args[0].Int
	if n < 0 || n > unicode.MaxRune {
		return value.Value{}, fmt.Errorf("chr: %d is not a code point", n)
	}
	return value.Char(rune(n)), nil
}

func abs(_ Env, args []value.Value) (value.Value, error) {
	a := args[0]
	if a.Kind == value.KReal {
		return value.Real(math.Abs(a.Real)), nil
	}
	if a.Int < 0 {
		return value.Int(-a.Int), nil
	}
	return a, nil
}

func sqr(_ Env, args []value.Value) (value.Value, error) {
	a := args[0]
	if a.Kind == value.KReal {
		return value.Real(a.Real * a.Real), nil
	}
	return value.Int(a.Int * a.Int), nil
}

func sqrt(_ Env, args []value.Value) (value.Value, error) {
	f := args[0].AsReal()
	if f < 0 {
		return value.Value{}, fmt.Errorf("sqrt of negative number %g", f)
	}
	return value.Real(math.Sqrt(f)), nil
}

func trunc(_ Env, args []value.Value) (value.Value, error) {
	return value.Int(int64(math.Trunc(args[0].AsReal()))), nil
}

func round(_ Env, args []value.Value) (value.Value, error) {
	return value.Int(int64(math.Round(args[0].AsReal()))), nil
}

func intToStr(_ Env, args []value.Value) (value.Value, error) {
	return value.String(strconv.FormatInt(args[0].Int, 10)), nil
}

func strToInt(_ Env, args []value.Value) (value.Value, error) {
	n, err := strconv.ParseInt(strings.TrimSpace(args[0].Text()), 10, 64)
	if err != nil {
		return value.Value{}, fmt.Errorf("strtoint: %q is not an integer", args[0].Text())
	}
	return value.Int(n), nil
}

func floatToStr(_ Env, args []value.Value) (value.Value, error) {
	return value.String(strconv.FormatFloat(args[0].AsReal(), 'g', -1, 64)), nil
}

func copyStr(_ Env, args []value.Value) (value.Value, error) {
	rs := []rune(args[0].Text())
	start, count := args[1].Int, args[2].Int
	if start < 0 {
		start = 0
	}
	if start >= int64(len(rs)) || count <= 0 {
		return value.String(""), nil
	}
	end := min(start+count, int64(len(rs)))
	return value.String(string(rs[start:end])), nil
}

func pos(_ Env, args []value.Value) (value.Value, error) {
	sub, s := args[0].Text(), args[1].Text()
	idx := strings.Index(s, sub)
	if idx < 0 {
		return value.Int(-1), nil
	}
	return value.Int(int64(len([]rune(s[:idx])))), nil
}

func upcase(_ Env, args []value.Value) (value.Value, error) {
	a := args[0]
	if a.Kind == value.KChar {
		return value.Char(unicode.ToUpper(a.AsChar())), nil
	}
	return value.String(strings.ToUpper(a.Str)), nil
}

func halt(_ Env, args []value.Value) (value.Value, error) {
	return value.Value{}, &HaltError{Code: int(args[0].Int)}
}
