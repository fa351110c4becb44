package vm

import (
	"fmt"
	"strings"

	"blaise/internal/source"
)

// PanicCode identifies the kind of run-time fault.
type PanicCode int

// Stable fault codes - do not change values.
const (
	PanicIndexOutOfBounds PanicCode = 1001 // VM1001: array or string index out of range
	PanicNullReference    PanicCode = 1002 // VM1002: nil object, array, pointer or routine
	PanicDivisionByZero   PanicCode = 1003 // VM1003: div, mod or / by zero
	PanicHeapExhausted    PanicCode = 1004 // VM1004: heap budget exceeded after collection
	PanicStopped          PanicCode = 1005 // VM1005: host requested termination
	PanicNativeError      PanicCode = 1006 // VM1006: native routine failed
	PanicStackOverflow    PanicCode = 1007 // VM1007: call depth limit reached
	PanicTypeMismatch     PanicCode = 1008 // VM1008: operand of the wrong kind
	PanicInvalidCode      PanicCode = 1999 // VM1999: malformed bytecode
)

var panicNames = map[PanicCode]string{
	PanicIndexOutOfBounds: "IndexOutOfBounds",
	PanicNullReference:    "NullReference",
	PanicDivisionByZero:   "DivisionByZero",
	PanicHeapExhausted:    "HeapExhausted",
	PanicStopped:          "Stopped",
	PanicNativeError:      "NativeError",
	PanicStackOverflow:    "StackOverflow",
	PanicTypeMismatch:     "TypeMismatch",
	PanicInvalidCode:      "InvalidCode",
}

// String returns the code as "VM1001" format.
func (c PanicCode) String() string {
	return fmt.Sprintf("VM%d", c)
}

// Name returns the fault kind, e.g. "IndexOutOfBounds".
func (c PanicCode) Name() string {
	if n, ok := panicNames[c]; ok {
		return n
	}
	return c.String()
}

// BacktraceFrame represents one frame in the fault backtrace.
type BacktraceFrame struct {
	FuncName string
	Span     source.Span
}

// VMError represents a run-time fault.
type VMError struct {
	Code      PanicCode
	Message   string
	Span      source.Span      // location of the faulting instruction
	Backtrace []BacktraceFrame // stack frames from top to bottom
}

// Error implements the error interface.
func (p *VMError) Error() string {
	return fmt.Sprintf("%s %s: %s", p.Code.Name(), p.Code, p.Message)
}

// FormatWithFiles formats the fault with resolved file:line:col information.
func (p *VMError) FormatWithFiles(files *source.FileSet) string {
	var sb strings.Builder

	fmt.Fprintf(&sb, "runtime error %s (%s): %s\n", p.Code, p.Code.Name(), p.Message)

	sb.WriteString("at ")
	sb.WriteString(formatSpan(p.Span, files))
	sb.WriteString("\n")

	if len(p.Backtrace) > 0 {
		sb.WriteString("backtrace:\n")
		for i, frame := range p.Backtrace {
			fmt.Fprintf(&sb, "  %d: %s at %s\n", i, frame.FuncName, formatSpan(frame.Span, files))
		}
	}

	return sb.String()
}

// formatSpan formats a span as "file:line:col" or "<no-span>" if empty.
func formatSpan(span source.Span, files *source.FileSet) string {
	if files == nil || (span.Start == 0 && span.End == 0) {
		return "<no-span>"
	}

	file := files.Get(span.File)
	if file == nil {
		return "<no-span>"
	}

	start, _ := files.Resolve(span)
	return fmt.Sprintf("%s:%d:%d", file.Path, start.Line, start.Col)
}

// errorBuilder helps construct VMError values.
type errorBuilder struct {
	vm *VM
}

func (eb *errorBuilder) makeError(code PanicCode, msg string) *VMError {
	e := &VMError{
		Code:    code,
		Message: msg,
	}

	stack := eb.vm.Stack
	if len(stack) > 0 {
		e.Span = stack[len(stack)-1].Span
	}

	// Top to bottom.
	e.Backtrace = make([]BacktraceFrame, len(stack))
	for i := len(stack) - 1; i >= 0; i-- {
		frame := &stack[i]
		e.Backtrace[len(stack)-1-i] = BacktraceFrame{
			FuncName: frame.Name(),
			Span:     frame.Span,
		}
	}

	return e
}

func (eb *errorBuilder) outOfBounds(index int64, length int) *VMError {
	return eb.makeError(PanicIndexOutOfBounds, fmt.Sprintf("index %d out of bounds for length %d", index, length))
}

func (eb *errorBuilder) nullReference(what string) *VMError {
	return eb.makeError(PanicNullReference, fmt.Sprintf("nil %s dereferenced", what))
}

func (eb *errorBuilder) divisionByZero() *VMError {
	return eb.makeError(PanicDivisionByZero, "division by zero")
}

func (eb *errorBuilder) heapExhausted(need, budget int) *VMError {
	return eb.makeError(PanicHeapExhausted, fmt.Sprintf("allocation of %d words exceeds heap budget of %d words", need, budget))
}

func (eb *errorBuilder) stopped() *VMError {
	return eb.makeError(PanicStopped, "execution stopped by host")
}

func (eb *errorBuilder) nativeError(name string, err error) *VMError {
	return eb.makeError(PanicNativeError, fmt.Sprintf("%s: %v", name, err))
}

func (eb *errorBuilder) stackOverflow(depth int) *VMError {
	return eb.makeError(PanicStackOverflow, fmt.Sprintf("call depth exceeds %d frames", depth))
}

func (eb *errorBuilder) typeMismatch(err error) *VMError {
	return eb.makeError(PanicTypeMismatch, err.Error())
}

func (eb *errorBuilder) invalidCode(format string, args ...any) *VMError {
	return eb.makeError(PanicInvalidCode, fmt.Sprintf(format, args...))
}
