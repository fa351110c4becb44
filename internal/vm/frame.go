package vm

import (
	"blaise/internal/bytecode"
	"blaise/internal/source"
	"blaise/internal/value"
)

// FrameState tracks where an activation is in its lifecycle.
type FrameState uint8

const (
	FrameReady FrameState = iota
	FrameRunning
	FrameSuspendedOnCall
	FrameReturned
	FrameFaulted
)

func (s FrameState) String() string {
	switch s {
	case FrameReady:
		return "ready"
	case FrameRunning:
		return "running"
	case FrameSuspendedOnCall:
		return "suspended"
	case FrameReturned:
		return "returned"
	case FrameFaulted:
		return "faulted"
	}
	return "?"
}

// Frame is one routine activation. Locals holds this (for methods), the
// parameters, the result slot and the declared locals, in that order.
type Frame struct {
	Unit    *linkedUnit
	Routine *bytecode.Routine
	Locals  []value.Value
	Stack   []value.Value // operand stack
	Block   int
	IP      int
	State   FrameState
	Span    source.Span // current instruction
}

// Name returns the qualified routine name, e.g. "zoo.dog.Speak".
func (f *Frame) Name() string {
	if f.Unit == nil {
		return f.Routine.Name
	}
	return f.Unit.unit.Display + "." + f.Routine.Name
}

// Instr returns the current instruction, or nil past the end of the block.
func (f *Frame) Instr() *bytecode.Instr {
	if f.Block < 0 || f.Block >= len(f.Routine.Code.Blocks) {
		return nil
	}
	b := &f.Routine.Code.Blocks[f.Block]
	if f.IP < 0 || f.IP >= len(b.Instrs) {
		return nil
	}
	return &b.Instrs[f.IP]
}

func (f *Frame) push(v value.Value) { f.Stack = append(f.Stack, v) }

func (f *Frame) pop() value.Value {
	n := len(f.Stack) - 1
	v := f.Stack[n]
	f.Stack = f.Stack[:n]
	return v
}

func (f *Frame) peek() value.Value { return f.Stack[len(f.Stack)-1] }

// popN removes the top n values and returns them bottom first. The returned
// slice is a copy.
func (f *Frame) popN(n int) []value.Value {
	k := len(f.Stack) - n
	out := make([]value.Value, n)
	copy(out, f.Stack[k:])
	f.Stack = f.Stack[:k]
	return out
}

func (f *Frame) jump(block int) {
	f.Block = block
	f.IP = 0
}
