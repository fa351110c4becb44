package vm

import (
	"fmt"
	"io"

	"blaise/internal/bytecode"
	"blaise/internal/source"
	"blaise/internal/value"
)

// Tracer outputs execution traces for debugging.
type Tracer struct {
	w     io.Writer
	files *source.FileSet
}

// NewTracer creates a new tracer that writes to w.
func NewTracer(w io.Writer, files *source.FileSet) *Tracer {
	return &Tracer{w: w, files: files}
}

// TraceInstr traces execution of an instruction.
// Format: [depth=N] <routine> bb<id>:ip<ip> <instr> @ <file>:<line>:<col>
func (t *Tracer) TraceInstr(depth int, f *Frame, in *bytecode.Instr) {
	if t == nil || t.w == nil {
		return
	}
	fmt.Fprintf(t.w, "[depth=%d] %s bb%d:ip%d %s @ %s\n",
		depth, f.Name(), f.Block, f.IP, in, formatSpan(f.Span, t.files))
}

// TraceCall traces entry into a routine.
func (t *Tracer) TraceCall(depth int, f *Frame) {
	if t == nil || t.w == nil {
		return
	}
	fmt.Fprintf(t.w, "[depth=%d] enter %s\n", depth, f.Name())
}

// TraceReturn traces a routine returning, with its result if any.
func (t *Tracer) TraceReturn(depth int, f *Frame, result *value.Value) {
	if t == nil || t.w == nil {
		return
	}
	if result != nil {
		fmt.Fprintf(t.w, "[depth=%d] leave %s = %s\n", depth, f.Name(), result.Quote())
		return
	}
	fmt.Fprintf(t.w, "[depth=%d] leave %s\n", depth, f.Name())
}

func (t *Tracer) TraceHeapAlloc(kind CellKind, h value.Handle, n int) {
	if t == nil || t.w == nil {
		return
	}
	switch kind {
	case CellObject:
		fmt.Fprintf(t.w, "[heap] alloc object#%d (%d slots)\n", h, n)
	case CellArray:
		fmt.Fprintf(t.w, "[heap] alloc array#%d (%d elems)\n", h, n)
	default:
		fmt.Fprintf(t.w, "[heap] alloc handle#%d\n", h)
	}
}

func (t *Tracer) TraceCollect(freed, live int) {
	if t == nil || t.w == nil {
		return
	}
	fmt.Fprintf(t.w, "[heap] collect freed=%d live=%d\n", freed, live)
}
