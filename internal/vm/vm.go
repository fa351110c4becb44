// Package vm executes linked compiled units: a stack machine over
// bytecode.Routine frames with a mark-and-sweep collected heap.
package vm

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"sync/atomic"

	"blaise/internal/bytecode"
	"blaise/internal/module"
	"blaise/internal/native"
	"blaise/internal/source"
	"blaise/internal/value"
)

// DefaultMaxFrames bounds call depth when Options.MaxFrames is zero.
const DefaultMaxFrames = 4096

// Options configures a VM.
type Options struct {
	Natives    *native.Registry // native.Standard() when nil
	Out        io.Writer        // io.Discard when nil
	In         io.Reader
	HeapBudget int // words; DefaultHeapBudget when zero
	MaxFrames  int
	Trace      *Tracer
	Files      *source.FileSet
}

// VM executes a linked program.
type VM struct {
	Stack    []Frame
	Heap     *Heap
	ExitCode int
	Halted   bool
	Files    *source.FileSet

	units     map[string]*linkedUnit
	order     []*linkedUnit
	classes   map[bytecode.ClassRef]*classRT
	pending   []*callee
	started   bool
	maxFrames int
	out       io.Writer
	in        *bufio.Reader
	trace     *Tracer
	stop      atomic.Bool
	eb        *errorBuilder
}

// New links units, given in initialization order, and allocates their
// globals.
func New(units []*module.Unit, opts Options) (*VM, error) {
	natives := opts.Natives
	if natives == nil {
		natives = native.Standard()
	}
	vm := &VM{
		Heap:      NewHeap(opts.HeapBudget),
		Files:     opts.Files,
		maxFrames: opts.MaxFrames,
		out:       opts.Out,
		trace:     opts.Trace,
	}
	if vm.maxFrames <= 0 {
		vm.maxFrames = DefaultMaxFrames
	}
	if vm.out == nil {
		vm.out = io.Discard
	}
	if opts.In != nil {
		vm.in = bufio.NewReader(opts.In)
	}
	vm.eb = &errorBuilder{vm: vm}
	vm.Heap.roots = vm.roots
	vm.Heap.trace = opts.Trace

	if err := vm.link(units, natives); err != nil {
		return nil, err
	}
	if err := vm.initGlobals(); err != nil {
		return nil, err
	}
	return vm, nil
}

func (vm *VM) initGlobals() (err error) {
	defer func() {
		if r := recover(); r != nil {
			if e, ok := r.(*VMError); ok {
				err = e
				return
			}
			panic(r)
		}
	}()
	for _, lu := range vm.order {
		shapes := make([]bytecode.Shape, len(lu.unit.Globals))
		for i, g := range lu.unit.Globals {
			shapes[i] = g.Shape
		}
		vm.reserve(slotWords(shapes))
		lu.globals = vm.zeroSlots(shapes)
	}
	return nil
}

// roots visits every value the collector must keep: globals, frame slots
// and operand stacks.
func (vm *VM) roots(visit func(value.Value)) {
	for _, lu := range vm.order {
		for _, v := range lu.globals {
			visit(v)
		}
	}
	for i := range vm.Stack {
		f := &vm.Stack[i]
		for _, v := range f.Locals {
			visit(v)
		}
		for _, v := range f.Stack {
			visit(v)
		}
	}
}

// Stop asks a running VM to terminate at the next instruction. It is safe
// to call from another goroutine.
func (vm *VM) Stop() { vm.stop.Store(true) }

// Run executes every unit initialization and then the program body. A
// cancelled ctx stops execution with PanicStopped.
func (vm *VM) Run(ctx context.Context) *VMError {
	if ctx != nil {
		release := context.AfterFunc(ctx, vm.Stop)
		defer release()
	}
	vm.Start()
	for !vm.Done() {
		if vmErr := vm.Step(); vmErr != nil {
			return vmErr
		}
	}
	return nil
}

// Start queues the entry routines. Run calls it; callers driving Step
// themselves call it once first.
func (vm *VM) Start() {
	if vm.started {
		return
	}
	vm.started = true
	vm.pending = vm.entries()
}

// Done reports that nothing is left to execute.
func (vm *VM) Done() bool {
	return vm.Halted || (len(vm.Stack) == 0 && len(vm.pending) == 0)
}

// Step executes a single instruction, entering the next queued entry
// routine when the stack is empty.
func (vm *VM) Step() (vmErr *VMError) {
	defer func() {
		if r := recover(); r != nil {
			e, ok := r.(*VMError)
			if !ok {
				panic(r)
			}
			if n := len(vm.Stack); n > 0 {
				vm.Stack[n-1].State = FrameFaulted
			}
			vmErr = e
		}
	}()

	if vm.Halted {
		return nil
	}
	if vm.stop.Load() {
		return vm.eb.stopped()
	}
	if len(vm.Stack) == 0 {
		if len(vm.pending) == 0 {
			return nil
		}
		next := vm.pending[0]
		vm.pending = vm.pending[1:]
		if next.routine == nil {
			return vm.eb.invalidCode("missing entry routine %d", next.index)
		}
		vm.reserve(frameWords(next.routine))
		vm.enter(next, nil)
		return nil
	}

	f := &vm.Stack[len(vm.Stack)-1]
	in := f.Instr()
	if in == nil {
		return vm.eb.invalidCode("%s: no instruction at bb%d:ip%d", f.Name(), f.Block, f.IP)
	}
	f.State = FrameRunning
	f.Span = source.Span{File: f.Unit.unit.File, Start: in.Pos, End: in.Pos + 1}
	vm.trace.TraceInstr(len(vm.Stack), f, in)
	f.IP++
	vm.exec(f, *in)
	return nil
}

// call pops argc arguments off f and enters c. Space for the callee's
// array locals is reserved while the arguments are still rooted on f.
func (vm *VM) call(f *Frame, c *callee, argc int) {
	if len(vm.Stack) >= vm.maxFrames {
		panic(vm.eb.stackOverflow(vm.maxFrames))
	}
	if len(f.Stack) < argc {
		panic(vm.eb.invalidCode("%s: operand stack underflow", f.Name()))
	}
	vm.reserve(frameWords(c.routine))
	args := f.popN(argc)
	f.State = FrameSuspendedOnCall
	vm.enter(c, args)
}

func frameWords(r *bytecode.Routine) int {
	if r.Params > len(r.Locals) {
		return 0
	}
	return slotWords(r.Locals[r.Params:])
}

// enter pushes a frame for c. The caller has reserved heap space for the
// callee's array locals.
func (vm *VM) enter(c *callee, args []value.Value) {
	if len(vm.Stack) >= vm.maxFrames {
		panic(vm.eb.stackOverflow(vm.maxFrames))
	}
	r := c.routine
	if len(args) != r.Params {
		panic(vm.eb.invalidCode("%s expects %d arguments, got %d", r.Name, r.Params, len(args)))
	}
	locals := make([]value.Value, len(r.Locals))
	copy(locals, args)
	copy(locals[r.Params:], vm.zeroSlots(r.Locals[r.Params:]))

	var span source.Span
	if n := len(vm.Stack); n > 0 {
		span = vm.Stack[n-1].Span
	}
	vm.Stack = append(vm.Stack, Frame{
		Unit:    c.unit,
		Routine: r,
		Locals:  locals,
		Block:   0,
		State:   FrameReady,
		Span:    span,
	})
	vm.trace.TraceCall(len(vm.Stack), &vm.Stack[len(vm.Stack)-1])
}

// leave pops the top frame and hands its result to the caller.
func (vm *VM) leave(withResult bool) {
	n := len(vm.Stack)
	f := &vm.Stack[n-1]
	f.State = FrameReturned
	var result *value.Value
	if withResult {
		if f.Routine.Result < 0 {
			panic(vm.eb.invalidCode("%s returns a result it does not have", f.Name()))
		}
		v := f.Locals[f.Routine.Result]
		result = &v
	}
	vm.trace.TraceReturn(n, f, result)
	vm.Stack = vm.Stack[:n-1]
	if n-1 == 0 {
		return
	}
	caller := &vm.Stack[n-2]
	caller.State = FrameRunning
	if result != nil {
		caller.push(*result)
	}
}

func (vm *VM) halt(code int) {
	vm.Halted = true
	vm.ExitCode = code
	vm.Stack = vm.Stack[:0]
	vm.pending = nil
}

// reserve makes room for words heap words or faults.
func (vm *VM) reserve(words int) {
	if words == 0 {
		return
	}
	if !vm.Heap.Reserve(words) {
		panic(vm.eb.heapExhausted(words, vm.Heap.budget))
	}
}

// slotWords is the heap space needed to zero a list of slots.
func slotWords(shapes []bytecode.Shape) int {
	n := 0
	for _, s := range shapes {
		if s.Kind == bytecode.ShapeArray {
			n += arrayWords(s)
		}
	}
	return n
}

// arrayWords is the space of a fixed array, nested fixed arrays included.
func arrayWords(s bytecode.Shape) int {
	n := 1 + s.Len
	if s.Elem != nil && s.Elem.Kind == bytecode.ShapeArray {
		n += s.Len * arrayWords(*s.Elem)
	}
	return n
}

// zeroSlots returns the initial values of shapes. Space must be reserved.
func (vm *VM) zeroSlots(shapes []bytecode.Shape) []value.Value {
	out := make([]value.Value, len(shapes))
	for i, s := range shapes {
		out[i] = vm.zero(s)
	}
	return out
}

func (vm *VM) zero(s bytecode.Shape) value.Value {
	if s.Kind != bytecode.ShapeArray {
		return s.Zero()
	}
	if s.Elem == nil {
		panic(vm.eb.invalidCode("array shape without element"))
	}
	return vm.newArray(*s.Elem, s.Len)
}

// newArray allocates n zeroed elements of shape elem. Space must be
// reserved.
func (vm *VM) newArray(elem bytecode.Shape, n int) value.Value {
	h := vm.Heap.alloc(CellArray, n)
	for i := 0; i < n; i++ {
		v := vm.zero(elem)
		vm.Heap.cells[h].Elems[i] = v
	}
	return value.Ref(h)
}

// Len implements native.Env.
func (vm *VM) Len(v value.Value) (int, error) {
	switch v.Kind {
	case value.KString:
		return len([]rune(v.Str)), nil
	case value.KRef:
		if v.Ref == value.NilHandle {
			return 0, nil
		}
		c := vm.Heap.Get(v.Ref)
		if c == nil || c.Kind != CellArray {
			return 0, errors.New("length of a non-array reference")
		}
		return len(c.Elems), nil
	}
	return 0, fmt.Errorf("length of %s", v.Kind)
}

// Out implements native.Env.
func (vm *VM) Out() io.Writer { return vm.out }

// In implements native.Env.
func (vm *VM) In() *bufio.Reader { return vm.in }

var _ native.Env = (*VM)(nil)
