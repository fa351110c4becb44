package codegen

import (
	"fmt"

	"fortio.org/safecast"

	"blaise/internal/bytecode"
	"blaise/internal/hir"
	"blaise/internal/source"
)

type loopTarget struct {
	brk  int
	cont int
}

// fnBuilder lowers one routine. Blocks are appended as they are created;
// cur is the block instructions go to.
type fnBuilder struct {
	g      *generator
	r      *hir.Routine
	blocks []bytecode.Block
	cur    int
	locals []bytecode.Shape
	loops  []loopTarget
}

func (g *generator) routine(r *hir.Routine) bytecode.Routine {
	f := &fnBuilder{g: g, r: r}
	for _, s := range r.Slots {
		f.locals = append(f.locals, g.shape(s.Type))
	}
	f.cur = f.newBlock()
	f.stmts(r.Body)
	f.finish()
	return bytecode.Routine{
		Name:   r.Name,
		Params: r.Params,
		Result: r.Result,
		Locals: f.locals,
		Code:   bytecode.Code{Blocks: f.blocks},
	}
}

func operand(n int) int32 {
	v, err := safecast.Conv[int32](n)
	if err != nil {
		panic(genError{err: fmt.Errorf("codegen: operand out of range: %w", err)})
	}
	return v
}

func (f *fnBuilder) newBlock() int {
	f.blocks = append(f.blocks, bytecode.Block{})
	return len(f.blocks) - 1
}

func (f *fnBuilder) setBlock(b int) { f.cur = b }

// terminated reports whether the current block already ends in a control
// transfer.
func (f *fnBuilder) terminated() bool {
	ins := f.blocks[f.cur].Instrs
	return len(ins) > 0 && ins[len(ins)-1].Op.IsTerminator()
}

// emit appends to the current block. Code following a terminator, such as
// statements after exit, goes to a fresh unreachable block.
func (f *fnBuilder) emit(op bytecode.Op, a, b int32, sp source.Span) {
	if f.terminated() {
		f.cur = f.newBlock()
	}
	f.blocks[f.cur].Instrs = append(f.blocks[f.cur].Instrs, bytecode.Instr{Op: op, A: a, B: b, Pos: sp.Start})
}

func (f *fnBuilder) op(op bytecode.Op, sp source.Span) { f.emit(op, 0, 0, sp) }

func (f *fnBuilder) jump(target int, sp source.Span) {
	if !f.terminated() {
		f.emit(bytecode.OpJump, operand(target), 0, sp)
	}
}

func (f *fnBuilder) branch(then, els int, sp source.Span) {
	f.emit(bytecode.OpBranch, operand(then), operand(els), sp)
}

func (f *fnBuilder) ret(sp source.Span) {
	var a int32
	if f.r.Result >= 0 {
		a = 1
	}
	f.emit(bytecode.OpReturn, a, 0, sp)
}

// temp allocates a hidden frame slot.
func (f *fnBuilder) temp(shape bytecode.Shape) int {
	f.locals = append(f.locals, shape)
	return len(f.locals) - 1
}

// finish closes every open block with a return.
func (f *fnBuilder) finish() {
	end := source.Span{File: f.r.Span.File, Start: f.r.Span.End, End: f.r.Span.End}
	for i := range f.blocks {
		f.cur = i
		if !f.terminated() {
			f.ret(end)
		}
	}
}

func (f *fnBuilder) pushLoop(brk, cont int) { f.loops = append(f.loops, loopTarget{brk: brk, cont: cont}) }

func (f *fnBuilder) popLoop() { f.loops = f.loops[:len(f.loops)-1] }

func (f *fnBuilder) loop() loopTarget {
	if len(f.loops) == 0 {
		f.g.failf("%s: loop control outside of a loop", f.r.Name)
	}
	return f.loops[len(f.loops)-1]
}
