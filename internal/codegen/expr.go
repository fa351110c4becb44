package codegen

import (
	"blaise/internal/bytecode"
	"blaise/internal/hir"
	"blaise/internal/source"
	"blaise/internal/types"
	"blaise/internal/value"
)

var binaryOps = map[hir.Op]bytecode.Op{
	hir.OpAdd:     bytecode.OpAdd,
	hir.OpSub:     bytecode.OpSub,
	hir.OpMul:     bytecode.OpMul,
	hir.OpRealDiv: bytecode.OpRealDiv,
	hir.OpDiv:     bytecode.OpDiv,
	hir.OpMod:     bytecode.OpMod,
	hir.OpAnd:     bytecode.OpAnd,
	hir.OpOr:      bytecode.OpOr,
	hir.OpXor:     bytecode.OpXor,
	hir.OpShl:     bytecode.OpShl,
	hir.OpShr:     bytecode.OpShr,
	hir.OpConcat:  bytecode.OpConcat,
	hir.OpEq:      bytecode.OpEq,
	hir.OpNotEq:   bytecode.OpNotEq,
	hir.OpLt:      bytecode.OpLt,
	hir.OpLtEq:    bytecode.OpLtEq,
	hir.OpGt:      bytecode.OpGt,
	hir.OpGtEq:    bytecode.OpGtEq,
}

func (f *fnBuilder) constant(v value.Value, sp source.Span) {
	f.emit(bytecode.OpConst, f.g.u.Pool.Const(v), 0, sp)
}

func (f *fnBuilder) global(d hir.GlobalData) int32 {
	return f.g.u.Pool.Global(bytecode.GlobalRef{Module: d.Module, Slot: d.Slot})
}

// expr leaves the value of e on the operand stack. Calls of procedures
// leave nothing.
func (f *fnBuilder) expr(e *hir.Expr) {
	sp := e.Span
	switch d := e.Data.(type) {
	case hir.ConstData:
		f.constant(d.Value, sp)
	case hir.LocalData:
		f.emit(bytecode.OpLoadLocal, operand(d.Slot), 0, sp)
	case hir.GlobalData:
		f.emit(bytecode.OpLoadGlobal, f.global(d), 0, sp)
	case hir.FieldData:
		f.expr(d.Object)
		f.emit(bytecode.OpLoadField, operand(d.Offset), 0, sp)
	case hir.IndexData:
		f.expr(d.Object)
		f.expr(d.Index)
		if d.String {
			f.op(bytecode.OpLoadChar, sp)
		} else {
			f.op(bytecode.OpLoadElem, sp)
		}
	case hir.DerefData:
		f.expr(d.Pointer)
		f.constant(value.Int(0), sp)
		f.op(bytecode.OpLoadElem, sp)
	case hir.UnaryData:
		f.expr(d.Operand)
		switch d.Op {
		case hir.OpNeg:
			f.op(bytecode.OpNeg, sp)
		case hir.OpNot:
			f.op(bytecode.OpNot, sp)
		default:
			f.g.failf("%s: unsupported unary operator %s", f.r.Name, d.Op)
		}
	case hir.BinaryData:
		f.binary(e, d)
	case hir.ConvertData:
		f.expr(d.Operand)
		switch d.Conv {
		case hir.ConvIntToReal:
			f.op(bytecode.OpIntToReal, sp)
		case hir.ConvCharToString:
			f.op(bytecode.OpCharToString, sp)
		}
	case hir.CallData:
		f.call(d, sp)
	case hir.NewObjectData:
		f.newObject(d, sp)
	case hir.NewArrayData:
		f.expr(d.Length)
		f.emit(bytecode.OpNewArray, f.g.u.Pool.Shape(f.g.shape(d.Elem)), 0, sp)
	case hir.NewCellData:
		f.emit(bytecode.OpNewCell, f.g.u.Pool.Shape(f.g.shape(d.Elem)), 0, sp)
	case hir.RoutineData:
		ref := bytecode.RoutineRef{Module: d.Routine.Module, Index: d.Routine.Index}
		f.emit(bytecode.OpRoutine, f.g.u.Pool.Call(ref), 0, sp)
	default:
		f.g.failf("%s: unsupported expression %s", f.r.Name, e.Kind)
	}
}

// binary lowers boolean and/or with short-circuit evaluation:
//
//	left; dup; branch rhs, done   (or: branch done, rhs)
//	rhs:  pop; right; jump done
func (f *fnBuilder) binary(e *hir.Expr, d hir.BinaryData) {
	short := (d.Op == hir.OpAnd || d.Op == hir.OpOr) && f.g.in.Kind(e.Type) == types.KindBool
	if !short {
		f.expr(d.Left)
		f.expr(d.Right)
		op, ok := binaryOps[d.Op]
		if !ok {
			f.g.failf("%s: unsupported binary operator %s", f.r.Name, d.Op)
		}
		f.op(op, e.Span)
		return
	}
	rhs, done := f.newBlock(), f.newBlock()
	f.expr(d.Left)
	f.op(bytecode.OpDup, e.Span)
	if d.Op == hir.OpAnd {
		f.branch(rhs, done, e.Span)
	} else {
		f.branch(done, rhs, e.Span)
	}
	f.setBlock(rhs)
	f.op(bytecode.OpPop, e.Span)
	f.expr(d.Right)
	f.jump(done, e.Span)
	f.setBlock(done)
}

func (f *fnBuilder) args(list []*hir.Expr) int32 {
	for _, a := range list {
		f.expr(a)
	}
	return operand(len(list))
}

func (f *fnBuilder) call(d hir.CallData, sp source.Span) {
	switch d.Call {
	case hir.CallStatic:
		argc := f.args(d.Args)
		ref := bytecode.RoutineRef{Module: d.Routine.Module, Index: d.Routine.Index}
		f.emit(bytecode.OpCall, f.g.u.Pool.Call(ref), argc, sp)
	case hir.CallVirtual:
		argc := f.args(d.Args)
		f.emit(bytecode.OpCallVirtual, operand(d.Slot), argc, sp)
	case hir.CallNative:
		argc := f.args(d.Args)
		f.emit(bytecode.OpCallNative, f.g.u.Pool.Native(d.Native), argc, sp)
	case hir.CallIndirect:
		f.expr(d.Callee)
		argc := f.args(d.Args)
		f.emit(bytecode.OpCallIndirect, 0, argc, sp)
	default:
		f.g.failf("%s: unsupported call kind %d", f.r.Name, d.Call)
	}
}

// newObject allocates the object, which stays pinned while the constructor
// runs, and calls the constructor with the object as receiver.
func (f *fnBuilder) newObject(d hir.NewObjectData, sp source.Span) {
	class := bytecode.ClassRef{Module: d.Class.Module, Name: d.Class.Name}
	f.emit(bytecode.OpNewObject, f.g.u.Pool.Class(class), 0, sp)
	if d.Ctor != nil {
		f.op(bytecode.OpDup, sp)
		argc := f.args(d.Args)
		ref := bytecode.RoutineRef{Module: d.Ctor.Module, Index: d.Ctor.Index}
		f.emit(bytecode.OpCall, f.g.u.Pool.Call(ref), argc+1, sp)
	}
	f.op(bytecode.OpUnpin, sp)
}
