package vm

import (
	"errors"

	"blaise/internal/bytecode"
	"blaise/internal/native"
	"blaise/internal/value"
)

var binaryOps = map[bytecode.Op]func(a, b value.Value) (value.Value, error){
	bytecode.OpAdd:     value.Add,
	bytecode.OpSub:     value.Sub,
	bytecode.OpMul:     value.Mul,
	bytecode.OpRealDiv: value.RealDiv,
	bytecode.OpDiv:     value.Div,
	bytecode.OpMod:     value.Mod,
	bytecode.OpAnd:     value.And,
	bytecode.OpOr:      value.Or,
	bytecode.OpXor:     value.Xor,
	bytecode.OpShl:     value.Shl,
	bytecode.OpShr:     value.Shr,
	bytecode.OpConcat:  value.Concat,
}

var unaryOps = map[bytecode.Op]func(a value.Value) (value.Value, error){
	bytecode.OpNeg:  value.Neg,
	bytecode.OpNot:  value.Not,
	bytecode.OpSucc: value.Succ,
	bytecode.OpPred: value.Pred,
}

// check turns an operator error into a fault.
func (vm *VM) check(v value.Value, err error) value.Value {
	switch {
	case err == nil:
		return v
	case errors.Is(err, value.ErrDivisionByZero):
		panic(vm.eb.divisionByZero())
	default:
		panic(vm.eb.typeMismatch(err))
	}
}

func (vm *VM) exec(f *Frame, in bytecode.Instr) {
	lu := f.Unit
	pool := &lu.unit.Pool
	a := int(in.A)
	b := int(in.B)

	if fn, ok := binaryOps[in.Op]; ok {
		y := f.pop()
		x := f.pop()
		f.push(vm.check(fn(x, y)))
		return
	}
	if fn, ok := unaryOps[in.Op]; ok {
		f.push(vm.check(fn(f.pop())))
		return
	}

	switch in.Op {
	case bytecode.OpNop:
	case bytecode.OpConst:
		f.push(pool.Consts[a])
	case bytecode.OpPop:
		f.pop()
	case bytecode.OpDup:
		f.push(f.peek())
	case bytecode.OpLoadLocal:
		f.push(f.Locals[a])
	case bytecode.OpStoreLocal:
		f.Locals[a] = f.pop()
	case bytecode.OpLoadGlobal:
		g := lu.gref[a]
		f.push(g.unit.globals[g.slot])
	case bytecode.OpStoreGlobal:
		g := lu.gref[a]
		g.unit.globals[g.slot] = f.pop()

	case bytecode.OpLoadField:
		c := vm.object(f.pop())
		f.push(c.Elems[vm.slot(c, a)])
	case bytecode.OpStoreField:
		v := f.pop()
		c := vm.object(f.pop())
		c.Elems[vm.slot(c, a)] = v
	case bytecode.OpLoadElem:
		idx := f.pop()
		c := vm.array(f.pop())
		f.push(c.Elems[vm.index(idx, len(c.Elems))])
	case bytecode.OpStoreElem:
		v := f.pop()
		idx := f.pop()
		c := vm.array(f.pop())
		c.Elems[vm.index(idx, len(c.Elems))] = v
	case bytecode.OpLoadChar:
		idx := f.pop()
		s := f.pop()
		if s.Kind != value.KString {
			panic(vm.eb.invalidCode("load.char on %s", s.Kind))
		}
		runes := []rune(s.Str)
		f.push(value.Char(runes[vm.index(idx, len(runes))]))

	case bytecode.OpIntToReal:
		f.push(value.Real(f.pop().AsReal()))
	case bytecode.OpCharToString:
		v := f.pop()
		if v.Kind == value.KChar {
			v = value.String(string(v.AsChar()))
		}
		f.push(v)
	case bytecode.OpEq, bytecode.OpNotEq:
		y := f.pop()
		x := f.pop()
		f.push(value.Bool(value.Equal(x, y) == (in.Op == bytecode.OpEq)))
	case bytecode.OpLt, bytecode.OpLtEq, bytecode.OpGt, bytecode.OpGtEq:
		y := f.pop()
		x := f.pop()
		f.push(value.Bool(compare(in.Op, value.Compare(x, y))))

	case bytecode.OpJump:
		f.jump(a)
	case bytecode.OpBranch:
		if f.pop().AsBool() {
			f.jump(a)
		} else {
			f.jump(b)
		}
	case bytecode.OpReturn:
		vm.leave(a == 1)

	case bytecode.OpCall:
		vm.call(f, lu.calls[a], b)
	case bytecode.OpCallVirtual:
		if b < 1 || len(f.Stack) < b {
			panic(vm.eb.invalidCode("call.virtual without receiver"))
		}
		c := vm.object(f.Stack[len(f.Stack)-b])
		if c.Class == nil || a < 0 || a >= len(c.Class.vmt) {
			panic(vm.eb.invalidCode("vmt slot %d out of range", a))
		}
		vm.call(f, c.Class.vmt[a], b)
	case bytecode.OpCallIndirect:
		if len(f.Stack) < b+1 {
			panic(vm.eb.invalidCode("call.indirect without routine"))
		}
		k := len(f.Stack) - b - 1
		target := vm.routineValue(f.Stack[k])
		f.Stack = append(f.Stack[:k], f.Stack[k+1:]...)
		vm.call(f, target, b)
	case bytecode.OpCallNative:
		vm.callNative(f, lu.natives[a], b)

	case bytecode.OpNewObject:
		class := lu.classes[a]
		vm.reserve(1 + class.desc.Slots + slotWords(class.desc.FieldShapes))
		h := vm.Heap.alloc(CellObject, class.desc.Slots)
		vm.Heap.cells[h].Class = class
		for i, s := range class.desc.FieldShapes {
			v := vm.zero(s)
			vm.Heap.cells[h].Elems[i] = v
		}
		vm.Heap.Pin(h)
		f.push(value.Ref(h))
	case bytecode.OpUnpin:
		vm.Heap.Unpin(f.peek().Ref)
	case bytecode.OpNewArray:
		elem := pool.Shapes[a]
		n := f.peek()
		if n.Kind != value.KInt {
			panic(vm.eb.typeMismatch(errors.New("array length is not an integer")))
		}
		if n.Int < 0 {
			panic(vm.eb.outOfBounds(n.Int, 0))
		}
		if n.Int > int64(vm.Heap.budget) {
			panic(vm.eb.heapExhausted(vm.Heap.budget+1, vm.Heap.budget))
		}
		count := int(n.Int)
		vm.reserve(arrayWords(bytecode.Shape{Kind: bytecode.ShapeArray, Len: count, Elem: &elem}))
		f.pop()
		f.push(vm.newArray(elem, count))
	case bytecode.OpNewCell:
		elem := pool.Shapes[a]
		vm.reserve(arrayWords(bytecode.Shape{Kind: bytecode.ShapeArray, Len: 1, Elem: &elem}))
		f.push(vm.newArray(elem, 1))
	case bytecode.OpRoutine:
		f.push(lu.calls[a].value())

	default:
		panic(vm.eb.invalidCode("unknown opcode %s", in.Op))
	}
}

func compare(op bytecode.Op, c int) bool {
	switch op {
	case bytecode.OpLt:
		return c < 0
	case bytecode.OpLtEq:
		return c <= 0
	case bytecode.OpGt:
		return c > 0
	default:
		return c >= 0
	}
}

func (vm *VM) object(v value.Value) *Cell {
	if v.Kind != value.KRef {
		panic(vm.eb.typeMismatch(errors.New("object expected, got " + v.Kind.String())))
	}
	if v.Ref == value.NilHandle {
		panic(vm.eb.nullReference("object"))
	}
	c := vm.Heap.Get(v.Ref)
	if c == nil || c.Kind != CellObject {
		panic(vm.eb.invalidCode("handle %d is not an object", v.Ref))
	}
	return c
}

func (vm *VM) array(v value.Value) *Cell {
	if v.Kind != value.KRef {
		panic(vm.eb.typeMismatch(errors.New("array expected, got " + v.Kind.String())))
	}
	if v.Ref == value.NilHandle {
		panic(vm.eb.nullReference("reference"))
	}
	c := vm.Heap.Get(v.Ref)
	if c == nil || c.Kind != CellArray {
		panic(vm.eb.invalidCode("handle %d is not an array", v.Ref))
	}
	return c
}

func (vm *VM) slot(c *Cell, i int) int {
	if i < 0 || i >= len(c.Elems) {
		panic(vm.eb.invalidCode("field offset %d out of range", i))
	}
	return i
}

func (vm *VM) index(idx value.Value, length int) int {
	if idx.Kind != value.KInt && idx.Kind != value.KChar {
		panic(vm.eb.typeMismatch(errors.New("index is not ordinal")))
	}
	if idx.Int < 0 || idx.Int >= int64(length) {
		panic(vm.eb.outOfBounds(idx.Int, length))
	}
	return int(idx.Int)
}

func (vm *VM) routineValue(v value.Value) *callee {
	if v.Kind != value.KRoutine {
		panic(vm.eb.typeMismatch(errors.New("routine expected, got " + v.Kind.String())))
	}
	if v.IsNil() {
		panic(vm.eb.nullReference("routine"))
	}
	lu, ok := vm.units[v.Str]
	if !ok {
		panic(vm.eb.invalidCode("routine of unknown unit %s", v.Str))
	}
	r := lu.unit.Routine(int(v.Int))
	if r == nil {
		panic(vm.eb.invalidCode("%s has no routine %d", lu.unit.Display, v.Int))
	}
	return &callee{unit: lu, index: int(v.Int), routine: r}
}

func (vm *VM) callNative(f *Frame, n *native.Native, argc int) {
	args := f.popN(argc)
	res, err := n.Fn(vm, args)
	if err != nil {
		var halt *native.HaltError
		if errors.As(err, &halt) {
			vm.halt(halt.Code)
			return
		}
		panic(vm.eb.nativeError(n.Name, err))
	}
	if n.Result != native.ResultVoid {
		f.push(res)
	}
}
