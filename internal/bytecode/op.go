// Package bytecode defines the instruction set executed by the VM: routines
// made of basic blocks of stack instructions, plus the per-unit pool that
// instructions index into.
package bytecode

import "fmt"

// Op is an opcode.
type Op uint8

const (
	OpNop Op = iota
	OpConst // A: const pool index
	OpPop
	OpDup
	OpLoadLocal   // A: slot
	OpStoreLocal  // A: slot
	OpLoadGlobal  // A: global ref index
	OpStoreGlobal // A: global ref index
	OpLoadField   // A: field offset; pops object
	OpStoreField  // A: field offset; pops value, object
	OpLoadElem    // pops index, array
	OpStoreElem   // pops value, index, array
	OpLoadChar    // pops index, string
	OpAdd
	OpSub
	OpMul
	OpRealDiv
	OpDiv
	OpMod
	OpNeg
	OpNot // boolean not or bitwise complement
	OpAnd // non-short-circuit, boolean or bitwise
	OpOr
	OpXor
	OpShl
	OpShr
	OpConcat
	OpIntToReal
	OpCharToString
	OpEq
	OpNotEq
	OpLt
	OpLtEq
	OpGt
	OpGtEq
	OpJump         // A: block
	OpBranch       // A: block if true, B: block if false
	OpReturn       // A: 1 returns the result slot
	OpCall         // A: call ref index, B: argc
	OpCallVirtual  // A: vmt slot, B: argc including receiver
	OpCallNative   // A: native ref index, B: argc
	OpCallIndirect // B: argc; routine value below the arguments
	OpNewObject    // A: class ref index; result stays pinned
	OpUnpin        // unpins the object on top of the stack
	OpNewArray     // A: shape index of the element; pops length
	OpNewCell      // A: shape index of the element
	OpRoutine      // A: call ref index
	OpSucc
	OpPred
	opCount
)

var opNames = [...]string{
	OpNop:          "nop",
	OpConst:        "const",
	OpPop:          "pop",
	OpDup:          "dup",
	OpLoadLocal:    "load.local",
	OpStoreLocal:   "store.local",
	OpLoadGlobal:   "load.global",
	OpStoreGlobal:  "store.global",
	OpLoadField:    "load.field",
	OpStoreField:   "store.field",
	OpLoadElem:     "load.elem",
	OpStoreElem:    "store.elem",
	OpLoadChar:     "load.char",
	OpAdd:          "add",
	OpSub:          "sub",
	OpMul:          "mul",
	OpRealDiv:      "rdiv",
	OpDiv:          "div",
	OpMod:          "mod",
	OpNeg:          "neg",
	OpNot:          "not",
	OpAnd:          "and",
	OpOr:           "or",
	OpXor:          "xor",
	OpShl:          "shl",
	OpShr:          "shr",
	OpConcat:       "concat",
	OpIntToReal:    "itor",
	OpCharToString: "ctos",
	OpEq:           "eq",
	OpNotEq:        "ne",
	OpLt:           "lt",
	OpLtEq:         "le",
	OpGt:           "gt",
	OpGtEq:         "ge",
	OpJump:         "jump",
	OpBranch:       "branch",
	OpReturn:       "return",
	OpCall:         "call",
	OpCallVirtual:  "call.virtual",
	OpCallNative:   "call.native",
	OpCallIndirect: "call.indirect",
	OpNewObject:    "new.object",
	OpUnpin:        "unpin",
	OpNewArray:     "new.array",
	OpNewCell:      "new.cell",
	OpRoutine:      "routine",
	OpSucc:         "succ",
	OpPred:         "pred",
}

func (op Op) String() string {
	if op < opCount {
		return opNames[op]
	}
	return fmt.Sprintf("op(%d)", op)
}

// IsTerminator reports control transfers that end a block.
func (op Op) IsTerminator() bool {
	return op == OpJump || op == OpBranch || op == OpReturn
}
