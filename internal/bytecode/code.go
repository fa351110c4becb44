package bytecode

import (
	"errors"
	"fmt"
)

// Instr is one instruction. Pos is the byte offset of the source construct
// in the unit's file.
type Instr struct {
	Op  Op     `msgpack:"o"`
	A   int32  `msgpack:"a,omitempty"`
	B   int32  `msgpack:"b,omitempty"`
	Pos uint32 `msgpack:"p,omitempty"`
}

func (in Instr) String() string {
	switch in.Op {
	case OpBranch, OpCall, OpCallVirtual, OpCallNative:
		return fmt.Sprintf("%s %d %d", in.Op, in.A, in.B)
	case OpCallIndirect:
		return fmt.Sprintf("%s %d", in.Op, in.B)
	case OpConst, OpLoadLocal, OpStoreLocal, OpLoadGlobal, OpStoreGlobal, OpLoadField, OpStoreField,
		OpJump, OpReturn, OpNewObject, OpNewArray, OpNewCell, OpRoutine:
		return fmt.Sprintf("%s %d", in.Op, in.A)
	}
	return in.Op.String()
}

// Block is a basic block: single entry, last instruction is a terminator.
type Block struct {
	Instrs []Instr `msgpack:"i"`
}

// Code is an ordered list of blocks; block 0 is the entry.
type Code struct {
	Blocks []Block `msgpack:"b"`
}

// Routine is one compiled routine. Locals has one shape per frame slot,
// parameters included.
type Routine struct {
	Name   string  `msgpack:"n"`
	Params int     `msgpack:"p"`
	Result int     `msgpack:"r"` // -1 for procedures
	Locals []Shape `msgpack:"l"`
	Code   Code    `msgpack:"c"`
}

// HasResult reports functions.
func (r *Routine) HasResult() bool { return r.Result >= 0 }

// Validate checks block structure and jump targets.
func (c *Code) Validate() error {
	if len(c.Blocks) == 0 {
		return errors.New("code has no blocks")
	}
	for bi, b := range c.Blocks {
		if len(b.Instrs) == 0 {
			return fmt.Errorf("block %d is empty", bi)
		}
		for ii, in := range b.Instrs {
			last := ii == len(b.Instrs)-1
			if in.Op.IsTerminator() != last {
				return fmt.Errorf("block %d: instruction %d (%s) misplaced terminator", bi, ii, in.Op)
			}
			switch in.Op {
			case OpJump:
				if !c.hasBlock(in.A) {
					return fmt.Errorf("block %d: jump to missing block %d", bi, in.A)
				}
			case OpBranch:
				if !c.hasBlock(in.A) || !c.hasBlock(in.B) {
					return fmt.Errorf("block %d: branch to missing block", bi)
				}
			}
		}
	}
	return nil
}

func (c *Code) hasBlock(id int32) bool {
	return id >= 0 && int(id) < len(c.Blocks)
}
