package bytecode

import (
	"fmt"
	"io"
	"strings"
)

// Print writes a human-readable listing of r, resolving pool operands.
func Print(w io.Writer, r *Routine, pool *Pool) error {
	var sb strings.Builder
	kind := "procedure"
	if r.HasResult() {
		kind = "function"
	}
	fmt.Fprintf(&sb, "%s %s params=%d slots=%d\n", kind, r.Name, r.Params, len(r.Locals))
	for bi, b := range r.Code.Blocks {
		fmt.Fprintf(&sb, "  bb%d:\n", bi)
		for _, in := range b.Instrs {
			fmt.Fprintf(&sb, "    %-24s", in.String())
			if note := annotate(in, pool); note != "" {
				sb.WriteString(" ; ")
				sb.WriteString(note)
			}
			sb.WriteByte('\n')
		}
	}
	_, err := io.WriteString(w, sb.String())
	return err
}

func annotate(in Instr, pool *Pool) string {
	if pool == nil {
		return ""
	}
	at := func(n int) bool { return in.A >= 0 && int(in.A) < n }
	switch in.Op {
	case OpConst:
		if at(len(pool.Consts)) {
			return pool.Consts[in.A].Quote()
		}
	case OpCall, OpRoutine:
		if at(len(pool.Calls)) {
			c := pool.Calls[in.A]
			return fmt.Sprintf("%s#%d", c.Module, c.Index)
		}
	case OpLoadGlobal, OpStoreGlobal:
		if at(len(pool.Globals)) {
			g := pool.Globals[in.A]
			return fmt.Sprintf("%s.%d", g.Module, g.Slot)
		}
	case OpNewObject:
		if at(len(pool.Classes)) {
			c := pool.Classes[in.A]
			return c.Module + "." + c.Name
		}
	case OpCallNative:
		if at(len(pool.Natives)) {
			return pool.Natives[in.A]
		}
	case OpNewArray, OpNewCell:
		if at(len(pool.Shapes)) {
			return pool.Shapes[in.A].String()
		}
	}
	return ""
}
