package types

import (
	"strconv"
	"strings"
)

// String renders a type the way it is written in source.
func (in *Interner) String(id TypeID) string {
	t, ok := in.Lookup(id)
	if !ok {
		return "<invalid>"
	}
	switch t.Kind {
	case KindPointer:
		return "pointer to " + in.String(t.Elem)
	case KindArray:
		if t.IsDynamic() {
			return "array of " + in.String(t.Elem)
		}
		return "array[" + strconv.FormatUint(uint64(t.Count), 10) + "] of " + in.String(t.Elem)
	case KindClass:
		if info, ok := in.ClassInfo(id); ok {
			return info.Key.Name
		}
		return "class"
	case KindProc, KindFunc:
		sig, _ := in.Signature(id)
		var sb strings.Builder
		sb.WriteString(t.Kind.String())
		sb.WriteByte('(')
		for i, p := range sig.Params {
			if i > 0 {
				sb.WriteString("; ")
			}
			sb.WriteString(in.String(p))
		}
		sb.WriteByte(')')
		if sig.Result != NoTypeID {
			sb.WriteString(": ")
			sb.WriteString(in.String(sig.Result))
		}
		return sb.String()
	default:
		return t.Kind.String()
	}
}
