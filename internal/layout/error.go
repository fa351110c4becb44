package layout

import (
	"fmt"
	"strings"

	"blaise/internal/source"
	"blaise/internal/types"
)

// LayoutErrorKind enumerates class layout failures.
type LayoutErrorKind uint8

const (
	// LayoutErrUnknownBase: the base name does not denote a class.
	LayoutErrUnknownBase LayoutErrorKind = iota + 1
	// LayoutErrCyclicInheritance: layout was requested while the base was in progress.
	LayoutErrCyclicInheritance
	// LayoutErrBadOverride: override with no inherited virtual of the same selector.
	LayoutErrBadOverride
	// LayoutErrDuplicateMember: method selector declared twice in one class, or a
	// field name already used by the class or any of its bases.
	LayoutErrDuplicateMember
)

// LayoutError describes a failed class layout.
type LayoutError struct {
	Kind   LayoutErrorKind
	Class  types.ClassKey
	Member string
	Cycle  []types.ClassKey
	Span   source.Span
}

func (e *LayoutError) Error() string {
	if e == nil {
		return "<nil>"
	}
	switch e.Kind {
	case LayoutErrUnknownBase:
		return fmt.Sprintf("base of class %s is not a class: %s", e.Class.Name, e.Member)
	case LayoutErrCyclicInheritance:
		if len(e.Cycle) == 0 {
			return fmt.Sprintf("class %s inherits from itself", e.Class.Name)
		}
		parts := make([]string, 0, len(e.Cycle))
		for _, k := range e.Cycle {
			parts = append(parts, k.Name)
		}
		return fmt.Sprintf("cyclic inheritance: %s", strings.Join(parts, " -> "))
	case LayoutErrBadOverride:
		return fmt.Sprintf("%s.%s is marked override but no inherited virtual method matches", e.Class.Name, e.Member)
	case LayoutErrDuplicateMember:
		return fmt.Sprintf("duplicate member %s in class %s", e.Member, e.Class.Name)
	default:
		return fmt.Sprintf("layout error kind=%d class %s", e.Kind, e.Class)
	}
}
