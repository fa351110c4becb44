package hir

// Op enumerates operators after type checking.
type Op uint8

const (
	OpInvalid Op = iota
	OpAdd
	OpSub
	OpMul
	OpRealDiv // "/" always yields real
	OpDiv     // integer div
	OpMod
	OpAnd
	OpOr
	OpXor
	OpShl
	OpShr
	OpConcat
	OpEq
	OpNotEq
	OpLt
	OpLtEq
	OpGt
	OpGtEq
	OpNeg
	OpNot
)

var opNames = [...]string{
	OpInvalid: "?",
	OpAdd:     "+",
	OpSub:     "-",
	OpMul:     "*",
	OpRealDiv: "/",
	OpDiv:     "div",
	OpMod:     "mod",
	OpAnd:     "and",
	OpOr:      "or",
	OpXor:     "xor",
	OpShl:     "shl",
	OpShr:     "shr",
	OpConcat:  "+s",
	OpEq:      "=",
	OpNotEq:   "<>",
	OpLt:      "<",
	OpLtEq:    "<=",
	OpGt:      ">",
	OpGtEq:    ">=",
	OpNeg:     "neg",
	OpNot:     "not",
}

func (op Op) String() string {
	if int(op) < len(opNames) {
		return opNames[op]
	}
	return "?"
}

// IsComparison reports relational operators.
func (op Op) IsComparison() bool {
	return op >= OpEq && op <= OpGtEq
}
