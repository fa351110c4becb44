package diag

import (
	"fmt"
)

type Code uint16

const (
	UnknownCode Code = 0

	// Лексические
	LexUnknownChar              Code = 1001
	LexUnterminatedString       Code = 1002
	LexUnterminatedBlockComment Code = 1003
	LexBadNumber                Code = 1004
	LexBadCharCode              Code = 1005

	// Синтаксические
	SynUnexpectedToken  Code = 2001
	SynExpectIdentifier Code = 2002
	SynExpectType       Code = 2003
	SynExpectExpression Code = 2004
	SynExpectSemicolon  Code = 2005
	SynExpectEnd        Code = 2006
	SynBadHeader        Code = 2007
	SynTrailingInput    Code = 2008

	// Семантические
	SemaDuplicateType          Code = 3001
	SemaUnknownBase            Code = 3002
	SemaCyclicInheritance      Code = 3003
	SemaUnknownMember          Code = 3004
	SemaNoMatchingOverload     Code = 3005
	SemaNotAConstantExpression Code = 3006
	SemaThisOutsideMethod      Code = 3007
	SemaBaseWithoutInheritance Code = 3008
	SemaUnresolvedIdentifier   Code = 3009
	SemaDuplicateSymbol        Code = 3010
	SemaTypeMismatch           Code = 3011
	SemaNotAssignable          Code = 3012
	SemaBadOverride            Code = 3013
	SemaNotAType               Code = 3014
	SemaNotCallable            Code = 3015
	SemaMissingBody            Code = 3016
	SemaBadLoopControl         Code = 3017
	SemaBadArrayLength         Code = 3018
	SemaNotAClass              Code = 3019
	SemaBadOperand             Code = 3020

	// Модули
	ModCircularImport   Code = 4001
	ModUnknownModule    Code = 4002
	ModImportProgram    Code = 4003
	ModDependencyFailed Code = 4004
	ModNameMismatch     Code = 4005
	ModDuplicateModule  Code = 4006
	ModLoadFailed       Code = 4007
)

var codeNames = map[Code]string{
	UnknownCode: "Unknown",

	LexUnknownChar:              "UnknownChar",
	LexUnterminatedString:       "UnterminatedString",
	LexUnterminatedBlockComment: "UnterminatedComment",
	LexBadNumber:                "BadNumber",
	LexBadCharCode:              "BadCharCode",

	SynUnexpectedToken:  "UnexpectedToken",
	SynExpectIdentifier: "ExpectIdentifier",
	SynExpectType:       "ExpectType",
	SynExpectExpression: "ExpectExpression",
	SynExpectSemicolon:  "ExpectSemicolon",
	SynExpectEnd:        "ExpectEnd",
	SynBadHeader:        "BadHeader",
	SynTrailingInput:    "TrailingInput",

	SemaDuplicateType:          "DuplicateType",
	SemaUnknownBase:            "UnknownBase",
	SemaCyclicInheritance:      "CyclicInheritance",
	SemaUnknownMember:          "UnknownMember",
	SemaNoMatchingOverload:     "NoMatchingOverload",
	SemaNotAConstantExpression: "NotAConstantExpression",
	SemaThisOutsideMethod:      "ThisOutsideMethod",
	SemaBaseWithoutInheritance: "BaseWithoutInheritance",
	SemaUnresolvedIdentifier:   "UnresolvedIdentifier",
	SemaDuplicateSymbol:        "DuplicateSymbol",
	SemaTypeMismatch:           "TypeMismatch",
	SemaNotAssignable:          "NotAssignable",
	SemaBadOverride:            "BadOverride",
	SemaNotAType:               "NotAType",
	SemaNotCallable:            "NotCallable",
	SemaMissingBody:            "MissingBody",
	SemaBadLoopControl:         "BadLoopControl",
	SemaBadArrayLength:         "BadArrayLength",
	SemaNotAClass:              "NotAClass",
	SemaBadOperand:             "BadOperand",

	ModCircularImport:   "CircularImport",
	ModUnknownModule:    "UnknownModule",
	ModImportProgram:    "ImportProgram",
	ModDependencyFailed: "DependencyFailed",
	ModNameMismatch:     "NameMismatch",
	ModDuplicateModule:  "DuplicateModule",
	ModLoadFailed:       "LoadFailed",
}

// ID returns the stable short form, e.g. "SEM3004".
func (c Code) ID() string {
	switch {
	case c >= 4000:
		return fmt.Sprintf("MOD%04d", uint16(c))
	case c >= 3000:
		return fmt.Sprintf("SEM%04d", uint16(c))
	case c >= 2000:
		return fmt.Sprintf("SYN%04d", uint16(c))
	case c >= 1000:
		return fmt.Sprintf("LEX%04d", uint16(c))
	default:
		return "E0000"
	}
}

// String returns the error kind name (DuplicateType, CircularImport, ...).
func (c Code) String() string {
	if name, ok := codeNames[c]; ok {
		return name
	}
	return fmt.Sprintf("Code(%d)", uint16(c))
}
