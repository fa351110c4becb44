package bytecode

import (
	"fmt"

	"fortio.org/safecast"

	"blaise/internal/value"
)

// RoutineRef names routine Index of unit Module.
type RoutineRef struct {
	Module string `msgpack:"m"`
	Index  int    `msgpack:"i"`
}

// GlobalRef names global Slot of unit Module.
type GlobalRef struct {
	Module string `msgpack:"m"`
	Slot   int    `msgpack:"s"`
}

// ClassRef names a class by declaring unit and folded name.
type ClassRef struct {
	Module string `msgpack:"m"`
	Name   string `msgpack:"n"`
}

// Pool holds everything instruction operands index into. Entries are
// deduplicated so operands stay small.
type Pool struct {
	Consts  []value.Value `msgpack:"c"`
	Calls   []RoutineRef  `msgpack:"r"`
	Globals []GlobalRef   `msgpack:"g"`
	Classes []ClassRef    `msgpack:"k"`
	Natives []string      `msgpack:"n"`
	Shapes  []Shape       `msgpack:"s"`
}

func index(n int) int32 {
	i, err := safecast.Conv[int32](n)
	if err != nil {
		panic(fmt.Errorf("pool overflow: %w", err))
	}
	return i
}

// Const interns a constant.
func (p *Pool) Const(v value.Value) int32 {
	for i, c := range p.Consts {
		if c == v {
			return index(i)
		}
	}
	p.Consts = append(p.Consts, v)
	return index(len(p.Consts) - 1)
}

// Call interns a routine reference.
func (p *Pool) Call(r RoutineRef) int32 {
	for i, c := range p.Calls {
		if c == r {
			return index(i)
		}
	}
	p.Calls = append(p.Calls, r)
	return index(len(p.Calls) - 1)
}

// Global interns a global reference.
func (p *Pool) Global(g GlobalRef) int32 {
	for i, c := range p.Globals {
		if c == g {
			return index(i)
		}
	}
	p.Globals = append(p.Globals, g)
	return index(len(p.Globals) - 1)
}

// Class interns a class reference.
func (p *Pool) Class(c ClassRef) int32 {
	for i, x := range p.Classes {
		if x == c {
			return index(i)
		}
	}
	p.Classes = append(p.Classes, c)
	return index(len(p.Classes) - 1)
}

// Native interns a native name.
func (p *Pool) Native(name string) int32 {
	for i, n := range p.Natives {
		if n == name {
			return index(i)
		}
	}
	p.Natives = append(p.Natives, name)
	return index(len(p.Natives) - 1)
}

// Shape appends an element shape.
func (p *Pool) Shape(s Shape) int32 {
	for i, x := range p.Shapes {
		if x.String() == s.String() {
			return index(i)
		}
	}
	p.Shapes = append(p.Shapes, s)
	return index(len(p.Shapes) - 1)
}
