// Package native holds routines implemented in Go and callable from Blaise
// code like any other routine.
package native

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"slices"
	"sync"

	"blaise/internal/types"
	"blaise/internal/value"
)

// ArgKind constrains one native parameter.
type ArgKind uint8

const (
	ArgAny     ArgKind = iota // any printable value
	ArgInt                    // integer
	ArgReal                   // real or integer
	ArgNumeric                // integer or real, result may follow it
	ArgChar                   // char
	ArgString                 // string or char
	ArgBool                   // boolean
	ArgSized                  // string or array
	ArgOrdinal                // integer, char or boolean
	ArgText                   // char or string, result follows it
)

// Accepts reports whether a value of kind k can be passed.
func (a ArgKind) Accepts(k types.Kind) bool {
	switch a {
	case ArgAny:
		return k != types.KindVoid && k != types.KindInvalid
	case ArgInt:
		return k == types.KindInt
	case ArgReal, ArgNumeric:
		return k == types.KindInt || k == types.KindReal
	case ArgChar:
		return k == types.KindChar
	case ArgString, ArgText:
		return k == types.KindString || k == types.KindChar
	case ArgBool:
		return k == types.KindBool
	case ArgSized:
		return k == types.KindString || k == types.KindArray
	case ArgOrdinal:
		return k == types.KindInt || k == types.KindChar || k == types.KindBool
	}
	return false
}

// ResultKind describes the result type of a native.
type ResultKind uint8

const (
	ResultVoid ResultKind = iota
	ResultInt
	ResultReal
	ResultChar
	ResultString
	ResultBool
	ResultArg0 // the type of the first argument
)

// Env is what a running native sees of the host.
type Env interface {
	Out() io.Writer
	In() *bufio.Reader
	// Len reports the element count of a string or array value.
	Len(v value.Value) (int, error)
}

// Func implements a native routine.
type Func func(env Env, args []value.Value) (value.Value, error)

// Native describes one registered routine. Pure natives have no side
// effects and may be folded at compile time over constant arguments.
type Native struct {
	Name     string
	Params   []ArgKind
	Variadic bool // Params[len-1] repeats, zero or more times
	Result   ResultKind
	Pure     bool
	Fn       Func
}

// Arity checks the argument count.
func (n *Native) Arity(argc int) bool {
	if n.Variadic {
		return argc >= len(n.Params)-1
	}
	return argc == len(n.Params)
}

// Param returns the constraint of argument i.
func (n *Native) Param(i int) ArgKind {
	if n.Variadic && i >= len(n.Params)-1 {
		return n.Params[len(n.Params)-1]
	}
	return n.Params[i]
}

// HaltError stops the program with an exit code.
type HaltError struct {
	Code int
}

func (e *HaltError) Error() string {
	return fmt.Sprintf("halt(%d)", e.Code)
}

// ErrDuplicate is returned when a name is registered twice.
var ErrDuplicate = errors.New("native already registered")

// Registry maps folded names to natives.
type Registry struct {
	mu     sync.RWMutex
	byName map[string]*Native
	order  []string
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{byName: make(map[string]*Native)}
}

// Register adds a native routine.
func (r *Registry) Register(n Native) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, dup := r.byName[n.Name]; dup {
		return fmt.Errorf("%s: %w", n.Name, ErrDuplicate)
	}
	cp := n
	r.byName[n.Name] = &cp
	r.order = append(r.order, n.Name)
	return nil
}

// Lookup finds a native by folded name.
func (r *Registry) Lookup(name string) (*Native, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	n, ok := r.byName[name]
	return n, ok
}

// Names lists registered natives in registration order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return slices.Clone(r.order)
}
