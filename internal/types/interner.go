package types

import (
	"fmt"
	"slices"
	"strings"
	"sync"

	"fortio.org/safecast"
)

// Builtins stores TypeIDs for primitive types.
type Builtins struct {
	Void    TypeID
	Nil     TypeID
	Boolean TypeID
	Integer TypeID
	Real    TypeID
	Char    TypeID
	String  TypeID
}

// Signature is the payload of procedural types and routine symbols.
type Signature struct {
	Params []TypeID
	Result TypeID // NoTypeID for procedures
}

type typeKey struct {
	Kind    Kind
	Elem    TypeID
	Count   uint32
	Payload uint32
}

// Interner provides stable TypeIDs. One Interner is shared by every unit
// compiled in a session, so a class exported by one unit has the same
// TypeID in all its importers. All methods are safe for concurrent use.
type Interner struct {
	mu       sync.RWMutex
	types    []Type
	index    map[typeKey]TypeID
	classes  []*ClassInfo
	byName   map[ClassKey]TypeID
	sigs     []Signature
	sigIndex map[string]uint32
	builtins Builtins
}

// NewInterner constructs an interner seeded with built-in primitives.
func NewInterner() *Interner {
	in := &Interner{
		index:    make(map[typeKey]TypeID, 64),
		byName:   make(map[ClassKey]TypeID),
		sigIndex: make(map[string]uint32),
	}
	in.types = append(in.types, Type{}) // NoTypeID
	in.classes = append(in.classes, nil)
	in.sigs = append(in.sigs, Signature{})
	in.builtins = Builtins{
		Void:    in.Intern(Type{Kind: KindVoid}),
		Nil:     in.Intern(Type{Kind: KindNil}),
		Boolean: in.Intern(Type{Kind: KindBool}),
		Integer: in.Intern(Type{Kind: KindInt}),
		Real:    in.Intern(Type{Kind: KindReal}),
		Char:    in.Intern(Type{Kind: KindChar}),
		String:  in.Intern(Type{Kind: KindString}),
	}
	return in
}

// Builtins returns TypeIDs for primitive types.
func (in *Interner) Builtins() Builtins {
	return in.builtins
}

// Intern ensures the provided descriptor has a stable TypeID.
func (in *Interner) Intern(t Type) TypeID {
	if t.Kind == KindInvalid {
		return NoTypeID
	}
	in.mu.Lock()
	defer in.mu.Unlock()
	return in.internLocked(t)
}

func (in *Interner) internLocked(t Type) TypeID {
	key := typeKey(t)
	if id, ok := in.index[key]; ok && t.Kind != KindClass {
		return id
	}
	n, err := safecast.Conv[uint32](len(in.types))
	if err != nil {
		panic(fmt.Errorf("type table overflow: %w", err))
	}
	id := TypeID(n)
	in.types = append(in.types, t)
	if t.Kind != KindClass {
		in.index[key] = id
	}
	return id
}

// Lookup returns the descriptor for a TypeID.
func (in *Interner) Lookup(id TypeID) (Type, bool) {
	in.mu.RLock()
	defer in.mu.RUnlock()
	if id == NoTypeID || int(id) >= len(in.types) {
		return Type{}, false
	}
	return in.types[id], true
}

// MustLookup returns the descriptor or the zero Type for invalid ids.
func (in *Interner) MustLookup(id TypeID) Type {
	t, _ := in.Lookup(id)
	return t
}

// Kind is a shortcut for MustLookup(id).Kind.
func (in *Interner) Kind(id TypeID) Kind {
	return in.MustLookup(id).Kind
}

// Pointer interns "pointer to elem".
func (in *Interner) Pointer(elem TypeID) TypeID {
	return in.Intern(MakePointer(elem))
}

// Array interns "array[count] of elem".
func (in *Interner) Array(elem TypeID, count uint32) TypeID {
	return in.Intern(MakeArray(elem, count))
}

// Routine interns a procedural type for sig. A NoTypeID result gives a
// procedure type.
func (in *Interner) Routine(sig Signature) TypeID {
	in.mu.Lock()
	defer in.mu.Unlock()
	key := sigKey(sig)
	slot, ok := in.sigIndex[key]
	if !ok {
		n, err := safecast.Conv[uint32](len(in.sigs))
		if err != nil {
			panic(fmt.Errorf("signature table overflow: %w", err))
		}
		slot = n
		in.sigs = append(in.sigs, Signature{Params: slices.Clone(sig.Params), Result: sig.Result})
		in.sigIndex[key] = slot
	}
	kind := KindProc
	if sig.Result != NoTypeID {
		kind = KindFunc
	}
	return in.internLocked(Type{Kind: kind, Payload: slot})
}

// Signature returns the signature of a procedural type.
func (in *Interner) Signature(id TypeID) (Signature, bool) {
	in.mu.RLock()
	defer in.mu.RUnlock()
	if id == NoTypeID || int(id) >= len(in.types) {
		return Signature{}, false
	}
	t := in.types[id]
	if t.Kind != KindProc && t.Kind != KindFunc {
		return Signature{}, false
	}
	return in.sigs[t.Payload], true
}

func sigKey(sig Signature) string {
	var sb strings.Builder
	for _, p := range sig.Params {
		fmt.Fprintf(&sb, "%d,", p)
	}
	fmt.Fprintf(&sb, ":%d", sig.Result)
	return sb.String()
}
