package vm

import (
	"errors"
	"fmt"

	"blaise/internal/bytecode"
	"blaise/internal/hir"
	"blaise/internal/module"
	"blaise/internal/native"
	"blaise/internal/value"
)

// ErrLink is wrapped by every error New reports while resolving units
// against each other.
var ErrLink = errors.New("link error")

// callee is a resolved routine reference.
type callee struct {
	unit    *linkedUnit
	index   int
	routine *bytecode.Routine
}

func (c *callee) value() value.Value { return value.Routine(c.unit.unit.Name, c.index) }

type globalSlot struct {
	unit *linkedUnit
	slot int
}

// classRT is a class prepared for execution: its instance layout and its
// vmt with every slot bound to a routine.
type classRT struct {
	ref  bytecode.ClassRef
	desc *module.ClassDesc
	base *classRT
	vmt  []*callee
}

// linkedUnit is a unit with every pool entry resolved.
type linkedUnit struct {
	unit    *module.Unit
	globals []value.Value
	calls   []*callee
	gref    []globalSlot
	classes []*classRT
	natives []*native.Native
}

func linkErrorf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrLink, fmt.Sprintf(format, args...))
}

// link resolves units given in initialization order. Each unit may only use
// units that precede it.
func (vm *VM) link(units []*module.Unit, natives *native.Registry) error {
	vm.units = make(map[string]*linkedUnit, len(units))
	vm.classes = make(map[bytecode.ClassRef]*classRT)
	for _, u := range units {
		if u == nil {
			return linkErrorf("nil unit")
		}
		if _, dup := vm.units[u.Name]; dup {
			return linkErrorf("unit %s given twice", u.Display)
		}
		for _, imp := range u.Imports {
			if _, ok := vm.units[imp]; !ok {
				return linkErrorf("%s uses %s, which is not initialized before it", u.Display, imp)
			}
		}
		lu := &linkedUnit{unit: u}
		vm.units[u.Name] = lu
		vm.order = append(vm.order, lu)
		for i := range u.Classes {
			d := &u.Classes[i]
			ref := bytecode.ClassRef{Module: u.Name, Name: d.Name}
			vm.classes[ref] = &classRT{ref: ref, desc: d}
		}
	}

	for _, lu := range vm.order {
		if err := vm.linkClasses(lu); err != nil {
			return err
		}
	}
	for _, lu := range vm.order {
		if err := vm.linkPool(lu, natives); err != nil {
			return err
		}
	}
	return nil
}

func (vm *VM) resolveRoutine(ref bytecode.RoutineRef) (*callee, error) {
	lu, ok := vm.units[ref.Module]
	if !ok {
		return nil, linkErrorf("routine %d of unknown unit %s", ref.Index, ref.Module)
	}
	r := lu.unit.Routine(ref.Index)
	if r == nil {
		return nil, linkErrorf("%s has no routine %d", lu.unit.Display, ref.Index)
	}
	return &callee{unit: lu, index: ref.Index, routine: r}, nil
}

func (vm *VM) linkClasses(lu *linkedUnit) error {
	for i := range lu.unit.Classes {
		d := &lu.unit.Classes[i]
		c := vm.classes[bytecode.ClassRef{Module: lu.unit.Name, Name: d.Name}]
		if d.Base != nil {
			base, ok := vm.classes[*d.Base]
			if !ok {
				return linkErrorf("class %s: unknown base %s.%s", d.Name, d.Base.Module, d.Base.Name)
			}
			c.base = base
		}
		if len(d.FieldShapes) != d.Slots {
			return linkErrorf("class %s: %d field shapes for %d slots", d.Name, len(d.FieldShapes), d.Slots)
		}
		c.vmt = make([]*callee, len(d.VMT))
		for slot, e := range d.VMT {
			target, err := vm.resolveRoutine(e.Routine)
			if err != nil {
				return fmt.Errorf("class %s vmt slot %d: %w", d.Name, slot, err)
			}
			c.vmt[slot] = target
		}
	}
	return nil
}

func (vm *VM) linkPool(lu *linkedUnit, natives *native.Registry) error {
	pool := &lu.unit.Pool
	lu.calls = make([]*callee, len(pool.Calls))
	for i, ref := range pool.Calls {
		c, err := vm.resolveRoutine(ref)
		if err != nil {
			return fmt.Errorf("%s: %w", lu.unit.Display, err)
		}
		lu.calls[i] = c
	}
	lu.gref = make([]globalSlot, len(pool.Globals))
	for i, ref := range pool.Globals {
		owner, ok := vm.units[ref.Module]
		if !ok || ref.Slot < 0 || ref.Slot >= len(owner.unit.Globals) {
			return linkErrorf("%s: bad global %s#%d", lu.unit.Display, ref.Module, ref.Slot)
		}
		lu.gref[i] = globalSlot{unit: owner, slot: ref.Slot}
	}
	lu.classes = make([]*classRT, len(pool.Classes))
	for i, ref := range pool.Classes {
		c, ok := vm.classes[ref]
		if !ok {
			return linkErrorf("%s: unknown class %s.%s", lu.unit.Display, ref.Module, ref.Name)
		}
		lu.classes[i] = c
	}
	lu.natives = make([]*native.Native, len(pool.Natives))
	for i, name := range pool.Natives {
		n, ok := natives.Lookup(name)
		if !ok {
			return linkErrorf("%s: unknown native %s", lu.unit.Display, name)
		}
		lu.natives[i] = n
	}
	return nil
}

// entries lists the routines Run executes: every unit's initialization in
// order, then the program's main block.
func (vm *VM) entries() []*callee {
	var out []*callee
	var program *linkedUnit
	for _, lu := range vm.order {
		if lu.unit.Init >= 0 {
			out = append(out, &callee{unit: lu, index: lu.unit.Init, routine: lu.unit.Routine(lu.unit.Init)})
		}
		if lu.unit.Kind == hir.ModuleProgram {
			program = lu
		}
	}
	if program != nil && program.unit.Main >= 0 {
		out = append(out, &callee{unit: program, index: program.unit.Main, routine: program.unit.Routine(program.unit.Main)})
	}
	return out
}
