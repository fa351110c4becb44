package module

import (
	"fmt"

	"blaise/internal/sema"
	"blaise/internal/symbols"
	"blaise/internal/types"
)

// RegisterClasses makes the unit's classes known to in. Classes already
// registered under the same key, because the unit was compiled in this
// session, are left untouched.
func (u *Unit) RegisterClasses(in *types.Interner) error {
	fresh := make(map[int]types.TypeID)
	for i := range u.Classes {
		key := types.ClassKey{Module: u.Name, Name: u.Classes[i].Name}
		if _, ok := in.ClassByKey(key); ok {
			continue
		}
		fresh[i] = in.NewClass(key)
	}
	// Classes are stored base first, but fields may refer to any class of
	// the unit, so every class is registered before any is filled.
	for i := range u.Classes {
		id, ok := fresh[i]
		if !ok {
			continue
		}
		if err := u.fillClass(in, id, &u.Classes[i]); err != nil {
			return fmt.Errorf("%s: class %s: %w", u.Name, u.Classes[i].Name, err)
		}
	}
	return nil
}

// Import returns the interface of the unit as seen by the binder of an
// importing module.
func (u *Unit) Import(in *types.Interner) (*sema.Import, error) {
	if err := u.RegisterClasses(in); err != nil {
		return nil, err
	}
	imp := &sema.Import{
		Name:    u.Name,
		Kind:    u.Kind,
		Symbols: make([]symbols.Symbol, 0, len(u.Exports)),
	}
	for i := range u.Exports {
		sym, err := u.DecodeSymbol(in, &u.Exports[i])
		if err != nil {
			return nil, err
		}
		imp.Symbols = append(imp.Symbols, sym)
	}
	return imp, nil
}
