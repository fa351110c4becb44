package dag

import (
	"fmt"
	"slices"

	"fortio.org/safecast"
)

// Topo is the result of ToposortKahn. Importers come before the units they
// use; Waves gives the reverse, dependency-first view.
type Topo struct {
	Order   []ModuleID   // present modules, importers first
	Batches [][]ModuleID // modules whose importers are all in earlier batches
	Cyclic  bool
	Cycles  []ModuleID // present modules Kahn could not release
}

func moduleID(i int) ModuleID {
	id, err := safecast.Conv[ModuleID](i)
	if err != nil {
		panic(fmt.Errorf("module id overflow: %w", err))
	}
	return id
}

// ToposortKahn orders the present modules of g by repeatedly releasing every
// module nobody still uses. Each release step becomes one batch.
func ToposortKahn(g Graph) *Topo {
	remaining := slices.Clone(g.Indeg)
	topo := &Topo{Order: make([]ModuleID, 0, len(g.Edges))}

	var ready []ModuleID
	for i, present := range g.Present {
		if present && remaining[i] == 0 {
			ready = append(ready, moduleID(i))
		}
	}

	for len(ready) > 0 {
		topo.Batches = append(topo.Batches, ready)
		topo.Order = append(topo.Order, ready...)
		var released []ModuleID
		for _, id := range ready {
			for _, to := range g.Edges[id] {
				if !g.Present[to] {
					continue
				}
				if remaining[to]--; remaining[to] == 0 {
					released = append(released, to)
				}
			}
		}
		slices.Sort(released)
		ready = released
	}

	for i, present := range g.Present {
		if present && remaining[i] > 0 {
			topo.Cycles = append(topo.Cycles, moduleID(i))
		}
	}
	topo.Cyclic = len(topo.Cycles) > 0
	return topo
}

// Waves returns Batches reversed so that every unit appears after all the
// units it uses. Modules of one wave can be compiled concurrently.
func (t *Topo) Waves() [][]ModuleID {
	out := slices.Clone(t.Batches)
	slices.Reverse(out)
	return out
}

// InitOrder returns Order reversed: the order initialization routines run in.
func (t *Topo) InitOrder() []ModuleID {
	out := slices.Clone(t.Order)
	slices.Reverse(out)
	return out
}
