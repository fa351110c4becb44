package driver

import (
	"blaise/internal/project"
	"blaise/internal/project/dag"
)

// ComputeModuleHashes fills ModuleHash = H(content || dep hashes...) for
// every present module, walking the initialization order so that
// dependencies are hashed first. Edges are sorted by ID, which makes the
// result independent of uses-clause order. A cyclic graph is left alone.
func ComputeModuleHashes(g dag.Graph, slots []dag.ModuleSlot, topo *dag.Topo) {
	if topo == nil || topo.Cyclic {
		return
	}
	for _, id := range topo.InitOrder() {
		var deps []project.Digest
		for _, to := range g.Edges[id] {
			if g.Present[to] {
				deps = append(deps, slots[to].Meta.ModuleHash)
			}
		}
		slot := &slots[id]
		slot.Meta.ModuleHash = project.Combine(slot.Meta.ContentHash, deps...)
	}
}
