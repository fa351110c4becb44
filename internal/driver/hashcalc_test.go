package driver

import (
	"crypto/sha256"
	"testing"

	"blaise/internal/project"
	"blaise/internal/project/dag"
)

func hashFixture(contents map[string]string, imports map[string][]string) (dag.Graph, []dag.ModuleSlot, *dag.Topo, dag.ModuleIndex) {
	metas := make([]project.ModuleMeta, 0, len(contents))
	for name, text := range contents {
		meta := project.ModuleMeta{Name: name, Display: name, ContentHash: project.Digest(sha256.Sum256([]byte(text)))}
		for _, dep := range imports[name] {
			meta.Imports = append(meta.Imports, project.ImportMeta{Name: dep})
		}
		metas = append(metas, meta)
	}
	idx := dag.BuildIndex(metas)
	nodes := make([]dag.ModuleNode, len(metas))
	for i, m := range metas {
		nodes[i] = dag.ModuleNode{Meta: m}
	}
	g, slots := dag.BuildGraph(idx, nodes)
	topo := dag.ToposortKahn(g)
	ComputeModuleHashes(g, slots, topo)
	return g, slots, topo, idx
}

func TestModuleHashFollowsDependencies(t *testing.T) {
	imports := map[string][]string{"main": {"a"}, "a": {"b"}}
	_, before, _, idx := hashFixture(map[string]string{"main": "m", "a": "a", "b": "b"}, imports)
	_, after, _, _ := hashFixture(map[string]string{"main": "m", "a": "a", "b": "bb"}, imports)

	for _, name := range []string{"main", "a", "b"} {
		id := idx.NameToID[name]
		if before[id].Meta.ModuleHash == after[id].Meta.ModuleHash {
			t.Fatalf("%s: module hash did not change with b", name)
		}
	}
}

func TestModuleHashIgnoresUnrelatedUnits(t *testing.T) {
	imports := map[string][]string{"main": {"a", "c"}}
	_, before, _, idx := hashFixture(map[string]string{"main": "m", "a": "a", "c": "c"}, imports)
	_, after, _, _ := hashFixture(map[string]string{"main": "m", "a": "a", "c": "cc"}, imports)

	id := idx.NameToID["a"]
	if before[id].Meta.ModuleHash != after[id].Meta.ModuleHash {
		t.Fatal("a changed although only c was edited")
	}
}
