package dag

import (
	"fmt"
	"slices"
	"strings"

	"blaise/internal/diag"
	"blaise/internal/project"
	"blaise/internal/source"
)

// Graph is the import graph over a ModuleIndex. Edges[from] lists the units
// from uses, sorted and without repeats.
type Graph struct {
	Edges   [][]ModuleID
	Indeg   []int  // incoming edges from present modules
	Present []bool // discovered, not only named in a uses-clause
}

// ModuleNode is one discovered module and the reporter for its file.
type ModuleNode struct {
	Meta     project.ModuleMeta
	Reporter diag.Reporter
	Broken   bool
	FirstErr *diag.Diagnostic
}

// ModuleSlot is the per-ID view of the graph after BuildGraph.
type ModuleSlot struct {
	Meta     project.ModuleMeta
	Reporter diag.Reporter
	Present  bool
	Broken   bool
	FirstErr *diag.Diagnostic
}

// BuildGraph resolves uses-clauses to IDs. A second module claiming an
// already taken name is reported as a duplicate. Units that were never
// found and units naming themselves get no edge; the loader diagnoses both
// where the uses-clause is read.
func BuildGraph(idx ModuleIndex, nodes []ModuleNode) (Graph, []ModuleSlot) {
	n := len(idx.IDToName)
	g := Graph{
		Edges:   make([][]ModuleID, n),
		Indeg:   make([]int, n),
		Present: make([]bool, n),
	}
	slots := make([]ModuleSlot, n)
	for i, name := range idx.IDToName {
		slots[i].Meta.Name = name
	}

	for _, node := range nodes {
		id, ok := idx.NameToID[node.Meta.Name]
		if node.Meta.Name == "" || !ok {
			continue
		}
		slot := &slots[id]
		if slot.Present {
			reportDuplicate(node, slot.Meta)
			continue
		}
		*slot = ModuleSlot{
			Meta:     node.Meta,
			Reporter: node.Reporter,
			Present:  true,
			Broken:   node.Broken,
			FirstErr: node.FirstErr,
		}
		g.Present[id] = true
	}

	for from := range slots {
		if !slots[from].Present {
			continue
		}
		g.Edges[from] = resolveUses(idx, ModuleID(from), slots[from].Meta.Imports)
	}
	for from, edges := range g.Edges {
		if !g.Present[from] {
			continue
		}
		for _, to := range edges {
			if g.Present[to] {
				g.Indeg[to]++
			}
		}
	}
	return g, slots
}

func resolveUses(idx ModuleIndex, self ModuleID, uses []project.ImportMeta) []ModuleID {
	var out []ModuleID
	for _, dep := range uses {
		to, ok := idx.NameToID[dep.Name]
		if !ok || to == self || slices.Contains(out, to) {
			continue
		}
		out = append(out, to)
	}
	slices.Sort(out)
	return out
}

func reportDuplicate(node ModuleNode, first project.ModuleMeta) {
	if node.Reporter == nil {
		return
	}
	var notes []diag.Note
	if first.Span != (source.Span{}) {
		notes = append(notes, diag.Note{
			Span: first.Span,
			Msg:  fmt.Sprintf("%s first declared here", first.Display),
		})
	}
	node.Reporter.Report(diag.ModDuplicateModule, diag.SevError, node.Meta.Span,
		fmt.Sprintf("duplicate module %s", node.Meta.Display), notes)
}

// ReportCycles reports every module left over by Kahn's algorithm, naming
// one concrete import chain found by FindCycle.
func ReportCycles(idx ModuleIndex, g Graph, slots []ModuleSlot, topo *Topo) {
	if !topo.Cyclic || len(topo.Cycles) == 0 {
		return
	}
	chain := FindCycle(g)
	if len(chain) == 0 {
		chain = topo.Cycles
	}
	names := make([]string, len(chain))
	for i, id := range chain {
		names[i] = idx.IDToName[id]
	}
	path := strings.Join(names, " -> ")

	for _, id := range topo.Cycles {
		slot := slots[id]
		if !slot.Present || slot.Reporter == nil {
			continue
		}
		slot.Reporter.Report(diag.ModCircularImport, diag.SevError, slot.Meta.Span,
			fmt.Sprintf("circular unit reference: %s", path), nil)
	}
}

// ReportBrokenDeps reports each use of a module that failed to compile, once
// per uses-clause entry.
func ReportBrokenDeps(idx ModuleIndex, slots []ModuleSlot) {
	for i := range slots {
		user := &slots[i]
		if !user.Present || user.Reporter == nil {
			continue
		}
		reported := make(map[ModuleID]bool, len(user.Meta.Imports))
		for _, use := range user.Meta.Imports {
			to, ok := idx.NameToID[use.Name]
			if !ok || reported[to] || !slots[to].Broken {
				continue
			}
			reported[to] = true
			dep := slots[to]

			var notes []diag.Note
			if dep.FirstErr != nil {
				notes = append(notes, diag.Note{
					Span: dep.FirstErr.Primary,
					Msg:  "first error: " + dep.FirstErr.Message,
				})
			}
			user.Reporter.Report(diag.ModDependencyFailed, diag.SevError, use.Span,
				fmt.Sprintf("unit %s has errors", dep.Meta.Display), notes)
		}
	}
}
