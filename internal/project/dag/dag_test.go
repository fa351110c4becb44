package dag

import (
	"slices"
	"testing"

	"blaise/internal/diag"
	"blaise/internal/project"
	"blaise/internal/source"
)

func uses(names ...string) []project.ImportMeta {
	out := make([]project.ImportMeta, len(names))
	for i, n := range names {
		out[i] = project.ImportMeta{Name: n}
	}
	return out
}

func graphOf(t *testing.T, metas ...project.ModuleMeta) (ModuleIndex, Graph, []ModuleSlot) {
	t.Helper()
	nodes := make([]ModuleNode, len(metas))
	for i, m := range metas {
		nodes[i] = ModuleNode{Meta: m}
	}
	idx := BuildIndex(metas)
	g, slots := BuildGraph(idx, nodes)
	return idx, g, slots
}

func names(idx ModuleIndex, ids []ModuleID) []string {
	out := make([]string, len(ids))
	for i, id := range ids {
		out[i] = idx.IDToName[id]
	}
	return out
}

func TestBuildIndexSortsModulesAndUses(t *testing.T) {
	idx := BuildIndex([]project.ModuleMeta{
		{Name: "main", Imports: uses("strs", "mathx")},
		{Name: "strs"},
	})
	want := []string{"main", "mathx", "strs"}
	if !slices.Equal(idx.IDToName, want) {
		t.Fatalf("IDToName = %v, want %v", idx.IDToName, want)
	}
	for i, name := range want {
		if id, ok := idx.NameToID[name]; !ok || int(id) != i {
			t.Fatalf("NameToID[%q] = %d, %v", name, id, ok)
		}
	}
}

func TestBuildGraphSkipsUnknownAndSelfUses(t *testing.T) {
	bag := diag.NewBag(10)
	app := project.ModuleMeta{Name: "app", Imports: uses("core", "gone", "app", "core")}
	core := project.ModuleMeta{Name: "core"}
	idx := BuildIndex([]project.ModuleMeta{app, core})
	g, _ := BuildGraph(idx, []ModuleNode{
		{Meta: app, Reporter: &diag.BagReporter{Bag: bag}},
		{Meta: core},
	})

	appID, coreID, goneID := idx.NameToID["app"], idx.NameToID["core"], idx.NameToID["gone"]
	if got := g.Edges[appID]; !slices.Equal(got, []ModuleID{coreID, goneID}) {
		t.Fatalf("app edges = %v", names(idx, got))
	}
	if g.Present[goneID] {
		t.Fatalf("gone must not be present")
	}
	if g.Indeg[coreID] != 1 || g.Indeg[appID] != 0 {
		t.Fatalf("indeg = %v", g.Indeg)
	}
	if bag.Len() != 0 {
		t.Fatalf("unexpected diagnostics: %v", bag.Items())
	}
}

func TestBuildGraphReportsDuplicateModule(t *testing.T) {
	first := project.ModuleMeta{Name: "dup", Display: "Dup", Span: source.Span{File: 1, End: 3}}
	second := project.ModuleMeta{Name: "dup", Display: "Dup", Span: source.Span{File: 2, End: 3}}
	bagFirst, bagSecond := diag.NewBag(10), diag.NewBag(10)

	idx := BuildIndex([]project.ModuleMeta{first, second})
	_, slots := BuildGraph(idx, []ModuleNode{
		{Meta: first, Reporter: &diag.BagReporter{Bag: bagFirst}},
		{Meta: second, Reporter: &diag.BagReporter{Bag: bagSecond}},
	})

	if bagFirst.Len() != 0 {
		t.Fatalf("first module got diagnostics: %v", bagFirst.Items())
	}
	if !bagSecond.HasCode(diag.ModDuplicateModule) {
		t.Fatalf("expected duplicate diagnostic, got %v", bagSecond.Items())
	}
	if d := bagSecond.Items()[0]; len(d.Notes) != 1 || d.Notes[0].Span != first.Span {
		t.Fatalf("duplicate note = %+v", d.Notes)
	}
	if slot := slots[idx.NameToID["dup"]]; slot.Meta.Span != first.Span {
		t.Fatalf("slot kept %v, want first declaration", slot.Meta.Span)
	}
}

func TestToposortKahnBatches(t *testing.T) {
	idx, g, _ := graphOf(t,
		project.ModuleMeta{Name: "b", Imports: uses("c")},
		project.ModuleMeta{Name: "a"},
		project.ModuleMeta{Name: "c"},
	)
	topo := ToposortKahn(g)
	if topo.Cyclic {
		t.Fatalf("unexpected cycle %v", names(idx, topo.Cycles))
	}
	if got := names(idx, topo.Order); !slices.Equal(got, []string{"a", "b", "c"}) {
		t.Fatalf("order = %v", got)
	}
	if len(topo.Batches) != 2 {
		t.Fatalf("batches = %v", topo.Batches)
	}
	if got := names(idx, topo.Batches[0]); !slices.Equal(got, []string{"a", "b"}) {
		t.Fatalf("first batch = %v", got)
	}
	if got := names(idx, topo.Batches[1]); !slices.Equal(got, []string{"c"}) {
		t.Fatalf("second batch = %v", got)
	}
}

func TestWavesAndInitOrderPutDependenciesFirst(t *testing.T) {
	idx, g, _ := graphOf(t,
		project.ModuleMeta{Name: "main", Imports: uses("a", "b")},
		project.ModuleMeta{Name: "a", Imports: uses("b")},
		project.ModuleMeta{Name: "b"},
	)
	if cyc := FindCycle(g); cyc != nil {
		t.Fatalf("unexpected cycle %v", names(idx, cyc))
	}
	topo := ToposortKahn(g)
	if got := names(idx, topo.InitOrder()); !slices.Equal(got, []string{"b", "a", "main"}) {
		t.Fatalf("init order = %v", got)
	}
	waves := topo.Waves()
	if len(waves) != 3 || idx.IDToName[waves[0][0]] != "b" || idx.IDToName[waves[2][0]] != "main" {
		t.Fatalf("waves = %v", waves)
	}
}

func TestReportCyclesNamesChain(t *testing.T) {
	a := project.ModuleMeta{Name: "a", Display: "A", Imports: uses("b")}
	b := project.ModuleMeta{Name: "b", Display: "B", Imports: uses("a")}
	bagA, bagB := diag.NewBag(10), diag.NewBag(10)

	idx := BuildIndex([]project.ModuleMeta{a, b})
	g, slots := BuildGraph(idx, []ModuleNode{
		{Meta: a, Reporter: &diag.BagReporter{Bag: bagA}},
		{Meta: b, Reporter: &diag.BagReporter{Bag: bagB}},
	})
	topo := ToposortKahn(g)
	if !topo.Cyclic || len(topo.Cycles) != 2 {
		t.Fatalf("topo = %+v, want two modules in a cycle", topo)
	}

	ReportCycles(idx, g, slots, topo)
	for name, bag := range map[string]*diag.Bag{"a": bagA, "b": bagB} {
		if bag.Len() != 1 || bag.Items()[0].Code != diag.ModCircularImport {
			t.Fatalf("%s diagnostics = %v", name, bag.Items())
		}
		if msg := bag.Items()[0].Message; msg != "circular unit reference: a -> b -> a" {
			t.Fatalf("%s message = %q", name, msg)
		}
	}
}

func TestFindCycleSkipsEntryOutsideCycle(t *testing.T) {
	idx, g, _ := graphOf(t,
		project.ModuleMeta{Name: "a", Imports: uses("b")},
		project.ModuleMeta{Name: "b", Imports: uses("c")},
		project.ModuleMeta{Name: "c", Imports: uses("a")},
		project.ModuleMeta{Name: "d", Imports: uses("a")},
	)
	if got := names(idx, FindCycle(g)); !slices.Equal(got, []string{"a", "b", "c", "a"}) {
		t.Fatalf("cycle = %v", got)
	}
}

func TestReportBrokenDepsOncePerUse(t *testing.T) {
	first := diag.NewError(diag.SemaUnresolvedIdentifier, source.Span{File: 2, Start: 4, End: 7}, "unknown identifier x")
	app := project.ModuleMeta{Name: "app", Imports: []project.ImportMeta{
		{Name: "core", Span: source.Span{File: 1, Start: 5, End: 9}},
	}}
	core := project.ModuleMeta{Name: "core", Display: "Core"}
	bag := diag.NewBag(10)

	idx := BuildIndex([]project.ModuleMeta{app, core})
	_, slots := BuildGraph(idx, []ModuleNode{
		{Meta: app, Reporter: &diag.BagReporter{Bag: bag}},
		{Meta: core, Broken: true, FirstErr: &first},
	})
	ReportBrokenDeps(idx, slots)

	if bag.Len() != 1 {
		t.Fatalf("diagnostics = %v", bag.Items())
	}
	d := bag.Items()[0]
	if d.Code != diag.ModDependencyFailed || d.Message != "unit Core has errors" {
		t.Fatalf("diagnostic = %+v", d)
	}
	if len(d.Notes) != 1 || d.Notes[0].Span != first.Primary {
		t.Fatalf("notes = %+v", d.Notes)
	}
}
