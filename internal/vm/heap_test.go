package vm

import (
	"testing"

	"blaise/internal/bytecode"
	"blaise/internal/value"
)

func TestCollectFreesUnreachable(t *testing.T) {
	h := NewHeap(100)
	var root value.Value
	h.roots = func(visit func(value.Value)) { visit(root) }

	keep := h.alloc(CellArray, 2)
	child := h.alloc(CellArray, 1)
	h.cells[keep].Elems[0] = value.Ref(child)
	h.alloc(CellArray, 3)
	root = value.Ref(keep)

	h.Collect()
	s := h.Stats()
	if s.Live != 2 || s.Frees != 1 || s.LiveWords != 3+2 {
		t.Fatalf("stats = %+v", s)
	}
	if h.Get(child) == nil {
		t.Fatalf("reachable child collected")
	}
}

func TestPinnedSurvivesCollection(t *testing.T) {
	h := NewHeap(100)
	p := h.alloc(CellObject, 1)
	h.Pin(p)
	h.Collect()
	if h.Get(p) == nil {
		t.Fatalf("pinned cell collected")
	}
	h.Unpin(p)
	h.Collect()
	if h.Get(p) != nil {
		t.Fatalf("unpinned unreachable cell survived")
	}
}

func TestCyclesAreCollected(t *testing.T) {
	h := NewHeap(100)
	a := h.alloc(CellArray, 1)
	b := h.alloc(CellArray, 1)
	h.cells[a].Elems[0] = value.Ref(b)
	h.cells[b].Elems[0] = value.Ref(a)
	h.Collect()
	if s := h.Stats(); s.Live != 0 {
		t.Fatalf("cycle kept alive: %+v", s)
	}
}

func TestFreedSlotsAreReused(t *testing.T) {
	h := NewHeap(100)
	for i := 0; i < 200; i++ {
		if !h.Reserve(2) {
			t.Fatalf("reserve failed at %d", i)
		}
		h.alloc(CellArray, 1)
	}
	if s := h.Stats(); s.Capacity > 50 || s.Collections == 0 {
		t.Fatalf("stats = %+v", s)
	}
}

func TestArrayWordsCountsNested(t *testing.T) {
	inner := bytecode.Shape{Kind: bytecode.ShapeInt}
	row := bytecode.Shape{Kind: bytecode.ShapeArray, Len: 3, Elem: &inner}
	grid := bytecode.Shape{Kind: bytecode.ShapeArray, Len: 2, Elem: &row}
	if got := arrayWords(grid); got != 1+2+2*(1+3) {
		t.Fatalf("arrayWords = %d", got)
	}
}

func TestGarbageLoopStaysWithinBudget(t *testing.T) {
	_, m, vmErr := run(t, Options{HeapBudget: 200}, `program P;
type Node = class
  next: Node;
  data: array[4] of integer;
end;
var i: integer; n: Node;
begin
  for i := 1 to 1000 do
  begin
    n := new Node;
    n.next := new Node
  end
end.`)
	if vmErr != nil {
		t.Fatalf("run: %v", vmErr)
	}
	s := m.Heap.Stats()
	if s.Collections == 0 || s.LiveWords > 200 || s.Capacity > 100 {
		t.Fatalf("stats = %+v", s)
	}
}

func TestLiveDataExhaustsHeap(t *testing.T) {
	_, _, vmErr := run(t, Options{HeapBudget: 64}, `program P;
type Node = class next: Node; end;
var i: integer; head, n: Node;
begin
  head := nil;
  for i := 1 to 100 do
  begin
    n := new Node;
    n.next := head;
    head := n
  end
end.`)
	if vmErr == nil || vmErr.Code != PanicHeapExhausted {
		t.Fatalf("fault = %v, want heap exhausted", vmErr)
	}
}
