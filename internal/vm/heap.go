package vm

import (
	"fmt"

	"fortio.org/safecast"

	"blaise/internal/value"
)

// CellKind distinguishes heap objects from arrays. Pointer cells created by
// "new T" are one-element arrays.
type CellKind uint8

const (
	CellFree CellKind = iota
	CellObject
	CellArray
)

// Cell is one heap allocation: an object's field slots or an array's
// elements.
type Cell struct {
	Kind   CellKind
	Class  *classRT
	Elems  []value.Value
	pinned int
	marked bool
}

func (c *Cell) words() int { return 1 + len(c.Elems) }

// HeapStats reports heap usage.
type HeapStats struct {
	Live        int // live cells
	LiveWords   int // words held by live cells
	Capacity    int // cell slots ever created, free ones included
	Budget      int
	Allocs      uint64
	Frees       uint64
	Collections uint64
}

// DefaultHeapBudget is the budget in words used when none is configured.
const DefaultHeapBudget = 1 << 22

// Heap is a handle-addressed store of cells reclaimed by mark-and-sweep.
// Freed slots are recycled through a free list, so repeated allocation of
// unreachable cells does not grow Capacity.
type Heap struct {
	cells  []Cell // index is the handle; 0 is nil
	free   []value.Handle
	budget int
	stats  HeapStats

	// roots enumerates every root value; set by the VM.
	roots func(visit func(value.Value))
	trace *Tracer
}

// NewHeap creates a heap with budget words. A non-positive budget selects
// DefaultHeapBudget.
func NewHeap(budget int) *Heap {
	if budget <= 0 {
		budget = DefaultHeapBudget
	}
	return &Heap{
		cells:  make([]Cell, 1, 128),
		budget: budget,
	}
}

// Stats returns a snapshot of heap counters.
func (h *Heap) Stats() HeapStats {
	s := h.stats
	s.Capacity = len(h.cells) - 1
	s.Budget = h.budget
	return s
}

// Reserve makes room for words more words, collecting if the budget would
// be exceeded. It reports false when the heap is still too full afterwards.
func (h *Heap) Reserve(words int) bool {
	if h.stats.LiveWords+words <= h.budget {
		return true
	}
	h.Collect()
	return h.stats.LiveWords+words <= h.budget
}

// alloc takes a slot for a cell of n elements. Callers reserve first; alloc
// itself never collects, so partially built values stay safe.
func (h *Heap) alloc(kind CellKind, n int) value.Handle {
	var handle value.Handle
	if k := len(h.free); k > 0 {
		handle = h.free[k-1]
		h.free = h.free[:k-1]
	} else {
		hv, err := safecast.Conv[value.Handle](len(h.cells))
		if err != nil {
			panic(fmt.Errorf("heap handle overflow: %w", err))
		}
		h.cells = append(h.cells, Cell{})
		handle = hv
	}
	c := &h.cells[handle]
	*c = Cell{Kind: kind, Elems: make([]value.Value, n)}
	h.stats.Allocs++
	h.stats.Live++
	h.stats.LiveWords += c.words()
	if h.trace != nil {
		h.trace.TraceHeapAlloc(kind, handle, n)
	}
	return handle
}

// Get returns the live cell behind handle, or nil.
func (h *Heap) Get(handle value.Handle) *Cell {
	if handle == value.NilHandle || int(handle) >= len(h.cells) {
		return nil
	}
	c := &h.cells[handle]
	if c.Kind == CellFree {
		return nil
	}
	return c
}

// Pin keeps a cell alive regardless of reachability until Unpin.
func (h *Heap) Pin(handle value.Handle) {
	if c := h.Get(handle); c != nil {
		c.pinned++
	}
}

// Unpin releases one Pin.
func (h *Heap) Unpin(handle value.Handle) {
	if c := h.Get(handle); c != nil && c.pinned > 0 {
		c.pinned--
	}
}

// Collect marks everything reachable from the roots and pinned cells with
// an explicit worklist, then sweeps unmarked cells onto the free list.
func (h *Heap) Collect() {
	h.stats.Collections++
	work := make([]value.Handle, 0, 64)
	mark := func(v value.Value) {
		if v.Kind != value.KRef || v.Ref == value.NilHandle {
			return
		}
		c := h.Get(v.Ref)
		if c == nil || c.marked {
			return
		}
		c.marked = true
		work = append(work, v.Ref)
	}
	if h.roots != nil {
		h.roots(mark)
	}
	for i := 1; i < len(h.cells); i++ {
		c := &h.cells[i]
		if c.Kind != CellFree && c.pinned > 0 && !c.marked {
			c.marked = true
			work = append(work, value.Handle(i)) //nolint:gosec // i < len(cells), which fits a Handle
		}
	}
	for len(work) > 0 {
		handle := work[len(work)-1]
		work = work[:len(work)-1]
		for _, v := range h.cells[handle].Elems {
			mark(v)
		}
	}

	freed := 0
	for i := 1; i < len(h.cells); i++ {
		c := &h.cells[i]
		if c.Kind == CellFree {
			continue
		}
		if c.marked {
			c.marked = false
			continue
		}
		h.stats.LiveWords -= c.words()
		h.stats.Live--
		h.stats.Frees++
		*c = Cell{}
		h.free = append(h.free, value.Handle(i)) //nolint:gosec // see above
		freed++
	}
	if h.trace != nil {
		h.trace.TraceCollect(freed, h.stats.Live)
	}
}
