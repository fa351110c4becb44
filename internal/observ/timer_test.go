package observ

import (
	"strings"
	"sync"
	"testing"
)

func TestConcurrentPhases(t *testing.T) {
	tm := NewTimer()
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			tm.End(tm.Begin("bind"), "")
		}()
	}
	wg.Wait()
	if got := len(tm.Report().Phases); got != 8 {
		t.Fatalf("got %d phases, want 8", got)
	}
}

func TestSummaryListsNotes(t *testing.T) {
	tm := NewTimer()
	tm.End(tm.Begin("parse"), "3 files")
	s := tm.Summary()
	if !strings.Contains(s, "parse") || !strings.Contains(s, "// 3 files") || !strings.Contains(s, "total") {
		t.Fatalf("summary:\n%s", s)
	}
}

func TestNilTimerIsInert(t *testing.T) {
	var tm *Timer
	tm.End(tm.Begin("x"), "")
	if r := tm.Report(); len(r.Phases) != 0 {
		t.Fatalf("report = %+v", r)
	}
}
