package ui

import (
	"errors"
	"strings"
	"testing"

	"blaise/internal/buildpipeline"
)

func TestProgressAddsDiscoveredFiles(t *testing.T) {
	m := NewProgressModel("build", nil, nil).(*progressModel)
	m.apply(buildpipeline.Event{File: "mathx.pas", Stage: buildpipeline.StageParse, Status: buildpipeline.StatusQueued})
	m.apply(buildpipeline.Event{File: "mathx.pas", Stage: buildpipeline.StageBind, Status: buildpipeline.StatusWorking})
	m.apply(buildpipeline.Event{File: "main.pas", Stage: buildpipeline.StageLoad, Status: buildpipeline.StatusDone})

	if len(m.rows) != 2 {
		t.Fatalf("rows = %d, want 2", len(m.rows))
	}
	if got := rowLabel(m.rows[0]); got != "binding" {
		t.Fatalf("mathx label = %s", got)
	}
	if got := rowLabel(m.rows[1]); got != "cached" {
		t.Fatalf("main label = %s", got)
	}
	if f := m.fraction(); f < 0.69 || f > 0.71 {
		t.Fatalf("fraction = %v", f)
	}
}

func TestProgressShowsErrorsWhenDone(t *testing.T) {
	m := NewProgressModel("build", []string{"main.pas"}, nil).(*progressModel)
	m.apply(buildpipeline.Event{File: "main.pas", Stage: buildpipeline.StageBind, Status: buildpipeline.StatusError, Err: errors.New("unknown identifier")})
	m.apply(buildpipeline.Event{Stage: buildpipeline.StageBind, Status: buildpipeline.StatusError})
	m.done = true
	view := m.View()
	if !strings.Contains(view, "unknown identifier") {
		t.Fatalf("view does not show the error:\n%s", view)
	}
	if !strings.Contains(view, "failed: build") {
		t.Fatalf("header does not report failure:\n%s", view)
	}
}

func TestTruncate(t *testing.T) {
	if got := truncate("abcdefghij", 6); got != "abc..." {
		t.Fatalf("truncate = %q", got)
	}
	if got := truncate("abc", 6); got != "abc" {
		t.Fatalf("truncate = %q", got)
	}
}
