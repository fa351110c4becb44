package trace

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"
)

func TestLevelFiltersModuleScope(t *testing.T) {
	var buf bytes.Buffer
	tr := NewStreamTracer(&buf, LevelPhase, FormatText)
	pass := Begin(tr, ScopePass, "bind", 0)
	mod := Begin(tr, ScopeModule, "module:mathx", pass.ID())
	mod.End("")
	pass.End("2 units")
	out := buf.String()
	if strings.Contains(out, "mathx") {
		t.Fatalf("module event emitted at phase level:\n%s", out)
	}
	if !strings.Contains(out, "-> bind") || !strings.Contains(out, "<- bind (2 units)") {
		t.Fatalf("unexpected output:\n%s", out)
	}
}

func TestNDJSONCarriesParent(t *testing.T) {
	var buf bytes.Buffer
	tr, err := New(Config{Level: LevelDetail, Format: FormatNDJSON, Output: &buf})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	ctx := WithTracer(context.Background(), tr)
	root := Begin(FromContext(ctx), ScopeDriver, "build", 0)
	ctx = WithSpan(ctx, root)
	Begin(FromContext(ctx), ScopeModule, "module:a", CurrentSpan(ctx)).WithExtra("cached", "true").End("")
	root.End("")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 4 {
		t.Fatalf("got %d lines:\n%s", len(lines), buf.String())
	}
	var ev struct {
		Kind     string            `json:"kind"`
		ParentID uint64            `json:"parent_id"`
		Extra    map[string]string `json:"extra"`
	}
	if err := json.Unmarshal([]byte(lines[2]), &ev); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if ev.Kind != "end" || ev.ParentID != root.ID() || ev.Extra["cached"] != "true" {
		t.Fatalf("event = %+v", ev)
	}
}

func TestOffIsNop(t *testing.T) {
	tr, err := New(Config{Level: LevelOff})
	if err != nil || tr.Enabled() {
		t.Fatalf("New(off) = %v, %v", tr, err)
	}
	if Begin(tr, ScopeDriver, "x", 0).ID() != 0 {
		t.Fatalf("disabled span has an ID")
	}
}

func TestParseLevel(t *testing.T) {
	for in, want := range map[string]Level{"off": LevelOff, "PHASE": LevelPhase, "detail": LevelDetail} {
		got, err := ParseLevel(in)
		if err != nil || got != want {
			t.Fatalf("ParseLevel(%q) = %v, %v", in, got, err)
		}
	}
	if _, err := ParseLevel("verbose"); err == nil {
		t.Fatalf("ParseLevel accepted verbose")
	}
}

func TestPointFollowsLevel(t *testing.T) {
	var buf bytes.Buffer
	tr := NewStreamTracer(&buf, LevelPhase, FormatNDJSON)
	Point(tr, ScopeModule, "cache:discard", "stale", 1)
	if buf.Len() != 0 {
		t.Fatalf("module point emitted at phase level: %s", buf.String())
	}
	Point(tr, ScopePass, "cache:discard", "stale", 1)
	if !strings.Contains(buf.String(), `"kind":"point"`) {
		t.Fatalf("missing point event: %s", buf.String())
	}
}
