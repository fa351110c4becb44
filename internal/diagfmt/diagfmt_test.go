package diagfmt

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"blaise/internal/diag"
	"blaise/internal/source"
)

func fixture(t *testing.T, src string, start, end uint32) (*diag.Bag, *source.FileSet) {
	t.Helper()
	fs := source.NewFileSet()
	id := fs.AddVirtual("main.pas", []byte(src))
	bag := diag.NewBag(8)
	d := diag.NewError(diag.SemaUnknownMember, source.Span{File: id, Start: start, End: end}, "class dog has no member Spek").
		WithNote(source.Span{File: id, Start: 0, End: 7}, "declared here")
	bag.Add(d)
	return bag, fs
}

func TestPrettyUnderlinesSpan(t *testing.T) {
	src := "program P;\n  a.Spek;\n"
	bag, fs := fixture(t, src, 15, 19)
	var buf bytes.Buffer
	Pretty(&buf, bag, fs, PrettyOpts{ShowNotes: true})
	lines := strings.Split(buf.String(), "\n")
	if !strings.HasPrefix(lines[0], "main.pas:2:5: ERROR SEM3004 (UnknownMember): class dog has no member Spek") {
		t.Fatalf("header = %q", lines[0])
	}
	if lines[1] != " 2 |   a.Spek;" {
		t.Fatalf("excerpt = %q", lines[1])
	}
	if lines[2] != "   |     ^~~~" {
		t.Fatalf("caret = %q", lines[2])
	}
	if !strings.Contains(buf.String(), "note: declared here") {
		t.Fatalf("note missing:\n%s", buf.String())
	}
}

func TestPrettyCaretSkipsWideRunes(t *testing.T) {
	src := "s := '日本'; x\n"
	idx := uint32(strings.Index(src, "x"))
	bag, fs := fixture(t, src, idx, idx+1)
	var buf bytes.Buffer
	Pretty(&buf, bag, fs, PrettyOpts{})
	lines := strings.Split(buf.String(), "\n")
	// "s := '" is 6 cells, the two runes 4 more, then "'; " is 3.
	if lines[2] != "   | "+strings.Repeat(" ", 13)+"^" {
		t.Fatalf("caret = %q", lines[2])
	}
}

func TestShortIsOneLinePerEntry(t *testing.T) {
	bag, fs := fixture(t, "program P;\n  a.Spek;\n", 15, 19)
	var buf bytes.Buffer
	Short(&buf, bag, fs, false)
	if got := buf.String(); got != "ERROR SEM3004 main.pas:2:5 class dog has no member Spek\n" {
		t.Fatalf("short = %q", got)
	}
}

func TestJSONCarriesKindAndNotes(t *testing.T) {
	bag, fs := fixture(t, "program P;\n  a.Spek;\n", 15, 19)
	var buf bytes.Buffer
	if err := JSON(&buf, bag, fs, JSONOpts{IncludePositions: true, IncludeNotes: true}); err != nil {
		t.Fatalf("JSON: %v", err)
	}
	var out DiagnosticsOutput
	if err := json.Unmarshal(buf.Bytes(), &out); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if out.Count != 1 || len(out.Diagnostics) != 1 {
		t.Fatalf("out = %+v", out)
	}
	d := out.Diagnostics[0]
	if d.Kind != "UnknownMember" || d.Location.StartLine != 2 || d.Location.StartCol != 5 || len(d.Notes) != 1 {
		t.Fatalf("diagnostic = %+v", d)
	}
}
