package source

import "testing"

func TestResolveLineCol(t *testing.T) {
	fs := NewFileSet()
	id := fs.AddVirtual("a.pas", []byte("program A;\nbegin\n  x := 1;\nend.\n"))

	start, end := fs.Resolve(Span{File: id, Start: 19, End: 20})
	if start.Line != 3 || start.Col != 3 {
		t.Fatalf("start = %+v, want 3:3", start)
	}
	if end.Line != 3 || end.Col != 4 {
		t.Fatalf("end = %+v, want 3:4", end)
	}
	if got := fs.Get(id).GetLine(2); got != "begin" {
		t.Fatalf("line 2 = %q, want %q", got, "begin")
	}
}

func TestNormalizeCRLFAndBOM(t *testing.T) {
	in := append([]byte{0xEF, 0xBB, 0xBF}, []byte("a\r\nb\rc")...)
	out, hadBOM := removeBOM(in)
	if !hadBOM {
		t.Fatal("expected BOM to be detected")
	}
	out, changed := normalizeCRLF(out)
	if !changed || string(out) != "a\nb\rc" {
		t.Fatalf("normalizeCRLF = %q (changed=%v)", out, changed)
	}
}

func TestSpanCover(t *testing.T) {
	a := Span{File: 1, Start: 4, End: 8}
	b := Span{File: 1, Start: 2, End: 6}
	if got := a.Cover(b); got.Start != 2 || got.End != 8 {
		t.Fatalf("cover = %v", got)
	}
	if got := a.Cover(Span{File: 2, Start: 0, End: 100}); got != a {
		t.Fatalf("cover across files = %v, want %v", got, a)
	}
}
