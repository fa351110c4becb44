package fuzztests

import (
	"testing"
	"time"

	"blaise/internal/diag"
	"blaise/internal/parser"
	"blaise/internal/sema"
	"blaise/internal/source"
	"blaise/internal/testkit"
)

const parseTimeout = 2 * time.Second

func FuzzParser(f *testing.F) {
	addCorpusSeeds(f)
	f.Fuzz(func(t *testing.T, input []byte) {
		input = clampInput(input)
		fs := source.NewFileSet()
		file := fs.Get(fs.AddVirtual("fuzz.pas", input))
		bag := diag.NewBag(128)

		done := make(chan struct{})
		go func() {
			defer close(done)
			parsed := parser.ParseFile(file, diag.BagReporter{Bag: bag})
			if parsed == nil || bag.HasErrors() {
				return
			}
			if err := testkit.CheckSpanInvariants(parsed, file); err != nil {
				t.Errorf("span invariants: %v", err)
			}
		}()
		select {
		case <-done:
		case <-time.After(parseTimeout):
			t.Fatalf("parser hung on %q", input)
		}
	})
}

// FuzzBinder feeds every file that parses cleanly to the binder.
func FuzzBinder(f *testing.F) {
	addCorpusSeeds(f)
	f.Fuzz(func(_ *testing.T, input []byte) {
		input = clampInput(input)
		fs := source.NewFileSet()
		file := fs.Get(fs.AddVirtual("fuzz.pas", input))
		bag := diag.NewBag(128)
		parsed := parser.ParseFile(file, diag.BagReporter{Bag: bag})
		if parsed == nil || bag.HasErrors() {
			return
		}
		_, _ = sema.Bind(parsed, sema.Options{Reporter: diag.BagReporter{Bag: bag}, Path: "fuzz.pas"})
	})
}
