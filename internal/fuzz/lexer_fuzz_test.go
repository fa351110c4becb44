package fuzztests

import (
	"testing"

	"blaise/internal/diag"
	"blaise/internal/lexer"
	"blaise/internal/source"
	"blaise/internal/token"
)

const maxFuzzInput = 1 << 16

func clampInput(input []byte) []byte {
	if len(input) > maxFuzzInput {
		input = input[:maxFuzzInput]
	}
	return append([]byte(nil), input...)
}

func FuzzLexerTokens(f *testing.F) {
	addCorpusSeeds(f)
	f.Fuzz(func(t *testing.T, input []byte) {
		input = clampInput(input)
		fs := source.NewFileSet()
		file := fs.Get(fs.AddVirtual("fuzz.pas", input))

		bag := diag.NewBag(64)
		lx := lexer.New(file, diag.BagReporter{Bag: bag})
		var last uint32
		for i := 0; ; i++ {
			tok := lx.Next()
			if tok.Kind == token.EOF {
				break
			}
			if tok.Span.Start < last {
				t.Fatalf("token %d at %d goes backwards from %d", i, tok.Span.Start, last)
			}
			last = tok.Span.Start
			if i > len(input)+1 {
				t.Fatalf("lexer produced more tokens than input bytes")
			}
		}
	})
}
