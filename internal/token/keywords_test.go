package token

import (
	"sync"
	"testing"
)

func TestLookupKeywordConcurrentFirstUse(t *testing.T) {
	var wg sync.WaitGroup
	for range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if k, ok := LookupKeyword("begin"); !ok || k != KwBegin {
				t.Errorf("LookupKeyword(begin) = %v, %v", k, ok)
			}
		}()
	}
	wg.Wait()
}

func TestEveryKeywordRoundTrips(t *testing.T) {
	for k := KwProgram; k <= KwShr; k++ {
		text := KeywordText(k)
		if text == "" {
			t.Fatalf("keyword %d has no spelling", k)
		}
		got, ok := LookupKeyword(text)
		if !ok || got != k {
			t.Fatalf("LookupKeyword(%q) = %v, want %v", text, got, k)
		}
	}
	if _, ok := LookupKeyword("Begin"); ok {
		t.Fatal("lookup must expect folded identifiers")
	}
}
