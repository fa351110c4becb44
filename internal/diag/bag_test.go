package diag

import (
	"testing"

	"blaise/internal/source"
)

func TestBagKeepsErrorsPastLimit(t *testing.T) {
	bag := NewBag(1)
	r := BagReporter{Bag: bag}
	ReportWarning(r, SemaTypeMismatch, source.Span{}, "w").Emit()
	ReportWarning(r, SemaTypeMismatch, source.Span{}, "dropped").Emit()
	ReportError(r, SemaUnknownMember, source.Span{Start: 1, End: 2}, "e").Emit()

	if bag.Len() != 2 {
		t.Fatalf("bag len = %d, want 2", bag.Len())
	}
	if !bag.HasErrors() || !bag.HasCode(SemaUnknownMember) {
		t.Fatalf("expected UnknownMember error in %v", bag.Items())
	}
}

func TestBagSortAndDedup(t *testing.T) {
	bag := NewBag(10)
	bag.Add(NewError(SemaUnknownMember, source.Span{File: 1, Start: 5, End: 6}, "b"))
	bag.Add(NewError(SemaDuplicateType, source.Span{File: 1, Start: 1, End: 2}, "a"))
	bag.Add(NewError(SemaDuplicateType, source.Span{File: 1, Start: 1, End: 2}, "a"))
	bag.Dedup()
	bag.Sort()

	items := bag.Items()
	if len(items) != 2 {
		t.Fatalf("len = %d, want 2", len(items))
	}
	if items[0].Code != SemaDuplicateType {
		t.Fatalf("first = %v, want DuplicateType", items[0].Code)
	}
}

func TestCodeNames(t *testing.T) {
	cases := map[Code]string{
		SemaCyclicInheritance:  "CyclicInheritance",
		ModCircularImport:      "CircularImport",
		SemaNoMatchingOverload: "NoMatchingOverload",
	}
	for code, want := range cases {
		if got := code.String(); got != want {
			t.Errorf("%d.String() = %q, want %q", code, got, want)
		}
	}
	if got := SemaUnknownMember.ID(); got != "SEM3004" {
		t.Errorf("ID = %q", got)
	}
}

func TestSeverityLabels(t *testing.T) {
	for sev, want := range map[Severity]string{SevInfo: "INFO", SevWarning: "WARNING", SevError: "ERROR", Severity(9): "UNKNOWN"} {
		if got := sev.String(); got != want {
			t.Fatalf("Severity(%d) = %q, want %q", sev, got, want)
		}
	}
}
