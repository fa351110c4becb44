package testkit

import (
	"testing"

	"blaise/internal/diag"
	"blaise/internal/parser"
	"blaise/internal/source"
)

func TestCheckSpanInvariantsOnParsedUnit(t *testing.T) {
	src := `unit Shapes;
interface
uses Math;
type
  TShape = class
    function Area: real; virtual;
  end;
const Unit1 = 1;
implementation
function TShape.Area: real;
begin
  result := 0
end;
end.`
	fs := source.NewFileSet()
	id := fs.AddVirtual("shapes.pas", []byte(src))
	bag := diag.NewBag(16)
	f := parser.ParseFile(fs.Get(id), diag.BagReporter{Bag: bag})
	if f == nil || bag.HasErrors() {
		t.Fatalf("parse: %v", bag.Items())
	}
	if err := CheckSpanInvariants(f, fs.Get(id)); err != nil {
		t.Fatalf("CheckSpanInvariants: %v", err)
	}
}

func TestCheckSpanInvariantsRejectsForeignFile(t *testing.T) {
	fs := source.NewFileSet()
	a := fs.AddVirtual("a.pas", []byte("program A; begin end."))
	b := fs.AddVirtual("b.pas", []byte("program B; begin end."))
	bag := diag.NewBag(16)
	f := parser.ParseFile(fs.Get(a), diag.BagReporter{Bag: bag})
	if f == nil {
		t.Fatalf("parse: %v", bag.Items())
	}
	if err := CheckSpanInvariants(f, fs.Get(b)); err == nil {
		t.Fatal("expected a file mismatch")
	}
}
