package fuzztests

import "testing"

var languageSeeds = []string{
	"program P; begin end.",
	"program P; var x: integer; begin x := 1 + 2 * 3; writeln(x) end.",
	"program P; var s: string; begin s := 'it''s'; writeln(s[1]) end.",
	"program P; var a: array of integer; begin a := new integer[3]; a[0] := 1 end.",
	"program P; var i: integer; begin for i := 10 downto 1 do if i mod 2 = 0 then continue end.",
	"program P; begin repeat until true; while false do ; end.",
	"program P; var c: char; begin case c of 'a'..'z': writeln(1); else writeln(2) end end.",
	`unit U;
interface
type
  TBase = class
    x: integer;
    constructor Create(v: integer);
    function Get: integer; virtual;
  end;
  TChild = class(TBase)
    function Get: integer; override;
  end;
implementation
constructor TBase.Create(v: integer);
begin
  this.x := v
end;
function TBase.Get: integer;
begin
  result := x
end;
function TChild.Get: integer;
begin
  result := base.Get() + 1
end;
initialization
  writeln('u')
end.`,
	"program P; var p: pointer to integer; begin p := new integer; p^ := 4 end.",
	"program P; { comment } // line\nbegin end.",
	"program P; begin writeln(1.5e3, 'x', true) end.",
	"unit U; interface function F(a: integer): integer; implementation function F(a: integer): integer; begin result := a end; end.",
}

func addCorpusSeeds(f *testing.F) {
	for _, s := range languageSeeds {
		f.Add([]byte(s))
	}
	// Truncations exercise recovery at every construct boundary.
	for _, s := range languageSeeds {
		if len(s) > 8 {
			f.Add([]byte(s[:len(s)/2]))
		}
	}
}
