package module_test

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"blaise/internal/codegen"
	"blaise/internal/diag"
	"blaise/internal/module"
	"blaise/internal/parser"
	"blaise/internal/project"
	"blaise/internal/sema"
	"blaise/internal/source"
	"blaise/internal/types"
)

const shapes = `unit Shapes;
interface
type
  Shape = class
    constructor Create;
    function Area: real; virtual;
    function Name: string; virtual;
  end;
  Square = class(Shape)
    side: integer;
    constructor Make(s: integer);
    function Area: real; override;
  end;
const Unit1 = 1;
var Count: integer;
function Twice(x: integer): integer;
implementation
constructor Shape.Create; begin end;
function Shape.Area: real; begin result := 0 end;
function Shape.Name: string; begin result := 'shape' end;
constructor Square.Make(s: integer); begin side := s end;
function Square.Area: real; begin result := side * side end;
function Twice(x: integer): integer; begin Twice := x * 2 end;
initialization
  Count := 0
end.`

func compileUnit(t *testing.T, in *types.Interner, src string) *module.Unit {
	t.Helper()
	fs := source.NewFileSet()
	id := fs.AddVirtual("shapes.pas", []byte(src))
	bag := diag.NewBag(32)
	file := parser.ParseFile(fs.Get(id), diag.BagReporter{Bag: bag})
	if file == nil {
		t.Fatalf("parse failed: %v", bag.Items())
	}
	mod, errs := sema.Bind(file, sema.Options{Reporter: diag.BagReporter{Bag: bag}, Types: in})
	if errs > 0 {
		t.Fatalf("bind failed: %v", bag.Items())
	}
	u, err := codegen.Generate(mod, in)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	u.SourceHash = project.Digest(fs.Get(id).Hash)
	return u
}

func TestSaveLoadRoundTrip(t *testing.T) {
	u := compileUnit(t, types.NewInterner(), shapes)
	dir := t.TempDir()
	if err := module.Save(dir, u); err != nil {
		t.Fatalf("Save: %v", err)
	}
	got, ok, err := module.Load(dir, "shapes")
	if err != nil || !ok {
		t.Fatalf("Load = %v, %v", ok, err)
	}
	if got.Name != u.Name || got.Kind != u.Kind || got.Init != u.Init || got.Hash() != u.Hash() {
		t.Fatalf("header mismatch: %+v", got)
	}
	if len(got.Routines) != len(u.Routines) || len(got.Exports) != len(u.Exports) {
		t.Fatalf("routines %d/%d exports %d/%d", len(got.Routines), len(u.Routines), len(got.Exports), len(u.Exports))
	}
	var a, b bytes.Buffer
	if err := u.Encode(&a); err != nil {
		t.Fatalf("Encode: %v", err)
	}
	if err := got.Encode(&b); err != nil {
		t.Fatalf("Encode: %v", err)
	}
	if !bytes.Equal(a.Bytes(), b.Bytes()) {
		t.Fatalf("re-encoded unit differs")
	}
}

func TestImportReproducesVMTSlots(t *testing.T) {
	fresh := types.NewInterner()
	u := compileUnit(t, fresh, shapes)
	var buf bytes.Buffer
	if err := u.Encode(&buf); err != nil {
		t.Fatalf("Encode: %v", err)
	}
	loaded, err := module.Decode(&buf)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}

	other := types.NewInterner()
	imp, err := loaded.Import(other)
	if err != nil {
		t.Fatalf("Import: %v", err)
	}
	if imp.Name != "shapes" || len(imp.Symbols) == 0 {
		t.Fatalf("import = %+v", imp)
	}
	for _, name := range []string{"shape", "square"} {
		key := types.ClassKey{Module: "shapes", Name: name}
		a, _ := fresh.ClassByKey(key)
		b, ok := other.ClassByKey(key)
		if !ok {
			t.Fatalf("class %s not registered", name)
		}
		ai, _ := fresh.ClassInfo(a)
		bi, _ := other.ClassInfo(b)
		if len(ai.VMT) != len(bi.VMT) || ai.Slots != bi.Slots {
			t.Fatalf("%s layout differs: vmt %d/%d slots %d/%d", name, len(ai.VMT), len(bi.VMT), ai.Slots, bi.Slots)
		}
		for i := range ai.VMT {
			if ai.VMT[i].Selector != bi.VMT[i].Selector || ai.VMT[i].Routine != bi.VMT[i].Routine {
				t.Fatalf("%s vmt[%d] = %+v, want %+v", name, i, bi.VMT[i], ai.VMT[i])
			}
		}
	}
	sq, _ := other.ClassByKey(types.ClassKey{Module: "shapes", Name: "square"})
	sh, _ := other.ClassByKey(types.ClassKey{Module: "shapes", Name: "shape"})
	if !other.IsSubclass(sq, sh) {
		t.Fatalf("imported Square does not derive from Shape")
	}
}

func TestImportKeepsExistingClasses(t *testing.T) {
	in := types.NewInterner()
	u := compileUnit(t, in, shapes)
	before, _ := in.ClassByKey(types.ClassKey{Module: "shapes", Name: "shape"})
	if _, err := u.Import(in); err != nil {
		t.Fatalf("Import: %v", err)
	}
	after, _ := in.ClassByKey(types.ClassKey{Module: "shapes", Name: "shape"})
	if before != after {
		t.Fatalf("re-import replaced class id %d with %d", before, after)
	}
}

func TestTruncatedUnitIsCorrupt(t *testing.T) {
	u := compileUnit(t, types.NewInterner(), shapes)
	dir := t.TempDir()
	if err := module.Save(dir, u); err != nil {
		t.Fatalf("Save: %v", err)
	}
	path := filepath.Join(dir, module.FileName("shapes"))
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if err := os.WriteFile(path, data[:len(data)/2], 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	_, ok, err := module.Load(dir, "shapes")
	if !ok || !errors.Is(err, module.ErrCorruptUnit) {
		t.Fatalf("Load = %v, %v; want ErrCorruptUnit", ok, err)
	}
}

func TestMissingUnitIsNotAnError(t *testing.T) {
	_, ok, err := module.Load(t.TempDir(), "nothing")
	if ok || err != nil {
		t.Fatalf("Load = %v, %v", ok, err)
	}
}

func TestCheckFresh(t *testing.T) {
	u := compileUnit(t, types.NewInterner(), shapes)
	if err := u.CheckFresh(u.SourceHash, nil); err != nil {
		t.Fatalf("fresh unit reported stale: %v", err)
	}
	var changed project.Digest
	changed[0] = 0xff
	if err := u.CheckFresh(changed, nil); !errors.Is(err, module.ErrStaleUnit) {
		t.Fatalf("err = %v, want ErrStaleUnit", err)
	}

	u.Imports = []string{"base"}
	u.DepHashes = []module.DepHash{{Name: "base", Hash: changed}}
	if err := u.CheckFresh(u.SourceHash, map[string]project.Digest{"base": changed}); err != nil {
		t.Fatalf("unchanged dependency reported stale: %v", err)
	}
	if err := u.CheckFresh(u.SourceHash, map[string]project.Digest{"base": {}}); !errors.Is(err, module.ErrStaleUnit) {
		t.Fatalf("err = %v, want ErrStaleUnit", err)
	}
}
