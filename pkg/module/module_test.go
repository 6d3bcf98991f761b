package module

import (
	"testing"

	"github.com/blendsdk/blend65/pkg/ast"
	"github.com/blendsdk/blend65/pkg/diag"
	"github.com/blendsdk/blend65/pkg/symbols"
	"github.com/blendsdk/blend65/pkg/types"
)

func progNamed(name string) *ast.Program {
	r := ast.NewRange(name+".b65", 1, 1, 1, 1)
	return &ast.Program{Module: ast.NewModuleDecl(r, name), File: name + ".b65"}
}

func TestRegisterDuplicateFails(t *testing.T) {
	reg := NewRegistry()
	if err := reg.Register("a", "a.b65", progNamed("a")); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := reg.Register("a", "a2.b65", progNamed("a")); err == nil {
		t.Fatal("expected duplicate registration error")
	}
}

func TestDetectCyclesTwoModuleCycle(t *testing.T) {
	reg := NewRegistry()
	reg.Register("a", "a.b65", progNamed("a"))
	reg.Register("b", "b.b65", progNamed("b"))
	reg.AddDependency("a", "b")
	reg.AddDependency("b", "a")

	bus := diag.New()
	DetectCycles(reg, bus)

	errs := bus.ErrorsOnly()
	if len(errs) != 1 || errs[0].Code != "P106" {
		t.Fatalf("expected one P106, got %+v", errs)
	}
}

func TestDetectCyclesSelfImport(t *testing.T) {
	reg := NewRegistry()
	reg.Register("a", "a.b65", progNamed("a"))
	reg.AddDependency("a", "a")

	bus := diag.New()
	DetectCycles(reg, bus)

	if !bus.HasErrors() {
		t.Fatal("expected self-import to be flagged as a cycle")
	}
}

func TestDetectCyclesAcyclicGraphIsClean(t *testing.T) {
	reg := NewRegistry()
	reg.Register("a", "a.b65", progNamed("a"))
	reg.Register("b", "b.b65", progNamed("b"))
	reg.Register("c", "c.b65", progNamed("c"))
	reg.AddDependency("a", "b")
	reg.AddDependency("b", "c")

	bus := diag.New()
	DetectCycles(reg, bus)

	if bus.HasErrors() {
		t.Fatalf("expected no cycles, got %+v", bus.ErrorsOnly())
	}
}

func TestResolveImportModuleNotFound(t *testing.T) {
	reg := NewRegistry()
	reg.Register("a", "a.b65", progNamed("a"))
	imp := ast.NewImportDecl(ast.NewRange("a.b65", 2, 1, 2, 1), "thing", "missing")

	bus := diag.New()
	_, ok := ResolveImport(reg, map[string]ExportSet{}, imp, bus)
	if ok {
		t.Fatal("expected resolution to fail")
	}
	errs := bus.ErrorsOnly()
	if len(errs) != 1 || errs[0].Code != "P105" {
		t.Fatalf("expected P105, got %+v", errs)
	}
}

func TestResolveImportSymbolNotExported(t *testing.T) {
	reg := NewRegistry()
	target := progNamed("gfx")
	target.Decls = append(target.Decls, ast.NewVariableDecl(ast.NewRange("gfx.b65", 2, 1, 2, 1), "hidden", nil, nil, false, false, ast.StorageDefault))
	reg.Register("gfx", "gfx.b65", target)

	imp := ast.NewImportDecl(ast.NewRange("a.b65", 2, 1, 2, 1), "hidden", "gfx")
	bus := diag.New()
	_, ok := ResolveImport(reg, map[string]ExportSet{"gfx": {}}, imp, bus)
	if ok {
		t.Fatal("expected resolution to fail")
	}
	errs := bus.ErrorsOnly()
	if len(errs) != 1 || errs[0].Code != "P107" {
		t.Fatalf("expected P107, got %+v", errs)
	}
}

func TestResolveImportSucceeds(t *testing.T) {
	reg := NewRegistry()
	reg.Register("gfx", "gfx.b65", progNamed("gfx"))
	sym := &symbols.Symbol{Name: "clear", Kind: symbols.KindFunction, Exported: true, Type: types.NewFunction(nil, types.TVoid)}
	exports := map[string]ExportSet{"gfx": {"clear": sym}}

	imp := ast.NewImportDecl(ast.NewRange("a.b65", 2, 1, 2, 1), "clear", "gfx")
	bus := diag.New()
	got, ok := ResolveImport(reg, exports, imp, bus)
	if !ok || got != sym {
		t.Fatal("expected import to resolve to the exported symbol")
	}
	if bus.HasErrors() {
		t.Fatalf("expected no diagnostics, got %+v", bus.ErrorsOnly())
	}
}

func TestGlobalTableMergesExports(t *testing.T) {
	a := &symbols.Symbol{Name: "x", Kind: symbols.KindVariable, Type: types.TByte}
	b := &symbols.Symbol{Name: "y", Kind: symbols.KindVariable, Type: types.TWord}
	exports := map[string]ExportSet{
		"mod1": {"x": a},
		"mod2": {"y": b},
	}
	bus := diag.New()
	gt := NewGlobalTable(exports, bus)

	if got, ok := gt.Lookup("mod1.x"); !ok || got != a {
		t.Fatal("expected mod1.x to resolve")
	}
	if got, ok := gt.Lookup("mod2.y"); !ok || got != b {
		t.Fatal("expected mod2.y to resolve")
	}
	if bus.HasErrors() {
		t.Fatalf("expected no diagnostics, got %+v", bus.ErrorsOnly())
	}
}
