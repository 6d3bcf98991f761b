package target

import (
	"testing"

	"github.com/blendsdk/blend65/pkg/ast"
	"github.com/blendsdk/blend65/pkg/diag"
	"github.com/blendsdk/blend65/pkg/symbols"
	"github.com/blendsdk/blend65/pkg/types"
)

func TestCategorize(t *testing.T) {
	cases := []struct {
		addr uint16
		want Category
	}{
		{0x00, CategoryIOPort},
		{0x01, CategoryIOPort},
		{0x02, CategorySafe},
		{0x8F, CategorySafe},
		{0x90, CategoryKernalWorkspace},
		{0xFF, CategoryKernalWorkspace},
	}
	for _, c := range cases {
		if got := Categorize(c.addr); got != c.want {
			t.Errorf("Categorize($%02X) = %v, want %v", c.addr, got, c.want)
		}
	}
}

func TestValidateAllocationSafeRangeAccepted(t *testing.T) {
	if v := ValidateAllocation(0x02, 1); v != nil {
		t.Fatalf("expected $02 to be safe, got %+v", v)
	}
	if v := ValidateAllocation(0x8E, 2); v != nil {
		t.Fatalf("expected [$8E,$8F] to be safe, got %+v", v)
	}
}

func TestValidateAllocationSingleByteReserved(t *testing.T) {
	v := ValidateAllocation(0x00, 1)
	if v == nil || v.Code != "S103" {
		t.Fatalf("expected S103 for a single reserved byte, got %+v", v)
	}
}

func TestValidateAllocationStartsInReserved(t *testing.T) {
	v := ValidateAllocation(0x00, 4)
	if v == nil || v.Code != "S103" {
		t.Fatalf("expected S103 for an allocation starting in reserved space, got %+v", v)
	}
}

func TestValidateAllocationExtendsIntoReserved(t *testing.T) {
	v := ValidateAllocation(0x8D, 4)
	if v == nil || v.Code != "S104" {
		t.Fatalf("expected S104 for an allocation extending into reserved space, got %+v", v)
	}
}

func TestSuggestAllocationFitsInSafeRange(t *testing.T) {
	start, ok := SuggestAllocation(4, 0)
	if !ok {
		t.Fatal("expected a suggestion for a small allocation")
	}
	if v := ValidateAllocation(start, 4); v != nil {
		t.Fatalf("suggested start $%02X is not actually safe: %+v", start, v)
	}
}

func TestSuggestAllocationTooLargeFails(t *testing.T) {
	if _, ok := SuggestAllocation(143, 0); ok {
		t.Fatal("expected no suggestion for an allocation larger than the whole safe range")
	}
	if _, ok := SuggestAllocation(142, 0); !ok {
		t.Fatal("expected the full 142-byte safe range to be allocatable")
	}
}

func zpDecl(name string, offset int) *symbols.Symbol {
	r := ast.NewRange("t.b65", offset, 1, offset, 1)
	decl := ast.NewVariableDecl(r, name, nil, nil, false, false, ast.StorageZP)
	return &symbols.Symbol{Name: name, Kind: symbols.KindVariable, Storage: symbols.StorageZP, Type: types.TByte, Decl: r, Node: decl}
}

func mapDecl(name string, addr uint16, offset int) *symbols.Symbol {
	r := ast.NewRange("t.b65", offset, 1, offset, 1)
	decl := ast.NewVariableDecl(r, name, nil, nil, false, false, ast.StorageMap)
	decl.FixedAddr = addr
	decl.HasFixedAddr = true
	return &symbols.Symbol{Name: name, Kind: symbols.KindVariable, Storage: symbols.StorageMap, Type: types.TByte, Decl: r, Node: decl}
}

func TestC64AnalyzerAllocatesZeroPageInSafeRange(t *testing.T) {
	table := symbols.NewTable()
	table.Root().Declare(zpDecl("a", 1))
	table.Root().Declare(zpDecl("b", 2))

	bus := diag.New()
	a := newC64Analyzer(nil)
	prog := &ast.Program{Module: ast.NewModuleDecl(ast.NewRange("t.b65", 1, 1, 1, 1), "T")}
	a.Analyze(prog, table, bus)

	if bus.HasErrors() {
		t.Fatalf("unexpected errors allocating two bytes: %+v", bus.ErrorsOnly())
	}
}

func TestC64AnalyzerFlagsOverlappingMapDecls(t *testing.T) {
	table := symbols.NewTable()
	table.Root().Declare(mapDecl("border", 0xD020, 1))
	table.Root().Declare(mapDecl("alias", 0xD020, 2))

	bus := diag.New()
	a := newC64Analyzer(nil)
	prog := &ast.Program{Module: ast.NewModuleDecl(ast.NewRange("t.b65", 1, 1, 1, 1), "T")}
	a.Analyze(prog, table, bus)

	found := false
	for _, d := range bus.ErrorsOnly() {
		if d.Code == "S100" {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected S100 for two @map decls at the same address, got %+v", bus.All())
	}
}

func TestC64AnalyzerConsultsManifestReservation(t *testing.T) {
	table := symbols.NewTable()
	table.Root().Declare(zpDecl("a", 1))

	manifest := &Manifest{ZeroPageReserved: []ZeroPageReservation{{Start: 0x02, End: 0x8F, Name: "custom driver"}}}
	bus := diag.New()
	a := newC64Analyzer(manifest)
	prog := &ast.Program{Module: ast.NewModuleDecl(ast.NewRange("t.b65", 1, 1, 1, 1), "T")}
	a.Analyze(prog, table, bus)

	if !bus.HasErrors() {
		t.Fatal("expected the manifest's full-range reservation to reject the only safe byte available")
	}
}

func TestPlaceholderAnalyzerEmitsOneNoticePerProgram(t *testing.T) {
	a, err := NewAnalyzer(C128, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	bus := diag.New()
	table := symbols.NewTable()
	prog := &ast.Program{Module: ast.NewModuleDecl(ast.NewRange("t.b65", 1, 1, 1, 1), "T")}
	a.Analyze(prog, table, bus)
	a.Analyze(prog, table, bus)

	count := 0
	for _, d := range bus.All() {
		if d.Code == "H100" {
			count++
		}
	}
	if count != 1 {
		t.Fatalf("expected exactly one H100 notice across repeated Analyze calls, got %d", count)
	}
}
