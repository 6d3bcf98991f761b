package symbols

import (
	"testing"

	"github.com/blendsdk/blend65/pkg/types"
)

func TestDeclareDuplicateInSameScopeFails(t *testing.T) {
	tab := NewTable()
	sym := &Symbol{Name: "x", Kind: KindVariable, Type: types.TByte}
	if err := tab.Root().Declare(sym); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := tab.Root().Declare(&Symbol{Name: "x", Kind: KindVariable, Type: types.TByte}); err == nil {
		t.Fatal("expected duplicate declaration error")
	}
}

func TestLookupWalksParentsLookupLocalDoesNot(t *testing.T) {
	tab := NewTable()
	outer := &Symbol{Name: "x", Kind: KindVariable, Type: types.TByte}
	tab.Root().Declare(outer)

	fn := tab.Enter(ScopeFunction, nil)
	if _, ok := fn.LookupLocal("x"); ok {
		t.Fatal("expected LookupLocal to miss an outer-scope symbol")
	}
	got, ok := fn.Lookup("x")
	if !ok || got != outer {
		t.Fatal("expected Lookup to find the outer-scope symbol")
	}
	tab.Exit()
	if tab.Current() != tab.Root() {
		t.Fatal("expected Exit to return to root")
	}
}

func TestShadowingAllowedInNestedScope(t *testing.T) {
	tab := NewTable()
	tab.Root().Declare(&Symbol{Name: "x", Kind: KindVariable, Type: types.TByte})
	blk := tab.Enter(ScopeBlock, nil)
	inner := &Symbol{Name: "x", Kind: KindVariable, Type: types.TWord}
	if err := blk.Declare(inner); err != nil {
		t.Fatalf("expected shadowing to succeed: %v", err)
	}
	got, _ := blk.Lookup("x")
	if got != inner {
		t.Fatal("expected inner declaration to shadow outer")
	}
}

func TestDeterministicInsertionOrderIteration(t *testing.T) {
	tab := NewTable()
	names := []string{"c", "a", "b"}
	for _, n := range names {
		tab.Root().Declare(&Symbol{Name: n, Kind: KindVariable, Type: types.TByte})
	}
	syms := tab.Root().SymbolsInScope()
	for i, n := range names {
		if syms[i].Name != n {
			t.Fatalf("at %d: got %s want %s", i, syms[i].Name, n)
		}
	}
}

func TestVisibleSymbolsInnerShadowsOuter(t *testing.T) {
	tab := NewTable()
	tab.Root().Declare(&Symbol{Name: "x", Kind: KindVariable, Type: types.TByte})
	tab.Root().Declare(&Symbol{Name: "y", Kind: KindVariable, Type: types.TByte})
	blk := tab.Enter(ScopeBlock, nil)
	blk.Declare(&Symbol{Name: "x", Kind: KindVariable, Type: types.TWord})

	vis := blk.VisibleSymbols()
	count := map[string]int{}
	for _, s := range vis {
		count[s.Name]++
	}
	if count["x"] != 1 || count["y"] != 1 {
		t.Fatalf("expected each name once, got %+v", count)
	}
}
