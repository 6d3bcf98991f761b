package alias

import (
	"testing"

	"github.com/blendsdk/blend65/pkg/diag"
)

func TestAddressOfAndCopyPropagate(t *testing.T) {
	a := New()
	a.Declare(Node{Name: "x", Region: RegionRAM})
	a.Declare(Node{Name: "p", Region: RegionRAM})
	a.Declare(Node{Name: "q", Region: RegionRAM})

	a.AddressOf("p", "x") // p = &x
	a.Copy("q", "p")      // q = p
	a.Solve()

	if !a.PointsTo("p")["x"] {
		t.Fatal("expected p to point to x")
	}
	if !a.PointsTo("q")["x"] {
		t.Fatal("expected q to inherit p's points-to set via copy")
	}
}

func TestLoadAndStoreIndirectConstraints(t *testing.T) {
	a := New()
	a.Declare(Node{Name: "x", Region: RegionRAM})
	a.Declare(Node{Name: "y", Region: RegionRAM})
	a.Declare(Node{Name: "p", Region: RegionRAM})
	a.Declare(Node{Name: "q", Region: RegionRAM})
	a.Declare(Node{Name: "r", Region: RegionRAM})

	a.AddressOf("p", "x") // p = &x
	a.AddressOf("q", "y") // q = &y (q aliases nothing shared with p yet)
	a.Store("p", "q")     // *p = q  => x gets pts(q) = {y}
	a.Load("r", "p")      // r = *p  => r gets pts(x) = {y} (after the store)
	a.Solve()

	if !a.PointsTo("x")["y"] {
		t.Fatal("expected store through p to add y to x's points-to set")
	}
	if !a.PointsTo("r")["y"] {
		t.Fatal("expected load through p to propagate x's points-to set to r")
	}
}

func TestNonAliasDifferentRegions(t *testing.T) {
	a := New()
	a.Declare(Node{Name: "zp1", Region: RegionZeroPage})
	a.Declare(Node{Name: "ram1", Region: RegionRAM})
	a.Solve()
	if !a.NonAlias("zp1", "ram1") {
		t.Fatal("expected declarations in different regions to never alias")
	}
}

func TestNonAliasHardwareDistinctAddresses(t *testing.T) {
	a := New()
	a.Declare(Node{Name: "border", Region: RegionHardware, FixedAddr: 0xD020, HasFixedAddr: true})
	a.Declare(Node{Name: "background", Region: RegionHardware, FixedAddr: 0xD021, HasFixedAddr: true})
	a.Solve()
	if !a.NonAlias("border", "background") {
		t.Fatal("expected hardware registers at distinct fixed addresses to never alias")
	}
}

func TestAliasPossibleWhenPointsToSetsIntersect(t *testing.T) {
	a := New()
	a.Declare(Node{Name: "x", Region: RegionRAM})
	a.Declare(Node{Name: "p", Region: RegionRAM})
	a.Declare(Node{Name: "q", Region: RegionRAM})
	a.AddressOf("p", "x")
	a.AddressOf("q", "x")
	a.Solve()
	if a.NonAlias("p", "q") {
		t.Fatal("expected p and q to possibly alias since both may point to x")
	}
}

func TestSelfModifyingCodeWarning(t *testing.T) {
	a := New()
	a.Declare(Node{Name: "patch", Region: RegionHardware, FixedAddr: 0x0810, HasFixedAddr: true})
	bus := diag.New()
	CheckSelfModifyingCode(a, 0x0800, 0x0900, bus)

	warnings := bus.All()
	if len(warnings) != 1 || warnings[0].Code != "W005" {
		t.Fatalf("expected one W005 warning, got %+v", warnings)
	}
}

func TestNoSelfModifyingCodeWarningOutsideRange(t *testing.T) {
	a := New()
	a.Declare(Node{Name: "border", Region: RegionHardware, FixedAddr: 0xD020, HasFixedAddr: true})
	bus := diag.New()
	CheckSelfModifyingCode(a, 0x0800, 0x0900, bus)
	if len(bus.All()) != 0 {
		t.Fatalf("expected no warnings, got %+v", bus.All())
	}
}
