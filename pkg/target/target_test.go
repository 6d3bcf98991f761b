package target

import "testing"

func TestParse(t *testing.T) {
	cases := map[string]ID{
		"c64":            C64,
		"C64":            C64,
		"commodore-64":   C64,
		"Commodore_64":   C64,
		"c128":           C128,
		"Commodore128":   C128,
		"x16":            X16,
		"CommanderX16":   X16,
		"commander-x-16": X16,
		"generic":        Generic,
		"6502":           Generic,
		"nonsense":       Unknown,
		"":               Unknown,
	}
	for in, want := range cases {
		if got := Parse(in); got != want {
			t.Errorf("Parse(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestDefaultCPU(t *testing.T) {
	if DefaultCPU(C64) != "MOS 6502" {
		t.Fatalf("C64 default CPU = %q", DefaultCPU(C64))
	}
	if DefaultCPU(C128) != "MOS 6502" {
		t.Fatalf("C128 default CPU = %q", DefaultCPU(C128))
	}
	if DefaultCPU(X16) != "WDC 65C02" {
		t.Fatalf("X16 default CPU = %q", DefaultCPU(X16))
	}
	if DefaultCPU(Generic) != "" {
		t.Fatalf("Generic default CPU = %q, want empty", DefaultCPU(Generic))
	}
}

func TestNewAnalyzerC64Implemented(t *testing.T) {
	a, err := NewAnalyzer(C64, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if a == nil {
		t.Fatal("expected a non-nil C64 analyzer")
	}
}

func TestNewAnalyzerPlaceholdersDoNotFail(t *testing.T) {
	for _, id := range []ID{C128, X16} {
		if _, err := NewAnalyzer(id, nil); err != nil {
			t.Fatalf("placeholder target %v should not fail fast: %v", id, err)
		}
	}
}

func TestNewAnalyzerGenericFailsFast(t *testing.T) {
	if _, err := NewAnalyzer(Generic, nil); err == nil {
		t.Fatal("expected generic target to have no analyzer")
	}
}

func TestNewAnalyzerUnknownFailsFast(t *testing.T) {
	if _, err := NewAnalyzer(Unknown, nil); err == nil {
		t.Fatal("expected unknown target to have no analyzer")
	}
}
