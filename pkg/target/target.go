// Package target implements component K: the pluggable per-target hardware
// analyzer. A target is selected by a case-insensitive, punctuation-stripped
// string (spec §6); the factory returns the analyzer for that target or
// fails fast when none exists, mirroring the teacher's own small
// struct-plus-switch categorization style (cpu.State's flag classification)
// rather than a registry of interfaces nothing else populates.
package target

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/blendsdk/blend65/pkg/ast"
	"github.com/blendsdk/blend65/pkg/diag"
	"github.com/blendsdk/blend65/pkg/symbols"
)

// ID identifies a compilation target.
type ID int

const (
	Unknown ID = iota
	C64
	C128
	X16
	Generic
)

func (id ID) String() string {
	switch id {
	case C64:
		return "c64"
	case C128:
		return "c128"
	case X16:
		return "x16"
	case Generic:
		return "generic"
	default:
		return "unknown"
	}
}

// Parse accepts a target identifier the way the CLI's --target flag does:
// case-insensitive, with non-alphanumeric characters stripped, so "C64",
// "commodore-64", and "commodore_64" all resolve the same way. An
// unrecognized string parses to Unknown rather than erroring; the caller
// decides whether Unknown is fatal.
func Parse(s string) ID {
	switch normalize(s) {
	case "c64", "commodore64":
		return C64
	case "c128", "commodore128":
		return C128
	case "x16", "commanderx16":
		return X16
	case "generic", "6502":
		return Generic
	default:
		return Unknown
	}
}

func normalize(s string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(s) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// DefaultCPU returns the default CPU model for id, per spec §6: MOS 6502
// for C64 and C128, WDC 65C02 for the X16.
func DefaultCPU(id ID) string {
	switch id {
	case C64, C128:
		return "MOS 6502"
	case X16:
		return "WDC 65C02"
	default:
		return ""
	}
}

// ZeroPageReservation names one additional byte range a manifest reserves
// on top of the built-in CPU I/O port / KERNAL workspace ranges — e.g. a
// custom KERNAL replacement or a resident driver's private working set.
type ZeroPageReservation struct {
	Start uint16 `yaml:"start"`
	End   uint16 `yaml:"end"`
	Name  string `yaml:"name,omitempty"`
}

// Manifest is the optional YAML target-capability file loaded via
// --manifest: default CPU/clock metadata plus a target's additional
// zero-page reservations, so the registry isn't limited to the Go-literal
// tables built into this package.
type Manifest struct {
	Target           string                `yaml:"target,omitempty"`
	CPU              string                `yaml:"cpu,omitempty"`
	ClockHz          int                   `yaml:"clockHz,omitempty"`
	ZeroPageReserved []ZeroPageReservation `yaml:"zeroPageReserved,omitempty"`
}

// LoadManifest reads and parses a YAML manifest file. CPU defaults from
// Target's DefaultCPU when the file leaves it blank.
func LoadManifest(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("target: reading manifest %s: %w", path, err)
	}
	var m Manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("target: parsing manifest %s: %w", path, err)
	}
	if m.CPU == "" {
		m.CPU = DefaultCPU(Parse(m.Target))
	}
	return &m, nil
}

// Analyzer runs target-specific hardware checks over an analyzed module,
// reporting findings onto bus. It never returns an error itself — per §4.K
// and §7, a target's own checks report diagnostics and never abort
// compilation; only NewAnalyzer's selection of "no analyzer at all" fails
// fast.
type Analyzer interface {
	Analyze(prog *ast.Program, table *symbols.Table, bus *diag.Bus)
}

// NewAnalyzer returns the hardware analyzer for id. C64 is fully
// implemented; C128 and X16 are placeholders that emit a single
// informational notice and skip hardware checks without failing. Generic
// (and any unrecognized id) has no analyzer at all, so the factory fails
// fast — the caller (pkg/compiler) reports this as a configuration error
// and skips the hardware-analysis phase for that run.
func NewAnalyzer(id ID, manifest *Manifest) (Analyzer, error) {
	switch id {
	case C64:
		return newC64Analyzer(manifest), nil
	case C128:
		return &placeholderAnalyzer{target: C128, label: "C128"}, nil
	case X16:
		return &placeholderAnalyzer{target: X16, label: "Commander X16"}, nil
	case Generic:
		return nil, fmt.Errorf("target: the generic/6502 target has no hardware analyzer")
	default:
		return nil, fmt.Errorf("target: unknown target id %d", id)
	}
}

// walkSymbols visits every symbol reachable from the table's scope tree,
// in declaration order, module scope first and children in creation order —
// deterministic, matching the iteration-order requirement of §5.
func walkSymbols(table *symbols.Table, visit func(*symbols.Symbol)) {
	var walk func(s *symbols.Scope)
	walk = func(s *symbols.Scope) {
		for _, sym := range s.SymbolsInScope() {
			visit(sym)
		}
		for _, child := range s.Children {
			walk(child)
		}
	}
	walk(table.Root())
}
