// Package diag implements the compiler's diagnostic bus: an ordered,
// append-only log of coded messages threaded through every compilation
// phase. No pass aborts the process on a single diagnostic; the bus is the
// sole sink for user-visible issues.
package diag

import (
	"sort"
	"sync"

	"github.com/blendsdk/blend65/pkg/source"
)

// Severity classifies a diagnostic.
type Severity int

const (
	Hint Severity = iota
	Info
	Warning
	Error
)

func (s Severity) String() string {
	switch s {
	case Hint:
		return "hint"
	case Info:
		return "info"
	case Warning:
		return "warning"
	case Error:
		return "error"
	default:
		return "unknown"
	}
}

// Edit is one quick-fix replacement: swap the text at Location for Replacement.
type Edit struct {
	Location    source.Range
	Replacement string
}

// Fix is a suggested quick-fix bundling a human message with its edits.
type Fix struct {
	Message string
	Edits   []Edit
}

// Related attaches a secondary location (and why it matters) to a diagnostic.
type Related struct {
	Location source.Range
	Message  string
}

// Diagnostic is a single coded, located compiler message.
type Diagnostic struct {
	Code     string
	Severity Severity
	Message  string
	Primary  source.Range
	Related  []Related
	Fixes    []Fix
}

// Bus collects diagnostics in report order. It is single-owner per
// compilation phase and append-only for the duration of that phase, but the
// mutex makes it safe to share across the optimizer's parallel-free (but
// still concurrently-testable) callers.
type Bus struct {
	mu    sync.Mutex
	items []Diagnostic
}

// New creates an empty diagnostic bus.
func New() *Bus {
	return &Bus{}
}

// Report appends a diagnostic to the bus.
func (b *Bus) Report(code string, severity Severity, message string, primary source.Range, related []Related, fixes []Fix) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.items = append(b.items, Diagnostic{
		Code:     code,
		Severity: severity,
		Message:  message,
		Primary:  primary,
		Related:  related,
		Fixes:    fixes,
	})
}

// Errorf is a convenience for the common case of an error-severity
// diagnostic with no related locations or fixes.
func (b *Bus) Errorf(code string, primary source.Range, message string) {
	b.Report(code, Error, message, primary, nil, nil)
}

// Warnf is the Warning-severity equivalent of Errorf.
func (b *Bus) Warnf(code string, primary source.Range, message string) {
	b.Report(code, Warning, message, primary, nil, nil)
}

// Infof is the Info-severity equivalent of Errorf.
func (b *Bus) Infof(code string, primary source.Range, message string) {
	b.Report(code, Info, message, primary, nil, nil)
}

// All returns every diagnostic in report order.
func (b *Bus) All() []Diagnostic {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]Diagnostic, len(b.items))
	copy(out, b.items)
	return out
}

// ErrorsOnly returns only the error-severity diagnostics, in report order.
func (b *Bus) ErrorsOnly() []Diagnostic {
	b.mu.Lock()
	defer b.mu.Unlock()
	var out []Diagnostic
	for _, d := range b.items {
		if d.Severity == Error {
			out = append(out, d)
		}
	}
	return out
}

// HasErrors reports whether any error-severity diagnostic has been reported.
func (b *Bus) HasErrors() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, d := range b.items {
		if d.Severity == Error {
			return true
		}
	}
	return false
}

// CountsBySeverity tallies diagnostics by severity.
func (b *Bus) CountsBySeverity() map[Severity]int {
	b.mu.Lock()
	defer b.mu.Unlock()
	counts := map[Severity]int{}
	for _, d := range b.items {
		counts[d.Severity]++
	}
	return counts
}

// Clear empties the bus.
func (b *Bus) Clear() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.items = nil
}

// ByFile groups diagnostics by source file, each group sorted by position,
// for the CLI's "grouped by file" presentation.
func ByFile(items []Diagnostic) (files []string, grouped map[string][]Diagnostic) {
	grouped = map[string][]Diagnostic{}
	seen := map[string]bool{}
	for _, d := range items {
		f := d.Primary.File
		grouped[f] = append(grouped[f], d)
		if !seen[f] {
			seen[f] = true
			files = append(files, f)
		}
	}
	sort.Strings(files)
	for _, f := range files {
		ds := grouped[f]
		sort.SliceStable(ds, func(i, j int) bool {
			if ds[i].Primary.Start.Line != ds[j].Primary.Start.Line {
				return ds[i].Primary.Start.Line < ds[j].Primary.Start.Line
			}
			return ds[i].Primary.Start.Column < ds[j].Primary.Start.Column
		})
		grouped[f] = ds
	}
	return files, grouped
}
