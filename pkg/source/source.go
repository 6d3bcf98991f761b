// Package source defines the location model shared by every AST, IL, and
// diagnostic entity in the compiler: a byte/line/column position within a
// named file, and the [start, end) range it spans.
package source

import "fmt"

// Pos is a single point in a source file. Lines and columns are 1-based;
// the byte offset is 0-based.
type Pos struct {
	Line   int
	Column int
	Offset int
}

// Before reports whether p comes strictly before o in the same file.
func (p Pos) Before(o Pos) bool {
	return p.Offset < o.Offset
}

// Range is a half-open [Start, End) span of source text within File.
type Range struct {
	File  string
	Start Pos
	End   Pos
}

// String renders a range the way diagnostics print it: "file:line:col".
func (r Range) String() string {
	return fmt.Sprintf("%s:%d:%d", r.File, r.Start.Line, r.Start.Column)
}

// Contains reports whether p falls within r (inclusive of Start, exclusive
// of End, except when Start == End in which case the point itself matches).
func (r Range) Contains(p Pos) bool {
	if r.Start == r.End {
		return p == r.Start
	}
	return !p.Before(r.Start) && p.Before(r.End)
}

// Join returns the smallest range covering both a and b. Both must refer to
// the same file; Join panics otherwise, since joining locations across
// files is always a compiler bug.
func Join(a, b Range) Range {
	if a.File != b.File {
		panic("source: Join across different files: " + a.File + " vs " + b.File)
	}
	start, end := a.Start, a.End
	if b.Start.Before(start) {
		start = b.Start
	}
	if end.Before(b.End) {
		end = b.End
	}
	return Range{File: a.File, Start: start, End: end}
}
