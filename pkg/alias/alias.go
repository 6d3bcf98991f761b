// Package alias implements Andersen-style points-to analysis over memory
// regions. Constraints are collected from assignments
// and address-of/dereference forms (Andersen 1994) and solved to a
// fixpoint by repeated full passes over the constraint set; there is no
// worklist, so every constraint is re-evaluated on each pass until no
// points-to set grows.
package alias

import (
	"fmt"

	"github.com/blendsdk/blend65/pkg/diag"
	"github.com/blendsdk/blend65/pkg/source"
)

// Region tags the memory space a declaration lives in.
type Region int

const (
	RegionZeroPage Region = iota
	RegionRAM
	RegionData
	RegionHardware
	RegionStack
)

func (r Region) String() string {
	switch r {
	case RegionZeroPage:
		return "zero-page"
	case RegionRAM:
		return "ram"
	case RegionData:
		return "data"
	case RegionHardware:
		return "hardware"
	case RegionStack:
		return "stack"
	default:
		return "unknown"
	}
}

// Node is one analyzed declaration: its region and, for hardware/@map
// declarations, the fixed address it occupies.
type Node struct {
	Name         string
	Region       Region
	FixedAddr    uint16
	HasFixedAddr bool
	Decl         source.Range
}

// constraintKind distinguishes the four Andersen constraint forms.
type constraintKind int

const (
	kindAddressOf constraintKind = iota // dst ⊇ {src}           (dst = &src)
	kindCopy                            // dst ⊇ pts(src)         (dst = src)
	kindLoad                            // dst ⊇ pts(*src)        (dst = *src)
	kindStore                           // *dst ⊇ pts(src)        (*dst = src)
)

type constraint struct {
	kind     constraintKind
	dst, src string
}

// Analysis owns the node set, the collected constraints, and (after Solve)
// each node's points-to set.
type Analysis struct {
	nodes       map[string]*Node
	order       []string
	constraints []constraint
	pointsTo    map[string]map[string]bool
}

// New creates an empty analysis.
func New() *Analysis {
	return &Analysis{nodes: map[string]*Node{}, pointsTo: map[string]map[string]bool{}}
}

// Declare registers a declaration's memory region. Declaring the same name
// twice is a caller bug (the symbol table already rejects duplicates) and
// simply overwrites, so callers don't need an error return here.
func (a *Analysis) Declare(n Node) {
	if _, exists := a.nodes[n.Name]; !exists {
		a.order = append(a.order, n.Name)
	}
	a.nodes[n.Name] = &n
	if a.pointsTo[n.Name] == nil {
		a.pointsTo[n.Name] = map[string]bool{}
	}
}

// AddressOf records `dst = &src`.
func (a *Analysis) AddressOf(dst, src string) {
	a.constraints = append(a.constraints, constraint{kindAddressOf, dst, src})
}

// Copy records `dst = src`.
func (a *Analysis) Copy(dst, src string) {
	a.constraints = append(a.constraints, constraint{kindCopy, dst, src})
}

// Load records `dst = *src`.
func (a *Analysis) Load(dst, src string) {
	a.constraints = append(a.constraints, constraint{kindLoad, dst, src})
}

// Store records `*dst = src`.
func (a *Analysis) Store(dst, src string) {
	a.constraints = append(a.constraints, constraint{kindStore, dst, src})
}

// Solve runs the constraint set to a fixpoint. Address-of constraints are
// applied once up front; copy, load and store constraints are then
// re-evaluated in full passes over the whole constraint set until no
// points-to set changes in a pass.
func (a *Analysis) Solve() {
	for _, c := range a.constraints {
		if c.kind == kindAddressOf {
			a.addPts(c.dst, c.src)
		}
	}

	changed := true
	for changed {
		changed = false
		for _, c := range a.constraints {
			switch c.kind {
			case kindCopy:
				for t := range a.pointsTo[c.src] {
					if a.addPts(c.dst, t) {
						changed = true
					}
				}
			case kindLoad:
				for t := range a.pointsTo[c.src] {
					for u := range a.pointsTo[t] {
						if a.addPts(c.dst, u) {
							changed = true
						}
					}
				}
			case kindStore:
				for t := range a.pointsTo[c.dst] {
					for u := range a.pointsTo[c.src] {
						if a.addPts(t, u) {
							changed = true
						}
					}
				}
			}
		}
	}
}

func (a *Analysis) addPts(name, target string) bool {
	if a.pointsTo[name] == nil {
		a.pointsTo[name] = map[string]bool{}
	}
	if a.pointsTo[name][target] {
		return false
	}
	a.pointsTo[name][target] = true
	return true
}

// PointsTo returns the (post-Solve) points-to set of name, as a sorted-free
// set of declaration names; callers that need determinism sort it.
func (a *Analysis) PointsTo(name string) map[string]bool {
	return a.pointsTo[name]
}

// NonAlias reports whether a and b can be proven never to alias: different
// memory regions never alias; two hardware/@map nodes at distinct fixed
// addresses never alias; otherwise two declarations alias only if their
// points-to sets intersect.
func (a *Analysis) NonAlias(x, y string) bool {
	nx, ny := a.nodes[x], a.nodes[y]
	if nx == nil || ny == nil {
		return false
	}
	if nx.Region != ny.Region {
		return true
	}
	if nx.HasFixedAddr && ny.HasFixedAddr && nx.FixedAddr != ny.FixedAddr {
		return true
	}
	if x == y {
		return false
	}
	for t := range a.pointsTo[x] {
		if a.pointsTo[y][t] {
			return false
		}
	}
	return true
}

// CheckSelfModifyingCode warns on any @map declaration whose fixed address
// falls inside [codeStart, codeEnd], since a store through it would mutate
// the program's own instruction bytes.
func CheckSelfModifyingCode(a *Analysis, codeStart, codeEnd uint16, bus *diag.Bus) {
	for _, name := range a.order {
		n := a.nodes[name]
		if n.Region != RegionHardware || !n.HasFixedAddr {
			continue
		}
		if n.FixedAddr >= codeStart && n.FixedAddr <= codeEnd {
			bus.Warnf("W005", n.Decl, fmt.Sprintf("declaration %q at $%04X overlaps the program code range [$%04X, $%04X]: self-modifying code", n.Name, n.FixedAddr, codeStart, codeEnd))
		}
	}
}
