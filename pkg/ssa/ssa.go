package ssa

import (
	"github.com/blendsdk/blend65/pkg/il"
	"github.com/blendsdk/blend65/pkg/types"
)

// Construct promotes every LOAD_VAR/STORE_VAR-addressed local variable in
// fn to SSA registers: dominance (ComputeDominance), φ placement
// (Cytron's worklist), and renaming (version-stack substitution), then
// marks fn post-SSA. Arrays, fields, and hardware accesses are
// untouched — they are real memory operations, not promotable scalars.
func Construct(fn *il.Function) *DomInfo {
	dom := ComputeDominance(fn)
	defs, sample, order := collectDefs(fn)
	varTypes := map[string]*types.Type{}
	for v, instr := range sample {
		varTypes[v] = instr.Type
	}
	sites := placePhis(fn, dom, defs, sample, order)
	rename(fn, dom, sites, varTypes)
	return dom
}
