package ssa

import "github.com/blendsdk/blend65/pkg/il"

// Verify checks the post-construction SSA invariants: each register
// defined exactly once, every use dominated by its definition, and every
// φ with one operand per predecessor. It wraps
// pkg/il's validator (which already implements these checks whenever
// Function.IsSSA is set) rather than duplicating them.
func Verify(fn *il.Function) []string {
	m := &il.Module{Name: "<ssa-verify>", Functions: []*il.Function{fn}}
	return il.Validate(m)
}
