package ssa

import "github.com/blendsdk/blend65/pkg/il"

// collectDefs gathers the per-variable def sites (blocks containing a
// STORE_VAR) and one sample instruction per variable (for its type), the
// input to Cytron's φ-placement worklist. It also returns the variables in
// first-seen order (the order their first STORE_VAR is encountered walking
// fn.Blocks/b.Instrs, both slices), so placePhis never iterates the defs map
// directly and φ registers are allocated in a stable order.
func collectDefs(fn *il.Function) (map[string]map[*il.BasicBlock]bool, map[string]*il.Instruction, []string) {
	defs := map[string]map[*il.BasicBlock]bool{}
	sample := map[string]*il.Instruction{}
	var order []string
	for _, b := range fn.Blocks {
		for _, instr := range b.Instrs {
			if instr.Op == il.OpStoreVar {
				if defs[instr.Var] == nil {
					defs[instr.Var] = map[*il.BasicBlock]bool{}
				}
				defs[instr.Var][b] = true
				if sample[instr.Var] == nil {
					sample[instr.Var] = instr
					order = append(order, instr.Var)
				}
			}
		}
	}
	return defs, sample, order
}

// phiSite records the inserted φ instruction and which source variable it
// stands for, so renaming can find "the φ for v in block b" later.
type phiSite struct {
	instr *il.Instruction
	block *il.BasicBlock
	v     string
}

// placePhis runs Cytron's iterated dominance-frontier worklist for every
// promotable variable, inserting a placeholder φ (one operand slot per
// predecessor) at the head of every block in the variable's iterated DF
// that doesn't already have one.
func placePhis(fn *il.Function, dom *DomInfo, defs map[string]map[*il.BasicBlock]bool, sample map[string]*il.Instruction, order []string) []phiSite {
	var sites []phiSite
	for _, v := range order {
		defBlocks := defs[v]
		hasPhi := map[*il.BasicBlock]bool{}
		worklist := dom.orderedSet(defBlocks, fn)
		for len(worklist) > 0 {
			b := worklist[len(worklist)-1]
			worklist = worklist[:len(worklist)-1]
			for _, f := range dom.orderedSet(dom.DF[b], fn) {
				if hasPhi[f] {
					continue
				}
				hasPhi[f] = true
				instr := &il.Instruction{
					Op:   il.OpPhi,
					Args: make([]il.Value, len(f.Preds)),
					Type: sample[v].Type,
				}
				reg := fn.NewValue(sample[v].Type)
				instr.Dst = &reg
				f.Instrs = append([]*il.Instruction{instr}, f.Instrs...)
				sites = append(sites, phiSite{instr: instr, block: f, v: v})
				if !defBlocks[f] {
					worklist = append(worklist, f)
				}
			}
		}
	}
	return sites
}
