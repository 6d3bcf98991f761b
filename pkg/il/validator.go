package il

import "fmt"

// Validate walks m and reports every violation of the IL's well-formedness
// invariants: well-formed terminators, in/out-edge consistency, and (when
// fn claims IsSSA) def/use dominance and φ well-formedness. It never
// mutates m; callers funnel the returned messages into the diagnostic bus
// as compiler-internal errors.
func Validate(m *Module) []string {
	var errs []string
	for _, fn := range m.Functions {
		errs = append(errs, validateFunction(fn)...)
	}
	return errs
}

func validateFunction(fn *Function) []string {
	var errs []string
	prefix := fmt.Sprintf("function %s: ", fn.Name)

	blockByName := map[string]*BasicBlock{}
	for _, b := range fn.Blocks {
		blockByName[b.Name] = b
	}

	for _, b := range fn.Blocks {
		errs = append(errs, validateBlock(fn, b, blockByName, prefix)...)
	}

	if fn.IsSSA {
		errs = append(errs, validateSSA(fn, prefix)...)
	}
	return errs
}

func validateBlock(fn *Function, b *BasicBlock, byName map[string]*BasicBlock, prefix string) []string {
	var errs []string

	// Exactly one terminator, at the tail.
	termCount := 0
	for i, instr := range b.Instrs {
		if instr.Op.IsTerminator() {
			termCount++
			if i != len(b.Instrs)-1 {
				errs = append(errs, fmt.Sprintf("%sblock %s: terminator %s is not the last instruction", prefix, b.Name, instr.Op))
			}
		}
	}
	switch termCount {
	case 0:
		errs = append(errs, fmt.Sprintf("%sblock %s: missing terminator", prefix, b.Name))
	case 1:
		// ok
	default:
		errs = append(errs, fmt.Sprintf("%sblock %s: %d terminators, expected exactly one", prefix, b.Name, termCount))
	}

	// JUMP/BRANCH targets resolve within this function, and the Succs/Preds
	// lists agree with the targets actually named in the terminator.
	if n := len(b.Instrs); n > 0 {
		last := b.Instrs[n-1]
		switch last.Op {
		case OpJump:
			checkTarget(last.Args[0], byName, fn.Name, b.Name, &errs)
		case OpBranch:
			checkTarget(last.Args[1], byName, fn.Name, b.Name, &errs)
			checkTarget(last.Args[2], byName, fn.Name, b.Name, &errs)
		}
	}

	for _, s := range b.Succs {
		found := false
		for _, p := range s.Preds {
			if p == b {
				found = true
				break
			}
		}
		if !found {
			errs = append(errs, fmt.Sprintf("%ssuccessor %s of %s does not list it as a predecessor", prefix, s.Name, b.Name))
		}
	}
	for _, p := range b.Preds {
		found := false
		for _, s := range p.Succs {
			if s == b {
				found = true
				break
			}
		}
		if !found {
			errs = append(errs, fmt.Sprintf("%spredecessor %s of %s does not list it as a successor", prefix, p.Name, b.Name))
		}
	}

	return errs
}

func checkTarget(v Value, byName map[string]*BasicBlock, fnName, blockName string, errs *[]string) {
	if v.Kind != ValLabel {
		*errs = append(*errs, fmt.Sprintf("function %s: block %s: terminator operand is not a label", fnName, blockName))
		return
	}
	if _, ok := byName[v.Label]; !ok {
		*errs = append(*errs, fmt.Sprintf("function %s: block %s: jump target %q is not a block of this function", fnName, blockName, v.Label))
	}
}

// validateSSA checks the three core SSA invariants: each
// register defined once, every use dominated by its def, and every φ has
// one operand per predecessor whose value is defined on that edge.
func validateSSA(fn *Function, prefix string) []string {
	var errs []string

	defBlock := map[int]*BasicBlock{}
	defCount := map[int]int{}
	for _, b := range fn.Blocks {
		for _, instr := range b.Instrs {
			if instr.Dst != nil && instr.Dst.Kind == ValReg {
				defCount[instr.Dst.Reg]++
				defBlock[instr.Dst.Reg] = b
			}
		}
	}
	for reg, n := range defCount {
		if n > 1 {
			errs = append(errs, fmt.Sprintf("%sregister v%d defined %d times, expected exactly once", prefix, reg, n))
		}
	}

	idom := computeIdom(fn)
	dominates := func(defB, useB *BasicBlock) bool {
		if defB == useB {
			return true
		}
		for cur := useB; cur != nil; {
			next, ok := idom[cur]
			if !ok {
				return false
			}
			if next == defB {
				return true
			}
			if next == cur {
				return false
			}
			cur = next
		}
		return false
	}

	for _, b := range fn.Blocks {
		for _, instr := range b.Instrs {
			if instr.Op == OpPhi {
				if len(instr.Args) != len(b.Preds) {
					errs = append(errs, fmt.Sprintf("%sblock %s: phi has %d operands, expected %d (one per predecessor)", prefix, b.Name, len(instr.Args), len(b.Preds)))
				}
				for i, arg := range instr.Args {
					if arg.Kind != ValReg || i >= len(b.Preds) {
						continue
					}
					defB, ok := defBlock[arg.Reg]
					if !ok {
						continue // constant-folded/UNDEF operand, not a register use
					}
					pred := b.Preds[i]
					if !dominates(defB, pred) {
						errs = append(errs, fmt.Sprintf("%sblock %s: phi operand v%d from predecessor %s is not defined along that edge", prefix, b.Name, arg.Reg, pred.Name))
					}
				}
				continue
			}
			for _, arg := range instr.Args {
				if arg.Kind != ValReg {
					continue
				}
				defB, ok := defBlock[arg.Reg]
				if !ok {
					errs = append(errs, fmt.Sprintf("%sblock %s: use of v%d has no definition", prefix, b.Name, arg.Reg))
					continue
				}
				if !dominates(defB, b) {
					errs = append(errs, fmt.Sprintf("%sblock %s: use of v%d is not dominated by its definition in %s", prefix, b.Name, arg.Reg, defB.Name))
				}
			}
		}
	}
	return errs
}

// computeIdom is a small Cooper/Harvey/Kennedy dominator computation local
// to the validator, so it doesn't need to import pkg/ssa (which imports
// pkg/il) and create a cycle.
func computeIdom(fn *Function) map[*BasicBlock]*BasicBlock {
	if fn.Entry == nil {
		return nil
	}
	var postorder []*BasicBlock
	visited := map[*BasicBlock]bool{}
	var visit func(b *BasicBlock)
	visit = func(b *BasicBlock) {
		if visited[b] {
			return
		}
		visited[b] = true
		for _, s := range b.Succs {
			visit(s)
		}
		postorder = append(postorder, b)
	}
	visit(fn.Entry)

	rpo := make([]*BasicBlock, len(postorder))
	copy(rpo, postorder)
	for i, j := 0, len(rpo)-1; i < j; i, j = i+1, j-1 {
		rpo[i], rpo[j] = rpo[j], rpo[i]
	}
	index := map[*BasicBlock]int{}
	for i, b := range rpo {
		index[b] = i
	}

	idom := map[*BasicBlock]*BasicBlock{fn.Entry: fn.Entry}
	changed := true
	intersect := func(a, b *BasicBlock) *BasicBlock {
		for a != b {
			for index[a] > index[b] {
				a = idom[a]
			}
			for index[b] > index[a] {
				b = idom[b]
			}
		}
		return a
	}
	for changed {
		changed = false
		for _, b := range rpo {
			if b == fn.Entry {
				continue
			}
			var newIdom *BasicBlock
			for _, p := range b.Preds {
				if _, ok := idom[p]; !ok {
					continue
				}
				if newIdom == nil {
					newIdom = p
					continue
				}
				newIdom = intersect(newIdom, p)
			}
			if newIdom == nil {
				continue
			}
			if idom[b] != newIdom {
				idom[b] = newIdom
				changed = true
			}
		}
	}
	delete(idom, fn.Entry) // entry has no idom
	return idom
}
