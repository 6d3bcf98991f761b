package ssa

import (
	"github.com/blendsdk/blend65/pkg/il"
	"github.com/blendsdk/blend65/pkg/types"
)

// renamer carries the per-variable version stacks and the substitution map
// that collapses deleted LOAD_VAR registers to the SSA value they stand for.
type renamer struct {
	fn       *il.Function
	dom      *DomInfo
	varTypes map[string]*types.Type
	stacks   map[string][]il.Value
	phiAt    map[*il.BasicBlock]map[string]*il.Instruction // block -> var -> its phi
	undef    map[string]il.Value
	subst    map[int]il.Value
	toDelete map[*il.Instruction]bool
}

// Rename performs the dominator-tree preorder walk that assigns a fresh SSA
// value to every variable definition (STORE_VAR and φ) and rewrites every
// use (LOAD_VAR, and φ operands on CFG edges) to reference it, using the
// standard per-variable version-stack renaming discipline.
func rename(fn *il.Function, dom *DomInfo, sites []phiSite, varTypes map[string]*types.Type) {
	r := &renamer{
		fn:       fn,
		dom:      dom,
		varTypes: varTypes,
		stacks:   map[string][]il.Value{},
		phiAt:    map[*il.BasicBlock]map[string]*il.Instruction{},
		undef:    map[string]il.Value{},
		subst:    map[int]il.Value{},
		toDelete: map[*il.Instruction]bool{},
	}
	for _, s := range sites {
		if r.phiAt[s.block] == nil {
			r.phiAt[s.block] = map[string]*il.Instruction{}
		}
		r.phiAt[s.block][s.v] = s.instr
	}
	if fn.Entry != nil {
		r.walk(fn.Entry)
	}
	r.finish()
}

func (r *renamer) walk(b *il.BasicBlock) {
	pushed := map[string]int{}
	push := func(v string, val il.Value) {
		r.stacks[v] = append(r.stacks[v], val)
		pushed[v]++
	}

	for v, instr := range r.phiAt[b] {
		push(v, *instr.Dst)
	}

	for _, instr := range b.Instrs {
		switch instr.Op {
		case il.OpPhi:
			// Already pushed above; operands are filled via the
			// predecessor-edge loop below, not here.
		case il.OpLoadVar:
			r.subst[instr.Dst.Reg] = r.top(instr.Var)
			r.toDelete[instr] = true
		case il.OpStoreVar:
			val := r.substitute(instr.Args[0])
			push(instr.Var, val)
			r.toDelete[instr] = true
		default:
			for i, a := range instr.Args {
				instr.Args[i] = r.substitute(a)
			}
		}
	}

	for _, s := range b.Succs {
		idx := predIndex(s, b)
		if idx < 0 {
			continue
		}
		for v, phi := range r.phiAt[s] {
			il.SetPhiOperand(phi, idx, r.top(v))
		}
	}

	for _, c := range r.dom.Children[b] {
		r.walk(c)
	}

	for v, n := range pushed {
		r.stacks[v] = r.stacks[v][:len(r.stacks[v])-n]
	}
}

func predIndex(b, pred *il.BasicBlock) int {
	for i, p := range b.Preds {
		if p == pred {
			return i
		}
	}
	return -1
}

// top returns the current SSA value of variable v, materializing a single
// UNDEF instruction in the entry block the first time v is read with no
// reaching definition.
func (r *renamer) top(v string) il.Value {
	stack := r.stacks[v]
	if len(stack) > 0 {
		return stack[len(stack)-1]
	}
	if val, ok := r.undef[v]; ok {
		return val
	}
	t := r.varTypes[v]
	reg := r.fn.NewValue(t)
	instr := &il.Instruction{Op: il.OpUndef, Dst: &reg, Type: t, Var: v}
	r.fn.Entry.Instrs = append([]*il.Instruction{instr}, r.fn.Entry.Instrs...)
	r.undef[v] = reg
	return reg
}

// substitute resolves a (possibly chained) LOAD_VAR register reference to
// the SSA value it stands for, leaving non-register operands untouched.
func (r *renamer) substitute(v il.Value) il.Value {
	for v.Kind == il.ValReg {
		repl, ok := r.subst[v.Reg]
		if !ok {
			return v
		}
		v = repl
	}
	return v
}

// finish drops every LOAD_VAR/STORE_VAR instruction marked for deletion
// during the walk and marks fn as post-SSA.
func (r *renamer) finish() {
	for _, b := range r.fn.Blocks {
		kept := b.Instrs[:0]
		for _, instr := range b.Instrs {
			if r.toDelete[instr] {
				continue
			}
			kept = append(kept, instr)
		}
		b.Instrs = kept
	}
	r.fn.IsSSA = true
}
