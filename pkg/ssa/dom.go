// Package ssa builds SSA form over an IL function: dominator tree,
// dominance frontiers, φ placement, variable renaming with per-variable
// version stacks, and a verifier. It operates one level below
// pkg/cfg, which computes the same family of graphs over the AST; here the
// graph is the IL's own basic-block Preds/Succs links.
package ssa

import "github.com/blendsdk/blend65/pkg/il"

// DomInfo is the dominance information pkg/ssa's φ-placement and renaming
// both consume: the immediate-dominator map, the dominator-tree children
// (the inverse of IDom), the dominance-frontier sets, and a reverse
// postorder suitable for iterative fixpoint dataflow.
type DomInfo struct {
	IDom     map[*il.BasicBlock]*il.BasicBlock
	Children map[*il.BasicBlock][]*il.BasicBlock
	DF       map[*il.BasicBlock]map[*il.BasicBlock]bool
	RPO      []*il.BasicBlock
}

// ComputeDominance runs the standard iterative dominator fixpoint (Cooper,
// Harvey, Kennedy) over fn's reachable blocks, then derives the dominator
// tree's children and the dominance-frontier sets (Cytron et al.) from the
// resulting immediate-dominator map.
func ComputeDominance(fn *il.Function) *DomInfo {
	info := &DomInfo{
		IDom:     map[*il.BasicBlock]*il.BasicBlock{},
		Children: map[*il.BasicBlock][]*il.BasicBlock{},
		DF:       map[*il.BasicBlock]map[*il.BasicBlock]bool{},
	}
	if fn.Entry == nil {
		return info
	}

	postorder := reachablePostorder(fn.Entry)
	rpo := make([]*il.BasicBlock, len(postorder))
	copy(rpo, postorder)
	reverseBlocks(rpo)
	info.RPO = rpo

	index := map[*il.BasicBlock]int{}
	for i, b := range rpo {
		index[b] = i
	}

	info.IDom[fn.Entry] = fn.Entry
	changed := true
	for changed {
		changed = false
		for _, b := range rpo {
			if b == fn.Entry {
				continue
			}
			var newIdom *il.BasicBlock
			for _, p := range b.Preds {
				if _, ok := info.IDom[p]; !ok {
					continue
				}
				if newIdom == nil {
					newIdom = p
					continue
				}
				newIdom = intersect(newIdom, p, info.IDom, index)
			}
			if newIdom == nil {
				continue
			}
			if info.IDom[b] != newIdom {
				info.IDom[b] = newIdom
				changed = true
			}
		}
	}
	delete(info.IDom, fn.Entry) // entry has no strict dominator

	// Build the dominator tree's children in RPO order, not IDom's (map)
	// iteration order: rename.walk recurses over Children, so this order
	// fixes the order UNDEF values get materialized in.
	for _, b := range rpo {
		d, ok := info.IDom[b]
		if !ok {
			continue
		}
		info.Children[d] = append(info.Children[d], b)
	}

	for _, b := range fn.Blocks {
		info.DF[b] = map[*il.BasicBlock]bool{}
	}
	for _, b := range fn.Blocks {
		if len(b.Preds) < 2 {
			continue
		}
		for _, p := range b.Preds {
			runner := p
			for runner != nil && runner != info.IDom[b] {
				info.DF[runner][b] = true
				runner = info.IDom[runner]
			}
		}
	}
	return info
}

// orderedSet returns the elements of a *il.BasicBlock set in RPO order, so
// callers never depend on Go's randomized map iteration order. Blocks absent
// from the RPO (unreachable from the entry) are appended afterwards in their
// fn.Blocks declaration order, which is itself deterministic.
func (info *DomInfo) orderedSet(set map[*il.BasicBlock]bool, fn *il.Function) []*il.BasicBlock {
	ordered := make([]*il.BasicBlock, 0, len(set))
	seen := map[*il.BasicBlock]bool{}
	for _, b := range info.RPO {
		if set[b] {
			ordered = append(ordered, b)
			seen[b] = true
		}
	}
	if len(ordered) == len(set) {
		return ordered
	}
	for _, b := range fn.Blocks {
		if set[b] && !seen[b] {
			ordered = append(ordered, b)
		}
	}
	return ordered
}

func intersect(a, b *il.BasicBlock, idom map[*il.BasicBlock]*il.BasicBlock, index map[*il.BasicBlock]int) *il.BasicBlock {
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

func reachablePostorder(entry *il.BasicBlock) []*il.BasicBlock {
	visited := map[*il.BasicBlock]bool{}
	var order []*il.BasicBlock
	var visit func(b *il.BasicBlock)
	visit = func(b *il.BasicBlock) {
		if visited[b] {
			return
		}
		visited[b] = true
		for _, s := range b.Succs {
			visit(s)
		}
		order = append(order, b)
	}
	visit(entry)
	return order
}

func reverseBlocks(bs []*il.BasicBlock) {
	for i, j := 0, len(bs)-1; i < j; i, j = i+1, j-1 {
		bs[i], bs[j] = bs[j], bs[i]
	}
}
