// Package cfg builds the per-function control-flow graph and its derived
// structures: dominator tree, dominance frontiers, and natural loops. The
// graph is built directly over the AST's statement sequencing
// since Blend65 has no gotos; the SSA builder and optimizer consume the
// IL-level CFG built the same way, one level down, in pkg/il.
package cfg

import (
	"sort"

	"github.com/blendsdk/blend65/pkg/ast"
)

// Block is one basic block: a straight-line run of statements with a single
// entry and, at most, one branching statement at its end.
type Block struct {
	ID    int
	Stmts []ast.Stmt
	Succs []*Block
	Preds []*Block

	// Label is a human-readable tag for printers/tests ("entry", "exit",
	// "then", "loop.header", ...); it carries no semantic weight.
	Label string
}

func (b *Block) addSucc(to *Block) {
	for _, s := range b.Succs {
		if s == to {
			return
		}
	}
	b.Succs = append(b.Succs, to)
	to.Preds = append(to.Preds, b)
}

// Graph is one function's control-flow graph.
type Graph struct {
	Entry  *Block
	Exit   *Block
	Blocks []*Block
	nextID int
}

func (g *Graph) newBlock(label string) *Block {
	b := &Block{ID: g.nextID, Label: label}
	g.nextID++
	g.Blocks = append(g.Blocks, b)
	return b
}

// loopCtx tracks the break/continue targets active while building the body
// of an enclosing loop.
type loopCtx struct {
	breakTo    *Block
	continueTo *Block
}

// Build constructs the CFG for a function body. Unterminated blocks (a
// fallthrough path with no explicit return) are wired to the synthetic
// Exit block, matching the implicit-void-return rule.
func Build(body *ast.BlockStmt) *Graph {
	g := &Graph{}
	g.Entry = g.newBlock("entry")
	g.Exit = g.newBlock("exit")

	cur := g.Entry
	cur = buildBlock(g, cur, body, nil)
	if cur != nil {
		cur.addSucc(g.Exit)
	}
	return g
}

// buildBlock appends stmts into cur, branching into new blocks as control
// structures require, and returns the block execution falls through into
// after the statement list (nil if every path already terminated).
func buildBlock(g *Graph, cur *Block, block *ast.BlockStmt, lc *loopCtx) *Block {
	for _, stmt := range block.Stmts {
		if cur == nil {
			// Unreachable statement (W004 territory); still walked so
			// nested declarations/CFG shape stay well-formed, but it
			// never joins the live graph.
			cur = g.newBlock("unreachable")
		}
		cur = buildStmt(g, cur, stmt, lc)
	}
	return cur
}

func buildStmt(g *Graph, cur *Block, stmt ast.Stmt, lc *loopCtx) *Block {
	switch s := stmt.(type) {
	case *ast.IfStmt:
		cur.Stmts = append(cur.Stmts, stmt)
		thenB := g.newBlock("then")
		cur.addSucc(thenB)
		thenEnd := buildBlock(g, thenB, s.Then, lc)

		var elseEnd *Block
		var elseB *Block
		if s.Else != nil {
			elseB = g.newBlock("else")
			cur.addSucc(elseB)
			switch e := s.Else.(type) {
			case *ast.BlockStmt:
				elseEnd = buildBlock(g, elseB, e, lc)
			default:
				elseEnd = buildStmt(g, elseB, e, lc)
			}
		}

		join := g.newBlock("join")
		if thenEnd != nil {
			thenEnd.addSucc(join)
		}
		if s.Else != nil {
			if elseEnd != nil {
				elseEnd.addSucc(join)
			}
		} else {
			cur.addSucc(join)
		}
		return join

	case *ast.WhileStmt:
		cur.Stmts = append(cur.Stmts, stmt)
		header := g.newBlock("loop.header")
		cur.addSucc(header)
		bodyB := g.newBlock("loop.body")
		header.addSucc(bodyB)
		exit := g.newBlock("loop.exit")
		header.addSucc(exit)

		bodyEnd := buildBlock(g, bodyB, s.Body, &loopCtx{breakTo: exit, continueTo: header})
		if bodyEnd != nil {
			bodyEnd.addSucc(header)
		}
		return exit

	case *ast.DoWhileStmt:
		cur.Stmts = append(cur.Stmts, stmt)
		bodyB := g.newBlock("loop.body")
		cur.addSucc(bodyB)
		exit := g.newBlock("loop.exit")

		bodyEnd := buildBlock(g, bodyB, s.Body, &loopCtx{breakTo: exit, continueTo: bodyB})
		if bodyEnd != nil {
			bodyEnd.addSucc(bodyB) // back-edge: condition re-enters body
			bodyEnd.addSucc(exit)
		}
		return exit

	case *ast.ForStmt:
		cur.Stmts = append(cur.Stmts, stmt)
		header := g.newBlock("for.header")
		cur.addSucc(header)
		bodyB := g.newBlock("for.body")
		header.addSucc(bodyB)
		exit := g.newBlock("for.exit")
		header.addSucc(exit)

		bodyEnd := buildBlock(g, bodyB, s.Body, &loopCtx{breakTo: exit, continueTo: header})
		if bodyEnd != nil {
			bodyEnd.addSucc(header)
		}
		return exit

	case *ast.SwitchStmt:
		cur.Stmts = append(cur.Stmts, stmt)
		join := g.newBlock("switch.join")
		for i := range s.Cases {
			caseB := g.newBlock("case")
			cur.addSucc(caseB)
			caseEnd := caseB
			for _, cs := range s.Cases[i].Body {
				caseEnd = buildStmt(g, caseEnd, cs, lc)
				if caseEnd == nil {
					break
				}
			}
			if caseEnd != nil {
				caseEnd.addSucc(join)
			}
		}
		if s.Default != nil {
			defB := g.newBlock("default")
			cur.addSucc(defB)
			defEnd := defB
			for _, ds := range s.Default {
				defEnd = buildStmt(g, defEnd, ds, lc)
				if defEnd == nil {
					break
				}
			}
			if defEnd != nil {
				defEnd.addSucc(join)
			}
		} else {
			cur.addSucc(join)
		}
		return join

	case *ast.BreakStmt:
		cur.Stmts = append(cur.Stmts, stmt)
		if lc != nil {
			cur.addSucc(lc.breakTo)
		}
		return nil

	case *ast.ContinueStmt:
		cur.Stmts = append(cur.Stmts, stmt)
		if lc != nil {
			cur.addSucc(lc.continueTo)
		}
		return nil

	case *ast.ReturnStmt:
		cur.Stmts = append(cur.Stmts, stmt)
		return nil

	case *ast.BlockStmt:
		return buildBlock(g, cur, s, lc)

	default:
		cur.Stmts = append(cur.Stmts, stmt)
		return cur
	}
}

// Dominators computes the dominator-set map via the standard iterative
// data-flow fixpoint (Cooper/Harvey/Kennedy), keyed by block ID. Reachable
// block order is used for iteration so results are deterministic.
func Dominators(g *Graph) map[int]map[int]bool {
	order := reachablePostorder(g)
	idom := make(map[int]int, len(order))
	idom[g.Entry.ID] = g.Entry.ID

	rpo := make([]*Block, len(order))
	copy(rpo, order)
	reverse(rpo)

	rpoIndex := map[int]int{}
	for i, b := range rpo {
		rpoIndex[b.ID] = i
	}

	changed := true
	for changed {
		changed = false
		for _, b := range rpo {
			if b.ID == g.Entry.ID {
				continue
			}
			newIdom := -1
			for _, p := range b.Preds {
				if _, ok := idom[p.ID]; !ok {
					continue
				}
				if newIdom == -1 {
					newIdom = p.ID
					continue
				}
				newIdom = intersect(newIdom, p.ID, idom, rpoIndex)
			}
			if newIdom == -1 {
				continue
			}
			if cur, ok := idom[b.ID]; !ok || cur != newIdom {
				idom[b.ID] = newIdom
				changed = true
			}
		}
	}

	doms := map[int]map[int]bool{}
	for _, b := range order {
		set := map[int]bool{}
		n := b.ID
		set[n] = true
		for n != g.Entry.ID {
			n = idom[n]
			set[n] = true
		}
		doms[b.ID] = set
	}
	return doms
}

func intersect(a, b int, idom map[int]int, rpoIndex map[int]int) int {
	for a != b {
		for rpoIndex[a] > rpoIndex[b] {
			a = idom[a]
		}
		for rpoIndex[b] > rpoIndex[a] {
			b = idom[b]
		}
	}
	return a
}

func reachablePostorder(g *Graph) []*Block {
	visited := map[int]bool{}
	var order []*Block
	var visit func(b *Block)
	visit = func(b *Block) {
		if visited[b.ID] {
			return
		}
		visited[b.ID] = true
		for _, s := range b.Succs {
			visit(s)
		}
		order = append(order, b)
	}
	visit(g.Entry)
	return order
}

func reverse(bs []*Block) {
	for i, j := 0, len(bs)-1; i < j; i, j = i+1, j-1 {
		bs[i], bs[j] = bs[j], bs[i]
	}
}

// ImmediateDominators reduces Dominators' sets to each block's single
// immediate dominator (its strict dominator closest in the tree).
func ImmediateDominators(g *Graph, doms map[int]map[int]bool) map[int]int {
	idom := map[int]int{}
	for _, b := range g.Blocks {
		set := doms[b.ID]
		if set == nil {
			continue
		}
		best := -1
		bestSize := -1
		for d := range set {
			if d == b.ID {
				continue
			}
			size := len(doms[d])
			if size > bestSize {
				bestSize = size
				best = d
			}
		}
		if best != -1 {
			idom[b.ID] = best
		}
	}
	return idom
}

// DominanceFrontiers computes the dominance-frontier set of every block
// (Cytron et al.) over the AST-level graph. pkg/ssa computes its own
// frontiers over IL blocks for φ-placement.
func DominanceFrontiers(g *Graph, idom map[int]int) map[int]map[int]bool {
	df := map[int]map[int]bool{}
	for _, b := range g.Blocks {
		df[b.ID] = map[int]bool{}
	}
	for _, b := range g.Blocks {
		if len(b.Preds) < 2 {
			continue
		}
		for _, p := range b.Preds {
			runner := p.ID
			for runner != idom[b.ID] {
				df[runner][b.ID] = true
				next, ok := idom[runner]
				if !ok {
					break
				}
				runner = next
			}
		}
	}
	return df
}

// Loop is one natural loop: its header and the set of blocks inside it.
type Loop struct {
	Header *Block
	Body   map[int]*Block
}

// NaturalLoops finds every back edge (n -> header where header dominates n)
// and computes the corresponding natural loop body by walking predecessors
// backward from n until header is reached.
func NaturalLoops(g *Graph, doms map[int]map[int]bool) []Loop {
	var loops []Loop
	for _, b := range g.Blocks {
		for _, succ := range b.Succs {
			if doms[b.ID][succ.ID] {
				loops = append(loops, buildLoop(succ, b))
			}
		}
	}
	sort.Slice(loops, func(i, j int) bool { return loops[i].Header.ID < loops[j].Header.ID })
	return loops
}

func buildLoop(header, latch *Block) Loop {
	body := map[int]*Block{header.ID: header}
	stack := []*Block{latch}
	body[latch.ID] = latch
	for len(stack) > 0 {
		n := len(stack) - 1
		b := stack[n]
		stack = stack[:n]
		for _, p := range b.Preds {
			if _, in := body[p.ID]; !in {
				body[p.ID] = p
				stack = append(stack, p)
			}
		}
	}
	return Loop{Header: header, Body: body}
}
