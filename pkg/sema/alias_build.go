package sema

import (
	"github.com/blendsdk/blend65/pkg/alias"
	"github.com/blendsdk/blend65/pkg/ast"
	"github.com/blendsdk/blend65/pkg/diag"
	"github.com/blendsdk/blend65/pkg/symbols"
)

// buildAlias declares one alias.Node per declared variable (region derived
// from its storage class) and collects copy constraints from simple
// `x = y` assignments and initializers. The language has no
// surface address-of operator, so every fixed-address ("@map") node's
// points-to identity is its own name: taking such a variable's value
// already denotes "the hardware register at this address," which is all
// the non-alias queries below need.
func buildAlias(prog *ast.Program, table *symbols.Table, bus *diag.Bus) *alias.Analysis {
	a := alias.New()

	var declare func(n *ast.VariableDecl)
	declare = func(n *ast.VariableDecl) {
		node := alias.Node{Name: n.Name, Decl: n.Range(), Region: regionOf(n.Storage)}
		if n.Storage == ast.StorageMap && n.HasFixedAddr {
			node.FixedAddr = n.FixedAddr
			node.HasFixedAddr = true
		}
		a.Declare(node)
		if id, ok := n.Init.(*ast.IdentExpr); ok {
			a.Copy(n.Name, id.Name)
		}
	}

	var walkStmt func(s ast.Stmt)
	walkStmt = func(s ast.Stmt) {
		switch n := s.(type) {
		case *ast.DeclStmt:
			declare(n.Decl)
		case *ast.BlockStmt:
			for _, st := range n.Stmts {
				walkStmt(st)
			}
		case *ast.IfStmt:
			walkStmt(n.Then)
			if n.Else != nil {
				walkStmt(n.Else)
			}
		case *ast.WhileStmt:
			walkStmt(n.Body)
		case *ast.DoWhileStmt:
			walkStmt(n.Body)
		case *ast.ForStmt:
			for _, st := range n.Body.Stmts {
				walkStmt(st)
			}
		case *ast.SwitchStmt:
			for _, c := range n.Cases {
				for _, cs := range c.Body {
					walkStmt(cs)
				}
			}
			for _, ds := range n.Default {
				walkStmt(ds)
			}
		case *ast.ExprStmt:
			if assign, ok := n.X.(*ast.AssignExpr); ok {
				recordAssignConstraint(a, assign)
			}
		}
	}

	for _, d := range prog.Decls {
		switch n := d.(type) {
		case *ast.VariableDecl:
			declare(n)
		case *ast.FunctionDecl:
			for _, p := range n.Params {
				a.Declare(alias.Node{Name: p.Name, Decl: p.Range(), Region: alias.RegionStack})
			}
			if n.Body != nil {
				for _, st := range n.Body.Stmts {
					walkStmt(st)
				}
			}
		}
	}

	a.Solve()
	CheckSelfModifyingCodeDefault(a, bus)
	return a
}

func regionOf(s ast.StorageClass) alias.Region {
	switch s {
	case ast.StorageZP:
		return alias.RegionZeroPage
	case ast.StorageData:
		return alias.RegionData
	case ast.StorageMap:
		return alias.RegionHardware
	default:
		return alias.RegionRAM
	}
}

func recordAssignConstraint(a *alias.Analysis, assign *ast.AssignExpr) {
	target, ok := assign.Target.(*ast.IdentExpr)
	if !ok {
		return
	}
	if src, ok := assign.Value.(*ast.IdentExpr); ok {
		a.Copy(target.Name, src.Name)
	}
}

// CheckSelfModifyingCodeDefault runs the self-modifying-code check against
// the conventional C64 BASIC-stub program range ($0801-$9FFF covers the
// typical load address through the end of BASIC RAM).
func CheckSelfModifyingCodeDefault(a *alias.Analysis, bus *diag.Bus) {
	alias.CheckSelfModifyingCode(a, 0x0801, 0x9FFF, bus)
}
