package sema

import (
	"github.com/blendsdk/blend65/pkg/ast"
	"github.com/blendsdk/blend65/pkg/symbols"
	"github.com/blendsdk/blend65/pkg/types"
)

// ---- Pass 2: type resolver ----
//
// Revisits the exact *symbols.Scope instances pass 1 created (via
// a.scopes) so each declaration's symbol can be found with LookupLocal and
// given its resolved type.

func (a *analyzer) resolveTypes() {
	for _, d := range a.prog.Decls {
		switch n := d.(type) {
		case *ast.VariableDecl:
			a.resolveVariable(a.table.Root(), n)
		case *ast.FunctionDecl:
			a.resolveFunction(n)
		case *ast.TypeAliasDecl:
			underlying := a.resolveTypeRef(a.table.Root(), n.Type)
			if sym, ok := a.table.Root().LookupLocal(n.Name); ok {
				sym.Type = types.NewAlias(n.Name, underlying)
			}
		case *ast.EnumDecl:
			et := types.NewEnum(n.Name)
			if sym, ok := a.table.Root().LookupLocal(n.Name); ok {
				sym.Type = et
			}
			for _, m := range n.Members {
				if sym, ok := a.table.Root().LookupLocal(m.Name); ok {
					sym.Type = et
				}
			}
		}
	}
}

func (a *analyzer) resolveVariable(scope *symbols.Scope, n *ast.VariableDecl) {
	sym, ok := scope.LookupLocal(n.Name)
	if !ok {
		return
	}
	sym.Type = a.resolveTypeRef(scope, n.Type)
}

func (a *analyzer) resolveFunction(n *ast.FunctionDecl) {
	fnScope := a.scopes[n]
	if fnScope == nil {
		return
	}

	var paramTypes []*types.Type
	for _, p := range n.Params {
		pt := a.resolveTypeRef(fnScope, p.Type)
		paramTypes = append(paramTypes, pt)
		if sym, ok := fnScope.LookupLocal(p.Name); ok {
			sym.Type = pt
		}
	}
	retType := a.resolveTypeRef(fnScope, n.Return)
	fnType := types.NewFunction(paramTypes, retType)
	a.funcTypes[n.Name] = fnType
	if sym, ok := a.table.Root().LookupLocal(n.Name); ok {
		sym.Type = fnType
	}

	if n.Body != nil {
		a.resolveBlockScope(n.Body)
	}
}

func (a *analyzer) resolveBlockScope(b *ast.BlockStmt) {
	blk := a.scopes[b]
	if blk == nil {
		return
	}
	for _, stmt := range b.Stmts {
		a.resolveStmtScope(blk, stmt)
	}
}

func (a *analyzer) resolveStmtScope(scope *symbols.Scope, stmt ast.Stmt) {
	switch s := stmt.(type) {
	case *ast.DeclStmt:
		a.resolveVariable(scope, s.Decl)
	case *ast.BlockStmt:
		a.resolveBlockScope(s)
	case *ast.IfStmt:
		a.resolveBlockScope(s.Then)
		if s.Else != nil {
			switch e := s.Else.(type) {
			case *ast.BlockStmt:
				a.resolveBlockScope(e)
			default:
				a.resolveStmtScope(scope, e)
			}
		}
	case *ast.WhileStmt:
		a.resolveBlockScope(s.Body)
	case *ast.DoWhileStmt:
		a.resolveBlockScope(s.Body)
	case *ast.ForStmt:
		loopScope := a.scopes[s]
		if loopScope == nil {
			return
		}
		if sym, ok := loopScope.LookupLocal(s.Var); ok {
			sym.Type = types.TByte
		}
		for _, st := range s.Body.Stmts {
			a.resolveStmtScope(loopScope, st)
		}
	case *ast.SwitchStmt:
		for _, c := range s.Cases {
			for _, cs := range c.Body {
				a.resolveStmtScope(scope, cs)
			}
		}
		for _, ds := range s.Default {
			a.resolveStmtScope(scope, ds)
		}
	}
}

// resolveTypeRef turns a syntactic annotation into a resolved *types.Type,
// emitting S006 for an unknown name and S008 for a non-positive-literal
// array length. A nil ref (bare `void` return, e.g.) resolves to TVoid.
func (a *analyzer) resolveTypeRef(scope *symbols.Scope, ref *ast.TypeRef) *types.Type {
	if ref == nil {
		return types.TVoid
	}
	var base *types.Type
	switch ref.Name {
	case "void":
		base = types.TVoid
	case "bool":
		base = types.TBool
	case "byte":
		base = types.TByte
	case "word":
		base = types.TWord
	case "callback":
		params := make([]*types.Type, len(ref.Params))
		for i, p := range ref.Params {
			params[i] = a.resolveTypeRef(scope, p)
		}
		base = types.NewFunction(params, a.resolveTypeRef(scope, ref.CBReturn))
	default:
		sym, ok := scope.Lookup(ref.Name)
		if !ok {
			a.bus.Errorf("S006", ref.Range(), "unknown type "+ref.Name)
			base = types.TVoid
		} else if sym.Type != nil {
			base = sym.Type
		} else {
			base = types.TVoid
		}
	}

	if ref.ArrayLen != nil {
		n, ok := constIntLiteral(ref.ArrayLen)
		if !ok || n <= 0 {
			a.bus.Errorf("S008", ref.ArrayLen.Range(), "array length must be a positive integer literal")
			n = 1
		}
		base = types.NewArray(base, n)
	}
	for i := 0; i < ref.PointerDeep; i++ {
		base = types.NewPointer(base)
	}
	return base
}

func constIntLiteral(e ast.Expr) (int, bool) {
	lit, ok := e.(*ast.LiteralExpr)
	if !ok || lit.LitKind != ast.LitNumber {
		return 0, false
	}
	return int(lit.Number), true
}
