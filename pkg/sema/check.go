package sema

import (
	"fmt"

	"github.com/blendsdk/blend65/pkg/ast"
	"github.com/blendsdk/blend65/pkg/symbols"
	"github.com/blendsdk/blend65/pkg/types"
)

// ---- Pass 3: type checker ----
//
// Computes and checks the type of every expression (recorded on the node's
// metadata under "type"), validates initializer/assignment compatibility,
// and validates break/continue placement and return-type agreement.

// flowCtx tracks the state a statement needs to validate control flow:
// how deep inside a loop/switch it is, and the enclosing function's
// declared return type.
type flowCtx struct {
	loopDepth   int
	switchDepth int
	returnType  *types.Type
}

func (a *analyzer) checkTypes() {
	for _, d := range a.prog.Decls {
		switch n := d.(type) {
		case *ast.VariableDecl:
			a.checkVariableInit(a.table.Root(), n)
		case *ast.FunctionDecl:
			a.checkFunction(n)
		}
	}
}

func (a *analyzer) checkVariableInit(scope *symbols.Scope, n *ast.VariableDecl) {
	if n.Init == nil {
		return
	}
	sym, ok := scope.LookupLocal(n.Name)
	if !ok || sym.Type == nil {
		return
	}
	srcType := a.typeOfExpr(scope, n.Init)
	switch types.Assignability(sym.Type, srcType) {
	case types.Identical, types.Assignable:
		// ok
	default:
		a.bus.Errorf("S002", n.Init.Range(), fmt.Sprintf("cannot initialize %s of type %s with value of type %s", n.Name, sym.Type, srcType))
	}
}

func (a *analyzer) checkFunction(n *ast.FunctionDecl) {
	fnType := a.funcTypes[n.Name]
	var retType *types.Type
	if fnType != nil {
		retType = fnType.Return
	}
	if n.Body != nil {
		a.checkBlock(n.Body, &flowCtx{returnType: retType})
	}
}

func (a *analyzer) checkBlock(b *ast.BlockStmt, fc *flowCtx) {
	blk := a.scopes[b]
	if blk == nil {
		return
	}
	for _, stmt := range b.Stmts {
		a.checkStmt(blk, stmt, fc)
	}
}

func (a *analyzer) checkStmt(scope *symbols.Scope, stmt ast.Stmt, fc *flowCtx) {
	switch s := stmt.(type) {
	case *ast.DeclStmt:
		a.checkVariableInit(scope, s.Decl)

	case *ast.ExprStmt:
		a.typeOfExpr(scope, s.X)

	case *ast.BlockStmt:
		a.checkBlock(s, fc)

	case *ast.IfStmt:
		a.typeOfExpr(scope, s.Cond)
		a.checkBlock(s.Then, fc)
		if s.Else != nil {
			switch e := s.Else.(type) {
			case *ast.BlockStmt:
				a.checkBlock(e, fc)
			default:
				a.checkStmt(scope, e, fc)
			}
		}

	case *ast.WhileStmt:
		a.typeOfExpr(scope, s.Cond)
		inner := *fc
		inner.loopDepth++
		a.checkBlock(s.Body, &inner)

	case *ast.DoWhileStmt:
		inner := *fc
		inner.loopDepth++
		a.checkBlock(s.Body, &inner)
		a.typeOfExpr(scope, s.Cond)

	case *ast.ForStmt:
		loopScope := a.scopes[s]
		if loopScope == nil {
			loopScope = scope
		}
		a.typeOfExpr(loopScope, s.Start)
		a.typeOfExpr(loopScope, s.End)
		if s.Step != nil {
			a.typeOfExpr(loopScope, s.Step)
		}
		inner := *fc
		inner.loopDepth++
		for _, st := range s.Body.Stmts {
			a.checkStmt(loopScope, st, &inner)
		}

	case *ast.SwitchStmt:
		a.typeOfExpr(scope, s.Tag)
		inner := *fc
		inner.switchDepth++
		for _, c := range s.Cases {
			if c.Value != nil {
				a.typeOfExpr(scope, c.Value)
			}
			for _, cs := range c.Body {
				a.checkStmt(scope, cs, &inner)
			}
		}
		for _, ds := range s.Default {
			a.checkStmt(scope, ds, &inner)
		}

	case *ast.BreakStmt:
		if fc.loopDepth == 0 && fc.switchDepth == 0 {
			a.bus.Errorf("S009", s.Range(), "break outside of a loop or switch")
		}

	case *ast.ContinueStmt:
		if fc.loopDepth == 0 {
			a.bus.Errorf("S009", s.Range(), "continue outside of a loop")
		}

	case *ast.ReturnStmt:
		if s.Value == nil {
			if fc.returnType != nil && types.Resolved(fc.returnType).Kind != types.Void {
				a.bus.Errorf("S001", s.Range(), fmt.Sprintf("missing return value of type %s", fc.returnType))
			}
			return
		}
		got := a.typeOfExpr(scope, s.Value)
		if fc.returnType == nil {
			return
		}
		switch types.Assignability(fc.returnType, got) {
		case types.Identical, types.Assignable:
		default:
			a.bus.Errorf("S001", s.Value.Range(), fmt.Sprintf("return type mismatch: expected %s, got %s", fc.returnType, got))
		}
	}
}

// typeOfExpr computes, annotates, and returns e's resolved type.
func (a *analyzer) typeOfExpr(scope *symbols.Scope, e ast.Expr) *types.Type {
	if e == nil {
		return types.TVoid
	}
	t := a.computeType(scope, e)
	ast.SetMeta(e, "type", t)
	return t
}

func (a *analyzer) computeType(scope *symbols.Scope, e ast.Expr) *types.Type {
	switch n := e.(type) {
	case *ast.LiteralExpr:
		switch n.LitKind {
		case ast.LitNumber:
			if n.Number <= 0xFF {
				return types.TByte
			}
			if n.Number <= 0xFFFF {
				return types.TWord
			}
			a.bus.Errorf("S001", n.Range(), fmt.Sprintf("numeric literal %d exceeds word range", n.Number))
			return types.TWord
		case ast.LitBoolean:
			return types.TBool
		case ast.LitString:
			return types.NewArray(types.TByte, len(n.Str))
		case ast.LitArray:
			var elem *types.Type = types.TByte
			for i, el := range n.Elems {
				t := a.typeOfExpr(scope, el)
				if i == 0 {
					elem = t
				}
			}
			return types.NewArray(elem, len(n.Elems))
		}
		return types.TVoid

	case *ast.IdentExpr:
		sym, ok := scope.Lookup(n.Name)
		if !ok {
			a.bus.Errorf("S006", n.Range(), "unknown identifier "+n.Name)
			return types.TVoid
		}
		if sym.Type == nil {
			return types.TVoid
		}
		return sym.Type

	case *ast.BinaryExpr:
		lt := a.typeOfExpr(scope, n.Left)
		rt := a.typeOfExpr(scope, n.Right)
		return binaryResultType(n.Op, lt, rt)

	case *ast.UnaryExpr:
		xt := a.typeOfExpr(scope, n.X)
		if n.Op == ast.OpNot {
			return types.TBool
		}
		return xt

	case *ast.TernaryExpr:
		a.typeOfExpr(scope, n.Cond)
		tt := a.typeOfExpr(scope, n.Then)
		et := a.typeOfExpr(scope, n.Else)
		if types.Equal(tt, et) {
			return tt
		}
		return types.TWord

	case *ast.CallExpr:
		for _, arg := range n.Args {
			a.typeOfExpr(scope, arg)
		}
		if callee, ok := n.Callee.(*ast.IdentExpr); ok {
			if t, ok := intrinsicReturnType(callee.Name); ok {
				return t
			}
			if sym, ok := scope.Lookup(callee.Name); ok && sym.Type != nil && sym.Type.Kind == types.Function {
				return sym.Type.Return
			}
		}
		return types.TVoid

	case *ast.IndexExpr:
		xt := a.typeOfExpr(scope, n.X)
		a.typeOfExpr(scope, n.Index)
		rx := types.Resolved(xt)
		if rx != nil && rx.Kind == types.Array {
			return rx.Elem
		}
		return types.TByte

	case *ast.MemberExpr:
		a.typeOfExpr(scope, n.X)
		return types.TByte

	case *ast.AssignExpr:
		targetType := a.typeOfExpr(scope, n.Target)
		valType := a.typeOfExpr(scope, n.Value)
		switch types.Assignability(targetType, valType) {
		case types.Identical, types.Assignable:
		default:
			a.bus.Errorf("S001", n.Range(), fmt.Sprintf("cannot assign value of type %s to target of type %s", valType, targetType))
		}
		return targetType
	}
	return types.TVoid
}

func binaryResultType(op ast.BinaryOp, l, r *types.Type) *types.Type {
	switch op {
	case ast.OpEq, ast.OpNe, ast.OpLt, ast.OpLe, ast.OpGt, ast.OpGe, ast.OpLogicalAnd, ast.OpLogicalOr:
		return types.TBool
	default:
		rl, rr := types.Resolved(l), types.Resolved(r)
		if rl != nil && rr != nil && (rl.Kind == types.Word || rr.Kind == types.Word) {
			return types.TWord
		}
		return types.TByte
	}
}

// intrinsicReturnType gives the result type of each built-in intrinsic,
// for use before ilgen lowers the call into its dedicated opcode.
func intrinsicReturnType(name string) (*types.Type, bool) {
	switch name {
	case "peek", "lo", "hi":
		return types.TByte, true
	case "peekw", "length":
		return types.TWord, true
	case "poke", "pokew":
		return types.TVoid, true
	default:
		return nil, false
	}
}
