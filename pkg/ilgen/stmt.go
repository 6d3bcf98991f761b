package ilgen

import (
	"github.com/blendsdk/blend65/pkg/ast"
	"github.com/blendsdk/blend65/pkg/il"
	"github.com/blendsdk/blend65/pkg/types"
)

func (fg *funcGen) genStmt(c ctx, stmt ast.Stmt) {
	switch s := stmt.(type) {
	case *ast.DeclStmt:
		fg.genDecl(c, s.Decl)

	case *ast.ExprStmt:
		fg.genExpr(c, s.X)

	case *ast.BlockStmt:
		nested := c
		nested.scope = fg.scopeOf(s, c.scope)
		fg.genBlock(nested, s.Stmts)

	case *ast.IfStmt:
		fg.genIf(c, s)

	case *ast.WhileStmt:
		fg.genWhile(c, s)

	case *ast.ForStmt:
		fg.genFor(c, s)

	case *ast.DoWhileStmt:
		fg.genDoWhile(c, s)

	case *ast.SwitchStmt:
		fg.genSwitch(c, s)

	case *ast.BreakStmt:
		if len(c.breakTo) > 0 {
			fg.b.Jump(c.breakTo[len(c.breakTo)-1])
		}

	case *ast.ContinueStmt:
		if len(c.continueTo) > 0 {
			fg.b.Jump(c.continueTo[len(c.continueTo)-1])
		}

	case *ast.ReturnStmt:
		if s.Value == nil {
			fg.b.ReturnVoid()
			return
		}
		v := fg.genExpr(c, s.Value)
		fg.b.Return(fg.coerce(v, c.returnType))

	case *ast.MatchStmt:
		// Reserved syntax: the parser never builds a MatchStmt, so
		// there is nothing to lower. A stray MatchStmt reaching ilgen is
		// unreachable in a program that came through the parser.
	}
}

func (fg *funcGen) genDecl(c ctx, n *ast.VariableDecl) {
	sym, ok := c.scope.LookupLocal(n.Name)
	if !ok {
		return
	}
	if n.Init == nil {
		return
	}
	v := fg.genExpr(c, n.Init)
	fg.b.StoreVar(varKey(sym), fg.coerce(v, sym.Type), sym.Type)
}

func (fg *funcGen) genIf(c ctx, s *ast.IfStmt) {
	cond := fg.genExpr(c, s.Cond)
	thenB := fg.b.NewBlock(label("if_then", fg.fn.NewLabelSuffix()))
	var elseB *il.BasicBlock
	if s.Else != nil {
		elseB = fg.b.NewBlock(label("if_else", fg.fn.NewLabelSuffix()))
	}
	mergeB := fg.b.NewBlock(label("if_merge", fg.fn.NewLabelSuffix()))

	if elseB != nil {
		fg.b.Branch(cond, thenB, elseB)
	} else {
		fg.b.Branch(cond, thenB, mergeB)
	}

	fg.b.SetBlock(thenB)
	thenScope := fg.scopeOf(s.Then, c.scope)
	thenCtx := c
	thenCtx.scope = thenScope
	fg.genBlock(thenCtx, s.Then.Stmts)
	if !fg.b.Current().Terminated() {
		fg.b.Jump(mergeB)
	}

	if elseB != nil {
		fg.b.SetBlock(elseB)
		switch e := s.Else.(type) {
		case *ast.BlockStmt:
			elseScope := fg.scopeOf(e, c.scope)
			elseCtx := c
			elseCtx.scope = elseScope
			fg.genBlock(elseCtx, e.Stmts)
		default:
			fg.genStmt(c, e)
		}
		if !fg.b.Current().Terminated() {
			fg.b.Jump(mergeB)
		}
	}

	fg.b.SetBlock(mergeB)
}

func (fg *funcGen) genWhile(c ctx, s *ast.WhileStmt) {
	n := fg.fn.NewLabelSuffix()
	header := fg.b.NewBlock(label("for_header", n))
	body := fg.b.NewBlock(label("for_body", n))
	exit := fg.b.NewBlock(label("for_exit", n))

	fg.b.Jump(header)

	fg.b.SetBlock(header)
	cond := fg.genExpr(c, s.Cond)
	fg.b.Branch(cond, body, exit)

	fg.b.SetBlock(body)
	bodyCtx := c
	bodyCtx.scope = fg.scopeOf(s.Body, c.scope)
	bodyCtx = fg.pushLoop(bodyCtx, exit, header)
	fg.genBlock(bodyCtx, s.Body.Stmts)
	if !fg.b.Current().Terminated() {
		fg.b.Jump(header)
	}

	fg.b.SetBlock(exit)
}

func (fg *funcGen) genFor(c ctx, s *ast.ForStmt) {
	n := fg.fn.NewLabelSuffix()
	initB := fg.b.NewBlock(label("for_init", n))
	header := fg.b.NewBlock(label("for_header", n))
	body := fg.b.NewBlock(label("for_body", n))
	incr := fg.b.NewBlock(label("for_incr", n))
	exit := fg.b.NewBlock(label("for_exit", n))

	fg.b.Jump(initB)

	loopScope := fg.scopeOf(s, c.scope)
	ivar, ok := loopScope.LookupLocal(s.Var)
	ivarType := types.TByte
	if ok && ivar.Type != nil {
		ivarType = ivar.Type
	}

	fg.b.SetBlock(initB)
	startV := fg.genExpr(c, s.Start)
	if ok {
		fg.b.StoreVar(varKey(ivar), fg.coerce(startV, ivarType), ivarType)
	}
	fg.b.Jump(header)

	loopCtx := c
	loopCtx.scope = loopScope

	fg.b.SetBlock(header)
	var cmp il.Value
	if ok {
		iv := fg.b.LoadVar(varKey(ivar), ivarType)
		endV := fg.genExpr(loopCtx, s.End)
		if s.Downto {
			cmp = fg.b.Emit(il.OpCmpGe, types.TBool, iv, endV)
		} else {
			cmp = fg.b.Emit(il.OpCmpLe, types.TBool, iv, endV)
		}
	} else {
		cmp = il.ConstVal(0, types.TBool)
	}
	fg.b.Branch(cmp, body, exit)

	fg.b.SetBlock(body)
	bodyCtx := fg.pushLoop(loopCtx, exit, incr)
	fg.genBlock(bodyCtx, s.Body.Stmts)
	if !fg.b.Current().Terminated() {
		fg.b.Jump(incr)
	}

	fg.b.SetBlock(incr)
	if ok {
		stepV := il.ConstVal(1, ivarType)
		if s.Step != nil {
			stepV = fg.genExpr(loopCtx, s.Step)
		}
		cur := fg.b.LoadVar(varKey(ivar), ivarType)
		var next il.Value
		if s.Downto {
			next = fg.b.Emit(il.OpSub, ivarType, cur, stepV)
		} else {
			next = fg.b.Emit(il.OpAdd, ivarType, cur, stepV)
		}
		fg.b.StoreVar(varKey(ivar), next, ivarType)
	}
	fg.b.Jump(header)

	fg.b.SetBlock(exit)
}

func (fg *funcGen) genDoWhile(c ctx, s *ast.DoWhileStmt) {
	n := fg.fn.NewLabelSuffix()
	body := fg.b.NewBlock(label("do_body", n))
	header := fg.b.NewBlock(label("do_header", n))
	exit := fg.b.NewBlock(label("do_exit", n))

	fg.b.Jump(body)

	fg.b.SetBlock(body)
	bodyCtx := c
	bodyCtx.scope = fg.scopeOf(s.Body, c.scope)
	bodyCtx = fg.pushLoop(bodyCtx, exit, header)
	fg.genBlock(bodyCtx, s.Body.Stmts)
	if !fg.b.Current().Terminated() {
		fg.b.Jump(header)
	}

	fg.b.SetBlock(header)
	cond := fg.genExpr(c, s.Cond)
	fg.b.Branch(cond, body, exit)

	fg.b.SetBlock(exit)
}

func (fg *funcGen) genSwitch(c ctx, s *ast.SwitchStmt) {
	tag := fg.genExpr(c, s.Tag)
	n := fg.fn.NewLabelSuffix()
	exit := fg.b.NewBlock(label("switch_exit", n))

	testB := fg.b.Current()
	switchCtx := fg.pushSwitch(c, exit)

	for i, cs := range s.Cases {
		caseBody := fg.b.NewBlock(label("switch_case", fg.fn.NewLabelSuffix()))
		var nextTest *il.BasicBlock
		if i < len(s.Cases)-1 || s.Default != nil {
			nextTest = fg.b.NewBlock(label("switch_test", fg.fn.NewLabelSuffix()))
		} else {
			nextTest = exit
		}

		fg.b.SetBlock(testB)
		val := fg.genExpr(c, cs.Value)
		cmp := fg.b.Emit(il.OpCmpEq, types.TBool, tag, val)
		fg.b.Branch(cmp, caseBody, nextTest)

		fg.b.SetBlock(caseBody)
		fg.genBlock(switchCtx, cs.Body)
		if !fg.b.Current().Terminated() {
			fg.b.Jump(exit)
		}

		testB = nextTest
	}

	if s.Default != nil {
		fg.b.SetBlock(testB)
		fg.genBlock(switchCtx, s.Default)
		if !fg.b.Current().Terminated() {
			fg.b.Jump(exit)
		}
	}

	fg.b.SetBlock(exit)
}
