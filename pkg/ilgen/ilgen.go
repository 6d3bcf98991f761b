// Package ilgen lowers a checked AST (the sema package's output) into the
// IL's SSA form. It mirrors pkg/sema's own traversal: each
// scope-introducing node is looked up in sema.Result.Scopes rather than
// re-resolved, so a lowered LOAD_VAR/STORE_VAR always targets the same
// symbol sema's type checker already validated against.
package ilgen

import (
	"strconv"

	"github.com/blendsdk/blend65/pkg/ast"
	"github.com/blendsdk/blend65/pkg/diag"
	"github.com/blendsdk/blend65/pkg/il"
	"github.com/blendsdk/blend65/pkg/sema"
	"github.com/blendsdk/blend65/pkg/ssa"
	"github.com/blendsdk/blend65/pkg/symbols"
	"github.com/blendsdk/blend65/pkg/types"
)

// Generator lowers one module's Program into an il.Module, reporting
// compiler-internal issues (never user errors — those are sema's job) onto
// bus.
type Generator struct {
	res *sema.Result
	bus *diag.Bus
}

// Generate lowers prog (whose res.Success must already be true — ilgen is
// never run over a program with unresolved errors, per the phase-gating
// rule) into a fresh IL module named after prog's module declaration.
func Generate(prog *ast.Program, res *sema.Result) *il.Module {
	g := &Generator{res: res, bus: res.Bus}
	name := ""
	if prog.Module != nil {
		name = prog.Module.Name
	}
	mod := &il.Module{Name: name}

	for _, d := range prog.Decls {
		switch n := d.(type) {
		case *ast.ImportDecl:
			mod.Imports = append(mod.Imports, il.Import{Module: n.From, Symbol: n.Symbol})
		case *ast.VariableDecl:
			mod.Globals = append(mod.Globals, g.genGlobal(n))
			if n.Exported {
				mod.Exports = append(mod.Exports, n.Name)
			}
		case *ast.FunctionDecl:
			mod.Functions = append(mod.Functions, g.genFunction(n))
			if n.Exported {
				mod.Exports = append(mod.Exports, n.Name)
			}
		case *ast.EnumDecl:
			if n.Exported {
				mod.Exports = append(mod.Exports, n.Name)
			}
		}
	}
	return mod
}

func (g *Generator) genGlobal(n *ast.VariableDecl) il.Global {
	sym, ok := g.res.Table.Root().LookupLocal(n.Name)
	var t *types.Type = types.TByte
	if ok && sym.Type != nil {
		t = sym.Type
	}
	gl := il.Global{Name: n.Name, Type: t, Exported: n.Exported}
	if n.Init != nil {
		if v, ok := constEval(g.res.Table.Root(), n.Init); ok {
			gl.Init = &v
		}
	}
	return gl
}

// varKey builds the shadow-safe STORE_VAR/LOAD_VAR key for sym: its source
// name is not unique across nested scopes on its own (block/loop scoping
// permits shadowing), so the key is qualified by the declaring scope's id.
func varKey(sym *symbols.Symbol) string {
	if sym.Scope == nil {
		return sym.Name
	}
	return sym.Name + "#" + strconv.Itoa(sym.Scope.ID)
}

// funcGen carries the per-function lowering state: the builder writing into
// fn, and the Generator it was spawned from (for bus/res access).
type funcGen struct {
	g  *Generator
	fn *il.Function
	b  *il.Builder
}

// ctx is the statement-lowering context threaded down through nested
// blocks: the live scope (for identifier resolution) and the innermost
// loop's break/continue targets.
type ctx struct {
	scope      *symbols.Scope
	breakTo    []*il.BasicBlock
	continueTo []*il.BasicBlock
	returnType *types.Type
}

func (fg *funcGen) pushLoop(c ctx, brk, cont *il.BasicBlock) ctx {
	nc := c
	nc.breakTo = append(append([]*il.BasicBlock{}, c.breakTo...), brk)
	nc.continueTo = append(append([]*il.BasicBlock{}, c.continueTo...), cont)
	return nc
}

func (fg *funcGen) pushSwitch(c ctx, brk *il.BasicBlock) ctx {
	nc := c
	nc.breakTo = append(append([]*il.BasicBlock{}, c.breakTo...), brk)
	return nc
}

func label(prefix string, n int) string {
	return prefix + "_" + strconv.Itoa(n)
}

// genFunction lowers one function declaration to IL and runs SSA
// construction over it.
func (g *Generator) genFunction(n *ast.FunctionDecl) *il.Function {
	fnType := g.res.FuncTypes[n.Name]
	ret := types.TVoid
	var paramTypes []*types.Type
	if fnType != nil {
		ret = fnType.Return
		paramTypes = fnType.Params
	}
	params := make([]il.Param, len(n.Params))
	for i, p := range n.Params {
		pt := types.TByte
		if i < len(paramTypes) {
			pt = paramTypes[i]
		}
		params[i] = il.Param{Name: p.Name, Type: pt}
	}
	fn := &il.Function{Name: n.Name, Params: params, Return: ret}
	if n.Body == nil {
		return fn
	}

	b := il.NewBuilder(fn)
	b.Block("entry")
	fg := &funcGen{g: g, fn: fn, b: b}

	fnScope := g.res.Scopes[n]
	if fnScope == nil {
		fnScope = g.res.Table.Root()
	}
	for i, p := range n.Params {
		psym, ok := fnScope.LookupLocal(p.Name)
		v := b.Param(params[i].Type)
		if ok {
			b.StoreVar(varKey(psym), v, params[i].Type)
		}
	}

	bodyScope := g.res.Scopes[n.Body]
	if bodyScope == nil {
		bodyScope = fnScope
	}
	fg.genBlock(ctx{scope: bodyScope, returnType: ret}, n.Body.Stmts)

	if !b.Current().Terminated() {
		if types.Resolved(ret).Kind == types.Void {
			b.ReturnVoid()
		} else {
			// Control fell off the end of a non-void function without an
			// explicit return. sema only validates the type of each
			// explicit return statement, so a missing
			// final return is not itself a reported diagnostic; this
			// zero-value RETURN keeps the IL well-formed rather than
			// leaving a dangling block.
			b.Return(il.ConstVal(0, ret))
		}
	}

	ssa.Construct(fn)
	return fn
}

func (fg *funcGen) genBlock(c ctx, stmts []ast.Stmt) {
	warned := false
	for _, s := range stmts {
		if fg.b.Current().Terminated() {
			if !warned {
				fg.g.bus.Warnf("W004", s.Range(), "unreachable code")
				warned = true
			}
			continue
		}
		fg.genStmt(c, s)
	}
}

// scopeOf returns the scope sema recorded for node, falling back to
// fallback when node introduced no scope of its own.
func (fg *funcGen) scopeOf(node ast.Node, fallback *symbols.Scope) *symbols.Scope {
	if s, ok := fg.g.res.Scopes[node]; ok && s != nil {
		return s
	}
	return fallback
}

// coerce inserts the implicit widening conversion Assignability allows
// (byte -> word zero-extend); all other compatible cases need no
// instruction.
func (fg *funcGen) coerce(v il.Value, target *types.Type) il.Value {
	if target == nil || v.Type == nil {
		return v
	}
	rt, rv := types.Resolved(target), types.Resolved(v.Type)
	if rt != nil && rv != nil && rt.Kind == types.Word && rv.Kind == types.Byte {
		return fg.b.Emit(il.OpZeroExtend, target, v)
	}
	return v
}
