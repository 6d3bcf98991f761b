package ilgen

import (
	"github.com/blendsdk/blend65/pkg/ast"
	"github.com/blendsdk/blend65/pkg/il"
	"github.com/blendsdk/blend65/pkg/symbols"
	"github.com/blendsdk/blend65/pkg/types"
)

// genExpr lowers e to the IL value computing it. Assignment targets are
// handled inline by
// AssignExpr; genExpr never mutates a variable on its own.
func (fg *funcGen) genExpr(c ctx, e ast.Expr) il.Value {
	switch n := e.(type) {
	case *ast.LiteralExpr:
		return fg.genLiteral(c, n)
	case *ast.IdentExpr:
		return fg.genIdent(c, n)
	case *ast.BinaryExpr:
		return fg.genBinary(c, n)
	case *ast.UnaryExpr:
		return fg.genUnary(c, n)
	case *ast.TernaryExpr:
		return fg.genTernary(c, n)
	case *ast.CallExpr:
		return fg.genCall(c, n)
	case *ast.IndexExpr:
		base := fg.genExpr(c, n.X)
		idx := fg.genExpr(c, n.Index)
		return fg.b.Emit(il.OpLoadArray, exprType(n, types.TByte), base, idx)
	case *ast.MemberExpr:
		base := fg.genExpr(c, n.X)
		return fg.b.Emit(il.OpLoadField, exprType(n, types.TByte), base, il.Label(n.Name))
	case *ast.AssignExpr:
		return fg.genAssign(c, n)
	}
	return il.Value{}
}

// exprType reads the type sema's checker annotated onto e, falling back to
// fallback when no annotation is present (hand-built test ASTs, mostly).
func exprType(e ast.Expr, fallback *types.Type) *types.Type {
	if v, ok := ast.GetMeta(e, "type"); ok {
		if t, ok := v.(*types.Type); ok && t != nil {
			return t
		}
	}
	return fallback
}

func (fg *funcGen) genLiteral(c ctx, n *ast.LiteralExpr) il.Value {
	switch n.LitKind {
	case ast.LitNumber:
		t := types.TByte
		if n.Number > 0xFF {
			t = types.TWord
		}
		return il.ConstVal(n.Number, t)
	case ast.LitBoolean:
		v := uint64(0)
		if n.Bool {
			v = 1
		}
		return il.ConstVal(v, types.TBool)
	case ast.LitString:
		return fg.emitConstBytes(types.NewArray(types.TByte, len(n.Str)), []byte(n.Str))
	case ast.LitArray:
		elemT := types.TByte
		vals := make([]il.Value, len(n.Elems))
		for i, el := range n.Elems {
			vals[i] = fg.genExpr(c, el)
			if i == 0 {
				elemT = vals[i].Type
			}
		}
		v := fg.b.Emit(il.OpConst, types.NewArray(elemT, len(n.Elems)))
		fg.lastInstr().Meta = map[string]any{"elems": vals}
		return v
	}
	return il.Value{}
}

// emitConstBytes appends a CONST carrying a raw byte payload (a string
// literal's backing data) in its metadata, for the backend to place into
// the data region.
func (fg *funcGen) emitConstBytes(t *types.Type, bytes []byte) il.Value {
	v := fg.b.Emit(il.OpConst, t)
	fg.lastInstr().Meta = map[string]any{"bytes": bytes}
	return v
}

func (fg *funcGen) lastInstr() *il.Instruction {
	cur := fg.b.Current()
	return cur.Instrs[len(cur.Instrs)-1]
}

func (fg *funcGen) genIdent(c ctx, n *ast.IdentExpr) il.Value {
	sym, ok := c.scope.Lookup(n.Name)
	if !ok {
		return il.Value{}
	}
	if sym.Kind == symbols.KindEnumMember {
		return il.ConstVal(enumOrdinal(c.scope, sym), types.TByte)
	}
	if sym.Kind == symbols.KindVariable && sym.Const {
		if vd, ok := sym.Node.(*ast.VariableDecl); ok && vd.Init != nil {
			if v, ok2 := constEval(c.scope, vd.Init); ok2 {
				return v
			}
		}
	}
	t := sym.Type
	if t == nil {
		t = types.TByte
	}
	return fg.b.LoadVar(varKey(sym), t)
}

var binaryOpcode = map[ast.BinaryOp]il.Opcode{
	ast.OpAdd: il.OpAdd, ast.OpSub: il.OpSub, ast.OpMul: il.OpMul,
	ast.OpDiv: il.OpDiv, ast.OpMod: il.OpMod,
	ast.OpAnd: il.OpAnd, ast.OpOr: il.OpOr, ast.OpXor: il.OpXor,
	ast.OpShl: il.OpShl, ast.OpShr: il.OpShr,
	ast.OpEq: il.OpCmpEq, ast.OpNe: il.OpCmpNe,
	ast.OpLt: il.OpCmpLt, ast.OpLe: il.OpCmpLe,
	ast.OpGt: il.OpCmpGt, ast.OpGe: il.OpCmpGe,
}

func (fg *funcGen) genBinary(c ctx, n *ast.BinaryExpr) il.Value {
	if n.Op == ast.OpLogicalAnd || n.Op == ast.OpLogicalOr {
		return fg.genShortCircuit(c, n)
	}
	l := fg.genExpr(c, n.Left)
	r := fg.genExpr(c, n.Right)
	op := binaryOpcode[n.Op]
	return fg.b.Emit(op, exprType(n, resultTypeOf(op, l, r)), l, r)
}

func resultTypeOf(op il.Opcode, l, r il.Value) *types.Type {
	switch op {
	case il.OpCmpEq, il.OpCmpNe, il.OpCmpLt, il.OpCmpLe, il.OpCmpGt, il.OpCmpGe:
		return types.TBool
	}
	if types.Resolved(l.Type).Kind == types.Word || types.Resolved(r.Type).Kind == types.Word {
		return types.TWord
	}
	return types.TByte
}

// genShortCircuit lowers && and || to BRANCH-based control flow with a
// merge phi.
func (fg *funcGen) genShortCircuit(c ctx, n *ast.BinaryExpr) il.Value {
	lhs := fg.genExpr(c, n.Left)
	lhsBlock := fg.b.Current()

	suffix := fg.fn.NewLabelSuffix()
	rhsB := fg.b.NewBlock(label("land_rhs", suffix))
	mergeB := fg.b.NewBlock(label("land_merge", suffix))

	shortVal := il.ConstVal(0, types.TBool) // && short-circuits to false
	if n.Op == ast.OpLogicalOr {
		shortVal = il.ConstVal(1, types.TBool) // || short-circuits to true
	}

	if n.Op == ast.OpLogicalAnd {
		fg.b.Branch(lhs, rhsB, mergeB)
	} else {
		fg.b.Branch(lhs, mergeB, rhsB)
	}

	fg.b.SetBlock(rhsB)
	rhs := fg.genExpr(c, n.Right)
	rhsEnd := fg.b.Current()
	fg.b.Jump(mergeB)

	fg.b.SetBlock(mergeB)
	phiV, instr := fg.b.Phi(types.TBool, len(mergeB.Preds))
	setPhiFor(instr, mergeB, lhsBlock, shortVal)
	setPhiFor(instr, mergeB, rhsEnd, rhs)
	return phiV
}

func setPhiFor(instr *il.Instruction, block, pred *il.BasicBlock, v il.Value) {
	for i, p := range block.Preds {
		if p == pred {
			il.SetPhiOperand(instr, i, v)
			return
		}
	}
}

func (fg *funcGen) genUnary(c ctx, n *ast.UnaryExpr) il.Value {
	x := fg.genExpr(c, n.X)
	switch n.Op {
	case ast.OpNeg:
		return fg.b.Emit(il.OpNeg, x.Type, x)
	case ast.OpNot:
		return fg.b.Emit(il.OpNot, types.TBool, x)
	case ast.OpBitNot:
		return fg.b.Emit(il.OpBitNot, x.Type, x)
	}
	return x
}

func (fg *funcGen) genTernary(c ctx, n *ast.TernaryExpr) il.Value {
	cond := fg.genExpr(c, n.Cond)
	suffix := fg.fn.NewLabelSuffix()
	thenB := fg.b.NewBlock(label("ternary_then", suffix))
	elseB := fg.b.NewBlock(label("ternary_else", suffix))
	mergeB := fg.b.NewBlock(label("ternary_merge", suffix))

	fg.b.Branch(cond, thenB, elseB)

	fg.b.SetBlock(thenB)
	thenV := fg.genExpr(c, n.Then)
	thenEnd := fg.b.Current()
	fg.b.Jump(mergeB)

	fg.b.SetBlock(elseB)
	elseV := fg.genExpr(c, n.Else)
	elseEnd := fg.b.Current()
	fg.b.Jump(mergeB)

	fg.b.SetBlock(mergeB)
	resultT := exprType(n, thenV.Type)
	phiV, instr := fg.b.Phi(resultT, len(mergeB.Preds))
	setPhiFor(instr, mergeB, thenEnd, thenV)
	setPhiFor(instr, mergeB, elseEnd, elseV)
	return phiV
}

var intrinsicOpcode = map[string]il.Opcode{
	"peek": il.OpIntrinsicPeek, "poke": il.OpIntrinsicPoke,
	"peekw": il.OpIntrinsicPeekw, "pokew": il.OpIntrinsicPokew,
	"length": il.OpIntrinsicLength, "lo": il.OpIntrinsicLo, "hi": il.OpIntrinsicHi,
}

func (fg *funcGen) genCall(c ctx, n *ast.CallExpr) il.Value {
	callee, ok := n.Callee.(*ast.IdentExpr)
	if !ok {
		return il.Value{}
	}
	if op, ok := intrinsicOpcode[callee.Name]; ok {
		args := make([]il.Value, len(n.Args))
		for i, a := range n.Args {
			args[i] = fg.genExpr(c, a)
		}
		retT := exprType(n, types.TByte)
		if types.Resolved(retT).Kind == types.Void {
			fg.b.EmitVoid(op, retT, args...)
			return il.Value{}
		}
		return fg.b.Emit(op, retT, args...)
	}

	sym, found := c.scope.Lookup(callee.Name)
	args := make([]il.Value, len(n.Args))
	for i, a := range n.Args {
		args[i] = fg.genExpr(c, a)
	}
	retT := exprType(n, types.TVoid)

	if found && sym.Kind != symbols.KindFunction && sym.Type != nil && sym.Type.Kind == types.Function {
		fnVal := fg.b.LoadVar(varKey(sym), sym.Type)
		if types.Resolved(retT).Kind == types.Void {
			fg.b.EmitVoid(il.OpCallIndirect, retT, append([]il.Value{fnVal}, args...)...)
			return il.Value{}
		}
		return fg.b.CallIndirect(fnVal, retT, args...)
	}

	if types.Resolved(retT).Kind == types.Void {
		fg.b.CallVoid(callee.Name, args...)
		return il.Value{}
	}
	return fg.b.Call(callee.Name, retT, args...)
}

func (fg *funcGen) genAssign(c ctx, n *ast.AssignExpr) il.Value {
	val := fg.genExpr(c, n.Value)
	switch t := n.Target.(type) {
	case *ast.IdentExpr:
		sym, ok := c.scope.Lookup(t.Name)
		if !ok {
			return val
		}
		stored := fg.coerce(val, sym.Type)
		fg.b.StoreVar(varKey(sym), stored, sym.Type)
		return stored
	case *ast.IndexExpr:
		base := fg.genExpr(c, t.X)
		idx := fg.genExpr(c, t.Index)
		fg.b.EmitVoid(il.OpStoreArray, val.Type, base, idx, val)
		return val
	case *ast.MemberExpr:
		base := fg.genExpr(c, t.X)
		fg.b.EmitVoid(il.OpStoreField, val.Type, base, il.Label(t.Name), val)
		return val
	}
	return val
}
