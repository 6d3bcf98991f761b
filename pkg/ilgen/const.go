package ilgen

import (
	"github.com/blendsdk/blend65/pkg/ast"
	"github.com/blendsdk/blend65/pkg/il"
	"github.com/blendsdk/blend65/pkg/symbols"
	"github.com/blendsdk/blend65/pkg/types"
)

// constEval folds the compile-time-constant subset of expressions module
// globals are allowed to initialize with: literals, enum members, and
// arithmetic/bitwise/unary combinations of those. It does not attempt the
// general case (anything sema would have already rejected as non-constant
// has no valid IL form here anyway).
func constEval(scope *symbols.Scope, e ast.Expr) (il.Value, bool) {
	switch n := e.(type) {
	case *ast.LiteralExpr:
		switch n.LitKind {
		case ast.LitNumber:
			t := types.TByte
			if n.Number > 0xFF {
				t = types.TWord
			}
			return il.ConstVal(n.Number, t), true
		case ast.LitBoolean:
			v := uint64(0)
			if n.Bool {
				v = 1
			}
			return il.ConstVal(v, types.TBool), true
		}
		return il.Value{}, false

	case *ast.IdentExpr:
		sym, ok := scope.Lookup(n.Name)
		if !ok {
			return il.Value{}, false
		}
		if sym.Kind == symbols.KindEnumMember {
			return il.ConstVal(enumOrdinal(scope, sym), types.TByte), true
		}
		if sym.Kind == symbols.KindVariable && sym.Const {
			if vd, ok := sym.Node.(*ast.VariableDecl); ok && vd.Init != nil {
				return constEval(scope, vd.Init)
			}
		}
		return il.Value{}, false

	case *ast.UnaryExpr:
		x, ok := constEval(scope, n.X)
		if !ok {
			return il.Value{}, false
		}
		switch n.Op {
		case ast.OpNeg:
			return il.ConstVal(uint64(-int64(x.Const)), x.Type), true
		case ast.OpBitNot:
			return il.ConstVal(^x.Const, x.Type), true
		case ast.OpNot:
			if x.Const == 0 {
				return il.ConstVal(1, types.TBool), true
			}
			return il.ConstVal(0, types.TBool), true
		}
		return il.Value{}, false

	case *ast.BinaryExpr:
		l, ok := constEval(scope, n.Left)
		if !ok {
			return il.Value{}, false
		}
		r, ok := constEval(scope, n.Right)
		if !ok {
			return il.Value{}, false
		}
		t := l.Type
		if types.Resolved(r.Type).Kind == types.Word {
			t = r.Type
		}
		switch n.Op {
		case ast.OpAdd:
			return il.ConstVal(l.Const+r.Const, t), true
		case ast.OpSub:
			return il.ConstVal(l.Const-r.Const, t), true
		case ast.OpMul:
			return il.ConstVal(l.Const*r.Const, t), true
		case ast.OpAnd:
			return il.ConstVal(l.Const&r.Const, t), true
		case ast.OpOr:
			return il.ConstVal(l.Const|r.Const, t), true
		case ast.OpXor:
			return il.ConstVal(l.Const^r.Const, t), true
		case ast.OpShl:
			return il.ConstVal(l.Const<<r.Const, t), true
		case ast.OpShr:
			return il.ConstVal(l.Const>>r.Const, t), true
		}
		return il.Value{}, false
	}
	return il.Value{}, false
}

// enumOrdinal computes sym's 1-based ordinal within its enclosing EnumDecl,
// honoring explicit `= value` overrides (later members count up from an
// override).
func enumOrdinal(scope *symbols.Scope, sym *symbols.Symbol) uint64 {
	decl, ok := sym.Node.(*ast.EnumDecl)
	if !ok {
		return 0
	}
	next := uint64(1)
	for _, m := range decl.Members {
		if m.Value != nil {
			if v, ok := constEval(scope, m.Value); ok {
				next = v.Const
			}
		}
		if m.Name == sym.Name {
			return next
		}
		next++
	}
	return 0
}
