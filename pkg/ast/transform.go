package ast

// TransformExpr rewrites e bottom-up, applying fn to every subexpression.
// Parent nodes are rebuilt only when a child actually changed (compared by
// interface identity), giving structural sharing instead of a full deep
// copy on every pass.
func TransformExpr(e Expr, fn func(Expr) Expr) Expr {
	if e == nil {
		return nil
	}
	rebuilt := e
	switch x := e.(type) {
	case *BinaryExpr:
		l := TransformExpr(x.Left, fn)
		r := TransformExpr(x.Right, fn)
		if l != x.Left || r != x.Right {
			cp := *x
			cp.Left, cp.Right = l, r
			rebuilt = &cp
		}
	case *UnaryExpr:
		v := TransformExpr(x.X, fn)
		if v != x.X {
			cp := *x
			cp.X = v
			rebuilt = &cp
		}
	case *TernaryExpr:
		c := TransformExpr(x.Cond, fn)
		t := TransformExpr(x.Then, fn)
		f := TransformExpr(x.Else, fn)
		if c != x.Cond || t != x.Then || f != x.Else {
			cp := *x
			cp.Cond, cp.Then, cp.Else = c, t, f
			rebuilt = &cp
		}
	case *CallExpr:
		callee := TransformExpr(x.Callee, fn)
		changed := callee != x.Callee
		args := make([]Expr, len(x.Args))
		for i, a := range x.Args {
			args[i] = TransformExpr(a, fn)
			if args[i] != a {
				changed = true
			}
		}
		if changed {
			cp := *x
			cp.Callee, cp.Args = callee, args
			rebuilt = &cp
		}
	case *IndexExpr:
		base := TransformExpr(x.X, fn)
		idx := TransformExpr(x.Index, fn)
		if base != x.X || idx != x.Index {
			cp := *x
			cp.X, cp.Index = base, idx
			rebuilt = &cp
		}
	case *MemberExpr:
		base := TransformExpr(x.X, fn)
		if base != x.X {
			cp := *x
			cp.X = base
			rebuilt = &cp
		}
	case *AssignExpr:
		target := TransformExpr(x.Target, fn)
		val := TransformExpr(x.Value, fn)
		if target != x.Target || val != x.Value {
			cp := *x
			cp.Target, cp.Value = target, val
			rebuilt = &cp
		}
	case *LiteralExpr:
		if x.LitKind == LitArray {
			changed := false
			elems := make([]Expr, len(x.Elems))
			for i, el := range x.Elems {
				elems[i] = TransformExpr(el, fn)
				if elems[i] != el {
					changed = true
				}
			}
			if changed {
				cp := *x
				cp.Elems = elems
				rebuilt = &cp
			}
		}
	case *IdentExpr:
		// leaf, nothing to rebuild
	}
	return fn(rebuilt)
}
