package optimizer

import (
	"github.com/blendsdk/blend65/pkg/il"
	"github.com/blendsdk/blend65/pkg/types"
)

// ConstantFoldPass evaluates arithmetic, bitwise, and comparison
// instructions whose operands are all compile-time constants, folding the
// instruction into a CONST carrying the computed value in its metadata. The
// defined register is left in place, so every consumer keeps working
// unmodified; only the producing instruction's shape changes.
func ConstantFoldPass() Pass {
	return Pass{
		Name:        "constant-fold",
		IsTransform: true,
		Run:         constantFold,
	}
}

var foldableBinary = map[il.Opcode]bool{
	il.OpAdd: true, il.OpSub: true, il.OpMul: true, il.OpDiv: true, il.OpMod: true,
	il.OpAnd: true, il.OpOr: true, il.OpXor: true, il.OpShl: true, il.OpShr: true,
	il.OpCmpEq: true, il.OpCmpNe: true, il.OpCmpLt: true, il.OpCmpLe: true,
	il.OpCmpGt: true, il.OpCmpGe: true,
}

var foldableUnary = map[il.Opcode]bool{
	il.OpNeg: true, il.OpNot: true, il.OpBitNot: true,
}

func constantFold(m *il.Module) (*il.Module, Stats) {
	stats := Stats{}
	changed := false

	for _, fn := range m.Functions {
		for _, b := range fn.Blocks {
			for _, instr := range b.Instrs {
				if instr.Dst == nil {
					continue
				}
				switch {
				case foldableBinary[instr.Op] && len(instr.Args) == 2 && allConst(instr.Args):
					v, ok := foldBinary(instr.Op, instr.Args[0], instr.Args[1], instr.Type)
					if !ok {
						continue
					}
					fold(instr, v)
					stats["foldedBinary"]++
					changed = true
				case foldableUnary[instr.Op] && len(instr.Args) == 1 && allConst(instr.Args):
					v := foldUnary(instr.Op, instr.Args[0], instr.Type)
					fold(instr, v)
					stats["foldedUnary"]++
					changed = true
				}
			}
		}
	}

	if !changed {
		return m, stats
	}
	out := *m
	return &out, stats
}

func allConst(args []il.Value) bool {
	for _, a := range args {
		if a.Kind != il.ValConst {
			return false
		}
	}
	return true
}

func fold(instr *il.Instruction, v il.Value) {
	instr.Op = il.OpConst
	instr.Args = nil
	instr.Meta = map[string]any{"value": v}
}

func foldBinary(op il.Opcode, l, r il.Value, resultType *types.Type) (il.Value, bool) {
	a, b := l.Const, r.Const
	switch op {
	case il.OpAdd:
		return il.ConstVal(a+b, resultType), true
	case il.OpSub:
		return il.ConstVal(a-b, resultType), true
	case il.OpMul:
		return il.ConstVal(a*b, resultType), true
	case il.OpDiv:
		if b == 0 {
			return il.Value{}, false
		}
		return il.ConstVal(a/b, resultType), true
	case il.OpMod:
		if b == 0 {
			return il.Value{}, false
		}
		return il.ConstVal(a%b, resultType), true
	case il.OpAnd:
		return il.ConstVal(a&b, resultType), true
	case il.OpOr:
		return il.ConstVal(a|b, resultType), true
	case il.OpXor:
		return il.ConstVal(a^b, resultType), true
	case il.OpShl:
		return il.ConstVal(a<<b, resultType), true
	case il.OpShr:
		return il.ConstVal(a>>b, resultType), true
	case il.OpCmpEq:
		return boolVal(a == b), true
	case il.OpCmpNe:
		return boolVal(a != b), true
	case il.OpCmpLt:
		return boolVal(a < b), true
	case il.OpCmpLe:
		return boolVal(a <= b), true
	case il.OpCmpGt:
		return boolVal(a > b), true
	case il.OpCmpGe:
		return boolVal(a >= b), true
	}
	return il.Value{}, false
}

func foldUnary(op il.Opcode, x il.Value, resultType *types.Type) il.Value {
	switch op {
	case il.OpNeg:
		return il.ConstVal(uint64(-int64(x.Const)), resultType)
	case il.OpNot:
		return boolVal(x.Const == 0)
	case il.OpBitNot:
		return il.ConstVal(^x.Const, resultType)
	}
	return x
}

func boolVal(b bool) il.Value {
	if b {
		return il.ConstVal(1, types.TBool)
	}
	return il.ConstVal(0, types.TBool)
}
