package optimizer

import "github.com/blendsdk/blend65/pkg/il"

// DeadCodeEliminationPass drops instructions whose result register is never
// used by any surviving instruction or phi operand, the way the teacher's
// pkg/search filters candidate sequences with dead flag output: compute
// live registers, sweep, repeat until nothing more goes. Only opcodes known
// to be free of observable side effects are ever swept.
func DeadCodeEliminationPass() Pass {
	return Pass{
		Name:        "dead-code-elimination",
		IsTransform: true,
		Run:         deadCodeEliminate,
	}
}

// pureOpcodes lists opcodes eligible for removal when their result is
// unused. Stores, calls, branches, hardware/volatile access, and CPU-level
// instructions are excluded: each can have an effect beyond its Dst value.
var pureOpcodes = map[il.Opcode]bool{
	il.OpConst: true, il.OpLoadVar: true, il.OpLoadArray: true, il.OpLoadField: true,
	il.OpAdd: true, il.OpSub: true, il.OpMul: true, il.OpDiv: true, il.OpMod: true,
	il.OpAnd: true, il.OpOr: true, il.OpXor: true, il.OpShl: true, il.OpShr: true,
	il.OpNeg: true, il.OpNot: true, il.OpBitNot: true,
	il.OpCmpEq: true, il.OpCmpNe: true, il.OpCmpLt: true, il.OpCmpLe: true,
	il.OpCmpGt: true, il.OpCmpGe: true,
	il.OpPhi: true, il.OpUndef: true,
	il.OpTruncate: true, il.OpZeroExtend: true, il.OpBoolToByte: true, il.OpByteToBool: true,
}

func deadCodeEliminate(m *il.Module) (*il.Module, Stats) {
	stats := Stats{}
	changed := false

	for _, fn := range m.Functions {
		for {
			used := map[int]bool{}
			for _, b := range fn.Blocks {
				for _, instr := range b.Instrs {
					for _, a := range instr.Args {
						if a.Kind == il.ValReg {
							used[a.Reg] = true
						}
					}
				}
			}

			removedAny := false
			for _, b := range fn.Blocks {
				kept := b.Instrs[:0]
				for _, instr := range b.Instrs {
					if instr.Dst != nil && pureOpcodes[instr.Op] && !used[instr.Dst.Reg] {
						stats["eliminated"]++
						removedAny = true
						changed = true
						continue
					}
					kept = append(kept, instr)
				}
				b.Instrs = kept
			}
			if !removedAny {
				break
			}
		}
	}

	if !changed {
		return m, stats
	}
	out := *m
	return &out, stats
}
