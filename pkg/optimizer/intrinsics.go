package optimizer

import "github.com/blendsdk/blend65/pkg/il"

// LowerIntrinsicsPass rewrites INTRINSIC_PEEK/PEEKW into HARDWARE_READ and
// INTRINSIC_POKE/POKEW into HARDWARE_WRITE, preserving every operand
// (address argument, destination register, type, source location). It runs
// at every optimization level, including O0, since the backend contract
// never sees a raw intrinsic.
func LowerIntrinsicsPass() Pass {
	return Pass{
		Name:        "lower-intrinsics",
		IsTransform: true,
		Run:         lowerIntrinsics,
	}
}

func lowerIntrinsics(m *il.Module) (*il.Module, Stats) {
	stats := Stats{}
	changed := false

	for _, fn := range m.Functions {
		for _, b := range fn.Blocks {
			for _, instr := range b.Instrs {
				switch instr.Op {
				case il.OpIntrinsicPeek:
					instr.Op = il.OpHardwareRead
					stats["peekToHardwareRead"]++
					changed = true
				case il.OpIntrinsicPoke:
					instr.Op = il.OpHardwareWrite
					stats["pokeToHardwareWrite"]++
					changed = true
				case il.OpIntrinsicPeekw:
					instr.Op = il.OpHardwareRead
					stats["peekwToHardwareRead"]++
					changed = true
				case il.OpIntrinsicPokew:
					instr.Op = il.OpHardwareWrite
					stats["pokewToHardwareWrite"]++
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
