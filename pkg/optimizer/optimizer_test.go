package optimizer

import (
	"testing"

	"github.com/blendsdk/blend65/pkg/il"
	"github.com/blendsdk/blend65/pkg/types"
)

func TestOptimizeDisabledIsNoOp(t *testing.T) {
	fn := &il.Function{Name: "f", Return: types.TVoid}
	b := il.NewBuilder(fn)
	b.Block("entry")
	b.ReturnVoid()
	m := &il.Module{Name: "M", Functions: []*il.Function{fn}}

	res := Optimize(Config{Enabled: false, Passes: []Pass{LowerIntrinsicsPass()}}, m)
	if res.Changed {
		t.Fatal("expected a disabled optimizer to report no change")
	}
	if res.Module != m {
		t.Fatal("expected a disabled optimizer to return the same module reference")
	}
	if res.Iterations != 0 {
		t.Fatalf("expected zero iterations, got %d", res.Iterations)
	}
}

func TestOptimizeEmptyPassListIsNoOp(t *testing.T) {
	m := &il.Module{Name: "M"}
	res := Optimize(Config{Enabled: true, Passes: nil, MaxIterations: 4}, m)
	if res.Changed || res.Module != m {
		t.Fatal("expected an empty pass list to be a no-op")
	}
}

func TestOptimizeReachesFixpointAndStopsEarly(t *testing.T) {
	fn := &il.Function{Name: "f", Return: types.TByte}
	b := il.NewBuilder(fn)
	b.Block("entry")
	v := b.Emit(il.OpAdd, types.TByte, il.ConstVal(1, types.TByte), il.ConstVal(2, types.TByte))
	b.Return(v)
	m := &il.Module{Name: "M", Functions: []*il.Function{fn}}

	res := Optimize(Config{Enabled: true, Passes: []Pass{ConstantFoldPass()}, MaxIterations: 16}, m)
	if !res.Changed {
		t.Fatal("expected constant folding to report a change")
	}
	// One iteration folds the ADD; the next iteration's run over the
	// already-folded module must report no change, so the driver stops
	// there rather than burning the remaining MaxIterations budget.
	if res.Iterations >= 16 {
		t.Fatalf("expected early stop well before MaxIterations, got %d iterations", res.Iterations)
	}

	rerun := Optimize(Config{Enabled: true, Passes: []Pass{ConstantFoldPass()}, MaxIterations: 16}, res.Module)
	if rerun.Changed {
		t.Fatal("expected re-running the same pass over a fixpoint module to report no change (testable property 8)")
	}
}

func TestLowerIntrinsicsPassRewritesAllFourIntrinsics(t *testing.T) {
	fn := &il.Function{Name: "f", Return: types.TVoid}
	b := il.NewBuilder(fn)
	b.Block("entry")
	b.Emit(il.OpIntrinsicPeek, types.TByte, il.ConstVal(0xD020, types.TWord))
	b.Emit(il.OpIntrinsicPeekw, types.TWord, il.ConstVal(0xD020, types.TWord))
	b.EmitVoid(il.OpIntrinsicPoke, types.TByte, il.ConstVal(0xD020, types.TWord), il.ConstVal(0, types.TByte))
	b.EmitVoid(il.OpIntrinsicPokew, types.TWord, il.ConstVal(0xD020, types.TWord), il.ConstVal(0, types.TWord))
	b.ReturnVoid()
	m := &il.Module{Name: "M", Functions: []*il.Function{fn}}

	out, stats := lowerIntrinsics(m)
	if out == m {
		t.Fatal("expected a new module reference when intrinsics were lowered")
	}
	want := Stats{"peekToHardwareRead": 1, "peekwToHardwareRead": 1, "pokeToHardwareWrite": 1, "pokewToHardwareWrite": 1}
	for k, v := range want {
		if stats[k] != v {
			t.Errorf("stats[%q] = %d, want %d", k, stats[k], v)
		}
	}

	for _, instr := range fn.Blocks[0].Instrs {
		switch instr.Op {
		case il.OpIntrinsicPeek, il.OpIntrinsicPoke, il.OpIntrinsicPeekw, il.OpIntrinsicPokew:
			t.Fatalf("testable property 9 violated: intrinsic opcode %v survived lowering", instr.Op)
		}
	}
}

func TestLowerIntrinsicsPassIsIdempotent(t *testing.T) {
	fn := &il.Function{Name: "f", Return: types.TVoid}
	b := il.NewBuilder(fn)
	b.Block("entry")
	b.Emit(il.OpIntrinsicPeek, types.TByte, il.ConstVal(0xD020, types.TWord))
	b.ReturnVoid()
	m := &il.Module{Name: "M", Functions: []*il.Function{fn}}

	first, _ := lowerIntrinsics(m)
	second, stats := lowerIntrinsics(first)
	if second != first {
		t.Fatal("expected the second lowering pass over an already-lowered module to return the same reference")
	}
	if len(stats) != 0 {
		t.Fatalf("expected no further stats once every intrinsic is lowered, got %+v", stats)
	}
}

func TestConstantFoldPassFoldsBinaryAndUnary(t *testing.T) {
	fn := &il.Function{Name: "f", Return: types.TByte}
	b := il.NewBuilder(fn)
	b.Block("entry")
	sum := b.Emit(il.OpAdd, types.TByte, il.ConstVal(3, types.TByte), il.ConstVal(4, types.TByte))
	neg := b.Emit(il.OpNeg, types.TByte, il.ConstVal(5, types.TByte))
	b.StoreVar("s", sum, types.TByte)
	b.StoreVar("n", neg, types.TByte)
	b.ReturnVoid()
	m := &il.Module{Name: "M", Functions: []*il.Function{fn}}

	out, stats := constantFold(m)
	if out == m {
		t.Fatal("expected a new module reference when folding occurred")
	}
	if stats["foldedBinary"] != 1 || stats["foldedUnary"] != 1 {
		t.Fatalf("unexpected fold stats: %+v", stats)
	}

	var sawSum bool
	for _, instr := range fn.Blocks[0].Instrs {
		if instr.Op == il.OpConst && instr.Meta["value"] != nil {
			if v, ok := instr.Meta["value"].(il.Value); ok && v.Const == 7 {
				sawSum = true
			}
		}
	}
	if !sawSum {
		t.Fatal("expected 3+4 to fold to a CONST carrying value 7")
	}
}

func TestConstantFoldPassSkipsDivisionByZero(t *testing.T) {
	fn := &il.Function{Name: "f", Return: types.TByte}
	b := il.NewBuilder(fn)
	b.Block("entry")
	b.Emit(il.OpDiv, types.TByte, il.ConstVal(1, types.TByte), il.ConstVal(0, types.TByte))
	b.ReturnVoid()
	m := &il.Module{Name: "M", Functions: []*il.Function{fn}}

	out, stats := constantFold(m)
	if out != m {
		t.Fatal("expected division by a constant zero to be left unfolded rather than panicking or miscomputing")
	}
	if stats["foldedBinary"] != 0 {
		t.Fatalf("expected no fold recorded, got %+v", stats)
	}
}

func TestDeadCodeEliminationDropsUnusedPureInstruction(t *testing.T) {
	fn := &il.Function{Name: "f", Return: types.TVoid}
	b := il.NewBuilder(fn)
	b.Block("entry")
	b.Emit(il.OpConst, types.TByte, il.ConstVal(9, types.TByte)) // dead: never used
	b.ReturnVoid()
	m := &il.Module{Name: "M", Functions: []*il.Function{fn}}

	out, stats := deadCodeEliminate(m)
	if out == m {
		t.Fatal("expected a new module reference once dead code was removed")
	}
	if stats["eliminated"] != 1 {
		t.Fatalf("expected exactly one eliminated instruction, got %+v", stats)
	}
	if len(fn.Blocks[0].Instrs) != 1 {
		t.Fatalf("expected only RETURN_VOID to remain, got %d instructions", len(fn.Blocks[0].Instrs))
	}
}

func TestDeadCodeEliminationKeepsUsedValuesAndSideEffects(t *testing.T) {
	fn := &il.Function{Name: "f", Return: types.TVoid}
	b := il.NewBuilder(fn)
	b.Block("entry")
	v := b.Emit(il.OpConst, types.TByte, il.ConstVal(1, types.TByte))
	b.StoreVar("x", v, types.TByte) // keeps v live
	b.EmitVoid(il.OpHardwareWrite, types.TByte, il.ConstVal(0xD020, types.TWord), il.ConstVal(0, types.TByte))
	b.ReturnVoid()
	m := &il.Module{Name: "M", Functions: []*il.Function{fn}}

	_, stats := deadCodeEliminate(m)
	if stats["eliminated"] != 0 {
		t.Fatalf("expected nothing eliminated: the CONST feeds a store and the write is a side effect, got %+v", stats)
	}
}

func TestStandardAlwaysIncludesIntrinsicLoweringEvenAtO0(t *testing.T) {
	passes := Standard(0)
	if len(passes) != 1 || passes[0].Name != "lower-intrinsics" {
		t.Fatalf("expected O0 to run only the mandatory intrinsic-lowering pass, got %+v", passes)
	}
}

func TestStandardAddsOptionalPassesAboveO0(t *testing.T) {
	passes := Standard(1)
	names := map[string]bool{}
	for _, p := range passes {
		names[p.Name] = true
	}
	for _, want := range []string{"lower-intrinsics", "constant-fold", "dead-code-elimination"} {
		if !names[want] {
			t.Fatalf("expected O1 pass list to include %q, got %+v", want, passes)
		}
	}
}
