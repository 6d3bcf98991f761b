package ssa

import (
	"testing"

	"github.com/blendsdk/blend65/pkg/il"
	"github.com/blendsdk/blend65/pkg/types"
)

// buildDiamond builds the IL for:
//
//	if (flag) { x = 10; } else { x = 20; }
//	let y: byte = x;
//
// the classic diamond reconvergence case.
func buildDiamond() *il.Function {
	fn := &il.Function{Name: "f", Return: types.TVoid}
	b := il.NewBuilder(fn)

	entry := b.Block("entry")
	flag := b.LoadVar("flag", types.TBool)
	thenB := b.Block("then")
	elseB := b.Block("else")
	merge := b.Block("merge")

	b.SetBlock(entry)
	b.Branch(flag, thenB, elseB)

	b.SetBlock(thenB)
	b.StoreVar("x", il.ConstVal(10, types.TByte), types.TByte)
	b.Jump(merge)

	b.SetBlock(elseB)
	b.StoreVar("x", il.ConstVal(20, types.TByte), types.TByte)
	b.Jump(merge)

	b.SetBlock(merge)
	xv := b.LoadVar("x", types.TByte)
	b.StoreVar("y", xv, types.TByte)
	b.ReturnVoid()

	return fn
}

func TestConstructInsertsPhiAtMerge(t *testing.T) {
	fn := buildDiamond()
	Construct(fn)

	var merge *il.BasicBlock
	for _, b := range fn.Blocks {
		if b.Name == "merge" {
			merge = b
		}
	}
	if merge == nil {
		t.Fatal("expected a merge block")
	}

	var phi *il.Instruction
	for _, instr := range merge.Instrs {
		if instr.Op == il.OpPhi {
			phi = instr
		}
	}
	if phi == nil {
		t.Fatal("expected a PHI for x at the merge block")
	}
	if len(phi.Args) != 2 {
		t.Fatalf("expected 2 phi operands (one per predecessor), got %d", len(phi.Args))
	}
	for _, arg := range phi.Args {
		if arg.Kind != il.ValConst {
			t.Fatalf("expected both phi operands to be the constants stored in each branch, got %+v", arg)
		}
	}
}

func TestConstructMarksFunctionSSA(t *testing.T) {
	fn := buildDiamond()
	Construct(fn)
	if !fn.IsSSA {
		t.Fatal("expected Construct to mark the function post-SSA")
	}
}

func TestVerifyPassesOnWellFormedDiamond(t *testing.T) {
	fn := buildDiamond()
	Construct(fn)
	if errs := Verify(fn); len(errs) != 0 {
		t.Fatalf("expected no SSA verification errors, got %v", errs)
	}
}

func TestLoadVarEliminatedAfterConstruct(t *testing.T) {
	fn := buildDiamond()
	Construct(fn)
	for _, b := range fn.Blocks {
		for _, instr := range b.Instrs {
			if instr.Op == il.OpLoadVar {
				t.Fatalf("expected all LOAD_VAR instructions to be eliminated by mem2reg, found one in %s", b.Name)
			}
			if instr.Op == il.OpStoreVar {
				t.Fatalf("expected all STORE_VAR instructions to be eliminated by mem2reg, found one in %s", b.Name)
			}
		}
	}
}

// buildMultiVarDiamond is buildDiamond with a second variable defined in
// every branch, so that φ placement must order two unrelated variables'
// worklists without depending on Go's map iteration order.
func buildMultiVarDiamond() *il.Function {
	fn := &il.Function{Name: "f", Return: types.TVoid}
	b := il.NewBuilder(fn)

	entry := b.Block("entry")
	flag := b.LoadVar("flag", types.TBool)
	thenB := b.Block("then")
	elseB := b.Block("else")
	merge := b.Block("merge")

	b.SetBlock(entry)
	b.Branch(flag, thenB, elseB)

	b.SetBlock(thenB)
	b.StoreVar("x", il.ConstVal(10, types.TByte), types.TByte)
	b.StoreVar("y", il.ConstVal(1, types.TByte), types.TByte)
	b.Jump(merge)

	b.SetBlock(elseB)
	b.StoreVar("y", il.ConstVal(2, types.TByte), types.TByte)
	b.StoreVar("x", il.ConstVal(20, types.TByte), types.TByte)
	b.Jump(merge)

	b.SetBlock(merge)
	xv := b.LoadVar("x", types.TByte)
	yv := b.LoadVar("y", types.TByte)
	b.StoreVar("z", xv, types.TByte)
	b.StoreVar("w", yv, types.TByte)
	b.ReturnVoid()

	return fn
}

func TestConstructIsDeterministicAcrossRuns(t *testing.T) {
	var prints []string
	for i := 0; i < 10; i++ {
		fn := buildMultiVarDiamond()
		Construct(fn)
		m := &il.Module{Name: "M", Functions: []*il.Function{fn}}
		prints = append(prints, il.Print(m))
	}
	for i := 1; i < len(prints); i++ {
		if prints[i] != prints[0] {
			t.Fatalf("expected byte-identical IL across SSA construction runs, run 0:\n%s\nrun %d:\n%s", prints[0], i, prints[i])
		}
	}
}

func TestUndefOnUninitializedPath(t *testing.T) {
	fn := &il.Function{Name: "g", Return: types.TByte}
	b := il.NewBuilder(fn)
	b.Block("entry")
	v := b.LoadVar("never_stored", types.TByte)
	b.Return(v)

	Construct(fn)
	found := false
	for _, instr := range fn.Entry.Instrs {
		if instr.Op == il.OpUndef {
			found = true
		}
	}
	if !found {
		t.Fatal("expected an UNDEF instruction for a variable with no reaching definition")
	}
}
