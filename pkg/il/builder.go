package il

import "github.com/blendsdk/blend65/pkg/types"

// Builder provides a fluent, write-once-per-block API over a Function: it
// enforces the one-terminator invariant by refusing to
// append any instruction, terminator or otherwise, to a block that already
// has one.
type Builder struct {
	fn  *Function
	cur *BasicBlock
}

// NewBuilder creates a builder over fn, with no current block (the first
// call must be Block or a wired-in block via SetBlock).
func NewBuilder(fn *Function) *Builder {
	return &Builder{fn: fn}
}

// Block creates a new, unlinked basic block named name and makes it the
// builder's current block. Linking (Preds/Succs) is the caller's
// responsibility via Jump/Branch/AddEdge.
func (b *Builder) Block(name string) *BasicBlock {
	blk := &BasicBlock{Name: name}
	b.fn.Blocks = append(b.fn.Blocks, blk)
	if b.fn.Entry == nil {
		b.fn.Entry = blk
	}
	b.cur = blk
	return blk
}

// NewBlock creates a new, unlinked basic block named name WITHOUT making it
// current (unlike Block), so callers that need to wire several blocks
// together before filling any of them (if/else/merge, loop header/body/exit)
// can allocate them all up front and visit each with SetBlock in the order
// that suits the control-flow shape being built.
func (b *Builder) NewBlock(name string) *BasicBlock {
	blk := &BasicBlock{Name: name}
	b.fn.Blocks = append(b.fn.Blocks, blk)
	if b.fn.Entry == nil {
		b.fn.Entry = blk
	}
	return blk
}

// SetBlock makes blk the builder's current block without creating a new one
// (used when resuming emission into a block created earlier, e.g. a loop
// header revisited after building its body).
func (b *Builder) SetBlock(blk *BasicBlock) {
	b.cur = blk
}

// Current returns the block the builder is presently appending to.
func (b *Builder) Current() *BasicBlock { return b.cur }

// AddEdge records a predecessor/successor relationship between two blocks
// without emitting any instruction (used by callers that wire control flow
// structurally before/independent of a terminator instruction).
func AddEdge(from, to *BasicBlock) {
	for _, s := range from.Succs {
		if s == to {
			return
		}
	}
	from.Succs = append(from.Succs, to)
	to.Preds = append(to.Preds, from)
}

// append adds instr to the current block. It panics (a compiler-internal
// bug, never a user error) if the current block is already terminated.
func (b *Builder) append(instr *Instruction) {
	if b.cur == nil {
		panic("il: Builder has no current block")
	}
	if b.cur.Terminated() {
		panic("il: refusing to append to already-terminated block " + b.cur.Name)
	}
	b.cur.Instrs = append(b.cur.Instrs, instr)
}

// Emit appends a non-terminator instruction producing a fresh result of
// type t, returning the result value.
func (b *Builder) Emit(op Opcode, t *types.Type, args ...Value) Value {
	dst := b.fn.NewValue(t)
	b.append(&Instruction{Op: op, Dst: &dst, Args: args, Type: t})
	return dst
}

// EmitVoid appends a non-terminator, result-less instruction (STORE_*,
// CALL_VOID, HARDWARE_WRITE, ...).
func (b *Builder) EmitVoid(op Opcode, t *types.Type, args ...Value) {
	b.append(&Instruction{Op: op, Args: args, Type: t})
}

// LoadVar appends a LOAD_VAR reading the source variable name, returning the
// fresh register holding its current value.
func (b *Builder) LoadVar(name string, t *types.Type) Value {
	dst := b.fn.NewValue(t)
	b.append(&Instruction{Op: OpLoadVar, Dst: &dst, Var: name, Type: t})
	return dst
}

// StoreVar appends a STORE_VAR writing value into the source variable name.
func (b *Builder) StoreVar(name string, value Value, t *types.Type) {
	b.append(&Instruction{Op: OpStoreVar, Args: []Value{value}, Var: name, Type: t})
}

// Param appends a PARAM binding a function parameter's incoming value to a
// fresh register, giving it the defining instruction Dst-scanning passes
// (pkg/ssa's def collector, the validator) require.
func (b *Builder) Param(t *types.Type) Value {
	dst := b.fn.NewValue(t)
	b.append(&Instruction{Op: OpParam, Dst: &dst, Type: t})
	return dst
}

// Call appends a CALL to callee with args, returning the fresh register
// holding its result.
func (b *Builder) Call(callee string, t *types.Type, args ...Value) Value {
	dst := b.fn.NewValue(t)
	full := append([]Value{Label(callee)}, args...)
	b.append(&Instruction{Op: OpCall, Dst: &dst, Args: full, Type: t})
	return dst
}

// CallVoid appends a result-less CALL_VOID to callee with args.
func (b *Builder) CallVoid(callee string, args ...Value) {
	full := append([]Value{Label(callee)}, args...)
	b.append(&Instruction{Op: OpCallVoid, Args: full})
}

// CallIndirect appends a CALL_INDIRECT through a callback-typed value fn,
// returning the fresh register holding its result (void callbacks discard
// it at the ilgen call site).
func (b *Builder) CallIndirect(fn Value, t *types.Type, args ...Value) Value {
	dst := b.fn.NewValue(t)
	full := append([]Value{fn}, args...)
	b.append(&Instruction{Op: OpCallIndirect, Dst: &dst, Args: full, Type: t})
	return dst
}

// Jump terminates the current block with an unconditional JUMP to to,
// wiring the CFG edge.
func (b *Builder) Jump(to *BasicBlock) {
	b.append(&Instruction{Op: OpJump, Args: []Value{Label(to.Name)}})
	AddEdge(b.cur, to)
}

// Branch terminates the current block with a conditional BRANCH: cond ?
// thenB : elseB, wiring both CFG edges.
func (b *Builder) Branch(cond Value, thenB, elseB *BasicBlock) {
	b.append(&Instruction{Op: OpBranch, Args: []Value{cond, Label(thenB.Name), Label(elseB.Name)}})
	AddEdge(b.cur, thenB)
	AddEdge(b.cur, elseB)
}

// Return terminates the current block with RETURN value.
func (b *Builder) Return(value Value) {
	b.append(&Instruction{Op: OpReturn, Args: []Value{value}})
}

// ReturnVoid terminates the current block with RETURN_VOID.
func (b *Builder) ReturnVoid() {
	b.append(&Instruction{Op: OpReturnVoid})
}

// Phi appends a PHI instruction with one placeholder operand per
// predecessor, returning the defined value. Operands are filled in later
// by the SSA renamer via SetPhiOperand.
func (b *Builder) Phi(t *types.Type, numPreds int) (Value, *Instruction) {
	dst := b.fn.NewValue(t)
	instr := &Instruction{Op: OpPhi, Dst: &dst, Args: make([]Value, numPreds), Type: t}
	// PHIs must sit at the head of a block, before any other instruction,
	// so they precede whatever was already appended to b.cur.
	b.cur.Instrs = append([]*Instruction{instr}, b.cur.Instrs...)
	return dst, instr
}

// SetPhiOperand fills in the operand of instr corresponding to predecessor
// index i (the i-th entry of the host block's Preds list).
func SetPhiOperand(instr *Instruction, i int, v Value) {
	instr.Args[i] = v
}
