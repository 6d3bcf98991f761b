package il

import (
	"fmt"
	"strings"
)

// Print renders m in the deterministic, line-oriented textual form spec
// §4.G/§6 specifies: one instruction per line, `result = OPCODE operand*`
// with registers `vN` and block labels, function headers showing name,
// params (name:type), and return type. Two semantically equal modules
// print identically: functions, blocks, and instructions are walked in
// their stored (insertion) order, never re-sorted by a transient map.
func Print(m *Module) string {
	var b strings.Builder
	fmt.Fprintf(&b, "module %s\n", m.Name)
	for _, g := range m.Globals {
		init := "<uninit>"
		if g.Init != nil {
			init = g.Init.String()
		}
		fmt.Fprintf(&b, "global %s: %s = %s\n", g.Name, g.Type, init)
	}
	for _, fn := range m.Functions {
		printFunction(&b, fn)
	}
	return b.String()
}

func printFunction(b *strings.Builder, fn *Function) {
	params := make([]string, len(fn.Params))
	for i, p := range fn.Params {
		params[i] = fmt.Sprintf("%s:%s", p.Name, p.Type)
	}
	fmt.Fprintf(b, "function %s(%s): %s {\n", fn.Name, strings.Join(params, ", "), fn.Return)
	for _, blk := range fn.Blocks {
		printBlock(b, blk)
	}
	fmt.Fprintf(b, "}\n")
}

func printBlock(b *strings.Builder, blk *BasicBlock) {
	fmt.Fprintf(b, "%s:\n", blk.Name)
	for _, instr := range blk.Instrs {
		printInstr(b, instr)
	}
}

func printInstr(b *strings.Builder, instr *Instruction) {
	args := make([]string, len(instr.Args))
	for i, a := range instr.Args {
		args[i] = a.String()
	}
	if instr.Op == OpConst {
		if payload, ok := constPayload(instr); ok {
			args = append(args, payload)
		}
	}
	joined := strings.Join(args, ", ")
	if instr.Dst != nil {
		fmt.Fprintf(b, "  %s = %s %s\n", instr.Dst.String(), instr.Op, joined)
		return
	}
	fmt.Fprintf(b, "  %s %s\n", instr.Op, joined)
}

// constPayload renders a CONST instruction's actual value. CONST carries no
// Args; its payload lives in Meta ("value" for a folded/literal scalar,
// "bytes" for a string literal, "elems" for an array literal), so without
// this every CONST would print as a bare "vN = CONST" regardless of what it
// holds.
func constPayload(instr *Instruction) (string, bool) {
	if instr.Meta == nil {
		return "", false
	}
	if v, ok := instr.Meta["value"].(Value); ok {
		return v.String(), true
	}
	if bs, ok := instr.Meta["bytes"].([]byte); ok {
		return fmt.Sprintf("%q", string(bs)), true
	}
	if elems, ok := instr.Meta["elems"].([]Value); ok {
		parts := make([]string, len(elems))
		for i, e := range elems {
			parts[i] = e.String()
		}
		return "[" + strings.Join(parts, ", ") + "]", true
	}
	return "", false
}
