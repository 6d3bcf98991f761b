package sema

import (
	"github.com/blendsdk/blend65/pkg/ast"
	"github.com/blendsdk/blend65/pkg/diag"
)

// detectRecursion builds the local (intra-module) call graph and flags
// direct self-calls with S110 and longer cycles with S111. Cross-module
// calls aren't visible at this stage (imports resolve in pkg/module), so
// recursion through an imported function isn't detected here.
func detectRecursion(prog *ast.Program, bus *diag.Bus) {
	funcs := map[string]*ast.FunctionDecl{}
	for _, d := range prog.Decls {
		if fn, ok := d.(*ast.FunctionDecl); ok {
			funcs[fn.Name] = fn
		}
	}

	calls := map[string][]string{}
	for name, fn := range funcs {
		calls[name] = collectCalls(fn, funcs)
	}

	const (
		white = 0
		gray  = 1
		black = 2
	)
	color := map[string]int{}
	var path []string

	var visit func(name string)
	visit = func(name string) {
		color[name] = gray
		path = append(path, name)
		for _, callee := range calls[name] {
			switch color[callee] {
			case white:
				visit(callee)
			case gray:
				if callee == name {
					bus.Errorf("S110", funcs[name].Range(), "function "+name+" calls itself directly")
				} else {
					bus.Errorf("S111", funcs[name].Range(), "indirect recursion cycle involving "+callee+" and "+name)
				}
			}
		}
		path = path[:len(path)-1]
		color[name] = black
	}

	for _, d := range prog.Decls {
		fn, ok := d.(*ast.FunctionDecl)
		if !ok {
			continue
		}
		if color[fn.Name] == white {
			visit(fn.Name)
		}
	}
}

func collectCalls(fn *ast.FunctionDecl, known map[string]*ast.FunctionDecl) []string {
	var out []string
	if fn.Body == nil {
		return out
	}
	ast.Walk(ast.VisitorFunc(func(n ast.Node) bool {
		call, ok := n.(*ast.CallExpr)
		if !ok {
			return true
		}
		if id, ok := call.Callee.(*ast.IdentExpr); ok {
			if _, isLocal := known[id.Name]; isLocal {
				out = append(out, id.Name)
			}
		}
		return true
	}), fn.Body)
	return out
}
