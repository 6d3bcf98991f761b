package sema

import (
	"testing"

	"github.com/blendsdk/blend65/pkg/ast"
)

func typeRef(name string) *ast.TypeRef {
	return &ast.TypeRef{Name: name}
}

func TestValidConstModuleHasNoDiagnostics(t *testing.T) {
	r := ast.NewRange("m.b65", 1, 1, 1, 1)
	init := ast.NewLiteralNumber(r, 0xD020)
	decl := ast.NewVariableDecl(r, "C", typeRef("word"), init, true, false, ast.StorageDefault)
	prog := &ast.Program{Module: ast.NewModuleDecl(r, "M"), Decls: []ast.Decl{decl}, File: "m.b65"}

	res := Analyze(prog)
	if !res.Success {
		t.Fatalf("expected success, got diagnostics: %+v", res.Bus.All())
	}
}

func TestTypeMismatchInitializerReportsS002(t *testing.T) {
	r := ast.NewRange("m.b65", 1, 1, 1, 1)
	init := ast.NewLiteralNumber(r, 1000)
	decl := ast.NewVariableDecl(r, "x", typeRef("byte"), init, false, false, ast.StorageDefault)
	prog := &ast.Program{Module: ast.NewModuleDecl(r, "M"), Decls: []ast.Decl{decl}, File: "m.b65"}

	res := Analyze(prog)
	if res.Success {
		t.Fatal("expected failure on byte<-word narrowing initializer")
	}
	errs := res.Bus.ErrorsOnly()
	if len(errs) != 1 || errs[0].Code != "S002" {
		t.Fatalf("expected exactly one S002, got %+v", errs)
	}
}

func TestDuplicateDeclarationReportsS004(t *testing.T) {
	r := ast.NewRange("m.b65", 1, 1, 1, 1)
	d1 := ast.NewVariableDecl(r, "x", typeRef("byte"), nil, false, false, ast.StorageDefault)
	d2 := ast.NewVariableDecl(r, "x", typeRef("byte"), nil, false, false, ast.StorageDefault)
	prog := &ast.Program{Module: ast.NewModuleDecl(r, "M"), Decls: []ast.Decl{d1, d2}, File: "m.b65"}

	res := Analyze(prog)
	errs := res.Bus.ErrorsOnly()
	if len(errs) != 1 || errs[0].Code != "S004" {
		t.Fatalf("expected one S004, got %+v", errs)
	}
}

func TestUnknownIdentifierReportsS006(t *testing.T) {
	r := ast.NewRange("m.b65", 1, 1, 1, 1)
	body := ast.NewBlockStmt(r, []ast.Stmt{
		&ast.ExprStmt{X: ast.NewIdentExpr(r, "nope")},
	})
	fn := ast.NewFunctionDecl(r, "f", nil, typeRef("void"), body, false)
	prog := &ast.Program{Module: ast.NewModuleDecl(r, "M"), Decls: []ast.Decl{fn}, File: "m.b65"}

	res := Analyze(prog)
	errs := res.Bus.ErrorsOnly()
	found := false
	for _, e := range errs {
		if e.Code == "S006" {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected an S006 diagnostic, got %+v", errs)
	}
}

func TestBreakOutsideLoopReportsS009(t *testing.T) {
	r := ast.NewRange("m.b65", 1, 1, 1, 1)
	body := ast.NewBlockStmt(r, []ast.Stmt{&ast.BreakStmt{}})
	fn := ast.NewFunctionDecl(r, "f", nil, typeRef("void"), body, false)
	prog := &ast.Program{Module: ast.NewModuleDecl(r, "M"), Decls: []ast.Decl{fn}, File: "m.b65"}

	res := Analyze(prog)
	errs := res.Bus.ErrorsOnly()
	if len(errs) != 1 || errs[0].Code != "S009" {
		t.Fatalf("expected one S009, got %+v", errs)
	}
}

func TestDirectRecursionReportsS110(t *testing.T) {
	r := ast.NewRange("m.b65", 1, 1, 1, 1)
	selfCall := &ast.ExprStmt{X: &ast.CallExpr{Callee: ast.NewIdentExpr(r, "f")}}
	body := ast.NewBlockStmt(r, []ast.Stmt{selfCall})
	fn := ast.NewFunctionDecl(r, "f", nil, typeRef("void"), body, false)
	prog := &ast.Program{Module: ast.NewModuleDecl(r, "M"), Decls: []ast.Decl{fn}, File: "m.b65"}

	res := Analyze(prog)
	if !res.Success {
		t.Fatalf("expected sema success (recursion is reported post-success): %+v", res.Bus.All())
	}
	found := false
	for _, d := range res.Bus.All() {
		if d.Code == "S110" {
			found = true
		}
	}
	if !found {
		t.Fatal("expected S110 for direct recursion")
	}
}

func TestForLoopBuildsCFGAndLoop(t *testing.T) {
	r := ast.NewRange("m.b65", 1, 1, 1, 1)
	inner := ast.NewBlockStmt(r, []ast.Stmt{
		&ast.DeclStmt{Decl: ast.NewVariableDecl(r, "x", typeRef("byte"), ast.NewLiteralNumber(r, 1), false, false, ast.StorageDefault)},
	})
	forStmt := &ast.ForStmt{Var: "i", Start: ast.NewLiteralNumber(r, 0), End: ast.NewLiteralNumber(r, 3), Body: inner}
	body := ast.NewBlockStmt(r, []ast.Stmt{forStmt})
	fn := ast.NewFunctionDecl(r, "f", nil, typeRef("void"), body, false)
	prog := &ast.Program{Module: ast.NewModuleDecl(r, "M"), Decls: []ast.Decl{fn}, File: "m.b65"}

	res := Analyze(prog)
	if !res.Success {
		t.Fatalf("expected success: %+v", res.Bus.All())
	}
	if res.CFGs["f"] == nil {
		t.Fatal("expected a CFG for function f")
	}
	if len(res.Loops["f"]) != 1 {
		t.Fatalf("expected exactly one natural loop, got %d", len(res.Loops["f"]))
	}
}
