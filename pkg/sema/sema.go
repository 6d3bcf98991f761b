// Package sema implements the semantic analyzer: the four-visitor pipeline
// (symbol-table builder, type resolver, type checker, control-flow
// analyzer) plus the loop, alias, and recursion analyses run on success.
package sema

import (
	"github.com/blendsdk/blend65/pkg/alias"
	"github.com/blendsdk/blend65/pkg/ast"
	"github.com/blendsdk/blend65/pkg/cfg"
	"github.com/blendsdk/blend65/pkg/diag"
	"github.com/blendsdk/blend65/pkg/source"
	"github.com/blendsdk/blend65/pkg/symbols"
	"github.com/blendsdk/blend65/pkg/types"
)

// Result is the four-tuple `analyze` returns, extended with the
// loop/alias/recursion outputs invoked on success.
type Result struct {
	Success bool
	Bus     *diag.Bus
	Table   *symbols.Table

	CFGs      map[string]*cfg.Graph // keyed by function name
	Loops     map[string][]cfg.Loop
	Alias     *alias.Analysis
	FuncTypes map[string]*types.Type // keyed by function name, for cross-phase reuse

	// Scopes maps every scope-introducing AST node (a function/block/for
	// node) to the exact *symbols.Scope pass 1 created for it, so later
	// phases (pkg/ilgen) can resolve identifiers through the same scope
	// objects instead of rebuilding a parallel tree.
	Scopes map[ast.Node]*symbols.Scope
}

// Analyze runs the full pipeline over one module's Program.
func Analyze(prog *ast.Program) *Result {
	bus := diag.New()
	table := symbols.NewTable()

	a := &analyzer{prog: prog, bus: bus, table: table, funcTypes: map[string]*types.Type{}, scopes: map[ast.Node]*symbols.Scope{}}
	a.buildSymbols()
	a.resolveTypes()
	if !bus.HasErrors() {
		a.checkTypes()
	}

	res := &Result{
		Success:   !bus.HasErrors(),
		Bus:       bus,
		Table:     table,
		FuncTypes: a.funcTypes,
		Scopes:    a.scopes,
	}
	if !res.Success {
		return res
	}

	res.CFGs = map[string]*cfg.Graph{}
	res.Loops = map[string][]cfg.Loop{}
	for _, d := range prog.Decls {
		fn, ok := d.(*ast.FunctionDecl)
		if !ok || fn.Body == nil {
			continue
		}
		g := cfg.Build(fn.Body)
		res.CFGs[fn.Name] = g
		doms := cfg.Dominators(g)
		res.Loops[fn.Name] = cfg.NaturalLoops(g, doms)
	}

	res.Alias = buildAlias(prog, table, bus)
	detectRecursion(prog, bus)

	return res
}

type analyzer struct {
	prog      *ast.Program
	bus       *diag.Bus
	table     *symbols.Table
	funcTypes map[string]*types.Type
	mainSeen  bool

	// scopes remembers the exact *symbols.Scope pass 1 created for each
	// scope-introducing node, so passes 2 and 3 can look symbols up in the
	// SAME scope objects instead of rebuilding a parallel (empty) tree.
	scopes map[ast.Node]*symbols.Scope
}

// ---- Pass 1: symbol-table builder ----

func (a *analyzer) buildSymbols() {
	for _, d := range a.prog.Decls {
		switch n := d.(type) {
		case *ast.ImportDecl:
			sym := &symbols.Symbol{Name: n.Symbol, Kind: symbols.KindImported, Decl: n.Range(), Node: n}
			a.declare(a.table.Root(), sym, n.Range())
		case *ast.VariableDecl:
			a.declareVariable(a.table.Root(), n)
		case *ast.FunctionDecl:
			a.declareFunction(n)
		case *ast.TypeAliasDecl:
			sym := &symbols.Symbol{Name: n.Name, Kind: symbols.KindType, Exported: false, Decl: n.Range(), Node: n}
			a.declare(a.table.Root(), sym, n.Range())
		case *ast.EnumDecl:
			esym := &symbols.Symbol{Name: n.Name, Kind: symbols.KindEnum, Exported: n.Exported, Decl: n.Range(), Node: n}
			a.declare(a.table.Root(), esym, n.Range())
			for _, m := range n.Members {
				msym := &symbols.Symbol{Name: m.Name, Kind: symbols.KindEnumMember, Decl: n.Range(), Node: n}
				a.declare(a.table.Root(), msym, n.Range())
			}
		}
	}
}

func (a *analyzer) declareVariable(scope *symbols.Scope, n *ast.VariableDecl) {
	if n.Name == "main" && n.Exported {
		if a.mainSeen {
			a.bus.Errorf("S005", n.Range(), "duplicate exported main")
		}
		a.mainSeen = true
	}
	storage := mapStorage(n.Storage)
	sym := &symbols.Symbol{
		Name: n.Name, Kind: symbols.KindVariable, Storage: storage,
		Exported: n.Exported, Const: n.Const, Decl: n.Range(), Node: n,
	}
	a.declare(scope, sym, n.Range())
}

// mapStorage reconciles ast.StorageClass (which has a zero-value
// StorageDefault for un-sigiled variables) with symbols.StorageClass
// (which has no such slot): an un-sigiled declaration is ordinary,
// compiler-assigned RAM.
func mapStorage(s ast.StorageClass) symbols.StorageClass {
	switch s {
	case ast.StorageZP:
		return symbols.StorageZP
	case ast.StorageData:
		return symbols.StorageData
	case ast.StorageMap:
		return symbols.StorageMap
	default:
		return symbols.StorageRAM
	}
}

func (a *analyzer) declareFunction(n *ast.FunctionDecl) {
	if n.Name == "main" && n.Exported {
		if a.mainSeen {
			a.bus.Errorf("S005", n.Range(), "duplicate exported main")
		}
		a.mainSeen = true
	}
	sym := &symbols.Symbol{Name: n.Name, Kind: symbols.KindFunction, Exported: n.Exported, Decl: n.Range(), Node: n}
	a.declare(a.table.Root(), sym, n.Range())

	fnScope := a.table.Enter(symbols.ScopeFunction, n)
	a.scopes[n] = fnScope
	for _, p := range n.Params {
		psym := &symbols.Symbol{Name: p.Name, Kind: symbols.KindParameter, Decl: p.Range(), Node: p}
		a.declare(fnScope, psym, p.Range())
	}
	if n.Body != nil {
		a.buildBlockScope(n.Body)
	}
	a.table.Exit()
}

func (a *analyzer) buildBlockScope(b *ast.BlockStmt) {
	blk := a.table.Enter(symbols.ScopeBlock, b)
	a.scopes[b] = blk
	for _, stmt := range b.Stmts {
		a.buildStmtScope(stmt)
	}
	a.table.Exit()
}

func (a *analyzer) buildStmtScope(stmt ast.Stmt) {
	switch s := stmt.(type) {
	case *ast.DeclStmt:
		a.declareVariable(a.table.Current(), s.Decl)
	case *ast.BlockStmt:
		a.buildBlockScope(s)
	case *ast.IfStmt:
		a.buildBlockScope(s.Then)
		if s.Else != nil {
			switch e := s.Else.(type) {
			case *ast.BlockStmt:
				a.buildBlockScope(e)
			default:
				a.buildStmtScope(e)
			}
		}
	case *ast.WhileStmt:
		a.buildBlockScope(s.Body)
	case *ast.DoWhileStmt:
		a.buildBlockScope(s.Body)
	case *ast.ForStmt:
		loopScope := a.table.Enter(symbols.ScopeBlock, s)
		a.scopes[s] = loopScope
		ivar := &symbols.Symbol{Name: s.Var, Kind: symbols.KindVariable, Storage: symbols.StorageRAM, Decl: s.Range(), Node: s}
		a.declare(loopScope, ivar, s.Range())
		for _, st := range s.Body.Stmts {
			a.buildStmtScope(st)
		}
		a.table.Exit()
	case *ast.SwitchStmt:
		for _, c := range s.Cases {
			for _, cs := range c.Body {
				a.buildStmtScope(cs)
			}
		}
		for _, ds := range s.Default {
			a.buildStmtScope(ds)
		}
	}
}

func (a *analyzer) declare(scope *symbols.Scope, sym *symbols.Symbol, at source.Range) {
	if err := scope.Declare(sym); err != nil {
		a.bus.Errorf("S004", at, err.Error())
	}
}
