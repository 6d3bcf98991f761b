// Package module implements the module registry, dependency graph, cycle
// detection, and cross-module import resolution.
package module

import (
	"fmt"

	"github.com/blendsdk/blend65/pkg/ast"
	"github.com/blendsdk/blend65/pkg/diag"
	"github.com/blendsdk/blend65/pkg/source"
	"github.com/blendsdk/blend65/pkg/symbols"
)

// Entry is one registered module: its parsed program, originating file
// path, and the names it depends on (populated by AddDependency from the
// module's import declarations).
type Entry struct {
	Name    string
	Program *ast.Program
	Path    string
	Deps    []string
}

// Registry maps module name -> Entry. Duplicate registration is the only
// construction-time fatal error in the whole compiler.
type Registry struct {
	byName map[string]*Entry
	order  []string
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{byName: map[string]*Entry{}}
}

// Register adds a module. It returns an error (not a diagnostic) on a
// duplicate name, per spec's fatal-construction-error rule.
func (r *Registry) Register(name, path string, prog *ast.Program) error {
	if _, exists := r.byName[name]; exists {
		return fmt.Errorf("module: duplicate module registration for %q", name)
	}
	r.byName[name] = &Entry{Name: name, Program: prog, Path: path}
	r.order = append(r.order, name)
	return nil
}

// Lookup returns the registered entry for name.
func (r *Registry) Lookup(name string) (*Entry, bool) {
	e, ok := r.byName[name]
	return e, ok
}

// Names returns every registered module name in registration order.
func (r *Registry) Names() []string {
	out := make([]string, len(r.order))
	copy(out, r.order)
	return out
}

// AddDependency records that module `from` imports module `to`.
func (r *Registry) AddDependency(from, to string) {
	e := r.byName[from]
	e.Deps = append(e.Deps, to)
}

// Graph is the directed dependency graph derived from a Registry.
type Graph struct {
	reg *Registry
}

// NewGraph wraps a Registry as its dependency graph view.
func NewGraph(reg *Registry) *Graph { return &Graph{reg: reg} }

// sccState is Tarjan's algorithm working state.
type sccState struct {
	index   map[string]int
	low     map[string]int
	onStack map[string]bool
	stack   []string
	next    int
	sccs    [][]string
}

// StronglyConnectedComponents runs Tarjan's algorithm over the dependency
// graph, in registration order for determinism.
func (g *Graph) StronglyConnectedComponents() [][]string {
	st := &sccState{index: map[string]int{}, low: map[string]int{}, onStack: map[string]bool{}}
	for _, name := range g.reg.Names() {
		if _, visited := st.index[name]; !visited {
			g.strongConnect(name, st)
		}
	}
	return st.sccs
}

func (g *Graph) strongConnect(v string, st *sccState) {
	st.index[v] = st.next
	st.low[v] = st.next
	st.next++
	st.stack = append(st.stack, v)
	st.onStack[v] = true

	if e, ok := g.reg.Lookup(v); ok {
		for _, w := range e.Deps {
			if _, visited := st.index[w]; !visited {
				g.strongConnect(w, st)
				if st.low[w] < st.low[v] {
					st.low[v] = st.low[w]
				}
			} else if st.onStack[w] {
				if st.index[w] < st.low[v] {
					st.low[v] = st.index[w]
				}
			}
		}
	}

	if st.low[v] == st.index[v] {
		var comp []string
		for {
			n := len(st.stack) - 1
			w := st.stack[n]
			st.stack = st.stack[:n]
			st.onStack[w] = false
			comp = append(comp, w)
			if w == v {
				break
			}
		}
		st.sccs = append(st.sccs, comp)
	}
}

// DetectCycles reports a P106 diagnostic for every non-trivial SCC (a cycle
// of 2+ modules, or a single module depending on itself).
func DetectCycles(reg *Registry, bus *diag.Bus) {
	g := NewGraph(reg)
	for _, comp := range g.StronglyConnectedComponents() {
		cyclic := len(comp) > 1
		if len(comp) == 1 {
			if e, ok := reg.Lookup(comp[0]); ok {
				for _, d := range e.Deps {
					if d == comp[0] {
						cyclic = true
					}
				}
			}
		}
		if cyclic {
			loc := moduleLoc(reg, comp[0])
			bus.Errorf("P106", loc, fmt.Sprintf("cyclic module dependency involving %v", comp))
		}
	}
}

func moduleLoc(reg *Registry, name string) source.Range {
	if e, ok := reg.Lookup(name); ok && e.Program != nil && e.Program.Module != nil {
		return e.Program.Module.Range()
	}
	return source.Range{}
}

// ExportSet is the set of symbols a module exposes, keyed by local name.
type ExportSet map[string]*symbols.Symbol

// GlobalTable merges every module's exported symbols, keyed by
// "module.name".
type GlobalTable struct {
	byQualified map[string]*symbols.Symbol
}

// NewGlobalTable builds the merged export table from per-module export sets.
// Collisions (which should be impossible given the module-qualified key,
// but are checked defensively since a prior phase bug could produce one)
// are reported as compiler-internal errors.
func NewGlobalTable(exports map[string]ExportSet, bus *diag.Bus) *GlobalTable {
	gt := &GlobalTable{byQualified: map[string]*symbols.Symbol{}}
	for modName, set := range exports {
		for symName, sym := range set {
			key := modName + "." + symName
			if _, exists := gt.byQualified[key]; exists {
				bus.Errorf("S900", sym.Decl, fmt.Sprintf("compiler internal: duplicate global symbol %q", key))
				continue
			}
			gt.byQualified[key] = sym
		}
	}
	return gt
}

// Lookup finds a symbol by its fully qualified "module.name" key.
func (gt *GlobalTable) Lookup(qualified string) (*symbols.Symbol, bool) {
	sym, ok := gt.byQualified[qualified]
	return sym, ok
}

// ResolveImport locates imp.Symbol within the exports of imp.From, emitting
// P105/P107/P108 as appropriate.
func ResolveImport(reg *Registry, exports map[string]ExportSet, imp *ast.ImportDecl, bus *diag.Bus) (*symbols.Symbol, bool) {
	target, ok := reg.Lookup(imp.From)
	if !ok {
		bus.Errorf("P105", imp.Range(), fmt.Sprintf("module %q not found", imp.From))
		return nil, false
	}
	set, ok := exports[target.Name]
	if !ok {
		bus.Errorf("P108", imp.Range(), fmt.Sprintf("symbol %q not found in module %q", imp.Symbol, imp.From))
		return nil, false
	}
	sym, ok := set[imp.Symbol]
	if !ok {
		if declaredButNotExported(reg, target.Name, imp.Symbol) {
			bus.Errorf("P107", imp.Range(), fmt.Sprintf("symbol %q is not exported by module %q", imp.Symbol, imp.From))
		} else {
			bus.Errorf("P108", imp.Range(), fmt.Sprintf("symbol %q not found in module %q", imp.Symbol, imp.From))
		}
		return nil, false
	}
	return sym, true
}

// declaredButNotExported does a best-effort scan of the target program's
// top-level declarations to distinguish "exists but private" (P107) from
// "doesn't exist at all" (P108).
func declaredButNotExported(reg *Registry, moduleName, symbolName string) bool {
	e, ok := reg.Lookup(moduleName)
	if !ok || e.Program == nil {
		return false
	}
	for _, d := range e.Program.Decls {
		switch n := d.(type) {
		case *ast.VariableDecl:
			if n.Name == symbolName {
				return true
			}
		case *ast.FunctionDecl:
			if n.Name == symbolName {
				return true
			}
		case *ast.EnumDecl:
			if n.Name == symbolName {
				return true
			}
		case *ast.TypeAliasDecl:
			if n.Name == symbolName {
				return true
			}
		}
	}
	return false
}
