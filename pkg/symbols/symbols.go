// Package symbols implements the scope tree and symbol declarations/lookup
// rules shared by every module.
package symbols

import (
	"fmt"

	"github.com/blendsdk/blend65/pkg/ast"
	"github.com/blendsdk/blend65/pkg/source"
	"github.com/blendsdk/blend65/pkg/types"
)

// Kind classifies a symbol's role.
type Kind int

const (
	KindVariable Kind = iota
	KindFunction
	KindParameter
	KindMapVariable
	KindImported
	KindType
	KindEnum
	KindEnumMember
)

// StorageClass mirrors ast.StorageClass at the symbol-table layer so this
// package doesn't force every caller to depend on ast's decl-only sigil type.
type StorageClass int

const (
	StorageZP StorageClass = iota
	StorageRAM
	StorageData
	StorageMap
)

// Symbol is a declared name: its kind, storage, type, and declaration site.
type Symbol struct {
	Name     string
	Kind     Kind
	Storage  StorageClass
	Exported bool
	Const    bool
	Type     *types.Type
	Scope    *Scope
	Decl     source.Range
	Node     ast.Node
	Metadata map[string]any
}

// ScopeKind distinguishes the three nesting levels a scope can represent.
type ScopeKind int

const (
	ScopeModule ScopeKind = iota
	ScopeFunction
	ScopeBlock
)

// Scope is one node of the scope tree: a symbol table keyed by name, with
// insertion-order iteration for deterministic output.
type Scope struct {
	ID       int
	Kind     ScopeKind
	Parent   *Scope
	Children []*Scope
	IntroBy  ast.Node

	order   []string
	symbols map[string]*Symbol
}

func newScope(id int, kind ScopeKind, parent *Scope, introBy ast.Node) *Scope {
	s := &Scope{ID: id, Kind: kind, Parent: parent, IntroBy: introBy, symbols: map[string]*Symbol{}}
	if parent != nil {
		parent.Children = append(parent.Children, s)
	}
	return s
}

// Declare adds sym to the current scope, erroring if the name already
// exists in THIS scope (shadowing an outer scope's symbol is allowed).
func (s *Scope) Declare(sym *Symbol) error {
	if _, exists := s.symbols[sym.Name]; exists {
		return fmt.Errorf("duplicate declaration of %q in scope %d", sym.Name, s.ID)
	}
	sym.Scope = s
	s.symbols[sym.Name] = sym
	s.order = append(s.order, sym.Name)
	return nil
}

// LookupLocal returns the symbol named name in this scope only.
func (s *Scope) LookupLocal(name string) (*Symbol, bool) {
	sym, ok := s.symbols[name]
	return sym, ok
}

// Lookup walks from s up through parents, returning the nearest symbol
// named name.
func (s *Scope) Lookup(name string) (*Symbol, bool) {
	for cur := s; cur != nil; cur = cur.Parent {
		if sym, ok := cur.symbols[name]; ok {
			return sym, true
		}
	}
	return nil, false
}

// SymbolsInScope returns this scope's own symbols in declaration order.
func (s *Scope) SymbolsInScope() []*Symbol {
	out := make([]*Symbol, 0, len(s.order))
	for _, name := range s.order {
		out = append(out, s.symbols[name])
	}
	return out
}

// VisibleSymbols returns every symbol visible from s: its own symbols plus
// every ancestor's, innermost first, each name appearing only once (the
// innermost declaration shadows outer ones).
func (s *Scope) VisibleSymbols() []*Symbol {
	seen := map[string]bool{}
	var out []*Symbol
	for cur := s; cur != nil; cur = cur.Parent {
		for _, name := range cur.order {
			if seen[name] {
				continue
			}
			seen[name] = true
			out = append(out, cur.symbols[name])
		}
	}
	return out
}

// Table owns the scope tree for one module: scope creation, and the
// enter/exit/current cursor the semantic analyzer's visitors drive.
type Table struct {
	root    *Scope
	current *Scope
	nextID  int
}

// NewTable creates a table with a fresh module-level root scope.
func NewTable() *Table {
	t := &Table{}
	t.root = t.create(ScopeModule, nil, nil)
	t.current = t.root
	return t
}

func (t *Table) create(kind ScopeKind, parent *Scope, introBy ast.Node) *Scope {
	id := t.nextID
	t.nextID++
	return newScope(id, kind, parent, introBy)
}

// Root returns the table's module-level scope.
func (t *Table) Root() *Scope { return t.root }

// Current returns the scope the analyzer is presently declaring into.
func (t *Table) Current() *Scope { return t.current }

// Enter creates and descends into a new child scope of Current, returning it.
func (t *Table) Enter(kind ScopeKind, introBy ast.Node) *Scope {
	child := t.create(kind, t.current, introBy)
	t.current = child
	return child
}

// Exit ascends back to Current's parent. It panics if called at the root,
// since that is always a compiler bug (unbalanced enter/exit calls).
func (t *Table) Exit() {
	if t.current.Parent == nil {
		panic("symbols: Exit called at root scope")
	}
	t.current = t.current.Parent
}
