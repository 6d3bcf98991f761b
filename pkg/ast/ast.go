// Package ast defines the Blend65 abstract syntax tree: the tagged-tree
// contract the parser produces and every later phase consumes. Node kinds are a closed set switched on by Kind(),
// the idiomatic Go analogue of the source's OO visitor hierarchy.
package ast

import "github.com/blendsdk/blend65/pkg/source"

// Kind tags every node with its concrete shape, enabling exhaustive
// switches instead of virtual dispatch.
type Kind int

const (
	KindProgram Kind = iota
	KindModuleDecl
	KindImportDecl
	KindVariableDecl
	KindFunctionDecl
	KindTypeAliasDecl
	KindEnumDecl
	KindParam

	KindBlockStmt
	KindDeclStmt
	KindExprStmt
	KindIfStmt
	KindWhileStmt
	KindForStmt
	KindDoWhileStmt
	KindSwitchStmt
	KindMatchStmt
	KindBreakStmt
	KindContinueStmt
	KindReturnStmt

	KindLiteralExpr
	KindIdentExpr
	KindBinaryExpr
	KindUnaryExpr
	KindTernaryExpr
	KindCallExpr
	KindIndexExpr
	KindMemberExpr
	KindAssignExpr

	KindTypeRef
)

// LiteralKind distinguishes the four literal forms.
type LiteralKind int

const (
	LitNumber LiteralKind = iota
	LitString
	LitBoolean
	LitArray
)

// Node is implemented by every AST node. Metadata is a side-channel map
// keyed by analysis-specific string keys (alias region, points-to set,
// resolved type, ...) attached by later analysis passes.
type Node interface {
	Kind() Kind
	Range() source.Range
	Metadata() map[string]any
}

// base is embedded by every concrete node to provide Range/Metadata without
// repetition; it is never used as a Node on its own.
type base struct {
	Rng  source.Range
	Meta map[string]any
}

func (b *base) Range() source.Range { return b.Rng }

func (b *base) Metadata() map[string]any {
	if b.Meta == nil {
		b.Meta = map[string]any{}
	}
	return b.Meta
}

// SetMeta records an analysis result under key on the node.
func SetMeta(n Node, key string, value any) {
	n.Metadata()[key] = value
}

// GetMeta retrieves a previously recorded analysis result.
func GetMeta(n Node, key string) (any, bool) {
	v, ok := n.Metadata()[key]
	return v, ok
}

// ---- Declarations ----

// TypeRef is a syntactic type annotation: a name (primitive or alias/enum),
// an optional array length, and an optional pointer depth.
type TypeRef struct {
	base
	Name        string
	ArrayLen    Expr // nil if not an array
	PointerDeep int
	// Params/CBReturn are set only when Name == "callback": a callback
	// type names its parameter and return types inline rather than
	// referencing a declared function.
	Params   []*TypeRef
	CBReturn *TypeRef
}

func (t *TypeRef) Kind() Kind { return KindTypeRef }

// Program is the root of every compilation unit: one module declaration
// followed by its top-level declarations.
type Program struct {
	base
	Module *ModuleDecl
	Decls  []Decl
	File   string
}

func (p *Program) Kind() Kind { return KindProgram }

// Decl is implemented by every top-level declaration node.
type Decl interface {
	Node
	declNode()
}

// ModuleDecl names the module a Program belongs to.
type ModuleDecl struct {
	base
	Name string
}

func (d *ModuleDecl) Kind() Kind { return KindModuleDecl }
func (d *ModuleDecl) declNode()  {}

// ImportDecl imports one symbol from another module: `import X from Y`.
type ImportDecl struct {
	base
	Symbol string
	From   string
}

func (d *ImportDecl) Kind() Kind { return KindImportDecl }
func (d *ImportDecl) declNode()  {}

// StorageClass is the placement directive for a variable.
type StorageClass int

const (
	StorageDefault StorageClass = iota // no sigil: RAM, compiler-assigned
	StorageZP
	StorageRAM
	StorageData
	StorageMap // fixed hardware address, carries FixedAddr metadata
)

// VariableDecl declares a `let`/`const` binding, a function parameter, or a
// `@map`-backed hardware register alias.
type VariableDecl struct {
	base
	Name         string
	Type         *TypeRef
	Init         Expr // nil for uninitialized `let`
	Const        bool
	Exported     bool
	Storage      StorageClass
	FixedAddr    uint16 // valid when Storage == StorageMap
	HasFixedAddr bool
}

func (d *VariableDecl) Kind() Kind { return KindVariableDecl }
func (d *VariableDecl) declNode()  {}

// Param is a function parameter declaration.
type Param struct {
	base
	Name string
	Type *TypeRef
}

func (p *Param) Kind() Kind { return KindParam }

// FunctionDecl declares a function with parameters, return type, and body.
type FunctionDecl struct {
	base
	Name     string
	Params   []*Param
	Return   *TypeRef
	Body     *BlockStmt
	Exported bool
}

func (d *FunctionDecl) Kind() Kind { return KindFunctionDecl }
func (d *FunctionDecl) declNode()  {}

// TypeAliasDecl declares `type Name = <typeref>`.
type TypeAliasDecl struct {
	base
	Name string
	Type *TypeRef
}

func (d *TypeAliasDecl) Kind() Kind { return KindTypeAliasDecl }
func (d *TypeAliasDecl) declNode()  {}

// EnumMember is one `name [= value]` entry of an enum declaration.
type EnumMember struct {
	Name  string
	Value Expr // nil when implicitly 1 + previous
}

// EnumDecl declares an enumerated type.
type EnumDecl struct {
	base
	Name     string
	Members  []EnumMember
	Exported bool
}

func (d *EnumDecl) Kind() Kind { return KindEnumDecl }
func (d *EnumDecl) declNode()  {}

// ---- Statements ----

// Stmt is implemented by every statement node.
type Stmt interface {
	Node
	stmtNode()
}

// BlockStmt is a braced sequence of statements introducing a new scope.
type BlockStmt struct {
	base
	Stmts []Stmt
}

func (s *BlockStmt) Kind() Kind { return KindBlockStmt }
func (s *BlockStmt) stmtNode()  {}

// DeclStmt wraps a local `let`/`const`/`@map` declaration so it can appear
// inside a function body.
type DeclStmt struct {
	base
	Decl *VariableDecl
}

func (s *DeclStmt) Kind() Kind { return KindDeclStmt }
func (s *DeclStmt) stmtNode()  {}

// ExprStmt is an expression evaluated for effect.
type ExprStmt struct {
	base
	X Expr
}

func (s *ExprStmt) Kind() Kind { return KindExprStmt }
func (s *ExprStmt) stmtNode()  {}

// IfStmt is `if (Cond) Then [else Else]`.
type IfStmt struct {
	base
	Cond Expr
	Then *BlockStmt
	Else Stmt // *BlockStmt or *IfStmt (else-if chain), nil if absent
}

func (s *IfStmt) Kind() Kind { return KindIfStmt }
func (s *IfStmt) stmtNode()  {}

// WhileStmt is `while (Cond) Body`.
type WhileStmt struct {
	base
	Cond Expr
	Body *BlockStmt
}

func (s *WhileStmt) Kind() Kind { return KindWhileStmt }
func (s *WhileStmt) stmtNode()  {}

// ForStmt is `for (Var = Start to|downto End [step Step]) Body`.
type ForStmt struct {
	base
	Var     string
	Start   Expr
	End     Expr
	Step    Expr // nil implies 1
	Downto  bool
	Body    *BlockStmt
}

func (s *ForStmt) Kind() Kind { return KindForStmt }
func (s *ForStmt) stmtNode()  {}

// DoWhileStmt is `do Body while (Cond);`.
type DoWhileStmt struct {
	base
	Body *BlockStmt
	Cond Expr
}

func (s *DoWhileStmt) Kind() Kind { return KindDoWhileStmt }
func (s *DoWhileStmt) stmtNode()  {}

// SwitchCase is one `case Value: Body` arm.
type SwitchCase struct {
	Value Expr
	Body  []Stmt
}

// SwitchStmt is `switch (Tag) { case ...; default: ... }`.
type SwitchStmt struct {
	base
	Tag     Expr
	Cases   []SwitchCase
	Default []Stmt // nil if no default arm
}

func (s *SwitchStmt) Kind() Kind { return KindSwitchStmt }
func (s *SwitchStmt) stmtNode()  {}

// MatchStmt is reserved syntax: `match` is not a keyword and the parser
// never builds this node (a `match` statement in source fails to parse
// with P001), and pkg/ilgen has no lowering for it.
type MatchStmt struct {
	base
}

func (s *MatchStmt) Kind() Kind { return KindMatchStmt }
func (s *MatchStmt) stmtNode()  {}

// BreakStmt is `break;`.
type BreakStmt struct{ base }

func (s *BreakStmt) Kind() Kind { return KindBreakStmt }
func (s *BreakStmt) stmtNode()  {}

// ContinueStmt is `continue;`.
type ContinueStmt struct{ base }

func (s *ContinueStmt) Kind() Kind { return KindContinueStmt }
func (s *ContinueStmt) stmtNode()  {}

// ReturnStmt is `return [Value];`.
type ReturnStmt struct {
	base
	Value Expr // nil for `return;`
}

func (s *ReturnStmt) Kind() Kind { return KindReturnStmt }
func (s *ReturnStmt) stmtNode()  {}

// ---- Expressions ----

// Expr is implemented by every expression node.
type Expr interface {
	Node
	exprNode()
}

// LiteralExpr is a number, string, boolean, or array literal.
type LiteralExpr struct {
	base
	LitKind LiteralKind
	Number  uint64
	Str     string
	Bool    bool
	Elems   []Expr // for LitArray
}

func (e *LiteralExpr) Kind() Kind { return KindLiteralExpr }
func (e *LiteralExpr) exprNode()  {}

// IdentExpr references a symbol by name.
type IdentExpr struct {
	base
	Name string
}

func (e *IdentExpr) Kind() Kind { return KindIdentExpr }
func (e *IdentExpr) exprNode()  {}

// BinaryOp enumerates binary operators.
type BinaryOp int

const (
	OpAdd BinaryOp = iota
	OpSub
	OpMul
	OpDiv
	OpMod
	OpAnd
	OpOr
	OpXor
	OpShl
	OpShr
	OpEq
	OpNe
	OpLt
	OpLe
	OpGt
	OpGe
	OpLogicalAnd
	OpLogicalOr
)

// BinaryExpr is `Left Op Right`.
type BinaryExpr struct {
	base
	Op    BinaryOp
	Left  Expr
	Right Expr
}

func (e *BinaryExpr) Kind() Kind { return KindBinaryExpr }
func (e *BinaryExpr) exprNode()  {}

// UnaryOp enumerates unary operators.
type UnaryOp int

const (
	OpNeg UnaryOp = iota
	OpNot
	OpBitNot
)

// UnaryExpr is `Op X`.
type UnaryExpr struct {
	base
	Op UnaryOp
	X  Expr
}

func (e *UnaryExpr) Kind() Kind { return KindUnaryExpr }
func (e *UnaryExpr) exprNode()  {}

// TernaryExpr is `Cond ? Then : Else`.
type TernaryExpr struct {
	base
	Cond Expr
	Then Expr
	Else Expr
}

func (e *TernaryExpr) Kind() Kind { return KindTernaryExpr }
func (e *TernaryExpr) exprNode()  {}

// CallExpr is `Callee(Args...)`, including intrinsic names.
type CallExpr struct {
	base
	Callee Expr
	Args   []Expr
}

func (e *CallExpr) Kind() Kind { return KindCallExpr }
func (e *CallExpr) exprNode()  {}

// IndexExpr is `X[Index]`.
type IndexExpr struct {
	base
	X     Expr
	Index Expr
}

func (e *IndexExpr) Kind() Kind { return KindIndexExpr }
func (e *IndexExpr) exprNode()  {}

// MemberExpr is `X.Name`.
type MemberExpr struct {
	base
	X    Expr
	Name string
}

func (e *MemberExpr) Kind() Kind { return KindMemberExpr }
func (e *MemberExpr) exprNode()  {}

// AssignExpr is `Target = Value`, usable as a statement via ExprStmt.
type AssignExpr struct {
	base
	Target Expr
	Value  Expr
}

func (e *AssignExpr) Kind() Kind { return KindAssignExpr }
func (e *AssignExpr) exprNode()  {}

// NewRange is a small convenience so callers building nodes by hand (tests,
// the parser) don't repeat source.Range{...} literals.
func NewRange(file string, startLine, startCol, endLine, endCol int) source.Range {
	return source.Range{
		File:  file,
		Start: source.Pos{Line: startLine, Column: startCol},
		End:   source.Pos{Line: endLine, Column: endCol},
	}
}

func withRange(r source.Range) base { return base{Rng: r} }

// Constructors below give every node a uniform `New<Kind>(range, ...)` entry
// point.

func NewModuleDecl(r source.Range, name string) *ModuleDecl {
	return &ModuleDecl{base: withRange(r), Name: name}
}

func NewImportDecl(r source.Range, symbol, from string) *ImportDecl {
	return &ImportDecl{base: withRange(r), Symbol: symbol, From: from}
}

func NewVariableDecl(r source.Range, name string, typ *TypeRef, init Expr, isConst, exported bool, storage StorageClass) *VariableDecl {
	return &VariableDecl{base: withRange(r), Name: name, Type: typ, Init: init, Const: isConst, Exported: exported, Storage: storage}
}

func NewFunctionDecl(r source.Range, name string, params []*Param, ret *TypeRef, body *BlockStmt, exported bool) *FunctionDecl {
	return &FunctionDecl{base: withRange(r), Name: name, Params: params, Return: ret, Body: body, Exported: exported}
}

func NewBlockStmt(r source.Range, stmts []Stmt) *BlockStmt {
	return &BlockStmt{base: withRange(r), Stmts: stmts}
}

func NewIdentExpr(r source.Range, name string) *IdentExpr {
	return &IdentExpr{base: withRange(r), Name: name}
}

func NewLiteralNumber(r source.Range, v uint64) *LiteralExpr {
	return &LiteralExpr{base: withRange(r), LitKind: LitNumber, Number: v}
}

func NewBinaryExpr(r source.Range, op BinaryOp, l, rhs Expr) *BinaryExpr {
	return &BinaryExpr{base: withRange(r), Op: op, Left: l, Right: rhs}
}

func NewTypeRef(r source.Range, name string, arrayLen Expr, pointerDeep int) *TypeRef {
	return &TypeRef{base: withRange(r), Name: name, ArrayLen: arrayLen, PointerDeep: pointerDeep}
}

func NewCallbackTypeRef(r source.Range, params []*TypeRef, ret *TypeRef) *TypeRef {
	return &TypeRef{base: withRange(r), Name: "callback", Params: params, CBReturn: ret}
}

func NewParam(r source.Range, name string, typ *TypeRef) *Param {
	return &Param{base: withRange(r), Name: name, Type: typ}
}

func NewTypeAliasDecl(r source.Range, name string, typ *TypeRef) *TypeAliasDecl {
	return &TypeAliasDecl{base: withRange(r), Name: name, Type: typ}
}

func NewEnumDecl(r source.Range, name string, members []EnumMember, exported bool) *EnumDecl {
	return &EnumDecl{base: withRange(r), Name: name, Members: members, Exported: exported}
}

func NewDeclStmt(r source.Range, decl *VariableDecl) *DeclStmt {
	return &DeclStmt{base: withRange(r), Decl: decl}
}

func NewExprStmt(r source.Range, x Expr) *ExprStmt {
	return &ExprStmt{base: withRange(r), X: x}
}

func NewIfStmt(r source.Range, cond Expr, then *BlockStmt, els Stmt) *IfStmt {
	return &IfStmt{base: withRange(r), Cond: cond, Then: then, Else: els}
}

func NewWhileStmt(r source.Range, cond Expr, body *BlockStmt) *WhileStmt {
	return &WhileStmt{base: withRange(r), Cond: cond, Body: body}
}

func NewForStmt(r source.Range, v string, start, end, step Expr, downto bool, body *BlockStmt) *ForStmt {
	return &ForStmt{base: withRange(r), Var: v, Start: start, End: end, Step: step, Downto: downto, Body: body}
}

func NewDoWhileStmt(r source.Range, body *BlockStmt, cond Expr) *DoWhileStmt {
	return &DoWhileStmt{base: withRange(r), Body: body, Cond: cond}
}

func NewSwitchStmt(r source.Range, tag Expr, cases []SwitchCase, def []Stmt) *SwitchStmt {
	return &SwitchStmt{base: withRange(r), Tag: tag, Cases: cases, Default: def}
}

func NewMatchStmt(r source.Range) *MatchStmt {
	return &MatchStmt{base: withRange(r)}
}

func NewBreakStmt(r source.Range) *BreakStmt {
	return &BreakStmt{base: withRange(r)}
}

func NewContinueStmt(r source.Range) *ContinueStmt {
	return &ContinueStmt{base: withRange(r)}
}

func NewReturnStmt(r source.Range, value Expr) *ReturnStmt {
	return &ReturnStmt{base: withRange(r), Value: value}
}

func NewLiteralString(r source.Range, s string) *LiteralExpr {
	return &LiteralExpr{base: withRange(r), LitKind: LitString, Str: s}
}

func NewLiteralBool(r source.Range, b bool) *LiteralExpr {
	return &LiteralExpr{base: withRange(r), LitKind: LitBoolean, Bool: b}
}

func NewLiteralArray(r source.Range, elems []Expr) *LiteralExpr {
	return &LiteralExpr{base: withRange(r), LitKind: LitArray, Elems: elems}
}

func NewUnaryExpr(r source.Range, op UnaryOp, x Expr) *UnaryExpr {
	return &UnaryExpr{base: withRange(r), Op: op, X: x}
}

func NewTernaryExpr(r source.Range, cond, then, els Expr) *TernaryExpr {
	return &TernaryExpr{base: withRange(r), Cond: cond, Then: then, Else: els}
}

func NewCallExpr(r source.Range, callee Expr, args []Expr) *CallExpr {
	return &CallExpr{base: withRange(r), Callee: callee, Args: args}
}

func NewIndexExpr(r source.Range, x, index Expr) *IndexExpr {
	return &IndexExpr{base: withRange(r), X: x, Index: index}
}

func NewMemberExpr(r source.Range, x Expr, name string) *MemberExpr {
	return &MemberExpr{base: withRange(r), X: x, Name: name}
}

func NewAssignExpr(r source.Range, target, value Expr) *AssignExpr {
	return &AssignExpr{base: withRange(r), Target: target, Value: value}
}

func NewProgram(r source.Range, file string, mod *ModuleDecl, decls []Decl) *Program {
	return &Program{base: withRange(r), File: file, Module: mod, Decls: decls}
}
