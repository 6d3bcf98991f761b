// Package parser implements a standard hand-written recursive-descent
// parser over pkg/lexer's token stream, producing the pkg/ast tree every
// later phase consumes. It is the concrete instance of the §6 "token/AST
// contract" spec.md places out of the hard core's scope, modeled after the
// teacher's (cmd/z80opt) flat, struct-driven style rather than a parser
// generator or combinator library.
package parser

import (
	"fmt"

	"github.com/blendsdk/blend65/pkg/ast"
	"github.com/blendsdk/blend65/pkg/diag"
	"github.com/blendsdk/blend65/pkg/lexer"
	"github.com/blendsdk/blend65/pkg/source"
	"github.com/blendsdk/blend65/pkg/token"
)

// Parser turns one file's token stream into a Program, reporting P-coded
// diagnostics on the bus as it goes rather than aborting on the first
// syntax error: it resyncs to the next statement/declaration boundary and
// keeps going, the same recover-and-continue discipline every other phase
// in this compiler follows.
type Parser struct {
	file string
	toks []token.Token
	pos  int
	bus  *diag.Bus
}

// Parse tokenizes src (attributing positions to file) and parses it into a
// Program. Lexical errors are funneled onto the returned bus as P001
// diagnostics before parsing begins, matching the lexer's own doc comment
// contract ("the parser is expected to funnel these into the diagnostic
// bus as P-coded errors").
func Parse(file, src string) (*ast.Program, *diag.Bus) {
	bus := diag.New()
	toks, lexErrs := lexer.All(file, src)
	for _, e := range lexErrs {
		bus.Errorf("P001", source.Range{File: file}, e.Error())
	}
	p := &Parser{file: file, toks: toks, bus: bus}
	return p.parseProgram(), bus
}

func (p *Parser) cur() token.Token {
	if p.pos >= len(p.toks) {
		return p.toks[len(p.toks)-1] // EOF
	}
	return p.toks[p.pos]
}

func (p *Parser) peekAt(n int) token.Token {
	idx := p.pos + n
	if idx >= len(p.toks) {
		return p.toks[len(p.toks)-1]
	}
	return p.toks[idx]
}

func (p *Parser) advance() token.Token {
	t := p.cur()
	if p.pos < len(p.toks)-1 {
		p.pos++
	}
	return t
}

func (p *Parser) check(k token.Kind) bool { return p.cur().Kind == k }

func (p *Parser) atEnd() bool { return p.cur().Kind == token.EOF }

// expect consumes the current token if it has kind k, reporting code/msg
// and returning the zero Token without advancing if not (callers go on to
// recover at the nearest statement boundary).
func (p *Parser) expect(k token.Kind, code, msg string) (token.Token, bool) {
	if p.check(k) {
		return p.advance(), true
	}
	p.bus.Errorf(code, p.cur().Range, msg)
	return token.Token{}, false
}

func (p *Parser) errorf(code string, r source.Range, format string, args ...any) {
	p.bus.Errorf(code, r, fmt.Sprintf(format, args...))
}

// syncTo advances past tokens until it reaches one of kinds (inclusive) or
// EOF, so a syntax error in one statement doesn't cascade into bogus
// errors for the rest of the file.
func (p *Parser) syncTo(kinds ...token.Kind) {
	for !p.atEnd() {
		for _, k := range kinds {
			if p.check(k) {
				return
			}
		}
		p.advance()
	}
}

// spanFrom builds the range from start to the end of the token just
// consumed (pos-1), the idiom every multi-token construct in this parser
// uses to compute its own source.Range.
func (p *Parser) spanFrom(start source.Pos) source.Range {
	end := start
	if p.pos > 0 {
		end = p.toks[p.pos-1].Range.End
	}
	return source.Range{File: p.file, Start: start, End: end}
}

func (p *Parser) here() source.Pos { return p.cur().Range.Start }

// ---- Program / declarations ----

func (p *Parser) parseProgram() *ast.Program {
	start := p.here()
	var mod *ast.ModuleDecl
	if p.check(token.KwModule) {
		mod = p.parseModuleDecl()
	} else {
		p.errorf("P201", p.cur().Range, "a module declaration must be the first thing in the file")
	}

	var decls []ast.Decl
	for !p.atEnd() {
		if p.check(token.KwModule) {
			p.errorf("P201", p.cur().Range, "only one module declaration is allowed per file")
			p.syncTo(token.Semicolon)
			if p.check(token.Semicolon) {
				p.advance()
			}
			continue
		}
		d := p.parseDecl()
		if d != nil {
			decls = append(decls, d)
		}
	}
	return ast.NewProgram(p.spanFrom(start), p.file, mod, decls)
}

func (p *Parser) parseModuleDecl() *ast.ModuleDecl {
	start := p.here()
	p.advance() // 'module'
	nameTok, ok := p.expect(token.Ident, "P001", "expected module name")
	if !ok {
		p.syncTo(token.Semicolon)
	}
	if p.check(token.Semicolon) {
		p.advance()
	} else {
		p.errorf("P001", p.cur().Range, "expected ';' after module declaration")
	}
	return ast.NewModuleDecl(p.spanFrom(start), nameTok.Text)
}

func (p *Parser) parseDecl() ast.Decl {
	switch p.cur().Kind {
	case token.KwImport:
		return p.parseImportDecl()
	case token.KwExport:
		return p.parseExportedDecl()
	case token.KwLet, token.KwConst, token.AtZp, token.AtRam, token.AtData, token.AtMap:
		return p.parseVariableDecl(false)
	case token.KwFunction:
		return p.parseFunctionDecl(false)
	case token.KwType:
		return p.parseTypeAliasDecl()
	case token.KwEnum:
		return p.parseEnumDecl(false)
	default:
		p.errorf("P202", p.cur().Range, "executable code is not allowed at module scope")
		p.syncTo(token.Semicolon, token.RBrace)
		if p.check(token.Semicolon) {
			p.advance()
		}
		return nil
	}
}

func (p *Parser) parseExportedDecl() ast.Decl {
	p.advance() // 'export'
	switch p.cur().Kind {
	case token.KwFunction:
		return p.parseFunctionDecl(true)
	case token.KwLet, token.KwConst, token.AtZp, token.AtRam, token.AtData, token.AtMap:
		return p.parseVariableDecl(true)
	case token.KwEnum:
		return p.parseEnumDecl(true)
	default:
		p.errorf("P001", p.cur().Range, "'export' must precede a function, variable, or enum declaration")
		p.syncTo(token.Semicolon)
		if p.check(token.Semicolon) {
			p.advance()
		}
		return nil
	}
}

func (p *Parser) parseImportDecl() *ast.ImportDecl {
	start := p.here()
	p.advance() // 'import'
	symTok, _ := p.expect(token.Ident, "P001", "expected imported symbol name")
	p.expect(token.KwFrom, "P101", "expected 'from' after imported symbol name")
	fromTok, _ := p.expect(token.Ident, "P101", "expected source module name after 'from'")
	p.expect(token.Semicolon, "P001", "expected ';' after import declaration")
	return ast.NewImportDecl(p.spanFrom(start), symTok.Text, fromTok.Text)
}

func (p *Parser) parseVariableDecl(exported bool) *ast.VariableDecl {
	start := p.here()
	storage := ast.StorageDefault
	var fixedAddr uint16
	hasFixedAddr := false

	switch p.cur().Kind {
	case token.AtZp:
		storage = ast.StorageZP
		p.advance()
	case token.AtRam:
		storage = ast.StorageRAM
		p.advance()
	case token.AtData:
		storage = ast.StorageData
		p.advance()
	case token.AtMap:
		storage = ast.StorageMap
		p.advance()
		p.expect(token.LParen, "P001", "expected '(' after @map")
		addrTok, ok := p.expect(token.Number, "P001", "expected a fixed hardware address")
		if ok {
			fixedAddr = uint16(addrTok.IntVal)
			hasFixedAddr = true
		}
		p.expect(token.RParen, "P001", "expected ')' after @map address")
	}

	isConst := false
	switch p.cur().Kind {
	case token.KwConst:
		isConst = true
		p.advance()
	case token.KwLet:
		p.advance()
	default:
		p.errorf("P001", p.cur().Range, "expected 'let' or 'const'")
	}

	nameTok, _ := p.expect(token.Ident, "P001", "expected a variable name")
	p.expect(token.Colon, "P001", "expected ':' after variable name")
	typ := p.parseTypeRef()

	var init ast.Expr
	if p.check(token.Assign) {
		p.advance()
		init = p.parseExpression()
	}
	p.expect(token.Semicolon, "P001", "expected ';' after variable declaration")

	decl := ast.NewVariableDecl(p.spanFrom(start), nameTok.Text, typ, init, isConst, exported, storage)
	decl.FixedAddr = fixedAddr
	decl.HasFixedAddr = hasFixedAddr
	return decl
}

func (p *Parser) parseFunctionDecl(exported bool) *ast.FunctionDecl {
	start := p.here()
	p.advance() // 'function'
	nameTok, _ := p.expect(token.Ident, "P001", "expected a function name")
	p.expect(token.LParen, "P001", "expected '(' after function name")

	var params []*ast.Param
	if !p.check(token.RParen) {
		params = append(params, p.parseParam())
		for p.check(token.Comma) {
			p.advance()
			params = append(params, p.parseParam())
		}
	}
	p.expect(token.RParen, "P001", "expected ')' after parameter list")
	p.expect(token.Colon, "P001", "expected ':' before return type")
	ret := p.parseTypeRef()
	body := p.parseBlock()

	return ast.NewFunctionDecl(p.spanFrom(start), nameTok.Text, params, ret, body, exported)
}

func (p *Parser) parseParam() *ast.Param {
	start := p.here()
	nameTok, _ := p.expect(token.Ident, "P001", "expected a parameter name")
	p.expect(token.Colon, "P001", "expected ':' after parameter name")
	typ := p.parseTypeRef()
	return ast.NewParam(p.spanFrom(start), nameTok.Text, typ)
}

func (p *Parser) parseTypeAliasDecl() *ast.TypeAliasDecl {
	start := p.here()
	p.advance() // 'type'
	nameTok, _ := p.expect(token.Ident, "P001", "expected a type alias name")
	p.expect(token.Assign, "P001", "expected '=' after type alias name")
	typ := p.parseTypeRef()
	p.expect(token.Semicolon, "P001", "expected ';' after type alias declaration")
	return ast.NewTypeAliasDecl(p.spanFrom(start), nameTok.Text, typ)
}

func (p *Parser) parseEnumDecl(exported bool) *ast.EnumDecl {
	start := p.here()
	p.advance() // 'enum'
	nameTok, _ := p.expect(token.Ident, "P001", "expected an enum name")
	p.expect(token.LBrace, "P001", "expected '{' after enum name")

	var members []ast.EnumMember
	for !p.check(token.RBrace) && !p.atEnd() {
		memberTok, _ := p.expect(token.Ident, "P001", "expected an enum member name")
		var val ast.Expr
		if p.check(token.Assign) {
			p.advance()
			val = p.parseExpression()
		}
		members = append(members, ast.EnumMember{Name: memberTok.Text, Value: val})
		if p.check(token.Comma) {
			p.advance()
			continue
		}
		break
	}
	p.expect(token.RBrace, "P001", "expected '}' to close enum declaration")
	p.expect(token.Semicolon, "P001", "expected ';' after enum declaration")
	return ast.NewEnumDecl(p.spanFrom(start), nameTok.Text, members, exported)
}

// parseTypeRef parses a type annotation: a primitive/alias/enum name with
// an optional array-length suffix, or a `callback(params...): ret` inline
// function type. The language defines no surface address-of/dereference
// operator (see pkg/sema's buildAlias doc comment), so no pointer sigil is
// accepted here either; TypeRef.PointerDeep exists for the type system's
// internal use only.
func (p *Parser) parseTypeRef() *ast.TypeRef {
	start := p.here()
	if p.check(token.KwCallback) {
		p.advance()
		p.expect(token.LParen, "P001", "expected '(' after 'callback'")
		var params []*ast.TypeRef
		if !p.check(token.RParen) {
			params = append(params, p.parseTypeRef())
			for p.check(token.Comma) {
				p.advance()
				params = append(params, p.parseTypeRef())
			}
		}
		p.expect(token.RParen, "P001", "expected ')' after callback parameter types")
		p.expect(token.Colon, "P001", "expected ':' before callback return type")
		ret := p.parseTypeRef()
		return ast.NewCallbackTypeRef(p.spanFrom(start), params, ret)
	}

	name := p.typeName()
	var arrLen ast.Expr
	if p.check(token.LBracket) {
		p.advance()
		if !p.check(token.RBracket) {
			arrLen = p.parseExpression()
		}
		p.expect(token.RBracket, "P001", "expected ']' after array length")
	}
	return ast.NewTypeRef(p.spanFrom(start), name, arrLen, 0)
}

func (p *Parser) typeName() string {
	switch p.cur().Kind {
	case token.KwByte:
		p.advance()
		return "byte"
	case token.KwWord:
		p.advance()
		return "word"
	case token.KwVoid:
		p.advance()
		return "void"
	case token.Ident:
		return p.advance().Text
	default:
		p.errorf("P001", p.cur().Range, "expected a type name")
		return ""
	}
}
