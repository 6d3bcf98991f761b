package parser

import (
	"github.com/blendsdk/blend65/pkg/ast"
	"github.com/blendsdk/blend65/pkg/token"
)

// parseExpression is the entry point into the precedence-climbing
// expression grammar, lowest precedence first: assignment binds loosest,
// primary/postfix tightest.
func (p *Parser) parseExpression() ast.Expr {
	return p.parseAssignment()
}

func (p *Parser) parseAssignment() ast.Expr {
	start := p.here()
	left := p.parseTernary()
	if p.check(token.Assign) {
		p.advance()
		value := p.parseAssignment()
		return ast.NewAssignExpr(p.spanFrom(start), left, value)
	}
	return left
}

func (p *Parser) parseTernary() ast.Expr {
	start := p.here()
	cond := p.parseLogicalOr()
	if p.check(token.Question) {
		p.advance()
		then := p.parseExpression()
		p.expect(token.Colon, "P001", "expected ':' in ternary expression")
		els := p.parseExpression()
		return ast.NewTernaryExpr(p.spanFrom(start), cond, then, els)
	}
	return cond
}

func (p *Parser) parseLogicalOr() ast.Expr {
	start := p.here()
	left := p.parseLogicalAnd()
	for p.check(token.PipePipe) {
		p.advance()
		right := p.parseLogicalAnd()
		left = ast.NewBinaryExpr(p.spanFrom(start), ast.OpLogicalOr, left, right)
	}
	return left
}

func (p *Parser) parseLogicalAnd() ast.Expr {
	start := p.here()
	left := p.parseBitOr()
	for p.check(token.AmpAmp) {
		p.advance()
		right := p.parseBitOr()
		left = ast.NewBinaryExpr(p.spanFrom(start), ast.OpLogicalAnd, left, right)
	}
	return left
}

func (p *Parser) parseBitOr() ast.Expr {
	start := p.here()
	left := p.parseBitXor()
	for p.check(token.Pipe) {
		p.advance()
		right := p.parseBitXor()
		left = ast.NewBinaryExpr(p.spanFrom(start), ast.OpOr, left, right)
	}
	return left
}

func (p *Parser) parseBitXor() ast.Expr {
	start := p.here()
	left := p.parseBitAnd()
	for p.check(token.Caret) {
		p.advance()
		right := p.parseBitAnd()
		left = ast.NewBinaryExpr(p.spanFrom(start), ast.OpXor, left, right)
	}
	return left
}

func (p *Parser) parseBitAnd() ast.Expr {
	start := p.here()
	left := p.parseEquality()
	for p.check(token.Amp) {
		p.advance()
		right := p.parseEquality()
		left = ast.NewBinaryExpr(p.spanFrom(start), ast.OpAnd, left, right)
	}
	return left
}

func (p *Parser) parseEquality() ast.Expr {
	start := p.here()
	left := p.parseRelational()
	for p.check(token.EqEq) || p.check(token.NotEq) {
		op := ast.OpEq
		if p.cur().Kind == token.NotEq {
			op = ast.OpNe
		}
		p.advance()
		right := p.parseRelational()
		left = ast.NewBinaryExpr(p.spanFrom(start), op, left, right)
	}
	return left
}

func (p *Parser) parseRelational() ast.Expr {
	start := p.here()
	left := p.parseShift()
	for {
		var op ast.BinaryOp
		switch p.cur().Kind {
		case token.Lt:
			op = ast.OpLt
		case token.Le:
			op = ast.OpLe
		case token.Gt:
			op = ast.OpGt
		case token.Ge:
			op = ast.OpGe
		default:
			return left
		}
		p.advance()
		right := p.parseShift()
		left = ast.NewBinaryExpr(p.spanFrom(start), op, left, right)
	}
}

func (p *Parser) parseShift() ast.Expr {
	start := p.here()
	left := p.parseAdditive()
	for p.check(token.Shl) || p.check(token.Shr) {
		op := ast.OpShl
		if p.cur().Kind == token.Shr {
			op = ast.OpShr
		}
		p.advance()
		right := p.parseAdditive()
		left = ast.NewBinaryExpr(p.spanFrom(start), op, left, right)
	}
	return left
}

func (p *Parser) parseAdditive() ast.Expr {
	start := p.here()
	left := p.parseMultiplicative()
	for p.check(token.Plus) || p.check(token.Minus) {
		op := ast.OpAdd
		if p.cur().Kind == token.Minus {
			op = ast.OpSub
		}
		p.advance()
		right := p.parseMultiplicative()
		left = ast.NewBinaryExpr(p.spanFrom(start), op, left, right)
	}
	return left
}

func (p *Parser) parseMultiplicative() ast.Expr {
	start := p.here()
	left := p.parseUnary()
	for p.check(token.Star) || p.check(token.Slash) || p.check(token.Percent) {
		var op ast.BinaryOp
		switch p.cur().Kind {
		case token.Star:
			op = ast.OpMul
		case token.Slash:
			op = ast.OpDiv
		case token.Percent:
			op = ast.OpMod
		}
		p.advance()
		right := p.parseUnary()
		left = ast.NewBinaryExpr(p.spanFrom(start), op, left, right)
	}
	return left
}

// parseUnary handles the three prefix operators the language defines.
// There is deliberately no `&`/`*` case: Blend65 has no surface
// address-of/dereference syntax (fixed-address variables are named
// directly via `@map`), so unary always bottoms out at parsePostfix.
func (p *Parser) parseUnary() ast.Expr {
	start := p.here()
	switch p.cur().Kind {
	case token.Minus:
		p.advance()
		return ast.NewUnaryExpr(p.spanFrom(start), ast.OpNeg, p.parseUnary())
	case token.Bang:
		p.advance()
		return ast.NewUnaryExpr(p.spanFrom(start), ast.OpNot, p.parseUnary())
	case token.Tilde:
		p.advance()
		return ast.NewUnaryExpr(p.spanFrom(start), ast.OpBitNot, p.parseUnary())
	default:
		return p.parsePostfix()
	}
}

func (p *Parser) parsePostfix() ast.Expr {
	start := p.here()
	x := p.parsePrimary()
	for {
		switch p.cur().Kind {
		case token.LParen:
			p.advance()
			var args []ast.Expr
			if !p.check(token.RParen) {
				args = append(args, p.parseExpression())
				for p.check(token.Comma) {
					p.advance()
					args = append(args, p.parseExpression())
				}
			}
			p.expect(token.RParen, "P001", "expected ')' after call arguments")
			x = ast.NewCallExpr(p.spanFrom(start), x, args)
		case token.LBracket:
			p.advance()
			idx := p.parseExpression()
			p.expect(token.RBracket, "P001", "expected ']' after index expression")
			x = ast.NewIndexExpr(p.spanFrom(start), x, idx)
		case token.Dot:
			p.advance()
			nameTok, _ := p.expect(token.Ident, "P001", "expected a member name after '.'")
			x = ast.NewMemberExpr(p.spanFrom(start), x, nameTok.Text)
		default:
			return x
		}
	}
}

// identBoolLiteral recognizes the bare identifiers "true"/"false" as
// boolean literals. The language reserves no `true`/`false` keyword (§6's
// keyword list is closed and case-sensitive, matching the lexer's
// "breakable"/"continuous" survival test), so boolean literals enter
// surface syntax as ordinary identifiers the parser special-cases here
// rather than as dedicated tokens; `ast.LitBoolean` already exists for
// exactly this and sema/ilgen already consume it downstream.
func identBoolLiteral(text string) (value, ok bool) {
	switch text {
	case "true":
		return true, true
	case "false":
		return false, true
	default:
		return false, false
	}
}

func (p *Parser) parsePrimary() ast.Expr {
	start := p.here()
	switch p.cur().Kind {
	case token.Number:
		tok := p.advance()
		return ast.NewLiteralNumber(p.spanFrom(start), tok.IntVal)
	case token.String:
		tok := p.advance()
		return ast.NewLiteralString(p.spanFrom(start), tok.Text)
	case token.Ident:
		tok := p.advance()
		if v, ok := identBoolLiteral(tok.Text); ok {
			return ast.NewLiteralBool(p.spanFrom(start), v)
		}
		return ast.NewIdentExpr(p.spanFrom(start), tok.Text)
	case token.LParen:
		p.advance()
		x := p.parseExpression()
		p.expect(token.RParen, "P001", "expected ')' to close parenthesized expression")
		return x
	case token.LBracket:
		p.advance()
		var elems []ast.Expr
		if !p.check(token.RBracket) {
			elems = append(elems, p.parseExpression())
			for p.check(token.Comma) {
				p.advance()
				elems = append(elems, p.parseExpression())
			}
		}
		p.expect(token.RBracket, "P001", "expected ']' to close array literal")
		return ast.NewLiteralArray(p.spanFrom(start), elems)
	default:
		p.errorf("P001", p.cur().Range, "expected an expression, found %s", p.cur().Kind)
		tok := p.advance()
		return ast.NewIdentExpr(p.spanFrom(start), tok.Text)
	}
}
