// Package lexer tokenizes Blend65 source text into the token stream consumed
// by pkg/parser. It is a standard hand-written tokenizer sitting below the
// token/AST contract the rest of the compiler is built against.
package lexer

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/blendsdk/blend65/pkg/source"
	"github.com/blendsdk/blend65/pkg/token"
)

// Lexer turns source text into tokens one at a time.
type Lexer struct {
	file   string
	src    string
	pos    int
	line   int
	col    int
	errors []error
}

// New creates a Lexer over src, attributing all positions to file.
func New(file, src string) *Lexer {
	return &Lexer{file: file, src: src, pos: 0, line: 1, col: 1}
}

// Errors returns lexical errors accumulated during scanning (e.g.
// unterminated strings/comments). The parser is expected to funnel these
// into the diagnostic bus as P-coded errors.
func (l *Lexer) Errors() []error { return l.errors }

func (l *Lexer) peek() byte {
	if l.pos >= len(l.src) {
		return 0
	}
	return l.src[l.pos]
}

func (l *Lexer) peekAt(off int) byte {
	if l.pos+off >= len(l.src) {
		return 0
	}
	return l.src[l.pos+off]
}

func (l *Lexer) advance() byte {
	c := l.src[l.pos]
	l.pos++
	if c == '\n' {
		l.line++
		l.col = 1
	} else {
		l.col++
	}
	return c
}

func (l *Lexer) here() source.Pos {
	return source.Pos{Line: l.line, Column: l.col, Offset: l.pos}
}

func (l *Lexer) skipTrivia() {
	for l.pos < len(l.src) {
		c := l.peek()
		switch {
		case c == ' ' || c == '\t' || c == '\r' || c == '\n':
			l.advance()
		case c == '/' && l.peekAt(1) == '/':
			for l.pos < len(l.src) && l.peek() != '\n' {
				l.advance()
			}
		case c == '/' && l.peekAt(1) == '*':
			l.advance()
			l.advance()
			closed := false
			for l.pos < len(l.src) {
				if l.peek() == '*' && l.peekAt(1) == '/' {
					l.advance()
					l.advance()
					closed = true
					break
				}
				l.advance()
			}
			if !closed {
				l.errors = append(l.errors, fmt.Errorf("%s: unterminated block comment", l.file))
			}
		default:
			return
		}
	}
}

func isIdentStart(c byte) bool {
	return c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isIdentCont(c byte) bool {
	return isIdentStart(c) || (c >= '0' && c <= '9')
}

func isDigit(c byte) bool { return c >= '0' && c <= '9' }

func isHexDigit(c byte) bool {
	return isDigit(c) || (c >= 'a' && c <= 'f') || (c >= 'A' && c <= 'F')
}

// Next scans and returns the next token.
func (l *Lexer) Next() token.Token {
	l.skipTrivia()
	start := l.here()
	if l.pos >= len(l.src) {
		return token.Token{Kind: token.EOF, Range: source.Range{File: l.file, Start: start, End: start}}
	}

	c := l.peek()
	switch {
	case c == '$':
		return l.lexHex(start)
	case isDigit(c):
		return l.lexNumber(start)
	case isIdentStart(c):
		return l.lexIdentOrSigil(start)
	case c == '"':
		return l.lexString(start)
	default:
		return l.lexPunct(start)
	}
}

func (l *Lexer) finish(start source.Pos, kind token.Kind, text string) token.Token {
	return token.Token{Kind: kind, Text: text, Range: source.Range{File: l.file, Start: start, End: l.here()}}
}

func (l *Lexer) lexHex(start source.Pos) token.Token {
	l.advance() // consume '$'
	begin := l.pos
	for l.pos < len(l.src) && isHexDigit(l.peek()) {
		l.advance()
	}
	text := l.src[begin:l.pos]
	v, err := strconv.ParseUint(text, 16, 64)
	if err != nil {
		l.errors = append(l.errors, fmt.Errorf("%s:%d:%d: invalid hex literal $%s", l.file, start.Line, start.Column, text))
	}
	t := l.finish(start, token.Number, "$"+text)
	t.IntVal = v
	return t
}

func (l *Lexer) lexNumber(start source.Pos) token.Token {
	begin := l.pos
	for l.pos < len(l.src) && isDigit(l.peek()) {
		l.advance()
	}
	text := l.src[begin:l.pos]
	v, _ := strconv.ParseUint(text, 10, 64)
	t := l.finish(start, token.Number, text)
	t.IntVal = v
	return t
}

func (l *Lexer) lexIdentOrSigil(start source.Pos) token.Token {
	begin := l.pos
	for l.pos < len(l.src) && isIdentCont(l.peek()) {
		l.advance()
	}
	text := l.src[begin:l.pos]
	if kind, ok := token.Lookup(text); ok {
		return l.finish(start, kind, text)
	}
	return l.finish(start, token.Ident, text)
}

func (l *Lexer) lexString(start source.Pos) token.Token {
	l.advance() // opening quote
	var b strings.Builder
	closed := false
	for l.pos < len(l.src) {
		c := l.peek()
		if c == '"' {
			l.advance()
			closed = true
			break
		}
		if c == '\\' && l.peekAt(1) != 0 {
			l.advance()
			b.WriteByte(l.advance())
			continue
		}
		b.WriteByte(l.advance())
	}
	if !closed {
		l.errors = append(l.errors, fmt.Errorf("%s:%d:%d: unterminated string literal", l.file, start.Line, start.Column))
	}
	return l.finish(start, token.String, b.String())
}

func (l *Lexer) lexPunct(start source.Pos) token.Token {
	c := l.advance()
	two := func(second byte, ifMatch, ifNot token.Kind) token.Token {
		if l.peek() == second {
			l.advance()
			return l.finish(start, ifMatch, "")
		}
		return l.finish(start, ifNot, "")
	}
	switch c {
	case '@':
		begin := l.pos
		for l.pos < len(l.src) && isIdentCont(l.peek()) {
			l.advance()
		}
		name := l.src[begin:l.pos]
		switch name {
		case "zp":
			return l.finish(start, token.AtZp, "@zp")
		case "ram":
			return l.finish(start, token.AtRam, "@ram")
		case "data":
			return l.finish(start, token.AtData, "@data")
		case "map":
			return l.finish(start, token.AtMap, "@map")
		default:
			l.errors = append(l.errors, fmt.Errorf("%s:%d:%d: unknown storage-class sigil @%s", l.file, start.Line, start.Column, name))
			return l.finish(start, token.AtRam, "@"+name)
		}
	case '(':
		return l.finish(start, token.LParen, "(")
	case ')':
		return l.finish(start, token.RParen, ")")
	case '{':
		return l.finish(start, token.LBrace, "{")
	case '}':
		return l.finish(start, token.RBrace, "}")
	case '[':
		return l.finish(start, token.LBracket, "[")
	case ']':
		return l.finish(start, token.RBracket, "]")
	case ';':
		return l.finish(start, token.Semicolon, ";")
	case ':':
		return l.finish(start, token.Colon, ":")
	case ',':
		return l.finish(start, token.Comma, ",")
	case '.':
		return l.finish(start, token.Dot, ".")
	case '+':
		return l.finish(start, token.Plus, "+")
	case '-':
		return l.finish(start, token.Minus, "-")
	case '*':
		return l.finish(start, token.Star, "*")
	case '/':
		return l.finish(start, token.Slash, "/")
	case '%':
		return l.finish(start, token.Percent, "%")
	case '^':
		return l.finish(start, token.Caret, "^")
	case '~':
		return l.finish(start, token.Tilde, "~")
	case '?':
		return l.finish(start, token.Question, "?")
	case '=':
		return two('=', token.EqEq, token.Assign)
	case '!':
		return two('=', token.NotEq, token.Bang)
	case '<':
		if l.peek() == '<' {
			l.advance()
			return l.finish(start, token.Shl, "<<")
		}
		return two('=', token.Le, token.Lt)
	case '>':
		if l.peek() == '>' {
			l.advance()
			return l.finish(start, token.Shr, ">>")
		}
		return two('=', token.Ge, token.Gt)
	case '&':
		return two('&', token.AmpAmp, token.Amp)
	case '|':
		return two('|', token.PipePipe, token.Pipe)
	default:
		l.errors = append(l.errors, fmt.Errorf("%s:%d:%d: unexpected character %q", l.file, start.Line, start.Column, c))
		return l.finish(start, token.EOF, string(c))
	}
}

// All tokenizes the entire source and returns the token list (including a
// trailing EOF), plus any lexical errors encountered.
func All(file, src string) ([]token.Token, []error) {
	l := New(file, src)
	var toks []token.Token
	for {
		t := l.Next()
		toks = append(toks, t)
		if t.Kind == token.EOF {
			break
		}
	}
	return toks, l.Errors()
}
