// Package token defines the lexical vocabulary of Blend65: the keyword,
// sigil, operator, and literal tokens the lexer/parser front end produces
// for the semantic core.
package token

import "github.com/blendsdk/blend65/pkg/source"

// Kind identifies the lexical category of a token.
type Kind int

const (
	EOF Kind = iota
	Ident
	Number
	String

	// Keywords
	KwModule
	KwImport
	KwExport
	KwFrom
	KwFunction
	KwReturn
	KwIf
	KwElse
	KwWhile
	KwFor
	KwTo
	KwDownto
	KwStep
	KwDo
	KwSwitch
	KwCase
	KwBreak
	KwContinue
	KwDefault
	KwType
	KwEnum
	KwLet
	KwConst
	KwByte
	KwWord
	KwVoid
	KwCallback

	// Storage-class sigils
	AtZp
	AtRam
	AtData
	AtMap

	// Punctuation / operators
	LParen
	RParen
	LBrace
	RBrace
	LBracket
	RBracket
	Semicolon
	Colon
	Comma
	Dot
	Assign
	Plus
	Minus
	Star
	Slash
	Percent
	Amp
	Pipe
	Caret
	Tilde
	Shl
	Shr
	EqEq
	NotEq
	Lt
	Le
	Gt
	Ge
	AmpAmp
	PipePipe
	Bang
	Question
)

var keywords = map[string]Kind{
	"module":   KwModule,
	"import":   KwImport,
	"export":   KwExport,
	"from":     KwFrom,
	"function": KwFunction,
	"return":   KwReturn,
	"if":       KwIf,
	"else":     KwElse,
	"while":    KwWhile,
	"for":      KwFor,
	"to":       KwTo,
	"downto":   KwDownto,
	"step":     KwStep,
	"do":       KwDo,
	"switch":   KwSwitch,
	"case":     KwCase,
	"break":    KwBreak,
	"continue": KwContinue,
	"default":  KwDefault,
	"type":     KwType,
	"enum":     KwEnum,
	"let":      KwLet,
	"const":    KwConst,
	"byte":     KwByte,
	"word":     KwWord,
	"void":     KwVoid,
	"callback": KwCallback,
}

// Lookup returns the keyword Kind for an identifier, or (Ident, false) if it
// is a plain identifier. Keyword matching is case-sensitive, so
// "breakable"/"continuous" remain identifiers.
func Lookup(ident string) (Kind, bool) {
	if k, ok := keywords[ident]; ok {
		return k, true
	}
	return Ident, false
}

// Token is one lexical unit with its source range.
type Token struct {
	Kind    Kind
	Text    string
	IntVal  uint64 // populated for Number tokens
	Range   source.Range
}

func (k Kind) String() string {
	if s, ok := names[k]; ok {
		return s
	}
	return "UNKNOWN"
}

var names = map[Kind]string{
	EOF: "EOF", Ident: "IDENT", Number: "NUMBER", String: "STRING",
	KwModule: "module", KwImport: "import", KwExport: "export", KwFrom: "from",
	KwFunction: "function", KwReturn: "return", KwIf: "if", KwElse: "else",
	KwWhile: "while", KwFor: "for", KwTo: "to", KwDownto: "downto", KwStep: "step",
	KwDo: "do", KwSwitch: "switch", KwCase: "case", KwBreak: "break",
	KwContinue: "continue", KwDefault: "default", KwType: "type", KwEnum: "enum",
	KwLet: "let", KwConst: "const", KwByte: "byte", KwWord: "word", KwVoid: "void",
	KwCallback: "callback",
	AtZp:       "@zp", AtRam: "@ram", AtData: "@data", AtMap: "@map",
	LParen: "(", RParen: ")", LBrace: "{", RBrace: "}",
	LBracket: "[", RBracket: "]", Semicolon: ";", Colon: ":", Comma: ",", Dot: ".",
	Assign: "=", Plus: "+", Minus: "-", Star: "*", Slash: "/", Percent: "%",
	Amp: "&", Pipe: "|", Caret: "^", Tilde: "~", Shl: "<<", Shr: ">>",
	EqEq: "==", NotEq: "!=", Lt: "<", Le: "<=", Gt: ">", Ge: ">=",
	AmpAmp: "&&", PipePipe: "||", Bang: "!", Question: "?",
}
