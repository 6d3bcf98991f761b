package lexer

import (
	"testing"

	"github.com/blendsdk/blend65/pkg/token"
)

func TestLexHexLiteral(t *testing.T) {
	toks, errs := All("t.b65", "$D020")
	if len(errs) != 0 {
		t.Fatalf("unexpected errors: %v", errs)
	}
	if toks[0].Kind != token.Number || toks[0].IntVal != 0xD020 {
		t.Fatalf("got %+v", toks[0])
	}
}

func TestKeywordsCaseSensitiveAndSimilarIdentsSurvive(t *testing.T) {
	toks, _ := All("t.b65", "break breakable continuous")
	if toks[0].Kind != token.KwBreak {
		t.Fatalf("expected break keyword, got %v", toks[0].Kind)
	}
	if toks[1].Kind != token.Ident || toks[1].Text != "breakable" {
		t.Fatalf("expected 'breakable' to remain an identifier, got %+v", toks[1])
	}
	if toks[2].Kind != token.Ident || toks[2].Text != "continuous" {
		t.Fatalf("expected 'continuous' to remain an identifier, got %+v", toks[2])
	}
}

func TestStringLiteralPreservesKeywordsVerbatim(t *testing.T) {
	toks, errs := All("t.b65", `"if while return"`)
	if len(errs) != 0 {
		t.Fatalf("unexpected errors: %v", errs)
	}
	if toks[0].Kind != token.String || toks[0].Text != "if while return" {
		t.Fatalf("got %+v", toks[0])
	}
}

func TestCommentsSkipped(t *testing.T) {
	toks, _ := All("t.b65", "let x // trailing comment\n/* block */ : byte")
	var kinds []token.Kind
	for _, tk := range toks {
		kinds = append(kinds, tk.Kind)
	}
	want := []token.Kind{token.KwLet, token.Ident, token.Colon, token.KwByte, token.EOF}
	if len(kinds) != len(want) {
		t.Fatalf("got %v", kinds)
	}
	for i := range want {
		if kinds[i] != want[i] {
			t.Fatalf("at %d: got %v want %v", i, kinds[i], want[i])
		}
	}
}

func TestStorageClassSigils(t *testing.T) {
	toks, errs := All("t.b65", "@zp @ram @data @map")
	if len(errs) != 0 {
		t.Fatalf("unexpected errors: %v", errs)
	}
	want := []token.Kind{token.AtZp, token.AtRam, token.AtData, token.AtMap, token.EOF}
	for i, k := range want {
		if toks[i].Kind != k {
			t.Fatalf("at %d: got %v want %v", i, toks[i].Kind, k)
		}
	}
}

func TestUnterminatedStringIsLexError(t *testing.T) {
	_, errs := All("t.b65", `"unterminated`)
	if len(errs) == 0 {
		t.Fatal("expected a lexical error for unterminated string")
	}
}
