package frontend

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func lexAll(t *testing.T, src string) []token {
	t.Helper()
	l := newLexer(src, "test.nedsa")
	var toks []token
	for {
		tok, err := l.next()
		require.NoError(t, err)
		toks = append(toks, tok)
		if tok.kind == tokEOF {
			break
		}
	}
	return toks
}

func kinds(toks []token) []tokenKind {
	out := make([]tokenKind, len(toks))
	for i, t := range toks {
		out[i] = t.kind
	}
	return out
}

func Test_lexer_punctuation(t *testing.T) {
	toks := lexAll(t, ":= : ; { } ( ) + - * /")
	assert.Equal(t, []tokenKind{
		tokAssign, tokColon, tokSemicolon, tokLBrace, tokRBrace,
		tokLParen, tokRParen, tokPlus, tokMinus, tokStar, tokSlash, tokEOF,
	}, kinds(toks))
}

func Test_lexer_comparators(t *testing.T) {
	toks := lexAll(t, "= != < > <= >=")
	assert.Equal(t, []tokenKind{
		tokEq, tokNeq, tokLt, tokGt, tokLeq, tokGeq, tokEOF,
	}, kinds(toks))
}

func Test_lexer_keywordsLexAsNames(t *testing.T) {
	toks := lexAll(t, "var max pass push move up down halt goto ifread if")
	for _, tok := range toks[:len(toks)-1] {
		assert.Equal(t, tokName, tok.kind)
	}
	assert.True(t, keywords["var"])
	assert.True(t, keywords["ifread"])
	assert.False(t, keywords["mystate"])
}

func Test_lexer_numbers(t *testing.T) {
	toks := lexAll(t, "0 42 007")
	require.Len(t, toks, 4)
	assert.Equal(t, "0", toks[0].text)
	assert.Equal(t, "42", toks[1].text)
	assert.Equal(t, "007", toks[2].text)
}

func Test_lexer_namesAllowUnderscoreAndDigits(t *testing.T) {
	toks := lexAll(t, "label_1 _hidden a2b3")
	require.Len(t, toks, 4)
	assert.Equal(t, "label_1", toks[0].text)
	assert.Equal(t, "_hidden", toks[1].text)
	assert.Equal(t, "a2b3", toks[2].text)
}

func Test_lexer_skipsCommentsAndWhitespace(t *testing.T) {
	toks := lexAll(t, "push  # a trailing comment\n  X ;")
	var texts []string
	for _, tok := range toks {
		if tok.kind != tokEOF {
			texts = append(texts, tok.text)
		}
	}
	assert.Equal(t, []string{"push", "X", ";"}, texts)
}

func Test_lexer_tracksLineAndColumn(t *testing.T) {
	toks := lexAll(t, "push X;\nmove UP;")
	// "move" starts on the second line.
	var moveTok token
	for _, tok := range toks {
		if tok.text == "move" {
			moveTok = tok
		}
	}
	assert.Equal(t, 2, moveTok.line)
	assert.Equal(t, 1, moveTok.col)
}

func Test_lexer_unexpectedCharacter(t *testing.T) {
	l := newLexer("push X; @", "test.nedsa")
	var lastErr error
	for i := 0; i < 10; i++ {
		tok, err := l.next()
		if err != nil {
			lastErr = err
			break
		}
		if tok.kind == tokEOF {
			break
		}
	}
	require.Error(t, lastErr)
	var synErr *SyntaxError
	require.ErrorAs(t, lastErr, &synErr)
	assert.Contains(t, synErr.Error(), "unexpected character")
}
