package ast

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func lexAll(t *testing.T, src string) []Token {
	t.Helper()
	lex := NewLexer(src)
	var toks []Token
	for {
		tok, err := lex.Next()
		require.NoError(t, err)
		toks = append(toks, tok)
		if tok.Kind == TokEOF {
			return toks
		}
	}
}

func TestLexer_Operators(t *testing.T) {
	toks := lexAll(t, "( ) , | & ~ + - : :: ..")
	kinds := make([]TokenKind, len(toks))
	for i, tk := range toks {
		kinds[i] = tk.Kind
	}
	assert.Equal(t, []TokenKind{
		TokLParen, TokRParen, TokComma, TokPipe, TokAmp, TokTilde,
		TokPlus, TokMinus, TokColon, TokColonColon, TokDotDot, TokEOF,
	}, kinds)
}

func TestLexer_RemoteSymbol(t *testing.T) {
	toks := lexAll(t, "main@origin")
	require.Len(t, toks, 2)
	assert.Equal(t, TokRemoteSymbol, toks[0].Kind)
	assert.Equal(t, "main@origin", toks[0].Text)
}

func TestLexer_BareAtNotFoldedIntoRemote(t *testing.T) {
	toks := lexAll(t, "@")
	require.Len(t, toks, 2)
	assert.Equal(t, TokAt, toks[0].Kind)
}

func TestLexer_StringEscapes(t *testing.T) {
	toks := lexAll(t, `"line1\nline2"`)
	require.Len(t, toks, 2)
	assert.Equal(t, TokString, toks[0].Kind)
	assert.Equal(t, "line1\nline2", toks[0].Text)
}

func TestLexer_UnterminatedStringErrors(t *testing.T) {
	lex := NewLexer(`"unterminated`)
	_, err := lex.Next()
	assert.Error(t, err)
}

func TestLexer_UnexpectedCharacterErrors(t *testing.T) {
	lex := NewLexer("#")
	_, err := lex.Next()
	assert.Error(t, err)
}

func TestLexer_IdentWithDashAndSlash(t *testing.T) {
	toks := lexAll(t, "feature/my-branch")
	require.Len(t, toks, 2)
	assert.Equal(t, TokIdent, toks[0].Kind)
	assert.Equal(t, "feature/my-branch", toks[0].Text)
}
