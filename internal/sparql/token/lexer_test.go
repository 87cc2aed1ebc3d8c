package token

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func scanAll(t *testing.T, src string) []Token {
	t.Helper()
	l := NewLexer(src)
	var out []Token
	for {
		tok := l.Next()
		out = append(out, tok)
		if tok.Type == EOF {
			return out
		}
		require.Less(t, len(out), 1000, "runaway lexer")
	}
}

func TestLexerSelectQuery(t *testing.T) {
	toks := scanAll(t, `SELECT ?s WHERE { ?s <http://xmlns.com/foaf/0.1/name> "Alice" . }`)
	var types []Type
	for _, tok := range toks {
		types = append(types, tok.Type)
	}
	assert.Equal(t, []Type{SELECT, VAR, WHERE, LBRACE, VAR, IRIREF, STRING, DOT, RBRACE, EOF}, types)
}

func TestLexerPrefixedName(t *testing.T) {
	toks := scanAll(t, `foaf:name`)
	require.Len(t, toks, 2)
	assert.Equal(t, PNAME, toks[0].Type)
	assert.Equal(t, "foaf:name", toks[0].Literal)
}

func TestLexerRdfTypeShorthand(t *testing.T) {
	toks := scanAll(t, `?s a ?type`)
	assert.Equal(t, []Type{VAR, A, VAR, EOF}, []Type{toks[0].Type, toks[1].Type, toks[2].Type, toks[3].Type})
}

func TestLexerLangTaggedString(t *testing.T) {
	toks := scanAll(t, `"chat"@fr`)
	require.Len(t, toks, 3)
	assert.Equal(t, STRING, toks[0].Type)
	assert.Equal(t, "chat", toks[0].Literal)
	assert.Equal(t, LANGTAG, toks[1].Type)
	assert.Equal(t, "fr", toks[1].Literal)
}

func TestLexerTypedLiteral(t *testing.T) {
	toks := scanAll(t, `"42"^^<http://www.w3.org/2001/XMLSchema#integer>`)
	require.Len(t, toks, 3)
	assert.Equal(t, STRING, toks[0].Type)
	assert.Equal(t, DOUBLE_CARET, toks[1].Type)
	assert.Equal(t, IRIREF, toks[2].Type)
}

func TestLexerNumbers(t *testing.T) {
	toks := scanAll(t, `1 2.5 1.5e10 -3`)
	require.Len(t, toks, 5)
	assert.Equal(t, INTEGER, toks[0].Type)
	assert.Equal(t, DECIMAL, toks[1].Type)
	assert.Equal(t, DOUBLE, toks[2].Type)
	assert.Equal(t, INTEGER, toks[3].Type)
	assert.Equal(t, "-3", toks[3].Literal)
}

func TestLexerComparisonOperators(t *testing.T) {
	toks := scanAll(t, `<= >= != < > =`)
	var types []Type
	for _, tok := range toks {
		types = append(types, tok.Type)
	}
	assert.Equal(t, []Type{LE, GE, NE, LT, GT, EQ, EOF}, types)
}

func TestLexerSkipsCommentsAndWhitespace(t *testing.T) {
	toks := scanAll(t, "# a comment\n  ?x  # trailing\n")
	require.Len(t, toks, 2)
	assert.Equal(t, VAR, toks[0].Type)
	assert.Equal(t, EOF, toks[1].Type)
}

func TestLexerBlankNode(t *testing.T) {
	toks := scanAll(t, `_:b0`)
	require.Len(t, toks, 2)
	assert.Equal(t, BLANK_NODE, toks[0].Type)
	assert.Equal(t, "b0", toks[0].Literal)
}
