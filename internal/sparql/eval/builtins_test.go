package eval

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quadcore/quadcore/internal/sparql/ast"
	"github.com/quadcore/quadcore/internal/term"
)

func dblExpr(f float64) ast.Expr {
	return ast.Expr{Kind: ast.ExprTerm, Term: ast.Term{Kind: ast.TermLiteral, Text: term.Double(f).Lexical, Datatype: "http://www.w3.org/2001/XMLSchema#double"}}
}

func iriExpr(iri string) ast.Expr { return ast.Expr{Kind: ast.ExprTerm, Term: ast.Term{Kind: ast.TermIRI, Text: iri}} }

func langExpr(s, lang string) ast.Expr {
	return ast.Expr{Kind: ast.ExprTerm, Term: ast.Term{Kind: ast.TermLiteral, Text: s, Lang: lang}}
}

func TestBuiltins_StringFunctions(t *testing.T) {
	ctx := &Context{Env: mapEnv{}}

	assert.Equal(t, "hello", Eval(ctx, callExpr("STR", strExpr("hello"))).Lexical)
	assert.Equal(t, int64(5), Eval(ctx, callExpr("STRLEN", strExpr("hello"))).IntVal)
	assert.True(t, Eval(ctx, callExpr("CONTAINS", strExpr("hello"), strExpr("ell"))).BoolVal)
	assert.True(t, Eval(ctx, callExpr("STRSTARTS", strExpr("hello"), strExpr("he"))).BoolVal)
	assert.True(t, Eval(ctx, callExpr("STRENDS", strExpr("hello"), strExpr("lo"))).BoolVal)
	assert.Equal(t, "he", Eval(ctx, callExpr("STRBEFORE", strExpr("hello"), strExpr("ll"))).Lexical)
	assert.Equal(t, "o", Eval(ctx, callExpr("STRAFTER", strExpr("hello"), strExpr("ll"))).Lexical)
	assert.Equal(t, "HELLO", Eval(ctx, callExpr("UCASE", strExpr("hello"))).Lexical)
	assert.Equal(t, "hello", Eval(ctx, callExpr("LCASE", strExpr("HELLO"))).Lexical)
	assert.Equal(t, "hello world", Eval(ctx, callExpr("CONCAT", strExpr("hello "), strExpr("world"))).Lexical)
}

func TestBuiltins_Concat_PreservesSharedLanguageTag(t *testing.T) {
	ctx := &Context{Env: mapEnv{}}
	v := Eval(ctx, callExpr("CONCAT", langExpr("bon", "fr"), langExpr("jour", "fr")))
	require.Equal(t, term.KindLangString, v.Kind)
	assert.Equal(t, "bonjour", v.Lexical)
	assert.Equal(t, "fr", v.Lang)
}

func TestBuiltins_Concat_MixedLanguagesFallsBackToPlain(t *testing.T) {
	ctx := &Context{Env: mapEnv{}}
	v := Eval(ctx, callExpr("CONCAT", langExpr("bon", "fr"), langExpr("day", "en")))
	assert.Equal(t, term.KindString, v.Kind)
}

func TestBuiltins_Substr(t *testing.T) {
	ctx := &Context{Env: mapEnv{}}
	v := Eval(ctx, callExpr("SUBSTR", strExpr("hello world"), intExpr(1), intExpr(5)))
	assert.Equal(t, "hello", v.Lexical)

	v = Eval(ctx, callExpr("SUBSTR", strExpr("hello"), intExpr(2)))
	assert.Equal(t, "ello", v.Lexical)
}

func TestBuiltins_Substr_NegativeStartClampsWithinBounds(t *testing.T) {
	ctx := &Context{Env: mapEnv{}}
	v := Eval(ctx, callExpr("SUBSTR", strExpr("hello"), intExpr(-1), intExpr(3)))
	assert.Equal(t, "h", v.Lexical)
}

func TestBuiltins_Regex(t *testing.T) {
	ctx := &Context{Env: mapEnv{}}
	assert.True(t, Eval(ctx, callExpr("REGEX", strExpr("Hello"), strExpr("^hello$"), strExpr("i"))).BoolVal)
	assert.False(t, Eval(ctx, callExpr("REGEX", strExpr("Hello"), strExpr("^hello$"))).BoolVal)
}

func TestBuiltins_Replace(t *testing.T) {
	ctx := &Context{Env: mapEnv{}}
	v := Eval(ctx, callExpr("REPLACE", strExpr("hello world"), strExpr("world"), strExpr("there")))
	assert.Equal(t, "hello there", v.Lexical)
}

func TestBuiltins_SameTermAndTypeChecks(t *testing.T) {
	ctx := &Context{Env: mapEnv{}}
	assert.True(t, Eval(ctx, callExpr("SAMETERM", iriExpr("http://ex/a"), iriExpr("http://ex/a"))).BoolVal)
	assert.False(t, Eval(ctx, callExpr("SAMETERM", iriExpr("http://ex/a"), iriExpr("http://ex/b"))).BoolVal)

	assert.True(t, Eval(ctx, callExpr("ISIRI", iriExpr("http://ex/a"))).BoolVal)
	assert.False(t, Eval(ctx, callExpr("ISIRI", strExpr("not an iri"))).BoolVal)
	assert.True(t, Eval(ctx, callExpr("ISLITERAL", strExpr("x"))).BoolVal)
	assert.True(t, Eval(ctx, callExpr("ISNUMERIC", intExpr(1))).BoolVal)
	assert.False(t, Eval(ctx, callExpr("ISNUMERIC", strExpr("x"))).BoolVal)
}

func TestBuiltins_Abs_Round_Ceil_Floor(t *testing.T) {
	ctx := &Context{Env: mapEnv{}}
	assert.Equal(t, int64(5), Eval(ctx, callExpr("ABS", intExpr(-5))).IntVal)
	assert.Equal(t, 3.0, Eval(ctx, callExpr("ROUND", dblExpr(2.5))).DblVal)
	assert.Equal(t, 3.0, Eval(ctx, callExpr("CEIL", dblExpr(2.1))).DblVal)
	assert.Equal(t, 2.0, Eval(ctx, callExpr("FLOOR", dblExpr(2.9))).DblVal)
}

func TestBuiltins_Datatype(t *testing.T) {
	ctx := &Context{Env: mapEnv{}}
	v := Eval(ctx, callExpr("DATATYPE", intExpr(1)))
	require.Equal(t, term.KindIRI, v.Kind)
	assert.Equal(t, "http://www.w3.org/2001/XMLSchema#integer", v.Lexical)

	v = Eval(ctx, callExpr("DATATYPE", langExpr("bonjour", "fr")))
	assert.Equal(t, rdfLangString, v.Lexical)
}

func TestBuiltins_Lang(t *testing.T) {
	ctx := &Context{Env: mapEnv{}}
	v := Eval(ctx, callExpr("LANG", langExpr("bonjour", "fr")))
	assert.Equal(t, "fr", v.Lexical)
}

func TestBuiltins_LangMatches(t *testing.T) {
	ctx := &Context{Env: mapEnv{}}
	assert.True(t, Eval(ctx, callExpr("LANGMATCHES", strExpr("en-US"), strExpr("en"))).BoolVal)
	assert.True(t, Eval(ctx, callExpr("LANGMATCHES", strExpr("en"), strExpr("*"))).BoolVal)
	assert.False(t, Eval(ctx, callExpr("LANGMATCHES", strExpr("fr"), strExpr("en"))).BoolVal)
}

func TestBuiltins_IRI(t *testing.T) {
	ctx := &Context{Env: mapEnv{}}
	v := Eval(ctx, callExpr("IRI", strExpr("http://ex/a")))
	require.Equal(t, term.KindIRI, v.Kind)
	assert.Equal(t, "http://ex/a", v.Lexical)
}

func TestBuiltins_Strdt(t *testing.T) {
	ctx := &Context{Env: mapEnv{}}
	v := Eval(ctx, callExpr("STRDT", strExpr("42"), iriExpr("http://www.w3.org/2001/XMLSchema#integer")))
	require.Equal(t, term.KindInteger, v.Kind)
	assert.Equal(t, int64(42), v.IntVal)
}

func TestBuiltins_Strlang(t *testing.T) {
	ctx := &Context{Env: mapEnv{}}
	v := Eval(ctx, callExpr("STRLANG", strExpr("bonjour"), strExpr("fr")))
	require.Equal(t, term.KindLangString, v.Kind)
	assert.Equal(t, "fr", v.Lang)
}

func TestBuiltins_Bnode_ProducesFreshBlankEachCall(t *testing.T) {
	ctx := &Context{Env: mapEnv{}}
	a := Eval(ctx, callExpr("BNODE"))
	b := Eval(ctx, callExpr("BNODE"))
	require.Equal(t, term.KindBlank, a.Kind)
	assert.NotEqual(t, a.Lexical, b.Lexical)
}

func TestBuiltins_HashFunctions(t *testing.T) {
	ctx := &Context{Env: mapEnv{}}
	md5v := Eval(ctx, callExpr("MD5", strExpr("abc")))
	assert.Equal(t, "900150983cd24fb0d6963f7d28e17f72", md5v.Lexical)

	sha1v := Eval(ctx, callExpr("SHA1", strExpr("abc")))
	assert.Equal(t, "a9993e364706816aba3e25717850c26c9cd0d89d", sha1v.Lexical)

	sha256v := Eval(ctx, callExpr("SHA256", strExpr("abc")))
	assert.Equal(t, "ba7816bf8f01cfea414140de5dae2223b00361a396177a9cb410ff61f20015ad", sha256v.Lexical)
}

func TestBuiltins_UUID_StrUUID(t *testing.T) {
	ctx := &Context{Env: mapEnv{}}
	u := Eval(ctx, callExpr("UUID"))
	require.Equal(t, term.KindIRI, u.Kind)
	assert.True(t, len(u.Lexical) > len("urn:uuid:"))

	su := Eval(ctx, callExpr("STRUUID"))
	require.Equal(t, term.KindString, su.Kind)
	assert.NotEmpty(t, su.Lexical)
}

func TestBuiltins_TimeFields(t *testing.T) {
	fixed := time.Date(2026, 3, 15, 8, 30, 45, 0, time.UTC)
	ctx := &Context{Env: mapEnv{}, Now: func() time.Time { return fixed }}
	now := callExpr("NOW")

	assert.Equal(t, int64(2026), Eval(ctx, callExpr("YEAR", now)).IntVal)
	assert.Equal(t, int64(3), Eval(ctx, callExpr("MONTH", now)).IntVal)
	assert.Equal(t, int64(15), Eval(ctx, callExpr("DAY", now)).IntVal)
	assert.Equal(t, int64(8), Eval(ctx, callExpr("HOURS", now)).IntVal)
	assert.Equal(t, int64(30), Eval(ctx, callExpr("MINUTES", now)).IntVal)
	assert.Equal(t, int64(45), Eval(ctx, callExpr("SECONDS", now)).IntVal)
}

func TestBuiltins_Tz_UTCIsEmptyOffset(t *testing.T) {
	fixed := time.Date(2026, 3, 15, 8, 30, 45, 0, time.UTC)
	ctx := &Context{Env: mapEnv{}, Now: func() time.Time { return fixed }}
	v := Eval(ctx, callExpr("TZ", callExpr("NOW")))
	assert.Equal(t, "", v.Lexical)
}

func TestBuiltins_EncodeForURI(t *testing.T) {
	ctx := &Context{Env: mapEnv{}}
	v := Eval(ctx, callExpr("ENCODE_FOR_URI", strExpr("a b/c")))
	assert.Equal(t, "a%20b%2Fc", v.Lexical)
}

func TestBuiltins_UnknownFunction_IsError(t *testing.T) {
	ctx := &Context{Env: mapEnv{}}
	v := Eval(ctx, callExpr("NOT_A_REAL_FUNCTION", strExpr("x")))
	assert.True(t, v.IsError())
}
