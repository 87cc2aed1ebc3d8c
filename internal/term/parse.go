package term

import (
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

// ParseTerm decodes one atom's interned byte string into a typed Value
// (spec §3: `<iri>`, `_:label`, or a quoted lexical form with an
// optional `^^<datatype>` or `@lang` suffix). The default-graph and
// never-bound sentinel bytes (see atom.reservedSentinels) are not
// valid input here; callers special-case atom ids 0 and 1 before
// calling ParseTerm.
func ParseTerm(b []byte) (Value, error) {
	s := string(b)
	switch {
	case strings.HasPrefix(s, "<") && strings.HasSuffix(s, ">") && len(s) >= 2:
		return IRI(s[1 : len(s)-1]), nil
	case strings.HasPrefix(s, "_:"):
		return Blank(s[2:]), nil
	case strings.HasPrefix(s, "\""):
		return parseLiteral(s)
	default:
		return Value{}, &LexicalError{Input: b, Msg: "unrecognized term form"}
	}
}

func parseLiteral(s string) (Value, error) {
	lex, rest, err := readQuoted(s)
	if err != nil {
		return Value{}, &LexicalError{Input: []byte(s), Msg: err.Error()}
	}

	switch {
	case rest == "":
		return PlainString(lex), nil
	case strings.HasPrefix(rest, "@"):
		return LangStringVal(lex, rest[1:]), nil
	case strings.HasPrefix(rest, "^^<") && strings.HasSuffix(rest, ">"):
		dt := rest[3 : len(rest)-1]
		return typedLiteral(lex, dt)
	default:
		return Value{}, &LexicalError{Input: []byte(s), Msg: "malformed datatype/language suffix"}
	}
}

// readQuoted consumes a leading double-quoted, backslash-escaped
// lexical form from s and returns its unescaped content plus whatever
// trailing bytes (datatype/lang suffix) follow the closing quote.
func readQuoted(s string) (lexical, rest string, err error) {
	if len(s) < 2 || s[0] != '"' {
		return "", "", errMalformedQuote
	}
	var sb strings.Builder
	i := 1
	for i < len(s) {
		c := s[i]
		if c == '\\' && i+1 < len(s) {
			switch s[i+1] {
			case '"':
				sb.WriteByte('"')
			case '\\':
				sb.WriteByte('\\')
			case 'n':
				sb.WriteByte('\n')
			case 't':
				sb.WriteByte('\t')
			case 'r':
				sb.WriteByte('\r')
			default:
				sb.WriteByte(s[i+1])
			}
			i += 2
			continue
		}
		if c == '"' {
			return sb.String(), s[i+1:], nil
		}
		sb.WriteByte(c)
		i++
	}
	return "", "", errMalformedQuote
}

var errMalformedQuote = &LexicalError{Msg: "unterminated quoted lexical form"}

func typedLiteral(lex, datatype string) (Value, error) {
	switch datatype {
	case XSDBoolean:
		b, err := strconv.ParseBool(lex)
		if err != nil {
			return Value{}, &LexicalError{Input: []byte(lex), Msg: "invalid xsd:boolean"}
		}
		return Bool(b), nil
	case XSDInteger:
		n, err := strconv.ParseInt(lex, 10, 64)
		if err != nil {
			return Value{}, &LexicalError{Input: []byte(lex), Msg: "invalid xsd:integer"}
		}
		return Integer(n), nil
	case XSDDecimal:
		f, err := strconv.ParseFloat(lex, 64)
		if err != nil {
			return Value{}, &LexicalError{Input: []byte(lex), Msg: "invalid xsd:decimal"}
		}
		return Decimal(f), nil
	case XSDDouble:
		f, err := strconv.ParseFloat(lex, 64)
		if err != nil {
			return Value{}, &LexicalError{Input: []byte(lex), Msg: "invalid xsd:double"}
		}
		return Double(f), nil
	case XSDDateTime:
		t, err := time.Parse(time.RFC3339Nano, lex)
		if err != nil {
			return Value{}, &LexicalError{Input: []byte(lex), Msg: "invalid xsd:dateTime"}
		}
		return DateTime(t), nil
	default:
		return Value{Kind: KindTypedLiteral, Lexical: lex, Datatype: datatype}, nil
	}
}

// FromLexicalForm builds a Value from a lexical form plus an optional
// language tag and datatype IRI, the shape both a parsed RDF literal
// and a SPARQL literal term (ast.Term) carry. An empty datatype with
// no lang is treated as xsd:string, matching plain-literal defaulting
// elsewhere in this package.
func FromLexicalForm(lexical, lang, datatype string) (Value, error) {
	if lang != "" {
		return LangStringVal(lexical, lang), nil
	}
	if datatype == "" || datatype == XSDString {
		return PlainString(lexical), nil
	}
	return typedLiteral(lexical, datatype)
}

// Encode renders v back into the atom byte-string grammar ParseTerm
// accepts, the inverse operation used when a constructed value (e.g.
// the result of STRDT or BNODE) must be interned as a fresh atom.
func (v Value) Encode() []byte {
	switch v.Kind {
	case KindIRI:
		return []byte("<" + v.Lexical + ">")
	case KindBlank:
		return []byte("_:" + v.Lexical)
	case KindString:
		return []byte(quote(v.Lexical))
	case KindLangString:
		return []byte(quote(v.Lexical) + "@" + v.Lang)
	case KindBoolean, KindInteger, KindDecimal, KindDouble, KindDateTime:
		return []byte(quote(v.Lexical) + "^^<" + v.Datatype + ">")
	case KindTypedLiteral:
		return []byte(quote(v.Lexical) + "^^<" + v.Datatype + ">")
	default:
		return nil
	}
}

func quote(s string) string {
	var sb strings.Builder
	sb.WriteByte('"')
	for _, r := range s {
		switch r {
		case '"':
			sb.WriteString(`\"`)
		case '\\':
			sb.WriteString(`\\`)
		case '\n':
			sb.WriteString(`\n`)
		case '\r':
			sb.WriteString(`\r`)
		case '\t':
			sb.WriteString(`\t`)
		default:
			sb.WriteRune(r)
		}
	}
	sb.WriteByte('"')
	return sb.String()
}

// NewBlankNode returns a fresh globally-unique blank node label. Blank
// node identity only needs to be unique within a store (spec §3), but
// a uuid keeps labels stable across process restarts without a
// separate counter file.
func NewBlankNode() string {
	return "b" + uuid.NewString()
}
