// Package parser implements a recursive-descent parser for SPARQL 1.1
// query and update forms, producing the sum-typed logical
// representation in internal/sparql/ast.
package parser

import (
	"strconv"
	"strings"

	"github.com/quadcore/quadcore/internal/sparql/ast"
	"github.com/quadcore/quadcore/internal/sparql/token"
)

type parser struct {
	lex  *token.Lexer
	cur  token.Token
	peek token.Token

	prefixes map[string]string
	base     string
}

func newParser(src string) *parser {
	p := &parser{lex: token.NewLexer(src), prefixes: map[string]string{}}
	p.advance()
	p.advance()
	return p
}

func (p *parser) advance() {
	p.cur = p.peek
	p.peek = p.lex.Next()
}

func (p *parser) at(t token.Type) bool { return p.cur.Type == t }

func (p *parser) expect(t token.Type) (token.Token, error) {
	if p.cur.Type != t {
		return token.Token{}, newError(UnexpectedToken, p.cur.Pos, "expected %s, found %s %q", t, p.cur.Type, p.cur.Literal)
	}
	tok := p.cur
	p.advance()
	return tok, nil
}

// ParseQuery parses a full SPARQL query string (prologue plus one of
// SELECT/ASK/CONSTRUCT/DESCRIBE).
func ParseQuery(src string) (*ast.SelectQuery, error) {
	p := newParser(src)
	if err := p.parsePrologue(); err != nil {
		return nil, err
	}
	switch p.cur.Type {
	case token.SELECT:
		return p.parseSelect()
	case token.ASK:
		return p.parseAsk()
	case token.CONSTRUCT:
		return p.parseConstruct()
	case token.DESCRIBE:
		return p.parseDescribe()
	default:
		return nil, newError(MissingProduction, p.cur.Pos, "expected SELECT, ASK, CONSTRUCT, or DESCRIBE")
	}
}

// ParseUpdate parses a SPARQL Update request body: a prologue
// followed by a semicolon-separated sequence of update operations.
func ParseUpdate(src string) ([]*ast.Update, error) {
	p := newParser(src)
	var updates []*ast.Update
	for {
		if err := p.parsePrologue(); err != nil {
			return nil, err
		}
		if p.at(token.EOF) {
			break
		}
		u, err := p.parseUpdateOperation()
		if err != nil {
			return nil, err
		}
		updates = append(updates, u)
		if p.at(token.SEMI) {
			p.advance()
			if p.at(token.EOF) {
				break
			}
			continue
		}
		break
	}
	return updates, nil
}

func (p *parser) parsePrologue() error {
	for {
		switch p.cur.Type {
		case token.PREFIX:
			p.advance()
			name, err := p.expect(token.PNAME)
			if err != nil {
				return err
			}
			iri, err := p.expect(token.IRIREF)
			if err != nil {
				return err
			}
			prefix := strings.TrimSuffix(name.Literal, ":")
			p.prefixes[prefix] = iri.Literal
		case token.BASE:
			p.advance()
			iri, err := p.expect(token.IRIREF)
			if err != nil {
				return err
			}
			p.base = iri.Literal
		default:
			return nil
		}
	}
}

func (p *parser) resolvePName(lit string, pos token.Pos) (string, error) {
	idx := strings.IndexByte(lit, ':')
	if idx < 0 {
		return "", newError(UnexpectedToken, pos, "malformed prefixed name %q", lit)
	}
	prefix, local := lit[:idx], lit[idx+1:]
	ns, ok := p.prefixes[prefix]
	if !ok {
		return "", newError(UnexpectedToken, pos, "undefined prefix %q", prefix)
	}
	return ns + local, nil
}

func (p *parser) parseIntLiteral(lit string, pos token.Pos) (int64, error) {
	n, err := strconv.ParseInt(lit, 10, 64)
	if err != nil {
		return 0, newError(UnexpectedToken, pos, "invalid integer %q", lit)
	}
	return n, nil
}
