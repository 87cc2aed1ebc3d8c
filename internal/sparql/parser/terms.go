package parser

import (
	"github.com/quadcore/quadcore/internal/sparql/ast"
	"github.com/quadcore/quadcore/internal/sparql/token"
)

// parseVarOrTerm parses one subject/predicate/object slot: a
// variable, IRI, blank node, 'a', or literal. Collections ("( ... )")
// and blank node property lists ("[ ... ]") are valid SPARQL but are
// reported as unsupported rather than silently flattened, since
// neither maps to a single term slot.
func (p *parser) parseVarOrTerm() (ast.Term, error) {
	pos := p.cur.Pos
	switch p.cur.Type {
	case token.VAR:
		name := p.cur.Literal
		p.advance()
		return ast.Term{Kind: ast.TermVar, Text: name, Span: spanOf(pos)}, nil
	case token.IRIREF:
		iri := p.cur.Literal
		p.advance()
		return ast.Term{Kind: ast.TermIRI, Text: iri, Span: spanOf(pos)}, nil
	case token.PNAME:
		if p.cur.Literal == "true" || p.cur.Literal == "false" {
			lit := p.cur.Literal
			p.advance()
			return ast.Term{Kind: ast.TermLiteral, Text: lit, Datatype: xsdBoolean, Span: spanOf(pos)}, nil
		}
		iri, err := p.resolvePName(p.cur.Literal, pos)
		if err != nil {
			return ast.Term{}, err
		}
		p.advance()
		return ast.Term{Kind: ast.TermIRI, Text: iri, Span: spanOf(pos)}, nil
	case token.A:
		p.advance()
		return ast.Term{Kind: ast.TermIRI, Text: rdfType, Span: spanOf(pos)}, nil
	case token.BLANK_NODE:
		label := p.cur.Literal
		p.advance()
		return ast.Term{Kind: ast.TermBlank, Text: label, Span: spanOf(pos)}, nil
	case token.STRING, token.INTEGER, token.DECIMAL, token.DOUBLE:
		return p.parseLiteral()
	case token.LPAREN:
		return ast.Term{}, newError(UnsupportedFeature, pos, "collection syntax is not supported in term position")
	case token.LBRACKET:
		return ast.Term{}, newError(UnsupportedFeature, pos, "blank node property list syntax is not supported")
	default:
		return ast.Term{}, newError(UnexpectedToken, pos, "expected a term, found %s %q", p.cur.Type, p.cur.Literal)
	}
}

const (
	rdfType     = "http://www.w3.org/1999/02/22-rdf-syntax-ns#type"
	xsdBoolean  = "http://www.w3.org/2001/XMLSchema#boolean"
	xsdInteger  = "http://www.w3.org/2001/XMLSchema#integer"
	xsdDecimal  = "http://www.w3.org/2001/XMLSchema#decimal"
	xsdDouble   = "http://www.w3.org/2001/XMLSchema#double"
	xsdString   = "http://www.w3.org/2001/XMLSchema#string"
)

func (p *parser) parseLiteral() (ast.Term, error) {
	pos := p.cur.Pos
	switch p.cur.Type {
	case token.INTEGER:
		lit := p.cur.Literal
		p.advance()
		return ast.Term{Kind: ast.TermLiteral, Text: lit, Datatype: xsdInteger, Span: spanOf(pos)}, nil
	case token.DECIMAL:
		lit := p.cur.Literal
		p.advance()
		return ast.Term{Kind: ast.TermLiteral, Text: lit, Datatype: xsdDecimal, Span: spanOf(pos)}, nil
	case token.DOUBLE:
		lit := p.cur.Literal
		p.advance()
		return ast.Term{Kind: ast.TermLiteral, Text: lit, Datatype: xsdDouble, Span: spanOf(pos)}, nil
	case token.STRING:
		lit := p.cur.Literal
		p.advance()
		switch p.cur.Type {
		case token.LANGTAG:
			lang := p.cur.Literal
			p.advance()
			return ast.Term{Kind: ast.TermLiteral, Text: lit, Lang: lang, Span: spanOf(pos)}, nil
		case token.DOUBLE_CARET:
			p.advance()
			dt, err := p.parseIRITerm()
			if err != nil {
				return ast.Term{}, err
			}
			return ast.Term{Kind: ast.TermLiteral, Text: lit, Datatype: dt, Span: spanOf(pos)}, nil
		default:
			return ast.Term{Kind: ast.TermLiteral, Text: lit, Datatype: xsdString, Span: spanOf(pos)}, nil
		}
	default:
		return ast.Term{}, newError(UnexpectedToken, pos, "expected a literal, found %s", p.cur.Type)
	}
}

// parseIRITerm parses exactly an IRI reference or prefixed name,
// resolved to a full IRI string, for positions that never accept a
// variable (GRAPH target of CLEAR/DROP, datatype IRIs, FROM clauses).
func (p *parser) parseIRITerm() (string, error) {
	pos := p.cur.Pos
	switch p.cur.Type {
	case token.IRIREF:
		iri := p.cur.Literal
		p.advance()
		return iri, nil
	case token.PNAME:
		iri, err := p.resolvePName(p.cur.Literal, pos)
		if err != nil {
			return "", err
		}
		p.advance()
		return iri, nil
	default:
		return "", newError(UnexpectedToken, pos, "expected an IRI, found %s %q", p.cur.Type, p.cur.Literal)
	}
}

func spanOf(pos token.Pos) ast.Span {
	return ast.Span{Offset: pos.Offset, Line: pos.Line, Column: pos.Column}
}
