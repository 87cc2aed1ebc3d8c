package parser

import (
	"github.com/quadcore/quadcore/internal/sparql/ast"
	"github.com/quadcore/quadcore/internal/sparql/token"
)

// parseGroupGraphPattern parses a "{ ... }" block: a sequence of
// GraphPatternNotTriples productions (FILTER, OPTIONAL, UNION, MINUS,
// GRAPH, BIND, VALUES, SERVICE, a nested sub-SELECT) interleaved with
// basic graph pattern (triples) blocks, each optionally '.'-terminated.
func (p *parser) parseGroupGraphPattern() (*ast.GroupGraphPattern, error) {
	if _, err := p.expect(token.LBRACE); err != nil {
		return nil, err
	}
	g := &ast.GroupGraphPattern{}

	// A leading sub-SELECT is the only construct allowed to occupy an
	// entire group on its own (SPARQL's GroupGraphPatternSub first
	// alternative).
	if p.at(token.SELECT) {
		sub, err := p.parseSelect()
		if err != nil {
			return nil, err
		}
		g.Elements = append(g.Elements, ast.PatternElement{Kind: ast.PatternSubSelect, SubSelect: sub})
		if _, err := p.expect(token.RBRACE); err != nil {
			return nil, err
		}
		return g, nil
	}

	for !p.at(token.RBRACE) && !p.at(token.EOF) {
		if p.at(token.LBRACE) {
			els, err := p.parseBraceGroupElements()
			if err != nil {
				return nil, err
			}
			g.Elements = append(g.Elements, els...)
			if p.at(token.DOT) {
				p.advance()
			}
			continue
		}
		el, err := p.parseGraphPatternElement()
		if err != nil {
			return nil, err
		}
		if el.Kind == ast.PatternBGP && len(g.Elements) > 0 && g.Elements[len(g.Elements)-1].Kind == ast.PatternBGP {
			last := &g.Elements[len(g.Elements)-1]
			last.Triples = append(last.Triples, el.Triples...)
		} else {
			g.Elements = append(g.Elements, el)
		}
		if p.at(token.DOT) {
			p.advance()
		}
	}
	if _, err := p.expect(token.RBRACE); err != nil {
		return nil, err
	}
	return g, nil
}

// parseGraphPatternElement parses exactly one element of a group: a
// single GraphPatternNotTriples construct, or the triples of one
// subject as a PatternBGP element (parseGroupGraphPattern folds
// consecutive PatternBGP elements into one).
func (p *parser) parseGraphPatternElement() (ast.PatternElement, error) {
	switch p.cur.Type {
	case token.FILTER:
		return p.parseFilterElement()
	case token.OPTIONAL:
		return p.parseOptionalElement()
	case token.MINUS_KW:
		return p.parseMinusElement()
	case token.GRAPH:
		return p.parseGraphElement()
	case token.BIND:
		return p.parseBindElement()
	case token.VALUES:
		el, err := p.parseValuesElement()
		return el, err
	case token.SERVICE:
		return p.parseServiceElement()
	default:
		triples, err := p.parseTriplesSameSubject()
		if err != nil {
			return ast.PatternElement{}, err
		}
		return ast.PatternElement{Kind: ast.PatternBGP, Triples: triples}, nil
	}
}

// parseBraceGroupElements handles a bare "{ ... }" appearing as a group
// element. Followed by UNION, it chains into a left-deep tree of
// PatternUnion elements (left-associative, per the W3C grammar's
// GroupOrUnionGraphPattern production). Standing alone, a nested group
// is just a scoping boundary around its own elements, so those
// elements splice directly into the parent rather than being wrapped
// in an artificial pattern kind.
func (p *parser) parseBraceGroupElements() ([]ast.PatternElement, error) {
	first, err := p.parseGroupGraphPattern()
	if err != nil {
		return nil, err
	}
	if !p.at(token.UNION) {
		return first.Elements, nil
	}
	left := first
	for p.at(token.UNION) {
		p.advance()
		right, err := p.parseGroupGraphPattern()
		if err != nil {
			return nil, err
		}
		left = &ast.GroupGraphPattern{Elements: []ast.PatternElement{{
			Kind:      ast.PatternUnion,
			UnionLeft: left, UnionRight: right,
		}}}
	}
	return left.Elements, nil
}

func (p *parser) parseFilterElement() (ast.PatternElement, error) {
	p.advance() // FILTER
	e, err := p.parseConstraint()
	if err != nil {
		return ast.PatternElement{}, err
	}
	return ast.PatternElement{Kind: ast.PatternFilter, Filter: e}, nil
}

// parseConstraint parses a FILTER's argument: either a bracketed
// expression, a builtin call, or a function-IRI call.
func (p *parser) parseConstraint() (ast.Expr, error) {
	if p.at(token.LPAREN) {
		return p.parseBracketedExpr()
	}
	return p.parsePrimaryExpr()
}

func (p *parser) parseOptionalElement() (ast.PatternElement, error) {
	p.advance() // OPTIONAL
	g, err := p.parseGroupGraphPattern()
	if err != nil {
		return ast.PatternElement{}, err
	}
	return ast.PatternElement{Kind: ast.PatternOptional, Optional: g}, nil
}

func (p *parser) parseMinusElement() (ast.PatternElement, error) {
	p.advance() // MINUS
	g, err := p.parseGroupGraphPattern()
	if err != nil {
		return ast.PatternElement{}, err
	}
	return ast.PatternElement{Kind: ast.PatternMinus, Minus: g}, nil
}

func (p *parser) parseGraphElement() (ast.PatternElement, error) {
	p.advance() // GRAPH
	term, err := p.parseVarOrIRI()
	if err != nil {
		return ast.PatternElement{}, err
	}
	g, err := p.parseGroupGraphPattern()
	if err != nil {
		return ast.PatternElement{}, err
	}
	return ast.PatternElement{Kind: ast.PatternGraph, GraphTerm: term, GraphPattern: g}, nil
}

func (p *parser) parseVarOrIRI() (ast.Term, error) {
	pos := p.cur.Pos
	if p.at(token.VAR) {
		name := p.cur.Literal
		p.advance()
		return ast.Term{Kind: ast.TermVar, Text: name, Span: spanOf(pos)}, nil
	}
	iri, err := p.parseIRITerm()
	if err != nil {
		return ast.Term{}, err
	}
	return ast.Term{Kind: ast.TermIRI, Text: iri, Span: spanOf(pos)}, nil
}

func (p *parser) parseBindElement() (ast.PatternElement, error) {
	p.advance() // BIND
	if _, err := p.expect(token.LPAREN); err != nil {
		return ast.PatternElement{}, err
	}
	e, err := p.parseExpr()
	if err != nil {
		return ast.PatternElement{}, err
	}
	if _, err := p.expect(token.AS); err != nil {
		return ast.PatternElement{}, err
	}
	v, err := p.expect(token.VAR)
	if err != nil {
		return ast.PatternElement{}, err
	}
	if _, err := p.expect(token.RPAREN); err != nil {
		return ast.PatternElement{}, err
	}
	return ast.PatternElement{Kind: ast.PatternBind, BindVar: v.Literal, BindExpr: e}, nil
}

func (p *parser) parseValuesElement() (ast.PatternElement, error) {
	p.advance() // VALUES
	return p.parseValuesClauseBody()
}

// parseValuesClauseBody parses the "DataBlock" shared by the VALUES
// pattern element and the VALUES clause of a SPARQL Update WHERE.
func (p *parser) parseValuesClauseBody() (ast.PatternElement, error) {
	var vars []string
	if p.at(token.VAR) {
		vars = append(vars, p.cur.Literal)
		p.advance()
	} else if p.at(token.LPAREN) {
		p.advance()
		for p.at(token.VAR) {
			vars = append(vars, p.cur.Literal)
			p.advance()
		}
		if _, err := p.expect(token.RPAREN); err != nil {
			return ast.PatternElement{}, err
		}
	} else {
		return ast.PatternElement{}, newError(UnexpectedToken, p.cur.Pos, "expected a variable or variable list after VALUES")
	}

	if _, err := p.expect(token.LBRACE); err != nil {
		return ast.PatternElement{}, err
	}
	var rows [][]ast.Term
	var unbound [][]bool
	for !p.at(token.RBRACE) {
		row, rowUnbound, err := p.parseValuesRow(len(vars))
		if err != nil {
			return ast.PatternElement{}, err
		}
		rows = append(rows, row)
		unbound = append(unbound, rowUnbound)
	}
	if _, err := p.expect(token.RBRACE); err != nil {
		return ast.PatternElement{}, err
	}
	return ast.PatternElement{Kind: ast.PatternValues, ValuesVars: vars, ValuesRows: rows, ValuesUnbound: unbound}, nil
}

func (p *parser) parseValuesRow(width int) ([]ast.Term, []bool, error) {
	paren := p.at(token.LPAREN)
	if paren {
		p.advance()
	}
	row := make([]ast.Term, 0, width)
	unbound := make([]bool, 0, width)
	for {
		if p.at(token.UNDEF) {
			p.advance()
			row = append(row, ast.Term{})
			unbound = append(unbound, true)
		} else {
			t, err := p.parseVarOrTerm()
			if err != nil {
				return nil, nil, err
			}
			row = append(row, t)
			unbound = append(unbound, false)
		}
		if paren {
			if p.at(token.RPAREN) {
				p.advance()
				break
			}
			continue
		}
		break
	}
	return row, unbound, nil
}

func (p *parser) parseServiceElement() (ast.PatternElement, error) {
	p.advance() // SERVICE
	silent := false
	if p.at(token.SILENT) {
		silent = true
		p.advance()
	}
	target, err := p.parseVarOrIRI()
	if err != nil {
		return ast.PatternElement{}, err
	}
	g, err := p.parseGroupGraphPattern()
	if err != nil {
		return ast.PatternElement{}, err
	}
	return ast.PatternElement{Kind: ast.PatternService, ServiceSilent: silent, ServiceTerm: target, ServicePattern: g}, nil
}

// parseTriplesSameSubject parses one subject followed by a ';'-separated
// predicate-object-list and a ','-separated object list per predicate,
// expanding the shared-subject shorthand into individual TriplePatterns
// (spec §4.6 notes collections/blank-node-property-lists are rejected,
// but the subject/predicate/object list shorthand needs no new term
// kind; it only fans a single subject out across several patterns).
func (p *parser) parseTriplesSameSubject() ([]ast.TriplePattern, error) {
	subj, err := p.parseVarOrTerm()
	if err != nil {
		return nil, err
	}
	return p.parsePredicateObjectList(subj)
}

func (p *parser) parsePredicateObjectList(subj ast.Term) ([]ast.TriplePattern, error) {
	var out []ast.TriplePattern
	for {
		pred, err := p.parseVerb()
		if err != nil {
			return nil, err
		}
		objs, err := p.parseObjectList()
		if err != nil {
			return nil, err
		}
		for _, o := range objs {
			out = append(out, ast.TriplePattern{Subject: subj, Predicate: pred, Object: o})
		}
		if !p.at(token.SEMI) {
			break
		}
		for p.at(token.SEMI) {
			p.advance()
		}
		// A trailing ';' with no further predicate-object pair is legal.
		if p.at(token.DOT) || p.at(token.RBRACE) || p.at(token.EOF) {
			break
		}
	}
	return out, nil
}

func (p *parser) parseVerb() (ast.Term, error) {
	pos := p.cur.Pos
	t, err := p.parseVarOrTerm()
	if err != nil {
		return ast.Term{}, err
	}
	if t.Kind == ast.TermBlank || t.Kind == ast.TermLiteral {
		return ast.Term{}, newError(UnsupportedFeature, pos, "predicate must be an IRI or a variable (generalized RDF is not supported)")
	}
	return t, nil
}

func (p *parser) parseObjectList() ([]ast.Term, error) {
	var objs []ast.Term
	for {
		o, err := p.parseVarOrTerm()
		if err != nil {
			return nil, err
		}
		objs = append(objs, o)
		if !p.at(token.COMMA) {
			break
		}
		p.advance()
	}
	return objs, nil
}
