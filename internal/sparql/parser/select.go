package parser

import (
	"github.com/quadcore/quadcore/internal/sparql/ast"
	"github.com/quadcore/quadcore/internal/sparql/token"
)

// parseSelect parses the SELECT form, starting with p.cur == SELECT.
func (p *parser) parseSelect() (*ast.SelectQuery, error) {
	q := &ast.SelectQuery{Form: ast.FormSelect, Limit: -1, Offset: -1}
	p.advance() // SELECT

	switch p.cur.Type {
	case token.DISTINCT:
		q.Distinct = true
		p.advance()
	case token.REDUCED:
		q.Reduced = true
		p.advance()
	}

	if p.at(token.STAR) {
		q.Star = true
		p.advance()
	} else {
		for p.isProjectItemStart() {
			item, err := p.parseProjectItem()
			if err != nil {
				return nil, err
			}
			q.Projection = append(q.Projection, item)
		}
		if len(q.Projection) == 0 {
			return nil, newError(MissingProduction, p.cur.Pos, "expected a SELECT variable list or *")
		}
	}

	if err := p.parseDatasetClauses(q); err != nil {
		return nil, err
	}
	if _, err := p.expect(token.WHERE); err != nil {
		// WHERE keyword is required by this grammar surface; the
		// bare form without WHERE is a legacy EBNF optionality the
		// W3C grammar also permits, but we require the keyword to
		// keep the parser unambiguous.
		return nil, err
	}
	where, err := p.parseGroupGraphPattern()
	if err != nil {
		return nil, err
	}
	q.Where = where

	if err := p.parseSolutionModifiers(q); err != nil {
		return nil, err
	}
	return q, nil
}

func (p *parser) isProjectItemStart() bool {
	return p.at(token.VAR) || p.at(token.LPAREN)
}

func (p *parser) parseProjectItem() (ast.ProjectItem, error) {
	if p.at(token.VAR) {
		name := p.cur.Literal
		pos := p.cur.Pos
		p.advance()
		return ast.ProjectItem{Expr: ast.Expr{Kind: ast.ExprTerm, Term: ast.Term{Kind: ast.TermVar, Text: name, Span: spanOf(pos)}}}, nil
	}
	if _, err := p.expect(token.LPAREN); err != nil {
		return ast.ProjectItem{}, err
	}
	e, err := p.parseExpr()
	if err != nil {
		return ast.ProjectItem{}, err
	}
	if _, err := p.expect(token.AS); err != nil {
		return ast.ProjectItem{}, err
	}
	alias, err := p.expect(token.VAR)
	if err != nil {
		return ast.ProjectItem{}, err
	}
	if _, err := p.expect(token.RPAREN); err != nil {
		return ast.ProjectItem{}, err
	}
	return ast.ProjectItem{Expr: e, As: alias.Literal}, nil
}

func (p *parser) parseDatasetClauses(q *ast.SelectQuery) error {
	for p.at(token.FROM) {
		p.advance()
		named := false
		if p.at(token.NAMED) {
			named = true
			p.advance()
		}
		iri, err := p.parseIRITerm()
		if err != nil {
			return err
		}
		t := ast.Term{Kind: ast.TermIRI, Text: iri}
		if named {
			q.NamedDataset = append(q.NamedDataset, t)
		} else {
			q.Dataset = append(q.Dataset, t)
		}
	}
	return nil
}

// parseSolutionModifiers parses GROUP BY / HAVING / ORDER BY / LIMIT /
// OFFSET, in that grammar order, all optional.
func (p *parser) parseSolutionModifiers(q *ast.SelectQuery) error {
	if p.at(token.GROUP) {
		p.advance()
		if _, err := p.expect(token.BY); err != nil {
			return err
		}
		for p.isGroupConditionStart() {
			e, err := p.parseGroupCondition()
			if err != nil {
				return err
			}
			q.GroupBy = append(q.GroupBy, e)
		}
	}
	if p.at(token.HAVING) {
		p.advance()
		for {
			e, err := p.parseBracketedOrPrimaryExpr()
			if err != nil {
				return err
			}
			q.Having = append(q.Having, e)
			if !p.isExprStart() {
				break
			}
		}
	}
	if p.at(token.ORDER) {
		p.advance()
		if _, err := p.expect(token.BY); err != nil {
			return err
		}
		for p.isOrderConditionStart() {
			ot, err := p.parseOrderCondition()
			if err != nil {
				return err
			}
			q.OrderBy = append(q.OrderBy, ot)
		}
	}
	if p.at(token.LIMIT) {
		p.advance()
		tok, err := p.expect(token.INTEGER)
		if err != nil {
			return err
		}
		n, err := p.parseIntLiteral(tok.Literal, tok.Pos)
		if err != nil {
			return err
		}
		q.Limit = n
	}
	if p.at(token.OFFSET) {
		p.advance()
		tok, err := p.expect(token.INTEGER)
		if err != nil {
			return err
		}
		n, err := p.parseIntLiteral(tok.Literal, tok.Pos)
		if err != nil {
			return err
		}
		q.Offset = n
	}
	return nil
}

func (p *parser) isGroupConditionStart() bool {
	return p.at(token.VAR) || p.at(token.LPAREN) || p.isExprStart()
}

func (p *parser) parseGroupCondition() (ast.Expr, error) {
	if p.at(token.LPAREN) {
		pos := p.cur.Pos
		p.advance()
		e, err := p.parseExpr()
		if err != nil {
			return ast.Expr{}, err
		}
		if p.at(token.AS) {
			p.advance()
			alias, err := p.expect(token.VAR)
			if err != nil {
				return ast.Expr{}, err
			}
			e = ast.Expr{Kind: ast.ExprCall, Func: "__GROUP_AS__", Args: []ast.Expr{e}, Term: ast.Term{Kind: ast.TermVar, Text: alias.Literal}, Span: spanOf(pos)}
		}
		if _, err := p.expect(token.RPAREN); err != nil {
			return ast.Expr{}, err
		}
		return e, nil
	}
	return p.parseUnaryExpr()
}

func (p *parser) isOrderConditionStart() bool {
	return p.at(token.ASC) || p.at(token.DESC) || p.isExprStart()
}

func (p *parser) parseOrderCondition() (ast.OrderTerm, error) {
	desc := false
	if p.at(token.ASC) {
		p.advance()
		e, err := p.parseBracketedExpr()
		if err != nil {
			return ast.OrderTerm{}, err
		}
		return ast.OrderTerm{Expr: e, Descending: false}, nil
	}
	if p.at(token.DESC) {
		desc = true
		p.advance()
		e, err := p.parseBracketedExpr()
		if err != nil {
			return ast.OrderTerm{}, err
		}
		return ast.OrderTerm{Expr: e, Descending: desc}, nil
	}
	e, err := p.parseUnaryExpr()
	if err != nil {
		return ast.OrderTerm{}, err
	}
	return ast.OrderTerm{Expr: e}, nil
}

func (p *parser) parseBracketedExpr() (ast.Expr, error) {
	if _, err := p.expect(token.LPAREN); err != nil {
		return ast.Expr{}, err
	}
	e, err := p.parseExpr()
	if err != nil {
		return ast.Expr{}, err
	}
	if _, err := p.expect(token.RPAREN); err != nil {
		return ast.Expr{}, err
	}
	return e, nil
}

func (p *parser) parseBracketedOrPrimaryExpr() (ast.Expr, error) {
	if p.at(token.LPAREN) {
		return p.parseBracketedExpr()
	}
	return p.parseUnaryExpr()
}

// parseAsk parses the ASK form, starting with p.cur == ASK.
func (p *parser) parseAsk() (*ast.SelectQuery, error) {
	q := &ast.SelectQuery{Form: ast.FormAsk, Limit: -1, Offset: -1}
	p.advance()
	if err := p.parseDatasetClauses(q); err != nil {
		return nil, err
	}
	if _, err := p.expect(token.WHERE); err != nil {
		return nil, err
	}
	where, err := p.parseGroupGraphPattern()
	if err != nil {
		return nil, err
	}
	q.Where = where
	return q, nil
}

// parseConstruct parses the CONSTRUCT form, starting with p.cur == CONSTRUCT.
func (p *parser) parseConstruct() (*ast.SelectQuery, error) {
	q := &ast.SelectQuery{Form: ast.FormConstruct, Limit: -1, Offset: -1}
	p.advance()

	if p.at(token.WHERE) {
		// CONSTRUCT WHERE { TemplateSameAsPattern } shorthand: the
		// template is implied by the WHERE pattern's triples.
		p.advance()
		where, err := p.parseGroupGraphPattern()
		if err != nil {
			return nil, err
		}
		q.Where = where
		q.ConstructTemplate = flattenBGP(where)
		if err := p.parseSolutionModifiers(q); err != nil {
			return nil, err
		}
		return q, nil
	}

	tmpl, err := p.parseConstructTemplate()
	if err != nil {
		return nil, err
	}
	q.ConstructTemplate = tmpl

	if err := p.parseDatasetClauses(q); err != nil {
		return nil, err
	}
	if _, err := p.expect(token.WHERE); err != nil {
		return nil, err
	}
	where, err := p.parseGroupGraphPattern()
	if err != nil {
		return nil, err
	}
	q.Where = where
	if err := p.parseSolutionModifiers(q); err != nil {
		return nil, err
	}
	return q, nil
}

func flattenBGP(g *ast.GroupGraphPattern) []ast.TriplePattern {
	var out []ast.TriplePattern
	for _, el := range g.Elements {
		if el.Kind == ast.PatternBGP {
			out = append(out, el.Triples...)
		}
	}
	return out
}

func (p *parser) parseConstructTemplate() ([]ast.TriplePattern, error) {
	if _, err := p.expect(token.LBRACE); err != nil {
		return nil, err
	}
	var triples []ast.TriplePattern
	for !p.at(token.RBRACE) {
		ts, err := p.parseTriplesSameSubject()
		if err != nil {
			return nil, err
		}
		triples = append(triples, ts...)
		if p.at(token.DOT) {
			p.advance()
		}
	}
	if _, err := p.expect(token.RBRACE); err != nil {
		return nil, err
	}
	return triples, nil
}

// parseDescribe parses the DESCRIBE form, starting with p.cur == DESCRIBE.
func (p *parser) parseDescribe() (*ast.SelectQuery, error) {
	q := &ast.SelectQuery{Form: ast.FormDescribe, Limit: -1, Offset: -1}
	p.advance()

	if p.at(token.STAR) {
		q.Star = true
		p.advance()
	} else {
		for p.at(token.VAR) || p.at(token.IRIREF) || p.at(token.PNAME) || p.at(token.A) {
			t, err := p.parseVarOrTerm()
			if err != nil {
				return nil, err
			}
			q.DescribeTargets = append(q.DescribeTargets, t)
		}
	}

	if err := p.parseDatasetClauses(q); err != nil {
		return nil, err
	}
	if p.at(token.WHERE) {
		p.advance()
		where, err := p.parseGroupGraphPattern()
		if err != nil {
			return nil, err
		}
		q.Where = where
	}
	if err := p.parseSolutionModifiers(q); err != nil {
		return nil, err
	}
	return q, nil
}
