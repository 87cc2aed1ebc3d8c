package parser

import (
	"github.com/quadcore/quadcore/internal/sparql/ast"
	"github.com/quadcore/quadcore/internal/sparql/token"
)

// parseUpdateOperation parses one SPARQL Update operation: INSERT
// DATA, DELETE DATA, DELETE WHERE, the INSERT/DELETE ... WHERE Modify
// form, and the graph-management forms CLEAR/DROP/CREATE/COPY/MOVE/ADD.
func (p *parser) parseUpdateOperation() (*ast.Update, error) {
	switch p.cur.Type {
	case token.INSERT:
		return p.parseInsertOperation()
	case token.DELETE:
		return p.parseDeleteOperation()
	case token.WITH:
		return p.parseModifyWithClause()
	case token.CLEAR:
		return p.parseClearOrDrop(ast.UpdateClear)
	case token.DROP:
		return p.parseClearOrDrop(ast.UpdateDrop)
	case token.CREATE:
		return p.parseCreate()
	case token.COPY:
		return p.parseCopyMoveAdd(ast.UpdateCopy)
	case token.MOVE:
		return p.parseCopyMoveAdd(ast.UpdateMove)
	case token.ADD:
		return p.parseCopyMoveAdd(ast.UpdateAddGraph)
	default:
		return nil, newError(MissingProduction, p.cur.Pos, "expected an update operation")
	}
}

func (p *parser) parseInsertOperation() (*ast.Update, error) {
	p.advance() // INSERT
	if p.at(token.DATA) {
		p.advance()
		quads, err := p.parseQuadData()
		if err != nil {
			return nil, err
		}
		return &ast.Update{Kind: ast.UpdateInsertData, InsertQuads: quads}, nil
	}
	return p.parseModifyTemplate(nil)
}

func (p *parser) parseDeleteOperation() (*ast.Update, error) {
	p.advance() // DELETE
	if p.at(token.DATA) {
		p.advance()
		quads, err := p.parseQuadData()
		if err != nil {
			return nil, err
		}
		return &ast.Update{Kind: ast.UpdateDeleteData, InsertQuads: quads}, nil
	}
	if p.at(token.WHERE) {
		p.advance()
		quads, err := p.parseQuadPatternBlock()
		if err != nil {
			return nil, err
		}
		return &ast.Update{Kind: ast.UpdateDeleteWhere, DeleteWhere: quads}, nil
	}
	deleteTmpl, err := p.parseQuadPatternBlock()
	if err != nil {
		return nil, err
	}
	return p.parseModifyTemplate(deleteTmpl)
}

// parseModifyWithClause parses "WITH <graph> ( INSERT | DELETE ) ...",
// which names a default graph for an otherwise ordinary Modify form.
func (p *parser) parseModifyWithClause() (*ast.Update, error) {
	p.advance() // WITH
	iri, err := p.parseIRITerm()
	if err != nil {
		return nil, err
	}
	var u *ast.Update
	switch p.cur.Type {
	case token.DELETE:
		u, err = p.parseDeleteOperation()
	case token.INSERT:
		u, err = p.parseInsertOperation()
	default:
		return nil, newError(MissingProduction, p.cur.Pos, "expected INSERT or DELETE after WITH")
	}
	if err != nil {
		return nil, err
	}
	withTerm := ast.Term{Kind: ast.TermIRI, Text: iri}
	u.UsingGraphs = append([]ast.Term{withTerm}, u.UsingGraphs...)
	return u, nil
}

// parseModifyTemplate parses the remainder of an INSERT/DELETE Modify
// form once its own quad template has been consumed: an optional
// second INSERT template, the USING clauses, and the WHERE pattern.
func (p *parser) parseModifyTemplate(deleteTmpl []ast.QuadPattern) (*ast.Update, error) {
	u := &ast.Update{Kind: ast.UpdateModify, DeleteTemplate: deleteTmpl}
	if p.at(token.INSERT) {
		p.advance()
		insertTmpl, err := p.parseQuadPatternBlock()
		if err != nil {
			return nil, err
		}
		u.InsertTemplate = insertTmpl
	}
	for p.at(token.USING) {
		p.advance()
		named := false
		if p.at(token.NAMED) {
			named = true
			p.advance()
		}
		iri, err := p.parseIRITerm()
		if err != nil {
			return nil, err
		}
		t := ast.Term{Kind: ast.TermIRI, Text: iri}
		if named {
			u.UsingNamed = append(u.UsingNamed, t)
		} else {
			u.UsingGraphs = append(u.UsingGraphs, t)
		}
	}
	if _, err := p.expect(token.WHERE); err != nil {
		return nil, err
	}
	where, err := p.parseGroupGraphPattern()
	if err != nil {
		return nil, err
	}
	u.Where = where
	return u, nil
}

// parseQuadData parses a "{ ... }" InsertDataBlock/DeleteDataBlock:
// GRAPH blocks and plain triples, each quad defaulting to the default
// graph unless nested inside a GRAPH block.
func (p *parser) parseQuadData() ([]ast.QuadPattern, error) {
	return p.parseQuadPatternBlock()
}

func (p *parser) parseQuadPatternBlock() ([]ast.QuadPattern, error) {
	if _, err := p.expect(token.LBRACE); err != nil {
		return nil, err
	}
	var out []ast.QuadPattern
	for !p.at(token.RBRACE) {
		if p.at(token.GRAPH) {
			p.advance()
			g, err := p.parseVarOrIRI()
			if err != nil {
				return nil, err
			}
			if _, err := p.expect(token.LBRACE); err != nil {
				return nil, err
			}
			for !p.at(token.RBRACE) {
				ts, err := p.parseTriplesSameSubject()
				if err != nil {
					return nil, err
				}
				for _, t := range ts {
					out = append(out, ast.QuadPattern{Graph: g, Triple: t})
				}
				if p.at(token.DOT) {
					p.advance()
				}
			}
			if _, err := p.expect(token.RBRACE); err != nil {
				return nil, err
			}
			if p.at(token.DOT) {
				p.advance()
			}
			continue
		}
		ts, err := p.parseTriplesSameSubject()
		if err != nil {
			return nil, err
		}
		for _, t := range ts {
			out = append(out, ast.QuadPattern{Triple: t})
		}
		if p.at(token.DOT) {
			p.advance()
		}
	}
	if _, err := p.expect(token.RBRACE); err != nil {
		return nil, err
	}
	return out, nil
}

func (p *parser) parseGraphRefOrDefaultOrNamedOrAll() (ast.GraphRef, error) {
	switch p.cur.Type {
	case token.DEFAULT:
		p.advance()
		return ast.GraphRef{IsDefault: true}, nil
	case token.NAMED:
		p.advance()
		return ast.GraphRef{IsNamed: true}, nil
	case token.ALL:
		p.advance()
		return ast.GraphRef{IsAll: true}, nil
	default:
		if p.at(token.GRAPH) {
			p.advance()
		}
		iri, err := p.parseIRITerm()
		if err != nil {
			return ast.GraphRef{}, err
		}
		return ast.GraphRef{Term: ast.Term{Kind: ast.TermIRI, Text: iri}}, nil
	}
}

func (p *parser) parseClearOrDrop(kind ast.UpdateKind) (*ast.Update, error) {
	p.advance() // CLEAR / DROP
	silent := false
	if p.at(token.SILENT) {
		silent = true
		p.advance()
	}
	ref, err := p.parseGraphRefOrDefaultOrNamedOrAll()
	if err != nil {
		return nil, err
	}
	return &ast.Update{Kind: kind, Silent: silent, Target: ref}, nil
}

func (p *parser) parseCreate() (*ast.Update, error) {
	p.advance() // CREATE
	silent := false
	if p.at(token.SILENT) {
		silent = true
		p.advance()
	}
	if p.at(token.GRAPH) {
		p.advance()
	}
	iri, err := p.parseIRITerm()
	if err != nil {
		return nil, err
	}
	return &ast.Update{Kind: ast.UpdateCreate, Silent: silent, Target: ast.GraphRef{Term: ast.Term{Kind: ast.TermIRI, Text: iri}}}, nil
}

func (p *parser) parseCopyMoveAdd(kind ast.UpdateKind) (*ast.Update, error) {
	p.advance() // COPY / MOVE / ADD
	silent := false
	if p.at(token.SILENT) {
		silent = true
		p.advance()
	}
	from, err := p.parseGraphRefOrDefaultOrNamedOrAll()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(token.TO); err != nil {
		return nil, err
	}
	to, err := p.parseGraphRefOrDefaultOrNamedOrAll()
	if err != nil {
		return nil, err
	}
	return &ast.Update{Kind: kind, Silent: silent, From: from, To: to}, nil
}
