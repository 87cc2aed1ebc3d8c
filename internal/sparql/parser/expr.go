package parser

import (
	"strings"

	"github.com/quadcore/quadcore/internal/sparql/ast"
	"github.com/quadcore/quadcore/internal/sparql/token"
)

// parseExpr parses a full ConditionalOrExpression: the widest
// expression production, used by FILTER/BIND/HAVING top-level
// arguments and SELECT expression projections.
func (p *parser) parseExpr() (ast.Expr, error) {
	return p.parseOrExpr()
}

func (p *parser) isExprStart() bool {
	switch p.cur.Type {
	case token.VAR, token.IRIREF, token.PNAME, token.STRING, token.INTEGER,
		token.DECIMAL, token.DOUBLE, token.LPAREN, token.BANG, token.PLUS,
		token.MINUS, token.NOT, token.EXISTS, token.A:
		return true
	default:
		return false
	}
}

func (p *parser) parseOrExpr() (ast.Expr, error) {
	left, err := p.parseAndExpr()
	if err != nil {
		return ast.Expr{}, err
	}
	for p.at(token.OR) {
		pos := p.cur.Pos
		p.advance()
		right, err := p.parseAndExpr()
		if err != nil {
			return ast.Expr{}, err
		}
		left = ast.Expr{Kind: ast.ExprBinary, Op: "||", Args: []ast.Expr{left, right}, Span: spanOf(pos)}
	}
	return left, nil
}

func (p *parser) parseAndExpr() (ast.Expr, error) {
	left, err := p.parseRelationalExpr()
	if err != nil {
		return ast.Expr{}, err
	}
	for p.at(token.AND) {
		pos := p.cur.Pos
		p.advance()
		right, err := p.parseRelationalExpr()
		if err != nil {
			return ast.Expr{}, err
		}
		left = ast.Expr{Kind: ast.ExprBinary, Op: "&&", Args: []ast.Expr{left, right}, Span: spanOf(pos)}
	}
	return left, nil
}

func (p *parser) parseRelationalExpr() (ast.Expr, error) {
	left, err := p.parseAdditiveExpr()
	if err != nil {
		return ast.Expr{}, err
	}
	switch p.cur.Type {
	case token.EQ, token.NE, token.LT, token.GT, token.LE, token.GE:
		op := opText(p.cur.Type)
		pos := p.cur.Pos
		p.advance()
		right, err := p.parseAdditiveExpr()
		if err != nil {
			return ast.Expr{}, err
		}
		return ast.Expr{Kind: ast.ExprBinary, Op: op, Args: []ast.Expr{left, right}, Span: spanOf(pos)}, nil
	case token.IN:
		pos := p.cur.Pos
		p.advance()
		list, err := p.parseExprList()
		if err != nil {
			return ast.Expr{}, err
		}
		return ast.Expr{Kind: ast.ExprIn, Args: append([]ast.Expr{left}, list...), Span: spanOf(pos)}, nil
	case token.NOT:
		pos := p.cur.Pos
		p.advance()
		if _, err := p.expect(token.IN); err != nil {
			return ast.Expr{}, err
		}
		list, err := p.parseExprList()
		if err != nil {
			return ast.Expr{}, err
		}
		return ast.Expr{Kind: ast.ExprNotIn, Args: append([]ast.Expr{left}, list...), Span: spanOf(pos)}, nil
	default:
		return left, nil
	}
}

func opText(t token.Type) string {
	switch t {
	case token.EQ:
		return "="
	case token.NE:
		return "!="
	case token.LT:
		return "<"
	case token.GT:
		return ">"
	case token.LE:
		return "<="
	case token.GE:
		return ">="
	default:
		return "?"
	}
}

func (p *parser) parseExprList() ([]ast.Expr, error) {
	if _, err := p.expect(token.LPAREN); err != nil {
		return nil, err
	}
	var out []ast.Expr
	if !p.at(token.RPAREN) {
		for {
			e, err := p.parseExpr()
			if err != nil {
				return nil, err
			}
			out = append(out, e)
			if !p.at(token.COMMA) {
				break
			}
			p.advance()
		}
	}
	if _, err := p.expect(token.RPAREN); err != nil {
		return nil, err
	}
	return out, nil
}

func (p *parser) parseAdditiveExpr() (ast.Expr, error) {
	left, err := p.parseMultiplicativeExpr()
	if err != nil {
		return ast.Expr{}, err
	}
	for p.at(token.PLUS) || p.at(token.MINUS) {
		op := "+"
		if p.at(token.MINUS) {
			op = "-"
		}
		pos := p.cur.Pos
		p.advance()
		right, err := p.parseMultiplicativeExpr()
		if err != nil {
			return ast.Expr{}, err
		}
		left = ast.Expr{Kind: ast.ExprBinary, Op: op, Args: []ast.Expr{left, right}, Span: spanOf(pos)}
	}
	return left, nil
}

func (p *parser) parseMultiplicativeExpr() (ast.Expr, error) {
	left, err := p.parseUnaryExpr()
	if err != nil {
		return ast.Expr{}, err
	}
	for p.at(token.STAR) || p.at(token.SLASH) {
		op := "*"
		if p.at(token.SLASH) {
			op = "/"
		}
		pos := p.cur.Pos
		p.advance()
		right, err := p.parseUnaryExpr()
		if err != nil {
			return ast.Expr{}, err
		}
		left = ast.Expr{Kind: ast.ExprBinary, Op: op, Args: []ast.Expr{left, right}, Span: spanOf(pos)}
	}
	return left, nil
}

func (p *parser) parseUnaryExpr() (ast.Expr, error) {
	switch p.cur.Type {
	case token.BANG:
		pos := p.cur.Pos
		p.advance()
		e, err := p.parsePrimaryExpr()
		if err != nil {
			return ast.Expr{}, err
		}
		return ast.Expr{Kind: ast.ExprUnary, Op: "!", Args: []ast.Expr{e}, Span: spanOf(pos)}, nil
	case token.PLUS:
		p.advance()
		return p.parsePrimaryExpr()
	case token.MINUS:
		pos := p.cur.Pos
		p.advance()
		e, err := p.parsePrimaryExpr()
		if err != nil {
			return ast.Expr{}, err
		}
		return ast.Expr{Kind: ast.ExprUnary, Op: "-", Args: []ast.Expr{e}, Span: spanOf(pos)}, nil
	default:
		return p.parsePrimaryExpr()
	}
}

// parsePrimaryExpr parses a BrackettedExpression, a BuiltInCall, a
// function-IRI call, a literal/variable term, or EXISTS/NOT EXISTS.
func (p *parser) parsePrimaryExpr() (ast.Expr, error) {
	pos := p.cur.Pos
	switch p.cur.Type {
	case token.LPAREN:
		return p.parseBracketedExpr()
	case token.NOT:
		p.advance()
		if _, err := p.expect(token.EXISTS); err != nil {
			return ast.Expr{}, err
		}
		g, err := p.parseGroupGraphPattern()
		if err != nil {
			return ast.Expr{}, err
		}
		return ast.Expr{Kind: ast.ExprNotExists, Group: g, Span: spanOf(pos)}, nil
	case token.EXISTS:
		p.advance()
		g, err := p.parseGroupGraphPattern()
		if err != nil {
			return ast.Expr{}, err
		}
		return ast.Expr{Kind: ast.ExprExists, Group: g, Span: spanOf(pos)}, nil
	case token.VAR:
		name := p.cur.Literal
		p.advance()
		return ast.Expr{Kind: ast.ExprTerm, Term: ast.Term{Kind: ast.TermVar, Text: name, Span: spanOf(pos)}, Span: spanOf(pos)}, nil
	case token.STRING, token.INTEGER, token.DECIMAL, token.DOUBLE:
		t, err := p.parseLiteral()
		if err != nil {
			return ast.Expr{}, err
		}
		return ast.Expr{Kind: ast.ExprTerm, Term: t, Span: spanOf(pos)}, nil
	case token.A:
		p.advance()
		return ast.Expr{Kind: ast.ExprTerm, Term: ast.Term{Kind: ast.TermIRI, Text: rdfType, Span: spanOf(pos)}, Span: spanOf(pos)}, nil
	case token.PNAME:
		return p.parseBuiltinOrFunctionCallOrBool(pos)
	case token.BLANK_NODE:
		label := p.cur.Literal
		p.advance()
		return ast.Expr{Kind: ast.ExprTerm, Term: ast.Term{Kind: ast.TermBlank, Text: label, Span: spanOf(pos)}, Span: spanOf(pos)}, nil
	case token.IRIREF:
		iri := p.cur.Literal
		p.advance()
		if p.at(token.LPAREN) {
			args, err := p.parseExprList()
			if err != nil {
				return ast.Expr{}, err
			}
			return ast.Expr{Kind: ast.ExprCall, Func: iri, Args: args, Span: spanOf(pos)}, nil
		}
		return ast.Expr{Kind: ast.ExprTerm, Term: ast.Term{Kind: ast.TermIRI, Text: iri, Span: spanOf(pos)}, Span: spanOf(pos)}, nil
	default:
		return ast.Expr{}, newError(UnexpectedToken, pos, "expected an expression, found %s %q", p.cur.Type, p.cur.Literal)
	}
}

// parseBuiltinOrFunctionCallOrBool handles every PNAME-led primary
// expression: the boolean literals "true"/"false" the lexer tokenizes
// as bare PNAMEs, a mandatory builtin call (spec §4.9's fixed name
// set, matched case-insensitively), or a prefixed-name function call.
func (p *parser) parseBuiltinOrFunctionCallOrBool(pos token.Pos) (ast.Expr, error) {
	lit := p.cur.Literal
	upper := strings.ToUpper(lit)

	if lit == "true" || lit == "false" {
		p.advance()
		return ast.Expr{Kind: ast.ExprTerm, Term: ast.Term{Kind: ast.TermLiteral, Text: lit, Datatype: xsdBoolean, Span: spanOf(pos)}, Span: spanOf(pos)}, nil
	}

	if !strings.Contains(lit, ":") && isKnownBuiltin(upper) {
		p.advance()
		args, err := p.parseExprList()
		if err != nil {
			return ast.Expr{}, err
		}
		return ast.Expr{Kind: ast.ExprCall, Func: upper, Args: args, Span: spanOf(pos)}, nil
	}

	iri, err := p.resolvePName(lit, pos)
	if err != nil {
		return ast.Expr{}, err
	}
	p.advance()
	if p.at(token.LPAREN) {
		args, err := p.parseExprList()
		if err != nil {
			return ast.Expr{}, err
		}
		return ast.Expr{Kind: ast.ExprCall, Func: iri, Args: args, Span: spanOf(pos)}, nil
	}
	return ast.Expr{Kind: ast.ExprTerm, Term: ast.Term{Kind: ast.TermIRI, Text: iri, Span: spanOf(pos)}, Span: spanOf(pos)}, nil
}

var mandatoryBuiltins = map[string]bool{
	"BOUND": true, "IF": true, "COALESCE": true, "REGEX": true, "REPLACE": true,
	"SAMETERM": true, "ISIRI": true, "ISURI": true, "ISBLANK": true, "ISLITERAL": true,
	"ISNUMERIC": true, "STR": true, "STRLEN": true, "SUBSTR": true, "CONTAINS": true,
	"STRSTARTS": true, "STRENDS": true, "STRBEFORE": true, "STRAFTER": true,
	"CONCAT": true, "UCASE": true, "LCASE": true, "ENCODE_FOR_URI": true,
	"ABS": true, "ROUND": true, "CEIL": true, "FLOOR": true, "LANG": true,
	"DATATYPE": true, "LANGMATCHES": true, "IRI": true, "URI": true, "STRDT": true,
	"STRLANG": true, "BNODE": true, "MD5": true, "SHA1": true, "SHA256": true,
	"SHA384": true, "SHA512": true, "UUID": true, "STRUUID": true, "NOW": true,
	"YEAR": true, "MONTH": true, "DAY": true, "HOURS": true, "MINUTES": true,
	"SECONDS": true, "TZ": true, "TIMEZONE": true,
}

func isKnownBuiltin(upper string) bool { return mandatoryBuiltins[upper] }
