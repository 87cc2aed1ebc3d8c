package plan

import (
	"strconv"
	"strings"

	"github.com/quadcore/quadcore/internal/sparql/ast"
)

// Parse reads text produced by Print back into a Node (see Print's doc
// comment for the one known gap, EXISTS/NOT EXISTS sub-patterns).
func Parse(text string) (Node, error) {
	toks, err := tokenize(text)
	if err != nil {
		return nil, err
	}
	p := &sparser{toks: toks}
	n, err := p.parseNode()
	if err != nil {
		return nil, err
	}
	if p.pos != len(p.toks) {
		return nil, &ParseError{Msg: "trailing tokens after plan"}
	}
	return n, nil
}

// ParseError reports a malformed printed-plan string.
type ParseError struct{ Msg string }

func (e *ParseError) Error() string { return "plan: parse: " + e.Msg }

func tokenize(s string) ([]string, error) {
	var toks []string
	i := 0
	for i < len(s) {
		c := s[i]
		switch {
		case c == ' ' || c == '\t' || c == '\n' || c == '\r':
			i++
		case c == '(' || c == ')':
			toks = append(toks, string(c))
			i++
		case c == '"':
			start := i
			i++
			for i < len(s) && s[i] != '"' {
				if s[i] == '\\' && i+1 < len(s) {
					i++
				}
				i++
			}
			if i >= len(s) {
				return nil, &ParseError{Msg: "unterminated quoted literal"}
			}
			i++ // closing quote
			// Keep a trailing @lang or ^^<datatype> suffix in the same token.
			for i < len(s) && s[i] != ' ' && s[i] != '\t' && s[i] != '\n' && s[i] != '\r' && s[i] != '(' && s[i] != ')' {
				i++
			}
			toks = append(toks, s[start:i])
		default:
			start := i
			for i < len(s) && s[i] != ' ' && s[i] != '\t' && s[i] != '\n' && s[i] != '\r' && s[i] != '(' && s[i] != ')' {
				i++
			}
			toks = append(toks, s[start:i])
		}
	}
	return toks, nil
}

type sparser struct {
	toks []string
	pos  int
}

func (p *sparser) cur() (string, bool) {
	if p.pos >= len(p.toks) {
		return "", false
	}
	return p.toks[p.pos], true
}

func (p *sparser) advance() string {
	t := p.toks[p.pos]
	p.pos++
	return t
}

func (p *sparser) expect(tok string) error {
	t, ok := p.cur()
	if !ok || t != tok {
		return &ParseError{Msg: "expected " + tok}
	}
	p.advance()
	return nil
}

func (p *sparser) parseNode() (Node, error) {
	if err := p.expect("("); err != nil {
		return nil, err
	}
	head, ok := p.cur()
	if !ok {
		return nil, &ParseError{Msg: "unexpected end of input"}
	}
	p.advance()
	switch head {
	case "bgp":
		var patterns []TriplePattern
		for {
			t, ok := p.cur()
			if !ok {
				return nil, &ParseError{Msg: "unterminated bgp"}
			}
			if t == ")" {
				p.advance()
				return BGP{Patterns: patterns}, nil
			}
			tp, err := p.parseTriple()
			if err != nil {
				return nil, err
			}
			patterns = append(patterns, tp)
		}
	case "join", "lojoin":
		left, err := p.parseNode()
		if err != nil {
			return nil, err
		}
		right, err := p.parseNode()
		if err != nil {
			return nil, err
		}
		if err := p.expect(")"); err != nil {
			return nil, err
		}
		return Join{Left: left, Right: right, LeftOuter: head == "lojoin"}, nil
	case "union":
		left, err := p.parseNode()
		if err != nil {
			return nil, err
		}
		right, err := p.parseNode()
		if err != nil {
			return nil, err
		}
		if err := p.expect(")"); err != nil {
			return nil, err
		}
		return Union{Left: left, Right: right}, nil
	case "minus":
		left, err := p.parseNode()
		if err != nil {
			return nil, err
		}
		right, err := p.parseNode()
		if err != nil {
			return nil, err
		}
		if err := p.expect(")"); err != nil {
			return nil, err
		}
		return Minus{Left: left, Right: right}, nil
	case "graph":
		term, err := p.parseTerm()
		if err != nil {
			return nil, err
		}
		inner, err := p.parseNode()
		if err != nil {
			return nil, err
		}
		if err := p.expect(")"); err != nil {
			return nil, err
		}
		return Graph{Term: term, Inner: inner}, nil
	case "filter":
		expr, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		inner, err := p.parseNode()
		if err != nil {
			return nil, err
		}
		if err := p.expect(")"); err != nil {
			return nil, err
		}
		return Filter{Expr: expr, Inner: inner}, nil
	case "bind":
		varTok, ok := p.cur()
		if !ok || !strings.HasPrefix(varTok, "?") {
			return nil, &ParseError{Msg: "expected variable in bind"}
		}
		p.advance()
		expr, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		inner, err := p.parseNode()
		if err != nil {
			return nil, err
		}
		if err := p.expect(")"); err != nil {
			return nil, err
		}
		return Bind{Var: varTok[1:], Expr: expr, Inner: inner}, nil
	case "values":
		vars, err := p.parseVarList()
		if err != nil {
			return nil, err
		}
		rows, unbound, err := p.parseValuesRows()
		if err != nil {
			return nil, err
		}
		var inner Node
		if t, ok := p.cur(); ok && t == "(" {
			inner, err = p.parseNode()
			if err != nil {
				return nil, err
			}
		}
		if err := p.expect(")"); err != nil {
			return nil, err
		}
		return Values{Vars: vars, Rows: rows, Unbound: unbound, Inner: inner}, nil
	case "service":
		silent := false
		if t, ok := p.cur(); ok && t == "silent" {
			silent = true
			p.advance()
		}
		target, err := p.parseTerm()
		if err != nil {
			return nil, err
		}
		inner, err := p.parseNode()
		if err != nil {
			return nil, err
		}
		if err := p.expect(")"); err != nil {
			return nil, err
		}
		return Service{Silent: silent, Target: target, Inner: inner}, nil
	case "subselect":
		inner, err := p.parseNode()
		if err != nil {
			return nil, err
		}
		if err := p.expect(")"); err != nil {
			return nil, err
		}
		return SubSelect{Query: &Query{Root: inner, ProjectedVars: inner.Vars()}}, nil
	case "unknown":
		if err := p.expect(")"); err != nil {
			return nil, err
		}
		return BGP{}, nil
	default:
		return nil, &ParseError{Msg: "unknown node kind " + head}
	}
}

func (p *sparser) parseTriple() (TriplePattern, error) {
	if err := p.expect("("); err != nil {
		return TriplePattern{}, err
	}
	if err := p.expect("triple"); err != nil {
		return TriplePattern{}, err
	}
	s, err := p.parseTerm()
	if err != nil {
		return TriplePattern{}, err
	}
	pr, err := p.parseTerm()
	if err != nil {
		return TriplePattern{}, err
	}
	o, err := p.parseTerm()
	if err != nil {
		return TriplePattern{}, err
	}
	if err := p.expect(")"); err != nil {
		return TriplePattern{}, err
	}
	return TriplePattern{Subject: s, Predicate: pr, Object: o}, nil
}

func (p *sparser) parseTerm() (ast.Term, error) {
	t, ok := p.cur()
	if !ok {
		return ast.Term{}, &ParseError{Msg: "unexpected end of input parsing term"}
	}
	p.advance()
	switch {
	case strings.HasPrefix(t, "?"):
		return ast.Term{Kind: ast.TermVar, Text: t[1:]}, nil
	case strings.HasPrefix(t, "<") && strings.HasSuffix(t, ">"):
		return ast.Term{Kind: ast.TermIRI, Text: t[1 : len(t)-1]}, nil
	case strings.HasPrefix(t, "_:"):
		return ast.Term{Kind: ast.TermBlank, Text: t[2:]}, nil
	case strings.HasPrefix(t, "\""):
		return parseQuotedTerm(t)
	default:
		return ast.Term{}, &ParseError{Msg: "malformed term " + t}
	}
}

func parseQuotedTerm(t string) (ast.Term, error) {
	// Split the literal text from an optional trailing @lang or
	// ^^<datatype>, then unquote the literal portion.
	i := 1
	for i < len(t) {
		if t[i] == '\\' {
			i += 2
			continue
		}
		if t[i] == '"' {
			break
		}
		i++
	}
	if i >= len(t) {
		return ast.Term{}, &ParseError{Msg: "malformed literal " + t}
	}
	lexPart := t[:i+1]
	rest := t[i+1:]
	lex, err := strconv.Unquote(lexPart)
	if err != nil {
		return ast.Term{}, &ParseError{Msg: "malformed literal " + t}
	}
	switch {
	case strings.HasPrefix(rest, "@"):
		return ast.Term{Kind: ast.TermLiteral, Text: lex, Lang: rest[1:]}, nil
	case strings.HasPrefix(rest, "^^<") && strings.HasSuffix(rest, ">"):
		return ast.Term{Kind: ast.TermLiteral, Text: lex, Datatype: rest[3 : len(rest)-1]}, nil
	default:
		return ast.Term{Kind: ast.TermLiteral, Text: lex}, nil
	}
}

func (p *sparser) parseVarList() ([]string, error) {
	if err := p.expect("("); err != nil {
		return nil, err
	}
	var vars []string
	for {
		t, ok := p.cur()
		if !ok {
			return nil, &ParseError{Msg: "unterminated variable list"}
		}
		if t == ")" {
			p.advance()
			return vars, nil
		}
		p.advance()
		vars = append(vars, strings.TrimPrefix(t, "?"))
	}
}

func (p *sparser) parseValuesRows() ([][]ast.Term, [][]bool, error) {
	if err := p.expect("("); err != nil {
		return nil, nil, err
	}
	var rows [][]ast.Term
	var unbound [][]bool
	for {
		t, ok := p.cur()
		if !ok {
			return nil, nil, &ParseError{Msg: "unterminated values rows"}
		}
		if t == ")" {
			p.advance()
			return rows, unbound, nil
		}
		if err := p.expect("("); err != nil {
			return nil, nil, err
		}
		var row []ast.Term
		var rowUnbound []bool
		for {
			t2, ok := p.cur()
			if !ok {
				return nil, nil, &ParseError{Msg: "unterminated values row"}
			}
			if t2 == ")" {
				p.advance()
				break
			}
			if t2 == "UNDEF" {
				p.advance()
				row = append(row, ast.Term{})
				rowUnbound = append(rowUnbound, true)
				continue
			}
			term, err := p.parseTerm()
			if err != nil {
				return nil, nil, err
			}
			row = append(row, term)
			rowUnbound = append(rowUnbound, false)
		}
		rows = append(rows, row)
		unbound = append(unbound, rowUnbound)
	}
}

func (p *sparser) parseExpr() (ast.Expr, error) {
	t, ok := p.cur()
	if !ok {
		return ast.Expr{}, &ParseError{Msg: "unexpected end of input parsing expr"}
	}
	if t != "(" {
		term, err := p.parseTerm()
		if err != nil {
			return ast.Expr{}, err
		}
		return ast.Expr{Kind: ast.ExprTerm, Term: term}, nil
	}
	p.advance() // '('
	head, ok := p.cur()
	if !ok {
		return ast.Expr{}, &ParseError{Msg: "unexpected end of input in expr"}
	}
	p.advance()
	switch head {
	case "exists":
		if err := p.expect(")"); err != nil {
			return ast.Expr{}, err
		}
		return ast.Expr{Kind: ast.ExprExists, Group: &ast.GroupGraphPattern{}}, nil
	case "notexists":
		if err := p.expect(")"); err != nil {
			return ast.Expr{}, err
		}
		return ast.Expr{Kind: ast.ExprNotExists, Group: &ast.GroupGraphPattern{}}, nil
	case "call":
		fn, ok := p.cur()
		if !ok {
			return ast.Expr{}, &ParseError{Msg: "expected function name"}
		}
		p.advance()
		var args []ast.Expr
		for {
			t, ok := p.cur()
			if !ok {
				return ast.Expr{}, &ParseError{Msg: "unterminated call"}
			}
			if t == ")" {
				p.advance()
				break
			}
			a, err := p.parseExpr()
			if err != nil {
				return ast.Expr{}, err
			}
			args = append(args, a)
		}
		return ast.Expr{Kind: ast.ExprCall, Func: fn, Args: args}, nil
	case "in", "notin":
		var args []ast.Expr
		for {
			t, ok := p.cur()
			if !ok {
				return ast.Expr{}, &ParseError{Msg: "unterminated in/notin"}
			}
			if t == ")" {
				p.advance()
				break
			}
			a, err := p.parseExpr()
			if err != nil {
				return ast.Expr{}, err
			}
			args = append(args, a)
		}
		kind := ast.ExprIn
		if head == "notin" {
			kind = ast.ExprNotIn
		}
		return ast.Expr{Kind: kind, Args: args}, nil
	default:
		// unary ("!" x) or binary (op a b) operator
		var args []ast.Expr
		for {
			t, ok := p.cur()
			if !ok {
				return ast.Expr{}, &ParseError{Msg: "unterminated operator expr"}
			}
			if t == ")" {
				p.advance()
				break
			}
			a, err := p.parseExpr()
			if err != nil {
				return ast.Expr{}, err
			}
			args = append(args, a)
		}
		if len(args) == 1 {
			return ast.Expr{Kind: ast.ExprUnary, Op: head, Args: args}, nil
		}
		return ast.Expr{Kind: ast.ExprBinary, Op: head, Args: args}, nil
	}
}
