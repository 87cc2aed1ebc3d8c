package eval

import (
	"github.com/quadcore/quadcore/internal/sparql/ast"
	"github.com/quadcore/quadcore/internal/term"
)

// Eval evaluates e against ctx, returning a term.Value. Type errors
// never abort evaluation: they surface as term.KindError values that
// the caller (a FILTER, BIND, or a nested expression) interprets per
// spec §4.9's propagation rules.
func Eval(ctx *Context, e ast.Expr) term.Value {
	switch e.Kind {
	case ast.ExprTerm:
		return evalTerm(ctx, e.Term)
	case ast.ExprUnary:
		return evalUnary(ctx, e)
	case ast.ExprBinary:
		return evalBinary(ctx, e)
	case ast.ExprCall:
		return evalCall(ctx, e)
	case ast.ExprIn:
		return evalIn(ctx, e, false)
	case ast.ExprNotIn:
		return evalIn(ctx, e, true)
	case ast.ExprExists:
		return evalExists(ctx, e, false)
	case ast.ExprNotExists:
		return evalExists(ctx, e, true)
	default:
		return term.Errorf("eval: unrecognized expression kind")
	}
}

func evalTerm(ctx *Context, t ast.Term) term.Value {
	switch t.Kind {
	case ast.TermVar:
		v, ok, err := ctx.Env.Get(t.Text)
		if err != nil {
			return term.Errorf("eval: " + err.Error())
		}
		if !ok {
			return term.Errorf("unbound variable ?" + t.Text)
		}
		return v
	case ast.TermIRI:
		return term.IRI(t.Text)
	case ast.TermBlank:
		return term.Blank(t.Text)
	case ast.TermLiteral:
		v, err := term.FromLexicalForm(t.Text, t.Lang, t.Datatype)
		if err != nil {
			return term.Errorf("eval: " + err.Error())
		}
		return v
	default:
		return term.Errorf("eval: unrecognized term kind")
	}
}

func evalUnary(ctx *Context, e ast.Expr) term.Value {
	arg := Eval(ctx, e.Args[0])
	switch e.Op {
	case "!":
		ebv := term.EffectiveBooleanValue(arg)
		if ebv.IsError() {
			return ebv
		}
		return term.Bool(!ebv.BoolVal)
	case "-":
		f, ok := arg.NumericFloat()
		if !ok {
			return term.Errorf("eval: unary - on non-numeric value")
		}
		return negate(arg, f)
	default:
		return term.Errorf("eval: unknown unary operator " + e.Op)
	}
}

func negate(v term.Value, f float64) term.Value {
	switch v.Kind {
	case term.KindInteger:
		return term.Integer(-v.IntVal)
	case term.KindDecimal:
		return term.Decimal(-f)
	default:
		return term.Double(-f)
	}
}

func evalBinary(ctx *Context, e ast.Expr) term.Value {
	switch e.Op {
	case "&&":
		return evalAnd(ctx, e)
	case "||":
		return evalOr(ctx, e)
	}
	lhs := Eval(ctx, e.Args[0])
	rhs := Eval(ctx, e.Args[1])
	switch e.Op {
	case "=":
		return term.ValueEqual(lhs, rhs)
	case "!=":
		eq := term.ValueEqual(lhs, rhs)
		if eq.IsError() {
			return eq
		}
		return term.Bool(!eq.BoolVal)
	case "<", "<=", ">", ">=":
		return evalOrderComparison(e.Op, lhs, rhs)
	case "+", "-", "*", "/":
		return evalArith(e.Op, lhs, rhs)
	default:
		return term.Errorf("eval: unknown binary operator " + e.Op)
	}
}

// ebvClass classifies a value's effective boolean value for
// three-valued && / ||: 1 true, 0 false, -1 error/unknown.
func ebvClass(v term.Value) int {
	ebv := term.EffectiveBooleanValue(v)
	if ebv.IsError() {
		return -1
	}
	if ebv.BoolVal {
		return 1
	}
	return 0
}

func evalAnd(ctx *Context, e ast.Expr) term.Value {
	l := ebvClass(Eval(ctx, e.Args[0]))
	r := ebvClass(Eval(ctx, e.Args[1]))
	if l == 0 || r == 0 {
		return term.Bool(false)
	}
	if l == 1 && r == 1 {
		return term.Bool(true)
	}
	return term.Errorf("eval: && on non-boolean operand")
}

func evalOr(ctx *Context, e ast.Expr) term.Value {
	l := ebvClass(Eval(ctx, e.Args[0]))
	r := ebvClass(Eval(ctx, e.Args[1]))
	if l == 1 || r == 1 {
		return term.Bool(true)
	}
	if l == 0 && r == 0 {
		return term.Bool(false)
	}
	return term.Errorf("eval: || on non-boolean operand")
}

func evalOrderComparison(op string, lhs, rhs term.Value) term.Value {
	if lhs.IsError() || rhs.IsError() {
		return term.Errorf("eval: comparison on error value")
	}
	c, ok := term.Compare(lhs, rhs)
	if !ok {
		return term.Errorf("eval: incomparable operands")
	}
	switch op {
	case "<":
		return term.Bool(c < 0)
	case "<=":
		return term.Bool(c <= 0)
	case ">":
		return term.Bool(c > 0)
	case ">=":
		return term.Bool(c >= 0)
	default:
		return term.Errorf("eval: unknown comparison operator " + op)
	}
}

// promote widens two numeric kinds per spec §4.9's "integer -> decimal
// -> double" ladder. Division always promotes at least to decimal,
// since SPARQL integer division is not integer-valued.
func promote(a, b term.Value, forceDecimal bool) term.Kind {
	if a.Kind == term.KindDouble || b.Kind == term.KindDouble {
		return term.KindDouble
	}
	if a.Kind == term.KindDecimal || b.Kind == term.KindDecimal {
		return term.KindDecimal
	}
	if forceDecimal {
		return term.KindDecimal
	}
	return term.KindInteger
}

func evalArith(op string, lhs, rhs term.Value) term.Value {
	af, aok := lhs.NumericFloat()
	bf, bok := rhs.NumericFloat()
	if !aok || !bok {
		return term.Errorf("eval: arithmetic on non-numeric operand")
	}
	var result float64
	switch op {
	case "+":
		result = af + bf
	case "-":
		result = af - bf
	case "*":
		result = af * bf
	case "/":
		if bf == 0 {
			return term.Errorf("eval: division by zero")
		}
		result = af / bf
	default:
		return term.Errorf("eval: unknown arithmetic operator " + op)
	}
	kind := promote(lhs, rhs, op == "/")
	switch kind {
	case term.KindInteger:
		return term.Integer(int64(result))
	case term.KindDecimal:
		return term.Decimal(result)
	default:
		return term.Double(result)
	}
}

func evalIn(ctx *Context, e ast.Expr, negate bool) term.Value {
	lhs := Eval(ctx, e.Args[0])
	sawError := lhs.IsError()
	for _, item := range e.Args[1:] {
		rhs := Eval(ctx, item)
		eq := term.ValueEqual(lhs, rhs)
		if eq.IsError() {
			sawError = true
			continue
		}
		if eq.BoolVal {
			return term.Bool(!negate)
		}
	}
	if sawError {
		return term.Errorf("eval: IN/NOT IN encountered an incomparable operand")
	}
	return term.Bool(negate)
}

func evalExists(ctx *Context, e ast.Expr, negate bool) term.Value {
	if ctx.Exists == nil {
		return term.Errorf("eval: EXISTS is not supported in this context")
	}
	ok, err := ctx.Exists(e.Group)
	if err != nil {
		return term.Errorf("eval: " + err.Error())
	}
	return term.Bool(ok != negate)
}
