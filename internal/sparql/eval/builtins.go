package eval

import (
	"crypto/md5"
	"crypto/sha1"
	"crypto/sha256"
	"crypto/sha512"
	"fmt"
	"math"
	"net/url"
	"regexp"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/quadcore/quadcore/internal/sparql/ast"
	"github.com/quadcore/quadcore/internal/term"
)

// rdfLangString is rdf:langString, the implicit datatype of a
// language-tagged literal (spec §4.9 DATATYPE built-in).
const rdfLangString = "http://www.w3.org/1999/02/22-rdf-syntax-ns#langString"

// evalCall dispatches a BuiltInCall or function-IRI call. BOUND, IF,
// and COALESCE get their arguments unevaluated (or lazily evaluated)
// because their whole point is to avoid evaluating an operand that
// would otherwise error; every other built-in evaluates all of its
// arguments eagerly first.
func evalCall(ctx *Context, e ast.Expr) term.Value {
	switch e.Func {
	case "BOUND":
		return evalBound(ctx, e)
	case "IF":
		return evalIf(ctx, e)
	case "COALESCE":
		return evalCoalesce(ctx, e)
	}

	args := make([]term.Value, len(e.Args))
	for i, a := range e.Args {
		args[i] = Eval(ctx, a)
	}
	return dispatchBuiltin(ctx, e.Func, args)
}

func evalBound(ctx *Context, e ast.Expr) term.Value {
	if len(e.Args) != 1 || e.Args[0].Kind != ast.ExprTerm || e.Args[0].Term.Kind != ast.TermVar {
		return term.Errorf("eval: BOUND requires a single variable argument")
	}
	_, ok, err := ctx.Env.Get(e.Args[0].Term.Text)
	if err != nil {
		return term.Errorf("eval: " + err.Error())
	}
	return term.Bool(ok)
}

func evalIf(ctx *Context, e ast.Expr) term.Value {
	if len(e.Args) != 3 {
		return term.Errorf("eval: IF requires exactly 3 arguments")
	}
	cond := term.EffectiveBooleanValue(Eval(ctx, e.Args[0]))
	if cond.IsError() {
		return cond
	}
	if cond.BoolVal {
		return Eval(ctx, e.Args[1])
	}
	return Eval(ctx, e.Args[2])
}

func evalCoalesce(ctx *Context, e ast.Expr) term.Value {
	for _, a := range e.Args {
		v := Eval(ctx, a)
		if !v.IsError() {
			return v
		}
	}
	return term.Errorf("eval: COALESCE exhausted every alternative")
}

func dispatchBuiltin(ctx *Context, name string, args []term.Value) term.Value {
	switch name {
	case "REGEX":
		return biRegex(args)
	case "REPLACE":
		return biReplace(args)
	case "SAMETERM":
		return arity2(args, func(a, b term.Value) term.Value { return term.Bool(term.SameTerm(a, b)) })
	case "ISIRI", "ISURI":
		return arity1(args, func(v term.Value) term.Value { return term.Bool(v.Kind == term.KindIRI) })
	case "ISBLANK":
		return arity1(args, func(v term.Value) term.Value { return term.Bool(v.Kind == term.KindBlank) })
	case "ISLITERAL":
		return arity1(args, func(v term.Value) term.Value { return term.Bool(v.Kind.IsLiteral()) })
	case "ISNUMERIC":
		return arity1(args, func(v term.Value) term.Value { return term.Bool(v.Kind.IsNumeric()) })
	case "STR":
		return biStr(args)
	case "STRLEN":
		return arity1(args, func(v term.Value) term.Value { return term.Integer(int64(len([]rune(v.Lexical)))) })
	case "SUBSTR":
		return biSubstr(args)
	case "CONTAINS":
		return biStrPred(args, strings.Contains)
	case "STRSTARTS":
		return biStrPred(args, strings.HasPrefix)
	case "STRENDS":
		return biStrPred(args, strings.HasSuffix)
	case "STRBEFORE":
		return biStrSplit(args, true)
	case "STRAFTER":
		return biStrSplit(args, false)
	case "CONCAT":
		return biConcat(args)
	case "UCASE":
		return biCase(args, cases.Upper(language.Und))
	case "LCASE":
		return biCase(args, cases.Lower(language.Und))
	case "ENCODE_FOR_URI":
		return arity1(args, func(v term.Value) term.Value {
			return term.PlainString(strings.ReplaceAll(url.QueryEscape(v.Lexical), "+", "%20"))
		})
	case "ABS":
		return biAbs(args)
	case "ROUND":
		return biRound(args, math.Round)
	case "CEIL":
		return biRound(args, math.Ceil)
	case "FLOOR":
		return biRound(args, math.Floor)
	case "LANG":
		return arity1(args, func(v term.Value) term.Value { return term.PlainString(v.Lang) })
	case "DATATYPE":
		return biDatatype(args)
	case "LANGMATCHES":
		return biLangMatches(args)
	case "IRI", "URI":
		return biIRI(args)
	case "STRDT":
		return biStrdt(args)
	case "STRLANG":
		return biStrlang(args)
	case "BNODE":
		return biBnode(args)
	case "MD5":
		return biHash(args, md5.New())
	case "SHA1":
		return biHash(args, sha1.New())
	case "SHA256":
		return biHash(args, sha256.New())
	case "SHA384":
		return biHash(args, sha512.New384())
	case "SHA512":
		return biHash(args, sha512.New())
	case "UUID":
		return term.IRI("urn:uuid:" + uuid.NewString())
	case "STRUUID":
		return term.PlainString(uuid.NewString())
	case "NOW":
		return term.DateTime(ctx.now())
	case "YEAR":
		return biTimeField(args, func(t term.Value) int64 { return int64(t.TimeVal.Year()) })
	case "MONTH":
		return biTimeField(args, func(t term.Value) int64 { return int64(t.TimeVal.Month()) })
	case "DAY":
		return biTimeField(args, func(t term.Value) int64 { return int64(t.TimeVal.Day()) })
	case "HOURS":
		return biTimeField(args, func(t term.Value) int64 { return int64(t.TimeVal.Hour()) })
	case "MINUTES":
		return biTimeField(args, func(t term.Value) int64 { return int64(t.TimeVal.Minute()) })
	case "SECONDS":
		return biTimeField(args, func(t term.Value) int64 { return int64(t.TimeVal.Second()) })
	case "TZ":
		return biTz(args, false)
	case "TIMEZONE":
		return biTz(args, true)
	default:
		return term.Errorf("eval: unsupported function " + name)
	}
}

func arity1(args []term.Value, f func(term.Value) term.Value) term.Value {
	if len(args) != 1 {
		return term.Errorf("eval: expected 1 argument, got " + strconv.Itoa(len(args)))
	}
	if args[0].IsError() {
		return args[0]
	}
	return f(args[0])
}

func arity2(args []term.Value, f func(a, b term.Value) term.Value) term.Value {
	if len(args) != 2 {
		return term.Errorf("eval: expected 2 arguments, got " + strconv.Itoa(len(args)))
	}
	return f(args[0], args[1])
}

func biRegex(args []term.Value) term.Value {
	if len(args) < 2 || len(args) > 3 {
		return term.Errorf("eval: REGEX expects 2 or 3 arguments")
	}
	pattern := args[1].Lexical
	if len(args) == 3 {
		pattern = translateRegexFlags(args[2].Lexical) + pattern
	}
	re, err := regexp.Compile(pattern)
	if err != nil {
		return term.Errorf("eval: REGEX: " + err.Error())
	}
	return term.Bool(re.MatchString(args[0].Lexical))
}

func translateRegexFlags(flags string) string {
	var inline []byte
	for _, f := range flags {
		switch f {
		case 'i', 's', 'm':
			inline = append(inline, byte(f))
		}
	}
	if len(inline) == 0 {
		return ""
	}
	return "(?" + string(inline) + ")"
}

func biReplace(args []term.Value) term.Value {
	if len(args) < 3 || len(args) > 4 {
		return term.Errorf("eval: REPLACE expects 3 or 4 arguments")
	}
	pattern := args[1].Lexical
	if len(args) == 4 {
		pattern = translateRegexFlags(args[3].Lexical) + pattern
	}
	re, err := regexp.Compile(pattern)
	if err != nil {
		return term.Errorf("eval: REPLACE: " + err.Error())
	}
	out := re.ReplaceAllString(args[0].Lexical, args[2].Lexical)
	return withLikeLexical(args[0], out)
}

func biStr(args []term.Value) term.Value {
	if len(args) != 1 {
		return term.Errorf("eval: STR expects 1 argument")
	}
	v := args[0]
	if v.IsError() {
		return v
	}
	return term.PlainString(v.Lexical)
}

func biSubstr(args []term.Value) term.Value {
	if len(args) < 2 || len(args) > 3 {
		return term.Errorf("eval: SUBSTR expects 2 or 3 arguments")
	}
	runes := []rune(args[0].Lexical)
	startF, ok := args[1].NumericFloat()
	if !ok {
		return term.Errorf("eval: SUBSTR start must be numeric")
	}
	start := int(math.Round(startF)) - 1 // SPARQL SUBSTR is 1-indexed
	length := len(runes) - start
	if len(args) == 3 {
		lf, ok := args[2].NumericFloat()
		if !ok {
			return term.Errorf("eval: SUBSTR length must be numeric")
		}
		length = int(math.Round(lf))
	}
	if start < 0 {
		length += start
		start = 0
	}
	if start > len(runes) {
		start = len(runes)
	}
	if length < 0 {
		length = 0
	}
	if start+length > len(runes) {
		length = len(runes) - start
	}
	return withLikeLexical(args[0], string(runes[start:start+length]))
}

// withLikeLexical builds a new literal carrying out as its lexical
// form, preserving the source value's language tag if any (the
// string-function argument-compatibility rules in SPARQL keep the
// result in the same "string flavor" as the first argument).
func withLikeLexical(like term.Value, out string) term.Value {
	if like.Kind == term.KindLangString {
		return term.LangStringVal(out, like.Lang)
	}
	return term.PlainString(out)
}

func biStrPred(args []term.Value, pred func(s, sub string) bool) term.Value {
	if len(args) != 2 {
		return term.Errorf("eval: expected 2 arguments")
	}
	return term.Bool(pred(args[0].Lexical, args[1].Lexical))
}

func biStrSplit(args []term.Value, before bool) term.Value {
	if len(args) != 2 {
		return term.Errorf("eval: expected 2 arguments")
	}
	s, sep := args[0].Lexical, args[1].Lexical
	idx := strings.Index(s, sep)
	if idx < 0 {
		return term.PlainString("")
	}
	if before {
		return withLikeLexical(args[0], s[:idx])
	}
	return withLikeLexical(args[0], s[idx+len(sep):])
}

func biConcat(args []term.Value) term.Value {
	var sb strings.Builder
	lang := ""
	sameLang := len(args) > 0
	for i, a := range args {
		if a.IsError() {
			return a
		}
		sb.WriteString(a.Lexical)
		if i == 0 {
			lang = a.Lang
		}
		if a.Kind != term.KindLangString || a.Lang != lang {
			sameLang = false
		}
	}
	if sameLang && lang != "" {
		return term.LangStringVal(sb.String(), lang)
	}
	return term.PlainString(sb.String())
}

func biCase(args []term.Value, c cases.Caser) term.Value {
	return arity1(args, func(v term.Value) term.Value { return withLikeLexical(v, c.String(v.Lexical)) })
}

func biAbs(args []term.Value) term.Value {
	return arity1(args, func(v term.Value) term.Value {
		f, ok := v.NumericFloat()
		if !ok {
			return term.Errorf("eval: ABS on non-numeric value")
		}
		switch v.Kind {
		case term.KindInteger:
			n := v.IntVal
			if n < 0 {
				n = -n
			}
			return term.Integer(n)
		case term.KindDecimal:
			return term.Decimal(math.Abs(f))
		default:
			return term.Double(math.Abs(f))
		}
	})
}

func biRound(args []term.Value, op func(float64) float64) term.Value {
	return arity1(args, func(v term.Value) term.Value {
		f, ok := v.NumericFloat()
		if !ok {
			return term.Errorf("eval: rounding function on non-numeric value")
		}
		switch v.Kind {
		case term.KindInteger:
			return v
		case term.KindDecimal:
			return term.Decimal(op(f))
		default:
			return term.Double(op(f))
		}
	})
}

func biDatatype(args []term.Value) term.Value {
	return arity1(args, func(v term.Value) term.Value {
		if v.Kind != term.KindLangString && v.Datatype == "" {
			return term.Errorf("eval: DATATYPE on a non-literal value")
		}
		if v.Kind == term.KindLangString {
			return term.IRI(rdfLangString)
		}
		return term.IRI(v.Datatype)
	})
}

func biLangMatches(args []term.Value) term.Value {
	if len(args) != 2 {
		return term.Errorf("eval: LANGMATCHES expects 2 arguments")
	}
	tag, rng := strings.ToLower(args[0].Lexical), strings.ToLower(args[1].Lexical)
	if rng == "*" {
		return term.Bool(tag != "")
	}
	return term.Bool(tag == rng || strings.HasPrefix(tag, rng+"-"))
}

func biIRI(args []term.Value) term.Value {
	return arity1(args, func(v term.Value) term.Value {
		if v.Kind == term.KindIRI {
			return v
		}
		return term.IRI(v.Lexical)
	})
}

func biStrdt(args []term.Value) term.Value {
	if len(args) != 2 {
		return term.Errorf("eval: STRDT expects 2 arguments")
	}
	if args[1].Kind != term.KindIRI {
		return term.Errorf("eval: STRDT's second argument must be an IRI")
	}
	v, err := term.FromLexicalForm(args[0].Lexical, "", args[1].Lexical)
	if err != nil {
		return term.Errorf("eval: STRDT: " + err.Error())
	}
	return v
}

func biStrlang(args []term.Value) term.Value {
	if len(args) != 2 {
		return term.Errorf("eval: STRLANG expects 2 arguments")
	}
	return term.LangStringVal(args[0].Lexical, args[1].Lexical)
}

func biBnode(args []term.Value) term.Value {
	if len(args) > 1 {
		return term.Errorf("eval: BNODE expects 0 or 1 arguments")
	}
	return term.Blank(term.NewBlankNode())
}

func biHash(args []term.Value, h interface{ Write([]byte) (int, error); Sum([]byte) []byte }) term.Value {
	return arity1(args, func(v term.Value) term.Value {
		h.Write([]byte(v.Lexical))
		return term.PlainString(fmt.Sprintf("%x", h.Sum(nil)))
	})
}

func biTimeField(args []term.Value, f func(term.Value) int64) term.Value {
	return arity1(args, func(v term.Value) term.Value {
		if v.Kind != term.KindDateTime {
			return term.Errorf("eval: expected an xsd:dateTime argument")
		}
		return term.Integer(f(v))
	})
}

func biTz(args []term.Value, asTimezone bool) term.Value {
	return arity1(args, func(v term.Value) term.Value {
		if v.Kind != term.KindDateTime {
			return term.Errorf("eval: expected an xsd:dateTime argument")
		}
		name, offset := v.TimeVal.Zone()
		if offset == 0 && !asTimezone {
			return term.PlainString("")
		}
		if asTimezone {
			sign := "+"
			if offset < 0 {
				sign = "-"
				offset = -offset
			}
			return term.PlainString(fmt.Sprintf("PT%sH", sign+strconv.Itoa(offset/3600)))
		}
		h := offset / 3600
		m := (offset % 3600) / 60
		sign := "+"
		if offset < 0 {
			sign = "-"
			h, m = -h, -m
		}
		_ = name
		return term.PlainString(fmt.Sprintf("%s%02d:%02d", sign, h, m))
	})
}
