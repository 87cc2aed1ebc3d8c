package term

import "strings"

// SameTerm implements SPARQL sameTerm: structural identity, not value
// equality (spec §4.9's `sameTerm` built-in).
func SameTerm(a, b Value) bool {
	if a.Kind != b.Kind {
		return false
	}
	switch a.Kind {
	case KindIRI, KindBlank, KindString:
		return a.Lexical == b.Lexical
	case KindLangString:
		return a.Lexical == b.Lexical && strings.EqualFold(a.Lang, b.Lang)
	case KindBoolean:
		return a.BoolVal == b.BoolVal
	case KindInteger:
		return a.IntVal == b.IntVal
	case KindDecimal:
		return a.DecVal == b.DecVal
	case KindDouble:
		return a.DblVal == b.DblVal
	case KindDateTime:
		return a.TimeVal.Equal(b.TimeVal)
	case KindTypedLiteral:
		return a.Lexical == b.Lexical && a.Datatype == b.Datatype
	case KindUnbound:
		return true
	default:
		return false
	}
}

// ValueEqual implements SPARQL `=` value-equality: numerics compare by
// value across kinds, literals by lexical+datatype, IRIs by byte
// equality (spec §4.9 Operators). Returns an error-value when the
// operands are not comparable under SPARQL semantics.
func ValueEqual(a, b Value) Value {
	if a.Kind.IsNumeric() && b.Kind.IsNumeric() {
		af, _ := a.NumericFloat()
		bf, _ := b.NumericFloat()
		return Bool(af == bf)
	}
	if a.Kind != b.Kind {
		if (a.Kind == KindString && b.Kind == KindTypedLiteral) ||
			(b.Kind == KindString && a.Kind == KindTypedLiteral) {
			return Bool(a.Lexical == b.Lexical && a.Datatype == b.Datatype)
		}
		return Errorf("incomparable term kinds")
	}
	return Bool(SameTerm(a, b))
}

// Compare orders two values per SPARQL ORDER BY semantics: numerics by
// value, strings/IRIs lexicographically, booleans false<true, dateTime
// chronologically. Returns (-1, true), (0, true), (1, true) or
// (0, false) when the two kinds are not orderable against each other.
func Compare(a, b Value) (result int, ok bool) {
	if a.Kind.IsNumeric() && b.Kind.IsNumeric() {
		af, _ := a.NumericFloat()
		bf, _ := b.NumericFloat()
		return cmpFloat(af, bf), true
	}
	if a.Kind != b.Kind {
		return 0, false
	}
	switch a.Kind {
	case KindIRI, KindBlank, KindString, KindTypedLiteral:
		return strings.Compare(a.Lexical, b.Lexical), true
	case KindLangString:
		if c := strings.Compare(a.Lexical, b.Lexical); c != 0 {
			return c, true
		}
		return strings.Compare(a.Lang, b.Lang), true
	case KindBoolean:
		if a.BoolVal == b.BoolVal {
			return 0, true
		}
		if !a.BoolVal {
			return -1, true
		}
		return 1, true
	case KindDateTime:
		switch {
		case a.TimeVal.Before(b.TimeVal):
			return -1, true
		case a.TimeVal.After(b.TimeVal):
			return 1, true
		default:
			return 0, true
		}
	default:
		return 0, false
	}
}

func cmpFloat(a, b float64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

// EffectiveBooleanValue implements the SPARQL EBV coercion rules used
// by FILTER, &&, ||, and IF.
func EffectiveBooleanValue(v Value) Value {
	switch v.Kind {
	case KindBoolean:
		return v
	case KindString:
		return Bool(v.Lexical != "")
	case KindInteger:
		return Bool(v.IntVal != 0)
	case KindDecimal, KindDouble:
		f, _ := v.NumericFloat()
		return Bool(f != 0)
	case KindError:
		return v
	default:
		return Errorf("type error: no effective boolean value for " + v.Kind.String())
	}
}
