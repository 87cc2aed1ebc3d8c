package plan

import "github.com/quadcore/quadcore/internal/sparql/ast"

// Statistics is the per-predicate cardinality input the planner
// consults (spec §4.8 "Inputs"). quadstore.Stats.PredicateCardinality
// is keyed by interned atom id; callers adapt that map to this
// IRI-keyed interface at plan-construction time (an atom id has no
// meaning outside the store that produced it, but the plan cache key
// spec §4.8 describes is itself store-relative, so this is the natural
// seam).
type Statistics interface {
	// PredicateCardinality returns the approximate number of quads
	// with the given predicate IRI, or (0, false) if unknown (a
	// variable predicate, or a predicate never seen).
	PredicateCardinality(iri string) (uint64, bool)
}

// noStatistics is used when the caller has none yet (a cold store).
type noStatistics struct{}

func (noStatistics) PredicateCardinality(string) (uint64, bool) { return 0, false }

// NoStatistics is the zero-information Statistics implementation: no
// predicate has a count, so every bound predicate gets the same large
// default estimate and a variable predicate a larger one; bound
// subject and object positions still lower the estimate, and equal
// estimates fall back to the tie-break rules (spec §4.8).
var NoStatistics Statistics = noStatistics{}

// Optimize rewrites q.Root: reorders each BGP's patterns by the greedy
// cardinality heuristic (spec §4.8 "Join order") and pushes each
// unplaced FILTER down to the smallest subtree that binds every
// variable it references (spec §4.8 "Filter pushdown"). Filters
// referencing only constants are not specially precomputed here. The
// evaluator (internal/sparql/eval) is cheap enough on a zero-variable
// expression that a separate constant-folding pass would not pay for
// itself at this scale.
func Optimize(q *Query, stats Statistics) *Query {
	if q.Root == nil {
		return q
	}
	out := *q
	out.Root = optimizeNode(q.Root, stats)
	return &out
}

func optimizeNode(n Node, stats Statistics) Node {
	switch t := n.(type) {
	case BGP:
		t.Patterns = orderPatterns(t.Patterns, stats)
		return t
	case Join:
		t.Left = optimizeNode(t.Left, stats)
		t.Right = optimizeNode(t.Right, stats)
		return t
	case Union:
		t.Left = optimizeNode(t.Left, stats)
		t.Right = optimizeNode(t.Right, stats)
		return t
	case Minus:
		t.Left = optimizeNode(t.Left, stats)
		t.Right = optimizeNode(t.Right, stats)
		return t
	case Graph:
		t.Inner = optimizeNode(t.Inner, stats)
		return t
	case Bind:
		t.Inner = optimizeNode(t.Inner, stats)
		return t
	case Values:
		if t.Inner != nil {
			t.Inner = optimizeNode(t.Inner, stats)
		}
		return t
	case Service:
		t.Inner = optimizeNode(t.Inner, stats)
		return t
	case Filter:
		inner := optimizeNode(t.Inner, stats)
		return pushFilter(inner, t.Expr)
	case SubSelect:
		if t.Query != nil {
			opt := Optimize(t.Query, stats)
			t.Query = opt
		}
		return t
	default:
		return n
	}
}

// orderPatterns implements spec §4.8's greedy selection: repeatedly
// pick, among remaining patterns, the one whose bound-prefix
// cardinality estimate is lowest, breaking ties by (1) variables
// shared with already-placed patterns, (2) a lower-indexed predicate
// IRI (lexicographic, standing in for "lower-indexed predicate atom"
// since this package never sees atom ids), (3) original source order.
func orderPatterns(patterns []TriplePattern, stats Statistics) []TriplePattern {
	if len(patterns) <= 1 {
		return patterns
	}
	remaining := append([]TriplePattern(nil), patterns...)
	placedVars := map[string]bool{}
	out := make([]TriplePattern, 0, len(patterns))

	for len(remaining) > 0 {
		bestIdx := -1
		var bestCard uint64
		var bestShared int
		for i, p := range remaining {
			card := estimateCardinality(p, stats)
			shared := sharedVarCount(p, placedVars)
			if bestIdx == -1 ||
				card < bestCard ||
				(card == bestCard && shared > bestShared) ||
				(card == bestCard && shared == bestShared && lessPattern(p, remaining[bestIdx])) {
				bestIdx = i
				bestCard = card
				bestShared = shared
			}
		}
		chosen := remaining[bestIdx]
		out = append(out, chosen)
		for _, v := range chosen.Vars() {
			placedVars[v] = true
		}
		remaining = append(remaining[:bestIdx], remaining[bestIdx+1:]...)
	}
	return out
}

// estimateCardinality treats a bound predicate as the store's known
// per-predicate count, a bound predicate the planner has no statistic
// for as a large-but-finite guess, and a variable predicate as
// unbounded (the least selective case, placed last absent other ties).
func estimateCardinality(p TriplePattern, stats Statistics) uint64 {
	if p.Predicate.Kind != ast.TermVar {
		if card, ok := stats.PredicateCardinality(p.Predicate.Text); ok {
			return boundedCardinality(p, card)
		}
		return boundedCardinality(p, 1<<20)
	}
	return boundedCardinality(p, 1<<40)
}

// boundedCardinality tightens a predicate-only cardinality estimate
// when the subject or object is also bound: each additional bound
// position divides the estimate, a cheap stand-in for join selectivity
// without a full per-position histogram.
func boundedCardinality(p TriplePattern, base uint64) uint64 {
	if p.Subject.Kind != ast.TermVar {
		base /= 4
	}
	if p.Object.Kind != ast.TermVar {
		base /= 4
	}
	if base == 0 {
		base = 1
	}
	return base
}

func sharedVarCount(p TriplePattern, placed map[string]bool) int {
	n := 0
	for _, v := range p.Vars() {
		if placed[v] {
			n++
		}
	}
	return n
}

func lessPattern(a, b TriplePattern) bool {
	if a.Predicate.Text != b.Predicate.Text {
		return a.Predicate.Text < b.Predicate.Text
	}
	return false
}

// pushFilter attaches expr as low in tree as possible: into whichever
// single child's variable set is a superset of expr's referenced
// variables, recursing until no child qualifies, then wrapping Filter
// at that point. Union/Minus/SubSelect subtrees are never descended
// into (a filter valid across a union's combined columns is not
// necessarily valid evaluated against only one branch's columns).
func pushFilter(tree Node, expr ast.Expr) Node {
	refs := referencedVars(expr)
	switch t := tree.(type) {
	case Join:
		if isSubset(refs, t.Left.Vars()) {
			t.Left = pushFilter(t.Left, expr)
			return t
		}
		if isSubset(refs, t.Right.Vars()) {
			t.Right = pushFilter(t.Right, expr)
			return t
		}
	case Graph:
		if isSubset(refs, t.Inner.Vars()) {
			t.Inner = pushFilter(t.Inner, expr)
			return t
		}
	case Bind:
		if isSubset(refs, t.Inner.Vars()) {
			t.Inner = pushFilter(t.Inner, expr)
			return t
		}
	}
	return Filter{Expr: expr, Inner: tree}
}

func referencedVars(e ast.Expr) []string {
	var out []string
	var walk func(ast.Expr)
	walk = func(e ast.Expr) {
		if e.Kind == ast.ExprTerm && e.Term.Kind == ast.TermVar {
			out = appendUnique(out, e.Term.Text)
		}
		for _, a := range e.Args {
			walk(a)
		}
	}
	walk(e)
	return out
}

func isSubset(needle, haystack []string) bool {
	set := make(map[string]bool, len(haystack))
	for _, v := range haystack {
		set[v] = true
	}
	for _, v := range needle {
		if !set[v] {
			return false
		}
	}
	return true
}
