package physical

import "github.com/quadcore/quadcore/internal/sparql/plan"

// allVars walks n and collects every variable that needs a row slot to
// execute n, which is a superset of n.Vars() (projection): Minus's
// right-hand side, for instance, needs slots for its own pattern
// variables to run the existence check even though Minus.Vars()
// deliberately excludes them from the join's output columns. SubSelect
// is a boundary: its Query.ProjectedVars are visible to the outer
// schema, but its internals get their own independent nested Schema
// built when the SubSelect operator is constructed, so allVars does
// not recurse into it.
func allVars(n plan.Node) []string {
	var out []string
	seen := make(map[string]bool)
	add := func(vars []string) {
		for _, v := range vars {
			if !seen[v] {
				seen[v] = true
				out = append(out, v)
			}
		}
	}

	var walk func(plan.Node)
	walk = func(n plan.Node) {
		switch t := n.(type) {
		case plan.Join:
			walk(t.Left)
			walk(t.Right)
		case plan.Union:
			walk(t.Left)
			walk(t.Right)
		case plan.Minus:
			walk(t.Left)
			add(t.Right.Vars())
			walk(t.Right)
		case plan.Graph:
			walk(t.Inner)
		case plan.Filter:
			walk(t.Inner)
		case plan.Bind:
			walk(t.Inner)
		case plan.Values:
			if t.Inner != nil {
				walk(t.Inner)
			}
		case plan.Service:
			walk(t.Inner)
		}
		add(n.Vars())
	}
	walk(n)
	return out
}
