package physical

import (
	"github.com/quadcore/quadcore/internal/binding"
	"github.com/quadcore/quadcore/internal/sparql/ast"
	"github.com/quadcore/quadcore/internal/sparql/plan"
)

// evalExists compiles group (an EXISTS/NOT EXISTS clause's inner
// pattern) into its own operator tree and reports whether it has at
// least one solution. EXISTS is correlated: any variable the group
// shares with the enclosing query must carry the enclosing row's
// current value in, so the schema is the union of the group's own
// variables and the outer row's schema, with every already-bound
// outer value copied across before the nested tree runs.
func (c *Context) evalExists(group *ast.GroupGraphPattern) (bool, error) {
	node, err := plan.CompileGroup(group)
	if err != nil {
		return false, err
	}

	vars := dedupVars(append(append([]string(nil), allVars(node)...), c.Row.Schema().Vars()...))
	schema, err := binding.NewSchema(vars)
	if err != nil {
		return false, err
	}
	row := binding.NewRow(schema, 0)
	for _, name := range c.Row.Schema().Vars() {
		if v, ok, err := c.Row.Get(name); err == nil && ok {
			if _, inSchema := schema.SlotFor(name); inSchema {
				row.Bind(name, v)
			}
		}
	}

	nested := &Context{
		Store: c.Store, Row: row,
		Mode: c.Mode, AsOf: c.AsOf, RangeFrom: c.RangeFrom, RangeTo: c.RangeTo,
		Now: c.Now, Service: c.Service,
	}
	op, err := compileNode(nested, node, nil)
	if err != nil {
		return false, err
	}
	defer op.Close()
	return op.Advance()
}

func dedupVars(vars []string) []string {
	seen := make(map[string]bool, len(vars))
	out := make([]string, 0, len(vars))
	for _, v := range vars {
		if !seen[v] {
			seen[v] = true
			out = append(out, v)
		}
	}
	return out
}
