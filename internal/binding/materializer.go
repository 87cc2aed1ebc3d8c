package binding

import "github.com/quadcore/quadcore/internal/term"

// Materializer converts a completed Row into a caller-owned output,
// decoupling the result surface (cmd/quadctl, an embedding program)
// from the row's internal arena layout. It is cheap to construct and
// holds no state of its own; it exists mainly so output projection
// (SELECT var lists, column order) lives in one place.
type Materializer struct {
	schema *Schema
	order  []int
}

// NewMaterializer builds a Materializer that projects every variable
// in schema, in schema order.
func NewMaterializer(schema *Schema) *Materializer {
	order := make([]int, schema.Len())
	for i := range order {
		order[i] = i
	}
	return &Materializer{schema: schema, order: order}
}

// NewProjectingMaterializer builds a Materializer that only emits
// vars, in the given order, dropping every other schema slot: the
// shape a SPARQL SELECT's variable list needs.
func NewProjectingMaterializer(schema *Schema, vars []string) (*Materializer, error) {
	order := make([]int, len(vars))
	for i, v := range vars {
		slot, ok := schema.SlotFor(v)
		if !ok {
			return nil, &ProjectionError{Var: v}
		}
		order[i] = slot
	}
	return &Materializer{schema: schema, order: order}, nil
}

// ProjectionError reports a SELECT variable with no corresponding
// schema slot, which indicates a planner bug rather than a query
// error (the planner is responsible for validating projected
// variables against the query's pattern before building a plan).
type ProjectionError struct{ Var string }

func (e *ProjectionError) Error() string {
	return "binding: projected variable " + e.Var + " has no row slot"
}

// Vars returns the projected variable names, in output order.
func (m *Materializer) Vars() []string {
	names := make([]string, len(m.order))
	for i, slot := range m.order {
		names[i] = m.schema.NameAt(slot)
	}
	return names
}

// Materialize decodes r's projected slots into a map keyed by
// variable name. A projected variable left unbound (e.g. the
// non-matched side of an OPTIONAL) is simply absent from the map,
// matching SPARQL's convention that an unbound variable does not
// appear in a result row at all.
func (m *Materializer) Materialize(r *Row) (map[string]term.Value, error) {
	out := make(map[string]term.Value, len(m.order))
	for _, slot := range m.order {
		v, ok, err := r.GetAt(slot)
		if err != nil {
			return nil, err
		}
		if !ok {
			continue
		}
		out[m.schema.NameAt(slot)] = v
	}
	return out, nil
}

// MaterializeSlice decodes r's projected slots into a slice aligned
// with Vars(), using term.Unbound for any slot not currently bound.
// Tabular output formats (e.g. a CSV/TSV writer) want fixed-width rows
// rather than a sparse map.
func (m *Materializer) MaterializeSlice(r *Row) ([]term.Value, error) {
	out := make([]term.Value, len(m.order))
	for i, slot := range m.order {
		v, ok, err := r.GetAt(slot)
		if err != nil {
			return nil, err
		}
		if !ok {
			out[i] = term.Unbound
			continue
		}
		out[i] = v
	}
	return out, nil
}
