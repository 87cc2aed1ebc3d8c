package binding

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quadcore/quadcore/internal/term"
)

func mustSchema(t *testing.T, vars []string) *Schema {
	t.Helper()
	s, err := NewSchema(vars)
	require.NoError(t, err)
	return s
}

func TestSchemaSlotForUnknownVariable(t *testing.T) {
	s := mustSchema(t, []string{"s", "p", "o"})
	_, ok := s.SlotFor("missing")
	assert.False(t, ok)

	slot, ok := s.SlotFor("p")
	require.True(t, ok)
	assert.Equal(t, "p", s.NameAt(slot))
}

func TestRowBindAndGetRoundTrip(t *testing.T) {
	s := mustSchema(t, []string{"s", "p", "o"})
	r := NewRow(s, 0)

	require.NoError(t, r.Bind("s", term.IRI("urn:x")))
	require.NoError(t, r.Bind("p", term.IRI("urn:name")))
	require.NoError(t, r.Bind("o", term.PlainString("hello")))

	v, ok, err := r.Get("s")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "urn:x", v.Lexical)

	v, ok, err = r.Get("o")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "hello", v.Lexical)
}

func TestRowGetUnboundVariable(t *testing.T) {
	s := mustSchema(t, []string{"s", "p", "o"})
	r := NewRow(s, 0)
	require.NoError(t, r.Bind("s", term.IRI("urn:x")))

	_, ok, err := r.Get("o")
	require.NoError(t, err)
	assert.False(t, ok)

	assert.True(t, r.IsBound("s"))
	assert.False(t, r.IsBound("o"))
}

func TestRowBindRejectsUnknownVariable(t *testing.T) {
	s := mustSchema(t, []string{"s"})
	r := NewRow(s, 0)
	err := r.Bind("nope", term.IRI("urn:x"))
	assert.Error(t, err)
}

func TestRowTruncateSupportsBacktracking(t *testing.T) {
	s := mustSchema(t, []string{"s", "p", "o"})
	r := NewRow(s, 0)

	require.NoError(t, r.Bind("s", term.IRI("urn:x")))
	require.NoError(t, r.Bind("p", term.IRI("urn:name")))
	require.Equal(t, 2, r.ActiveLen())

	r.Truncate(1)
	assert.Equal(t, 1, r.ActiveLen())
	assert.True(t, r.IsBound("s"))
	assert.False(t, r.IsBound("p"))

	// Rebind p to a different value; the old arena bytes are simply
	// shadowed by the new descriptor.
	require.NoError(t, r.Bind("p", term.IRI("urn:other")))
	v, ok, err := r.Get("p")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "urn:other", v.Lexical)
}

func TestRowResetClearsAllSlots(t *testing.T) {
	s := mustSchema(t, []string{"s", "p"})
	r := NewRow(s, 0)
	require.NoError(t, r.Bind("s", term.IRI("urn:x")))
	require.NoError(t, r.Bind("p", term.IRI("urn:y")))

	r.Reset()
	assert.Equal(t, 0, r.ActiveLen())
	assert.False(t, r.IsBound("s"))
	assert.False(t, r.IsBound("p"))
}

func TestMaterializeSkipsUnboundVariables(t *testing.T) {
	s := mustSchema(t, []string{"s", "p", "o"})
	r := NewRow(s, 0)
	require.NoError(t, r.Bind("s", term.IRI("urn:x")))
	require.NoError(t, r.Bind("p", term.IRI("urn:name")))

	m := NewMaterializer(s)
	out, err := m.Materialize(r)
	require.NoError(t, err)

	assert.Len(t, out, 2)
	assert.Equal(t, "urn:x", out["s"].Lexical)
	_, ok := out["o"]
	assert.False(t, ok)
}

func TestProjectingMaterializerOrdersAndFillsUnbound(t *testing.T) {
	s := mustSchema(t, []string{"s", "p", "o"})
	r := NewRow(s, 0)
	require.NoError(t, r.Bind("o", term.PlainString("hi")))
	require.NoError(t, r.Bind("s", term.IRI("urn:x")))

	m, err := NewProjectingMaterializer(s, []string{"o", "p", "s"})
	require.NoError(t, err)
	assert.Equal(t, []string{"o", "p", "s"}, m.Vars())

	row, err := m.MaterializeSlice(r)
	require.NoError(t, err)
	require.Len(t, row, 3)
	assert.Equal(t, "hi", row[0].Lexical)
	assert.True(t, row[1].IsUnbound())
	assert.Equal(t, "urn:x", row[2].Lexical)
}

func TestProjectingMaterializerRejectsUnknownVariable(t *testing.T) {
	s := mustSchema(t, []string{"s"})
	_, err := NewProjectingMaterializer(s, []string{"missing"})
	assert.Error(t, err)
}
