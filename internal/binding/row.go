package binding

import (
	"fmt"

	"github.com/quadcore/quadcore/internal/term"
)

// descriptor is one slot's view into the row's character arena: the
// variable's hash (redundant with Schema, kept here so a descriptor is
// self-describing once copied out), the byte range holding its
// lexical/encoded form, and the term kind needed to decode it without
// re-parsing the datatype suffix twice.
type descriptor struct {
	hash   uint64
	start  int
	length int
	kind   term.Kind
	bound  bool
}

// Row is the shared-column binding row spec §3 describes: a fixed-size
// descriptor array plus a character arena, with an "active prefix
// length" cursor that scan operators advance as they bind variables
// and truncate on backtrack (spec §4.7 "MultiPatternScan").
//
// A Row is schema-relative: slot i always corresponds to
// schema.NameAt(i) for the lifetime of the Row. Binding order is
// expected to follow the planner's join order, so ActiveLen after a
// successful extension is always the highest slot index bound so far
// plus one.
type Row struct {
	schema      *Schema
	descriptors []descriptor
	arena       []byte
	activeLen   int
}

// NewRow allocates a Row against schema. The arena starts with
// arenaHint bytes of spare capacity to avoid repeated small grows on
// the hot path; zero is a reasonable default for short rows.
func NewRow(schema *Schema, arenaHint int) *Row {
	return &Row{
		schema:      schema,
		descriptors: make([]descriptor, schema.Len()),
		arena:       make([]byte, 0, arenaHint),
	}
}

// Schema returns the row's schema.
func (r *Row) Schema() *Schema { return r.schema }

// ActiveLen returns the current active prefix length.
func (r *Row) ActiveLen() int { return r.activeLen }

// Truncate resets the active prefix length to n, logically unbinding
// every slot at or past n without shrinking the arena (the bytes are
// simply no longer reachable through any descriptor; the next Bind
// appends fresh bytes, and the arena is only reclaimed by Reset). This
// is the operation MultiPatternScan's backtracking relies on.
func (r *Row) Truncate(n int) {
	if n < 0 {
		n = 0
	}
	if n > len(r.descriptors) {
		n = len(r.descriptors)
	}
	for i := n; i < r.activeLen && i < len(r.descriptors); i++ {
		r.descriptors[i] = descriptor{}
	}
	r.activeLen = n
}

// Bind writes v's encoded form into the arena and binds it to
// varName's slot. Binding a slot below the current active prefix
// length is allowed (a re-bind during retry); binding advances
// ActiveLen to slot+1 when slot+1 is greater than the current value.
func (r *Row) Bind(varName string, v term.Value) error {
	slot, ok := r.schema.SlotFor(varName)
	if !ok {
		return fmt.Errorf("binding: %q is not in this row's schema", varName)
	}
	encoded := v.Encode()
	start := len(r.arena)
	r.arena = append(r.arena, encoded...)
	r.descriptors[slot] = descriptor{
		hash:   r.schema.hashes[slot],
		start:  start,
		length: len(encoded),
		kind:   v.Kind,
		bound:  true,
	}
	if slot+1 > r.activeLen {
		r.activeLen = slot + 1
	}
	return nil
}

// IsBound reports whether varName currently has a value within the
// active prefix.
func (r *Row) IsBound(varName string) bool {
	slot, ok := r.schema.SlotFor(varName)
	if !ok || slot >= r.activeLen {
		return false
	}
	return r.descriptors[slot].bound
}

// Get decodes the value bound to varName, if any.
func (r *Row) Get(varName string) (term.Value, bool, error) {
	slot, ok := r.schema.SlotFor(varName)
	if !ok || slot >= r.activeLen || !r.descriptors[slot].bound {
		return term.Value{}, false, nil
	}
	d := r.descriptors[slot]
	v, err := term.ParseTerm(r.arena[d.start : d.start+d.length])
	if err != nil {
		return term.Value{}, false, err
	}
	return v, true, nil
}

// GetAt decodes the value at slot i directly, bypassing the name
// lookup; physical operators that already resolved a pattern's
// variable to a slot at plan time use this on the hot path.
func (r *Row) GetAt(i int) (term.Value, bool, error) {
	if i < 0 || i >= r.activeLen || !r.descriptors[i].bound {
		return term.Value{}, false, nil
	}
	d := r.descriptors[i]
	v, err := term.ParseTerm(r.arena[d.start : d.start+d.length])
	if err != nil {
		return term.Value{}, false, err
	}
	return v, true, nil
}

// Reset clears the row for reuse by a fresh outer iteration, without
// reallocating the arena (spec §4.5's pooled-row-buffer contract).
func (r *Row) Reset() {
	r.activeLen = 0
	r.arena = r.arena[:0]
	for i := range r.descriptors {
		r.descriptors[i] = descriptor{}
	}
}
