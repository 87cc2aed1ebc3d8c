package binding

import (
	"fmt"
	"hash/fnv"
)

// Schema assigns each SPARQL variable in a query a stable slot index,
// computed once at plan construction and shared read-only by every Row
// built against it (spec §3 "Variable binding row": "a row maps
// variable names, by stable FNV-1a hash, to typed values").
type Schema struct {
	vars    []string
	hashes  []uint64
	byHash  map[uint64]int
}

// NewSchema builds a Schema over vars, in the given order. Returns an
// error if two distinct variable names collide under FNV-1a, an
// occurrence rare enough to treat as a hard construction-time failure
// rather than something Row needs to guard against on every Bind.
func NewSchema(vars []string) (*Schema, error) {
	s := &Schema{
		vars:   append([]string(nil), vars...),
		hashes: make([]uint64, len(vars)),
		byHash: make(map[uint64]int, len(vars)),
	}
	for i, v := range vars {
		h := fnv1a(v)
		if prev, exists := s.byHash[h]; exists {
			return nil, fmt.Errorf("binding: hash collision between variables %q and %q", vars[prev], v)
		}
		s.hashes[i] = h
		s.byHash[h] = i
	}
	return s, nil
}

func fnv1a(s string) uint64 {
	h := fnv.New64a()
	h.Write([]byte(s))
	return h.Sum64()
}

// Vars returns the schema's variable names in slot order.
func (s *Schema) Vars() []string { return s.vars }

// Len returns the number of slots.
func (s *Schema) Len() int { return len(s.vars) }

// SlotFor returns the slot index for varName, or false if varName is
// not part of this schema.
func (s *Schema) SlotFor(varName string) (int, bool) {
	idx, ok := s.byHash[fnv1a(varName)]
	if !ok {
		return 0, false
	}
	return idx, true
}

// NameAt returns the variable name bound to slot i.
func (s *Schema) NameAt(i int) string { return s.vars[i] }
