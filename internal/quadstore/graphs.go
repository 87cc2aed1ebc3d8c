package quadstore

import (
	"github.com/quadcore/quadcore/internal/atom"
	"github.com/quadcore/quadcore/internal/btree"
	"github.com/quadcore/quadcore/internal/term"
)

// NamedGraphs returns every distinct graph atom other than the
// default-graph sentinel (spec §4.5). Graph ids sort first in the
// composite key, so a single forward scan suffices: this walks the
// entire index once rather than maintaining a dedicated secondary
// graph index, which the core's page/WAL/B+Tree components have no
// other use for (see DESIGN.md).
func (s *Store) NamedGraphs() ([]term.Value, error) {
	if s.poisoned != nil {
		return nil, &PoisonedError{}
	}
	cur, err := s.tree.Seek(btree.Key{})
	if err != nil {
		return nil, err
	}
	defer cur.Close()

	var out []term.Value
	var lastGraph uint64
	haveLast := false
	for cur.Valid() {
		k, _ := cur.Entry()
		g := k.Graph()
		if (!haveLast || g != lastGraph) && g != atom.DefaultGraphAtom {
			v, err := s.decodeGraphValue(g)
			if err != nil {
				return nil, err
			}
			out = append(out, v)
		}
		lastGraph, haveLast = g, true
		if more, err := cur.Next(); err != nil {
			return nil, err
		} else if !more {
			break
		}
	}
	return out, nil
}
