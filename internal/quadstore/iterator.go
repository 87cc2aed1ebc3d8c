package quadstore

import (
	"sync/atomic"

	"github.com/quadcore/quadcore/internal/btree"
	"github.com/quadcore/quadcore/internal/term"
)

// Pattern selects quads by (graph, subject, predicate, object). A nil
// field is a wildcard; a non-nil field must match exactly. Graph is
// distinguished from Subject/Predicate/Object because the default
// graph (DefaultGraph) does not have ordinary term lexical syntax.
type Pattern struct {
	Graph     *term.Value
	Subject   *term.Value
	Predicate *term.Value
	Object    *term.Value
}

// Quad is one materialized result row: a bound (g,s,p,o) plus its
// bitemporal coordinates. Tombstone is only ever true from
// QueryHistory; every other query variant only yields live quads.
type Quad struct {
	Graph, Subject, Predicate, Object term.Value
	ValidFrom, ValidTo, TxTime        int64
	Tombstone                         bool
}

type queryMode int

const (
	modeCurrent queryMode = iota
	modeAsOf
	modeRange
	modeHistory
)

// Iterator is a pull-based scan cursor over the quad index (spec
// §4.5 "Iterator semantics"). It does not acquire the store's lock
// itself; the caller must hold a read lock (AcquireRead) for the
// Iterator's entire lifetime and release it only after Close.
type Iterator struct {
	store *Store
	cur   *btree.Cursor

	mode               queryMode
	pattern            Pattern
	boundAtoms         [4]uint64
	boundMask          int
	asOf               int64
	rangeFrom, rangeTo int64

	peeked *rawEntry

	pending []Quad
	row     Quad
	err     error
	done    bool
	cancel  atomic.Bool
}

// QueryCurrent yields every quad live right now.
func (s *Store) QueryCurrent(p Pattern) (*Iterator, error) {
	return s.newIterator(p, modeCurrent, s.nowMicros(), 0, 0)
}

// QueryAsOf yields every quad that was live at instant t (microseconds
// since the store's agreed epoch).
func (s *Store) QueryAsOf(p Pattern, t int64) (*Iterator, error) {
	return s.newIterator(p, modeAsOf, t, 0, 0)
}

// QueryRange yields every version whose validity interval overlaps
// [from, to).
func (s *Store) QueryRange(p Pattern, from, to int64) (*Iterator, error) {
	return s.newIterator(p, modeRange, 0, from, to)
}

// QueryHistory yields every version of every matching quad, live and
// tombstoned alike.
func (s *Store) QueryHistory(p Pattern) (*Iterator, error) {
	return s.newIterator(p, modeHistory, 0, 0, 0)
}

func (s *Store) newIterator(p Pattern, mode queryMode, asOf, from, to int64) (*Iterator, error) {
	if s.poisoned != nil {
		return nil, &PoisonedError{}
	}

	it := &Iterator{store: s, mode: mode, pattern: p, asOf: asOf, rangeFrom: from, rangeTo: to}

	fields := []*term.Value{p.Graph, p.Subject, p.Predicate, p.Object}
	for i, f := range fields {
		if f == nil {
			break
		}
		var id uint64
		var ok bool
		var err error
		if i == 0 {
			id, ok, err = s.lookupGraphAtom(*f)
		} else {
			id, ok, err = s.atoms.Lookup(f.Encode())
		}
		if err != nil {
			return nil, err
		}
		if !ok {
			// The bound term was never interned: nothing can match.
			it.done = true
			return it, nil
		}
		it.boundAtoms[i] = id
		it.boundMask = i + 1
	}

	prefix := btree.GSPOPrefix(it.boundAtoms[0], it.boundAtoms[1], it.boundAtoms[2], it.boundAtoms[3], it.boundMask)
	cur, err := s.tree.Seek(prefix)
	if err != nil {
		return nil, err
	}
	it.cur = cur
	return it, nil
}

// Cancel marks the iterator cancelled; the next Advance returns false
// and releases the cursor (spec §5 "Cancellation").
func (it *Iterator) Cancel() { it.cancel.Store(true) }

// Err returns the error that ended iteration, if any (spec §7
// "Streaming iterators surface errors at advance time").
func (it *Iterator) Err() error { return it.err }

// Row returns the current result. Valid only directly after Advance
// returns true.
func (it *Iterator) Row() Quad { return it.row }

// Close releases the iterator's pinned page, if any. Safe to call
// more than once.
func (it *Iterator) Close() {
	if it.cur != nil {
		it.cur.Close()
		it.cur = nil
	}
	it.done = true
}

// Advance pulls the next result row, materializing group-level
// liveness for current/as-of queries and per-version rows for
// range/history queries. Returns false at exhaustion, cancellation, or
// error (distinguishable via Err).
func (it *Iterator) Advance() (bool, error) {
	if it.cancel.Load() {
		it.Close()
		return false, it.err
	}
	for {
		if len(it.pending) > 0 {
			it.row = it.pending[0]
			it.pending = it.pending[1:]
			return true, nil
		}
		if it.cancel.Load() || it.done || it.err != nil {
			return false, it.err
		}

		group, ok, err := it.nextGroup()
		if err != nil {
			it.err = err
			it.done = true
			return false, err
		}
		if !ok {
			it.done = true
			return false, nil
		}
		rows, err := it.materialize(group)
		if err != nil {
			it.err = err
			it.done = true
			return false, err
		}
		it.pending = rows
	}
}

type rawEntry struct {
	key       btree.Key
	tombstone bool
}

// nextGroup buffers every consecutive raw entry sharing one
// (graph,subject,predicate,object) identity; the composite key sorts
// those entries contiguously, differing only in validFrom/validTo/txTime
// (spec §3 "Composite key").
func (it *Iterator) nextGroup() ([]rawEntry, bool, error) {
	first, ok, err := it.shiftRaw()
	if err != nil || !ok {
		return nil, ok, err
	}
	group := []rawEntry{first}
	for {
		next, ok, err := it.peekRaw()
		if err != nil {
			return nil, false, err
		}
		if !ok || !sameIdentity(first.key, next.key) {
			return group, true, nil
		}
		it.shiftRaw() // consume the peeked entry
		group = append(group, next)
	}
}

func sameIdentity(a, b btree.Key) bool {
	return a.Graph() == b.Graph() && a.Subject() == b.Subject() &&
		a.Predicate() == b.Predicate() && a.Object() == b.Object()
}

// shiftRaw and peekRaw read the cursor one entry at a time, filtering
// out entries that fall outside the bound prefix. peekRaw does not
// consume; a subsequent shiftRaw (or peekRaw again) returns the same
// entry until the caller actually advances past it via shiftRaw.
func (it *Iterator) shiftRaw() (rawEntry, bool, error) {
	if it.peeked != nil {
		e := *it.peeked
		it.peeked = nil
		it.advanceCursor()
		return e, true, it.err
	}
	e, ok := it.readCurrent()
	if !ok {
		return rawEntry{}, false, nil
	}
	it.advanceCursor()
	return e, true, it.err
}

func (it *Iterator) peekRaw() (rawEntry, bool, error) {
	if it.peeked != nil {
		return *it.peeked, true, nil
	}
	e, ok := it.readCurrent()
	if !ok {
		return rawEntry{}, false, nil
	}
	it.peeked = &e
	return e, true, nil
}

func (it *Iterator) readCurrent() (rawEntry, bool) {
	if it.cur == nil || !it.cur.Valid() {
		return rawEntry{}, false
	}
	k, flag := it.cur.Entry()
	if it.boundMask > 0 && !matchesBoundPrefix(k, it.boundAtoms, it.boundMask) {
		return rawEntry{}, false
	}
	return rawEntry{key: k, tombstone: flag == btree.FlagTombstone}, true
}

func (it *Iterator) advanceCursor() {
	if it.cur == nil {
		return
	}
	if ok, err := it.cur.Next(); err != nil {
		it.err = err
	} else if !ok {
		// leaf chain exhausted; readCurrent will see Valid()==false
	}
}

func matchesBoundPrefix(k btree.Key, bound [4]uint64, mask int) bool {
	fields := [4]uint64{k.Graph(), k.Subject(), k.Predicate(), k.Object()}
	for i := 0; i < mask; i++ {
		if fields[i] != bound[i] {
			return false
		}
	}
	return true
}

// materialize turns one identity group into zero or more output rows
// per the active query mode.
func (it *Iterator) materialize(group []rawEntry) ([]Quad, error) {
	if !it.fullyMatchesPattern(group[0].key) {
		return nil, nil
	}
	switch it.mode {
	case modeCurrent, modeAsOf:
		q, ok, err := it.resolveAsOf(group, it.asOf)
		if err != nil || !ok {
			return nil, err
		}
		return []Quad{q}, nil
	case modeRange:
		var out []Quad
		for _, e := range group {
			if e.tombstone {
				continue
			}
			if overlaps(e.key.ValidFrom(), e.key.ValidTo(), it.rangeFrom, it.rangeTo) {
				q, err := it.toQuad(e)
				if err != nil {
					return nil, err
				}
				out = append(out, q)
			}
		}
		return out, nil
	case modeHistory:
		out := make([]Quad, 0, len(group))
		for _, e := range group {
			q, err := it.toQuad(e)
			if err != nil {
				return nil, err
			}
			out = append(out, q)
		}
		return out, nil
	default:
		return nil, &InvariantError{Msg: "unknown query mode"}
	}
}

// resolveAsOf implements spec §3's liveness rule: among every version
// in the group, find the one with the greatest txTime not exceeding t;
// it is live iff it is not a tombstone and t falls in its validity
// window. The tombstone check happens independently of that version's
// own validFrom/validTo, so a tombstone's validity fields are never
// semantically meaningful (see batch.go's AddTombstone).
func (it *Iterator) resolveAsOf(group []rawEntry, t int64) (Quad, bool, error) {
	var best *rawEntry
	for i := range group {
		e := &group[i]
		if e.key.TxTime() > t {
			continue
		}
		if best == nil || e.key.TxTime() > best.key.TxTime() {
			best = e
		}
	}
	if best == nil || best.tombstone {
		return Quad{}, false, nil
	}
	if !(best.key.ValidFrom() <= t && t < best.key.ValidTo()) {
		return Quad{}, false, nil
	}
	q, err := it.toQuad(*best)
	return q, err == nil, err
}

func overlaps(aFrom, aTo, bFrom, bTo int64) bool {
	return aFrom < bTo && bFrom < aTo
}

// fullyMatchesPattern re-checks every bound pattern field against k,
// not just the leading contiguous prefix matchesBoundPrefix already
// verified during the raw scan. The seek prefix stops at the first
// wildcard field counting from graph, so in a pattern with a gap (e.g.
// graph, subject and object bound but predicate a wildcard) only graph
// and subject narrow the scan; the fields after the gap are the ones
// this catches, and the prefix fields are redundant re-checks.
func (it *Iterator) fullyMatchesPattern(k btree.Key) bool {
	checks := []struct {
		pat *term.Value
		got uint64
		isGraph bool
	}{
		{it.pattern.Graph, k.Graph(), true},
		{it.pattern.Subject, k.Subject(), false},
		{it.pattern.Predicate, k.Predicate(), false},
		{it.pattern.Object, k.Object(), false},
	}
	for _, c := range checks {
		if c.pat == nil {
			continue
		}
		var id uint64
		var ok bool
		var err error
		if c.isGraph {
			id, ok, err = it.store.lookupGraphAtom(*c.pat)
		} else {
			id, ok, err = it.store.atoms.Lookup(c.pat.Encode())
		}
		if err != nil || !ok || id != c.got {
			return false
		}
	}
	return true
}

func (it *Iterator) toQuad(e rawEntry) (Quad, error) {
	g, err := it.store.decodeGraphValue(e.key.Graph())
	if err != nil {
		return Quad{}, err
	}
	s, err := it.store.decodeValue(e.key.Subject())
	if err != nil {
		return Quad{}, err
	}
	p, err := it.store.decodeValue(e.key.Predicate())
	if err != nil {
		return Quad{}, err
	}
	o, err := it.store.decodeValue(e.key.Object())
	if err != nil {
		return Quad{}, err
	}
	return Quad{
		Graph: g, Subject: s, Predicate: p, Object: o,
		ValidFrom: e.key.ValidFrom(), ValidTo: e.key.ValidTo(), TxTime: e.key.TxTime(),
		Tombstone: e.tombstone,
	}, nil
}
