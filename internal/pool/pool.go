// Package pool manages a named collection of quadstore.Store directories
// sharing one pool.json manifest (spec §6, §9 "convenience layer, not
// part of the core"). It is an external collaborator the same way
// cmd/quadctl is: the store itself never reads or writes pool.json, a
// pool is just a way for a CLI session to remember which directory
// "the active store" means without the caller repeating a path on
// every invocation.
package pool

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/quadcore/quadcore/internal/quadstore"
)

const manifestVersion = 1

// Manifest is the exact on-disk shape of pool.json (spec §6):
// {"version":1,"active":"<name>","stores":{"<name>":"<dir>"}}.
type Manifest struct {
	Version int               `json:"version"`
	Active  string            `json:"active"`
	Stores  map[string]string `json:"stores"`
}

// Pool loads a manifest from disk and lazily opens quadstore.Store
// handles for whichever names a caller actually touches; it never
// opens every store eagerly, since most CLI invocations need exactly
// one.
type Pool struct {
	path     string
	manifest Manifest
	open     map[string]*quadstore.Store
}

// Open reads path (creating an empty manifest in memory if the file
// does not yet exist; Save must be called to persist it).
func Open(path string) (*Pool, error) {
	p := &Pool{path: path, open: make(map[string]*quadstore.Store)}

	b, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			p.manifest = Manifest{Version: manifestVersion, Stores: map[string]string{}}
			return p, nil
		}
		return nil, fmt.Errorf("pool: read %s: %w", path, err)
	}
	var m Manifest
	if err := json.Unmarshal(b, &m); err != nil {
		return nil, fmt.Errorf("pool: parse %s: %w", path, err)
	}
	if m.Stores == nil {
		m.Stores = map[string]string{}
	}
	p.manifest = m
	return p, nil
}

// Save writes the manifest back to path as indented JSON.
func (p *Pool) Save() error {
	b, err := json.MarshalIndent(p.manifest, "", "  ")
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(p.path), 0o755); err != nil {
		return fmt.Errorf("pool: mkdir %s: %w", filepath.Dir(p.path), err)
	}
	if err := os.WriteFile(p.path, b, 0o644); err != nil {
		return fmt.Errorf("pool: write %s: %w", p.path, err)
	}
	return nil
}

// Register adds or updates name -> dir in the manifest. It does not
// open the store; call Get when a handle is actually needed.
func (p *Pool) Register(name, dir string) {
	p.manifest.Stores[name] = dir
	if p.manifest.Active == "" {
		p.manifest.Active = name
	}
}

// SetActive marks name as the active store; it must already be
// registered.
func (p *Pool) SetActive(name string) error {
	if _, ok := p.manifest.Stores[name]; !ok {
		return fmt.Errorf("pool: no such store %q", name)
	}
	p.manifest.Active = name
	return nil
}

// Active returns the active store's name, or "" if none is set.
func (p *Pool) Active() string { return p.manifest.Active }

// Names returns every registered store name, sorted.
func (p *Pool) Names() []string {
	out := make([]string, 0, len(p.manifest.Stores))
	for name := range p.manifest.Stores {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// Dir returns the directory registered for name.
func (p *Pool) Dir(name string) (string, bool) {
	d, ok := p.manifest.Stores[name]
	return d, ok
}

// Get opens (or returns the already-open) quadstore.Store for name,
// using opts as the open options except Dir, which is overwritten from
// the manifest.
func (p *Pool) Get(name string, opts quadstore.Options) (*quadstore.Store, error) {
	if st, ok := p.open[name]; ok {
		return st, nil
	}
	dir, ok := p.manifest.Stores[name]
	if !ok {
		return nil, fmt.Errorf("pool: no such store %q", name)
	}
	opts.Dir = dir
	st, err := quadstore.Open(opts)
	if err != nil {
		return nil, err
	}
	p.open[name] = st
	return st, nil
}

// GetActive opens the active store, or an error if no store is
// active.
func (p *Pool) GetActive(opts quadstore.Options) (*quadstore.Store, error) {
	if p.manifest.Active == "" {
		return nil, fmt.Errorf("pool: no active store")
	}
	return p.Get(p.manifest.Active, opts)
}

// Close closes every store this Pool has opened.
func (p *Pool) Close() error {
	var firstErr error
	for name, st := range p.open {
		if err := st.Close(); err != nil && firstErr == nil {
			firstErr = fmt.Errorf("pool: close %q: %w", name, err)
		}
	}
	p.open = make(map[string]*quadstore.Store)
	return firstErr
}
