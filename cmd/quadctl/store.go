package main

import (
	"path/filepath"

	"github.com/quadcore/quadcore/internal/pool"
	"github.com/quadcore/quadcore/internal/quadstore"
)

// openActiveStore loads the pool manifest at opts.Pool and opens the
// active store, or the named one if name is non-empty. Every
// subcommand but "open" resolves its target store this way so a user
// only has to pass a store name once, at "open" time.
func openActiveStore(opts *RootOptions, name string) (*quadstore.Store, *pool.Pool, error) {
	p, err := pool.Open(opts.Pool)
	if err != nil {
		return nil, nil, WrapExitError(ExitCommandError, "failed to load pool manifest", err)
	}

	storeOpts, err := loadStoreOptions(p, name)
	if err != nil {
		return nil, nil, err
	}

	var st *quadstore.Store
	if name != "" {
		st, err = p.Get(name, storeOpts)
	} else {
		st, err = p.GetActive(storeOpts)
	}
	if err != nil {
		return nil, nil, WrapExitError(ExitCommandError, "failed to open store", err)
	}
	return st, p, nil
}

// loadStoreOptions builds quadstore.Options for the named (or active)
// store, picking up an optional quadstore.yaml tuning file alongside
// the store's data files (spec §9 supplemented feature).
func loadStoreOptions(p *pool.Pool, name string) (quadstore.Options, error) {
	target := name
	if target == "" {
		target = p.Active()
	}
	dir, ok := p.Dir(target)
	if !ok {
		return quadstore.Options{}, NewExitError(ExitCommandError, "no active store; run 'quadctl open' first")
	}

	cfgPath := filepath.Join(dir, "quadstore.yaml")
	if opts, err := quadstore.LoadOptions(cfgPath); err == nil {
		opts.Dir = dir
		return opts, nil
	}
	return quadstore.Options{Dir: dir}, nil
}
