package quadstore

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Options configures a Store. The zero value is not usable; Dir is
// required. Every other field defaults per spec §4.4's stated defaults
// when left zero.
type Options struct {
	// Dir is the store's root directory, holding gspo.tdb, gspo.wal,
	// and the atoms.* files.
	Dir string `yaml:"dir"`

	// MaxAtomSize bounds a single interned term. Zero selects the atom
	// package's internal default (1 MiB).
	MaxAtomSize int `yaml:"max_atom_size,omitempty"`

	// PageCacheCapacity is the bounded page cache's capacity in 4 KiB
	// pages. Zero selects defaultPageCacheCapacity.
	PageCacheCapacity int `yaml:"page_cache_capacity,omitempty"`

	// CheckpointBytes triggers a checkpoint once the WAL grows past
	// this size. Zero selects the spec's documented default (16 MiB).
	CheckpointBytes int64 `yaml:"checkpoint_bytes,omitempty"`

	// CheckpointInterval triggers a checkpoint once this much time has
	// passed since the last one. Zero selects the spec's documented
	// default (60s).
	CheckpointInterval time.Duration `yaml:"checkpoint_interval,omitempty"`
}

const (
	defaultPageCacheCapacity = 1024 // 4 MiB of pages
	defaultCheckpointBytes   = 16 << 20
	defaultCheckpointInterval = 60 * time.Second
)

func (o Options) withDefaults() Options {
	if o.PageCacheCapacity <= 0 {
		o.PageCacheCapacity = defaultPageCacheCapacity
	}
	if o.CheckpointBytes <= 0 {
		o.CheckpointBytes = defaultCheckpointBytes
	}
	if o.CheckpointInterval <= 0 {
		o.CheckpointInterval = defaultCheckpointInterval
	}
	return o
}

// LoadOptions reads a quadstore.yaml tuning file. It is entirely
// optional: callers may construct Options directly and skip this when
// no on-disk configuration document is wanted.
func LoadOptions(path string) (Options, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Options{}, fmt.Errorf("quadstore: read options file: %w", err)
	}
	var o Options
	if err := yaml.Unmarshal(data, &o); err != nil {
		return Options{}, fmt.Errorf("quadstore: parse options file: %w", err)
	}
	return o, nil
}
