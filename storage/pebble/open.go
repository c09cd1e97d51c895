package pebble

import (
	"fmt"

	"github.com/cockroachdb/pebble"
	"github.com/cockroachdb/pebble/bloom"
)

// DefaultPebbleOptions returns the options used for the ledger database.
func DefaultPebbleOptions(cache *pebble.Cache) *pebble.Options {
	opts := &pebble.Options{
		Cache:              cache,
		FormatMajorVersion: pebble.FormatNewest,
		// the ledger is append only and small, fewer L0 files keep reads cheap
		L0CompactionThreshold: 2,
		L0StopWritesThreshold: 1000,
		Levels:                make([]pebble.LevelOptions, 7),
	}

	for i := 0; i < len(opts.Levels); i++ {
		l := &opts.Levels[i]
		// 10 bits per key yields a filter with <1% false positive rate.
		l.FilterPolicy = bloom.FilterPolicy(10)
		l.FilterType = pebble.TableFilter
	}

	return opts
}

// OpenDefaultPebbleDB opens the ledger database in the given directory,
// creating it if it does not exist.
func OpenDefaultPebbleDB(dir string) (*pebble.DB, error) {
	cache := pebble.NewCache(1 << 20)
	defer cache.Unref()

	opts := DefaultPebbleOptions(cache)
	opts.EnsureDefaults()

	db, err := pebble.Open(dir, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open db: %w", err)
	}

	return db, nil
}
