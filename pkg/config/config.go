// Package config holds the tree-wide switches that govern MVCC
// versioning policy, fast paths, and isolation mode, plus the on-disk
// location of the versions store. Values are loaded from TOML and may be
// overridden by command line flags in cmd/vtreed.
package config

import (
	"fmt"
	"os"
)

// Config carries every switch enumerated in spec.md §6.
type Config struct {
	// DBPath is the directory the versions store's badger instance writes
	// to. Should exist and be writable.
	DBPath string

	LogLevel string

	// MV disables MVCC version creation entirely when false: updates and
	// removes never append a secondary version.
	MV bool

	// FatTuple permits conversion of a Chained primary to the in-place Fat
	// format. Kept false: the conversion policy is flagged open in
	// spec.md §9 and is not implemented.
	FatTuple bool

	// FastUpdateChained (fupdate_chained) skips version creation
	// unconditionally for Chained primaries.
	FastUpdateChained bool

	// UpdateVersionElision (update_version_elision) permits skipping
	// version creation for single-statement transactions running under
	// RC. Other workers' in-progress transactions are not checked. See
	// leaf.Tree.electVersionElision.
	UpdateVersionElision bool

	// FastRemove (fremove) physically removes a key's slot on remove
	// instead of tombstoning it with a secondary version.
	FastRemove bool

	// StageRemoveTODO (rtodo) stages a dangling-pointer TODO on remove for
	// later point GC.
	StageRemoveTODO bool

	// DanglingPointerFastPath (dangling_pointer) enables the optimistic
	// fast path in point GC (gc.Collector.PointGC).
	DanglingPointerFastPath bool

	// TwoPL selects strict two-phase locking (read_lock_counter bitmap)
	// over SSI read-timestamp tracking for Serializable transactions.
	TwoPL bool

	// MaxChainLength (max_chain_length) bounds the Reconstructor's walk.
	// Exceeding it is a fatal invariant violation, not a soft failure.
	MaxChainLength int
}

// Validate reports configuration combinations that can never produce a
// usable tree.
func (c *Config) Validate() error {
	if c.MaxChainLength <= 0 {
		return fmt.Errorf("max chain length must be greater than 0")
	}
	if c.FatTuple {
		return fmt.Errorf("fat tuple conversion is not implemented; leave FatTuple disabled")
	}
	return nil
}

func getLogLevel() string {
	if l := os.Getenv("LOG_LEVEL"); len(l) != 0 {
		return l
	}
	return "info"
}

// NewDefaultConfig returns the configuration a production tree should start
// from: MVCC on, fast update and fast remove off, remove TODO staging and
// the dangling-pointer fast path on, SSI via read timestamps.
func NewDefaultConfig() *Config {
	return &Config{
		DBPath:                  "/tmp/vtree",
		LogLevel:                getLogLevel(),
		MV:                      true,
		FatTuple:                false,
		FastUpdateChained:       false,
		UpdateVersionElision:    false,
		FastRemove:              false,
		StageRemoveTODO:         true,
		DanglingPointerFastPath: true,
		TwoPL:                   false,
		MaxChainLength:          100,
	}
}

// NewTestConfig returns a configuration tuned for unit tests: a short
// chain-length cap so chain-overflow tests run quickly, and a scratch
// DBPath distinct from the default tree.
func NewTestConfig() *Config {
	c := NewDefaultConfig()
	c.DBPath = "/tmp/vtree-test"
	c.MaxChainLength = 16
	return c
}
