package leaf

import (
	"sync"

	"github.com/tinykv-contrib/vtree/pkg/config"
	"github.com/tinykv-contrib/vtree/pkg/mvcc"
	"github.com/tinykv-contrib/vtree/pkg/pagestore"
	"github.com/tinykv-contrib/vtree/pkg/tuple"
	"github.com/tinykv-contrib/vtree/pkg/versionstore"
)

// maxOptimisticAttempts bounds the restart loop an optimistic lookup runs
// before giving up and falling back to the pessimistic path, standing in
// for BTreeVI.cpp's unbounded `while (true) { jumpmuTry() {...} }` (real
// jumpmu restarts are cheap; a Go goroutine restart loop needs a ceiling
// to stay a total function).
const maxOptimisticAttempts = 8

// Tree is one key/value tree: a Page Store directory of leaf pages, a
// Versions Store handle for secondary version records, and the config
// switches governing MVCC policy. It implements spec.md §4.3's
// lookup/insert/updateSameSizeInPlace/remove state machines.
type Tree struct {
	ID       uint32
	Pages    *pagestore.Store
	Versions versionstore.Store
	Config   *config.Config

	mu       sync.Mutex
	readSets map[uint64][][]byte // txID -> keys read under 2PL, for Unlock
}

// NewTree returns a Tree with treeID identifying its versions-store
// namespace, backed by pages and versions.
func NewTree(treeID uint32, pages *pagestore.Store, versions versionstore.Store, cfg *config.Config) *Tree {
	return &Tree{
		ID:       treeID,
		Pages:    pages,
		Versions: versions,
		Config:   cfg,
		readSets: make(map[uint64][][]byte),
	}
}

// decodePrimary parses a leaf slot's raw bytes into a ChainedTuple. ok is
// false when the slot holds the stubbed Fat format, per SPEC_FULL.md §12:
// nothing in this module ever creates one, and callers reject it with
// verrors.Other if they ever encounter it.
func decodePrimary(raw []byte) (t tuple.ChainedTuple, ok bool) {
	if tuple.Classify(raw) != tuple.Chained {
		return tuple.ChainedTuple{}, false
	}
	return tuple.DecodeChained(raw), true
}

// recordRead appends key to txn's 2PL read-set on this tree, so Unlock can
// later clear the reader's bit.
func (t *Tree) recordRead(txID uint64, key []byte) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.readSets[txID] = append(t.readSets[txID], append([]byte(nil), key...))
}

// Unlock releases every SSI 2PL read lock txn holds on this tree: for
// each key recorded by recordRead, clears the worker's bit from the
// primary's read_lock_counter. Matches spec.md §4.7's dispatch-table
// "unlock (release SSI 2PL read locks)" callback and end-to-end scenario
// 6 ("TX1 unlock callback clears bit 1").
func (t *Tree) Unlock(txn *mvcc.Txn) {
	if !t.Config.TwoPL {
		return
	}
	t.mu.Lock()
	keys := t.readSets[txn.TxID]
	delete(t.readSets, txn.TxID)
	t.mu.Unlock()

	bit := uint64(1) << (txn.WorkerID % 64)
	for _, key := range keys {
		page := t.Pages.FindPage(key)
		guard := page.LockExclusive()
		raw, ok := page.Get(key)
		if ok {
			if primary, isChained := decodePrimary(raw); isChained {
				primary.ReadTSOrLockCounter &^= bit
				tuple.PutChainedHeader(raw, primary)
			}
		}
		guard.Unlock(false)
	}
}

// recordSSIRead applies the post-read SSI/2PL bookkeeping update to a
// primary's header in place, per spec.md §3's invariant ("after a
// successful visible read, the reader has either bumped read_ts or set
// its bit in read_lock_counter"). Only meaningful under SSI (i.e., when
// the caller holds an exclusive guard on the page, since serializable
// lookups always take the pessimistic-exclusive path).
func (t *Tree) recordSSIRead(txn *mvcc.Txn, raw []byte, key []byte) {
	primary, ok := decodePrimary(raw)
	if !ok {
		return
	}
	if t.Config.TwoPL {
		primary.ReadTSOrLockCounter |= uint64(1) << (txn.WorkerID % 64)
		t.recordRead(txn.TxID, key)
	} else {
		primary.ReadTSOrLockCounter = txn.TxID
	}
	tuple.PutChainedHeader(raw, primary)
}
