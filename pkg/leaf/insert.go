package leaf

import (
	"github.com/tinykv-contrib/vtree/pkg/mvcc"
	"github.com/tinykv-contrib/vtree/pkg/tuple"
	"github.com/tinykv-contrib/vtree/pkg/verrors"
)

// Insert implements spec.md §4.3's insert: seek to the key's page, abort if
// a visible primary (live or tombstoned) already occupies the slot, split and
// retry on NotEnoughSpace, and otherwise install a fresh Chained tuple and
// buffer a WAL Insert record. Grounded on BTreeVI.cpp's insert, which folds
// seekToInsert's duplicate check and the NotEnoughSpace split/continue loop
// into one restartable call.
func (t *Tree) Insert(txn *mvcc.Txn, key, value []byte) (verrors.Result, error) {
	for {
		page := t.Pages.FindPage(key)
		guard := page.LockExclusive()

		if raw, ok := page.Get(key); ok {
			primary, isChained := decodePrimary(raw)
			if !isChained {
				guard.Unlock(false)
				return verrors.Other, verrors.Wrap(nil, "leaf: fat tuple format not supported")
			}
			if mvcc.IsVisible(txn, primary.WorkerID, primary.TxID, true, primary.WriteLocked) {
				guard.Unlock(false)
				return verrors.AbortTx, nil
			}
		}

		fresh := tuple.NewChainedTuple(txn.WorkerID, txn.TxID, value)
		encoded := tuple.EncodeChained(fresh)

		if !page.HasSpaceFor(len(key) + len(encoded)) {
			guard.Unlock(false)
			t.Pages.SplitForKey(key)
			continue
		}

		page.Put(key, encoded)
		txn.WAL.ReserveInsert(key, value)
		guard.Unlock(false)

		txn.MaybeAutoCommit()
		return verrors.OK, nil
	}
}
