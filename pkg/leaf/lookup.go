package leaf

import (
	"github.com/tinykv-contrib/vtree/pkg/mvcc"
	"github.com/tinykv-contrib/vtree/pkg/pagestore"
	"github.com/tinykv-contrib/vtree/pkg/verrors"
)

// Lookup implements spec.md §4.3's lookup state machine: an optimistic
// attempt (bounded by maxOptimisticAttempts, restarting on a failed latch
// validation) that falls back to the pessimistic path whenever the slot
// exists but its primary is not visible to txn, or the optimistic attempts
// are exhausted. Serializable transactions skip straight to the
// pessimistic path under an exclusive latch, since only that path can
// record the SSI/2PL read-tracking bookkeeping spec.md §3 requires.
// Grounded on BTreeVI.cpp's lookup/lookupOptimistic/lookupPessimistic
// trio.
func (t *Tree) Lookup(txn *mvcc.Txn, key []byte) ([]byte, verrors.Result, error) {
	if txn.IsSerializable() {
		return t.lookupPessimistic(txn, key)
	}

	for attempt := 0; attempt < maxOptimisticAttempts; attempt++ {
		value, result, restart, err := t.lookupOptimistic(txn, key)
		if !restart {
			return value, result, err
		}
	}
	return t.lookupPessimistic(txn, key)
}

// lookupOptimistic takes an optimistic guard, reads the slot, and
// validates before trusting anything it saw. restart is true when the
// guard failed validation (concurrent writer) or the primary exists but
// is not visible, in either of which cases the caller should retry or
// fall back. Matches BTreeVI.cpp's lookupOptimistic: no SSI/2PL
// bookkeeping happens here, since an optimistic guard never holds the
// page exclusively.
func (t *Tree) lookupOptimistic(txn *mvcc.Txn, key []byte) (value []byte, result verrors.Result, restart bool, err error) {
	page := t.Pages.FindPage(key)
	guard, guardErr := page.TryOptimistic()
	if guardErr != nil {
		return nil, verrors.OK, true, nil
	}

	raw, ok := page.Get(key)
	if !ok {
		if vErr := guard.Validate(); vErr != nil {
			return nil, verrors.OK, true, nil
		}
		return nil, verrors.NotFound, false, nil
	}

	primary, isChained := decodePrimary(raw)
	if !isChained {
		if vErr := guard.Validate(); vErr != nil {
			return nil, verrors.OK, true, nil
		}
		return nil, verrors.Other, false, verrors.Wrap(nil, "leaf: fat tuple format not supported")
	}

	if mvcc.IsVisible(txn, primary.WorkerID, primary.TxID, false, primary.WriteLocked) {
		removed := primary.IsRemoved
		out := append([]byte(nil), primary.Payload...)
		if vErr := guard.Validate(); vErr != nil {
			return nil, verrors.OK, true, nil
		}
		if removed {
			return nil, verrors.NotFound, false, nil
		}
		return out, verrors.OK, false, nil
	}

	// Primary exists but is not visible: reconstruction needs a stable
	// read of the version chain, which an optimistic guard cannot give.
	// Fall back to the pessimistic path rather than reconstruct here.
	if vErr := guard.Validate(); vErr != nil {
		return nil, verrors.OK, true, nil
	}
	return nil, verrors.OK, true, nil
}

// lookupPessimistic takes a real latch (Exclusive under SSI so the
// read-tracking mutation below is safe to apply in place, Shared
// otherwise) and resolves the key directly: a visible primary returns
// immediately (NotFound when it is a tombstone), an invisible-but-present
// primary falls through to the Reconstructor, and an absent slot returns
// NotFound.
func (t *Tree) lookupPessimistic(txn *mvcc.Txn, key []byte) ([]byte, verrors.Result, error) {
	page := t.Pages.FindPage(key)

	var guard *pagestore.Guard
	if txn.IsSerializable() {
		guard = page.LockExclusive()
	} else {
		guard = page.LockShared()
	}
	defer guard.Unlock(false)

	raw, ok := page.Get(key)
	if !ok {
		return nil, verrors.NotFound, nil
	}

	primary, isChained := decodePrimary(raw)
	if !isChained {
		return nil, verrors.Other, verrors.Wrap(nil, "leaf: fat tuple format not supported")
	}

	if mvcc.IsVisible(txn, primary.WorkerID, primary.TxID, false, primary.WriteLocked) {
		if primary.IsRemoved {
			return nil, verrors.NotFound, nil
		}
		if txn.IsSerializable() {
			t.recordSSIRead(txn, raw, key)
		}
		out := append([]byte(nil), primary.Payload...)
		return out, verrors.OK, nil
	}

	value, result, _, err := Reconstruct(txn, t.Versions, t.ID, primary, t.Config.MaxChainLength)
	if err == nil && result == verrors.OK && txn.IsSerializable() {
		t.recordSSIRead(txn, raw, key)
	}
	return value, result, err
}
