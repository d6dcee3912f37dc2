package leaf

import (
	"github.com/tinykv-contrib/vtree/pkg/mvcc"
	"github.com/tinykv-contrib/vtree/pkg/pagestore"
	"github.com/tinykv-contrib/vtree/pkg/tuple"
	"github.com/tinykv-contrib/vtree/pkg/verrors"
	"github.com/tinykv-contrib/vtree/pkg/versionstore"
	"github.com/tinykv-contrib/vtree/pkg/wal"
	"github.com/tinykv-contrib/vtree/pkg/xlog"
)

// Remove implements spec.md §4.3's remove: fast-remove's physical delete
// when enabled, else the lock/visibility/SSI preconditions shared with
// Update, a full-value secondary version (not a delta), a WALRemove
// record, and shortening the primary to a header-only tombstone. Grounded
// on BTreeVI.cpp's remove.
func (t *Tree) Remove(txn *mvcc.Txn, key []byte) (verrors.Result, error) {
	page := t.Pages.FindPage(key)
	guard := page.LockExclusive()

	raw, ok := page.Get(key)
	if !ok {
		guard.Unlock(false)
		if txn.Isolation != mvcc.RC {
			xlog.Warn("leaf: remove of missing key", xlog.String("key", string(key)))
		}
		return verrors.NotFound, nil
	}

	if t.Config.FastRemove {
		page.Remove(key)
		guard.Unlock(false)
		t.Pages.ReclaimIfEmpty(page)
		txn.MaybeAutoCommit()
		return verrors.OK, nil
	}

	primary, isChained := decodePrimary(raw)
	if !isChained {
		guard.Unlock(false)
		return verrors.Other, verrors.Wrap(nil, "leaf: fat tuple format not supported")
	}
	if !mvcc.IsVisible(txn, primary.WorkerID, primary.TxID, true, primary.WriteLocked) {
		guard.Unlock(false)
		return verrors.AbortTx, nil
	}
	if primary.IsRemoved {
		guard.Unlock(false)
		return verrors.NotFound, nil
	}

	selfBit := uint64(1) << (txn.WorkerID % 64)
	if txn.IsSerializable() {
		if t.Config.TwoPL {
			if primary.ReadTSOrLockCounter&^selfBit != 0 {
				guard.Unlock(false)
				return verrors.AbortTx, nil
			}
		} else if primary.ReadTSOrLockCounter > txn.TxID {
			guard.Unlock(false)
			return verrors.AbortTx, nil
		}
	}

	before := wal.WriterIdentity{WorkerID: primary.WorkerID, TxID: primary.TxID, CommandID: primary.CommandID}
	priorValue := append([]byte(nil), primary.Payload...)

	primary.WriteLocked = true
	tuple.PutChainedHeader(raw, primary)

	commandID := txn.NextCommandID()
	committedBefore := before.TxID
	if before.WorkerID == txn.WorkerID && before.TxID == txn.TxID {
		committedBefore = tuple.CommittedBeforeInfinite
	}

	version := tuple.Version{
		WorkerID:            before.WorkerID,
		TxID:                before.TxID,
		CommandID:           before.CommandID,
		IsDelta:             false,
		IsRemoved:           false,
		CommittedBeforeTxID: committedBefore,
		GCTrigger:           txn.LWM(),
		Payload:             priorValue,
	}
	if t.Config.MV {
		vKey := versionstore.Key{TreeID: t.ID, TxID: txn.TxID, CommandID: commandID}
		if err := t.Versions.Reserve(vKey, version.Size(), func(buf []byte) {
			tuple.PutHeader(buf, version)
			copy(buf[tuple.VersionHeaderSize:], version.Payload)
		}); err != nil {
			guard.Unlock(false)
			return verrors.Other, verrors.Wrap(err, "leaf: reserve secondary version")
		}
	}

	txn.WAL.ReserveRemove(key, priorValue, before, primary.IsFinal)

	shortened := tuple.ChainedTuple{
		WorkerID:    txn.WorkerID,
		TxID:        txn.TxID,
		CommandID:   commandID,
		WriteLocked: false,
		IsRemoved:   true,
		IsFinal:     !t.Config.MV,
	}
	if t.Config.TwoPL {
		shortened.ReadTSOrLockCounter = selfBit
	}
	newRaw := tuple.EncodeChained(shortened)
	if !page.SetValue(key, newRaw) {
		verrors.Invariant("leaf: remove lost slot for key %q under exclusive latch", key)
	}

	wasContended := guard.Contended()
	guard.Unlock(wasContended)

	if t.Config.StageRemoveTODO {
		dp := pagestore.NewDanglingPointer(page, key)
		txn.StageTodo(dp)
	}

	txn.MaybeAutoCommit()
	return verrors.OK, nil
}
