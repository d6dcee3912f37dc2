package leaf

import (
	"github.com/tinykv-contrib/vtree/pkg/mvcc"
	"github.com/tinykv-contrib/vtree/pkg/tuple"
	"github.com/tinykv-contrib/vtree/pkg/verrors"
	"github.com/tinykv-contrib/vtree/pkg/versionstore"
	"github.com/tinykv-contrib/vtree/pkg/wal"
)

// electVersionElision decides whether an update may skip appending a
// secondary version entirely, per spec.md §4.3's update-without-versioning
// policy. Elision is always safe when MVCC is off (MV=false, a
// single-version engine has nothing to chain) or when FastUpdateChained
// forces it unconditionally. The narrower read-committed-safe case (a
// single-statement transaction under RC, elided only when every other
// worker's in-progress transaction bitmap shows none could still need the
// prior version) additionally requires UpdateVersionElision; this
// implementation approximates that bitmap check with the single-statement
// + RC test alone rather than tracking a live per-worker
// in-progress bitmap, which no package in this tree maintains.
func (t *Tree) electVersionElision(txn *mvcc.Txn) bool {
	if !t.Config.MV || t.Config.FastUpdateChained {
		return true
	}
	if t.Config.UpdateVersionElision && txn.Isolation == mvcc.RC && txn.IsSingleStatement() {
		return true
	}
	return false
}

// Update implements spec.md §4.3's updateSameSizeInPlace: a write-lock and
// visibility check (AbortTx on conflict), the SSI/2PL write-time conflict
// test, an elided-or-appended secondary version, the WAL's
// reserve/mutate/XOR dance around the caller's in-place mutate, and the
// primary header rewrite to the new writer's identity. Grounded on
// BTreeVI.cpp's updateSameSizeInPlace.
func (t *Tree) Update(txn *mvcc.Txn, key []byte, descriptor tuple.UpdateDescriptor, mutate func([]byte)) (verrors.Result, error) {
	page := t.Pages.FindPage(key)
	guard := page.LockExclusive()

	raw, ok := page.Get(key)
	if !ok {
		guard.Unlock(false)
		return verrors.NotFound, nil
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
	commandID := txn.NextCommandID()
	after := wal.WriterIdentity{WorkerID: txn.WorkerID, TxID: txn.TxID, CommandID: commandID}

	primary.WriteLocked = true
	tuple.PutChainedHeader(raw, primary)

	if !t.electVersionElision(txn) {
		versionDiff := make([]byte, descriptor.DiffLength())
		tuple.GenerateDiff(descriptor, versionDiff, primary.Payload)

		committedBefore := before.TxID
		if before.WorkerID == txn.WorkerID && before.TxID == txn.TxID {
			committedBefore = tuple.CommittedBeforeInfinite
		}

		version := tuple.Version{
			WorkerID:            before.WorkerID,
			TxID:                before.TxID,
			CommandID:           before.CommandID,
			IsDelta:             true,
			CommittedBeforeTxID: committedBefore,
			GCTrigger:           txn.LWM(),
			Payload:             append(tuple.EncodeDescriptor(descriptor), versionDiff...),
		}
		vKey := versionstore.Key{TreeID: t.ID, TxID: after.TxID, CommandID: after.CommandID}
		if err := t.Versions.Reserve(vKey, version.Size(), func(buf []byte) {
			tuple.PutHeader(buf, version)
			copy(buf[tuple.VersionHeaderSize:], version.Payload)
		}); err != nil {
			guard.Unlock(false)
			return verrors.Other, verrors.Wrap(err, "leaf: reserve secondary version")
		}
		primary.IsFinal = false
	}

	record := txn.WAL.ReserveUpdateSSIP(key, descriptor.Size()+descriptor.DiffLength(), before, after)
	tuple.PutDescriptor(record.DescriptorAndDiff(), descriptor)
	diffRegion := record.DescriptorAndDiff()[descriptor.Size():]
	tuple.GenerateDiff(descriptor, diffRegion, primary.Payload)

	mutate(primary.Payload)

	tuple.GenerateXorDiff(descriptor, diffRegion, primary.Payload)

	primary.WorkerID = txn.WorkerID
	primary.TxID = txn.TxID
	primary.CommandID = commandID
	primary.WriteLocked = false
	if t.Config.TwoPL {
		primary.ReadTSOrLockCounter = selfBit
	} else {
		primary.ReadTSOrLockCounter = 0
	}
	tuple.PutChainedHeader(raw, primary)

	wasContended := guard.Contended()
	guard.Unlock(wasContended)
	if t.Pages.ContentionSplit(page) {
		t.Pages.SplitForKey(key)
	}

	txn.MaybeAutoCommit()
	return verrors.OK, nil
}
