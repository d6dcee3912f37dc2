package leaf

import (
	"github.com/tinykv-contrib/vtree/pkg/tuple"
	"github.com/tinykv-contrib/vtree/pkg/verrors"
	"github.com/tinykv-contrib/vtree/pkg/wal"
)

// Undo implements spec.md §4.5: replay txn's buffered WAL records in
// reverse, restoring pre-image state on rollback. Grounded on
// BTreeVI.cpp's BTreeVI::undo switch over WALInsert/WALUpdateSSIP/
// WALRemove. Callers invoke this once, after mvcc.Txn.Abort(; no
// recovery-time replay is implemented (spec.md §1 Non-goals).
func (t *Tree) Undo(records []*wal.Record) {
	for i := len(records) - 1; i >= 0; i-- {
		t.undoOne(records[i])
	}
}

func (t *Tree) undoOne(r *wal.Record) {
	switch r.Kind {
	case wal.Insert:
		t.undoInsert(r)
	case wal.UpdateSSIP:
		t.undoUpdateSSIP(r)
	case wal.Remove:
		t.undoRemove(r)
	default:
		verrors.Invariant("leaf: undo of unknown WAL record kind %d", r.Kind)
	}
}

// undoInsert removes the slot the insert created, matching BTreeVI.cpp's
// "seek exactly, remove the slot, mark dirty, merge-if-needed."
func (t *Tree) undoInsert(r *wal.Record) {
	key := r.Key()
	page := t.Pages.FindPage(key)
	guard := page.LockExclusive()
	page.Remove(key)
	guard.Unlock(false)
	t.Pages.ReclaimIfEmpty(page)
}

// undoUpdateSSIP restores the primary's pre-image writer identity and
// XORs the stored diff bytes into the current payload to recover the
// pre-update value, matching BTreeVI.cpp's "restore primary writer
// identity from before_* fields and XOR the stored diff bytes into the
// current payload." The Fat-tuple branch ("pop its last in-place
// version") is not reachable: nothing in this tree ever creates a Fat
// primary (SPEC_FULL.md §12).
func (t *Tree) undoUpdateSSIP(r *wal.Record) {
	key := r.Key()
	page := t.Pages.FindPage(key)
	guard := page.LockExclusive()
	defer guard.Unlock(false)

	raw, ok := page.Get(key)
	if !ok {
		verrors.Invariant("leaf: undo updateSSIP of missing key %q", key)
	}
	if tuple.Classify(raw) != tuple.Chained {
		verrors.Invariant("leaf: undo updateSSIP encountered non-chained primary for key %q", key)
	}
	primary := tuple.DecodeChained(raw)

	descriptor, n := tuple.DecodeDescriptor(r.DescriptorAndDiff())
	diff := r.DescriptorAndDiff()[n:]
	tuple.ApplyXorDiff(descriptor, primary.Payload, diff)

	primary.WorkerID = r.Before.WorkerID
	primary.TxID = r.Before.TxID
	primary.CommandID = r.Before.CommandID
	primary.WriteLocked = false
	primary.ReadTSOrLockCounter = 0
	tuple.PutChainedHeader(raw, primary)
}

// undoRemove reconstructs a Chained primary from the WALRemove record's
// pre-image writer identity and payload, resizing the slot back to
// sizeof(header)+value_length, matching BTreeVI.cpp's "extend or shorten
// the primary back... re-construct a Chained primary..., clear lock, mark
// dirty."
func (t *Tree) undoRemove(r *wal.Record) {
	key := r.Key()
	value := r.Value()
	page := t.Pages.FindPage(key)
	guard := page.LockExclusive()
	defer guard.Unlock(false)

	restored := tuple.ChainedTuple{
		WorkerID:  r.Before.WorkerID,
		TxID:      r.Before.TxID,
		CommandID: r.Before.CommandID,
		IsFinal:   r.BeforeIsFinal,
		Payload:   value,
	}
	encoded := tuple.EncodeChained(restored)
	if !page.SetValue(key, encoded) {
		verrors.Invariant("leaf: undo remove lost slot for key %q", key)
	}
}
