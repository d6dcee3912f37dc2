// Package dispatch implements spec.md §4.7's Dispatch Table: the single
// metadata record of function-valued capabilities a Tree exposes to the
// pager/recovery layer, expressed as a Go struct whose methods are the
// callbacks rather than the teacher's C-style function pointers (BTreeVI.cpp's
// DTRegistry::DTMeta struct literal), per spec.md §9's design note.
package dispatch

import (
	"github.com/tinykv-contrib/vtree/pkg/gc"
	"github.com/tinykv-contrib/vtree/pkg/leaf"
	"github.com/tinykv-contrib/vtree/pkg/mvcc"
	"github.com/tinykv-contrib/vtree/pkg/pagestore"
	"github.com/tinykv-contrib/vtree/pkg/wal"
)

// Table is the set of callbacks spec.md §4.7 and §6 enumerate:
// iterate_children, find_parent, check_space_utilization, checkpoint,
// undo, todo, unlock, serialize, deserialize. IterateChildren, FindParent,
// Checkpoint, Serialize, and Deserialize belong to the out-of-scope
// buffer-frame pager and generic B+-tree mechanism (spec.md §1); this
// module supplies stand-in implementations sufficient to exercise the
// callback shape without a real multi-level tree or durable page format
// beneath it.
type Table struct {
	tree      *leaf.Tree
	collector *gc.Collector
}

// New builds the dispatch Table for tree, wiring a fresh gc.Collector
// bound to the same page and versions stores.
func New(tree *leaf.Tree) *Table {
	return &Table{
		tree:      tree,
		collector: gc.NewCollector(tree.ID, tree.Pages, tree.Versions),
	}
}

// IterateChildren is the stand-in for the generic B+-tree's child
// iteration callback (spec.md §1 out-of-scope): this module's Page Store
// has no internal nodes, so it iterates the leaf directory itself.
func (t *Table) IterateChildren(visit func(pageID uint64) bool) {
	for _, page := range t.tree.Pages.AllPages() {
		if !visit(page.ID) {
			return
		}
	}
}

// FindParent is the stand-in for the pager's parent-lookup callback; with
// no internal nodes there is no parent to find, so it always reports not
// found.
func (t *Table) FindParent(pageID uint64) (parentID uint64, ok bool) {
	return 0, false
}

// CheckSpaceUtilization runs gc.Collector.ShouldRun/PreciseSweep over
// every page whose garbage estimate crosses the trigger threshold,
// wiring precise GC into the pager's space-utilization check exactly as
// BTreeVI.cpp's checkSpaceUtilization does (SPEC_FULL.md §7).
func (t *Table) CheckSpaceUtilization(lwm uint64) []gc.PageResult {
	return t.collector.SweepAll(lwm)
}

// Checkpoint is the stand-in for the pager's checkpoint callback
// (spec.md §1 out-of-scope WAL ring/group commit); this module's WAL
// buffer is in-process only, so checkpointing is a no-op acknowledging
// that every committed transaction's WAL has already been applied to the
// in-memory page state; nothing is persisted.
func (t *Table) Checkpoint() {}

// Undo replays txn's buffered WAL records in reverse, for rollback.
func (t *Table) Undo(records []*wal.Record) {
	t.tree.Undo(records)
}

// Todo drains txn's staged dangling pointers and runs point GC on each,
// matching each tombstone against txn's own writer identity (every
// dangling pointer staged by one transaction's removes carries that same
// identity), per spec.md §4.6's "Point GC via dangling pointer."
func (t *Table) Todo(txn *mvcc.Txn, lwm uint64) {
	for _, dp := range txn.DrainTodos() {
		t.collector.PointGC(dp, txn.WorkerID, txn.TxID, lwm, t.tree.Config.DanglingPointerFastPath)
	}
}

// Unlock releases every SSI/2PL read lock txn holds on this tree.
func (t *Table) Unlock(txn *mvcc.Txn) {
	t.tree.Unlock(txn)
}

// Serialize is the stand-in for the pager's page-serialization callback
// (spec.md §1 out-of-scope); a LeafPage's slots are already plain byte
// slices, so serialization here is identity: callers persisting a page
// read Slots() directly rather than going through a codec this module
// would own.
func (t *Table) Serialize(page *pagestore.LeafPage) []pagestore.Slot {
	return page.Slots()
}

// Deserialize is Serialize's inverse stand-in: installing a previously
// serialized slot set onto a fresh page.
func (t *Table) Deserialize(page *pagestore.LeafPage, slots []pagestore.Slot) {
	for _, s := range slots {
		page.Put(s.Key, s.Value)
	}
}
