package leaf

import (
	"bytes"

	"github.com/tinykv-contrib/vtree/pkg/mvcc"
	"github.com/tinykv-contrib/vtree/pkg/pagestore"
	"github.com/tinykv-contrib/vtree/pkg/verrors"
)

// ScanAsc implements spec.md §6's scanAsc: iterate key order from
// startKey (inclusive) invoking cb(key, value) for each visible entry,
// stopping early when cb returns false. Each page is visited under a
// shared latch (SSI/2PL iteration takes it exclusively so read tracking
// can be recorded), reconstructing non-visible primaries as Lookup does.
// There is no optimistic path for scans: BTreeVI.cpp's iterator-based
// scan always holds a real latch across the page it is reading.
func (t *Tree) ScanAsc(txn *mvcc.Txn, startKey []byte, cb func(key, value []byte) bool) error {
	for _, page := range t.Pages.AllPages() {
		if page.StartKey != nil && len(page.Slots()) > 0 {
			last := page.Slots()[len(page.Slots())-1]
			if bytes.Compare(last.Key, startKey) < 0 {
				continue
			}
		}
		cont, err := t.scanPage(txn, page, startKey, nil, false, cb)
		if err != nil {
			return err
		}
		if !cont {
			return nil
		}
	}
	return nil
}

// ScanDesc implements spec.md §6's scanDesc: iterate key order descending
// from startKey (inclusive) invoking cb(key, value), stopping early when
// cb returns false.
func (t *Tree) ScanDesc(txn *mvcc.Txn, startKey []byte, cb func(key, value []byte) bool) error {
	pages := t.Pages.AllPages()
	for i := len(pages) - 1; i >= 0; i-- {
		page := pages[i]
		if len(page.Slots()) > 0 {
			first := page.Slots()[0]
			if bytes.Compare(first.Key, startKey) > 0 && page.StartKey != nil && bytes.Compare(page.StartKey, startKey) > 0 {
				continue
			}
		}
		cont, err := t.scanPage(txn, page, nil, startKey, true, cb)
		if err != nil {
			return err
		}
		if !cont {
			return nil
		}
	}
	return nil
}

// scanPage walks one page's slots in the requested direction, bounded by
// loKey (ascending) or hiKey (descending), reconstructing and invoking cb
// on every visible entry. Returns false if cb asked to stop.
func (t *Tree) scanPage(txn *mvcc.Txn, page *pagestore.LatchedPage, loKey, hiKey []byte, descending bool, cb func(key, value []byte) bool) (bool, error) {
	var guard *pagestore.Guard
	if txn.IsSerializable() {
		guard = page.LockExclusive()
	} else {
		guard = page.LockShared()
	}
	defer guard.Unlock(false)

	slots := append([]pagestore.Slot(nil), page.Slots()...)
	if descending {
		for i, j := 0, len(slots)-1; i < j; i, j = i+1, j-1 {
			slots[i], slots[j] = slots[j], slots[i]
		}
	}

	for _, slot := range slots {
		if !descending && loKey != nil && bytes.Compare(slot.Key, loKey) < 0 {
			continue
		}
		if descending && hiKey != nil && bytes.Compare(slot.Key, hiKey) > 0 {
			continue
		}

		primary, isChained := decodePrimary(slot.Value)
		if !isChained {
			continue
		}

		if mvcc.IsVisible(txn, primary.WorkerID, primary.TxID, false, primary.WriteLocked) {
			if primary.IsRemoved {
				continue
			}
			if txn.IsSerializable() {
				t.recordSSIRead(txn, slot.Value, slot.Key)
			}
			if !cb(slot.Key, append([]byte(nil), primary.Payload...)) {
				return false, nil
			}
			continue
		}

		value, result, _, err := Reconstruct(txn, t.Versions, t.ID, primary, t.Config.MaxChainLength)
		if err != nil {
			return false, err
		}
		if result != verrors.OK {
			continue
		}
		if txn.IsSerializable() {
			t.recordSSIRead(txn, slot.Value, slot.Key)
		}
		if !cb(slot.Key, value) {
			return false, nil
		}
	}
	return true, nil
}
