// Package pagestore is the ambient leaf-page directory the Leaf Operator
// mutates: an ordered set of slotted leaf pages, each latched
// independently, backed by github.com/google/btree.BTree as the ordered
// page directory. This stands in for spec.md §1's out-of-scope "generic
// B+-tree node splitting/merging/iteration mechanism" and "buffer-frame
// pager and its latch primitives" — a minimal concrete collaborator, not
// a full pager, sufficient to exercise the Leaf Operator's restart
// discipline. Grounded on kv/test_raftstore/pd.go's btree.Item usage
// elsewhere in the pack (a btree.BTree of range-keyed items).
package pagestore

import (
	"bytes"
	"sort"
)

// MaxPageBytes bounds a leaf page's total slot payload before a caller
// must split. There is no on-disk paging in this module; this only gives
// the split/NotEnoughSpace machinery something concrete to trigger on.
const MaxPageBytes = 4096

// Slot is one (key, encoded tuple) pair stored on a leaf page.
type Slot struct {
	Key   []byte
	Value []byte
}

// LeafPage is a slotted array of key-sorted slots plus the bookkeeping the
// Garbage Collector and the contention-split heuristic need. Its latch
// lives on the LatchedPage that wraps it (see Guard).
type LeafPage struct {
	ID       uint64
	StartKey []byte // inclusive lower bound of this page's key range

	slots []Slot

	// GCSpaceUsed is the byte count of garbage the last GC pass observed
	// on this page (key and tuple bytes of tombstoned primaries only),
	// set by pkg/gc, per spec.md §4.6 "record gc_space_used".
	GCSpaceUsed int

	// contendedUnlocks counts exclusive unlocks that observed another
	// waiter, feeding the contention-driven split heuristic (spec.md §9
	// supplemented feature, grounded on BTreeVI.cpp's contentionSplit()).
	contendedUnlocks int
}

// NewLeafPage returns an empty page covering [startKey, +inf).
func NewLeafPage(id uint64, startKey []byte) *LeafPage {
	return &LeafPage{ID: id, StartKey: startKey}
}

// find returns the slot index for key and whether it was found, via
// binary search over the sorted slot array.
func (p *LeafPage) find(key []byte) (int, bool) {
	i := sort.Search(len(p.slots), func(i int) bool {
		return bytes.Compare(p.slots[i].Key, key) >= 0
	})
	if i < len(p.slots) && bytes.Equal(p.slots[i].Key, key) {
		return i, true
	}
	return i, false
}

// Get returns the raw slot value for key, and whether it exists. The
// returned slice aliases the page's backing array.
func (p *LeafPage) Get(key []byte) ([]byte, bool) {
	i, ok := p.find(key)
	if !ok {
		return nil, false
	}
	return p.slots[i].Value, true
}

// SpaceUsed returns the total key+value bytes currently occupied.
func (p *LeafPage) SpaceUsed() int {
	n := 0
	for _, s := range p.slots {
		n += len(s.Key) + len(s.Value)
	}
	return n
}

// HasSpaceFor reports whether inserting or growing a slot to
// additionalBytes more would keep the page under MaxPageBytes.
func (p *LeafPage) HasSpaceFor(additionalBytes int) bool {
	return p.SpaceUsed()+additionalBytes <= MaxPageBytes
}

// Put inserts or overwrites the slot for key with value, preserving sort
// order. Callers must have checked HasSpaceFor first; Put itself never
// reports NotEnoughSpace.
func (p *LeafPage) Put(key, value []byte) {
	i, ok := p.find(key)
	if ok {
		p.slots[i].Value = value
		return
	}
	p.slots = append(p.slots, Slot{})
	copy(p.slots[i+1:], p.slots[i:])
	p.slots[i] = Slot{Key: append([]byte(nil), key...), Value: value}
}

// SetValue overwrites the value bytes for an existing slot in place,
// returning false if key is absent. Used by mutators that resize a slot's
// payload without touching its position in the sort order.
func (p *LeafPage) SetValue(key, value []byte) bool {
	i, ok := p.find(key)
	if !ok {
		return false
	}
	p.slots[i].Value = value
	return true
}

// Remove deletes the slot for key, if present, returning whether it was
// found.
func (p *LeafPage) Remove(key []byte) bool {
	i, ok := p.find(key)
	if !ok {
		return false
	}
	p.slots = append(p.slots[:i], p.slots[i+1:]...)
	return true
}

// Len returns the number of occupied slots.
func (p *LeafPage) Len() int {
	return len(p.slots)
}

// Empty reports whether the page has zero slots, the condition under
// which the Page Store reclaims it after a GC pass (spec.md §9 open
// question, resolved in SPEC_FULL.md §12: explicit reclaim).
func (p *LeafPage) Empty() bool {
	return len(p.slots) == 0
}

// Slots returns the page's slots in key order. The caller must not
// mutate the returned slice's Key/Value bytes without holding an
// exclusive guard.
func (p *LeafPage) Slots() []Slot {
	return p.slots
}

// splitPoint returns the median slot index used by Split.
func (p *LeafPage) splitPoint() int {
	return len(p.slots) / 2
}

// Split moves the upper half of p's slots into a freshly allocated page
// with id newID and returns it; the new page's StartKey is the median
// key. Naive split-on-overflow only, per SPEC_FULL.md §2
// item 9 — no rebalancing beyond this.
func (p *LeafPage) Split(newID uint64) *LeafPage {
	mid := p.splitPoint()
	right := &LeafPage{ID: newID, StartKey: p.slots[mid].Key}
	right.slots = append(right.slots, p.slots[mid:]...)
	p.slots = p.slots[:mid:mid]
	return right
}
