package pagestore

import (
	"bytes"
	"sync"

	"github.com/google/btree"
)

// contentionSplitThreshold is the number of contended exclusive unlocks a
// page tolerates before the Store splits it, the supplemented
// contention-driven split heuristic from SPEC_FULL.md §7 (BTreeVI.cpp's
// iterator.contentionSplit()).
const contentionSplitThreshold = 8

// pageItem orders LatchedPages by their StartKey in the btree.BTree
// directory, grounded on kv/test_raftstore/pd.go's regionItem pattern
// (a btree.Item wrapping a range-keyed value).
type pageItem struct {
	page *LatchedPage
}

func (i pageItem) Less(other btree.Item) bool {
	return bytes.Compare(i.page.StartKey, other.(pageItem).page.StartKey) < 0
}

// Store is the ordered leaf-page directory: github.com/google/btree.BTree
// keyed by each page's StartKey, standing in for spec.md §1's out-of-scope
// generic B+-tree mechanism.
type Store struct {
	mu     sync.Mutex
	dir    *btree.BTree
	nextID uint64
}

// NewStore returns a Store with a single empty leaf covering the whole
// key space.
func NewStore() *Store {
	s := &Store{dir: btree.New(32), nextID: 1}
	root := NewLatchedPage(NewLeafPage(0, nil))
	s.dir.ReplaceOrInsert(pageItem{page: root})
	return s
}

// FindPage returns the leaf page whose range contains key: the page with
// the greatest StartKey ≤ key.
func (s *Store) FindPage(key []byte) *LatchedPage {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.findPageLocked(key)
}

func (s *Store) findPageLocked(key []byte) *LatchedPage {
	var found *LatchedPage
	pivot := pageItem{page: &LatchedPage{LeafPage: &LeafPage{StartKey: key}}}
	s.dir.DescendLessOrEqual(pivot, func(i btree.Item) bool {
		found = i.(pageItem).page
		return false
	})
	return found
}

// SplitForKey splits the leaf page covering key into two, installing the
// new right page in the directory. Callers hold no latch across this
// call; it takes and releases the page's exclusive latch itself, matching
// BTreeVI.cpp's iterator.splitForKey followed by jumpmu_continue back to
// a fresh seek.
func (s *Store) SplitForKey(key []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()

	left := s.findPageLocked(key)
	guard := left.LockExclusive()
	defer guard.Unlock(false)

	if left.Len() < 2 {
		// Nothing sane to split; a single oversized slot must be handled
		// by the caller some other way (not modeled here).
		return
	}
	rightID := s.nextID
	s.nextID++
	right := left.Split(rightID)
	s.dir.ReplaceOrInsert(pageItem{page: NewLatchedPage(right)})
}

// ContentionSplit reports whether page has crossed the contended-unlock
// threshold; if so it clears the counter and returns true so the caller
// can trigger a split. Grounded on BTreeVI.cpp's contentionSplit(),
// SPEC_FULL.md §7.
func (s *Store) ContentionSplit(page *LatchedPage) bool {
	if page.contendedUnlocks < contentionSplitThreshold {
		return false
	}
	page.contendedUnlocks = 0
	return true
}

// ReclaimIfEmpty removes page from the directory if it has zero slots,
// resolving spec.md §9's "GC may leave completely empty leaves" open
// question in favor of explicit reclaim (SPEC_FULL.md §12). The root page
// (StartKey == nil) is never reclaimed, since some page must always cover
// the whole key space.
func (s *Store) ReclaimIfEmpty(page *LatchedPage) bool {
	if page.StartKey == nil || !page.Empty() {
		return false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.dir.Delete(pageItem{page: page})
	return true
}

// AllPages returns every leaf page in key order, for full-tree scans
// (Garbage Collector sweeps, scanAsc/scanDesc).
func (s *Store) AllPages() []*LatchedPage {
	s.mu.Lock()
	defer s.mu.Unlock()
	pages := make([]*LatchedPage, 0, s.dir.Len())
	s.dir.Ascend(func(i btree.Item) bool {
		pages = append(pages, i.(pageItem).page)
		return true
	})
	return pages
}
