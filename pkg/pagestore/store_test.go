package pagestore

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewStoreHasSingleRootPage(t *testing.T) {
	s := NewStore()
	pages := s.AllPages()
	assert.Len(t, pages, 1)
	assert.Nil(t, pages[0].StartKey)
}

func TestFindPageReturnsRootForAnyKeyInitially(t *testing.T) {
	s := NewStore()
	p1 := s.FindPage([]byte("a"))
	p2 := s.FindPage([]byte("zzzz"))
	assert.Same(t, p1.LeafPage, p2.LeafPage)
}

func TestSplitForKeyCreatesSecondPageRoutedByStartKey(t *testing.T) {
	s := NewStore()
	root := s.FindPage([]byte("a"))
	for _, k := range []string{"a", "b", "c", "d"} {
		root.Put([]byte(k), []byte(k))
	}

	s.SplitForKey([]byte("c"))
	assert.Len(t, s.AllPages(), 2)

	left := s.FindPage([]byte("a"))
	right := s.FindPage([]byte("d"))
	assert.NotSame(t, left.LeafPage, right.LeafPage)

	_, okLeft := left.Get([]byte("c"))
	assert.False(t, okLeft)
	_, okRight := right.Get([]byte("c"))
	assert.True(t, okRight)
}

func TestReclaimIfEmptyRemovesNonRootEmptyPage(t *testing.T) {
	s := NewStore()
	root := s.FindPage([]byte("a"))
	for _, k := range []string{"a", "b", "c", "d"} {
		root.Put([]byte(k), []byte(k))
	}
	s.SplitForKey([]byte("c"))
	right := s.FindPage([]byte("d"))
	right.Remove([]byte("c"))
	right.Remove([]byte("d"))

	assert.True(t, s.ReclaimIfEmpty(right))
	assert.Len(t, s.AllPages(), 1)
}

func TestReclaimIfEmptyNeverRemovesRoot(t *testing.T) {
	s := NewStore()
	root := s.FindPage([]byte("a"))
	assert.False(t, s.ReclaimIfEmpty(root))
	assert.Len(t, s.AllPages(), 1)
}

func TestContentionSplitReportsAfterThresholdAndResets(t *testing.T) {
	s := NewStore()
	page := s.FindPage([]byte("a"))
	for i := 0; i < contentionSplitThreshold; i++ {
		g := page.LockExclusive()
		g.Unlock(true)
	}
	assert.True(t, s.ContentionSplit(page))
	assert.False(t, s.ContentionSplit(page))
}
