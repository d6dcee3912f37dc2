package pagestore

import "sync/atomic"

// DanglingPointer is the optimistic fast-path locator spec.md §3 defines:
// {buffer-frame, expected latch version, leaf slot index}, here keyed by
// the slot's key rather than a positional index since LeafPage keeps
// slots sorted by key and reshuffles them on Put/Remove. Grounded on
// BTreeVI.cpp's JMUID/DanglingPointer struct the remove path stages for
// point GC (spec.md §4.6 "Point GC via dangling pointer").
type DanglingPointer struct {
	Page            *LatchedPage
	ExpectedVersion uint64
	Key             []byte
}

// Version returns the page's current latch version, read without
// acquiring any latch. Used both to populate a DanglingPointer at stage
// time and to validate one at point-GC time.
func (p *LatchedPage) Version() uint64 {
	return atomic.LoadUint64(&p.latch.version)
}

// NewDanglingPointer captures page's current version under key, to be
// validated later by point GC.
func NewDanglingPointer(page *LatchedPage, key []byte) DanglingPointer {
	return DanglingPointer{
		Page:            page,
		ExpectedVersion: page.Version(),
		Key:             append([]byte(nil), key...),
	}
}

// StillValid reports whether the page has not been mutated since the
// pointer was captured. A mismatch means point GC must fall back to a
// keyed seek instead of trusting the cached page reference.
func (d DanglingPointer) StillValid() bool {
	return d.Page.Version() == d.ExpectedVersion
}
