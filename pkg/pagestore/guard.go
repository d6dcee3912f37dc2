package pagestore

import (
	"sync"
	"sync/atomic"

	"github.com/pingcap/errors"
)

// ErrValidationFailed is returned by Guard.Validate when a page mutated
// since the guard was acquired; the caller must restart its operation
// from the top, per spec.md §5's restart discipline ("any operation may
// abort and restart when latch validation fails").
var ErrValidationFailed = errors.New("pagestore: optimistic guard validation failed")

// Mode is the latch mode a Guard was acquired under.
type Mode int

const (
	Optimistic Mode = iota
	Shared
	Exclusive
)

// pageLatch is the per-page synchronization state: a classic seqlock
// version counter (even == unlatched, odd == exclusively latched) plus a
// real sync.RWMutex serializing Shared/Exclusive acquisition. Grounded on
// spec.md §5's three latch modes and §9's restart-style design note; this
// is the module's stand-in for the buffer-frame pager's latch primitives.
type pageLatch struct {
	mu      sync.RWMutex
	version uint64
}

// LatchedPage pairs a LeafPage with its latch state. The Page Store hands
// these out; LeafPage itself carries no synchronization.
type LatchedPage struct {
	*LeafPage
	latch pageLatch
}

// NewLatchedPage wraps page with fresh latch state.
func NewLatchedPage(page *LeafPage) *LatchedPage {
	return &LatchedPage{LeafPage: page}
}

// Guard is a handle on a LatchedPage acquired under one of the three
// modes. Optimistic guards do not block writers; the caller must call
// Validate before trusting anything it read and before returning success
// to its own caller.
type Guard struct {
	page             *LatchedPage
	mode             Mode
	versionAtAcquire uint64
	contended        bool
}

// LockExclusive blocks until the page's exclusive latch is free, bumping
// the version to odd for the duration. It first attempts a non-blocking
// TryLock so the returned Guard can report whether acquisition had to wait
// on another holder, feeding the contention-split heuristic without
// requiring callers to guess.
func (p *LatchedPage) LockExclusive() *Guard {
	contended := !p.latch.mu.TryLock()
	if contended {
		p.latch.mu.Lock()
	}
	atomic.AddUint64(&p.latch.version, 1)
	return &Guard{page: p, mode: Exclusive, contended: contended}
}

// Contended reports whether this Guard's acquisition had to wait on
// another holder of the exclusive latch.
func (g *Guard) Contended() bool {
	return g.contended
}

// LockShared blocks until no exclusive holder is present.
func (p *LatchedPage) LockShared() *Guard {
	p.latch.mu.RLock()
	return &Guard{page: p, mode: Shared}
}

// TryOptimistic acquires an optimistic guard without blocking writers. It
// fails only if the page is exclusively latched at the instant of
// acquisition; the caller should retry (spin or restart) rather than
// treat this as a hard error.
func (p *LatchedPage) TryOptimistic() (*Guard, error) {
	v := atomic.LoadUint64(&p.latch.version)
	if v%2 == 1 {
		return nil, ErrValidationFailed
	}
	return &Guard{page: p, mode: Optimistic, versionAtAcquire: v}, nil
}

// Mode reports the guard's acquisition mode.
func (g *Guard) Mode() Mode {
	return g.mode
}

// Validate re-checks an Optimistic guard's version snapshot. No-op for
// Shared/Exclusive guards, which hold the latch and cannot be invalidated
// concurrently.
func (g *Guard) Validate() error {
	if g.mode != Optimistic {
		return nil
	}
	if atomic.LoadUint64(&g.page.latch.version) != g.versionAtAcquire {
		return ErrValidationFailed
	}
	return nil
}

// Unlock releases the guard. For Exclusive guards it bumps the version
// back to even, publishing the mutation to future optimistic readers;
// contended reports whether another goroutine was waiting on the
// exclusive latch, feeding the contention-split heuristic.
func (g *Guard) Unlock(contended bool) {
	switch g.mode {
	case Exclusive:
		atomic.AddUint64(&g.page.latch.version, 1)
		if contended {
			g.page.contendedUnlocks++
		}
		g.page.latch.mu.Unlock()
	case Shared:
		g.page.latch.mu.RUnlock()
	}
}
