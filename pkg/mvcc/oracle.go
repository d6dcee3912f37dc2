// Package mvcc implements the Transaction Oracle, the Worker/Txn context,
// and the Visibility Oracle: the pieces spec.md's Leaf Operator, Reconstructor,
// and Undo Engine consult to decide what a reader may see and when a
// secondary version becomes garbage. Grounded on the teacher's
// kv/transaction/mvcc/transaction.go RoTxn/MvccTxn split and BTreeVI.cpp's
// cr::Worker / cr::ActiveTx model (tx_id doubles as start timestamp; there
// is no separate commit-timestamp sequence).
package mvcc

import "sync"

// Isolation is the isolation level a transaction runs under.
type Isolation int

const (
	SI Isolation = iota
	RC
	SSI
)

// Oracle assigns monotonic transaction ids (which double as snapshot start
// timestamps, per BTreeVI.cpp's TTS model), tracks in-flight transactions,
// and computes the global snapshot low-water mark the Garbage Collector
// consumes.
type Oracle struct {
	mu        sync.Mutex
	nextTxID  uint64
	active    map[uint64]struct{}
	committed map[uint64]struct{}
}

// NewOracle returns an Oracle with the first assignable tx-id set to 1 (0
// is reserved so a zero-value WriterIdentity can never be mistaken for a
// real writer).
func NewOracle() *Oracle {
	return &Oracle{
		nextTxID:  1,
		active:    make(map[uint64]struct{}),
		committed: make(map[uint64]struct{}),
	}
}

// Begin assigns a fresh tx-id and marks it active.
func (o *Oracle) Begin() uint64 {
	o.mu.Lock()
	defer o.mu.Unlock()
	txID := o.nextTxID
	o.nextTxID++
	o.active[txID] = struct{}{}
	return txID
}

// Commit marks txID committed and no longer active.
func (o *Oracle) Commit(txID uint64) {
	o.mu.Lock()
	defer o.mu.Unlock()
	delete(o.active, txID)
	o.committed[txID] = struct{}{}
}

// Abort marks txID no longer active, without recording it as committed.
func (o *Oracle) Abort(txID uint64) {
	o.mu.Lock()
	defer o.mu.Unlock()
	delete(o.active, txID)
}

// IsCommitted reports whether txID has committed.
func (o *Oracle) IsCommitted(txID uint64) bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	_, ok := o.committed[txID]
	return ok
}

// IsActive reports whether txID is currently in flight.
func (o *Oracle) IsActive(txID uint64) bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	_, ok := o.active[txID]
	return ok
}

// LWM returns the global snapshot low-water mark: the oldest tx-id any
// still-active transaction could need to observe. If no transaction is
// active, everything committed so far is collectible, so LWM is the next
// tx-id that will be assigned.
func (o *Oracle) LWM() uint64 {
	o.mu.Lock()
	defer o.mu.Unlock()
	lwm := o.nextTxID
	for txID := range o.active {
		if txID < lwm {
			lwm = txID
		}
	}
	return lwm
}

// ForgetCommittedBelow drops committed-set bookkeeping for tx-ids at or
// below lwm; nothing can query their commit status usefully once GC has
// passed them.
func (o *Oracle) ForgetCommittedBelow(lwm uint64) {
	o.mu.Lock()
	defer o.mu.Unlock()
	for txID := range o.committed {
		if txID <= lwm {
			delete(o.committed, txID)
		}
	}
}
