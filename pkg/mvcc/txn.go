package mvcc

import (
	"sync/atomic"

	"github.com/tinykv-contrib/vtree/pkg/pagestore"
	"github.com/tinykv-contrib/vtree/pkg/versionstore"
	"github.com/tinykv-contrib/vtree/pkg/wal"
)

// Worker binds an Oracle and a Versions Store handle across the
// transactions it runs, and owns the per-worker monotonic command-id
// counter, matching BTreeVI.cpp's cr::Worker::my().command_id++ (a
// counter that lives on the worker, not on any one transaction) and
// spec.md §5's "per-worker command_id is strictly local". Grounded on the
// teacher's kv/transaction/mvcc/transaction.go RoTxn/MvccTxn split, here
// unified since every operation this module supports is read-write
// capable under any isolation level.
type Worker struct {
	ID       uint64
	oracle   *Oracle
	versions versionstore.Store

	nextCommandID uint32
}

// NewWorker returns a Worker bound to oracle and versions.
func NewWorker(id uint64, oracle *Oracle, versions versionstore.Store) *Worker {
	return &Worker{ID: id, oracle: oracle, versions: versions}
}

// Begin starts a new transaction on the worker.
func (w *Worker) Begin(isolation Isolation, twoPL bool, singleStatement bool) *Txn {
	return &Txn{
		WorkerID:        w.ID,
		TxID:            w.oracle.Begin(),
		Isolation:       isolation,
		TwoPL:           twoPL,
		singleStatement: singleStatement,
		oracle:          w.oracle,
		worker:          w,
		Versions:        w.versions,
		WAL:             wal.NewBuffer(),
	}
}

// Txn is the transaction context a Leaf Operator call runs under: an
// Oracle-issued tx-id doubling as the snapshot start timestamp, the
// isolation level, a WAL record buffer, and a handle to the Versions
// Store.
type Txn struct {
	WorkerID  uint64
	TxID      uint64
	Isolation Isolation
	TwoPL     bool

	Versions versionstore.Store
	WAL      *wal.Buffer

	singleStatement bool
	committed       bool
	aborted         bool

	// todos staged by Remove when Config.StageRemoveTODO is set: dangling
	// pointers the dispatch table's Todo callback drains after commit to
	// drive point GC, per spec.md §4.6.
	todos []pagestore.DanglingPointer

	oracle *Oracle
	worker *Worker
}

// StageTodo records a dangling pointer for later point GC. Called by the
// Leaf Operator's remove path, never by readers.
func (t *Txn) StageTodo(dp pagestore.DanglingPointer) {
	t.todos = append(t.todos, dp)
}

// DrainTodos returns and clears every dangling pointer staged on txn,
// consumed by the dispatch table's Todo callback after commit.
func (t *Txn) DrainTodos() []pagestore.DanglingPointer {
	todos := t.todos
	t.todos = nil
	return todos
}

// IsSerializable reports whether txn runs under SSI, the level at which
// read_ts/read_lock_counter bookkeeping is maintained.
func (t *Txn) IsSerializable() bool {
	return t.Isolation == SSI
}

// IsSingleStatement reports whether txn auto-commits after one Leaf
// Operator call.
func (t *Txn) IsSingleStatement() bool {
	return t.singleStatement
}

// LWM reports the oracle's current global snapshot low-water mark, used to
// stamp a freshly superseded secondary version's GCTrigger.
func (t *Txn) LWM() uint64 {
	return t.oracle.LWM()
}

// NextCommandID allocates the next per-worker command-id, used to stamp a
// freshly superseded version.
func (t *Txn) NextCommandID() uint32 {
	return atomic.AddUint32(&t.worker.nextCommandID, 1) - 1
}

// Commit marks the transaction committed in the Oracle.
func (t *Txn) Commit() {
	if t.committed || t.aborted {
		return
	}
	t.oracle.Commit(t.TxID)
	t.committed = true
}

// Abort marks the transaction aborted in the Oracle. Callers still owe the
// Undo Engine a pass over t.WAL.Records() in reverse to unwind page state.
func (t *Txn) Abort() {
	if t.committed || t.aborted {
		return
	}
	t.oracle.Abort(t.TxID)
	t.aborted = true
}

// MaybeAutoCommit commits the transaction if it is single-statement,
// matching BTreeVI.cpp's `if (cr::activeTX().isSingleStatement())
// cr::Worker::my().commitTX();` call at the end of every mutation.
func (t *Txn) MaybeAutoCommit() {
	if t.singleStatement {
		t.Commit()
	}
}
