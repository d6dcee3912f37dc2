package mvcc

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/tinykv-contrib/vtree/pkg/versionstore"
)

func newTestTxn(t *testing.T, oracle *Oracle, isolation Isolation) *Txn {
	w := NewWorker(1, oracle, versionstore.NewMemStore())
	return w.Begin(isolation, false, false)
}

func TestOwnWritesAlwaysVisible(t *testing.T) {
	o := NewOracle()
	txn := newTestTxn(t, o, SI)
	assert.True(t, IsVisible(txn, txn.WorkerID, txn.TxID, true, true))
}

func TestSIHidesUncommittedForeignWrite(t *testing.T) {
	o := NewOracle()
	writerTxID := o.Begin()
	txn := newTestTxn(t, o, SI)
	assert.False(t, IsVisible(txn, 2, writerTxID, false, false))
}

func TestSIHidesCommitAfterSnapshotStart(t *testing.T) {
	o := NewOracle()
	txn := newTestTxn(t, o, SI)
	laterWriterTxID := o.Begin()
	o.Commit(laterWriterTxID)
	// laterWriterTxID > txn.TxID: committed, but after the reader's snapshot.
	assert.False(t, IsVisible(txn, 2, laterWriterTxID, false, false))
}

func TestSIShowsCommitBeforeSnapshotStart(t *testing.T) {
	o := NewOracle()
	writerTxID := o.Begin()
	o.Commit(writerTxID)
	txn := newTestTxn(t, o, SI)
	assert.True(t, IsVisible(txn, 2, writerTxID, false, false))
}

func TestRCShowsAnyCommittedWriteRegardlessOfSnapshot(t *testing.T) {
	o := NewOracle()
	txn := newTestTxn(t, o, RC)
	laterWriterTxID := o.Begin()
	o.Commit(laterWriterTxID)
	assert.True(t, IsVisible(txn, 2, laterWriterTxID, false, false))
}

func TestWritingDeniesVisibilityOfWriteLockedTuple(t *testing.T) {
	o := NewOracle()
	writerTxID := o.Begin()
	o.Commit(writerTxID)
	txn := newTestTxn(t, o, SI)
	assert.False(t, IsVisible(txn, 2, writerTxID, true, true))
}
