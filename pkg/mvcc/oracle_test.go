package mvcc

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBeginAssignsIncreasingTxIDs(t *testing.T) {
	o := NewOracle()
	a := o.Begin()
	b := o.Begin()
	assert.Less(t, a, b)
}

func TestCommitMarksCommittedAndInactive(t *testing.T) {
	o := NewOracle()
	txID := o.Begin()
	assert.True(t, o.IsActive(txID))
	assert.False(t, o.IsCommitted(txID))

	o.Commit(txID)
	assert.False(t, o.IsActive(txID))
	assert.True(t, o.IsCommitted(txID))
}

func TestAbortDoesNotMarkCommitted(t *testing.T) {
	o := NewOracle()
	txID := o.Begin()
	o.Abort(txID)
	assert.False(t, o.IsActive(txID))
	assert.False(t, o.IsCommitted(txID))
}

func TestLWMTracksOldestActive(t *testing.T) {
	o := NewOracle()
	t1 := o.Begin()
	t2 := o.Begin()
	assert.Equal(t, t1, o.LWM())

	o.Commit(t1)
	assert.Equal(t, t2, o.LWM())

	o.Commit(t2)
	// No active transactions: LWM advances to the next assignable id.
	assert.Equal(t, t2+1, o.LWM())
}

func TestForgetCommittedBelowPrunesOldEntries(t *testing.T) {
	o := NewOracle()
	txID := o.Begin()
	o.Commit(txID)
	o.ForgetCommittedBelow(txID)
	assert.False(t, o.IsCommitted(txID))
}
