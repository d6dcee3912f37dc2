package leaf

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tinykv-contrib/vtree/pkg/config"
	"github.com/tinykv-contrib/vtree/pkg/mvcc"
	"github.com/tinykv-contrib/vtree/pkg/verrors"
)

func TestInsertThenLookupReturnsValue(t *testing.T) {
	h := newHarness(config.NewTestConfig())
	txn := h.begin(mvcc.SI, true)

	res, err := h.tree.Insert(txn, []byte("a"), []byte{0x01, 0x02})
	require.NoError(t, err)
	assert.Equal(t, verrors.OK, res)

	reader := h.begin(mvcc.SI, true)
	value, res, err := h.tree.Lookup(reader, []byte("a"))
	require.NoError(t, err)
	assert.Equal(t, verrors.OK, res)
	assert.Equal(t, []byte{0x01, 0x02}, value)
}

func TestInsertDuplicateVisibleKeyAborts(t *testing.T) {
	h := newHarness(config.NewTestConfig())
	txn := h.begin(mvcc.SI, true)
	_, err := h.tree.Insert(txn, []byte("a"), []byte("v1"))
	require.NoError(t, err)

	txn2 := h.begin(mvcc.SI, true)
	res, err := h.tree.Insert(txn2, []byte("a"), []byte("v2"))
	require.NoError(t, err)
	assert.Equal(t, verrors.AbortTx, res)
}

func TestInsertAfterRemoveAbortsRatherThanReactivates(t *testing.T) {
	h := newHarness(config.NewTestConfig())
	txn1 := h.begin(mvcc.SI, true)
	_, err := h.tree.Insert(txn1, []byte("a"), []byte("v1"))
	require.NoError(t, err)

	txn2 := h.begin(mvcc.SI, true)
	res, err := h.tree.Remove(txn2, []byte("a"))
	require.NoError(t, err)
	require.Equal(t, verrors.OK, res)

	txn3 := h.begin(mvcc.SI, true)
	res, err = h.tree.Insert(txn3, []byte("a"), []byte("v2"))
	require.NoError(t, err)
	assert.Equal(t, verrors.AbortTx, res)
}

func TestInsertSplitsWhenPageIsFull(t *testing.T) {
	h := newHarness(config.NewTestConfig())

	bigValue := make([]byte, 512)
	for i := 0; i < 16; i++ {
		txn := h.begin(mvcc.SI, true)
		key := []byte{byte(i)}
		res, err := h.tree.Insert(txn, key, bigValue)
		require.NoError(t, err)
		require.Equal(t, verrors.OK, res)
	}

	assert.Greater(t, len(h.tree.Pages.AllPages()), 1)

	reader := h.begin(mvcc.SI, true)
	value, res, err := h.tree.Lookup(reader, []byte{5})
	require.NoError(t, err)
	assert.Equal(t, verrors.OK, res)
	assert.Equal(t, bigValue, value)
}
