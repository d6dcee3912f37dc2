package leaf

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tinykv-contrib/vtree/pkg/config"
	"github.com/tinykv-contrib/vtree/pkg/mvcc"
	"github.com/tinykv-contrib/vtree/pkg/tuple"
	"github.com/tinykv-contrib/vtree/pkg/verrors"
)

func TestRemoveThenLookupByNewReaderReturnsNotFound(t *testing.T) {
	h := newHarness(config.NewTestConfig())
	txn1 := h.begin(mvcc.SI, true)
	_, err := h.tree.Insert(txn1, []byte("x"), []byte{0xAA})
	require.NoError(t, err)

	txn2 := h.begin(mvcc.SI, true)
	res, err := h.tree.Remove(txn2, []byte("x"))
	require.NoError(t, err)
	assert.Equal(t, verrors.OK, res)

	reader := h.begin(mvcc.SI, true)
	_, res, err = h.tree.Lookup(reader, []byte("x"))
	require.NoError(t, err)
	assert.Equal(t, verrors.NotFound, res)
}

func TestRemoveLeavesEarlierSnapshotAbleToSeeOriginalValue(t *testing.T) {
	h := newHarness(config.NewTestConfig())
	txn1 := h.begin(mvcc.SI, true)
	_, err := h.tree.Insert(txn1, []byte("x"), []byte{0xAA})
	require.NoError(t, err)

	early := h.begin(mvcc.SI, true)

	txn2 := h.begin(mvcc.SI, true)
	res, err := h.tree.Remove(txn2, []byte("x"))
	require.NoError(t, err)
	require.Equal(t, verrors.OK, res)

	value, res, err := h.tree.Lookup(early, []byte("x"))
	require.NoError(t, err)
	assert.Equal(t, verrors.OK, res)
	assert.Equal(t, []byte{0xAA}, value)

	late := h.begin(mvcc.SI, true)
	_, res, err = h.tree.Lookup(late, []byte("x"))
	require.NoError(t, err)
	assert.Equal(t, verrors.NotFound, res)
}

func TestRemoveOfAlreadyTombstonedKeyReturnsNotFoundWithoutMutatingPage(t *testing.T) {
	h := newHarness(config.NewTestConfig())
	txn1 := h.begin(mvcc.SI, true)
	_, err := h.tree.Insert(txn1, []byte("x"), []byte{0xAA})
	require.NoError(t, err)

	txn2 := h.begin(mvcc.SI, true)
	res, err := h.tree.Remove(txn2, []byte("x"))
	require.NoError(t, err)
	require.Equal(t, verrors.OK, res)

	raw, ok := h.tree.Pages.FindPage([]byte("x")).Get([]byte("x"))
	require.True(t, ok)
	before := append([]byte(nil), raw...)

	txn3 := h.begin(mvcc.SI, true)
	res, err = h.tree.Remove(txn3, []byte("x"))
	require.NoError(t, err)
	assert.Equal(t, verrors.NotFound, res)

	raw, ok = h.tree.Pages.FindPage([]byte("x")).Get([]byte("x"))
	require.True(t, ok)
	assert.Equal(t, before, raw)
}

func TestFastRemovePhysicallyDeletesSlot(t *testing.T) {
	cfg := config.NewTestConfig()
	cfg.FastRemove = true
	h := newHarness(cfg)

	txn1 := h.begin(mvcc.SI, true)
	_, err := h.tree.Insert(txn1, []byte("x"), []byte{0xAA})
	require.NoError(t, err)

	txn2 := h.begin(mvcc.SI, true)
	res, err := h.tree.Remove(txn2, []byte("x"))
	require.NoError(t, err)
	assert.Equal(t, verrors.OK, res)

	_, ok := h.tree.Pages.FindPage([]byte("x")).Get([]byte("x"))
	assert.False(t, ok)
}

func TestRemoveStagesDanglingPointerTODOWhenConfigured(t *testing.T) {
	h := newHarness(config.NewTestConfig())
	txn1 := h.begin(mvcc.SI, true)
	_, err := h.tree.Insert(txn1, []byte("x"), []byte{0xAA})
	require.NoError(t, err)

	txn2 := h.begin(mvcc.SI, true)
	res, err := h.tree.Remove(txn2, []byte("x"))
	require.NoError(t, err)
	require.Equal(t, verrors.OK, res)

	todos := txn2.DrainTodos()
	require.Len(t, todos, 1)
	assert.Equal(t, []byte("x"), todos[0].Key)
}

func TestRemoveEmitsWALWithPreImageValue(t *testing.T) {
	h := newHarness(config.NewTestConfig())
	txn1 := h.begin(mvcc.SI, true)
	_, err := h.tree.Insert(txn1, []byte("x"), []byte{0xAA, 0xBB})
	require.NoError(t, err)

	txn2 := h.begin(mvcc.SI, false)
	res, err := h.tree.Remove(txn2, []byte("x"))
	require.NoError(t, err)
	require.Equal(t, verrors.OK, res)

	records := txn2.WAL.Records()
	require.Len(t, records, 1)
	assert.Equal(t, []byte("x"), records[0].Key())
	assert.Equal(t, []byte{0xAA, 0xBB}, records[0].Value())
	assert.True(t, records[0].BeforeIsFinal)
}

func TestRemoveShortensPrimaryToHeaderOnlyTombstone(t *testing.T) {
	h := newHarness(config.NewTestConfig())
	txn1 := h.begin(mvcc.SI, true)
	_, err := h.tree.Insert(txn1, []byte("x"), []byte{0xAA, 0xBB, 0xCC})
	require.NoError(t, err)

	txn2 := h.begin(mvcc.SI, true)
	_, err = h.tree.Remove(txn2, []byte("x"))
	require.NoError(t, err)

	raw, ok := h.tree.Pages.FindPage([]byte("x")).Get([]byte("x"))
	require.True(t, ok)
	assert.Equal(t, tuple.ChainedTupleHeaderSize, len(raw))
	primary := tuple.DecodeChained(raw)
	assert.True(t, primary.IsRemoved)
	assert.Equal(t, txn2.TxID, primary.TxID)
}
