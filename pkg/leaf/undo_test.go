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

func TestUndoInsertRemovesTheSlot(t *testing.T) {
	h := newHarness(config.NewTestConfig())
	txn := h.begin(mvcc.SI, false)
	_, err := h.tree.Insert(txn, []byte("a"), []byte("v"))
	require.NoError(t, err)

	txn.Abort()
	h.tree.Undo(txn.WAL.Records())

	_, ok := h.tree.Pages.FindPage([]byte("a")).Get([]byte("a"))
	assert.False(t, ok)
}

func TestUndoUpdateRestoresPreImage(t *testing.T) {
	h := newHarness(config.NewTestConfig())
	txn1 := h.begin(mvcc.SI, true)
	_, err := h.tree.Insert(txn1, []byte("a"), []byte{0x01, 0x02})
	require.NoError(t, err)

	txn2 := h.begin(mvcc.SI, false)
	desc := tuple.UpdateDescriptor{Slices: []tuple.Slice{{Offset: 1, Length: 1}}}
	res, err := h.tree.Update(txn2, []byte("a"), desc, func(p []byte) { p[1] = 0x09 })
	require.NoError(t, err)
	require.Equal(t, verrors.OK, res)

	txn2.Abort()
	h.tree.Undo(txn2.WAL.Records())

	reader := h.begin(mvcc.SI, true)
	value, res, err := h.tree.Lookup(reader, []byte("a"))
	require.NoError(t, err)
	assert.Equal(t, verrors.OK, res)
	assert.Equal(t, []byte{0x01, 0x02}, value)
}

func TestUndoRemoveRestoresValue(t *testing.T) {
	h := newHarness(config.NewTestConfig())
	txn1 := h.begin(mvcc.SI, true)
	_, err := h.tree.Insert(txn1, []byte("a"), []byte{0xAA})
	require.NoError(t, err)

	txn2 := h.begin(mvcc.SI, false)
	res, err := h.tree.Remove(txn2, []byte("a"))
	require.NoError(t, err)
	require.Equal(t, verrors.OK, res)

	txn2.Abort()
	h.tree.Undo(txn2.WAL.Records())

	reader := h.begin(mvcc.SI, true)
	value, res, err := h.tree.Lookup(reader, []byte("a"))
	require.NoError(t, err)
	assert.Equal(t, verrors.OK, res)
	assert.Equal(t, []byte{0xAA}, value)
}

func TestInsertThenUpdateThenRollbackLeavesNoEntry(t *testing.T) {
	h := newHarness(config.NewTestConfig())
	txn := h.begin(mvcc.SI, false)
	_, err := h.tree.Insert(txn, []byte("a"), []byte{0x00, 0x00, 0x00, 0x00})
	require.NoError(t, err)

	desc := tuple.UpdateDescriptor{Slices: []tuple.Slice{{Offset: 0, Length: 4}}}
	res, err := h.tree.Update(txn, []byte("a"), desc, func(p []byte) {
		copy(p, []byte{1, 2, 3, 4})
	})
	require.NoError(t, err)
	require.Equal(t, verrors.OK, res)

	txn.Abort()
	h.tree.Undo(txn.WAL.Records())

	_, ok := h.tree.Pages.FindPage([]byte("a")).Get([]byte("a"))
	assert.False(t, ok)
}
