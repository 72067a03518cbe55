package heap

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/asky/toydb/storage/bufferpool"
)

func TestInsertGetUpdateDelete(t *testing.T) {
	dir := t.TempDir()
	pool := bufferpool.New(dir, 8)
	h := Open("t1", pool)

	rid, err := h.Insert([]byte("row-one"))
	require.NoError(t, err)

	got, err := h.Get(rid)
	require.NoError(t, err)
	assert.Equal(t, []byte("row-one"), got)

	require.NoError(t, h.Update(rid, []byte("row-TWO")))
	got, err = h.Get(rid)
	require.NoError(t, err)
	assert.Equal(t, []byte("row-TWO"), got)

	require.NoError(t, h.Delete(rid))
	_, err = h.Get(rid)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestUpdateSizeMismatchRejected(t *testing.T) {
	dir := t.TempDir()
	pool := bufferpool.New(dir, 8)
	h := Open("t1", pool)

	rid, err := h.Insert([]byte("abc"))
	require.NoError(t, err)

	err = h.Update(rid, []byte("much-longer-value"))
	assert.ErrorIs(t, err, ErrSizeMismatch)
}

func TestRecordIdsStableAcrossInsertsOnSamePage(t *testing.T) {
	dir := t.TempDir()
	pool := bufferpool.New(dir, 8)
	h := Open("t1", pool)

	rid1, err := h.Insert([]byte("a"))
	require.NoError(t, err)
	rid2, err := h.Insert([]byte("b"))
	require.NoError(t, err)
	require.NoError(t, h.Delete(rid1))

	got, err := h.Get(rid2)
	require.NoError(t, err)
	assert.Equal(t, []byte("b"), got)
}

func TestInsertAllocatesNewPageOnOverflow(t *testing.T) {
	dir := t.TempDir()
	pool := bufferpool.New(dir, 8)
	h := Open("t1", pool)

	big := make([]byte, 4000)
	rid1, err := h.Insert(big)
	require.NoError(t, err)
	rid2, err := h.Insert(big)
	require.NoError(t, err)

	assert.NotEqual(t, rid1.PageID, rid2.PageID)
	n, err := h.NumPages()
	require.NoError(t, err)
	assert.Equal(t, uint64(2), n)
}

func TestInsertAtReplaysOriginalPlacement(t *testing.T) {
	dir := t.TempDir()
	pool := bufferpool.New(dir, 8)
	h := Open("t1", pool)

	// Simulate WAL replay into an empty heap: the original run produced
	// rid=(0,0) and (0,1); replay must land the second record at its
	// original rid even though the heap starts empty.
	require.NoError(t, h.InsertAt(RecordId{PageID: 0, Slot: 0}, []byte("first")))
	require.NoError(t, h.InsertAt(RecordId{PageID: 0, Slot: 1}, []byte("second")))

	got, err := h.Get(RecordId{PageID: 0, Slot: 1})
	require.NoError(t, err)
	assert.Equal(t, []byte("second"), got)
}
