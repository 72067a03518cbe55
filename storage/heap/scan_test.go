package heap

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/asky/toydb/storage/bufferpool"
)

func TestCursorSkipsDeletedSlots(t *testing.T) {
	dir := t.TempDir()
	pool := bufferpool.New(dir, 8)
	h := Open("t1", pool)

	rid1, err := h.Insert([]byte("a"))
	require.NoError(t, err)
	_, err = h.Insert([]byte("b"))
	require.NoError(t, err)
	rid3, err := h.Insert([]byte("c"))
	require.NoError(t, err)
	require.NoError(t, h.Delete(rid1))

	cur, err := h.NewCursor()
	require.NoError(t, err)

	var rows [][]byte
	for {
		_, tuple, ok, err := cur.Next()
		require.NoError(t, err)
		if !ok {
			break
		}
		rows = append(rows, tuple)
	}
	assert.Equal(t, [][]byte{[]byte("b"), []byte("c")}, rows)
	_ = rid3
}

func TestCursorSpansMultiplePages(t *testing.T) {
	dir := t.TempDir()
	pool := bufferpool.New(dir, 8)
	h := Open("t1", pool)

	big := make([]byte, 4000)
	_, err := h.Insert(big)
	require.NoError(t, err)
	_, err = h.Insert(big)
	require.NoError(t, err)

	cur, err := h.NewCursor()
	require.NoError(t, err)

	count := 0
	for {
		_, _, ok, err := cur.Next()
		require.NoError(t, err)
		if !ok {
			break
		}
		count++
	}
	assert.Equal(t, 2, count)
}
