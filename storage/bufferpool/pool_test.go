package bufferpool

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAllocateWritesThroughImmediately(t *testing.T) {
	dir := t.TempDir()
	pool := New(dir, 4)

	pg, err := pool.AllocatePage("t1")
	require.NoError(t, err)
	assert.Equal(t, uint64(0), pg.ID)

	n, err := pool.NumPages("t1")
	require.NoError(t, err)
	assert.Equal(t, uint64(1), n)
}

func TestFetchCachesAndReadsBack(t *testing.T) {
	dir := t.TempDir()
	pool := New(dir, 4)

	pg, err := pool.AllocatePage("t1")
	require.NoError(t, err)
	slot, err := pg.InsertTuple([]byte("row"))
	require.NoError(t, err)
	pool.MarkDirty("t1", pg.ID)
	require.NoError(t, pool.Flush())

	// New pool instance forces a disk read.
	pool2 := New(dir, 4)
	fetched, err := pool2.FetchPage("t1", pg.ID)
	require.NoError(t, err)
	got, err := fetched.ReadTuple(slot)
	require.NoError(t, err)
	assert.Equal(t, []byte("row"), got)
}

func TestLRUEvictsLeastRecentlyUsed(t *testing.T) {
	dir := t.TempDir()
	pool := New(dir, 2)

	for i := 0; i < 3; i++ {
		_, err := pool.AllocatePage("t1")
		require.NoError(t, err)
	}
	// Capacity 2: page 0 should have been evicted, pages 1 and 2 cached.
	hits1, _, _ := pool.Stats()
	_ = hits1
	assert.Equal(t, 2, pool.order.Len())

	_, ok0 := pool.items[cacheKey{table: "t1", pageID: 0}]
	_, ok1 := pool.items[cacheKey{table: "t1", pageID: 1}]
	_, ok2 := pool.items[cacheKey{table: "t1", pageID: 2}]
	assert.False(t, ok0)
	assert.True(t, ok1)
	assert.True(t, ok2)
}

func TestDirtyEvictionWritesBackBeforeDropping(t *testing.T) {
	dir := t.TempDir()
	pool := New(dir, 1)

	pg0, err := pool.AllocatePage("t1")
	require.NoError(t, err)
	slot, err := pg0.InsertTuple([]byte("keep-me"))
	require.NoError(t, err)
	pool.MarkDirty("t1", pg0.ID)

	// Allocating a second page evicts page 0 from a capacity-1 pool;
	// since it was dirty, the writeback must happen before eviction.
	_, err = pool.AllocatePage("t1")
	require.NoError(t, err)

	pool2 := New(dir, 4)
	reread, err := pool2.FetchPage("t1", pg0.ID)
	require.NoError(t, err)
	got, err := reread.ReadTuple(slot)
	require.NoError(t, err)
	assert.Equal(t, []byte("keep-me"), got)
}

func TestFetchUnknownPageIsIOError(t *testing.T) {
	dir := t.TempDir()
	pool := New(dir, 4)
	_, err := pool.AllocatePage("t1") // create the file with one page
	require.NoError(t, err)

	_, err = pool.FetchPage("t1", 99)
	assert.Error(t, err)
}
