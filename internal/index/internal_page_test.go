package index_test

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/novasql-labs/pagestore/internal/buffer"
	"github.com/novasql-labs/pagestore/internal/index"
	"github.com/novasql-labs/pagestore/internal/storage"
)

const keyWidth4 = 4

func u32key(v uint32) []byte {
	b := make([]byte, keyWidth4)
	index.EncodeUint32Key(b, v)
	return b
}

func newTestPool(t *testing.T, size int) *buffer.Pool {
	t.Helper()
	path := filepath.Join(t.TempDir(), "pages.db")
	disk, err := storage.NewFilePager(path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = disk.Close() })
	return buffer.NewPool(size, disk, nil)
}

func TestInternalPage_LookupRoutesOnSeparators(t *testing.T) {
	buf := make([]byte, storage.PageSize)
	v := index.InitInternalPage(buf, keyWidth4, 1, storage.InvalidPageID, 10)
	_, err := v.InsertAfter(10, u32key(20), 20)
	require.NoError(t, err)
	_, err = v.InsertAfter(20, u32key(30), 30)
	require.NoError(t, err)

	require.Equal(t, storage.PageId(10), v.Lookup(u32key(5), index.BytesComparator))
	require.Equal(t, storage.PageId(10), v.Lookup(u32key(19), index.BytesComparator))
	require.Equal(t, storage.PageId(20), v.Lookup(u32key(20), index.BytesComparator))
	require.Equal(t, storage.PageId(20), v.Lookup(u32key(29), index.BytesComparator))
	require.Equal(t, storage.PageId(30), v.Lookup(u32key(30), index.BytesComparator))
	require.Equal(t, storage.PageId(30), v.Lookup(u32key(999), index.BytesComparator))
}

func TestInternalPage_LookupSingleChild(t *testing.T) {
	buf := make([]byte, storage.PageSize)
	v := index.InitInternalPage(buf, keyWidth4, 1, storage.InvalidPageID, 7)
	require.Equal(t, storage.PageId(7), v.Lookup(u32key(0), index.BytesComparator))
	require.Equal(t, storage.PageId(7), v.Lookup(u32key(1000), index.BytesComparator))
}

func TestInternalPage_PopulateNewRoot(t *testing.T) {
	buf := make([]byte, storage.PageSize)
	v := index.InitInternalPage(buf, keyWidth4, 1, storage.InvalidPageID, 100)
	v.PopulateNewRoot(100, u32key(50), 200)

	require.Equal(t, 2, v.Size())
	require.Equal(t, storage.PageId(100), v.ValueAt(0))
	require.Equal(t, storage.PageId(200), v.ValueAt(1))
	require.Equal(t, storage.PageId(100), v.Lookup(u32key(10), index.BytesComparator))
	require.Equal(t, storage.PageId(200), v.Lookup(u32key(50), index.BytesComparator))
}

func TestInternalPage_InsertAfterUnknownChildFails(t *testing.T) {
	buf := make([]byte, storage.PageSize)
	v := index.InitInternalPage(buf, keyWidth4, 1, storage.InvalidPageID, 1)
	_, err := v.InsertAfter(999, u32key(1), 2)
	require.ErrorIs(t, err, index.ErrChildNotFound)
}

func TestInternalPage_RemoveShiftsTail(t *testing.T) {
	buf := make([]byte, storage.PageSize)
	v := index.InitInternalPage(buf, keyWidth4, 1, storage.InvalidPageID, 1)
	_, err := v.InsertAfter(1, u32key(10), 2)
	require.NoError(t, err)
	_, err = v.InsertAfter(2, u32key(20), 3)
	require.NoError(t, err)

	v.Remove(1)
	require.Equal(t, 2, v.Size())
	require.Equal(t, storage.PageId(1), v.ValueAt(0))
	require.Equal(t, storage.PageId(3), v.ValueAt(1))
}

func TestInternalPage_RemoveOnlyChild(t *testing.T) {
	buf := make([]byte, storage.PageSize)
	v := index.InitInternalPage(buf, keyWidth4, 1, storage.InvalidPageID, 42)
	require.Equal(t, storage.PageId(42), v.RemoveOnlyChild())
}

func TestInternalPage_MoveHalfToReparentsChildren(t *testing.T) {
	pool := newTestPool(t, 10)

	leftBuf := make([]byte, storage.PageSize)
	left := index.InitInternalPage(leftBuf, keyWidth4, 1, storage.InvalidPageID, 0)
	_, err := left.InsertAfter(0, u32key(20), 1)
	require.NoError(t, err)
	_, err = left.InsertAfter(1, u32key(30), 2)
	require.NoError(t, err)
	_, err = left.InsertAfter(2, u32key(40), 3)
	require.NoError(t, err)

	// children of left must exist as real pages so reparent can fetch them;
	// the pager hands out page ids starting at 0.
	childIDs := []storage.PageId{0, 1, 2, 3}
	for _, want := range childIDs {
		g, id, err := pool.NewPageGuarded()
		require.NoError(t, err)
		require.Equal(t, want, id)
		index.InitLeafPage(g.Bytes(), keyWidth4, id, left.PageID())
		require.NoError(t, g.Release(true))
	}

	rightBuf := make([]byte, storage.PageSize)
	right := index.InitInternalPage(rightBuf, keyWidth4, 2, storage.InvalidPageID, 0)

	require.NoError(t, left.MoveHalfTo(right, pool))
	require.Equal(t, 2, left.Size())
	require.Equal(t, 2, right.Size())
	require.Equal(t, storage.PageId(2), right.ValueAt(0))
	require.Equal(t, storage.PageId(3), right.ValueAt(1))

	g, err := pool.FetchGuarded(2)
	require.NoError(t, err)
	h := index.NewInternalPageView(g.Bytes(), keyWidth4)
	require.Equal(t, right.PageID(), h.ParentPageID())
	require.NoError(t, g.Release(false))
}

func TestInternalPage_MoveAllToMerges(t *testing.T) {
	pool := newTestPool(t, 10)

	leftBuf := make([]byte, storage.PageSize)
	left := index.InitInternalPage(leftBuf, keyWidth4, 1, 99, 0)
	_, err := left.InsertAfter(0, u32key(20), 1)
	require.NoError(t, err)

	rightBuf := make([]byte, storage.PageSize)
	right := index.InitInternalPage(rightBuf, keyWidth4, 2, 99, 2)
	_, err = right.InsertAfter(2, u32key(40), 3)
	require.NoError(t, err)

	for _, id := range []storage.PageId{0, 1, 2, 3} {
		g, gotID, err := pool.NewPageGuarded()
		require.NoError(t, err)
		require.Equal(t, id, gotID)
		index.InitLeafPage(g.Bytes(), keyWidth4, id, 0)
		require.NoError(t, g.Release(true))
	}

	parentBuf := make([]byte, storage.PageSize)
	parent := index.InitInternalPage(parentBuf, keyWidth4, 99, storage.InvalidPageID, left.PageID())
	_, err = parent.InsertAfter(left.PageID(), u32key(30), right.PageID())
	require.NoError(t, err)

	// right merges into its left sibling: its entries are appended to left.
	require.NoError(t, right.MoveAllTo(left, 1, parent, pool))
	require.Equal(t, 0, right.Size())
	require.Equal(t, 4, left.Size())
	require.Equal(t, storage.PageId(0), left.ValueAt(0))
	require.Equal(t, storage.PageId(3), left.ValueAt(3))

	g, err := pool.FetchGuarded(2)
	require.NoError(t, err)
	h := index.NewInternalPageView(g.Bytes(), keyWidth4)
	require.Equal(t, left.PageID(), h.ParentPageID())
	require.NoError(t, g.Release(false))
}

func TestInternalPage_MoveFirstToEndOfUpdatesSeparatorAndRoutes(t *testing.T) {
	pool := newTestPool(t, 10)

	for _, id := range []storage.PageId{0, 1, 2, 3, 4} {
		g, gotID, err := pool.NewPageGuarded()
		require.NoError(t, err)
		require.Equal(t, id, gotID)
		index.InitLeafPage(g.Bytes(), keyWidth4, id, 0)
		require.NoError(t, g.Release(true))
	}

	// left is the left sibling (recipient); right is v, the underfull
	// right sibling giving up its first (smallest) child to left's end.
	leftBuf := make([]byte, storage.PageSize)
	left := index.InitInternalPage(leftBuf, keyWidth4, 1, 99, 0)
	_, err := left.InsertAfter(0, u32key(20), 1)
	require.NoError(t, err)
	_, err = left.InsertAfter(1, u32key(30), 2)
	require.NoError(t, err)

	rightBuf := make([]byte, storage.PageSize)
	right := index.InitInternalPage(rightBuf, keyWidth4, 2, 99, 3)
	_, err = right.InsertAfter(3, u32key(50), 4)
	require.NoError(t, err)

	parentBuf := make([]byte, storage.PageSize)
	parent := index.InitInternalPage(parentBuf, keyWidth4, 99, storage.InvalidPageID, left.PageID())
	_, err = parent.InsertAfter(left.PageID(), u32key(35), right.PageID())
	require.NoError(t, err)

	require.NoError(t, right.MoveFirstToEndOf(left, 1, parent, pool))

	require.Equal(t, 4, left.Size())
	require.Equal(t, 1, right.Size())
	require.Equal(t, u32key(50), parent.KeyAt(1))

	// left now routes: <20 -> 0, [20,30) -> 1, [30,35) -> 2, >=35 -> 3
	// (the rotated-in child).
	require.Equal(t, storage.PageId(0), left.Lookup(u32key(5), index.BytesComparator))
	require.Equal(t, storage.PageId(1), left.Lookup(u32key(20), index.BytesComparator))
	require.Equal(t, storage.PageId(2), left.Lookup(u32key(30), index.BytesComparator))
	require.Equal(t, storage.PageId(3), left.Lookup(u32key(35), index.BytesComparator))
	require.Equal(t, storage.PageId(3), left.Lookup(u32key(49), index.BytesComparator))

	// right's sole remaining child is 4, regardless of key.
	require.Equal(t, storage.PageId(4), right.Lookup(u32key(0), index.BytesComparator))
	require.Equal(t, storage.PageId(4), right.Lookup(u32key(999), index.BytesComparator))

	g, err := pool.FetchGuarded(3)
	require.NoError(t, err)
	h := index.NewInternalPageView(g.Bytes(), keyWidth4)
	require.Equal(t, left.PageID(), h.ParentPageID())
	require.NoError(t, g.Release(false))
}

func TestInternalPage_MoveLastToFrontOfUpdatesSeparatorAndRoutes(t *testing.T) {
	pool := newTestPool(t, 10)

	for _, id := range []storage.PageId{0, 1, 2, 3, 4} {
		g, gotID, err := pool.NewPageGuarded()
		require.NoError(t, err)
		require.Equal(t, id, gotID)
		index.InitLeafPage(g.Bytes(), keyWidth4, id, 0)
		require.NoError(t, g.Release(true))
	}

	leftBuf := make([]byte, storage.PageSize)
	left := index.InitInternalPage(leftBuf, keyWidth4, 1, 99, 0)
	_, err := left.InsertAfter(0, u32key(20), 1)
	require.NoError(t, err)
	_, err = left.InsertAfter(1, u32key(30), 2)
	require.NoError(t, err)

	rightBuf := make([]byte, storage.PageSize)
	right := index.InitInternalPage(rightBuf, keyWidth4, 2, 99, 3)
	_, err = right.InsertAfter(3, u32key(50), 4)
	require.NoError(t, err)

	parentBuf := make([]byte, storage.PageSize)
	parent := index.InitInternalPage(parentBuf, keyWidth4, 99, storage.InvalidPageID, left.PageID())
	_, err = parent.InsertAfter(left.PageID(), u32key(35), right.PageID())
	require.NoError(t, err)

	require.NoError(t, left.MoveLastToFrontOf(right, 1, parent, pool))

	require.Equal(t, 2, left.Size())
	require.Equal(t, 3, right.Size())
	// the displaced separator (the old left/right boundary) must land on
	// slot 1, not slot 0 (slot 0's key is the unused placeholder).
	require.Equal(t, u32key(35), right.KeyAt(1))
	require.Equal(t, u32key(30), parent.KeyAt(1))

	// right now routes: <35 -> 2 (the rotated-in child), [35,50) -> 3,
	// >=50 -> 4.
	require.Equal(t, storage.PageId(2), right.Lookup(u32key(5), index.BytesComparator))
	require.Equal(t, storage.PageId(2), right.Lookup(u32key(34), index.BytesComparator))
	require.Equal(t, storage.PageId(3), right.Lookup(u32key(35), index.BytesComparator))
	require.Equal(t, storage.PageId(3), right.Lookup(u32key(49), index.BytesComparator))
	require.Equal(t, storage.PageId(4), right.Lookup(u32key(50), index.BytesComparator))

	g, err := pool.FetchGuarded(2)
	require.NoError(t, err)
	h := index.NewInternalPageView(g.Bytes(), keyWidth4)
	require.Equal(t, right.PageID(), h.ParentPageID())
	require.NoError(t, g.Release(false))
}
