package index

import (
	"fmt"

	"github.com/novasql-labs/pagestore/internal/buffer"
	"github.com/novasql-labs/pagestore/internal/storage"
)

// InternalPageView interprets a pinned frame's bytes as a B+Tree routing
// node: a slot array of (key, child-page-id) pairs with the key at index
// 0 unused, per spec.md §4.3.
type InternalPageView struct {
	header
	keyWidth int
}

// NewInternalPageView wraps an already-initialized internal page's bytes.
func NewInternalPageView(buf []byte, keyWidth int) *InternalPageView {
	return &InternalPageView{header: header{buf: buf}, keyWidth: keyWidth}
}

// InitInternalPage formats buf as a brand-new internal page holding a
// single child (slot 0). An internal node is never created with zero
// children: it is born either from a root split (old root becomes slot
// 0, see PopulateNewRoot) or from a sibling split/redistribution that
// seeds its own first entry (see MoveHalfTo / MoveAllTo).
func InitInternalPage(buf []byte, keyWidth int, pageID, parentID, firstChild storage.PageId) *InternalPageView {
	v := NewInternalPageView(buf, keyWidth)
	v.setKind(KindInternal)
	v.setPageID(pageID)
	v.SetParentPageID(parentID)
	v.setMaxSize(ComputeMaxSize(CommonHeaderSize, keyWidth, ChildIDSize))
	v.setSize(1)
	v.setValueAt(0, firstChild)
	return v
}

func (v *InternalPageView) stride() int { return v.keyWidth + ChildIDSize }

func (v *InternalPageView) slotOffset(i int) int {
	return CommonHeaderSize + i*v.stride()
}

func (v *InternalPageView) checkIndex(i int) {
	if i < 0 || i >= v.Size() {
		panic(fmt.Sprintf("index: internal page slot %d out of range [0,%d)", i, v.Size()))
	}
}

// KeyAt returns the key at slot i. Slot 0's key is the unused placeholder
// (spec.md §3); callers must not rely on its contents.
func (v *InternalPageView) KeyAt(i int) []byte {
	v.checkIndex(i)
	off := v.slotOffset(i)
	return v.buf[off : off+v.keyWidth]
}

// ValueAt returns the child page id at slot i.
func (v *InternalPageView) ValueAt(i int) storage.PageId {
	v.checkIndex(i)
	off := v.slotOffset(i) + v.keyWidth
	return DecodeChildID(v.buf[off : off+ChildIDSize])
}

func (v *InternalPageView) setKeyAt(i int, key []byte) {
	off := v.slotOffset(i)
	copy(v.buf[off:off+v.keyWidth], key)
}

func (v *InternalPageView) setValueAt(i int, child storage.PageId) {
	off := v.slotOffset(i) + v.keyWidth
	EncodeChildID(v.buf[off:off+ChildIDSize], child)
}

// ValueIndex returns the slot index i such that ValueAt(i) == child, or
// Size() if child does not appear on this page.
func (v *InternalPageView) ValueIndex(child storage.PageId) int {
	n := v.Size()
	for i := 0; i < n; i++ {
		if v.ValueAt(i) == child {
			return i
		}
	}
	return n
}

// Lookup returns the child page under which key falls, per the
// semantics in spec.md §4.3: separators k1 < k2 < ... < k_{n-1} live at
// indices 1..n-1; equality on a separator routes right.
func (v *InternalPageView) Lookup(key []byte, cmp Comparator) storage.PageId {
	n := v.Size()
	lo, hi := 1, n-1
	res := 0
	for lo <= hi {
		mid := (lo + hi) / 2
		if cmp(v.KeyAt(mid), key) <= 0 {
			res = mid
			lo = mid + 1
		} else {
			hi = mid - 1
		}
	}
	return v.ValueAt(res)
}

// PopulateNewRoot turns a freshly-split-off root into a two-child node.
// Precondition: Size() == 1 (the page was created via InitInternalPage
// with oldChild as its sole slot-0 value).
func (v *InternalPageView) PopulateNewRoot(oldChild storage.PageId, newKey []byte, newChild storage.PageId) {
	if v.Size() != 1 {
		panic("index: PopulateNewRoot precondition violated: size != 1")
	}
	v.setValueAt(0, oldChild)
	v.setKeyAt(1, newKey)
	v.setValueAt(1, newChild)
	v.setSize(2)
}

// InsertAfter locates oldChild, shifts the tail right by one slot, and
// writes (newKey, newChild) immediately after it. Returns the new size.
func (v *InternalPageView) InsertAfter(oldChild storage.PageId, newKey []byte, newChild storage.PageId) (int, error) {
	i := v.ValueIndex(oldChild)
	if i == v.Size() {
		return v.Size(), ErrChildNotFound
	}
	n := v.Size()
	if n >= v.MaxSize() {
		panic("index: InsertAfter called on a page already at max size; the driver must split first")
	}
	for j := n; j > i+1; j-- {
		v.copySlot(j-1, j)
	}
	v.setKeyAt(i+1, newKey)
	v.setValueAt(i+1, newChild)
	v.setSize(n + 1)
	return n + 1, nil
}

func (v *InternalPageView) copySlot(from, to int) {
	srcOff := v.slotOffset(from)
	dstOff := v.slotOffset(to)
	copy(v.buf[dstOff:dstOff+v.stride()], v.buf[srcOff:srcOff+v.stride()])
}

// Remove shifts slots i+1..size left by one, decrementing size.
func (v *InternalPageView) Remove(i int) {
	v.checkIndex(i)
	n := v.Size()
	for j := i; j < n-1; j++ {
		v.copySlot(j+1, j)
	}
	v.setSize(n - 1)
}

// RemoveOnlyChild returns the sole remaining child's page id.
// Precondition: Size() == 1 (an internal node collapsing during delete).
func (v *InternalPageView) RemoveOnlyChild() storage.PageId {
	if v.Size() != 1 {
		panic("index: RemoveOnlyChild precondition violated: size != 1")
	}
	return v.ValueAt(0)
}

// reparent updates childID's stored parent-page-id to parentID by
// fetching, mutating, dirtying and unpinning its frame through pool.
// Shared by every internal-page mutation that re-homes a child.
func reparent(pool *buffer.Pool, childID storage.PageId, parentID storage.PageId) error {
	g, err := pool.FetchGuarded(childID)
	if err != nil {
		return fmt.Errorf("index: reparent fetch child %d: %w", childID, err)
	}
	h := header{buf: g.Bytes()}
	h.SetParentPageID(parentID)
	return g.Release(true)
}

// MoveHalfTo moves the last ceil(size/2) entries to recipient (an empty
// internal page apart from its own placeholder slot 0), re-parenting the
// moved children to point at recipient.
func (v *InternalPageView) MoveHalfTo(recipient *InternalPageView, pool *buffer.Pool) error {
	n := v.Size()
	half := (n + 1) / 2 // ceil(n/2)
	start := n - half

	// recipient already has its own slot 0 (its first moved child);
	// incoming entries from v[start:] become recipient[0:half].
	recipient.setValueAt(0, v.ValueAt(start))
	for i := 1; i < half; i++ {
		recipient.setKeyAt(i, v.KeyAt(start+i))
		recipient.setValueAt(i, v.ValueAt(start+i))
	}
	recipient.setSize(half)
	v.setSize(n - half)

	for i := 0; i < half; i++ {
		if err := reparent(pool, recipient.ValueAt(i), recipient.PageID()); err != nil {
			return err
		}
	}
	return nil
}

// MoveAllTo merges v entirely into recipient. Before copying, v's unused
// slot-0 key is overwritten with the parent's separator at indexInParent
// (spec.md §4.3: "turning the otherwise-unused key 0 into a valid
// separator"), then every entry of v is appended to recipient.
func (v *InternalPageView) MoveAllTo(recipient *InternalPageView, indexInParent int, parent *InternalPageView, pool *buffer.Pool) error {
	v.setKeyAt(0, parent.KeyAt(indexInParent))

	base := recipient.Size()
	n := v.Size()
	for i := 0; i < n; i++ {
		if i == 0 {
			recipient.setKeyAt(base, v.KeyAt(0))
		} else {
			recipient.setKeyAt(base+i, v.KeyAt(i))
		}
		recipient.setValueAt(base+i, v.ValueAt(i))
	}
	recipient.setSize(base + n)
	v.setSize(0)

	for i := 0; i < n; i++ {
		if err := reparent(pool, recipient.ValueAt(base+i), recipient.PageID()); err != nil {
			return err
		}
	}
	return nil
}

// MoveFirstToEndOf rotates v's first child to the end of recipient (a
// left sibling), used to rebalance without merging. parent's separator
// key at parentIndex is updated to the new boundary.
func (v *InternalPageView) MoveFirstToEndOf(recipient *InternalPageView, parentIndex int, parent *InternalPageView, pool *buffer.Pool) error {
	movedChild := v.ValueAt(0)
	// v's slot 0 carries no real key; the boundary key moving into
	// recipient is the parent's separator for v.
	boundaryKey := parent.KeyAt(parentIndex)

	rn := recipient.Size()
	recipient.setKeyAt(rn, boundaryKey)
	recipient.setValueAt(rn, movedChild)
	recipient.setSize(rn + 1)

	n := v.Size()
	for i := 0; i < n-1; i++ {
		v.copySlot(i+1, i)
	}
	v.setSize(n - 1)

	parent.setKeyAt(parentIndex, v.KeyAt(0))

	return reparent(pool, movedChild, recipient.PageID())
}

// MoveLastToFrontOf rotates v's last child to the front of recipient (a
// right sibling).
func (v *InternalPageView) MoveLastToFrontOf(recipient *InternalPageView, parentIndex int, parent *InternalPageView, pool *buffer.Pool) error {
	n := v.Size()
	movedChild := v.ValueAt(n - 1)
	boundaryKey := parent.KeyAt(parentIndex)

	for i := recipient.Size(); i > 0; i-- {
		recipient.copySlot(i-1, i)
	}
	// Slot 0's key is the unused placeholder (spec.md §3); the boundary
	// key belongs to the entry displaced into slot 1 (recipient's old
	// first child), not to the newly-arrived movedChild.
	recipient.setKeyAt(1, boundaryKey)
	recipient.setValueAt(0, movedChild)
	recipient.setSize(recipient.Size() + 1)

	parent.setKeyAt(parentIndex, v.KeyAt(n-1))
	v.setSize(n - 1)

	return reparent(pool, movedChild, recipient.PageID())
}
