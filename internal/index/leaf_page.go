package index

import (
	"fmt"

	"github.com/novasql-labs/pagestore/internal/storage"
)

// LeafPageView interprets a pinned frame's bytes as a B+Tree data node: a
// slot array of (key, RecordId) pairs in strictly increasing key order,
// plus a next-leaf sibling pointer for range scans (spec.md §4.4).
type LeafPageView struct {
	header
	keyWidth int
}

// NewLeafPageView wraps an already-initialized leaf page's bytes.
func NewLeafPageView(buf []byte, keyWidth int) *LeafPageView {
	return &LeafPageView{header: header{buf: buf}, keyWidth: keyWidth}
}

// InitLeafPage formats buf as a brand-new, empty leaf page.
func InitLeafPage(buf []byte, keyWidth int, pageID, parentID storage.PageId) *LeafPageView {
	v := NewLeafPageView(buf, keyWidth)
	v.setKind(KindLeaf)
	v.setPageID(pageID)
	v.SetParentPageID(parentID)
	v.setMaxSize(ComputeMaxSize(LeafHeaderSize, keyWidth, RecordIdSize))
	v.setSize(0)
	v.setNextPageID(storage.InvalidPageID)
	return v
}

// NextPageID returns the right-sibling leaf's page id, or
// storage.InvalidPageID if this is the rightmost leaf.
func (v *LeafPageView) NextPageID() storage.PageId { return v.nextPageID() }

// SetNextPageID updates the right-sibling pointer.
func (v *LeafPageView) SetNextPageID(id storage.PageId) { v.setNextPageID(id) }

func (v *LeafPageView) stride() int { return v.keyWidth + RecordIdSize }

func (v *LeafPageView) slotOffset(i int) int {
	return LeafHeaderSize + i*v.stride()
}

func (v *LeafPageView) checkIndex(i int) {
	if i < 0 || i >= v.Size() {
		panic(fmt.Sprintf("index: leaf page slot %d out of range [0,%d)", i, v.Size()))
	}
}

// KeyAt returns the key at slot i.
func (v *LeafPageView) KeyAt(i int) []byte {
	v.checkIndex(i)
	off := v.slotOffset(i)
	return v.buf[off : off+v.keyWidth]
}

// ValueAt returns the RecordId at slot i.
func (v *LeafPageView) ValueAt(i int) RecordId {
	v.checkIndex(i)
	off := v.slotOffset(i) + v.keyWidth
	return DecodeRecordId(v.buf[off : off+RecordIdSize])
}

func (v *LeafPageView) setKeyAt(i int, key []byte) {
	off := v.slotOffset(i)
	copy(v.buf[off:off+v.keyWidth], key)
}

func (v *LeafPageView) setValueAt(i int, rid RecordId) {
	off := v.slotOffset(i) + v.keyWidth
	EncodeRecordId(v.buf[off:off+RecordIdSize], rid)
}

func (v *LeafPageView) copySlot(from, to int) {
	srcOff := v.slotOffset(from)
	dstOff := v.slotOffset(to)
	copy(v.buf[dstOff:dstOff+v.stride()], v.buf[srcOff:srcOff+v.stride()])
}

// KeyIndex returns the smallest slot index i with KeyAt(i) >= key (lower
// bound), or Size() if key is greater than every key on the page.
func (v *LeafPageView) KeyIndex(key []byte, cmp Comparator) int {
	lo, hi := 0, v.Size()
	for lo < hi {
		mid := (lo + hi) / 2
		if cmp(v.KeyAt(mid), key) < 0 {
			lo = mid + 1
		} else {
			hi = mid
		}
	}
	return lo
}

// Lookup returns the RecordId stored for key and true, or the zero value
// and false if key is not present.
func (v *LeafPageView) Lookup(key []byte, cmp Comparator) (RecordId, bool) {
	i := v.KeyIndex(key, cmp)
	if i == v.Size() || cmp(v.KeyAt(i), key) != 0 {
		return RecordId{}, false
	}
	return v.ValueAt(i), true
}

// Insert places (key, rid) in sorted order. Returns ErrDuplicateKey if
// key is already present; a leaf never holds equal keys.
func (v *LeafPageView) Insert(key []byte, rid RecordId, cmp Comparator) (int, error) {
	i := v.KeyIndex(key, cmp)
	if i < v.Size() && cmp(v.KeyAt(i), key) == 0 {
		return v.Size(), ErrDuplicateKey
	}
	n := v.Size()
	if n >= v.MaxSize() {
		panic("index: Insert called on a leaf already at max size; the driver must split first")
	}
	for j := n; j > i; j-- {
		v.copySlot(j-1, j)
	}
	v.setKeyAt(i, key)
	v.setValueAt(i, rid)
	v.setSize(n + 1)
	return n + 1, nil
}

// RemoveAndDelete removes key if present, shifting the tail left.
// Returns the new size and whether key was found.
func (v *LeafPageView) RemoveAndDelete(key []byte, cmp Comparator) (int, bool) {
	i := v.KeyIndex(key, cmp)
	if i == v.Size() || cmp(v.KeyAt(i), key) != 0 {
		return v.Size(), false
	}
	n := v.Size()
	for j := i; j < n-1; j++ {
		v.copySlot(j+1, j)
	}
	v.setSize(n - 1)
	return n - 1, true
}

// MoveHalfTo moves the last ceil(size/2) entries to recipient, an empty
// leaf page that becomes this leaf's new right sibling in the chain.
func (v *LeafPageView) MoveHalfTo(recipient *LeafPageView) {
	n := v.Size()
	half := (n + 1) / 2
	start := n - half

	for i := 0; i < half; i++ {
		recipient.setKeyAt(i, v.KeyAt(start+i))
		recipient.setValueAt(i, v.ValueAt(start+i))
	}
	recipient.setSize(half)
	v.setSize(n - half)

	recipient.setNextPageID(v.nextPageID())
	v.setNextPageID(recipient.PageID())
}

// MoveAllTo merges v entirely into recipient (v's left sibling during a
// leaf merge) and splices v out of the sibling chain.
func (v *LeafPageView) MoveAllTo(recipient *LeafPageView) {
	base := recipient.Size()
	n := v.Size()
	for i := 0; i < n; i++ {
		recipient.setKeyAt(base+i, v.KeyAt(i))
		recipient.setValueAt(base+i, v.ValueAt(i))
	}
	recipient.setSize(base + n)
	v.setSize(0)
	recipient.setNextPageID(v.nextPageID())
}

// MoveFirstToEndOf rotates v's first entry to the end of recipient (v's
// left sibling), returning the new smallest key left on v so the caller
// can update the parent's separator.
func (v *LeafPageView) MoveFirstToEndOf(recipient *LeafPageView) []byte {
	rn := recipient.Size()
	recipient.setKeyAt(rn, v.KeyAt(0))
	recipient.setValueAt(rn, v.ValueAt(0))
	recipient.setSize(rn + 1)

	n := v.Size()
	for i := 0; i < n-1; i++ {
		v.copySlot(i+1, i)
	}
	v.setSize(n - 1)

	newFirst := make([]byte, v.keyWidth)
	copy(newFirst, v.KeyAt(0))
	return newFirst
}

// MoveLastToFrontOf rotates v's last entry to the front of recipient (v's
// right sibling), returning the moved key so the caller can update the
// parent's separator between v and recipient.
func (v *LeafPageView) MoveLastToFrontOf(recipient *LeafPageView) []byte {
	n := v.Size()
	lastKey := make([]byte, v.keyWidth)
	copy(lastKey, v.KeyAt(n-1))
	lastVal := v.ValueAt(n - 1)

	for i := recipient.Size(); i > 0; i-- {
		recipient.copySlot(i-1, i)
	}
	recipient.setKeyAt(0, lastKey)
	recipient.setValueAt(0, lastVal)
	recipient.setSize(recipient.Size() + 1)

	v.setSize(n - 1)
	return lastKey
}
