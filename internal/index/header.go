// Package index implements the B+Tree index page layout: InternalPageView
// and LeafPageView, the in-page operations spec.md §4.3/§4.4 specify, and
// the fixed-width record-id value type leaves store.
//
// Grounded in the teacher's internal/btree package (internal.go, leaf.go,
// entry.go) for naming and doc-comment register, and in
// pkg/storage/bplustree.go for the split/merge/redistribute control flow
// (splitChild, borrowFromLeft, borrowFromRight, mergeNodes) — adapted from
// in-memory slices to fixed-stride slots inside a pinned buffer-pool
// frame, re-parenting children through the pool instead of holding them
// all in memory at once.
package index

import (
	"encoding/binary"

	"github.com/novasql-labs/pagestore/internal/storage"
)

// PageKind distinguishes an internal (routing) node from a leaf (data)
// node, stored as the first byte of the page header.
type PageKind uint8

const (
	// KindInvalid marks an uninitialized page.
	KindInvalid PageKind = 0
	// KindInternal is a routing node.
	KindInternal PageKind = 1
	// KindLeaf is a data node.
	KindLeaf PageKind = 2
)

// Header byte offsets, common to both page kinds. Modeled on the
// teacher's Postgres-style page header (internal/storage/page.go) but
// simplified to the fixed fields spec.md §3 lists: page type, size, max
// size, page id, parent page id, and (leaf only) next page id.
const (
	offKind     = 0  // uint8
	offSize     = 4  // int32
	offMaxSize  = 8  // int32
	offPageID   = 12 // int32
	offParentID = 16 // int32
	offNextID   = 20 // int32, leaf only

	// CommonHeaderSize is the header size for an internal page.
	CommonHeaderSize = 20
	// LeafHeaderSize is the header size for a leaf page (adds next-page-id).
	LeafHeaderSize = 24
)

var byteOrder = binary.LittleEndian

// header is the shared accessor for the fixed header prefix of an index
// page's raw bytes. Both InternalPageView and LeafPageView embed one.
type header struct {
	buf []byte
}

func (h header) Kind() PageKind { return PageKind(h.buf[offKind]) }
func (h header) setKind(k PageKind) { h.buf[offKind] = byte(k) }

func (h header) Size() int { return int(int32(byteOrder.Uint32(h.buf[offSize:]))) }
func (h header) setSize(n int) { byteOrder.PutUint32(h.buf[offSize:], uint32(int32(n))) }

func (h header) MaxSize() int { return int(int32(byteOrder.Uint32(h.buf[offMaxSize:]))) }
func (h header) setMaxSize(n int) { byteOrder.PutUint32(h.buf[offMaxSize:], uint32(int32(n))) }

func (h header) PageID() storage.PageId {
	return storage.PageId(int32(byteOrder.Uint32(h.buf[offPageID:])))
}
func (h header) setPageID(id storage.PageId) {
	byteOrder.PutUint32(h.buf[offPageID:], uint32(int32(id)))
}

func (h header) ParentPageID() storage.PageId {
	return storage.PageId(int32(byteOrder.Uint32(h.buf[offParentID:])))
}
func (h header) SetParentPageID(id storage.PageId) {
	byteOrder.PutUint32(h.buf[offParentID:], uint32(int32(id)))
}

func (h header) nextPageID() storage.PageId {
	return storage.PageId(int32(byteOrder.Uint32(h.buf[offNextID:])))
}
func (h header) setNextPageID(id storage.PageId) {
	byteOrder.PutUint32(h.buf[offNextID:], uint32(int32(id)))
}

// ComputeMaxSize returns the number of fixed-stride (key,value) slots
// that fit after a header of headerSize bytes, given keyWidth and
// valueWidth in bytes. Mirrors the teacher's btree.maxEntriesPerPage, but
// without a separate slot-pointer indirection: slots are stored inline at
// a fixed stride, since every entry in this design has identical width.
func ComputeMaxSize(headerSize, keyWidth, valueWidth int) int {
	free := storage.PageSize - headerSize
	stride := keyWidth + valueWidth
	if free <= 0 || stride <= 0 {
		return 0
	}
	return free / stride
}
