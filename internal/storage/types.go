// Package storage holds the primitive identifiers and the on-disk page
// access used by the rest of pagestore: page and frame ids, the fixed-size
// page buffer, and the DiskManager interface the buffer pool fetches
// through.
package storage

// PageId identifies a page on stable storage. Negative values are reserved;
// InvalidPageID marks "no page".
type PageId int32

// InvalidPageID is the sentinel for "no page" (unset parent, unset sibling).
const InvalidPageID PageId = -1

// FrameId identifies a slot in the buffer pool's frame array, [0, poolSize).
type FrameId int32

// PageSize is the fixed size of every on-disk page.
const PageSize = 4096

// Page is the raw fixed-size byte buffer backing one frame. It carries no
// interpretation of its own; index views reinterpret the bytes in place.
type Page struct {
	Data [PageSize]byte
}

// Reset zeroes the page buffer. Called by the pool before reading a fresh
// page into a reused frame so that stale bytes never leak into a new page.
func (p *Page) Reset() {
	for i := range p.Data {
		p.Data[i] = 0
	}
}
