// Package buffer implements the fixed-capacity buffer pool manager:
// frame allocation, the page table, LRU-based victimization, and
// writeback through a storage.DiskManager, per spec.md §4.2.
//
// Grounded in the teacher's internal/bufferpool.Pool and .GlobalPool
// (internal/bufferpool/pool.go, internal/bufferpool/global_pool.go):
// same free-list-then-replacer acquisition order, same sticky-dirty
// unpin, same "flush only on eviction/explicit flush, never on unpin"
// policy. The page-table key here is a single PageId (this pool is not
// shared across multiple relations/file sets the way GlobalPool is,
// since spec.md scopes one pool to one DiskManager).
package buffer

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/novasql-labs/pagestore/internal/replacer"
	"github.com/novasql-labs/pagestore/internal/storage"
)

var logPrefix = "buffer: "

var (
	// ErrPoolExhausted is returned by Fetch/NewPage when every frame is
	// pinned and none can be evicted.
	ErrPoolExhausted = errors.New("buffer: pool exhausted, all frames pinned")

	// ErrNotResident names the "page not held by any frame" outcome.
	// Unpin/Flush report it as (false, nil); they do not return this error.
	ErrNotResident = errors.New("buffer: page not resident")

	// ErrAlreadyUnpinned names the "pin count already zero" outcome.
	// Unpin reports it as (false, nil); it does not return this error.
	ErrAlreadyUnpinned = errors.New("buffer: page already unpinned")

	// ErrPageInUse names the "page still pinned" outcome. DeletePage
	// reports it as (false, nil); it does not return this error.
	ErrPageInUse = errors.New("buffer: page is pinned, cannot delete")
)

// Frame holds one page's bytes plus the metadata spec.md §3 requires:
// the page id currently occupying it (or storage.InvalidPageID), a pin
// count, and a dirty flag.
type Frame struct {
	PageID   storage.PageId
	Page     storage.Page
	PinCount int32
	Dirty    bool
}

// Pool is the fixed-size buffer pool manager. All public operations are
// serialized by a single pool-wide mutex (spec.md §5).
type Pool struct {
	mu sync.Mutex

	disk storage.DiskManager
	log  storage.LogManager

	frames    []*Frame
	pageTable map[storage.PageId]storage.FrameId
	freeList  []storage.FrameId
	repl      replacer.Replacer
}

// NewPool constructs a pool of poolSize frames backed by disk. log may be
// nil, in which case a no-op LogManager is used; the core never invokes
// it regardless (spec.md §6).
func NewPool(poolSize int, disk storage.DiskManager, log storage.LogManager) *Pool {
	if log == nil {
		log = storage.NopLogManager{}
	}
	p := &Pool{
		disk:      disk,
		log:       log,
		frames:    make([]*Frame, poolSize),
		pageTable: make(map[storage.PageId]storage.FrameId),
		freeList:  make([]storage.FrameId, poolSize),
		repl:      replacer.New(poolSize),
	}
	for i := range p.frames {
		p.frames[i] = &Frame{PageID: storage.InvalidPageID}
		p.freeList[i] = storage.FrameId(i)
	}
	return p
}

// Size returns the number of frames in the pool.
func (p *Pool) Size() int {
	return len(p.frames)
}

// popFreeListLocked pops a frame id from the head of the free list.
// Called with p.mu held.
func (p *Pool) popFreeListLocked() (storage.FrameId, bool) {
	if len(p.freeList) == 0 {
		return 0, false
	}
	id := p.freeList[0]
	p.freeList = p.freeList[1:]
	return id, true
}

// acquireFrameLocked returns a frame ready to host a new page: either a
// free frame or a victim evicted from the replacer, with any dirty
// content of the outgoing page already flushed. Called with p.mu held.
func (p *Pool) acquireFrameLocked() (storage.FrameId, error) {
	if fid, ok := p.popFreeListLocked(); ok {
		return fid, nil
	}

	fid, ok := p.repl.Victim()
	if !ok {
		return 0, ErrPoolExhausted
	}

	f := p.frames[fid]
	if f.Dirty {
		if err := p.disk.WritePage(f.PageID, f.Page.Data[:]); err != nil {
			return 0, fmt.Errorf("%sevict flush: %w", logPrefix, err)
		}
		f.Dirty = false
	}
	delete(p.pageTable, f.PageID)
	slog.Debug(logPrefix+"evicted frame", "frameID", fid, "pageID", f.PageID)
	return fid, nil
}

// Fetch pins and returns the frame holding pageID, loading it from disk
// if it is not already resident.
func (p *Pool) Fetch(pageID storage.PageId) (*Frame, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if fid, ok := p.pageTable[pageID]; ok {
		f := p.frames[fid]
		f.PinCount++
		p.repl.Pin(fid)
		return f, nil
	}

	fid, err := p.acquireFrameLocked()
	if err != nil {
		return nil, err
	}

	f := p.frames[fid]
	f.Page.Reset()
	if err := p.disk.ReadPage(pageID, f.Page.Data[:]); err != nil {
		// Leave the frame free; do not install a half-read page.
		f.PageID = storage.InvalidPageID
		f.PinCount = 0
		f.Dirty = false
		p.freeList = append(p.freeList, fid)
		return nil, fmt.Errorf("%sFetch(%d): %w", logPrefix, pageID, err)
	}

	f.PageID = pageID
	f.PinCount = 1
	f.Dirty = false
	p.pageTable[pageID] = fid
	p.repl.Pin(fid)

	slog.Debug(logPrefix+"fetched page", "pageID", pageID, "frameID", fid)
	return f, nil
}

// Unpin decrements pageID's pin count and ORs isDirty into its sticky
// dirty flag. Returns false if the page is not resident or already has a
// zero pin count.
func (p *Pool) Unpin(pageID storage.PageId, isDirty bool) (bool, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	fid, ok := p.pageTable[pageID]
	if !ok {
		return false, nil
	}
	f := p.frames[fid]
	if f.PinCount <= 0 {
		return false, nil
	}

	if isDirty {
		f.Dirty = true
	}
	f.PinCount--
	if f.PinCount == 0 {
		p.repl.Unpin(fid)
	}
	return true, nil
}

// Flush writes pageID back to disk if dirty and clears the dirty flag.
// Flushing a clean page is a successful no-op. Returns false if pageID is
// not resident.
func (p *Pool) Flush(pageID storage.PageId) (bool, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.flushLocked(pageID)
}

func (p *Pool) flushLocked(pageID storage.PageId) (bool, error) {
	fid, ok := p.pageTable[pageID]
	if !ok {
		return false, nil
	}
	f := p.frames[fid]
	if !f.Dirty {
		return true, nil
	}
	if err := p.disk.WritePage(pageID, f.Page.Data[:]); err != nil {
		return false, fmt.Errorf("%sFlush(%d): %w", logPrefix, pageID, err)
	}
	f.Dirty = false
	return true, nil
}

// NewPage allocates a fresh page id through the DiskManager, pins it in a
// frame, and returns both.
func (p *Pool) NewPage() (*Frame, storage.PageId, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	fid, err := p.acquireFrameLocked()
	if err != nil {
		return nil, storage.InvalidPageID, err
	}

	pageID, err := p.disk.AllocatePage()
	if err != nil {
		p.freeList = append(p.freeList, fid)
		return nil, storage.InvalidPageID, fmt.Errorf("%sNewPage: %w", logPrefix, err)
	}

	f := p.frames[fid]
	f.Page.Reset()
	f.PageID = pageID
	f.PinCount = 1
	f.Dirty = false
	p.pageTable[pageID] = fid
	p.repl.Pin(fid)

	slog.Debug(logPrefix+"new page", "pageID", pageID, "frameID", fid)
	return f, pageID, nil
}

// DeletePage removes pageID from the pool and tells the DiskManager to
// deallocate it. If pageID is not resident this only deallocates. If
// resident and pinned, it returns false without side effects.
func (p *Pool) DeletePage(pageID storage.PageId) (bool, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	fid, ok := p.pageTable[pageID]
	if !ok {
		if err := p.disk.DeallocatePage(pageID); err != nil {
			return false, fmt.Errorf("%sDeletePage(%d): %w", logPrefix, pageID, err)
		}
		return true, nil
	}

	f := p.frames[fid]
	if f.PinCount > 0 {
		return false, nil
	}

	delete(p.pageTable, pageID)
	p.repl.Pin(fid) // ensure it is not left in the eligible set
	f.PageID = storage.InvalidPageID
	f.Dirty = false
	f.PinCount = 0
	f.Page.Reset()
	p.freeList = append(p.freeList, fid)

	if err := p.disk.DeallocatePage(pageID); err != nil {
		return false, fmt.Errorf("%sDeletePage(%d): %w", logPrefix, pageID, err)
	}
	return true, nil
}

// FlushAll flushes every resident dirty page, walking the page table in
// no particular order.
func (p *Pool) FlushAll() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	for pageID := range p.pageTable {
		if _, err := p.flushLocked(pageID); err != nil {
			return err
		}
	}
	return nil
}
