package storage

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
)

var logPrefix = "storage: "

// FilePager is a DiskManager backed by a single on-disk file, one PageSize
// slice per page id. It is the out-of-core collaborator described in
// spec.md §6; the buffer pool never manipulates the file directly.
//
// Grounded in the teacher's internal/storage/pager.go (os.File, seek +
// ReadFull/Write per page), extended with page-id allocation/deallocation
// since this DiskManager must also satisfy spec.md's AllocatePage /
// DeallocatePage contract, which the teacher's Pager does not expose.
type FilePager struct {
	mu   sync.Mutex
	file *os.File

	metaPath string
	nextID   PageId
	free     []PageId
}

type pagerMeta struct {
	NextID PageId   `json:"next_id"`
	Free   []PageId `json:"free"`
}

// NewFilePager opens (or creates) path as the page file, and path+".meta"
// as the small sidecar recording the next-id counter and the free list.
func NewFilePager(path string) (*FilePager, error) {
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE, 0o644)
	if err != nil {
		return nil, fmt.Errorf("%sopen page file: %w", logPrefix, err)
	}

	p := &FilePager{
		file:     f,
		metaPath: path + ".meta",
		nextID:   0,
	}
	if err := p.loadMeta(); err != nil {
		_ = f.Close()
		return nil, err
	}
	return p, nil
}

func (p *FilePager) loadMeta() error {
	data, err := os.ReadFile(p.metaPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("%sread meta: %w", logPrefix, err)
	}
	var m pagerMeta
	if err := json.Unmarshal(data, &m); err != nil {
		return fmt.Errorf("%sdecode meta: %w", logPrefix, err)
	}
	p.nextID = m.NextID
	p.free = m.Free
	return nil
}

// saveMeta persists the allocator state. Called with p.mu held.
func (p *FilePager) saveMeta() error {
	m := pagerMeta{NextID: p.nextID, Free: p.free}
	data, err := json.Marshal(&m)
	if err != nil {
		return err
	}
	dir := filepath.Dir(p.metaPath)
	tmp, err := os.CreateTemp(dir, filepath.Base(p.metaPath)+".tmp-*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return err
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return err
	}
	return os.Rename(tmpName, p.metaPath)
}

// ReadPage implements storage.DiskManager.
func (p *FilePager) ReadPage(pageID PageId, buf []byte) error {
	if len(buf) != PageSize {
		return fmt.Errorf("%sReadPage: buf must be %d bytes, got %d", logPrefix, PageSize, len(buf))
	}
	p.mu.Lock()
	defer p.mu.Unlock()

	off := int64(pageID) * PageSize
	n, err := p.file.ReadAt(buf, off)
	if err != nil && err != io.EOF {
		return fmt.Errorf("%sReadPage(%d): %w", logPrefix, pageID, err)
	}
	for i := n; i < PageSize; i++ {
		buf[i] = 0
	}
	return nil
}

// WritePage implements storage.DiskManager.
func (p *FilePager) WritePage(pageID PageId, buf []byte) error {
	if len(buf) != PageSize {
		return fmt.Errorf("%sWritePage: buf must be %d bytes, got %d", logPrefix, PageSize, len(buf))
	}
	p.mu.Lock()
	defer p.mu.Unlock()

	off := int64(pageID) * PageSize
	if _, err := p.file.WriteAt(buf, off); err != nil {
		return fmt.Errorf("%sWritePage(%d): %w", logPrefix, pageID, err)
	}
	return nil
}

// AllocatePage implements storage.DiskManager. It prefers reusing a
// deallocated id before minting a new one, the same free-list-first policy
// the buffer pool itself uses for frames.
func (p *FilePager) AllocatePage() (PageId, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	var id PageId
	if len(p.free) > 0 {
		id = p.free[0]
		p.free = p.free[1:]
	} else {
		id = p.nextID
		p.nextID++
	}
	if err := p.saveMeta(); err != nil {
		return InvalidPageID, fmt.Errorf("%sAllocatePage: %w", logPrefix, err)
	}
	slog.Debug(logPrefix+"AllocatePage", "pageID", id)
	return id, nil
}

// DeallocatePage implements storage.DiskManager. Bytes are left as-is on
// disk; the id becomes available for reuse.
func (p *FilePager) DeallocatePage(pageID PageId) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.free = append(p.free, pageID)
	if err := p.saveMeta(); err != nil {
		return fmt.Errorf("%sDeallocatePage: %w", logPrefix, err)
	}
	slog.Debug(logPrefix+"DeallocatePage", "pageID", pageID)
	return nil
}

// Close releases the underlying file handle.
func (p *FilePager) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.file.Close()
}
