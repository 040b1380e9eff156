// Package replacer implements the buffer pool's frame replacement policy:
// an LRU replacer over a fixed universe of frame ids, as specified in
// spec.md §4.1.
//
// The adapter shape (a narrow Replacer interface implemented by wrapping a
// lower-level recency policy) follows the teacher's
// internal/bufferpool/replacer_clock_adapter.go, which wraps pkg/clockx.
// Here the wrapped policy is internal/lru instead of clockx, since spec.md
// calls for true LRU ordering rather than CLOCK's second-chance sweep.
package replacer

import (
	"sync"

	"github.com/novasql-labs/pagestore/internal/lru"
	"github.com/novasql-labs/pagestore/internal/storage"
)

// Replacer is the contract spec.md §4.1 describes: track the set of
// unpinned ("eligible") frames and hand back the least-recently-used one
// on Victim.
type Replacer interface {
	// Victim removes and returns the least-recently-used eligible frame.
	// ok is false when the eligible set is empty.
	Victim() (id storage.FrameId, ok bool)

	// Pin removes frame from the eligible set if present; a no-op
	// otherwise.
	Pin(frame storage.FrameId)

	// Unpin inserts frame as most-recently-used if it is not already in
	// the eligible set. Idempotent: a frame already present is left
	// untouched, so repeated unpins never promote its recency.
	Unpin(frame storage.FrameId)

	// Size returns the current cardinality of the eligible set.
	Size() int
}

// LRU is the concrete, mutex-guarded LRU replacer. All four operations
// hold the same internal lock for their entire duration (spec.md §5); none
// of them block on I/O.
type LRU struct {
	mu   sync.Mutex
	list *lru.List
}

var _ Replacer = (*LRU)(nil)

// New creates an empty LRU replacer. capacity is accepted for symmetry
// with the buffer pool's frame array but the underlying list grows
// lazily; it is not a hard cap.
func New(capacity int) *LRU {
	_ = capacity
	return &LRU{list: lru.New()}
}

// Victim implements Replacer.
func (r *LRU) Victim() (storage.FrameId, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	id, ok := r.list.Evict()
	if !ok {
		return 0, false
	}
	return storage.FrameId(id), true
}

// Pin implements Replacer.
func (r *LRU) Pin(frame storage.FrameId) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.list.Remove(int(frame))
}

// Unpin implements Replacer.
func (r *LRU) Unpin(frame storage.FrameId) {
	r.mu.Lock()
	defer r.mu.Unlock()

	id := int(frame)
	if r.list.Contains(id) {
		// Idempotent: a frame already eligible keeps its existing
		// recency position. See spec.md §4.1 design note on repeat
		// unpin.
		return
	}
	r.list.Touch(id)
	r.list.SetEvictable(id, true)
}

// Size implements Replacer.
func (r *LRU) Size() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.list.Size()
}
