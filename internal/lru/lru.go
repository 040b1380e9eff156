// Package lru implements the bare recency-tracking policy used by the
// buffer pool's replacer: a doubly linked list ordered front (most
// recently used) to back (least recently used), paired with a map for
// O(1) membership and removal.
//
// It mirrors the shape of the teacher's pkg/clockx.Clock (Touch /
// SetEvictable / Evict / Remove / Size over a fixed universe of slot ids)
// but swaps CLOCK's ref-bit sweep for true LRU recency ordering, since
// spec.md §4.1 specifies LRU rather than second-chance.
package lru

import "container/list"

// List tracks recency over a set of ids and the subset currently eligible
// for eviction.
type List struct {
	order     *list.List          // front = MRU, back = LRU
	elems     map[int]*list.Element
	evictable map[int]bool
}

// New creates an empty recency list.
func New() *List {
	return &List{
		order:     list.New(),
		elems:     make(map[int]*list.Element),
		evictable: make(map[int]bool),
	}
}

// Touch records that id was accessed, promoting it to most-recently-used.
// If id is not yet tracked, it is inserted (not evictable until
// SetEvictable(id, true) is called).
func (l *List) Touch(id int) {
	if e, ok := l.elems[id]; ok {
		l.order.MoveToFront(e)
		return
	}
	l.elems[id] = l.order.PushFront(id)
}

// SetEvictable marks id as eligible (or ineligible) for eviction. Ids not
// yet tracked by Touch are ignored.
func (l *List) SetEvictable(id int, evictable bool) {
	if _, ok := l.elems[id]; !ok {
		return
	}
	l.evictable[id] = evictable
}

// Evict removes and returns the least-recently-used evictable id. Ids
// marked non-evictable are skipped without disturbing their recency
// order.
func (l *List) Evict() (int, bool) {
	for e := l.order.Back(); e != nil; e = e.Prev() {
		id := e.Value.(int)
		if l.evictable[id] {
			l.order.Remove(e)
			delete(l.elems, id)
			delete(l.evictable, id)
			return id, true
		}
	}
	return 0, false
}

// Contains reports whether id is currently tracked (regardless of its
// evictable state).
func (l *List) Contains(id int) bool {
	_, ok := l.elems[id]
	return ok
}

// Remove drops id from tracking entirely, regardless of its evictable
// state. A no-op if id is not tracked.
func (l *List) Remove(id int) {
	e, ok := l.elems[id]
	if !ok {
		return
	}
	l.order.Remove(e)
	delete(l.elems, id)
	delete(l.evictable, id)
}

// Size returns the number of ids currently eligible for eviction.
func (l *List) Size() int {
	n := 0
	for _, v := range l.evictable {
		if v {
			n++
		}
	}
	return n
}
