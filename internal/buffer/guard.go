package buffer

import "github.com/novasql-labs/pagestore/internal/storage"

// Guard is a scoped pin: it binds a fetched or newly-created frame to the
// pool that owns it so the unpin cannot be forgotten or mismatched. This
// is the "pin guard" spec.md §9 recommends in place of the source's raw
// pointer reinterpretation: a view built from a Guard must not outlive
// the Guard's Release.
type Guard struct {
	pool  *Pool
	frame *Frame
}

// FetchGuarded fetches pageID and wraps the result in a Guard.
func (p *Pool) FetchGuarded(pageID storage.PageId) (*Guard, error) {
	f, err := p.Fetch(pageID)
	if err != nil {
		return nil, err
	}
	return &Guard{pool: p, frame: f}, nil
}

// NewPageGuarded allocates a fresh page and wraps it in a Guard.
func (p *Pool) NewPageGuarded() (*Guard, storage.PageId, error) {
	f, id, err := p.NewPage()
	if err != nil {
		return nil, storage.InvalidPageID, err
	}
	return &Guard{pool: p, frame: f}, id, nil
}

// PageID returns the id of the pinned page.
func (g *Guard) PageID() storage.PageId { return g.frame.PageID }

// Bytes exposes the pinned page's raw buffer for a view to reinterpret.
// The slice is valid only until Release.
func (g *Guard) Bytes() []byte { return g.frame.Page.Data[:] }

// Release unpins the underlying page, propagating dirty exactly once.
// Calling Release more than once is a programmer error (mirrors "unpin
// every fetched or newly-created frame exactly once", spec.md §5).
func (g *Guard) Release(dirty bool) error {
	_, err := g.pool.Unpin(g.frame.PageID, dirty)
	return err
}
