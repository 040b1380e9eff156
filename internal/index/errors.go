package index

import "errors"

// ErrDuplicateKey is returned by LeafPageView.Insert when key already
// exists on the page. A leaf never holds equal keys (spec.md §4.4).
var ErrDuplicateKey = errors.New("index: duplicate key")

// ErrChildNotFound is returned by InternalPageView.InsertAfter when
// oldChild does not match any value on the page.
var ErrChildNotFound = errors.New("index: child not found on internal page")
