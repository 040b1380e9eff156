package index

import "bytes"

// Comparator is the injected total order over fixed-width keys that
// spec.md §3 requires ("Key, Value: opaque fixed-width byte sequences;
// compared via an injected total-order comparator").
type Comparator func(a, b []byte) int

// BytesComparator orders keys by plain lexicographic byte comparison. It
// is the right default for big-endian-encoded fixed-width integers (see
// internal/alias/bx-derived EncodeUint64Key in recordid.go), since
// lexicographic order over big-endian bytes matches numeric order.
func BytesComparator(a, b []byte) int {
	return bytes.Compare(a, b)
}
