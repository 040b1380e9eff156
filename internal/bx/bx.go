// Package bx holds small fixed-width byte encoding helpers shared by the
// index package. Keys are encoded big-endian so that plain byte-slice
// comparison (index.BytesComparator) matches numeric order — the same
// reason the teacher's internal/alias/bx keeps a parallel BE family
// "used for key/index sortable" alongside its LE family. This package
// only keeps that BE half: pagestore never serializes little-endian
// wire values, so the LE helpers the teacher carries for tuple encoding
// have no home here.
package bx

import "encoding/binary"

var be = binary.BigEndian

// PutU32 writes v as 4 big-endian bytes into b[:4].
func PutU32(b []byte, v uint32) { be.PutUint32(b, v) }

// U32 reads 4 big-endian bytes from b[:4].
func U32(b []byte) uint32 { return be.Uint32(b) }

// PutU64 writes v as 8 big-endian bytes into b[:8].
func PutU64(b []byte, v uint64) { be.PutUint64(b, v) }

// U64 reads 8 big-endian bytes from b[:8].
func U64(b []byte) uint64 { return be.Uint64(b) }
