package index

import (
	"github.com/novasql-labs/pagestore/internal/bx"
	"github.com/novasql-labs/pagestore/internal/storage"
)

// RecordId is a leaf's value: a pointer into a heap page, as spec.md's
// GLOSSARY defines it ("(page-id, slot-number) pointer into a heap
// page"). It keeps the teacher's internal/heap.TID shape (PageID +
// Slot) under the spec's name.
type RecordId struct {
	PageID storage.PageId
	Slot   uint16
}

// RecordIdSize is the fixed on-page width of an encoded RecordId:
// 4 bytes page id + 2 bytes slot.
const RecordIdSize = 6

// EncodeRecordId writes rid into dst[:RecordIdSize].
func EncodeRecordId(dst []byte, rid RecordId) {
	bx.PutU32(dst, uint32(int32(rid.PageID)))
	dst[4] = byte(rid.Slot >> 8)
	dst[5] = byte(rid.Slot)
}

// DecodeRecordId reads a RecordId from src[:RecordIdSize].
func DecodeRecordId(src []byte) RecordId {
	return RecordId{
		PageID: storage.PageId(int32(bx.U32(src))),
		Slot:   uint16(src[4])<<8 | uint16(src[5]),
	}
}

// EncodeChildID writes a child page id into dst[:4], the internal page's
// fixed value width.
func EncodeChildID(dst []byte, id storage.PageId) {
	bx.PutU32(dst, uint32(int32(id)))
}

// DecodeChildID reads a child page id from src[:4].
func DecodeChildID(src []byte) storage.PageId {
	return storage.PageId(int32(bx.U32(src)))
}

// ChildIDSize is the internal page's fixed value width.
const ChildIDSize = 4

// EncodeUint32Key encodes v as a 4-byte big-endian fixed-width key.
func EncodeUint32Key(dst []byte, v uint32) { bx.PutU32(dst, v) }

// EncodeUint64Key encodes v as an 8-byte big-endian fixed-width key.
func EncodeUint64Key(dst []byte, v uint64) { bx.PutU64(dst, v) }
