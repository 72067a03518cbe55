package value

import (
	"encoding/binary"
	"fmt"
)

// Encode produces a deterministic binary encoding of a row: fixed-endian,
// fixed-width integers, so that identical rows always produce identical
// bytes (spec §4.1 "Tuple encoding").
//
// Wire shape, repeated per column:
//   tag   byte    (Null=0, Int=1, Text=2, Bool=3)
//   Int:  8 bytes big-endian int64
//   Text: 4 bytes big-endian uint32 length, then that many bytes
//   Bool: 1 byte, 0 or 1
//   Null: no payload
func Encode(row Row) []byte {
	buf := make([]byte, 0, 16*len(row))
	for _, v := range row {
		buf = append(buf, byte(v.tag))
		switch v.tag {
		case Null:
			// no payload
		case Int:
			var b [8]byte
			binary.BigEndian.PutUint64(b[:], uint64(v.i))
			buf = append(buf, b[:]...)
		case Text:
			var b [4]byte
			binary.BigEndian.PutUint32(b[:], uint32(len(v.s)))
			buf = append(buf, b[:]...)
			buf = append(buf, v.s...)
		case Bool:
			if v.b {
				buf = append(buf, 1)
			} else {
				buf = append(buf, 0)
			}
		}
	}
	return buf
}

// Decode reverses Encode, reading exactly ncols values.
func Decode(buf []byte, ncols int) (Row, error) {
	row := make(Row, 0, ncols)
	off := 0
	for i := 0; i < ncols; i++ {
		if off >= len(buf) {
			return nil, fmt.Errorf("value: truncated tuple at column %d", i)
		}
		tag := Tag(buf[off])
		off++
		switch tag {
		case Null:
			row = append(row, NewNull())
		case Int:
			if off+8 > len(buf) {
				return nil, fmt.Errorf("value: truncated int at column %d", i)
			}
			iv := int64(binary.BigEndian.Uint64(buf[off : off+8]))
			off += 8
			row = append(row, NewInt(iv))
		case Text:
			if off+4 > len(buf) {
				return nil, fmt.Errorf("value: truncated text length at column %d", i)
			}
			n := int(binary.BigEndian.Uint32(buf[off : off+4]))
			off += 4
			if off+n > len(buf) {
				return nil, fmt.Errorf("value: truncated text body at column %d", i)
			}
			row = append(row, NewText(string(buf[off:off+n])))
			off += n
		case Bool:
			if off+1 > len(buf) {
				return nil, fmt.Errorf("value: truncated bool at column %d", i)
			}
			row = append(row, NewBool(buf[off] != 0))
			off++
		default:
			return nil, fmt.Errorf("value: unknown tag %d at column %d", tag, i)
		}
	}
	return row, nil
}

// DecodeAll decodes every tagged value in buf, without requiring the
// caller to know the column count up front: each tag self-describes its
// payload length, so decoding proceeds until the buffer is exhausted.
func DecodeAll(buf []byte) (Row, error) {
	var row Row
	off := 0
	for off < len(buf) {
		tag := Tag(buf[off])
		off++
		switch tag {
		case Null:
			row = append(row, NewNull())
		case Int:
			if off+8 > len(buf) {
				return nil, fmt.Errorf("value: truncated int")
			}
			iv := int64(binary.BigEndian.Uint64(buf[off : off+8]))
			off += 8
			row = append(row, NewInt(iv))
		case Text:
			if off+4 > len(buf) {
				return nil, fmt.Errorf("value: truncated text length")
			}
			n := int(binary.BigEndian.Uint32(buf[off : off+4]))
			off += 4
			if off+n > len(buf) {
				return nil, fmt.Errorf("value: truncated text body")
			}
			row = append(row, NewText(string(buf[off:off+n])))
			off += n
		case Bool:
			if off+1 > len(buf) {
				return nil, fmt.Errorf("value: truncated bool")
			}
			row = append(row, NewBool(buf[off] != 0))
			off++
		default:
			return nil, fmt.Errorf("value: unknown tag %d", tag)
		}
	}
	return row, nil
}

// EncodeKey deterministically encodes a subsequence of values used as a
// primary-key tuple, for use as a PK-index map key. It reuses Encode's
// wire format since PK columns are a subset of a row's values.
func EncodeKey(key Row) string {
	return string(Encode(key))
}
