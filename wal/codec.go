package wal

import (
	"encoding/binary"
	"fmt"

	"github.com/asky/toydb/storage/heap"
	"github.com/asky/toydb/value"
)

// Encode produces a deterministic binary encoding of a Record: a Kind
// byte followed by the variant's fixed-width/length-prefixed fields,
// reusing value.Encode/DecodeAll for row payloads (spec §4.4 "a
// deterministic binary encoding of a WalRecord variant").
func Encode(rec Record) []byte {
	buf := make([]byte, 0, 64)
	buf = append(buf, byte(rec.Kind()))
	switch r := rec.(type) {
	case Insert:
		buf = appendU64(buf, r.TableID)
		buf = appendRID(buf, r.RID)
		buf = appendBytes(buf, value.Encode(r.Row))
	case Update:
		buf = appendU64(buf, r.TableID)
		buf = appendRID(buf, r.RID)
		buf = appendBytes(buf, value.Encode(r.NewRow))
	case Delete:
		buf = appendU64(buf, r.TableID)
		buf = appendRID(buf, r.RID)
	case CreateTable:
		buf = appendU64(buf, r.TableID)
		buf = appendString(buf, r.Name)
		buf = appendSchema(buf, r.Schema)
	case DropTable:
		buf = appendU64(buf, r.TableID)
	default:
		panic(fmt.Sprintf("wal: unknown record type %T", rec))
	}
	return buf
}

// Decode reverses Encode.
func Decode(buf []byte) (Record, error) {
	if len(buf) < 1 {
		return nil, fmt.Errorf("wal: empty record")
	}
	kind := Kind(buf[0])
	off := 1
	switch kind {
	case KindInsert:
		tableID, off2, err := readU64(buf, off)
		if err != nil {
			return nil, err
		}
		rid, off3, err := readRID(buf, off2)
		if err != nil {
			return nil, err
		}
		rowBytes, _, err := readBytes(buf, off3)
		if err != nil {
			return nil, err
		}
		row, err := value.DecodeAll(rowBytes)
		if err != nil {
			return nil, err
		}
		return Insert{TableID: tableID, Row: row, RID: rid}, nil
	case KindUpdate:
		tableID, off2, err := readU64(buf, off)
		if err != nil {
			return nil, err
		}
		rid, off3, err := readRID(buf, off2)
		if err != nil {
			return nil, err
		}
		rowBytes, _, err := readBytes(buf, off3)
		if err != nil {
			return nil, err
		}
		row, err := value.DecodeAll(rowBytes)
		if err != nil {
			return nil, err
		}
		return Update{TableID: tableID, RID: rid, NewRow: row}, nil
	case KindDelete:
		tableID, off2, err := readU64(buf, off)
		if err != nil {
			return nil, err
		}
		rid, _, err := readRID(buf, off2)
		if err != nil {
			return nil, err
		}
		return Delete{TableID: tableID, RID: rid}, nil
	case KindCreateTable:
		tableID, off2, err := readU64(buf, off)
		if err != nil {
			return nil, err
		}
		name, off3, err := readString(buf, off2)
		if err != nil {
			return nil, err
		}
		schema, _, err := readSchema(buf, off3)
		if err != nil {
			return nil, err
		}
		return CreateTable{TableID: tableID, Name: name, Schema: schema}, nil
	case KindDropTable:
		tableID, _, err := readU64(buf, off)
		if err != nil {
			return nil, err
		}
		return DropTable{TableID: tableID}, nil
	default:
		return nil, fmt.Errorf("wal: unknown record kind %d", kind)
	}
}

func appendU64(buf []byte, v uint64) []byte {
	var b [8]byte
	binary.BigEndian.PutUint64(b[:], v)
	return append(buf, b[:]...)
}

func readU64(buf []byte, off int) (uint64, int, error) {
	if off+8 > len(buf) {
		return 0, off, fmt.Errorf("wal: truncated u64")
	}
	return binary.BigEndian.Uint64(buf[off : off+8]), off + 8, nil
}

func appendU16(buf []byte, v uint16) []byte {
	var b [2]byte
	binary.BigEndian.PutUint16(b[:], v)
	return append(buf, b[:]...)
}

func readU16(buf []byte, off int) (uint16, int, error) {
	if off+2 > len(buf) {
		return 0, off, fmt.Errorf("wal: truncated u16")
	}
	return binary.BigEndian.Uint16(buf[off : off+2]), off + 2, nil
}

func appendRID(buf []byte, rid heap.RecordId) []byte {
	buf = appendU64(buf, rid.PageID)
	buf = appendU16(buf, uint16(rid.Slot))
	return buf
}

func readRID(buf []byte, off int) (heap.RecordId, int, error) {
	pageID, off, err := readU64(buf, off)
	if err != nil {
		return heap.RecordId{}, off, err
	}
	slot, off, err := readU16(buf, off)
	if err != nil {
		return heap.RecordId{}, off, err
	}
	return heap.RecordId{PageID: pageID, Slot: slot}, off, nil
}

func appendBytes(buf []byte, data []byte) []byte {
	var b [4]byte
	binary.BigEndian.PutUint32(b[:], uint32(len(data)))
	buf = append(buf, b[:]...)
	return append(buf, data...)
}

func readBytes(buf []byte, off int) ([]byte, int, error) {
	if off+4 > len(buf) {
		return nil, off, fmt.Errorf("wal: truncated length")
	}
	n := int(binary.BigEndian.Uint32(buf[off : off+4]))
	off += 4
	if off+n > len(buf) {
		return nil, off, fmt.Errorf("wal: truncated payload")
	}
	return buf[off : off+n], off + n, nil
}

func appendString(buf []byte, s string) []byte {
	return appendBytes(buf, []byte(s))
}

func readString(buf []byte, off int) (string, int, error) {
	b, off, err := readBytes(buf, off)
	if err != nil {
		return "", off, err
	}
	return string(b), off, nil
}

func appendSchema(buf []byte, s value.Schema) []byte {
	buf = appendU16(buf, uint16(len(s.Columns)))
	for _, c := range s.Columns {
		buf = appendString(buf, c.Name)
		buf = append(buf, byte(c.Type))
	}
	buf = appendU16(buf, uint16(len(s.PrimaryKey)))
	for _, ord := range s.PrimaryKey {
		buf = appendU16(buf, uint16(ord))
	}
	return buf
}

func readSchema(buf []byte, off int) (value.Schema, int, error) {
	ncols, off, err := readU16(buf, off)
	if err != nil {
		return value.Schema{}, off, err
	}
	cols := make([]value.Column, ncols)
	for i := range cols {
		name, o2, err := readString(buf, off)
		if err != nil {
			return value.Schema{}, off, err
		}
		off = o2
		if off+1 > len(buf) {
			return value.Schema{}, off, fmt.Errorf("wal: truncated column type")
		}
		typ := value.Tag(buf[off])
		off++
		cols[i] = value.Column{Name: name, Type: typ, Ordinal: i}
	}
	npk, off, err := readU16(buf, off)
	if err != nil {
		return value.Schema{}, off, err
	}
	var pk []int
	if npk > 0 {
		pk = make([]int, npk)
		for i := range pk {
			v, o2, err := readU16(buf, off)
			if err != nil {
				return value.Schema{}, off, err
			}
			off = o2
			pk[i] = int(v)
		}
	}
	return value.Schema{Columns: cols, PrimaryKey: pk}, off, nil
}
