// Package page implements the slotted-page codec described in spec §4.1:
// a fixed 4 KiB page laying tuples out with a forward-growing slot
// directory and a backward-growing tuple area.
//
// Layout grounded on the slotted-page scheme in
// other_examples/SimonWaldherr-tinySQL's pager/slotted_page.go, adapted
// to this engine's header shape (num_slots/free_offset) and checksum
// field (grounded on the teacher's pages.FileHeader.FilePageSpaceOrCheckSum).
package page

import (
	"encoding/binary"

	"github.com/OneOfOne/xxhash"
)

const (
	// Size is the fixed page size in bytes (spec §4.1, §6).
	Size = 4096

	// headerSize: checksum(8) + num_slots(2) + free_offset(2).
	headerSize = 12
	slotSize   = 4 // offset(2) + length(2)
)

// Slot is a logical record address within a page.
type Slot = uint16

// ErrOutOfSpace is returned by InsertTuple when the page has insufficient
// free space for the tuple plus its slot entry.
type ErrOutOfSpace struct{}

func (ErrOutOfSpace) Error() string { return "page: out of space" }

// ErrSizeMismatch is returned by UpdateTupleInPlace when the replacement
// tuple's length differs from the existing slot's length.
type ErrSizeMismatch struct{}

func (ErrSizeMismatch) Error() string { return "page: size mismatch for in-place update" }

// ErrInvalidSlot is returned when a slot index is out of the page's
// current slot-array bounds.
type ErrInvalidSlot struct{ Slot int }

func (e ErrInvalidSlot) Error() string { return "page: invalid slot" }

// ErrDeleted is returned by ReadTuple for a tombstoned slot.
var ErrDeleted = deletedErr{}

type deletedErr struct{}

func (deletedErr) Error() string { return "page: slot deleted" }

// ErrCorrupted is returned when a page's stored checksum does not match
// its computed checksum (supplemented feature, see DESIGN.md).
var ErrCorrupted = corruptedErr{}

type corruptedErr struct{}

func (corruptedErr) Error() string { return "page: checksum mismatch" }

// Page wraps a fixed Size-byte buffer and provides slotted-page
// operations over it.
type Page struct {
	ID  uint64
	buf [Size]byte
}

// New returns a freshly initialized, empty page.
func New(id uint64) *Page {
	p := &Page{ID: id}
	p.setNumSlots(0)
	p.setFreeOffset(headerSize)
	return p
}

// FromBytes wraps an on-disk page buffer, verifying its checksum.
func FromBytes(id uint64, buf []byte) (*Page, error) {
	if len(buf) != Size {
		return nil, ErrInvalidSlot{}
	}
	p := &Page{ID: id}
	copy(p.buf[:], buf)
	if p.storedChecksum() != p.computeChecksum() {
		return nil, ErrCorrupted
	}
	return p, nil
}

// Bytes returns the page's on-disk representation, with a freshly
// computed checksum written into the header.
func (p *Page) Bytes() []byte {
	binary.BigEndian.PutUint64(p.buf[0:8], p.computeChecksum())
	out := make([]byte, Size)
	copy(out, p.buf[:])
	return out
}

func (p *Page) computeChecksum() uint64 {
	h := xxhash.New64()
	h.Write(p.buf[headerSize:])
	return h.Sum64()
}

func (p *Page) storedChecksum() uint64 {
	return binary.BigEndian.Uint64(p.buf[0:8])
}

func (p *Page) numSlots() int {
	return int(binary.BigEndian.Uint16(p.buf[8:10]))
}

func (p *Page) setNumSlots(n int) {
	binary.BigEndian.PutUint16(p.buf[8:10], uint16(n))
}

func (p *Page) freeOffset() int {
	return int(binary.BigEndian.Uint16(p.buf[10:12]))
}

func (p *Page) setFreeOffset(off int) {
	binary.BigEndian.PutUint16(p.buf[10:12], uint16(off))
}

// NumSlots returns the number of slot entries, including tombstones.
func (p *Page) NumSlots() int { return p.numSlots() }

func slotEntryOffset(i int) int { return headerSize + i*slotSize }

func (p *Page) slotAt(i int) (offset, length int) {
	so := slotEntryOffset(i)
	offset = int(binary.BigEndian.Uint16(p.buf[so : so+2]))
	length = int(binary.BigEndian.Uint16(p.buf[so+2 : so+4]))
	return
}

func (p *Page) setSlotAt(i, offset, length int) {
	so := slotEntryOffset(i)
	binary.BigEndian.PutUint16(p.buf[so:so+2], uint16(offset))
	binary.BigEndian.PutUint16(p.buf[so+2:so+4], uint16(length))
}

// tupleAreaStart is the lowest offset currently occupied by tuple bytes;
// new tuples are placed immediately below it.
func (p *Page) tupleAreaStart() int {
	start := Size
	for i := 0; i < p.numSlots(); i++ {
		off, length := p.slotAt(i)
		if length == 0 {
			continue
		}
		if off < start {
			start = off
		}
	}
	return start
}

// InsertTuple writes bytes into the page's tuple area and appends a new
// slot entry, returning the assigned slot index. Returns ErrOutOfSpace
// if the tuple (plus a new slot entry) does not fit.
func (p *Page) InsertTuple(tuple []byte) (Slot, error) {
	n := p.numSlots()
	newTupleStart := p.tupleAreaStart() - len(tuple)
	slotDirEnd := slotEntryOffset(n + 1)
	if newTupleStart < slotDirEnd {
		return 0, ErrOutOfSpace{}
	}
	copy(p.buf[newTupleStart:newTupleStart+len(tuple)], tuple)
	p.setSlotAt(n, newTupleStart, len(tuple))
	p.setNumSlots(n + 1)
	p.setFreeOffset(slotDirEnd)
	return Slot(n), nil
}

// PutTupleAt writes tuple at exactly the given slot index, growing the
// slot array with tombstones as needed. Used by WAL replay (spec §4.4),
// which places a record at the RID recorded at original-write time
// rather than appending at the current tail. Reapplying the same
// (slot, tuple) pair twice is a no-op on the page bytes, matching the
// idempotent-replay guarantee spec §4.4 describes.
func (p *Page) PutTupleAt(slot Slot, tuple []byte) error {
	i := int(slot)
	for p.numSlots() <= i {
		n := p.numSlots()
		slotDirEnd := slotEntryOffset(n + 1)
		if p.tupleAreaStart() < slotDirEnd {
			return ErrOutOfSpace{}
		}
		p.setSlotAt(n, 0, 0)
		p.setNumSlots(n + 1)
		p.setFreeOffset(slotDirEnd)
	}
	off, length := p.slotAt(i)
	if length == len(tuple) && length > 0 {
		copy(p.buf[off:off+length], tuple)
		return nil
	}
	newStart := p.tupleAreaStart() - len(tuple)
	slotDirEnd := slotEntryOffset(p.numSlots() + 1)
	if newStart < slotDirEnd {
		return ErrOutOfSpace{}
	}
	copy(p.buf[newStart:newStart+len(tuple)], tuple)
	p.setSlotAt(i, newStart, len(tuple))
	return nil
}

// ReadTuple returns a copy of the bytes stored at slot, or ErrDeleted /
// ErrInvalidSlot.
func (p *Page) ReadTuple(slot Slot) ([]byte, error) {
	i := int(slot)
	if i < 0 || i >= p.numSlots() {
		return nil, ErrInvalidSlot{Slot: i}
	}
	off, length := p.slotAt(i)
	if length == 0 {
		return nil, ErrDeleted
	}
	out := make([]byte, length)
	copy(out, p.buf[off:off+length])
	return out, nil
}

// UpdateTupleInPlace rewrites the tuple at slot only if the new bytes'
// length equals the existing slot's length.
func (p *Page) UpdateTupleInPlace(slot Slot, tuple []byte) error {
	i := int(slot)
	if i < 0 || i >= p.numSlots() {
		return ErrInvalidSlot{Slot: i}
	}
	off, length := p.slotAt(i)
	if length == 0 {
		return ErrDeleted
	}
	if length != len(tuple) {
		return ErrSizeMismatch{}
	}
	copy(p.buf[off:off+length], tuple)
	return nil
}

// DeleteTuple tombstones slot by setting its length to 0. Tuple bytes are
// not reclaimed (spec §4.1).
func (p *Page) DeleteTuple(slot Slot) error {
	i := int(slot)
	if i < 0 || i >= p.numSlots() {
		return ErrInvalidSlot{Slot: i}
	}
	off, _ := p.slotAt(i)
	p.setSlotAt(i, off, 0)
	return nil
}

// IsLive reports whether slot holds a non-tombstoned tuple. Returns false
// for out-of-range slots too.
func (p *Page) IsLive(slot Slot) bool {
	i := int(slot)
	if i < 0 || i >= p.numSlots() {
		return false
	}
	_, length := p.slotAt(i)
	return length > 0
}

// FreeSpace reports the bytes currently available for a new tuple plus
// its slot entry.
func (p *Page) FreeSpace() int {
	return p.tupleAreaStart() - slotEntryOffset(p.numSlots()+1)
}
