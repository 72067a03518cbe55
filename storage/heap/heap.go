// Package heap implements the per-table heap file described in spec
// §4.2: a sequence of slotted pages persisted in one file per table,
// addressed by RecordId.
//
// Grounded on the open/seek/write-at-offset discipline of the teacher's
// server/innodb/innodb_store/store/storebytes/blocks.BlockFile, and on
// the file-length/page-size page-count discovery used by
// other_examples/josephinelee1234-GoDB's HeapFile.NumPages.
package heap

import (
	"github.com/juju/errors"

	"github.com/asky/toydb/storage/page"
)

// RecordId addresses a row within a table (spec GLOSSARY).
type RecordId struct {
	PageID uint64
	Slot   page.Slot
}

// ErrNotFound is returned when a RecordId references an out-of-range
// page/slot, or a tombstoned slot.
var ErrNotFound = notFoundErr{}

type notFoundErr struct{}

func (notFoundErr) Error() string { return "heap: record not found" }

// ErrSizeMismatch is returned by Update when the new row's encoded length
// differs from the stored row's, per spec §4.1 update_tuple_in_place.
var ErrSizeMismatch = sizeMismatchErr{}

type sizeMismatchErr struct{}

func (sizeMismatchErr) Error() string { return "heap: update size mismatch" }

// PageSource is the minimal pager contract the heap file needs:
// fetch/allocate pages and mark them dirty. Satisfied by
// storage/bufferpool.Pool.
type PageSource interface {
	FetchPage(table string, pageID uint64) (*page.Page, error)
	AllocatePage(table string) (*page.Page, error)
	MarkDirty(table string, pageID uint64)
	NumPages(table string) (uint64, error)
}

// File is a table's heap-file-level record API, built on top of a
// PageSource (the buffer pool).
type File struct {
	table      string
	pager      PageSource
	lastPageID uint64
	hasPage    bool
}

// Open returns a heap file view over table, backed by pager.
func Open(table string, pager PageSource) *File {
	return &File{table: table, pager: pager}
}

// Insert appends row's encoded bytes to the last allocated page,
// allocating a new page on overflow (spec §4.2 "Insert policy").
func (f *File) Insert(tuple []byte) (RecordId, error) {
	if !f.hasPage {
		if err := f.seekLastPage(); err != nil {
			return RecordId{}, errors.Trace(err)
		}
	}

	p, err := f.pager.FetchPage(f.table, f.lastPageID)
	if err != nil {
		return RecordId{}, errors.Trace(err)
	}
	slot, err := p.InsertTuple(tuple)
	if err == nil {
		f.pager.MarkDirty(f.table, f.lastPageID)
		return RecordId{PageID: f.lastPageID, Slot: slot}, nil
	}
	if _, ok := err.(page.ErrOutOfSpace); !ok {
		return RecordId{}, errors.Trace(err)
	}

	newPage, err := f.pager.AllocatePage(f.table)
	if err != nil {
		return RecordId{}, errors.Trace(err)
	}
	f.lastPageID = newPage.ID
	f.hasPage = true
	slot, err = newPage.InsertTuple(tuple)
	if err != nil {
		return RecordId{}, errors.Trace(err)
	}
	f.pager.MarkDirty(f.table, f.lastPageID)
	return RecordId{PageID: f.lastPageID, Slot: slot}, nil
}

// InsertAt writes tuple at exactly rid, used by WAL replay to reproduce
// the placement an original Insert assigned (spec §4.4). Pages up to
// rid.PageID are allocated if they do not yet exist. Reapplying the same
// record twice is a no-op on the page bytes.
func (f *File) InsertAt(rid RecordId, tuple []byte) error {
	n, err := f.pager.NumPages(f.table)
	if err != nil {
		return errors.Trace(err)
	}
	for n <= rid.PageID {
		np, err := f.pager.AllocatePage(f.table)
		if err != nil {
			return errors.Trace(err)
		}
		n = np.ID + 1
	}
	p, err := f.pager.FetchPage(f.table, rid.PageID)
	if err != nil {
		return errors.Trace(err)
	}
	if err := p.PutTupleAt(rid.Slot, tuple); err != nil {
		return errors.Trace(err)
	}
	f.pager.MarkDirty(f.table, rid.PageID)
	f.lastPageID = rid.PageID
	f.hasPage = true
	return nil
}

// Get returns the row at rid, or ErrNotFound.
func (f *File) Get(rid RecordId) ([]byte, error) {
	n, err := f.pager.NumPages(f.table)
	if err != nil {
		return nil, errors.Trace(err)
	}
	if rid.PageID >= n {
		return nil, ErrNotFound
	}
	p, err := f.pager.FetchPage(f.table, rid.PageID)
	if err != nil {
		return nil, errors.Trace(err)
	}
	tuple, err := p.ReadTuple(rid.Slot)
	if err != nil {
		return nil, ErrNotFound
	}
	return tuple, nil
}

// Update rewrites rid in place. Returns ErrSizeMismatch if the encoded
// length changed; the caller must then Delete+Insert.
func (f *File) Update(rid RecordId, tuple []byte) error {
	n, err := f.pager.NumPages(f.table)
	if err != nil {
		return errors.Trace(err)
	}
	if rid.PageID >= n {
		return ErrNotFound
	}
	p, err := f.pager.FetchPage(f.table, rid.PageID)
	if err != nil {
		return errors.Trace(err)
	}
	if err := p.UpdateTupleInPlace(rid.Slot, tuple); err != nil {
		if _, ok := err.(page.ErrSizeMismatch); ok {
			return ErrSizeMismatch
		}
		return ErrNotFound
	}
	f.pager.MarkDirty(f.table, rid.PageID)
	return nil
}

// Delete tombstones rid. Space is not reclaimed (spec §3 "Lifecycles").
func (f *File) Delete(rid RecordId) error {
	n, err := f.pager.NumPages(f.table)
	if err != nil {
		return errors.Trace(err)
	}
	if rid.PageID >= n {
		return ErrNotFound
	}
	p, err := f.pager.FetchPage(f.table, rid.PageID)
	if err != nil {
		return errors.Trace(err)
	}
	if !p.IsLive(rid.Slot) {
		return ErrNotFound
	}
	if err := p.DeleteTuple(rid.Slot); err != nil {
		return ErrNotFound
	}
	f.pager.MarkDirty(f.table, rid.PageID)
	return nil
}

// NumPages returns the current page count, derived from the backing
// file's length (spec §4.2 "Page-count discovery").
func (f *File) NumPages() (uint64, error) {
	return f.pager.NumPages(f.table)
}

func (f *File) seekLastPage() error {
	n, err := f.pager.NumPages(f.table)
	if err != nil {
		return errors.Trace(err)
	}
	if n == 0 {
		p, err := f.pager.AllocatePage(f.table)
		if err != nil {
			return errors.Trace(err)
		}
		f.lastPageID = p.ID
		f.hasPage = true
		return nil
	}
	f.lastPageID = n - 1
	f.hasPage = true
	return nil
}
