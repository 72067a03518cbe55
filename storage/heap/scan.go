package heap

import (
	"github.com/juju/errors"

	"github.com/asky/toydb/storage/page"
)

// Cursor iterates every live row of a heap file in page-order,
// slot-order (spec §4.7.1 "Maintains (current_page, current_slot)...
// ends when current_page >= num_pages").
type Cursor struct {
	file       *File
	numPages   uint64
	page       uint64
	slot       int
	numSlots   int
	haveCounts bool
}

// NewCursor returns a fresh cursor over f, positioned before the first
// row.
func (f *File) NewCursor() (*Cursor, error) {
	n, err := f.pager.NumPages(f.table)
	if err != nil {
		return nil, errors.Trace(err)
	}
	return &Cursor{file: f, numPages: n}, nil
}

// Next advances to and returns the next live row. ok is false once the
// cursor has exhausted every page.
func (c *Cursor) Next() (RecordId, []byte, bool, error) {
	for {
		if c.page >= c.numPages {
			return RecordId{}, nil, false, nil
		}
		if !c.haveCounts {
			p, err := c.file.pager.FetchPage(c.file.table, c.page)
			if err != nil {
				return RecordId{}, nil, false, errors.Trace(err)
			}
			c.numSlots = p.NumSlots()
			c.haveCounts = true
		}
		if c.slot >= c.numSlots {
			c.page++
			c.slot = 0
			c.haveCounts = false
			continue
		}
		p, err := c.file.pager.FetchPage(c.file.table, c.page)
		if err != nil {
			return RecordId{}, nil, false, errors.Trace(err)
		}
		slot := page.Slot(c.slot)
		c.slot++
		if !p.IsLive(slot) {
			continue
		}
		tuple, err := p.ReadTuple(slot)
		if err != nil {
			continue
		}
		return RecordId{PageID: c.page, Slot: slot}, tuple, true, nil
	}
}
