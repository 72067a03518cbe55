package exec

import (
	"fmt"

	"github.com/juju/errors"

	"github.com/asky/toydb/expr"
	"github.com/asky/toydb/storage/heap"
	"github.com/asky/toydb/value"
)

// Row is one row flowing through an operator pipeline, carrying the
// RecordId it was read from so that Update/Delete can mutate storage at
// that address without re-resolving it (spec §9 "RIDs flow from scans
// through filters to modify operators").
type Row struct {
	Values value.Row
	RID    heap.RecordId
}

// Operator is the pull-based lifecycle every node in an operator tree
// implements (spec §4.7): open() -> next() -> ... -> next() = nil ->
// close(). Next returns (nil, nil) at end of stream.
type Operator interface {
	Open(ctx *ExecutionContext) error
	Next() (*Row, error)
	Close() error
	Schema() value.Schema
}

// countSchema is the single-column synthetic schema Insert/Update/Delete
// report their affected-row count through.
var countSchema = value.NewSchema([]value.Column{{Name: "affected", Type: value.Int}}, nil)

// SeqScan reads every live row of a table in page-order, slot-order
// (spec §4.7.1).
type SeqScan struct {
	TableID uint64

	schema value.Schema
	cursor *heap.Cursor
}

func (s *SeqScan) Open(ctx *ExecutionContext) error {
	tm, ok := ctx.Catalog.LookupByID(s.TableID)
	if !ok {
		return errors.Errorf("exec: unknown table id %d", s.TableID)
	}
	s.schema = tm.Schema
	cur, err := ctx.Heap(s.TableID).NewCursor()
	if err != nil {
		return errors.Trace(err)
	}
	s.cursor = cur
	return nil
}

func (s *SeqScan) Next() (*Row, error) {
	rid, tuple, ok, err := s.cursor.Next()
	if err != nil {
		return nil, errors.Trace(err)
	}
	if !ok {
		return nil, nil
	}
	row, err := value.Decode(tuple, len(s.schema.Columns))
	if err != nil {
		return nil, errors.Trace(err)
	}
	return &Row{Values: row, RID: rid}, nil
}

func (s *SeqScan) Close() error { return nil }

func (s *SeqScan) Schema() value.Schema { return s.schema }

// Filter owns a child and a resolved predicate (spec §4.7.2).
type Filter struct {
	Child     Operator
	Predicate expr.Expr
}

func (f *Filter) Open(ctx *ExecutionContext) error { return f.Child.Open(ctx) }

func (f *Filter) Next() (*Row, error) {
	for {
		row, err := f.Child.Next()
		if err != nil {
			return nil, err
		}
		if row == nil {
			return nil, nil
		}
		ok, err := expr.Matches(f.Predicate, row.Values)
		if err != nil {
			return nil, err
		}
		if ok {
			return row, nil
		}
	}
}

func (f *Filter) Close() error { return f.Child.Close() }

func (f *Filter) Schema() value.Schema { return f.Child.Schema() }

// Project owns a child and a list of output column ordinals (spec
// §4.7.3).
type Project struct {
	Child   Operator
	Columns []int

	schema value.Schema
}

func (p *Project) Open(ctx *ExecutionContext) error {
	if err := p.Child.Open(ctx); err != nil {
		return err
	}
	childSchema := p.Child.Schema()
	cols := make([]value.Column, len(p.Columns))
	for i, ord := range p.Columns {
		if ord < 0 || ord >= len(childSchema.Columns) {
			return fmt.Errorf("exec: project column ordinal %d out of bounds", ord)
		}
		cols[i] = childSchema.Columns[ord]
	}
	p.schema = value.Schema{Columns: cols}
	return nil
}

func (p *Project) Next() (*Row, error) {
	row, err := p.Child.Next()
	if err != nil {
		return nil, err
	}
	if row == nil {
		return nil, nil
	}
	out := make(value.Row, len(p.Columns))
	for i, ord := range p.Columns {
		out[i] = row.Values[ord]
	}
	return &Row{Values: out, RID: row.RID}, nil
}

func (p *Project) Close() error { return p.Child.Close() }

func (p *Project) Schema() value.Schema { return p.schema }
