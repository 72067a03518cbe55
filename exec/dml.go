package exec

import (
	"github.com/juju/errors"
	"github.com/sirupsen/logrus"

	"github.com/asky/toydb/expr"
	"github.com/asky/toydb/pkindex"
	"github.com/asky/toydb/value"
	"github.com/asky/toydb/wal"
)

// Assignment sets column Ordinal to whatever Expr evaluates to, against
// the row being updated.
type Assignment struct {
	Ordinal int
	Expr    expr.Expr
}

// Insert materializes each row of Rows (literal expressions, evaluated
// against an empty row) into TableID (spec §4.7.4).
//
// Ordering follows the reference's chosen strategy for the
// insert-ordering hazard (spec §9): heap insert first to obtain the
// RID, then WAL append+sync, then PK index insert. Replay is safe
// because a re-applied insert lands at the same RID without
// duplicating the row (spec §4.7.4 step 2).
type Insert struct {
	TableID uint64
	Rows    [][]expr.Expr

	affected uint64
	done     bool
}

func (in *Insert) Open(ctx *ExecutionContext) error {
	tm, ok := ctx.Catalog.LookupByID(in.TableID)
	if !ok {
		return errors.Errorf("exec: unknown table id %d", in.TableID)
	}

	var idx *pkindex.Index
	if tm.Schema.HasPrimaryKey() {
		var err error
		idx, err = ctx.PKIndex(in.TableID)
		if err != nil {
			return errors.Trace(err)
		}
	}
	h := ctx.Heap(in.TableID)

	for _, rowExprs := range in.Rows {
		vals := make(value.Row, len(rowExprs))
		for i, e := range rowExprs {
			v, err := e.Eval(value.Row{})
			if err != nil {
				return errors.Trace(err)
			}
			vals[i] = v
		}

		var key value.Row
		if tm.Schema.HasPrimaryKey() {
			key = tm.Schema.ExtractKey(vals)
			if idx.Contains(key) {
				return pkindex.ErrDuplicateKey
			}
		}

		rid, err := h.Insert(value.Encode(vals))
		if err != nil {
			return errors.Trace(err)
		}
		if err := ctx.Wal.Append(wal.Insert{TableID: in.TableID, Row: vals, RID: rid}); err != nil {
			return errors.Trace(err)
		}
		if err := ctx.Wal.Sync(); err != nil {
			return errors.Trace(err)
		}
		if tm.Schema.HasPrimaryKey() {
			if err := idx.Insert(key, rid); err != nil {
				return errors.Trace(err)
			}
		}
		in.affected++
	}
	return nil
}

func (in *Insert) Next() (*Row, error) {
	if in.done {
		return nil, nil
	}
	in.done = true
	return &Row{Values: value.Row{value.NewInt(int64(in.affected))}}, nil
}

func (in *Insert) Close() error { return nil }

func (in *Insert) Schema() value.Schema { return countSchema }

// Update applies Assignments to every row of TableID matching Predicate
// (nil matches every row), via an internal scan+filter pipeline (spec
// §4.7.5).
type Update struct {
	TableID     uint64
	Assignments []Assignment
	Predicate   expr.Expr

	affected uint64
	done     bool
}

func (u *Update) Open(ctx *ExecutionContext) error {
	tm, ok := ctx.Catalog.LookupByID(u.TableID)
	if !ok {
		return errors.Errorf("exec: unknown table id %d", u.TableID)
	}
	for _, a := range u.Assignments {
		if tm.Schema.IsPrimaryKeyColumn(a.Ordinal) {
			return ErrPrimaryKeyImmutable
		}
	}

	var idx *pkindex.Index
	if tm.Schema.HasPrimaryKey() {
		var err error
		idx, err = ctx.PKIndex(u.TableID)
		if err != nil {
			return errors.Trace(err)
		}
	}
	h := ctx.Heap(u.TableID)

	src, err := u.buildSource(ctx)
	if err != nil {
		return errors.Trace(err)
	}
	defer src.Close()

	for {
		row, err := src.Next()
		if err != nil {
			return errors.Trace(err)
		}
		if row == nil {
			break
		}

		newVals := row.Values.Clone()
		for _, a := range u.Assignments {
			v, err := a.Expr.Eval(row.Values)
			if err != nil {
				return errors.Trace(err)
			}
			newVals[a.Ordinal] = v
		}

		if err := ctx.Wal.Append(wal.Update{TableID: u.TableID, RID: row.RID, NewRow: newVals}); err != nil {
			return errors.Trace(err)
		}
		if err := ctx.Wal.Sync(); err != nil {
			return errors.Trace(err)
		}

		oldEncoded := value.Encode(row.Values)
		newEncoded := value.Encode(newVals)
		if len(newEncoded) == len(oldEncoded) {
			if err := h.Update(row.RID, newEncoded); err != nil {
				return errors.Trace(err)
			}
		} else {
			if err := h.Delete(row.RID); err != nil {
				return errors.Trace(err)
			}
			newRID, err := h.Insert(newEncoded)
			if err != nil {
				return errors.Trace(err)
			}
			if idx != nil {
				key := tm.Schema.ExtractKey(newVals)
				idx.Update(key, newRID)
			}
		}
		u.affected++
	}
	return nil
}

func (u *Update) buildSource(ctx *ExecutionContext) (Operator, error) {
	var src Operator = &SeqScan{TableID: u.TableID}
	if u.Predicate != nil {
		src = &Filter{Child: src, Predicate: u.Predicate}
	}
	if err := src.Open(ctx); err != nil {
		return nil, err
	}
	return src, nil
}

func (u *Update) Next() (*Row, error) {
	if u.done {
		return nil, nil
	}
	u.done = true
	return &Row{Values: value.Row{value.NewInt(int64(u.affected))}}, nil
}

func (u *Update) Close() error { return nil }

func (u *Update) Schema() value.Schema { return countSchema }

// Delete removes every row of TableID matching Predicate (nil matches
// every row) (spec §4.7.6).
type Delete struct {
	TableID   uint64
	Predicate expr.Expr

	affected uint64
	done     bool
}

func (d *Delete) Open(ctx *ExecutionContext) error {
	tm, ok := ctx.Catalog.LookupByID(d.TableID)
	if !ok {
		return errors.Errorf("exec: unknown table id %d", d.TableID)
	}

	var idx *pkindex.Index
	if tm.Schema.HasPrimaryKey() {
		var err error
		idx, err = ctx.PKIndex(d.TableID)
		if err != nil {
			return errors.Trace(err)
		}
	}
	h := ctx.Heap(d.TableID)

	var src Operator = &SeqScan{TableID: d.TableID}
	if d.Predicate != nil {
		src = &Filter{Child: src, Predicate: d.Predicate}
	}
	if err := src.Open(ctx); err != nil {
		return errors.Trace(err)
	}
	defer src.Close()

	for {
		row, err := src.Next()
		if err != nil {
			return errors.Trace(err)
		}
		if row == nil {
			break
		}

		if err := ctx.Wal.Append(wal.Delete{TableID: d.TableID, RID: row.RID}); err != nil {
			return errors.Trace(err)
		}
		if err := ctx.Wal.Sync(); err != nil {
			return errors.Trace(err)
		}
		if err := h.Delete(row.RID); err != nil {
			return errors.Trace(err)
		}
		if idx != nil {
			key := tm.Schema.ExtractKey(row.Values)
			idx.Remove(key)
		}
		d.affected++
	}
	logrus.WithField("table_id", d.TableID).WithField("affected", d.affected).Debug("exec: delete complete")
	return nil
}

func (d *Delete) Next() (*Row, error) {
	if d.done {
		return nil, nil
	}
	d.done = true
	return &Row{Values: value.Row{value.NewInt(int64(d.affected))}}, nil
}

func (d *Delete) Close() error { return nil }

func (d *Delete) Schema() value.Schema { return countSchema }
