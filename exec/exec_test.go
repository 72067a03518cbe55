package exec

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/asky/toydb/catalog"
	"github.com/asky/toydb/expr"
	"github.com/asky/toydb/pkindex"
	"github.com/asky/toydb/storage/bufferpool"
	"github.com/asky/toydb/value"
	"github.com/asky/toydb/wal"
)

func newTestContext(t *testing.T) (*ExecutionContext, uint64) {
	t.Helper()
	dir := t.TempDir()
	cat, err := catalog.Load(filepath.Join(dir, "catalog.json"))
	require.NoError(t, err)
	tm, err := cat.CreateTable("t", value.NewSchema([]value.Column{
		{Name: "id", Type: value.Int},
		{Name: "name", Type: value.Text},
	}, []int{0}))
	require.NoError(t, err)

	pool := bufferpool.New(dir, 8)
	log, err := wal.Open(filepath.Join(dir, "toydb.wal"))
	require.NoError(t, err)

	ctx := NewExecutionContext(cat, pool, log, dir)
	return ctx, tm.ID
}

func runToCompletion(t *testing.T, op Operator, ctx *ExecutionContext) []*Row {
	t.Helper()
	require.NoError(t, op.Open(ctx))
	var rows []*Row
	for {
		row, err := op.Next()
		require.NoError(t, err)
		if row == nil {
			break
		}
		rows = append(rows, row)
	}
	require.NoError(t, op.Close())
	return rows
}

func TestInsertThenScan(t *testing.T) {
	ctx, tableID := newTestContext(t)

	ins := &Insert{TableID: tableID, Rows: [][]expr.Expr{
		{expr.Literal{Value: value.NewInt(1)}, expr.Literal{Value: value.NewText("Alice")}},
		{expr.Literal{Value: value.NewInt(2)}, expr.Literal{Value: value.NewText("Bob")}},
	}}
	rows := runToCompletion(t, ins, ctx)
	require.Len(t, rows, 1)
	assert.Equal(t, int64(2), rows[0].Values[0].AsInt())

	scan := &SeqScan{TableID: tableID}
	got := runToCompletion(t, scan, ctx)
	require.Len(t, got, 2)
	assert.Equal(t, "Alice", got[0].Values[1].AsText())
	assert.Equal(t, "Bob", got[1].Values[1].AsText())
}

func TestInsertDuplicateKeyRejected(t *testing.T) {
	ctx, tableID := newTestContext(t)

	ins := &Insert{TableID: tableID, Rows: [][]expr.Expr{
		{expr.Literal{Value: value.NewInt(1)}, expr.Literal{Value: value.NewText("a")}},
	}}
	_ = runToCompletion(t, ins, ctx)

	dup := &Insert{TableID: tableID, Rows: [][]expr.Expr{
		{expr.Literal{Value: value.NewInt(1)}, expr.Literal{Value: value.NewText("b")}},
	}}
	err := dup.Open(ctx)
	assert.ErrorIs(t, err, pkindex.ErrDuplicateKey)

	scan := &SeqScan{TableID: tableID}
	got := runToCompletion(t, scan, ctx)
	require.Len(t, got, 1)
	assert.Equal(t, "a", got[0].Values[1].AsText())
}

func TestFilterAndProject(t *testing.T) {
	ctx, tableID := newTestContext(t)
	ins := &Insert{TableID: tableID, Rows: [][]expr.Expr{
		{expr.Literal{Value: value.NewInt(1)}, expr.Literal{Value: value.NewText("Alice")}},
		{expr.Literal{Value: value.NewInt(2)}, expr.Literal{Value: value.NewText("Bob")}},
	}}
	_ = runToCompletion(t, ins, ctx)

	scan := &SeqScan{TableID: tableID}
	filter := &Filter{Child: scan, Predicate: expr.Binary{
		Lhs: expr.Column{Ordinal: 0}, Op: expr.Eq, Rhs: expr.Literal{Value: value.NewInt(2)},
	}}
	proj := &Project{Child: filter, Columns: []int{1}}

	got := runToCompletion(t, proj, ctx)
	require.Len(t, got, 1)
	assert.Equal(t, "Bob", got[0].Values[0].AsText())
}

func TestUpdateInPlace(t *testing.T) {
	ctx, tableID := newTestContext(t)
	ins := &Insert{TableID: tableID, Rows: [][]expr.Expr{
		{expr.Literal{Value: value.NewInt(1)}, expr.Literal{Value: value.NewText("aaaaa")}},
	}}
	_ = runToCompletion(t, ins, ctx)

	upd := &Update{
		TableID:     tableID,
		Assignments: []Assignment{{Ordinal: 1, Expr: expr.Literal{Value: value.NewText("bbbbb")}}},
		Predicate:   expr.Binary{Lhs: expr.Column{Ordinal: 0}, Op: expr.Eq, Rhs: expr.Literal{Value: value.NewInt(1)}},
	}
	rows := runToCompletion(t, upd, ctx)
	require.Len(t, rows, 1)
	assert.Equal(t, int64(1), rows[0].Values[0].AsInt())

	scan := &SeqScan{TableID: tableID}
	got := runToCompletion(t, scan, ctx)
	require.Len(t, got, 1)
	assert.Equal(t, "bbbbb", got[0].Values[1].AsText())
}

func TestUpdatePrimaryKeyColumnRejected(t *testing.T) {
	ctx, tableID := newTestContext(t)
	ins := &Insert{TableID: tableID, Rows: [][]expr.Expr{
		{expr.Literal{Value: value.NewInt(1)}, expr.Literal{Value: value.NewText("a")}},
	}}
	_ = runToCompletion(t, ins, ctx)

	upd := &Update{
		TableID:     tableID,
		Assignments: []Assignment{{Ordinal: 0, Expr: expr.Literal{Value: value.NewInt(2)}}},
	}
	err := upd.Open(ctx)
	assert.ErrorIs(t, err, ErrPrimaryKeyImmutable)
}

func TestDeleteAndReinsert(t *testing.T) {
	ctx, tableID := newTestContext(t)
	ins := &Insert{TableID: tableID, Rows: [][]expr.Expr{
		{expr.Literal{Value: value.NewInt(1)}, expr.Literal{Value: value.NewText("a")}},
	}}
	_ = runToCompletion(t, ins, ctx)

	del := &Delete{
		TableID:   tableID,
		Predicate: expr.Binary{Lhs: expr.Column{Ordinal: 0}, Op: expr.Eq, Rhs: expr.Literal{Value: value.NewInt(1)}},
	}
	_ = runToCompletion(t, del, ctx)

	reins := &Insert{TableID: tableID, Rows: [][]expr.Expr{
		{expr.Literal{Value: value.NewInt(1)}, expr.Literal{Value: value.NewText("a-again")}},
	}}
	_ = runToCompletion(t, reins, ctx)

	scan := &SeqScan{TableID: tableID}
	got := runToCompletion(t, scan, ctx)
	require.Len(t, got, 1)
	assert.Equal(t, "a-again", got[0].Values[1].AsText())
}
