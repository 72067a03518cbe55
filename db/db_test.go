package db

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/asky/toydb/config"
	"github.com/asky/toydb/exec"
	"github.com/asky/toydb/expr"
	"github.com/asky/toydb/pkindex"
	"github.com/asky/toydb/plan"
	"github.com/asky/toydb/value"
)

func openTestDB(t *testing.T) (*Database, config.Config) {
	t.Helper()
	cfg := config.Default(t.TempDir())
	database, err := Open(cfg)
	require.NoError(t, err)
	t.Cleanup(func() { _ = database.Close() })
	return database, cfg
}

func usersSchema(withPK bool) value.Schema {
	var pk []int
	if withPK {
		pk = []int{0}
	}
	return value.NewSchema([]value.Column{
		{Name: "id", Type: value.Int},
		{Name: "name", Type: value.Text},
	}, pk)
}

// S1: create, insert, select.
func TestCreateInsertSelect(t *testing.T) {
	database, _ := openTestDB(t)
	require.NoError(t, database.CreateTable("users", usersSchema(false)))
	tid, ok := database.TableID("users")
	require.True(t, ok)

	_, err := database.Exec(plan.Insert{TableID: tid, Rows: [][]expr.Expr{
		{expr.Literal{Value: value.NewInt(1)}, expr.Literal{Value: value.NewText("Alice")}},
		{expr.Literal{Value: value.NewInt(2)}, expr.Literal{Value: value.NewText("Bob")}},
	}})
	require.NoError(t, err)

	result, err := database.Exec(plan.SeqScan{TableID: tid})
	require.NoError(t, err)
	rows := result.(Rows)
	assert.Equal(t, []string{"id", "name"}, rows.Columns)
	require.Len(t, rows.Rows, 2)
	assert.Equal(t, int64(1), rows.Rows[0][0].AsInt())
	assert.Equal(t, "Alice", rows.Rows[0][1].AsText())
	assert.Equal(t, "Bob", rows.Rows[1][1].AsText())
}

// S2: primary-key duplicate rejection.
func TestPrimaryKeyDuplicateRejected(t *testing.T) {
	database, _ := openTestDB(t)
	require.NoError(t, database.CreateTable("t", usersSchema(true)))
	tid, _ := database.TableID("t")

	_, err := database.Exec(plan.Insert{TableID: tid, Rows: [][]expr.Expr{
		{expr.Literal{Value: value.NewInt(1)}, expr.Literal{Value: value.NewText("a")}},
	}})
	require.NoError(t, err)

	_, err = database.Exec(plan.Insert{TableID: tid, Rows: [][]expr.Expr{
		{expr.Literal{Value: value.NewInt(1)}, expr.Literal{Value: value.NewText("b")}},
	}})
	assert.ErrorIs(t, err, pkindex.ErrDuplicateKey)

	result, err := database.Exec(plan.SeqScan{TableID: tid})
	require.NoError(t, err)
	rows := result.(Rows)
	require.Len(t, rows.Rows, 1)
	assert.Equal(t, "a", rows.Rows[0][1].AsText())
}

// S3: update in place.
func TestUpdateInPlace(t *testing.T) {
	database, _ := openTestDB(t)
	schema := value.NewSchema([]value.Column{
		{Name: "id", Type: value.Int},
		{Name: "flag", Type: value.Bool},
	}, []int{0})
	require.NoError(t, database.CreateTable("t", schema))
	tid, _ := database.TableID("t")

	_, err := database.Exec(plan.Insert{TableID: tid, Rows: [][]expr.Expr{
		{expr.Literal{Value: value.NewInt(1)}, expr.Literal{Value: value.NewBool(true)}},
		{expr.Literal{Value: value.NewInt(2)}, expr.Literal{Value: value.NewBool(false)}},
	}})
	require.NoError(t, err)

	_, err = database.Exec(plan.Update{
		TableID: tid,
		Assignments: []plan.Assignment{
			{Ordinal: 1, Expr: expr.Literal{Value: value.NewBool(false)}},
		},
		Predicate: expr.Binary{Lhs: expr.Column{Ordinal: 0}, Op: expr.Eq, Rhs: expr.Literal{Value: value.NewInt(1)}},
	})
	require.NoError(t, err)

	result, err := database.Exec(plan.Project{
		Input:   plan.Filter{Input: plan.SeqScan{TableID: tid}, Predicate: expr.Binary{Lhs: expr.Column{Ordinal: 0}, Op: expr.Eq, Rhs: expr.Literal{Value: value.NewInt(1)}}},
		Columns: []int{1},
	})
	require.NoError(t, err)
	rows := result.(Rows)
	require.Len(t, rows.Rows, 1)
	assert.False(t, rows.Rows[0][0].AsBool())
}

// S4: PK-column update rejected.
func TestUpdatePrimaryKeyColumnRejected(t *testing.T) {
	database, _ := openTestDB(t)
	require.NoError(t, database.CreateTable("t", usersSchema(true)))
	tid, _ := database.TableID("t")

	_, err := database.Exec(plan.Insert{TableID: tid, Rows: [][]expr.Expr{
		{expr.Literal{Value: value.NewInt(1)}, expr.Literal{Value: value.NewText("a")}},
	}})
	require.NoError(t, err)

	_, err = database.Exec(plan.Update{
		TableID:     tid,
		Assignments: []plan.Assignment{{Ordinal: 0, Expr: expr.Literal{Value: value.NewInt(2)}}},
		Predicate:   expr.Binary{Lhs: expr.Column{Ordinal: 1}, Op: expr.Eq, Rhs: expr.Literal{Value: value.NewText("a")}},
	})
	assert.ErrorIs(t, err, exec.ErrPrimaryKeyImmutable)

	result, err := database.Exec(plan.Project{Input: plan.SeqScan{TableID: tid}, Columns: []int{0}})
	require.NoError(t, err)
	rows := result.(Rows)
	require.Len(t, rows.Rows, 1)
	assert.Equal(t, int64(1), rows.Rows[0][0].AsInt())
}

// S5: delete and reinsert.
func TestDeleteAndReinsert(t *testing.T) {
	database, _ := openTestDB(t)
	schema := value.NewSchema([]value.Column{{Name: "id", Type: value.Int}}, []int{0})
	require.NoError(t, database.CreateTable("t", schema))
	tid, _ := database.TableID("t")

	_, err := database.Exec(plan.Insert{TableID: tid, Rows: [][]expr.Expr{{expr.Literal{Value: value.NewInt(1)}}}})
	require.NoError(t, err)

	_, err = database.Exec(plan.Delete{
		TableID:   tid,
		Predicate: expr.Binary{Lhs: expr.Column{Ordinal: 0}, Op: expr.Eq, Rhs: expr.Literal{Value: value.NewInt(1)}},
	})
	require.NoError(t, err)

	_, err = database.Exec(plan.Insert{TableID: tid, Rows: [][]expr.Expr{{expr.Literal{Value: value.NewInt(1)}}}})
	require.NoError(t, err)

	result, err := database.Exec(plan.SeqScan{TableID: tid})
	require.NoError(t, err)
	rows := result.(Rows)
	require.Len(t, rows.Rows, 1)
	assert.Equal(t, int64(1), rows.Rows[0][0].AsInt())
}

// S6: crash recovery — reopening a database replays the WAL, so a
// statement whose effects are visible before a later reopen are still
// visible afterward (spec §4.4 "replay... reapplies every record").
func TestReopenReplaysWal(t *testing.T) {
	cfg := config.Default(t.TempDir())
	database, err := Open(cfg)
	require.NoError(t, err)

	require.NoError(t, database.CreateTable("t", usersSchema(true)))
	tid, _ := database.TableID("t")
	_, err = database.Exec(plan.Insert{TableID: tid, Rows: [][]expr.Expr{
		{expr.Literal{Value: value.NewInt(1)}, expr.Literal{Value: value.NewText("a")}},
		{expr.Literal{Value: value.NewInt(2)}, expr.Literal{Value: value.NewText("b")}},
	}})
	require.NoError(t, err)
	_, err = database.Exec(plan.Delete{
		TableID:   tid,
		Predicate: expr.Binary{Lhs: expr.Column{Ordinal: 0}, Op: expr.Eq, Rhs: expr.Literal{Value: value.NewInt(2)}},
	})
	require.NoError(t, err)
	require.NoError(t, database.Close())

	reopened, err := Open(cfg)
	require.NoError(t, err)
	defer reopened.Close()

	rtid, ok := reopened.TableID("t")
	require.True(t, ok)
	result, err := reopened.Exec(plan.SeqScan{TableID: rtid})
	require.NoError(t, err)
	rows := result.(Rows)
	require.Len(t, rows.Rows, 1)
	assert.Equal(t, "a", rows.Rows[0][1].AsText())
}

func TestCatalogPathUsesConfig(t *testing.T) {
	cfg := config.Default(t.TempDir())
	database, err := Open(cfg)
	require.NoError(t, err)
	defer database.Close()
	require.NoError(t, database.CreateTable("t", usersSchema(false)))

	assert.FileExists(t, filepath.Join(cfg.DataDir, cfg.CatalogFilename))
	assert.FileExists(t, cfg.WalPath())
}
