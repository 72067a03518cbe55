// Package wal implements the write-ahead log described in spec §4.4: a
// single append-only, length-prefixed file of redo-only records, replayed
// from the start on every open.
//
// Framing is grounded on the open/validate-header/append flow in
// other_examples/Jipok-go-persist's wal.go; the record variant shapes are
// grounded on the teacher's per-kind log-record structs in
// server/innodb/innodb_store/store/storebytes/logs/redo_log_block.go,
// adapted to the logical (non-InnoDB-physical) records spec §3 defines.
package wal

import (
	"github.com/asky/toydb/storage/heap"
	"github.com/asky/toydb/value"
)

// Kind tags a WalRecord variant.
type Kind byte

const (
	KindInsert Kind = iota + 1
	KindUpdate
	KindDelete
	KindCreateTable
	KindDropTable
)

// Record is the logical, redo-only WAL record (spec §3 "WAL record").
type Record interface {
	Kind() Kind
}

// Insert records that row was (or is about to be) placed at RID in
// TableID's heap file.
type Insert struct {
	TableID uint64
	Row     value.Row
	RID     heap.RecordId
}

func (Insert) Kind() Kind { return KindInsert }

// Update records that the row at RID in TableID was replaced by NewRow.
type Update struct {
	TableID uint64
	RID     heap.RecordId
	NewRow  value.Row
}

func (Update) Kind() Kind { return KindUpdate }

// Delete records that the row at RID in TableID was removed.
type Delete struct {
	TableID uint64
	RID     heap.RecordId
}

func (Delete) Kind() Kind { return KindDelete }

// CreateTable records a DDL table creation. Schema.PrimaryKey carries the
// optional primary-key column list (spec §3 "Schema").
type CreateTable struct {
	TableID uint64
	Name    string
	Schema  value.Schema
}

func (CreateTable) Kind() Kind { return KindCreateTable }

// DropTable records a DDL table drop.
type DropTable struct {
	TableID uint64
}

func (DropTable) Kind() Kind { return KindDropTable }
