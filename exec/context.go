// Package exec implements the Volcano-style pull operators described in
// spec §4.7: SeqScan, Filter, Project, Insert, Update, Delete, each
// exposing Open/Next/Close and composing by owning a child operator.
//
// Operator interface and child-delegation shape grounded on the
// teacher's server/innodb/engine/volcano_executor.go (Operator
// interface, BaseOperator) and engine/cursor.go (baseCursor,
// juju/errors.Trace propagation). The RID-flows-through-pipeline design
// for Update/Delete follows spec §9's corrected-design note.
package exec

import (
	"strconv"
	"sync"

	"github.com/juju/errors"
	"github.com/sirupsen/logrus"

	"github.com/asky/toydb/catalog"
	"github.com/asky/toydb/pkindex"
	"github.com/asky/toydb/storage/bufferpool"
	"github.com/asky/toydb/storage/heap"
	"github.com/asky/toydb/value"
	"github.com/asky/toydb/wal"
)

// ExecutionContext is the single mediator threaded through every
// operator's Open/Next/Close (spec §4.7.7): it bundles the catalog, the
// pager, the WAL, and a lazily-populated per-table PK index map.
// Operators reach storage only through it. It hands out the heap files
// and the WAL but does not itself order their use: Update and Delete
// append and sync the WAL before touching the heap, while Insert writes
// the heap first to learn the RecordId and then appends and syncs.
type ExecutionContext struct {
	Catalog *catalog.Catalog
	Pager   *bufferpool.Pool
	Wal     *wal.Log
	DataDir string

	mu      sync.Mutex
	indexes map[uint64]*pkindex.Index
	heaps   map[uint64]*heap.File
}

// NewExecutionContext wires a fresh context over an already-open
// catalog, pager and WAL.
func NewExecutionContext(cat *catalog.Catalog, pager *bufferpool.Pool, log *wal.Log, dataDir string) *ExecutionContext {
	return &ExecutionContext{
		Catalog: cat,
		Pager:   pager,
		Wal:     log,
		DataDir: dataDir,
		indexes: make(map[uint64]*pkindex.Index),
		heaps:   make(map[uint64]*heap.File),
	}
}

// HeapName is the on-disk/pager key for a table's heap file (spec §6
// "table_{id}.tbl").
func HeapName(tableID uint64) string {
	return "table_" + strconv.FormatUint(tableID, 10)
}

// Heap returns (opening if necessary) the heap.File for tableID.
func (c *ExecutionContext) Heap(tableID uint64) *heap.File {
	c.mu.Lock()
	defer c.mu.Unlock()
	if h, ok := c.heaps[tableID]; ok {
		return h
	}
	h := heap.Open(HeapName(tableID), c.Pager)
	c.heaps[tableID] = h
	return h
}

// PKIndex returns (building if necessary, by a full heap scan) the
// in-memory primary-key index for tableID. Tables without a primary
// key still get an (empty, unused) index for uniformity.
func (c *ExecutionContext) PKIndex(tableID uint64) (*pkindex.Index, error) {
	c.mu.Lock()
	if idx, ok := c.indexes[tableID]; ok {
		c.mu.Unlock()
		return idx, nil
	}
	c.mu.Unlock()

	tm, ok := c.Catalog.LookupByID(tableID)
	if !ok {
		return nil, errors.Errorf("exec: unknown table id %d", tableID)
	}
	idx := pkindex.New()
	if tm.Schema.HasPrimaryKey() {
		h := c.Heap(tableID)
		cur, err := h.NewCursor()
		if err != nil {
			return nil, errors.Trace(err)
		}
		ncols := len(tm.Schema.Columns)
		for {
			rid, tuple, ok, err := cur.Next()
			if err != nil {
				return nil, errors.Trace(err)
			}
			if !ok {
				break
			}
			row, err := value.Decode(tuple, ncols)
			if err != nil {
				return nil, errors.Trace(err)
			}
			key := tm.Schema.ExtractKey(row)
			if err := idx.Insert(key, rid); err != nil {
				logrus.WithField("table_id", tableID).Warn("exec: duplicate key found rebuilding PK index, keeping first")
			}
		}
	}

	c.mu.Lock()
	c.indexes[tableID] = idx
	c.mu.Unlock()
	return idx, nil
}
