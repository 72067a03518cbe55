// Package catalog implements the table registry described in spec §3
// and §6: a name/id-indexed list of TableMeta records, persisted as
// human-readable JSON under the data directory.
//
// Registry shape (name-indexed map, AddTable/GetTable with
// case-insensitive fallback) grounded on the teacher's
// server/innodb/metadata/schema.go DatabaseSchema/Table, adapted from
// in-memory-only to JSON-file-backed per spec §6.
package catalog

import (
	"encoding/json"
	"errors"
	"os"
	"strings"
	"sync"

	"github.com/asky/toydb/value"
)

// Reserved identifiers may not be used as table names (spec §6).
const (
	ReservedCatalog = "_catalog"
	ReservedPrimary = "_primary"
)

var (
	ErrUnknownTable   = errors.New("catalog: unknown table")
	ErrReservedName   = errors.New("catalog: reserved table name")
	ErrDuplicateTable = errors.New("catalog: duplicate table name")
)

// TableMeta describes one registered table (spec §3 "TableMeta{id, name,
// schema, primary_key, storage_descriptor}"): the primary-key column
// list already lives on Schema, so it is not duplicated here.
type TableMeta struct {
	ID     uint64       `json:"id"`
	Name   string       `json:"name"`
	Schema value.Schema `json:"schema"`
}

// fileFormat is the on-disk JSON shape of the catalog file.
type fileFormat struct {
	NextID uint64      `json:"next_id"`
	Tables []TableMeta `json:"tables"`
}

// Catalog is the in-memory table registry, rebuilt on load from the
// on-disk catalog file and kept in sync with it on every mutation.
type Catalog struct {
	mu     sync.RWMutex
	path   string
	nextID uint64
	byID   map[uint64]TableMeta
	byName map[string]uint64
}

// Load reads the catalog file at path if present, or returns an empty
// catalog ready to be persisted at that path (spec §4.8 "load catalog
// file if present else create empty").
func Load(path string) (*Catalog, error) {
	c := &Catalog{
		path:   path,
		nextID: 1,
		byID:   make(map[uint64]TableMeta),
		byName: make(map[string]uint64),
	}
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return c, nil
	}
	if err != nil {
		return nil, err
	}
	var ff fileFormat
	if err := json.Unmarshal(data, &ff); err != nil {
		return nil, err
	}
	c.nextID = ff.NextID
	for _, tm := range ff.Tables {
		c.byID[tm.ID] = tm
		c.byName[strings.ToLower(tm.Name)] = tm.ID
	}
	return c, nil
}

// save persists the catalog to its backing file. Callers must hold mu.
func (c *Catalog) save() error {
	ff := fileFormat{NextID: c.nextID, Tables: make([]TableMeta, 0, len(c.byID))}
	for _, tm := range c.byID {
		ff.Tables = append(ff.Tables, tm)
	}
	data, err := json.MarshalIndent(ff, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(c.path, data, 0644)
}

// CreateTable registers a new table, persisting the catalog before
// returning. Schema is validated and the primary-key list (if any) is
// checked for well-formedness (spec §7 "Catalog — ... invalid schema,
// invalid PK column list").
func (c *Catalog) CreateTable(name string, schema value.Schema) (TableMeta, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	lower := strings.ToLower(name)
	if lower == ReservedCatalog || lower == ReservedPrimary {
		return TableMeta{}, ErrReservedName
	}
	if _, exists := c.byName[lower]; exists {
		return TableMeta{}, ErrDuplicateTable
	}
	if err := schema.Validate(); err != nil {
		return TableMeta{}, err
	}

	tm := TableMeta{ID: c.nextID, Name: name, Schema: schema}
	c.nextID++
	c.byID[tm.ID] = tm
	c.byName[lower] = tm.ID
	if err := c.save(); err != nil {
		return TableMeta{}, err
	}
	return tm, nil
}

// DropTable removes a table from the catalog.
func (c *Catalog) DropTable(name string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	lower := strings.ToLower(name)
	id, ok := c.byName[lower]
	if !ok {
		return ErrUnknownTable
	}
	delete(c.byName, lower)
	delete(c.byID, id)
	return c.save()
}

// DropByID removes a table by id, used by WAL replay of a DropTable
// record, which carries only the id.
func (c *Catalog) DropByID(id uint64) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	tm, ok := c.byID[id]
	if !ok {
		return nil
	}
	delete(c.byID, id)
	delete(c.byName, strings.ToLower(tm.Name))
	return c.save()
}

// LookupByName returns the TableMeta registered under name.
func (c *Catalog) LookupByName(name string) (TableMeta, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	id, ok := c.byName[strings.ToLower(name)]
	if !ok {
		return TableMeta{}, false
	}
	tm := c.byID[id]
	return tm, true
}

// LookupByID returns the TableMeta with the given id.
func (c *Catalog) LookupByID(id uint64) (TableMeta, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	tm, ok := c.byID[id]
	return tm, ok
}

// RestoreTable re-registers a table at a caller-supplied id and bumps
// nextID past it if needed. Used only by WAL replay of a CreateTable
// record, which already carries the id assigned the first time around
// (spec §4.4 "redo-only... idempotent").
func (c *Catalog) RestoreTable(tm TableMeta) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.byID[tm.ID] = tm
	c.byName[strings.ToLower(tm.Name)] = tm.ID
	if tm.ID >= c.nextID {
		c.nextID = tm.ID + 1
	}
	return c.save()
}

// Tables returns every registered TableMeta, in no particular order.
func (c *Catalog) Tables() []TableMeta {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]TableMeta, 0, len(c.byID))
	for _, tm := range c.byID {
		out = append(out, tm)
	}
	return out
}
