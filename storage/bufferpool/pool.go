// Package bufferpool implements the buffer pool (pager) described in
// spec §4.3: a bounded, strict-LRU cache of pages over per-table heap
// files, with dirty-page writeback on eviction and on explicit Flush.
//
// Grounded on server/innodb/buffer_pool/buffer_lru.go's LRUCacheImpl,
// simplified from its young/old scan-resistant split (an InnoDB-specific
// refinement out of spec's scope) down to the single strict LRU list
// spec §4.3 asks for, using the same container/list + map shape.
package bufferpool

import (
	"container/list"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	log "github.com/sirupsen/logrus"

	"github.com/asky/toydb/storage/page"
)

// DefaultCapacity is the default number of cached pages (spec §6).
const DefaultCapacity = 256

type cacheKey struct {
	table  string
	pageID uint64
}

type entry struct {
	key   cacheKey
	page  *page.Page
	dirty bool
}

// Pool is a bounded LRU page cache backed by one file per table. Pool is
// not safe for concurrent use without external synchronization; the
// single-writer discipline (spec §5) is enforced by the caller (db.Database).
type Pool struct {
	mu       sync.Mutex
	dataDir  string
	capacity int

	items map[cacheKey]*list.Element
	order *list.List // front = most recently used

	files map[string]*os.File

	stats
}

// New returns a Pool rooted at dataDir with the given page capacity. A
// capacity <= 0 uses DefaultCapacity.
func New(dataDir string, capacity int) *Pool {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Pool{
		dataDir:  dataDir,
		capacity: capacity,
		items:    make(map[cacheKey]*list.Element),
		order:    list.New(),
		files:    make(map[string]*os.File),
	}
}

func (p *Pool) filePath(table string) string {
	return filepath.Join(p.dataDir, table)
}

func (p *Pool) file(table string) (*os.File, error) {
	if f, ok := p.files[table]; ok {
		return f, nil
	}
	f, err := os.OpenFile(p.filePath(table), os.O_RDWR|os.O_CREATE, 0644)
	if err != nil {
		return nil, wrap("open", err)
	}
	p.files[table] = f
	return f, nil
}

// NumPages returns the table's current page count, derived from the
// backing file's length (spec §4.2/§4.3).
func (p *Pool) NumPages(table string) (uint64, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	f, err := p.file(table)
	if err != nil {
		return 0, err
	}
	info, err := f.Stat()
	if err != nil {
		return 0, wrap("stat", err)
	}
	return uint64(info.Size()) / page.Size, nil
}

// FetchPage returns the in-memory page, reading from disk on a cache
// miss and evicting the LRU victim (writing it back first if dirty) when
// the pool is at capacity.
func (p *Pool) FetchPage(table string, pageID uint64) (*page.Page, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	key := cacheKey{table: table, pageID: pageID}
	if el, ok := p.items[key]; ok {
		p.order.MoveToFront(el)
		p.stats.incrHit()
		return el.Value.(*entry).page, nil
	}
	p.stats.incrMiss()

	f, err := p.file(table)
	if err != nil {
		return nil, err
	}
	buf := make([]byte, page.Size)
	if _, err := f.ReadAt(buf, int64(pageID)*page.Size); err != nil {
		return nil, wrap("read", err)
	}
	pg, err := page.FromBytes(pageID, buf)
	if err != nil {
		return nil, wrap("decode", err)
	}
	p.insert(key, pg, false)
	log.WithFields(log.Fields{"table": table, "page": pageID}).Debug("bufferpool: fetched page from disk")
	return pg, nil
}

// AllocatePage computes the next page ID from the file's current length,
// writes a freshly initialized page through to disk immediately (so the
// file length reflects the allocation), and caches it as MRU.
func (p *Pool) AllocatePage(table string) (*page.Page, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	f, err := p.file(table)
	if err != nil {
		return nil, err
	}
	info, err := f.Stat()
	if err != nil {
		return nil, wrap("stat", err)
	}
	id := uint64(info.Size()) / page.Size
	pg := page.New(id)
	if _, err := f.WriteAt(pg.Bytes(), int64(id)*page.Size); err != nil {
		return nil, wrap("write", err)
	}
	p.insert(cacheKey{table: table, pageID: id}, pg, false)
	log.WithFields(log.Fields{"table": table, "page": id}).Debug("bufferpool: allocated page")
	return pg, nil
}

// MarkDirty flags the cached page as needing writeback. Callers must
// invoke this after any in-place mutation of a page handed out by
// FetchPage/AllocatePage (spec §4.3).
func (p *Pool) MarkDirty(table string, pageID uint64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	key := cacheKey{table: table, pageID: pageID}
	if el, ok := p.items[key]; ok {
		el.Value.(*entry).dirty = true
	}
}

// Flush writes all dirty pages to their backing files and clears dirty
// flags. Does not fsync; callers needing durability on the data file
// must request it separately (WAL fsync covers DML/DDL durability).
func (p *Pool) Flush() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	for el := p.order.Front(); el != nil; el = el.Next() {
		e := el.Value.(*entry)
		if !e.dirty {
			continue
		}
		if err := p.writeBack(e); err != nil {
			return err
		}
		e.dirty = false
	}
	return nil
}

// Close flushes dirty pages and closes all backing files.
func (p *Pool) Close() error {
	if err := p.Flush(); err != nil {
		return err
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, f := range p.files {
		if err := f.Close(); err != nil {
			return wrap("close", err)
		}
	}
	return nil
}

// Stats returns a snapshot of hit/miss counters.
func (p *Pool) Stats() (hits, misses uint64, hitRate float64) {
	return p.stats.HitCount(), p.stats.MissCount(), p.stats.HitRate()
}

func (p *Pool) insert(key cacheKey, pg *page.Page, dirty bool) {
	if el, ok := p.items[key]; ok {
		el.Value.(*entry).page = pg
		el.Value.(*entry).dirty = dirty
		p.order.MoveToFront(el)
		return
	}
	e := &entry{key: key, page: pg, dirty: dirty}
	el := p.order.PushFront(e)
	p.items[key] = el
	if p.order.Len() > p.capacity {
		p.evictLRU()
	}
}

func (p *Pool) evictLRU() {
	el := p.order.Back()
	if el == nil {
		return
	}
	e := el.Value.(*entry)
	if e.dirty {
		if err := p.writeBack(e); err != nil {
			log.WithError(err).WithField("table", e.key.table).Warn("bufferpool: eviction writeback failed")
		}
	}
	p.order.Remove(el)
	delete(p.items, e.key)
}

func (p *Pool) writeBack(e *entry) error {
	f, err := p.file(e.key.table)
	if err != nil {
		return err
	}
	if _, err := f.WriteAt(e.page.Bytes(), int64(e.key.pageID)*page.Size); err != nil {
		return wrap("write", err)
	}
	return nil
}

var _ fmt.Stringer = (*Pool)(nil)

// String renders a short diagnostic summary (SUPPLEMENTED FEATURES #3).
func (p *Pool) String() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return fmt.Sprintf("bufferpool(cap=%d, cached=%d, hitRate=%.2f)", p.capacity, p.order.Len(), p.stats.HitRate())
}
