package bufferpool

import "sync/atomic"

// stats tracks cache hit/miss counters, grounded on the
// statsAccessor/stats pair in server/innodb/buffer_pool/buffer_lru.go.
// Exposed read-only for observability; the pager never consults it for
// correctness (SPEC_FULL.md "Buffer pool statistics").
type stats struct {
	hits   uint64
	misses uint64
}

func (s *stats) incrHit()  { atomic.AddUint64(&s.hits, 1) }
func (s *stats) incrMiss() { atomic.AddUint64(&s.misses, 1) }

// HitCount returns the number of fetches served from cache.
func (s *stats) HitCount() uint64 { return atomic.LoadUint64(&s.hits) }

// MissCount returns the number of fetches that required a disk read.
func (s *stats) MissCount() uint64 { return atomic.LoadUint64(&s.misses) }

// HitRate returns HitCount/(HitCount+MissCount), or 0 with no lookups yet.
func (s *stats) HitRate() float64 {
	h, m := s.HitCount(), s.MissCount()
	total := h + m
	if total == 0 {
		return 0
	}
	return float64(h) / float64(total)
}
