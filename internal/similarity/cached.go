package similarity

import (
	"sync/atomic"

	"github.com/ppiankov/dupdetect/internal/cache"
)

// CachedScorer memoizes another scorer's results by normalized pair.
// Ticket exports repeat the same short descriptions heavily, and the rapid-fire
// windows rescore pairs the primary matcher already scored.
type CachedScorer struct {
	inner  Scorer
	cache  cache.Cache
	hits   atomic.Int64
	misses atomic.Int64
}

// NewCachedScorer wraps inner with the given cache
func NewCachedScorer(inner Scorer, c cache.Cache) *CachedScorer {
	return &CachedScorer{inner: inner, cache: c}
}

// Backend returns the wrapped scorer's backend
func (s *CachedScorer) Backend() string {
	return s.inner.Backend()
}

// Score returns the cached score for the pair, computing it on a miss
func (s *CachedScorer) Score(a, b string) int {
	na, nb := Normalize(a), Normalize(b)
	if na == "" || nb == "" {
		return 0
	}

	key := cache.PairKey(s.inner.Backend(), na, nb)
	if score, ok := s.cache.Get(key); ok {
		s.hits.Add(1)
		return score
	}

	s.misses.Add(1)
	score := s.inner.Score(na, nb)
	s.cache.Set(key, score)
	return score
}

// Stats returns the cache hit and miss counts
func (s *CachedScorer) Stats() (hits, misses int64) {
	return s.hits.Load(), s.misses.Load()
}
