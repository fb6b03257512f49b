// Package cache provides the process-lifetime memoization tables backing
// the resolver. Entries are committed once per key and never evicted or
// expired; bounding is a deployment concern, not this layer's.
package cache

import (
	"sync"
	"sync/atomic"

	"github.com/sells-group/lookout/internal/model"
)

// Memo is a concurrent-safe key→value memo table. Put has
// last-write-wins overwrite semantics, though in practice each key is
// written at most once.
type Memo[V any] struct {
	mu      sync.RWMutex
	entries map[string]V
	hits    atomic.Int64
	misses  atomic.Int64
}

// NewMemo creates an empty memo table.
func NewMemo[V any]() *Memo[V] {
	return &Memo[V]{entries: make(map[string]V)}
}

// Get retrieves the committed value for key.
func (m *Memo[V]) Get(key string) (V, bool) {
	m.mu.RLock()
	v, ok := m.entries[key]
	m.mu.RUnlock()
	if ok {
		m.hits.Add(1)
	} else {
		m.misses.Add(1)
	}
	return v, ok
}

// Put commits a value for key.
func (m *Memo[V]) Put(key string, v V) {
	m.mu.Lock()
	m.entries[key] = v
	m.mu.Unlock()
}

// Len returns the number of committed entries.
func (m *Memo[V]) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.entries)
}

// Stats contains one table's memoization counters.
type Stats struct {
	Entries int   `json:"entries"`
	Hits    int64 `json:"hits"`
	Misses  int64 `json:"misses"`
}

// Stats returns a snapshot of the table's counters.
func (m *Memo[V]) Stats() Stats {
	return Stats{
		Entries: m.Len(),
		Hits:    m.hits.Load(),
		Misses:  m.misses.Load(),
	}
}

// TermInsights is the aggregated bundle for one free-text term: the
// search results plus every derived insight, cached as a unit.
type TermInsights struct {
	Results  []model.SearchResult `json:"results"`
	Insights []model.Insight      `json:"insights"`
}

// Tiers bundles the four independent memo tables. Constructed once at
// startup and passed by handle into the resolver; no package-level
// state. Only successful (or successfully-empty) derivations are
// committed; failures are retried on the next request.
type Tiers struct {
	// TermInsights memoizes term → aggregated search+insight bundle.
	TermInsights *Memo[*TermInsights]
	// PageInsights memoizes page URL → derived insights. Empty slices
	// are committed too, so a page known to yield nothing is not
	// refetched.
	PageInsights *Memo[[]model.Insight]
	// Identifier memoizes CNPJ → full identifier-path resolution.
	Identifier *Memo[*model.Resolution]
	// Term memoizes term → full free-text-path resolution.
	Term *Memo[*model.Resolution]
}

// NewTiers creates the four empty tables.
func NewTiers() *Tiers {
	return &Tiers{
		TermInsights: NewMemo[*TermInsights](),
		PageInsights: NewMemo[[]model.Insight](),
		Identifier:   NewMemo[*model.Resolution](),
		Term:         NewMemo[*model.Resolution](),
	}
}

// TierStats is the per-tier counter snapshot served by /cache/stats.
type TierStats struct {
	TermInsights Stats `json:"term_insights"`
	PageInsights Stats `json:"page_insights"`
	Identifier   Stats `json:"identifier"`
	Term         Stats `json:"term"`
}

// Stats snapshots all four tables.
func (t *Tiers) Stats() TierStats {
	return TierStats{
		TermInsights: t.TermInsights.Stats(),
		PageInsights: t.PageInsights.Stats(),
		Identifier:   t.Identifier.Stats(),
		Term:         t.Term.Stats(),
	}
}
