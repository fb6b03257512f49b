package cache

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/lookout/internal/model"
)

func TestMemo_GetPut(t *testing.T) {
	m := NewMemo[string]()

	_, ok := m.Get("k")
	assert.False(t, ok)

	m.Put("k", "v1")
	v, ok := m.Get("k")
	require.True(t, ok)
	assert.Equal(t, "v1", v)

	// Last write wins.
	m.Put("k", "v2")
	v, _ = m.Get("k")
	assert.Equal(t, "v2", v)
	assert.Equal(t, 1, m.Len())
}

func TestMemo_EmptyValueIsAHit(t *testing.T) {
	// An empty committed slice must count as present, so a page known
	// to yield nothing is not refetched.
	m := NewMemo[[]model.Insight]()
	m.Put("https://example.com", nil)

	v, ok := m.Get("https://example.com")
	assert.True(t, ok)
	assert.Empty(t, v)
}

func TestMemo_Stats(t *testing.T) {
	m := NewMemo[int]()
	m.Put("a", 1)

	m.Get("a")
	m.Get("a")
	m.Get("missing")

	s := m.Stats()
	assert.Equal(t, 1, s.Entries)
	assert.Equal(t, int64(2), s.Hits)
	assert.Equal(t, int64(1), s.Misses)
}

func TestMemo_ConcurrentAccess(t *testing.T) {
	m := NewMemo[int]()
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		i := i
		wg.Add(1)
		go func() {
			defer wg.Done()
			m.Put("shared", i)
			m.Get("shared")
		}()
	}
	wg.Wait()

	_, ok := m.Get("shared")
	assert.True(t, ok)
	assert.Equal(t, 1, m.Len())
}

func TestTiers_Independent(t *testing.T) {
	tiers := NewTiers()

	tiers.Term.Put("acme", &model.Resolution{Query: "acme", Kind: model.KindKeyword})
	tiers.Identifier.Put("11222333000181", &model.Resolution{Query: "11222333000181", Kind: model.KindCNPJLookup})

	// Same key string never crosses tiers.
	_, ok := tiers.Identifier.Get("acme")
	assert.False(t, ok)
	_, ok = tiers.Term.Get("11222333000181")
	assert.False(t, ok)

	stats := tiers.Stats()
	assert.Equal(t, 1, stats.Term.Entries)
	assert.Equal(t, 1, stats.Identifier.Entries)
	assert.Equal(t, 0, stats.TermInsights.Entries)
	assert.Equal(t, 0, stats.PageInsights.Entries)
}
