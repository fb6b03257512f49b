// Package insight derives typed findings from search results and
// fetched pages, and aggregates them per free-text term.
package insight

import (
	"context"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/sells-group/lookout/internal/cache"
	"github.com/sells-group/lookout/internal/metrics"
	"github.com/sells-group/lookout/internal/model"
	"github.com/sells-group/lookout/internal/search"
)

const defaultMaxConcurrentPages = 5

// Aggregator merges one search call's inline insights with per-result
// page insights, memoized on the term-insight and page-insight cache
// tiers.
type Aggregator struct {
	tiers    *cache.Tiers
	search   search.Client
	pages    Extractor
	metrics  *metrics.Metrics
	maxPages int
}

// NewAggregator creates an Aggregator. maxConcurrentPages bounds the
// page-fetch fan-out; <=0 uses the default.
func NewAggregator(tiers *cache.Tiers, sc search.Client, ex Extractor, m *metrics.Metrics, maxConcurrentPages int) *Aggregator {
	if maxConcurrentPages <= 0 {
		maxConcurrentPages = defaultMaxConcurrentPages
	}
	return &Aggregator{
		tiers:    tiers,
		search:   sc,
		pages:    ex,
		metrics:  m,
		maxPages: maxConcurrentPages,
	}
}

// ForTerm returns the aggregated bundle for one term: the capped search
// results, the search call's inline insights, then per-page insights in
// result-discovery order. Distinct pages are fetched concurrently and
// each page's insights (even an empty set) commit to the page-insight
// tier; the combined bundle commits to the term-insight tier only after
// every page fetch settles. A search failure is returned for the caller
// to surface; page failures degrade to empty contributions inside the
// extractor.
func (a *Aggregator) ForTerm(ctx context.Context, term string) (*cache.TermInsights, error) {
	if bundle, ok := a.tiers.TermInsights.Get(term); ok {
		a.metrics.CacheHits.WithLabelValues("term_insights").Inc()
		return bundle, nil
	}
	a.metrics.CacheMisses.WithLabelValues("term_insights").Inc()

	resp, err := a.search.Search(ctx, term)
	if err != nil {
		return nil, eris.Wrapf(err, "insight: search for term %q", term)
	}

	insights := make([]model.Insight, 0, len(resp.Insights))
	insights = append(insights, resp.Insights...)

	// Deduplicate result links by URL, preserving discovery order.
	var links []string
	seen := make(map[string]struct{}, len(resp.Results))
	for _, r := range resp.Results {
		if _, dup := seen[r.Link]; dup || r.Link == "" {
			continue
		}
		seen[r.Link] = struct{}{}
		links = append(links, r.Link)
	}

	perPage := make([][]model.Insight, len(links))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(a.maxPages)
	for i, link := range links {
		i, link := i, link
		if cached, ok := a.tiers.PageInsights.Get(link); ok {
			a.metrics.CacheHits.WithLabelValues("page_insights").Inc()
			perPage[i] = cached
			continue
		}
		a.metrics.CacheMisses.WithLabelValues("page_insights").Inc()

		g.Go(func() error {
			derived := a.pages.ExtractFromPage(gctx, link)
			tagged := make([]model.Insight, len(derived))
			for j, ins := range derived {
				if ins.Source == "" {
					ins.Source = link
				}
				tagged[j] = ins
			}
			// Committing an empty slice too: a page known to yield
			// nothing is never refetched.
			a.tiers.PageInsights.Put(link, tagged)
			perPage[i] = tagged
			return nil
		})
	}
	_ = g.Wait()

	for _, pageInsights := range perPage {
		insights = append(insights, pageInsights...)
	}

	bundle := &cache.TermInsights{Results: resp.Results, Insights: insights}
	a.tiers.TermInsights.Put(term, bundle)

	zap.L().Debug("insight: term aggregated",
		zap.String("term", term),
		zap.Int("results", len(resp.Results)),
		zap.Int("insights", len(insights)),
	)

	return bundle, nil
}
