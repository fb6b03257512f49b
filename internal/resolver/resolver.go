// Package resolver orchestrates query resolution: classification, the
// one-hop cross-reference escalation from keyword search into a
// registry lookup, and the result-tier memoization.
package resolver

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"github.com/sells-group/lookout/internal/cache"
	"github.com/sells-group/lookout/internal/cnpj"
	"github.com/sells-group/lookout/internal/metrics"
	"github.com/sells-group/lookout/internal/model"
	"github.com/sells-group/lookout/pkg/receitaws"
)

// TermInsighter is the aggregation dependency (see insight.Aggregator).
type TermInsighter interface {
	ForTerm(ctx context.Context, term string) (*cache.TermInsights, error)
}

// Resolver owns the four cache tiers and is the only writer to the two
// result tiers. It is safe for concurrent use.
type Resolver struct {
	tiers    *cache.Tiers
	registry receitaws.Client
	insights TermInsighter
	metrics  *metrics.Metrics

	// Per-key in-flight coalescing so concurrent callers of one
	// uncached key share a single underlying fetch.
	idFlight   singleflight.Group
	termFlight singleflight.Group
}

// New creates a Resolver over the given collaborators and cache tiers.
func New(tiers *cache.Tiers, registry receitaws.Client, insights TermInsighter, m *metrics.Metrics) *Resolver {
	return &Resolver{
		tiers:    tiers,
		registry: registry,
		insights: insights,
		metrics:  m,
	}
}

// Resolve classifies a raw query and resolves it to its terminal
// result. Errors never escape: collaborator failures on the primary
// path surface inside the Resolution's Error field.
func (r *Resolver) Resolve(ctx context.Context, query string) *model.Resolution {
	query = strings.TrimSpace(query)
	traceID := uuid.NewString()
	class := model.Classify(query)

	log := zap.L().With(
		zap.String("trace_id", traceID),
		zap.String("query", query),
		zap.String("class", string(class)),
	)
	log.Info("resolver: resolving query")

	var res *model.Resolution
	switch class {
	case model.ClassCNPJ:
		res = r.resolveByCNPJ(ctx, model.Digits(query), traceID)
	default:
		res = r.resolveByTerm(ctx, query, class, traceID)
	}

	r.metrics.Resolutions.WithLabelValues(string(res.Kind)).Inc()

	if res.Failed() {
		log.Error("resolver: resolution failed",
			zap.String("error_kind", string(res.Error.Kind)),
			zap.String("detail", res.Error.Detail),
		)
	} else {
		log.Info("resolver: resolution complete", zap.String("kind", string(res.Kind)))
	}
	return res
}

// resolveByCNPJ runs the identifier path for a digit-only CNPJ. It
// performs no identifier extraction and never re-enters the free-text
// path, which bounds keyword escalation to one hop by construction.
// A cache hit keeps the trace ID of the resolution that derived it.
func (r *Resolver) resolveByCNPJ(ctx context.Context, id, traceID string) *model.Resolution {
	if res, ok := r.tiers.Identifier.Get(id); ok {
		r.metrics.CacheHits.WithLabelValues("identifier").Inc()
		return res
	}
	r.metrics.CacheMisses.WithLabelValues("identifier").Inc()

	v, _, _ := r.idFlight.Do(id, func() (any, error) {
		// A concurrent flight may have committed while we queued.
		if res, ok := r.tiers.Identifier.Get(id); ok {
			return res, nil
		}
		return r.lookupCNPJ(ctx, id, traceID), nil
	})
	return v.(*model.Resolution)
}

// lookupCNPJ performs the registry call and the per-name supplementary
// insight fan-out, then commits the assembled result. Failures are not
// cached: a failing identifier is retried on the next request.
func (r *Resolver) lookupCNPJ(ctx context.Context, id, traceID string) *model.Resolution {
	record, err := r.registry.Lookup(ctx, id)
	if err != nil {
		return &model.Resolution{
			Query:   id,
			Kind:    model.KindError,
			TraceID: traceID,
			Error:   classifyRegistryError(err),
		}
	}

	names := record.Names()
	perName := make([][]model.Insight, len(names))

	g, gctx := errgroup.WithContext(ctx)
	for i, name := range names {
		i, name := i, name
		g.Go(func() error {
			bundle, err := r.insights.ForTerm(gctx, name)
			if err != nil {
				// Supplementary fetch: degrade to empty, never abort.
				zap.L().Warn("resolver: name insight fetch degraded to empty",
					zap.String("cnpj", id),
					zap.String("name", name),
					zap.Error(err),
				)
				r.metrics.SwallowedFailures.WithLabelValues("name_insights").Inc()
				return nil
			}
			perName[i] = bundle.Insights
			return nil
		})
	}
	_ = g.Wait()

	res := &model.Resolution{
		Query:   id,
		Kind:    model.KindCNPJLookup,
		TraceID: traceID,
		Record:  record,
	}
	for i, name := range names {
		res.NameInsights = append(res.NameInsights, model.NameInsights{
			Name:     name,
			Insights: perName[i],
		})
	}

	r.tiers.Identifier.Put(id, res)
	return res
}

// resolveByTerm runs the free-text path. A phone classification only
// changes the outward kind, not the algorithm.
func (r *Resolver) resolveByTerm(ctx context.Context, term string, class model.Classification, traceID string) *model.Resolution {
	if res, ok := r.tiers.Term.Get(term); ok {
		r.metrics.CacheHits.WithLabelValues("term").Inc()
		return res
	}
	r.metrics.CacheMisses.WithLabelValues("term").Inc()

	v, _, _ := r.termFlight.Do(term, func() (any, error) {
		if res, ok := r.tiers.Term.Get(term); ok {
			return res, nil
		}
		return r.lookupTerm(ctx, term, class, traceID), nil
	})
	return v.(*model.Resolution)
}

func (r *Resolver) lookupTerm(ctx context.Context, term string, class model.Classification, traceID string) *model.Resolution {
	bundle, err := r.insights.ForTerm(ctx, term)
	if err != nil {
		return &model.Resolution{
			Query:   term,
			Kind:    model.KindError,
			TraceID: traceID,
			Error: &model.ResolutionError{
				Kind:   model.ErrKindTransport,
				Detail: eris.ToString(err, false),
			},
		}
	}

	ids := discoverIdentifiers(bundle)
	if len(ids) > 0 {
		// One-hop escalation: promote to the identifier path for the
		// first discovered identifier and wrap its result. The
		// identifier path performs no further extraction.
		chosen := ids[0]
		zap.L().Info("resolver: escalating term to cnpj lookup",
			zap.String("term", term),
			zap.String("cnpj", chosen),
		)
		r.metrics.Escalations.Inc()

		escalated := r.resolveByCNPJ(ctx, chosen, traceID)
		res := &model.Resolution{
			Query:         term,
			Kind:          model.KindKeywordEscalated,
			TraceID:       traceID,
			EscalatedFrom: chosen,
			Escalated:     escalated,
		}
		if !escalated.Failed() {
			r.tiers.Term.Put(term, res)
		}
		return res
	}

	kind := model.KindKeyword
	if class == model.ClassPhone {
		kind = model.KindPhone
	}
	res := &model.Resolution{
		Query:    term,
		Kind:     kind,
		TraceID:  traceID,
		Results:  bundle.Results,
		Insights: bundle.Insights,
	}
	r.tiers.Term.Put(term, res)
	return res
}

// discoverIdentifiers unions the two extraction passes: every result
// link first, then every insight's textual content. Link-derived
// identifiers take lookup priority; within each pass, first-seen order
// is preserved.
func discoverIdentifiers(bundle *cache.TermInsights) []string {
	var ids []string
	seen := make(map[string]struct{})

	appendNew := func(found []string) {
		for _, id := range found {
			if _, dup := seen[id]; dup {
				continue
			}
			seen[id] = struct{}{}
			ids = append(ids, id)
		}
	}

	for _, result := range bundle.Results {
		appendNew(cnpj.Extract(result.Link))
	}
	for _, ins := range bundle.Insights {
		appendNew(cnpj.Extract(ins.Text()))
	}
	return ids
}

func classifyRegistryError(err error) *model.ResolutionError {
	kind := model.ErrKindTransport
	if eris.Is(err, receitaws.ErrNotFound) {
		kind = model.ErrKindNotFound
	}
	return &model.ResolutionError{
		Kind:   kind,
		Detail: eris.ToString(err, false),
	}
}
