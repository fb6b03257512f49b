package main

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/time/rate"

	"github.com/sells-group/lookout/internal/cache"
	"github.com/sells-group/lookout/internal/config"
	"github.com/sells-group/lookout/internal/insight"
	"github.com/sells-group/lookout/internal/metrics"
	"github.com/sells-group/lookout/internal/resolver"
	"github.com/sells-group/lookout/internal/search"
	"github.com/sells-group/lookout/pkg/receitaws"
)

// app bundles the wired components shared by the serve and resolve
// commands.
type app struct {
	tiers    *cache.Tiers
	resolver *resolver.Resolver
}

// newApp constructs the cache tiers, collaborators, and resolver from
// config. All state lives here for the life of the process; nothing is
// persisted.
func newApp(cfg *config.Config) (*app, error) {
	tiers := cache.NewTiers()
	m := metrics.New(prometheus.DefaultRegisterer)

	rules, err := loadRules(cfg.Insight)
	if err != nil {
		return nil, err
	}

	registryOpts := []receitaws.Option{
		receitaws.WithBaseURL(cfg.Registry.BaseURL),
		receitaws.WithHTTPClient(&http.Client{
			Timeout: time.Duration(cfg.Registry.TimeoutSecs) * time.Second,
		}),
	}
	if rpm := cfg.Registry.RatePerMinute; rpm > 0 {
		registryOpts = append(registryOpts,
			receitaws.WithLimiter(rate.NewLimiter(rate.Every(time.Minute/time.Duration(rpm)), rpm)))
	}
	registry := receitaws.NewClient(registryOpts...)

	searcher := search.NewClient(rules.ComplaintDomains,
		search.WithBaseURL(cfg.Search.BaseURL),
		search.WithHTTPClient(&http.Client{
			Timeout: time.Duration(cfg.Search.TimeoutSecs) * time.Second,
		}),
	)

	extractor := insight.NewPageExtractor(rules, m,
		time.Duration(cfg.Insight.TimeoutSecs)*time.Second)
	aggregator := insight.NewAggregator(tiers, searcher, extractor, m,
		cfg.Insight.MaxConcurrentPages)

	return &app{
		tiers:    tiers,
		resolver: resolver.New(tiers, registry, aggregator, m),
	}, nil
}

func loadRules(cfg config.InsightConfig) (*insight.Rules, error) {
	if cfg.RulesPath != "" {
		return insight.LoadRules(cfg.RulesPath)
	}
	return insight.DefaultRules()
}
