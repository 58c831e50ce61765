// Package search runs the concurrent fan-out over news backends:
// task building, a bounded worker pool under a single wall-clock
// budget, identity deduplication, and one compensating fetch when the
// unique-result count falls short of the quota.
package search

import (
	"context"
	"strings"
	"time"

	"github.com/deusflow/ainews/internal/fetch"
	"github.com/deusflow/ainews/internal/logger"
	"github.com/deusflow/ainews/internal/metrics"
)

// Engines bundles the three fetchers the orchestrator dispatches to.
// Site is a generic engine configured with the regional parameter set.
type Engines struct {
	Generic fetch.Searcher
	Site    fetch.Searcher
	Feed    fetch.Searcher
}

// Options tunes the orchestrator; zero values select the defaults.
type Options struct {
	Concurrency int           // worker pool size (default 5)
	Budget      time.Duration // global wall-clock budget (default 60s)
	TotalTarget int           // desired unique item count (default 50)
	StaticLimit int           // uniform per-source limit without a plan (default 10)
}

func (o *Options) fill() {
	if o.Concurrency <= 0 {
		o.Concurrency = 5
	}
	if o.Budget <= 0 {
		o.Budget = 60 * time.Second
	}
	if o.TotalTarget <= 0 {
		o.TotalTarget = 50
	}
	if o.StaticLimit <= 0 {
		o.StaticLimit = 10
	}
}

type Orchestrator struct {
	engines Engines
	opts    Options
}

func NewOrchestrator(engines Engines, opts Options) *Orchestrator {
	opts.fill()
	return &Orchestrator{engines: engines, opts: opts}
}

// unit is one scheduled fetch. run never returns an error: the retry
// wrapper has already absorbed failures into an empty slice.
type unit struct {
	name string
	run  func(ctx context.Context) []fetch.Item
}

type unitResult struct {
	name  string
	items []fetch.Item
}

// Run executes the search phase for a topic. plan may be nil, in which
// case tasks are synthesized from the static catalog. The returned
// items are identity-deduplicated by URL and possibly gap-filled; a
// shortfall is never an error.
func (o *Orchestrator) Run(ctx context.Context, topic string, plan []Task, catalog *Catalog) []fetch.Item {
	var units []unit
	if len(plan) > 0 {
		logger.Info("executing planned search", "tasks", len(plan))
		units = o.plannedUnits(topic, plan)
	} else {
		logger.Info("executing static config search")
		units = o.staticUnits(topic, catalog)
	}

	collected := o.collect(ctx, units)

	seen := make(map[string]struct{})
	unique := dedupByURL(collected, seen)
	logger.Info("unique news items by url", "count", len(unique))

	unique = o.fillGap(ctx, topic, unique, seen)
	metrics.Global.AddItemsFetched(len(unique))
	return unique
}

func (o *Orchestrator) plannedUnits(topic string, plan []Task) []unit {
	units := make([]unit, 0, len(plan))
	for _, task := range plan {
		task := task
		name := "[plan] " + task.SourceName
		limit := task.FetchLimit
		if limit <= 0 {
			limit = o.opts.StaticLimit
		}

		switch task.Type {
		case TypeRSSFeed:
			units = append(units, unit{name: name, run: func(ctx context.Context) []fetch.Item {
				return fetch.WithRetry(ctx, name, func(ctx context.Context) ([]fetch.Item, error) {
					return o.engines.Feed.Search(ctx, topic, limit)
				})
			}})
		case TypeGenericEngine:
			// Planned generic tasks search the bare topic; any query the
			// planner attached is ignored.
			units = append(units, unit{name: name, run: func(ctx context.Context) []fetch.Item {
				return fetch.WithRetry(ctx, name, func(ctx context.Context) ([]fetch.Item, error) {
					return o.engines.Generic.Search(ctx, topic, limit)
				})
			}})
		case TypeSiteRestricted:
			query := strings.TrimSpace(topic + " " + task.Query)
			units = append(units, unit{name: name, run: func(ctx context.Context) []fetch.Item {
				return fetch.WithRetry(ctx, name, func(ctx context.Context) ([]fetch.Item, error) {
					return o.engines.Site.Search(ctx, query, limit)
				})
			}})
		default:
			logger.Warn("unknown task source type, skipping", "source", task.SourceName, "type", task.Type)
		}
	}
	return units
}

func (o *Orchestrator) staticUnits(topic string, catalog *Catalog) []unit {
	var units []unit
	if catalog == nil {
		return units
	}
	limit := o.opts.StaticLimit

	for groupName, group := range catalog.Groups {
		if !group.IsEnabled() {
			continue
		}
		for key, src := range group.Items {
			if !src.IsEnabled() {
				continue
			}

			switch {
			case key == "google_news":
				name := "[" + groupName + "] Google News"
				units = append(units, unit{name: name, run: func(ctx context.Context) []fetch.Item {
					return fetch.WithRetry(ctx, name, func(ctx context.Context) ([]fetch.Item, error) {
						return o.engines.Feed.Search(ctx, topic, limit)
					})
				}})
			case key == "duckduckgo_search":
				name := "[" + groupName + "] DuckDuckGo"
				units = append(units, unit{name: name, run: func(ctx context.Context) []fetch.Item {
					return fetch.WithRetry(ctx, name, func(ctx context.Context) ([]fetch.Item, error) {
						return o.engines.Generic.Search(ctx, topic, limit)
					})
				}})
			case src.SearchQuery != "":
				name := "[" + groupName + "] " + src.DisplayName(key)
				query := strings.TrimSpace(topic + " " + src.SearchQuery)
				units = append(units, unit{name: name, run: func(ctx context.Context) []fetch.Item {
					return fetch.WithRetry(ctx, name, func(ctx context.Context) ([]fetch.Item, error) {
						return o.engines.Site.Search(ctx, query, limit)
					})
				}})
			default:
				logger.Warn("unknown source configuration, skipping", "source", key)
			}
		}
	}
	return units
}

// collect runs all units on a bounded pool and drains completions from
// a single collector under the global budget. Units still outstanding
// when the budget ends are abandoned; a late result lands in the
// buffered channel and is never read.
func (o *Orchestrator) collect(parent context.Context, units []unit) []fetch.Item {
	if len(units) == 0 {
		return nil
	}

	ctx, cancel := context.WithTimeout(parent, o.opts.Budget)
	defer cancel()

	results := make(chan unitResult, len(units))
	sem := make(chan struct{}, o.opts.Concurrency)

	for _, u := range units {
		u := u
		go func() {
			select {
			case sem <- struct{}{}:
			case <-ctx.Done():
				results <- unitResult{name: u.name}
				return
			}
			defer func() { <-sem }()
			results <- unitResult{name: u.name, items: u.run(ctx)}
		}()
	}

	deadline := time.NewTimer(o.opts.Budget)
	defer deadline.Stop()

	var all []fetch.Item
	outstanding := len(units)
	for outstanding > 0 {
		select {
		case r := <-results:
			outstanding--
			all = append(all, r.items...)
		case <-deadline.C:
			logger.Warn("search budget exhausted, abandoning outstanding units",
				"abandoned", outstanding, "budget", o.opts.Budget)
			metrics.Global.AddUnitsAbandoned(outstanding)
			outstanding = 0
		}
	}
	return all
}

// dedupByURL keeps the first occurrence per non-empty URL. Items
// without a URL are always kept; the pruner's fuzzy pass is the only
// thing that can drop them.
func dedupByURL(items []fetch.Item, seen map[string]struct{}) []fetch.Item {
	unique := make([]fetch.Item, 0, len(items))
	for _, item := range items {
		if item.URL == "" {
			unique = append(unique, item)
			continue
		}
		if _, dup := seen[item.URL]; dup {
			metrics.Global.IncrementDuplicatesFiltered()
			continue
		}
		seen[item.URL] = struct{}{}
		unique = append(unique, item)
	}
	return unique
}

// fillGap issues at most one compensating generic fetch when the
// unique count falls short of the quota threshold. The round is never
// repeated, even if it under-delivers.
func (o *Orchestrator) fillGap(ctx context.Context, topic string, unique []fetch.Item, seen map[string]struct{}) []fetch.Item {
	target := o.opts.TotalTarget
	current := len(unique)
	if current >= target {
		return unique
	}

	// Proceed without compensation when the quota is nearly met: at
	// least 90% of the target, or within 2 items of it.
	threshold := int(float64(target) * 0.9)
	if target-2 < threshold {
		threshold = target - 2
	}
	if current >= threshold {
		logger.Info("quota nearly met, proceeding", "current", current, "target", target)
		return unique
	}

	fill := (target - current) + 2
	logger.Warn("quota not met, triggering fallback search", "current", current, "target", target, "requesting", fill)

	extra := fetch.WithRetry(ctx, "fallback", func(ctx context.Context) ([]fetch.Item, error) {
		return o.engines.Generic.Search(ctx, topic, fill)
	})
	if len(extra) == 0 {
		logger.Warn("fallback search returned no results")
		return unique
	}

	before := len(unique)
	unique = append(unique, dedupByURL(extra, seen)...)
	logger.Info("fallback search merged", "added", len(unique)-before)
	return unique
}
