package search

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/deusflow/ainews/internal/fetch"
)

// fakeEngine returns canned batches per call and records every call.
type fakeEngine struct {
	mu      sync.Mutex
	batches [][]fetch.Item
	calls   []int // requested limits, in call order
	delay   time.Duration
}

func (f *fakeEngine) Search(ctx context.Context, query string, limit int) ([]fetch.Item, error) {
	if f.delay > 0 {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(f.delay):
		}
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, limit)
	if len(f.batches) == 0 {
		return nil, nil
	}
	batch := f.batches[0]
	if len(f.batches) > 1 {
		f.batches = f.batches[1:]
	}
	return batch, nil
}

func (f *fakeEngine) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

func makeItems(prefix string, n int) []fetch.Item {
	items := make([]fetch.Item, n)
	for i := range items {
		items[i] = fetch.Item{
			Title: fmt.Sprintf("%s story %d", prefix, i),
			URL:   fmt.Sprintf("https://example.com/%s/%d", prefix, i),
		}
	}
	return items
}

func genericPlan(limit int) []Task {
	return []Task{{SourceName: "DuckDuckGo", Type: TypeGenericEngine, FetchLimit: limit}}
}

func TestDedupKeepsFirstOccurrencePerURL(t *testing.T) {
	items := []fetch.Item{
		{Title: "first", URL: "https://example.com/a"},
		{Title: "second", URL: "https://example.com/a"},
		{Title: "no url 1"},
		{Title: "other", URL: "https://example.com/b"},
		{Title: "no url 2"},
		{Title: "third", URL: "https://example.com/b"},
	}
	unique := dedupByURL(items, map[string]struct{}{})

	require.Len(t, unique, 4)
	assert.Equal(t, "first", unique[0].Title, "first-seen item retained")
	// Items without a URL are never deduplicated by identity.
	assert.Equal(t, "no url 1", unique[1].Title)
	assert.Equal(t, "no url 2", unique[3].Title)
}

func TestGapFillTriggersOneCompensatingFetch(t *testing.T) {
	// 40/50 unique is below the 90% threshold: exactly one extra fetch
	// sized (50-40)+2 = 12.
	generic := &fakeEngine{batches: [][]fetch.Item{makeItems("initial", 40), makeItems("fill", 5)}}
	o := NewOrchestrator(Engines{Generic: generic}, Options{TotalTarget: 50, Budget: 5 * time.Second})

	got := o.Run(context.Background(), "AI Agent", genericPlan(40), nil)

	require.Equal(t, 2, generic.callCount(), "initial fetch plus one compensation")
	assert.Equal(t, 12, generic.calls[1], "compensating fetch size")
	assert.Len(t, got, 45, "40 initial plus 5 filled")
}

func TestGapFillSkippedWhenQuotaNearlyMet(t *testing.T) {
	// 46/50 is at least 90% of the target: no compensating fetch.
	generic := &fakeEngine{batches: [][]fetch.Item{makeItems("initial", 46)}}
	o := NewOrchestrator(Engines{Generic: generic}, Options{TotalTarget: 50, Budget: 5 * time.Second})

	got := o.Run(context.Background(), "AI Agent", genericPlan(46), nil)

	assert.Equal(t, 1, generic.callCount(), "no compensating fetch")
	assert.Len(t, got, 46)
}

func TestGapFillRunsOnlyOnceEvenWhenStillShort(t *testing.T) {
	generic := &fakeEngine{batches: [][]fetch.Item{makeItems("initial", 10), nil}}
	o := NewOrchestrator(Engines{Generic: generic}, Options{TotalTarget: 50, Budget: 5 * time.Second})

	got := o.Run(context.Background(), "AI Agent", genericPlan(10), nil)

	assert.Equal(t, 2, generic.callCount(), "exactly one compensating round")
	assert.Len(t, got, 10, "the shortfall stands")
}

func TestBudgetAbandonsSlowUnits(t *testing.T) {
	fast := makeItems("fast", 3)
	generic := &fakeEngine{batches: [][]fetch.Item{fast}}
	slow := &fakeEngine{batches: [][]fetch.Item{makeItems("slow", 3)}, delay: 5 * time.Second}

	o := NewOrchestrator(Engines{Generic: generic, Feed: slow},
		Options{TotalTarget: 3, Budget: 150 * time.Millisecond})

	plan := []Task{
		{SourceName: "DuckDuckGo", Type: TypeGenericEngine, FetchLimit: 3},
		{SourceName: "Google News", Type: TypeRSSFeed, FetchLimit: 3},
	}

	start := time.Now()
	got := o.Run(context.Background(), "AI Agent", plan, nil)
	elapsed := time.Since(start)

	assert.Len(t, got, 3, "only the fast unit's items arrive")
	assert.Less(t, elapsed, 2*time.Second, "pipeline stays near the budget")
}

func TestStaticFallbackSkipsDisabledSources(t *testing.T) {
	off := false
	catalog := &Catalog{Groups: map[string]Group{
		"core": {Items: map[string]Source{
			"duckduckgo_search": {},
			"google_news":       {Enabled: &off},
		}},
		"other": {Enabled: &off, Items: map[string]Source{
			"tencent_news": {SearchQuery: "site:news.qq.com"},
		}},
	}}

	generic := &fakeEngine{batches: [][]fetch.Item{makeItems("ddg", 50)}}
	feed := &fakeEngine{}
	site := &fakeEngine{}

	o := NewOrchestrator(Engines{Generic: generic, Feed: feed, Site: site},
		Options{TotalTarget: 10, Budget: 5 * time.Second})
	got := o.Run(context.Background(), "AI Agent", nil, catalog)

	assert.Zero(t, feed.callCount(), "disabled google_news source not fetched")
	assert.Zero(t, site.callCount(), "source in disabled group not fetched")
	assert.Equal(t, 1, generic.callCount())
	assert.Len(t, got, 50)
}

func TestTwoSourcesMergeWithoutDuplicates(t *testing.T) {
	generic := &fakeEngine{batches: [][]fetch.Item{makeItems("engine", 3)}}
	feed := &fakeEngine{batches: [][]fetch.Item{makeItems("feed", 3)}}

	o := NewOrchestrator(Engines{Generic: generic, Feed: feed},
		Options{TotalTarget: 10, Budget: 5 * time.Second})
	plan := []Task{
		{SourceName: "DuckDuckGo", Type: TypeGenericEngine, FetchLimit: 3},
		{SourceName: "Google News", Type: TypeRSSFeed, FetchLimit: 3},
	}

	got := o.Run(context.Background(), "AI Agent", plan, nil)

	assert.Len(t, got, 6, "six unique items from two fetchers")
}
