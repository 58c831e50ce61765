package fetch

import (
	"context"
	"strings"
)

// SiteSearch fetches from one specific site by appending a
// site-restriction clause to the topic query and delegating to a
// generic engine configured with the regional parameter set.
type SiteSearch struct {
	engine Searcher
}

func NewSiteSearch(engine Searcher) *SiteSearch {
	return &SiteSearch{engine: engine}
}

// Search expects query to already carry the site clause (the
// orchestrator composes "topic site:example.com").
func (s *SiteSearch) Search(ctx context.Context, query string, limit int) ([]Item, error) {
	return s.engine.Search(ctx, strings.TrimSpace(query), limit)
}

var _ Searcher = (*SiteSearch)(nil)
