package search

// SourceType selects which fetcher serves a task. The string values
// double as the wire names used in plans and the source catalog.
type SourceType string

const (
	TypeGenericEngine  SourceType = "duckduckgo_general"
	TypeRSSFeed        SourceType = "google_news"
	TypeSiteRestricted SourceType = "site_search"
)

// Task is one concurrent unit of fetch work: one source, one query,
// one limit. Tasks are immutable after creation and consumed exactly
// once by the orchestrator.
type Task struct {
	SourceName string     `json:"source_name"`
	Type       SourceType `json:"source_type"`
	Query      string     `json:"search_query"`
	FetchLimit int        `json:"fetch_limit"`
}

// Valid reports whether the task names a known source type.
func (t Task) Valid() bool {
	switch t.Type {
	case TypeGenericEngine, TypeRSSFeed, TypeSiteRestricted:
		return true
	}
	return false
}
