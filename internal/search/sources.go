package search

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/deusflow/ainews/internal/logger"
)

// Source is one statically configured news source. Sources with a
// search_query are site-restricted; the two well-known keys
// google_news and duckduckgo_search select the feed and generic
// fetchers directly.
type Source struct {
	Enabled     *bool    `yaml:"enabled"`
	SearchQuery string   `yaml:"search_query"`
	MatchNames  []string `yaml:"match_names"`
}

func (s Source) IsEnabled() bool {
	return s.Enabled == nil || *s.Enabled
}

// DisplayName returns the first match name, falling back to the map key.
func (s Source) DisplayName(key string) string {
	if len(s.MatchNames) > 0 {
		return s.MatchNames[0]
	}
	return key
}

// Group is an enable-flagged set of sources ("core", "other").
type Group struct {
	Enabled *bool             `yaml:"enabled"`
	Items   map[string]Source `yaml:"items"`
}

func (g Group) IsEnabled() bool {
	return g.Enabled == nil || *g.Enabled
}

// Catalog holds the grouped source definitions from sources.yaml.
type Catalog struct {
	Groups map[string]Group `yaml:"news_sources"`
}

// CoreNames returns the display names of sources in the core group,
// which the planner guarantees a minimum item allocation.
func (c *Catalog) CoreNames() []string {
	var names []string
	core, ok := c.Groups["core"]
	if !ok {
		return nil
	}
	for key, src := range core.Items {
		if src.IsEnabled() {
			names = append(names, src.DisplayName(key))
		}
	}
	return names
}

// LoadCatalog reads the source catalog from a YAML file. A missing
// file is non-fatal and yields an empty catalog: the orchestrator's
// gap-fill still produces results from the generic engine.
func LoadCatalog(path string) (*Catalog, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			logger.Warn("sources file not found, static fallback will have no sources", "path", path)
			return &Catalog{}, nil
		}
		return nil, err
	}
	defer f.Close()

	var cat Catalog
	dec := yaml.NewDecoder(f)
	if err := dec.Decode(&cat); err != nil {
		return nil, fmt.Errorf("failed to parse sources file %s: %w", path, err)
	}
	return &cat, nil
}
