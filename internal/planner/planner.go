// Package planner asks the LLM to turn a topic and the source catalog
// into a concrete list of search tasks with per-source quotas.
package planner

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/deusflow/ainews/internal/llm"
	"github.com/deusflow/ainews/internal/logger"
	"github.com/deusflow/ainews/internal/search"
)

// Planning asks for 1.5x the user target so dedup and source failures
// still leave enough items.
const inflation = 1.5

const defaultFetchLimit = 10

// Planner builds search plans with an LLM collaborator. Any failure,
// from the request itself to an unparsable response, degrades to an
// empty plan so the orchestrator falls back to the static catalog.
type Planner struct {
	client llm.Client
}

func New(client llm.Client) *Planner {
	return &Planner{client: client}
}

type planResponse struct {
	Tasks []search.Task `json:"tasks"`
}

// Plan returns the LLM-generated search tasks for topic, or nil when
// planning fails for any reason.
func (p *Planner) Plan(ctx context.Context, topic string, userTarget, minPerCore int, catalog *search.Catalog) []search.Task {
	if p == nil || p.client == nil {
		return nil
	}

	planningTarget := int(float64(userTarget) * inflation)
	logger.Info("planning search", "topic", topic, "buffer_size", planningTarget, "user_target", userTarget)

	prompt := buildPrompt(topic, planningTarget, minPerCore, catalog)
	raw, err := p.client.ChatJSON(ctx, []llm.Message{
		{Role: "system", Content: "You are a helpful assistant that outputs JSON."},
		{Role: "user", Content: prompt},
	})
	if err != nil {
		logger.Error("planning failed", "error", err)
		return nil
	}
	if strings.TrimSpace(raw) == "" {
		logger.Error("planner returned empty response")
		return nil
	}

	var parsed planResponse
	if err := json.Unmarshal([]byte(llm.ExtractJSON(raw)), &parsed); err != nil {
		logger.Error("planner response is not valid JSON", "error", err)
		return nil
	}

	var tasks []search.Task
	for _, t := range parsed.Tasks {
		if !t.Valid() {
			logger.Warn("dropping task with unknown source type", "source", t.SourceName, "type", t.Type)
			continue
		}
		if t.FetchLimit <= 0 {
			t.FetchLimit = defaultFetchLimit
		}
		logger.Debug("planned task", "source", t.SourceName, "type", t.Type, "limit", t.FetchLimit, "query", t.Query)
		tasks = append(tasks, t)
	}
	logger.Info("search plan generated", "tasks", len(tasks))
	return tasks
}

// buildPrompt describes the fixed source pool and the allocation rules.
func buildPrompt(topic string, planningTarget, minPerCore int, catalog *search.Catalog) string {
	var fixed []string
	if catalog != nil {
		// Deterministic group order keeps prompts stable across runs.
		groupNames := make([]string, 0, len(catalog.Groups))
		for name := range catalog.Groups {
			groupNames = append(groupNames, name)
		}
		sort.Strings(groupNames)
		for _, groupName := range groupNames {
			group := catalog.Groups[groupName]
			if !group.IsEnabled() {
				continue
			}
			keys := make([]string, 0, len(group.Items))
			for key := range group.Items {
				keys = append(keys, key)
			}
			sort.Strings(keys)
			for _, key := range keys {
				src := group.Items[key]
				if !src.IsEnabled() {
					continue
				}
				stype := search.TypeSiteRestricted
				switch key {
				case "google_news":
					stype = search.TypeRSSFeed
				case "duckduckgo_search":
					stype = search.TypeGenericEngine
				}
				fixed = append(fixed, fmt.Sprintf("- Name: %s, Group: %s, Type: %s, SearchQuerySuffix: '%s'",
					src.DisplayName(key), groupName, stype, src.SearchQuery))
			}
		}
	}

	return fmt.Sprintf(`You are an expert News Search Planner.
The user wants to find news about: %q

**Budget Constraints**:
- Total News Budget: %d items (Optimized for coverage).
- Core Source Guarantee: Each "Core" source MUST be allocated at least %d items.

**Goal**:
1. **Fixed Sources**: Assign quotas to the fixed sources listed below.
2. **Dynamic Sources**: Discover 3-5 high-quality "site:..." sources relevant to the topic (e.g., hupu.com for sports, github.com for tech).
3. **Allocation Strategy**:
   - Reserve %d items for each Core source.
   - Calculate remaining budget: Total - (NumCore * %d).
   - Distribute the remaining budget to the most relevant sources (can be specific Core sources or new Dynamic sources).
   - Ensure the generic "other" sources (like DuckDuckGo) get some quota if specific sites are sparse.

**Fixed Sources Pool**:
%s

**Output Format**:
Return strictly a JSON object with a single key "tasks" containing a list of search tasks.
Each task must have:
- "source_name": Display name.
- "source_type": One of "google_news", "duckduckgo_general", "site_search".
- "search_query":
    - For "site_search", MUST result in "site:domain.com" (e.g. "site:hupu.com").
    - For fixed sources, use the suffix provided in the description (if any).
    - For "google_news" or "duckduckgo_general", leave empty string "".
- "fetch_limit": Integer quota.

Return ONLY the JSON. No preamble.`,
		topic, planningTarget, minPerCore, minPerCore, minPerCore, strings.Join(fixed, "\n"))
}
