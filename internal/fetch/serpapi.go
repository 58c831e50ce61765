package fetch

import (
	"context"
	"strconv"

	g "github.com/serpapi/google-search-results-golang"

	"github.com/deusflow/ainews/internal/logger"
)

// SerpAPI is the alternate generic engine, used when an API key is
// configured. It runs a Google search restricted to the news vertical
// within the recency window.
//
// The SerpApi client owns its own transport, so the proxy-configured
// HTTP client cannot be injected here; requests to serpapi.com go
// direct. Cancellation is best-effort: an in-flight call cannot be
// aborted, its result is simply discarded by the orchestrator.
type SerpAPI struct {
	apiKey string
	params Params
}

func NewSerpAPI(apiKey string, params Params) *SerpAPI {
	return &SerpAPI{apiKey: apiKey, params: params}
}

func (s *SerpAPI) Search(ctx context.Context, query string, limit int) ([]Item, error) {
	sleepJitter(ctx)
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	gl, hl := regionParams(s.params.Region)
	parameter := map[string]string{
		"q":   query,
		"tbm": "nws",
		"num": strconv.Itoa(limit),
		"gl":  gl,
		"hl":  hl,
	}
	if s.params.TimeLimit != "" {
		parameter["tbs"] = "qdr:" + s.params.TimeLimit
	}

	search := g.NewGoogleSearch(parameter, s.apiKey)
	results, err := search.GetJSON()
	if err != nil {
		return nil, &SourceError{Source: "serpapi", Err: err}
	}

	newsResults, ok := results["news_results"].([]interface{})
	if !ok {
		logger.Debug("no news_results node in serpapi response", "query", query)
		return nil, nil
	}

	items := make([]Item, 0, len(newsResults))
	for _, raw := range newsResults {
		if len(items) >= limit {
			break
		}
		res, ok := raw.(map[string]interface{})
		if !ok {
			continue
		}

		title, _ := res["title"].(string)
		link, _ := res["link"].(string)
		if title == "" || link == "" {
			continue
		}
		date, _ := res["date"].(string)
		snippet, _ := res["snippet"].(string)

		items = append(items, Item{
			Title:  title,
			Date:   date,
			Source: sourceLabel(res["source"]),
			URL:    link,
			Body:   snippet,
		})
	}
	return items, nil
}

// sourceLabel handles both shapes SerpApi uses for the source field: a
// plain string or an object with a name.
func sourceLabel(v interface{}) string {
	switch s := v.(type) {
	case string:
		return s
	case map[string]interface{}:
		if name, ok := s["name"].(string); ok {
			return name
		}
	}
	return ""
}

func regionParams(region string) (gl, hl string) {
	switch region {
	case "cn-zh":
		return "cn", "zh-cn"
	case "wt-wt", "":
		return "us", "en"
	default:
		// region codes look like "us-en"
		if len(region) == 5 && region[2] == '-' {
			return region[:2], region[3:]
		}
		return "us", "en"
	}
}

var _ Searcher = (*SerpAPI)(nil)
