package fetch

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/deusflow/ainews/internal/cache"
	"github.com/deusflow/ainews/internal/logger"
)

const (
	ddgBaseURL  = "https://duckduckgo.com"
	vqdTokenTTL = 10 * time.Minute
)

var vqdRE = regexp.MustCompile(`vqd=['"]?([\d-]+)`)

// DuckDuckGo queries the DuckDuckGo news endpoint. Each search needs a
// per-query vqd token scraped from the front page first; tokens are
// memoized in a TTL cache.
type DuckDuckGo struct {
	client  *http.Client
	params  Params
	tokens  *cache.Cache
	baseURL string
}

func NewDuckDuckGo(client *http.Client, params Params, tokens *cache.Cache) *DuckDuckGo {
	if tokens == nil {
		tokens = cache.New()
	}
	return &DuckDuckGo{
		client:  client,
		params:  params,
		tokens:  tokens,
		baseURL: ddgBaseURL,
	}
}

type ddgResult struct {
	Date    int64  `json:"date"`
	Excerpt string `json:"excerpt"`
	Source  string `json:"source"`
	Title   string `json:"title"`
	URL     string `json:"url"`
}

type ddgResponse struct {
	Results []ddgResult `json:"results"`
}

// Search issues a keyword query against the news vertical, restricted
// to the configured recency window, and returns up to limit items.
func (d *DuckDuckGo) Search(ctx context.Context, query string, limit int) ([]Item, error) {
	sleepJitter(ctx)

	vqd, err := d.vqd(ctx, query)
	if err != nil {
		return nil, &SourceError{Source: "duckduckgo", Err: err}
	}

	q := url.Values{}
	q.Set("l", d.params.Region)
	q.Set("o", "json")
	q.Set("noamp", "1")
	q.Set("q", query)
	q.Set("vqd", vqd)
	q.Set("p", "-2") // safesearch off
	if d.params.TimeLimit != "" {
		q.Set("df", d.params.TimeLimit)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, d.baseURL+"/news.js?"+q.Encode(), nil)
	if err != nil {
		return nil, &SourceError{Source: "duckduckgo", Err: err}
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Referer", d.baseURL+"/")

	resp, err := d.client.Do(req)
	if err != nil {
		return nil, &SourceError{Source: "duckduckgo", Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, &SourceError{Source: "duckduckgo", Err: fmt.Errorf("unexpected status %d", resp.StatusCode)}
	}

	var payload ddgResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, &SourceError{Source: "duckduckgo", Err: fmt.Errorf("malformed news payload: %w", err)}
	}

	items := make([]Item, 0, len(payload.Results))
	for _, r := range payload.Results {
		if len(items) >= limit {
			break
		}
		date := ""
		if r.Date > 0 {
			date = time.Unix(r.Date, 0).UTC().Format(time.RFC3339)
		}
		items = append(items, Item{
			Title:  r.Title,
			Date:   date,
			Source: r.Source,
			URL:    r.URL,
			Body:   r.Excerpt,
		})
	}
	return items, nil
}

// vqd fetches (or reuses) the anti-bot token DuckDuckGo requires for
// its JSON endpoints.
func (d *DuckDuckGo) vqd(ctx context.Context, query string) (string, error) {
	if token, ok := d.tokens.Get(query); ok {
		return token, nil
	}

	q := url.Values{}
	q.Set("q", query)
	q.Set("iar", "news")
	q.Set("ia", "news")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, d.baseURL+"/?"+q.Encode(), nil)
	if err != nil {
		return "", err
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := d.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", err
	}

	if m := vqdRE.FindSubmatch(body); m != nil {
		token := string(m[1])
		d.tokens.Set(query, token, vqdTokenTTL)
		return token, nil
	}

	// The token occasionally only appears inside an inline script; walk
	// the script tags before giving up.
	doc, docErr := goquery.NewDocumentFromReader(strings.NewReader(string(body)))
	if docErr == nil {
		var token string
		doc.Find("script").EachWithBreak(func(_ int, s *goquery.Selection) bool {
			if m := vqdRE.FindStringSubmatch(s.Text()); m != nil {
				token = m[1]
				return false
			}
			return true
		})
		if token != "" {
			d.tokens.Set(query, token, vqdTokenTTL)
			return token, nil
		}
	}

	logger.Debug("vqd token not found in front page", "query", query)
	return "", fmt.Errorf("vqd token not found for query %q", query)
}

const userAgent = "Mozilla/5.0 (X11; Linux x86_64; rv:109.0) Gecko/20100101 Firefox/119.0"
