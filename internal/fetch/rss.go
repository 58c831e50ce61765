package fetch

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/mmcdole/gofeed"

	"github.com/deusflow/ainews/internal/logger"
)

// maxFeedEntries caps how many feed entries are mapped regardless of
// the requested limit; news feeds front-load relevance anyway.
const maxFeedEntries = 20

// GoogleNews fetches topic news through the Google News RSS search
// feed and maps entries to Items.
type GoogleNews struct {
	client  *gofeed.Parser
	lang    string
	country string
}

func NewGoogleNews(httpClient *http.Client, lang, country string) *GoogleNews {
	parser := gofeed.NewParser()
	parser.Client = httpClient
	if lang == "" {
		lang = "zh-CN"
	}
	if country == "" {
		country = "CN"
	}
	return &GoogleNews{client: parser, lang: lang, country: country}
}

func (gn *GoogleNews) Search(ctx context.Context, topic string, limit int) ([]Item, error) {
	feedURL := fmt.Sprintf("https://news.google.com/rss/search?q=%s&hl=%s&gl=%s&ceid=%s:%s",
		url.QueryEscape(topic), gn.lang, gn.country, gn.country, feedLangParam(gn.lang))
	logger.Info("fetching google news rss", "url", feedURL)

	feed, err := gn.client.ParseURLWithContext(feedURL, ctx)
	if err != nil {
		return nil, &SourceError{Source: "google_news", Err: fmt.Errorf("malformed feed: %w", err)}
	}

	max := maxFeedEntries
	if limit > 0 && limit < max {
		max = limit
	}

	items := make([]Item, 0, max)
	for _, entry := range feed.Items {
		if len(items) >= max {
			break
		}
		items = append(items, mapFeedEntry(entry))
	}
	return items, nil
}

func mapFeedEntry(entry *gofeed.Item) Item {
	date := entry.Published
	if date == "" {
		if entry.PublishedParsed != nil {
			date = entry.PublishedParsed.Format(time.RFC3339)
		} else {
			date = time.Now().Format(time.RFC3339)
		}
	}

	body := entry.Description
	if body == "" {
		body = entry.Content
	}
	if body == "" {
		body = entry.Title
	}

	return Item{
		Title:  entry.Title,
		Date:   date,
		Source: "Google News",
		URL:    entry.Link,
		Body:   stripHTML(body),
	}
}

// stripHTML flattens feed snippets (Google News wraps them in anchor
// tags) down to their text content.
func stripHTML(s string) string {
	if !strings.Contains(s, "<") {
		return strings.TrimSpace(s)
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(s))
	if err != nil {
		return strings.TrimSpace(s)
	}
	return strings.TrimSpace(doc.Text())
}

// feedLangParam maps an hl code to the ceid language suffix Google
// News expects (zh-CN → zh-Hans).
func feedLangParam(lang string) string {
	if lang == "zh-CN" {
		return "zh-Hans"
	}
	return lang
}
