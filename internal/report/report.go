// Package report turns pruned news items into an editorial report:
// the LLM selects the top stories, summarizes them in Chinese and
// writes a prologue.
package report

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/deusflow/ainews/internal/fetch"
	"github.com/deusflow/ainews/internal/llm"
	"github.com/deusflow/ainews/internal/logger"
	"github.com/deusflow/ainews/internal/metrics"
)

// ErrUnparsable signals the LLM response could not be decoded as the
// expected report shape.
var ErrUnparsable = errors.New("report response is not valid JSON")

// SelectedItem is one story the editor kept, with its summary and
// recommendation.
type SelectedItem struct {
	Title            string `json:"title"`
	Date             string `json:"date"`
	Source           string `json:"source"`
	URL              string `json:"url"`
	Summary          string `json:"summary"`
	RecommendComment string `json:"recommend_comment"`
}

// Report is the final editorial product for one topic.
type Report struct {
	Topic    string         `json:"topic"`
	Prologue string         `json:"prologue"`
	Items    []SelectedItem `json:"top_news"`
}

// Summarizer drives the editor step with an LLM collaborator.
type Summarizer struct {
	client llm.Client
	now    func() time.Time
}

func NewSummarizer(client llm.Client) *Summarizer {
	return &Summarizer{client: client, now: time.Now}
}

// Summarize builds the report for topic from the pruned items. Degraded
// inputs (no items) and degraded LLM outcomes both yield a report with
// an explanatory prologue rather than an error: the caller always gets
// something renderable.
func (s *Summarizer) Summarize(ctx context.Context, topic string, items []fetch.Item) (*Report, error) {
	if len(items) == 0 {
		return &Report{Topic: topic, Prologue: "No news found related to the topic."}, nil
	}

	logger.Info("calling editor for filtering and summarization", "items", len(items))

	raw, err := s.client.ChatJSON(ctx, []llm.Message{
		{Role: "system", Content: "You are a helpful assistant that outputs JSON."},
		{Role: "user", Content: s.buildPrompt(topic, items)},
	})
	if err != nil {
		logger.Error("editor request failed", "error", err)
		return &Report{Topic: topic, Prologue: "AI Processing Exception."}, nil
	}
	logger.Debug("editor response", "content", raw)

	report, err := s.parse(topic, raw)
	if err != nil {
		logger.Error("editor response unusable", "error", err)
		return &Report{Topic: topic, Prologue: "AI Processing Exception."}, nil
	}

	metrics.Global.IncrementReportsGenerated()
	logger.Info("report generated", "top_news", len(report.Items))
	return report, nil
}

func (s *Summarizer) buildPrompt(topic string, items []fetch.Item) string {
	var ctxBuilder strings.Builder
	for i, item := range items {
		fmt.Fprintf(&ctxBuilder, "\n[News #%d]\nTitle: %s\nDate: %s\nSource: %s\nURL: %s\nSnippet: %s\n",
			i+1, orNA(item.Title), orNA(item.Date), orNA(item.Source), orNA(item.URL), orNA(item.Body))
	}

	return fmt.Sprintf(`You are a professional senior news editor.
Your goal is to identify the top 10 most influential news stories about the topic: %q.
Current Date: %s

Instructions:
1. Filter: Select top 10 distinct and important news items from the provided list. Remove duplicates or irrelevant ads.
2. Date Standardization: Output the 'date' field strictly in 'YYYY-MM-DD' format. If exact date unavailable, infer from context/crawl time.
3. Translate: Ensure the 'title', 'summary', 'recommend_comment' and 'prologue' are in Chinese (Simplified).
4. Summarize: Write a concise summary (50-100 words) for each news based on the snippet.
5. Comment: Write a brief recommendation comment (recommend_comment) for each news item.
6. Prologue: Write a prologue (50-100 words) summarizing the overall trend or key highlights of these selected news items.
7. Format: Return ONLY a valid JSON object strictly following this structure:
   {
     "prologue": "...",
     "top_news": [
       { "title": "...", "date": "YYYY-MM-DD", "source": "...", "url": "...", "summary": "...", "recommend_comment": "..." },
       ...
     ]
   }

Raw News Data:
%s`, topic, s.now().Format("2006-01-02"), ctxBuilder.String())
}

// payload tolerates the inconsistent keys models emit: some return
// "news" instead of "top_news", and individual entries may be
// malformed without poisoning the rest.
type payload struct {
	Prologue string            `json:"prologue"`
	TopNews  []json.RawMessage `json:"top_news"`
	News     []json.RawMessage `json:"news"`
}

func (s *Summarizer) parse(topic, raw string) (*Report, error) {
	var p payload
	if err := json.Unmarshal([]byte(llm.ExtractJSON(raw)), &p); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnparsable, err)
	}

	entries := p.TopNews
	if len(entries) == 0 {
		entries = p.News
	}

	prologue := p.Prologue
	if prologue == "" {
		prologue = fmt.Sprintf("Here is the latest news about %s.", topic)
	}

	today := s.now().Format("2006-01-02")
	var selected []SelectedItem
	for _, entry := range entries {
		var item SelectedItem
		if err := json.Unmarshal(entry, &item); err != nil {
			logger.Warn("dropping malformed report item", "error", err)
			continue
		}
		if item.Title == "" {
			item.Title = "Untitled"
		}
		if item.URL == "" {
			item.URL = "#"
		}
		if item.Source == "" {
			item.Source = "Unknown"
		}
		if item.Date == "" {
			item.Date = today
		}
		selected = append(selected, item)
	}

	return &Report{Topic: topic, Prologue: prologue, Items: selected}, nil
}

func orNA(s string) string {
	if s == "" {
		return "N/A"
	}
	return s
}
