// Package render produces the final HTML report page. Stories are
// split into a "today" section and an "earlier" section and sorted
// newest first.
package render

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"sort"
	"time"

	"github.com/deusflow/ainews/internal/report"
)

//go:embed templates/report.html
var templateFS embed.FS

var reportTmpl = template.Must(template.ParseFS(templateFS, "templates/report.html"))

type pageData struct {
	Topic       string
	DateStr     string
	Prologue    string
	TodayNews   []report.SelectedItem
	EarlierNews []report.SelectedItem
}

// HTML renders the report relative to now. Items dated exactly today
// (YYYY-MM-DD string match) land in the today section; everything
// else, including unparseable dates, goes to earlier.
func HTML(r *report.Report, now time.Time) (string, error) {
	today := now.Format("2006-01-02")

	sorted := make([]report.SelectedItem, len(r.Items))
	copy(sorted, r.Items)
	sort.SliceStable(sorted, func(i, j int) bool {
		return parseDate(sorted[i].Date).After(parseDate(sorted[j].Date))
	})

	data := pageData{
		Topic:    r.Topic,
		DateStr:  now.Format("2006-01-02 Monday"),
		Prologue: r.Prologue,
	}
	for _, item := range sorted {
		if item.Date == today {
			data.TodayNews = append(data.TodayNews, item)
		} else {
			data.EarlierNews = append(data.EarlierNews, item)
		}
	}

	var buf bytes.Buffer
	if err := reportTmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("failed to render report: %w", err)
	}
	return buf.String(), nil
}

// parseDate returns the zero time for dates not in YYYY-MM-DD form,
// which sorts them last.
func parseDate(s string) time.Time {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return time.Time{}
	}
	return t
}
