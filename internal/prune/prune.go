// Package prune trims the raw item list before it reaches the LLM:
// fuzzy title dedup, a global item cap, and per-item body truncation.
package prune

import (
	"github.com/pmezard/go-difflib/difflib"

	"github.com/deusflow/ainews/internal/fetch"
	"github.com/deusflow/ainews/internal/logger"
)

// similarityThreshold is the sequence-similarity ratio above which two
// titles are treated as the same story.
const similarityThreshold = 0.8

// Ellipsis marks a truncated body.
const Ellipsis = "..."

// Limits bounds the pruned output.
type Limits struct {
	MaxItems int // global cap on surviving items
	MaxBody  int // per-item body cap, in runes
}

// Apply prunes items in arrival order (a proxy for relevance). The
// fuzzy pass compares each incoming title only against titles already
// kept, so the outcome is deliberately order-sensitive. Quadratic in
// the input size, which is fine at tens of items.
func Apply(items []fetch.Item, lim Limits) []fetch.Item {
	logger.Info("pruning news items", "input", len(items))

	kept := make([]fetch.Item, 0, len(items))
	keptTitles := make([]string, 0, len(items))
	for _, item := range items {
		if isDuplicateTitle(item.Title, keptTitles) {
			continue
		}
		kept = append(kept, item)
		keptTitles = append(keptTitles, item.Title)
	}
	logger.Info("after fuzzy deduplication", "count", len(kept))

	if lim.MaxItems > 0 && len(kept) > lim.MaxItems {
		logger.Warn("item count exceeds target, truncating", "count", len(kept), "target", lim.MaxItems)
		kept = kept[:lim.MaxItems]
	}

	if lim.MaxBody > 0 {
		for i := range kept {
			kept[i].Body = truncate(kept[i].Body, lim.MaxBody)
		}
	}
	return kept
}

func isDuplicateTitle(title string, keptTitles []string) bool {
	for _, seen := range keptTitles {
		if similarity(title, seen) > similarityThreshold {
			return true
		}
	}
	return false
}

// similarity is the character-level sequence similarity ratio
// (2*matches/total), symmetric in content but order-sensitive in the
// difflib sense.
func similarity(a, b string) float64 {
	if a == b {
		return 1.0
	}
	m := difflib.NewMatcher(splitChars(a), splitChars(b))
	return m.Ratio()
}

func splitChars(s string) []string {
	chars := make([]string, 0, len(s))
	for _, r := range s {
		chars = append(chars, string(r))
	}
	return chars
}

// truncate cuts body to exactly max runes and appends the ellipsis
// marker. Bodies at or under the cap pass through untouched.
func truncate(body string, max int) string {
	runes := []rune(body)
	if len(runes) <= max {
		return body
	}
	return string(runes[:max]) + Ellipsis
}
