// Package fetch contains one stateless fetcher per news backend plus
// the retry wrapper that turns backend failures into empty result
// sets. Fetchers report what the backend returns; relevance ordering
// within one fetcher's output is preserved.
package fetch

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"net"
	"strings"
	"syscall"
	"time"

	"github.com/deusflow/ainews/internal/logger"
	"github.com/deusflow/ainews/internal/metrics"
	"github.com/deusflow/ainews/internal/retry"
)

// Item is one raw news record as returned by a backend. URL is the
// identity key for deduplication; Date is free-form text and not
// guaranteed to parse.
type Item struct {
	Title  string `json:"title"`
	Date   string `json:"date"`
	Source string `json:"source"`
	URL    string `json:"url"`
	Body   string `json:"body"`
}

// Params carries the locale-ish backend parameters: a region code
// ("wt-wt" worldwide, "cn-zh" regional) and a recency window
// ("d" = last day).
type Params struct {
	Region    string
	TimeLimit string
}

// Searcher is the contract every backend fetcher satisfies.
type Searcher interface {
	Search(ctx context.Context, query string, limit int) ([]Item, error)
}

// SourceError wraps a backend failure with the source it came from.
type SourceError struct {
	Source string
	Err    error
}

func (e *SourceError) Error() string {
	return fmt.Sprintf("source %s: %v", e.Source, e.Err)
}

func (e *SourceError) Unwrap() error { return e.Err }

// DefaultRetry is the uniform fetch retry policy: 3 attempts total
// with a fixed 2s delay, retrying on every error.
var DefaultRetry = retry.Policy{MaxAttempts: 3, Delay: 2 * time.Second}

// WithRetry runs fn under DefaultRetry. Once attempts are exhausted it
// logs a failure classification and returns an empty slice: a fetch
// failure is never fatal to the pipeline.
func WithRetry(ctx context.Context, name string, fn func(context.Context) ([]Item, error)) []Item {
	var items []Item
	err := retry.Do(ctx, DefaultRetry, func() error {
		res, err := fn(ctx)
		if err != nil {
			return err
		}
		items = res
		return nil
	})
	if err != nil {
		metrics.Global.IncrementSourcesFailed()
		if isConnectionError(err) {
			logger.Warn("source fetch failed: network/proxy problem (check proxy settings)",
				"source", name, "error", err)
		} else {
			logger.Warn("source fetch failed after retries", "source", name, "error", err)
		}
		return nil
	}
	logger.Info("source fetch succeeded", "source", name, "items", len(items))
	return items
}

func isConnectionError(err error) bool {
	if errors.Is(err, syscall.ECONNREFUSED) {
		return true
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "proxy") ||
		strings.Contains(msg, "connection refused") ||
		strings.Contains(msg, "no such host")
}

// sleepJitter pauses 0.5-2.0s before a network call so that concurrent
// units do not hit a rate-limited backend at the same instant. It
// returns early if the context ends.
func sleepJitter(ctx context.Context) {
	d := 500*time.Millisecond + time.Duration(rand.Int63n(int64(1500*time.Millisecond)))
	select {
	case <-ctx.Done():
	case <-time.After(d):
	}
}
