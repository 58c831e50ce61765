// Package diagnose runs a quick preflight connectivity probe so the
// pipeline can warn up front when search engines are unreachable.
package diagnose

import (
	"context"
	"net/http"
	"time"

	"github.com/deusflow/ainews/internal/logger"
)

const probeTimeout = 3 * time.Second

// CheckConnectivity probes a domestic endpoint first, then the global
// ones the fetchers depend on. It returns whether the global network
// is reachable plus a human-readable status line. The result is
// advisory: the pipeline continues either way.
func CheckConnectivity(ctx context.Context, client *http.Client) (bool, string) {
	if client == nil {
		client = http.DefaultClient
	}

	if !reachable(ctx, client, "https://www.baidu.com") {
		return false, "Cannot access public internet (Baidu unreachable). Check local network."
	}
	logger.Debug("domestic network reachable")

	if reachable(ctx, client, "https://www.google.com") {
		logger.Debug("global network reachable")
		return true, "Global network accessible."
	}
	if reachable(ctx, client, "https://github.com") {
		logger.Debug("global network reachable via github")
		return true, "Global network accessible (via GitHub)."
	}

	return false, "Global network unreachable. Search engines (Google/DuckDuckGo) may fail."
}

func reachable(ctx context.Context, client *http.Client, url string) bool {
	probeCtx, cancel := context.WithTimeout(ctx, probeTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(probeCtx, http.MethodGet, url, nil)
	if err != nil {
		return false
	}
	resp, err := client.Do(req)
	if err != nil {
		return false
	}
	resp.Body.Close()
	return true
}
