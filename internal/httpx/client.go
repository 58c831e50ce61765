// Package httpx builds HTTP clients with explicit proxy configuration.
// Proxies come from config and are wired into the transport directly;
// the process environment is never mutated, so fetchers stay testable
// and safe to use concurrently.
package httpx

import (
	"fmt"
	"net/http"
	"net/url"
	"time"
)

// NewClient returns an *http.Client routing plain-HTTP requests through
// httpProxy and HTTPS requests through httpsProxy. Empty strings fall
// back to the standard environment proxy resolution (read-only).
func NewClient(httpProxy, httpsProxy string, timeout time.Duration) (*http.Client, error) {
	transport := http.DefaultTransport.(*http.Transport).Clone()

	if httpProxy == "" && httpsProxy == "" {
		transport.Proxy = http.ProxyFromEnvironment
		return &http.Client{Transport: transport, Timeout: timeout}, nil
	}

	var httpURL, httpsURL *url.URL
	var err error
	if httpProxy != "" {
		httpURL, err = url.Parse(httpProxy)
		if err != nil {
			return nil, fmt.Errorf("invalid proxy.http %q: %w", httpProxy, err)
		}
	}
	if httpsProxy != "" {
		httpsURL, err = url.Parse(httpsProxy)
		if err != nil {
			return nil, fmt.Errorf("invalid proxy.https %q: %w", httpsProxy, err)
		}
	}

	transport.Proxy = func(req *http.Request) (*url.URL, error) {
		if req.URL.Scheme == "https" && httpsURL != nil {
			return httpsURL, nil
		}
		if req.URL.Scheme == "http" && httpURL != nil {
			return httpURL, nil
		}
		// Scheme without an explicit proxy: use the other one if set,
		// matching how HTTP_PROXY/HTTPS_PROXY pairs usually behave.
		if httpsURL != nil {
			return httpsURL, nil
		}
		return httpURL, nil
	}

	return &http.Client{Transport: transport, Timeout: timeout}, nil
}
