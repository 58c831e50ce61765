// Package llm provides chat clients that force JSON-object output:
// an OpenAI-compatible HTTP client (default) and a Gemini client. Both
// are wrapped with the uniform retry policy and the per-run request
// budget.
package llm

import (
	"context"
	"fmt"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/deusflow/ainews/internal/config"
	"github.com/deusflow/ainews/internal/metrics"
	"github.com/deusflow/ainews/internal/ratelimit"
	"github.com/deusflow/ainews/internal/retry"
)

// Message is one chat turn.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Client is the summarization/planning collaborator contract: a chat
// request whose response is forced to be a JSON object.
type Client interface {
	ChatJSON(ctx context.Context, messages []Message) (string, error)
}

// Closer is implemented by clients holding a connection (Gemini).
type Closer interface {
	Close() error
}

var chatRetry = retry.Policy{MaxAttempts: 3, Delay: 2 * time.Second}

// New builds the configured client, wrapped with retry and the per-run
// request limiter. Returns an error when credentials are missing: the
// pipeline must not start without them.
func New(ctx context.Context, cfg config.LLMConfig, httpClient *http.Client, limiter *ratelimit.Limiter) (Client, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("llm api key not configured")
	}

	var inner Client
	switch cfg.Provider {
	case "gemini":
		gc, err := NewGemini(ctx, cfg.APIKey, cfg.ModelName)
		if err != nil {
			return nil, err
		}
		inner = gc
	default:
		inner = NewOpenAI(cfg.APIKey, cfg.BaseURL, cfg.ModelName, httpClient)
	}

	return &guardedClient{inner: inner, limiter: limiter}, nil
}

// guardedClient applies the request budget and the retry policy around
// any underlying client.
type guardedClient struct {
	inner   Client
	limiter *ratelimit.Limiter
}

func (g *guardedClient) ChatJSON(ctx context.Context, messages []Message) (string, error) {
	if g.limiter != nil {
		if err := g.limiter.Use(); err != nil {
			return "", err
		}
	}
	metrics.Global.IncrementLLMRequests()

	var out string
	err := retry.Do(ctx, chatRetry, func() error {
		resp, err := g.inner.ChatJSON(ctx, messages)
		if err != nil {
			return err
		}
		out = resp
		return nil
	})
	if err != nil {
		return "", err
	}
	return out, nil
}

// Close forwards to the inner client when it holds a connection.
func (g *guardedClient) Close() error {
	if c, ok := g.inner.(Closer); ok {
		return c.Close()
	}
	return nil
}

var fenceRE = regexp.MustCompile("(?s)```(?:json)?\\s*(.*?)```")

// ExtractJSON strips optional markdown code fences from a model
// response, returning the payload that should parse as JSON.
func ExtractJSON(content string) string {
	if strings.Contains(content, "```") {
		if m := fenceRE.FindStringSubmatch(content); m != nil {
			return strings.TrimSpace(m[1])
		}
	}
	return strings.TrimSpace(content)
}
