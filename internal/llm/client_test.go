package llm

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/deusflow/ainews/internal/ratelimit"
)

func TestOpenAIChatJSONForcesJSONObjectFormat(t *testing.T) {
	var gotBody chatRequest
	var gotAuth string

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/chat/completions", r.URL.Path)
		gotAuth = r.Header.Get("Authorization")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"choices":[{"message":{"content":"{\"ok\":true}"}}]}`))
	}))
	defer srv.Close()

	client := NewOpenAI("test-key", srv.URL, "qwen-max", srv.Client())
	out, err := client.ChatJSON(context.Background(), []Message{
		{Role: "system", Content: "You are an editor."},
		{Role: "user", Content: "summarize"},
	})
	require.NoError(t, err)

	assert.Equal(t, `{"ok":true}`, out)
	assert.Equal(t, "Bearer test-key", gotAuth)
	assert.Equal(t, "qwen-max", gotBody.Model)
	assert.Equal(t, "json_object", gotBody.ResponseFormat.Type)
	assert.Len(t, gotBody.Messages, 2)
}

func TestOpenAIChatJSONReportsAPIErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":"invalid api key"}`, http.StatusUnauthorized)
	}))
	defer srv.Close()

	client := NewOpenAI("bad-key", srv.URL, "qwen-max", srv.Client())
	_, err := client.ChatJSON(context.Background(), []Message{{Role: "user", Content: "hi"}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "401")
}

type scriptedClient struct {
	responses []string
	errs      []error
	calls     int
}

func (s *scriptedClient) ChatJSON(ctx context.Context, _ []Message) (string, error) {
	i := s.calls
	s.calls++
	if i < len(s.errs) && s.errs[i] != nil {
		return "", s.errs[i]
	}
	if i < len(s.responses) {
		return s.responses[i], nil
	}
	return "", errors.New("no scripted response")
}

func TestGuardedClientRetriesTransientFailures(t *testing.T) {
	inner := &scriptedClient{
		errs:      []error{errors.New("boom"), nil},
		responses: []string{"", `{"tasks":[]}`},
	}
	guarded := &guardedClient{inner: inner}

	out, err := guarded.ChatJSON(context.Background(), []Message{{Role: "user", Content: "plan"}})
	require.NoError(t, err)
	assert.Equal(t, `{"tasks":[]}`, out)
	assert.Equal(t, 2, inner.calls)
}

func TestGuardedClientEnforcesRequestBudget(t *testing.T) {
	inner := &scriptedClient{responses: []string{"{}", "{}", "{}"}}
	guarded := &guardedClient{inner: inner, limiter: ratelimit.New(2)}

	for i := 0; i < 2; i++ {
		_, err := guarded.ChatJSON(context.Background(), []Message{{Role: "user", Content: "q"}})
		require.NoError(t, err)
	}

	_, err := guarded.ChatJSON(context.Background(), []Message{{Role: "user", Content: "q"}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "budget")
	assert.Equal(t, 2, inner.calls)
}

func TestExtractJSON(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want string
	}{
		{"bare object", `{"a":1}`, `{"a":1}`},
		{"fenced with language", "```json\n{\"a\":1}\n```", `{"a":1}`},
		{"fenced without language", "```\n{\"a\":1}\n```", `{"a":1}`},
		{"fence with prose around", "Here you go:\n```json\n{\"a\":1}\n```\nHope that helps.", `{"a":1}`},
		{"surrounding whitespace", "  {\"a\":1}\n", `{"a":1}`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, ExtractJSON(tc.in))
		})
	}
}
