// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package llm

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/ala-agent/internal/failure"
	"github.com/pdiddy/ala-agent/pkg/types"
)

type sample struct {
	Q     string   `json:"q" jsonschema:"required"`
	Fq    []string `json:"fq,omitempty"`
	Count int      `json:"count,omitempty"`
}

func messageServer(t *testing.T, status int, content string, inspect func(map[string]any)) *httptest.Server {
	t.Helper()
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/messages", r.URL.Path)
		assert.Equal(t, "test-key", r.Header.Get("X-Api-Key"))
		body, _ := io.ReadAll(r.Body)
		var req map[string]any
		require.NoError(t, json.Unmarshal(body, &req))
		if inspect != nil {
			inspect(req)
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		if status != http.StatusOK {
			w.Write([]byte(`{"type":"error","error":{"type":"api_error","message":"overloaded"}}`))
			return
		}
		w.Write([]byte(`{"id":"msg_01","type":"message","role":"assistant","model":"claude-test",
			"content":` + content + `,"stop_reason":"tool_use","stop_sequence":null,
			"usage":{"input_tokens":10,"output_tokens":10}}`))
	}))
	t.Cleanup(ts.Close)
	return ts
}

func newTestClaude(url string) *Claude {
	return NewClaude(types.AIConfig{APIKey: "test-key", BaseURL: url, Model: "claude-test"})
}

func TestSchemaFor(t *testing.T) {
	s := SchemaFor(&sample{})
	require.NotNil(t, s.Properties)
	_, ok := s.Properties.Get("q")
	assert.True(t, ok)
	assert.Contains(t, s.Required, "q")
}

func TestClaude_ToolUse(t *testing.T) {
	ts := messageServer(t, http.StatusOK,
		`[{"type":"tool_use","id":"toolu_01","name":"extract","input":{"q":"koala","fq":["state:Queensland"]}}]`,
		func(req map[string]any) {
			assert.Equal(t, "claude-test", req["model"])
			tools, _ := req["tools"].([]any)
			require.Len(t, tools, 1)
			tool := tools[0].(map[string]any)
			assert.Equal(t, "extract", tool["name"])
			schema := tool["input_schema"].(map[string]any)
			assert.Equal(t, []any{"q"}, schema["required"])
			assert.Contains(t, schema["properties"], "fq")
			choice := req["tool_choice"].(map[string]any)
			assert.Equal(t, "tool", choice["type"])
			assert.Equal(t, "extract", choice["name"])
			system := req["system"].([]any)
			assert.Equal(t, "be precise", system[0].(map[string]any)["text"])
		})

	raw, err := newTestClaude(ts.URL).Complete(context.Background(), Request{
		System:   "be precise",
		User:     "koalas in Queensland",
		ToolName: "extract",
		Schema:   SchemaFor(&sample{}),
	})
	require.NoError(t, err)

	var got sample
	require.NoError(t, json.Unmarshal(raw, &got))
	assert.Equal(t, "koala", got.Q)
	assert.Equal(t, []string{"state:Queensland"}, got.Fq)
}

func TestClaude_TextFallback(t *testing.T) {
	ts := messageServer(t, http.StatusOK,
		`[{"type":"text","text":"Here you go:\n`+"```json"+`\n{\"q\": \"wombat\"}\n`+"```"+`"}]`, nil)

	raw, err := newTestClaude(ts.URL).Complete(context.Background(), Request{User: "wombats"})
	require.NoError(t, err)
	assert.JSONEq(t, `{"q":"wombat"}`, string(raw))
}

func TestClaude_NoStructuredOutput(t *testing.T) {
	ts := messageServer(t, http.StatusOK, `[{"type":"text","text":"I cannot help with that."}]`, nil)

	_, err := newTestClaude(ts.URL).Complete(context.Background(), Request{User: "x"})
	require.Error(t, err)
	assert.Equal(t, failure.KindExtraction, failure.KindOf(err))
}

func TestClaude_ServiceError(t *testing.T) {
	ts := messageServer(t, http.StatusInternalServerError, "", nil)

	_, err := newTestClaude(ts.URL).Complete(context.Background(), Request{User: "x"})
	require.Error(t, err)
	assert.Equal(t, failure.KindNetwork, failure.KindOf(err))
}

func TestClaude_Timeout(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}))
	defer ts.Close()

	c := NewClaude(types.AIConfig{APIKey: "test-key", BaseURL: ts.URL, Timeout: 50 * time.Millisecond})
	_, err := c.Complete(context.Background(), Request{User: "x"})
	require.Error(t, err)
	assert.Equal(t, failure.KindTimeout, failure.KindOf(err))
}

func TestClaude_CancellationPropagates(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}))
	defer ts.Close()

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(20 * time.Millisecond)
		cancel()
	}()

	_, err := newTestClaude(ts.URL).Complete(ctx, Request{User: "x"})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestExtractJSON(t *testing.T) {
	raw, ok := extractJSON("prefix {\"a\": {\"b\": 1}} suffix")
	require.True(t, ok)
	assert.JSONEq(t, `{"a":{"b":1}}`, string(raw))

	_, ok = extractJSON("no json here")
	assert.False(t, ok)
	_, ok = extractJSON("{broken")
	assert.False(t, ok)
}

func TestCompleterFunc(t *testing.T) {
	var c Completer = CompleterFunc(func(_ context.Context, req Request) (json.RawMessage, error) {
		return json.RawMessage(`{"echo":"` + req.User + `"}`), nil
	})
	raw, err := c.Complete(context.Background(), Request{User: "hi"})
	require.NoError(t, err)
	assert.JSONEq(t, `{"echo":"hi"}`, string(raw))
}
