// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package server

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/ala-agent/internal/failure"
	"github.com/pdiddy/ala-agent/pkg/types"
)

const koalaLSID = "https://biodiversity.org.au/afd/taxa/e9d6fbbd-1505-4073-990a-dc66c930dad6"

func init() {
	gin.SetMode(gin.TestMode)
}

type askerFunc func(ctx context.Context, text string) (*types.Reply, error)

func (f askerFunc) Ask(ctx context.Context, text string) (*types.Reply, error) { return f(ctx, text) }

type resolverFunc func(ctx context.Context, id string) (types.NameResolutionRecord, error)

func (f resolverFunc) Resolve(ctx context.Context, id string) (types.NameResolutionRecord, error) {
	return f(ctx, id)
}

func testRouter(a Asker, r NameResolver) *gin.Engine {
	return NewRouter(a, r, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func do(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func TestAsk(t *testing.T) {
	var got string
	router := testRouter(askerFunc(func(_ context.Context, text string) (*types.Reply, error) {
		got = text
		return &types.Reply{RequestID: "r1", Query: text, Text: "There are 1234 occurrence records.", Success: true}, nil
	}), nil)

	w := do(t, router, http.MethodPost, "/v1/ask", `{"query": "How many koala records in Queensland?"}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "How many koala records in Queensland?", got)

	var reply types.Reply
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &reply))
	assert.Equal(t, "r1", reply.RequestID)
	assert.True(t, reply.Success)
}

func TestAsk_BadRequests(t *testing.T) {
	called := false
	router := testRouter(askerFunc(func(context.Context, string) (*types.Reply, error) {
		called = true
		return &types.Reply{}, nil
	}), nil)

	for _, body := range []string{``, `not json`, `{}`, `{"query": "   "}`} {
		w := do(t, router, http.MethodPost, "/v1/ask", body)
		assert.Equal(t, http.StatusBadRequest, w.Code, body)
	}
	assert.False(t, called)
}

func TestAsk_Cancelled(t *testing.T) {
	router := testRouter(askerFunc(func(context.Context, string) (*types.Reply, error) {
		return nil, context.Canceled
	}), nil)

	w := do(t, router, http.MethodPost, "/v1/ask", `{"query": "koala"}`)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestResolve(t *testing.T) {
	router := testRouter(nil, resolverFunc(func(_ context.Context, id string) (types.NameResolutionRecord, error) {
		switch id {
		case "koala", koalaLSID:
			return types.NameResolutionRecord{
				ScientificName: "Phascolarctos cinereus",
				CommonName:     "Koala",
				LSID:           koalaLSID,
				MatchType:      types.MatchVernacular,
			}, nil
		case "xyzzyqwerty":
			return types.NameResolutionRecord{}, failure.NoMatch("resolve", id)
		case "slow":
			return types.NameResolutionRecord{}, failure.New(failure.KindTimeout, "namematch", "request timed out", context.DeadlineExceeded)
		default:
			return types.NameResolutionRecord{}, failure.New(failure.KindNetwork, "namematch", "request failed", errors.New("refused"))
		}
	}))

	tests := []struct {
		path   string
		status int
		want   string
	}{
		{"/v1/resolve/koala", http.StatusOK, "Phascolarctos cinereus"},
		{"/v1/resolve/" + koalaLSID, http.StatusOK, koalaLSID},
		{"/v1/resolve/xyzzyqwerty", http.StatusNotFound, "no taxon matches xyzzyqwerty"},
		{"/v1/resolve/slow", http.StatusGatewayTimeout, "timed out"},
		{"/v1/resolve/down", http.StatusBadGateway, "could not be reached"},
		{"/v1/resolve/", http.StatusBadRequest, "missing species name"},
	}
	for _, tt := range tests {
		w := do(t, router, http.MethodGet, tt.path, "")
		assert.Equal(t, tt.status, w.Code, tt.path)
		assert.Contains(t, w.Body.String(), tt.want, tt.path)
	}
}

func TestHealthAndMetrics(t *testing.T) {
	router := testRouter(nil, nil)

	w := do(t, router, http.MethodGet, "/healthz", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok"}`, w.Body.String())

	w = do(t, router, http.MethodGet, "/metrics", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "go_goroutines")
}

func TestRun_StopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- Run(ctx, "127.0.0.1:0", testRouter(nil, nil), slog.New(slog.NewTextHandler(io.Discard, nil)))
	}()
	cancel()
	assert.NoError(t, <-done)
}
