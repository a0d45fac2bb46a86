// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package plan

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/ala-agent/internal/failure"
	"github.com/pdiddy/ala-agent/internal/llm"
	"github.com/pdiddy/ala-agent/pkg/types"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func fixed(resp string, err error) llm.Completer {
	return llm.CompleterFunc(func(context.Context, llm.Request) (json.RawMessage, error) {
		if err != nil {
			return nil, err
		}
		return json.RawMessage(resp), nil
	})
}

func TestFallbackPlan(t *testing.T) {
	p := FallbackPlan([]string{"koala"})
	assert.True(t, p.Fallback)
	assert.Equal(t, types.QuerySingleSpecies, p.QueryType)
	assert.Equal(t, []string{"koala"}, p.SpeciesMentioned)
	require.Len(t, p.Entries, 2)
	assert.Equal(t, types.ToolSpeciesInfo, p.Entries[0].ToolName)
	assert.Equal(t, types.ToolSearchOccurrences, p.Entries[1].ToolName)
	assert.Len(t, p.MustCall(), 2)
	assert.Empty(t, p.Optional())

	assert.Equal(t, []string{"unknown"}, FallbackPlan(nil).SpeciesMentioned)
}

func TestLLMPlanner_ValidPlan(t *testing.T) {
	var got llm.Request
	c := llm.CompleterFunc(func(_ context.Context, req llm.Request) (json.RawMessage, error) {
		got = req
		return json.RawMessage(`{
			"tools": [{"tool_name": "get_occurrence_taxa_count", "priority": "must_call", "reason": "single total"}],
			"query_type": "single-species",
			"species_mentioned": ["koala"]}`), nil
	})

	params := map[string]any{"q": "koala", "fq": []any{"state:Queensland"}}
	p, err := NewLLMPlanner(c, DefaultCatalog, quietLogger()).Plan(context.Background(),
		"How many koala records in Queensland?", []string{"koala"}, params)
	require.NoError(t, err)

	assert.False(t, p.Fallback)
	require.Len(t, p.Entries, 1)
	assert.Equal(t, types.ToolTaxaCount, p.Entries[0].ToolName)
	assert.Equal(t, types.MustCall, p.Entries[0].Priority)

	assert.Equal(t, planToolName, got.ToolName)
	assert.Contains(t, got.System, types.ToolBreakdown)
	assert.Contains(t, got.System, "DECISION PROCEDURE")
	assert.Contains(t, got.User, `"state:Queensland"`)
}

func TestLLMPlanner_ConservationHasNoTools(t *testing.T) {
	c := fixed(`{"tools": [{"tool_name": "get_species_info", "priority": "must_call"}],
		"query_type": "conservation", "species_mentioned": ["koala"]}`, nil)

	p, err := NewLLMPlanner(c, DefaultCatalog, quietLogger()).Plan(context.Background(), "Is the koala endangered?", []string{"koala"}, nil)
	require.NoError(t, err)
	assert.Equal(t, types.QueryConservation, p.QueryType)
	assert.Empty(t, p.Entries)
}

func TestLLMPlanner_FallsBack(t *testing.T) {
	tests := []struct {
		name string
		c    llm.Completer
	}{
		{"service error", fixed("", failure.New(failure.KindNetwork, "llm.complete", "HTTP 500", nil))},
		{"timeout", fixed("", failure.New(failure.KindTimeout, "llm.complete", "timed out", context.DeadlineExceeded))},
		{"not json", fixed(`"nope"`, nil)},
		{"unknown query type", fixed(`{"tools": [], "query_type": "weather"}`, nil)},
		{"unknown priority", fixed(`{"tools": [{"tool_name": "get_species_info", "priority": "urgent"}], "query_type": "taxonomy"}`, nil)},
		{"unnamed tool", fixed(`{"tools": [{"priority": "must_call"}], "query_type": "taxonomy"}`, nil)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			before := testutil.ToFloat64(fallbacks)

			p, err := NewLLMPlanner(tt.c, DefaultCatalog, quietLogger()).Plan(context.Background(), "koalas", []string{"koala"}, nil)
			require.NoError(t, err)
			assert.True(t, p.Fallback)
			assert.Len(t, p.MustCall(), 2)
			assert.Equal(t, before+1, testutil.ToFloat64(fallbacks))
		})
	}
}

func TestLLMPlanner_CancellationPropagates(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	c := llm.CompleterFunc(func(ctx context.Context, _ llm.Request) (json.RawMessage, error) {
		cancel()
		return nil, ctx.Err()
	})

	p, err := NewLLMPlanner(c, DefaultCatalog, quietLogger()).Plan(ctx, "koalas", nil, nil)
	assert.Nil(t, p)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestLLMPlanner_UnregisteredToolPassesThrough(t *testing.T) {
	c := fixed(`{"tools": [{"tool_name": "get_weather", "priority": "must_call"}], "query_type": "single-species"}`, nil)

	p, err := NewLLMPlanner(c, DefaultCatalog, quietLogger()).Plan(context.Background(), "koalas", nil, nil)
	require.NoError(t, err)
	require.Len(t, p.Entries, 1)
	assert.Equal(t, "get_weather", p.Entries[0].ToolName)
	assert.Equal(t, []string{"unknown"}, p.SpeciesMentioned)
}

func TestNew_Strategy(t *testing.T) {
	c := fixed(`{}`, nil)

	_, ok := New(types.PlanningConfig{Strategy: types.PlannerRules}, c, nil).(*RulePlanner)
	assert.True(t, ok)
	_, ok = New(types.PlanningConfig{Strategy: types.PlannerLLM}, c, nil).(*LLMPlanner)
	assert.True(t, ok)
	_, ok = New(types.PlanningConfig{}, nil, nil).(*RulePlanner)
	assert.True(t, ok, "no completer falls back to rules")
}
