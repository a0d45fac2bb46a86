// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package plan

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/ala-agent/pkg/types"
)

func TestRulePlanner(t *testing.T) {
	tests := []struct {
		name     string
		query    string
		species  []string
		params   map[string]any
		wantType types.QueryType
		wantMust []string
		wantOpt  []string
	}{
		{
			name:     "single total count",
			query:    "How many koala records in Queensland?",
			species:  []string{"koala"},
			params:   map[string]any{"q": "koala", "fq": []any{"state:Queensland"}},
			wantType: types.QuerySingleSpecies,
			wantMust: []string{types.ToolTaxaCount},
		},
		{
			name:     "breakdown by state",
			query:    "Break down kangaroo records by state",
			species:  []string{"kangaroo"},
			params:   map[string]any{"q": "kangaroo", "facets": []any{"state"}},
			wantType: types.QueryFacet,
			wantMust: []string{types.ToolBreakdown},
		},
		{
			name:     "count in each state is a breakdown",
			query:    "How many wombat sightings in each state?",
			species:  []string{"wombat"},
			params:   map[string]any{"q": "wombat"},
			wantType: types.QueryFacet,
			wantMust: []string{types.ToolBreakdown},
		},
		{
			name:     "facets parameter alone selects breakdown",
			query:    "kangaroo records",
			species:  []string{"kangaroo"},
			params:   map[string]any{"q": "kangaroo", "facets": "year"},
			wantType: types.QueryFacet,
			wantMust: []string{types.ToolBreakdown},
		},
		{
			name:     "top N",
			query:    "top 5 states for platypus sightings",
			species:  []string{"platypus"},
			params:   map[string]any{"q": "platypus"},
			wantType: types.QueryFacet,
			wantMust: []string{types.ToolBreakdown},
		},
		{
			name:     "conservation declines",
			query:    "Is the koala endangered?",
			species:  []string{"koala"},
			params:   map[string]any{"q": "koala"},
			wantType: types.QueryConservation,
		},
		{
			name:     "taxonomy with optional images",
			query:    "Tell me about the platypus",
			species:  []string{"platypus"},
			params:   map[string]any{"q": "platypus"},
			wantType: types.QueryTaxonomy,
			wantMust: []string{types.ToolSpeciesInfo},
			wantOpt:  []string{types.ToolImages},
		},
		{
			name:     "multi-intent marks every request must_call",
			query:    "Tell me about the echidna and show photos",
			species:  []string{"echidna"},
			params:   map[string]any{"q": "echidna"},
			wantType: types.QueryTaxonomy,
			wantMust: []string{types.ToolSpeciesInfo, types.ToolImages},
		},
		{
			name:     "distribution",
			query:    "Where are quokkas found?",
			species:  []string{"quokka"},
			params:   map[string]any{"q": "quokka"},
			wantType: types.QueryDistribution,
			wantMust: []string{types.ToolDistribution},
		},
		{
			name:     "occurrence listing",
			query:    "Show me koala sightings near Brisbane",
			species:  []string{"koala"},
			params:   map[string]any{"q": "koala", "lat": -27.47, "lon": 153.02},
			wantType: types.QuerySingleSpecies,
			wantMust: []string{types.ToolSearchOccurrences},
		},
		{
			name:     "comparison",
			query:    "Compare koala and wombat sightings",
			species:  []string{"koala", "wombat"},
			params:   map[string]any{"q": "koala"},
			wantType: types.QueryComparison,
			wantMust: []string{types.ToolSearchOccurrences},
		},
		{
			name:     "group count without species",
			query:    "How many records of family Macropodidae?",
			params:   map[string]any{"family": "Macropodidae"},
			wantType: types.QueryTaxonomicGroup,
			wantMust: []string{types.ToolSearchOccurrences},
		},
		{
			name:     "species lists",
			query:    "Find checklists for Tasmania",
			params:   map[string]any{},
			wantType: types.QueryTaxonomicGroup,
			wantMust: []string{types.ToolSearchSpeciesLists},
		},
		{
			name:     "species lists outrank species search",
			query:    "Find species lists for birds",
			params:   map[string]any{},
			wantType: types.QueryTaxonomicGroup,
			wantMust: []string{types.ToolSearchSpeciesLists},
		},
		{
			name:     "occurrence record by id",
			query:    "Show me occurrence record a1b2c3d4-e5f6-4a7b-8c9d-0e1f2a3b4c5d",
			params:   map[string]any{"uuid": "a1b2c3d4-e5f6-4a7b-8c9d-0e1f2a3b4c5d"},
			wantType: types.QuerySingleSpecies,
			wantMust: []string{types.ToolOccurrenceRecord},
		},
		{
			name:     "species search in a genus",
			query:    "Which species of the genus Macropus are there?",
			params:   map[string]any{"genus": "Macropus"},
			wantType: types.QueryTaxonomicGroup,
			wantMust: []string{types.ToolSearchSpecies},
		},
		{
			name:     "distribution catalogue",
			query:    "Which species have expert distribution maps?",
			params:   map[string]any{},
			wantType: types.QueryDistribution,
			wantMust: []string{types.ToolDistributionList},
		},
		{
			name:     "index fields",
			query:    "What fields can I filter occurrences by?",
			params:   map[string]any{},
			wantType: types.QueryFacet,
			wantMust: []string{types.ToolIndexFields},
		},
		{
			name:     "no trigger defaults",
			query:    "koala",
			species:  []string{"koala"},
			params:   map[string]any{"q": "koala"},
			wantType: types.QuerySingleSpecies,
			wantMust: []string{types.ToolSpeciesInfo, types.ToolSearchOccurrences},
		},
	}

	p := NewRulePlanner(DefaultRules)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			plan, err := p.Plan(context.Background(), tt.query, tt.species, tt.params)
			require.NoError(t, err)

			assert.Equal(t, tt.wantType, plan.QueryType)
			assert.False(t, plan.Fallback)
			assert.Equal(t, tt.wantMust, names(plan.MustCall()))
			assert.Equal(t, tt.wantOpt, names(plan.Optional()))
		})
	}
}

func TestRulePlanner_NeverListsToolTwice(t *testing.T) {
	plan, err := NewRulePlanner(DefaultRules).Plan(context.Background(),
		"describe the taxonomy and classification of the koala with images and pictures", []string{"koala"}, nil)
	require.NoError(t, err)

	seen := map[string]bool{}
	for _, e := range plan.Entries {
		assert.False(t, seen[e.ToolName], "duplicate %s", e.ToolName)
		seen[e.ToolName] = true
	}
}

func TestRulePlanner_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := NewRulePlanner(DefaultRules).Plan(ctx, "koalas", nil, nil)
	assert.ErrorIs(t, err, context.Canceled)
}

func names(entries []types.ToolPlanEntry) []string {
	var out []string
	for _, e := range entries {
		out = append(out, e.ToolName)
	}
	return out
}
