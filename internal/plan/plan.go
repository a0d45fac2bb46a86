// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package plan turns a query and its extracted parameters into an
// ExecutionPlan: an ordered list of tool invocations tagged must_call or
// optional. Two strategies implement the Planner interface, one backed by a
// language model and one by a keyword rule table.
package plan

import (
	"context"
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/pdiddy/ala-agent/internal/llm"
	"github.com/pdiddy/ala-agent/pkg/types"
)

// Planner produces an ExecutionPlan for one request. Implementations return
// an error only when ctx is done; every other failure is recovered.
type Planner interface {
	Plan(ctx context.Context, query string, species []string, params map[string]any) (*types.ExecutionPlan, error)
}

// Capability describes one tool the planner may select.
type Capability struct {
	Name        string
	Description string
}

// DefaultCatalog lists the tools the adapter registry provides.
var DefaultCatalog = []Capability{
	{types.ToolSearchOccurrences, "List individual occurrence records (sightings, specimens) with locations and dates."},
	{types.ToolSpeciesInfo, "Taxonomy and profile of one species: classification, common names, synonyms."},
	{types.ToolDistribution, "Expert distribution range map of a species."},
	{types.ToolImages, "Photos of a species from occurrence records."},
	{types.ToolTaxaCount, "A single total count of occurrence records for a species, optionally filtered."},
	{types.ToolBreakdown, "Occurrence counts broken down by a field (state, year, month, basis of record) or top N."},
	{types.ToolSearchSpeciesLists, "Find published species lists and checklists."},
	{types.ToolOccurrenceRecord, "Full details of one occurrence record identified by its UUID."},
	{types.ToolSearchSpecies, "Search the species index by name or higher taxon; returns matching taxa with rank and family."},
	{types.ToolIndexFields, "List the occurrence index fields that filters and breakdowns can use."},
	{types.ToolDistributionList, "List the species that have expert distribution maps, optionally by family."},
}

var fallbacks = promauto.NewCounter(prometheus.CounterOpts{
	Namespace: "ala_agent",
	Subsystem: "planner",
	Name:      "fallbacks_total",
	Help:      "Plans replaced by the heuristic fallback after a planning failure.",
})

// FallbackPlan is the fixed plan used when planning fails: a taxonomy
// lookup followed by an occurrence search, both required.
func FallbackPlan(species []string) *types.ExecutionPlan {
	return &types.ExecutionPlan{
		Entries: []types.ToolPlanEntry{
			{ToolName: types.ToolSpeciesInfo, Priority: types.MustCall, Reason: "fallback: taxonomy lookup"},
			{ToolName: types.ToolSearchOccurrences, Priority: types.MustCall, Reason: "fallback: occurrence search"},
		},
		QueryType:        types.QuerySingleSpecies,
		SpeciesMentioned: speciesOrUnknown(species),
		Fallback:         true,
	}
}

// New returns the Planner selected by cfg.Strategy. The LLM strategy needs
// a completer; without one the rule planner is used.
func New(cfg types.PlanningConfig, c llm.Completer, logger *slog.Logger) Planner {
	if cfg.Strategy == types.PlannerRules || c == nil {
		return NewRulePlanner(DefaultRules)
	}
	return NewLLMPlanner(c, DefaultCatalog, logger)
}

func speciesOrUnknown(species []string) []string {
	var out []string
	for _, s := range species {
		if s != "" {
			out = append(out, s)
		}
	}
	if len(out) == 0 {
		return []string{"unknown"}
	}
	return out
}
