// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package plan

import (
	"context"
	"regexp"
	"strings"

	"github.com/pdiddy/ala-agent/pkg/types"
)

// Rule maps trigger phrases to a tool. The order of a rule table is its
// precedence: the first matching rule sets the query type.
type Rule struct {
	Name string

	// Pattern is matched against the lower-cased query.
	Pattern *regexp.Regexp

	// Param, when set, also triggers the rule if the parameter is present.
	Param string

	Tool      string
	QueryType types.QueryType

	// WithoutSpecies replaces Tool when the query names no species.
	WithoutSpecies string

	// Outranks names rules whose tools are dropped when this rule matches.
	Outranks []string

	// Optional tools are appended as enhancements.
	Optional []string

	// Decline yields an empty plan.
	Decline bool
}

func (r Rule) matches(text string, params map[string]any) bool {
	if r.Pattern != nil && r.Pattern.MatchString(text) {
		return true
	}
	if r.Param == "" {
		return false
	}
	v, ok := params[r.Param]
	return ok && v != nil && v != ""
}

// DefaultRules encodes the count-versus-breakdown precedence. Breakdown
// triggers outrank single totals, and both outrank record listings.
var DefaultRules = []Rule{
	{
		Name:      "conservation",
		Pattern:   regexp.MustCompile(`\b(endangered|threatened|conservation status|vulnerable|extinct|iucn|epbc)\b`),
		QueryType: types.QueryConservation,
		Decline:   true,
	},
	{
		Name:      "record",
		Pattern:   regexp.MustCompile(`\b(record|occurrence)( id| uuid)?:? [0-9a-f]{8}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{12}\b`),
		Param:     types.ParamUUID,
		Tool:      types.ToolOccurrenceRecord,
		QueryType: types.QuerySingleSpecies,
		Outranks:  []string{"count", "occurrences"},
	},
	{
		Name:      "breakdown",
		Pattern:   regexp.MustCompile(`\b(each|breakdown|breaks? down|broken down|by (state|year|month|decade|region|basis of record)|per (state|year|month)|top \d+|which (states|months|years))\b`),
		Param:     types.ParamFacets,
		Tool:      types.ToolBreakdown,
		QueryType: types.QueryFacet,
		Outranks:  []string{"count", "distribution", "occurrences"},
	},
	{
		Name:           "count",
		Pattern:        regexp.MustCompile(`\b(how many|count|number of|total)\b`),
		Tool:           types.ToolTaxaCount,
		WithoutSpecies: types.ToolSearchOccurrences,
		QueryType:      types.QuerySingleSpecies,
		Outranks:       []string{"occurrences"},
	},
	{
		Name:      "distribution catalogue",
		Pattern:   regexp.MustCompile(`\b(list|all|which|what|available)\b.*\bdistribution (maps|layers)\b`),
		Tool:      types.ToolDistributionList,
		QueryType: types.QueryDistribution,
		Outranks:  []string{"distribution", "species search"},
	},
	{
		Name:      "distribution",
		Pattern:   regexp.MustCompile(`\b(distribution|range|where (is|are|do|does|can)|found)\b`),
		Tool:      types.ToolDistribution,
		QueryType: types.QueryDistribution,
	},
	{
		Name:      "taxonomy",
		Pattern:   regexp.MustCompile(`\b(taxonomy|classification|classified|scientific name|what is|tell me about|describe)\b`),
		Tool:      types.ToolSpeciesInfo,
		QueryType: types.QueryTaxonomy,
		Optional:  []string{types.ToolImages},
	},
	{
		Name:      "images",
		Pattern:   regexp.MustCompile(`\b(photos?|images?|pictures?|pics)\b`),
		Tool:      types.ToolImages,
		QueryType: types.QuerySingleSpecies,
	},
	{
		Name:      "lists",
		Pattern:   regexp.MustCompile(`\b(species lists?|checklists?)\b`),
		Tool:      types.ToolSearchSpeciesLists,
		QueryType: types.QueryTaxonomicGroup,
		Outranks:  []string{"species search"},
	},
	{
		Name:      "species search",
		Pattern:   regexp.MustCompile(`\b(search (for )?species|find species|which species|what species|species (named|called|matching))\b`),
		Tool:      types.ToolSearchSpecies,
		QueryType: types.QueryTaxonomicGroup,
	},
	{
		Name:      "fields",
		Pattern:   regexp.MustCompile(`\b(index(ed)? fields|searchable fields|available fields|filter fields|which fields|what fields)\b`),
		Tool:      types.ToolIndexFields,
		QueryType: types.QueryFacet,
		Outranks:  []string{"occurrences"},
	},
	{
		Name:      "occurrences",
		Pattern:   regexp.MustCompile(`\b(occurrences?|records?|sightings?|observations?|seen|spotted|show me)\b`),
		Tool:      types.ToolSearchOccurrences,
		QueryType: types.QuerySingleSpecies,
	},
}

// rankFilters mark a query about a taxonomic group rather than one species.
var rankFilters = []string{"kingdom", "phylum", "class", "order", "family", "genus"}

// RulePlanner is a deterministic keyword planner. It never fails.
type RulePlanner struct {
	rules []Rule
}

// NewRulePlanner returns a planner over rules, in precedence order.
func NewRulePlanner(rules []Rule) *RulePlanner {
	return &RulePlanner{rules: rules}
}

func (p *RulePlanner) Plan(ctx context.Context, query string, species []string, params map[string]any) (*types.ExecutionPlan, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	text := strings.ToLower(query)
	hasSpecies := hasSpecies(species, params)
	plan := &types.ExecutionPlan{SpeciesMentioned: speciesOrUnknown(species)}

	var matched []Rule
	outranked := make(map[string]bool)
	for _, r := range p.rules {
		if !r.matches(text, params) {
			continue
		}
		if r.Decline {
			plan.QueryType = r.QueryType
			return plan, nil
		}
		matched = append(matched, r)
		for _, o := range r.Outranks {
			outranked[o] = true
		}
	}

	seen := make(map[string]bool)
	add := func(tool string, prio types.Priority, reason string) {
		if tool == "" || seen[tool] {
			return
		}
		seen[tool] = true
		plan.Entries = append(plan.Entries, types.ToolPlanEntry{ToolName: tool, Priority: prio, Reason: reason})
	}

	for _, r := range matched {
		if outranked[r.Name] {
			continue
		}
		if plan.QueryType == "" {
			plan.QueryType = r.QueryType
		}
		tool := r.Tool
		if !hasSpecies && r.WithoutSpecies != "" {
			tool = r.WithoutSpecies
		}
		add(tool, types.MustCall, "matched "+r.Name+" trigger")
	}
	for _, r := range matched {
		if outranked[r.Name] || !hasSpecies {
			continue
		}
		for _, t := range r.Optional {
			add(t, types.Optional, "enhances "+r.Name)
		}
	}

	if len(plan.Entries) == 0 {
		if hasSpecies {
			add(types.ToolSpeciesInfo, types.MustCall, "default: taxonomy lookup")
		}
		add(types.ToolSearchOccurrences, types.MustCall, "default: occurrence search")
	}

	plan.QueryType = refineQueryType(plan.QueryType, species, params)
	return plan, nil
}

func refineQueryType(qt types.QueryType, species []string, params map[string]any) types.QueryType {
	if qt == "" {
		qt = types.QuerySingleSpecies
	}
	if qt != types.QuerySingleSpecies {
		return qt
	}
	if len(speciesOrUnknown(species)) > 1 {
		return types.QueryComparison
	}
	if _, ok := params[types.ParamQuery]; !ok {
		for _, r := range rankFilters {
			if _, ok := params[r]; ok {
				return types.QueryTaxonomicGroup
			}
		}
	}
	return qt
}

func hasSpecies(species []string, params map[string]any) bool {
	for _, s := range species {
		if s != "" && s != "unknown" {
			return true
		}
	}
	for _, k := range []string{types.ParamLSID, types.ParamQuery} {
		if v, ok := params[k]; ok && v != nil && v != "" {
			return true
		}
	}
	return false
}
