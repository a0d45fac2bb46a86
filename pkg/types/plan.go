// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "time"

// Tool names in the adapter registry.
const (
	ToolSearchOccurrences  = "search_species_occurrences"
	ToolSpeciesInfo        = "get_species_info"
	ToolDistribution       = "get_species_distribution"
	ToolImages             = "get_species_images"
	ToolTaxaCount          = "get_occurrence_taxa_count"
	ToolBreakdown          = "get_occurrence_breakdown"
	ToolSearchSpeciesLists = "search_species_lists"
	ToolOccurrenceRecord   = "get_occurrence_record"
	ToolSearchSpecies      = "search_species"
	ToolIndexFields        = "get_occurrence_fields"
	ToolDistributionList   = "list_species_distributions"
)

// Priority tags a planned invocation.
type Priority string

const (
	MustCall Priority = "must_call"
	Optional Priority = "optional"
)

// Valid reports whether p is a known priority.
func (p Priority) Valid() bool {
	return p == MustCall || p == Optional
}

// QueryType classifies the intent of a query.
type QueryType string

const (
	QuerySingleSpecies  QueryType = "single-species"
	QueryComparison     QueryType = "comparison"
	QueryConservation   QueryType = "conservation"
	QueryDistribution   QueryType = "distribution"
	QueryTaxonomy       QueryType = "taxonomy"
	QueryFacet          QueryType = "facet"
	QueryTaxonomicGroup QueryType = "taxonomic-group"
)

var validQueryTypes = map[QueryType]bool{
	QuerySingleSpecies:  true,
	QueryComparison:     true,
	QueryConservation:   true,
	QueryDistribution:   true,
	QueryTaxonomy:       true,
	QueryFacet:          true,
	QueryTaxonomicGroup: true,
}

// Valid reports whether t is a known query type.
func (t QueryType) Valid() bool {
	return validQueryTypes[t]
}

// ToolPlanEntry is one planned tool invocation.
type ToolPlanEntry struct {
	ToolName string   `json:"tool_name" yaml:"tool_name" jsonschema:"required"`
	Priority Priority `json:"priority" yaml:"priority" jsonschema:"required,enum=must_call,enum=optional"`

	// Reason is free text for logs; no logic reads it.
	Reason string `json:"reason,omitempty" yaml:"reason,omitempty"`
}

// ExecutionPlan is the ordered set of tool invocations for one request.
// It is not mutated after creation.
type ExecutionPlan struct {
	Entries          []ToolPlanEntry `json:"tools" yaml:"tools"`
	QueryType        QueryType       `json:"query_type" yaml:"query_type"`
	SpeciesMentioned []string        `json:"species_mentioned" yaml:"species_mentioned"`

	// Fallback is set when the heuristic plan replaced a failed planning call.
	Fallback bool `json:"fallback,omitempty" yaml:"fallback,omitempty"`
}

// MustCall returns the must-call entries in plan order.
func (p *ExecutionPlan) MustCall() []ToolPlanEntry {
	return p.byPriority(MustCall)
}

// Optional returns the optional entries in plan order.
func (p *ExecutionPlan) Optional() []ToolPlanEntry {
	return p.byPriority(Optional)
}

func (p *ExecutionPlan) byPriority(want Priority) []ToolPlanEntry {
	var out []ToolPlanEntry
	for _, e := range p.Entries {
		if e.Priority == want {
			out = append(out, e)
		}
	}
	return out
}

// ExecutionOutcome is the result of a single tool invocation.
type ExecutionOutcome struct {
	ToolName string `json:"tool_name" yaml:"tool_name"`
	Success  bool   `json:"success" yaml:"success"`
	Message  string `json:"message" yaml:"message"`
	Data     any    `json:"data,omitempty" yaml:"data,omitempty"`

	// Skipped marks a duplicate entry that was not executed.
	Skipped bool `json:"skipped,omitempty" yaml:"skipped,omitempty"`

	Duration time.Duration `json:"duration" yaml:"duration"`
}

// Succeeded builds a successful outcome.
func Succeeded(tool, message string, data any) ExecutionOutcome {
	return ExecutionOutcome{ToolName: tool, Success: true, Message: message, Data: data}
}

// Failed builds a failed outcome.
func Failed(tool, message string) ExecutionOutcome {
	return ExecutionOutcome{ToolName: tool, Success: false, Message: message}
}
