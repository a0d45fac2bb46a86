// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package types defines shared data structures for the ala-agent pipeline:
// extracted queries, taxon records, execution plans, and outcomes.
package types

import (
	"fmt"
	"strings"
)

// Well-known parameter keys written by the extractor and the resolver.
const (
	ParamQuery          = "q"
	ParamFilter         = "fq"
	ParamYear           = "year"
	ParamStartDate      = "startdate"
	ParamEndDate        = "enddate"
	ParamMonth          = "month"
	ParamFacets         = "facets"
	ParamLSID           = "lsid"
	ParamScientificName = "scientificName"
	ParamCommonName     = "commonName"
	ParamMatchType      = "matchType"
	ParamUUID           = "uuid"

	// Taxonomic metadata written by the resolver. Distinct from the rank
	// filters ("family", "genus") the extractor emits.
	ParamRank    = "taxonRank"
	ParamKingdom = "taxonKingdom"
	ParamFamily  = "taxonFamily"
	ParamGenus   = "taxonGenus"

	// UnresolvedScientificName is the unresolved-parameter marker the
	// extractor emits when it wants the species identifier canonicalized.
	UnresolvedScientificName = "scientific_name"
)

// ExtractedQuery is the structured intent extracted from one user query.
// The JSON names match the completion schema the extractor requests.
type ExtractedQuery struct {
	// Parameters maps ALA-shaped keys to values (strings, numbers, booleans, lists).
	Parameters map[string]any `json:"params" yaml:"params" jsonschema:"required,description=ALA API parameters"`

	// UnresolvedParameters names the parameters that could not be filled confidently.
	UnresolvedParameters []string `json:"unresolved_params" yaml:"unresolved_params" jsonschema:"description=Parameter names needing resolution or clarification"`

	// NeedsClarification is true when disambiguation is still required.
	NeedsClarification bool `json:"clarification_needed" yaml:"clarification_needed"`

	// ClarificationReason explains what must be clarified. Present only
	// when NeedsClarification is set.
	ClarificationReason string `json:"clarification_reason,omitempty" yaml:"clarification_reason,omitempty"`

	// ArtifactDescription summarizes the expected result for the user.
	ArtifactDescription string `json:"artifact_description" yaml:"artifact_description"`
}

// Param returns the string form of a parameter, or "" if absent.
// Lists are joined with a comma.
func (q *ExtractedQuery) Param(key string) string {
	if q == nil || q.Parameters == nil {
		return ""
	}
	switch v := q.Parameters[key].(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(v)
	case []string:
		return strings.Join(v, ",")
	case []any:
		parts := make([]string, 0, len(v))
		for _, e := range v {
			parts = append(parts, fmt.Sprint(e))
		}
		return strings.Join(parts, ",")
	default:
		return fmt.Sprint(v)
	}
}

// Has reports whether a parameter is present and non-empty.
func (q *ExtractedQuery) Has(key string) bool {
	return q.Param(key) != ""
}

// Set writes a parameter, allocating the map if needed. Empty strings are skipped.
func (q *ExtractedQuery) Set(key string, value any) {
	if s, ok := value.(string); ok && s == "" {
		return
	}
	if q.Parameters == nil {
		q.Parameters = make(map[string]any)
	}
	q.Parameters[key] = value
}

// IsUnresolved reports whether name is listed in UnresolvedParameters.
func (q *ExtractedQuery) IsUnresolved(name string) bool {
	for _, p := range q.UnresolvedParameters {
		if p == name {
			return true
		}
	}
	return false
}

// MarkResolved removes name from UnresolvedParameters and clears the
// clarification flag when nothing else remains unresolved.
func (q *ExtractedQuery) MarkResolved(name string) {
	kept := q.UnresolvedParameters[:0]
	for _, p := range q.UnresolvedParameters {
		if p != name {
			kept = append(kept, p)
		}
	}
	q.UnresolvedParameters = kept
	if len(q.UnresolvedParameters) == 0 {
		q.NeedsClarification = false
		q.ClarificationReason = ""
	}
}

// RequestClarification flags the query as needing user input.
func (q *ExtractedQuery) RequestClarification(reason string) {
	q.NeedsClarification = true
	q.ClarificationReason = reason
}
