// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExtractedQuery_Param(t *testing.T) {
	q := &ExtractedQuery{Parameters: map[string]any{
		ParamQuery:  "  koala ",
		ParamFilter: []any{"state:Queensland", "year:2020"},
		ParamFacets: []string{"stateProvince", "year"},
		"pageSize":  float64(20),
	}}

	assert.Equal(t, "koala", q.Param(ParamQuery))
	assert.Equal(t, "state:Queensland,year:2020", q.Param(ParamFilter))
	assert.Equal(t, "stateProvince,year", q.Param(ParamFacets))
	assert.Equal(t, "20", q.Param("pageSize"))
	assert.Empty(t, q.Param(ParamLSID))
	assert.True(t, q.Has(ParamQuery))
	assert.False(t, q.Has(ParamLSID))

	var nilQuery *ExtractedQuery
	assert.Empty(t, nilQuery.Param(ParamQuery))
}

func TestExtractedQuery_Set(t *testing.T) {
	var q ExtractedQuery
	q.Set(ParamCommonName, "")
	assert.Nil(t, q.Parameters)

	q.Set(ParamCommonName, "Koala")
	assert.Equal(t, "Koala", q.Parameters[ParamCommonName])
}

func TestExtractedQuery_MarkResolved(t *testing.T) {
	q := &ExtractedQuery{
		UnresolvedParameters: []string{UnresolvedScientificName, "year"},
		NeedsClarification:   true,
		ClarificationReason:  "which year?",
	}

	q.MarkResolved(UnresolvedScientificName)
	assert.Equal(t, []string{"year"}, q.UnresolvedParameters)
	assert.True(t, q.NeedsClarification)
	assert.False(t, q.IsUnresolved(UnresolvedScientificName))

	q.MarkResolved("year")
	assert.Empty(t, q.UnresolvedParameters)
	assert.False(t, q.NeedsClarification)
	assert.Empty(t, q.ClarificationReason)

	q.RequestClarification("which koala?")
	assert.True(t, q.NeedsClarification)
	assert.Equal(t, "which koala?", q.ClarificationReason)
}

func TestExecutionPlan_Priorities(t *testing.T) {
	p := &ExecutionPlan{Entries: []ToolPlanEntry{
		{ToolName: ToolSpeciesInfo, Priority: Optional},
		{ToolName: ToolTaxaCount, Priority: MustCall},
		{ToolName: ToolImages, Priority: Optional},
		{ToolName: ToolBreakdown, Priority: MustCall},
	}}

	assert.Equal(t, []ToolPlanEntry{
		{ToolName: ToolTaxaCount, Priority: MustCall},
		{ToolName: ToolBreakdown, Priority: MustCall},
	}, p.MustCall())
	assert.Equal(t, []ToolPlanEntry{
		{ToolName: ToolSpeciesInfo, Priority: Optional},
		{ToolName: ToolImages, Priority: Optional},
	}, p.Optional())
}

func TestValidity(t *testing.T) {
	assert.True(t, MustCall.Valid())
	assert.True(t, Optional.Valid())
	assert.False(t, Priority("sometimes").Valid())

	assert.True(t, QueryConservation.Valid())
	assert.False(t, QueryType("weather").Valid())
}

func TestNameResolutionRecord(t *testing.T) {
	assert.True(t, NameResolutionRecord{MatchType: MatchNone}.IsNegative())
	assert.False(t, NameResolutionRecord{MatchType: MatchExact}.IsNegative())

	tests := []struct {
		rec  NameResolutionRecord
		want string
	}{
		{NameResolutionRecord{ScientificName: "Phascolarctos cinereus", CommonName: "Koala"}, "Koala (Phascolarctos cinereus)"},
		{NameResolutionRecord{ScientificName: "Phascolarctos cinereus"}, "Phascolarctos cinereus"},
		{NameResolutionRecord{CommonName: "Koala"}, "Koala"},
		{NameResolutionRecord{LSID: "urn:lsid:x"}, "urn:lsid:x"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, tt.rec.DisplayName())
	}
}

func TestOutcomeConstructors(t *testing.T) {
	ok := Succeeded(ToolTaxaCount, "1234 records", 1234)
	assert.True(t, ok.Success)
	assert.Equal(t, 1234, ok.Data)

	bad := Failed(ToolTaxaCount, "down")
	assert.False(t, bad.Success)
	assert.Equal(t, "down", bad.Message)
}
