// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package resolve

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/ala-agent/internal/failure"
	"github.com/pdiddy/ala-agent/pkg/types"
)

func TestIdentifier(t *testing.T) {
	tests := []struct {
		name   string
		params map[string]any
		want   string
	}{
		{"q", map[string]any{"q": "koala"}, "koala"},
		{"scientificname", map[string]any{"scientificname": "Macropus rufus"}, "Macropus rufus"},
		{"lsid q", map[string]any{"q": koalaLSID}, koalaLSID},
		{"query expression", map[string]any{"q": "rk_genus:Macropus"}, ""},
		{"none", map[string]any{"family": "Macropodidae"}, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Identifier(&types.ExtractedQuery{Parameters: tt.params}))
		})
	}
}

func TestEnrich_FillsCanonicalFields(t *testing.T) {
	r := newResolver(newFakeMatcher())
	q := &types.ExtractedQuery{
		Parameters:           map[string]any{"q": "koala", "fq": []any{"state:Queensland"}},
		UnresolvedParameters: []string{types.UnresolvedScientificName},
		NeedsClarification:   true,
		ClarificationReason:  "which koala?",
	}

	rec, err := r.Enrich(context.Background(), q)
	require.NoError(t, err)
	require.NotNil(t, rec)

	assert.Equal(t, "koala", q.Param("q"), "the user's identifier stays verbatim")
	assert.Equal(t, koalaLSID, q.Param(types.ParamLSID))
	assert.Equal(t, "Phascolarctos cinereus", q.Param(types.ParamScientificName))
	assert.Equal(t, "Koala", q.Param(types.ParamCommonName))
	assert.Equal(t, "Phascolarctidae", q.Param(types.ParamFamily))
	assert.Equal(t, "vernacular", q.Param(types.ParamMatchType))
	assert.Empty(t, q.UnresolvedParameters)
	assert.False(t, q.NeedsClarification)
	assert.Empty(t, q.ClarificationReason)
}

func TestEnrich_NoMatchRequestsClarification(t *testing.T) {
	r := newResolver(newFakeMatcher())
	q := &types.ExtractedQuery{Parameters: map[string]any{"q": "xyzzyqwerty"}}

	rec, err := r.Enrich(context.Background(), q)
	assert.Nil(t, rec)
	assert.ErrorIs(t, err, failure.ErrNoMatch)
	assert.True(t, q.NeedsClarification)
	assert.Contains(t, q.ClarificationReason, "xyzzyqwerty")
	assert.Contains(t, q.ClarificationReason, "LSID")
	assert.False(t, q.Has(types.ParamLSID))
}

func TestEnrich_NetworkFailureLeavesQueryUntouched(t *testing.T) {
	m := newFakeMatcher()
	m.err = failure.New(failure.KindTimeout, "namematch", "request timed out", nil)
	q := &types.ExtractedQuery{Parameters: map[string]any{"q": "koala"}}

	_, err := newResolver(m).Enrich(context.Background(), q)
	assert.True(t, failure.Is(err, failure.KindTimeout))
	assert.False(t, q.NeedsClarification)
	assert.Len(t, q.Parameters, 1)
}

func TestEnrich_NoSpecies(t *testing.T) {
	m := newFakeMatcher()
	q := &types.ExtractedQuery{Parameters: map[string]any{"family": "Macropodidae", "year": "2019+"}}

	rec, err := newResolver(m).Enrich(context.Background(), q)
	assert.NoError(t, err)
	assert.Nil(t, rec)
	assert.Zero(t, m.calls())
}
