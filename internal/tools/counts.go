// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package tools

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/pdiddy/ala-agent/internal/httputil"
	"github.com/pdiddy/ala-agent/pkg/types"
)

const (
	taxaCountPath    = "/occurrences/occurrences/taxaCount"
	facetsPath       = "/occurrences/occurrences/facets"
	defaultFacetSize = 10
)

// CountParams is the parameter bag for taxa counts.
type CountParams struct {
	Taxon
	Filter
}

// TaxaCount returns a single total number of records for a taxon.
type TaxaCount struct {
	Fetcher httputil.Fetcher
	BaseURL string
}

func (t *TaxaCount) Name() string { return types.ToolTaxaCount }

func (t *TaxaCount) Description() string {
	return "Total number of occurrence records for a species, optionally filtered."
}

func (t *TaxaCount) Invoke(ctx context.Context, params map[string]any, emit Emitter) types.ExecutionOutcome {
	emit = orNop(emit)

	var p CountParams
	if err := decodeParams(params, &p); err != nil {
		return invalidParams(t.Name(), err)
	}
	if p.LSID == "" {
		return types.Failed(t.Name(), "A taxon identifier (LSID) is required to count records.")
	}

	v := url.Values{}
	v.Set("guids", p.LSID.String())
	v.Set("separator", "\n")
	p.apply(v)
	uri := httputil.Endpoint(t.BaseURL, taxaCountPath, v)
	emit.Progress(fmt.Sprintf("Counting occurrence records for %s.", p.label()))

	counts := map[string]int{}
	if err := t.Fetcher.GetJSON(ctx, uri, &counts); err != nil {
		return fetchFailed(t.Name(), err)
	}
	total := counts[p.LSID.String()]
	if _, ok := counts[p.LSID.String()]; !ok {
		for _, n := range counts {
			total += n
		}
	}

	msg := fmt.Sprintf("There are %d occurrence records for %s", total, p.label())
	if terms := p.terms(); len(terms) > 0 {
		msg += " matching " + strings.Join(terms, " AND ")
	}
	msg += "."

	emit.Artifact(jsonArtifact(fmt.Sprintf("Record count for %s", p.label()), uri,
		map[string]any{"count": total}))
	return types.Succeeded(t.Name(), msg, map[string]any{"lsid": p.LSID.String(), "count": total})
}

// BreakdownParams is the parameter bag for facet breakdowns.
type BreakdownParams struct {
	Taxon
	Filter

	Facets StringList `json:"facets"`
	FLimit *Number    `json:"flimit" validate:"omitempty,gt=0,lte=1000"`
}

// FacetField is one facet of a breakdown.
type FacetField struct {
	FieldName   string       `json:"fieldName"`
	Count       int          `json:"count"`
	FieldResult []FacetValue `json:"fieldResult"`
}

// FacetValue is one category count.
type FacetValue struct {
	Label string `json:"label"`
	Count int    `json:"count"`
	FQ    string `json:"fq,omitempty"`
}

// decodeFacets accepts the facets endpoint's list, or a search response
// carrying facetResults.
func decodeFacets(raw json.RawMessage) ([]FacetField, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return nil, nil
	}
	switch raw[0] {
	case '[':
		var fields []FacetField
		err := json.Unmarshal(raw, &fields)
		return fields, err
	case '{':
		var wrapped struct {
			FacetResults []FacetField `json:"facetResults"`
		}
		err := json.Unmarshal(raw, &wrapped)
		return wrapped.FacetResults, err
	default:
		return nil, fmt.Errorf("unexpected facet response starting with %q", raw[0])
	}
}

// Breakdown returns record counts grouped by one or more fields.
type Breakdown struct {
	Fetcher httputil.Fetcher
	BaseURL string
}

func (t *Breakdown) Name() string { return types.ToolBreakdown }

func (t *Breakdown) Description() string {
	return "Occurrence counts grouped by a field such as state, year or basis of record."
}

func (t *Breakdown) Invoke(ctx context.Context, params map[string]any, emit Emitter) types.ExecutionOutcome {
	emit = orNop(emit)

	var p BreakdownParams
	if err := decodeParams(params, &p); err != nil {
		return invalidParams(t.Name(), err)
	}
	facets := p.Facets.split()
	if len(facets) == 0 {
		return types.Failed(t.Name(), "No field was given to break the records down by.")
	}
	limit := defaultFacetSize
	if p.FLimit != nil {
		limit = int(*p.FLimit)
	}

	v := url.Values{}
	v.Set("q", p.searchQuery())
	p.apply(v)
	v.Set("facets", strings.Join(facets, ","))
	v.Set("flimit", strconv.Itoa(limit))
	uri := httputil.Endpoint(t.BaseURL, facetsPath, v)
	emit.Progress(fmt.Sprintf("Breaking down records for %s by %s.", p.label(), strings.Join(facets, ", ")))

	var raw json.RawMessage
	if err := t.Fetcher.GetJSON(ctx, uri, &raw); err != nil {
		return fetchFailed(t.Name(), err)
	}
	fields, err := decodeFacets(raw)
	if err != nil {
		return types.Failed(t.Name(), fmt.Sprintf("The breakdown response for %s could not be read.", p.label()))
	}

	emit.Artifact(jsonArtifact(
		fmt.Sprintf("Breakdown of %s records by %s", p.label(), strings.Join(facets, ", ")), uri,
		map[string]any{"facets": facets, "flimit": limit},
	))
	return types.Succeeded(t.Name(), summarizeFacets(p.label(), fields, limit), fields)
}

func summarizeFacets(label string, fields []FacetField, limit int) string {
	if len(fields) == 0 {
		return fmt.Sprintf("No records found for %s to break down.", label)
	}
	var b strings.Builder
	for i, f := range fields {
		if i > 0 {
			b.WriteString("\n")
		}
		fmt.Fprintf(&b, "Records for %s by %s:", label, f.FieldName)
		if len(f.FieldResult) == 0 {
			b.WriteString(" none.")
			continue
		}
		for j, r := range f.FieldResult {
			if j == limit {
				break
			}
			name := r.Label
			if name == "" {
				name = "(not recorded)"
			}
			fmt.Fprintf(&b, "\n  %s: %d", name, r.Count)
		}
	}
	return b.String()
}
