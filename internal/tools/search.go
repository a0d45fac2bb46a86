// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package tools

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/pdiddy/ala-agent/internal/httputil"
	"github.com/pdiddy/ala-agent/pkg/types"
)

const (
	defaultSearchPageSize = 20
	searchSummaryLimit    = 10
)

// SearchParams is the parameter bag for the species name search.
type SearchParams struct {
	Query      Text       `json:"q" validate:"required"`
	Filters    StringList `json:"fq"`
	PageSize   *Number    `json:"pageSize" validate:"omitempty,gt=0,lte=100"`
	StartIndex Number     `json:"startIndex" validate:"gte=0"`
}

// SpeciesHit is one taxon returned by the species search.
type SpeciesHit struct {
	GUID             string `json:"guid"`
	Name             string `json:"name"`
	CommonNameSingle string `json:"commonNameSingle"`
	Rank             string `json:"rank"`
	Kingdom          string `json:"kingdom"`
	Family           string `json:"family"`
	OccurrenceCount  int    `json:"occurrenceCount"`
}

// SpeciesSearchPage is the decoded species search response.
type SpeciesSearchPage struct {
	SearchResults struct {
		TotalRecords int          `json:"totalRecords"`
		Results      []SpeciesHit `json:"results"`
	} `json:"searchResults"`
}

// SpeciesSearch runs a free-text search over the species index.
type SpeciesSearch struct {
	Fetcher httputil.Fetcher
	BaseURL string
}

func (t *SpeciesSearch) Name() string { return types.ToolSearchSpecies }

func (t *SpeciesSearch) Description() string {
	return "Search the species index by name or higher taxon, with optional filters."
}

func (t *SpeciesSearch) Invoke(ctx context.Context, params map[string]any, emit Emitter) types.ExecutionOutcome {
	emit = orNop(emit)

	var p SearchParams
	if err := decodeParams(params, &p); err != nil {
		return invalidParams(t.Name(), err)
	}
	size := defaultSearchPageSize
	if p.PageSize != nil {
		size = int(*p.PageSize)
	}

	v := url.Values{}
	v.Set("q", p.Query.String())
	for _, fq := range dedupe(p.Filters.split()) {
		v.Add("fq", fq)
	}
	v.Set("pageSize", strconv.Itoa(size))
	if p.StartIndex > 0 {
		v.Set("startIndex", formatNumber(p.StartIndex))
	}
	uri := httputil.Endpoint(t.BaseURL, "/species/search", v)
	emit.Progress(fmt.Sprintf("Searching species matching %q.", p.Query))

	var page SpeciesSearchPage
	if err := t.Fetcher.GetJSON(ctx, uri, &page); err != nil {
		return fetchFailed(t.Name(), err)
	}
	hits := page.SearchResults.Results
	if len(hits) == 0 {
		return types.Succeeded(t.Name(), fmt.Sprintf("No species match %q.", p.Query), page)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Found %d taxa matching %q", max(page.SearchResults.TotalRecords, len(hits)), p.Query)
	if len(hits) > searchSummaryLimit {
		fmt.Fprintf(&b, " (showing %d)", searchSummaryLimit)
	}
	b.WriteString(":")
	for _, h := range hits[:min(len(hits), searchSummaryLimit)] {
		fmt.Fprintf(&b, "\n- %s", h.Name)
		if h.CommonNameSingle != "" {
			fmt.Fprintf(&b, " (%s)", h.CommonNameSingle)
		}
		var about []string
		for _, s := range []string{h.Rank, h.Family} {
			if s != "" {
				about = append(about, s)
			}
		}
		if len(about) > 0 {
			fmt.Fprintf(&b, ", %s", strings.Join(about, ", "))
		}
	}

	emit.Artifact(jsonArtifact(fmt.Sprintf("Species search: %s", p.Query), uri,
		map[string]any{"total_records": page.SearchResults.TotalRecords}))
	return types.Succeeded(t.Name(), b.String(), page)
}
