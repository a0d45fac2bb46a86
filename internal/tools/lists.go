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

const defaultListMax = 10

// ListParams is the parameter bag for species list searches.
type ListParams struct {
	Query Text    `json:"q"`
	State Text    `json:"state"`
	Max   *Number `json:"max" validate:"omitempty,gt=0,lte=100"`
}

// SpeciesList is one published list.
type SpeciesList struct {
	DataResourceUID string `json:"dataResourceUid"`
	ListName        string `json:"listName"`
	ListType        string `json:"listType"`
	ItemCount       int    `json:"itemCount"`
	Region          string `json:"region,omitempty"`
}

// SpeciesListPage is the decoded list search response.
type SpeciesListPage struct {
	ListCount int           `json:"listCount"`
	Lists     []SpeciesList `json:"lists"`
}

// SpeciesLists searches published species lists and checklists.
type SpeciesLists struct {
	Fetcher httputil.Fetcher
	BaseURL string
}

func (t *SpeciesLists) Name() string { return types.ToolSearchSpeciesLists }

func (t *SpeciesLists) Description() string {
	return "Find published species lists and checklists."
}

func (t *SpeciesLists) Invoke(ctx context.Context, params map[string]any, emit Emitter) types.ExecutionOutcome {
	emit = orNop(emit)

	var p ListParams
	if err := decodeParams(params, &p); err != nil {
		return invalidParams(t.Name(), err)
	}
	limit := defaultListMax
	if p.Max != nil {
		limit = int(*p.Max)
	}

	term := strings.TrimSpace(strings.Join([]string{p.Query.String(), p.State.String()}, " "))
	v := url.Values{}
	if term != "" {
		v.Set("q", term)
	}
	v.Set("max", strconv.Itoa(limit))
	uri := httputil.Endpoint(t.BaseURL, "/specieslist/ws/speciesList", v)

	what := "all species lists"
	if term != "" {
		what = fmt.Sprintf("species lists matching %q", term)
	}
	emit.Progress(fmt.Sprintf("Searching %s.", what))

	var page SpeciesListPage
	if err := t.Fetcher.GetJSON(ctx, uri, &page); err != nil {
		return fetchFailed(t.Name(), err)
	}
	if len(page.Lists) == 0 {
		return types.Succeeded(t.Name(), fmt.Sprintf("No %s were found.", what), page)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Found %d %s:", max(page.ListCount, len(page.Lists)), what)
	for _, l := range page.Lists {
		fmt.Fprintf(&b, "\n- %s (%s, %d species)", l.ListName, strings.ToLower(l.ListType), l.ItemCount)
	}

	emit.Artifact(jsonArtifact(fmt.Sprintf("Species lists: %s", what), uri,
		map[string]any{"list_count": page.ListCount}))
	return types.Succeeded(t.Name(), b.String(), page)
}
