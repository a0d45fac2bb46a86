// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package tools

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/pdiddy/ala-agent/internal/httputil"
	"github.com/pdiddy/ala-agent/pkg/types"
)

const distributionListLimit = 15

// DistributionListParams narrows the expert distribution catalogue.
type DistributionListParams struct {
	Query  Text    `json:"q"`
	Family Text    `json:"family"`
	Max    *Number `json:"max" validate:"omitempty,gt=0,lte=100"`
}

// DistributionEntry is one layer in the expert distribution catalogue.
type DistributionEntry struct {
	SpCode     int     `json:"spcode"`
	Scientific string  `json:"scientific"`
	CommonName string  `json:"common_nam"`
	Family     string  `json:"family"`
	LSID       string  `json:"lsid"`
	AreaName   string  `json:"area_name"`
	AreaKm     float64 `json:"area_km"`
}

func (e DistributionEntry) matches(term, family string) bool {
	if family != "" && !strings.EqualFold(e.Family, family) {
		return false
	}
	if term == "" {
		return true
	}
	for _, s := range []string{e.Scientific, e.CommonName, e.Family, e.AreaName} {
		if strings.Contains(strings.ToLower(s), term) {
			return true
		}
	}
	return false
}

// DistributionList lists the available expert distribution layers.
type DistributionList struct {
	Fetcher httputil.Fetcher
	BaseURL string
}

func (t *DistributionList) Name() string { return types.ToolDistributionList }

func (t *DistributionList) Description() string {
	return "List the species that have expert distribution maps."
}

func (t *DistributionList) Invoke(ctx context.Context, params map[string]any, emit Emitter) types.ExecutionOutcome {
	emit = orNop(emit)

	var p DistributionListParams
	if err := decodeParams(params, &p); err != nil {
		return invalidParams(t.Name(), err)
	}
	limit := distributionListLimit
	if p.Max != nil {
		limit = int(*p.Max)
	}

	uri := httputil.Endpoint(t.BaseURL, "/spatial-service/distributions", nil)
	emit.Progress("Fetching the expert distribution catalogue.")

	var all []DistributionEntry
	if err := t.Fetcher.GetJSON(ctx, uri, &all); err != nil {
		return fetchFailed(t.Name(), err)
	}

	term := strings.ToLower(strings.TrimSpace(p.Query.String()))
	family := strings.TrimSpace(p.Family.String())
	var found []DistributionEntry
	for _, e := range all {
		if e.matches(term, family) {
			found = append(found, e)
		}
	}
	sort.SliceStable(found, func(i, j int) bool { return found[i].Scientific < found[j].Scientific })

	what := "expert distribution maps"
	switch {
	case term != "" && family != "":
		what = fmt.Sprintf("expert distribution maps in %s matching %q", family, term)
	case family != "":
		what = fmt.Sprintf("expert distribution maps in %s", family)
	case term != "":
		what = fmt.Sprintf("expert distribution maps matching %q", term)
	}
	if len(found) == 0 {
		return types.Succeeded(t.Name(), fmt.Sprintf("No %s were found.", what), found)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Found %d %s:", len(found), what)
	for _, e := range found[:min(len(found), limit)] {
		fmt.Fprintf(&b, "\n- %s", e.Scientific)
		if e.CommonName != "" {
			fmt.Fprintf(&b, " (%s)", e.CommonName)
		}
		if e.AreaKm > 0 {
			fmt.Fprintf(&b, ", %.0f km²", e.AreaKm)
		}
	}
	if len(found) > limit {
		fmt.Fprintf(&b, "\n...and %d more", len(found)-limit)
	}

	emit.Artifact(jsonArtifact(fmt.Sprintf("Distribution catalogue: %s", what), uri,
		map[string]any{"layers": len(found)}))
	return types.Succeeded(t.Name(), b.String(), found)
}
