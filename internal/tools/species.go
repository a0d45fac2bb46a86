// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package tools

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/pdiddy/ala-agent/internal/httputil"
	"github.com/pdiddy/ala-agent/pkg/types"
)

// SpeciesProfile is the decoded species endpoint response.
type SpeciesProfile struct {
	TaxonConcept struct {
		GUID       string `json:"guid"`
		NameString string `json:"nameString"`
		Author     string `json:"author"`
		RankString string `json:"rankString"`
	} `json:"taxonConcept"`

	Classification struct {
		Kingdom string `json:"kingdom"`
		Phylum  string `json:"phylum"`
		Class   string `json:"class"`
		Order   string `json:"order"`
		Family  string `json:"family"`
		Genus   string `json:"genus"`
	} `json:"classification"`

	CommonNames []struct {
		NameString string `json:"nameString"`
		Status     string `json:"status"`
	} `json:"commonNames"`

	Synonyms []struct {
		NameString string `json:"nameString"`
	} `json:"synonyms"`

	ImageIdentifier string `json:"imageIdentifier"`
}

// SpeciesParams is the parameter bag for a species profile lookup.
type SpeciesParams struct {
	Taxon
	IncludeChildren Flag `json:"include_children"`
	IncludeSynonyms Flag `json:"include_synonyms"`
}

// SpeciesInfo looks up the taxonomy and profile of one species.
type SpeciesInfo struct {
	Fetcher httputil.Fetcher
	BaseURL string
}

func (t *SpeciesInfo) Name() string { return types.ToolSpeciesInfo }

func (t *SpeciesInfo) Description() string {
	return "Taxonomy and profile of one species."
}

func (t *SpeciesInfo) Invoke(ctx context.Context, params map[string]any, emit Emitter) types.ExecutionOutcome {
	emit = orNop(emit)

	var p SpeciesParams
	if err := decodeParams(params, &p); err != nil {
		return invalidParams(t.Name(), err)
	}
	id := p.identifier()
	if id == "" {
		return types.Failed(t.Name(), "A species name or LSID is required for a species lookup.")
	}

	v := url.Values{}
	if p.IncludeChildren {
		v.Set("includeChildren", "true")
	}
	if p.IncludeSynonyms {
		v.Set("includeSynonyms", "true")
	}
	uri := httputil.Endpoint(t.BaseURL, "/species/species/"+url.PathEscape(id), v)
	emit.Progress(fmt.Sprintf("Looking up species profile for %s.", p.label()))

	var profile SpeciesProfile
	if err := t.Fetcher.GetJSON(ctx, uri, &profile); err != nil {
		if httputil.StatusCode(err) == http.StatusNotFound {
			return types.Failed(t.Name(), fmt.Sprintf("No species profile found for %s.", p.label()))
		}
		return fetchFailed(t.Name(), err)
	}
	if profile.TaxonConcept.NameString == "" && profile.TaxonConcept.GUID == "" {
		return types.Failed(t.Name(), fmt.Sprintf("The species profile for %s was empty.", p.label()))
	}

	emit.Artifact(jsonArtifact(
		fmt.Sprintf("Species profile for %s", profile.TaxonConcept.NameString), uri,
		map[string]any{"guid": profile.TaxonConcept.GUID, "rank": profile.TaxonConcept.RankString},
	))
	return types.Succeeded(t.Name(), summarizeProfile(profile), profile)
}

func summarizeProfile(p SpeciesProfile) string {
	var b strings.Builder
	tc := p.TaxonConcept
	b.WriteString(tc.NameString)
	if tc.Author != "" {
		b.WriteString(" " + tc.Author)
	}
	if tc.RankString != "" {
		fmt.Fprintf(&b, " (%s)", tc.RankString)
	}
	b.WriteString(".")

	var common []string
	for _, c := range p.CommonNames {
		if c.NameString != "" && !contains(common, c.NameString) {
			common = append(common, c.NameString)
		}
	}
	if len(common) > 0 {
		fmt.Fprintf(&b, " Common names: %s.", strings.Join(firstN(common, 5), ", "))
	}

	c := p.Classification
	var ranks []string
	for _, r := range []string{c.Kingdom, c.Phylum, c.Class, c.Order, c.Family, c.Genus} {
		if r != "" {
			ranks = append(ranks, r)
		}
	}
	if len(ranks) > 0 {
		fmt.Fprintf(&b, " Classification: %s.", strings.Join(ranks, " > "))
	}

	var syn []string
	for _, s := range p.Synonyms {
		if s.NameString != "" {
			syn = append(syn, s.NameString)
		}
	}
	if len(syn) > 0 {
		fmt.Fprintf(&b, " Synonyms: %s.", strings.Join(firstN(syn, 5), ", "))
	}
	if tc.GUID != "" {
		fmt.Fprintf(&b, " LSID: %s", tc.GUID)
	}
	return b.String()
}

func contains(list []string, s string) bool {
	for _, e := range list {
		if strings.EqualFold(e, s) {
			return true
		}
	}
	return false
}

func firstN(list []string, n int) []string {
	if len(list) > n {
		return list[:n]
	}
	return list
}
