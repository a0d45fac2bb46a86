// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package namematch calls the ALA name-matching service, which maps a
// scientific or vernacular name to a taxon concept.
package namematch

import (
	"context"
	"fmt"
	"net/url"

	"github.com/pdiddy/ala-agent/internal/httputil"
)

// Match types reported by the service.
const (
	MatchExact      = "exactMatch"
	MatchCanonical  = "canonicalMatch"
	MatchPhrase     = "phraseMatch"
	MatchTaxonID    = "taxonIdMatch"
	MatchVernacular = "vernacularMatch"
	MatchFuzzy      = "fuzzyMatch"
	MatchHigher     = "higherMatch"
)

// Result is one name-matching response.
type Result struct {
	Success        bool     `json:"success"`
	MatchType      string   `json:"matchType"`
	NameType       string   `json:"nameType"`
	ScientificName string   `json:"scientificName"`
	TaxonConceptID string   `json:"taxonConceptID"`
	VernacularName string   `json:"vernacularName"`
	Rank           string   `json:"rank"`
	Kingdom        string   `json:"kingdom"`
	Family         string   `json:"family"`
	Genus          string   `json:"genus"`
	SynonymType    string   `json:"synonymType,omitempty"`
	Issues         []string `json:"issues,omitempty"`
}

// Matcher is the name-matching service.
type Matcher interface {
	MatchScientific(ctx context.Context, name string) (Result, error)
	MatchVernacular(ctx context.Context, name string) (Result, error)
}

// Client is the HTTP Matcher.
type Client struct {
	BaseURL string
	Fetcher httputil.Fetcher
}

// NewClient returns a Client against base (empty uses the ALA gateway).
func NewClient(base string, f httputil.Fetcher) *Client {
	return &Client{BaseURL: base, Fetcher: f}
}

// MatchScientific calls /namematching/api/search.
func (c *Client) MatchScientific(ctx context.Context, name string) (Result, error) {
	u := httputil.Endpoint(c.BaseURL, "/namematching/api/search", url.Values{"q": {name}})
	return c.get(ctx, u)
}

// MatchVernacular calls /namematching/api/searchByVernacularName.
func (c *Client) MatchVernacular(ctx context.Context, name string) (Result, error) {
	u := httputil.Endpoint(c.BaseURL, "/namematching/api/searchByVernacularName", url.Values{"vernacularName": {name}})
	return c.get(ctx, u)
}

func (c *Client) get(ctx context.Context, u string) (Result, error) {
	var r Result
	if err := c.Fetcher.GetJSON(ctx, u, &r); err != nil {
		return Result{}, fmt.Errorf("name matching: %w", err)
	}
	return r, nil
}
