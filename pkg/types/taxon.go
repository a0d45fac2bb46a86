// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "time"

// MatchType records how a NameResolutionRecord was obtained.
type MatchType string

const (
	MatchExact      MatchType = "exact"
	MatchVernacular MatchType = "vernacular"
	MatchSynonym    MatchType = "synonym"
	MatchDirectLSID MatchType = "direct-lsid"
	MatchNone       MatchType = "no-match"
)

// NameResolutionRecord is the canonical taxonomic identity of a species
// identifier. Records are immutable once written to the cache.
type NameResolutionRecord struct {
	// ScientificName is the accepted scientific name, if known.
	ScientificName string `json:"scientificName,omitempty" yaml:"scientific_name,omitempty"`

	// CommonName is the vernacular name, if known.
	CommonName string `json:"commonName,omitempty" yaml:"common_name,omitempty"`

	// LSID is the stable taxon concept identifier (a URI).
	LSID string `json:"lsid,omitempty" yaml:"lsid,omitempty"`

	// Rank is the taxonomic rank (e.g. "species").
	Rank string `json:"rank,omitempty" yaml:"rank,omitempty"`

	Kingdom string `json:"kingdom,omitempty" yaml:"kingdom,omitempty"`
	Family  string `json:"family,omitempty" yaml:"family,omitempty"`
	Genus   string `json:"genus,omitempty" yaml:"genus,omitempty"`

	// MatchType is how the record was obtained.
	MatchType MatchType `json:"matchType" yaml:"match_type"`

	// ResolvedAt is when the record was produced.
	ResolvedAt time.Time `json:"resolvedAt,omitempty" yaml:"resolved_at,omitempty"`
}

// IsNegative reports whether the record marks a confirmed non-match.
func (r NameResolutionRecord) IsNegative() bool {
	return r.MatchType == MatchNone
}

// DisplayName returns the most readable name available.
func (r NameResolutionRecord) DisplayName() string {
	switch {
	case r.CommonName != "" && r.ScientificName != "":
		return r.CommonName + " (" + r.ScientificName + ")"
	case r.ScientificName != "":
		return r.ScientificName
	case r.CommonName != "":
		return r.CommonName
	default:
		return r.LSID
	}
}
