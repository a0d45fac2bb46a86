// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package resolve

import (
	"regexp"
	"strings"
)

// lsidPrefixes are the URI prefixes ALA taxon identifiers are minted under.
var lsidPrefixes = []string{
	"urn:lsid:",
	"https://biodiversity.org.au/afd/taxa/",
	"http://biodiversity.org.au/afd/taxa/",
	"https://id.biodiversity.org.au/",
	"http://id.biodiversity.org.au/",
	"https://biodiversity.org.au/",
}

// lsidTail requires something identifier-like after the prefix.
var lsidTail = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9.:_/-]*$`)

// IsLSID reports whether id is a taxon identifier URI. Matching is purely
// syntactic; the identifier is not checked against any service.
func IsLSID(id string) bool {
	id = strings.TrimSpace(id)
	lower := strings.ToLower(id)
	for _, p := range lsidPrefixes {
		if strings.HasPrefix(lower, p) {
			return lsidTail.MatchString(id[len(p):])
		}
	}
	return false
}

// isQueryExpression reports whether q is already an ALA query expression
// (e.g. "rk_genus:Macropus") rather than a species identifier.
func isQueryExpression(q string) bool {
	return strings.Contains(q, ":") && !IsLSID(q)
}
