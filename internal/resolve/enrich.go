// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package resolve

import (
	"context"
	"errors"
	"fmt"

	"github.com/pdiddy/ala-agent/internal/failure"
	"github.com/pdiddy/ala-agent/pkg/types"
)

// Identifier returns the species identifier carried by q, or "" when the
// query names no species (or carries a ready-made query expression).
func Identifier(q *types.ExtractedQuery) string {
	for _, key := range []string{types.ParamQuery, "scientificname", types.UnresolvedScientificName} {
		if v := q.Param(key); v != "" {
			if isQueryExpression(v) {
				return ""
			}
			return v
		}
	}
	return ""
}

// Enrich resolves the species identifier in q and writes the canonical
// fields (lsid, scientificName, commonName, rank metadata, matchType) into
// its parameters. It returns nil, nil when q names no species.
//
// On a confirmed non-match q is flagged for clarification and the
// ErrNoMatch error is returned. A lookup failure leaves q untouched.
func (r *Resolver) Enrich(ctx context.Context, q *types.ExtractedQuery) (*types.NameResolutionRecord, error) {
	id := Identifier(q)
	if id == "" {
		return nil, nil
	}

	rec, err := r.Resolve(ctx, id)
	if errors.Is(err, failure.ErrNoMatch) {
		q.RequestClarification(clarificationFor(id))
		return nil, err
	}
	if err != nil {
		return nil, err
	}

	q.Set(types.ParamLSID, rec.LSID)
	q.Set(types.ParamScientificName, rec.ScientificName)
	q.Set(types.ParamCommonName, rec.CommonName)
	q.Set(types.ParamRank, rec.Rank)
	q.Set(types.ParamKingdom, rec.Kingdom)
	q.Set(types.ParamFamily, rec.Family)
	q.Set(types.ParamGenus, rec.Genus)
	q.Set(types.ParamMatchType, string(rec.MatchType))
	q.MarkResolved(types.UnresolvedScientificName)
	q.MarkResolved(types.ParamLSID)
	return &rec, nil
}

func clarificationFor(id string) string {
	return fmt.Sprintf("I couldn't find a species matching %q in the Atlas of Living Australia. "+
		"Try the full scientific name (for example \"Phascolarctos cinereus\"), "+
		"a different common name, or an exact LSID.", id)
}
