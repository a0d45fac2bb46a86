// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package resolve maps a user-supplied species identifier (common name,
// scientific name, or LSID) to a canonical taxon record, consulting the
// name cache before the ALA name-matching service.
package resolve

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/pdiddy/ala-agent/internal/cache"
	"github.com/pdiddy/ala-agent/internal/failure"
	"github.com/pdiddy/ala-agent/internal/namematch"
	"github.com/pdiddy/ala-agent/pkg/types"
)

// vernacularNameTypes are the nameType values accepted on a vernacular match.
var vernacularNameTypes = map[string]bool{
	"":           true,
	"INFORMAL":   true,
	"VERNACULAR": true,
	"COMMON":     true,
}

// scientificMatchTypes are the matchType values accepted on a scientific match.
var scientificMatchTypes = map[string]bool{
	namematch.MatchExact:     true,
	namematch.MatchCanonical: true,
	namematch.MatchPhrase:    true,
	namematch.MatchTaxonID:   true,
}

// Resolver is the SpeciesNameResolver.
type Resolver struct {
	matcher namematch.Matcher
	cache   *cache.Cache
	logger  *slog.Logger
	group   singleflight.Group
	now     func() time.Time

	// lookupTimeout bounds one shared name-matching lookup.
	lookupTimeout time.Duration
}

const defaultLookupTimeout = time.Minute

// New returns a Resolver. A nil cache disables caching.
func New(m namematch.Matcher, c *cache.Cache, logger *slog.Logger) *Resolver {
	if logger == nil {
		logger = slog.Default()
	}
	return &Resolver{matcher: m, cache: c, logger: logger, now: time.Now, lookupTimeout: defaultLookupTimeout}
}

// Resolve returns the canonical record for identifier. It returns an error
// matching failure.ErrNoMatch when the identifier is confirmed absent, and
// a KindNetwork or KindTimeout error when the lookup itself failed.
func (r *Resolver) Resolve(ctx context.Context, identifier string) (types.NameResolutionRecord, error) {
	id := strings.TrimSpace(identifier)
	if id == "" {
		return types.NameResolutionRecord{}, failure.NoMatch("resolve", identifier)
	}

	if IsLSID(id) {
		if rec, ok := r.cache.Get(ctx, cache.Key(cache.KeyLSID, id)); ok && !rec.IsNegative() {
			return rec, nil
		}
		return types.NameResolutionRecord{LSID: id, MatchType: types.MatchDirectLSID}, nil
	}

	if rec, ok, err := r.fromCache(ctx, id); ok {
		return rec, err
	}

	if err := ctx.Err(); err != nil {
		return types.NameResolutionRecord{}, err
	}

	// The shared lookup runs detached from any one caller so a cancelled
	// request does not fail the others waiting on it. Each caller still
	// stops waiting when its own ctx is done.
	ch := r.group.DoChan(cache.Normalize(id), func() (any, error) {
		lctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), r.lookupTimeout)
		defer cancel()
		// A concurrent caller may have finished while this one waited.
		if rec, ok, err := r.fromCache(lctx, id); ok {
			return rec, err
		}
		return r.match(lctx, id)
	})
	select {
	case <-ctx.Done():
		return types.NameResolutionRecord{}, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return types.NameResolutionRecord{}, res.Err
		}
		if res.Shared {
			r.logger.Debug("shared in-flight name resolution", "identifier", id)
		}
		return res.Val.(types.NameResolutionRecord), nil
	}
}

func (r *Resolver) fromCache(ctx context.Context, id string) (types.NameResolutionRecord, bool, error) {
	rec, form, ok := r.cache.Lookup(ctx, id)
	if !ok {
		return types.NameResolutionRecord{}, false, nil
	}
	r.logger.Debug("name cache hit", "identifier", id, "key_form", form, "negative", rec.IsNegative())
	if rec.IsNegative() {
		return types.NameResolutionRecord{}, true, failure.NoMatch("resolve", id)
	}
	return rec, true, nil
}

// match queries both name-matching endpoints and applies the priority rule:
// an accepted vernacular match wins over an accepted scientific match.
func (r *Resolver) match(ctx context.Context, id string) (types.NameResolutionRecord, error) {
	sci, err := r.matcher.MatchScientific(ctx, id)
	if err != nil {
		return types.NameResolutionRecord{}, r.lookupFailed(id, err)
	}
	vern, err := r.matcher.MatchVernacular(ctx, id)
	if err != nil {
		return types.NameResolutionRecord{}, r.lookupFailed(id, err)
	}

	var rec types.NameResolutionRecord
	switch {
	case acceptVernacular(vern):
		rec = fromResult(vern, types.MatchVernacular)
		if rec.CommonName == "" {
			rec.CommonName = id
		}
	case acceptScientific(sci):
		mt := types.MatchExact
		if sci.SynonymType != "" {
			mt = types.MatchSynonym
		}
		rec = fromResult(sci, mt)
	default:
		r.logger.Info("no confident name match",
			"identifier", id,
			"scientific_match", sci.MatchType, "vernacular_match", vern.MatchType)
		r.cache.StoreNegative(ctx, id)
		return types.NameResolutionRecord{}, failure.NoMatch("resolve", id)
	}

	rec.ResolvedAt = r.now().UTC()
	r.cache.StoreAliases(ctx, id, rec)
	r.logger.Info("resolved species name",
		"identifier", id, "scientific_name", rec.ScientificName,
		"lsid", rec.LSID, "match_type", rec.MatchType)
	return rec, nil
}

func (r *Resolver) lookupFailed(id string, err error) error {
	if errors.Is(err, context.Canceled) {
		return err
	}
	r.logger.Warn("name matching unavailable", "identifier", id, "error", err)
	if failure.KindOf(err) == failure.KindUnknown {
		err = failure.FromTransport("namematch", err)
	}
	return fmt.Errorf("resolving %q: %w", id, err)
}

func acceptVernacular(m namematch.Result) bool {
	return m.Success &&
		m.MatchType == namematch.MatchVernacular &&
		vernacularNameTypes[strings.ToUpper(m.NameType)] &&
		m.TaxonConceptID != ""
}

func acceptScientific(m namematch.Result) bool {
	nt := strings.ToUpper(m.NameType)
	return m.Success &&
		scientificMatchTypes[m.MatchType] &&
		(nt == "" || nt == "SCIENTIFIC") &&
		m.TaxonConceptID != ""
}

func fromResult(m namematch.Result, mt types.MatchType) types.NameResolutionRecord {
	return types.NameResolutionRecord{
		ScientificName: m.ScientificName,
		CommonName:     m.VernacularName,
		LSID:           m.TaxonConceptID,
		Rank:           m.Rank,
		Kingdom:        m.Kingdom,
		Family:         m.Family,
		Genus:          m.Genus,
		MatchType:      mt,
	}
}
