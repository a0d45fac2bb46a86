// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package cache

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/pdiddy/ala-agent/pkg/types"
)

const (
	defaultPrefix      = "ala:names:"
	defaultTTL         = 24 * time.Hour
	defaultNegativeTTL = time.Hour
)

// Cache is the NameResolutionCache. Store failures never reach the caller:
// a failed Get reads as a miss and a failed Put is logged and dropped.
type Cache struct {
	store       Store
	prefix      string
	ttl         time.Duration
	negativeTTL time.Duration
	logger      *slog.Logger
}

// Option configures a Cache.
type Option func(*Cache)

// WithPrefix namespaces all keys.
func WithPrefix(p string) Option {
	return func(c *Cache) { c.prefix = p }
}

// WithTTL sets the lifetime of positive records.
func WithTTL(d time.Duration) Option {
	return func(c *Cache) {
		if d > 0 {
			c.ttl = d
		}
	}
}

// WithNegativeTTL sets the lifetime of no-match records.
func WithNegativeTTL(d time.Duration) Option {
	return func(c *Cache) {
		if d > 0 {
			c.negativeTTL = d
		}
	}
}

// WithLogger sets the logger used for degraded-mode warnings.
func WithLogger(l *slog.Logger) Option {
	return func(c *Cache) {
		if l != nil {
			c.logger = l
		}
	}
}

// New wraps store. A nil store yields a Cache that always misses.
func New(store Store, opts ...Option) *Cache {
	c := &Cache{
		store:       store,
		prefix:      defaultPrefix,
		ttl:         defaultTTL,
		negativeTTL: defaultNegativeTTL,
		logger:      slog.Default(),
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// Get returns the record stored under key (a Key result).
func (c *Cache) Get(ctx context.Context, key string) (types.NameResolutionRecord, bool) {
	if c == nil || c.store == nil {
		return types.NameResolutionRecord{}, false
	}
	raw, err := c.store.Get(ctx, c.prefix+key)
	if errors.Is(err, ErrMiss) {
		return types.NameResolutionRecord{}, false
	}
	if err != nil {
		storeErrors.WithLabelValues("get").Inc()
		c.logger.Warn("name cache unavailable, continuing without it", "key", key, "error", err)
		return types.NameResolutionRecord{}, false
	}
	var rec types.NameResolutionRecord
	if err := json.Unmarshal(raw, &rec); err != nil {
		storeErrors.WithLabelValues("decode").Inc()
		c.logger.Warn("discarding corrupt name cache entry", "key", key, "error", err)
		return types.NameResolutionRecord{}, false
	}
	return rec, true
}

// Put stores rec under key. Negative records use the negative TTL.
func (c *Cache) Put(ctx context.Context, key string, rec types.NameResolutionRecord) {
	if c == nil || c.store == nil {
		return
	}
	raw, err := json.Marshal(rec)
	if err != nil {
		storeErrors.WithLabelValues("encode").Inc()
		return
	}
	ttl := c.ttl
	if rec.IsNegative() {
		ttl = c.negativeTTL
	}
	if err := c.store.Set(ctx, c.prefix+key, raw, ttl); err != nil {
		storeErrors.WithLabelValues("set").Inc()
		c.logger.Warn("name cache write failed, continuing without it", "key", key, "error", err)
	}
}

// Lookup consults every key form for identifier in LookupOrder and returns
// the first hit with the form that matched. A negative hit is returned
// as-is; callers must check IsNegative.
func (c *Cache) Lookup(ctx context.Context, identifier string) (types.NameResolutionRecord, KeyForm, bool) {
	if Normalize(identifier) == "" {
		return types.NameResolutionRecord{}, "", false
	}
	for _, form := range LookupOrder {
		if form == KeyPrefix && !Prefixable(identifier) {
			continue
		}
		if rec, ok := c.Get(ctx, Key(form, identifier)); ok {
			if form == KeyPrefix && !speciesLevel(rec) {
				continue
			}
			if rec.IsNegative() {
				lookups.WithLabelValues("negative").Inc()
			} else {
				lookups.WithLabelValues("hit").Inc()
			}
			return rec, form, true
		}
	}
	lookups.WithLabelValues("miss").Inc()
	return types.NameResolutionRecord{}, "", false
}

// StoreAliases writes rec under every alias it is known by: the literal
// input, the scientific name, the binomial prefix of a species-level name,
// the vernacular name, a synonym key when the input was a synonym, and the
// LSID.
func (c *Cache) StoreAliases(ctx context.Context, input string, rec types.NameResolutionRecord) {
	keys := []string{Key(KeyFuzzy, input)}
	if rec.ScientificName != "" {
		keys = append(keys, Key(KeyScientific, rec.ScientificName))
		if speciesLevel(rec) {
			keys = append(keys, Key(KeyPrefix, rec.ScientificName))
		}
	}
	if rec.CommonName != "" {
		keys = append(keys, Key(KeyVernacular, rec.CommonName))
	}
	if rec.MatchType == types.MatchSynonym {
		keys = append(keys, Key(KeySynonym, input))
	}
	if rec.LSID != "" {
		keys = append(keys, Key(KeyLSID, rec.LSID))
	}

	seen := make(map[string]bool, len(keys))
	for _, k := range keys {
		if seen[k] {
			continue
		}
		seen[k] = true
		c.Put(ctx, k, rec)
	}
}

// speciesLevel reports whether rec names a species by a binomial, so its
// prefix key cannot collide with a subspecies or a genus.
func speciesLevel(rec types.NameResolutionRecord) bool {
	rank := strings.ToLower(rec.Rank)
	return (rank == "" || rank == "species") && Prefixable(rec.ScientificName)
}

// StoreNegative records that input matched nothing.
func (c *Cache) StoreNegative(ctx context.Context, input string) {
	c.Put(ctx, Key(KeyNegative, input), types.NameResolutionRecord{
		MatchType:  types.MatchNone,
		ResolvedAt: time.Now().UTC(),
	})
}

// Close releases the underlying store.
func (c *Cache) Close() error {
	if c == nil || c.store == nil {
		return nil
	}
	return c.store.Close()
}
