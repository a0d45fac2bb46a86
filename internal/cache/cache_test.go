// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package cache

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/ala-agent/pkg/types"
)

var koala = types.NameResolutionRecord{
	ScientificName: "Phascolarctos cinereus",
	CommonName:     "Koala",
	LSID:           "https://biodiversity.org.au/afd/taxa/e9d6fbbd-1505-4073-990a-dc66c930dad6",
	Rank:           "species",
	Family:         "Phascolarctidae",
	MatchType:      types.MatchVernacular,
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// failingStore simulates an unreachable backend.
type failingStore struct{ calls int }

func (f *failingStore) Get(context.Context, string) ([]byte, error) {
	f.calls++
	return nil, errors.New("connection refused")
}

func (f *failingStore) Set(context.Context, string, []byte, time.Duration) error {
	f.calls++
	return errors.New("connection refused")
}

func (f *failingStore) Close() error { return nil }

func TestKey(t *testing.T) {
	assert.Equal(t, "sci:phascolarctos cinereus", Key(KeyScientific, "  Phascolarctos   cinereus "))
	assert.Equal(t, "prefix:phascolarctos cinereus", Key(KeyPrefix, "Phascolarctos cinereus (Goldfuss, 1817)"))
	assert.Equal(t, "fuzzy:koala", Key(KeyFuzzy, "KOALA"))
}

func TestStoreAliases_AnyAliasResolves(t *testing.T) {
	ctx := context.Background()
	c := New(NewMemoryStore(), WithLogger(quietLogger()))

	c.StoreAliases(ctx, "koala", koala)

	tests := []struct {
		alias string
		form  KeyForm
	}{
		{"koala", KeyVernacular},
		{"Phascolarctos cinereus", KeyScientific},
		{koala.LSID, KeyLSID},
		{"Phascolarctos cinereus Goldfuss", KeyPrefix},
	}
	for _, tt := range tests {
		t.Run(tt.alias, func(t *testing.T) {
			rec, form, ok := c.Lookup(ctx, tt.alias)
			require.True(t, ok)
			assert.Equal(t, tt.form, form)
			assert.Equal(t, koala.LSID, rec.LSID)
			assert.False(t, rec.IsNegative())
		})
	}
}

func TestPrefixable(t *testing.T) {
	tests := []struct {
		name string
		want bool
	}{
		{"Canis lupus", true},
		{"Phascolarctos cinereus Goldfuss", true},
		{"Phascolarctos cinereus (Goldfuss, 1817)", true},
		{"Acacia dealbata Link ex Sweet", true},
		{"Canis lupus dingo", false},
		{"Eucalyptus globulus subsp. bicostata", false},
		{"Canis", false},
		{"", false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Prefixable(tt.name), tt.name)
	}
}

func TestLookup_PrefixNeverCrossesRanks(t *testing.T) {
	ctx := context.Background()
	c := New(NewMemoryStore(), WithLogger(quietLogger()))

	wolf := types.NameResolutionRecord{ScientificName: "Canis lupus", LSID: "lsid-wolf", Rank: "species", MatchType: types.MatchExact}
	dingo := types.NameResolutionRecord{ScientificName: "Canis lupus dingo", LSID: "lsid-dingo", Rank: "subspecies", MatchType: types.MatchExact}

	c.StoreAliases(ctx, "Canis lupus", wolf)
	_, _, ok := c.Lookup(ctx, "Canis lupus dingo")
	assert.False(t, ok, "a subspecies must not resolve to its species")

	c2 := New(NewMemoryStore(), WithLogger(quietLogger()))
	c2.StoreAliases(ctx, "Canis lupus dingo", dingo)
	_, _, ok = c2.Lookup(ctx, "Canis lupus")
	assert.False(t, ok, "a species must not resolve to a subspecies")
	_, ok = c2.Get(ctx, Key(KeyPrefix, "Canis lupus"))
	assert.False(t, ok)

	rec, form, ok := c.Lookup(ctx, "Canis lupus Linnaeus, 1758")
	require.True(t, ok)
	assert.Equal(t, KeyPrefix, form)
	assert.Equal(t, "lsid-wolf", rec.LSID)
}

func TestLookup_PrefixIgnoresStaleNonSpeciesEntry(t *testing.T) {
	ctx := context.Background()
	c := New(NewMemoryStore(), WithLogger(quietLogger()))
	genus := types.NameResolutionRecord{ScientificName: "Canis", LSID: "lsid-canis", Rank: "genus", MatchType: types.MatchExact}
	c.Put(ctx, Key(KeyPrefix, "Canis familiaris"), genus)

	_, _, ok := c.Lookup(ctx, "Canis familiaris")
	assert.False(t, ok)
}

func TestStoreAliases_SynonymKey(t *testing.T) {
	ctx := context.Background()
	c := New(NewMemoryStore())

	rec := types.NameResolutionRecord{
		ScientificName: "Osphranter rufus",
		LSID:           "https://biodiversity.org.au/afd/taxa/red-kangaroo",
		MatchType:      types.MatchSynonym,
	}
	c.StoreAliases(ctx, "Macropus rufus", rec)

	got, ok := c.Get(ctx, Key(KeySynonym, "Macropus rufus"))
	require.True(t, ok)
	assert.Equal(t, "Osphranter rufus", got.ScientificName)
}

func TestStoreNegative(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	c := New(store)

	before := testutil.ToFloat64(lookups.WithLabelValues("negative"))
	c.StoreNegative(ctx, "xyzzyqwerty")

	rec, form, ok := c.Lookup(ctx, "XyzzyQwerty")
	require.True(t, ok)
	assert.Equal(t, KeyNegative, form)
	assert.True(t, rec.IsNegative())
	assert.Empty(t, rec.LSID)
	assert.Equal(t, before+1, testutil.ToFloat64(lookups.WithLabelValues("negative")))
}

func TestNegativeTTLIsShorter(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	now := time.Now()
	store.now = func() time.Time { return now }
	c := New(store, WithTTL(24*time.Hour), WithNegativeTTL(time.Minute))

	c.StoreAliases(ctx, "koala", koala)
	c.StoreNegative(ctx, "xyzzyqwerty")

	store.now = func() time.Time { return now.Add(2 * time.Minute) }

	_, _, ok := c.Lookup(ctx, "xyzzyqwerty")
	assert.False(t, ok, "negative entry should have expired")
	_, _, ok = c.Lookup(ctx, "koala")
	assert.True(t, ok)
}

func TestLookup_Miss(t *testing.T) {
	c := New(NewMemoryStore())
	before := testutil.ToFloat64(lookups.WithLabelValues("miss"))

	_, _, ok := c.Lookup(context.Background(), "wombat")
	assert.False(t, ok)
	assert.Equal(t, before+1, testutil.ToFloat64(lookups.WithLabelValues("miss")))

	_, _, ok = c.Lookup(context.Background(), "   ")
	assert.False(t, ok)
}

func TestDegradedStore(t *testing.T) {
	ctx := context.Background()
	fs := &failingStore{}
	c := New(fs, WithLogger(quietLogger()))

	before := testutil.ToFloat64(storeErrors.WithLabelValues("set"))
	c.StoreAliases(ctx, "koala", koala)
	assert.Greater(t, testutil.ToFloat64(storeErrors.WithLabelValues("set")), before)

	_, _, ok := c.Lookup(ctx, "koala")
	assert.False(t, ok)
	assert.Greater(t, fs.calls, 0)
}

func TestCorruptEntryIsMiss(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	require.NoError(t, store.Set(ctx, defaultPrefix+Key(KeyFuzzy, "koala"), []byte("{"), 0))

	c := New(store, WithLogger(quietLogger()))
	_, ok := c.Get(ctx, Key(KeyFuzzy, "koala"))
	assert.False(t, ok)
}

func TestNilCache(t *testing.T) {
	var c *Cache
	_, ok := c.Get(context.Background(), "x")
	assert.False(t, ok)
	c.Put(context.Background(), "x", koala)
	assert.NoError(t, c.Close())
}

func TestConcurrentAccess(t *testing.T) {
	ctx := context.Background()
	c := New(NewMemoryStore())

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			c.StoreAliases(ctx, "koala", koala)
		}()
		go func() {
			defer wg.Done()
			c.Lookup(ctx, "koala")
		}()
	}
	wg.Wait()

	rec, _, ok := c.Lookup(ctx, "koala")
	require.True(t, ok)
	assert.Equal(t, koala.ScientificName, rec.ScientificName)
}

func TestOpen_FallsBackToMemory(t *testing.T) {
	c := Open(context.Background(), types.CacheConfig{Backend: "bogus"}, "", quietLogger())
	_, ok := c.store.(*MemoryStore)
	assert.True(t, ok)

	c = Open(context.Background(), types.CacheConfig{Backend: types.CacheRedis}, "", quietLogger())
	_, ok = c.store.(*MemoryStore)
	assert.True(t, ok)
}
