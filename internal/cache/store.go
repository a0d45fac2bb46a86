// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package cache stores NameResolutionRecords under every alias a species is
// known by, so any alias resolves with one lookup and failed lookups are
// remembered. The backing Store is redis, badger, or process memory.
package cache

import (
	"context"
	"errors"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"
)

// ErrMiss is returned by a Store when the key is absent or expired.
var ErrMiss = errors.New("cache miss")

// Store is a key to raw-bytes store with per-entry TTL. Implementations
// must be safe for concurrent use.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Close() error
}

// KeyForm is the alias kind a key was written under.
type KeyForm string

const (
	KeyLSID       KeyForm = "lsid"
	KeyScientific KeyForm = "sci"
	KeyVernacular KeyForm = "vern"
	KeySynonym    KeyForm = "syn"
	KeyFuzzy      KeyForm = "fuzzy"
	KeyPrefix     KeyForm = "prefix"
	KeyNegative   KeyForm = "neg"
)

// LookupOrder is the order Lookup consults key forms.
var LookupOrder = []KeyForm{
	KeyLSID,
	KeyScientific,
	KeyVernacular,
	KeySynonym,
	KeyFuzzy,
	KeyPrefix,
	KeyNegative,
}

// Normalize lower-cases id, trims it, and collapses internal whitespace.
func Normalize(id string) string {
	return strings.Join(strings.Fields(strings.ToLower(id)), " ")
}

// Key builds the store key for id under form, without the namespace prefix.
func Key(form KeyForm, id string) string {
	if form == KeyPrefix {
		id = binomial(id)
	}
	return string(form) + ":" + Normalize(id)
}

// binomial returns the first two words of a name ("Genus species").
func binomial(name string) string {
	f := strings.Fields(name)
	if len(f) > 2 {
		f = f[:2]
	}
	return strings.Join(f, " ")
}

// authorParticles are lowercase words that appear inside author citations.
var authorParticles = map[string]bool{
	"ex": true, "in": true, "et": true, "&": true,
	"de": true, "van": true, "von": true, "da": true, "du": true,
}

// Prefixable reports whether name may be looked up by its binomial: a bare
// binomial, or a binomial followed only by authorship ("Goldfuss",
// "(Goldfuss, 1817)"). A lowercase third word is an infraspecific epithet
// or a rank marker ("dingo", "subsp.") and names a different taxon.
func Prefixable(name string) bool {
	f := strings.Fields(name)
	if len(f) < 2 {
		return false
	}
	for _, w := range f[2:] {
		r, _ := utf8.DecodeRuneInString(w)
		if unicode.IsLower(r) && !authorParticles[w] {
			return false
		}
	}
	return true
}
