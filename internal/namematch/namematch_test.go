// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package namematch

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/ala-agent/internal/failure"
	"github.com/pdiddy/ala-agent/internal/httputil"
	"github.com/pdiddy/ala-agent/pkg/types"
)

func TestClient(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/namematching/api/search":
			assert.Equal(t, "Phascolarctos cinereus", r.URL.Query().Get("q"))
			w.Write([]byte(`{"success":true,"matchType":"exactMatch","nameType":"SCIENTIFIC",
				"scientificName":"Phascolarctos cinereus","taxonConceptID":"https://biodiversity.org.au/afd/taxa/e9d6fbbd",
				"rank":"species","kingdom":"Animalia","family":"Phascolarctidae","genus":"Phascolarctos"}`))
		case "/namematching/api/searchByVernacularName":
			assert.Equal(t, "koala", r.URL.Query().Get("vernacularName"))
			w.Write([]byte(`{"success":true,"matchType":"vernacularMatch","nameType":"INFORMAL",
				"scientificName":"Phascolarctos cinereus","vernacularName":"Koala","taxonConceptID":"https://biodiversity.org.au/afd/taxa/e9d6fbbd"}`))
		default:
			http.NotFound(w, r)
		}
	}))
	defer ts.Close()

	c := NewClient(ts.URL, httputil.NewClient(types.HTTPConfig{}))

	r, err := c.MatchScientific(context.Background(), "Phascolarctos cinereus")
	require.NoError(t, err)
	assert.True(t, r.Success)
	assert.Equal(t, MatchExact, r.MatchType)
	assert.Equal(t, "Phascolarctidae", r.Family)

	r, err = c.MatchVernacular(context.Background(), "koala")
	require.NoError(t, err)
	assert.Equal(t, MatchVernacular, r.MatchType)
	assert.Equal(t, "Koala", r.VernacularName)
}

func TestClient_NetworkFailure(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer ts.Close()

	c := NewClient(ts.URL, httputil.NewClient(types.HTTPConfig{}))
	_, err := c.MatchScientific(context.Background(), "koala")
	require.Error(t, err)
	assert.True(t, failure.Is(err, failure.KindNetwork))
}
