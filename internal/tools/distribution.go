// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package tools

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/pdiddy/ala-agent/internal/httputil"
	"github.com/pdiddy/ala-agent/pkg/types"
)

// DistributionLayer is one expert distribution polygon.
type DistributionLayer struct {
	GID            int     `json:"gid"`
	Scientific     string  `json:"scientific"`
	AreaName       string  `json:"area_name"`
	AreaKm         float64 `json:"area_km"`
	ImageURL       string  `json:"imageUrl"`
	DataResourceID string  `json:"data_resource_uid"`
}

// decodeDistributions accepts either a list of layers or a single layer.
func decodeDistributions(raw json.RawMessage) ([]DistributionLayer, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return nil, nil
	}
	switch raw[0] {
	case '[':
		var layers []DistributionLayer
		if err := json.Unmarshal(raw, &layers); err != nil {
			return nil, err
		}
		return layers, nil
	case '{':
		var layer DistributionLayer
		if err := json.Unmarshal(raw, &layer); err != nil {
			return nil, err
		}
		return []DistributionLayer{layer}, nil
	default:
		return nil, fmt.Errorf("unexpected distribution response starting with %q", raw[0])
	}
}

// Distribution fetches the expert distribution map of a species.
type Distribution struct {
	Fetcher httputil.Fetcher
	BaseURL string
}

func (t *Distribution) Name() string { return types.ToolDistribution }

func (t *Distribution) Description() string {
	return "Expert distribution range of a species."
}

func (t *Distribution) Invoke(ctx context.Context, params map[string]any, emit Emitter) types.ExecutionOutcome {
	emit = orNop(emit)

	var p Taxon
	if err := decodeParams(params, &p); err != nil {
		return invalidParams(t.Name(), err)
	}
	if p.LSID == "" {
		return types.Failed(t.Name(), "A taxon identifier (LSID) is required to fetch a distribution map.")
	}

	uri := httputil.Endpoint(t.BaseURL, "/spatial-service/distribution/lsids/"+url.PathEscape(p.LSID.String()), nil)
	emit.Progress(fmt.Sprintf("Fetching the distribution map for %s.", p.label()))

	var raw json.RawMessage
	if err := t.Fetcher.GetJSON(ctx, uri, &raw); err != nil {
		if httputil.StatusCode(err) == http.StatusNotFound {
			return types.Succeeded(t.Name(), fmt.Sprintf("No expert distribution map is available for %s.", p.label()), nil)
		}
		return fetchFailed(t.Name(), err)
	}
	layers, err := decodeDistributions(raw)
	if err != nil {
		return types.Failed(t.Name(), fmt.Sprintf("The distribution response for %s could not be read.", p.label()))
	}
	if len(layers) == 0 {
		return types.Succeeded(t.Name(), fmt.Sprintf("No expert distribution map is available for %s.", p.label()), nil)
	}

	var images []string
	var areas []string
	for _, l := range layers {
		if l.ImageURL != "" {
			images = append(images, l.ImageURL)
		}
		name := l.AreaName
		if name == "" {
			name = l.Scientific
		}
		areas = append(areas, fmt.Sprintf("%s (%.0f km²)", name, l.AreaKm))
	}

	emit.Artifact(jsonArtifact(fmt.Sprintf("Distribution of %s", p.label()), uri,
		map[string]any{"layers": len(layers)}))
	if len(images) > 0 {
		emit.Artifact(types.Artifact{
			MimeType:    "image/png",
			Description: fmt.Sprintf("Distribution map of %s", p.label()),
			URIs:        images,
		})
	}

	msg := fmt.Sprintf("Found %d distribution layer(s) for %s: %s.", len(layers), p.label(), strings.Join(areas, "; "))
	return types.Succeeded(t.Name(), msg, layers)
}
