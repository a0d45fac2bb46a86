// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package tools

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/pdiddy/ala-agent/internal/httputil"
	"github.com/pdiddy/ala-agent/pkg/types"
)

// RecordParams is the parameter bag for a single occurrence lookup.
type RecordParams struct {
	UUID Text `json:"uuid" validate:"required,uuid"`
}

// recordSection is one view (raw or processed) of an occurrence record.
// Raw values arrive as strings and processed values as numbers, so the
// coordinate fields use Text.
type recordSection struct {
	Classification struct {
		ScientificName string `json:"scientificName"`
		VernacularName string `json:"vernacularName"`
		TaxonConceptID string `json:"taxonConceptID"`
	} `json:"classification"`
	Location struct {
		Locality         string `json:"locality"`
		StateProvince    string `json:"stateProvince"`
		Country          string `json:"country"`
		DecimalLatitude  Text   `json:"decimalLatitude"`
		DecimalLongitude Text   `json:"decimalLongitude"`
	} `json:"location"`
	Event struct {
		EventDate Text `json:"eventDate"`
	} `json:"event"`
	Occurrence struct {
		BasisOfRecord string `json:"basisOfRecord"`
		RecordedBy    string `json:"recordedBy"`
	} `json:"occurrence"`
	Attribution struct {
		DataResourceName string `json:"dataResourceName"`
	} `json:"attribution"`
}

// OccurrenceRecord is the decoded single-record response.
type OccurrenceRecord struct {
	Raw       recordSection `json:"raw"`
	Processed recordSection `json:"processed"`
}

// pick returns the processed value when present, else the raw one.
func pick(processed, raw string) string {
	if processed != "" {
		return processed
	}
	return raw
}

// OccurrenceLookup fetches one occurrence record by its UUID.
type OccurrenceLookup struct {
	Fetcher httputil.Fetcher
	BaseURL string
}

func (t *OccurrenceLookup) Name() string { return types.ToolOccurrenceRecord }

func (t *OccurrenceLookup) Description() string {
	return "Fetch one occurrence record by its UUID."
}

func (t *OccurrenceLookup) Invoke(ctx context.Context, params map[string]any, emit Emitter) types.ExecutionOutcome {
	emit = orNop(emit)

	var p RecordParams
	if err := decodeParams(params, &p); err != nil {
		return invalidParams(t.Name(), err)
	}

	uri := httputil.Endpoint(t.BaseURL, "/occurrences/"+url.PathEscape(p.UUID.String()), nil)
	emit.Progress(fmt.Sprintf("Fetching occurrence record %s.", p.UUID))

	var rec OccurrenceRecord
	if err := t.Fetcher.GetJSON(ctx, uri, &rec); err != nil {
		if httputil.StatusCode(err) == http.StatusNotFound {
			return types.Failed(t.Name(), fmt.Sprintf("No occurrence record has the ID %s.", p.UUID))
		}
		return fetchFailed(t.Name(), err)
	}

	name := pick(rec.Processed.Classification.ScientificName, rec.Raw.Classification.ScientificName)
	if name == "" && rec.Raw.Location.Country == "" && rec.Processed.Location.Country == "" {
		return types.Failed(t.Name(), fmt.Sprintf("Occurrence record %s was empty.", p.UUID))
	}

	emit.Artifact(jsonArtifact(fmt.Sprintf("Occurrence record %s", p.UUID), uri,
		map[string]any{"uuid": p.UUID.String(), "scientific_name": name}))
	return types.Succeeded(t.Name(), summarizeRecord(p.UUID.String(), rec), rec)
}

func summarizeRecord(id string, r OccurrenceRecord) string {
	pr, raw := r.Processed, r.Raw
	var b strings.Builder
	fmt.Fprintf(&b, "Occurrence record %s", id)

	name := pick(pr.Classification.ScientificName, raw.Classification.ScientificName)
	if common := pick(pr.Classification.VernacularName, raw.Classification.VernacularName); common != "" {
		name = fmt.Sprintf("%s (%s)", common, name)
	}
	if name != "" {
		fmt.Fprintf(&b, ": %s", name)
	}

	var place []string
	for _, s := range []string{
		pick(pr.Location.Locality, raw.Location.Locality),
		pick(pr.Location.StateProvince, raw.Location.StateProvince),
		pick(pr.Location.Country, raw.Location.Country),
	} {
		if s != "" {
			place = append(place, s)
		}
	}
	if len(place) > 0 {
		fmt.Fprintf(&b, ", recorded at %s", strings.Join(place, ", "))
	}
	lat := pick(pr.Location.DecimalLatitude.String(), raw.Location.DecimalLatitude.String())
	lon := pick(pr.Location.DecimalLongitude.String(), raw.Location.DecimalLongitude.String())
	if lat != "" && lon != "" {
		fmt.Fprintf(&b, " (%s, %s)", lat, lon)
	}
	if date := pick(pr.Event.EventDate.String(), raw.Event.EventDate.String()); date != "" {
		fmt.Fprintf(&b, " on %s", date)
	}
	b.WriteString(".")

	if basis := pick(pr.Occurrence.BasisOfRecord, raw.Occurrence.BasisOfRecord); basis != "" {
		fmt.Fprintf(&b, " Basis of record: %s.", basis)
	}
	if by := pick(pr.Occurrence.RecordedBy, raw.Occurrence.RecordedBy); by != "" {
		fmt.Fprintf(&b, " Recorded by %s.", by)
	}
	if src := pick(pr.Attribution.DataResourceName, raw.Attribution.DataResourceName); src != "" {
		fmt.Fprintf(&b, " Source: %s.", src)
	}
	return b.String()
}
