// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/pdiddy/ala-agent/internal/httputil"
	"github.com/pdiddy/ala-agent/pkg/types"
)

const (
	occurrenceSearchPath   = "/occurrences/occurrences/search"
	defaultPageSize        = 20
	defaultImagePageSize   = 10
	occurrenceSummaryLimit = 5
	imageProxyURL          = "https://images.ala.org.au/image/proxyImageThumbnailLarge?imageId="
)

// OccurrenceParams is the parameter bag for occurrence searches.
type OccurrenceParams struct {
	Taxon
	Filter

	PageSize   *Number `json:"pageSize" validate:"omitempty,gte=0,lte=1000"`
	StartIndex Number  `json:"startIndex" validate:"gte=0"`
}

func (p *OccurrenceParams) pageSize(def int) int {
	if p.PageSize == nil {
		return def
	}
	return int(*p.PageSize)
}

func (p *OccurrenceParams) values(def int) url.Values {
	v := url.Values{}
	v.Set("q", p.searchQuery())
	p.apply(v)
	v.Set("pageSize", strconv.Itoa(p.pageSize(def)))
	if p.StartIndex > 0 {
		v.Set("startIndex", formatNumber(p.StartIndex))
	}
	return v
}

// Occurrence is one biocache record.
type Occurrence struct {
	UUID             string    `json:"uuid"`
	ScientificName   string    `json:"scientificName"`
	VernacularName   string    `json:"vernacularName,omitempty"`
	Locality         string    `json:"locality,omitempty"`
	StateProvince    string    `json:"stateProvince,omitempty"`
	Country          string    `json:"country,omitempty"`
	BasisOfRecord    string    `json:"basisOfRecord,omitempty"`
	DecimalLatitude  *float64  `json:"decimalLatitude,omitempty"`
	DecimalLongitude *float64  `json:"decimalLongitude,omitempty"`
	EventDate        EventDate `json:"eventDate,omitempty"`
	Image            string    `json:"image,omitempty"`
	ImageURL         string    `json:"imageUrl,omitempty"`
	LargeImageURL    string    `json:"largeImageUrl,omitempty"`
}

// imageURL returns the best image link for the record, if any.
func (o Occurrence) imageURL() string {
	switch {
	case o.LargeImageURL != "":
		return o.LargeImageURL
	case o.ImageURL != "":
		return o.ImageURL
	case o.Image != "":
		return imageProxyURL + url.QueryEscape(o.Image)
	default:
		return ""
	}
}

// EventDate accepts epoch milliseconds (biocache) or a date string.
type EventDate string

func (d *EventDate) UnmarshalJSON(b []byte) error {
	var v any
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}
	switch x := v.(type) {
	case float64:
		*d = EventDate(time.UnixMilli(int64(x)).UTC().Format("2006-01-02"))
	case string:
		*d = EventDate(x)
	default:
		*d = ""
	}
	return nil
}

// OccurrencePage is the decoded search response.
type OccurrencePage struct {
	TotalRecords int          `json:"totalRecords"`
	StartIndex   int          `json:"startIndex"`
	PageSize     int          `json:"pageSize"`
	Occurrences  []Occurrence `json:"occurrences"`
}

// OccurrenceSearch lists occurrence records.
type OccurrenceSearch struct {
	Fetcher httputil.Fetcher
	BaseURL string
}

func (t *OccurrenceSearch) Name() string { return types.ToolSearchOccurrences }

func (t *OccurrenceSearch) Description() string {
	return "List occurrence records with locations and dates."
}

func (t *OccurrenceSearch) Invoke(ctx context.Context, params map[string]any, emit Emitter) types.ExecutionOutcome {
	emit = orNop(emit)

	var p OccurrenceParams
	if err := decodeParams(params, &p); err != nil {
		return invalidParams(t.Name(), err)
	}
	if !p.present() && len(p.terms()) == 0 && !p.hasArea() {
		return types.Failed(t.Name(), "No species or filter was given to search occurrences for.")
	}

	uri := httputil.Endpoint(t.BaseURL, occurrenceSearchPath, p.values(defaultPageSize))
	emit.Progress(fmt.Sprintf("Searching occurrence records for %s.", p.label()))

	var page OccurrencePage
	if err := t.Fetcher.GetJSON(ctx, uri, &page); err != nil {
		return fetchFailed(t.Name(), err)
	}

	emit.Progress(fmt.Sprintf("Found %d records.", page.TotalRecords))
	emit.Artifact(jsonArtifact(
		fmt.Sprintf("Occurrence records for %s", p.label()), uri,
		map[string]any{"total_records": page.TotalRecords, "returned_records": len(page.Occurrences)},
	))
	return types.Succeeded(t.Name(), summarizeOccurrences(page), page)
}

func summarizeOccurrences(page OccurrencePage) string {
	if page.TotalRecords == 0 {
		return "No occurrences found in the Atlas of Living Australia for this query."
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Found %d total records in the Atlas of Living Australia.", page.TotalRecords)
	if len(page.Occurrences) > 0 {
		fmt.Fprintf(&b, " Showing %d:", min(len(page.Occurrences), occurrenceSummaryLimit))
	}
	for i, o := range page.Occurrences {
		if i == occurrenceSummaryLimit {
			break
		}
		fmt.Fprintf(&b, "\n%d. %s", i+1, describeOccurrence(o))
	}
	if rest := page.TotalRecords - min(len(page.Occurrences), occurrenceSummaryLimit); rest > 0 {
		fmt.Fprintf(&b, "\n... and %d more records available.", rest)
	}
	return b.String()
}

func describeOccurrence(o Occurrence) string {
	name := o.ScientificName
	if name == "" {
		name = "Unknown species"
	}

	var parts []string
	for _, p := range []string{o.Locality, o.StateProvince, o.Country} {
		if p != "" {
			parts = append(parts, p)
		}
	}
	loc := "Location not specified"
	if len(parts) > 0 {
		loc = strings.Join(parts, ", ")
	}

	s := name + " - " + loc
	if o.DecimalLatitude != nil && o.DecimalLongitude != nil {
		s += fmt.Sprintf(" (%g, %g)", *o.DecimalLatitude, *o.DecimalLongitude)
	}
	if o.EventDate != "" {
		s += " on " + string(o.EventDate)
	}
	return s
}

// Images finds photographs of a species among its occurrence records.
type Images struct {
	Fetcher httputil.Fetcher
	BaseURL string
}

func (t *Images) Name() string { return types.ToolImages }

func (t *Images) Description() string {
	return "Photos of a species from occurrence records."
}

func (t *Images) Invoke(ctx context.Context, params map[string]any, emit Emitter) types.ExecutionOutcome {
	emit = orNop(emit)

	var p OccurrenceParams
	if err := decodeParams(params, &p); err != nil {
		return invalidParams(t.Name(), err)
	}
	if !p.present() {
		return types.Failed(t.Name(), "A species name or LSID is required to find images.")
	}
	p.HasImages = true

	uri := httputil.Endpoint(t.BaseURL, occurrenceSearchPath, p.values(defaultImagePageSize))
	emit.Progress(fmt.Sprintf("Looking for images of %s.", p.label()))

	var page OccurrencePage
	if err := t.Fetcher.GetJSON(ctx, uri, &page); err != nil {
		return fetchFailed(t.Name(), err)
	}

	var urls []string
	for _, o := range page.Occurrences {
		if u := o.imageURL(); u != "" {
			urls = append(urls, u)
		}
	}
	if len(urls) == 0 {
		return types.Succeeded(t.Name(), fmt.Sprintf("No images found for %s.", p.label()), page)
	}

	emit.Artifact(types.Artifact{
		MimeType:    "image/jpeg",
		Description: fmt.Sprintf("Images of %s", p.label()),
		URIs:        urls,
		Metadata:    map[string]any{"source": uri, "records_with_images": page.TotalRecords},
	})
	msg := fmt.Sprintf("Found %d images of %s (%d records with images).", len(urls), p.label(), page.TotalRecords)
	return types.Succeeded(t.Name(), msg, urls)
}
