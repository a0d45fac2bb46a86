// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package tools

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/pdiddy/ala-agent/pkg/types"
)

var validate = validator.New()

// decodeParams copies the resolved parameter map into a typed parameter
// bag and validates it.
func decodeParams(params map[string]any, out any) error {
	raw, err := json.Marshal(params)
	if err != nil {
		return fmt.Errorf("encoding parameters: %w", err)
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("decoding parameters: %w", err)
	}
	if n, ok := out.(interface{ normalize() }); ok {
		n.normalize()
	}
	if err := validate.Struct(out); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			fe := verrs[0]
			return fmt.Errorf("parameter %s fails %s %s", fe.Field(), fe.Tag(), fe.Param())
		}
		return err
	}
	return nil
}

// Text is a string that also accepts JSON numbers and booleans, so
// {"year": 2021} and {"year": "2021"} decode the same.
type Text string

func (t *Text) UnmarshalJSON(b []byte) error {
	var v any
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}
	switch x := v.(type) {
	case nil:
		*t = ""
	case string:
		*t = Text(strings.TrimSpace(x))
	case float64, bool:
		*t = Text(strings.TrimSpace(string(b)))
	default:
		return fmt.Errorf("expected a string, got %s", b)
	}
	return nil
}

func (t Text) String() string { return string(t) }

// StringList accepts a single string or an array.
type StringList []string

func (l *StringList) UnmarshalJSON(b []byte) error {
	var v any
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}
	var out []string
	add := func(e any) {
		if e == nil {
			return
		}
		if s := strings.TrimSpace(fmt.Sprint(e)); s != "" {
			out = append(out, s)
		}
	}
	switch x := v.(type) {
	case []any:
		for _, e := range x {
			add(e)
		}
	case map[string]any:
		return fmt.Errorf("expected a string or list, got %s", b)
	default:
		add(x)
	}
	*l = out
	return nil
}

// split expands comma-separated entries.
func (l StringList) split() []string {
	var out []string
	for _, e := range l {
		for _, part := range strings.Split(e, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}

// Number is a float that also accepts numeric strings.
type Number float64

func (n *Number) UnmarshalJSON(b []byte) error {
	s := strings.Trim(strings.TrimSpace(string(b)), `"`)
	if s == "" || s == "null" {
		return nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return fmt.Errorf("expected a number, got %s", b)
	}
	*n = Number(f)
	return nil
}

// Flag is a bool that also accepts "true"/"false" strings.
type Flag bool

func (f *Flag) UnmarshalJSON(b []byte) error {
	s := strings.Trim(strings.TrimSpace(string(b)), `"`)
	if s == "" || s == "null" {
		*f = false
		return nil
	}
	v, err := strconv.ParseBool(s)
	if err != nil {
		return fmt.Errorf("expected a boolean, got %s", b)
	}
	*f = Flag(v)
	return nil
}

// Taxon identifies the species a tool works on. The resolver fills LSID
// and the canonical names; Query holds what the user typed.
type Taxon struct {
	Query          Text `json:"q"`
	LSID           Text `json:"lsid"`
	ScientificName Text `json:"scientificName"`
	CommonName     Text `json:"commonName"`
}

func (t Taxon) present() bool {
	return t.Query != "" || t.LSID != "" || t.ScientificName != ""
}

// identifier is the most specific name for the taxon.
func (t Taxon) identifier() string {
	switch {
	case t.LSID != "":
		return t.LSID.String()
	case t.ScientificName != "":
		return t.ScientificName.String()
	default:
		return t.Query.String()
	}
}

// searchQuery is the biocache q parameter.
func (t Taxon) searchQuery() string {
	switch {
	case t.LSID != "":
		return "lsid:" + t.LSID.String()
	case t.Query != "":
		return t.Query.String()
	case t.ScientificName != "":
		return quoteValue(t.ScientificName.String())
	default:
		return "*:*"
	}
}

// label is a display name.
func (t Taxon) label() string {
	switch {
	case t.CommonName != "" && t.ScientificName != "":
		return fmt.Sprintf("%s (%s)", t.CommonName, t.ScientificName)
	case t.ScientificName != "":
		return t.ScientificName.String()
	case t.Query != "":
		return t.Query.String()
	case t.LSID != "":
		return t.LSID.String()
	default:
		return "all species"
	}
}

// Filter carries the record filters shared by the occurrence endpoints.
type Filter struct {
	Filters       StringList `json:"fq"`
	Year          Text       `json:"year"`
	Month         Text       `json:"month"`
	StartDate     Text       `json:"startdate" validate:"omitempty,datetime=2006-01-02"`
	EndDate       Text       `json:"enddate" validate:"omitempty,datetime=2006-01-02"`
	State         Text       `json:"state"`
	BasisOfRecord Text       `json:"basis_of_record"`

	Kingdom Text `json:"kingdom"`
	Phylum  Text `json:"phylum"`
	Class   Text `json:"class"`
	Order   Text `json:"order"`
	Family  Text `json:"family"`
	Genus   Text `json:"genus"`

	HasImages      Flag `json:"has_images"`
	HasCoordinates Flag `json:"has_coordinates"`

	Lat    *Number `json:"lat" validate:"omitempty,gte=-90,lte=90"`
	Lon    *Number `json:"lon" validate:"omitempty,gte=-180,lte=180"`
	Radius *Number `json:"radius" validate:"omitempty,gt=0"`
}

// normalize expands bare years in the date bounds.
func (f *Filter) normalize() {
	f.StartDate = Text(expandYear(f.StartDate.String(), "-01-01"))
	f.EndDate = Text(expandYear(f.EndDate.String(), "-12-31"))
}

func expandYear(s, suffix string) string {
	if len(s) == 4 {
		if _, err := strconv.Atoi(s); err == nil {
			return s + suffix
		}
	}
	return s
}

// terms returns the fq terms, deduplicated, in a stable order.
func (f *Filter) terms() []string {
	var terms []string
	for _, t := range f.Filters {
		terms = append(terms, quoteTerm(t))
	}
	if f.Year != "" {
		terms = append(terms, "year:"+yearRange(f.Year.String()))
	}
	if f.Month != "" {
		terms = append(terms, "month:"+monthRange(f.Month.String()))
	}
	if f.StartDate != "" || f.EndDate != "" {
		start, end := "*", "NOW"
		if f.StartDate != "" {
			start = f.StartDate.String() + "T00:00:00Z"
		}
		if f.EndDate != "" {
			end = f.EndDate.String() + "T23:59:59Z"
		}
		terms = append(terms, fmt.Sprintf("occurrence_date:[%s TO %s]", start, end))
	}
	for _, kv := range []struct {
		field string
		value Text
	}{
		{"state", f.State},
		{"basis_of_record", f.BasisOfRecord},
		{"kingdom", f.Kingdom},
		{"phylum", f.Phylum},
		{"class", f.Class},
		{"order", f.Order},
		{"family", f.Family},
		{"genus", f.Genus},
	} {
		if kv.value != "" {
			terms = append(terms, kv.field+":"+quoteValue(kv.value.String()))
		}
	}
	if f.HasImages {
		terms = append(terms, "multimedia:Image")
	}
	if f.HasCoordinates {
		terms = append(terms, "geospatial_kosher:true")
	}
	return dedupe(terms)
}

// hasArea reports whether a point-radius search was requested.
func (f *Filter) hasArea() bool {
	return f.Lat != nil && f.Lon != nil
}

// apply writes fq and the spatial parameters into v.
func (f *Filter) apply(v url.Values) {
	if terms := f.terms(); len(terms) > 0 {
		v.Set("fq", strings.Join(terms, " AND "))
	}
	if f.hasArea() {
		v.Set("lat", formatNumber(*f.Lat))
		v.Set("lon", formatNumber(*f.Lon))
		radius := Number(10)
		if f.Radius != nil {
			radius = *f.Radius
		}
		v.Set("radius", formatNumber(radius))
	}
}

func formatNumber(n Number) string {
	return strconv.FormatFloat(float64(n), 'f', -1, 64)
}

// quoteTerm quotes the value of a field:value term when it contains a
// space and is not already quoted, a range, or a group.
func quoteTerm(term string) string {
	i := strings.Index(term, ":")
	if i <= 0 {
		return term
	}
	return term[:i+1] + quoteValue(term[i+1:])
}

func quoteValue(v string) string {
	v = strings.TrimSpace(v)
	if v == "" || !strings.Contains(v, " ") {
		return v
	}
	switch v[0] {
	case '"', '[', '(', '{':
		return v
	}
	return strconv.Quote(v)
}

// yearRange converts the extractor's year syntax to a biocache value:
// "<2018" → [* TO 2017], "2020+" → [2020 TO *], "2010,2020" → [2010 TO 2020].
func yearRange(y string) string {
	y = strings.ReplaceAll(strings.TrimSpace(y), " ", "")
	switch {
	case strings.HasPrefix(y, "<"):
		if n, err := strconv.Atoi(y[1:]); err == nil {
			return fmt.Sprintf("[* TO %d]", n-1)
		}
	case strings.HasPrefix(y, ">"):
		if n, err := strconv.Atoi(y[1:]); err == nil {
			return fmt.Sprintf("[%d TO *]", n+1)
		}
	case strings.HasSuffix(y, "+"):
		if n, err := strconv.Atoi(strings.TrimSuffix(y, "+")); err == nil {
			return fmt.Sprintf("[%d TO *]", n)
		}
	}
	for _, sep := range []string{",", "-"} {
		if a, b, ok := strings.Cut(y, sep); ok {
			if _, err := strconv.Atoi(a); err == nil {
				if _, err := strconv.Atoi(b); err == nil {
					return fmt.Sprintf("[%s TO %s]", a, b)
				}
			}
		}
	}
	return y
}

// monthRange converts "6", "1-3", or "6,7,8" to a biocache value.
func monthRange(m string) string {
	m = strings.ReplaceAll(strings.TrimSpace(m), " ", "")
	if a, b, ok := strings.Cut(m, "-"); ok {
		return fmt.Sprintf("[%s TO %s]", a, b)
	}
	if strings.Contains(m, ",") {
		return "(" + strings.Join(strings.Split(m, ","), " OR ") + ")"
	}
	return m
}

func dedupe(in []string) []string {
	seen := make(map[string]bool, len(in))
	out := in[:0]
	for _, s := range in {
		if s == "" || seen[s] {
			continue
		}
		seen[s] = true
		out = append(out, s)
	}
	return out
}

// invalidParams reports a parameter bag that failed to decode or validate.
func invalidParams(tool string, err error) types.ExecutionOutcome {
	return types.Failed(tool, fmt.Sprintf("Invalid parameters for %s: %v.", tool, err))
}
