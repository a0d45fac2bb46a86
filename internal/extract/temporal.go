// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package extract

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/pdiddy/ala-agent/pkg/types"
)

// temporalTrigger matches words that state a date constraint.
var temporalTrigger = regexp.MustCompile(`(?i)\b(before|after|since|between|during|post)\b`)

// temporalFilterFields are fq prefixes that carry a date constraint.
var temporalFilterFields = []string{"year:", "month:", "occurrence_date:", "occurrence_year:"}

// HasTemporalTrigger returns the first trigger word in text, if any.
func HasTemporalTrigger(text string) (string, bool) {
	m := temporalTrigger.FindString(text)
	return strings.ToLower(m), m != ""
}

// HasTemporalParameter reports whether params carry a year, date range,
// month, a temporal fq term, or a year/month facet.
func HasTemporalParameter(params map[string]any) bool {
	for _, k := range []string{types.ParamYear, types.ParamStartDate, types.ParamEndDate, types.ParamMonth} {
		if v, ok := params[k]; ok && v != nil && fmt.Sprint(v) != "" {
			return true
		}
	}
	for _, term := range stringsOf(params[types.ParamFilter]) {
		for _, f := range temporalFilterFields {
			if strings.Contains(term, f) {
				return true
			}
		}
	}
	for _, f := range stringsOf(params[types.ParamFacets]) {
		if f == "year" || f == "month" || f == "decade" {
			return true
		}
	}
	return false
}

// validateTemporal rejects an extraction that dropped a stated date constraint.
func validateTemporal(text string, params map[string]any) error {
	word, ok := HasTemporalTrigger(text)
	if !ok || HasTemporalParameter(params) {
		return nil
	}
	return fmt.Errorf("query says %q but no year, startdate, enddate, or month parameter was extracted", word)
}

// stringsOf flattens a string or list value into strings.
func stringsOf(v any) []string {
	switch t := v.(type) {
	case string:
		if t == "" {
			return nil
		}
		return []string{t}
	case []string:
		return t
	case []any:
		out := make([]string, 0, len(t))
		for _, e := range t {
			out = append(out, fmt.Sprint(e))
		}
		return out
	default:
		return nil
	}
}
