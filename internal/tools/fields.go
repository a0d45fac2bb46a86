// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package tools

import (
	"context"
	"fmt"
	"strings"

	"github.com/pdiddy/ala-agent/internal/httputil"
	"github.com/pdiddy/ala-agent/pkg/types"
)

const fieldSummaryLimit = 25

// FieldParams narrows the index field listing.
type FieldParams struct {
	Query Text `json:"q"`
}

// IndexField describes one searchable occurrence field.
type IndexField struct {
	Name        string `json:"name"`
	DataType    string `json:"dataType"`
	Description string `json:"description,omitempty"`
	Indexed     bool   `json:"indexed"`
	Stored      bool   `json:"stored"`
}

// IndexFields lists the fields occurrence filters and facets can use.
type IndexFields struct {
	Fetcher httputil.Fetcher
	BaseURL string
}

func (t *IndexFields) Name() string { return types.ToolIndexFields }

func (t *IndexFields) Description() string {
	return "List the occurrence index fields usable in filters and facets."
}

func (t *IndexFields) Invoke(ctx context.Context, params map[string]any, emit Emitter) types.ExecutionOutcome {
	emit = orNop(emit)

	var p FieldParams
	if err := decodeParams(params, &p); err != nil {
		return invalidParams(t.Name(), err)
	}

	uri := httputil.Endpoint(t.BaseURL, "/occurrences/index/fields", nil)
	emit.Progress("Fetching the occurrence index fields.")

	var all []IndexField
	if err := t.Fetcher.GetJSON(ctx, uri, &all); err != nil {
		return fetchFailed(t.Name(), err)
	}

	term := strings.ToLower(strings.TrimSpace(p.Query.String()))
	fields := all
	if term != "" {
		fields = nil
		for _, f := range all {
			if strings.Contains(strings.ToLower(f.Name), term) || strings.Contains(strings.ToLower(f.Description), term) {
				fields = append(fields, f)
			}
		}
	}

	what := "occurrence index fields"
	if term != "" {
		what = fmt.Sprintf("occurrence index fields matching %q", term)
	}
	if len(fields) == 0 {
		return types.Succeeded(t.Name(), fmt.Sprintf("No %s were found.", what), fields)
	}

	names := make([]string, 0, len(fields))
	for _, f := range fields {
		if f.Indexed {
			names = append(names, f.Name)
		}
	}
	msg := fmt.Sprintf("There are %d %s (%d indexed).", len(fields), what, len(names))
	if len(names) > 0 {
		msg += fmt.Sprintf(" Indexed: %s", strings.Join(firstN(names, fieldSummaryLimit), ", "))
		if len(names) > fieldSummaryLimit {
			msg += fmt.Sprintf(" and %d more", len(names)-fieldSummaryLimit)
		}
		msg += "."
	}

	emit.Artifact(jsonArtifact("Occurrence index fields", uri, map[string]any{"fields": len(fields)}))
	return types.Succeeded(t.Name(), msg, fields)
}
