// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package plan

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"text/template"

	"github.com/pdiddy/ala-agent/internal/llm"
	"github.com/pdiddy/ala-agent/pkg/types"
)

const (
	planToolName        = "record_execution_plan"
	planToolDescription = "Record which ALA tools to call for the user's question."
)

// planOutput is the schema the model fills.
type planOutput struct {
	Tools            []types.ToolPlanEntry `json:"tools" jsonschema:"required"`
	QueryType        string                `json:"query_type" jsonschema:"required,enum=single-species,enum=comparison,enum=conservation,enum=distribution,enum=taxonomy,enum=facet,enum=taxonomic-group"`
	SpeciesMentioned []string              `json:"species_mentioned"`
}

var planSchema = llm.SchemaFor(&planOutput{})

var plannerPromptTmpl = template.Must(template.New("planner").Parse(`You plan which Atlas of Living Australia tools answer a user's question.

Respond by calling the record_execution_plan tool with:
- tools: ordered list of {tool_name, priority, reason}
- query_type: one of single-species, comparison, conservation, distribution, taxonomy, facet, taxonomic-group
- species_mentioned: species named in the question, or ["unknown"]

AVAILABLE TOOLS
{{range .}}- {{.Name}}: {{.Description}}
{{end}}
DECISION PROCEDURE (apply in order; the first matching rule wins where rules conflict)
1. Conservation status ("endangered", "threatened", "conservation status", "vulnerable", "extinct") is not supported. Return query_type "conservation" and an EMPTY tools list.
2. Breakdowns outrank record listings. "each", "breakdown", "break down", "by state", "by year", "per month", "top N", or a facets parameter -> get_occurrence_breakdown. Never use search_species_occurrences for a breakdown.
3. A single total ("how many", "count", "number of" without "each"/"breakdown"/"top N") -> get_occurrence_taxa_count. "How many koalas in Queensland" is a single total, not a breakdown.
4. "Where is ... found", "range", "distribution map" -> get_species_distribution.
5. "What is", "tell me about", taxonomy, classification -> get_species_info.
6. Photos or images -> get_species_images.
7. Species lists or checklists -> search_species_lists.
8. Listing sightings, records or occurrences -> search_species_occurrences.

PRIORITY
- must_call: the user explicitly asked for it. When the question asks for several things, every requested capability is must_call.
- optional: not requested but helpful, e.g. get_species_images after a get_species_info lookup.
- Never list the same tool twice.
`))

// LLMPlanner asks a language model to choose tools.
type LLMPlanner struct {
	completer llm.Completer
	catalog   []Capability
	logger    *slog.Logger
}

// NewLLMPlanner returns a planner that calls c.
func NewLLMPlanner(c llm.Completer, catalog []Capability, logger *slog.Logger) *LLMPlanner {
	if logger == nil {
		logger = slog.Default()
	}
	return &LLMPlanner{completer: c, catalog: catalog, logger: logger}
}

// Plan returns the model's plan, or FallbackPlan when the call or its
// output fails. A done ctx is returned as an error instead.
func (p *LLMPlanner) Plan(ctx context.Context, query string, species []string, params map[string]any) (*types.ExecutionPlan, error) {
	plan, err := p.plan(ctx, query, species, params)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		if errors.Is(err, context.Canceled) {
			return nil, err
		}
		fallbacks.Inc()
		p.logger.Warn("planning failed, using fallback plan", "error", err)
		return FallbackPlan(species), nil
	}
	p.logger.Debug("planned", "query_type", plan.QueryType, "tools", len(plan.Entries))
	return plan, nil
}

func (p *LLMPlanner) plan(ctx context.Context, query string, species []string, params map[string]any) (*types.ExecutionPlan, error) {
	var sys bytes.Buffer
	if err := plannerPromptTmpl.Execute(&sys, p.catalog); err != nil {
		return nil, fmt.Errorf("rendering planner prompt: %w", err)
	}

	paramJSON, err := json.Marshal(params)
	if err != nil {
		return nil, fmt.Errorf("encoding parameters: %w", err)
	}
	user := fmt.Sprintf("Question: %s\nSpecies mentioned: %v\nExtracted parameters: %s", query, speciesOrUnknown(species), paramJSON)

	raw, err := p.completer.Complete(ctx, llm.Request{
		System:          sys.String(),
		User:            user,
		ToolName:        planToolName,
		ToolDescription: planToolDescription,
		Schema:          planSchema,
	})
	if err != nil {
		return nil, err
	}
	return decodePlan(raw, species)
}

// decodePlan parses and validates the model output.
func decodePlan(raw json.RawMessage, species []string) (*types.ExecutionPlan, error) {
	var out planOutput
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("decoding plan: %w", err)
	}

	qt := types.QueryType(out.QueryType)
	if !qt.Valid() {
		return nil, fmt.Errorf("unknown query type %q", out.QueryType)
	}

	plan := &types.ExecutionPlan{QueryType: qt}
	if qt != types.QueryConservation {
		for i, e := range out.Tools {
			if e.ToolName == "" {
				return nil, fmt.Errorf("tool %d has no name", i)
			}
			if !e.Priority.Valid() {
				return nil, fmt.Errorf("tool %s has unknown priority %q", e.ToolName, e.Priority)
			}
			plan.Entries = append(plan.Entries, e)
		}
	}

	if len(out.SpeciesMentioned) > 0 {
		plan.SpeciesMentioned = speciesOrUnknown(out.SpeciesMentioned)
	} else {
		plan.SpeciesMentioned = speciesOrUnknown(species)
	}
	return plan, nil
}
