// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package llm wraps the language-model completion service behind a small
// interface: system instructions plus user text in, JSON conforming to a
// schema out.
package llm

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/invopop/jsonschema"
)

// Request is one structured completion.
type Request struct {
	System string
	User   string

	// ToolName and ToolDescription label the structured output; the model
	// is required to answer by "calling" this tool with Schema-shaped input.
	ToolName        string
	ToolDescription string
	Schema          *jsonschema.Schema
}

// Completer is the completion service. Errors are *failure.Error values:
// KindTimeout for deadlines, KindNetwork for service or transport errors,
// KindExtraction for output that carried no JSON. Context cancellation is
// returned unchanged.
type Completer interface {
	Complete(ctx context.Context, req Request) (json.RawMessage, error)
}

// CompleterFunc adapts a function to Completer.
type CompleterFunc func(ctx context.Context, req Request) (json.RawMessage, error)

func (f CompleterFunc) Complete(ctx context.Context, req Request) (json.RawMessage, error) {
	return f(ctx, req)
}

// SchemaFor reflects a JSON schema from v's type, inlining all definitions.
func SchemaFor(v any) *jsonschema.Schema {
	r := jsonschema.Reflector{
		AllowAdditionalProperties:  true,
		DoNotReference:             true,
		RequiredFromJSONSchemaTags: true,
	}
	return r.Reflect(v)
}

// extractJSON returns the outermost JSON object in text, tolerating code
// fences and prose around it.
func extractJSON(text string) (json.RawMessage, bool) {
	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start < 0 || end <= start {
		return nil, false
	}
	raw := json.RawMessage(text[start : end+1])
	if !json.Valid(raw) {
		return nil, false
	}
	return raw, true
}
