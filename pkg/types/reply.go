// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "time"

// Artifact references a retrieved data payload surfaced alongside the reply.
type Artifact struct {
	MimeType    string         `json:"mimetype" yaml:"mimetype"`
	Description string         `json:"description" yaml:"description"`
	URIs        []string       `json:"uris" yaml:"uris"`
	Metadata    map[string]any `json:"metadata,omitempty" yaml:"metadata,omitempty"`
}

// Reply is everything the pipeline produces for one request.
type Reply struct {
	RequestID string `json:"request_id" yaml:"request_id"`
	Query     string `json:"query" yaml:"query"`

	// Text is the final natural-language reply.
	Text string `json:"text" yaml:"text"`

	// Success is true when every must-call tool succeeded.
	Success bool `json:"success" yaml:"success"`

	// Clarification is set when the reply asks the user for more detail.
	Clarification bool `json:"clarification,omitempty" yaml:"clarification,omitempty"`

	// Declined is set when the planner produced no tools (out-of-scope query).
	Declined bool `json:"declined,omitempty" yaml:"declined,omitempty"`

	Extracted *ExtractedQuery       `json:"extracted,omitempty" yaml:"extracted,omitempty"`
	Record    *NameResolutionRecord `json:"record,omitempty" yaml:"record,omitempty"`
	Plan      *ExecutionPlan        `json:"plan,omitempty" yaml:"plan,omitempty"`
	Outcomes  []ExecutionOutcome    `json:"outcomes,omitempty" yaml:"outcomes,omitempty"`
	Artifacts []Artifact            `json:"artifacts,omitempty" yaml:"artifacts,omitempty"`
	Progress  []string              `json:"progress,omitempty" yaml:"progress,omitempty"`

	CreatedAt time.Time `json:"created_at" yaml:"created_at"`
}
