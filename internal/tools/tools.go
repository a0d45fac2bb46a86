// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package tools holds the adapters the coordinator invokes by name. Each
// adapter decodes the parameters it needs from the resolved parameter map,
// calls one ALA endpoint through an httputil.Fetcher, and summarizes the
// decoded response as an ExecutionOutcome. Adapters report problems as
// failed outcomes; they do not return errors.
package tools

import (
	"context"
	"fmt"
	"io"
	"sort"
	"sync"

	"github.com/pdiddy/ala-agent/internal/failure"
	"github.com/pdiddy/ala-agent/internal/httputil"
	"github.com/pdiddy/ala-agent/pkg/types"
)

// Tool is one adapter. Each one implements the Strategy pattern over a
// single ALA capability.
type Tool interface {
	Name() string
	Description() string
	Invoke(ctx context.Context, params map[string]any, emit Emitter) types.ExecutionOutcome
}

// Emitter receives user-visible side effects of an invocation.
type Emitter interface {
	Progress(msg string)
	Artifact(a types.Artifact)
}

// Recorder is an Emitter that keeps everything it receives and echoes
// progress lines to w when w is non-nil.
type Recorder struct {
	w io.Writer

	mu        sync.Mutex
	progress  []string
	artifacts []types.Artifact
}

// NewRecorder returns a Recorder writing progress to w (may be nil).
func NewRecorder(w io.Writer) *Recorder {
	return &Recorder{w: w}
}

func (r *Recorder) Progress(msg string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.progress = append(r.progress, msg)
	if r.w != nil {
		fmt.Fprintln(r.w, msg)
	}
}

func (r *Recorder) Artifact(a types.Artifact) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.artifacts = append(r.artifacts, a)
}

// Lines returns the progress lines received so far.
func (r *Recorder) Lines() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.progress...)
}

// Artifacts returns the artifacts received so far.
func (r *Recorder) Artifacts() []types.Artifact {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]types.Artifact(nil), r.artifacts...)
}

// Registry maps tool names to adapters.
type Registry struct {
	tools map[string]Tool
}

// NewRegistry returns a registry holding tools.
func NewRegistry(tools ...Tool) *Registry {
	r := &Registry{tools: make(map[string]Tool)}
	for _, t := range tools {
		r.Register(t)
	}
	return r
}

// Register adds or replaces a tool.
func (r *Registry) Register(t Tool) {
	r.tools[t.Name()] = t
}

// Lookup returns the tool registered under name.
func (r *Registry) Lookup(name string) (Tool, bool) {
	if r == nil {
		return nil, false
	}
	t, ok := r.tools[name]
	return t, ok
}

// Names returns the registered names, sorted.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.tools))
	for n := range r.tools {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Default returns a registry with every ALA adapter, calling baseURL
// through f.
func Default(f httputil.Fetcher, baseURL string) *Registry {
	if baseURL == "" {
		baseURL = httputil.DefaultBaseURL
	}
	return NewRegistry(
		&OccurrenceSearch{Fetcher: f, BaseURL: baseURL},
		&SpeciesInfo{Fetcher: f, BaseURL: baseURL},
		&Distribution{Fetcher: f, BaseURL: baseURL},
		&Images{Fetcher: f, BaseURL: baseURL},
		&TaxaCount{Fetcher: f, BaseURL: baseURL},
		&Breakdown{Fetcher: f, BaseURL: baseURL},
		&SpeciesLists{Fetcher: f, BaseURL: baseURL},
		&OccurrenceLookup{Fetcher: f, BaseURL: baseURL},
		&SpeciesSearch{Fetcher: f, BaseURL: baseURL},
		&IndexFields{Fetcher: f, BaseURL: baseURL},
		&DistributionList{Fetcher: f, BaseURL: baseURL},
	)
}

// jsonArtifact builds the artifact for a JSON payload fetched from uri.
func jsonArtifact(description, uri string, metadata map[string]any) types.Artifact {
	return types.Artifact{
		MimeType:    "application/json",
		Description: description,
		URIs:        []string{uri},
		Metadata:    metadata,
	}
}

// fetchFailed converts a Fetcher error into a failed outcome. The message
// is the user-facing text for the error kind; the cause stays in Data for
// logs.
func fetchFailed(tool string, err error) types.ExecutionOutcome {
	out := types.Failed(tool, failure.UserMessage(err))
	out.Data = err.Error()
	return out
}

type nopEmitter struct{}

func (nopEmitter) Progress(string) {}
func (nopEmitter) Artifact(types.Artifact) {}

func orNop(e Emitter) Emitter {
	if e == nil {
		return nopEmitter{}
	}
	return e
}
