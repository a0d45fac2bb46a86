// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package agent answers one biodiversity question end to end: extract
// parameters, resolve the species, plan the tool calls, run them, and
// compose the reply.
package agent

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/pdiddy/ala-agent/internal/execute"
	"github.com/pdiddy/ala-agent/internal/failure"
	"github.com/pdiddy/ala-agent/internal/plan"
	"github.com/pdiddy/ala-agent/internal/resolve"
	"github.com/pdiddy/ala-agent/internal/tools"
	"github.com/pdiddy/ala-agent/pkg/types"
)

const tracerName = "github.com/pdiddy/ala-agent/internal/agent"

// Reply texts for requests that end before any tool runs.
const (
	conservationDecline = "Conservation status is not available from this agent."
	genericDecline      = "That question is outside what the Atlas of Living Australia tools can answer."
	abortPrefix         = "I couldn't complete the request: "
)

// Extractor turns text into an ExtractedQuery.
type Extractor interface {
	Extract(ctx context.Context, text string) (*types.ExtractedQuery, error)
}

// Enricher resolves the species named in a query in place.
type Enricher interface {
	Enrich(ctx context.Context, q *types.ExtractedQuery) (*types.NameResolutionRecord, error)
}

// Recorder persists finished replies.
type Recorder interface {
	Record(ctx context.Context, reply *types.Reply) error
}

// Deps are the collaborators of an Agent. History and Progress are optional.
type Deps struct {
	Extractor   Extractor
	Resolver    Enricher
	Planner     plan.Planner
	Coordinator *execute.Coordinator
	History     Recorder

	// Progress receives narration lines as tools run.
	Progress io.Writer

	Logger *slog.Logger
}

// Agent runs the request pipeline.
type Agent struct {
	deps   Deps
	logger *slog.Logger
	tracer trace.Tracer
	now    func() time.Time
}

// New returns an Agent.
func New(d Deps) *Agent {
	logger := d.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Agent{deps: d, logger: logger, tracer: otel.Tracer(tracerName), now: time.Now}
}

// Ask answers text. Failures the user can act on (unclear queries, unknown
// species, unreachable services) come back as a Reply; the error is non-nil
// only when ctx is cancelled.
func (a *Agent) Ask(ctx context.Context, text string) (*types.Reply, error) {
	reply := &types.Reply{
		RequestID: uuid.NewString(),
		Query:     strings.TrimSpace(text),
		CreatedAt: a.now().UTC(),
	}

	ctx, span := a.tracer.Start(ctx, "agent.ask", trace.WithAttributes(
		attribute.String("request.id", reply.RequestID),
	))
	defer span.End()

	log := a.logger.With("request_id", reply.RequestID)
	rec := tools.NewRecorder(a.deps.Progress)

	err := a.run(ctx, log, reply, rec)
	reply.Progress = rec.Lines()
	reply.Artifacts = rec.Artifacts()
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	span.SetAttributes(
		attribute.Bool("reply.success", reply.Success),
		attribute.Bool("reply.clarification", reply.Clarification),
		attribute.Bool("reply.declined", reply.Declined),
	)
	a.record(ctx, log, reply)
	return reply, nil
}

// run fills reply. It returns an error only for cancellation.
func (a *Agent) run(ctx context.Context, log *slog.Logger, reply *types.Reply, rec *tools.Recorder) error {
	q, err := a.deps.Extractor.Extract(ctx, reply.Query)
	if err != nil {
		if cancelled(ctx, err) {
			return err
		}
		log.Warn("extraction failed", "kind", failure.KindOf(err), "error", err)
		reply.Clarification = failure.Is(err, failure.KindExtraction)
		reply.Text = failure.UserMessage(err)
		return nil
	}
	reply.Extracted = q

	species := resolve.Identifier(q)
	record, err := a.deps.Resolver.Enrich(ctx, q)
	switch {
	case errors.Is(err, failure.ErrNoMatch):
		log.Info("species not found", "identifier", species)
		a.clarify(reply, q.ClarificationReason)
		return nil
	case err != nil:
		if cancelled(ctx, err) {
			return err
		}
		log.Warn("name resolution failed", "identifier", species, "error", err)
		reply.Text = failure.UserMessage(err)
		return nil
	}
	reply.Record = record

	if q.NeedsClarification {
		a.clarify(reply, q.ClarificationReason)
		return nil
	}

	var mentioned []string
	if species != "" {
		mentioned = []string{species}
	}
	p, err := a.deps.Planner.Plan(ctx, reply.Query, mentioned, q.Parameters)
	if err != nil {
		if cancelled(ctx, err) {
			return err
		}
		log.Warn("planning failed", "error", err)
		reply.Text = failure.UserMessage(err)
		return nil
	}
	reply.Plan = p
	log.Info("plan ready", "query_type", p.QueryType, "tools", len(p.Entries), "fallback", p.Fallback)

	if len(p.Entries) == 0 {
		reply.Declined = true
		reply.Success = true
		reply.Text = genericDecline
		if p.QueryType == types.QueryConservation {
			reply.Text = conservationDecline
		}
		return nil
	}

	res, err := a.deps.Coordinator.Execute(ctx, p, q.Parameters, rec)
	reply.Outcomes = res.Outcomes
	if err != nil {
		if cancelled(ctx, err) {
			return err
		}
		log.Error("plan execution failed", "tool", res.FailedTool, "error", err)
		reply.Text = failure.UserMessage(err)
		return nil
	}
	if !res.Success {
		reply.Text = abortPrefix + res.Message
		return nil
	}

	reply.Success = true
	reply.Text = compose(res.Outcomes)
	return nil
}

func (a *Agent) clarify(reply *types.Reply, reason string) {
	reply.Clarification = true
	reply.Text = reason
	if reply.Text == "" {
		reply.Text = "Could you tell me more about what you are looking for?"
	}
}

// record stores reply in history. Failures are logged only.
func (a *Agent) record(ctx context.Context, log *slog.Logger, reply *types.Reply) {
	if a.deps.History == nil {
		return
	}
	if err := a.deps.History.Record(context.WithoutCancel(ctx), reply); err != nil {
		log.Warn("recording history failed", "error", err)
	}
}

// compose joins the messages of the tools that ran successfully.
func compose(outcomes []types.ExecutionOutcome) string {
	var parts []string
	for _, o := range outcomes {
		if o.Skipped || !o.Success || o.Message == "" {
			continue
		}
		parts = append(parts, o.Message)
	}
	if len(parts) == 0 {
		return "The Atlas of Living Australia returned no results for this query."
	}
	return strings.Join(parts, "\n\n")
}

func cancelled(ctx context.Context, err error) bool {
	return errors.Is(ctx.Err(), context.Canceled) || errors.Is(err, context.Canceled)
}
