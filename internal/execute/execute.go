// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package execute runs an ExecutionPlan against the tool registry. Must-call
// entries run first and stop the plan on the first failure; optional
// entries run afterwards and never change the overall result.
package execute

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/pdiddy/ala-agent/internal/failure"
	"github.com/pdiddy/ala-agent/internal/tools"
	"github.com/pdiddy/ala-agent/pkg/types"
)

const tracerName = "github.com/pdiddy/ala-agent/internal/execute"

// Outcome statuses used as the status metric label.
const (
	statusSuccess = "success"
	statusFailure = "failure"
	statusSkipped = "skipped"
	statusPanic   = "panic"
)

var (
	invocations = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "ala_agent",
		Name:      "tool_invocations_total",
		Help:      "Tool invocations by tool, priority, and status.",
	}, []string{"tool", "priority", "status"})

	durations = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "ala_agent",
		Name:      "tool_duration_seconds",
		Help:      "Wall time of tool invocations.",
		Buckets:   prometheus.ExponentialBuckets(0.05, 2, 10),
	}, []string{"tool"})
)

// Result is the outcome of one plan execution.
type Result struct {
	// Outcomes holds one entry per planned tool that was reached, in
	// execution order. Duplicates appear with Skipped set.
	Outcomes []types.ExecutionOutcome `json:"outcomes" yaml:"outcomes"`

	// Success is true when every must-call entry succeeded.
	Success bool `json:"success" yaml:"success"`

	// FailedTool names the must-call tool that stopped the plan.
	FailedTool string `json:"failed_tool,omitempty" yaml:"failed_tool,omitempty"`

	// Message is the failure text to show the user when Success is false.
	Message string `json:"message,omitempty" yaml:"message,omitempty"`
}

// Coordinator sequences tool invocations for a plan.
type Coordinator struct {
	registry *tools.Registry
	logger   *slog.Logger
	tracer   trace.Tracer
}

// New returns a Coordinator over registry. A nil logger uses slog.Default().
func New(registry *tools.Registry, logger *slog.Logger) *Coordinator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Coordinator{
		registry: registry,
		logger:   logger,
		tracer:   otel.Tracer(tracerName),
	}
}

// Execute runs plan with params, sending progress and artifacts to emit
// (may be nil). It returns an error only for a must-call tool missing from
// the registry (failure.KindRegistry) or when ctx ends; a failed must-call
// tool is reported through the Result.
func (c *Coordinator) Execute(ctx context.Context, plan *types.ExecutionPlan, params map[string]any, emit tools.Emitter) (Result, error) {
	res := Result{Success: true}
	if plan == nil {
		return res, nil
	}
	if err := ctx.Err(); err != nil {
		return Result{}, err
	}

	executed := make(map[string]bool)

	ok, err := c.runPhase(ctx, types.MustCall, plan.MustCall(), params, emit, executed, &res)
	if err != nil || !ok {
		return res, err
	}
	_, err = c.runPhase(ctx, types.Optional, plan.Optional(), params, emit, executed, &res)
	return res, err
}

// runPhase invokes entries in order. It returns false when a must-call
// entry failed.
func (c *Coordinator) runPhase(ctx context.Context, priority types.Priority, entries []types.ToolPlanEntry,
	params map[string]any, emit tools.Emitter, executed map[string]bool, res *Result) (bool, error) {
	if len(entries) == 0 {
		return true, nil
	}

	ctx, span := c.tracer.Start(ctx, "execute."+string(priority),
		trace.WithAttributes(attribute.Int("entries", len(entries))))
	defer span.End()

	for _, e := range entries {
		if executed[e.ToolName] {
			c.logger.Debug("skipping duplicate tool", "tool", e.ToolName, "priority", priority)
			invocations.WithLabelValues(e.ToolName, string(priority), statusSkipped).Inc()
			res.Outcomes = append(res.Outcomes, types.ExecutionOutcome{
				ToolName: e.ToolName,
				Success:  true,
				Skipped:  true,
				Message:  fmt.Sprintf("%s already ran for this request.", e.ToolName),
			})
			continue
		}

		tool, found := c.registry.Lookup(e.ToolName)
		if !found {
			if priority == types.MustCall {
				err := failure.New(failure.KindRegistry, "execute", "planned capability not implemented",
					fmt.Errorf("tool %q", e.ToolName))
				span.RecordError(err)
				span.SetStatus(codes.Error, err.Error())
				c.logger.Error("planned tool is not registered", "tool", e.ToolName)
				res.Success = false
				res.FailedTool = e.ToolName
				res.Message = failure.UserMessage(err)
				return false, err
			}
			c.logger.Warn("optional tool is not registered, skipping", "tool", e.ToolName)
			continue
		}

		executed[e.ToolName] = true
		out := c.invoke(ctx, tool, priority, params, emit)
		res.Outcomes = append(res.Outcomes, out)

		if err := ctx.Err(); err != nil {
			span.SetStatus(codes.Error, err.Error())
			res.Success = false
			return false, err
		}

		if out.Success {
			continue
		}
		if priority == types.MustCall {
			span.SetStatus(codes.Error, out.Message)
			c.logger.Warn("must-call tool failed, stopping plan", "tool", e.ToolName, "message", out.Message)
			res.Success = false
			res.FailedTool = e.ToolName
			res.Message = out.Message
			return false, nil
		}
		c.logger.Warn("optional tool failed", "tool", e.ToolName, "message", out.Message)
	}
	return true, nil
}

// invoke calls one tool, converting a panic into a failed outcome.
func (c *Coordinator) invoke(ctx context.Context, tool tools.Tool, priority types.Priority,
	params map[string]any, emit tools.Emitter) (out types.ExecutionOutcome) {
	name := tool.Name()
	ctx, span := c.tracer.Start(ctx, "tool."+name, trace.WithAttributes(
		attribute.String("tool.name", name),
		attribute.String("tool.priority", string(priority)),
	))
	defer span.End()

	start := time.Now()
	status := statusFailure
	defer func() {
		if r := recover(); r != nil {
			c.logger.Error("tool panicked", "tool", name, "panic", r)
			status = statusPanic
			out = types.Failed(name, fmt.Sprintf("The %s tool failed unexpectedly.", name))
		}
		out.ToolName = name
		out.Duration = time.Since(start)

		if out.Success {
			status = statusSuccess
		} else {
			span.SetStatus(codes.Error, out.Message)
		}
		span.SetAttributes(attribute.Bool("tool.success", out.Success))
		invocations.WithLabelValues(name, string(priority), status).Inc()
		durations.WithLabelValues(name).Observe(out.Duration.Seconds())
		c.logger.Info("tool finished", "tool", name, "priority", priority,
			"success", out.Success, "duration", out.Duration)
	}()

	return tool.Invoke(ctx, params, emit)
}
