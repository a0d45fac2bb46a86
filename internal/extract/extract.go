// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package extract turns a free-text biodiversity question into an
// ExtractedQuery using a language model, and rejects extractions that drop
// a date constraint the user stated.
package extract

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/pdiddy/ala-agent/internal/failure"
	"github.com/pdiddy/ala-agent/internal/llm"
	"github.com/pdiddy/ala-agent/pkg/types"
)

const (
	toolName        = "record_search_parameters"
	toolDescription = "Record the ALA search parameters extracted from the user's question."

	defaultMaxRetries = 3
)

// backoffBase controls the base duration for exponential backoff. Tests
// override this to avoid real sleeps.
var backoffBase = time.Second

var querySchema = llm.SchemaFor(&types.ExtractedQuery{})

// Extractor is the ParameterExtractor.
type Extractor struct {
	completer  llm.Completer
	maxRetries int
	logger     *slog.Logger
}

// New returns an Extractor. cfg.MaxRetries bounds the number of retries
// after the first attempt (default 3).
func New(c llm.Completer, cfg types.ExtractionConfig, logger *slog.Logger) *Extractor {
	if logger == nil {
		logger = slog.Default()
	}
	maxRetries := cfg.MaxRetries
	if maxRetries <= 0 {
		maxRetries = defaultMaxRetries
	}
	return &Extractor{completer: c, maxRetries: maxRetries, logger: logger}
}

// Extract converts text into an ExtractedQuery.
//
// Invalid output (undecodable, missing params, or a temporal question
// without a temporal parameter) is retried with the rejection reason fed
// back to the model. When retries run out the error is KindExtraction;
// transport failures keep their KindNetwork or KindTimeout classification.
// Context cancellation is returned unchanged.
func (e *Extractor) Extract(ctx context.Context, text string) (*types.ExtractedQuery, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, failure.New(failure.KindExtraction, "extract", "empty query", nil)
	}

	system, err := renderSystemPrompt()
	if err != nil {
		return nil, fmt.Errorf("rendering prompt: %w", err)
	}

	return e.callWithRetry(ctx, system, text)
}

// callWithRetry calls the model with exponential backoff between attempts.
func (e *Extractor) callWithRetry(ctx context.Context, system, text string) (*types.ExtractedQuery, error) {
	var lastErr error
	var rejection string

	for attempt := 0; attempt <= e.maxRetries; attempt++ {
		if attempt > 0 {
			backoff := backoffBase << (attempt - 1)
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(backoff):
			}
		}

		user := "Extract parameters from: " + text
		if rejection != "" {
			user += "\n\nYour previous answer was rejected: " + rejection + ". Correct it."
		}

		raw, err := e.completer.Complete(ctx, llm.Request{
			System:          system,
			User:            user,
			ToolName:        toolName,
			ToolDescription: toolDescription,
			Schema:          querySchema,
		})
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			e.logger.Warn("extraction call failed", "attempt", attempt+1, "error", err)
			lastErr = err
			rejection = ""
			continue
		}

		q, err := decode(raw, text)
		if err != nil {
			e.logger.Warn("extraction rejected", "attempt", attempt+1, "reason", err)
			lastErr = failure.New(failure.KindExtraction, "extract", err.Error(), nil)
			rejection = err.Error()
			continue
		}

		e.logger.Debug("extracted parameters", "params", q.Parameters, "unresolved", q.UnresolvedParameters)
		return q, nil
	}

	if k := failure.KindOf(lastErr); k == failure.KindNetwork || k == failure.KindTimeout {
		return nil, fmt.Errorf("extracting parameters after %d retries: %w", e.maxRetries, lastErr)
	}
	var fe *failure.Error
	if errors.As(lastErr, &fe) && fe.Kind == failure.KindExtraction {
		return nil, fe
	}
	return nil, failure.New(failure.KindExtraction, "extract", "the language model did not return usable parameters", lastErr)
}

// decode parses and validates one model answer.
func decode(raw json.RawMessage, text string) (*types.ExtractedQuery, error) {
	var q types.ExtractedQuery
	if err := json.Unmarshal(raw, &q); err != nil {
		return nil, fmt.Errorf("output does not match the schema: %v", err)
	}
	if q.Parameters == nil {
		return nil, errors.New("output has no params object")
	}
	dropEmpty(q.Parameters)
	if err := validateTemporal(text, q.Parameters); err != nil {
		return nil, err
	}
	if !q.NeedsClarification {
		q.ClarificationReason = ""
	}
	return &q, nil
}

// dropEmpty removes null and empty-string parameters so presence checks
// downstream mean "has a value".
func dropEmpty(params map[string]any) {
	for k, v := range params {
		if v == nil {
			delete(params, k)
			continue
		}
		if s, ok := v.(string); ok && strings.TrimSpace(s) == "" {
			delete(params, k)
		}
	}
}
