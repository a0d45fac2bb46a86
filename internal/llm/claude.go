// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package llm

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/anthropics/anthropic-sdk-go/packages/param"
	"github.com/anthropics/anthropic-sdk-go/shared/constant"

	"github.com/pdiddy/ala-agent/internal/failure"
	"github.com/pdiddy/ala-agent/pkg/types"
)

const (
	// DefaultModel is used when no model is configured.
	DefaultModel = "claude-sonnet-4-5-20250929"

	defaultMaxTokens = 2048
	defaultTimeout   = 30 * time.Second
)

// Claude is the Completer backed by the Anthropic Messages API. Structured
// output is obtained by forcing a single tool call whose input schema is
// the requested schema.
type Claude struct {
	client    anthropic.Client
	model     string
	maxTokens int64
	timeout   time.Duration
}

// NewClaude builds a Claude completer from cfg. Extra request options
// (e.g. option.WithHTTPClient) are appended after the configured ones.
func NewClaude(cfg types.AIConfig, opts ...option.RequestOption) *Claude {
	ro := []option.RequestOption{
		option.WithAPIKey(cfg.APIKey),
		// Callers own retries so a validation failure and a transport
		// failure share one budget.
		option.WithMaxRetries(0),
	}
	if cfg.BaseURL != "" {
		ro = append(ro, option.WithBaseURL(cfg.BaseURL))
	}
	ro = append(ro, opts...)

	c := &Claude{
		client:    anthropic.NewClient(ro...),
		model:     cfg.Model,
		maxTokens: int64(cfg.MaxTokens),
		timeout:   cfg.Timeout,
	}
	if c.model == "" {
		c.model = DefaultModel
	}
	if c.maxTokens <= 0 {
		c.maxTokens = defaultMaxTokens
	}
	if c.timeout <= 0 {
		c.timeout = defaultTimeout
	}
	return c
}

// Complete implements Completer.
func (c *Claude) Complete(ctx context.Context, req Request) (json.RawMessage, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	params := anthropic.MessageNewParams{
		Model:       anthropic.Model(c.model),
		MaxTokens:   c.maxTokens,
		Temperature: anthropic.Float(0),
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(req.User)),
		},
	}
	if req.System != "" {
		params.System = []anthropic.TextBlockParam{{
			Text: req.System,
			Type: constant.ValueOf[constant.Text]().Default(),
		}}
	}
	if req.ToolName != "" && req.Schema != nil {
		inputSchema := anthropic.ToolInputSchemaParam{
			Type:       constant.ValueOf[constant.Object]().Default(),
			Properties: req.Schema.Properties,
			Required:   req.Schema.Required,
		}
		tool := anthropic.ToolUnionParamOfTool(inputSchema, req.ToolName)
		if req.ToolDescription != "" {
			tool.OfTool.Description = param.NewOpt(req.ToolDescription)
		}
		params.Tools = []anthropic.ToolUnionParam{tool}
		params.ToolChoice = anthropic.ToolChoiceUnionParam{
			OfTool: &anthropic.ToolChoiceToolParam{Name: req.ToolName},
		}
	}

	msg, err := c.client.Messages.New(ctx, params)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return nil, err
		}
		return nil, failure.FromTransport("llm.complete", err)
	}

	var text string
	for _, block := range msg.Content {
		switch b := block.AsAny().(type) {
		case anthropic.ToolUseBlock:
			if len(b.Input) > 0 {
				return json.RawMessage(b.Input), nil
			}
		case anthropic.TextBlock:
			text += b.Text
		}
	}

	if raw, ok := extractJSON(text); ok {
		return raw, nil
	}
	return nil, failure.New(failure.KindExtraction, "llm.complete", "model returned no structured output", nil)
}
