// Package claude wraps the Anthropic Messages API behind a small
// client used by the chat service. All SDK types stay inside this
// package; callers deal in transcript turns and tool results.
package claude

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/adpilot/adpilot/internal/model"
	"github.com/adpilot/adpilot/internal/tool"
)

// defaultMaxTokens bounds the length of a single assistant reply.
const defaultMaxTokens = 2048

// ToolExecutor runs tools on behalf of the agent loop.
// *tool.Registry satisfies this.
type ToolExecutor interface {
	Definitions() []tool.Definition
	Execute(ctx context.Context, tc tool.Context, name string, input json.RawMessage) (*tool.Result, error)
}

// Turn is one prior transcript entry replayed to the model.
// Only user and assistant text turns are replayed.
type Turn struct {
	Role    model.MessageRole
	Content string
}

// Client calls the Anthropic Messages API.
type Client struct {
	// newMessage performs the Messages API call. Tests swap in a stub.
	newMessage func(ctx context.Context, params anthropic.MessageNewParams) (*anthropic.Message, error)
	model      string
	maxTokens  int64
}

// NewClient creates a Messages API client for the given model.
func NewClient(apiKey, modelName string) *Client {
	sdk := anthropic.NewClient(option.WithAPIKey(apiKey))
	return &Client{
		newMessage: func(ctx context.Context, params anthropic.MessageNewParams) (*anthropic.Message, error) {
			return sdk.Messages.New(ctx, params)
		},
		model:     modelName,
		maxTokens: defaultMaxTokens,
	}
}

// Model returns the configured model name.
func (c *Client) Model() string {
	return c.model
}

// create performs one Messages API call.
func (c *Client) create(ctx context.Context, system string, messages []anthropic.MessageParam, tools []anthropic.ToolUnionParam) (*anthropic.Message, error) {
	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(c.model),
		MaxTokens: c.maxTokens,
		Messages:  messages,
		Tools:     tools,
	}
	if system != "" {
		params.System = []anthropic.TextBlockParam{{Text: system}}
	}

	msg, err := c.newMessage(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("messages API call failed: %w", err)
	}

	return msg, nil
}

// buildTools converts registry definitions to provider tool params.
func buildTools(defs []tool.Definition) []anthropic.ToolUnionParam {
	tools := make([]anthropic.ToolUnionParam, 0, len(defs))
	for _, d := range defs {
		properties := make(map[string]any, len(d.Properties))
		for name, p := range d.Properties {
			properties[name] = p
		}

		tools = append(tools, anthropic.ToolUnionParam{
			OfTool: &anthropic.ToolParam{
				Name:        d.Name,
				Description: anthropic.String(d.Description),
				InputSchema: anthropic.ToolInputSchemaParam{
					Properties: properties,
					Required:   d.Required,
				},
			},
		})
	}
	return tools
}

// buildHistory converts transcript turns to provider messages.
// Tool turns are skipped; tool activity is not replayed across requests.
func buildHistory(history []Turn) []anthropic.MessageParam {
	messages := make([]anthropic.MessageParam, 0, len(history))
	for _, turn := range history {
		if turn.Content == "" {
			continue
		}
		switch turn.Role {
		case model.RoleUser:
			messages = append(messages, anthropic.NewUserMessage(anthropic.NewTextBlock(turn.Content)))
		case model.RoleAssistant:
			messages = append(messages, anthropic.NewAssistantMessage(anthropic.NewTextBlock(turn.Content)))
		}
	}
	return messages
}
