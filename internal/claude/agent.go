package claude

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"

	"github.com/adpilot/adpilot/internal/tool"
)

// maxAgentIterations bounds how many model round trips a single user
// message may trigger. The loop stops early once the model replies
// without requesting a tool.
const maxAgentIterations = 8

// ErrAgentIterationLimit indicates the loop hit its round trip cap
// while the model was still requesting tools.
var ErrAgentIterationLimit = errors.New("agent iteration limit reached")

// ToolCall records one tool invocation made during an agent run.
type ToolCall struct {
	Name       string
	Input      json.RawMessage
	Output     string
	Err        string
	DurationMs int64
}

// AgentResult is the outcome of a full agent run.
type AgentResult struct {
	// Reply is the assistant's final text response.
	Reply string

	// ToolCalls lists every tool invocation, in execution order.
	ToolCalls []ToolCall

	// Iterations counts model round trips consumed.
	Iterations int
}

// RunAgent sends a user message through the tool-use loop: call the
// model, execute any requested tools, feed the results back, and
// repeat until the model answers in plain text.
func (c *Client) RunAgent(ctx context.Context, executor ToolExecutor, tc tool.Context, system string, history []Turn, userMessage string) (*AgentResult, error) {
	messages := buildHistory(history)
	messages = append(messages, anthropic.NewUserMessage(anthropic.NewTextBlock(userMessage)))

	tools := buildTools(executor.Definitions())

	result := &AgentResult{}
	var lastText string

	for result.Iterations < maxAgentIterations {
		result.Iterations++

		msg, err := c.create(ctx, system, messages, tools)
		if err != nil {
			return nil, err
		}

		var toolUses []anthropic.ToolUseBlock
		var texts []string

		for _, block := range msg.Content {
			switch variant := block.AsAny().(type) {
			case anthropic.TextBlock:
				texts = append(texts, variant.Text)
			case anthropic.ToolUseBlock:
				toolUses = append(toolUses, variant)
			}
		}

		if len(texts) > 0 {
			lastText = strings.Join(texts, "\n")
		}

		if msg.StopReason != anthropic.StopReasonToolUse || len(toolUses) == 0 {
			result.Reply = lastText
			return result, nil
		}

		// Echo the assistant turn, then answer each tool request.
		messages = append(messages, msg.ToParam())

		toolResults := make([]anthropic.ContentBlockParamUnion, 0, len(toolUses))
		for _, use := range toolUses {
			call := ToolCall{Name: use.Name, Input: use.Input}

			res, err := executor.Execute(ctx, tc, use.Name, use.Input)
			if err != nil {
				// Tool failures go back to the model as error
				// results so it can recover or explain.
				call.Err = err.Error()
				slog.Warn("tool execution failed",
					"tool", use.Name,
					"error", err,
				)
				toolResults = append(toolResults, toolResultBlock(use.ID, err.Error(), true))
			} else {
				call.Output = res.Output
				call.DurationMs = res.DurationMs
				toolResults = append(toolResults, toolResultBlock(use.ID, res.Output, false))
			}

			result.ToolCalls = append(result.ToolCalls, call)
		}

		messages = append(messages, anthropic.NewUserMessage(toolResults...))
	}

	return nil, ErrAgentIterationLimit
}

// toolResultBlock builds a tool_result content block carrying the
// tool's text output and the error flag the model keys off.
func toolResultBlock(toolUseID, content string, isError bool) anthropic.ContentBlockParamUnion {
	block := anthropic.NewToolResultBlock(toolUseID)
	block.OfToolResult.Content = []anthropic.ToolResultBlockParamContentUnion{
		{OfText: &anthropic.TextBlockParam{Text: content}},
	}
	block.OfToolResult.IsError = anthropic.Bool(isError)
	return block
}
