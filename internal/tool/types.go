// Package tool provides the tool definitions exposed to the model
// during chat, plus the registry that validates and executes them.
package tool

import (
	"context"
	"encoding/json"

	"github.com/adpilot/adpilot/internal/model"
)

// Property describes a single parameter property for JSON schema.
type Property struct {
	Type        string `json:"type"`
	Description string `json:"description"`
	Enum        []any  `json:"enum,omitempty"`
	// Items describes array element schema (required for type="array")
	Items *PropertyItems `json:"items,omitempty"`
}

// PropertyItems describes the schema for array elements.
type PropertyItems struct {
	Type string `json:"type"`
	Enum []any  `json:"enum,omitempty"`
}

// Definition is the model-facing description of a tool. It carries
// everything needed to build the provider's tool-use schema.
type Definition struct {
	// Name is the unique identifier for the tool.
	Name string

	// Description explains what the tool does. Sent to the model.
	Description string

	// Required lists input fields that must be provided.
	Required []string

	// Properties describes each input field.
	Properties map[string]Property
}

// Context carries the authenticated caller through a tool execution.
type Context struct {
	User *model.AuthUser
}

// UserID returns the acting user's ID, or empty if unauthenticated.
func (c Context) UserID() string {
	if c.User == nil {
		return ""
	}
	return c.User.UserID
}

// ExecuteFunc is the signature for tool execution. Input is the raw
// JSON the model produced for the call.
type ExecuteFunc func(ctx context.Context, tc Context, input json.RawMessage) (string, error)

// Tool pairs a definition with its implementation.
type Tool struct {
	Definition Definition
	Execute    ExecuteFunc
}

// Validate checks if the tool is well formed.
func (t *Tool) Validate() error {
	if t.Definition.Name == "" {
		return ErrToolNameEmpty
	}
	if t.Execute == nil {
		return ErrToolExecuteNil
	}
	return nil
}

// Result wraps the outcome of a tool execution with metadata.
type Result struct {
	// ToolName identifies which tool was executed.
	ToolName string

	// Output is the string result returned to the model.
	Output string

	// Error is set if the tool failed.
	Error error

	// DurationMs is how long execution took.
	DurationMs int64
}

// IsSuccess returns true if the tool executed without error.
func (r *Result) IsSuccess() bool {
	return r.Error == nil
}
