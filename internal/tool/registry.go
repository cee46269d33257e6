package tool

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"
)

// Registry holds all available tools and provides lookup and execution.
// It is thread-safe and supports registration at runtime.
type Registry struct {
	mu    sync.RWMutex
	tools map[string]*Tool
}

// NewRegistry creates a new empty tool registry.
func NewRegistry() *Registry {
	return &Registry{
		tools: make(map[string]*Tool),
	}
}

// Register adds a tool to the registry.
// Returns an error if a tool with the same name already exists.
func (r *Registry) Register(t *Tool) error {
	if err := t.Validate(); err != nil {
		return fmt.Errorf("invalid tool: %w", err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.tools[t.Definition.Name]; exists {
		return fmt.Errorf("%w: %s", ErrToolAlreadyRegistered, t.Definition.Name)
	}

	r.tools[t.Definition.Name] = t

	slog.Debug("registered tool", "name", t.Definition.Name)
	return nil
}

// MustRegister registers a tool and panics on error.
// Use this for static tool registration at startup.
func (r *Registry) MustRegister(t *Tool) {
	if err := r.Register(t); err != nil {
		panic(fmt.Sprintf("failed to register tool %s: %v", t.Definition.Name, err))
	}
}

// Get returns a tool by name, or nil if not found.
func (r *Registry) Get(name string) *Tool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.tools[name]
}

// Has returns true if a tool with the given name is registered.
func (r *Registry) Has(name string) bool {
	return r.Get(name) != nil
}

// Definitions returns all tool definitions, sorted by name.
// Used to build the provider tool schema for each model call.
func (r *Registry) Definitions() []Definition {
	r.mu.RLock()
	defer r.mu.RUnlock()

	defs := make([]Definition, 0, len(r.tools))
	for _, t := range r.tools {
		defs = append(defs, t.Definition)
	}

	sort.Slice(defs, func(i, j int) bool {
		return defs[i].Name < defs[j].Name
	})

	return defs
}

// Names returns all registered tool names, sorted.
func (r *Registry) Names() []string {
	defs := r.Definitions()

	names := make([]string, len(defs))
	for i, d := range defs {
		names[i] = d.Name
	}
	return names
}

// Count returns the number of registered tools.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.tools)
}

// Execute runs a tool by name with the given raw input.
// Returns ErrToolNotFound if the tool doesn't exist.
func (r *Registry) Execute(ctx context.Context, tc Context, name string, input json.RawMessage) (*Result, error) {
	t := r.Get(name)
	if t == nil {
		return nil, fmt.Errorf("%w: %s", ErrToolNotFound, name)
	}

	start := time.Now()

	if err := validateInput(t, input); err != nil {
		return &Result{
			ToolName:   name,
			Error:      err,
			DurationMs: time.Since(start).Milliseconds(),
		}, err
	}

	output, err := t.Execute(ctx, tc, input)

	duration := time.Since(start)
	slog.Debug("tool executed",
		"name", name,
		"duration_ms", duration.Milliseconds(),
		"success", err == nil,
	)

	return &Result{
		ToolName:   name,
		Output:     output,
		Error:      err,
		DurationMs: duration.Milliseconds(),
	}, err
}

// validateInput checks that all required fields are present in the
// raw input before the tool runs.
func validateInput(t *Tool, input json.RawMessage) error {
	if len(t.Definition.Required) == 0 {
		return nil
	}

	var fields map[string]json.RawMessage
	if len(input) > 0 {
		if err := json.Unmarshal(input, &fields); err != nil {
			return fmt.Errorf("%w: %v", ErrInvalidInput, err)
		}
	}

	for _, required := range t.Definition.Required {
		if _, ok := fields[required]; !ok {
			return fmt.Errorf("%w: %s", ErrMissingRequiredArg, required)
		}
	}
	return nil
}
