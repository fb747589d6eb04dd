// Package tools provides the tool contract, schema, and registry that the
// Agent Core dispatches against: a tool is named, has a JSON schema, and a
// handler (args, ctx) -> result, per spec §4.2.
package tools

import (
	"context"
)

// ToolCategory classifies tools for grouping and dashboarding. Unlike
// intent-routed systems, dispatch here is always by explicit tool name;
// category is informational only.
type ToolCategory string

const (
	CategoryFile     ToolCategory = "file"
	CategorySearch   ToolCategory = "search"
	CategoryCode     ToolCategory = "code"
	CategoryRefactor ToolCategory = "refactor"
	CategoryPlan     ToolCategory = "plan"
	CategoryShell    ToolCategory = "shell"
	CategoryGeneral  ToolCategory = "general"
	CategoryMCP      ToolCategory = "mcp"
)

// Property describes a single parameter property for JSON schema.
type Property struct {
	Type        string `json:"type"`
	Description string `json:"description"`
	Default     any    `json:"default,omitempty"`
	Enum        []any  `json:"enum,omitempty"`
	// Items describes array element schema (required for type="array")
	Items *PropertyItems `json:"items,omitempty"`
}

// PropertyItems describes the schema for array elements.
type PropertyItems struct {
	Type string `json:"type"`
}

// ToolSchema defines the JSON schema for tool arguments.
// This enables LLM tool calling with proper validation.
type ToolSchema struct {
	// Required lists parameters that must be provided.
	Required []string `json:"required"`

	// Properties describes each parameter.
	Properties map[string]Property `json:"properties"`
}

// ExecuteFunc is the signature for tool execution.
// Returns the result string and any error.
type ExecuteFunc func(ctx context.Context, args map[string]any) (string, error)

// Tool defines a modular tool that any agent can use.
// Tools are registered in the Registry and dispatched by explicit name.
type Tool struct {
	// Name is the unique identifier for the tool; the Registry dispatches
	// on it.
	Name string

	// Description explains what the tool does.
	// Used for LLM tool calling and documentation.
	Description string

	// Category groups the tool (see GetByCategory); dispatch does not filter on it.
	Category ToolCategory

	// Execute runs the tool with the given arguments.
	Execute ExecuteFunc

	// Schema defines the expected arguments.
	Schema ToolSchema

	// Priority is used when multiple tools match.
	// Higher priority tools are preferred (default 50).
	Priority int

	// RequiresContext indicates if the tool needs session context.
	RequiresContext bool
}

// Validate checks if the tool definition is valid.
func (t *Tool) Validate() error {
	if t.Name == "" {
		return ErrEmptyToolName
	}
	if t.Execute == nil {
		return ErrNilExecutor
	}
	return nil
}

// WithPriority returns a copy of the tool with the given priority.
func (t *Tool) WithPriority(priority int) *Tool {
	copy := *t
	copy.Priority = priority
	return &copy
}

