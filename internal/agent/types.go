// Package agent drives a streaming conversation with the LLM and
// interleaves tool execution, per spec §4.7's Agent Core: one call to
// Run per user turn, yielding a typed event stream that the UI
// collaborator renders incrementally.
package agent

import (
	"grok-cli/internal/llm"
	"grok-cli/internal/planner"
)

// EventType tags entries on a turn's event stream.
type EventType string

const (
	EventContent             EventType = "content"
	EventToolCall            EventType = "tool_call"
	EventToolResult          EventType = "tool_result"
	EventPlanPreview         EventType = "plan_preview"
	EventPlanApproved        EventType = "plan_approved"
	EventPlanRejected        EventType = "plan_rejected"
	EventPlanProgress        EventType = "plan_progress"
	EventCorrectionAttempt   EventType = "correction_attempt"
	EventCorrectionExhausted EventType = "correction_exhausted"
	EventDone                EventType = "done"
	EventError               EventType = "error"
)

// ToolCall is one complete, assembled tool invocation requested by the LLM.
type ToolCall struct {
	ID   string
	Name string
	Args map[string]any
}

// Event is one entry on a turn's event stream.
type Event struct {
	Type         EventType
	ContentDelta string
	ToolCall     *ToolCall
	ToolResult   *ToolResultEvent
	Plan         *planner.TaskPlan
	PlanEvent    *planner.Event
	Message      string
	Err          error
}

// ToolResultEvent reports one tool call's outcome back to the UI.
type ToolResultEvent struct {
	ToolCallID string
	ToolName   string
	Success    bool
	Output     string
	Error      string
}

// PlanConfirmer asks the UI collaborator to approve or reject a plan
// preview before the Plan Executor runs it.
type PlanConfirmer func(plan *planner.TaskPlan) bool

// Options configures one Agent.
type Options struct {
	MaxToolRounds         int
	MaxCorrectionAttempts int
	SystemPrompt          string
	AllowRiskyOperations  bool
	// History, when set, receives one audit record per completed plan
	// step, per spec §4.6's operation history ledger.
	History planner.HistoryRecorder
}

// DefaultOptions mirrors spec §4.7's defaults.
func DefaultOptions() Options {
	return Options{MaxToolRounds: 25, MaxCorrectionAttempts: 3}
}

// conversation is the running message history for one session; turns
// append to it and it persists across Run calls on the same Agent.
type conversation struct {
	messages []llm.Message
}

func (c *conversation) append(m llm.Message) {
	c.messages = append(c.messages, m)
}
