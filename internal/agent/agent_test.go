package agent

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"grok-cli/internal/llm"
	"grok-cli/internal/planner"
	"grok-cli/internal/tools"
)

// fakeStreamer replays a fixed script of responses, one per call to Stream.
type fakeStreamer struct {
	responses [][]llm.StreamEvent
	calls     int
}

func (f *fakeStreamer) Stream(ctx context.Context, messages []llm.Message, defs []llm.ToolDefinition) <-chan llm.StreamEvent {
	out := make(chan llm.StreamEvent, 16)
	idx := f.calls
	f.calls++
	go func() {
		defer close(out)
		if idx >= len(f.responses) {
			out <- llm.StreamEvent{Type: llm.EventDone}
			return
		}
		for _, ev := range f.responses[idx] {
			out <- ev
		}
	}()
	return out
}

func newTestRegistry() *tools.Registry {
	r := tools.NewRegistry()
	_ = r.Register(&tools.Tool{
		Name:        "echo",
		Description: "echoes its input",
		Category:    tools.CategoryGeneral,
		Execute: func(ctx context.Context, args map[string]any) (string, error) {
			return "echoed", nil
		},
	})
	return r
}

func TestRun_NoToolCalls_EmitsContentThenDone(t *testing.T) {
	streamer := &fakeStreamer{responses: [][]llm.StreamEvent{
		{
			{Type: llm.EventContent, ContentDelta: "hello "},
			{Type: llm.EventContent, ContentDelta: "world"},
			{Type: llm.EventDone},
		},
	}}
	a := New(streamer, newTestRegistry(), nil, DefaultOptions())

	var content string
	var sawDone bool
	for ev := range a.Run(context.Background(), "what does this file do", nil) {
		if ev.Type == EventContent {
			content += ev.ContentDelta
		}
		if ev.Type == EventDone {
			sawDone = true
		}
	}
	assert.Equal(t, "hello world", content)
	assert.True(t, sawDone)
}

func TestRun_ToolCall_ExecutesAndAppendsResult(t *testing.T) {
	streamer := &fakeStreamer{responses: [][]llm.StreamEvent{
		{
			idxed(0, "call_1", "echo", `{"text":`),
			idxed(0, "", "", `"hi"}`),
			{Type: llm.EventDone},
		},
		{
			{Type: llm.EventContent, ContentDelta: "done"},
			{Type: llm.EventDone},
		},
	}}
	a := New(streamer, newTestRegistry(), nil, DefaultOptions())

	var results []ToolResultEvent
	for ev := range a.Run(context.Background(), "please run the echo tool", nil) {
		if ev.Type == EventToolResult {
			results = append(results, *ev.ToolResult)
		}
	}
	require.Len(t, results, 1)
	assert.True(t, results[0].Success)
	assert.Equal(t, "echoed", results[0].Output)
}

func idxed(index int, id, name, argsDelta string) llm.StreamEvent {
	return llm.StreamEvent{Type: llm.EventToolCallDelta, ToolCallDelta: &llm.ToolCallDelta{
		Index: index, ID: id, Name: name, ArgumentsDelta: argsDelta,
	}}
}

func TestShouldCreatePlan_ScoresComplexRequestsAboveThreshold(t *testing.T) {
	assert.True(t, shouldCreatePlan("refactor src/app/main.ts and src/app/util.ts across the whole module"))
	assert.False(t, shouldCreatePlan("what does this function do"))
}

func TestRun_ComplexRequest_PreviewsPlanAndRespectsRejection(t *testing.T) {
	streamer := &fakeStreamer{responses: [][]llm.StreamEvent{
		{{Type: llm.EventContent, ContentDelta: "ok"}, {Type: llm.EventDone}},
	}}
	a := New(streamer, newTestRegistry(), nil, DefaultOptions())

	var sawPreview, sawRejected bool
	reject := func(plan *planner.TaskPlan) bool { return false }

	for ev := range a.Run(context.Background(), "refactor src/a.ts and src/b.ts across the entire module architecture", reject) {
		switch ev.Type {
		case EventPlanPreview:
			sawPreview = true
		case EventPlanRejected:
			sawRejected = true
		}
	}
	assert.True(t, sawPreview)
	assert.True(t, sawRejected)
}

func TestRun_ComplexRequest_ApprovedPlanExecutesAndCompletes(t *testing.T) {
	streamer := &fakeStreamer{}
	reg := tools.NewRegistry()
	for _, name := range []string{"code_context", "dependency_analyzer", "refactoring_assistant", "multi_file_edit"} {
		name := name
		_ = reg.Register(&tools.Tool{
			Name:        name,
			Description: "stub",
			Category:    tools.CategoryRefactor,
			Execute: func(ctx context.Context, args map[string]any) (string, error) {
				return "ok", nil
			},
		})
	}
	a := New(streamer, reg, nil, DefaultOptions())

	var sawApproved, sawDone bool
	approve := func(plan *planner.TaskPlan) bool { return true }
	for ev := range a.Run(context.Background(), "refactor src/a.ts and src/b.ts across the entire module architecture", approve) {
		switch ev.Type {
		case EventPlanApproved:
			sawApproved = true
		case EventDone:
			sawDone = true
		}
	}
	assert.True(t, sawApproved)
	assert.True(t, sawDone)
}
