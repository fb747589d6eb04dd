package agent

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"grok-cli/internal/llm"
	"grok-cli/internal/tools"
)

func selfCorrectRegistry() *tools.Registry {
	r := tools.NewRegistry()
	_ = r.Register(&tools.Tool{
		Name:        "flaky",
		Description: "always asks for self-correction",
		Category:    tools.CategoryGeneral,
		Execute: func(ctx context.Context, args map[string]any) (string, error) {
			return "", &tools.SelfCorrectError{
				Message:            "flaky tool needs different args",
				OriginalTool:       "flaky",
				SuggestedFallbacks: []string{"try the echo tool instead"},
				Hint:               "retry with an explicit target file",
			}
		},
	})
	return r
}

func toolCallScript(index int, id, name, args string) []llm.StreamEvent {
	return []llm.StreamEvent{
		{Type: llm.EventToolCallDelta, ToolCallDelta: &llm.ToolCallDelta{Index: index, ID: id, Name: name, ArgumentsDelta: args}},
		{Type: llm.EventDone},
	}
}

func TestRun_SelfCorrectFailure_ExhaustsAfterMaxAttemptsThenEndsTurn(t *testing.T) {
	// The flaky tool's SelfCorrectError is detected through the normal
	// registry.Execute -> Envelope.IsSelfCorrect path; repeating its call
	// across rounds drives correctionAttempts to the configured bound.
	responses := make([][]llm.StreamEvent, 0, 3)
	for i := 0; i < 3; i++ {
		responses = append(responses, toolCallScript(0, "call", "flaky", "{}"))
	}
	streamer := &fakeStreamer{responses: responses}
	a := New(streamer, selfCorrectRegistry(), nil, Options{MaxToolRounds: 5, MaxCorrectionAttempts: 2})

	var failures, correctionAttempts int
	var exhausted, done, sawError bool
	var eventOrder []EventType
	for ev := range a.Run(context.Background(), "try the flaky tool", nil) {
		eventOrder = append(eventOrder, ev.Type)
		switch ev.Type {
		case EventToolResult:
			if !ev.ToolResult.Success {
				failures++
			}
		case EventCorrectionAttempt:
			correctionAttempts++
		case EventCorrectionExhausted:
			exhausted = true
		case EventDone:
			done = true
		case EventError:
			sawError = true
		}
	}

	assert.Equal(t, 3, failures)
	assert.Equal(t, 2, correctionAttempts)
	assert.True(t, exhausted, "expected an exhaustion notice once MaxCorrectionAttempts is reached")
	assert.True(t, done, "the turn should end cleanly after exhaustion, not keep looping")
	assert.False(t, sawError, "exhaustion is not a generic maxToolRounds error")
	assert.Equal(t, EventDone, eventOrder[len(eventOrder)-1], "done should be the final event after exhaustion")
}

func TestRun_MaxToolRoundsExceeded_EmitsError(t *testing.T) {
	responses := make([][]llm.StreamEvent, 0, 3)
	for i := 0; i < 3; i++ {
		responses = append(responses, toolCallScript(0, "call", "echo", "{}"))
	}
	streamer := &fakeStreamer{responses: responses}
	a := New(streamer, newTestRegistry(), nil, Options{MaxToolRounds: 3, MaxCorrectionAttempts: 3})

	var sawError bool
	for ev := range a.Run(context.Background(), "keep calling echo", nil) {
		if ev.Type == EventError {
			sawError = true
		}
	}
	assert.True(t, sawError)
}
