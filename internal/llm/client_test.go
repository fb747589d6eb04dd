package llm

import (
	"context"
	"errors"
	"fmt"
	"net"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewClient_RequiresAPIKeyAndModel(t *testing.T) {
	_, err := NewClient(Config{Model: "gpt-4o"})
	assert.Error(t, err)

	_, err = NewClient(Config{APIKey: "sk-test"})
	assert.Error(t, err)

	c, err := NewClient(Config{APIKey: "sk-test", Model: "gpt-4o"})
	assert.NoError(t, err)
	assert.NotNil(t, c)
	assert.Equal(t, 120, c.cfg.HTTPTimeoutSeconds)
}

func TestToOpenAIMessages_CarriesToolCalls(t *testing.T) {
	msgs := []Message{
		{Role: RoleUser, Content: "hello"},
		{Role: RoleAssistant, ToolCalls: []ToolCall{{ID: "call_1", Name: "bash", Arguments: `{"command":"ls"}`}}},
		{Role: RoleTool, ToolCallID: "call_1", Content: "file.go"},
	}
	out := toOpenAIMessages(msgs)
	assert.Len(t, out, 3)
	assert.Equal(t, "call_1", out[1].ToolCalls[0].ID)
	assert.Equal(t, "bash", out[1].ToolCalls[0].Function.Name)
	assert.Equal(t, "call_1", out[2].ToolCallID)
}

func TestToOpenAITools_ConvertsDefinitions(t *testing.T) {
	defs := []ToolDefinition{{Name: "bash", Description: "run a shell command", Parameters: map[string]any{"type": "object"}}}
	out := toOpenAITools(defs)
	assert.Len(t, out, 1)
	assert.Equal(t, "bash", out[0].Function.Name)
}

type fakeTimeoutErr struct{}

func (fakeTimeoutErr) Error() string   { return "i/o timeout" }
func (fakeTimeoutErr) Timeout() bool   { return true }
func (fakeTimeoutErr) Temporary() bool { return true }

func TestIsTransientStreamErr(t *testing.T) {
	assert.False(t, isTransientStreamErr(nil))
	assert.False(t, isTransientStreamErr(errors.New("some fatal error")))
	assert.True(t, isTransientStreamErr(context.DeadlineExceeded))
	assert.False(t, isTransientStreamErr(context.Canceled))

	var netErr net.Error = fakeTimeoutErr{}
	assert.True(t, isTransientStreamErr(netErr))
	assert.True(t, isTransientStreamErr(fmt.Errorf("stream recv: %w", netErr)))
}
