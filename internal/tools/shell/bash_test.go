package shell

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBashTool_RunsCommandAndCapturesOutput(t *testing.T) {
	tool := BashTool()

	out, err := tool.Execute(context.Background(), map[string]any{"command": "echo hello"})
	require.NoError(t, err)
	assert.Contains(t, out, "hello")
}

func TestBashTool_UsesWorkingDirectory(t *testing.T) {
	tool := BashTool()
	dir := t.TempDir()

	out, err := tool.Execute(context.Background(), map[string]any{"command": "pwd", "cwd": dir})
	require.NoError(t, err)
	assert.Contains(t, out, dir)
}

func TestBashTool_NonZeroExitReturnsError(t *testing.T) {
	tool := BashTool()

	_, err := tool.Execute(context.Background(), map[string]any{"command": "exit 3"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 3")
}

func TestBashTool_RequiresCommand(t *testing.T) {
	tool := BashTool()

	_, err := tool.Execute(context.Background(), map[string]any{})
	require.Error(t, err)
}

func TestBashTool_TimeoutSelfCorrects(t *testing.T) {
	tool := BashTool()

	_, err := tool.Execute(context.Background(), map[string]any{
		"command":   "sleep 2",
		"timeoutMs": 50,
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "timed out")
}
