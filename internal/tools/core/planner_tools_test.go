package core

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTaskPlannerTool_ProducesValidatedPlan(t *testing.T) {
	e := newIndexedEngine(t, map[string]string{"src/a.js": "function doThing() {}\n"})
	tool := TaskPlannerTool(e)

	out, err := tool.Execute(context.Background(), map[string]any{
		"request": "refactor the doThing function to improve clarity",
	})
	require.NoError(t, err)
	assert.Contains(t, out, "\"plan\"")
	assert.Contains(t, out, "\"validation\"")
}

func TestTaskPlannerTool_RequiresRequest(t *testing.T) {
	e := newIndexedEngine(t, map[string]string{"src/a.js": "function doThing() {}\n"})
	tool := TaskPlannerTool(e)

	_, err := tool.Execute(context.Background(), map[string]any{})
	require.Error(t, err)
}
