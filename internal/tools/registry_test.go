package tools

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func echoTool() *Tool {
	return &Tool{
		Name:     "echo",
		Category: CategoryGeneral,
		Execute: func(ctx context.Context, args map[string]any) (string, error) {
			msg, _ := args["message"].(string)
			return "Echo: " + msg, nil
		},
		Schema: ToolSchema{
			Required:   []string{"message"},
			Properties: map[string]Property{"message": {Type: "string"}},
		},
	}
}

func TestNewRegistry(t *testing.T) {
	reg := NewRegistry()
	require.NotNil(t, reg)
	assert.Equal(t, 0, reg.Count())
}

func TestRegisterAndGet(t *testing.T) {
	reg := NewRegistry()
	require.NoError(t, reg.Register(echoTool()))

	got := reg.Get("echo")
	require.NotNil(t, got)
	assert.Equal(t, "echo", got.Name)
}

func TestRegisterDuplicate(t *testing.T) {
	reg := NewRegistry()
	require.NoError(t, reg.Register(echoTool()))
	assert.ErrorIs(t, reg.Register(echoTool()), ErrDuplicateTool)
}

func TestRegisterValidation(t *testing.T) {
	reg := NewRegistry()

	t.Run("empty name", func(t *testing.T) {
		err := reg.Register(&Tool{Execute: func(ctx context.Context, args map[string]any) (string, error) { return "", nil }})
		assert.ErrorIs(t, err, ErrEmptyToolName)
	})

	t.Run("nil execute", func(t *testing.T) {
		err := reg.Register(&Tool{Name: "test"})
		assert.ErrorIs(t, err, ErrNilExecutor)
	})
}

func TestGetByCategory_SortedByPriority(t *testing.T) {
	reg := NewRegistry()
	reg.MustRegister(&Tool{Name: "low", Category: CategoryCode, Priority: 10, Execute: noop})
	reg.MustRegister(&Tool{Name: "high", Category: CategoryCode, Priority: 90, Execute: noop})

	byCat := reg.GetByCategory(CategoryCode)
	require.Len(t, byCat, 2)
	assert.Equal(t, "high", byCat[0].Name)
}

func noop(ctx context.Context, args map[string]any) (string, error) { return "", nil }

func TestExecute_Success(t *testing.T) {
	reg := NewRegistry()
	reg.MustRegister(echoTool())

	env := reg.Execute(context.Background(), "echo", map[string]any{"message": "hello"})
	assert.True(t, env.Success)
	assert.Equal(t, "Echo: hello", env.Output)
}

func TestExecute_MissingRequiredArg(t *testing.T) {
	reg := NewRegistry()
	reg.MustRegister(echoTool())

	env := reg.Execute(context.Background(), "echo", map[string]any{})
	assert.False(t, env.Success)
	assert.Contains(t, env.Error, "message")
}

func TestExecute_UnknownTool(t *testing.T) {
	reg := NewRegistry()
	env := reg.Execute(context.Background(), "nonexistent", map[string]any{})
	assert.False(t, env.Success)
}

func TestExecute_SelfCorrectDetected(t *testing.T) {
	reg := NewRegistry()
	reg.MustRegister(&Tool{
		Name: "flaky",
		Execute: func(ctx context.Context, args map[string]any) (string, error) {
			return "", &SelfCorrectError{Message: "try again", OriginalTool: "flaky", SuggestedFallbacks: []string{"view_file"}}
		},
	})

	env := reg.Execute(context.Background(), "flaky", map[string]any{})
	sc, ok := env.IsSelfCorrect()
	require.True(t, ok)
	assert.Equal(t, "flaky", sc.OriginalTool)
}

func TestExecute_PanicRecovered(t *testing.T) {
	reg := NewRegistry()
	reg.MustRegister(&Tool{
		Name: "panics",
		Execute: func(ctx context.Context, args map[string]any) (string, error) {
			panic("boom")
		},
	})

	env := reg.Execute(context.Background(), "panics", map[string]any{})
	assert.False(t, env.Success)
	assert.Contains(t, env.Error, "panic")
}

func TestExecuteBatch_BoundedParallelismAndOrder(t *testing.T) {
	reg := NewRegistry()
	reg.MaxConcurrentTools = 2

	reg.MustRegister(&Tool{
		Name: "slow",
		Execute: func(ctx context.Context, args map[string]any) (string, error) {
			time.Sleep(20 * time.Millisecond)
			return "slow", nil
		},
	})
	reg.MustRegister(&Tool{Name: "fast", Execute: func(ctx context.Context, args map[string]any) (string, error) { return "fast", nil }})

	calls := []BatchCall{
		{ID: "1", Name: "slow"},
		{ID: "2", Name: "fast"},
		{ID: "3", Name: "fast"},
	}

	start := time.Now()
	results := reg.ExecuteBatch(context.Background(), calls)
	elapsed := time.Since(start)

	require.Len(t, results, 3)
	assert.Equal(t, "1", results[0].Call.ID)
	assert.Equal(t, "2", results[1].Call.ID)
	assert.Equal(t, "3", results[2].Call.ID)
	assert.Less(t, elapsed, 200*time.Millisecond)
}

func TestMetrics_AggregatesAcrossCalls(t *testing.T) {
	reg := NewRegistry()
	reg.MustRegister(echoTool())

	reg.Execute(context.Background(), "echo", map[string]any{"message": "a"})
	reg.Execute(context.Background(), "echo", map[string]any{})

	agg := reg.Metrics().Aggregate()
	assert.Equal(t, 2, agg.TotalOperations)
	assert.Equal(t, 1, agg.SuccessCount)
}
