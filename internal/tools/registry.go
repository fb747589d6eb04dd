package tools

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"grok-cli/internal/logging"
)

// Registry holds all available tools and provides lookup and bounded-parallel
// dispatch. Thread-safe; tools may be registered at runtime.
type Registry struct {
	mu    sync.RWMutex
	tools map[string]*Tool

	byCategory map[ToolCategory][]*Tool

	metrics *Metrics

	// MaxConcurrentTools bounds the size of one dispatched batch (spec §4.2).
	MaxConcurrentTools int

	// ParallelToolCalls disables batch concurrency when false: all calls in
	// a batch, whatever the tool, then run sequentially.
	ParallelToolCalls bool
}

// NewRegistry creates a new empty tool registry with spec-default concurrency.
func NewRegistry() *Registry {
	return &Registry{
		tools:              make(map[string]*Tool),
		byCategory:         make(map[ToolCategory][]*Tool),
		metrics:            NewMetrics(),
		MaxConcurrentTools: 3,
		ParallelToolCalls:  true,
	}
}

// Metrics returns the registry's metrics collector.
func (r *Registry) Metrics() *Metrics { return r.metrics }

// Register adds a tool to the registry. Returns an error on duplicate name.
func (r *Registry) Register(tool *Tool) error {
	if err := tool.Validate(); err != nil {
		return fmt.Errorf("invalid tool: %w", err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.tools[tool.Name]; exists {
		return fmt.Errorf("%w: %s", ErrDuplicateTool, tool.Name)
	}

	if tool.Priority == 0 {
		tool.Priority = 50
	}

	r.tools[tool.Name] = tool
	r.byCategory[tool.Category] = append(r.byCategory[tool.Category], tool)

	logging.ToolsDebug("Registered tool: %s (category=%s, priority=%d)", tool.Name, tool.Category, tool.Priority)
	return nil
}

// MustRegister registers a tool and panics on error. Used for static
// registration at process init time.
func (r *Registry) MustRegister(tool *Tool) {
	if err := r.Register(tool); err != nil {
		panic(fmt.Sprintf("failed to register tool %s: %v", tool.Name, err))
	}
}

// Get returns a tool by name, or nil if not found.
func (r *Registry) Get(name string) *Tool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.tools[name]
}

// Has returns true if a tool is registered under the given name.
func (r *Registry) Has(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.tools[name]
	return ok
}

// GetByCategory returns tools in a category, sorted by descending priority.
func (r *Registry) GetByCategory(category ToolCategory) []*Tool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*Tool, len(r.byCategory[category]))
	copy(out, r.byCategory[category])
	sort.Slice(out, func(i, j int) bool { return out[i].Priority > out[j].Priority })
	return out
}

// All returns every registered tool.
func (r *Registry) All() []*Tool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*Tool, 0, len(r.tools))
	for _, t := range r.tools {
		out = append(out, t)
	}
	return out
}

// Names returns all registered tool names, sorted.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, 0, len(r.tools))
	for name := range r.tools {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// Count returns the number of registered tools.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.tools)
}

// fillDefaults applies the schema's declared defaults for any property
// missing from args (spec §4.2 step 2, "lenient: missing defaults filled").
func fillDefaults(tool *Tool, args map[string]any) map[string]any {
	out := make(map[string]any, len(args))
	for k, v := range args {
		out[k] = v
	}
	for name, prop := range tool.Schema.Properties {
		if _, present := out[name]; !present && prop.Default != nil {
			out[name] = prop.Default
		}
	}
	return out
}

func validateArgs(tool *Tool, args map[string]any) error {
	for _, required := range tool.Schema.Required {
		if _, ok := args[required]; !ok {
			return fmt.Errorf("%w: %s", ErrRequiredArgMissing, required)
		}
	}
	return nil
}

// Execute looks up a tool by name and runs it, returning the spec §3
// result envelope. Step 1 of spec §4.2: unknown tool is a plain failure,
// never a panic.
func (r *Registry) Execute(ctx context.Context, name string, args map[string]any) *Envelope {
	tool := r.Get(name)
	if tool == nil {
		return &Envelope{Success: false, Error: fmt.Sprintf("unknown tool: %s", name)}
	}
	return r.ExecuteTool(ctx, tool, args)
}

// ExecuteTool runs one tool call through validation, execution, and metrics,
// converting panics and errors into a result Envelope (spec §4.2 steps 2-6).
func (r *Registry) ExecuteTool(ctx context.Context, tool *Tool, args map[string]any) (env *Envelope) {
	start := time.Now()
	args = fillDefaults(tool, args)

	defer func() {
		if rec := recover(); rec != nil {
			env = &Envelope{Success: false, Error: fmt.Sprintf("panic in tool %s: %v", tool.Name, rec)}
		}
		r.metrics.Record(MetricRecord{
			Tool:      tool.Name,
			StartTime: start,
			EndTime:   time.Now(),
			LatencyMs: time.Since(start).Milliseconds(),
			Success:   env != nil && env.Success,
			Error:     errString(env),
		})
	}()

	if err := validateArgs(tool, args); err != nil {
		return &Envelope{Success: false, Error: err.Error()}
	}

	logging.ToolsDebug("Executing tool: %s", tool.Name)
	output, err := tool.Execute(ctx, args)
	if err != nil {
		if sc, ok := err.(*SelfCorrectError); ok {
			return NewSelfCorrectEnvelope(sc)
		}
		return NewErrorEnvelope(err)
	}
	return NewSuccessEnvelope(output, nil)
}

func errString(env *Envelope) string {
	if env == nil {
		return ""
	}
	return env.Error
}

// BatchCall pairs a tool invocation request with the slot it should land in
// when results are reassembled (spec §5: "results appended ... in
// deterministic order matching the LLM-emitted tool-call order").
type BatchCall struct {
	ID   string
	Name string
	Args map[string]any
}

// BatchResult pairs a completed call with its envelope.
type BatchResult struct {
	Call   BatchCall
	Result *Envelope
}

// ExecuteBatch runs a set of tool calls with bounded parallelism (default
// MaxConcurrentTools=3). All calls in the batch complete before the batch
// returns; completion order inside the batch is unspecified, but results
// are returned in the same order as calls (spec §4.2/§5).
func (r *Registry) ExecuteBatch(ctx context.Context, calls []BatchCall) []BatchResult {
	results := make([]BatchResult, len(calls))

	limit := r.MaxConcurrentTools
	if limit <= 0 {
		limit = 1
	}
	if !r.ParallelToolCalls {
		limit = 1
	}

	sem := make(chan struct{}, limit)
	var wg sync.WaitGroup

	for i, call := range calls {
		wg.Add(1)
		go func(i int, call BatchCall) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			env := r.Execute(ctx, call.Name, call.Args)
			results[i] = BatchResult{Call: call, Result: env}
		}(i, call)
	}

	wg.Wait()
	return results
}
