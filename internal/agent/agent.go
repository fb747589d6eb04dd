package agent

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"

	"grok-cli/internal/llm"
	"grok-cli/internal/logging"
	"grok-cli/internal/planner"
	"grok-cli/internal/tools"
)

// Streamer is the subset of llm.Client's API the Agent needs; a seam for
// tests to substitute a fake streaming provider.
type Streamer interface {
	Stream(ctx context.Context, messages []llm.Message, tools []llm.ToolDefinition) <-chan llm.StreamEvent
}

// Agent drives one conversation's worth of turns against an LLM client and
// a tool registry, per spec §4.7.
type Agent struct {
	llm      Streamer
	registry *tools.Registry
	engine   planner.Engine // may be nil; the Analyzer degrades gracefully
	opts     Options
	conv     conversation
}

// New builds an Agent. eng may be nil if no Code Intelligence Engine is
// available yet (the Analyzer then skips symbol-dependent scope expansion).
func New(llmClient Streamer, registry *tools.Registry, eng planner.Engine, opts Options) *Agent {
	if opts.MaxToolRounds == 0 {
		opts.MaxToolRounds = 25
	}
	if opts.MaxCorrectionAttempts == 0 {
		opts.MaxCorrectionAttempts = 3
	}
	a := &Agent{llm: llmClient, registry: registry, engine: eng, opts: opts}
	if opts.SystemPrompt != "" {
		a.conv.append(llm.Message{Role: llm.RoleSystem, Content: opts.SystemPrompt})
	}
	return a
}

// Run processes one user turn, streaming events until the turn ends. The
// returned channel is closed when the turn is done, errors, or ctx is
// cancelled between suspension points (spec §4.7 Cancellation).
func (a *Agent) Run(ctx context.Context, userMessage string, confirm PlanConfirmer) <-chan Event {
	out := make(chan Event, 32)
	go a.run(ctx, userMessage, confirm, out)
	return out
}

func (a *Agent) run(ctx context.Context, userMessage string, confirm PlanConfirmer, out chan<- Event) {
	defer close(out)

	a.conv.append(llm.Message{Role: llm.RoleUser, Content: userMessage})

	if shouldCreatePlan(userMessage) {
		if a.runPlanPath(ctx, userMessage, confirm, out) {
			return
		}
		// Rejected: fall through to the standard tool loop below.
	}

	requestHash := hashRequest(userMessage)
	correctionAttempts := make(map[string]int)

	for round := 0; round < a.opts.MaxToolRounds; round++ {
		select {
		case <-ctx.Done():
			out <- Event{Type: EventError, Err: ctx.Err()}
			return
		default:
		}

		content, calls, err := a.streamOnce(ctx, out)
		if err != nil {
			out <- Event{Type: EventError, Err: err}
			return
		}
		if content != "" {
			a.conv.append(llm.Message{Role: llm.RoleAssistant, Content: content})
		}
		if len(calls) == 0 {
			out <- Event{Type: EventDone}
			return
		}

		a.conv.append(llm.Message{Role: llm.RoleAssistant, ToolCalls: toLLMToolCalls(calls)})

		results := a.executeBatch(ctx, calls)
		for i, res := range results {
			call := calls[i]
			out <- Event{Type: EventToolResult, ToolResult: &ToolResultEvent{
				ToolCallID: call.ID, ToolName: call.Name,
				Success: res.Result.Success, Output: res.Result.Output, Error: res.Result.Error,
			}}
			a.conv.append(llm.Message{Role: llm.RoleTool, ToolCallID: call.ID, Name: call.Name, Content: toolResultText(res.Result)})

			if res.Result.Success {
				continue
			}
			sc, ok := res.Result.IsSelfCorrect()
			if !ok {
				continue
			}
			if correctionAttempts[requestHash] >= a.opts.MaxCorrectionAttempts {
				out <- Event{Type: EventCorrectionExhausted, Message: fmt.Sprintf(
					"tool %q failed after %d correction attempt(s); giving up on self-correction", call.Name, correctionAttempts[requestHash])}
				out <- Event{Type: EventDone}
				return
			}
			correctionAttempts[requestHash]++
			hint := sc.Hint
			if len(sc.SuggestedFallbacks) > 0 {
				hint += fmt.Sprintf(" Consider instead: %v.", sc.SuggestedFallbacks)
			}
			a.conv.append(llm.Message{Role: llm.RoleUser, Content: hint})
			out <- Event{Type: EventCorrectionAttempt, Message: hint}
		}
	}

	out <- Event{Type: EventError, Err: fmt.Errorf("exceeded maxToolRounds (%d)", a.opts.MaxToolRounds)}
}

// hashRequest returns a stable identifier for correctionAttempts bookkeeping.
func hashRequest(request string) string {
	sum := sha256.Sum256([]byte(request))
	return hex.EncodeToString(sum[:])
}

func toolResultText(env *tools.Envelope) string {
	if env.Success {
		return env.Output
	}
	return env.Error
}

func (a *Agent) executeBatch(ctx context.Context, calls []ToolCall) []tools.BatchResult {
	batch := make([]tools.BatchCall, len(calls))
	for i, c := range calls {
		batch[i] = tools.BatchCall{ID: c.ID, Name: c.Name, Args: c.Args}
	}
	logging.AgentDebug("[agent] dispatching batch of %d tool call(s)", len(batch))
	return a.registry.ExecuteBatch(ctx, batch)
}

func toLLMToolCalls(calls []ToolCall) []llm.ToolCall {
	out := make([]llm.ToolCall, len(calls))
	for i, c := range calls {
		argsJSON, _ := json.Marshal(c.Args)
		out[i] = llm.ToolCall{ID: c.ID, Name: c.Name, Arguments: string(argsJSON)}
	}
	return out
}
