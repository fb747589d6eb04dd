package agent

import (
	"context"
	"encoding/json"
	"sort"

	"grok-cli/internal/llm"
	"grok-cli/internal/tools"
)

// streamOnce invokes the LLM once with the running conversation and tool
// catalog, forwarding content deltas as events and assembling tool-call
// deltas (which may interleave by index) into complete calls. It returns
// once the provider signals the stream is done.
func (a *Agent) streamOnce(ctx context.Context, out chan<- Event) (string, []ToolCall, error) {
	var content string
	pending := make(map[int]*partialCall)
	var order []int

	events := a.llm.Stream(ctx, a.conv.messages, buildToolDefinitions(a.registry))
	for ev := range events {
		switch ev.Type {
		case llm.EventContent:
			content += ev.ContentDelta
			out <- Event{Type: EventContent, ContentDelta: ev.ContentDelta}
		case llm.EventToolCallDelta:
			d := ev.ToolCallDelta
			pc, seen := pending[d.Index]
			if !seen {
				pc = &partialCall{}
				pending[d.Index] = pc
				order = append(order, d.Index)
			}
			if d.ID != "" {
				pc.id = d.ID
			}
			if d.Name != "" {
				pc.name = d.Name
			}
			pc.args += d.ArgumentsDelta
		case llm.EventError:
			return content, nil, ev.Err
		case llm.EventDone:
			// fall through to assembly below
		}
	}

	sort.Ints(order)
	calls := make([]ToolCall, 0, len(order))
	for _, idx := range order {
		pc := pending[idx]
		var args map[string]any
		_ = json.Unmarshal([]byte(pc.args), &args)
		calls = append(calls, ToolCall{ID: pc.id, Name: pc.name, Args: args})
		out <- Event{Type: EventToolCall, ToolCall: &ToolCall{ID: pc.id, Name: pc.name, Args: args}}
	}
	return content, calls, nil
}

type partialCall struct {
	id   string
	name string
	args string
}

// buildToolDefinitions converts the registry's tool schemas into the
// provider-agnostic function-calling shape llm.Client.Stream expects.
func buildToolDefinitions(registry *tools.Registry) []llm.ToolDefinition {
	all := registry.All()
	defs := make([]llm.ToolDefinition, len(all))
	for i, t := range all {
		props := make(map[string]any, len(t.Schema.Properties))
		for name, p := range t.Schema.Properties {
			prop := map[string]any{"type": p.Type, "description": p.Description}
			if len(p.Enum) > 0 {
				prop["enum"] = p.Enum
			}
			if p.Items != nil {
				prop["items"] = map[string]any{"type": p.Items.Type}
			}
			if p.Default != nil {
				prop["default"] = p.Default
			}
			props[name] = prop
		}
		defs[i] = llm.ToolDefinition{
			Name:        t.Name,
			Description: t.Description,
			Parameters: map[string]any{
				"type":       "object",
				"properties": props,
				"required":   t.Schema.Required,
			},
		}
	}
	return defs
}
