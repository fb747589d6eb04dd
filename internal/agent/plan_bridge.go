package agent

import (
	"context"
	"errors"
	"fmt"

	"grok-cli/internal/planner"
)

// runPlanPath implements spec §4.7 step 2: analyze, plan, preview, and
// either drive the Plan Executor to completion or fall through to the
// standard tool loop on rejection. Returns true if the turn is finished.
func (a *Agent) runPlanPath(ctx context.Context, userMessage string, confirm PlanConfirmer, out chan<- Event) bool {
	analysis := planner.Analyze(a.engine, userMessage)
	plan := planner.Plan(analysis)

	validation := planner.Validate(plan, planner.ValidationOptions{AllowRiskyOperations: a.opts.AllowRiskyOperations})
	if !validation.Valid {
		out <- Event{Type: EventPlanRejected, Plan: plan, Message: fmt.Sprintf("plan failed validation: %v", validation.Errors)}
		return false
	}
	plan.Status = planner.PlanValidated

	out <- Event{Type: EventPlanPreview, Plan: plan, Message: fmt.Sprintf(
		"estimated success rate %d%%, overall risk %s", validation.EstimatedSuccessRate, plan.OverallRiskLevel)}

	if confirm == nil || !confirm(plan) {
		out <- Event{Type: EventPlanRejected, Plan: plan}
		return false
	}
	out <- Event{Type: EventPlanApproved, Plan: plan}

	execOpts := planner.ExecuteOptions{AutoRollbackOnFailure: true, History: a.opts.History}
	for ev := range planner.Execute(ctx, plan, a.planToolExecutor(), execOpts) {
		ev := ev
		out <- Event{Type: EventPlanProgress, Plan: plan, PlanEvent: &ev}
	}

	out <- Event{Type: EventDone, Plan: plan, Message: fmt.Sprintf("plan %s finished with status %s", plan.ID, plan.Status)}
	return true
}

// planToolExecutor adapts the tool registry to the Plan Executor's
// toolExecutor(name, args) callback shape.
func (a *Agent) planToolExecutor() planner.ToolExecutor {
	return func(ctx context.Context, step planner.TaskStep) (planner.ToolResult, error) {
		env := a.registry.Execute(ctx, step.Tool, step.Args)
		if !env.Success {
			return planner.ToolResult{}, errors.New(env.Error)
		}
		return planner.ToolResult{Output: env.Output, FilesModified: filesModifiedFromMetadata(env.Metadata)}, nil
	}
}

func filesModifiedFromMetadata(meta map[string]any) []string {
	raw, ok := meta["filesModified"]
	if !ok {
		return nil
	}
	switch v := raw.(type) {
	case []string:
		return v
	case []any:
		out := make([]string, 0, len(v))
		for _, f := range v {
			if s, ok := f.(string); ok {
				out = append(out, s)
			}
		}
		return out
	default:
		return nil
	}
}
