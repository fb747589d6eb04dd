package planner

import (
	"context"
	"fmt"
	"os"
	"time"
)

// EventType tags entries on the Plan Executor's event stream.
type EventType string

const (
	EventProgress   EventType = "progress"
	EventStepDone   EventType = "step_completed"
	EventStepFailed EventType = "step_failed"
	EventRolledBack EventType = "rolled_back"
	EventCompleted  EventType = "completed"
	EventFailed     EventType = "failed"
)

// Event is one entry on the executor's typed event stream.
type Event struct {
	Type                     EventType
	PlanID                   string
	StepID                   string
	CompletedSteps           int
	TotalSteps               int
	EstimatedTimeRemainingMs int64
	Message                  string
	Err                      error
}

// ToolResult is the shape the Plan Executor expects back from a
// toolExecutor call: enough to parse which files a step touched.
type ToolResult struct {
	Output        string
	FilesModified []string
	FilePath      string
	Files         []string
}

func (r ToolResult) modifiedFiles() []string {
	if len(r.FilesModified) > 0 {
		return r.FilesModified
	}
	if r.FilePath != "" {
		return []string{r.FilePath}
	}
	return r.Files
}

// ToolExecutor dispatches one TaskStep's tool call and returns its result.
type ToolExecutor func(ctx context.Context, step TaskStep) (ToolResult, error)

// HistoryEntry is one audit record the Plan Executor hands to the
// operation history store after each completed step, per spec §4.6.
type HistoryEntry struct {
	Type           string
	Description    string
	FilesModified  []string
	SnapshotBundle *RollbackPoint
	Metadata       map[string]any
}

// HistoryRecorder persists completed-step audit records.
type HistoryRecorder interface {
	Record(entry HistoryEntry)
}

// ExecuteOptions configures the Plan Executor.
type ExecuteOptions struct {
	AutoRollbackOnFailure bool
	History               HistoryRecorder
}

// Execute runs plan's steps in dependency order against toolExecutor,
// streaming progress on the returned channel until the plan reaches a
// terminal status. The channel is closed when execution finishes.
func Execute(ctx context.Context, plan *TaskPlan, exec ToolExecutor, opts ExecuteOptions) <-chan Event {
	events := make(chan Event, 16)
	go runPlan(ctx, plan, exec, opts, events)
	return events
}

func runPlan(ctx context.Context, plan *TaskPlan, exec ToolExecutor, opts ExecuteOptions, events chan<- Event) {
	defer close(events)

	now := time.Now()
	plan.Status = PlanExecuting
	plan.StartedAt = &now

	order, err := executionOrder(plan.Steps)
	if err != nil {
		plan.Status = PlanFailed
		events <- Event{Type: EventFailed, PlanID: plan.ID, Message: err.Error(), Err: err}
		return
	}

	var rollbacks []RollbackPoint
	start := time.Now()

	for i, stepID := range order {
		select {
		case <-ctx.Done():
			plan.Status = PlanFailed
			events <- Event{Type: EventFailed, PlanID: plan.ID, Message: "cancelled", Err: ctx.Err()}
			return
		default:
		}

		step := plan.StepByID(stepID)

		elapsed := time.Since(start)
		remaining := int64(0)
		if i > 0 {
			remaining = int64(elapsed) / int64(i) * int64(len(order)-i) / int64(time.Millisecond)
		}
		events <- Event{
			Type: EventProgress, PlanID: plan.ID, StepID: step.ID,
			CompletedSteps: i, TotalSteps: len(order), EstimatedTimeRemainingMs: remaining,
		}

		rp := buildRollbackPoint(step)
		rollbacks = append(rollbacks, rp)

		stepStart := time.Now()
		step.Status = StepRunning
		step.StartTime = &stepStart

		result, runErr := exec(ctx, *step)
		stepEnd := time.Now()
		step.EndTime = &stepEnd

		if runErr != nil {
			step.Status = StepFailed
			step.Error = runErr.Error()
			events <- Event{Type: EventStepFailed, PlanID: plan.ID, StepID: step.ID, Message: runErr.Error(), Err: runErr}

			if opts.AutoRollbackOnFailure {
				rollbackAll(rollbacks)
				markRolledBack(plan, order[:i])
				plan.Status = PlanRolledBack
				events <- Event{Type: EventRolledBack, PlanID: plan.ID, StepID: step.ID}
			} else {
				plan.Status = PlanFailed
				events <- Event{Type: EventFailed, PlanID: plan.ID, StepID: step.ID, Message: runErr.Error(), Err: runErr}
			}
			return
		}

		step.Status = StepCompleted
		step.Result = result.Output

		if opts.History != nil {
			opts.History.Record(HistoryEntry{
				Type:           string(step.Type),
				Description:    step.Description,
				FilesModified:  result.modifiedFiles(),
				SnapshotBundle: &rp,
				Metadata:       step.Args,
			})
		}
		events <- Event{Type: EventStepDone, PlanID: plan.ID, StepID: step.ID, CompletedSteps: i + 1, TotalSteps: len(order)}
	}

	completed := time.Now()
	plan.Status = PlanCompleted
	plan.CompletedAt = &completed
	events <- Event{Type: EventCompleted, PlanID: plan.ID, CompletedSteps: len(order), TotalSteps: len(order)}
}

// executionOrder repeatedly takes steps whose dependencies are all already
// scheduled, per spec §4.6; it fails if no step is runnable, which means a
// cycle or a missing dependency id slipped past validation.
func executionOrder(steps []TaskStep) ([]string, error) {
	done := make(map[string]bool, len(steps))
	var order []string

	for len(order) < len(steps) {
		progressed := false
		for _, s := range steps {
			if done[s.ID] {
				continue
			}
			ready := true
			for _, dep := range s.Dependencies {
				if !done[dep] {
					ready = false
					break
				}
			}
			if ready {
				order = append(order, s.ID)
				done[s.ID] = true
				progressed = true
			}
		}
		if !progressed {
			return nil, fmt.Errorf("no runnable step found; plan has a cycle or a missing dependency")
		}
	}
	return order, nil
}

// buildRollbackPoint snapshots every file this step's args name, scanning
// the fields spec §4.6 names: filePath, files, targetFile, sourceFile.
func buildRollbackPoint(step *TaskStep) RollbackPoint {
	rp := RollbackPoint{
		StepID:        step.ID,
		Timestamp:     time.Now(),
		FileSnapshots: make(map[string]string),
		Metadata:      step.Args,
	}
	for _, path := range filePathsFromArgs(step.Args) {
		content, err := os.ReadFile(path)
		if err != nil {
			continue
		}
		rp.FileSnapshots[path] = string(content)
	}
	return rp
}

func filePathsFromArgs(args map[string]any) []string {
	var out []string
	if args == nil {
		return out
	}
	for _, key := range []string{"filePath", "targetFile", "sourceFile"} {
		if v, ok := args[key].(string); ok && v != "" {
			out = append(out, v)
		}
	}
	if raw, ok := args["files"]; ok {
		switch files := raw.(type) {
		case []string:
			out = append(out, files...)
		case []any:
			for _, f := range files {
				if s, ok := f.(string); ok {
					out = append(out, s)
				}
			}
		}
	}
	return out
}

// markRolledBack flips every already-completed step (those scheduled
// before the failing one) to StepRolledBack, so a plan's per-step status
// reflects rollbackAll's file restoration, not just plan.Status (spec §8
// scenario 3: completed steps become rolled_back, not left completed).
func markRolledBack(plan *TaskPlan, completedStepIDs []string) {
	for _, id := range completedStepIDs {
		if s := plan.StepByID(id); s != nil && s.Status == StepCompleted {
			s.Status = StepRolledBack
		}
	}
}

// rollbackAll restores every rollback point's snapshots in reverse order,
// per spec §4.6's auto-rollback behavior.
func rollbackAll(points []RollbackPoint) {
	for i := len(points) - 1; i >= 0; i-- {
		for path, content := range points[i].FileSnapshots {
			_ = os.WriteFile(path, []byte(content), 0o644)
		}
	}
}
