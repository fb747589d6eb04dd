package core

import (
	"context"
	"encoding/json"
	"fmt"

	"grok-cli/internal/logging"
	"grok-cli/internal/planner"
	"grok-cli/internal/tools"
)

// TaskPlannerTool returns a tool that runs the Task Planning Subsystem's
// analyze -> plan -> validate chain as a single call, for a request the
// LLM wants turned into a reviewable plan rather than executed directly.
// This is distinct from the Agent Core's own plan-preview path: it exists
// so a tool-calling model can explicitly ask for a plan mid-conversation.
func TaskPlannerTool(eng planner.Engine) *tools.Tool {
	return &tools.Tool{
		Name:        "task_planner",
		Description: "Analyze a request and produce a validated, risk-scored multi-step task plan",
		Category:    tools.CategoryPlan,
		Priority:    50,
		Schema: tools.ToolSchema{
			Required: []string{"request"},
			Properties: map[string]tools.Property{
				"request": {Type: "string", Description: "The natural-language request to plan for"},
			},
		},
		Execute: func(ctx context.Context, args map[string]any) (string, error) {
			return executeTaskPlanner(eng, args)
		},
	}
}

func executeTaskPlanner(eng planner.Engine, args map[string]any) (string, error) {
	request, _ := args["request"].(string)
	if request == "" {
		return "", fmt.Errorf("request is required")
	}

	logging.ToolsDebug("task_planner: request=%s", request)

	analysis := planner.Analyze(eng, request)
	plan := planner.Plan(analysis)
	validation := planner.Validate(plan, planner.DefaultValidationOptions())
	score, risk, stepRisks := planner.AssessPlan(plan)

	out := struct {
		Plan       *planner.TaskPlan           `json:"plan"`
		Validation planner.ValidationResult    `json:"validation"`
		RiskScore  int                         `json:"riskScore"`
		RiskLevel  planner.RiskLevel           `json:"riskLevel"`
		StepRisks  []planner.StepRiskScore     `json:"stepRisks"`
	}{
		Plan:       plan,
		Validation: validation,
		RiskScore:  score,
		RiskLevel:  risk,
		StepRisks:  stepRisks,
	}

	data, err := json.Marshal(out)
	if err != nil {
		return "", fmt.Errorf("failed to marshal plan: %w", err)
	}
	return string(data), nil
}
