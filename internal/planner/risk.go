package planner

import "fmt"

// toolBaseRisk is the illustrative per-tool baseline from spec §4.6.
var toolBaseRisk = map[string]int{
	"multi_file_edit":       40,
	"bash":                  50,
	"refactoring_assistant": 30,
	"code_aware_editor":     20,
	"str_replace_editor":    15,
	"code_context":          5,
	"code_analysis":         5,
	"dependency_analyzer":   5,
	"symbol_search":         5,
	"advanced_search":       5,
}

// operationTypeRisk is the illustrative per-step-type baseline.
var operationTypeRisk = map[StepType]int{
	StepDelete:   50,
	StepMove:     30,
	StepRefactor: 25,
	StepCreate:   10,
	StepAnalyze:  0,
	StepValidate: 0,
	StepTest:     0,
	StepDocument: 0,
}

// StepRiskScore is the Risk Assessor's per-step output.
type StepRiskScore struct {
	StepID      string
	Score       int
	Level       RiskLevel
	Mitigations []string
}

// AssessStep scores one step per spec §4.6's formula: toolBaseRisk +
// operationTypeRisk + a bonus when it depends on more than 5 other steps.
func AssessStep(step TaskStep) StepRiskScore {
	score := toolBaseRisk[step.Tool] + operationTypeRisk[step.Type]
	if len(step.Dependencies) > 5 {
		score += 10
	}
	level := levelForScore(score)
	return StepRiskScore{
		StepID:      step.ID,
		Score:       score,
		Level:       level,
		Mitigations: mitigationsFor(step, level),
	}
}

// AssessPlan scores every step and averages the scores for a plan-level
// score and level, per spec §4.6.
func AssessPlan(plan *TaskPlan) (int, RiskLevel, []StepRiskScore) {
	if len(plan.Steps) == 0 {
		return 0, RiskLow, nil
	}
	scores := make([]StepRiskScore, len(plan.Steps))
	total := 0
	for i, s := range plan.Steps {
		scores[i] = AssessStep(s)
		total += scores[i].Score
	}
	avg := total / len(plan.Steps)
	return avg, levelForScore(avg), scores
}

func levelForScore(score int) RiskLevel {
	switch {
	case score >= 70:
		return RiskCritical
	case score >= 50:
		return RiskHigh
	case score >= 30:
		return RiskMedium
	default:
		return RiskLow
	}
}

func mitigationsFor(step TaskStep, level RiskLevel) []string {
	var out []string
	switch step.Type {
	case StepDelete:
		out = append(out, "Create backup before proceeding")
	case StepMove, StepRefactor:
		out = append(out, "Use transaction support")
	}
	if step.Tool == "multi_file_edit" || step.Tool == "bash" {
		out = append(out, fmt.Sprintf("Review the %s call's arguments before confirming", step.Tool))
	}
	if level == RiskCritical || level == RiskHigh {
		out = append(out, "Request explicit user confirmation before this step runs")
	}
	return out
}
