package planner

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/google/uuid"
)

// durationByStepType is the fixed duration table behind each synthesized
// step's estimatedDurationMs, per spec §4.6.
var durationByStepType = map[StepType]int64{
	StepAnalyze:  3000,
	StepRefactor: 8000,
	StepMove:     5000,
	StepCreate:   4000,
	StepDelete:   2000,
	StepTest:     10000,
	StepValidate: 4000,
	StepDocument: 3000,
}

// riskByStepType is the fixed risk table paired with durationByStepType.
var riskByStepType = map[StepType]RiskLevel{
	StepAnalyze:  RiskLow,
	StepRefactor: RiskMedium,
	StepMove:     RiskMedium,
	StepCreate:   RiskLow,
	StepDelete:   RiskHigh,
	StepTest:     RiskLow,
	StepValidate: RiskLow,
	StepDocument: RiskLow,
}

var httpEndpointKeywordRe = regexp.MustCompile(`(?i)\b(endpoint|route|api)\b`)
var httpPathRe = regexp.MustCompile(`/[\w-]+(?:/(?:[\w-]+|:[\w-]+))+`)
var httpVerbRe = regexp.MustCompile(`(?i)\b(GET|POST|PUT|PATCH|DELETE)\b`)

type stepBuilder struct {
	steps []TaskStep
}

func (b *stepBuilder) add(typ StepType, description, tool string, args map[string]any, deps ...string) string {
	id := fmt.Sprintf("step-%d", len(b.steps)+1)
	b.steps = append(b.steps, TaskStep{
		ID:                  id,
		Type:                typ,
		Description:         description,
		Tool:                tool,
		Args:                args,
		Dependencies:        deps,
		EstimatedDurationMs: durationByStepType[typ],
		RiskLevel:           riskByStepType[typ],
		Status:              StepPending,
	})
	return id
}

// Plan synthesizes a TaskPlan from an analysis, per spec §4.6's Planner.
// Step 1 is always an analyze step (skipped if no files were found);
// intent-specific middle steps follow; a final validate step depends on
// every prior step.
func Plan(analysis TaskAnalysis) *TaskPlan {
	b := &stepBuilder{}

	var analyzeID string
	scoped := analysis.Files
	if len(scoped) > 10 {
		scoped = scoped[:10]
	}
	if len(scoped) > 0 {
		analyzeID = b.add(StepAnalyze, "gather context for affected files", "code_context",
			map[string]any{"files": scoped})
	}

	middleIDs := buildMiddleSteps(b, analysis, analyzeID)

	allPriorIDs := middleIDs
	if analyzeID != "" {
		allPriorIDs = append([]string{analyzeID}, middleIDs...)
	}
	b.add(StepValidate, "validate the resulting dependency graph", "dependency_analyzer",
		map[string]any{"files": analysis.Files}, allPriorIDs...)

	plan := &TaskPlan{
		ID:         "plan-" + uuid.NewString(),
		UserIntent: analysis.UserRequest,
		Description: fmt.Sprintf("%s across %d file(s)", analysis.Intent, len(analysis.Files)),
		Steps:      b.steps,
		Status:     PlanDraft,
		Metadata: PlanMetadata{
			FilesAffected:        analysis.Files,
			ToolsUsed:            analysis.RequiredTools,
			DependenciesAnalyzed: len(analysis.Files),
			RisksAssessed:        len(analysis.Risks),
		},
	}

	var total int64
	risk := RiskLow
	for _, s := range plan.Steps {
		total += s.EstimatedDurationMs
		risk = worstRisk(risk, s.RiskLevel)
	}
	plan.TotalEstimatedDurationMs = total
	plan.OverallRiskLevel = risk
	return plan
}

// buildMiddleSteps dispatches to the intent-specific expansion and
// returns the ids of every step it added, so the final validate step can
// depend on all of them.
func buildMiddleSteps(b *stepBuilder, analysis TaskAnalysis, analyzeID string) []string {
	depOn := func() []string {
		if analyzeID == "" {
			return nil
		}
		return []string{analyzeID}
	}

	switch analysis.Intent {
	case "refactor":
		dep := b.add(StepAnalyze, "analyze dependency impact", "dependency_analyzer",
			map[string]any{"files": analysis.Files}, depOn()...)
		ref := b.add(StepRefactor, "apply refactoring", "refactoring_assistant",
			map[string]any{"files": analysis.Files}, dep)
		edit := b.add(StepRefactor, "update imports across affected files", "multi_file_edit",
			map[string]any{"files": analysis.Files}, ref)
		return []string{dep, ref, edit}

	case "move":
		var ids []string
		for _, sym := range analysis.Symbols {
			id := b.add(StepMove, fmt.Sprintf("move %s", sym), "refactoring_assistant",
				map[string]any{"operation": "move", "symbol": sym}, depOn()...)
			ids = append(ids, id)
		}
		if len(ids) == 0 {
			ids = append(ids, b.add(StepMove, "move symbol", "refactoring_assistant",
				map[string]any{"operation": "move"}, depOn()...))
		}
		return ids

	case "extract":
		id := b.add(StepRefactor, "extract function from selection", "refactoring_assistant",
			map[string]any{"operation": "extract_function", "files": analysis.Files}, depOn()...)
		return []string{id}

	case "rename":
		id := b.add(StepRefactor, "rename symbol across scope", "refactoring_assistant",
			map[string]any{"operation": "rename", "symbols": analysis.Symbols}, depOn()...)
		return []string{id}

	case "create":
		id := b.add(StepCreate, "insert new code", "code_analysis",
			map[string]any{"operation": "smart_insert", "files": analysis.Files}, depOn()...)
		return []string{id}

	case "remove":
		id := b.add(StepDelete, "delete targeted files or code", "multi_file_edit",
			map[string]any{"operation": "delete", "files": analysis.Files}, depOn()...)
		return []string{id}

	case "implement":
		if isHTTPEndpointRequest(analysis.UserRequest) {
			return buildHTTPEndpointSteps(b, analysis, depOn())
		}
		id := b.add(StepCreate, "generate implementation", "code_analysis",
			map[string]any{"files": analysis.Files}, depOn()...)
		return []string{id}

	default:
		id := b.add(StepRefactor, "apply requested text change", "str_replace_editor",
			map[string]any{"files": analysis.Files}, depOn()...)
		return []string{id}
	}
}

func isHTTPEndpointRequest(request string) bool {
	if httpEndpointKeywordRe.MatchString(request) {
		return true
	}
	return httpPathRe.MatchString(request) && httpVerbRe.MatchString(request)
}

// buildHTTPEndpointSteps implements the specialized implement/generate
// expansion for an HTTP endpoint request: router, controller, service,
// then an import-update step, chained linearly per spec §4.6.
func buildHTTPEndpointSteps(b *stepBuilder, analysis TaskAnalysis, depOn []string) []string {
	path := httpPathRe.FindString(analysis.UserRequest)
	verb := strings.ToLower(httpVerbRe.FindString(analysis.UserRequest))
	resource := resourceFromPath(path)

	controllerName := verb + strings.Title(resource)
	if strings.Contains(path, ":") {
		controllerName += "ById"
	}

	route := b.add(StepCreate, fmt.Sprintf("add %s route for %s", strings.ToUpper(verb), path), "code_analysis",
		map[string]any{"operation": "smart_insert", "target": "router", "path": path, "verb": verb}, depOn...)
	controller := b.add(StepCreate, fmt.Sprintf("add controller function %s", controllerName), "code_analysis",
		map[string]any{"operation": "smart_insert", "target": "controller", "name": controllerName}, route)
	service := b.add(StepCreate, fmt.Sprintf("add service method for %s", resource), "code_analysis",
		map[string]any{"operation": "smart_insert", "target": "service", "resource": resource}, controller)
	imports := b.add(StepRefactor, "update imports for new handler chain", "multi_file_edit",
		map[string]any{"operation": "update_imports"}, service)

	return []string{route, controller, service, imports}
}

func resourceFromPath(path string) string {
	parts := strings.Split(strings.Trim(path, "/"), "/")
	for _, p := range parts {
		if !strings.HasPrefix(p, ":") && p != "" {
			return p
		}
	}
	return "resource"
}
