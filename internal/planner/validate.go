package planner

import "fmt"

// ValidationOptions configures the thresholds Validate checks against.
type ValidationOptions struct {
	MaxSteps             int
	MaxDurationMs        int64
	AllowRiskyOperations bool
}

// DefaultValidationOptions mirrors spec §4.6's defaults.
func DefaultValidationOptions() ValidationOptions {
	return ValidationOptions{MaxSteps: 50, MaxDurationMs: 5 * 60 * 1000}
}

// ValidationResult is the outcome of validating a TaskPlan.
type ValidationResult struct {
	Valid                bool
	Errors               []string
	Warnings             []string
	EstimatedSuccessRate int
}

// Validate checks structural and risk constraints on a plan and scores
// its estimatedSuccessRate, per spec §4.6's Planner validation.
func Validate(plan *TaskPlan, opts ValidationOptions) ValidationResult {
	var errs, warnings []string

	if opts.MaxSteps == 0 {
		opts.MaxSteps = 50
	}
	if opts.MaxDurationMs == 0 {
		opts.MaxDurationMs = 5 * 60 * 1000
	}

	if len(plan.Steps) > opts.MaxSteps {
		errs = append(errs, fmt.Sprintf("plan has %d steps, exceeding the maximum of %d", len(plan.Steps), opts.MaxSteps))
	}
	if plan.OverallRiskLevel == RiskCritical && !opts.AllowRiskyOperations {
		errs = append(errs, "plan carries critical risk and allowRiskyOperations is not set")
	}
	if cyc := findCircularStepDependency(plan.Steps); cyc != nil {
		errs = append(errs, fmt.Sprintf("circular step dependency detected: %v", cyc))
	}
	errs = append(errs, missingStepDependencies(plan.Steps)...)

	if plan.TotalEstimatedDurationMs > opts.MaxDurationMs {
		warnings = append(warnings, fmt.Sprintf("estimated duration %dms exceeds the %dms budget", plan.TotalEstimatedDurationMs, opts.MaxDurationMs))
	}
	if plan.OverallRiskLevel == RiskHigh {
		warnings = append(warnings, "plan carries high risk")
	}
	if len(plan.Steps) > 10 {
		warnings = append(warnings, "plan has more than 10 steps; consider splitting it")
	}

	rate := 100
	rate -= 20 * len(errs)
	rate -= 5 * len(warnings)
	switch plan.OverallRiskLevel {
	case RiskCritical:
		rate -= 30
	case RiskHigh:
		rate -= 15
	case RiskMedium:
		rate -= 5
	}
	if rate < 0 {
		rate = 0
	}
	if rate > 100 {
		rate = 100
	}

	return ValidationResult{
		Valid:                len(errs) == 0,
		Errors:               errs,
		Warnings:             warnings,
		EstimatedSuccessRate: rate,
	}
}

// findCircularStepDependency runs a DFS over the step dependency graph and
// returns the first cycle found, as a slice of step ids, or nil.
func findCircularStepDependency(steps []TaskStep) []string {
	byID := make(map[string]TaskStep, len(steps))
	for _, s := range steps {
		byID[s.ID] = s
	}

	const (
		white = 0
		gray  = 1
		black = 2
	)
	color := make(map[string]int, len(steps))
	var path []string
	var cycle []string

	var visit func(id string) bool
	visit = func(id string) bool {
		color[id] = gray
		path = append(path, id)
		for _, dep := range byID[id].Dependencies {
			if _, ok := byID[dep]; !ok {
				continue
			}
			switch color[dep] {
			case gray:
				cycle = append(append([]string{}, path...), dep)
				return true
			case white:
				if visit(dep) {
					return true
				}
			}
		}
		path = path[:len(path)-1]
		color[id] = black
		return false
	}

	for _, s := range steps {
		if color[s.ID] == white {
			if visit(s.ID) {
				return cycle
			}
		}
	}
	return nil
}

func missingStepDependencies(steps []TaskStep) []string {
	byID := make(map[string]bool, len(steps))
	for _, s := range steps {
		byID[s.ID] = true
	}
	var errs []string
	for _, s := range steps {
		for _, dep := range s.Dependencies {
			if !byID[dep] {
				errs = append(errs, fmt.Sprintf("step %s depends on unknown step %s", s.ID, dep))
			}
		}
	}
	return errs
}
