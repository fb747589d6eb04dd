package main

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"grok-cli/internal/planner"
)

// confirmPlan implements agent.PlanConfirmer: it prints a human-readable
// plan preview and asks the operator for a y/n answer on stdin, per
// SPEC_FULL.md's cmd_plan.go contract.
func confirmPlan(reader *bufio.Reader) func(plan *planner.TaskPlan) bool {
	return func(plan *planner.TaskPlan) bool {
		printPlanPreview(plan)

		fmt.Print("Proceed with this plan? [y/N] ")
		line, err := reader.ReadString('\n')
		if err != nil {
			return false
		}
		answer := strings.ToLower(strings.TrimSpace(line))
		return answer == "y" || answer == "yes"
	}
}

func printPlanPreview(plan *planner.TaskPlan) {
	fmt.Fprintf(os.Stdout, "\nPlan: %s\n", plan.Description)
	fmt.Fprintf(os.Stdout, "Overall risk: %s\n", plan.OverallRiskLevel)
	for i, step := range plan.Steps {
		fmt.Fprintf(os.Stdout, "  %d. [%s] %s (tool=%s, risk=%s)\n", i+1, step.Type, step.Description, step.Tool, step.RiskLevel)
	}
	fmt.Println()
}
