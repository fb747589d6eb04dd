package main

import (
	"bufio"
	"context"
	"fmt"
	"os"

	"grok-cli/internal/agent"
)

// runInteractive implements spec §6's default CLI surface: a REPL that
// reads one line per turn from stdin and streams the Agent Core's
// response back to stdout until EOF or an interrupt.
func runInteractive(ctx context.Context, s *session) error {
	stdin := bufio.NewReader(os.Stdin)
	confirm := confirmPlan(stdin)

	fmt.Println("grok-cli interactive session. Ctrl-D to exit.")
	for {
		fmt.Print("> ")
		line, err := stdin.ReadString('\n')
		if err != nil {
			fmt.Println()
			return nil
		}
		line = trimNewline(line)
		if line == "" {
			continue
		}

		drainEvents(s.agent.Run(ctx, line, confirm))
	}
}

// runOneShot implements the --prompt flag: a single turn, then exit.
func runOneShot(ctx context.Context, s *session, prompt string) error {
	return drainEvents(s.agent.Run(ctx, prompt, confirmPlan(bufio.NewReader(os.Stdin))))
}

// drainEvents renders one turn's event stream to stdout, per spec §6's
// UI event shapes, and returns the turn's terminal error, if any.
func drainEvents(events <-chan agent.Event) error {
	var turnErr error
	for ev := range events {
		switch ev.Type {
		case agent.EventContent:
			fmt.Print(ev.ContentDelta)
		case agent.EventToolCall:
			fmt.Printf("\n[tool] %s\n", ev.ToolCall.Name)
		case agent.EventToolResult:
			if !ev.ToolResult.Success {
				fmt.Printf("[tool error] %s: %s\n", ev.ToolResult.ToolName, ev.ToolResult.Error)
			}
		case agent.EventPlanPreview:
			fmt.Printf("\n[plan] %s\n", ev.Message)
		case agent.EventPlanRejected:
			fmt.Println("[plan rejected]")
		case agent.EventPlanApproved:
			fmt.Println("[plan approved, executing]")
		case agent.EventPlanProgress:
			if ev.PlanEvent != nil {
				fmt.Printf("[plan] %s: %s\n", ev.PlanEvent.StepID, ev.PlanEvent.Type)
			}
		case agent.EventCorrectionAttempt:
			fmt.Printf("[retrying] %s\n", ev.Message)
		case agent.EventCorrectionExhausted:
			fmt.Printf("[gave up] %s\n", ev.Message)
		case agent.EventError:
			turnErr = ev.Err
			fmt.Fprintf(os.Stderr, "error: %v\n", ev.Err)
		case agent.EventDone:
			fmt.Println()
		}
	}
	return turnErr
}

func trimNewline(s string) string {
	for len(s) > 0 && (s[len(s)-1] == '\n' || s[len(s)-1] == '\r') {
		s = s[:len(s)-1]
	}
	return s
}
