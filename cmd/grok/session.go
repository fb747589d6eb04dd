package main

import (
	"context"
	"fmt"
	"path/filepath"

	"grok-cli/internal/agent"
	"grok-cli/internal/config"
	"grok-cli/internal/engine"
	"grok-cli/internal/history"
	"grok-cli/internal/llm"
	"grok-cli/internal/multifile"
	"grok-cli/internal/tools"
	"grok-cli/internal/tools/core"
	"grok-cli/internal/tools/shell"
)

// session bundles the per-run subsystems wired together at startup:
// the code intelligence engine, the tool registry, the operation
// ledger, and the agent itself.
type session struct {
	root      string
	cfg       *config.Config
	eng       *engine.Engine
	editor    *multifile.Editor
	registry  *tools.Registry
	ledger    *history.Store
	llmClient *llm.Client
	agent     *agent.Agent
}

// newSession initializes every collaborator described in SPEC_FULL.md's
// startup sequence: index the workspace, wire the tool registry, open
// the operation ledger, and build the streaming LLM client and Agent
// Core. A failure at any step is fatal (spec §6: non-zero exit code).
func newSession(ctx context.Context, root string, cfg *config.Config) (*session, error) {
	eng := engine.New(engine.Options{Root: root})
	if err := eng.Initialize(ctx); err != nil {
		return nil, fmt.Errorf("indexing workspace: %w", err)
	}

	editor := multifile.New(root)

	registry := tools.NewRegistry()
	registry.MaxConcurrentTools = cfg.Execution.MaxConcurrentTools
	registry.ParallelToolCalls = cfg.Execution.ParallelToolCalls
	if err := core.RegisterAll(registry, &core.Dependencies{Engine: eng, Editor: editor, Root: root}); err != nil {
		return nil, fmt.Errorf("registering tools: %w", err)
	}
	registry.MustRegister(shell.BashTool())

	ledger, err := history.NewStore(grokDir(root))
	if err != nil {
		return nil, fmt.Errorf("opening operation history: %w", err)
	}

	llmClient, err := llm.NewClient(llm.Config{
		APIKey:             cfg.LLM.APIKey,
		BaseURL:            cfg.LLM.BaseURL,
		Model:              cfg.LLM.Model,
		Temperature:        float32(cfg.LLM.Temperature),
		MaxTokens:          cfg.LLM.MaxTokens,
		HTTPTimeoutSeconds: int(cfg.LLM.Timeout.Seconds()),
	})
	if err != nil {
		ledger.Close()
		return nil, fmt.Errorf("configuring LLM client: %w", err)
	}

	agentOpts := agent.DefaultOptions()
	if cfg.Execution.MaxCorrectionAttempts > 0 {
		agentOpts.MaxCorrectionAttempts = cfg.Execution.MaxCorrectionAttempts
	}
	agentOpts.History = ledger

	a := agent.New(llmClient, registry, eng, agentOpts)

	return &session{
		root:      root,
		cfg:       cfg,
		eng:       eng,
		editor:    editor,
		registry:  registry,
		ledger:    ledger,
		llmClient: llmClient,
		agent:     a,
	}, nil
}

// Close releases the session's open resources.
func (s *session) Close() {
	s.eng.Stop()
	if s.ledger != nil {
		s.ledger.Close()
	}
}

func grokDir(root string) string {
	return filepath.Join(root, ".grok")
}
