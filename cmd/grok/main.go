// Package main implements the grok-cli CLI entry point: flag parsing,
// subsystem wiring, and the interactive/one-shot run loops. See
// cmd_run.go for the conversation loop and cmd_plan.go for plan
// confirmation.
package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"grok-cli/internal/config"
	"grok-cli/internal/logging"
)

var (
	verbose     bool
	workspace   string
	model       string
	temperature float64
	maxTokens   int
	prompt      string

	logger *zap.Logger
)

var rootCmd = &cobra.Command{
	Use:   "grok",
	Short: "grok-cli - an interactive terminal coding agent",
	Long: `grok-cli indexes a project's source tree, plans and executes
multi-step coding tasks, and drives a streaming conversation with an
LLM-backed tool-calling agent.

Run without arguments to start the interactive conversation.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		zapCfg := zap.NewProductionConfig()
		if verbose {
			zapCfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
		}
		var err error
		logger, err = zapCfg.Build()
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}

		root := workspace
		if root == "" {
			root, _ = os.Getwd()
		}
		if err := logging.Initialize(root); err != nil {
			fmt.Fprintf(os.Stderr, "warning: failed to initialize file logging: %v\n", err)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
		logging.CloseAll()
	},
	RunE: runRoot,
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose console logging")
	rootCmd.PersistentFlags().StringVarP(&workspace, "workspace", "w", "", "Project directory (default: current)")
	rootCmd.PersistentFlags().StringVar(&model, "model", "", "Override the configured model")
	rootCmd.PersistentFlags().Float64Var(&temperature, "temperature", 0, "Override the configured sampling temperature")
	rootCmd.PersistentFlags().IntVar(&maxTokens, "max-tokens", 0, "Override the configured max output tokens")
	rootCmd.PersistentFlags().StringVar(&prompt, "prompt", "", "Run a single request non-interactively and exit")
}

func runRoot(cmd *cobra.Command, args []string) error {
	root := workspace
	if root == "" {
		root, _ = os.Getwd()
	} else if abs, err := filepath.Abs(root); err == nil {
		root = abs
	}

	// .env is optional local-dev convenience; GROK_* values it sets are
	// still overridden by real environment variables, since godotenv
	// never replaces a variable that's already set.
	if err := godotenv.Load(filepath.Join(root, ".env")); err != nil && !os.IsNotExist(err) {
		fmt.Fprintf(os.Stderr, "warning: failed to load .env: %v\n", err)
	}

	cfg, err := config.Load(root)
	if err != nil {
		return fmt.Errorf("loading configuration: %w", err)
	}
	applyFlagOverrides(cfg)

	session, err := newSession(cmd.Context(), root, cfg)
	if err != nil {
		return fmt.Errorf("initializing grok-cli: %w", err)
	}
	defer session.Close()

	if prompt != "" {
		return runOneShot(cmd.Context(), session, prompt)
	}
	return runInteractive(cmd.Context(), session)
}

func applyFlagOverrides(cfg *config.Config) {
	if model != "" {
		cfg.LLM.Model = model
	}
	if temperature != 0 {
		cfg.LLM.Temperature = temperature
	}
	if maxTokens != 0 {
		cfg.LLM.MaxTokens = maxTokens
	}
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
