// Package config loads the grok-cli settings layered from defaults, the
// user's home-directory settings, the project's settings, and GROK_* env
// vars (later layers win), mirroring the teacher's DefaultConfig/env-override
// pattern with JSON in place of YAML.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// LLMConfig controls the provider client.
type LLMConfig struct {
	APIKey         string        `json:"apiKey,omitempty"`
	BaseURL        string        `json:"baseUrl,omitempty"`
	Model          string        `json:"model,omitempty"`
	Temperature    float64       `json:"temperature,omitempty"`
	MaxTokens      int           `json:"maxTokens,omitempty"`
	Timeout        time.Duration `json:"-"`
	TimeoutMs      int64         `json:"timeoutMs,omitempty"`
	StreamTimeout  time.Duration `json:"-"`
	StreamTimeoutMs int64        `json:"streamTimeoutMs,omitempty"`
}

// ExecutionConfig controls tool-dispatch concurrency and correction bounds.
type ExecutionConfig struct {
	MaxConcurrentTools   int  `json:"maxConcurrentTools,omitempty"`
	ParallelToolCalls    bool `json:"parallelToolCalls"`
	MaxCorrectionAttempts int `json:"maxCorrectionAttempts,omitempty"`
}

// LoggingConfig mirrors the block internal/logging reads directly; kept
// here too so a single settings.json round-trips the whole tree.
type LoggingConfig struct {
	DebugMode  bool            `json:"debugMode"`
	Categories map[string]bool `json:"categories,omitempty"`
	Level      string          `json:"level,omitempty"`
	JSONFormat bool            `json:"jsonFormat,omitempty"`
}

// MCPServerConfig describes one entry in settings.json's mcpServers block
// (spec.md §6): either a stdio-launched server (Command/Args/Env) or an
// already-running one reachable over URL.
type MCPServerConfig struct {
	Command string            `json:"command,omitempty" yaml:"command,omitempty"`
	Args    []string          `json:"args,omitempty" yaml:"args,omitempty"`
	Env     map[string]string `json:"env,omitempty" yaml:"env,omitempty"`
	URL     string            `json:"url,omitempty" yaml:"url,omitempty"`
}

// Config is the fully resolved settings tree for one process.
type Config struct {
	LLM       LLMConfig       `json:"llm"`
	Execution ExecutionConfig `json:"execution"`
	Logging   LoggingConfig   `json:"logging"`

	// MCPServers is merged separately from mergeMCPServers, not by the
	// struct tag below, since the settings file's mcpServers value may be
	// a plain JSON object or a quoted embedded YAML fragment.
	MCPServers map[string]MCPServerConfig `json:"-"`
}

// DefaultConfig returns the built-in defaults, the base layer beneath any
// settings file or environment override.
func DefaultConfig() *Config {
	return &Config{
		LLM: LLMConfig{
			BaseURL:         "https://api.x.ai/v1",
			Model:           "grok-4",
			Temperature:     0.7,
			MaxTokens:       4096,
			Timeout:         6 * time.Minute,
			StreamTimeout:   time.Hour,
			TimeoutMs:       360000,
			StreamTimeoutMs: 3600000,
		},
		Execution: ExecutionConfig{
			MaxConcurrentTools:    3,
			ParallelToolCalls:     true,
			MaxCorrectionAttempts: 3,
		},
		Logging: LoggingConfig{
			DebugMode: false,
			Level:     "info",
		},
	}
}

// Load resolves config in precedence order: defaults < user settings
// (~/.grok/user-settings.json) < project settings (<root>/.grok/settings.json)
// < GROK_* environment variables.
func Load(projectRoot string) (*Config, error) {
	cfg := DefaultConfig()

	if home, err := os.UserHomeDir(); err == nil {
		if err := mergeFile(cfg, filepath.Join(home, ".grok", "user-settings.json")); err != nil {
			return nil, fmt.Errorf("loading user settings: %w", err)
		}
	}

	if err := mergeFile(cfg, filepath.Join(projectRoot, ".grok", "settings.json")); err != nil {
		return nil, fmt.Errorf("loading project settings: %w", err)
	}

	applyEnvOverrides(cfg)
	syncDurations(cfg)

	return cfg, nil
}

// mergeFile unmarshals a settings file on top of cfg in place. A missing
// file is not an error; any other read or parse failure is.
func mergeFile(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	if err := json.Unmarshal(data, cfg); err != nil {
		return err
	}
	return mergeMCPServers(cfg, data)
}

// mergeMCPServers layers the settings file's mcpServers block onto
// cfg.MCPServers by server name (later files win per name, matching the
// rest of Load's precedence). The block is accepted two ways: the common
// case, a plain JSON object; or a single string holding an embedded YAML
// fragment, for parity with MCP config files the ecosystem already writes
// in YAML. Since YAML is a JSON superset, yaml.Unmarshal handles both
// without a separate JSON code path.
func mergeMCPServers(cfg *Config, data []byte) error {
	var envelope struct {
		MCPServers json.RawMessage `json:"mcpServers"`
	}
	if err := json.Unmarshal(data, &envelope); err != nil || len(envelope.MCPServers) == 0 {
		return nil
	}

	raw := envelope.MCPServers
	var fragment string
	if err := json.Unmarshal(raw, &fragment); err == nil {
		raw = []byte(fragment)
	}

	servers := make(map[string]MCPServerConfig)
	if err := yaml.Unmarshal(raw, &servers); err != nil {
		return fmt.Errorf("parsing mcpServers block: %w", err)
	}

	if cfg.MCPServers == nil {
		cfg.MCPServers = make(map[string]MCPServerConfig, len(servers))
	}
	for name, sc := range servers {
		cfg.MCPServers[name] = sc
	}
	return nil
}

// applyEnvOverrides layers GROK_* environment variables on top of whatever
// defaults/files have already populated cfg, matching the teacher's
// highest-precedence-wins env override convention.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("GROK_API_KEY"); v != "" {
		cfg.LLM.APIKey = v
	}
	if v := os.Getenv("GROK_BASE_URL"); v != "" {
		cfg.LLM.BaseURL = v
	}
	if v := os.Getenv("GROK_MODEL"); v != "" {
		cfg.LLM.Model = v
	}
	if v := os.Getenv("GROK_TIMEOUT"); v != "" {
		if ms, err := strconv.ParseInt(v, 10, 64); err == nil {
			cfg.LLM.TimeoutMs = ms
		}
	}
	if v := os.Getenv("GROK_STREAM_TIMEOUT"); v != "" {
		if ms, err := strconv.ParseInt(v, 10, 64); err == nil {
			cfg.LLM.StreamTimeoutMs = ms
		}
	}
	if v := os.Getenv("GROK_TEMPERATURE"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			cfg.LLM.Temperature = f
		}
	}
	if v := os.Getenv("GROK_MAX_TOKENS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.LLM.MaxTokens = n
		}
	}
}

// syncDurations derives the time.Duration fields from their millisecond
// JSON counterparts after all layers have been applied.
func syncDurations(cfg *Config) {
	cfg.LLM.Timeout = time.Duration(cfg.LLM.TimeoutMs) * time.Millisecond
	cfg.LLM.StreamTimeout = time.Duration(cfg.LLM.StreamTimeoutMs) * time.Millisecond
}
