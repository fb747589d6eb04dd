package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig_HasSaneDefaults(t *testing.T) {
	cfg := DefaultConfig()
	assert.Equal(t, "https://api.x.ai/v1", cfg.LLM.BaseURL)
	assert.Equal(t, 3, cfg.Execution.MaxConcurrentTools)
	assert.True(t, cfg.Execution.ParallelToolCalls)
	assert.Equal(t, 3, cfg.Execution.MaxCorrectionAttempts)
}

func TestLoad_NoFilesReturnsDefaults(t *testing.T) {
	root := t.TempDir()
	t.Setenv("HOME", t.TempDir())

	cfg, err := Load(root)
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig().LLM.Model, cfg.LLM.Model)
}

func TestLoad_ProjectSettingsOverrideDefaults(t *testing.T) {
	root := t.TempDir()
	t.Setenv("HOME", t.TempDir())

	grokDir := filepath.Join(root, ".grok")
	require.NoError(t, os.MkdirAll(grokDir, 0755))
	require.NoError(t, os.WriteFile(filepath.Join(grokDir, "settings.json"),
		[]byte(`{"llm":{"model":"grok-4-fast","temperature":0.2}}`), 0644))

	cfg, err := Load(root)
	require.NoError(t, err)
	assert.Equal(t, "grok-4-fast", cfg.LLM.Model)
	assert.Equal(t, 0.2, cfg.LLM.Temperature)
}

func TestLoad_ProjectSettingsOverrideUserSettings(t *testing.T) {
	root := t.TempDir()
	home := t.TempDir()
	t.Setenv("HOME", home)

	userGrok := filepath.Join(home, ".grok")
	require.NoError(t, os.MkdirAll(userGrok, 0755))
	require.NoError(t, os.WriteFile(filepath.Join(userGrok, "user-settings.json"),
		[]byte(`{"llm":{"model":"user-model"}}`), 0644))

	projGrok := filepath.Join(root, ".grok")
	require.NoError(t, os.MkdirAll(projGrok, 0755))
	require.NoError(t, os.WriteFile(filepath.Join(projGrok, "settings.json"),
		[]byte(`{"llm":{"model":"project-model"}}`), 0644))

	cfg, err := Load(root)
	require.NoError(t, err)
	assert.Equal(t, "project-model", cfg.LLM.Model)
}

func TestLoad_MalformedSettingsFileErrors(t *testing.T) {
	root := t.TempDir()
	t.Setenv("HOME", t.TempDir())

	grokDir := filepath.Join(root, ".grok")
	require.NoError(t, os.MkdirAll(grokDir, 0755))
	require.NoError(t, os.WriteFile(filepath.Join(grokDir, "settings.json"), []byte("{not json"), 0644))

	_, err := Load(root)
	assert.Error(t, err)
}

func TestLoad_MCPServersFromJSONObject(t *testing.T) {
	root := t.TempDir()
	t.Setenv("HOME", t.TempDir())

	grokDir := filepath.Join(root, ".grok")
	require.NoError(t, os.MkdirAll(grokDir, 0755))
	require.NoError(t, os.WriteFile(filepath.Join(grokDir, "settings.json"), []byte(`{
		"mcpServers": {
			"docs": {"command": "mcp-docs-server", "args": ["--port", "4000"]}
		}
	}`), 0644))

	cfg, err := Load(root)
	require.NoError(t, err)
	require.Contains(t, cfg.MCPServers, "docs")
	assert.Equal(t, "mcp-docs-server", cfg.MCPServers["docs"].Command)
	assert.Equal(t, []string{"--port", "4000"}, cfg.MCPServers["docs"].Args)
}

func TestLoad_MCPServersFromEmbeddedYAMLFragment(t *testing.T) {
	root := t.TempDir()
	t.Setenv("HOME", t.TempDir())

	grokDir := filepath.Join(root, ".grok")
	require.NoError(t, os.MkdirAll(grokDir, 0755))
	fragment := "docs:\n  url: http://localhost:4000/mcp\n"
	data, err := json.Marshal(map[string]any{"mcpServers": fragment})
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(grokDir, "settings.json"), data, 0644))

	cfg, err := Load(root)
	require.NoError(t, err)
	require.Contains(t, cfg.MCPServers, "docs")
	assert.Equal(t, "http://localhost:4000/mcp", cfg.MCPServers["docs"].URL)
}

func TestLoad_SyncsDurationsFromMillis(t *testing.T) {
	root := t.TempDir()
	t.Setenv("HOME", t.TempDir())

	cfg, err := Load(root)
	require.NoError(t, err)
	assert.Equal(t, cfg.LLM.TimeoutMs, cfg.LLM.Timeout.Milliseconds())
}
