package core

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"grok-cli/internal/engine"
)

func newIndexedEngine(t *testing.T, files map[string]string) *engine.Engine {
	t.Helper()
	root := t.TempDir()
	for rel, content := range files {
		abs := filepath.Join(root, rel)
		require.NoError(t, os.MkdirAll(filepath.Dir(abs), 0755))
		require.NoError(t, os.WriteFile(abs, []byte(content), 0644))
	}
	e := engine.New(engine.Options{Root: root, DisableWatcher: true})
	require.NoError(t, e.Initialize(context.Background()))
	return e
}

func TestCodeContextTool_SummarizesIndexedFile(t *testing.T) {
	e := newIndexedEngine(t, map[string]string{
		"src/math.js": "function add(a, b) {\n  return a + b;\n}\n",
	})
	tool := CodeContextTool(e)

	out, err := tool.Execute(context.Background(), map[string]any{"file": "src/math.js"})
	require.NoError(t, err)
	assert.Contains(t, out, "add")
	assert.Contains(t, out, "javascript")
}

func TestCodeContextTool_SelfCorrectsOnUnindexedFile(t *testing.T) {
	e := newIndexedEngine(t, map[string]string{"src/math.js": "function add() {}\n"})
	tool := CodeContextTool(e)

	_, err := tool.Execute(context.Background(), map[string]any{"file": "src/missing.js"})
	require.Error(t, err)
}

func TestSymbolSearchTool_FindsExactName(t *testing.T) {
	e := newIndexedEngine(t, map[string]string{"src/a.js": "function doThing() {}\n"})
	tool := SymbolSearchTool(e)

	out, err := tool.Execute(context.Background(), map[string]any{"query": "doThing"})
	require.NoError(t, err)
	assert.Contains(t, out, "doThing")
}

func TestSymbolSearchTool_SelfCorrectsWhenNothingMatches(t *testing.T) {
	e := newIndexedEngine(t, map[string]string{"src/a.js": "function doThing() {}\n"})
	tool := SymbolSearchTool(e)

	_, err := tool.Execute(context.Background(), map[string]any{"query": "neverDefined"})
	require.Error(t, err)
}

func TestDependencyAnalyzerTool_ReportsRisk(t *testing.T) {
	e := newIndexedEngine(t, map[string]string{
		"src/a.js": "import './b';\nfunction fromA() {}\n",
		"src/b.js": "function fromB() {}\n",
	})
	tool := DependencyAnalyzerTool(e)

	out, err := tool.Execute(context.Background(), map[string]any{"file": "src/b.js"})
	require.NoError(t, err)
	assert.Contains(t, out, "\"risk\"")
}

func TestCodeAnalysisTool_ReportsSymbolsAndMetadata(t *testing.T) {
	e := newIndexedEngine(t, map[string]string{"src/a.js": "function doThing() {}\n"})
	tool := CodeAnalysisTool(e)

	out, err := tool.Execute(context.Background(), map[string]any{"file": "src/a.js"})
	require.NoError(t, err)
	assert.Contains(t, out, "doThing")
	assert.Contains(t, out, "\"indexed\":true")
}

func TestAdvancedSearchTool_FiltersByKind(t *testing.T) {
	e := newIndexedEngine(t, map[string]string{
		"src/a.js": "function doThing() {}\nconst doOther = 1;\n",
	})
	tool := AdvancedSearchTool(e)

	out, err := tool.Execute(context.Background(), map[string]any{"pattern": "^do", "kind": "function"})
	require.NoError(t, err)
	assert.Contains(t, out, "doThing")
	assert.NotContains(t, out, "doOther")
}
