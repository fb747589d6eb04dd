package core

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"grok-cli/internal/engine"
	"grok-cli/internal/multifile"
	"grok-cli/internal/refactor"
)

type fakeRefactorEngine struct {
	crossRefs map[string]*engine.CrossReference
	symbols   map[string][]engine.Symbol
}

func (f *fakeRefactorEngine) FindSymbol(name string) []engine.SymbolReference { return nil }

func (f *fakeRefactorEngine) FindReferences(name string) (*engine.CrossReference, bool) {
	ref, ok := f.crossRefs[name]
	return ref, ok
}

func (f *fakeRefactorEngine) GetDependents(file string) []string   { return nil }
func (f *fakeRefactorEngine) GetDependencies(file string) []string { return nil }

func (f *fakeRefactorEngine) GetFileSymbols(file string) []engine.Symbol {
	return f.symbols[file]
}

func (f *fakeRefactorEngine) AnalyzeImpact(file, symbol string) engine.ImpactAnalysis {
	return engine.ImpactAnalysis{}
}

func writeTestFile(t *testing.T, root, rel, content string) {
	t.Helper()
	abs := filepath.Join(root, rel)
	require.NoError(t, os.MkdirAll(filepath.Dir(abs), 0755))
	require.NoError(t, os.WriteFile(abs, []byte(content), 0644))
}

func TestRefactoringAssistantTool_RenameAppliesAcrossFile(t *testing.T) {
	root := t.TempDir()
	writeTestFile(t, root, "src/math.js", "function add(a, b) {\n  return a + b;\n}\nconsole.log(add(1, 2));\n")

	eng := &fakeRefactorEngine{
		crossRefs: map[string]*engine.CrossReference{
			"add": {
				SymbolName: "add",
				Definition: engine.DefinitionSite{File: "src/math.js"},
				References: []engine.ReferenceSite{
					{File: "src/math.js", Usage: engine.SymbolUsage{Line: 3, Column: 12, Tag: engine.UsageCall}},
				},
			},
		},
	}
	files := refactor.DiskFiles{Root: root}
	editor := multifile.New(root)

	tool := RefactoringAssistantTool(eng, files, editor)
	out, err := tool.Execute(context.Background(), map[string]any{
		"operation":  "rename",
		"symbolName": "add",
		"newName":    "sum",
		"scope":      "project",
	})
	require.NoError(t, err)
	assert.Contains(t, out, "\"type\":\"rename\"")

	updated, readErr := os.ReadFile(filepath.Join(root, "src/math.js"))
	require.NoError(t, readErr)
	assert.Contains(t, string(updated), "console.log(sum(1, 2));")
}

func TestRefactoringAssistantTool_UnknownOperationSelfCorrects(t *testing.T) {
	root := t.TempDir()
	eng := &fakeRefactorEngine{}
	files := refactor.DiskFiles{Root: root}
	editor := multifile.New(root)

	tool := RefactoringAssistantTool(eng, files, editor)
	_, err := tool.Execute(context.Background(), map[string]any{"operation": "teleport"})
	require.Error(t, err)
}

func TestMultiFileEditTool_AppliesCreateOperation(t *testing.T) {
	root := t.TempDir()
	editor := multifile.New(root)
	tool := MultiFileEditTool(editor)

	out, err := tool.Execute(context.Background(), map[string]any{
		"operations": []any{
			map[string]any{"type": "create", "filePath": "notes.txt", "content": "hello"},
		},
	})
	require.NoError(t, err)
	assert.Contains(t, out, "\"Success\":true")

	data, readErr := os.ReadFile(filepath.Join(root, "notes.txt"))
	require.NoError(t, readErr)
	assert.Equal(t, "hello", string(data))
}

func TestMultiFileEditTool_RejectsEmptyOperations(t *testing.T) {
	editor := multifile.New(t.TempDir())
	tool := MultiFileEditTool(editor)

	_, err := tool.Execute(context.Background(), map[string]any{"operations": []any{}})
	require.Error(t, err)
}
