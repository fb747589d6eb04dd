package engine

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func writeFile(t *testing.T, root, rel, content string) {
	t.Helper()
	abs := filepath.Join(root, rel)
	require.NoError(t, os.MkdirAll(filepath.Dir(abs), 0755))
	require.NoError(t, os.WriteFile(abs, []byte(content), 0644))
}

func newTestEngine(t *testing.T, root string) *Engine {
	t.Helper()
	e := New(Options{Root: root, DisableWatcher: true})
	require.NoError(t, e.Initialize(context.Background()))
	return e
}

func TestInitialize_IndexesMatchingFiles(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "src/math.js", "function add(a, b) {\n  return a + b;\n}\n")
	writeFile(t, root, "node_modules/dep/index.js", "function ignored() {}\n")
	writeFile(t, root, "README.md", "not indexed")

	e := newTestEngine(t, root)

	assert.True(t, e.IsReady())
	stats := e.GetStatistics()
	assert.Equal(t, 1, stats.FileCount)
	assert.Equal(t, 1, stats.LanguageCounts["javascript"])
}

func TestFindSymbol_FindsFunctionDeclaration(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "src/math.js", "function add(a, b) {\n  return a + b;\n}\n")

	e := newTestEngine(t, root)

	refs := e.FindSymbol("add")
	require.Len(t, refs, 1)
	assert.Equal(t, KindFunction, refs[0].Symbol.Kind)
	assert.Equal(t, "src/math.js", refs[0].File)
}

func TestFindSymbolByPattern_CaseInsensitiveByDefault(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "src/a.js", "function DoThing() {}\n")

	e := newTestEngine(t, root)

	refs, err := e.FindSymbolByPattern("^dothing$", false)
	require.NoError(t, err)
	assert.Len(t, refs, 1)

	refs, err = e.FindSymbolByPattern("^dothing$", true)
	require.NoError(t, err)
	assert.Len(t, refs, 0)
}

func TestDependencyGraph_ResolvesRelativeImports(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "src/util.js", "export function helper() {}\n")
	writeFile(t, root, "src/main.js", "import { helper } from './util';\nhelper();\n")

	e := newTestEngine(t, root)

	deps := e.GetDependencies("src/main.js")
	assert.Contains(t, deps, "src/util.js")

	dependents := e.GetDependents("src/util.js")
	assert.Contains(t, dependents, "src/main.js")
}

func TestGetFileSymbols_ReturnsClassAndMethods(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "src/widget.js", "class Widget {\n  render() {\n    return 1;\n  }\n}\n")

	e := newTestEngine(t, root)

	symbols := e.GetFileSymbols("src/widget.js")
	var names []string
	for _, s := range symbols {
		names = append(names, s.Name)
	}
	assert.Contains(t, names, "Widget")
	assert.Contains(t, names, "render")
}

func TestAnalyzeImpact_FileOnly_IncludesDirectDependents(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "src/util.js", "export function helper() {}\n")
	writeFile(t, root, "src/main.js", "import { helper } from './util';\n")

	e := newTestEngine(t, root)

	impact := e.AnalyzeImpact("src/util.js", "")
	assert.ElementsMatch(t, []string{"src/util.js", "src/main.js"}, impact.AffectedFiles)
	assert.Equal(t, RiskLow, impact.Risk)
}

func TestAnalyzeImpact_DetectsCycleAndRaisesRisk(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "src/a.js", "import './b';\n")
	writeFile(t, root, "src/b.js", "import './a';\n")

	e := newTestEngine(t, root)

	impact := e.AnalyzeImpact("src/a.js", "")
	assert.NotEmpty(t, impact.Cycles)
	assert.Equal(t, RiskHigh, impact.Risk)
}

func TestAnalyzeImpact_HighRiskWhenManyFilesAffected(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "src/shared.js", "export function shared() {}\n")
	for i := 0; i < 12; i++ {
		writeFile(t, root, dependentFilePath(i), "import { shared } from './shared';\n")
	}

	e := newTestEngine(t, root)

	impact := e.AnalyzeImpact("src/shared.js", "")
	assert.Equal(t, RiskHigh, impact.Risk)
}

func dependentFilePath(i int) string {
	return filepath.ToSlash(filepath.Join("src", "f"+string(rune('a'+i))+".js"))
}

func TestGetParseErrors_EmptyWhenNoFailures(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "src/clean.js", "function ok() {}\n")

	e := newTestEngine(t, root)

	assert.Empty(t, e.GetParseErrors(""))
}

func TestHandleWatchEvent_SkipsReparseWhenHashUnchanged(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "src/a.js", "function one() {}\n")

	e := newTestEngine(t, root)
	before, _ := e.GetFileMetadata("src/a.js")

	e.handleWatchEvent("src/a.js", filepath.Join(root, "src/a.js"))

	after, _ := e.GetFileMetadata("src/a.js")
	assert.Equal(t, before.ContentHash, after.ContentHash)
}

func TestHandleWatchEvent_ReindexesOnChange(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "src/a.js", "function one() {}\n")

	e := newTestEngine(t, root)
	require.Len(t, e.FindSymbol("one"), 1)

	writeFile(t, root, "src/a.js", "function two() {}\n")
	e.handleWatchEvent("src/a.js", filepath.Join(root, "src/a.js"))

	assert.Empty(t, e.FindSymbol("one"))
	assert.Len(t, e.FindSymbol("two"), 1)
}

func TestHandleWatchEvent_RemovesFileOnDelete(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "src/a.js", "function one() {}\n")

	e := newTestEngine(t, root)
	require.Len(t, e.FindSymbol("one"), 1)

	require.NoError(t, os.Remove(filepath.Join(root, "src/a.js")))
	e.handleWatchEvent("src/a.js", filepath.Join(root, "src/a.js"))

	assert.Empty(t, e.FindSymbol("one"))
	_, ok := e.GetFileMetadata("src/a.js")
	assert.False(t, ok)
}
