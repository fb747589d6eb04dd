package refactor

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"grok-cli/internal/engine"
)

type fakeEngine struct {
	refs         map[string]*engine.CrossReference
	dependencies map[string][]string
}

func (f *fakeEngine) FindSymbol(name string) []engine.SymbolReference { return nil }

func (f *fakeEngine) FindReferences(name string) (*engine.CrossReference, bool) {
	r, ok := f.refs[name]
	return r, ok
}

func (f *fakeEngine) GetDependents(file string) []string   { return nil }
func (f *fakeEngine) GetDependencies(file string) []string { return f.dependencies[file] }
func (f *fakeEngine) GetFileSymbols(file string) []engine.Symbol { return nil }
func (f *fakeEngine) AnalyzeImpact(file, symbol string) engine.ImpactAnalysis {
	return engine.ImpactAnalysis{}
}

type fakeLines struct {
	byFile map[string][]string
}

func (f fakeLines) Lines(path string) ([]string, error) {
	return f.byFile[path], nil
}

func TestRename_RejectsInvalidIdentifier(t *testing.T) {
	eng := &fakeEngine{}
	_, err := Rename(eng, fakeLines{}, RenameRequest{SymbolName: "foo", NewName: "1bad"})
	assert.Error(t, err)
}

func TestRename_FiltersCommentsAndStrings(t *testing.T) {
	eng := &fakeEngine{
		refs: map[string]*engine.CrossReference{
			"foo": {
				SymbolName: "foo",
				References: []engine.ReferenceSite{
					{File: "a.js", Usage: engine.SymbolUsage{Line: 0, Column: 9, Tag: engine.UsageCall}},
					{File: "a.js", Usage: engine.SymbolUsage{Line: 1, Column: 3, Tag: engine.UsageReference}},
					{File: "a.js", Usage: engine.SymbolUsage{Line: 2, Column: 13, Tag: engine.UsageReference}},
				},
			},
		},
	}
	lines := fakeLines{byFile: map[string][]string{
		"a.js": {
			"const x = foo();",
			"// calls foo here",
			"const s = \"foo\";",
		},
	}}

	op, err := Rename(eng, lines, RenameRequest{SymbolName: "foo", NewName: "bar", Scope: ScopeProject})
	require.NoError(t, err)
	require.Len(t, op.Files, 1)
	assert.Len(t, op.Files[0].Changes, 1, "comment and string occurrences should be filtered by default")
	assert.Equal(t, 0, op.Files[0].Changes[0].StartLine)
}

func TestRename_HighRiskWhenManyOccurrences(t *testing.T) {
	var sites []engine.ReferenceSite
	lines := map[string][]string{}
	for i := 0; i < 25; i++ {
		file := "f.js"
		sites = append(sites, engine.ReferenceSite{File: file, Usage: engine.SymbolUsage{Line: 0, Column: 0}})
	}
	lines["f.js"] = []string{"foo foo foo"}

	eng := &fakeEngine{refs: map[string]*engine.CrossReference{"foo": {SymbolName: "foo", References: sites}}}
	op, err := Rename(eng, fakeLines{byFile: lines}, RenameRequest{SymbolName: "foo", NewName: "bar", Scope: ScopeProject, IncludeStrings: true})
	require.NoError(t, err)
	assert.Equal(t, RiskHigh, op.Safety.Risk)
}

func TestExtractFunction_ReplacesSelectionAndInsertsFunction(t *testing.T) {
	lines := []string{
		"function caller() {",
		"  const total = a + b;",
		"  return total;",
		"}",
	}
	op := ExtractFunction(map[string]bool{}, ExtractFunctionRequest{
		FilePath: "f.js", Lines: lines, StartLine: 1, EndLine: 2, FunctionName: "computeTotal",
	})
	require.Len(t, op.Files, 1)
	assert.Len(t, op.Files[0].Changes, 2)
	assert.Contains(t, op.Files[0].Changes[1].NewText, "function computeTotal")
}

func TestExtractFunction_InfersReturnTypeFromLocalIntegerLiteral(t *testing.T) {
	lines := []string{
		"function caller() {",
		"  const count = 3;",
		"  return count;",
		"}",
	}
	op := ExtractFunction(map[string]bool{}, ExtractFunctionRequest{
		FilePath: "f.js", Lines: lines, StartLine: 1, EndLine: 2, FunctionName: "getCount",
	})
	require.Len(t, op.Files, 1)
	assert.Contains(t, op.Files[0].Changes[1].NewText, "function getCount(): number")
	assert.Contains(t, op.Preview, "return type number")

	var confidence float64
	_, err := fmt.Sscanf(op.Preview, "confidence %f", &confidence)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, confidence, 0.7)
}

func TestExtractFunction_ExternalReferenceNotParameterized(t *testing.T) {
	lines := []string{
		"function caller() {",
		"  return helperFromFile();",
		"}",
	}
	op := ExtractFunction(map[string]bool{"helperFromFile": true}, ExtractFunctionRequest{
		FilePath: "f.js", Lines: lines, StartLine: 1, EndLine: 1, FunctionName: "wrapper",
	})
	assert.NotEmpty(t, op.Safety.Warnings)
}

func TestExtractVariable_InsertsDeclarationAboveSelection(t *testing.T) {
	lines := []string{"  doSomething(a + b);"}
	op := ExtractVariable(ExtractVariableRequest{
		FilePath: "f.js", Lines: lines, SelectionLine: 0, Expression: "a + b", VariableName: "sum",
	})
	require.Len(t, op.Files[0].Changes, 2)
	assert.Equal(t, "  const sum = a + b;", op.Files[0].Changes[0].NewText)
	assert.Equal(t, "sum", op.Files[0].Changes[1].NewText)
}

func TestMove_ComputesRelativeImportPath(t *testing.T) {
	eng := &fakeEngine{
		refs: map[string]*engine.CrossReference{
			"helper": {
				SymbolName: "helper",
				References: []engine.ReferenceSite{
					{File: "src/app/main.js", Usage: engine.SymbolUsage{Tag: engine.UsageImport}},
				},
			},
		},
	}

	op, err := Move(eng, MoveRequest{
		SymbolName: "helper", Kind: MoveFunction,
		SourceFile: "src/util/helper.js", TargetFile: "src/lib/helper.js",
		Span: "function helper() {}", SpanStart: 0, SpanEnd: 0,
	})
	require.NoError(t, err)
	assert.Equal(t, RiskLow, op.Safety.Risk)

	var importerChange *TextChange
	for _, f := range op.Files {
		if f.FilePath == "src/app/main.js" {
			importerChange = &f.Changes[0]
		}
	}
	require.NotNil(t, importerChange)
	assert.Equal(t, "../lib/helper", importerChange.NewText)
}

func TestInline_SubstitutesArgumentsAtCallSite(t *testing.T) {
	op := Inline(InlineRequest{
		FunctionName: "add", Params: []string{"a", "b"}, Body: "return a + b;",
		DefFile: "f.js", DefStart: 0, DefEnd: 2,
	}, []CallSite{
		{File: "f.js", Line: 5, Text: "const total = add(x, y);"},
	})

	assert.Equal(t, RiskHigh, op.Safety.Risk)
	require.Len(t, op.Files, 2)
	assert.Contains(t, op.Files[0].Changes[0].NewText, "return x + y;")
}

func TestIsGlobalIdentifier_RecognizesCommonGlobals(t *testing.T) {
	assert.True(t, isGlobalIdentifier("console"))
	assert.True(t, isGlobalIdentifier("Math"))
	assert.False(t, isGlobalIdentifier("myCustomThing"))
}
