package core

import (
	"context"
	"encoding/json"
	"fmt"

	"grok-cli/internal/logging"
	"grok-cli/internal/multifile"
	"grok-cli/internal/refactor"
	"grok-cli/internal/tools"
)

// RefactoringAssistantTool returns a tool that plans one of the spec
// §4.5 refactoring operations and applies it through the Multi-File
// Editor in a single call: the LLM never sees the intermediate
// line/column span plan, only the resulting transaction outcome.
func RefactoringAssistantTool(eng refactor.Engine, files refactor.FileLines, editor *multifile.Editor) *tools.Tool {
	return &tools.Tool{
		Name:        "refactoring_assistant",
		Description: "Plan and apply a rename, move, extract, or inline refactor across the affected files",
		Category:    tools.CategoryRefactor,
		Priority:    55,
		Schema: tools.ToolSchema{
			Required: []string{"operation"},
			Properties: map[string]tools.Property{
				"operation": {
					Type:        "string",
					Description: "Which refactor to perform",
					Enum:        []any{"rename", "move_function", "move_class", "extract_function", "extract_variable", "inline"},
				},
				"symbolName":   {Type: "string", Description: "Symbol being renamed, moved, or inlined"},
				"newName":      {Type: "string", Description: "New identifier name (rename)"},
				"scope":        {Type: "string", Description: "Rename scope: file, project, or global", Default: "project"},
				"scopeFile":    {Type: "string", Description: "File to restrict the rename to, when scope=file"},
				"sourceFile":   {Type: "string", Description: "File the symbol currently lives in (move, extract, inline)"},
				"targetFile":   {Type: "string", Description: "File the symbol moves to (move)"},
				"functionName": {Type: "string", Description: "Name of the new function (extract_function)"},
				"startLine":    {Type: "integer", Description: "0-indexed first line of the selection"},
				"endLine":      {Type: "integer", Description: "0-indexed last line of the selection (inclusive)"},
				"variableName": {Type: "string", Description: "Name of the new variable (extract_variable)"},
				"expression":   {Type: "string", Description: "Expression being lifted into a variable (extract_variable)"},
			},
		},
		Execute: func(ctx context.Context, args map[string]any) (string, error) {
			return executeRefactoringAssistant(eng, files, editor, args)
		},
	}
}

func executeRefactoringAssistant(eng refactor.Engine, files refactor.FileLines, editor *multifile.Editor, args map[string]any) (string, error) {
	operation, _ := args["operation"].(string)

	logging.ToolsDebug("refactoring_assistant: operation=%s", operation)

	var (
		plan *refactor.RefactoringOperation
		err  error
	)
	switch operation {
	case "rename":
		plan, err = planRename(eng, files, args)
	case "move_function", "move_class":
		plan, err = planMove(eng, operation, args)
	case "extract_function":
		plan, err = planExtractFunction(eng, files, args)
	case "extract_variable":
		plan, err = planExtractVariable(files, args)
	case "inline":
		plan, err = planInline(eng, files, args)
	default:
		return "", &tools.SelfCorrectError{
			Message:            fmt.Sprintf("unknown refactoring operation: %q", operation),
			OriginalTool:       "refactoring_assistant",
			SuggestedFallbacks: []string{"task_planner"},
			Hint:               "operation must be one of rename, move_function, move_class, extract_function, extract_variable, inline",
		}
	}
	if err != nil {
		return "", err
	}

	if plan.Safety.Risk == refactor.RiskCritical {
		logging.ToolsLog("refactoring_assistant: %s is critical risk (%v)", plan.Type, plan.Safety.Warnings)
	}

	ops := make([]multifile.Operation, 0, len(plan.Files))
	for _, fc := range plan.Files {
		lines, lerr := files.Lines(fc.FilePath)
		if lerr != nil {
			lines = nil // new file created by this plan (e.g. a move's target)
		}
		ops = append(ops, multifile.Operation{
			Type:     multifile.OpEdit,
			FilePath: fc.FilePath,
			Content:  refactor.ApplyChanges(lines, fc.Changes),
		})
	}

	result := editor.Apply(ops)
	if !result.Success {
		return "", result.Error
	}

	summary := struct {
		Type        string                     `json:"type"`
		Description string                     `json:"description"`
		Risk        refactor.RiskLevel         `json:"risk"`
		Warnings    []string                   `json:"warnings,omitempty"`
		Applied     []multifile.AppliedOperation `json:"applied"`
	}{
		Type:        plan.Type,
		Description: plan.Description,
		Risk:        plan.Safety.Risk,
		Warnings:    plan.Safety.Warnings,
		Applied:     result.Applied,
	}
	out, merr := json.Marshal(summary)
	if merr != nil {
		return "", fmt.Errorf("failed to marshal refactoring result: %w", merr)
	}
	return string(out), nil
}

func planRename(eng refactor.Engine, files refactor.FileLines, args map[string]any) (*refactor.RefactoringOperation, error) {
	symbolName, _ := args["symbolName"].(string)
	newName, _ := args["newName"].(string)
	if symbolName == "" || newName == "" {
		return nil, fmt.Errorf("symbolName and newName are required for rename")
	}
	scope := refactor.ScopeProject
	if s, ok := args["scope"].(string); ok && s != "" {
		scope = refactor.RenameScope(s)
	}
	scopeFile, _ := args["scopeFile"].(string)

	return refactor.Rename(eng, files, refactor.RenameRequest{
		SymbolName:      symbolName,
		NewName:         newName,
		Scope:           scope,
		ScopeFile:       scopeFile,
		IncludeComments: false,
		IncludeStrings:  false,
	})
}

func planMove(eng refactor.Engine, operation string, args map[string]any) (*refactor.RefactoringOperation, error) {
	symbolName, _ := args["symbolName"].(string)
	sourceFile, _ := args["sourceFile"].(string)
	targetFile, _ := args["targetFile"].(string)
	if symbolName == "" || sourceFile == "" || targetFile == "" {
		return nil, fmt.Errorf("symbolName, sourceFile, and targetFile are required for move")
	}
	kind := refactor.MoveFunction
	if operation == "move_class" {
		kind = refactor.MoveClass
	}
	startLine, _ := intArg(args["startLine"])
	endLine, _ := intArg(args["endLine"])
	span, _ := args["span"].(string)

	return refactor.Move(eng, refactor.MoveRequest{
		SymbolName: symbolName,
		Kind:       kind,
		SourceFile: sourceFile,
		TargetFile: targetFile,
		Span:       span,
		SpanStart:  startLine,
		SpanEnd:    endLine,
	})
}

func planExtractFunction(eng refactor.Engine, files refactor.FileLines, args map[string]any) (*refactor.RefactoringOperation, error) {
	sourceFile, _ := args["sourceFile"].(string)
	functionName, _ := args["functionName"].(string)
	if sourceFile == "" || functionName == "" {
		return nil, fmt.Errorf("sourceFile and functionName are required for extract_function")
	}
	startLine, _ := intArg(args["startLine"])
	endLine, _ := intArg(args["endLine"])

	lines, err := files.Lines(sourceFile)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", sourceFile, err)
	}

	fileSymbols := make(map[string]bool)
	for _, sym := range eng.GetFileSymbols(sourceFile) {
		fileSymbols[sym.Name] = true
	}

	return refactor.ExtractFunction(fileSymbols, refactor.ExtractFunctionRequest{
		FilePath:     sourceFile,
		Lines:        lines,
		StartLine:    startLine,
		EndLine:      endLine,
		FunctionName: functionName,
	}), nil
}

func planExtractVariable(files refactor.FileLines, args map[string]any) (*refactor.RefactoringOperation, error) {
	sourceFile, _ := args["sourceFile"].(string)
	variableName, _ := args["variableName"].(string)
	expression, _ := args["expression"].(string)
	if sourceFile == "" || variableName == "" || expression == "" {
		return nil, fmt.Errorf("sourceFile, variableName, and expression are required for extract_variable")
	}
	selectionLine, _ := intArg(args["startLine"])

	lines, err := files.Lines(sourceFile)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", sourceFile, err)
	}

	return refactor.ExtractVariable(refactor.ExtractVariableRequest{
		FilePath:      sourceFile,
		Lines:         lines,
		SelectionLine: selectionLine,
		Expression:    expression,
		VariableName:  variableName,
	}), nil
}

func planInline(eng refactor.Engine, files refactor.FileLines, args map[string]any) (*refactor.RefactoringOperation, error) {
	symbolName, _ := args["symbolName"].(string)
	sourceFile, _ := args["sourceFile"].(string)
	if symbolName == "" || sourceFile == "" {
		return nil, fmt.Errorf("symbolName and sourceFile are required for inline")
	}
	startLine, _ := intArg(args["startLine"])
	endLine, _ := intArg(args["endLine"])

	lines, err := files.Lines(sourceFile)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", sourceFile, err)
	}
	body := ""
	if startLine >= 0 && endLine < len(lines) && endLine >= startLine {
		for i := startLine; i <= endLine; i++ {
			if i > startLine {
				body += "\n"
			}
			body += lines[i]
		}
	}

	ref, ok := eng.FindReferences(symbolName)
	if !ok {
		return nil, &tools.SelfCorrectError{
			Message:            fmt.Sprintf("symbol not found: %s", symbolName),
			OriginalTool:       "refactoring_assistant",
			SuggestedFallbacks: []string{"symbol_search"},
			Hint:               "confirm the symbol is indexed before inlining it",
		}
	}

	var callSites []refactor.CallSite
	for _, site := range ref.References {
		if site.Usage.Tag == "call" {
			callSites = append(callSites, refactor.CallSite{
				File: site.File,
				Line: site.Usage.Line,
				Text: site.Usage.Context,
			})
		}
	}

	return refactor.Inline(refactor.InlineRequest{
		FunctionName: symbolName,
		DefFile:      sourceFile,
		DefStart:     startLine,
		DefEnd:       endLine,
		Body:         body,
	}, callSites), nil
}

// MultiFileEditTool returns a direct wrapper over the Multi-File Editor
// for callers (the LLM, or a TaskStep) that already know the exact
// create/edit/delete/move operations they want applied.
func MultiFileEditTool(editor *multifile.Editor) *tools.Tool {
	return &tools.Tool{
		Name:        "multi_file_edit",
		Description: "Apply a batch of create, edit, delete, or move file operations as one transaction",
		Category:    tools.CategoryRefactor,
		Priority:    55,
		Schema: tools.ToolSchema{
			Required: []string{"operations"},
			Properties: map[string]tools.Property{
				"operations": {
					Type:        "array",
					Description: "List of {type, filePath, content?, destPath?} operations",
					Items:       &tools.PropertyItems{Type: "object"},
				},
			},
		},
		Execute: func(ctx context.Context, args map[string]any) (string, error) {
			return executeMultiFileEdit(editor, args)
		},
	}
}

func executeMultiFileEdit(editor *multifile.Editor, args map[string]any) (string, error) {
	raw, ok := args["operations"].([]any)
	if !ok || len(raw) == 0 {
		return "", fmt.Errorf("operations is required and must be a non-empty array")
	}

	ops := make([]multifile.Operation, 0, len(raw))
	for i, r := range raw {
		m, ok := r.(map[string]any)
		if !ok {
			return "", fmt.Errorf("operations[%d] must be an object", i)
		}
		typ, _ := m["type"].(string)
		path, _ := m["filePath"].(string)
		content, _ := m["content"].(string)
		dest, _ := m["destPath"].(string)
		if typ == "" || path == "" {
			return "", fmt.Errorf("operations[%d] requires type and filePath", i)
		}
		ops = append(ops, multifile.Operation{
			Type:     multifile.OperationType(typ),
			FilePath: path,
			Content:  content,
			DestPath: dest,
		})
	}

	logging.ToolsDebug("multi_file_edit: applying %d operations", len(ops))

	result := editor.Apply(ops)
	if !result.Success {
		return "", result.Error
	}

	out, err := json.Marshal(result)
	if err != nil {
		return "", fmt.Errorf("failed to marshal transaction result: %w", err)
	}
	return string(out), nil
}
