package core

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"grok-cli/internal/engine"
	"grok-cli/internal/logging"
	"grok-cli/internal/tools"
)

// CodeContextTool returns a tool that summarizes a file's symbols and its
// direct dependency edges, the Planner's mandatory first "analyze" step
// for any request touching existing code.
func CodeContextTool(eng *engine.Engine) *tools.Tool {
	return &tools.Tool{
		Name:        "code_context",
		Description: "Summarize a file's symbols, dependencies, and dependents from the code index",
		Category:    tools.CategoryCode,
		Priority:    70,
		Schema: tools.ToolSchema{
			Required: []string{"file"},
			Properties: map[string]tools.Property{
				"file": {Type: "string", Description: "Relative path of the file to summarize"},
			},
		},
		Execute: func(ctx context.Context, args map[string]any) (string, error) {
			return executeCodeContext(eng, args)
		},
	}
}

func executeCodeContext(eng *engine.Engine, args map[string]any) (string, error) {
	file, _ := args["file"].(string)
	if file == "" {
		return "", fmt.Errorf("file is required")
	}

	meta, ok := eng.GetFileMetadata(file)
	if !ok {
		return "", &tools.SelfCorrectError{
			Message:            fmt.Sprintf("file not indexed: %s", file),
			OriginalTool:       "code_context",
			SuggestedFallbacks: []string{"list_files", "search"},
			Hint:               "the file may not exist or may not yet have been indexed",
		}
	}

	logging.ToolsDebug("code_context: file=%s", file)

	summary := struct {
		File         string          `json:"file"`
		Language     string          `json:"language"`
		Symbols      []engine.Symbol `json:"symbols"`
		Dependencies []string        `json:"dependencies"`
		Dependents   []string        `json:"dependents"`
		ParseErrors  []string        `json:"parseErrors,omitempty"`
	}{
		File:         file,
		Language:     meta.Language,
		Symbols:      eng.GetFileSymbols(file),
		Dependencies: eng.GetDependencies(file),
		Dependents:   eng.GetDependents(file),
	}
	for _, pe := range eng.GetParseErrors(file) {
		summary.ParseErrors = append(summary.ParseErrors, pe.Message)
	}

	out, err := json.Marshal(summary)
	if err != nil {
		return "", fmt.Errorf("failed to marshal context: %w", err)
	}
	return string(out), nil
}

// SymbolSearchTool returns a tool that looks symbols up by exact name or
// regex pattern across the index.
func SymbolSearchTool(eng *engine.Engine) *tools.Tool {
	return &tools.Tool{
		Name:        "symbol_search",
		Description: "Find symbol declarations and usages by exact name or regex pattern",
		Category:    tools.CategoryCode,
		Priority:    70,
		Schema: tools.ToolSchema{
			Required: []string{"query"},
			Properties: map[string]tools.Property{
				"query":         {Type: "string", Description: "Symbol name or regex pattern"},
				"pattern":       {Type: "boolean", Description: "Treat query as a regex pattern rather than an exact name", Default: false},
				"caseSensitive": {Type: "boolean", Description: "Case-sensitive pattern matching", Default: true},
			},
		},
		Execute: func(ctx context.Context, args map[string]any) (string, error) {
			return executeSymbolSearch(eng, args)
		},
	}
}

func executeSymbolSearch(eng *engine.Engine, args map[string]any) (string, error) {
	query, _ := args["query"].(string)
	if query == "" {
		return "", fmt.Errorf("query is required")
	}
	asPattern, _ := args["pattern"].(bool)
	caseSensitive := true
	if v, ok := args["caseSensitive"].(bool); ok {
		caseSensitive = v
	}

	logging.ToolsDebug("symbol_search: query=%s pattern=%v", query, asPattern)

	var refs []engine.SymbolReference
	if asPattern {
		var err error
		refs, err = eng.FindSymbolByPattern(query, caseSensitive)
		if err != nil {
			return "", fmt.Errorf("invalid pattern: %w", err)
		}
	} else {
		refs = eng.FindSymbol(query)
	}

	if len(refs) == 0 {
		return "", &tools.SelfCorrectError{
			Message:            fmt.Sprintf("no symbol matched %q", query),
			OriginalTool:       "symbol_search",
			SuggestedFallbacks: []string{"advanced_search", "grep"},
			Hint:               "try pattern=true for a looser regex match, or search the raw text instead",
		}
	}

	out, err := json.Marshal(refs)
	if err != nil {
		return "", fmt.Errorf("failed to marshal results: %w", err)
	}
	return string(out), nil
}

// DependencyAnalyzerTool returns a tool that runs spec §4.1's impact
// analysis: the affected file/symbol set, any import cycles, and a risk
// tier, for a file or a specific symbol within it.
func DependencyAnalyzerTool(eng *engine.Engine) *tools.Tool {
	return &tools.Tool{
		Name:        "dependency_analyzer",
		Description: "Analyze the blast radius of changing a file or symbol: affected files, cycles, risk",
		Category:    tools.CategoryCode,
		Priority:    60,
		Schema: tools.ToolSchema{
			Required: []string{"file"},
			Properties: map[string]tools.Property{
				"file":   {Type: "string", Description: "Relative path of the file being changed"},
				"symbol": {Type: "string", Description: "Optional symbol name to scope the analysis to"},
			},
		},
		Execute: func(ctx context.Context, args map[string]any) (string, error) {
			return executeDependencyAnalyzer(eng, args)
		},
	}
}

func executeDependencyAnalyzer(eng *engine.Engine, args map[string]any) (string, error) {
	file, _ := args["file"].(string)
	if file == "" {
		return "", fmt.Errorf("file is required")
	}
	symbol, _ := args["symbol"].(string)

	logging.ToolsDebug("dependency_analyzer: file=%s symbol=%s", file, symbol)

	impact := eng.AnalyzeImpact(file, symbol)
	out, err := json.Marshal(impact)
	if err != nil {
		return "", fmt.Errorf("failed to marshal impact analysis: %w", err)
	}
	return string(out), nil
}

// CodeAnalysisTool returns a tool that reports a file's structural health:
// its symbol table, parse errors, and indexing metadata.
func CodeAnalysisTool(eng *engine.Engine) *tools.Tool {
	return &tools.Tool{
		Name:        "code_analysis",
		Description: "Report a file's symbol table, parse errors, and indexing metadata",
		Category:    tools.CategoryCode,
		Priority:    60,
		Schema: tools.ToolSchema{
			Required: []string{"file"},
			Properties: map[string]tools.Property{
				"file": {Type: "string", Description: "Relative path of the file to analyze"},
			},
		},
		Execute: func(ctx context.Context, args map[string]any) (string, error) {
			return executeCodeAnalysis(eng, args)
		},
	}
}

func executeCodeAnalysis(eng *engine.Engine, args map[string]any) (string, error) {
	file, _ := args["file"].(string)
	if file == "" {
		return "", fmt.Errorf("file is required")
	}

	meta, ok := eng.GetFileMetadata(file)
	if !ok {
		return "", &tools.SelfCorrectError{
			Message:            fmt.Sprintf("file not indexed: %s", file),
			OriginalTool:       "code_analysis",
			SuggestedFallbacks: []string{"list_files"},
			Hint:               "the file may not exist, may be gitignored, or may use an unsupported language",
		}
	}

	logging.ToolsDebug("code_analysis: file=%s", file)

	report := struct {
		File        string            `json:"file"`
		Language    string            `json:"language"`
		Indexed     bool              `json:"indexed"`
		ContentHash string            `json:"contentHash"`
		Symbols     []engine.Symbol   `json:"symbols"`
		ParseErrors []engine.ParseError `json:"parseErrors,omitempty"`
	}{
		File:        file,
		Language:    meta.Language,
		Indexed:     meta.Indexed,
		ContentHash: meta.ContentHash,
		Symbols:     eng.GetFileSymbols(file),
		ParseErrors: eng.GetParseErrors(file),
	}

	out, err := json.Marshal(report)
	if err != nil {
		return "", fmt.Errorf("failed to marshal analysis: %w", err)
	}
	return string(out), nil
}

// AdvancedSearchTool returns a tool that combines symbol-pattern search
// with the index's aggregate statistics, a richer alternative to plain
// text search when the caller already knows it wants code structure.
func AdvancedSearchTool(eng *engine.Engine) *tools.Tool {
	return &tools.Tool{
		Name:        "advanced_search",
		Description: "Search indexed symbols by regex pattern across the whole tree, with index statistics",
		Category:    tools.CategoryCode,
		Priority:    65,
		Schema: tools.ToolSchema{
			Required: []string{"pattern"},
			Properties: map[string]tools.Property{
				"pattern":       {Type: "string", Description: "Regex pattern matched against symbol names"},
				"caseSensitive": {Type: "boolean", Description: "Case-sensitive matching", Default: false},
				"kind":          {Type: "string", Description: "Restrict results to one symbol kind (function, class, method, variable, interface, enum, type, property)"},
			},
		},
		Execute: func(ctx context.Context, args map[string]any) (string, error) {
			return executeAdvancedSearch(eng, args)
		},
	}
}

func executeAdvancedSearch(eng *engine.Engine, args map[string]any) (string, error) {
	pattern, _ := args["pattern"].(string)
	if pattern == "" {
		return "", fmt.Errorf("pattern is required")
	}
	caseSensitive, _ := args["caseSensitive"].(bool)
	kind, _ := args["kind"].(string)

	logging.ToolsDebug("advanced_search: pattern=%s kind=%s", pattern, kind)

	refs, err := eng.FindSymbolByPattern(pattern, caseSensitive)
	if err != nil {
		return "", fmt.Errorf("invalid pattern: %w", err)
	}

	if kind != "" {
		filtered := refs[:0]
		for _, r := range refs {
			if strings.EqualFold(string(r.Symbol.Kind), kind) {
				filtered = append(filtered, r)
			}
		}
		refs = filtered
	}

	result := struct {
		Matches    []engine.SymbolReference `json:"matches"`
		Statistics engine.Statistics        `json:"statistics"`
	}{
		Matches:    refs,
		Statistics: eng.GetStatistics(),
	}

	out, err := json.Marshal(result)
	if err != nil {
		return "", fmt.Errorf("failed to marshal search results: %w", err)
	}
	return string(out), nil
}
