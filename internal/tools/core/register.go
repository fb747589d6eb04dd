package core

import (
	"grok-cli/internal/engine"
	"grok-cli/internal/multifile"
	"grok-cli/internal/refactor"
	"grok-cli/internal/tools"
)

// Dependencies bundles the stateful subsystems the code-intelligence and
// refactoring tools need. Root is also used to build a refactor.DiskFiles
// for reading file lines outside the engine's own cache.
type Dependencies struct {
	Engine *engine.Engine
	Editor *multifile.Editor
	Root   string
}

// RegisterAll registers the filesystem and search tools, and, when deps
// is non-nil, the code-intelligence, refactoring, and planning tools that
// need an indexed Engine and a Multi-File Editor to operate against.
func RegisterAll(registry *tools.Registry, deps *Dependencies) error {
	allTools := []*tools.Tool{
		// File operations
		ViewFileTool(),
		CreateFileTool(),
		StrReplaceEditorTool(),
		DeleteFileTool(),
		ListFilesTool(),

		// Search operations
		SearchTool(),
		GlobTool(),
		GrepTool(),
		SearchCodeTool(),
	}

	if deps != nil && deps.Engine != nil {
		allTools = append(allTools,
			CodeContextTool(deps.Engine),
			CodeAnalysisTool(deps.Engine),
			SymbolSearchTool(deps.Engine),
			DependencyAnalyzerTool(deps.Engine),
			AdvancedSearchTool(deps.Engine),
			TaskPlannerTool(deps.Engine),
		)

		if deps.Editor != nil {
			files := refactor.DiskFiles{Root: deps.Root}
			allTools = append(allTools,
				RefactoringAssistantTool(deps.Engine, files, deps.Editor),
				MultiFileEditTool(deps.Editor),
			)
		}
	}

	for _, tool := range allTools {
		if err := registry.Register(tool); err != nil {
			return err
		}
	}

	return nil
}
