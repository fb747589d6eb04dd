package core

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"context"

	"grok-cli/internal/logging"
	"grok-cli/internal/tools"
)

// ViewFileTool returns a tool for reading file contents, optionally a line range.
func ViewFileTool() *tools.Tool {
	return &tools.Tool{
		Name:        "view_file",
		Description: "View the contents of a file, optionally restricted to a line range",
		Category:    tools.CategoryFile,
		Priority:    90,
		Execute:     executeViewFile,
		Schema: tools.ToolSchema{
			Required: []string{"path"},
			Properties: map[string]tools.Property{
				"path":      {Type: "string", Description: "The file path to read"},
				"startLine": {Type: "integer", Description: "Starting line number (1-indexed, optional)"},
				"endLine":   {Type: "integer", Description: "Ending line number (inclusive, optional)"},
			},
		},
	}
}

func executeViewFile(ctx context.Context, args map[string]any) (string, error) {
	path, _ := args["path"].(string)
	if path == "" {
		return "", fmt.Errorf("path is required")
	}

	logging.ToolsDebug("view_file: path=%s", path)

	content, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return "", &tools.SelfCorrectError{
				Message:            fmt.Sprintf("file not found: %s", path),
				OriginalTool:       "view_file",
				SuggestedFallbacks: []string{"search", "list_files"},
				Hint:               "the path may be misspelled or relative to the wrong directory; try search to locate it first",
			}
		}
		return "", fmt.Errorf("failed to read file: %w", err)
	}

	result := string(content)

	startLine, hasStart := intArg(args["startLine"])
	endLine, hasEnd := intArg(args["endLine"])
	if hasStart || hasEnd {
		lines := strings.Split(result, "\n")
		if !hasStart {
			startLine = 1
		}
		if !hasEnd {
			endLine = len(lines)
		}
		startLine--
		if startLine < 0 {
			startLine = 0
		}
		if endLine > len(lines) {
			endLine = len(lines)
		}
		if startLine > endLine {
			startLine = endLine
		}
		result = strings.Join(lines[startLine:endLine], "\n")
	}

	logging.ToolsLog("view_file completed: %s (%d bytes)", path, len(result))
	return result, nil
}

func intArg(v any) (int, bool) {
	switch n := v.(type) {
	case int:
		return n, true
	case float64:
		return int(n), true
	default:
		return 0, false
	}
}

// CreateFileTool returns a tool for creating a new file.
func CreateFileTool() *tools.Tool {
	return &tools.Tool{
		Name:        "create_file",
		Description: "Create a file with the given content, refusing to overwrite unless flagged",
		Category:    tools.CategoryFile,
		Priority:    80,
		Execute:     executeCreateFile,
		Schema: tools.ToolSchema{
			Required: []string{"path", "content"},
			Properties: map[string]tools.Property{
				"path":      {Type: "string", Description: "The file path to create"},
				"content":   {Type: "string", Description: "The file content"},
				"overwrite": {Type: "boolean", Description: "Allow overwriting an existing file", Default: false},
			},
		},
	}
}

func executeCreateFile(ctx context.Context, args map[string]any) (string, error) {
	path, _ := args["path"].(string)
	if path == "" {
		return "", fmt.Errorf("path is required")
	}
	content, _ := args["content"].(string)
	overwrite, _ := args["overwrite"].(bool)

	logging.ToolsDebug("create_file: path=%s, size=%d, overwrite=%v", path, len(content), overwrite)

	if _, err := os.Stat(path); err == nil && !overwrite {
		return "", &tools.SelfCorrectError{
			Message:            fmt.Sprintf("file already exists: %s", path),
			OriginalTool:       "create_file",
			SuggestedFallbacks: []string{"str_replace_editor", "view_file"},
			Hint:               "pass overwrite=true to replace it, or use str_replace_editor to edit in place",
		}
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return "", fmt.Errorf("failed to create directories: %w", err)
		}
	}

	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		return "", fmt.Errorf("failed to write file: %w", err)
	}

	logging.ToolsLog("create_file completed: %s (%d bytes)", path, len(content))
	return fmt.Sprintf("Created %s (%d bytes)", path, len(content)), nil
}

// DeleteFileTool returns a tool for deleting files.
func DeleteFileTool() *tools.Tool {
	return &tools.Tool{
		Name:        "delete_file",
		Description: "Delete a file",
		Category:    tools.CategoryFile,
		Priority:    50,
		Execute:     executeDeleteFile,
		Schema: tools.ToolSchema{
			Required: []string{"path"},
			Properties: map[string]tools.Property{
				"path": {Type: "string", Description: "The file path to delete"},
			},
		},
	}
}

func executeDeleteFile(ctx context.Context, args map[string]any) (string, error) {
	path, _ := args["path"].(string)
	if path == "" {
		return "", fmt.Errorf("path is required")
	}

	logging.ToolsDebug("delete_file: path=%s", path)

	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return "", &tools.SelfCorrectError{
				Message:            fmt.Sprintf("file not found: %s", path),
				OriginalTool:       "delete_file",
				SuggestedFallbacks: []string{"list_files", "search"},
				Hint:               "the path may already be gone or misspelled",
			}
		}
		return "", fmt.Errorf("failed to stat file: %w", err)
	}

	if info.IsDir() {
		return "", fmt.Errorf("cannot delete directory %s with delete_file", path)
	}

	if err := os.Remove(path); err != nil {
		return "", fmt.Errorf("failed to delete file: %w", err)
	}

	logging.ToolsLog("delete_file completed: %s", path)
	return fmt.Sprintf("Deleted %s", path), nil
}

// ListFilesTool returns a tool for listing directory contents.
func ListFilesTool() *tools.Tool {
	return &tools.Tool{
		Name:        "list_files",
		Description: "List files in a directory",
		Category:    tools.CategoryFile,
		Priority:    85,
		Execute:     executeListFiles,
		Schema: tools.ToolSchema{
			Required: []string{"path"},
			Properties: map[string]tools.Property{
				"path":          {Type: "string", Description: "The directory path to list"},
				"recursive":     {Type: "boolean", Description: "List recursively", Default: false},
				"includeHidden": {Type: "boolean", Description: "Include hidden files", Default: false},
			},
		},
	}
}

func executeListFiles(ctx context.Context, args map[string]any) (string, error) {
	path, _ := args["path"].(string)
	if path == "" {
		path = "."
	}
	recursive, _ := args["recursive"].(bool)
	includeHidden, _ := args["includeHidden"].(bool)

	logging.ToolsDebug("list_files: path=%s, recursive=%v", path, recursive)

	var files []string

	if recursive {
		err := filepath.Walk(path, func(p string, info os.FileInfo, err error) error {
			if err != nil {
				return nil
			}
			name := info.Name()
			if !includeHidden && strings.HasPrefix(name, ".") {
				if info.IsDir() {
					return filepath.SkipDir
				}
				return nil
			}
			relPath, _ := filepath.Rel(path, p)
			if relPath == "." {
				return nil
			}
			if info.IsDir() {
				files = append(files, relPath+"/")
			} else {
				files = append(files, relPath)
			}
			return nil
		})
		if err != nil {
			return "", fmt.Errorf("failed to walk directory: %w", err)
		}
	} else {
		entries, err := os.ReadDir(path)
		if err != nil {
			if os.IsNotExist(err) {
				return "", &tools.SelfCorrectError{
					Message:            fmt.Sprintf("directory not found: %s", path),
					OriginalTool:       "list_files",
					SuggestedFallbacks: []string{"search"},
					Hint:               "the path may be misspelled",
				}
			}
			return "", fmt.Errorf("failed to read directory: %w", err)
		}
		for _, entry := range entries {
			name := entry.Name()
			if !includeHidden && strings.HasPrefix(name, ".") {
				continue
			}
			if entry.IsDir() {
				files = append(files, name+"/")
			} else {
				files = append(files, name)
			}
		}
	}

	logging.ToolsLog("list_files completed: %s (%d entries)", path, len(files))
	return strings.Join(files, "\n"), nil
}
