package core

import (
	"context"
	"fmt"
	"os"
	"regexp"
	"strings"

	"grok-cli/internal/logging"
	"grok-cli/internal/tools"
)

// StrReplaceEditorTool returns the exact-then-fuzzy single-file edit primitive.
func StrReplaceEditorTool() *tools.Tool {
	return &tools.Tool{
		Name:        "str_replace_editor",
		Description: "Replace old_str with new_str in a file, tolerating whitespace and quote-style drift",
		Category:    tools.CategoryFile,
		Priority:    85,
		Execute:     executeStrReplaceEditor,
		Schema: tools.ToolSchema{
			Required: []string{"path", "old_str", "new_str"},
			Properties: map[string]tools.Property{
				"path":        {Type: "string", Description: "The file path to edit"},
				"old_str":     {Type: "string", Description: "The text to find and replace"},
				"new_str":     {Type: "string", Description: "The replacement text"},
				"replace_all": {Type: "boolean", Description: "Replace all occurrences", Default: false},
			},
		},
	}
}

func executeStrReplaceEditor(ctx context.Context, args map[string]any) (string, error) {
	path, _ := args["path"].(string)
	if path == "" {
		return "", fmt.Errorf("path is required")
	}
	oldStr, _ := args["old_str"].(string)
	if oldStr == "" {
		return "", fmt.Errorf("old_str is required")
	}
	newStr, _ := args["new_str"].(string)
	replaceAll, _ := args["replace_all"].(bool)

	logging.ToolsDebug("str_replace_editor: path=%s, old_len=%d, new_len=%d, replace_all=%v", path, len(oldStr), len(newStr), replaceAll)

	raw, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return "", &tools.SelfCorrectError{
				Message:            fmt.Sprintf("file not found: %s", path),
				OriginalTool:       "str_replace_editor",
				SuggestedFallbacks: []string{"view_file", "search"},
				Hint:               "the path may be misspelled",
			}
		}
		return "", fmt.Errorf("failed to read file: %w", err)
	}
	content := string(raw)

	// Step 1: exact match.
	if strings.Contains(content, oldStr) {
		count := 1
		var newContent string
		if replaceAll {
			count = strings.Count(content, oldStr)
			newContent = strings.ReplaceAll(content, oldStr, newStr)
		} else {
			newContent = strings.Replace(content, oldStr, newStr, 1)
		}
		if err := os.WriteFile(path, []byte(newContent), 0644); err != nil {
			return "", fmt.Errorf("failed to write file: %w", err)
		}
		logging.ToolsLog("str_replace_editor exact match: %s (%d replacements)", path, count)
		return fmt.Sprintf("Replaced %d occurrence(s) in %s", count, path), nil
	}

	// Step 2: normalized windowed match.
	if newContent, count, ok := fuzzyWindowReplace(content, oldStr, newStr, replaceAll); ok {
		if err := os.WriteFile(path, []byte(newContent), 0644); err != nil {
			return "", fmt.Errorf("failed to write file: %w", err)
		}
		logging.ToolsLog("str_replace_editor normalized match: %s (%d replacements)", path, count)
		return fmt.Sprintf("Replaced %d occurrence(s) in %s (fuzzy match)", count, path), nil
	}

	// Step 3: structural fallback strategies.
	if newContent, strategy, ok := structuralReplace(content, oldStr, newStr); ok {
		if err := os.WriteFile(path, []byte(newContent), 0644); err != nil {
			return "", fmt.Errorf("failed to write file: %w", err)
		}
		logging.ToolsLog("str_replace_editor structural match (%s): %s", strategy, path)
		return fmt.Sprintf("Replaced 1 occurrence in %s (structural match: %s)", path, strategy), nil
	}

	hintPrefix := oldStr
	if len(hintPrefix) > 200 {
		hintPrefix = hintPrefix[:200]
	}
	return "", &tools.SelfCorrectError{
		Message:            fmt.Sprintf("no match for old_str in %s (tried %q)", path, hintPrefix),
		OriginalTool:       "str_replace_editor",
		SuggestedFallbacks: []string{"view_file", "multi_file_edit", "code_analysis"},
		Hint:               "old_str likely differs from the file by whitespace, quoting, or line endings; view_file to confirm the current text",
	}
}

// normalize applies the whitespace/quote canonicalization from the fuzzy
// match algorithm: line endings, tabs, smart quotes, and bracket/comma
// spacing are folded so near-identical source reads equal.
func normalize(s string) string {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	s = strings.ReplaceAll(s, "\r", "\n")
	s = strings.ReplaceAll(s, "\t", "  ")
	s = strings.NewReplacer("“", "\"", "”", "\"", "‘", "'", "’", "'").Replace(s)
	s = whitespaceRun.ReplaceAllString(s, " ")
	s = braceOpenSpace.ReplaceAllString(s, "{ ")
	s = braceCloseSpace.ReplaceAllString(s, " }")
	s = commaSpace.ReplaceAllString(s, ", ")
	s = parenOpenSpace.ReplaceAllString(s, "(")
	s = parenCloseSpace.ReplaceAllString(s, ")")
	s = semiSpace.ReplaceAllString(s, ";")
	return strings.TrimSpace(s)
}

var (
	whitespaceRun   = regexp.MustCompile(`\s+`)
	braceOpenSpace  = regexp.MustCompile(`\{\s+`)
	braceCloseSpace = regexp.MustCompile(`\s+\}`)
	commaSpace      = regexp.MustCompile(`,\s*`)
	parenOpenSpace  = regexp.MustCompile(`\(\s+`)
	parenCloseSpace = regexp.MustCompile(`\s+\)`)
	semiSpace       = regexp.MustCompile(`;\s*`)
)

// fuzzyWindowReplace slides a window of N lines (N = len(old_str) in lines)
// over the file, comparing normalized forms, per spec step 2. A single
// unique normalized match is replaced; multiple matches fail unless
// replace_all.
func fuzzyWindowReplace(content, oldStr, newStr string, replaceAll bool) (string, int, bool) {
	targetNorm := normalize(oldStr)
	if targetNorm == "" {
		return "", 0, false
	}

	lines := strings.Split(content, "\n")
	windowSize := len(strings.Split(oldStr, "\n"))
	if windowSize < 1 {
		windowSize = 1
	}

	type match struct{ start, end int }
	var matches []match

	for i := 0; i+windowSize <= len(lines); i++ {
		window := strings.Join(lines[i:i+windowSize], "\n")
		if normalize(window) == targetNorm {
			matches = append(matches, match{start: i, end: i + windowSize})
		}
	}

	if len(matches) == 0 {
		return "", 0, false
	}
	if len(matches) > 1 && !replaceAll {
		return "", 0, false
	}

	replacement := strings.Split(newStr, "\n")
	if !replaceAll {
		m := matches[0]
		out := append([]string{}, lines[:m.start]...)
		out = append(out, replacement...)
		out = append(out, lines[m.end:]...)
		return strings.Join(out, "\n"), 1, true
	}

	// replace_all: rebuild from the end so earlier offsets stay valid.
	out := append([]string{}, lines...)
	for i := len(matches) - 1; i >= 0; i-- {
		m := matches[i]
		rebuilt := append([]string{}, out[:m.start]...)
		rebuilt = append(rebuilt, replacement...)
		rebuilt = append(rebuilt, out[m.end:]...)
		out = rebuilt
	}
	return strings.Join(out, "\n"), len(matches), true
}

var (
	funcNameFromOld   = regexp.MustCompile(`function\s+(\w+)\s*\(`)
	funcBlockPattern  = `function\s+%s\s*\([^)]*\)\s*\{`
	importSpecPattern = regexp.MustCompile(`import\s+.*?from\s+['"]([^'"]+)['"]`)
	constLetVarName   = regexp.MustCompile(`\b(?:const|let|var)\s+(\w+)\b`)
	methodAssignName  = regexp.MustCompile(`\b(\w+)\s*=\s*\(`)
)

// structuralReplace attempts the five structural fallback strategies from
// spec step 3, in order, returning the first that uniquely matches.
func structuralReplace(content, oldStr, newStr string) (string, string, bool) {
	if m := funcNameFromOld.FindStringSubmatch(oldStr); m != nil {
		name := m[1]
		pattern := regexp.MustCompile(fmt.Sprintf(funcBlockPattern, regexp.QuoteMeta(name)))
		if loc := pattern.FindStringIndex(content); loc != nil {
			if end := matchBraceBlock(content, loc[1]-1); end > 0 {
				return content[:loc[0]] + newStr + content[end:], "function-declaration", true
			}
		}
	}

	if m := importSpecPattern.FindStringSubmatch(oldStr); m != nil {
		spec := normalize(m[1])
		lines := strings.Split(content, "\n")
		var idx = -1
		count := 0
		for i, line := range lines {
			if im := importSpecPattern.FindStringSubmatch(line); im != nil && normalize(im[1]) == spec {
				idx = i
				count++
			}
		}
		if count == 1 {
			lines[idx] = newStr
			return strings.Join(lines, "\n"), "import-statement", true
		}
	}

	if m := constLetVarName.FindStringSubmatch(oldStr); m != nil {
		name := m[1]
		pattern := regexp.MustCompile(fmt.Sprintf(`\b(?:const|let|var)\s+%s\b[^\n]*`, regexp.QuoteMeta(name)))
		if locs := pattern.FindAllStringIndex(content, -1); len(locs) == 1 {
			loc := locs[0]
			return content[:loc[0]] + newStr + content[loc[1]:], "const-let-var-decl", true
		}
	}

	if m := methodAssignName.FindStringSubmatch(oldStr); m != nil {
		name := m[1]
		pattern := regexp.MustCompile(fmt.Sprintf(`\b%s\s*=\s*\([^\n]*`, regexp.QuoteMeta(name)))
		if locs := pattern.FindAllStringIndex(content, -1); len(locs) == 1 {
			loc := locs[0]
			return content[:loc[0]] + newStr + content[loc[1]:], "method-arrow-assignment", true
		}
	}

	if nc, count, ok := fuzzyWindowReplace(content, oldStr, newStr, false); ok && count == 1 {
		return nc, "normalized-full-window", true
	}

	return "", "", false
}

// matchBraceBlock returns the index just past the closing brace matching
// the opening brace at openIdx, or -1 if unbalanced.
func matchBraceBlock(content string, openIdx int) int {
	if openIdx < 0 || openIdx >= len(content) || content[openIdx] != '{' {
		return -1
	}
	depth := 0
	for i := openIdx; i < len(content); i++ {
		switch content[i] {
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return i + 1
			}
		}
	}
	return -1
}
