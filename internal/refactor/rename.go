package refactor

import (
	"fmt"
	"regexp"
	"strings"
)

var validIdentifier = regexp.MustCompile(`^[A-Za-z_$][A-Za-z0-9_$]*$`)

// RenameScope bounds which files a rename touches.
type RenameScope string

const (
	ScopeFile    RenameScope = "file"
	ScopeProject RenameScope = "project"
	ScopeGlobal  RenameScope = "global"
)

// RenameRequest is the input to Rename.
type RenameRequest struct {
	SymbolName      string
	NewName         string
	Scope           RenameScope
	ScopeFile       string // restricts the rename when Scope == ScopeFile
	IncludeComments bool
	IncludeStrings  bool
}

// FileLines reads a file's lines by relative path, the seam Rename uses
// to re-check each occurrence's line against the comment/string filters
// without depending on a concrete filesystem layout.
type FileLines interface {
	Lines(path string) ([]string, error)
}

// Rename plans a project-wide (or file/global-scoped) rename of
// SymbolName to NewName, per spec §4.5. It filters occurrences by scope
// and by the conservative comment/string rules, and does not touch the
// filesystem — applying the resulting plan is delegated to the Multi-File
// Editor.
func Rename(eng Engine, files FileLines, req RenameRequest) (*RefactoringOperation, error) {
	if !validIdentifier.MatchString(req.NewName) {
		return nil, fmt.Errorf("invalid identifier: %q", req.NewName)
	}

	ref, ok := eng.FindReferences(req.SymbolName)
	if !ok {
		return nil, fmt.Errorf("symbol not found: %q", req.SymbolName)
	}

	lineCache := make(map[string][]string)
	byFile := make(map[string][]TextChange)
	var order []string
	occurrences := 0

	for _, site := range ref.References {
		if req.Scope == ScopeFile && site.File != req.ScopeFile {
			continue
		}

		lines, ok := lineCache[site.File]
		if !ok {
			lines, _ = files.Lines(site.File)
			lineCache[site.File] = lines
		}
		if site.Usage.Line < 0 || site.Usage.Line >= len(lines) {
			continue
		}
		line := lines[site.Usage.Line]

		if !req.IncludeComments && isCommentLine(line) {
			continue
		}
		if !req.IncludeStrings && strings.ContainsAny(line, `"'`) {
			continue
		}

		if _, seen := byFile[site.File]; !seen {
			order = append(order, site.File)
		}
		byFile[site.File] = append(byFile[site.File], TextChange{
			StartLine:   site.Usage.Line,
			StartColumn: site.Usage.Column,
			EndLine:     site.Usage.Line,
			EndColumn:   site.Usage.Column + len(req.SymbolName),
			OldText:     req.SymbolName,
			NewText:     req.NewName,
			Type:        ChangeReplace,
		})
		occurrences++
	}

	var out []RefactoringFileChange
	for _, path := range order {
		out = append(out, RefactoringFileChange{FilePath: path, Changes: byFile[path]})
	}

	risk := RiskLow
	if len(out) > 5 || occurrences > 20 {
		risk = RiskHigh
	}

	return &RefactoringOperation{
		Type:        "rename",
		Description: fmt.Sprintf("rename %q to %q across %d file(s)", req.SymbolName, req.NewName, len(out)),
		Files:       out,
		Preview:     fmt.Sprintf("%d occurrence(s) across %d file(s)", occurrences, len(out)),
		Safety: SafetyAnalysis{
			Risk:    risk,
			Reasons: []string{fmt.Sprintf("%d files, %d occurrences", len(out), occurrences)},
		},
	}, nil
}

func isCommentLine(line string) bool {
	trimmed := strings.TrimLeft(line, " \t")
	return strings.HasPrefix(trimmed, "//") || strings.HasPrefix(trimmed, "*")
}
