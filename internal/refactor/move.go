package refactor

import (
	"fmt"
	"path/filepath"
	"strings"
)

// MoveKind distinguishes the two risk curves spec §4.5 assigns moves.
type MoveKind string

const (
	MoveFunction MoveKind = "function"
	MoveClass    MoveKind = "class"
)

// MoveRequest is the input to Move.
type MoveRequest struct {
	SymbolName string
	Kind       MoveKind
	SourceFile string
	TargetFile string
	// Span is the symbol's full text, already including any
	// immediately-preceding comment lines the caller chose to capture.
	Span      string
	SpanStart int
	SpanEnd   int
}

// Move plans relocating a function or class definition from SourceFile to
// TargetFile, rewriting every importer's import path, per spec §4.5.
func Move(eng Engine, req MoveRequest) (*RefactoringOperation, error) {
	ref, ok := eng.FindReferences(req.SymbolName)
	if !ok {
		return nil, fmt.Errorf("symbol not found: %q", req.SymbolName)
	}

	importers := make(map[string]bool)
	for _, site := range ref.References {
		if site.File != req.SourceFile && site.Usage.Tag == "import" {
			importers[site.File] = true
		}
	}

	var files []RefactoringFileChange

	files = append(files, RefactoringFileChange{
		FilePath: req.SourceFile,
		Changes: []TextChange{{
			StartLine: req.SpanStart, EndLine: req.SpanEnd,
			OldText: req.Span, NewText: "", Type: ChangeDelete,
		}},
	})
	files = append(files, RefactoringFileChange{
		FilePath: req.TargetFile,
		Changes: []TextChange{{
			StartLine: -1, EndLine: -1,
			OldText: "", NewText: req.Span, Type: ChangeInsert,
		}},
	})

	var warnings []string
	for importer := range importers {
		newPath := relativeImportPath(importer, req.TargetFile)
		files = append(files, RefactoringFileChange{
			FilePath: importer,
			Changes: []TextChange{{
				StartLine: -1, EndLine: -1,
				OldText: req.SymbolName, NewText: newPath, Type: ChangeReplace,
			}},
		})
		if upstreamDependsOn(eng, req.TargetFile, importer) {
			warnings = append(warnings, fmt.Sprintf(
				"moving %q into %s would re-introduce a dependency on %s already present in its upstream closure",
				req.SymbolName, req.TargetFile, importer))
		}
	}

	risk := riskForMove(req.Kind, len(importers))

	return &RefactoringOperation{
		Type:        "move_" + string(req.Kind),
		Description: fmt.Sprintf("move %q from %s to %s", req.SymbolName, req.SourceFile, req.TargetFile),
		Files:       files,
		Preview:     fmt.Sprintf("%d importer(s) updated", len(importers)),
		Safety:      SafetyAnalysis{Risk: risk, Warnings: warnings},
	}, nil
}

func riskForMove(kind MoveKind, affected int) RiskLevel {
	switch {
	case affected == 0:
		return RiskLow
	case affected <= 3:
		if kind == MoveClass {
			return RiskMedium
		}
		return RiskLow
	case affected <= 10:
		return RiskMedium
	default:
		return RiskHigh
	}
}

// relativeImportPath computes the POSIX-style relative import specifier
// from importer's directory to target, stripped of its source extension
// and prefixed with "./" if not already dot-prefixed.
func relativeImportPath(importer, target string) string {
	fromDir := filepath.ToSlash(filepath.Dir(importer))
	toPath := filepath.ToSlash(target)
	toPath = strings.TrimSuffix(toPath, filepath.Ext(toPath))

	rel, err := filepath.Rel(filepath.FromSlash(fromDir), filepath.FromSlash(toPath))
	if err != nil {
		rel = toPath
	}
	rel = filepath.ToSlash(rel)
	if !strings.HasPrefix(rel, ".") {
		rel = "./" + rel
	}
	return rel
}

// upstreamDependsOn reports whether target's dependency closure already
// contains importer, which would make relocating a symbol into target
// create a cycle back through importer.
func upstreamDependsOn(eng Engine, target, importer string) bool {
	visited := map[string]bool{}
	var walk func(string) bool
	walk = func(f string) bool {
		if visited[f] {
			return false
		}
		visited[f] = true
		for _, dep := range eng.GetDependencies(f) {
			if dep == importer || walk(dep) {
				return true
			}
		}
		return false
	}
	return walk(target)
}
