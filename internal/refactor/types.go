// Package refactor implements the Refactoring Operations of spec §4.5:
// rename, extract function, extract variable, move function/class, and
// inline function. Each operation produces a plan — a RefactoringOperation
// — rather than applying changes itself; applying is delegated to
// internal/multifile.
package refactor

import "grok-cli/internal/engine"

// ChangeType classifies one TextChange.
type ChangeType string

const (
	ChangeReplace ChangeType = "replace"
	ChangeInsert  ChangeType = "insert"
	ChangeDelete  ChangeType = "delete"
)

// TextChange is one edit within a file, expressed as a half-open
// (startLine, startColumn)-(endLine, endColumn) span plus the replacement
// text.
type TextChange struct {
	StartLine   int
	StartColumn int
	EndLine     int
	EndColumn   int
	OldText     string
	NewText     string
	Type        ChangeType
}

// RefactoringFileChange groups the TextChanges that apply to one file, in
// the order they must be applied.
type RefactoringFileChange struct {
	FilePath string
	Changes  []TextChange
}

// RiskLevel mirrors engine.ImpactRisk's three tiers plus "critical". No
// operation in this package assigns "critical"; inline is the only
// operation fixed at high risk.
type RiskLevel string

const (
	RiskLow      RiskLevel = "low"
	RiskMedium   RiskLevel = "medium"
	RiskHigh     RiskLevel = "high"
	RiskCritical RiskLevel = "critical"
)

// SafetyAnalysis accompanies a plan with the reasoning behind its risk
// level, surfaced to the caller before they apply it.
type SafetyAnalysis struct {
	Risk     RiskLevel
	Reasons  []string
	Warnings []string
}

// RefactoringOperation is a plan, not an apply: the caller reviews
// Preview and Safety, then hands Files to the Multi-File Editor.
type RefactoringOperation struct {
	Type        string
	Description string
	Files       []RefactoringFileChange
	Preview     string
	Safety      SafetyAnalysis
}

// Engine is the subset of *engine.Engine the refactoring operations need:
// symbol lookup, cross-references, dependency edges, and impact analysis.
type Engine interface {
	FindSymbol(name string) []engine.SymbolReference
	FindReferences(name string) (*engine.CrossReference, bool)
	GetDependents(file string) []string
	GetDependencies(file string) []string
	GetFileSymbols(file string) []engine.Symbol
	AnalyzeImpact(file, symbol string) engine.ImpactAnalysis
}
