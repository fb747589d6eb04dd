package planner

import (
	"math"
	"regexp"
	"sort"
	"strings"

	"grok-cli/internal/engine"
)

// Engine is the subset of the Code Intelligence Engine's query API the
// Analyzer and Risk Assessor need. Decouples this package from a concrete
// *engine.Engine the way refactor.Engine does.
type Engine interface {
	FindSymbol(name string) []engine.SymbolReference
	GetDependents(file string) []string
	GetDependencies(file string) []string
}

// intentKeywords is scanned in order; the first matching tag wins, per
// spec §4.6's keyword list.
var intentKeywords = []struct {
	tag      string
	keywords []string
}{
	{"refactor", []string{"refactor"}},
	{"rename", []string{"rename"}},
	{"extract", []string{"extract"}},
	{"move", []string{"move"}},
	{"inline", []string{"inline"}},
	{"create", []string{"create", "add"}},
	{"implement", []string{"implement", "generate"}},
	{"update", []string{"update", "modify"}},
	{"fix", []string{"fix", "repair"}},
	{"remove", []string{"remove", "delete"}},
	{"clean", []string{"clean"}},
	{"analyze", []string{"analyze", "find"}},
}

var (
	filePathRe    = regexp.MustCompile(`[\w\-./]+\.[a-z]{2,4}`)
	directoryRe   = regexp.MustCompile(`\b[\w\-]+(?:/[\w\-]+)+\b`)
	pascalCaseRe  = regexp.MustCompile(`\b[A-Z][a-zA-Z0-9]*\b`)
	camelCaseRe   = regexp.MustCompile(`\b[a-z]+[A-Z][a-zA-Z0-9]*\b`)
	entryPointRe  = regexp.MustCompile(`(?i)(^|/)(main|index|app|server)\.[a-z]{2,4}$`)
)

// basePerIntent is the step count multiplier base, tuned per intent: a
// rename is usually one step per affected file, an implement spans more.
var basePerIntent = map[string]int{
	"refactor":  3,
	"rename":    1,
	"extract":   1,
	"move":      1,
	"inline":    1,
	"create":    2,
	"implement": 4,
	"update":    2,
	"fix":       2,
	"remove":    1,
	"clean":     1,
	"analyze":   1,
	"general":   2,
}

var complexityMultiplier = map[Complexity]float64{
	ComplexitySimple:      1,
	ComplexityModerate:    1.5,
	ComplexityComplex:     2,
	ComplexityVeryComplex: 3,
}

// requiredToolsByIntent lists the tools a plan for this intent will need,
// surfaced to the UI before execution begins.
var requiredToolsByIntent = map[string][]string{
	"refactor":  {"dependency_analyzer", "refactoring_assistant", "multi_file_edit"},
	"rename":    {"refactoring_assistant"},
	"extract":   {"refactoring_assistant"},
	"move":      {"refactoring_assistant"},
	"inline":    {"refactoring_assistant"},
	"create":    {"code_analysis"},
	"implement": {"code_context", "code_analysis", "multi_file_edit"},
	"update":    {"str_replace_editor"},
	"fix":       {"code_context", "str_replace_editor"},
	"remove":    {"multi_file_edit"},
	"clean":     {"str_replace_editor"},
	"analyze":   {"code_context", "dependency_analyzer"},
	"general":   {"str_replace_editor"},
}

// Analyze extracts intent, scope, complexity, and risk from a free-text
// request, per spec §4.6's Analyzer.
func Analyze(eng Engine, userRequest string) TaskAnalysis {
	intent := detectIntent(userRequest)

	files := dedupe(filePathRe.FindAllString(userRequest, -1))
	dirs := dedupe(directoryRe.FindAllString(userRequest, -1))

	symbolSet := make(map[string]bool)
	for _, m := range pascalCaseRe.FindAllString(userRequest, -1) {
		symbolSet[m] = true
	}
	for _, m := range camelCaseRe.FindAllString(userRequest, -1) {
		symbolSet[m] = true
	}
	symbols := make([]string, 0, len(symbolSet))
	for s := range symbolSet {
		symbols = append(symbols, s)
	}
	sort.Strings(symbols)

	resolvedFiles := make(map[string]bool)
	for _, f := range files {
		resolvedFiles[f] = true
	}
	depCount := 0
	if eng != nil {
		for _, sym := range symbols {
			for _, ref := range eng.FindSymbol(sym) {
				resolvedFiles[ref.File] = true
				for _, dep := range eng.GetDependents(ref.File) {
					resolvedFiles[dep] = true
					depCount++
				}
				for _, dep := range eng.GetDependencies(ref.File) {
					resolvedFiles[dep] = true
					depCount++
				}
			}
		}
	}
	allFiles := make([]string, 0, len(resolvedFiles))
	for f := range resolvedFiles {
		allFiles = append(allFiles, f)
	}
	sort.Strings(allFiles)

	complexity := classifyComplexity(len(allFiles), depCount, intent)
	steps := estimateSteps(intent, len(allFiles), complexity)
	risks := identifyRisks(intent, allFiles)

	return TaskAnalysis{
		UserRequest:    userRequest,
		Intent:         intent,
		Files:          allFiles,
		Directories:    dirs,
		Symbols:        symbols,
		Complexity:     complexity,
		EstimatedSteps: steps,
		Risks:          risks,
		RequiredTools:  requiredToolsByIntent[intent],
	}
}

func detectIntent(request string) string {
	lower := strings.ToLower(request)
	for _, entry := range intentKeywords {
		for _, kw := range entry.keywords {
			if strings.Contains(lower, kw) {
				return entry.tag
			}
		}
	}
	return "general"
}

// classifyComplexity weighs file count, dependency fan-out, and whether
// the intent itself tends to touch more of the tree (refactor/move/
// implement) against a fixed scale, per spec §4.6.
func classifyComplexity(fileCount, depCount int, intent string) Complexity {
	intentWeight := 0
	switch intent {
	case "refactor", "move", "implement":
		intentWeight = 2
	case "rename", "extract", "inline":
		intentWeight = 1
	}
	score := fileCount + depCount + intentWeight
	switch {
	case score <= 2:
		return ComplexitySimple
	case score <= 5:
		return ComplexityModerate
	case score <= 10:
		return ComplexityComplex
	default:
		return ComplexityVeryComplex
	}
}

func estimateSteps(intent string, fileCount int, complexity Complexity) int {
	base, ok := basePerIntent[intent]
	if !ok {
		base = basePerIntent["general"]
	}
	scope := fileCount
	if scope == 0 {
		scope = 1
	}
	if scope > 5 {
		scope = 5
	}
	return int(math.Round(float64(base*scope) * complexityMultiplier[complexity]))
}

func identifyRisks(intent string, files []string) []string {
	var risks []string
	for _, f := range files {
		if entryPointRe.MatchString(f) {
			risks = append(risks, "modifies an application entry point: "+f)
			break
		}
	}
	if len(files) > 10 {
		risks = append(risks, "large scope: affects more than 10 files")
	}
	switch intent {
	case "remove", "move":
		risks = append(risks, "irreversible without version control: "+intent+" operation")
	}
	return risks
}

func dedupe(in []string) []string {
	seen := make(map[string]bool)
	var out []string
	for _, s := range in {
		if !seen[s] {
			seen[s] = true
			out = append(out, s)
		}
	}
	return out
}
