package engine

import (
	"regexp"
	"strings"
)

// classifyUsages scans content line by line for word-boundary occurrences
// of symbol, classifying each hit per spec §4.1 step 4: import / export /
// call (name followed by "(") / definition / reference.
func classifyUsages(content, symbol string) []SymbolUsage {
	re := regexp.MustCompile(`\b` + regexp.QuoteMeta(symbol) + `\b`)
	lines := strings.Split(content, "\n")

	var usages []SymbolUsage
	for lineNo, line := range lines {
		for _, loc := range re.FindAllStringIndex(line, -1) {
			col := loc[0]
			usages = append(usages, SymbolUsage{
				Line:    lineNo,
				Column:  col,
				Context: strings.TrimSpace(line),
				Tag:     classifyHit(line, col, symbol),
			})
		}
	}
	return usages
}

var (
	importLineRe = regexp.MustCompile(`^\s*(import|from)\b`)
	exportLineRe = regexp.MustCompile(`^\s*export\b`)
	defLineRe    = regexp.MustCompile(`^\s*(export\s+)?(async\s+)?(function|class|interface|enum|type|const|let|var|def)\b`)
)

// classifyHit decides the tag for a single occurrence of symbol at column
// col on line, in that priority order: import, export, call, definition,
// reference.
func classifyHit(line string, col int, symbol string) UsageTag {
	trimmed := strings.TrimSpace(line)
	switch {
	case importLineRe.MatchString(line):
		return UsageImport
	case exportLineRe.MatchString(line) && !defLineRe.MatchString(line):
		return UsageExport
	}

	after := col + len(symbol)
	if after < len(line) {
		rest := strings.TrimLeft(line[after:], " \t")
		if strings.HasPrefix(rest, "(") {
			return UsageCall
		}
	}

	if defLineRe.MatchString(line) && strings.Contains(trimmed, symbol) {
		return UsageDefinition
	}

	return UsageReference
}
