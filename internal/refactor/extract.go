package refactor

import (
	"fmt"
	"regexp"
	"strings"
)

// ExtractFunctionRequest is the input to ExtractFunction.
type ExtractFunctionRequest struct {
	FilePath     string
	Lines        []string // the full file, split by line, 0-indexed
	StartLine    int
	EndLine      int // inclusive
	FunctionName string
	Parameters   []string // caller-supplied parameter names, if any
	ReturnType   string   // caller-supplied return type, if any
}

var (
	identifierRe      = regexp.MustCompile(`\b[A-Za-z_$][A-Za-z0-9_$]*\b`)
	declTargetRe      = regexp.MustCompile(`\b(?:const|let|var)\s+([A-Za-z_$][A-Za-z0-9_$]*)`)
	returnStatementRe = regexp.MustCompile(`\breturn\b\s*(.*?);?\s*$`)
	identifierOnlyRe  = regexp.MustCompile(`^[A-Za-z_$][A-Za-z0-9_$]*$`)
	numberLiteralRe   = regexp.MustCompile(`^-?\d+(\.\d+)?$`)
)

// ExtractFunction plans lifting selection into a new function, inferring
// parameters and a return type per spec §4.5's heuristic table and
// scoring a confidence/risk for the result.
func ExtractFunction(fileSymbols map[string]bool, req ExtractFunctionRequest) *RefactoringOperation {
	selection := strings.Join(req.Lines[req.StartLine:req.EndLine+1], "\n")

	declared := declaredIdentifiers(selection)
	used := usedIdentifiers(selection)

	var params []string
	var externalRefs []string
	for name := range used {
		if declared[name] || isGlobalIdentifier(name) {
			continue
		}
		if fileSymbols[name] {
			externalRefs = append(externalRefs, name)
			continue
		}
		params = append(params, name)
	}
	if len(req.Parameters) > 0 {
		params = req.Parameters
	}

	returnType := req.ReturnType
	hasReturn := returnStatementRe.MatchString(selection)
	if returnType == "" {
		returnType = inferReturnType(selection, hasReturn)
	}

	confidence := 0.5
	if hasReturn {
		confidence += 0.1
	}
	if len(params) > 0 {
		confidence += 0.1
	}
	if len(declared) > 0 {
		confidence += 0.1
	}
	if returnType != "any" {
		confidence += 0.15
	}
	if len(externalRefs) > 3 {
		confidence -= 0.1
	}
	confidence = clamp(confidence, 0.1, 1.0)

	risk := RiskMedium
	switch {
	case confidence > 0.8 && len(externalRefs) == 0:
		risk = RiskLow
	case confidence < 0.5 || len(externalRefs) > 3:
		risk = RiskHigh
	}

	indent := leadingWhitespace(req.Lines[req.StartLine])
	paramList := strings.Join(params, ", ")
	callResultPrefix := ""
	if hasReturn && returnType != "void" {
		callResultPrefix = "const result = "
	}
	callSite := fmt.Sprintf("%s%s%s(%s);", indent, callResultPrefix, req.FunctionName, paramList)

	funcDef := fmt.Sprintf("%sfunction %s(%s)%s {\n%s\n%s}\n",
		indent, req.FunctionName, paramList, returnTypeAnnotation(returnType), selection, indent)

	change := RefactoringFileChange{
		FilePath: req.FilePath,
		Changes: []TextChange{
			{
				StartLine: req.StartLine, EndLine: req.EndLine,
				OldText: selection, NewText: callSite, Type: ChangeReplace,
			},
			{
				StartLine: req.EndLine + 1, EndLine: req.EndLine + 1,
				OldText: "", NewText: funcDef, Type: ChangeInsert,
			},
		},
	}

	var warnings []string
	for _, ref := range externalRefs {
		warnings = append(warnings, fmt.Sprintf("%q refers to a file-scope symbol and was not parameterized", ref))
	}

	return &RefactoringOperation{
		Type:        "extract_function",
		Description: fmt.Sprintf("extract lines %d-%d into function %q", req.StartLine+1, req.EndLine+1, req.FunctionName),
		Files:       []RefactoringFileChange{change},
		Preview:     fmt.Sprintf("confidence %.2f, %d parameter(s), return type %s", confidence, len(params), returnType),
		Safety:      SafetyAnalysis{Risk: risk, Warnings: warnings},
	}
}

func declaredIdentifiers(selection string) map[string]bool {
	decl := make(map[string]bool)
	for _, m := range declTargetRe.FindAllStringSubmatch(selection, -1) {
		decl[m[1]] = true
	}
	return decl
}

// jsKeywords excludes language keywords from the used-identifier set; a
// true AST walk (spec §4.5) never sees these as Identifier nodes, but the
// regex-based approximation here would otherwise misclassify them.
var jsKeywords = map[string]bool{
	"const": true, "let": true, "var": true, "function": true, "return": true,
	"if": true, "else": true, "for": true, "while": true, "do": true,
	"switch": true, "case": true, "break": true, "continue": true,
	"new": true, "delete": true, "typeof": true, "instanceof": true,
	"in": true, "of": true, "try": true, "catch": true, "finally": true,
	"throw": true, "class": true, "extends": true, "import": true,
	"export": true, "default": true, "async": true, "await": true,
	"yield": true, "void": true, "this": true, "super": true,
}

func usedIdentifiers(selection string) map[string]bool {
	used := make(map[string]bool)
	for _, m := range identifierRe.FindAllString(selection, -1) {
		if jsKeywords[m] {
			continue
		}
		used[m] = true
	}
	return used
}

// inferReturnType implements spec §4.5's shallow return-type heuristic
// table. It only runs when the caller didn't supply one. A bare identifier
// return expression is traced back to its own local declaration's RHS
// (e.g. `const count = 3; return count;` infers `number`, not `any`) —
// declarationRHS does the lookup, literalType classifies whatever
// expression it lands on.
func inferReturnType(selection string, hasReturn bool) string {
	if !hasReturn {
		return "void"
	}
	m := returnStatementRe.FindStringSubmatch(selection)
	if m == nil {
		return "any"
	}
	expr := strings.TrimSpace(m[1])
	if expr == "" {
		return "void"
	}
	if t := literalType(expr); t != "" {
		return t
	}
	if identifierOnlyRe.MatchString(expr) {
		if rhs, ok := declarationRHS(selection, expr); ok {
			if t := literalType(rhs); t != "" {
				return t
			}
		}
	}
	return "any"
}

// literalType classifies a single expression by its surface syntax. It
// returns "" for anything that isn't a recognizable literal (a call, a
// member access, another bare identifier), leaving the caller to decide
// what to do with that.
func literalType(expr string) string {
	switch {
	case strings.HasPrefix(expr, "{"):
		return "object"
	case strings.HasPrefix(expr, "["):
		return "any[]"
	case numberLiteralRe.MatchString(expr):
		return "number"
	case strings.HasPrefix(expr, `"`) || strings.HasPrefix(expr, "'") || strings.HasPrefix(expr, "`"):
		return "string"
	case expr == "true" || expr == "false":
		return "boolean"
	default:
		return ""
	}
}

// declarationRHS finds name's local `const`/`let`/`var` declaration inside
// selection and returns the expression on its right-hand side.
func declarationRHS(selection, name string) (string, bool) {
	re := regexp.MustCompile(`\b(?:const|let|var)\s+` + regexp.QuoteMeta(name) + `\s*=\s*([^;\n]+)`)
	m := re.FindStringSubmatch(selection)
	if m == nil {
		return "", false
	}
	return strings.TrimSpace(m[1]), true
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func leadingWhitespace(line string) string {
	i := 0
	for i < len(line) && (line[i] == ' ' || line[i] == '\t') {
		i++
	}
	return line[:i]
}

func returnTypeAnnotation(t string) string {
	if t == "" {
		return ""
	}
	return ": " + t
}

// ExtractVariableRequest is the input to ExtractVariable.
type ExtractVariableRequest struct {
	FilePath        string
	Lines           []string
	SelectionLine   int
	Expression      string
	VariableName    string
}

// ExtractVariable plans inserting `const name = <expr>;` above the
// selection and replacing the selection with name, per spec §4.5.
func ExtractVariable(req ExtractVariableRequest) *RefactoringOperation {
	indent := leadingWhitespace(req.Lines[req.SelectionLine])
	decl := fmt.Sprintf("%sconst %s = %s;", indent, req.VariableName, req.Expression)

	change := RefactoringFileChange{
		FilePath: req.FilePath,
		Changes: []TextChange{
			{StartLine: req.SelectionLine, EndLine: req.SelectionLine, NewText: decl, Type: ChangeInsert},
			{
				StartLine: req.SelectionLine, EndLine: req.SelectionLine,
				OldText: req.Expression, NewText: req.VariableName, Type: ChangeReplace,
			},
		},
	}

	return &RefactoringOperation{
		Type:        "extract_variable",
		Description: fmt.Sprintf("extract %q into variable %q", req.Expression, req.VariableName),
		Files:       []RefactoringFileChange{change},
		Preview:     decl,
		Safety:      SafetyAnalysis{Risk: RiskLow},
	}
}
