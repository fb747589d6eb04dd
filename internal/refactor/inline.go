package refactor

import (
	"fmt"
	"regexp"
	"strings"
)

// InlineRequest is the input to Inline.
type InlineRequest struct {
	FunctionName string
	Params       []string
	Body         string // the function's body, braces stripped
	DefFile      string
	DefStart     int
	DefEnd       int
	PreserveLeadingComments bool
}

var callSiteRe = func(name string) *regexp.Regexp {
	return regexp.MustCompile(`\b` + regexp.QuoteMeta(name) + `\s*\(([^)]*)\)`)
}

// CallSite is one place the function is invoked, found via symbol search.
type CallSite struct {
	File string
	Line int
	Text string
}

// Inline plans replacing every call site of a function with its body,
// substituting arguments positionally for parameters, and removing the
// original definition. Always high risk per spec §4.5.
func Inline(req InlineRequest, callSites []CallSite) *RefactoringOperation {
	re := callSiteRe(req.FunctionName)

	var files []RefactoringFileChange
	byFile := make(map[string][]TextChange)
	var order []string

	for _, site := range callSites {
		m := re.FindStringSubmatchIndex(site.Text)
		if m == nil {
			continue
		}
		argsRaw := site.Text[m[2]:m[3]]
		args := splitArgs(argsRaw)
		specialized := substituteParams(req.Body, req.Params, args)

		if _, seen := byFile[site.File]; !seen {
			order = append(order, site.File)
		}
		byFile[site.File] = append(byFile[site.File], TextChange{
			StartLine: site.Line, EndLine: site.Line,
			OldText: site.Text, NewText: specialized, Type: ChangeReplace,
		})
	}

	for _, f := range order {
		files = append(files, RefactoringFileChange{FilePath: f, Changes: byFile[f]})
	}

	files = append(files, RefactoringFileChange{
		FilePath: req.DefFile,
		Changes: []TextChange{{
			StartLine: req.DefStart, EndLine: req.DefEnd,
			NewText: "", Type: ChangeDelete,
		}},
	})

	return &RefactoringOperation{
		Type:        "inline_function",
		Description: fmt.Sprintf("inline %q at %d call site(s)", req.FunctionName, len(callSites)),
		Files:       files,
		Preview:     fmt.Sprintf("%d call site(s) replaced", len(callSites)),
		Safety:      SafetyAnalysis{Risk: RiskHigh, Reasons: []string{"inlining always carries high risk"}},
	}
}

func splitArgs(raw string) []string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}
	return parts
}

func substituteParams(body string, params, args []string) string {
	out := body
	for i, p := range params {
		if i >= len(args) {
			break
		}
		out = regexp.MustCompile(`\b`+regexp.QuoteMeta(p)+`\b`).ReplaceAllString(out, args[i])
	}
	return out
}
