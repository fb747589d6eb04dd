package agent

import (
	"regexp"
	"strings"
)

var complexityFilePathRe = regexp.MustCompile(`[\w\-./]+\.[a-z]{2,4}`)

var planTriggerKeywords = []string{
	"refactor", "move", "extract", "implement", "restructure",
	"redesign", "reorganize", "migrate", "convert", "transform",
}
var architectureKeywords = []string{"architecture", "design", "pattern", "dependency", "module"}
var spanKeywords = []string{"across", "throughout"}

// shouldCreatePlan scores a request per spec §4.7 and reports whether the
// Agent Core should route it through the Task Planner instead of the
// direct tool loop. The threshold is 3.
func shouldCreatePlan(message string) bool {
	return complexityScore(message) >= 3
}

func complexityScore(message string) int {
	lower := strings.ToLower(message)
	score := 0

	if containsAny(lower, planTriggerKeywords) {
		score += 2
	}
	if len(dedupeStrings(complexityFilePathRe.FindAllString(message, -1))) >= 2 {
		score += 2
	}
	if containsAny(lower, architectureKeywords) {
		score++
	}
	if containsAny(lower, spanKeywords) {
		score++
	}
	return score
}

func containsAny(haystack string, needles []string) bool {
	for _, n := range needles {
		if strings.Contains(haystack, n) {
			return true
		}
	}
	return false
}

func dedupeStrings(in []string) []string {
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
