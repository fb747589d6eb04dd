package refactor

import "strings"

// ApplyChanges renders a file's new full content by splicing a
// RefactoringFileChange's spans into its current lines. Changes are
// applied in descending offset order so earlier spans' positions stay
// valid as later ones are spliced in; Move/Rename/Extract/Inline only
// ever emit non-overlapping spans for a single file; with a nil risk of
// overlap, the order is purely mechanical.
func ApplyChanges(lines []string, changes []TextChange) string {
	content := strings.Join(lines, "\n")
	offsets := make([]int, len(lines)+1)
	for i, l := range lines {
		offsets[i+1] = offsets[i] + len(l) + 1 // +1 for the newline ApplyChanges assumes
	}
	toOffset := func(line, col int) int {
		if line < 0 {
			line = 0
		}
		if line >= len(offsets) {
			line = len(offsets) - 1
		}
		o := offsets[line] + col
		if o > len(content) {
			o = len(content)
		}
		if o < 0 {
			o = 0
		}
		return o
	}

	ordered := make([]TextChange, len(changes))
	copy(ordered, changes)
	for i := 0; i < len(ordered); i++ {
		for j := i + 1; j < len(ordered); j++ {
			if toOffset(ordered[j].StartLine, ordered[j].StartColumn) > toOffset(ordered[i].StartLine, ordered[i].StartColumn) {
				ordered[i], ordered[j] = ordered[j], ordered[i]
			}
		}
	}

	for _, c := range ordered {
		start := toOffset(c.StartLine, c.StartColumn)
		end := toOffset(c.EndLine, c.EndColumn)
		if end < start {
			end = start
		}
		content = content[:start] + c.NewText + content[end:]
	}
	return content
}
