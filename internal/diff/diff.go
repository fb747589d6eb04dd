// Package diff renders unified-diff previews for the Multi-File Editor
// (spec §4.4) and the fuzzy text-editing primitive's match reporting
// (spec §4.3), on top of sergi/go-diff's line-level diff engine.
package diff

import (
	"strings"
	"sync"

	"github.com/sergi/go-diff/diffmatchpatch"
)

// LineType tags one rendered line of a Hunk.
type LineType int

const (
	LineContext LineType = iota
	LineAdded
	LineRemoved
)

// Line is one line inside a Hunk, numbered against whichever side it
// belongs to (old for context/removed, new for added).
type Line struct {
	LineNum int
	Content string
	Type    LineType
}

// Hunk is one contiguous block of changes plus surrounding context.
type Hunk struct {
	OldStart int
	OldCount int
	NewStart int
	NewCount int
	Lines    []Line
}

// FileDiff is the rendered change to a single file.
type FileDiff struct {
	OldPath  string
	NewPath  string
	Hunks    []Hunk
	IsNew    bool
	IsDelete bool
}

// contextWindow is how many unchanged lines surround each hunk.
const contextWindow = 3

// Renderer computes FileDiffs and caches results by content pair so
// repeated previews of the same before/after text (common when a plan
// step is retried) skip re-diffing.
type Renderer struct {
	dmp   *diffmatchpatch.DiffMatchPatch
	cache sync.Map // contentPair -> []Hunk
}

type contentPair struct {
	oldHash uint64
	newHash uint64
}

// NewRenderer builds a Renderer with semantic cleanup enabled and
// timeouts disabled, favoring exact results over bounded latency —
// previews run on already-read, in-memory content.
func NewRenderer() *Renderer {
	dmp := diffmatchpatch.New()
	dmp.DiffTimeout = 0
	return &Renderer{dmp: dmp}
}

// DefaultRenderer is shared by the package-level ComputeDiff helper.
var DefaultRenderer = NewRenderer()

// ComputeDiff renders a FileDiff using the package's shared Renderer.
func ComputeDiff(oldPath, newPath, oldContent, newContent string) *FileDiff {
	return DefaultRenderer.ComputeDiff(oldPath, newPath, oldContent, newContent)
}

// ComputeDiff renders the line-level hunks between oldContent and
// newContent, labeling the result as a create or delete when one side
// is empty.
func (r *Renderer) ComputeDiff(oldPath, newPath, oldContent, newContent string) *FileDiff {
	fd := &FileDiff{OldPath: oldPath, NewPath: newPath, IsNew: oldContent == "", IsDelete: newContent == ""}

	key := contentPair{oldHash: fnv1a(oldContent), newHash: fnv1a(newContent)}
	if cached, ok := r.cache.Load(key); ok {
		fd.Hunks = cached.([]Hunk)
		return fd
	}

	a, b, lines := r.dmp.DiffLinesToChars(oldContent, newContent)
	diffs := r.dmp.DiffCharsToLines(r.dmp.DiffCleanupSemantic(r.dmp.DiffMain(a, b, false)), lines)

	hunks := buildHunks(flattenLines(diffs), contextWindow)
	r.cache.Store(key, hunks)
	fd.Hunks = hunks
	return fd
}

// InlineDiff returns the word-level edit script between two lines, for
// highlighting the changed span within a modified line.
func (r *Renderer) InlineDiff(oldLine, newLine string) []diffmatchpatch.Diff {
	return r.dmp.DiffCleanupSemantic(r.dmp.DiffMain(oldLine, newLine, false))
}

// Reset drops every cached diff.
func (r *Renderer) Reset() { r.cache = sync.Map{} }

// lineEdit is one line carried by a diffmatchpatch.Diff, tagged with
// its position on whichever side(s) it belongs to.
type lineEdit struct {
	typ     LineType
	oldLine int // -1 if this line doesn't exist on the old side
	newLine int // -1 if this line doesn't exist on the new side
	content string
}

// flattenLines expands diffmatchpatch's per-diff text blocks into one
// lineEdit per line, tracking running line counters on both sides.
func flattenLines(diffs []diffmatchpatch.Diff) []lineEdit {
	var edits []lineEdit
	oldLine, newLine := 0, 0

	for _, d := range diffs {
		lines := strings.Split(d.Text, "\n")
		if len(lines) > 0 && lines[len(lines)-1] == "" {
			lines = lines[:len(lines)-1]
		}

		for _, content := range lines {
			switch d.Type {
			case diffmatchpatch.DiffEqual:
				edits = append(edits, lineEdit{LineContext, oldLine, newLine, content})
				oldLine++
				newLine++
			case diffmatchpatch.DiffDelete:
				edits = append(edits, lineEdit{LineRemoved, oldLine, -1, content})
				oldLine++
			case diffmatchpatch.DiffInsert:
				edits = append(edits, lineEdit{LineAdded, -1, newLine, content})
				newLine++
			}
		}
	}
	return edits
}

// buildHunks groups a flattened edit stream into hunks, each padded
// with up to contextLines of unchanged lines on either side and split
// wherever two changes are separated by more than that much context.
func buildHunks(edits []lineEdit, contextLines int) []Hunk {
	var hunks []Hunk
	var open *Hunk
	lastChange := -1

	flush := func() {
		if open != nil && len(open.Lines) > 0 {
			tallyHunk(open)
			hunks = append(hunks, *open)
		}
		open = nil
	}

	for i, e := range edits {
		if e.typ != LineContext {
			if open == nil {
				open = startHunk(edits, i, contextLines)
			}
			lastChange = i
		}

		if open == nil {
			continue
		}

		lineNum := e.oldLine + 1
		if e.typ == LineAdded {
			lineNum = e.newLine + 1
		}
		open.Lines = append(open.Lines, Line{LineNum: lineNum, Content: e.content, Type: e.typ})

		if e.typ == LineContext && i-lastChange > contextLines {
			if trimTo := len(open.Lines) - (i - lastChange - contextLines); trimTo > 0 && trimTo < len(open.Lines) {
				open.Lines = open.Lines[:trimTo]
			}
			flush()
		}
	}
	flush()

	return hunks
}

// startHunk opens a new Hunk anchored at edits[at], prepending up to
// contextLines of preceding unchanged lines.
func startHunk(edits []lineEdit, at, contextLines int) *Hunk {
	h := &Hunk{}
	start := at - contextLines
	if start < 0 {
		start = 0
	}
	for j := start; j < at; j++ {
		if edits[j].typ == LineContext {
			h.Lines = append(h.Lines, Line{LineNum: edits[j].oldLine + 1, Content: edits[j].content, Type: LineContext})
		}
	}
	if start < len(edits) {
		h.OldStart, h.NewStart = edits[start].oldLine+1, edits[start].newLine+1
		if edits[start].oldLine < 0 {
			h.OldStart = 0
		}
		if edits[start].newLine < 0 {
			h.NewStart = 0
		}
	}
	return h
}

func tallyHunk(h *Hunk) {
	for _, l := range h.Lines {
		if l.Type == LineRemoved || l.Type == LineContext {
			h.OldCount++
		}
		if l.Type == LineAdded || l.Type == LineContext {
			h.NewCount++
		}
	}
}

// fnv1a hashes s for the renderer's content-pair cache key.
func fnv1a(s string) uint64 {
	const (
		offset = 14695981039346656037
		prime  = 1099511628211
	)
	h := uint64(offset)
	for i := 0; i < len(s); i++ {
		h ^= uint64(s[i])
		h *= prime
	}
	return h
}
