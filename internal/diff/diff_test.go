package diff

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestComputeDiff_Addition(t *testing.T) {
	r := NewRenderer()
	fd := r.ComputeDiff("old.txt", "new.txt", "line1\nline2\nline3", "line1\nline2\nline2.5\nline3")

	require.Len(t, fd.Hunks, 1)
	assert.False(t, fd.IsNew)
	assert.False(t, fd.IsDelete)
	assert.True(t, hasLine(fd, LineAdded, "line2.5"))
}

func TestComputeDiff_Deletion(t *testing.T) {
	r := NewRenderer()
	fd := r.ComputeDiff("old.txt", "new.txt", "line1\nline2\nline3\nline4", "line1\nline2\nline4")

	require.Len(t, fd.Hunks, 1)
	assert.True(t, hasLine(fd, LineRemoved, "line3"))
}

func TestComputeDiff_NewFileIsFlagged(t *testing.T) {
	r := NewRenderer()
	fd := r.ComputeDiff("", "new.txt", "", "new file content\nline 2")
	assert.True(t, fd.IsNew)
}

func TestComputeDiff_DeletedFileIsFlagged(t *testing.T) {
	r := NewRenderer()
	fd := r.ComputeDiff("old.txt", "", "old file content\nline 2", "")
	assert.True(t, fd.IsDelete)
}

func TestComputeDiff_IdenticalContentHasNoHunks(t *testing.T) {
	r := NewRenderer()
	content := "line1\nline2\nline3"
	fd := r.ComputeDiff("file.txt", "file.txt", content, content)
	assert.Empty(t, fd.Hunks)
}

func TestComputeDiff_DistantChangesSplitIntoHunks(t *testing.T) {
	lines := make([]string, 15)
	for i := range lines {
		lines[i] = fmt.Sprintf("line%d", i+1)
	}
	oldContent := strings.Join(lines, "\n")
	changed := append([]string(nil), lines...)
	changed[2] = "CHANGED3"
	changed[12] = "CHANGED13"
	newContent := strings.Join(changed, "\n")

	r := NewRenderer()
	fd := r.ComputeDiff("old.txt", "new.txt", oldContent, newContent)
	assert.Len(t, fd.Hunks, 2)
}

func TestComputeDiff_SurroundsChangeWithContext(t *testing.T) {
	r := NewRenderer()
	fd := r.ComputeDiff("old.txt", "new.txt", "line1\nline2\nline3\nline4\nline5", "line1\nline2\nCHANGED\nline4\nline5")

	require.Len(t, fd.Hunks, 1)
	assert.True(t, hasLine(fd, LineContext, "line2"))
}

func TestComputeDiff_CacheIsKeyedByContentNotPath(t *testing.T) {
	r := NewRenderer()
	oldContent, newContent := "line1\nline2\nline3", "line1\nline2\nline3\nline4"

	first := r.ComputeDiff("old.txt", "new.txt", oldContent, newContent)
	second := r.ComputeDiff("old2.txt", "new2.txt", oldContent, newContent)

	assert.Equal(t, len(first.Hunks), len(second.Hunks))
	assert.Equal(t, "old2.txt", second.OldPath)
	assert.Equal(t, "new2.txt", second.NewPath)

	r.Reset()
	third := r.ComputeDiff("old.txt", "new.txt", oldContent, newContent)
	assert.Equal(t, len(first.Hunks), len(third.Hunks))
}

func TestComputeDiff_DetectsBlankLineInsertion(t *testing.T) {
	r := NewRenderer()
	fd := r.ComputeDiff("old.txt", "new.txt", "line1\n\nline3", "line1\n\n\nline3")
	assert.NotEmpty(t, fd.Hunks)
}

func TestComputeDiff_HunkCountsMatchLineTally(t *testing.T) {
	r := NewRenderer()
	fd := r.ComputeDiff("old.txt", "new.txt", "line1\nline2\nline3", "line1\nNEW\nline3")

	require.Len(t, fd.Hunks, 1)
	hunk := fd.Hunks[0]

	var wantOld, wantNew int
	for _, l := range hunk.Lines {
		if l.Type == LineRemoved || l.Type == LineContext {
			wantOld++
		}
		if l.Type == LineAdded || l.Type == LineContext {
			wantNew++
		}
	}
	assert.Equal(t, wantOld, hunk.OldCount)
	assert.Equal(t, wantNew, hunk.NewCount)
}

func TestInlineDiff_DetectsWordSubstitution(t *testing.T) {
	r := NewRenderer()
	edits := r.InlineDiff("The quick brown fox", "The quick red fox")

	require.NotEmpty(t, edits)
	found := false
	for _, e := range edits {
		if strings.Contains(e.Text, "red") || strings.Contains(e.Text, "brown") {
			found = true
		}
	}
	assert.True(t, found, "expected an edit touching the substituted word")
}

func hasLine(fd *FileDiff, typ LineType, content string) bool {
	for _, hunk := range fd.Hunks {
		for _, l := range hunk.Lines {
			if l.Type == typ && l.Content == content {
				return true
			}
		}
	}
	return false
}

func BenchmarkComputeDiff_Small(b *testing.B) {
	r := NewRenderer()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		r.ComputeDiff("old.txt", "new.txt", "line1\nline2\nline3", "line1\nCHANGED\nline3")
	}
}

func BenchmarkComputeDiff_Large(b *testing.B) {
	lines := make([]string, 1000)
	for i := range lines {
		lines[i] = "line content here " + string(rune(i))
	}
	oldContent := strings.Join(lines, "\n")
	lines[500] = "CHANGED"
	newContent := strings.Join(lines, "\n")

	r := NewRenderer()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		r.ComputeDiff("old.txt", "new.txt", oldContent, newContent)
	}
}
