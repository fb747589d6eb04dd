package history

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"grok-cli/internal/planner"
)

func TestNewStore_CreatesLedgerFile(t *testing.T) {
	t.Parallel()

	tmpDir := t.TempDir()
	store, err := NewStore(tmpDir)
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	assert.NotEmpty(t, store.Path())
}

func TestRecord_AppendsVisibleInRecent(t *testing.T) {
	t.Parallel()

	tmpDir := t.TempDir()
	store, err := NewStore(tmpDir)
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	store.Record(planner.HistoryEntry{
		Type:          "refactor",
		Description:   "renamed Foo to Bar",
		FilesModified: []string{"a.go", "b.go"},
		Metadata:      map[string]any{"stepID": "step-1"},
	})
	store.Record(planner.HistoryEntry{
		Type:        "create",
		Description: "added new handler",
	})

	entries, err := store.Recent(10)
	require.NoError(t, err)
	require.Len(t, entries, 2)

	// newest first
	assert.Equal(t, "create", entries[0].Type)
	assert.Equal(t, "refactor", entries[1].Type)
	assert.Equal(t, []string{"a.go", "b.go"}, entries[1].FilesModified)
	assert.Equal(t, "step-1", entries[1].Metadata["stepID"])
}

func TestRecent_RespectsLimit(t *testing.T) {
	t.Parallel()

	tmpDir := t.TempDir()
	store, err := NewStore(tmpDir)
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	for i := 0; i < 5; i++ {
		store.Record(planner.HistoryEntry{Type: "test", Description: "step"})
	}

	entries, err := store.Recent(2)
	require.NoError(t, err)
	assert.Len(t, entries, 2)
}

func TestByType_FiltersEntries(t *testing.T) {
	t.Parallel()

	tmpDir := t.TempDir()
	store, err := NewStore(tmpDir)
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	store.Record(planner.HistoryEntry{Type: "refactor", Description: "a"})
	store.Record(planner.HistoryEntry{Type: "create", Description: "b"})
	store.Record(planner.HistoryEntry{Type: "refactor", Description: "c"})

	entries, err := store.ByType("refactor", 10)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	for _, e := range entries {
		assert.Equal(t, "refactor", e.Type)
	}
}

func TestRecord_PreservesRollbackSnapshot(t *testing.T) {
	t.Parallel()

	tmpDir := t.TempDir()
	store, err := NewStore(tmpDir)
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	store.Record(planner.HistoryEntry{
		Type:        "move",
		Description: "moved file",
		SnapshotBundle: &planner.RollbackPoint{
			StepID:        "step-1",
			FileSnapshots: map[string]string{"a.go": "package a\n"},
		},
	})

	entries, err := store.Recent(1)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Contains(t, entries[0].SnapshotBundle, "step-1")
	assert.Contains(t, entries[0].SnapshotBundle, "package a")
}
