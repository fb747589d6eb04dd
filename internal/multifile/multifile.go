// Package multifile implements the Multi-File Editor: a transactional
// batch of create/edit/delete/move operations applied sequentially with
// parallel pre-snapshotting and automatic rollback on the first failure.
package multifile

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"grok-cli/internal/diff"
	"grok-cli/internal/logging"
	"grok-cli/internal/tools"
)

const defaultReadPoolSize = 8

// OperationType names one of the four operations the editor supports.
type OperationType string

const (
	OpEdit   OperationType = "edit"
	OpCreate OperationType = "create"
	OpDelete OperationType = "delete"
	OpMove   OperationType = "move"
)

// Operation is one step of a multi-file transaction.
type Operation struct {
	Type     OperationType
	FilePath string
	// Content is the new full file content for create, or the new
	// content to write for edit. Unused for delete.
	Content string
	// DestPath is the move target, used only when Type == OpMove.
	DestPath string
}

// AppliedOperation records one operation that was applied, for rollback
// bookkeeping and for the transaction result's Applied list.
type AppliedOperation struct {
	Index     int
	Operation Operation
	Diff      *diff.FileDiff
}

// TransactionResult is the output contract of Apply.
type TransactionResult struct {
	Success bool
	Applied []AppliedOperation
	Error   *tools.SelfCorrectError
}

// Editor applies batches of file operations transactionally.
type Editor struct {
	Root         string
	ReadPoolSize int
}

// New constructs an Editor rooted at root.
func New(root string) *Editor {
	return &Editor{Root: root, ReadPoolSize: defaultReadPoolSize}
}

// Apply runs the protocol of spec §4.4: pre-snapshot every referenced
// existing file in parallel, then apply operations in order; on the
// first failure, restore every previously-applied operation from its
// pre-snapshot (also in parallel) and return a SelfCorrectError.
func (ed *Editor) Apply(ops []Operation) TransactionResult {
	pool := ed.ReadPoolSize
	if pool <= 0 {
		pool = defaultReadPoolSize
	}

	snapshots := ed.preSnapshot(ops, pool)

	var applied []AppliedOperation
	for i, op := range ops {
		d, err := ed.applyOne(op)
		if err != nil {
			logging.Engine("multi_file_edit: operation %d/%d failed on %s: %v", i+1, len(ops), op.FilePath, err)
			ed.rollback(applied, snapshots, pool)
			return TransactionResult{
				Success: false,
				Error: &tools.SelfCorrectError{
					Message:            fmt.Sprintf("operation %d of %d failed on %s: %v", i+1, len(ops), op.FilePath, err),
					OriginalTool:       "multi_file_edit",
					SuggestedFallbacks: []string{"view_file", "str_replace_editor", "code_analysis"},
					Hint:               "the transaction was rolled back; inspect the failing file before retrying",
					Metadata: map[string]interface{}{
						"failedOperation": i + 1,
						"totalOperations": len(ops),
						"failedFile":      op.FilePath,
						"operationType":   string(op.Type),
					},
				},
			}
		}
		applied = append(applied, AppliedOperation{Index: i, Operation: op, Diff: d})
	}

	return TransactionResult{Success: true, Applied: applied}
}

// preSnapshot reads the current content of every file referenced by ops
// that already exists, concurrently, bounded by pool.
func (ed *Editor) preSnapshot(ops []Operation, pool int) map[string]string {
	paths := make(map[string]bool)
	for _, op := range ops {
		paths[op.FilePath] = true
		if op.Type == OpMove {
			paths[op.DestPath] = true
		}
	}

	snapshots := make(map[string]string)
	var mu sync.Mutex
	sem := make(chan struct{}, pool)
	var wg sync.WaitGroup

	for p := range paths {
		wg.Add(1)
		sem <- struct{}{}
		go func(p string) {
			defer wg.Done()
			defer func() { <-sem }()
			data, err := os.ReadFile(ed.abs(p))
			if err != nil {
				return // doesn't exist yet; nothing to snapshot
			}
			mu.Lock()
			snapshots[p] = string(data)
			mu.Unlock()
		}(p)
	}
	wg.Wait()
	return snapshots
}

func (ed *Editor) abs(rel string) string {
	return filepath.Join(ed.Root, rel)
}

func (ed *Editor) applyOne(op Operation) (*diff.FileDiff, error) {
	switch op.Type {
	case OpCreate:
		if err := os.MkdirAll(filepath.Dir(ed.abs(op.FilePath)), 0755); err != nil {
			return nil, err
		}
		if err := os.WriteFile(ed.abs(op.FilePath), []byte(op.Content), 0644); err != nil {
			return nil, err
		}
		d := diff.ComputeDiff(op.FilePath, op.FilePath, "", op.Content)
		return d, nil

	case OpEdit:
		old, err := os.ReadFile(ed.abs(op.FilePath))
		if err != nil {
			return nil, err
		}
		if err := os.WriteFile(ed.abs(op.FilePath), []byte(op.Content), 0644); err != nil {
			return nil, err
		}
		d := diff.ComputeDiff(op.FilePath, op.FilePath, string(old), op.Content)
		return d, nil

	case OpDelete:
		old, err := os.ReadFile(ed.abs(op.FilePath))
		if err != nil {
			return nil, err
		}
		if err := os.Remove(ed.abs(op.FilePath)); err != nil {
			return nil, err
		}
		d := diff.ComputeDiff(op.FilePath, op.FilePath, string(old), "")
		return d, nil

	case OpMove:
		if err := os.MkdirAll(filepath.Dir(ed.abs(op.DestPath)), 0755); err != nil {
			return nil, err
		}
		if err := os.Rename(ed.abs(op.FilePath), ed.abs(op.DestPath)); err != nil {
			return nil, err
		}
		return nil, nil

	default:
		return nil, fmt.Errorf("unknown operation type: %s", op.Type)
	}
}

// rollback restores every applied operation's target file(s) from the
// pre-snapshot map, in parallel, bounded by pool. Files that had no
// snapshot (they didn't exist pre-transaction) are removed.
func (ed *Editor) rollback(applied []AppliedOperation, snapshots map[string]string, pool int) {
	paths := make(map[string]bool)
	for _, a := range applied {
		paths[a.Operation.FilePath] = true
		if a.Operation.Type == OpMove {
			paths[a.Operation.DestPath] = true
		}
	}

	sem := make(chan struct{}, pool)
	var wg sync.WaitGroup
	for p := range paths {
		wg.Add(1)
		sem <- struct{}{}
		go func(p string) {
			defer wg.Done()
			defer func() { <-sem }()
			if content, ok := snapshots[p]; ok {
				os.MkdirAll(filepath.Dir(ed.abs(p)), 0755)
				if err := os.WriteFile(ed.abs(p), []byte(content), 0644); err != nil {
					logging.EngineWarn("multi_file_edit: rollback failed to restore %s: %v", p, err)
				}
			} else {
				os.Remove(ed.abs(p))
			}
		}(p)
	}
	wg.Wait()
}
