// Package history persists the append-only operation ledger the Plan
// Executor writes to after each completed step (the Agent Core hands the
// store to the executor), per
// spec §4.6's "Operation history" collaborator and §6's ledger rules.
package history

import "time"

// Entry is one audit record read back from the ledger.
type Entry struct {
	ID             int64
	Timestamp      time.Time
	Type           string
	Description    string
	FilesModified  []string
	SnapshotBundle string // JSON-encoded planner.RollbackPoint, opaque here
	Metadata       map[string]any
}
