package history

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	_ "modernc.org/sqlite"

	"grok-cli/internal/planner"
)

// Store is the sqlite-backed operation ledger: an append-only table of
// completed-step audit records under <project>/.grok/operations/.
type Store struct {
	db   *sql.DB
	path string
	mu   sync.Mutex
}

// NewStore opens (creating if needed) the ledger database under grokDir,
// e.g. "<project>/.grok/operations".
func NewStore(grokDir string) (*Store, error) {
	dir := filepath.Join(grokDir, "operations")
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create operations dir: %w", err)
	}
	path := filepath.Join(dir, "ledger.db")

	db, err := sql.Open("sqlite", path+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("open ledger: %w", err)
	}

	s := &Store{db: db, path: path}
	if err := s.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("init ledger schema: %w", err)
	}
	return s, nil
}

// Close closes the underlying database handle.
func (s *Store) Close() error { return s.db.Close() }

// Path returns the ledger's file path.
func (s *Store) Path() string { return s.path }

func (s *Store) initSchema() error {
	const schema = `
	CREATE TABLE IF NOT EXISTS operations (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		timestamp DATETIME NOT NULL,
		type TEXT NOT NULL,
		description TEXT NOT NULL,
		files_modified_json TEXT,
		snapshot_bundle_json TEXT,
		metadata_json TEXT
	);
	CREATE INDEX IF NOT EXISTS idx_operations_timestamp ON operations(timestamp);
	CREATE INDEX IF NOT EXISTS idx_operations_type ON operations(type);
	`
	_, err := s.db.Exec(schema)
	return err
}

// Record implements planner.HistoryRecorder: it appends one completed-step
// audit record. Per spec §6, the ledger is append-only with a single
// writer. Record returns nothing: a failed insert is dropped, neither
// retried nor reported to the caller.
func (s *Store) Record(entry planner.HistoryEntry) {
	s.mu.Lock()
	defer s.mu.Unlock()

	filesJSON, _ := json.Marshal(entry.FilesModified)
	metaJSON, _ := json.Marshal(entry.Metadata)
	var snapshotJSON []byte
	if entry.SnapshotBundle != nil {
		snapshotJSON, _ = json.Marshal(entry.SnapshotBundle)
	}

	_, _ = s.db.Exec(`
		INSERT INTO operations (timestamp, type, description, files_modified_json, snapshot_bundle_json, metadata_json)
		VALUES (?, ?, ?, ?, ?, ?)
	`, time.Now(), entry.Type, entry.Description, string(filesJSON), string(snapshotJSON), string(metaJSON))
}

// Recent returns the most recently recorded entries, newest first, for
// the UI's undo/redo-style inspection view.
func (s *Store) Recent(limit int) ([]Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rows, err := s.db.Query(`
		SELECT id, timestamp, type, description, files_modified_json, snapshot_bundle_json, metadata_json
		FROM operations
		ORDER BY id DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("query recent operations: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var e Entry
		var filesJSON, snapshotJSON, metaJSON sql.NullString
		if err := rows.Scan(&e.ID, &e.Timestamp, &e.Type, &e.Description, &filesJSON, &snapshotJSON, &metaJSON); err != nil {
			continue
		}
		if filesJSON.Valid {
			_ = json.Unmarshal([]byte(filesJSON.String), &e.FilesModified)
		}
		if snapshotJSON.Valid {
			e.SnapshotBundle = snapshotJSON.String
		}
		if metaJSON.Valid {
			_ = json.Unmarshal([]byte(metaJSON.String), &e.Metadata)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// ByType filters the ledger to entries of a single step type, newest first.
func (s *Store) ByType(stepType string, limit int) ([]Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rows, err := s.db.Query(`
		SELECT id, timestamp, type, description, files_modified_json, snapshot_bundle_json, metadata_json
		FROM operations
		WHERE type = ?
		ORDER BY id DESC
		LIMIT ?
	`, stepType, limit)
	if err != nil {
		return nil, fmt.Errorf("query operations by type: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var e Entry
		var filesJSON, snapshotJSON, metaJSON sql.NullString
		if err := rows.Scan(&e.ID, &e.Timestamp, &e.Type, &e.Description, &filesJSON, &snapshotJSON, &metaJSON); err != nil {
			continue
		}
		if filesJSON.Valid {
			_ = json.Unmarshal([]byte(filesJSON.String), &e.FilesModified)
		}
		if snapshotJSON.Valid {
			e.SnapshotBundle = snapshotJSON.String
		}
		if metaJSON.Valid {
			_ = json.Unmarshal([]byte(metaJSON.String), &e.Metadata)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
