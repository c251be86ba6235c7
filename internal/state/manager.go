// Package state persists run history and document checksums in a local
// sqlite database.
package state

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/ardietz/confsync/internal/domain"
)

// Manager handles state persistence and run history
type Manager struct {
	db *sql.DB
}

// RunRecord summarizes one sync run
type RunRecord struct {
	ID         int64
	RunID      string
	SpaceKey   string
	StartedAt  time.Time
	FinishedAt time.Time
	Status     string // "success", "failed", "partial"
	Created    int
	Updated    int
	Unchanged  int
	Skipped    int
	Failed     int
}

// NewManager opens or creates the database at path
func NewManager(path string) (*Manager, error) {
	if path == "" {
		return nil, fmt.Errorf("state database path cannot be empty")
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create state directory: %w", err)
	}

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Limit connection pool to prevent "database is locked" errors
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if _, err := db.Exec("PRAGMA journal_mode=WAL; PRAGMA busy_timeout=5000"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable WAL mode and busy timeout: %w", err)
	}

	manager := &Manager{db: db}

	if err := manager.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return manager, nil
}

func (m *Manager) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS runs (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		run_id TEXT NOT NULL,
		space_key TEXT NOT NULL,
		started_at TIMESTAMP NOT NULL,
		finished_at TIMESTAMP NOT NULL,
		status TEXT NOT NULL,
		created INTEGER DEFAULT 0,
		updated INTEGER DEFAULT 0,
		unchanged INTEGER DEFAULT 0,
		skipped INTEGER DEFAULT 0,
		failed INTEGER DEFAULT 0,
		recorded_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	);

	CREATE TABLE IF NOT EXISTS documents (
		path TEXT PRIMARY KEY,
		checksum TEXT NOT NULL,
		page_id TEXT NOT NULL,
		synced_at TIMESTAMP NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_runs_started ON runs(started_at DESC);
	CREATE INDEX IF NOT EXISTS idx_runs_status ON runs(status);
	`

	_, err := m.db.Exec(schema)
	return err
}

// SaveRun records a finished sync run. Status is derived from the report.
func (m *Manager) SaveRun(spaceKey string, report *domain.SyncReport) error {
	stats := report.Stats()
	status := "success"
	switch {
	case stats.Failed > 0 && stats.Created+stats.Updated+stats.Unchanged == 0:
		status = "failed"
	case stats.Failed > 0:
		status = "partial"
	}

	query := `
		INSERT INTO runs (run_id, space_key, started_at, finished_at, status,
			created, updated, unchanged, skipped, failed)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err := m.db.Exec(query,
		report.RunID,
		spaceKey,
		report.StartedAt,
		report.FinishedAt,
		status,
		stats.Created,
		stats.Updated,
		stats.Unchanged,
		stats.Skipped,
		stats.Failed,
	)
	if err != nil {
		return fmt.Errorf("failed to save run record: %w", err)
	}

	return nil
}

// RecentRuns retrieves the most recent run records
func (m *Manager) RecentRuns(limit int) ([]RunRecord, error) {
	if limit <= 0 {
		return nil, fmt.Errorf("limit must be positive, got %d", limit)
	}

	query := `
		SELECT id, run_id, space_key, started_at, finished_at, status,
			created, updated, unchanged, skipped, failed
		FROM runs
		ORDER BY started_at DESC
		LIMIT ?
	`

	rows, err := m.db.Query(query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query run history: %w", err)
	}
	defer rows.Close()

	var records []RunRecord
	for rows.Next() {
		var r RunRecord
		err := rows.Scan(
			&r.ID,
			&r.RunID,
			&r.SpaceKey,
			&r.StartedAt,
			&r.FinishedAt,
			&r.Status,
			&r.Created,
			&r.Updated,
			&r.Unchanged,
			&r.Skipped,
			&r.Failed,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan run record: %w", err)
		}
		records = append(records, r)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating run records: %w", err)
	}

	return records, nil
}

// LastSuccess retrieves the most recent fully successful run, or nil
func (m *Manager) LastSuccess() (*RunRecord, error) {
	query := `
		SELECT id, run_id, space_key, started_at, finished_at, status,
			created, updated, unchanged, skipped, failed
		FROM runs
		WHERE status = 'success'
		ORDER BY started_at DESC
		LIMIT 1
	`

	var r RunRecord
	err := m.db.QueryRow(query).Scan(
		&r.ID,
		&r.RunID,
		&r.SpaceKey,
		&r.StartedAt,
		&r.FinishedAt,
		&r.Status,
		&r.Created,
		&r.Updated,
		&r.Unchanged,
		&r.Skipped,
		&r.Failed,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query last success: %w", err)
	}

	return &r, nil
}

// Checksum returns the recorded content hash for a document path.
// Implements the sync engine's checksum store.
func (m *Manager) Checksum(path string) (string, bool) {
	var sum string
	err := m.db.QueryRow(`SELECT checksum FROM documents WHERE path = ?`, path).Scan(&sum)
	if err != nil {
		return "", false
	}
	return sum, true
}

// SetChecksum records the content hash and page ID for a document path
func (m *Manager) SetChecksum(path, sum, pageID string) error {
	query := `
		INSERT INTO documents (path, checksum, page_id, synced_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(path) DO UPDATE SET
			checksum = excluded.checksum,
			page_id = excluded.page_id,
			synced_at = excluded.synced_at
	`

	_, err := m.db.Exec(query, path, sum, pageID, time.Now())
	if err != nil {
		return fmt.Errorf("failed to save document checksum: %w", err)
	}
	return nil
}

// ForgetDocument drops the stored checksum for a path, forcing the next
// run to re-upload it
func (m *Manager) ForgetDocument(path string) error {
	_, err := m.db.Exec(`DELETE FROM documents WHERE path = ?`, path)
	if err != nil {
		return fmt.Errorf("failed to forget document: %w", err)
	}
	return nil
}

// Close closes the database connection
func (m *Manager) Close() error {
	if m.db != nil {
		return m.db.Close()
	}
	return nil
}
