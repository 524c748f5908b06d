// Package storage keeps a measurement dataset in a SQLite database.
//
// The import CLI replaces the stored table in a single transaction; the
// dashboard reads it back once at startup in insertion order. Rows are
// never updated in place.
package storage

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/rewired-gh/bodyweight-dash/internal/models"
)

const dateLayout = "2006-01-02"

const schema = `
CREATE TABLE IF NOT EXISTS measurements (
	seq         INTEGER PRIMARY KEY AUTOINCREMENT,
	id          TEXT NOT NULL UNIQUE,
	subject     TEXT NOT NULL,
	grp         TEXT NOT NULL,
	measured_on TEXT NOT NULL,
	weight      REAL NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_measurements_subject ON measurements(subject);
CREATE INDEX IF NOT EXISTS idx_measurements_grp ON measurements(grp);

CREATE TABLE IF NOT EXISTS imports (
	id          TEXT PRIMARY KEY,
	source      TEXT NOT NULL,
	row_count   INTEGER NOT NULL,
	imported_at TEXT NOT NULL
);
`

// Storage is a SQLite-backed measurement store
type Storage struct {
	db     *sql.DB
	dbPath string
}

// ImportInfo describes the most recent import
type ImportInfo struct {
	ID         string
	Source     string
	RowCount   int
	ImportedAt time.Time
}

// New opens (creating if needed) the database at dbPath. ":memory:" is accepted for tests.
func New(dbPath string) (*Storage, error) {
	if dbPath != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
			return nil, fmt.Errorf("failed to create data directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// A single connection keeps ":memory:" databases shared across calls.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to apply schema: %w", err)
	}

	return &Storage{db: db, dbPath: dbPath}, nil
}

// Close releases the database handle
func (s *Storage) Close() error {
	return s.db.Close()
}

// ReplaceAll swaps the stored dataset for records, atomically.
func (s *Storage) ReplaceAll(source string, records []models.Measurement) (*ImportInfo, error) {
	for i := range records {
		if err := records[i].Validate(); err != nil {
			return nil, fmt.Errorf("invalid measurement at index %d: %w", i, err)
		}
	}

	tx, err := s.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.Exec(`DELETE FROM measurements`); err != nil {
		return nil, fmt.Errorf("failed to clear measurements: %w", err)
	}

	stmt, err := tx.Prepare(`INSERT INTO measurements (id, subject, grp, measured_on, weight) VALUES (?, ?, ?, ?, ?)`)
	if err != nil {
		return nil, fmt.Errorf("failed to prepare insert: %w", err)
	}
	defer stmt.Close()

	for _, m := range records {
		if _, err := stmt.Exec(uuid.NewString(), m.Subject, m.Group, m.Date.Format(dateLayout), m.Weight); err != nil {
			return nil, fmt.Errorf("failed to insert measurement: %w", err)
		}
	}

	info := &ImportInfo{
		ID:         uuid.NewString(),
		Source:     source,
		RowCount:   len(records),
		ImportedAt: time.Now().UTC(),
	}
	if _, err := tx.Exec(`INSERT INTO imports (id, source, row_count, imported_at) VALUES (?, ?, ?, ?)`,
		info.ID, info.Source, info.RowCount, info.ImportedAt.Format(time.RFC3339Nano)); err != nil {
		return nil, fmt.Errorf("failed to record import: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit import: %w", err)
	}
	return info, nil
}

// LoadAll returns every stored measurement in insertion order
func (s *Storage) LoadAll() ([]models.Measurement, error) {
	rows, err := s.db.Query(`SELECT subject, grp, measured_on, weight FROM measurements ORDER BY seq`)
	if err != nil {
		return nil, fmt.Errorf("failed to query measurements: %w", err)
	}
	defer rows.Close()

	var records []models.Measurement
	for rows.Next() {
		var m models.Measurement
		var day string
		if err := rows.Scan(&m.Subject, &m.Group, &day, &m.Weight); err != nil {
			return nil, fmt.Errorf("failed to scan measurement: %w", err)
		}
		m.Date, err = time.Parse(dateLayout, day)
		if err != nil {
			return nil, fmt.Errorf("stored measurement has invalid date %q: %w", day, err)
		}
		records = append(records, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read measurements: %w", err)
	}
	return records, nil
}

// LoadDataset wraps LoadAll in a Dataset identified by the latest import.
func (s *Storage) LoadDataset() (*models.Dataset, error) {
	records, err := s.LoadAll()
	if err != nil {
		return nil, err
	}

	id := uuid.NewString()
	info, err := s.LastImport()
	if err != nil {
		return nil, err
	}
	if info != nil {
		id = info.ID
	}
	return models.NewDataset(id, "sqlite:"+s.dbPath, records), nil
}

// LastImport returns the most recent import, or nil if nothing was imported
func (s *Storage) LastImport() (*ImportInfo, error) {
	var info ImportInfo
	var importedAt string
	err := s.db.QueryRow(`SELECT id, source, row_count, imported_at FROM imports ORDER BY rowid DESC LIMIT 1`).
		Scan(&info.ID, &info.Source, &info.RowCount, &importedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query imports: %w", err)
	}
	info.ImportedAt, err = time.Parse(time.RFC3339Nano, importedAt)
	if err != nil {
		return nil, fmt.Errorf("invalid import timestamp %q: %w", importedAt, err)
	}
	return &info, nil
}

// Count returns the number of stored measurements
func (s *Storage) Count() (int, error) {
	var n int
	if err := s.db.QueryRow(`SELECT COUNT(*) FROM measurements`).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count measurements: %w", err)
	}
	return n, nil
}
