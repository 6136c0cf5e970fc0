// Package history keeps an append-only log of generated-command runs.
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

	"github.com/doeshing/ergo/internal/domain"
	"github.com/doeshing/ergo/internal/ports"
)

// SQLiteStore persists history in a SQLite database. When the database
// cannot be opened it degrades to a FileStore next to it.
type SQLiteStore struct {
	db       *sql.DB
	path     string
	fallback *FileStore
	mu       sync.Mutex
}

// NewSQLiteStore creates (or opens) dir/history.db.
func NewSQLiteStore(dir string) *SQLiteStore {
	path := filepath.Join(dir, domain.HistoryDBName)
	fallback := NewFileStore(filepath.Join(dir, domain.HistoryJSONLName))
	if err := os.MkdirAll(dir, domain.DirectoryPermissions); err != nil {
		return &SQLiteStore{path: path, fallback: fallback}
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return &SQLiteStore{path: path, fallback: fallback}
	}
	store := &SQLiteStore{db: db, path: path, fallback: fallback}
	if err := store.init(); err != nil {
		db.Close()
		return &SQLiteStore{path: path, fallback: fallback}
	}
	return store
}

func (s *SQLiteStore) init() error {
	if s.db == nil {
		return os.ErrInvalid
	}
	_, err := s.db.Exec(`CREATE TABLE IF NOT EXISTS executions (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		timestamp TEXT,
		command_name TEXT,
		args TEXT,
		success INTEGER,
		exit_code INTEGER,
		duration_ms INTEGER,
		stderr_bytes INTEGER
	);`)
	return err
}

// Save inserts a new record.
func (s *SQLiteStore) Save(record domain.HistoryRecord) error {
	if s.db == nil {
		return s.fallback.Save(record)
	}
	args, err := json.Marshal(record.Args)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	_, err = s.db.Exec(`INSERT INTO executions
		(timestamp, command_name, args, success, exit_code, duration_ms, stderr_bytes)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		record.Timestamp.UTC().Format(time.RFC3339),
		record.CommandName,
		string(args),
		boolToInt(record.Success),
		record.ExitCode,
		record.DurationMS,
		record.StderrBytes,
	)
	if err != nil {
		return fmt.Errorf("insert history: %w", err)
	}
	return nil
}

// Recent returns up to limit records, newest first. limit <= 0 means all.
func (s *SQLiteStore) Recent(limit int) ([]domain.HistoryRecord, error) {
	if s.db == nil {
		return s.fallback.Recent(limit)
	}
	query := "SELECT timestamp, command_name, args, success, exit_code, duration_ms, stderr_bytes FROM executions ORDER BY id DESC"
	var params []interface{}
	if limit > 0 {
		query += " LIMIT ?"
		params = append(params, limit)
	}
	rows, err := s.db.Query(query, params...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var records []domain.HistoryRecord
	for rows.Next() {
		var rec domain.HistoryRecord
		var ts, args string
		var success int
		if err := rows.Scan(&ts, &rec.CommandName, &args, &success, &rec.ExitCode, &rec.DurationMS, &rec.StderrBytes); err != nil {
			return nil, err
		}
		if t, err := time.Parse(time.RFC3339, ts); err == nil {
			rec.Timestamp = t
		}
		_ = json.Unmarshal([]byte(args), &rec.Args)
		rec.Success = success == 1
		records = append(records, rec)
	}
	return records, rows.Err()
}

// Close releases the database handle.
func (s *SQLiteStore) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Path returns the active backing path.
func (s *SQLiteStore) Path() string {
	if s.db == nil {
		return s.fallback.Path()
	}
	return s.path
}

// Degraded reports whether the JSONL fallback is in use.
func (s *SQLiteStore) Degraded() bool {
	return s.db == nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

var _ ports.HistoryRepository = (*SQLiteStore)(nil)
