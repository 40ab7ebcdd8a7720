package state

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/glebarez/sqlite"
	"github.com/jxwalker/resfetch/internal/config"
)

// Install statuses recorded in the history table.
const (
	StatusInstalled = "installed"
	StatusFailed    = "failed"
)

type DB struct {
	SQL  *sql.DB
	Path string

	libraryRoot string
}

// Open opens (or creates) <data_root>/state.db.
func Open(cfg *config.Config) (*DB, error) {
	if cfg == nil {
		return nil, errors.New("nil config")
	}
	if cfg.General.DataRoot == "" {
		return nil, errors.New("general.data_root required")
	}
	if err := os.MkdirAll(cfg.General.DataRoot, 0o755); err != nil {
		return nil, err
	}
	db, err := OpenPath(filepath.Join(cfg.General.DataRoot, "state.db"))
	if err != nil {
		return nil, err
	}
	db.libraryRoot = cfg.General.LibraryRoot
	return db, nil
}

// OpenPath opens a state database at an explicit path.
func OpenPath(path string) (*DB, error) {
	dsn := fmt.Sprintf("file:%s?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)", path)
	sqldb, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}
	if err := initSchema(sqldb); err != nil {
		_ = sqldb.Close()
		return nil, err
	}
	return &DB{SQL: sqldb, Path: path}, nil
}

// SetLibraryRoot makes LibraryNames also report directories found under root.
func (db *DB) SetLibraryRoot(root string) { db.libraryRoot = root }

func (db *DB) Close() error {
	if db == nil || db.SQL == nil {
		return nil
	}
	return db.SQL.Close()
}

func initSchema(db *sql.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS libraries (
			name TEXT PRIMARY KEY,
			source TEXT NOT NULL,
			path TEXT NOT NULL,
			kind TEXT,
			installed_at INTEGER NOT NULL,
			updated_at INTEGER NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS installs (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			batch_id TEXT NOT NULL,
			name TEXT NOT NULL,
			source TEXT,
			status TEXT NOT NULL,
			size INTEGER,
			sha256 TEXT,
			last_error TEXT,
			created_at INTEGER NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS idx_installs_batch ON installs(batch_id);`,
	}
	for _, s := range stmts {
		if _, err := db.Exec(s); err != nil {
			return err
		}
	}
	return nil
}

// Library is a registered resource library.
type Library struct {
	Name        string
	Source      string
	Path        string
	Kind        string
	InstalledAt int64
	UpdatedAt   int64
}

// UpsertLibrary registers a library, replacing any earlier entry with the same name.
func (db *DB) UpsertLibrary(l Library) error {
	now := time.Now().Unix()
	_, err := db.SQL.Exec(`INSERT INTO libraries(name, source, path, kind, installed_at, updated_at)
		VALUES(?, ?, ?, ?, ?, ?)
		ON CONFLICT(name) DO UPDATE SET source=excluded.source, path=excluded.path, kind=excluded.kind, updated_at=excluded.updated_at`,
		l.Name, l.Source, l.Path, l.Kind, now, now)
	return err
}

func (db *DB) DeleteLibrary(name string) error {
	_, err := db.SQL.Exec(`DELETE FROM libraries WHERE name=?`, name)
	return err
}

// GetLibrary returns nil, nil when name is not registered.
func (db *DB) GetLibrary(name string) (*Library, error) {
	var l Library
	var kind sql.NullString
	err := db.SQL.QueryRow(`SELECT name, source, path, kind, installed_at, updated_at FROM libraries WHERE name=?`, name).
		Scan(&l.Name, &l.Source, &l.Path, &kind, &l.InstalledAt, &l.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	l.Kind = kind.String
	return &l, nil
}

func (db *DB) ListLibraries() ([]Library, error) {
	rows, err := db.SQL.Query(`SELECT name, source, path, kind, installed_at, updated_at FROM libraries ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()
	var out []Library
	for rows.Next() {
		var l Library
		var kind sql.NullString
		if err := rows.Scan(&l.Name, &l.Source, &l.Path, &kind, &l.InstalledAt, &l.UpdatedAt); err != nil {
			return nil, err
		}
		l.Kind = kind.String
		out = append(out, l)
	}
	return out, rows.Err()
}

// LibraryNames returns every installed library name: registered ones plus
// any directory already present under the library root.
func (db *DB) LibraryNames() ([]string, error) {
	libs, err := db.ListLibraries()
	if err != nil {
		return nil, err
	}
	seen := make(map[string]bool, len(libs))
	names := make([]string, 0, len(libs))
	for _, l := range libs {
		seen[l.Name] = true
		names = append(names, l.Name)
	}
	if db.libraryRoot == "" {
		return names, nil
	}
	entries, err := os.ReadDir(db.libraryRoot)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return names, nil
		}
		return nil, err
	}
	for _, e := range entries {
		if e.IsDir() && !seen[e.Name()] {
			seen[e.Name()] = true
			names = append(names, e.Name())
		}
	}
	return names, nil
}

// InstallRow is one entry of the install history.
type InstallRow struct {
	ID        int64
	BatchID   string
	Name      string
	Source    string
	Status    string
	Size      int64
	SHA256    string
	LastError string
	CreatedAt int64
}

func (db *DB) RecordInstall(r InstallRow) error {
	if r.CreatedAt == 0 {
		r.CreatedAt = time.Now().Unix()
	}
	_, err := db.SQL.Exec(`INSERT INTO installs(batch_id, name, source, status, size, sha256, last_error, created_at)
		VALUES(?, ?, ?, ?, ?, ?, ?, ?)`,
		r.BatchID, r.Name, r.Source, r.Status, r.Size, r.SHA256, r.LastError, r.CreatedAt)
	return err
}

// ListInstalls returns the most recent history entries first. limit <= 0 means all.
func (db *DB) ListInstalls(limit int) ([]InstallRow, error) {
	q := `SELECT id, batch_id, name, source, status, size, sha256, last_error, created_at FROM installs ORDER BY id DESC`
	args := []any{}
	if limit > 0 {
		q += ` LIMIT ?`
		args = append(args, limit)
	}
	rows, err := db.SQL.Query(q, args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()
	var out []InstallRow
	for rows.Next() {
		var r InstallRow
		var source, sha, lastErr sql.NullString
		var size sql.NullInt64
		if err := rows.Scan(&r.ID, &r.BatchID, &r.Name, &source, &r.Status, &size, &sha, &lastErr, &r.CreatedAt); err != nil {
			return nil, err
		}
		r.Source, r.SHA256, r.LastError, r.Size = source.String, sha.String, lastErr.String, size.Int64
		out = append(out, r)
	}
	return out, rows.Err()
}
