package state

import (
	"fmt"
	"os"
)

// CheckIntegrity runs SQLite's integrity check.
func (db *DB) CheckIntegrity() error {
	if db == nil || db.SQL == nil {
		return fmt.Errorf("database not open")
	}
	var result string
	if err := db.SQL.QueryRow("PRAGMA integrity_check").Scan(&result); err != nil {
		return fmt.Errorf("integrity check failed: %w", err)
	}
	if result != "ok" {
		return fmt.Errorf("database corruption detected: %s", result)
	}
	return nil
}

// MissingLibraries returns registered libraries whose path no longer exists.
func (db *DB) MissingLibraries() ([]Library, error) {
	libs, err := db.ListLibraries()
	if err != nil {
		return nil, err
	}
	var missing []Library
	for _, l := range libs {
		if _, err := os.Stat(l.Path); os.IsNotExist(err) {
			missing = append(missing, l)
		}
	}
	return missing, nil
}

// PruneMissing unregisters libraries whose path no longer exists.
func (db *DB) PruneMissing() (int, error) {
	missing, err := db.MissingLibraries()
	if err != nil {
		return 0, err
	}
	for _, l := range missing {
		if err := db.DeleteLibrary(l.Name); err != nil {
			return 0, fmt.Errorf("failed to unregister %s: %w", l.Name, err)
		}
	}
	return len(missing), nil
}

// Vacuum compacts the database file.
func (db *DB) Vacuum() error {
	if db == nil || db.SQL == nil {
		return fmt.Errorf("database not open")
	}
	if _, err := db.SQL.Exec("VACUUM"); err != nil {
		return fmt.Errorf("vacuum failed: %w", err)
	}
	return nil
}
