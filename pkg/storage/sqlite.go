package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/kcaldas/devconsole/pkg/logging"
	"github.com/kcaldas/devconsole/pkg/types"

	_ "modernc.org/sqlite"
)

const sqliteSchema = `CREATE TABLE IF NOT EXISTS logs (
	id    TEXT PRIMARY KEY,
	entry TEXT NOT NULL
)`

// SQLiteDriver is an object-store driver: one record per entry, keyed by id.
// Load does not order its result.
type SQLiteDriver struct {
	path   string
	logger logging.Logger

	mu sync.Mutex
	db *sql.DB
}

// NewSQLiteDriver creates a driver for the database file at path. The database
// is opened lazily on first use, so construction never fails.
func NewSQLiteDriver(path string, logger logging.Logger) *SQLiteDriver {
	if logger == nil {
		logger = logging.NewDriverLogger(string(types.DriverIndexedDB))
	}
	return &SQLiteDriver{path: path, logger: logger}
}

func (d *SQLiteDriver) open(ctx context.Context) (*sql.DB, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.db != nil {
		return d.db, nil
	}

	if dir := filepath.Dir(d.path); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", d.path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", d.path, err)
	}
	// One connection keeps writers serialized inside SQLite.
	db.SetMaxOpenConns(1)

	if _, err := db.ExecContext(ctx, "PRAGMA journal_mode=WAL"); err != nil {
		d.logger.Warn("Failed to enable WAL mode", "error", err)
	}
	if _, err := db.ExecContext(ctx, sqliteSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create logs table: %w", err)
	}

	d.db = db
	return db, nil
}

// Save replaces the stored records with exactly the given entries
func (d *SQLiteDriver) Save(ctx context.Context, entries []types.Entry) error {
	db, err := d.open(ctx)
	if err != nil {
		return err
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "DELETE FROM logs"); err != nil {
		return fmt.Errorf("failed to clear logs: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, "INSERT OR REPLACE INTO logs (id, entry) VALUES (?, ?)")
	if err != nil {
		return fmt.Errorf("failed to prepare insert: %w", err)
	}
	defer stmt.Close()

	for _, e := range entries {
		data, err := json.Marshal(types.Portable(e))
		if err != nil {
			return fmt.Errorf("failed to encode entry %s: %w", e.ID, err)
		}
		if _, err := stmt.ExecContext(ctx, e.ID, string(data)); err != nil {
			return fmt.Errorf("failed to insert entry %s: %w", e.ID, err)
		}
	}

	return tx.Commit()
}

// Load returns every stored entry in no particular order. Rows that cannot be
// decoded are skipped.
func (d *SQLiteDriver) Load(ctx context.Context) ([]types.Entry, error) {
	db, err := d.open(ctx)
	if err != nil {
		return nil, err
	}

	rows, err := db.QueryContext(ctx, "SELECT id, entry FROM logs")
	if err != nil {
		return nil, fmt.Errorf("failed to query logs: %w", err)
	}
	defer rows.Close()

	entries := []types.Entry{}
	for rows.Next() {
		var id, raw string
		if err := rows.Scan(&id, &raw); err != nil {
			return nil, fmt.Errorf("failed to scan log row: %w", err)
		}
		var e types.Entry
		if err := json.Unmarshal([]byte(raw), &e); err != nil {
			d.logger.Warn("Skipping corrupted log record", "id", id, "error", err)
			continue
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read logs: %w", err)
	}
	return entries, nil
}

// Clear deletes every stored record
func (d *SQLiteDriver) Clear(ctx context.Context) error {
	db, err := d.open(ctx)
	if err != nil {
		return err
	}
	if _, err := db.ExecContext(ctx, "DELETE FROM logs"); err != nil {
		return fmt.Errorf("failed to clear logs: %w", err)
	}
	return nil
}

// Close closes the database if it was opened
func (d *SQLiteDriver) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.db == nil {
		return nil
	}
	err := d.db.Close()
	d.db = nil
	return err
}
