package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// ErrClosed is returned once the history database has been closed.
var ErrClosed = errors.New("history database is closed")

// Database is the summary history store: one SQLite file, migrated when opened.
type Database struct {
	path string

	mu  sync.RWMutex
	sql *sql.DB // nil after Close
}

// Open migrates the file at path to the latest schema, creating the file
// and its directory on first use.
func Open(path string) (*Database, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, errors.New("history database path is empty")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create directory for %s: %w", path, err)
	}
	if err := MigrateUp(path); err != nil {
		return nil, err
	}

	conn, err := NewSQLiteConnection(DefaultConnectionConfig(path))
	if err != nil {
		return nil, err
	}
	return &Database{path: path, sql: conn}, nil
}

func (d *Database) Path() string { return d.path }

func (d *Database) Ping(ctx context.Context) error {
	d.mu.RLock()
	defer d.mu.RUnlock()
	conn, err := d.conn()
	if err != nil {
		return err
	}
	return conn.PingContext(ctx)
}

// Close is idempotent. Queries after Close fail with ErrClosed.
func (d *Database) Close() error {
	d.mu.Lock()
	conn := d.sql
	d.sql = nil
	d.mu.Unlock()

	if conn == nil {
		return nil
	}
	if err := conn.Close(); err != nil {
		return fmt.Errorf("failed to close %s: %w", d.path, err)
	}
	return nil
}

// conn must be called with mu held.
func (d *Database) conn() (*sql.DB, error) {
	if d.sql == nil {
		return nil, ErrClosed
	}
	return d.sql, nil
}
