// Package db keeps the history of produced summaries in SQLite.
package db

import (
	"database/sql"
	"errors"
	"fmt"
	"net/url"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

// ConnectionConfig describes one SQLite database file.
type ConnectionConfig struct {
	Path        string
	BusyTimeout time.Duration

	// MaxOpenConns is 1 by default: the history has a single writer.
	MaxOpenConns int
}

func DefaultConnectionConfig(path string) ConnectionConfig {
	return ConnectionConfig{
		Path:         path,
		BusyTimeout:  5 * time.Second,
		MaxOpenConns: 1,
	}
}

// DSN is a modernc file: URI carrying the pragmas, so every pooled
// connection gets them on open.
func (c ConnectionConfig) DSN() string {
	q := url.Values{}
	q.Add("_pragma", fmt.Sprintf("busy_timeout(%d)", c.BusyTimeout.Milliseconds()))
	q.Add("_pragma", "journal_mode(WAL)")
	q.Add("_pragma", "synchronous(NORMAL)")
	u := url.URL{Scheme: "file", Opaque: filepath.ToSlash(c.Path), RawQuery: q.Encode()}
	return u.String()
}

// NewSQLiteConnection opens the database and confirms WAL is active.
func NewSQLiteConnection(config ConnectionConfig) (*sql.DB, error) {
	if config.Path == "" {
		return nil, errors.New("database path is required")
	}

	conn, err := sql.Open("sqlite", config.DSN())
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if config.MaxOpenConns > 0 {
		conn.SetMaxOpenConns(config.MaxOpenConns)
		conn.SetMaxIdleConns(config.MaxOpenConns)
	}

	var mode string
	if err := conn.QueryRow("PRAGMA journal_mode").Scan(&mode); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to open database %s: %w", config.Path, err)
	}
	// Some filesystems (network mounts) silently refuse WAL.
	if mode != "wal" {
		conn.Close()
		return nil, fmt.Errorf("database %s: journal_mode is %q, want wal", config.Path, mode)
	}
	return conn, nil
}
