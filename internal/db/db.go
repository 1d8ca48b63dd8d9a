// Package db opens the sqlite database kept under a workspace's
// .aptmatch directory.
package db

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"
)

const (
	workspaceDir = ".aptmatch"
	databaseFile = "aptmatch.db"
)

// EnsureWorkspace creates the .aptmatch directory under workspace if
// missing and returns its path. An empty workspace means the current
// directory.
func EnsureWorkspace(workspace string) (string, error) {
	dir := filepath.Join(normalize(workspace), workspaceDir)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}
	return dir, nil
}

// Path returns the database file path for a workspace.
func Path(workspace string) string {
	return filepath.Join(normalize(workspace), workspaceDir, databaseFile)
}

// Open ensures the workspace exists and opens its database with foreign
// keys enabled.
func Open(workspace string) (*sql.DB, error) {
	if _, err := EnsureWorkspace(workspace); err != nil {
		return nil, err
	}
	dsn := fmt.Sprintf("file:%s?cache=shared&_pragma=foreign_keys(1)", Path(workspace))
	return sql.Open("sqlite", dsn)
}

func normalize(workspace string) string {
	if workspace == "" {
		return "."
	}
	return workspace
}
