// Package migrate brings the workspace database up to the embedded
// schema. Files under sql/ are named NNNN_description.sql; steps at or
// below the stored schema_version are skipped and the rest run inside
// one transaction, so a failed upgrade leaves the database untouched.
package migrate

import (
	"database/sql"
	"embed"
	"fmt"
	"io/fs"
	"sort"
	"strconv"
	"strings"
)

//go:embed sql/*.sql
var schemaFS embed.FS

type step struct {
	version int
	file    string
	stmts   string
}

func steps() ([]step, error) {
	entries, err := fs.ReadDir(schemaFS, "sql")
	if err != nil {
		return nil, err
	}
	out := make([]step, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		prefix, _, ok := strings.Cut(e.Name(), "_")
		version, convErr := strconv.Atoi(prefix)
		if !ok || convErr != nil {
			return nil, fmt.Errorf("schema file %s: name must start with a version number", e.Name())
		}
		data, err := schemaFS.ReadFile("sql/" + e.Name())
		if err != nil {
			return nil, err
		}
		out = append(out, step{version: version, file: e.Name(), stmts: string(data)})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].version < out[j].version })
	return out, nil
}

// storedVersion reads the last applied version, bootstrapping the
// schema_version table at 0 on a fresh database.
func storedVersion(tx *sql.Tx) (int, error) {
	if _, err := tx.Exec(`CREATE TABLE IF NOT EXISTS schema_version(version INTEGER NOT NULL)`); err != nil {
		return 0, fmt.Errorf("create schema_version: %w", err)
	}
	var v int
	switch err := tx.QueryRow(`SELECT version FROM schema_version LIMIT 1`).Scan(&v); err {
	case nil:
		return v, nil
	case sql.ErrNoRows:
		if _, err := tx.Exec(`INSERT INTO schema_version(version) VALUES (0)`); err != nil {
			return 0, fmt.Errorf("init schema_version: %w", err)
		}
		return 0, nil
	default:
		return 0, fmt.Errorf("read schema_version: %w", err)
	}
}

// Migrate applies every pending schema step. Running it on an
// up-to-date database is a no-op.
func Migrate(db *sql.DB) error {
	all, err := steps()
	if err != nil {
		return err
	}
	tx, err := db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	current, err := storedVersion(tx)
	if err != nil {
		return err
	}
	applied := false
	for _, s := range all {
		if s.version <= current {
			continue
		}
		if _, err := tx.Exec(s.stmts); err != nil {
			return fmt.Errorf("apply %s: %w", s.file, err)
		}
		current = s.version
		applied = true
	}
	if applied {
		if _, err := tx.Exec(`UPDATE schema_version SET version=?`, current); err != nil {
			return fmt.Errorf("stamp schema_version: %w", err)
		}
	}
	return tx.Commit()
}
