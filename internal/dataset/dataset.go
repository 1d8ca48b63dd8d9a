// Package dataset ships the built-in candidate and project records and
// loads them into the database.
package dataset

import (
	"context"
	"database/sql"
	_ "embed"
	"encoding/json"
	"fmt"

	"aptmatch/internal/domain"
	"aptmatch/internal/events"
	"aptmatch/internal/repo"
)

//go:embed seed.json
var seedJSON []byte

// Dataset is an immutable snapshot of candidates and projects. Slice
// order is the canonical order entity extraction depends on.
type Dataset struct {
	Candidates []domain.Candidate `json:"candidates"`
	Projects   []domain.Project   `json:"projects"`
}

// Load decodes and validates the embedded seed data.
func Load() (Dataset, error) {
	var ds Dataset
	if err := json.Unmarshal(seedJSON, &ds); err != nil {
		return Dataset{}, fmt.Errorf("decode seed data: %w", err)
	}
	for _, c := range ds.Candidates {
		if err := c.Validate(); err != nil {
			return Dataset{}, fmt.Errorf("seed candidate %s: %w", c.ID, err)
		}
	}
	for _, p := range ds.Projects {
		if err := p.Validate(); err != nil {
			return Dataset{}, fmt.Errorf("seed project %s: %w", p.ID, err)
		}
	}
	return ds, nil
}

// Seed replaces the stored candidates and projects with the embedded
// dataset in a single transaction. Approval records are left alone.
func Seed(ctx context.Context, conn *sql.DB) error {
	ds, err := Load()
	if err != nil {
		return err
	}
	r := repo.Repo{DB: conn}
	w := events.Writer{DB: conn}

	tx, err := conn.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if err := r.DeleteCandidates(ctx, tx); err != nil {
		return err
	}
	if err := r.DeleteProjects(ctx, tx); err != nil {
		return err
	}
	for i, c := range ds.Candidates {
		if err := r.InsertCandidateTx(ctx, tx, c, i); err != nil {
			return fmt.Errorf("seed candidate %s: %w", c.ID, err)
		}
	}
	for i, p := range ds.Projects {
		if err := r.InsertProjectTx(ctx, tx, p, "seed", i); err != nil {
			return fmt.Errorf("seed project %s: %w", p.ID, err)
		}
	}
	err = w.Append(ctx, tx, events.TypeDatasetSeeded, "", "", events.EventPayload{
		"candidates": len(ds.Candidates),
		"projects":   len(ds.Projects),
	})
	if err != nil {
		return err
	}
	return tx.Commit()
}
