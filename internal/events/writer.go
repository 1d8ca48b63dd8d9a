package events

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"
)

// Event types recorded in the audit log.
const (
	TypeApprovalApproved = "approval.approved"
	TypeApprovalRejected = "approval.rejected"
	TypeApprovalRemoved  = "approval.removed"
	TypeProjectsImported = "projects.imported"
	TypeDatasetSeeded    = "dataset.seeded"
)

type Writer struct {
	DB  *sql.DB
	Now func() time.Time
}

type EventPayload map[string]any

// Append records an event inside the caller's transaction so the event and
// the state change it describes commit or roll back together.
func (w Writer) Append(ctx context.Context, tx *sql.Tx, evtType, candidateID, projectID string, payload EventPayload) error {
	if w.Now == nil {
		w.Now = time.Now
	}
	ts := w.Now().UTC().Format(time.RFC3339)
	if payload == nil {
		payload = EventPayload{}
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal event payload: %w", err)
	}
	_, err = tx.ExecContext(ctx, `INSERT INTO events(ts,type,candidate_id,project_id,payload_json) VALUES (?,?,?,?,?)`,
		ts, evtType, nullable(candidateID), nullable(projectID), string(data))
	return err
}

// Event is an audit log row as read back for inspection.
type Event struct {
	ID          int64  `json:"id"`
	TS          string `json:"ts"`
	Type        string `json:"type"`
	CandidateID string `json:"candidate_id,omitempty"`
	ProjectID   string `json:"project_id,omitempty"`
	PayloadJSON string `json:"payload_json"`
}

// List returns events newest first, up to limit (0 means no limit).
func (w Writer) List(ctx context.Context, limit int) ([]Event, error) {
	q := `SELECT id,ts,type,COALESCE(candidate_id,''),COALESCE(project_id,''),payload_json FROM events ORDER BY id DESC`
	var args []any
	if limit > 0 {
		q += ` LIMIT ?`
		args = append(args, limit)
	}
	rows, err := w.DB.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var res []Event
	for rows.Next() {
		var e Event
		if err := rows.Scan(&e.ID, &e.TS, &e.Type, &e.CandidateID, &e.ProjectID, &e.PayloadJSON); err != nil {
			return nil, err
		}
		res = append(res, e)
	}
	return res, rows.Err()
}

func nullable(v string) any {
	if v == "" {
		return nil
	}
	return v
}
