package repo

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"aptmatch/internal/domain"
)

// approvalScores is the stored shape of the score snapshot taken at
// decision time.
type approvalScores struct {
	SkillMatch        float64 `json:"skill_match"`
	AvailabilityMatch float64 `json:"availability_match"`
	SeniorityMatch    float64 `json:"seniority_match"`
	FitScore          float64 `json:"fit_score"`
}

func (r Repo) InsertApprovalTx(ctx context.Context, tx *sql.Tx, rec domain.ApprovalRecord) error {
	scores, err := json.Marshal(approvalScores{
		SkillMatch:        rec.SkillMatch,
		AvailabilityMatch: rec.AvailabilityMatch,
		SeniorityMatch:    rec.SeniorityMatch,
		FitScore:          rec.FitScore,
	})
	if err != nil {
		return fmt.Errorf("encode scores: %w", err)
	}
	_, err = tx.ExecContext(ctx, `INSERT INTO approved_candidates(id,candidate_id,project_id,scores_json,explanation,status,decided_at) VALUES (?,?,?,?,?,?,?)`,
		rec.ID, rec.CandidateID, rec.ProjectID, string(scores), nullable(rec.Explanation), rec.Status, rec.DecidedAt)
	return err
}

func scanApproval(s interface{ Scan(...any) error }) (domain.ApprovalRecord, bool, error) {
	var (
		rec    domain.ApprovalRecord
		scores string
	)
	err := s.Scan(&rec.ID, &rec.CandidateID, &rec.ProjectID, &scores, &rec.Explanation, &rec.Status, &rec.DecidedAt)
	if err == sql.ErrNoRows {
		return rec, false, ErrNotFound
	}
	if err != nil {
		return rec, false, err
	}
	var sc approvalScores
	if err := json.Unmarshal([]byte(scores), &sc); err != nil {
		// A damaged score snapshot does not invalidate the decision
		// itself; surface the record with zeroed scores.
		return rec, true, nil
	}
	rec.SkillMatch = sc.SkillMatch
	rec.AvailabilityMatch = sc.AvailabilityMatch
	rec.SeniorityMatch = sc.SeniorityMatch
	rec.FitScore = sc.FitScore
	return rec, false, nil
}

const approvalCols = `id,candidate_id,project_id,scores_json,COALESCE(explanation,''),status,decided_at`

// GetApprovalByPair returns the decision for a candidate/project pair, if
// one exists. The unique index guarantees at most one row.
func (r Repo) GetApprovalByPair(ctx context.Context, candidateID, projectID string) (domain.ApprovalRecord, error) {
	row := r.DB.QueryRowContext(ctx, `SELECT `+approvalCols+` FROM approved_candidates WHERE candidate_id=? AND project_id=?`, candidateID, projectID)
	rec, _, err := scanApproval(row)
	return rec, err
}

// ListApprovals returns all decided records, oldest decision first, plus
// the IDs of records whose score snapshot could not be decoded.
func (r Repo) ListApprovals(ctx context.Context) ([]domain.ApprovalRecord, []string, error) {
	rows, err := r.DB.QueryContext(ctx, `SELECT `+approvalCols+` FROM approved_candidates ORDER BY decided_at ASC, id ASC`)
	if err != nil {
		return nil, nil, err
	}
	defer rows.Close()
	var (
		res     []domain.ApprovalRecord
		corrupt []string
	)
	for rows.Next() {
		rec, damaged, err := scanApproval(rows)
		if err != nil {
			return nil, nil, err
		}
		if damaged {
			corrupt = append(corrupt, rec.ID)
		}
		res = append(res, rec)
	}
	return res, corrupt, rows.Err()
}

func (r Repo) DeleteApprovalTx(ctx context.Context, tx *sql.Tx, candidateID, projectID string) error {
	res, err := tx.ExecContext(ctx, `DELETE FROM approved_candidates WHERE candidate_id=? AND project_id=?`, candidateID, projectID)
	if err != nil {
		return err
	}
	affected, _ := res.RowsAffected()
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}
