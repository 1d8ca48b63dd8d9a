package approvals

import (
	"context"
	"database/sql"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"aptmatch/internal/domain"
	"aptmatch/internal/events"
	"aptmatch/internal/repo"
	"aptmatch/internal/scoring"
)

// ErrAlreadyDecided is returned when a candidate/project pair already has a
// recorded decision. The existing record accompanies the error so callers
// can report it instead of failing.
var ErrAlreadyDecided = errors.New("pair already decided")

// Reconciler applies human approve/reject decisions to candidate/project
// pairs. Decisions are serialized through a process-wide mutex so the
// read-check-write against the unique pair index never races with itself;
// the index catches concurrent processes.
type Reconciler struct {
	DB     *sql.DB
	Repo   repo.Repo
	Events events.Writer
	Scorer scoring.Engine
	Log    *zap.Logger
	Now    func() time.Time

	mu sync.Mutex
}

func New(db *sql.DB, log *zap.Logger) *Reconciler {
	if log == nil {
		log = zap.NewNop()
	}
	return &Reconciler{
		DB:     db,
		Repo:   repo.Repo{DB: db},
		Events: events.Writer{DB: db},
		Scorer: scoring.New(),
		Log:    log,
		Now:    time.Now,
	}
}

func (rc *Reconciler) now() time.Time {
	if rc.Now != nil {
		return rc.Now()
	}
	return time.Now()
}

// Approve records an approval for the pair, snapshotting the scores and
// explanation at decision time. If the pair was already decided the
// existing record is returned with ErrAlreadyDecided.
func (rc *Reconciler) Approve(ctx context.Context, c domain.Candidate, p domain.Project) (domain.ApprovalRecord, error) {
	return rc.decide(ctx, c, p, domain.StatusApproved, events.TypeApprovalApproved)
}

// Reject records a rejection for the pair. Rejections share the approval
// uniqueness rule; a pair has at most one decision of either kind.
func (rc *Reconciler) Reject(ctx context.Context, c domain.Candidate, p domain.Project) (domain.ApprovalRecord, error) {
	return rc.decide(ctx, c, p, domain.StatusRejected, events.TypeApprovalRejected)
}

func (rc *Reconciler) decide(ctx context.Context, c domain.Candidate, p domain.Project, status domain.ApprovalStatus, evtType string) (domain.ApprovalRecord, error) {
	rc.mu.Lock()
	defer rc.mu.Unlock()

	existing, err := rc.Repo.GetApprovalByPair(ctx, c.ID, p.ID)
	if err == nil {
		return existing, ErrAlreadyDecided
	}
	if !errors.Is(err, repo.ErrNotFound) {
		return domain.ApprovalRecord{}, err
	}

	result, err := rc.Scorer.Score(c, p)
	if err != nil {
		return domain.ApprovalRecord{}, err
	}

	rec := domain.ApprovalRecord{
		ID:                uuid.New().String(),
		CandidateID:       c.ID,
		ProjectID:         p.ID,
		SkillMatch:        result.SkillMatch,
		AvailabilityMatch: result.AvailabilityMatch,
		SeniorityMatch:    result.SeniorityMatch,
		FitScore:          result.FitScore,
		Explanation:       result.Explanation,
		Status:            status,
		DecidedAt:         rc.now().UTC().Format(time.RFC3339),
	}

	tx, err := rc.DB.BeginTx(ctx, nil)
	if err != nil {
		return domain.ApprovalRecord{}, err
	}
	defer tx.Rollback()

	if err := rc.Repo.InsertApprovalTx(ctx, tx, rec); err != nil {
		return domain.ApprovalRecord{}, err
	}
	err = rc.Events.Append(ctx, tx, evtType, c.ID, p.ID, events.EventPayload{
		"fit_score": rec.FitScore,
		"status":    string(rec.Status),
	})
	if err != nil {
		return domain.ApprovalRecord{}, err
	}
	if err := tx.Commit(); err != nil {
		return domain.ApprovalRecord{}, err
	}

	rc.Log.Info("decision recorded",
		zap.String("candidate_id", c.ID),
		zap.String("project_id", p.ID),
		zap.String("status", string(status)))
	return rec, nil
}

// Remove deletes the decision for a pair. Removal is always permitted
// regardless of the record's status.
func (rc *Reconciler) Remove(ctx context.Context, candidateID, projectID string) error {
	rc.mu.Lock()
	defer rc.mu.Unlock()

	tx, err := rc.DB.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if err := rc.Repo.DeleteApprovalTx(ctx, tx, candidateID, projectID); err != nil {
		return err
	}
	err = rc.Events.Append(ctx, tx, events.TypeApprovalRemoved, candidateID, projectID, nil)
	if err != nil {
		return err
	}
	return tx.Commit()
}

// Approvals returns every decided record. Records whose stored score
// snapshot is unreadable come back with zeroed scores rather than
// poisoning the whole listing.
func (rc *Reconciler) Approvals(ctx context.Context) ([]domain.ApprovalRecord, error) {
	recs, corrupt, err := rc.Repo.ListApprovals(ctx)
	if err != nil {
		return nil, err
	}
	for _, id := range corrupt {
		rc.Log.Warn("approval record has unreadable scores", zap.String("id", id))
	}
	return recs, nil
}

// IsApproved reports whether the pair has an Approved decision.
func (rc *Reconciler) IsApproved(ctx context.Context, candidateID, projectID string) (bool, error) {
	rec, err := rc.Repo.GetApprovalByPair(ctx, candidateID, projectID)
	if errors.Is(err, repo.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return rec.Status == domain.StatusApproved, nil
}
