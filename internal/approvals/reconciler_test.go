package approvals_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"aptmatch/internal/approvals"
	"aptmatch/internal/db"
	"aptmatch/internal/domain"
	"aptmatch/internal/events"
	"aptmatch/internal/migrate"
	"aptmatch/internal/repo"
)

type testEnv struct {
	Rec *approvals.Reconciler
	Ctx context.Context
}

func newTestEnv(t *testing.T) testEnv {
	t.Helper()
	dir := t.TempDir()
	conn, err := db.Open(dir)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	require.NoError(t, migrate.Migrate(conn))

	rec := approvals.New(conn, zap.NewNop())
	rec.Now = func() time.Time { return time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC) }
	rec.Events.Now = rec.Now
	return testEnv{Rec: rec, Ctx: context.Background()}
}

func candidate() domain.Candidate {
	return domain.Candidate{
		ID:           "1",
		Name:         "Sarah Chen",
		Skills:       []string{"React", "TypeScript", "Node.js"},
		Tier:         domain.TierA,
		Ranking:      95,
		Availability: domain.Available,
	}
}

func project() domain.Project {
	return domain.Project{
		ID:             "p1",
		Title:          "Customer Portal",
		RequiredSkills: []string{"React", "TypeScript"},
		Status:         domain.ProjectActive,
	}
}

func TestApproveRecordsDecision(t *testing.T) {
	env := newTestEnv(t)
	rec, err := env.Rec.Approve(env.Ctx, candidate(), project())
	require.NoError(t, err)

	assert.NotEmpty(t, rec.ID)
	assert.Equal(t, "1", rec.CandidateID)
	assert.Equal(t, "p1", rec.ProjectID)
	assert.Equal(t, domain.StatusApproved, rec.Status)
	assert.Equal(t, "2026-03-01T12:00:00Z", rec.DecidedAt)
	assert.InDelta(t, 1.0, rec.SkillMatch, 1e-9)
	assert.InDelta(t, 0.98, rec.FitScore, 1e-9)
	assert.NotEmpty(t, rec.Explanation)

	approved, err := env.Rec.IsApproved(env.Ctx, "1", "p1")
	require.NoError(t, err)
	assert.True(t, approved)
}

func TestApproveDuplicateReturnsExisting(t *testing.T) {
	env := newTestEnv(t)
	first, err := env.Rec.Approve(env.Ctx, candidate(), project())
	require.NoError(t, err)

	again, err := env.Rec.Approve(env.Ctx, candidate(), project())
	require.ErrorIs(t, err, approvals.ErrAlreadyDecided)
	assert.Equal(t, first.ID, again.ID)

	recs, err := env.Rec.Approvals(env.Ctx)
	require.NoError(t, err)
	assert.Len(t, recs, 1)
}

func TestRejectSharesUniquenessWithApprove(t *testing.T) {
	env := newTestEnv(t)
	rec, err := env.Rec.Reject(env.Ctx, candidate(), project())
	require.NoError(t, err)
	assert.Equal(t, domain.StatusRejected, rec.Status)

	_, err = env.Rec.Approve(env.Ctx, candidate(), project())
	require.ErrorIs(t, err, approvals.ErrAlreadyDecided)

	approved, err := env.Rec.IsApproved(env.Ctx, "1", "p1")
	require.NoError(t, err)
	assert.False(t, approved)
}

func TestRemoveThenReapprove(t *testing.T) {
	env := newTestEnv(t)
	_, err := env.Rec.Approve(env.Ctx, candidate(), project())
	require.NoError(t, err)

	require.NoError(t, env.Rec.Remove(env.Ctx, "1", "p1"))

	recs, err := env.Rec.Approvals(env.Ctx)
	require.NoError(t, err)
	assert.Empty(t, recs)

	_, err = env.Rec.Approve(env.Ctx, candidate(), project())
	require.NoError(t, err)
}

func TestRemoveMissingPair(t *testing.T) {
	env := newTestEnv(t)
	err := env.Rec.Remove(env.Ctx, "1", "p1")
	require.ErrorIs(t, err, repo.ErrNotFound)
}

func TestDecisionsEmitAuditEvents(t *testing.T) {
	env := newTestEnv(t)
	_, err := env.Rec.Approve(env.Ctx, candidate(), project())
	require.NoError(t, err)
	require.NoError(t, env.Rec.Remove(env.Ctx, "1", "p1"))

	evts, err := env.Rec.Events.List(env.Ctx, 0)
	require.NoError(t, err)
	require.Len(t, evts, 2)
	assert.Equal(t, events.TypeApprovalRemoved, evts[0].Type)
	assert.Equal(t, events.TypeApprovalApproved, evts[1].Type)
	assert.Equal(t, "1", evts[1].CandidateID)
	assert.Equal(t, "p1", evts[1].ProjectID)
}

func TestApprovalsToleratesDamagedScores(t *testing.T) {
	env := newTestEnv(t)
	rec, err := env.Rec.Approve(env.Ctx, candidate(), project())
	require.NoError(t, err)

	_, err = env.Rec.DB.ExecContext(env.Ctx, `UPDATE approved_candidates SET scores_json='{{not json' WHERE id=?`, rec.ID)
	require.NoError(t, err)

	recs, err := env.Rec.Approvals(env.Ctx)
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Zero(t, recs[0].FitScore)
	assert.Equal(t, domain.StatusApproved, recs[0].Status)
}
