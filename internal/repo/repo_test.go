package repo_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"aptmatch/internal/db"
	"aptmatch/internal/domain"
	"aptmatch/internal/migrate"
	"aptmatch/internal/repo"
)

func newTestRepo(t *testing.T) (repo.Repo, context.Context) {
	t.Helper()
	conn, err := db.Open(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	require.NoError(t, migrate.Migrate(conn))
	return repo.Repo{DB: conn}, context.Background()
}

func TestCandidateRoundTrip(t *testing.T) {
	r, ctx := newTestRepo(t)
	c := domain.Candidate{
		ID:              "1",
		Name:            "Sarah Chen",
		Email:           "sarah.chen@company.com",
		Skills:          []string{"React", "TypeScript"},
		Tier:            domain.TierA,
		Ranking:         95,
		Availability:    domain.Available,
		Role:            "Senior Full Stack Developer",
		Experience:      6,
		EmployeeType:    domain.EmployeeSenior,
		HoursPerWeek:    40,
		MaxCapacity:     40,
		RatePerHour:     85,
		NDARequired:     true,
		GeoRestrictions: []string{"US Only"},
	}
	require.NoError(t, r.InsertCandidate(ctx, c, 0))

	got, err := r.GetCandidate(ctx, "1")
	require.NoError(t, err)
	assert.Equal(t, c, got)
}

func TestCandidateNotFound(t *testing.T) {
	r, ctx := newTestRepo(t)
	_, err := r.GetCandidate(ctx, "missing")
	require.ErrorIs(t, err, repo.ErrNotFound)
}

func TestListCandidatesPositionOrder(t *testing.T) {
	r, ctx := newTestRepo(t)
	for i, id := range []string{"c", "a", "b"} {
		c := domain.Candidate{ID: id, Name: id, Skills: []string{"Go"}, Tier: domain.TierB, Availability: domain.Busy}
		require.NoError(t, r.InsertCandidate(ctx, c, i))
	}
	got, err := r.ListCandidates(ctx)
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, "c", got[0].ID)
	assert.Equal(t, "a", got[1].ID)
	assert.Equal(t, "b", got[2].ID)
}

func TestProjectRoundTripWithOptionalFields(t *testing.T) {
	r, ctx := newTestRepo(t)
	p := domain.Project{
		ID:             "p1",
		Title:          "E-commerce Platform Redesign",
		Description:    "Complete overhaul.",
		RequiredSkills: []string{"React", "DevOps"},
		Timeline:       "6 months",
		Budget:         "$2.5M",
		BudgetAmount:   2500000,
		Seniority:      "senior",
		Priority:       "High",
		Status:         domain.ProjectActive,
		Milestones:     []domain.Milestone{{ID: "m1", Name: "Design", DueDate: "2024-03-30", Status: "In Progress"}},
		RateCard:       &domain.RateCard{Intern: 25, FTE: 75, Senior: 120, Currency: "USD"},
		NDARequired:    true,
		Compliance:     []string{"GDPR"},
	}
	require.NoError(t, r.InsertProject(ctx, p, "seed", 0))

	got, err := r.GetProject(ctx, "p1")
	require.NoError(t, err)
	assert.Equal(t, p, got)

	byTitle, err := r.GetProjectByTitle(ctx, "E-commerce Platform Redesign")
	require.NoError(t, err)
	assert.Equal(t, "p1", byTitle.ID)
}

func TestProjectMinimalFields(t *testing.T) {
	r, ctx := newTestRepo(t)
	p := domain.Project{ID: "p2", Title: "Bare", RequiredSkills: []string{"Go"}, Status: domain.ProjectPlanning}
	require.NoError(t, r.InsertProject(ctx, p, "csv", 0))

	got, err := r.GetProject(ctx, "p2")
	require.NoError(t, err)
	assert.Equal(t, p, got)
	assert.Nil(t, got.RateCard)
	assert.Empty(t, got.Milestones)
}

func TestNextProjectPosition(t *testing.T) {
	r, ctx := newTestRepo(t)
	tx, err := r.DB.BeginTx(ctx, nil)
	require.NoError(t, err)
	defer tx.Rollback()

	pos, err := r.NextProjectPosition(ctx, tx)
	require.NoError(t, err)
	assert.Equal(t, 0, pos)

	p := domain.Project{ID: "p1", Title: "First", RequiredSkills: []string{"Go"}, Status: domain.ProjectPlanning}
	require.NoError(t, r.InsertProjectTx(ctx, tx, p, "seed", 4))

	pos, err = r.NextProjectPosition(ctx, tx)
	require.NoError(t, err)
	assert.Equal(t, 5, pos)
}
