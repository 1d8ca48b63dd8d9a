package dataset_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"aptmatch/internal/dataset"
	"aptmatch/internal/db"
	"aptmatch/internal/domain"
	"aptmatch/internal/migrate"
	"aptmatch/internal/repo"
)

func TestLoadSeedData(t *testing.T) {
	ds, err := dataset.Load()
	require.NoError(t, err)
	assert.NotEmpty(t, ds.Candidates)
	assert.NotEmpty(t, ds.Projects)

	assert.Equal(t, "Sarah Chen", ds.Candidates[0].Name)
	assert.Equal(t, domain.TierA, ds.Candidates[0].Tier)
	assert.Equal(t, domain.Available, ds.Candidates[0].Availability)
}

func TestSeedIsRepeatable(t *testing.T) {
	dir := t.TempDir()
	conn, err := db.Open(dir)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	require.NoError(t, migrate.Migrate(conn))

	ctx := context.Background()
	require.NoError(t, dataset.Seed(ctx, conn))
	require.NoError(t, dataset.Seed(ctx, conn))

	r := repo.Repo{DB: conn}
	ds, err := dataset.Load()
	require.NoError(t, err)

	candidates, err := r.ListCandidates(ctx)
	require.NoError(t, err)
	require.Len(t, candidates, len(ds.Candidates))
	// Canonical order survives the round trip.
	for i := range candidates {
		assert.Equal(t, ds.Candidates[i].ID, candidates[i].ID)
		assert.Equal(t, ds.Candidates[i].Skills, candidates[i].Skills)
	}

	projects, err := r.ListProjects(ctx)
	require.NoError(t, err)
	require.Len(t, projects, len(ds.Projects))
	assert.Equal(t, "E-commerce Platform Redesign", projects[0].Title)
	require.NotNil(t, projects[0].RateCard)
	assert.Equal(t, "USD", projects[0].RateCard.Currency)
	assert.Len(t, projects[0].Milestones, 3)
}
