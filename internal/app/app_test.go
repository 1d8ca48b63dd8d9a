package app_test

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"aptmatch/internal/app"
	"aptmatch/internal/chat"
	"aptmatch/internal/config"
	"aptmatch/internal/dataset"
	"aptmatch/internal/db"
	"aptmatch/internal/migrate"
)

func newTestApp(t *testing.T, cfg *config.Config) (*app.App, context.Context) {
	t.Helper()
	if cfg == nil {
		cfg = config.Default()
	}
	conn, err := db.Open(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	require.NoError(t, migrate.Migrate(conn))
	ctx := context.Background()
	require.NoError(t, dataset.Seed(ctx, conn))
	return app.New(conn, cfg, zap.NewNop()), ctx
}

const importCSV = `name,required_skills,seniority,timeline,priority
Checkout Rework,"React, TypeScript",Senior,Q2 2026,High
Billing Cleanup,"SQL, Python",Mid,Q3 2026,
`

func TestImportProjectsReplacesPriorImport(t *testing.T) {
	a, ctx := newTestApp(t, nil)

	first, err := a.ImportProjects(ctx, strings.NewReader(importCSV))
	require.NoError(t, err)
	require.Len(t, first, 2)

	second, err := a.ImportProjects(ctx, strings.NewReader(
		"name,required_skills,seniority,timeline,priority\nSearch Revamp,Go,Senior,Q4 2026,High\n"))
	require.NoError(t, err)
	require.Len(t, second, 1)

	projects, err := a.Projects(ctx)
	require.NoError(t, err)
	// 5 seeded plus the single surviving import.
	require.Len(t, projects, 6)
	titles := make([]string, len(projects))
	for i, p := range projects {
		titles[i] = p.Title
	}
	assert.Contains(t, titles, "Search Revamp")
	assert.NotContains(t, titles, "Checkout Rework")
	assert.NotContains(t, titles, "Billing Cleanup")
	assert.Equal(t, "Search Revamp", projects[5].Title)
}

func TestImportProjectsRejectsMissingColumns(t *testing.T) {
	a, ctx := newTestApp(t, nil)

	_, err := a.ImportProjects(ctx, strings.NewReader("name,required_skills\nX,Go\n"))
	require.Error(t, err)

	projects, err := a.Projects(ctx)
	require.NoError(t, err)
	assert.Len(t, projects, 5)
}

func TestMatchForProjectThresholds(t *testing.T) {
	a, ctx := newTestApp(t, nil)

	// -1 means use the configured threshold (0.6 by default).
	filtered, err := a.MatchForProject(ctx, "1", -1)
	require.NoError(t, err)
	require.Len(t, filtered.Candidates, 2)
	assert.Equal(t, "1", filtered.Candidates[0].CandidateID)
	assert.InDelta(t, 0.73, filtered.Candidates[0].FitScore, 1e-9)
	assert.Equal(t, "7", filtered.Candidates[1].CandidateID)
	assert.InDelta(t, 0.605, filtered.Candidates[1].FitScore, 1e-9)

	all, err := a.MatchForProject(ctx, "1", 0)
	require.NoError(t, err)
	assert.Len(t, all.Candidates, 8)
}

func TestChatHonorsListDisplayLimit(t *testing.T) {
	cfg := config.Default()
	cfg.Matching.ListDisplayLimit = 2
	a, ctx := newTestApp(t, cfg)

	intent, reply, err := a.Chat(ctx, "show me all candidates")
	require.NoError(t, err)
	assert.Equal(t, chat.IntentListCandidates, intent)
	assert.Contains(t, reply, "Sarah Chen")
	assert.Contains(t, reply, "Marcus Johnson")
	assert.NotContains(t, reply, "Elena Rodriguez")
	assert.Contains(t, reply, "Total: 8")
}
