package chat

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"aptmatch/internal/domain"
)

func testCandidates() []domain.Candidate {
	return []domain.Candidate{
		{ID: "1", Name: "Sarah Chen", Role: "Frontend Engineer", Skills: []string{"React", "TypeScript", "Node.js"}, Tier: domain.TierA, Ranking: 95, Availability: domain.Available},
		{ID: "2", Name: "Marcus Rodriguez", Role: "Backend Engineer", Skills: []string{"Python", "PostgreSQL"}, Tier: domain.TierB, Ranking: 88, Availability: domain.Busy},
		{ID: "3", Name: "Aisha Patel", Role: "Data Engineer", Skills: []string{"Python", "SQL"}, Tier: domain.TierC, Ranking: 76, Availability: domain.PartiallyAvailable},
	}
}

func testProjects() []domain.Project {
	return []domain.Project{
		{ID: "p1", Title: "Customer Portal", RequiredSkills: []string{"React", "TypeScript"}, Status: domain.ProjectActive, Timeline: "6 months"},
		{ID: "p2", Title: "Data Pipeline", RequiredSkills: []string{"Python", "SQL"}, Status: domain.ProjectPlanning, Timeline: "3 months"},
	}
}

func TestExtractContextCandidateByFullName(t *testing.T) {
	ctx := ExtractContext("why was Sarah Chen chosen", testCandidates(), testProjects())
	require.NotNil(t, ctx.Candidate)
	assert.Equal(t, "1", ctx.Candidate.ID)
}

func TestExtractContextCandidateByNameToken(t *testing.T) {
	ctx := ExtractContext("tell me about marcus", testCandidates(), testProjects())
	require.NotNil(t, ctx.Candidate)
	assert.Equal(t, "2", ctx.Candidate.ID)
}

func TestExtractContextFirstMatchWinsOnSharedToken(t *testing.T) {
	candidates := []domain.Candidate{
		{ID: "1", Name: "Sarah Chen"},
		{ID: "2", Name: "Wei Chen"},
	}
	ctx := ExtractContext("what about chen", candidates, nil)
	require.NotNil(t, ctx.Candidate)
	assert.Equal(t, "1", ctx.Candidate.ID)
}

func TestExtractContextProjectByTitle(t *testing.T) {
	ctx := ExtractContext("tell me about the customer portal", testCandidates(), testProjects())
	require.NotNil(t, ctx.Project)
	assert.Equal(t, "p1", ctx.Project.ID)
}

func TestExtractContextCollectsAllSkills(t *testing.T) {
	ctx := ExtractContext("who knows react and python", testCandidates(), testProjects())
	assert.Equal(t, []string{"React", "Python"}, ctx.Skills)
}

func TestExtractContextTierPhrases(t *testing.T) {
	ctx := ExtractContext("show tier a candidates", testCandidates(), testProjects())
	assert.Equal(t, domain.TierA, ctx.Tier)

	ctx = ExtractContext("any junior people", testCandidates(), testProjects())
	assert.Equal(t, domain.TierC, ctx.Tier)

	// Later tier phrases overwrite earlier ones.
	ctx = ExtractContext("senior or junior", testCandidates(), testProjects())
	assert.Equal(t, domain.TierC, ctx.Tier)
}

func TestExtractContextNoEntities(t *testing.T) {
	ctx := ExtractContext("hello there", testCandidates(), testProjects())
	assert.Nil(t, ctx.Candidate)
	assert.Nil(t, ctx.Project)
	assert.Empty(t, ctx.Skills)
	assert.Empty(t, ctx.Tier)
}

func TestExtractContextRepeatable(t *testing.T) {
	for i := 0; i < 10; i++ {
		ctx := ExtractContext("why was sarah chosen for the data pipeline", testCandidates(), testProjects())
		require.NotNil(t, ctx.Candidate)
		require.NotNil(t, ctx.Project)
		assert.Equal(t, "1", ctx.Candidate.ID)
		assert.Equal(t, "p2", ctx.Project.ID)
	}
}
