package scoring

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"aptmatch/internal/domain"
)

func candidate(id string, tier domain.Tier, avail domain.Availability, ranking int, skills ...string) domain.Candidate {
	return domain.Candidate{
		ID:           id,
		Name:         "Candidate " + id,
		Skills:       skills,
		Tier:         tier,
		Ranking:      ranking,
		Availability: avail,
	}
}

func project(id string, skills ...string) domain.Project {
	return domain.Project{
		ID:             id,
		Title:          "Project " + id,
		RequiredSkills: skills,
		Status:         domain.ProjectActive,
	}
}

func TestScoreExampleScenario(t *testing.T) {
	// Candidate skills [React, Node.js] vs required [React, Database]:
	// skill 0.5, availability 1.0, tier A 0.9 => fit 0.73.
	e := New()
	c := candidate("c1", domain.TierA, domain.Available, 95, "React", "Node.js")
	p := project("p1", "React", "Database")

	r, err := e.Score(c, p)
	require.NoError(t, err)
	assert.Equal(t, 0.5, r.SkillMatch)
	assert.Equal(t, 1.0, r.AvailabilityMatch)
	assert.Equal(t, 0.9, r.SeniorityMatch)
	assert.Equal(t, 0.73, r.FitScore)
	assert.Equal(t, []string{"React"}, r.MatchedSkills)
}

func TestScoreWeightFormula(t *testing.T) {
	e := New()
	cases := []struct {
		tier  domain.Tier
		avail domain.Availability
	}{
		{domain.TierA, domain.Available},
		{domain.TierA, domain.Busy},
		{domain.TierB, domain.PartiallyAvailable},
		{domain.TierC, domain.Busy},
		{domain.TierC, domain.Available},
	}
	p := project("p1", "Go", "Python", "SQL")
	for _, tc := range cases {
		c := candidate("c1", tc.tier, tc.avail, 50, "Go", "Rust")
		r, err := e.Score(c, p)
		require.NoError(t, err)
		expected := round3(r.SkillMatch*WeightSkills + r.AvailabilityMatch*WeightAvailability + r.SeniorityMatch*WeightSeniority)
		assert.Equal(t, expected, r.FitScore, "tier=%s avail=%s", tc.tier, tc.avail)
	}
}

func TestScoreBounds(t *testing.T) {
	e := New()
	candidates := []domain.Candidate{
		candidate("c1", domain.TierA, domain.Available, 100, "React", "Node.js", "Python", "SQL"),
		candidate("c2", domain.TierB, domain.PartiallyAvailable, 50),
		candidate("c3", domain.TierC, domain.Busy, 0, "COBOL"),
	}
	projects := []domain.Project{
		project("p1", "React", "Node.js"),
		project("p2"),
		project("p3", "Kubernetes", "Terraform", "AWS", "Go", "Rust"),
	}
	for _, c := range candidates {
		for _, p := range projects {
			r, err := e.Score(c, p)
			require.NoError(t, err)
			for name, v := range map[string]float64{
				"skill":        r.SkillMatch,
				"availability": r.AvailabilityMatch,
				"seniority":    r.SeniorityMatch,
				"fit":          r.FitScore,
			} {
				assert.GreaterOrEqual(t, v, 0.0, "%s for %s/%s", name, c.ID, p.ID)
				assert.LessOrEqual(t, v, 1.0, "%s for %s/%s", name, c.ID, p.ID)
			}
		}
	}
}

func TestAvailabilityMappingIsTotalAndExact(t *testing.T) {
	e := New()
	p := project("p1", "Go")
	expected := map[domain.Availability]float64{
		domain.Available:          1.0,
		domain.PartiallyAvailable: 0.7,
		domain.Busy:               0.2,
	}
	for avail, want := range expected {
		r, err := e.Score(candidate("c1", domain.TierB, avail, 50, "Go"), p)
		require.NoError(t, err)
		assert.Equal(t, want, r.AvailabilityMatch)
	}

	_, err := e.Score(candidate("c1", domain.TierB, "On Vacation", 50, "Go"), p)
	var verr *domain.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "availability", verr.Field)
}

func TestSeniorityTierTable(t *testing.T) {
	e := New()
	p := project("p1", "Go")
	for tier, want := range map[domain.Tier]float64{
		domain.TierA: 0.9,
		domain.TierB: 0.8,
		domain.TierC: 0.7,
	} {
		r, err := e.Score(candidate("c1", tier, domain.Available, 50, "Go"), p)
		require.NoError(t, err)
		assert.Equal(t, want, r.SeniorityMatch)
	}
}

func TestSkillMatchSymmetricContainment(t *testing.T) {
	e := New()
	// "React" matches requirement "React Native" and vice versa.
	r, err := e.Score(
		candidate("c1", domain.TierA, domain.Available, 90, "React"),
		project("p1", "React Native"),
	)
	require.NoError(t, err)
	assert.Equal(t, 1.0, r.SkillMatch)

	r, err = e.Score(
		candidate("c1", domain.TierA, domain.Available, 90, "React Native"),
		project("p1", "react"),
	)
	require.NoError(t, err)
	assert.Equal(t, 1.0, r.SkillMatch)
}

func TestSkillMatchDegenerateProject(t *testing.T) {
	e := New()
	r, err := e.Score(candidate("c1", domain.TierA, domain.Available, 90, "Go"), project("p1"))
	require.NoError(t, err)
	assert.True(t, r.Degenerate)
	assert.Equal(t, 0.0, r.SkillMatch)
	// fit = 0*0.5 + 1.0*0.3 + 0.9*0.2
	assert.Equal(t, 0.48, r.FitScore)
}

func TestScoreIdempotent(t *testing.T) {
	e := New()
	c := candidate("c1", domain.TierB, domain.PartiallyAvailable, 70, "Go", "SQL", "Docker")
	p := project("p1", "Go", "Kubernetes", "SQL")
	first, err := e.Score(c, p)
	require.NoError(t, err)
	for i := 0; i < 10; i++ {
		again, err := e.Score(c, p)
		require.NoError(t, err)
		assert.Equal(t, first, again)
	}
}

func TestRankForProjectOrderAndTieBreaks(t *testing.T) {
	e := New()
	p := project("p1", "Go")
	// b and c tie on every sub-score; b outranks c. d ties with both and
	// shares c's ranking, so id ascending decides.
	candidates := []domain.Candidate{
		candidate("c", domain.TierA, domain.Available, 50, "Go"),
		candidate("a", domain.TierC, domain.Busy, 99),
		candidate("b", domain.TierA, domain.Available, 80, "Go"),
		candidate("d", domain.TierA, domain.Available, 50, "Go"),
	}
	ranked, err := e.RankForProject(p, candidates, 0)
	require.NoError(t, err)
	ids := make([]string, len(ranked))
	for i, r := range ranked {
		ids[i] = r.CandidateID
	}
	assert.Equal(t, []string{"b", "c", "d", "a"}, ids)
}

func TestRankForProjectStableAcrossRuns(t *testing.T) {
	e := New()
	p := project("p1", "Go", "SQL")
	var candidates []domain.Candidate
	tiers := []domain.Tier{domain.TierA, domain.TierB, domain.TierC}
	avails := []domain.Availability{domain.Available, domain.PartiallyAvailable, domain.Busy}
	for i := 0; i < 12; i++ {
		candidates = append(candidates, candidate(
			fmt.Sprintf("c%02d", i), tiers[i%3], avails[i%3], (i*37)%100, "Go",
		))
	}
	first, err := e.RankForProject(p, candidates, 0)
	require.NoError(t, err)
	for i := 0; i < 5; i++ {
		again, err := e.RankForProject(p, candidates, 0)
		require.NoError(t, err)
		assert.Equal(t, first, again)
	}
}

func TestRankForProjectMinFitFilter(t *testing.T) {
	e := New()
	p := project("p1", "Go")
	candidates := []domain.Candidate{
		candidate("hit", domain.TierA, domain.Available, 90, "Go"),
		candidate("miss", domain.TierC, domain.Busy, 10),
	}
	ranked, err := e.RankForProject(p, candidates, 0.6)
	require.NoError(t, err)
	require.Len(t, ranked, 1)
	assert.Equal(t, "hit", ranked[0].CandidateID)

	// No threshold: everything scores, nothing is dropped.
	all, err := e.RankForProject(p, candidates, 0)
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func TestMatchForProjectUnknownID(t *testing.T) {
	e := New()
	_, err := e.MatchForProject("nope", nil, []domain.Project{project("p1", "Go")}, 0)
	assert.ErrorIs(t, err, ErrUnknownProject)
}

func TestAnalyzeCandidateOrdering(t *testing.T) {
	e := New()
	c := candidate("c1", domain.TierA, domain.Available, 90, "Go", "SQL")
	projects := []domain.Project{
		project("p-none", "Haskell"),
		project("p-all", "Go", "SQL"),
		project("p-half", "Go", "Rust"),
	}
	results, err := e.AnalyzeCandidate(c, projects)
	require.NoError(t, err)
	require.Len(t, results, 3)
	assert.Equal(t, "p-all", results[0].ProjectID)
	assert.Equal(t, "p-half", results[1].ProjectID)
	assert.Equal(t, "p-none", results[2].ProjectID)
}
