package scoring

import (
	"math"
	"sort"
	"strings"

	"aptmatch/internal/domain"
)

// Fixed factor weights. These must not vary by caller.
const (
	WeightSkills       = 0.5
	WeightAvailability = 0.3
	WeightSeniority    = 0.2
)

var availabilityScores = map[domain.Availability]float64{
	domain.Available:          1.0,
	domain.PartiallyAvailable: 0.7,
	domain.Busy:               0.2,
}

// Tier-based seniority table. The product help text also describes a
// perfect/adjacent/distant proximity scheme (1.0/0.8/0.6); the tier table
// is the one the scoring path uses.
var seniorityScores = map[domain.Tier]float64{
	domain.TierA: 0.9,
	domain.TierB: 0.8,
	domain.TierC: 0.7,
}

// ProjectMatches groups the ranked candidates for one project.
type ProjectMatches struct {
	Project    domain.Project       `json:"project"`
	Candidates []domain.MatchResult `json:"candidates"`
}

// Engine computes weighted fit scores between candidates and projects.
// It is a pure computation over immutable snapshots: no I/O, no clock,
// no randomness. Safe for concurrent use.
type Engine struct{}

func New() Engine { return Engine{} }

// Score computes the sub-scores and weighted fit score for one pair.
// Scores are rounded to three decimals so a pair always scores
// byte-identically across runs.
func (Engine) Score(c domain.Candidate, p domain.Project) (domain.MatchResult, error) {
	avail, ok := availabilityScores[c.Availability]
	if !ok {
		return domain.MatchResult{}, &domain.ValidationError{Field: "availability", Value: string(c.Availability)}
	}
	seniority, ok := seniorityScores[c.Tier]
	if !ok {
		return domain.MatchResult{}, &domain.ValidationError{Field: "tier", Value: string(c.Tier)}
	}

	skill, matched, degenerate := skillMatch(c.Skills, p.RequiredSkills)
	fit := skill*WeightSkills + avail*WeightAvailability + seniority*WeightSeniority

	r := domain.MatchResult{
		CandidateID:       c.ID,
		ProjectID:         p.ID,
		SkillMatch:        round3(skill),
		AvailabilityMatch: round3(avail),
		SeniorityMatch:    round3(seniority),
		FitScore:          round3(fit),
		MatchedSkills:     matched,
		Degenerate:        degenerate,
	}
	r.Explanation = Explain(c, p, r)
	return r, nil
}

// skillMatch returns the fraction of required skills a candidate covers.
// A requirement is covered when any candidate skill matches it by
// case-insensitive substring containment in either direction. A project
// with no required skills is degenerate and scores zero.
func skillMatch(candidateSkills, required []string) (score float64, matched []string, degenerate bool) {
	if len(required) == 0 {
		return 0, nil, true
	}
	for _, req := range required {
		for _, skill := range candidateSkills {
			if skillsOverlap(skill, req) {
				matched = append(matched, req)
				break
			}
		}
	}
	score = float64(len(matched)) / float64(len(required))
	if score > 1 {
		score = 1
	}
	return score, matched, false
}

func skillsOverlap(a, b string) bool {
	la, lb := strings.ToLower(strings.TrimSpace(a)), strings.ToLower(strings.TrimSpace(b))
	if la == "" || lb == "" {
		return false
	}
	return strings.Contains(la, lb) || strings.Contains(lb, la)
}

// RankForProject scores every candidate against one project and returns
// them sorted by fit score descending, ties broken by candidate ranking
// descending, then candidate id ascending. Candidates below minFit are
// excluded; minFit <= 0 disables filtering. The engine itself never
// enforces a threshold.
func (e Engine) RankForProject(p domain.Project, candidates []domain.Candidate, minFit float64) ([]domain.MatchResult, error) {
	results := make([]domain.MatchResult, 0, len(candidates))
	rankings := make(map[string]int, len(candidates))
	for _, c := range candidates {
		r, err := e.Score(c, p)
		if err != nil {
			return nil, err
		}
		rankings[c.ID] = c.Ranking
		if minFit > 0 && r.FitScore < minFit {
			continue
		}
		results = append(results, r)
	}
	sort.SliceStable(results, func(i, j int) bool {
		a, b := results[i], results[j]
		if a.FitScore != b.FitScore {
			return a.FitScore > b.FitScore
		}
		if rankings[a.CandidateID] != rankings[b.CandidateID] {
			return rankings[a.CandidateID] > rankings[b.CandidateID]
		}
		return a.CandidateID < b.CandidateID
	})
	return results, nil
}

// Match ranks all candidates against every project.
func (e Engine) Match(candidates []domain.Candidate, projects []domain.Project, minFit float64) (map[string]ProjectMatches, error) {
	out := make(map[string]ProjectMatches, len(projects))
	for _, p := range projects {
		ranked, err := e.RankForProject(p, candidates, minFit)
		if err != nil {
			return nil, err
		}
		out[p.ID] = ProjectMatches{Project: p, Candidates: ranked}
	}
	return out, nil
}

// MatchForProject ranks candidates for a single project by id.
func (e Engine) MatchForProject(projectID string, candidates []domain.Candidate, projects []domain.Project, minFit float64) (ProjectMatches, error) {
	for _, p := range projects {
		if p.ID == projectID {
			ranked, err := e.RankForProject(p, candidates, minFit)
			if err != nil {
				return ProjectMatches{}, err
			}
			return ProjectMatches{Project: p, Candidates: ranked}, nil
		}
	}
	return ProjectMatches{}, ErrUnknownProject
}

// AnalyzeCandidate scores one candidate against every project, ordered by
// fit descending with project id ascending on ties.
func (e Engine) AnalyzeCandidate(c domain.Candidate, projects []domain.Project) ([]domain.MatchResult, error) {
	results := make([]domain.MatchResult, 0, len(projects))
	for _, p := range projects {
		r, err := e.Score(c, p)
		if err != nil {
			return nil, err
		}
		results = append(results, r)
	}
	sort.SliceStable(results, func(i, j int) bool {
		if results[i].FitScore != results[j].FitScore {
			return results[i].FitScore > results[j].FitScore
		}
		return results[i].ProjectID < results[j].ProjectID
	})
	return results, nil
}

func round3(v float64) float64 {
	return math.Round(v*1000) / 1000
}
