package chat

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"aptmatch/internal/domain"
	"aptmatch/internal/scoring"
)

const defaultListCap = 5

// Responder turns free-text queries into formatted answers over an
// immutable snapshot of the candidate and project datasets.
type Responder struct {
	Candidates []domain.Candidate
	Projects   []domain.Project
	Scorer     scoring.Engine
	ListCap    int
}

func NewResponder(candidates []domain.Candidate, projects []domain.Project) *Responder {
	return &Responder{
		Candidates: candidates,
		Projects:   projects,
		Scorer:     scoring.New(),
		ListCap:    defaultListCap,
	}
}

func (r *Responder) listCap() int {
	if r.ListCap > 0 {
		return r.ListCap
	}
	return defaultListCap
}

// Respond classifies the query, extracts entities, and dispatches to the
// matching response generator. It returns the classified intent with the
// reply so callers report the intent the answer was built from. Same
// query plus same datasets always yields the same text.
func (r *Responder) Respond(query string) (Intent, string) {
	intent := Classify(query)
	ctx := ExtractContext(query, r.Candidates, r.Projects)

	var reply string
	switch intent {
	case IntentListCandidates:
		reply = r.candidateList(ctx)
	case IntentCandidateDetails:
		reply = r.candidateDetails(ctx)
	case IntentListProjects:
		reply = r.projectList(ctx)
	case IntentProjectDetails:
		reply = r.projectDetails(ctx)
	case IntentMatchingExplanation:
		reply = r.matchingExplanation()
	case IntentScoreExplanation:
		reply = r.scoreExplanation()
	case IntentWhyChosen:
		reply = r.whyChosen(ctx)
	case IntentAvailabilityStatus:
		reply = r.availabilityStatus()
	case IntentUploadHelp:
		reply = r.uploadHelp()
	case IntentFeaturesOverview:
		reply = r.featuresOverview()
	case IntentHelp:
		reply = r.help()
	default:
		reply = r.general(query, ctx)
	}
	return intent, reply
}

func pct(score float64) int {
	return int(math.Round(score * 100))
}

func (r *Responder) candidateList(ctx Context) string {
	candidates := make([]domain.Candidate, 0, len(r.Candidates))
	for _, c := range r.Candidates {
		if ctx.Tier != "" && c.Tier != ctx.Tier {
			continue
		}
		if len(ctx.Skills) > 0 && !hasAnySkill(c.Skills, ctx.Skills) {
			continue
		}
		candidates = append(candidates, c)
	}
	sort.SliceStable(candidates, func(i, j int) bool {
		if candidates[i].Ranking != candidates[j].Ranking {
			return candidates[i].Ranking > candidates[j].Ranking
		}
		return candidates[i].ID < candidates[j].ID
	})

	var b strings.Builder
	b.WriteString("Top candidates:\n")
	shown := candidates
	if limit := r.listCap(); len(shown) > limit {
		shown = shown[:limit]
	}
	for _, c := range shown {
		fmt.Fprintf(&b, "- %s (%s), %s, Tier %s, ranking %d\n", c.Name, c.Role, c.Availability, c.Tier, c.Ranking)
	}
	fmt.Fprintf(&b, "Total: %d", len(candidates))
	if ctx.Tier != "" || len(ctx.Skills) > 0 {
		var filters []string
		if ctx.Tier != "" {
			filters = append(filters, "Tier "+string(ctx.Tier))
		}
		if len(ctx.Skills) > 0 {
			filters = append(filters, "skills "+strings.Join(ctx.Skills, ", "))
		}
		fmt.Fprintf(&b, " (filtered by %s)", strings.Join(filters, "; "))
	}
	return b.String()
}

func hasAnySkill(skills, wanted []string) bool {
	for _, w := range wanted {
		for _, s := range skills {
			if strings.Contains(strings.ToLower(s), strings.ToLower(w)) {
				return true
			}
		}
	}
	return false
}

func tierLabel(t domain.Tier) string {
	switch t {
	case domain.TierA:
		return "Senior"
	case domain.TierB:
		return "Mid"
	case domain.TierC:
		return "Junior"
	}
	return string(t)
}

func (r *Responder) candidateDetails(ctx Context) string {
	if ctx.Candidate == nil {
		return r.candidateList(ctx)
	}
	c := ctx.Candidate
	var b strings.Builder
	fmt.Fprintf(&b, "%s", c.Name)
	if c.Role != "" {
		fmt.Fprintf(&b, " (%s)", c.Role)
	}
	b.WriteString("\n")
	fmt.Fprintf(&b, "Tier: %s (%s)\n", c.Tier, tierLabel(c.Tier))
	fmt.Fprintf(&b, "Ranking: %d\n", c.Ranking)
	fmt.Fprintf(&b, "Availability: %s\n", c.Availability)
	if c.Experience > 0 {
		fmt.Fprintf(&b, "Experience: %d years\n", c.Experience)
	}
	skills := c.Skills
	suffix := ""
	if len(skills) > 5 {
		skills = skills[:5]
		suffix = ", ..."
	}
	fmt.Fprintf(&b, "Skills: %s%s", strings.Join(skills, ", "), suffix)
	return b.String()
}

func (r *Responder) projectList(ctx Context) string {
	projects := make([]domain.Project, 0, len(r.Projects))
	for _, p := range r.Projects {
		if len(ctx.Skills) > 0 && !hasAnySkill(p.RequiredSkills, ctx.Skills) {
			continue
		}
		projects = append(projects, p)
	}

	var b strings.Builder
	b.WriteString("Current projects:\n")
	for _, p := range projects {
		fmt.Fprintf(&b, "- %s, %s", p.Title, p.Status)
		if p.Timeline != "" {
			fmt.Fprintf(&b, ", %s", p.Timeline)
		}
		fmt.Fprintf(&b, ", %d required skills\n", len(p.RequiredSkills))
	}
	fmt.Fprintf(&b, "Total: %d", len(projects))
	if len(ctx.Skills) > 0 {
		fmt.Fprintf(&b, " (filtered by skills %s)", strings.Join(ctx.Skills, ", "))
	}
	return b.String()
}

func (r *Responder) projectDetails(ctx Context) string {
	if ctx.Project == nil {
		return r.projectList(ctx)
	}
	p := ctx.Project
	var b strings.Builder
	fmt.Fprintf(&b, "%s\n", p.Title)
	if p.Description != "" {
		fmt.Fprintf(&b, "%s\n", p.Description)
	}
	fmt.Fprintf(&b, "Status: %s\n", p.Status)
	if p.Timeline != "" {
		fmt.Fprintf(&b, "Timeline: %s\n", p.Timeline)
	}
	if p.Budget != "" {
		fmt.Fprintf(&b, "Budget: %s\n", p.Budget)
	}
	fmt.Fprintf(&b, "Required skills: %s", strings.Join(p.RequiredSkills, ", "))
	return b.String()
}

func (r *Responder) matchingExplanation() string {
	return "Matching algorithm:\n" +
		"1. Skills (50%): share of the project's required skills the candidate covers.\n" +
		"2. Availability (30%): Available 100%, Partially Available 70%, Busy 20%.\n" +
		"3. Seniority (20%): Tier A 90%, Tier B 80%, Tier C 70%.\n" +
		"Fit score = skills x 0.5 + availability x 0.3 + seniority x 0.2."
}

func (r *Responder) scoreExplanation() string {
	return "Score interpretation:\n" +
		"- 90-100%: excellent fit\n" +
		"- 80-89%: very good fit\n" +
		"- 70-79%: good fit\n" +
		"- 60-69%: fair, needs review\n" +
		"- below 60%: poor, usually filtered out\n" +
		"Factors: skill overlap, availability status, seniority tier."
}

// whyChosen explains a concrete pair. Without an explicit pair in context
// it picks a reproducible example: the highest-ranked Available candidate
// and that candidate's best-fit project.
func (r *Responder) whyChosen(ctx Context) string {
	c, p, ok := r.examplePair(ctx)
	if !ok {
		return "I need at least one candidate and one project in the system to explain a match."
	}
	result, err := r.Scorer.Score(c, p)
	if err != nil {
		return fmt.Sprintf("I could not score %s against %s: %v.", c.Name, p.Title, err)
	}
	var b strings.Builder
	fmt.Fprintf(&b, "Why %s was chosen for %s:\n", c.Name, p.Title)
	fmt.Fprintf(&b, "Fit score: %d%%\n", pct(result.FitScore))
	fmt.Fprintf(&b, "- Skills: %d%% (%d/%d required skills)\n", pct(result.SkillMatch), len(result.MatchedSkills), len(p.RequiredSkills))
	fmt.Fprintf(&b, "- Availability: %d%% (%s)\n", pct(result.AvailabilityMatch), c.Availability)
	fmt.Fprintf(&b, "- Seniority: %d%% (Tier %s)\n", pct(result.SeniorityMatch), c.Tier)
	b.WriteString(result.Explanation)
	return b.String()
}

func (r *Responder) examplePair(ctx Context) (domain.Candidate, domain.Project, bool) {
	if ctx.Candidate != nil && ctx.Project != nil {
		return *ctx.Candidate, *ctx.Project, true
	}
	var c domain.Candidate
	if ctx.Candidate != nil {
		c = *ctx.Candidate
	} else {
		available := make([]domain.Candidate, 0, len(r.Candidates))
		for _, cand := range r.Candidates {
			if cand.Availability == domain.Available {
				available = append(available, cand)
			}
		}
		if len(available) == 0 {
			available = append(available, r.Candidates...)
		}
		if len(available) == 0 {
			return domain.Candidate{}, domain.Project{}, false
		}
		sort.SliceStable(available, func(i, j int) bool {
			if available[i].Ranking != available[j].Ranking {
				return available[i].Ranking > available[j].Ranking
			}
			return available[i].ID < available[j].ID
		})
		c = available[0]
	}
	if ctx.Project != nil {
		return c, *ctx.Project, true
	}
	results, err := r.Scorer.AnalyzeCandidate(c, r.Projects)
	if err != nil || len(results) == 0 {
		return domain.Candidate{}, domain.Project{}, false
	}
	for _, p := range r.Projects {
		if p.ID == results[0].ProjectID {
			return c, p, true
		}
	}
	return domain.Candidate{}, domain.Project{}, false
}

func (r *Responder) availabilityStatus() string {
	var available, partially, busy []domain.Candidate
	for _, c := range r.Candidates {
		switch c.Availability {
		case domain.Available:
			available = append(available, c)
		case domain.PartiallyAvailable:
			partially = append(partially, c)
		case domain.Busy:
			busy = append(busy, c)
		}
	}
	total := len(r.Candidates)
	share := func(n int) int {
		if total == 0 {
			return 0
		}
		return int(math.Round(float64(n) / float64(total) * 100))
	}
	tiers := map[domain.Tier]int{}
	for _, c := range available {
		tiers[c.Tier]++
	}
	sort.SliceStable(available, func(i, j int) bool {
		if available[i].Ranking != available[j].Ranking {
			return available[i].Ranking > available[j].Ranking
		}
		return available[i].ID < available[j].ID
	})

	var b strings.Builder
	b.WriteString("Current availability:\n")
	fmt.Fprintf(&b, "- Available: %d (%d%%)\n", len(available), share(len(available)))
	fmt.Fprintf(&b, "- Partially Available: %d (%d%%)\n", len(partially), share(len(partially)))
	fmt.Fprintf(&b, "- Busy: %d (%d%%)\n", len(busy), share(len(busy)))
	fmt.Fprintf(&b, "Available by tier: A %d, B %d, C %d", tiers[domain.TierA], tiers[domain.TierB], tiers[domain.TierC])
	if len(available) > 0 {
		b.WriteString("\nTop available:")
		top := available
		if len(top) > 3 {
			top = top[:3]
		}
		for _, c := range top {
			fmt.Fprintf(&b, "\n- %s (Tier %s, ranking %d)", c.Name, c.Tier, c.Ranking)
		}
	}
	return b.String()
}

func (r *Responder) uploadHelp() string {
	return "Importing projects from CSV:\n" +
		"The header row must contain the columns name, required_skills, seniority, timeline, priority (any order, case-insensitive).\n" +
		"required_skills is a comma-separated list inside one field.\n" +
		"Example:\n" +
		"name,required_skills,seniority,timeline,priority\n" +
		"\"E-commerce Site\",\"React, Node.js, PostgreSQL\",senior,6 months,High\n" +
		"Imported projects start in Planning status with budget TBD."
}

func (r *Responder) featuresOverview() string {
	return "What this system does:\n" +
		"- Multi-factor matching: skills (50%), availability (30%), seniority (20%)\n" +
		"- Per-project candidate rankings with deterministic tie-breaks\n" +
		"- Plain-language explanations for every score\n" +
		"- CSV project import with validation\n" +
		"- Approval workflow with a durable audit trail"
}

func (r *Responder) help() string {
	return "Things you can ask me:\n" +
		"- \"Show me all candidates\" or \"show senior candidates\"\n" +
		"- \"Tell me about <candidate name>\"\n" +
		"- \"What projects are available?\"\n" +
		"- \"How does matching work?\" or \"what is a good score?\"\n" +
		"- \"Why was <candidate name> chosen?\"\n" +
		"- \"Which candidates are available?\" or \"how do I upload projects?\""
}

func (r *Responder) general(query string, ctx Context) string {
	if ctx.Candidate != nil {
		return r.candidateDetails(ctx)
	}
	if ctx.Project != nil {
		return r.projectDetails(ctx)
	}
	if len(ctx.Skills) > 0 {
		return r.candidateList(ctx) + "\n\n" + r.projectList(ctx)
	}
	return fmt.Sprintf("I am not sure what %q is asking. I can list candidates or projects, explain how matching and scoring work, or tell you why a candidate was chosen. Try \"help\" for examples.", strings.TrimSpace(query))
}
