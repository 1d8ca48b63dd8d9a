package chat

import (
	"strings"

	"aptmatch/internal/domain"
)

// Context holds the entities recognized in a query. Candidate and Project
// are nil when nothing matched.
type Context struct {
	Candidate *domain.Candidate
	Project   *domain.Project
	Skills    []string
	Tier      domain.Tier
}

// ExtractContext scans the query for candidate names, project titles,
// skills, and tier phrases. Candidates and projects resolve to the first
// match in list order, so two people sharing a name token resolve to
// whichever comes first. Skills collect every hit. Tier phrases are
// checked in A, B, C order and the last hit wins.
func ExtractContext(query string, candidates []domain.Candidate, projects []domain.Project) Context {
	q := strings.ToLower(strings.TrimSpace(query))
	var ctx Context

	for i := range candidates {
		if nameMentioned(q, candidates[i].Name) {
			ctx.Candidate = &candidates[i]
			break
		}
	}

	for i := range projects {
		if nameMentioned(q, projects[i].Title) {
			ctx.Project = &projects[i]
			break
		}
	}

	ctx.Skills = matchSkills(q, skillVocabulary(candidates))

	if strings.Contains(q, "tier a") || strings.Contains(q, "senior") {
		ctx.Tier = domain.TierA
	}
	if strings.Contains(q, "tier b") || strings.Contains(q, "mid") {
		ctx.Tier = domain.TierB
	}
	if strings.Contains(q, "tier c") || strings.Contains(q, "junior") {
		ctx.Tier = domain.TierC
	}

	return ctx
}

// nameMentioned reports whether the full name or any of its tokens occurs
// in the lower-cased query.
func nameMentioned(q, name string) bool {
	lower := strings.ToLower(name)
	if strings.Contains(q, lower) {
		return true
	}
	for _, part := range strings.Fields(lower) {
		if strings.Contains(q, part) {
			return true
		}
	}
	return false
}

// skillVocabulary is every distinct skill across the candidate pool, in
// order of first appearance so extraction order is reproducible.
func skillVocabulary(candidates []domain.Candidate) []string {
	seen := make(map[string]bool)
	var vocab []string
	for _, c := range candidates {
		for _, s := range c.Skills {
			key := strings.ToLower(s)
			if !seen[key] {
				seen[key] = true
				vocab = append(vocab, s)
			}
		}
	}
	return vocab
}

func matchSkills(q string, vocab []string) []string {
	var hits []string
	for _, s := range vocab {
		if strings.Contains(q, strings.ToLower(s)) {
			hits = append(hits, s)
		}
	}
	return hits
}
