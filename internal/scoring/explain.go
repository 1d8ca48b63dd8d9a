package scoring

import (
	"errors"
	"fmt"
	"strings"

	"aptmatch/internal/domain"
)

// ErrUnknownProject is returned when a per-project operation references a
// project id absent from the snapshot.
var ErrUnknownProject = errors.New("project not found")

const explainSkillCap = 3

// Explain renders the human-readable justification for a match result.
// Output is byte-stable for identical inputs so it can be golden-tested.
func Explain(c domain.Candidate, p domain.Project, r domain.MatchResult) string {
	var b strings.Builder

	if r.Degenerate {
		b.WriteString("Skills match: project lists no required skills")
	} else {
		fmt.Fprintf(&b, "Skills match: %d/%d required skills", len(r.MatchedSkills), len(p.RequiredSkills))
		if len(r.MatchedSkills) > 0 {
			shown := r.MatchedSkills
			if len(shown) > explainSkillCap {
				shown = shown[:explainSkillCap]
			}
			fmt.Fprintf(&b, " (%s)", strings.Join(shown, ", "))
		}
	}

	fmt.Fprintf(&b, ". Availability: %s", c.Availability)

	descriptor := "Partial match"
	if r.SeniorityMatch > 0.8 {
		descriptor = "Match"
	}
	fmt.Fprintf(&b, ". Seniority: %s (Tier %s).", descriptor, c.Tier)
	return b.String()
}
