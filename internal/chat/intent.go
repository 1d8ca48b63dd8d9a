package chat

import "strings"

// Intent classifies what a free-text query is asking for.
type Intent string

const (
	IntentListCandidates      Intent = "list_candidates"
	IntentCandidateDetails    Intent = "candidate_details"
	IntentListProjects        Intent = "list_projects"
	IntentProjectDetails      Intent = "project_details"
	IntentMatchingExplanation Intent = "matching_explanation"
	IntentScoreExplanation    Intent = "score_explanation"
	IntentWhyChosen           Intent = "why_chosen"
	IntentAvailabilityStatus  Intent = "availability_status"
	IntentUploadHelp          Intent = "upload_help"
	IntentFeaturesOverview    Intent = "features_overview"
	IntentHelp                Intent = "help"
	IntentGeneral             Intent = "general"
)

var (
	candidateKeywords    = []string{"candidate", "candidates", "people", "person", "staff", "employee"}
	projectKeywords      = []string{"project", "projects", "work", "job", "assignment"}
	matchingKeywords     = []string{"match", "matching", "algorithm", "score", "fit"}
	whyKeywords          = []string{"why", "chosen", "selected", "picked", "assigned"}
	availabilityKeywords = []string{"available", "availability", "busy", "free"}
	uploadKeywords       = []string{"upload", "csv", "file", "import"}
	featureKeywords      = []string{"feature", "function", "capability", "what can"}
	helpKeywords         = []string{"help", "assist", "support", "guide"}
)

// rule pairs a keyword category with a secondary qualifier. Rules are
// evaluated top to bottom and the first hit wins, which makes the
// precedence between overlapping categories explicit.
type rule struct {
	keywords  []string
	qualifier func(q string) bool
	intent    Intent
}

func containsAny(q string, words []string) bool {
	for _, w := range words {
		if strings.Contains(q, w) {
			return true
		}
	}
	return false
}

func anyOf(words ...string) func(string) bool {
	return func(q string) bool { return containsAny(q, words) }
}

func always(string) bool { return true }

var rules = []rule{
	{candidateKeywords, anyOf("list", "show", "all"), IntentListCandidates},
	{candidateKeywords, anyOf("details", "about", "who is"), IntentCandidateDetails},
	{candidateKeywords, anyOf(availabilityKeywords...), IntentAvailabilityStatus},
	{candidateKeywords, always, IntentCandidateDetails},
	{projectKeywords, anyOf("list", "show", "all"), IntentListProjects},
	{projectKeywords, always, IntentProjectDetails},
	{matchingKeywords, anyOf("score", "scoring"), IntentScoreExplanation},
	{matchingKeywords, always, IntentMatchingExplanation},
	{whyKeywords, always, IntentWhyChosen},
	{uploadKeywords, always, IntentUploadHelp},
	{featureKeywords, always, IntentFeaturesOverview},
	{helpKeywords, always, IntentHelp},
}

// Classify maps a free-text query onto the closed intent set. Queries
// matching no category come back as IntentGeneral.
func Classify(query string) Intent {
	q := strings.ToLower(strings.TrimSpace(query))
	for _, r := range rules {
		if containsAny(q, r.keywords) && r.qualifier(q) {
			return r.intent
		}
	}
	return IntentGeneral
}
