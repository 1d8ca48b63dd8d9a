package domain

import "fmt"

// Tier is the coarse seniority classification of a candidate.
type Tier string

const (
	TierA Tier = "A" // senior
	TierB Tier = "B" // mid
	TierC Tier = "C" // junior
)

// Availability is the candidate's current availability state.
type Availability string

const (
	Available          Availability = "Available"
	PartiallyAvailable Availability = "Partially Available"
	Busy               Availability = "Busy"
)

// EmployeeType is the employment classification of a candidate.
type EmployeeType string

const (
	EmployeeIntern EmployeeType = "Intern"
	EmployeeFTE    EmployeeType = "FTE"
	EmployeeSenior EmployeeType = "Senior"
)

// ProjectStatus is the lifecycle status of a project.
type ProjectStatus string

const (
	ProjectActive    ProjectStatus = "Active"
	ProjectPlanning  ProjectStatus = "Planning"
	ProjectCompleted ProjectStatus = "Completed"
)

// ApprovalStatus tracks the human decision on a candidate/project pair.
type ApprovalStatus string

const (
	StatusPending  ApprovalStatus = "Pending"
	StatusApproved ApprovalStatus = "Approved"
	StatusRejected ApprovalStatus = "Rejected"
)

type Candidate struct {
	ID              string       `json:"id"`
	Name            string       `json:"name"`
	Email           string       `json:"email,omitempty"`
	Skills          []string     `json:"skills"`
	Tier            Tier         `json:"tier" enum:"A,B,C"`
	Ranking         int          `json:"ranking" minimum:"0" maximum:"100"`
	Availability    Availability `json:"availability" enum:"Available,Partially Available,Busy"`
	Role            string       `json:"role,omitempty"`
	Experience      int          `json:"experience"`
	EmployeeType    EmployeeType `json:"employee_type,omitempty" enum:"Intern,FTE,Senior"`
	HoursPerWeek    int          `json:"hours_per_week,omitempty"`
	MaxCapacity     int          `json:"max_capacity,omitempty"`
	CurrentCapacity int          `json:"current_capacity,omitempty"`
	RatePerHour     float64      `json:"rate_per_hour,omitempty"`
	NDARequired     bool         `json:"nda_required,omitempty"`
	GeoRestrictions []string     `json:"geo_restrictions,omitempty"`
}

type Milestone struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	DueDate string `json:"due_date,omitempty" format:"date"`
	Status  string `json:"status,omitempty"`
}

type RateCard struct {
	Intern   float64 `json:"intern"`
	FTE      float64 `json:"fte"`
	Senior   float64 `json:"senior"`
	Currency string  `json:"currency"`
}

type Project struct {
	ID             string        `json:"id"`
	Title          string        `json:"title"`
	Description    string        `json:"description,omitempty"`
	RequiredSkills []string      `json:"required_skills"`
	Timeline       string        `json:"timeline,omitempty"`
	Budget         string        `json:"budget,omitempty"`
	BudgetAmount   float64       `json:"budget_amount,omitempty"`
	Seniority      string        `json:"seniority,omitempty"`
	Priority       string        `json:"priority,omitempty"`
	Status         ProjectStatus `json:"status" enum:"Active,Planning,Completed"`
	Milestones     []Milestone   `json:"milestones,omitempty"`
	RateCard       *RateCard     `json:"rate_card,omitempty"`
	NDARequired    bool          `json:"nda_required,omitempty"`
	Compliance     []string      `json:"compliance,omitempty"`
}

// MatchResult is the outcome of scoring one candidate against one project.
// All scores are in [0,1]; display layers multiply by 100. Results are
// created fresh on every scoring pass and never mutated.
type MatchResult struct {
	CandidateID       string   `json:"candidate_id"`
	ProjectID         string   `json:"project_id"`
	SkillMatch        float64  `json:"skill_match"`
	AvailabilityMatch float64  `json:"availability_match"`
	SeniorityMatch    float64  `json:"seniority_match"`
	FitScore          float64  `json:"fit_score"`
	MatchedSkills     []string `json:"matched_skills,omitempty"`
	Degenerate        bool     `json:"degenerate,omitempty"`
	Explanation       string   `json:"explanation,omitempty"`
}

// ApprovalRecord is the durable artifact of a human decision on a match.
// At most one record exists per (candidate_id, project_id) pair.
type ApprovalRecord struct {
	ID                string         `json:"id"`
	CandidateID       string         `json:"candidate_id"`
	ProjectID         string         `json:"project_id"`
	SkillMatch        float64        `json:"skill_match"`
	AvailabilityMatch float64        `json:"availability_match"`
	SeniorityMatch    float64        `json:"seniority_match"`
	FitScore          float64        `json:"fit_score"`
	Explanation       string         `json:"explanation,omitempty"`
	Status            ApprovalStatus `json:"status" enum:"Approved,Rejected"`
	DecidedAt         string         `json:"decided_at" format:"date-time"`
}

// ValidationError reports malformed input at an ingestion boundary.
// Missing holds missing column names for CSV imports; Field/Value report
// a single bad field otherwise.
type ValidationError struct {
	Field   string
	Value   string
	Missing []string
}

func (e *ValidationError) Error() string {
	if len(e.Missing) > 0 {
		if len(e.Missing) == 1 {
			return fmt.Sprintf("missing required column: %s", e.Missing[0])
		}
		return fmt.Sprintf("missing required columns: %v", e.Missing)
	}
	return fmt.Sprintf("invalid %s: %q", e.Field, e.Value)
}

// ParseAvailability validates an availability label. The mapping is total
// over the three known labels; anything else is a validation error.
func ParseAvailability(s string) (Availability, error) {
	switch Availability(s) {
	case Available, PartiallyAvailable, Busy:
		return Availability(s), nil
	}
	return "", &ValidationError{Field: "availability", Value: s}
}

// ParseTier validates a candidate tier label.
func ParseTier(s string) (Tier, error) {
	switch Tier(s) {
	case TierA, TierB, TierC:
		return Tier(s), nil
	}
	return "", &ValidationError{Field: "tier", Value: s}
}

// Validate checks the record-level invariants a candidate must satisfy
// before it is admitted into a scoring snapshot.
func (c Candidate) Validate() error {
	if c.ID == "" {
		return &ValidationError{Field: "id", Value: ""}
	}
	if _, err := ParseTier(string(c.Tier)); err != nil {
		return err
	}
	if _, err := ParseAvailability(string(c.Availability)); err != nil {
		return err
	}
	if c.Ranking < 0 || c.Ranking > 100 {
		return &ValidationError{Field: "ranking", Value: fmt.Sprintf("%d", c.Ranking)}
	}
	if c.MaxCapacity > 0 && c.CurrentCapacity > c.MaxCapacity {
		return &ValidationError{Field: "current_capacity", Value: fmt.Sprintf("%d > max %d", c.CurrentCapacity, c.MaxCapacity)}
	}
	return nil
}

// Validate checks the record-level invariants for a project.
func (p Project) Validate() error {
	if p.ID == "" {
		return &ValidationError{Field: "id", Value: ""}
	}
	if p.Title == "" {
		return &ValidationError{Field: "title", Value: ""}
	}
	switch p.Status {
	case ProjectActive, ProjectPlanning, ProjectCompleted:
	default:
		return &ValidationError{Field: "status", Value: string(p.Status)}
	}
	return nil
}
