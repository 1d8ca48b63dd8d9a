package server

import "aptmatch/internal/domain"

// Request payloads

type DecisionRequest struct {
	CandidateID string `json:"candidate_id"`
	ProjectID   string `json:"project_id"`
	Decision    string `json:"decision" enum:"approve,reject"`
}

type ChatRequest struct {
	Message string `json:"message"`
}

// Response payloads

type DecisionResponse struct {
	Outcome string                `json:"outcome" enum:"recorded,already_exists"`
	Record  domain.ApprovalRecord `json:"record"`
}

type ImportResponse struct {
	Imported int              `json:"imported"`
	Projects []domain.Project `json:"projects"`
}

type ChatResponse struct {
	Intent string `json:"intent"`
	Reply  string `json:"reply"`
}
