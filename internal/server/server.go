// Package server exposes the matching engine over HTTP.
package server

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/danielgtaylor/huma/v2"
	humachi "github.com/danielgtaylor/huma/v2/adapters/humachi"
	"github.com/go-chi/chi/v5"

	"aptmatch/internal/app"
	"aptmatch/internal/approvals"
	"aptmatch/internal/domain"
	"aptmatch/internal/remote"
	"aptmatch/internal/repo"
	"aptmatch/internal/scoring"
)

// Config for the HTTP API handler.
type Config struct {
	App      *app.App
	BasePath string
}

type apiErrorBody struct {
	Code    string         `json:"code" example:"not_found"`
	Message string         `json:"message" example:"not found"`
	Details map[string]any `json:"details,omitempty" jsonschema:"type=object,additionalProperties=true"`
}

// apiError models the error envelope.
type apiError struct {
	status int
	Body   apiErrorBody `json:"error"`
}

func (e *apiError) GetStatus() int { return e.status }
func (e *apiError) Error() string  { return e.Body.Message }

// New returns an HTTP handler exposing the matching API.
func New(cfg Config) (http.Handler, error) {
	basePath := cfg.BasePath
	if basePath == "" {
		basePath = "/v0"
	}
	if !strings.HasPrefix(basePath, "/") {
		basePath = "/" + basePath
	}
	huma.DefaultArrayNullable = false
	huma.NewError = func(status int, msg string, errs ...error) huma.StatusError {
		return newAPIError(status, "", msg, nil)
	}
	huma.NewErrorWithContext = func(_ huma.Context, status int, msg string, errs ...error) huma.StatusError {
		if status == http.StatusUnprocessableEntity && strings.Contains(strings.ToLower(msg), "validation") {
			status = http.StatusBadRequest
		}
		var details map[string]any
		if len(errs) > 0 {
			details = map[string]any{"errors": errs}
		}
		return newAPIError(status, "", msg, details)
	}

	router := chi.NewRouter()
	hcfg := huma.DefaultConfig("APT-Match API", "0.1.0")
	hcfg.OpenAPIPath = "/openapi"
	api := humachi.New(router, hcfg)
	group := huma.NewGroup(api, basePath)

	registerHealth(group, cfg.App)
	registerRecords(group, cfg.App)
	registerMatching(group, cfg.App)
	registerImport(group, cfg.App)
	registerApprovals(group, cfg.App)
	registerChat(group, cfg.App)

	return router, nil
}

func newAPIError(status int, code, message string, details map[string]any) huma.StatusError {
	if code == "" {
		code = defaultCodeForStatus(status)
	}
	return &apiError{
		status: status,
		Body: apiErrorBody{
			Code:    code,
			Message: message,
			Details: details,
		},
	}
}

func handleError(err error) huma.StatusError {
	if err == nil {
		return nil
	}
	var verr *domain.ValidationError
	if errors.As(err, &verr) {
		details := map[string]any{}
		if len(verr.Missing) > 0 {
			details["missing_columns"] = verr.Missing
		}
		if verr.Field != "" {
			details["field"] = verr.Field
		}
		return newAPIError(http.StatusBadRequest, "bad_request", err.Error(), details)
	}
	if remote.IsConnectivity(err) {
		return newAPIError(http.StatusServiceUnavailable, "remote_unreachable", err.Error(), nil)
	}
	if errors.Is(err, repo.ErrNotFound) || errors.Is(err, scoring.ErrUnknownProject) {
		return newAPIError(http.StatusNotFound, "not_found", err.Error(), nil)
	}
	return newAPIError(http.StatusInternalServerError, "internal_error", "internal error", map[string]any{"error": err.Error()})
}

func defaultCodeForStatus(status int) string {
	switch status {
	case http.StatusBadRequest:
		return "bad_request"
	case http.StatusNotFound:
		return "not_found"
	case http.StatusConflict:
		return "conflict"
	case http.StatusServiceUnavailable:
		return "remote_unreachable"
	case http.StatusInternalServerError:
		return "internal_error"
	default:
		return strings.ToLower(strings.ReplaceAll(http.StatusText(status), " ", "_"))
	}
}

func registerHealth(api huma.API, a *app.App) {
	huma.Register(api, huma.Operation{
		OperationID: "health",
		Method:      http.MethodGet,
		Path:        "/health",
		Summary:     "Health check",
	}, func(ctx context.Context, _ *struct{}) (*struct {
		Body map[string]string `json:"body"`
	}, error) {
		if err := a.Health(ctx); err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body map[string]string `json:"body"`
		}{Body: map[string]string{"status": "ok"}}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "remote-health",
		Method:      http.MethodGet,
		Path:        "/remote/health",
		Summary:     "Remote scoring backend status",
	}, func(ctx context.Context, _ *struct{}) (*struct {
		Body app.RemoteStatus `json:"body"`
	}, error) {
		return &struct {
			Body app.RemoteStatus `json:"body"`
		}{Body: a.RemoteCheck(ctx)}, nil
	})
}

func registerRecords(api huma.API, a *app.App) {
	huma.Register(api, huma.Operation{
		OperationID: "list-candidates",
		Method:      http.MethodGet,
		Path:        "/candidates",
		Summary:     "List candidates",
	}, func(ctx context.Context, _ *struct{}) (*struct {
		Body []domain.Candidate `json:"body"`
	}, error) {
		items, err := a.Candidates(ctx)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body []domain.Candidate `json:"body"`
		}{Body: items}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "list-projects",
		Method:      http.MethodGet,
		Path:        "/projects",
		Summary:     "List projects",
	}, func(ctx context.Context, _ *struct{}) (*struct {
		Body []domain.Project `json:"body"`
	}, error) {
		items, err := a.Projects(ctx)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body []domain.Project `json:"body"`
		}{Body: items}, nil
	})
}

func registerMatching(api huma.API, a *app.App) {
	effective := func(minFit float64, unfiltered bool) float64 {
		if unfiltered {
			return 0
		}
		if minFit > 0 {
			return minFit
		}
		return -1
	}

	huma.Register(api, huma.Operation{
		OperationID: "match",
		Method:      http.MethodGet,
		Path:        "/match",
		Summary:     "Rank candidates for every project",
		Errors:      []int{http.StatusBadRequest},
	}, func(ctx context.Context, input *struct {
		MinFit     float64 `query:"min_fit" minimum:"0" maximum:"1" doc:"Minimum fit score; omit to use the configured threshold"`
		Unfiltered bool    `query:"unfiltered" doc:"Return every candidate regardless of fit score"`
	}) (*struct {
		Body map[string]scoring.ProjectMatches `json:"body"`
	}, error) {
		out, err := a.Match(ctx, effective(input.MinFit, input.Unfiltered))
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body map[string]scoring.ProjectMatches `json:"body"`
		}{Body: out}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "match-project",
		Method:      http.MethodGet,
		Path:        "/match/project/{project_id}",
		Summary:     "Rank candidates for one project",
		Errors:      []int{http.StatusBadRequest, http.StatusNotFound},
	}, func(ctx context.Context, input *struct {
		ProjectID  string  `path:"project_id"`
		MinFit     float64 `query:"min_fit" minimum:"0" maximum:"1" doc:"Minimum fit score; omit to use the configured threshold"`
		Unfiltered bool    `query:"unfiltered" doc:"Return every candidate regardless of fit score"`
	}) (*struct {
		Body scoring.ProjectMatches `json:"body"`
	}, error) {
		out, err := a.MatchForProject(ctx, input.ProjectID, effective(input.MinFit, input.Unfiltered))
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body scoring.ProjectMatches `json:"body"`
		}{Body: out}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "analyze-candidate",
		Method:      http.MethodGet,
		Path:        "/analyze/candidate/{candidate_id}",
		Summary:     "Score one candidate against every project",
		Errors:      []int{http.StatusNotFound},
	}, func(ctx context.Context, input *struct {
		CandidateID string `path:"candidate_id"`
	}) (*struct {
		Body []domain.MatchResult `json:"body"`
	}, error) {
		out, err := a.AnalyzeCandidate(ctx, input.CandidateID)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body []domain.MatchResult `json:"body"`
		}{Body: out}, nil
	})
}

func registerImport(api huma.API, a *app.App) {
	huma.Register(api, huma.Operation{
		OperationID:   "import-projects",
		Method:        http.MethodPost,
		Path:          "/projects/import",
		Summary:       "Import projects from CSV",
		DefaultStatus: http.StatusCreated,
		Errors:        []int{http.StatusBadRequest},
	}, func(ctx context.Context, input *struct {
		RawBody []byte `contentType:"text/csv"`
	}) (*struct {
		Body ImportResponse `json:"body"`
	}, error) {
		if len(input.RawBody) == 0 {
			return nil, newAPIError(http.StatusBadRequest, "bad_request", "csv body required", nil)
		}
		projects, err := a.ImportProjects(ctx, bytes.NewReader(input.RawBody))
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body ImportResponse `json:"body"`
		}{Body: ImportResponse{Imported: len(projects), Projects: projects}}, nil
	})
}

func registerApprovals(api huma.API, a *app.App) {
	huma.Register(api, huma.Operation{
		OperationID: "list-approvals",
		Method:      http.MethodGet,
		Path:        "/approvals",
		Summary:     "List approval decisions",
	}, func(ctx context.Context, _ *struct{}) (*struct {
		Body []domain.ApprovalRecord `json:"body"`
	}, error) {
		recs, err := a.Approvals.Approvals(ctx)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body []domain.ApprovalRecord `json:"body"`
		}{Body: recs}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID:   "decide-approval",
		Method:        http.MethodPost,
		Path:          "/approvals",
		Summary:       "Approve or reject a candidate/project pair",
		DefaultStatus: http.StatusCreated,
		Errors:        []int{http.StatusBadRequest, http.StatusNotFound},
	}, func(ctx context.Context, input *struct {
		Body DecisionRequest `json:"body"`
	}) (*struct {
		Status int
		Body   DecisionResponse `json:"body"`
	}, error) {
		if input.Body.CandidateID == "" || input.Body.ProjectID == "" {
			return nil, newAPIError(http.StatusBadRequest, "bad_request", "candidate_id and project_id are required", nil)
		}
		var (
			rec domain.ApprovalRecord
			err error
		)
		switch input.Body.Decision {
		case "approve":
			rec, err = a.Approve(ctx, input.Body.CandidateID, input.Body.ProjectID)
		case "reject":
			rec, err = a.Reject(ctx, input.Body.CandidateID, input.Body.ProjectID)
		default:
			return nil, newAPIError(http.StatusBadRequest, "bad_request", "decision must be approve or reject", nil)
		}
		// A repeated decision on the same pair is informational, not an
		// error.
		if errors.Is(err, approvals.ErrAlreadyDecided) {
			return &struct {
				Status int
				Body   DecisionResponse `json:"body"`
			}{Status: http.StatusOK, Body: DecisionResponse{Outcome: "already_exists", Record: rec}}, nil
		}
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Status int
			Body   DecisionResponse `json:"body"`
		}{Status: http.StatusCreated, Body: DecisionResponse{Outcome: "recorded", Record: rec}}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "remove-approval",
		Method:      http.MethodDelete,
		Path:        "/approvals/{candidate_id}/{project_id}",
		Summary:     "Remove the decision for a pair",
		Errors:      []int{http.StatusNotFound},
	}, func(ctx context.Context, input *struct {
		CandidateID string `path:"candidate_id"`
		ProjectID   string `path:"project_id"`
	}) (*struct {
		Body map[string]string `json:"body"`
	}, error) {
		if err := a.Approvals.Remove(ctx, input.CandidateID, input.ProjectID); err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body map[string]string `json:"body"`
		}{Body: map[string]string{"status": "removed"}}, nil
	})
}

func registerChat(api huma.API, a *app.App) {
	huma.Register(api, huma.Operation{
		OperationID: "chat",
		Method:      http.MethodPost,
		Path:        "/chat",
		Summary:     "Answer a free-text question about candidates and projects",
		Errors:      []int{http.StatusBadRequest},
	}, func(ctx context.Context, input *struct {
		Body ChatRequest `json:"body"`
	}) (*struct {
		Body ChatResponse `json:"body"`
	}, error) {
		if strings.TrimSpace(input.Body.Message) == "" {
			return nil, newAPIError(http.StatusBadRequest, "bad_request", "message is required", nil)
		}
		intent, reply, err := a.Chat(ctx, input.Body.Message)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body ChatResponse `json:"body"`
		}{Body: ChatResponse{
			Intent: string(intent),
			Reply:  reply,
		}}, nil
	})
}
