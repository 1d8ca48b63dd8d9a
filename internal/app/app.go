// Package app wires the matching engine, approvals, chat, and storage
// into one facade consumed by the HTTP server and the CLI.
package app

import (
	"context"
	"database/sql"
	"io"
	"time"

	"go.uber.org/zap"

	"aptmatch/internal/approvals"
	"aptmatch/internal/chat"
	"aptmatch/internal/config"
	"aptmatch/internal/csvimport"
	"aptmatch/internal/domain"
	"aptmatch/internal/events"
	"aptmatch/internal/remote"
	"aptmatch/internal/repo"
	"aptmatch/internal/scoring"
)

const importSource = "csv"

type App struct {
	DB        *sql.DB
	Repo      repo.Repo
	Events    events.Writer
	Config    *config.Config
	Scorer    scoring.Engine
	Approvals *approvals.Reconciler
	Remote    *remote.Client
	Log       *zap.Logger
	Now       func() time.Time
}

func New(conn *sql.DB, cfg *config.Config, log *zap.Logger) *App {
	if log == nil {
		log = zap.NewNop()
	}
	var client *remote.Client
	if cfg.Remote.BaseURL != "" {
		client = remote.New(cfg.Remote.BaseURL)
		if d := cfg.Remote.Timeout.Std(); d > 0 {
			client.Timeout = d
		}
	}
	return &App{
		DB:        conn,
		Repo:      repo.Repo{DB: conn},
		Events:    events.Writer{DB: conn},
		Config:    cfg,
		Scorer:    scoring.New(),
		Approvals: approvals.New(conn, log),
		Remote:    client,
		Log:       log,
		Now:       time.Now,
	}
}

func (a *App) Candidates(ctx context.Context) ([]domain.Candidate, error) {
	return a.Repo.ListCandidates(ctx)
}

func (a *App) Projects(ctx context.Context) ([]domain.Project, error) {
	return a.Repo.ListProjects(ctx)
}

// snapshot loads the immutable candidate/project lists one ranking or
// chat computation works against.
func (a *App) snapshot(ctx context.Context) ([]domain.Candidate, []domain.Project, error) {
	candidates, err := a.Repo.ListCandidates(ctx)
	if err != nil {
		return nil, nil, err
	}
	projects, err := a.Repo.ListProjects(ctx)
	if err != nil {
		return nil, nil, err
	}
	return candidates, projects, nil
}

// Match ranks every candidate against every project. minFit below zero
// means "use the configured threshold"; zero disables filtering.
func (a *App) Match(ctx context.Context, minFit float64) (map[string]scoring.ProjectMatches, error) {
	candidates, projects, err := a.snapshot(ctx)
	if err != nil {
		return nil, err
	}
	return a.Scorer.Match(candidates, projects, a.effectiveMinFit(minFit))
}

func (a *App) MatchForProject(ctx context.Context, projectID string, minFit float64) (scoring.ProjectMatches, error) {
	candidates, projects, err := a.snapshot(ctx)
	if err != nil {
		return scoring.ProjectMatches{}, err
	}
	return a.Scorer.MatchForProject(projectID, candidates, projects, a.effectiveMinFit(minFit))
}

// AnalyzeCandidate scores one stored candidate against every project,
// best fit first.
func (a *App) AnalyzeCandidate(ctx context.Context, candidateID string) ([]domain.MatchResult, error) {
	c, err := a.Repo.GetCandidate(ctx, candidateID)
	if err != nil {
		return nil, err
	}
	projects, err := a.Repo.ListProjects(ctx)
	if err != nil {
		return nil, err
	}
	return a.Scorer.AnalyzeCandidate(c, projects)
}

func (a *App) effectiveMinFit(minFit float64) float64 {
	if minFit < 0 {
		return a.Config.Matching.MinFit
	}
	return minFit
}

// ImportProjects parses a project CSV and replaces the previously
// imported projects in one transaction. Nothing is stored when
// validation fails.
func (a *App) ImportProjects(ctx context.Context, r io.Reader) ([]domain.Project, error) {
	projects, err := csvimport.Parse(r)
	if err != nil {
		return nil, err
	}

	tx, err := a.DB.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	if err := a.Repo.DeleteProjectsBySource(ctx, tx, importSource); err != nil {
		return nil, err
	}
	pos, err := a.Repo.NextProjectPosition(ctx, tx)
	if err != nil {
		return nil, err
	}
	for i, p := range projects {
		if err := a.Repo.InsertProjectTx(ctx, tx, p, importSource, pos+i); err != nil {
			return nil, err
		}
	}
	err = a.Events.Append(ctx, tx, events.TypeProjectsImported, "", "", events.EventPayload{
		"count": len(projects),
	})
	if err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}

	a.Log.Info("projects imported", zap.Int("count", len(projects)))
	return projects, nil
}

// Chat answers a free-text query against the current datasets and
// reports the intent the answer was built from.
func (a *App) Chat(ctx context.Context, query string) (chat.Intent, string, error) {
	candidates, projects, err := a.snapshot(ctx)
	if err != nil {
		return "", "", err
	}
	responder := chat.NewResponder(candidates, projects)
	if a.Config.Matching.ListDisplayLimit > 0 {
		responder.ListCap = a.Config.Matching.ListDisplayLimit
	}
	intent, reply := responder.Respond(query)
	return intent, reply, nil
}

// Approve records an approval for a stored candidate/project pair.
func (a *App) Approve(ctx context.Context, candidateID, projectID string) (domain.ApprovalRecord, error) {
	c, p, err := a.pair(ctx, candidateID, projectID)
	if err != nil {
		return domain.ApprovalRecord{}, err
	}
	return a.Approvals.Approve(ctx, c, p)
}

// Reject records a rejection for a stored candidate/project pair.
func (a *App) Reject(ctx context.Context, candidateID, projectID string) (domain.ApprovalRecord, error) {
	c, p, err := a.pair(ctx, candidateID, projectID)
	if err != nil {
		return domain.ApprovalRecord{}, err
	}
	return a.Approvals.Reject(ctx, c, p)
}

func (a *App) pair(ctx context.Context, candidateID, projectID string) (domain.Candidate, domain.Project, error) {
	c, err := a.Repo.GetCandidate(ctx, candidateID)
	if err != nil {
		return domain.Candidate{}, domain.Project{}, err
	}
	p, err := a.Repo.GetProject(ctx, projectID)
	if err != nil {
		return domain.Candidate{}, domain.Project{}, err
	}
	return c, p, nil
}

type RemoteStatus struct {
	Configured bool   `json:"configured"`
	Reachable  bool   `json:"reachable"`
	Detail     string `json:"detail,omitempty"`
}

// RemoteCheck probes the configured scoring backend. With no backend
// configured it reports the local engine as the active path.
func (a *App) RemoteCheck(ctx context.Context) RemoteStatus {
	if !a.Remote.Configured() {
		return RemoteStatus{Detail: "no remote backend configured; matching runs locally"}
	}
	if err := a.Remote.HealthCheck(ctx); err != nil {
		return RemoteStatus{Configured: true, Detail: err.Error()}
	}
	return RemoteStatus{Configured: true, Reachable: true}
}

// Health verifies the database is usable.
func (a *App) Health(ctx context.Context) error {
	return a.DB.PingContext(ctx)
}
