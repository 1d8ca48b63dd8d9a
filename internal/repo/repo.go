package repo

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"aptmatch/internal/domain"
)

type Repo struct {
	DB *sql.DB
}

var ErrNotFound = errors.New("not found")

const candidateCols = `id,name,COALESCE(email,''),skills_json,tier,ranking,availability,COALESCE(role,''),experience,COALESCE(employee_type,''),hours_per_week,max_capacity,current_capacity,rate_per_hour,nda_required,geo_restrictions_json`

func scanCandidate(s interface{ Scan(...any) error }) (domain.Candidate, int, error) {
	var (
		c        domain.Candidate
		skills   string
		geo      sql.NullString
		nda      int
		position int
	)
	err := s.Scan(&c.ID, &c.Name, &c.Email, &skills, &c.Tier, &c.Ranking, &c.Availability, &c.Role,
		&c.Experience, &c.EmployeeType, &c.HoursPerWeek, &c.MaxCapacity, &c.CurrentCapacity,
		&c.RatePerHour, &nda, &geo, &position)
	if err == sql.ErrNoRows {
		return c, 0, ErrNotFound
	}
	if err != nil {
		return c, 0, err
	}
	c.NDARequired = nda != 0
	if err := json.Unmarshal([]byte(skills), &c.Skills); err != nil {
		return c, 0, fmt.Errorf("candidate %s: decode skills: %w", c.ID, err)
	}
	if geo.Valid && geo.String != "" {
		if err := json.Unmarshal([]byte(geo.String), &c.GeoRestrictions); err != nil {
			return c, 0, fmt.Errorf("candidate %s: decode geo restrictions: %w", c.ID, err)
		}
	}
	return c, position, nil
}

func (r Repo) InsertCandidate(ctx context.Context, c domain.Candidate, position int) error {
	return r.insertCandidate(ctx, r.DB, c, position)
}

func (r Repo) InsertCandidateTx(ctx context.Context, tx *sql.Tx, c domain.Candidate, position int) error {
	return r.insertCandidate(ctx, tx, c, position)
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func (r Repo) insertCandidate(ctx context.Context, ex execer, c domain.Candidate, position int) error {
	skills, err := json.Marshal(c.Skills)
	if err != nil {
		return fmt.Errorf("encode skills: %w", err)
	}
	geo, err := marshalOptional(c.GeoRestrictions)
	if err != nil {
		return fmt.Errorf("encode geo restrictions: %w", err)
	}
	_, err = ex.ExecContext(ctx, `INSERT INTO candidates(id,name,email,skills_json,tier,ranking,availability,role,experience,employee_type,hours_per_week,max_capacity,current_capacity,rate_per_hour,nda_required,geo_restrictions_json,position)
		VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?)`,
		c.ID, c.Name, nullable(c.Email), string(skills), c.Tier, c.Ranking, c.Availability,
		nullable(c.Role), c.Experience, nullable(string(c.EmployeeType)), c.HoursPerWeek,
		c.MaxCapacity, c.CurrentCapacity, c.RatePerHour, boolInt(c.NDARequired), geo, position)
	return err
}

func (r Repo) GetCandidate(ctx context.Context, id string) (domain.Candidate, error) {
	row := r.DB.QueryRowContext(ctx, `SELECT `+candidateCols+`,position FROM candidates WHERE id=?`, id)
	c, _, err := scanCandidate(row)
	return c, err
}

// ListCandidates returns candidates in canonical dataset order.
func (r Repo) ListCandidates(ctx context.Context) ([]domain.Candidate, error) {
	rows, err := r.DB.QueryContext(ctx, `SELECT `+candidateCols+`,position FROM candidates ORDER BY position ASC, id ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var res []domain.Candidate
	for rows.Next() {
		c, _, err := scanCandidate(rows)
		if err != nil {
			return nil, err
		}
		res = append(res, c)
	}
	return res, rows.Err()
}

const projectCols = `id,title,COALESCE(description,''),required_skills_json,COALESCE(timeline,''),COALESCE(budget,''),budget_amount,COALESCE(seniority,''),COALESCE(priority,''),status,nda_required,compliance_json,milestones_json,rate_card_json,source`

func scanProject(s interface{ Scan(...any) error }) (domain.Project, string, error) {
	var (
		p          domain.Project
		skills     string
		compliance sql.NullString
		milestones sql.NullString
		rateCard   sql.NullString
		nda        int
		source     string
		position   int
	)
	err := s.Scan(&p.ID, &p.Title, &p.Description, &skills, &p.Timeline, &p.Budget, &p.BudgetAmount,
		&p.Seniority, &p.Priority, &p.Status, &nda, &compliance, &milestones, &rateCard, &source, &position)
	if err == sql.ErrNoRows {
		return p, "", ErrNotFound
	}
	if err != nil {
		return p, "", err
	}
	p.NDARequired = nda != 0
	if err := json.Unmarshal([]byte(skills), &p.RequiredSkills); err != nil {
		return p, "", fmt.Errorf("project %s: decode required skills: %w", p.ID, err)
	}
	if compliance.Valid && compliance.String != "" {
		if err := json.Unmarshal([]byte(compliance.String), &p.Compliance); err != nil {
			return p, "", fmt.Errorf("project %s: decode compliance: %w", p.ID, err)
		}
	}
	if milestones.Valid && milestones.String != "" {
		if err := json.Unmarshal([]byte(milestones.String), &p.Milestones); err != nil {
			return p, "", fmt.Errorf("project %s: decode milestones: %w", p.ID, err)
		}
	}
	if rateCard.Valid && rateCard.String != "" {
		if err := json.Unmarshal([]byte(rateCard.String), &p.RateCard); err != nil {
			return p, "", fmt.Errorf("project %s: decode rate card: %w", p.ID, err)
		}
	}
	return p, source, nil
}

func (r Repo) InsertProject(ctx context.Context, p domain.Project, source string, position int) error {
	return r.insertProject(ctx, r.DB, p, source, position)
}

func (r Repo) InsertProjectTx(ctx context.Context, tx *sql.Tx, p domain.Project, source string, position int) error {
	return r.insertProject(ctx, tx, p, source, position)
}

func (r Repo) insertProject(ctx context.Context, ex execer, p domain.Project, source string, position int) error {
	skills, err := json.Marshal(p.RequiredSkills)
	if err != nil {
		return fmt.Errorf("encode required skills: %w", err)
	}
	compliance, err := marshalOptional(p.Compliance)
	if err != nil {
		return fmt.Errorf("encode compliance: %w", err)
	}
	var milestones any
	if len(p.Milestones) > 0 {
		data, err := json.Marshal(p.Milestones)
		if err != nil {
			return fmt.Errorf("encode milestones: %w", err)
		}
		milestones = string(data)
	}
	var rateCard any
	if p.RateCard != nil {
		data, err := json.Marshal(p.RateCard)
		if err != nil {
			return fmt.Errorf("encode rate card: %w", err)
		}
		rateCard = string(data)
	}
	_, err = ex.ExecContext(ctx, `INSERT INTO projects(id,title,description,required_skills_json,timeline,budget,budget_amount,seniority,priority,status,nda_required,compliance_json,milestones_json,rate_card_json,source,position)
		VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?)`,
		p.ID, p.Title, nullable(p.Description), string(skills), nullable(p.Timeline), nullable(p.Budget),
		p.BudgetAmount, nullable(p.Seniority), nullable(p.Priority), p.Status, boolInt(p.NDARequired),
		compliance, milestones, rateCard, source, position)
	return err
}

func (r Repo) GetProject(ctx context.Context, id string) (domain.Project, error) {
	row := r.DB.QueryRowContext(ctx, `SELECT `+projectCols+`,position FROM projects WHERE id=?`, id)
	p, _, err := scanProject(row)
	return p, err
}

// GetProjectByTitle looks a project up by its exact title. Titles are the
// join key the approval flow uses when only a display name is known.
func (r Repo) GetProjectByTitle(ctx context.Context, title string) (domain.Project, error) {
	row := r.DB.QueryRowContext(ctx, `SELECT `+projectCols+`,position FROM projects WHERE title=?`, title)
	p, _, err := scanProject(row)
	return p, err
}

// ListProjects returns projects in canonical dataset order, imported ones
// after seeded ones.
func (r Repo) ListProjects(ctx context.Context) ([]domain.Project, error) {
	rows, err := r.DB.QueryContext(ctx, `SELECT `+projectCols+`,position FROM projects ORDER BY position ASC, id ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var res []domain.Project
	for rows.Next() {
		p, _, err := scanProject(rows)
		if err != nil {
			return nil, err
		}
		res = append(res, p)
	}
	return res, rows.Err()
}

// NextProjectPosition returns the position a newly appended project should
// take, one past the current maximum.
func (r Repo) NextProjectPosition(ctx context.Context, tx *sql.Tx) (int, error) {
	var max sql.NullInt64
	if err := tx.QueryRowContext(ctx, `SELECT MAX(position) FROM projects`).Scan(&max); err != nil {
		return 0, err
	}
	if !max.Valid {
		return 0, nil
	}
	return int(max.Int64) + 1, nil
}

// DeleteProjectsBySource clears one origin's projects, used when a fresh
// CSV import replaces the previous one.
func (r Repo) DeleteProjectsBySource(ctx context.Context, tx *sql.Tx, source string) error {
	_, err := tx.ExecContext(ctx, `DELETE FROM projects WHERE source=?`, source)
	return err
}

func (r Repo) DeleteCandidates(ctx context.Context, tx *sql.Tx) error {
	_, err := tx.ExecContext(ctx, `DELETE FROM candidates`)
	return err
}

func (r Repo) DeleteProjects(ctx context.Context, tx *sql.Tx) error {
	_, err := tx.ExecContext(ctx, `DELETE FROM projects`)
	return err
}

func nullable(v string) any {
	if v == "" {
		return nil
	}
	return v
}

func marshalOptional(v []string) (any, error) {
	if len(v) == 0 {
		return nil, nil
	}
	data, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return string(data), nil
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
