// Package csvimport turns uploaded CSV files into project records.
package csvimport

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"

	"aptmatch/internal/domain"
)

// requiredHeaders are the columns a project CSV must carry, matched
// case-insensitively and in any order.
var requiredHeaders = []string{"name", "required_skills", "seniority", "timeline", "priority"}

// Parse reads a project CSV and synthesizes one project per data row.
// Rows with fewer fields than the header are skipped. Validation failures
// abort the whole parse; there are no partial imports.
func Parse(r io.Reader) ([]domain.Project, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	rows, err := reader.ReadAll()
	if err != nil {
		return nil, &domain.ValidationError{Field: "csv", Value: err.Error()}
	}
	if len(rows) < 2 {
		return nil, &domain.ValidationError{Field: "csv", Value: "need a header row and at least one data row"}
	}

	index, err := headerIndex(rows[0])
	if err != nil {
		return nil, err
	}

	var projects []domain.Project
	for i, row := range rows[1:] {
		if len(row) < len(rows[0]) {
			continue
		}
		field := func(name string) string { return strings.TrimSpace(row[index[name]]) }

		rawSkills := field("required_skills")
		priority := field("priority")
		if priority == "" {
			priority = "Medium"
		}

		projects = append(projects, domain.Project{
			ID:             fmt.Sprintf("csv-%d", i+1),
			Title:          field("name"),
			Description:    "Project requiring " + rawSkills,
			RequiredSkills: splitSkills(rawSkills),
			Timeline:       field("timeline"),
			Budget:         "TBD",
			Seniority:      field("seniority"),
			Priority:       priority,
			Status:         domain.ProjectPlanning,
		})
	}
	return projects, nil
}

// headerIndex maps each required column to its position. All missing
// columns are reported together so the user can fix the file in one pass.
func headerIndex(header []string) (map[string]int, error) {
	index := make(map[string]int, len(header))
	for i, h := range header {
		index[strings.ToLower(strings.TrimSpace(h))] = i
	}
	var missing []string
	for _, h := range requiredHeaders {
		if _, ok := index[h]; !ok {
			missing = append(missing, h)
		}
	}
	if len(missing) > 0 {
		return nil, &domain.ValidationError{Missing: missing}
	}
	return index, nil
}

func splitSkills(raw string) []string {
	var skills []string
	for _, s := range strings.Split(raw, ",") {
		if s = strings.TrimSpace(s); s != "" {
			skills = append(skills, s)
		}
	}
	return skills
}
