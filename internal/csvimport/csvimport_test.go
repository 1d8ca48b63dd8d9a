package csvimport

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"aptmatch/internal/domain"
)

const validCSV = `name,required_skills,seniority,timeline,priority
"E-commerce Site","React, Node.js, PostgreSQL",senior,6 months,High
"Data Platform","Python, SQL",mid,3 months,Low
`

func TestParseValidFile(t *testing.T) {
	projects, err := Parse(strings.NewReader(validCSV))
	require.NoError(t, err)
	require.Len(t, projects, 2)

	p := projects[0]
	assert.Equal(t, "csv-1", p.ID)
	assert.Equal(t, "E-commerce Site", p.Title)
	assert.Equal(t, "Project requiring React, Node.js, PostgreSQL", p.Description)
	assert.Equal(t, []string{"React", "Node.js", "PostgreSQL"}, p.RequiredSkills)
	assert.Equal(t, "senior", p.Seniority)
	assert.Equal(t, "6 months", p.Timeline)
	assert.Equal(t, "High", p.Priority)
	assert.Equal(t, domain.ProjectPlanning, p.Status)
	assert.Equal(t, "TBD", p.Budget)

	assert.Equal(t, "csv-2", projects[1].ID)
}

func TestParseHeadersAnyOrderAnyCase(t *testing.T) {
	csv := "PRIORITY,Timeline,Name,Seniority,Required_Skills\nHigh,6 months,Portal,senior,\"React, Vue\"\n"
	projects, err := Parse(strings.NewReader(csv))
	require.NoError(t, err)
	require.Len(t, projects, 1)
	assert.Equal(t, "Portal", projects[0].Title)
	assert.Equal(t, []string{"React", "Vue"}, projects[0].RequiredSkills)
	assert.Equal(t, "High", projects[0].Priority)
}

func TestParseMissingColumn(t *testing.T) {
	csv := "name,required_skills,seniority,timeline\nPortal,React,senior,6 months\n"
	_, err := Parse(strings.NewReader(csv))
	var verr *domain.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, []string{"priority"}, verr.Missing)
	assert.Contains(t, verr.Error(), "priority")
}

func TestParseReportsAllMissingColumns(t *testing.T) {
	csv := "name,seniority\nPortal,senior\n"
	_, err := Parse(strings.NewReader(csv))
	var verr *domain.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, []string{"required_skills", "timeline", "priority"}, verr.Missing)
}

func TestParseSkipsShortRows(t *testing.T) {
	csv := "name,required_skills,seniority,timeline,priority\nPortal,React,senior,6 months,High\nbroken,row\n"
	projects, err := Parse(strings.NewReader(csv))
	require.NoError(t, err)
	require.Len(t, projects, 1)
	assert.Equal(t, "Portal", projects[0].Title)
}

func TestParseEmptyPriorityDefaultsToMedium(t *testing.T) {
	csv := "name,required_skills,seniority,timeline,priority\nPortal,React,senior,6 months,\n"
	projects, err := Parse(strings.NewReader(csv))
	require.NoError(t, err)
	require.Len(t, projects, 1)
	assert.Equal(t, "Medium", projects[0].Priority)
}

func TestParseHeaderOnly(t *testing.T) {
	_, err := Parse(strings.NewReader("name,required_skills,seniority,timeline,priority\n"))
	var verr *domain.ValidationError
	require.ErrorAs(t, err, &verr)
}
