package programmeprofile

import (
	"bytes"
	"context"
	"testing"
	"time"

	apperrors "uni-directory/internal/common/errors"
	"uni-directory/internal/common/logger"
	"uni-directory/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ==========================
// Test Helper Functions
// ==========================

type fakeSource struct {
	programmes map[string]*models.Programme
}

func (f *fakeSource) GetProgramme(_ context.Context, id string) (*models.Programme, error) {
	if p, ok := f.programmes[id]; ok {
		return p, nil
	}
	return nil, apperrors.NewNotFoundError("Programme", id)
}

func createTestConfig() *Config {
	return &Config{Timeout: time.Second, UniversitiesPath: "/universities", WebsiteSuffix: ".ac.tz"}
}

func createTestHandler(t *testing.T) *Handler {
	src := &fakeSource{programmes: map[string]*models.Programme{
		"7": {
			ID:             7,
			Name:           "BSc Computer Science",
			UniversityName: "University of Dodoma",
			AwardLevel:     "Bachelor",
			StudyMode:      "Full Time",
			DurationMonths: 36,
			Courses: []models.Course{
				{Code: "CS201", Name: "Data Structures", Year: 2, Semester: 1, Credits: 12},
				{Code: "CS101", Name: "Programming I", Year: 1, Semester: 1, Credits: 12},
				{Code: "CS102", Name: "Programming II", Year: 1, Semester: 2, Credits: 7.5},
				{Code: "MT101", Name: "Calculus", Year: 1, Semester: 1},
				{Code: "CS202", Name: "Databases", Semester: 4, Credits: 10},
			},
		},
		"8": {ID: 8, Name: "Certificate in Accounting"},
	}}
	return NewHandler(createTestConfig(), src, logger.NewTestLogger(t))
}

// ==========================
// Core Functionality Tests
// ==========================

func TestHandler_Execute_Success(t *testing.T) {
	h := createTestHandler(t)

	out, err := h.Execute(context.Background(), &Input{ProgrammeID: "7"})
	require.NoError(t, err)

	assert.Equal(t, "36 Months", out.Duration)
	assert.Equal(t, "/universities?search=University+of+Dodoma", out.UniversityLink)
	assert.Equal(t, "http://universityofdodoma.ac.tz", out.Website)

	require.Len(t, out.Years, 2)
	year1 := out.Years[0]
	assert.Equal(t, 1, year1.Year)
	require.Len(t, year1.Semesters, 2)
	assert.Equal(t, 1, year1.Semesters[0].Semester)
	assert.Equal(t, []CourseLine{
		{Code: "CS101", Name: "Programming I", Credits: "12"},
		{Code: "MT101", Name: "Calculus"},
	}, year1.Semesters[0].Courses)
	assert.Equal(t, "7.5", year1.Semesters[1].Courses[0].Credits)

	year2 := out.Years[1]
	assert.Equal(t, 2, year2.Year)
	require.Len(t, year2.Semesters, 2, "semester 4 without a year falls into year 2")
	assert.Equal(t, 1, year2.Semesters[0].Semester)
	assert.Equal(t, 4, year2.Semesters[1].Semester)
}

func TestHandler_Execute_MinimalRecord(t *testing.T) {
	h := createTestHandler(t)

	out, err := h.Execute(context.Background(), &Input{ProgrammeID: "8"})
	require.NoError(t, err)
	assert.Equal(t, "N/A", out.Duration)
	assert.Empty(t, out.Years)
	assert.Empty(t, out.UniversityLink)

	var buf bytes.Buffer
	Render(&buf, out)
	assert.Contains(t, buf.String(), "No course structure published for this programme.")
	assert.NotContains(t, buf.String(), "View university")
}

func TestHandler_Execute_NotFound(t *testing.T) {
	h := createTestHandler(t)

	_, err := h.Execute(context.Background(), &Input{ProgrammeID: "404"})
	require.Error(t, err)
	assert.Equal(t, apperrors.ErrCodeNotFound, apperrors.CodeOf(err))
}

func TestRender(t *testing.T) {
	h := createTestHandler(t)
	out, err := h.Execute(context.Background(), &Input{ProgrammeID: "7"})
	require.NoError(t, err)

	var buf bytes.Buffer
	Render(&buf, out)
	text := buf.String()
	assert.Contains(t, text, "  Award level: Bachelor\n")
	assert.Contains(t, text, "      CS101 Programming I (12 credits)\n")
	assert.Contains(t, text, "      MT101 Calculus\n")
	assert.Contains(t, text, "  View university: /universities?search=University+of+Dodoma\n")
	assert.Less(t, bytes.Index(buf.Bytes(), []byte("Year 1")), bytes.Index(buf.Bytes(), []byte("Year 2")))
}
