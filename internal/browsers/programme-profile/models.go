// internal/browsers/programme-profile/models.go
package programmeprofile

import "uni-directory/internal/models"

type Input struct {
	ProgrammeID string `json:"programmeId"`
}

type Output struct {
	Programme      *models.Programme `json:"programme"`
	Duration       string            `json:"duration"`
	Years          []YearGroup       `json:"years"`
	UniversityLink string            `json:"universityLink"`
	Website        string            `json:"website"`
}

// YearGroup holds one study year's courses.
type YearGroup struct {
	Year      int             `json:"year"`
	Semesters []SemesterGroup `json:"semesters"`
}

type SemesterGroup struct {
	Semester int          `json:"semester"`
	Courses  []CourseLine `json:"courses"`
}

// CourseLine is a course as displayed. Credits is empty when unknown.
type CourseLine struct {
	Code    string `json:"code"`
	Name    string `json:"name"`
	Credits string `json:"credits,omitempty"`
}
