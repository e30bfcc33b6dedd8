// internal/models/programme.go
package models

import "strconv"

// Programme is a degree, diploma or certificate offered by a university.
type Programme struct {
	ID                     int      `json:"id"`
	Name                   string   `json:"name"`
	UniversityID           int      `json:"university,omitempty"`
	UniversityName         string   `json:"university_name"`
	AwardLevel             string   `json:"award_level"`
	DurationMonths         int      `json:"duration_months,omitempty"`
	StudyMode              string   `json:"study_mode"`
	QualificationFramework string   `json:"qualification_framework,omitempty"`
	Description            string   `json:"description,omitempty"`
	Courses                []Course `json:"courses,omitempty"`
}

// Course is one module of a programme. Year is 0 when the API omits it.
type Course struct {
	Code     string  `json:"code"`
	Name     string  `json:"name"`
	Year     int     `json:"year,omitempty"`
	Semester int     `json:"semester,omitempty"`
	Credits  float64 `json:"credits,omitempty"`
}

// Key returns the id as used in URLs and filters.
func (p Programme) Key() string { return strconv.Itoa(p.ID) }

// StudyYear is Year, or the year implied by Semester when Year is missing.
func (c Course) StudyYear() int {
	if c.Year > 0 {
		return c.Year
	}
	if c.Semester > 0 {
		return (c.Semester + 1) / 2
	}
	return 1
}
