// internal/models/university.go
package models

import (
	"strconv"
	"strings"
)

type University struct {
	ID                  int    `json:"id"`
	Name                string `json:"name"`
	HeadOffice          string `json:"head_office,omitempty"`
	Location            string `json:"location,omitempty"`
	UniversityType      string `json:"university_type,omitempty"`
	Status              string `json:"status,omitempty"`
	Website             string `json:"website,omitempty"`
	LogoURL             string `json:"logo_url,omitempty"`
	Email               string `json:"email,omitempty"`
	Overview            string `json:"overview,omitempty"`
	AccreditationStatus string `json:"accreditation_status,omitempty"`
	RegistrationNo      string `json:"registration_no,omitempty"`
	Address             string `json:"address,omitempty"`
}

// Key returns the id as used in URLs and filters.
func (u University) Key() string { return strconv.Itoa(u.ID) }

// Accredited reports a chartered or accredited institution.
func (u University) Accredited() bool {
	switch u.Status {
	case "Accredited", "Chartered":
		return true
	}
	return strings.Contains(u.Status, "Accredited")
}

// Region is the head office, falling back to location and then the country.
func (u University) Region() string {
	switch {
	case u.HeadOffice != "":
		return u.HeadOffice
	case u.Location != "":
		return u.Location
	default:
		return "Tanzania"
	}
}
