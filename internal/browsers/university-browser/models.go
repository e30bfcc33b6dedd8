// internal/browsers/university-browser/models.go
package universitybrowser

import "uni-directory/internal/models"

// Input holds the user's criteria. Empty fields are unset.
type Input struct {
	Search string `json:"search"`
	Region string `json:"region"`
	Type   string `json:"type"`
}

type Output struct {
	Header           string              `json:"header"`
	Universities     []models.University `json:"universities"`
	Regions          []string            `json:"regions"`
	Types            []string            `json:"types"`
	HasActiveFilters bool                `json:"hasActiveFilters"`
}
