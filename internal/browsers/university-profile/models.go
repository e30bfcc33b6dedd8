// internal/browsers/university-profile/models.go
package universityprofile

import "uni-directory/internal/models"

type Input struct {
	UniversityID string `json:"universityId"`
}

type Output struct {
	University     *models.University `json:"university"`
	Region         string             `json:"region"`
	Overview       string             `json:"overview"`
	Accreditation  string             `json:"accreditation"`
	RegistrationNo string             `json:"registrationNo"`
	Address        string             `json:"address"`
	Accredited     bool               `json:"accredited"`
	Preview        []models.Programme `json:"preview"`
	PreviewFailed  bool               `json:"previewFailed,omitempty"`
	BrowseLink     string             `json:"browseLink"`
}
