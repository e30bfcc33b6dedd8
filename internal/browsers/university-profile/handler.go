package universityprofile

import (
	"context"
	"fmt"
	"io"
	"sync"

	"uni-directory/internal/common/config"
	"uni-directory/internal/common/logger"
	"uni-directory/internal/models"
	"uni-directory/internal/query"
)

const BrowserName = config.BrowserUniversityProfile

const (
	noOverview = "No overview available for this university yet."
	noAddress  = "No address provided."
	notGiven   = "N/A"
)

// Source fetches a university and a preview of its programmes.
type Source interface {
	GetUniversity(ctx context.Context, id string) (*models.University, error)
	ProgrammePreview(ctx context.Context, universityID string, size int) ([]models.Programme, error)
}

type Handler struct {
	config *Config
	source Source
	codec  *query.URLCodec
	logger logger.Logger
}

func NewHandler(config *Config, source Source, log logger.Logger) *Handler {
	return &Handler{
		config: config,
		source: source,
		codec:  query.NewURLCodec("university"),
		logger: logger.OrNop(log).WithFields(map[string]interface{}{
			"browser": BrowserName,
		}),
	}
}

// Execute loads the university and its programme preview concurrently. Only
// the university lookup can fail the profile.
func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	ctx, cancel := context.WithTimeout(ctx, h.config.Timeout)
	defer cancel()

	var (
		wg         sync.WaitGroup
		university *models.University
		uniErr     error
		preview    []models.Programme
		previewErr error
	)

	wg.Add(2)
	go func() {
		defer wg.Done()
		university, uniErr = h.source.GetUniversity(ctx, input.UniversityID)
	}()
	go func() {
		defer wg.Done()
		preview, previewErr = h.source.ProgrammePreview(ctx, input.UniversityID, h.config.PreviewSize)
	}()
	wg.Wait()

	if uniErr != nil {
		h.logger.Warn("University lookup failed", map[string]interface{}{
			"universityId": input.UniversityID,
			"error":        uniErr.Error(),
		})
		return nil, uniErr
	}

	out := &Output{
		University:     university,
		Region:         university.Region(),
		Overview:       orDefault(university.Overview, noOverview),
		Accreditation:  orDefault(university.AccreditationStatus, notGiven),
		RegistrationNo: orDefault(university.RegistrationNo, notGiven),
		Address:        orDefault(university.Address, orDefault(university.Location, noAddress)),
		Accredited:     university.Accredited(),
		Preview:        preview,
		BrowseLink:     h.codec.Link(h.config.CoursesPath, query.NewState().WithFilter("university", university.Key())),
	}
	if previewErr != nil {
		h.logger.Warn("Programme preview failed", map[string]interface{}{
			"universityId": input.UniversityID,
			"error":        previewErr.Error(),
		})
		out.Preview = nil
		out.PreviewFailed = true
	}
	return out, nil
}

func orDefault(v, fallback string) string {
	if v == "" {
		return fallback
	}
	return v
}

// Render prints out as plain text.
func Render(w io.Writer, out *Output) {
	u := out.University
	title := u.Name
	if out.Accredited {
		title += " [Accredited]"
	}
	fmt.Fprintln(w, title)
	fmt.Fprintf(w, "  %s\n", out.Region)
	if u.Email != "" {
		fmt.Fprintf(w, "  Email:    %s\n", u.Email)
	}
	if u.Website != "" {
		fmt.Fprintf(w, "  Website:  %s\n", u.Website)
	}

	fmt.Fprintf(w, "\n  About %s\n  %s\n", u.Name, out.Overview)

	fmt.Fprintln(w, "\n  Institution details")
	fmt.Fprintf(w, "    Accreditation: %s\n", out.Accreditation)
	fmt.Fprintf(w, "    Registration:  %s\n", out.RegistrationNo)
	fmt.Fprintf(w, "    Address:       %s\n", out.Address)

	fmt.Fprintln(w, "\n  Programmes")
	switch {
	case out.PreviewFailed:
		fmt.Fprintln(w, "    Programmes could not be loaded.")
	case len(out.Preview) == 0:
		fmt.Fprintln(w, "    No programmes listed yet.")
	}
	for _, p := range out.Preview {
		line := fmt.Sprintf("    [%d] %s", p.ID, p.Name)
		if p.AwardLevel != "" {
			line += " (" + p.AwardLevel + ")"
		}
		fmt.Fprintln(w, line)
	}
	fmt.Fprintf(w, "  Browse all programmes: %s\n", out.BrowseLink)
}
