package universitybrowser

import (
	"context"
	"fmt"
	"io"
	"sync"

	"uni-directory/internal/common/config"
	"uni-directory/internal/common/logger"
	"uni-directory/internal/localfilter"
	"uni-directory/internal/models"
)

const BrowserName = config.BrowserUniversities

// Source loads the whole university collection.
type Source interface {
	ListUniversities(ctx context.Context) ([]models.University, error)
}

// Handler loads the university list once and filters it in memory.
type Handler struct {
	config *Config
	source Source
	logger logger.Logger

	mu     sync.Mutex
	loaded []models.University
}

func NewHandler(config *Config, source Source, log logger.Logger) *Handler {
	return &Handler{
		config: config,
		source: source,
		logger: logger.OrNop(log).WithFields(map[string]interface{}{
			"browser": BrowserName,
		}),
	}
}

func universityName(u models.University) string   { return u.Name }
func universityRegion(u models.University) string { return u.HeadOffice }
func universityType(u models.University) string   { return u.UniversityType }

// Execute filters the collection by input, loading it on first use.
func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	all, err := h.load(ctx)
	if err != nil {
		return nil, err
	}

	matched := localfilter.Filter(all, localfilter.Predicate[models.University]{
		Search:     input.Search,
		TextFields: []localfilter.Field[models.University]{universityName, universityRegion},
		ExactFields: []localfilter.Exact[models.University]{
			{Field: universityRegion, Value: input.Region},
			{Field: universityType, Value: input.Type},
		},
	})

	h.logger.Debug("Universities filtered", map[string]interface{}{
		"search":  input.Search,
		"region":  input.Region,
		"type":    input.Type,
		"matched": len(matched),
		"total":   len(all),
	})

	return &Output{
		Header:           fmt.Sprintf("%d Institutions Found", len(matched)),
		Universities:     matched,
		Regions:          localfilter.DistinctValues(all, universityRegion),
		Types:            localfilter.DistinctValues(all, universityType),
		HasActiveFilters: input.Search != "" || input.Region != "" || input.Type != "",
	}, nil
}

func (h *Handler) load(ctx context.Context) ([]models.University, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.loaded != nil {
		return h.loaded, nil
	}

	ctx, cancel := context.WithTimeout(ctx, h.config.Timeout)
	defer cancel()

	items, err := h.source.ListUniversities(ctx)
	if err != nil {
		h.logger.Error("Failed to load universities", map[string]interface{}{
			"error": err.Error(),
		})
		return nil, err
	}
	if items == nil {
		items = []models.University{}
	}
	h.loaded = items
	h.logger.Info("Universities loaded", map[string]interface{}{"count": len(items)})
	return items, nil
}

// Render prints out as plain text.
func Render(w io.Writer, out *Output) {
	fmt.Fprintln(w, out.Header)
	for _, u := range out.Universities {
		line := fmt.Sprintf("  [%d] %s, %s", u.ID, u.Name, u.Region())
		if u.UniversityType != "" {
			line += " (" + u.UniversityType + ")"
		}
		if u.Accredited() {
			line += " *"
		}
		fmt.Fprintln(w, line)
	}
	if out.HasActiveFilters {
		fmt.Fprintln(w, "  (filters active: run without --search/--region/--type to clear)")
	}
}
