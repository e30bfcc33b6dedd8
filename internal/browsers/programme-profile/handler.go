package programmeprofile

import (
	"context"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"

	"uni-directory/internal/common/config"
	"uni-directory/internal/common/logger"
	"uni-directory/internal/models"
	"uni-directory/internal/query"
)

const BrowserName = config.BrowserProgrammeProfile

// Source fetches a single programme.
type Source interface {
	GetProgramme(ctx context.Context, id string) (*models.Programme, error)
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
		codec:  query.NewURLCodec(),
		logger: logger.OrNop(log).WithFields(map[string]interface{}{
			"browser": BrowserName,
		}),
	}
}

func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	ctx, cancel := context.WithTimeout(ctx, h.config.Timeout)
	defer cancel()

	p, err := h.source.GetProgramme(ctx, input.ProgrammeID)
	if err != nil {
		h.logger.Warn("Programme lookup failed", map[string]interface{}{
			"programmeId": input.ProgrammeID,
			"error":       err.Error(),
		})
		return nil, err
	}

	out := &Output{
		Programme: p,
		Duration:  durationLabel(p.DurationMonths),
		Years:     groupCourses(p.Courses),
	}
	if p.UniversityName != "" {
		out.UniversityLink = h.codec.Link(h.config.UniversitiesPath, query.NewState().WithSearch(p.UniversityName))
		out.Website = h.websiteGuess(p.UniversityName)
	}

	h.logger.Debug("Programme profile built", map[string]interface{}{
		"programmeId": p.ID,
		"courses":     len(p.Courses),
		"years":       len(out.Years),
	})
	return out, nil
}

// groupCourses groups by study year, then semester, both ascending. Course
// order within a semester is kept.
func groupCourses(courses []models.Course) []YearGroup {
	byYear := make(map[int]map[int][]CourseLine)
	for _, c := range courses {
		year := c.StudyYear()
		if byYear[year] == nil {
			byYear[year] = make(map[int][]CourseLine)
		}
		byYear[year][c.Semester] = append(byYear[year][c.Semester], CourseLine{
			Code:    c.Code,
			Name:    c.Name,
			Credits: creditsLabel(c.Credits),
		})
	}

	years := make([]YearGroup, 0, len(byYear))
	for year, semesters := range byYear {
		group := YearGroup{Year: year}
		for sem, lines := range semesters {
			group.Semesters = append(group.Semesters, SemesterGroup{Semester: sem, Courses: lines})
		}
		sort.Slice(group.Semesters, func(i, j int) bool {
			return group.Semesters[i].Semester < group.Semesters[j].Semester
		})
		years = append(years, group)
	}
	sort.Slice(years, func(i, j int) bool { return years[i].Year < years[j].Year })
	return years
}

func creditsLabel(credits float64) string {
	if credits <= 0 {
		return ""
	}
	return strconv.FormatFloat(credits, 'f', -1, 64)
}

func durationLabel(months int) string {
	if months <= 0 {
		return "N/A"
	}
	return fmt.Sprintf("%d Months", months)
}

func (h *Handler) websiteGuess(universityName string) string {
	host := strings.ToLower(strings.Join(strings.Fields(universityName), ""))
	return "http://" + host + h.config.WebsiteSuffix
}

// Render prints out as plain text.
func Render(w io.Writer, out *Output) {
	p := out.Programme
	fmt.Fprintln(w, p.Name)
	if p.UniversityName != "" {
		fmt.Fprintf(w, "  %s\n", p.UniversityName)
	}
	for _, row := range [][2]string{
		{"Award level", p.AwardLevel},
		{"Study mode", p.StudyMode},
		{"Duration", out.Duration},
		{"Framework", p.QualificationFramework},
	} {
		if row[1] != "" {
			fmt.Fprintf(w, "  %-12s %s\n", row[0]+":", row[1])
		}
	}
	if p.Description != "" {
		fmt.Fprintf(w, "\n  %s\n", p.Description)
	}

	if len(out.Years) == 0 {
		fmt.Fprintln(w, "\n  No course structure published for this programme.")
	}
	for _, y := range out.Years {
		fmt.Fprintf(w, "\n  Year %d\n", y.Year)
		for _, s := range y.Semesters {
			fmt.Fprintf(w, "    Semester %d\n", s.Semester)
			for _, c := range s.Courses {
				line := fmt.Sprintf("      %s %s", c.Code, c.Name)
				if c.Credits != "" {
					line += fmt.Sprintf(" (%s credits)", c.Credits)
				}
				fmt.Fprintln(w, line)
			}
		}
	}

	if out.UniversityLink != "" {
		fmt.Fprintf(w, "\n  View university: %s\n", out.UniversityLink)
		fmt.Fprintf(w, "  Website: %s\n", out.Website)
	}
}
