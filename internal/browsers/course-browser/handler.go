package coursebrowser

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"uni-directory/internal/common/config"
	apperrors "uni-directory/internal/common/errors"
	"uni-directory/internal/common/logger"
	"uni-directory/internal/models"
	"uni-directory/internal/query"
	"uni-directory/pkg/registry"
)

const (
	BrowserName = config.BrowserCourses
	// ListingPath is where the listing lives in links.
	ListingPath = "/courses"
)

// UniversityLister supplies the university filter options.
type UniversityLister interface {
	ListUniversities(ctx context.Context) ([]models.University, error)
}

type Handler struct {
	config       *Config
	universities UniversityLister
	registry     *registry.FilterRegistry
	controller   *query.Controller[models.Programme]
	logger       logger.Logger

	mu        sync.Mutex
	link      string
	uniNames  map[string]string
	uniLoaded bool
}

// NewHandler starts a listing session over fetch. initial is the deep link
// the session starts from.
func NewHandler(cfg *Config, fetch query.Fetcher[models.Programme], universities UniversityLister, reg *registry.FilterRegistry, initial map[string]string, log logger.Logger, opts ...query.Option) *Handler {
	if reg == nil {
		reg = registry.Default()
	}
	h := &Handler{
		config:       cfg,
		universities: universities,
		registry:     reg,
		logger: logger.OrNop(log).WithFields(map[string]interface{}{
			"browser": BrowserName,
		}),
	}

	codec := query.NewURLCodec(reg.Keys(registry.CollectionProgrammes)...)
	h.link = codec.Link(ListingPath, codec.Decode(initial))

	controllerOpts := []query.Option{
		query.WithLogger(h.logger),
		query.WithCodec(codec),
		query.WithURLSink(h.onURL(codec)),
	}
	h.controller = query.NewController(query.Config{
		Collection: registry.CollectionProgrammes,
		Debounce:   cfg.Debounce,
		Initial:    initial,
	}, fetch, append(controllerOpts, opts...)...)
	return h
}

func (h *Handler) onURL(codec *query.URLCodec) query.URLSink {
	return func(params map[string]string) {
		link := codec.Link(ListingPath, codec.Decode(params))
		h.mu.Lock()
		h.link = link
		h.mu.Unlock()
	}
}

// Controller exposes the underlying listing session.
func (h *Handler) Controller() *query.Controller[models.Programme] { return h.controller }

// Link is the current shareable URL of the listing.
func (h *Handler) Link() string {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.link
}

func (h *Handler) Close() { h.controller.Close() }

// FilterOptions lists every programme filter with its options. Universities
// are fetched once; a failure leaves that group with no options.
func (h *Handler) FilterOptions(ctx context.Context) []FilterGroup {
	names := h.universityNames(ctx)

	var groups []FilterGroup
	for _, key := range h.registry.Keys(registry.CollectionProgrammes) {
		field, _ := h.registry.Field(registry.CollectionProgrammes, key)
		group := FilterGroup{Key: key, Label: field.DisplayName, AllLabel: field.AllLabel}
		switch field.Source {
		case registry.SourceStatic:
			for _, v := range field.Values {
				group.Options = append(group.Options, FilterOption{Value: v, Label: v})
			}
		case registry.SourceCollection:
			group.Options = names
		}
		groups = append(groups, group)
	}
	return groups
}

func (h *Handler) universityNames(ctx context.Context) []FilterOption {
	h.mu.Lock()
	loaded := h.uniLoaded
	h.mu.Unlock()

	if !loaded && h.universities != nil {
		items, err := h.universities.ListUniversities(ctx)
		if err != nil {
			h.logger.Warn("Failed to load university options", map[string]interface{}{
				"error": err.Error(),
			})
		} else {
			names := make(map[string]string, len(items))
			for _, u := range items {
				names[u.Key()] = u.Name
			}
			h.mu.Lock()
			h.uniNames = names
			h.uniLoaded = true
			h.mu.Unlock()
		}
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	options := make([]FilterOption, 0, len(h.uniNames))
	for id, name := range h.uniNames {
		options = append(options, FilterOption{Value: id, Label: name})
	}
	sort.Slice(options, func(i, j int) bool { return options[i].Label < options[j].Label })
	return options
}

// ParseCommand reads one line of interactive input.
func ParseCommand(line string) (Command, error) {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return Command{Kind: CommandShow}, nil
	}
	kind := CommandKind(strings.ToLower(fields[0]))
	rest := strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(line), fields[0]))

	switch kind {
	case CommandSearch:
		return Command{Kind: kind, Value: rest}, nil
	case CommandFilter:
		if len(fields) < 2 {
			return Command{}, fmt.Errorf("usage: filter <key> <value>")
		}
		value := strings.TrimSpace(strings.TrimPrefix(rest, fields[1]))
		return Command{Kind: kind, Key: fields[1], Value: value}, nil
	case CommandClearFilter:
		if len(fields) != 2 {
			return Command{}, fmt.Errorf("usage: unfilter <key>")
		}
		return Command{Kind: kind, Key: fields[1]}, nil
	case CommandPage:
		if len(fields) != 2 {
			return Command{}, fmt.Errorf("usage: page <n>")
		}
		n, err := strconv.Atoi(fields[1])
		if err != nil {
			return Command{}, apperrors.NewInvalidPageError(0).WithMetadata("input", fields[1])
		}
		return Command{Kind: kind, Page: n}, nil
	case CommandClear, CommandNext, CommandPrev, CommandRetry, CommandShow,
		CommandOptions, CommandHelp, CommandQuit:
		return Command{Kind: kind}, nil
	case "exit":
		return Command{Kind: CommandQuit}, nil
	}
	return Command{}, fmt.Errorf("unknown command %q", fields[0])
}

// Apply runs a mutating command against the listing.
func (h *Handler) Apply(cmd Command) error {
	c := h.controller
	switch cmd.Kind {
	case CommandSearch:
		return c.SetSearch(cmd.Value)
	case CommandFilter:
		return c.SetFilter(cmd.Key, cmd.Value)
	case CommandClearFilter:
		return c.ClearFilter(cmd.Key)
	case CommandClear:
		return c.Clear()
	case CommandPage:
		return c.SetPage(cmd.Page)
	case CommandNext:
		return c.NextPage()
	case CommandPrev:
		return c.PrevPage()
	case CommandRetry:
		return c.Retry()
	}
	return nil
}

// View renders the current snapshot.
func (h *Handler) View() View {
	snap := h.controller.Snapshot()
	v := View{
		Loading:    snap.Loading,
		PageLabel:  snap.PageLabel(),
		HasPrev:    snap.ShowPagination() && snap.HasPrev(),
		HasNext:    snap.ShowPagination() && snap.HasNext(),
		Link:       h.Link(),
		ActiveText: h.activeText(snap.State),
	}

	switch {
	case snap.Loading:
		v.Header = "Loading programmes..."
	case snap.Err != nil:
		stdErr := apperrors.Normalize(snap.Err)
		v.Header = "Failed to load programmes"
		v.Error = stdErr.Message
		v.Retryable = stdErr.Retryable
	case snap.NoResults():
		v.Header = "No programmes found matching your criteria."
	default:
		v.Header = fmt.Sprintf("%d programmes found", snap.TotalCount)
	}

	for _, p := range snap.Items {
		v.Rows = append(v.Rows, programmeRow(p))
	}
	return v
}

func (h *Handler) activeText(s query.State) string {
	var parts []string
	if s.Search != "" {
		parts = append(parts, fmt.Sprintf("search %q", s.Search))
	}
	for _, key := range s.FilterKeys() {
		value := s.Filters[key]
		if key == "university" {
			h.mu.Lock()
			if name, ok := h.uniNames[value]; ok {
				value = name
			}
			h.mu.Unlock()
		}
		parts = append(parts, key+"="+value)
	}
	return strings.Join(parts, ", ")
}

func programmeRow(p models.Programme) string {
	parts := []string{p.Name}
	if p.UniversityName != "" {
		parts = append(parts, p.UniversityName)
	}
	if p.AwardLevel != "" {
		parts = append(parts, p.AwardLevel)
	}
	if p.DurationMonths > 0 {
		parts = append(parts, fmt.Sprintf("%d months", p.DurationMonths))
	}
	if p.StudyMode != "" {
		parts = append(parts, p.StudyMode)
	}
	return fmt.Sprintf("[%d] %s", p.ID, strings.Join(parts, " | "))
}

// WaitSettled blocks until no fetch is outstanding or ctx is done.
func (h *Handler) WaitSettled(ctx context.Context) error {
	updates, unsubscribe := h.controller.Subscribe()
	defer unsubscribe()
	for {
		if !h.controller.Snapshot().Loading {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case _, ok := <-updates:
			if !ok {
				return query.ErrClosed
			}
		}
	}
}

// Execute runs the interactive session: one command per input line, the
// listing printed after each. It returns on quit, EOF or ctx cancellation.
func (h *Handler) Execute(ctx context.Context, in io.Reader, out io.Writer) error {
	h.logger.Info("Course browser session started", map[string]interface{}{
		"session": h.controller.SessionID(),
		"link":    h.Link(),
	})

	if err := h.settle(ctx); err != nil {
		return err
	}
	h.Render(out, h.View())

	scanner := bufio.NewScanner(in)
	for {
		fmt.Fprint(out, "> ")
		if !scanner.Scan() {
			fmt.Fprintln(out)
			return scanner.Err()
		}
		cmd, err := ParseCommand(scanner.Text())
		if err != nil {
			fmt.Fprintf(out, "error: %v\n", err)
			continue
		}

		switch cmd.Kind {
		case CommandQuit:
			return nil
		case CommandHelp:
			fmt.Fprint(out, helpText)
			continue
		case CommandOptions:
			h.renderOptions(out, h.FilterOptions(ctx))
			continue
		}

		if cmd.Mutates() {
			if err := h.Apply(cmd); err != nil {
				fmt.Fprintf(out, "error: %v\n", err)
				continue
			}
			h.logger.Debug("Command applied", map[string]interface{}{
				"command": string(cmd.Kind),
				"state":   h.controller.State().String(),
			})
		}
		if err := h.settle(ctx); err != nil {
			return err
		}
		h.Render(out, h.View())
	}
}

func (h *Handler) settle(ctx context.Context) error {
	waitCtx, cancel := context.WithTimeout(ctx, h.settleTimeout())
	defer cancel()
	err := h.WaitSettled(waitCtx)
	if err != nil && ctx.Err() != nil {
		return ctx.Err()
	}
	return nil
}

func (h *Handler) settleTimeout() time.Duration {
	if h.config.SettleTimeout > 0 {
		return h.config.SettleTimeout
	}
	return 15 * time.Second
}

// Render prints v as plain text.
func (h *Handler) Render(out io.Writer, v View) {
	fmt.Fprintln(out, v.Header)
	if v.ActiveText != "" {
		fmt.Fprintf(out, "  filters: %s\n", v.ActiveText)
	}
	if v.Error != "" {
		fmt.Fprintf(out, "  %s\n", v.Error)
		if v.Retryable {
			fmt.Fprintln(out, "  type 'retry' to try again")
		}
	}
	for _, row := range v.Rows {
		fmt.Fprintf(out, "  %s\n", row)
	}
	if v.PageLabel != "" {
		nav := v.PageLabel
		if v.HasPrev {
			nav = "< prev  " + nav
		}
		if v.HasNext {
			nav += "  next >"
		}
		fmt.Fprintf(out, "  %s\n", nav)
	}
	fmt.Fprintf(out, "  %s\n", v.Link)
}

func (h *Handler) renderOptions(out io.Writer, groups []FilterGroup) {
	for _, g := range groups {
		fmt.Fprintf(out, "%s (%s):\n", g.Label, g.Key)
		fmt.Fprintf(out, "  - %s\n", g.AllLabel)
		for _, o := range g.Options {
			if o.Value == o.Label {
				fmt.Fprintf(out, "  - %s\n", o.Label)
			} else {
				fmt.Fprintf(out, "  - %s (%s)\n", o.Label, o.Value)
			}
		}
	}
}

const helpText = `commands:
  search <term>         set the search term
  filter <key> <value>  set a filter (university, award_level, study_mode)
  unfilter <key>        clear one filter
  clear                 clear search and filters
  page <n> | next | prev
  retry                 re-issue the current request
  options               list filter options
  show                  print the listing
  quit
`
