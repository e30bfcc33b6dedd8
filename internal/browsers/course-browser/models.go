// internal/browsers/course-browser/models.go
package coursebrowser

// CommandKind enumerates what a line of interactive input can ask for.
type CommandKind string

const (
	CommandSearch      CommandKind = "search"
	CommandFilter      CommandKind = "filter"
	CommandClearFilter CommandKind = "unfilter"
	CommandClear       CommandKind = "clear"
	CommandPage        CommandKind = "page"
	CommandNext        CommandKind = "next"
	CommandPrev        CommandKind = "prev"
	CommandRetry       CommandKind = "retry"
	CommandShow        CommandKind = "show"
	CommandOptions     CommandKind = "options"
	CommandHelp        CommandKind = "help"
	CommandQuit        CommandKind = "quit"
)

type Command struct {
	Kind  CommandKind
	Key   string
	Value string
	Page  int
}

// Mutates reports whether the command changes the listing state.
func (c Command) Mutates() bool {
	switch c.Kind {
	case CommandSearch, CommandFilter, CommandClearFilter, CommandClear,
		CommandPage, CommandNext, CommandPrev, CommandRetry:
		return true
	}
	return false
}

// FilterOption is one selectable value of a filter.
type FilterOption struct {
	Value string `json:"value"`
	Label string `json:"label"`
}

// FilterGroup is a filter with its options, first option meaning "all".
type FilterGroup struct {
	Key      string         `json:"key"`
	Label    string         `json:"label"`
	AllLabel string         `json:"allLabel"`
	Options  []FilterOption `json:"options"`
}

// View is the rendered listing.
type View struct {
	Header     string   `json:"header"`
	Rows       []string `json:"rows"`
	PageLabel  string   `json:"pageLabel,omitempty"`
	HasPrev    bool     `json:"hasPrev"`
	HasNext    bool     `json:"hasNext"`
	Loading    bool     `json:"loading"`
	Error      string   `json:"error,omitempty"`
	Retryable  bool     `json:"retryable"`
	Link       string   `json:"link"`
	ActiveText string   `json:"active,omitempty"`
}
