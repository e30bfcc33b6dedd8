// Package query binds search, filter and page state to a debounced,
// race-safe, URL-synchronised paginated fetch.
package query

import (
	"sort"
	"strings"

	apperrors "uni-directory/internal/common/errors"
)

// State is the desired listing: a search term, named discrete filters and a
// 1-based page. Values are immutable; every transition returns a new State.
// An unset filter is an absent key, never an empty string.
type State struct {
	Search  string
	Filters map[string]string
	Page    int
}

// NewState returns the initial state: no search, no filters, page 1.
func NewState() State {
	return State{Page: 1}
}

// WithSearch returns s with the search term replaced and the page reset.
func (s State) WithSearch(term string) State {
	next := s.Clone()
	next.Search = term
	next.Page = 1
	return next
}

// WithFilter sets or, for an empty value, clears a filter and resets the page.
func (s State) WithFilter(key, value string) State {
	next := s.Clone()
	if value == "" {
		delete(next.Filters, key)
	} else {
		if next.Filters == nil {
			next.Filters = make(map[string]string)
		}
		next.Filters[key] = value
	}
	if len(next.Filters) == 0 {
		next.Filters = nil
	}
	next.Page = 1
	return next
}

// WithoutFilter is WithFilter(key, "").
func (s State) WithoutFilter(key string) State {
	return s.WithFilter(key, "")
}

// WithPage moves to page n. Search and filters are untouched.
func (s State) WithPage(n int) (State, error) {
	if n < 1 {
		return s, apperrors.NewInvalidPageError(n)
	}
	next := s.Clone()
	next.Page = n
	return next, nil
}

// Cleared drops the search term and every filter.
func (s State) Cleared() State {
	return NewState()
}

// Filter returns the value of a filter and whether it is set.
func (s State) Filter(key string) (string, bool) {
	v, ok := s.Filters[key]
	return v, ok
}

// HasCriteria reports whether a search term or any filter is set.
func (s State) HasCriteria() bool {
	return s.Search != "" || len(s.Filters) > 0
}

// Clone returns a copy that shares no map with s.
func (s State) Clone() State {
	out := State{Search: s.Search, Page: s.Page}
	if len(s.Filters) > 0 {
		out.Filters = make(map[string]string, len(s.Filters))
		for k, v := range s.Filters {
			out.Filters[k] = v
		}
	}
	if out.Page < 1 {
		out.Page = 1
	}
	return out
}

// Equal compares structurally. A nil and an empty filter map are equal.
func (s State) Equal(o State) bool {
	if s.Search != o.Search || s.normalizedPage() != o.normalizedPage() {
		return false
	}
	if len(s.Filters) != len(o.Filters) {
		return false
	}
	for k, v := range s.Filters {
		if ov, ok := o.Filters[k]; !ok || ov != v {
			return false
		}
	}
	return true
}

func (s State) normalizedPage() int {
	if s.Page < 1 {
		return 1
	}
	return s.Page
}

// FilterKeys returns the set filter keys in sorted order.
func (s State) FilterKeys() []string {
	keys := make([]string, 0, len(s.Filters))
	for k := range s.Filters {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// String renders a stable, human readable form used in logs.
func (s State) String() string {
	var b strings.Builder
	b.WriteString("search=")
	b.WriteString(s.Search)
	for _, k := range s.FilterKeys() {
		b.WriteString(" ")
		b.WriteString(k)
		b.WriteString("=")
		b.WriteString(s.Filters[k])
	}
	b.WriteString(" page=")
	b.WriteString(itoa(s.normalizedPage()))
	return b.String()
}
