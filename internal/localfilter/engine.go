// Package localfilter filters small, fully loaded collections in memory.
package localfilter

import (
	"sort"
	"strings"
)

// Field reads one string attribute of T.
type Field[T any] func(T) string

// Predicate is a conjunction: the search term must match at least one text
// field (case-insensitive substring), and every set exact field must match
// exactly. Empty search and empty exact values are ignored. The search term
// is matched as given, surrounding whitespace included.
type Predicate[T any] struct {
	Search      string
	TextFields  []Field[T]
	ExactFields []Exact[T]
}

// Exact pairs a field with the value it must equal.
type Exact[T any] struct {
	Field Field[T]
	Value string
}

// Match reports whether item satisfies p.
func (p Predicate[T]) Match(item T) bool {
	if term := strings.ToLower(p.Search); term != "" && len(p.TextFields) > 0 {
		found := false
		for _, f := range p.TextFields {
			if strings.Contains(strings.ToLower(f(item)), term) {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	for _, ex := range p.ExactFields {
		if ex.Value == "" {
			continue
		}
		if ex.Field(item) != ex.Value {
			return false
		}
	}
	return true
}

// Filter returns the items matching p in their original order.
func Filter[T any](collection []T, p Predicate[T]) []T {
	out := make([]T, 0, len(collection))
	for _, item := range collection {
		if p.Match(item) {
			out = append(out, item)
		}
	}
	return out
}

// DistinctValues returns the sorted set of non-empty values of field.
func DistinctValues[T any](collection []T, field Field[T]) []string {
	seen := make(map[string]struct{})
	for _, item := range collection {
		if v := field(item); v != "" {
			seen[v] = struct{}{}
		}
	}
	out := make([]string, 0, len(seen))
	for v := range seen {
		out = append(out, v)
	}
	sort.Strings(out)
	return out
}
