package query

import (
	"fmt"
	"strconv"
)

// ResultPage is one decoded page of a collection. PageSize is the
// server-side page size, not len(Items).
type ResultPage[T any] struct {
	Items      []T
	TotalCount int
	PageSize   int
	Page       int
}

// TotalPages is ceil(TotalCount / PageSize), 0 for an empty collection.
func (p ResultPage[T]) TotalPages() int {
	return totalPages(p.TotalCount, p.PageSize)
}

// OutOfRange reports a page number beyond the last page of a non-empty collection.
func (p ResultPage[T]) OutOfRange() bool {
	n := p.TotalPages()
	return n > 0 && p.Page > n
}

func totalPages(count, size int) int {
	if count <= 0 || size <= 0 {
		return 0
	}
	return (count + size - 1) / size
}

// Snapshot is the published, read-only view of a controller. State is the
// desired state; Page is the page the items belong to, which lags State
// while a request is in flight.
type Snapshot[T any] struct {
	State      State
	Items      []T
	TotalCount int
	PageSize   int
	Page       int
	TotalPages int
	Loading    bool
	Err        error
	Version    uint64
}

// NoResults is true once a successful response reported an empty collection.
func (s Snapshot[T]) NoResults() bool {
	return !s.Loading && s.Err == nil && s.TotalCount == 0
}

// PageLabel renders "Page p of n", or "" when there are no pages.
func (s Snapshot[T]) PageLabel() string {
	if s.TotalPages <= 0 {
		return ""
	}
	return fmt.Sprintf("Page %d of %d", s.Page, s.TotalPages)
}

// ShowPagination is true when there is more than one page.
func (s Snapshot[T]) ShowPagination() bool {
	return s.TotalPages > 1
}

// HasPrev reports whether a previous page exists.
func (s Snapshot[T]) HasPrev() bool {
	return s.Page > 1
}

// HasNext reports whether a next page exists.
func (s Snapshot[T]) HasNext() bool {
	return s.Page < s.TotalPages
}

func itoa(n int) string {
	return strconv.Itoa(n)
}
