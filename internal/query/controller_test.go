package query_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	apperrors "uni-directory/internal/common/errors"
	"uni-directory/internal/common/logger"
	"uni-directory/internal/query"
	"uni-directory/internal/query/querytest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ==========================
// Test Helper Functions
// ==========================

// recordingFetcher answers immediately with a fixed total and records calls.
type recordingFetcher struct {
	mu    sync.Mutex
	calls []query.State
	total int
	err   error
}

func (f *recordingFetcher) fetch(_ context.Context, s query.State) (query.ResultPage[string], error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, s)
	if f.err != nil {
		return query.ResultPage[string]{}, f.err
	}
	var items []string
	start := (s.Page - 1) * 10
	for i := start; i < f.total && i < start+10; i++ {
		items = append(items, "item")
	}
	return query.ResultPage[string]{Items: items, TotalCount: f.total, PageSize: 10, Page: s.Page}, nil
}

func (f *recordingFetcher) setErr(err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.err = err
}

func (f *recordingFetcher) snapshotCalls() []query.State {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]query.State(nil), f.calls...)
}

type urlRecorder struct {
	mu     sync.Mutex
	writes []map[string]string
}

func (u *urlRecorder) sink(params map[string]string) {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.writes = append(u.writes, params)
}

func (u *urlRecorder) all() []map[string]string {
	u.mu.Lock()
	defer u.mu.Unlock()
	return append([]map[string]string(nil), u.writes...)
}

// keyRecorder is a logger.Logger keeping the field keys bound to each message.
type keyRecorder struct {
	mu      *sync.Mutex
	entries map[string][]string
	keys    []string
}

func newKeyRecorder() *keyRecorder {
	return &keyRecorder{mu: &sync.Mutex{}, entries: map[string][]string{}}
}

func (r *keyRecorder) record(msg string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries[msg] = append([]string(nil), r.keys...)
}

func (r *keyRecorder) all() map[string][]string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make(map[string][]string, len(r.entries))
	for k, v := range r.entries {
		out[k] = v
	}
	return out
}

func (r *keyRecorder) Debug(msg string, _ map[string]interface{}) { r.record(msg) }
func (r *keyRecorder) Info(msg string, _ map[string]interface{})  { r.record(msg) }
func (r *keyRecorder) Warn(msg string, _ map[string]interface{})  { r.record(msg) }
func (r *keyRecorder) Error(msg string, _ map[string]interface{}) { r.record(msg) }

func (r *keyRecorder) WithFields(fields map[string]interface{}) logger.Logger {
	keys := append([]string(nil), r.keys...)
	for k := range fields {
		keys = append(keys, k)
	}
	return &keyRecorder{mu: r.mu, entries: r.entries, keys: keys}
}

func (r *keyRecorder) WithError(err error) logger.Logger {
	return r.WithFields(map[string]interface{}{"error": err})
}

func (r *keyRecorder) With(fields map[string]interface{}) logger.Logger { return r.WithFields(fields) }

func waitFor[T any](t *testing.T, c *query.Controller[T], cond func(query.Snapshot[T]) bool) query.Snapshot[T] {
	t.Helper()
	require.Eventually(t, func() bool { return cond(c.Snapshot()) }, 2*time.Second, 5*time.Millisecond)
	return c.Snapshot()
}

func loaded[T any](s query.Snapshot[T]) bool { return !s.Loading }

func newTestController(t *testing.T, fetch query.Fetcher[string], initial map[string]string) (*query.Controller[string], *querytest.FakeClock, *urlRecorder) {
	t.Helper()
	clock := querytest.NewFakeClock()
	urls := &urlRecorder{}
	c := query.NewController(
		query.Config{Collection: "programmes", Debounce: 500 * time.Millisecond, Initial: initial},
		fetch,
		query.WithClock(clock),
		query.WithLogger(logger.NewTestLogger(t)),
		query.WithURLSink(urls.sink),
		query.WithCodec(query.NewURLCodec("university", "award_level", "study_mode")),
	)
	t.Cleanup(c.Close)
	return c, clock, urls
}

// ==========================
// Core Functionality Tests
// ==========================

func TestController_InitialFetchFromDeepLink(t *testing.T) {
	f := &recordingFetcher{total: 25}
	c, _, urls := newTestController(t, f.fetch, map[string]string{"search": "dar", "page": "2", "award_level": "Bachelor"})

	snap := waitFor(t, c, loaded[string])
	require.NoError(t, snap.Err)
	assert.Equal(t, 25, snap.TotalCount)
	assert.Equal(t, 3, snap.TotalPages)
	assert.Equal(t, 2, snap.Page)
	assert.Equal(t, "Page 2 of 3", snap.PageLabel())

	calls := f.snapshotCalls()
	require.Len(t, calls, 1, "initial fetch is not debounced")
	assert.Equal(t, "dar", calls[0].Search)
	assert.Empty(t, urls.all(), "construction does not rewrite the URL")
}

func TestController_SearchThenFilterIssuesOneRequest(t *testing.T) {
	f := &recordingFetcher{total: 4}
	c, clock, urls := newTestController(t, f.fetch, nil)
	waitFor(t, c, loaded[string])

	require.NoError(t, c.SetSearch("engineering"))
	clock.Advance(100 * time.Millisecond)
	require.NoError(t, c.SetFilter("award_level", "Bachelor"))

	// URL is written on every mutation, before any fetch
	assert.Equal(t, []map[string]string{
		{"search": "engineering"},
		{"search": "engineering", "award_level": "Bachelor"},
	}, urls.all())
	assert.True(t, c.Snapshot().Loading)
	assert.Len(t, f.snapshotCalls(), 1)

	clock.Advance(499 * time.Millisecond)
	assert.Len(t, f.snapshotCalls(), 1, "still inside the quiet period")

	clock.Advance(time.Millisecond)
	snap := waitFor(t, c, loaded[string])

	calls := f.snapshotCalls()
	require.Len(t, calls, 2)
	want := query.NewState().WithSearch("engineering").WithFilter("award_level", "Bachelor")
	assert.True(t, calls[1].Equal(want), "got %s", calls[1])
	assert.True(t, snap.State.Equal(want))
	assert.Equal(t, 4, snap.TotalCount)

	clock.Advance(5 * time.Second)
	assert.Len(t, f.snapshotCalls(), 2)
}

func TestController_StaleResponseNeverOverwritesNewer(t *testing.T) {
	g := newGatedFetcher()
	c, clock, _ := newTestController(t, g.fetch, nil)
	g.release("", "initial")
	waitFor(t, c, loaded[string])

	require.NoError(t, c.SetSearch("t1"))
	clock.Advance(500 * time.Millisecond)
	require.NoError(t, c.SetSearch("t2"))
	clock.Advance(500 * time.Millisecond)
	require.Eventually(t, func() bool { return g.callCount() == 3 }, 2*time.Second, 5*time.Millisecond)

	g.release("t2", "second")
	snap := waitFor(t, c, loaded[string])
	assert.Equal(t, []string{"second"}, snap.Items)
	version := snap.Version

	g.release("t1", "first")
	time.Sleep(50 * time.Millisecond)
	snap = c.Snapshot()
	assert.Equal(t, []string{"second"}, snap.Items)
	assert.Equal(t, version, snap.Version, "stale response must not publish")
}

func TestController_MutationInvalidatesInFlightResponse(t *testing.T) {
	g := newGatedFetcher()
	c, clock, _ := newTestController(t, g.fetch, nil)
	g.release("", "initial")
	waitFor(t, c, loaded[string])

	require.NoError(t, c.SetSearch("a"))
	clock.Advance(500 * time.Millisecond)
	require.NoError(t, c.SetSearch("b"))

	g.release("a", "stale")
	time.Sleep(50 * time.Millisecond)
	snap := c.Snapshot()
	assert.True(t, snap.Loading, "response for a superseded state is not applied")
	assert.Equal(t, []string{"initial"}, snap.Items)

	clock.Advance(500 * time.Millisecond)
	g.release("b", "fresh")
	snap = waitFor(t, c, loaded[string])
	assert.Equal(t, []string{"fresh"}, snap.Items)
}

func TestController_EqualMutationIsNoOp(t *testing.T) {
	f := &recordingFetcher{total: 3}
	c, clock, urls := newTestController(t, f.fetch, map[string]string{"search": "dar"})
	before := waitFor(t, c, loaded[string])

	require.NoError(t, c.SetSearch("dar"))
	require.NoError(t, c.ClearFilter("university"))
	require.NoError(t, c.PrevPage())
	clock.Advance(time.Second)

	after := c.Snapshot()
	assert.False(t, after.Loading)
	assert.Equal(t, before.Version, after.Version)
	assert.Empty(t, urls.all())
	assert.Len(t, f.snapshotCalls(), 1)
}

func TestController_ErrorClearsResultsAndRetryRecovers(t *testing.T) {
	f := &recordingFetcher{total: 12}
	c, _, _ := newTestController(t, f.fetch, nil)
	waitFor(t, c, loaded[string])

	f.setErr(errors.New("connection refused"))
	require.NoError(t, c.Retry())
	snap := waitFor(t, c, func(s query.Snapshot[string]) bool { return !s.Loading && s.Err != nil })
	assert.Equal(t, apperrors.ErrCodeNetwork, apperrors.CodeOf(snap.Err))
	assert.Nil(t, snap.Items)
	assert.Equal(t, 0, snap.TotalCount)
	assert.False(t, snap.NoResults(), "an error is not an empty result")

	f.setErr(nil)
	require.NoError(t, c.Retry())
	snap = waitFor(t, c, func(s query.Snapshot[string]) bool { return !s.Loading && s.Err == nil })
	assert.Equal(t, 12, snap.TotalCount)
	assert.Len(t, snap.Items, 10)
}

func TestController_RetryDropsPendingDebounce(t *testing.T) {
	f := &recordingFetcher{total: 4}
	c, clock, _ := newTestController(t, f.fetch, nil)
	waitFor(t, c, loaded[string])

	require.NoError(t, c.SetSearch("eng"))
	clock.Advance(100 * time.Millisecond)
	require.NoError(t, c.Retry())
	snap := waitFor(t, c, loaded[string])

	clock.Advance(time.Second)
	calls := f.snapshotCalls()
	require.Len(t, calls, 2, "retry replaces the debounced fetch")
	assert.Equal(t, "eng", calls[1].Search)

	after := c.Snapshot()
	assert.False(t, after.Loading)
	assert.Equal(t, snap.Version, after.Version)

	require.NoError(t, c.SetSearch("engineering"))
	clock.Advance(500 * time.Millisecond)
	waitFor(t, c, loaded[string])
	assert.Len(t, f.snapshotCalls(), 3, "debouncing still works after a retry")
}

func TestController_LogFieldsAreNotRepeated(t *testing.T) {
	rec := newKeyRecorder()
	f := &recordingFetcher{total: 4}
	c := query.NewController(
		query.Config{Collection: "programmes", Debounce: 500 * time.Millisecond},
		f.fetch,
		query.WithClock(querytest.NewFakeClock()),
		query.WithLogger(rec),
	)
	t.Cleanup(c.Close)
	waitFor(t, c, loaded[string])

	entries := rec.all()
	require.Contains(t, entries, "Fetch issued")
	for msg, keys := range entries {
		seen := map[string]int{}
		for _, k := range keys {
			seen[k]++
		}
		for k, n := range seen {
			assert.Equal(t, 1, n, "%q carries %q %d times", msg, k, n)
		}
	}
}

func TestController_SetPageClampsToKnownPages(t *testing.T) {
	f := &recordingFetcher{total: 25}
	c, clock, urls := newTestController(t, f.fetch, nil)
	waitFor(t, c, loaded[string])

	require.NoError(t, c.SetPage(10))
	assert.Equal(t, 3, c.State().Page)
	assert.Equal(t, map[string]string{"page": "3"}, urls.all()[0])

	clock.Advance(500 * time.Millisecond)
	waitFor(t, c, loaded[string])

	require.NoError(t, c.NextPage())
	assert.Equal(t, 3, c.State().Page, "next on the last page is a no-op")
	require.NoError(t, c.PrevPage())
	assert.Equal(t, 2, c.State().Page)

	err := c.SetPage(0)
	assert.Equal(t, apperrors.ErrCodeInvalidPage, apperrors.CodeOf(err))
}

func TestController_SetPageOnEmptyResultGoesToFirstPage(t *testing.T) {
	f := &recordingFetcher{total: 0}
	c, _, _ := newTestController(t, f.fetch, map[string]string{"search": "zzz"})
	snap := waitFor(t, c, loaded[string])
	assert.True(t, snap.NoResults())
	assert.Equal(t, 0, snap.TotalPages)
	assert.Equal(t, "", snap.PageLabel())

	require.NoError(t, c.SetPage(4))
	assert.Equal(t, 1, c.State().Page)
}

func TestController_OutOfRangeDeepLinkIsClamped(t *testing.T) {
	f := &recordingFetcher{total: 25}
	c, _, urls := newTestController(t, f.fetch, map[string]string{"page": "9"})

	snap := waitFor(t, c, func(s query.Snapshot[string]) bool { return !s.Loading && s.Page == 3 })
	assert.Equal(t, 3, snap.State.Page)
	assert.Len(t, snap.Items, 5)
	assert.Equal(t, []map[string]string{{"page": "3"}}, urls.all())
	assert.Len(t, f.snapshotCalls(), 2)
}

func TestController_UnknownFilterRejected(t *testing.T) {
	f := &recordingFetcher{total: 1}
	c, _, _ := newTestController(t, f.fetch, nil)

	err := c.SetFilter("colour", "blue")
	assert.Equal(t, apperrors.ErrCodeInvalidFilter, apperrors.CodeOf(err))
}

func TestController_SubscribeCoalescesSignals(t *testing.T) {
	f := &recordingFetcher{total: 1}
	c, _, _ := newTestController(t, f.fetch, nil)
	waitFor(t, c, loaded[string])

	ch, cancel := c.Subscribe()
	defer cancel()

	require.NoError(t, c.SetSearch("a"))
	require.NoError(t, c.SetSearch("b"))
	require.NoError(t, c.SetSearch("c"))

	<-ch
	select {
	case <-ch:
		t.Fatal("signals should coalesce into one")
	default:
	}
	assert.Equal(t, "c", c.Snapshot().State.Search)
}

func TestController_CloseMakesControllerInert(t *testing.T) {
	f := &recordingFetcher{total: 1}
	c, clock, _ := newTestController(t, f.fetch, nil)
	waitFor(t, c, loaded[string])
	ch, _ := c.Subscribe()

	require.NoError(t, c.SetSearch("pending"))
	c.Close()
	c.Close()

	clock.Advance(time.Second)
	assert.Len(t, f.snapshotCalls(), 1, "pending debounce must not fire after Close")

	assert.ErrorIs(t, c.SetSearch("x"), query.ErrClosed)
	assert.ErrorIs(t, c.SetPage(2), query.ErrClosed)
	assert.ErrorIs(t, c.Retry(), query.ErrClosed)

	_, open := <-ch
	for open {
		_, open = <-ch
	}
	late, _ := c.Subscribe()
	_, open = <-late
	assert.False(t, open)
}

func TestController_CloseCancelsInFlightRequest(t *testing.T) {
	started := make(chan struct{})
	cancelled := make(chan struct{})
	fetch := func(ctx context.Context, _ query.State) (query.ResultPage[string], error) {
		close(started)
		<-ctx.Done()
		close(cancelled)
		return query.ResultPage[string]{}, ctx.Err()
	}
	c, _, _ := newTestController(t, fetch, nil)

	<-started
	c.Close()
	select {
	case <-cancelled:
	case <-time.After(2 * time.Second):
		t.Fatal("request context was not cancelled")
	}
	assert.True(t, c.Snapshot().Loading, "cancelled response is never applied")
}
