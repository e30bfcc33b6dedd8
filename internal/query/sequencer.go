package query

import (
	"context"
	"sync"
	"time"

	apperrors "uni-directory/internal/common/errors"
	"uni-directory/internal/common/logger"
	"uni-directory/internal/common/metrics"
)

// Fetcher loads one page for a state.
type Fetcher[T any] func(ctx context.Context, s State) (ResultPage[T], error)

// Response is a completed fetch. Err, when set, is a *errors.StandardError.
type Response[T any] struct {
	State State
	Page  ResultPage[T]
	Err   error
}

// Sequencer stamps every fetch with a strictly increasing token and delivers
// only the response of the most recently issued request. Superseded requests
// are not cancelled; their responses are dropped on arrival.
//
// deliver runs on the fetch goroutine with guard held, so a caller that also
// holds guard while issuing gets an atomic check-and-apply.
type Sequencer[T any] struct {
	fetch      Fetcher[T]
	guard      sync.Locker
	collection string
	logger     logger.Logger
	errors     *apperrors.ErrorHandler

	mu     sync.Mutex
	latest uint64
	closed bool
	wg     sync.WaitGroup
}

// SequencerOption configures a Sequencer.
type SequencerOption func(*sequencerOptions)

type sequencerOptions struct {
	guard      sync.Locker
	collection string
	logger     logger.Logger
}

// WithGuard sets the lock held around each deliver call.
func WithGuard(l sync.Locker) SequencerOption {
	return func(o *sequencerOptions) { o.guard = l }
}

// WithCollection labels metrics and logs.
func WithCollection(name string) SequencerOption {
	return func(o *sequencerOptions) { o.collection = name }
}

// WithSequencerLogger sets the logger.
func WithSequencerLogger(l logger.Logger) SequencerOption {
	return func(o *sequencerOptions) { o.logger = l }
}

// NewSequencer returns a Sequencer around fetch.
func NewSequencer[T any](fetch Fetcher[T], opts ...SequencerOption) *Sequencer[T] {
	o := sequencerOptions{collection: "default"}
	for _, opt := range opts {
		opt(&o)
	}
	if o.guard == nil {
		o.guard = &sync.Mutex{}
	}
	log := logger.OrNop(o.logger).WithFields(map[string]interface{}{"collection": o.collection})
	return &Sequencer[T]{
		fetch:      fetch,
		guard:      o.guard,
		collection: o.collection,
		logger:     log,
		errors:     apperrors.NewErrorHandler(log),
	}
}

// Issue starts a fetch for s without waiting on earlier ones and returns its
// token. deliver is called at most once, only if no later Issue, Invalidate
// or Close happened before the response arrived.
func (q *Sequencer[T]) Issue(ctx context.Context, s State, deliver func(Response[T])) uint64 {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return 0
	}
	q.latest++
	token := q.latest
	q.wg.Add(1)
	q.mu.Unlock()

	s = s.Clone()
	metrics.FetchesIssued.WithLabelValues(q.collection).Inc()
	metrics.FetchesInFlight.WithLabelValues(q.collection).Inc()
	q.logger.Debug("Fetch issued", map[string]interface{}{"token": token, "state": s.String()})

	go q.run(ctx, token, s, deliver)
	return token
}

func (q *Sequencer[T]) run(ctx context.Context, token uint64, s State, deliver func(Response[T])) {
	defer q.wg.Done()
	started := time.Now()

	page, err := q.fetch(ctx, s)

	metrics.FetchesInFlight.WithLabelValues(q.collection).Dec()
	metrics.FetchDuration.WithLabelValues(q.collection).Observe(time.Since(started).Seconds())

	q.guard.Lock()
	defer q.guard.Unlock()

	if !q.current(token) {
		metrics.FetchesStale.WithLabelValues(q.collection).Inc()
		q.logger.Debug("Stale response dropped", map[string]interface{}{
			"token":     token,
			"errorCode": string(apperrors.ErrCodeStaleResponse),
		})
		return
	}

	resp := Response[T]{State: s}
	if err != nil {
		stdErr := q.errors.HandleFetchError(q.collection, err)
		metrics.FetchFailures.WithLabelValues(q.collection, string(stdErr.Code)).Inc()
		resp.Err = stdErr
	} else {
		if page.Page == 0 {
			page.Page = s.Page
		}
		resp.Page = page
	}
	deliver(resp)
}

func (q *Sequencer[T]) current(token uint64) bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return !q.closed && token == q.latest
}

// Invalidate makes every outstanding response stale without issuing.
func (q *Sequencer[T]) Invalidate() {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.latest++
}

// Close makes every outstanding and future response stale.
func (q *Sequencer[T]) Close() {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.closed = true
}

// Wait blocks until every issued fetch goroutine has returned. It must not
// be called with guard held.
func (q *Sequencer[T]) Wait() {
	q.wg.Wait()
}
