package query

import (
	"context"
	"errors"
	"sync"
	"time"

	apperrors "uni-directory/internal/common/errors"
	"uni-directory/internal/common/logger"
	"uni-directory/internal/common/metrics"

	"github.com/google/uuid"
)

// ErrClosed is returned by mutations after Close.
var ErrClosed = errors.New("CONTROLLER_CLOSED")

// URLSink receives the encoded state after every accepted mutation. It is
// called with the controller lock held and must not call back into it.
type URLSink func(params map[string]string)

// Config holds the controller settings that do not depend on T.
type Config struct {
	Collection string
	Debounce   time.Duration
	// Initial is the URL-like input the starting state is decoded from.
	Initial map[string]string
}

// Option configures a Controller.
type Option func(*options)

type options struct {
	clock  Clock
	logger logger.Logger
	sink   URLSink
	codec  *URLCodec
}

// WithClock sets the clock driving the debounce timer.
func WithClock(c Clock) Option { return func(o *options) { o.clock = c } }

// WithLogger sets the base logger.
func WithLogger(l logger.Logger) Option { return func(o *options) { o.logger = l } }

// WithURLSink sets where encoded state is written after each mutation.
func WithURLSink(s URLSink) Option { return func(o *options) { o.sink = s } }

// WithCodec sets the URL codec and with it the accepted filter keys.
func WithCodec(c *URLCodec) Option { return func(o *options) { o.codec = c } }

// Controller owns the desired State of one listing and keeps a published
// Snapshot in step with it. Mutations write the URL immediately, go quiet
// for the debounce period and then fetch through a Sequencer.
type Controller[T any] struct {
	collection string
	sessionID  string
	codec      *URLCodec
	sink       URLSink
	logger     logger.Logger

	ctx    context.Context
	cancel context.CancelFunc

	mu        sync.Mutex
	seq       *Sequencer[T]
	debouncer *Debouncer[State]
	state     State
	snap      Snapshot[T]
	subs      []chan struct{}
	closed    bool
	// a mutation is waiting for its debounced fetch
	debouncing bool

	// criteria and page count of the last successful response, for clamping
	lastGood      State
	lastGoodPages int
	haveGood      bool
}

// NewController decodes the initial state and issues its fetch immediately,
// without debouncing.
func NewController[T any](cfg Config, fetch Fetcher[T], opts ...Option) *Controller[T] {
	o := options{}
	for _, opt := range opts {
		opt(&o)
	}
	if o.clock == nil {
		o.clock = RealClock()
	}
	if o.codec == nil {
		o.codec = NewURLCodec()
	}
	if cfg.Collection == "" {
		cfg.Collection = "default"
	}
	if cfg.Debounce == 0 {
		cfg.Debounce = DefaultDebounce
	}

	sessionID := uuid.NewString()
	base := logger.OrNop(o.logger).WithFields(map[string]interface{}{"session": sessionID})
	log := base.WithFields(map[string]interface{}{"collection": cfg.Collection})

	ctx, cancel := context.WithCancel(context.Background())
	c := &Controller[T]{
		collection: cfg.Collection,
		sessionID:  sessionID,
		codec:      o.codec,
		sink:       o.sink,
		logger:     log,
		ctx:        ctx,
		cancel:     cancel,
		state:      o.codec.Decode(cfg.Initial),
	}
	c.seq = NewSequencer(fetch,
		WithGuard(&c.mu),
		WithCollection(cfg.Collection),
		WithSequencerLogger(base),
	)
	c.debouncer = NewDebouncer(o.clock, cfg.Debounce, c.onDebounce)

	c.mu.Lock()
	defer c.mu.Unlock()
	c.snap.Loading = true
	c.snap.Page = c.state.Page
	c.publishLocked()
	c.issueLocked(c.state)
	log.Debug("Controller started", map[string]interface{}{"state": c.state.String()})
	return c
}

// SessionID identifies this controller in logs and cache keys.
func (c *Controller[T]) SessionID() string { return c.sessionID }

// Codec returns the codec used for the URL representation.
func (c *Controller[T]) Codec() *URLCodec { return c.codec }

// State returns the desired state.
func (c *Controller[T]) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state.Clone()
}

// Snapshot returns the last published snapshot.
func (c *Controller[T]) Snapshot() Snapshot[T] {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshotLocked()
}

func (c *Controller[T]) snapshotLocked() Snapshot[T] {
	s := c.snap
	s.State = c.state.Clone()
	return s
}

// Subscribe returns a channel signalled after every publication. Signals
// coalesce: a slow reader sees one pending signal and then reads Snapshot.
// The channel is closed by Close or by the returned cancel func.
func (c *Controller[T]) Subscribe() (<-chan struct{}, func()) {
	ch := make(chan struct{}, 1)
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		close(ch)
		return ch, func() {}
	}
	c.subs = append(c.subs, ch)
	return ch, func() { c.unsubscribe(ch) }
}

func (c *Controller[T]) unsubscribe(ch chan struct{}) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for i, sub := range c.subs {
		if sub == ch {
			c.subs = append(c.subs[:i], c.subs[i+1:]...)
			close(ch)
			return
		}
	}
}

// SetSearch replaces the search term and resets to page 1.
func (c *Controller[T]) SetSearch(term string) error {
	return c.mutate(func(s State) (State, error) { return s.WithSearch(term), nil })
}

// SetFilter sets one filter and resets to page 1. Unknown keys are rejected.
func (c *Controller[T]) SetFilter(key, value string) error {
	return c.mutate(func(s State) (State, error) {
		if !c.codec.Accepts(key) {
			return s, apperrors.NewInvalidFilterError(key)
		}
		return s.WithFilter(key, value), nil
	})
}

// ClearFilter removes one filter and resets to page 1.
func (c *Controller[T]) ClearFilter(key string) error {
	return c.mutate(func(s State) (State, error) { return s.WithoutFilter(key), nil })
}

// SetPage moves to page n. Once the page count for the current criteria is
// known, n is clamped to it.
func (c *Controller[T]) SetPage(n int) error {
	return c.mutate(func(s State) (State, error) {
		return s.WithPage(c.clampLocked(s, n))
	})
}

// NextPage advances one page, clamped like SetPage.
func (c *Controller[T]) NextPage() error {
	return c.mutate(func(s State) (State, error) {
		return s.WithPage(c.clampLocked(s, s.Page+1))
	})
}

// PrevPage is a no-op on page 1.
func (c *Controller[T]) PrevPage() error {
	return c.mutate(func(s State) (State, error) {
		if s.Page <= 1 {
			return s, nil
		}
		return s.WithPage(s.Page - 1)
	})
}

// Clear drops the search term and every filter.
func (c *Controller[T]) Clear() error {
	return c.mutate(func(s State) (State, error) { return s.Cleared(), nil })
}

// Retry re-fetches the current state now, skipping the debounce. A pending
// debounced fetch is dropped since this one covers the same state.
func (c *Controller[T]) Retry() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return ErrClosed
	}
	c.debouncer.Cancel()
	c.debouncing = false
	c.snap.Loading = true
	c.publishLocked()
	c.issueLocked(c.state)
	return nil
}

// Close stops the debouncer, makes every in-flight response stale, cancels
// the request context and closes subscriber channels. Close is idempotent.
func (c *Controller[T]) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.closed = true
	c.debouncer.Stop()
	c.seq.Close()
	c.cancel()
	for _, sub := range c.subs {
		close(sub)
	}
	c.subs = nil
	c.logger.Debug("Controller closed", nil)
}

func (c *Controller[T]) mutate(fn func(State) (State, error)) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return ErrClosed
	}
	next, err := fn(c.state)
	if err != nil {
		return err
	}
	if next.Equal(c.state) {
		return nil
	}
	c.state = next
	c.snap.Loading = true
	c.seq.Invalidate()
	c.publishLocked()
	c.writeURLLocked()
	c.debouncing = true
	c.debouncer.Trigger(next.Clone())
	return nil
}

func (c *Controller[T]) clampLocked(s State, n int) int {
	if n < 1 || !c.haveGood || !sameCriteria(s, c.lastGood) {
		return n
	}
	if c.lastGoodPages == 0 {
		return 1
	}
	if n > c.lastGoodPages {
		return c.lastGoodPages
	}
	return n
}

func (c *Controller[T]) onDebounce(s State) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed || !c.debouncing {
		return
	}
	c.debouncing = false
	metrics.DebounceFires.WithLabelValues(c.collection).Inc()
	if !c.snap.Loading {
		c.snap.Loading = true
		c.publishLocked()
	}
	c.issueLocked(s)
}

func (c *Controller[T]) issueLocked(s State) {
	c.seq.Issue(c.ctx, s, c.applyLocked)
}

// applyLocked runs with c.mu held, via the sequencer guard.
func (c *Controller[T]) applyLocked(resp Response[T]) {
	if c.closed {
		return
	}
	if resp.Err != nil {
		c.snap.Items = nil
		c.snap.TotalCount = 0
		c.snap.TotalPages = 0
		c.snap.Page = resp.State.Page
		c.snap.Loading = false
		c.snap.Err = resp.Err
		c.publishLocked()
		return
	}

	page := resp.Page
	c.lastGood = resp.State.Clone()
	c.lastGoodPages = page.TotalPages()
	c.haveGood = true

	if page.OutOfRange() {
		c.logger.Info("Requested page beyond last page, clamping", map[string]interface{}{
			"page":       page.Page,
			"totalPages": page.TotalPages(),
		})
		c.state, _ = c.state.WithPage(page.TotalPages())
		c.writeURLLocked()
		c.issueLocked(c.state)
		return
	}

	c.snap.Items = page.Items
	c.snap.TotalCount = page.TotalCount
	c.snap.PageSize = page.PageSize
	c.snap.Page = page.Page
	c.snap.TotalPages = page.TotalPages()
	c.snap.Loading = false
	c.snap.Err = nil
	c.publishLocked()
}

func (c *Controller[T]) writeURLLocked() {
	if c.sink != nil {
		c.sink(c.codec.Encode(c.state))
	}
}

func (c *Controller[T]) publishLocked() {
	c.snap.Version++
	for _, sub := range c.subs {
		select {
		case sub <- struct{}{}:
		default:
		}
	}
}

func sameCriteria(a, b State) bool {
	a.Page, b.Page = 1, 1
	return a.Equal(b)
}
