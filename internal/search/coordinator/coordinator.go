// Package coordinator drives the search-as-you-type dropdown: it debounces
// keystrokes, tags every dispatched search with a token and only lets the
// newest token commit results.
package coordinator

import (
	"context"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"

	"agristack/internal/search/models"
	textutil "agristack/pkg/platform/strings"
)

// DefaultDelay is the quiescence window between the last keystroke and
// the dispatched search.
const DefaultDelay = 300 * time.Millisecond

type State string

const (
	StateIdle      State = "idle"
	StatePending   State = "pending"
	StateInFlight  State = "in_flight"
	StateCommitted State = "committed"
)

// Outcome is what happened to a completed search.
type Outcome string

const (
	OutcomeCommitted  Outcome = "committed"
	OutcomeSuperseded Outcome = "superseded"
)

// SearchFunc runs one search. It is called from its own goroutine.
type SearchFunc func(ctx context.Context, term string) ([]models.SearchResult, error)

type Timer interface {
	Stop() bool
}

// Clock schedules the debounce timer.
type Clock interface {
	AfterFunc(d time.Duration, f func()) Timer
}

type systemClock struct{}

func (systemClock) AfterFunc(d time.Duration, f func()) Timer { return time.AfterFunc(d, f) }

// View is a snapshot of what the dropdown shows. Term is the current input;
// Results belong to ResultsTerm, which lags Term while a newer keystroke
// is pending or in flight.
type View struct {
	Term        string
	Results     []models.SearchResult
	ResultsTerm string
	// ResultsToken is the token of the search that produced Results, zero
	// when nothing has been committed.
	ResultsToken uint64
	Visible      bool
	State        State
	// Token is the latest dispatched token.
	Token uint64
	// Dropped counts responses discarded because a newer search was issued.
	Dropped uint64
}

type Coordinator struct {
	mu       sync.Mutex
	ctx      context.Context
	cancel   context.CancelFunc
	clock    Clock
	delay    time.Duration
	search   SearchFunc
	logger   *slog.Logger
	onChange func(View)

	term      string
	gen       uint64
	latest    uint64
	dropped   uint64
	state     State
	results   []models.SearchResult
	resTerm   string
	resToken  uint64
	focused   bool
	dismissed bool
	timer     Timer
	closed    bool
}

type Option func(*Coordinator)

func WithDelay(d time.Duration) Option {
	return func(c *Coordinator) {
		if d > 0 {
			c.delay = d
		}
	}
}

func WithClock(clock Clock) Option {
	return func(c *Coordinator) { c.clock = clock }
}

func WithLogger(logger *slog.Logger) Option {
	return func(c *Coordinator) { c.logger = logger }
}

// WithOnChange registers a callback invoked after every state change. It
// runs outside the coordinator's lock and may call View.
func WithOnChange(fn func(View)) Option {
	return func(c *Coordinator) { c.onChange = fn }
}

// New creates a coordinator. Searches run with ctx until Close is called.
func New(ctx context.Context, search SearchFunc, opts ...Option) *Coordinator {
	ctx, cancel := context.WithCancel(ctx)
	c := &Coordinator{
		ctx:    ctx,
		cancel: cancel,
		clock:  systemClock{},
		delay:  DefaultDelay,
		search: search,
		logger: slog.Default(),
		state:  StateIdle,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Input records a keystroke. Every call restarts the debounce window; a
// blank term returns the coordinator to Idle and orphans any in-flight
// search.
func (c *Coordinator) Input(term string) {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.term = term
	c.dismissed = false
	c.stopTimerLocked()
	c.gen++

	if textutil.NormalizeTerm(term) == "" {
		c.latest++
		c.state = StateIdle
		c.results = nil
		c.resTerm, c.resToken = "", 0
	} else {
		gen := c.gen
		c.state = StatePending
		c.timer = c.clock.AfterFunc(c.delay, func() { c.fire(gen) })
	}
	v := c.viewLocked()
	c.mu.Unlock()
	c.notify(v)
}

// fire dispatches the pending term once the window elapses. A timer that
// lost the race with a later Input sees a stale generation and does nothing.
func (c *Coordinator) fire(gen uint64) {
	c.mu.Lock()
	if c.closed || gen != c.gen || c.state != StatePending {
		c.mu.Unlock()
		return
	}
	c.timer = nil
	c.latest++
	token, term := c.latest, c.term
	c.state = StateInFlight
	v := c.viewLocked()
	c.mu.Unlock()
	c.notify(v)

	go func() {
		results, err := c.search(c.ctx, term)
		c.complete(token, term, results, err)
	}()
}

// complete commits a response only when token is still the latest one.
// Superseded searches are not cancelled; their results are discarded here.
func (c *Coordinator) complete(token uint64, term string, results []models.SearchResult, err error) Outcome {
	c.mu.Lock()
	if c.closed || token != c.latest {
		c.dropped++
		c.mu.Unlock()
		c.logger.Debug("search response superseded", "token", token, "term", term)
		return OutcomeSuperseded
	}
	if err != nil {
		c.logger.Warn("search failed", "token", token, "term", term, "error", err)
		results = []models.SearchResult{}
	}
	c.results = results
	c.resTerm, c.resToken = term, token
	// A keystroke that arrived while this search was in flight keeps its
	// pending window.
	if c.state == StateInFlight {
		c.state = StateCommitted
	}
	v := c.viewLocked()
	c.mu.Unlock()
	c.notify(v)
	return OutcomeCommitted
}

func (c *Coordinator) Focus() { c.update(func() { c.focused = true }) }

func (c *Coordinator) Blur() { c.update(func() { c.focused = false }) }

// OutsideClick dismisses the dropdown until the next keystroke.
func (c *Coordinator) OutsideClick() { c.update(func() { c.dismissed = true }) }

// Select accepts the result with id and dismisses the dropdown. It reports
// false when id is not among the committed results.
func (c *Coordinator) Select(id uuid.UUID) (models.SearchResult, bool) {
	var (
		picked models.SearchResult
		found  bool
	)
	c.update(func() {
		i := slices.IndexFunc(c.results, func(r models.SearchResult) bool { return r.ID == id })
		if i < 0 {
			return
		}
		picked, found = c.results[i], true
		c.dismissed = true
	})
	return picked, found
}

func (c *Coordinator) View() View {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.viewLocked()
}

// Close stops the timer and cancels searches still running.
func (c *Coordinator) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.closed = true
	c.stopTimerLocked()
	c.cancel()
}

func (c *Coordinator) update(fn func()) {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	fn()
	v := c.viewLocked()
	c.mu.Unlock()
	c.notify(v)
}

func (c *Coordinator) stopTimerLocked() {
	if c.timer != nil {
		c.timer.Stop()
		c.timer = nil
	}
}

func (c *Coordinator) viewLocked() View {
	return View{
		Term:         c.term,
		Results:      slices.Clone(c.results),
		ResultsTerm:  c.resTerm,
		ResultsToken: c.resToken,
		Visible:      c.focused && !c.dismissed && textutil.NormalizeTerm(c.term) != "",
		State:        c.state,
		Token:        c.latest,
		Dropped:      c.dropped,
	}
}

func (c *Coordinator) notify(v View) {
	if c.onChange != nil {
		c.onChange(v)
	}
}
