package ticker

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/net/html"
)

// State is the engine's view of the ticker in the document
type State int

const (
	StateSearching State = iota
	StateInserted
	StateObserving
)

func (s State) String() string {
	switch s {
	case StateInserted:
		return "inserted"
	case StateObserving:
		return "observing"
	default:
		return "searching"
	}
}

// Options tune anchor polling
type Options struct {
	PollInterval time.Duration
	MaxAttempts  int
}

// DefaultOptions polls every 500ms for about ten seconds
func DefaultOptions() Options {
	return Options{
		PollInterval: 500 * time.Millisecond,
		MaxAttempts:  20,
	}
}

// Engine keeps one ticker in a document: it inserts after an anchor when one
// appears, falls back once polling is exhausted, and re-inserts whenever a
// change to the document leaves the ticker missing.
type Engine struct {
	doc   *Document
	items []Item
	opts  Options
	log   zerolog.Logger

	mu    sync.Mutex
	state State
}

// NewEngine creates an Engine in the Searching state; zero options take the defaults
func NewEngine(doc *Document, items []Item, opts Options, log zerolog.Logger) *Engine {
	defaults := DefaultOptions()
	if opts.PollInterval <= 0 {
		opts.PollInterval = defaults.PollInterval
	}
	if opts.MaxAttempts <= 0 {
		opts.MaxAttempts = defaults.MaxAttempts
	}
	return &Engine{
		doc:   doc,
		items: items,
		opts:  opts,
		log:   log.With().Str("component", "ticker_engine").Logger(),
	}
}

// State returns the current engine state
func (e *Engine) State() State {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state
}

func (e *Engine) setState(s State) {
	e.mu.Lock()
	prev := e.state
	e.state = s
	e.mu.Unlock()

	if prev != s {
		e.log.Debug().Str("from", prev.String()).Str("to", s.String()).Msg("Ticker state changed")
	}
}

// Insert makes one insertion attempt and reports where the ticker ended up
func (e *Engine) Insert(allowFallback bool) Placement {
	var placed Placement
	e.doc.Update(func(root *html.Node) bool {
		if hasTicker(root) {
			placed = PlacementPresent
			return false
		}
		placed = InsertOnce(root, Build(e.items), allowFallback)
		return placed == PlacementAnchor || placed == PlacementFallback
	})

	if placed == PlacementAnchor || placed == PlacementFallback {
		e.setState(StateInserted)
		e.log.Info().
			Str("placement", placed.String()).
			Int("items", len(e.items)).
			Dur("duration", Duration(e.items)).
			Msg("Ticker inserted")
	}
	return placed
}

// Run drives the engine until ctx is cancelled. An empty item list disables
// the ticker and Run returns immediately.
func (e *Engine) Run(ctx context.Context) error {
	if len(e.items) == 0 {
		e.log.Debug().Msg("No approved items, ticker disabled")
		return nil
	}

	changes, unwatch := e.doc.Watch()
	defer unwatch()

	var (
		poller   *Poller
		pollDone <-chan struct{}
	)
	stopPolling := func() {
		if poller != nil {
			poller.Stop()
			poller = nil
			pollDone = nil
		}
	}
	defer stopPolling()

	search := func() {
		e.setState(StateSearching)
		if e.Insert(false).Found() {
			e.setState(StateObserving)
			return
		}
		poller = NewPoller(e.opts.PollInterval, e.opts.MaxAttempts,
			func() bool { return e.Insert(false).Found() },
			func() {
				if !e.Insert(true).Found() {
					e.log.Warn().Msg("No anchor, root container or body; ticker not shown")
				}
			},
		)
		pollDone = poller.Done()
		poller.Start()
	}

	search()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case <-pollDone:
			stopPolling()
			e.setState(StateObserving)

		case <-changes:
			if poller != nil {
				// a host change may have rendered the anchor before the next tick
				if e.Insert(false).Found() {
					stopPolling()
					e.setState(StateObserving)
				}
				continue
			}
			if !e.doc.HasTicker() {
				e.log.Debug().Msg("Ticker removed by host page, searching again")
				search()
			}
		}
	}
}
