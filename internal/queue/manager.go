package queue

import (
	"context"
	"errors"
	"sync"

	"go.uber.org/zap"

	"github.com/jzmstrjp/kikitori/internal/quiz"
	"github.com/jzmstrjp/kikitori/internal/source"
)

const (
	// LowWaterMark is the queue length at or below which a background
	// refill is triggered: one item left means only the current item remains.
	LowWaterMark = 1

	// BatchSize is the maximum number of items fetched per refill.
	BatchSize = 10

	// warmDepth is how many queue items from the front get their media
	// assets eagerly downloaded.
	warmDepth = 2
)

// ErrExhausted is returned when an advance is requested but the queue is
// empty. It is a terminal condition for the session, surfaced as a dead-end
// message rather than retried in a loop.
var ErrExhausted = errors.New("problem queue exhausted")

// Source fetches item batches; satisfied by source.Client.
type Source interface {
	FetchBatch(ctx context.Context, filter source.Filter, limit int) ([]quiz.Item, error)
}

// Warmer eagerly resolves media assets; satisfied by media.Cache.
type Warmer interface {
	Warm(urls ...string)
}

// Manager owns the lookahead buffer of not-yet-presented items. The session
// pops from the front; the manager alone appends, refilling asynchronously
// from the source when the buffer runs low so the UI never waits on network
// I/O. At most one refill is in flight at a time.
type Manager struct {
	src    Source
	warmer Warmer
	filter source.Filter
	log    *zap.Logger

	mu       sync.Mutex
	items    []quiz.Item
	fetching bool
}

// NewManager creates a Manager for the given course filter. warmer may be
// nil when media prefetching is not wanted (tests).
func NewManager(src Source, warmer Warmer, filter source.Filter, log *zap.Logger) *Manager {
	if log == nil {
		log = zap.NewNop()
	}
	return &Manager{src: src, warmer: warmer, filter: filter, log: log}
}

// Len returns the current queue length.
func (m *Manager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.items)
}

// Front returns the current item without consuming it.
func (m *Manager) Front() (quiz.Item, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.items) == 0 {
		return quiz.Item{}, false
	}
	return m.items[0], true
}

// Prime synchronously fetches the first batch. Unlike background refills it
// keeps any one-off search term, since the learner asked for it, and it is
// the only fetch the session ever waits on.
func (m *Manager) Prime(ctx context.Context) error {
	items, err := m.src.FetchBatch(ctx, m.filter, BatchSize)
	if err != nil {
		return err
	}
	m.append(items)
	return nil
}

// Advance discards the front item and returns the new front. An empty queue
// — either already empty or empty after the pop — yields ErrExhausted, never
// a panic and never a negative length.
func (m *Manager) Advance(ctx context.Context) (quiz.Item, error) {
	m.mu.Lock()
	if len(m.items) == 0 {
		m.mu.Unlock()
		return quiz.Item{}, ErrExhausted
	}
	m.items = m.items[1:]
	var next quiz.Item
	ok := len(m.items) > 0
	if ok {
		next = m.items[0]
	}
	m.mu.Unlock()

	m.MaybeRefill(ctx)
	if !ok {
		return quiz.Item{}, ErrExhausted
	}
	m.warmFront()
	return next, nil
}

// MaybeRefill starts a background refill when the queue is at or below the
// low-water mark and no refill is already in flight. Fetch failures are
// logged and retried on the next trigger; they never surface to the UI.
func (m *Manager) MaybeRefill(ctx context.Context) {
	m.mu.Lock()
	if m.fetching || len(m.items) > LowWaterMark {
		m.mu.Unlock()
		return
	}
	m.fetching = true
	m.mu.Unlock()

	go func() {
		defer func() {
			m.mu.Lock()
			m.fetching = false
			m.mu.Unlock()
		}()

		items, err := m.src.FetchBatch(ctx, m.filter.ForRefill(), BatchSize)
		if err != nil {
			m.log.Warn("queue refill failed", zap.Error(err))
			return
		}
		m.append(items)
	}()
}

// RefillInFlight reports whether a background fetch is currently running.
func (m *Manager) RefillInFlight() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.fetching
}

func (m *Manager) append(items []quiz.Item) {
	m.mu.Lock()
	m.items = append(m.items, items...)
	m.mu.Unlock()
	m.warmFront()
}

// warmFront eagerly downloads the media of the front item and the item
// immediately behind it, so assets are already local when the learner
// advances.
func (m *Manager) warmFront() {
	if m.warmer == nil {
		return
	}
	m.mu.Lock()
	depth := min(warmDepth, len(m.items))
	var urls []string
	for _, it := range m.items[:depth] {
		urls = append(urls, it.MediaURLs()...)
	}
	m.mu.Unlock()
	if len(urls) > 0 {
		m.warmer.Warm(urls...)
	}
}
