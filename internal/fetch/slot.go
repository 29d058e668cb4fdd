// Package fetch holds the view state that dashboards render: one Slot per
// endpoint, re-fetched on mount and whenever its filters change.
//
// Each Refresh takes a new generation number. Only the response belonging to
// the most recently issued generation may write the slot; a slower response
// from an earlier request is discarded, so the slot always reflects the
// latest request rather than the last one to complete. A local Mutate also
// discards every request still in flight when it ran.
package fetch

import (
	"context"
	"sync"
	"time"

	"github.com/angelmondragon/soundmarket/pkg/logger"
	"github.com/angelmondragon/soundmarket/pkg/metrics"
)

// Loader performs the GET backing a slot.
type Loader[T any] func(ctx context.Context, filters Filters) (T, error)

// State is a consistent copy of a slot.
type State[T any] struct {
	Data      T
	Filters   Filters
	Loading   bool
	Loaded    bool
	Err       error
	UpdatedAt time.Time
}

// Slot owns one piece of fetched view state.
type Slot[T any] struct {
	name    string
	load    Loader[T]
	logg    *logger.Logger
	metrics *metrics.RequestMetrics
	now     func() time.Time

	mu        sync.Mutex
	data      T
	filters   Filters
	issued    uint64
	settled   uint64
	spliced   uint64
	loaded    bool
	err       error
	updatedAt time.Time
}

// Option configures a slot.
type Option func(*options)

type options struct {
	logg    *logger.Logger
	metrics *metrics.RequestMetrics
	filters Filters
}

// WithLogger logs fetch failures and discarded responses.
func WithLogger(logg *logger.Logger) Option {
	return func(o *options) { o.logg = logg }
}

// WithMetrics counts discarded responses.
func WithMetrics(m *metrics.RequestMetrics) Option {
	return func(o *options) { o.metrics = m }
}

// WithFilters sets the initial filters.
func WithFilters(filters Filters) Option {
	return func(o *options) { o.filters = filters.Clone() }
}

// NewSlot creates an unloaded slot named for logs.
func NewSlot[T any](name string, load Loader[T], opts ...Option) *Slot[T] {
	cfg := options{}
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}
	if cfg.logg == nil {
		cfg.logg = logger.Nop()
	}
	return &Slot[T]{
		name:    name,
		load:    load,
		logg:    cfg.logg,
		metrics: cfg.metrics,
		filters: cfg.filters,
		now:     time.Now,
	}
}

// Name returns the slot name.
func (s *Slot[T]) Name() string {
	return s.name
}

// Mount performs the initial fetch.
func (s *Slot[T]) Mount(ctx context.Context) error {
	return s.Refresh(ctx)
}

// SetFilters stores new filters and re-fetches when they changed. Setting
// identical filters on a loaded slot issues no request.
func (s *Slot[T]) SetFilters(ctx context.Context, filters Filters) error {
	s.mu.Lock()
	unchanged := s.loaded && s.filters.Equal(filters)
	if !unchanged {
		s.filters = filters.Clone()
	}
	s.mu.Unlock()
	if unchanged {
		return nil
	}
	return s.Refresh(ctx)
}

// SetFilter changes a single filter value.
func (s *Slot[T]) SetFilter(ctx context.Context, key, value string) error {
	return s.SetFilters(ctx, s.Filters().Set(key, value))
}

// Filters returns the current filters.
func (s *Slot[T]) Filters() Filters {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.filters.Clone()
}

// Refresh fetches with the current filters. On failure the previous data is
// kept and the error is logged and returned; nothing is retried.
func (s *Slot[T]) Refresh(ctx context.Context) error {
	s.mu.Lock()
	s.issued++
	generation := s.issued
	filters := s.filters.Clone()
	s.mu.Unlock()

	value, err := s.load(ctx, filters)

	s.mu.Lock()
	defer s.mu.Unlock()
	if generation != s.issued || generation <= s.spliced {
		if generation == s.issued {
			s.settled = generation
		}
		s.metrics.IncStale(s.name)
		s.logg.Debug(s.logg.WithField(ctx, "slot", s.name), "fetch.stale_discarded")
		return nil
	}
	s.settled = generation
	if err != nil {
		s.err = err
		s.logg.WarnErr(s.logg.WithField(ctx, "slot", s.name), "fetch.failed", err)
		return err
	}
	s.data = value
	s.err = nil
	s.loaded = true
	s.updatedAt = s.now()
	return nil
}

// Data returns the current data.
func (s *Slot[T]) Data() T {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.data
}

// Loading reports whether the latest request is still in flight.
func (s *Slot[T]) Loading() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.settled != s.issued
}

// Err returns the error of the latest completed request.
func (s *Slot[T]) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

// Snapshot returns a consistent copy of the slot.
func (s *Slot[T]) Snapshot() State[T] {
	s.mu.Lock()
	defer s.mu.Unlock()
	return State[T]{
		Data:      s.data,
		Filters:   s.filters.Clone(),
		Loading:   s.settled != s.issued,
		Loaded:    s.loaded,
		Err:       s.err,
		UpdatedAt: s.updatedAt,
	}
}

// Mutate applies a local edit, e.g. splicing in a record a mutation returned.
// Requests issued before the edit can no longer write the slot.
func (s *Slot[T]) Mutate(fn func(T) T) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.spliced = s.issued
	s.data = fn(s.data)
	s.updatedAt = s.now()
}
