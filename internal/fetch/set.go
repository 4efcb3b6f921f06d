package fetch

import (
	"context"
	"sync"

	"github.com/rs/zerolog"
)

// QuerySet is a cache of paged queries partitioned by search filter.
// Switching filters starts a fresh accumulation under the new key; the old
// key's entry stays cached and untouched, so a response that lands after
// its filter went stale is written to its own entry and never bleeds into
// another key's item sequence.
type QuerySet[T any] struct {
	mu      sync.Mutex
	queries map[string]*PagedQuery[T]

	resource  string
	firstPage string
	fetch     func(ctx context.Context, search, pageParam string) (Page[T], error)
	logger    zerolog.Logger
}

// QuerySetConfig holds configuration for a query set.
type QuerySetConfig[T any] struct {
	// Resource names the collection for logging (e.g. "devices").
	Resource string

	// FirstPage is the page parameter of the first page.
	FirstPage string

	// Fetch loads one page of the collection for a search filter. Required.
	Fetch func(ctx context.Context, search, pageParam string) (Page[T], error)

	Logger zerolog.Logger
}

// NewQuerySet creates an empty query set.
func NewQuerySet[T any](cfg QuerySetConfig[T]) *QuerySet[T] {
	return &QuerySet[T]{
		queries:   make(map[string]*PagedQuery[T]),
		resource:  cfg.Resource,
		firstPage: cfg.FirstPage,
		fetch:     cfg.Fetch,
		logger:    cfg.Logger,
	}
}

// Query returns the paged query for the given search filter, creating an
// idle one on first use of the filter.
func (s *QuerySet[T]) Query(search string) *PagedQuery[T] {
	s.mu.Lock()
	defer s.mu.Unlock()
	q, ok := s.queries[search]
	if !ok {
		q = NewPagedQuery(PagedQueryConfig[T]{
			Fetch: func(ctx context.Context, pageParam string) (Page[T], error) {
				return s.fetch(ctx, search, pageParam)
			},
			FirstPage: s.firstPage,
			Logger:    s.logger.With().Str("resource", s.resource).Str("search", search).Logger(),
		})
		s.queries[search] = q
	}
	return q
}

// Reset drops the cached query for a filter; the next Query call for that
// filter starts from an empty accumulation.
func (s *QuerySet[T]) Reset(search string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.queries, search)
}
