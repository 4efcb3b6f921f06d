package fetch

import (
	"context"
	"sync"

	"github.com/rs/zerolog"
)

// PagedQuery accumulates a collection page by page. Items stay in server
// order across pages and are never deduplicated by id: an item moved by a
// concurrent server-side mutation may appear twice, which is accepted in
// the absence of reconciliation logic.
//
// At most one fetch is in flight per query; a FetchNextPage or Refetch
// issued while another call is pending is dropped without a network call.
type PagedQuery[T any] struct {
	mu    sync.Mutex
	fetch PageFunc[T]

	firstPage string
	nextPage  string
	fetched   bool

	items        []T
	hasNext      bool
	status       Status
	err          error
	inFlight     bool
	fetchingNext bool
	refreshing   bool

	logger zerolog.Logger
}

// PagedQueryConfig holds configuration for a paged query.
type PagedQueryConfig[T any] struct {
	// Fetch loads one page. Required.
	Fetch PageFunc[T]

	// FirstPage is the page parameter of the first page ("0" for offset
	// pagination, "1" for one-based cursors).
	FirstPage string

	Logger zerolog.Logger
}

// NewPagedQuery creates an idle paged query.
func NewPagedQuery[T any](cfg PagedQueryConfig[T]) *PagedQuery[T] {
	return &PagedQuery[T]{
		fetch:     cfg.Fetch,
		firstPage: cfg.FirstPage,
		logger:    cfg.Logger,
	}
}

// QueryState is an observable snapshot of a paged query.
type QueryState[T any] struct {
	Items       []T
	HasNextPage bool
	Status      Status
	Err         error

	// IsLoading is the first load: a fetch in flight with no data yet.
	IsLoading bool

	// IsFetching is any fetch in flight.
	IsFetching bool

	// IsFetchingNextPage and IsRefreshing distinguish an additional-page
	// load from a background first-page refresh. They are never both true:
	// FetchNextPage and Refetch are mutually exclusive on one query.
	IsFetchingNextPage bool
	IsRefreshing       bool
}

// FetchNextPage loads the next page and appends it. It returns immediately
// without a network call when a fetch is already in flight or when the last
// page showed there is no further data. The first call loads the first page.
func (q *PagedQuery[T]) FetchNextPage(ctx context.Context) error {
	q.mu.Lock()
	if q.inFlight {
		q.mu.Unlock()
		return nil
	}
	if q.fetched && !q.hasNext {
		q.mu.Unlock()
		return nil
	}
	param := q.firstPage
	if q.fetched {
		param = q.nextPage
	}
	q.inFlight = true
	q.fetchingNext = q.fetched
	if q.status == StatusIdle || (!q.fetched && q.status == StatusError) {
		q.status = StatusLoading
	}
	q.mu.Unlock()

	page, err := q.fetch(ctx, param)

	q.mu.Lock()
	defer q.mu.Unlock()
	q.inFlight = false
	q.fetchingNext = false
	if err != nil {
		// Terminal for this call; accumulated pages survive and the
		// caller decides whether to try again.
		q.status = StatusError
		q.err = err
		q.logger.Debug().Err(err).Str("page", param).Msg("page fetch failed")
		return err
	}
	q.items = append(q.items, page.Items...)
	q.nextPage = page.NextPage
	q.hasNext = page.NextPage != ""
	q.fetched = true
	q.status = StatusSuccess
	q.err = nil
	return nil
}

// Refetch reloads the first page only, replacing the accumulated items. It
// is dropped when another fetch is in flight.
func (q *PagedQuery[T]) Refetch(ctx context.Context) error {
	q.mu.Lock()
	if q.inFlight {
		q.mu.Unlock()
		return nil
	}
	q.inFlight = true
	q.refreshing = q.fetched
	if !q.fetched {
		q.status = StatusLoading
	}
	q.mu.Unlock()

	page, err := q.fetch(ctx, q.firstPage)

	q.mu.Lock()
	defer q.mu.Unlock()
	q.inFlight = false
	q.refreshing = false
	if err != nil {
		q.status = StatusError
		q.err = err
		return err
	}
	q.items = append([]T(nil), page.Items...)
	q.nextPage = page.NextPage
	q.hasNext = page.NextPage != ""
	q.fetched = true
	q.status = StatusSuccess
	q.err = nil
	return nil
}

// State returns a snapshot of the query. The items slice is a copy.
func (q *PagedQuery[T]) State() QueryState[T] {
	q.mu.Lock()
	defer q.mu.Unlock()
	return QueryState[T]{
		Items:              append([]T(nil), q.items...),
		HasNextPage:        !q.fetched || q.hasNext,
		Status:             q.status,
		IsLoading:          q.status == StatusLoading,
		IsFetching:         q.inFlight,
		IsFetchingNextPage: q.fetchingNext,
		IsRefreshing:       q.refreshing,
		Err:                q.err,
	}
}

// Items returns a copy of the accumulated items.
func (q *PagedQuery[T]) Items() []T {
	q.mu.Lock()
	defer q.mu.Unlock()
	return append([]T(nil), q.items...)
}

// HasNextPage reports whether more pages may exist. Before the first fetch
// it is true: the server has not yet said otherwise.
func (q *PagedQuery[T]) HasNextPage() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return !q.fetched || q.hasNext
}

// Err returns the error of the most recent failed fetch, nil after success.
func (q *PagedQuery[T]) Err() error {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.err
}
