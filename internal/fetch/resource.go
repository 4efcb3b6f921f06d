package fetch

import (
	"context"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/rs/zerolog"
)

// Resource fetches single entities by id, caching results per id. Failed
// fetches retry with exponential backoff up to a small bound, except when
// the failure says the entity does not exist: not-found is terminal after
// exactly one call, since retrying a legitimate absence only wastes a round
// trip and delays the error surface.
type Resource[T any] struct {
	mu      sync.Mutex
	entries map[int64]*resourceEntry[T]

	fetch      func(ctx context.Context, id int64) (T, error)
	isNotFound func(error) bool
	maxRetries uint64
	interval   time.Duration
	logger     zerolog.Logger
}

type resourceEntry[T any] struct {
	value    T
	status   Status
	err      error
	inFlight bool
	done     chan struct{}
}

// ResourceConfig holds configuration for a by-id resource.
type ResourceConfig[T any] struct {
	// Fetch loads the entity. Required.
	Fetch func(ctx context.Context, id int64) (T, error)

	// IsNotFound classifies an error as "the entity does not exist".
	// Not-found errors are never retried. Optional.
	IsNotFound func(error) bool

	// MaxRetries after the initial attempt. Default: 3.
	MaxRetries uint64

	// RetryInterval is the initial backoff delay. Default: 200ms.
	RetryInterval time.Duration

	Logger zerolog.Logger
}

// NewResource creates an empty by-id resource cache.
func NewResource[T any](cfg ResourceConfig[T]) *Resource[T] {
	maxRetries := cfg.MaxRetries
	if maxRetries == 0 {
		maxRetries = 3
	}
	interval := cfg.RetryInterval
	if interval == 0 {
		interval = 200 * time.Millisecond
	}
	isNotFound := cfg.IsNotFound
	if isNotFound == nil {
		isNotFound = func(error) bool { return false }
	}
	return &Resource[T]{
		entries:    make(map[int64]*resourceEntry[T]),
		fetch:      cfg.Fetch,
		isNotFound: isNotFound,
		maxRetries: maxRetries,
		interval:   interval,
		logger:     cfg.Logger,
	}
}

// ResourceState is an observable snapshot of one id's entry.
type ResourceState[T any] struct {
	Value     T
	Status    Status
	IsLoading bool
	Err       error
}

// Get returns the entity for id, fetching it on first use. A non-positive
// id short-circuits to an idle state without a network call. Cached
// successes are returned without refetching; use Refetch to force a reload.
func (r *Resource[T]) Get(ctx context.Context, id int64) (T, error) {
	if id <= 0 {
		var zero T
		return zero, nil
	}

	r.mu.Lock()
	entry, ok := r.entries[id]
	if ok && entry.status == StatusSuccess {
		value := entry.value
		r.mu.Unlock()
		return value, nil
	}
	r.mu.Unlock()

	return r.load(ctx, id)
}

// Refetch reloads the entity regardless of the cached state.
func (r *Resource[T]) Refetch(ctx context.Context, id int64) (T, error) {
	if id <= 0 {
		var zero T
		return zero, nil
	}
	return r.load(ctx, id)
}

// State returns a snapshot of the entry for id. An id that was never
// fetched (or is non-positive) reports StatusIdle.
func (r *Resource[T]) State(id int64) ResourceState[T] {
	r.mu.Lock()
	defer r.mu.Unlock()
	entry, ok := r.entries[id]
	if !ok {
		return ResourceState[T]{Status: StatusIdle}
	}
	return ResourceState[T]{
		Value:     entry.value,
		Status:    entry.status,
		IsLoading: entry.inFlight,
		Err:       entry.err,
	}
}

// load runs the fetch with the retry policy, deduplicating concurrent loads
// of the same id: a load issued while one is in flight waits for the
// pending result instead of issuing its own calls.
func (r *Resource[T]) load(ctx context.Context, id int64) (T, error) {
	r.mu.Lock()
	entry, ok := r.entries[id]
	if !ok {
		entry = &resourceEntry[T]{status: StatusLoading}
		r.entries[id] = entry
	}
	if entry.inFlight {
		done := entry.done
		r.mu.Unlock()
		return r.wait(ctx, id, done)
	}
	entry.inFlight = true
	entry.done = make(chan struct{})
	if entry.status != StatusSuccess {
		entry.status = StatusLoading
	}
	r.mu.Unlock()

	var value T
	attempt := func() error {
		v, err := r.fetch(ctx, id)
		if err != nil {
			if r.isNotFound(err) {
				return backoff.Permanent(err)
			}
			return err
		}
		value = v
		return nil
	}

	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = r.interval
	bo.MaxElapsedTime = 0
	policy := backoff.WithContext(backoff.WithMaxRetries(bo, r.maxRetries), ctx)
	err := backoff.Retry(attempt, policy)

	r.mu.Lock()
	defer r.mu.Unlock()
	entry.inFlight = false
	close(entry.done)
	if err != nil {
		entry.status = StatusError
		entry.err = err
		r.logger.Debug().Err(err).Int64("id", id).Msg("resource fetch failed")
		var zero T
		return zero, err
	}
	entry.value = value
	entry.status = StatusSuccess
	entry.err = nil
	return value, nil
}

// wait blocks until a pending load of id settles, then reports its result.
func (r *Resource[T]) wait(ctx context.Context, id int64, done <-chan struct{}) (T, error) {
	select {
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	case <-done:
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	entry := r.entries[id]
	if entry == nil || entry.status == StatusError {
		var zero T
		var err error
		if entry != nil {
			err = entry.err
		}
		return zero, err
	}
	return entry.value, nil
}
