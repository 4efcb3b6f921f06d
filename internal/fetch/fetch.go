// Package fetch provides the client-side data loading primitives: an
// incrementally loadable paged query keyed by search filter, and a cached
// by-id resource fetch with a bounded retry policy. Both turn network
// failures into observable state instead of propagating them past their
// boundary.
package fetch

import "context"

// Status is the lifecycle state of a query or resource entry.
type Status int

const (
	// StatusIdle means no fetch has been attempted.
	StatusIdle Status = iota

	// StatusLoading means the first fetch is in flight and no data exists yet.
	StatusLoading

	// StatusSuccess means at least one fetch completed and data is available.
	StatusSuccess

	// StatusError means the most recent fetch failed.
	StatusError
)

// String implements fmt.Stringer for logging.
func (s Status) String() string {
	switch s {
	case StatusIdle:
		return "idle"
	case StatusLoading:
		return "loading"
	case StatusSuccess:
		return "success"
	case StatusError:
		return "error"
	default:
		return "unknown"
	}
}

// Page is one fixed-size slice of a paginated collection. NextPage is the
// opaque parameter for the following page; empty means the server has no
// further data.
type Page[T any] struct {
	Items    []T
	NextPage string
}

// PageFunc fetches one page identified by an opaque page parameter. Offset
// based endpoints encode the offset in the parameter, cursor based ones the
// cursor.
type PageFunc[T any] func(ctx context.Context, pageParam string) (Page[T], error)
