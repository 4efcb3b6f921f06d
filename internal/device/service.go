package device

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strconv"

	"github.com/rs/zerolog"

	"github.com/gatelink/gatelink/internal/backend"
	"github.com/gatelink/gatelink/internal/fetch"
)

// DefaultPageSize is the page size used when none is configured.
const DefaultPageSize = 20

// listResponse is the backend envelope for GET /devices.
type listResponse struct {
	Status  int    `json:"status"`
	Message string `json:"message"`
	Data    struct {
		Results []Device `json:"results"`
		Count   int      `json:"count"`
		Limit   int      `json:"limit"`
		Offset  int      `json:"offset"`
	} `json:"data"`
}

// getResponse is the backend envelope for GET /devices/{id}.
type getResponse struct {
	Status  int    `json:"status"`
	Message string `json:"message"`
	Data    struct {
		Result Device `json:"result"`
	} `json:"data"`
}

// Service provides device operations against the backend.
type Service struct {
	api      *backend.Client
	pageSize int
	logger   zerolog.Logger
}

// ServiceConfig holds configuration for the device service.
type ServiceConfig struct {
	// API is the backend client. Required.
	API *backend.Client

	// PageSize for paged listing. Default: DefaultPageSize.
	PageSize int

	Logger zerolog.Logger
}

// NewService creates a device service.
func NewService(cfg ServiceConfig) *Service {
	pageSize := cfg.PageSize
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	return &Service{
		api:      cfg.API,
		pageSize: pageSize,
		logger:   cfg.Logger,
	}
}

// ListPage fetches one page of devices at the given offset, optionally
// filtered by a search term. Results keep the server's order.
func (s *Service) ListPage(ctx context.Context, offset, limit int, search string) (*ListPage, error) {
	query := url.Values{}
	query.Set("offset", strconv.Itoa(offset))
	query.Set("limit", strconv.Itoa(limit))
	query.Set("search", search)

	var resp listResponse
	if err := s.api.Get(ctx, "/devices", query, &resp); err != nil {
		return nil, fmt.Errorf("list devices: %w", err)
	}

	return &ListPage{
		Devices: resp.Data.Results,
		Count:   resp.Data.Count,
		Limit:   resp.Data.Limit,
		Offset:  resp.Data.Offset,
	}, nil
}

// Get fetches one device by id. A backend 404 maps to ErrNotFound.
func (s *Service) Get(ctx context.Context, id int64) (*Device, error) {
	var resp getResponse
	err := s.api.Get(ctx, fmt.Sprintf("/devices/%d", id), nil, &resp)
	if err != nil {
		if backend.IsNotFound(err) {
			return nil, fmt.Errorf("device %d: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("get device %d: %w", id, err)
	}
	return &resp.Data.Result, nil
}

// Queries builds the paged query cache over the device collection, keyed by
// search filter. Page parameters carry the offset; a page shorter than the
// page size means the collection is exhausted.
func (s *Service) Queries() *fetch.QuerySet[Device] {
	return fetch.NewQuerySet(fetch.QuerySetConfig[Device]{
		Resource:  "devices",
		FirstPage: "0",
		Fetch: func(ctx context.Context, search, pageParam string) (fetch.Page[Device], error) {
			offset, err := strconv.Atoi(pageParam)
			if err != nil {
				return fetch.Page[Device]{}, fmt.Errorf("bad page param %q: %w", pageParam, err)
			}
			page, err := s.ListPage(ctx, offset, s.pageSize, search)
			if err != nil {
				return fetch.Page[Device]{}, err
			}
			out := fetch.Page[Device]{Items: page.Devices}
			if len(page.Devices) == s.pageSize {
				out.NextPage = strconv.Itoa(offset + s.pageSize)
			}
			return out, nil
		},
		Logger: s.logger,
	})
}

// Resource builds the by-id device cache with the bounded retry policy;
// not-found is terminal and never retried.
func (s *Service) Resource() *fetch.Resource[*Device] {
	return fetch.NewResource(fetch.ResourceConfig[*Device]{
		Fetch: func(ctx context.Context, id int64) (*Device, error) {
			return s.Get(ctx, id)
		},
		IsNotFound: func(err error) bool {
			return errors.Is(err, ErrNotFound)
		},
		Logger: s.logger,
	})
}
