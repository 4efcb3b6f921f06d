// Package character is a demo client for the public Rick and Morty API,
// used to exercise cursor pagination against a backend the repo does not
// control.
package character

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/gatelink/gatelink/internal/fetch"
	"github.com/gatelink/gatelink/internal/resilience"
)

const (
	// DefaultBaseURL is the public API base URL.
	DefaultBaseURL = "https://rickandmortyapi.com/api"

	// ProviderName identifies this provider.
	ProviderName = "rickandmorty"
)

// ErrNotFound is returned when the API has no matching character.
var ErrNotFound = errors.New("character not found")

// HTTPDoer abstracts HTTP request execution.
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Character is one entry from the character API, passed through untouched.
type Character struct {
	ID      int64  `json:"id"`
	Name    string `json:"name"`
	Status  string `json:"status"`
	Species string `json:"species"`
	Type    string `json:"type"`
	Gender  string `json:"gender"`
	Image   string `json:"image"`
	Origin  Place  `json:"origin"`
	Last    Place  `json:"location"`
}

// Place is a named location reference.
type Place struct {
	Name string `json:"name"`
	URL  string `json:"url"`
}

// pageInfo is the API's pagination envelope.
type pageInfo struct {
	Count int    `json:"count"`
	Pages int    `json:"pages"`
	Next  string `json:"next"`
	Prev  string `json:"prev"`
}

type listResponse struct {
	Info    pageInfo    `json:"info"`
	Results []Character `json:"results"`
}

// ClientConfig holds configuration for the character client.
type ClientConfig struct {
	// BaseURL defaults to DefaultBaseURL.
	BaseURL string

	// HTTPClient defaults to a retrying client with a circuit breaker.
	HTTPClient HTTPDoer

	// Timeout for individual requests when the default client is built.
	Timeout time.Duration

	Logger zerolog.Logger
}

// Client is a Rick and Morty API client.
type Client struct {
	baseURL    string
	httpClient HTTPDoer
	logger     zerolog.Logger
}

// NewClient creates a character client.
func NewClient(cfg ClientConfig) *Client {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		timeout := cfg.Timeout
		if timeout == 0 {
			timeout = 10 * time.Second
		}
		httpClient = resilience.NewClient(resilience.ClientConfig{
			Name:            ProviderName,
			Timeout:         timeout,
			MaxRetries:      3,
			InitialInterval: 200 * time.Millisecond,
			MaxInterval:     5 * time.Second,
		})
	}

	return &Client{
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		httpClient: httpClient,
		logger:     cfg.Logger,
	}
}

// ListPage fetches one page of characters, optionally filtered by name.
// The returned next-page number is 0 when the listing is exhausted.
func (c *Client) ListPage(ctx context.Context, page int, search string) ([]Character, int, error) {
	u := fmt.Sprintf("%s/character?page=%d", c.baseURL, page)
	if search != "" {
		u += "&name=" + url.QueryEscape(search)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, http.NoBody)
	if err != nil {
		return nil, 0, fmt.Errorf("create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, 0, fmt.Errorf("fetch characters: %w", err)
	}
	defer resp.Body.Close()

	// The API answers an empty filter result with a 404.
	if resp.StatusCode == http.StatusNotFound {
		return nil, 0, nil
	}
	if resp.StatusCode != http.StatusOK {
		return nil, 0, fmt.Errorf("unexpected status %d from character endpoint", resp.StatusCode)
	}

	var result listResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, 0, fmt.Errorf("decode character response: %w", err)
	}

	return result.Results, nextPageNumber(result.Info.Next), nil
}

// Get fetches one character by id.
func (c *Client) Get(ctx context.Context, id int64) (*Character, error) {
	u := fmt.Sprintf("%s/character/%d", c.baseURL, id)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch character %d: %w", id, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, fmt.Errorf("character %d: %w", id, ErrNotFound)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %d from character endpoint", resp.StatusCode)
	}

	var character Character
	if err := json.NewDecoder(resp.Body).Decode(&character); err != nil {
		return nil, fmt.Errorf("decode character response: %w", err)
	}
	return &character, nil
}

// Queries builds the paged query cache over the character listing, keyed by
// name filter. Page parameters are the API's one-based page numbers; the
// next one comes out of the info.next cursor URL.
func (c *Client) Queries() *fetch.QuerySet[Character] {
	return fetch.NewQuerySet(fetch.QuerySetConfig[Character]{
		Resource:  "characters",
		FirstPage: "1",
		Fetch: func(ctx context.Context, search, pageParam string) (fetch.Page[Character], error) {
			page := 1
			if _, err := fmt.Sscanf(pageParam, "%d", &page); err != nil {
				return fetch.Page[Character]{}, fmt.Errorf("bad page param %q: %w", pageParam, err)
			}
			characters, next, err := c.ListPage(ctx, page, search)
			if err != nil {
				return fetch.Page[Character]{}, err
			}
			out := fetch.Page[Character]{Items: characters}
			if next > 0 {
				out.NextPage = fmt.Sprintf("%d", next)
			}
			return out, nil
		},
		Logger: c.logger,
	})
}

// nextPageNumber pulls the page number out of an info.next URL. A missing
// or unparsable cursor means the listing is exhausted.
func nextPageNumber(next string) int {
	if next == "" {
		return 0
	}
	u, err := url.Parse(next)
	if err != nil {
		return 0
	}
	page := 0
	if _, err := fmt.Sscanf(u.Query().Get("page"), "%d", &page); err != nil {
		return 0
	}
	return page
}
