package resilience

import (
	"errors"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/sony/gobreaker/v2"
)

var (
	// ErrCircuitOpen is returned while the circuit breaker is open.
	ErrCircuitOpen = errors.New("circuit breaker is open")
)

// ClientConfig holds configuration for the retrying HTTP client.
type ClientConfig struct {
	// Name identifies this client for breaker naming.
	Name string

	// Timeout per individual HTTP attempt. Default: 10s.
	Timeout time.Duration

	// MaxRetries is the number of retries after the first attempt.
	// Default: 3.
	MaxRetries uint64

	// InitialInterval is the first retry delay. Default: 100ms.
	InitialInterval time.Duration

	// MaxInterval caps the retry delay. Default: 5s.
	MaxInterval time.Duration

	// Breaker overrides the default circuit breaker settings.
	Breaker *BreakerConfig
}

// Client is an HTTP client that retries transient failures (network errors
// and 5xx responses) with exponential backoff behind a circuit breaker.
// Client-category responses (4xx) are never retried: a 404 is the resource
// legitimately not existing, and retrying only delays the error surface.
type Client struct {
	httpClient *http.Client
	breaker    *gobreaker.CircuitBreaker[*http.Response]
	config     ClientConfig
}

// NewClient creates a retrying HTTP client.
func NewClient(cfg ClientConfig) *Client {
	if cfg.Timeout == 0 {
		cfg.Timeout = 10 * time.Second
	}
	if cfg.MaxRetries == 0 {
		cfg.MaxRetries = 3
	}
	if cfg.InitialInterval == 0 {
		cfg.InitialInterval = 100 * time.Millisecond
	}
	if cfg.MaxInterval == 0 {
		cfg.MaxInterval = 5 * time.Second
	}

	breakerCfg := BreakerConfig{Name: cfg.Name}
	if cfg.Breaker != nil {
		breakerCfg = *cfg.Breaker
	}

	return &Client{
		httpClient: &http.Client{Timeout: cfg.Timeout},
		breaker:    newBreaker[*http.Response](breakerCfg),
		config:     cfg,
	}
}

// serverError marks a 5xx response so the breaker counts it as a failure.
type serverError struct {
	status int
}

func (e *serverError) Error() string {
	return "server error: " + http.StatusText(e.status)
}

// Do executes the request. The caller is responsible for closing the
// response body on success.
func (c *Client) Do(req *http.Request) (*http.Response, error) {
	ctx := req.Context()

	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = c.config.InitialInterval
	bo.MaxInterval = c.config.MaxInterval
	bo.MaxElapsedTime = 0
	policy := backoff.WithContext(backoff.WithMaxRetries(bo, c.config.MaxRetries), ctx)

	var last *http.Response

	attempt := func() error {
		resp, err := c.breaker.Execute(func() (*http.Response, error) { //nolint:bodyclose // caller closes
			r, err := c.httpClient.Do(req.Clone(ctx))
			if err != nil {
				return nil, err
			}
			if r.StatusCode >= 500 {
				return r, &serverError{status: r.StatusCode}
			}
			return r, nil
		})
		if err != nil {
			if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
				return backoff.Permanent(ErrCircuitOpen)
			}
			if resp != nil {
				// Keep only the newest response open; earlier ones are
				// superseded and must be released.
				if last != nil {
					last.Body.Close()
				}
				last = resp
			}
			return err
		}
		if last != nil {
			last.Body.Close()
		}
		last = resp
		return nil
	}

	if err := backoff.Retry(attempt, policy); err != nil {
		// Retries exhausted on a 5xx: hand the caller the final response
		// so it can report the real status.
		if last != nil {
			return last, nil
		}
		return nil, err
	}
	return last, nil
}

// State exposes the breaker state for diagnostics.
func (c *Client) State() gobreaker.State {
	return c.breaker.State()
}
