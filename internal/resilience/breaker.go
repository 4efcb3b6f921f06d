// Package resilience wraps outbound HTTP calls with bounded retries and a
// circuit breaker. The backend adapter stays policy-free; call sites that
// want retries opt in through this package.
package resilience

import (
	"time"

	"github.com/sony/gobreaker/v2"
)

// BreakerConfig configures the circuit breaker guarding a remote host.
type BreakerConfig struct {
	// Name identifies the breaker in logs.
	Name string

	// HalfOpenRequests is the number of probe requests allowed in
	// half-open state. Default: 1.
	HalfOpenRequests uint32

	// OpenFor is how long the breaker stays open before probing again.
	// Default: 60s.
	OpenFor time.Duration

	// ReadyToTrip decides when to open the breaker. Defaults to tripping
	// at a 50% failure rate once 5 requests have been seen.
	ReadyToTrip func(counts gobreaker.Counts) bool
}

func defaultReadyToTrip(counts gobreaker.Counts) bool {
	ratio := float64(counts.TotalFailures) / float64(counts.Requests)
	return counts.Requests >= 5 && ratio >= 0.5
}

func newBreaker[T any](cfg BreakerConfig) *gobreaker.CircuitBreaker[T] {
	if cfg.HalfOpenRequests == 0 {
		cfg.HalfOpenRequests = 1
	}
	if cfg.OpenFor == 0 {
		cfg.OpenFor = 60 * time.Second
	}
	if cfg.ReadyToTrip == nil {
		cfg.ReadyToTrip = defaultReadyToTrip
	}
	return gobreaker.NewCircuitBreaker[T](gobreaker.Settings{
		Name:        cfg.Name,
		MaxRequests: cfg.HalfOpenRequests,
		Timeout:     cfg.OpenFor,
		ReadyToTrip: cfg.ReadyToTrip,
	})
}
