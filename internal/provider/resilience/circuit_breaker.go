// Package resilience wraps upstream provider calls with a circuit breaker,
// per-call timeouts and bounded retries, and tracks provider health.
package resilience

import (
	"time"

	"github.com/sony/gobreaker/v2"
)

// StateChangeFunc observes circuit breaker transitions.
type StateChangeFunc func(name string, from, to gobreaker.State)

// CircuitBreakerConfig holds configuration for the circuit breaker.
type CircuitBreakerConfig struct {
	// Name identifies the breaker in logs and on /ops/status.
	Name string

	// MaxRequests is the number of trial requests allowed while half-open.
	MaxRequests uint32

	// Interval clears the counts periodically while closed. Zero never clears.
	Interval time.Duration

	// Timeout is how long the breaker stays open before going half-open.
	Timeout time.Duration

	// ReadyToTrip decides when a closed breaker opens. Nil uses DefaultReadyToTrip.
	ReadyToTrip func(counts gobreaker.Counts) bool

	// OnStateChange is called on every transition, after the client's own
	// logging and registry hooks.
	OnStateChange StateChangeFunc
}

// DefaultCircuitBreakerConfig opens after a 50% failure rate over at least
// five calls and probes again after a minute.
func DefaultCircuitBreakerConfig(name string) CircuitBreakerConfig {
	return CircuitBreakerConfig{
		Name:        name,
		MaxRequests: 1,
		Timeout:     time.Minute,
		ReadyToTrip: DefaultReadyToTrip,
	}
}

// DefaultReadyToTrip trips once at least 5 requests have been made and half
// or more of them failed.
func DefaultReadyToTrip(counts gobreaker.Counts) bool {
	if counts.Requests < 5 {
		return false
	}
	return float64(counts.TotalFailures)/float64(counts.Requests) >= 0.5
}

// NewCircuitBreaker creates a circuit breaker that reports transitions to
// each hook in order, then to cfg.OnStateChange.
func NewCircuitBreaker[T any](cfg CircuitBreakerConfig, hooks ...StateChangeFunc) *gobreaker.CircuitBreaker[T] {
	readyToTrip := cfg.ReadyToTrip
	if readyToTrip == nil {
		readyToTrip = DefaultReadyToTrip
	}

	if cfg.OnStateChange != nil {
		hooks = append(hooks, cfg.OnStateChange)
	}

	settings := gobreaker.Settings{
		Name:        cfg.Name,
		MaxRequests: cfg.MaxRequests,
		Interval:    cfg.Interval,
		Timeout:     cfg.Timeout,
		ReadyToTrip: readyToTrip,
	}
	if len(hooks) > 0 {
		settings.OnStateChange = func(name string, from, to gobreaker.State) {
			for _, hook := range hooks {
				hook(name, from, to)
			}
		}
	}

	return gobreaker.NewCircuitBreaker[T](settings)
}
