package circuitbreaker

import "time"

// Config holds the configuration for a circuit breaker.
type Config struct {
	// Name identifies the circuit breaker in logs and metrics.
	Name string

	// Enabled determines whether the circuit breaker is active.
	// When false, New returns nil and Execute calls straight through.
	Enabled bool

	// MaxRequests caps the probe requests let through while half-open.
	// Zero means a single probe.
	MaxRequests uint

	// Interval is the cyclic period after which the closed state clears its
	// counts. Zero keeps the counts until the state changes.
	Interval time.Duration

	// Timeout is how long the breaker stays open before going half-open.
	// Zero falls back to gobreaker's 60 seconds.
	Timeout time.Duration

	// FailureThreshold is the number of consecutive failures that trips the breaker.
	FailureThreshold uint

	// IsSuccessful classifies an error returned by the protected call. Errors
	// for which it returns true do not count towards FailureThreshold.
	// A nil classifier treats every non-nil error as a failure.
	IsSuccessful func(err error) bool

	// OnStateChange is notified whenever the breaker moves between states.
	OnStateChange func(name string, from, to string)
}
