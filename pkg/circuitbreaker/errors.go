package circuitbreaker

import "errors"

var (
	// ErrCircuitOpen is returned while the breaker rejects calls so the
	// protected dependency can recover.
	ErrCircuitOpen = errors.New("circuit breaker is open")

	// ErrTooManyRequests is returned while half-open once every probe slot is taken.
	ErrTooManyRequests = errors.New("too many requests in half-open state")
)

// IsRejection reports whether err was produced by the breaker itself rather
// than by the protected call.
func IsRejection(err error) bool {
	return errors.Is(err, ErrCircuitOpen) || errors.Is(err, ErrTooManyRequests)
}
