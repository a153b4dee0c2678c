// Package backoff computes the retry-time delay after a failed attempt.
package backoff

import (
	"math"
	"time"
)

// Next returns the delay before a job may be retried again, computed as
// base^attempts seconds. attempts is the attempt count just consumed
// (the executor increments attempts before classifying the outcome, so
// the first retry waits base^1, the second base^2, and so on).
func Next(base int, attempts int) time.Duration {
	seconds := math.Pow(float64(base), float64(attempts))
	return time.Duration(seconds * float64(time.Second))
}
