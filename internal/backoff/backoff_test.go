package backoff_test

import (
	"testing"
	"time"

	"github.com/queuectl/queuectl/internal/backoff"
)

func TestNextIsExponentialInAttempts(t *testing.T) {
	cases := []struct {
		base, attempts int
		want            time.Duration
	}{
		{2, 1, 2 * time.Second},
		{2, 2, 4 * time.Second},
		{2, 3, 8 * time.Second},
		{3, 2, 9 * time.Second},
	}
	for _, c := range cases {
		got := backoff.Next(c.base, c.attempts)
		if got != c.want {
			t.Fatalf("Next(%d, %d) = %v, want %v", c.base, c.attempts, got, c.want)
		}
	}
}

func TestNextIsMonotonicallyNonDecreasing(t *testing.T) {
	prev := time.Duration(0)
	for attempts := 1; attempts <= 5; attempts++ {
		got := backoff.Next(2, attempts)
		if got < prev {
			t.Fatalf("backoff decreased at attempt %d: %v < %v", attempts, got, prev)
		}
		prev = got
	}
}
