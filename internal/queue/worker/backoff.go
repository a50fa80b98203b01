package worker

import (
	"math"
	"math/rand"
	"time"
)

// ExponentialBackoff returns the wait before retry number attempt
// (0-based): 1s, 2s, 4s, ... capped at one minute, plus up to 250ms of
// jitter to avoid thundering herds.
func ExponentialBackoff(attempt int) time.Duration {
	const (
		base     = time.Second
		capDelay = time.Minute
	)

	delay := time.Duration(float64(base) * math.Pow(2, float64(attempt)))

	if delay > capDelay {
		delay = capDelay
	}

	delay += time.Duration(rand.Intn(250)) * time.Millisecond

	return delay
}
