package jobs

import (
	"math"
	"math/rand/v2"
	"time"
)

// ExponentialBackoff doubles base for each attempt after the first and
// caps the result at max. A jitter of up to a quarter of base is added so
// retries from several workers spread out.
func ExponentialBackoff(base, max time.Duration, attempt int) time.Duration {
	if attempt < 1 {
		attempt = 1
	}

	delay := time.Duration(float64(base) * math.Pow(2, float64(attempt-1)))
	if delay > max || delay <= 0 {
		delay = max
	}

	return delay + rand.N(base/4+1)
}
