package ytapi

import "time"

// Retry policy for rate-limit class responses (403, 429). The values are
// fixed rather than configurable so worst-case latency stays predictable:
// at most maxRetries extra attempts and 1+2+4 = 7s of sleep per failing
// call.
const (
	// initialBackoff is the delay before the first retry; it doubles on
	// each subsequent retry.
	initialBackoff = 1000 * time.Millisecond

	// maxRetries is the number of retries after the initial attempt
	// (4 attempts total).
	maxRetries = 3
)
