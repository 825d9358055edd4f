// rate_limiter.go
// ----------------
// This file defines BucketState, the leaky-bucket telemetry Lightspeed reports in the
// X-LS-API-Bucket-Level header, and RateLimiter, which keeps the most recently observed
// state across calls so callers can inspect it.
//
// Responsibilities:
// - Parsing the "<level>/<max>" header and deriving the refill rate (max / 60 per second).
// - Computing how long a throttled request must wait before the bucket has room for it.
// - Remembering the last observed state per client. The limiter never delays a request
//   on its own: throttling is handled reactively when the server answers 429.
package lightspeedbridge

import (
	"math"
	"net/http"
	"sync"
	"time"

	"github.com/opengovern/lightspeed-bridge/internal"
)

// BucketLevelHeader carries "<consumed>/<capacity>".
const BucketLevelHeader = "X-LS-API-Bucket-Level"

// BucketState is a snapshot of the server's leaky bucket.
type BucketState struct {
	Level      float64
	Max        float64
	RefillRate float64 // units per second
}

// NewBucketState returns the state used before any telemetry has been seen.
func NewBucketState() BucketState {
	return BucketState{Level: 0, Max: math.Inf(1), RefillRate: math.Inf(1)}
}

// Observed reports whether the state came from a real header.
func (b BucketState) Observed() bool {
	return !math.IsInf(b.Max, 1)
}

// UpdateFromHeader overwrites all three fields from h, or none of them
// when the header is absent or malformed.
func (b *BucketState) UpdateFromHeader(h http.Header) bool {
	raw := h.Get(BucketLevelHeader)
	if raw == "" {
		return false
	}
	level, max, ok := internal.ParseBucketHeader(raw)
	if !ok {
		return false
	}
	*b = BucketState{Level: level, Max: max, RefillRate: max / 60}
	return true
}

// ThrottleWait computes how long a request of the given unit cost has to wait
// for the bucket to drain far enough. Without usable telemetry the wait is zero.
func (b BucketState) ThrottleWait(unitCost float64) time.Duration {
	if math.IsNaN(b.RefillRate) || math.IsInf(b.RefillRate, 0) || b.RefillRate <= 0 {
		return 0
	}
	return internal.SecondsToDuration((unitCost - (b.Max - b.Level)) / b.RefillRate)
}

// RateLimiter stores the latest bucket telemetry seen by a Client.
type RateLimiter struct {
	mu       sync.Mutex
	state    BucketState
	observed time.Time
}

func NewRateLimiter() *RateLimiter {
	return &RateLimiter{state: NewBucketState()}
}

// UpdateRateLimits records state as the most recent observation.
func (r *RateLimiter) UpdateRateLimits(state BucketState) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.state = state
	r.observed = time.Now()
}

// GetRateLimitInfo returns a copy of the last observed state and when it was seen.
// The time is zero if nothing has been observed yet.
func (r *RateLimiter) GetRateLimitInfo() (BucketState, time.Time) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state, r.observed
}
