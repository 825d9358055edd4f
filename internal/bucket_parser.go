// internal/bucket_parser.go
// --------------------------
// This internal package provides helpers for reading the leaky-bucket telemetry
// Lightspeed attaches to every response and for turning fractional seconds into
// sleep durations.
//
// Functions:
// - ParseBucketHeader: Convert "<level>/<max>" strings like "50/60" into floats.
// - SecondsToDuration: Convert a computed wait in seconds into a time.Duration.
package internal

import (
	"math"
	"strconv"
	"strings"
	"time"
)

// ParseBucketHeader splits "<level>/<max>" into its two values.
// ok is false for anything else, including negative or NaN values.
func ParseBucketHeader(s string) (level, max float64, ok bool) {
	lv, mx, found := strings.Cut(strings.TrimSpace(s), "/")
	if !found {
		return 0, 0, false
	}

	level, err := strconv.ParseFloat(strings.TrimSpace(lv), 64)
	if err != nil || math.IsNaN(level) || level < 0 {
		return 0, 0, false
	}
	max, err = strconv.ParseFloat(strings.TrimSpace(mx), 64)
	if err != nil || math.IsNaN(max) || max < 0 {
		return 0, 0, false
	}
	return level, max, true
}

// SecondsToDuration converts seconds into a duration, treating negative,
// NaN and infinite inputs as zero.
func SecondsToDuration(seconds float64) time.Duration {
	if math.IsNaN(seconds) || math.IsInf(seconds, 0) || seconds <= 0 {
		return 0
	}
	d := seconds * float64(time.Second)
	if d >= math.MaxInt64 {
		return time.Duration(math.MaxInt64)
	}
	return time.Duration(d)
}
