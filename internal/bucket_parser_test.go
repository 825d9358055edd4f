package internal

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestParseBucketHeader(t *testing.T) {
	tests := []struct {
		in     string
		level  float64
		max    float64
		wantOK bool
	}{
		{"50/60", 50, 60, true},
		{" 1.5 / 180 ", 1.5, 180, true},
		{"0/0", 0, 0, true},
		{"", 0, 0, false},
		{"60", 0, 0, false},
		{"a/60", 0, 0, false},
		{"10/b", 0, 0, false},
		{"-1/60", 0, 0, false},
		{"NaN/60", 0, 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			level, max, ok := ParseBucketHeader(tt.in)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.level, level)
			assert.Equal(t, tt.max, max)
		})
	}
}

func TestSecondsToDuration(t *testing.T) {
	assert.Equal(t, 3*time.Second, SecondsToDuration(3))
	assert.Equal(t, 1500*time.Millisecond, SecondsToDuration(1.5))
	assert.Zero(t, SecondsToDuration(-9))
	assert.Zero(t, SecondsToDuration(math.NaN()))
	assert.Zero(t, SecondsToDuration(math.Inf(1)))
	assert.Zero(t, SecondsToDuration(math.Inf(-1)))
	assert.Equal(t, time.Duration(math.MaxInt64), SecondsToDuration(1e300))
}
