package media

import (
	"testing"
	"time"
)

func TestNextRetryDelay_WithinJitterBounds(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		attempt int
		base    time.Duration
	}{
		{"first retry", 0, 2 * time.Second},
		{"second retry", 1, 10 * time.Second},
		{"third retry", 2, 30 * time.Second},
		{"beyond table clamps to last", 10, 30 * time.Second},
		{"negative clamps to first", -1, 2 * time.Second},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			for i := 0; i < 50; i++ {
				delay := NextRetryDelay(tt.attempt)

				min := time.Duration(float64(tt.base) * (1 - JitterFactor))
				max := time.Duration(float64(tt.base) * (1 + JitterFactor))
				if delay < min || delay > max {
					t.Fatalf("delay %v outside [%v, %v]", delay, min, max)
				}
			}
		})
	}
}

func TestIsExhausted(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		attempts int
		max      int
		want     bool
	}{
		{"no attempts", 0, 3, false},
		{"under max", 2, 3, false},
		{"at max", 3, 3, true},
		{"over max", 4, 3, true},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			if got := IsExhausted(tt.attempts, tt.max); got != tt.want {
				t.Errorf("IsExhausted(%d, %d) = %v, want %v", tt.attempts, tt.max, got, tt.want)
			}
		})
	}
}
