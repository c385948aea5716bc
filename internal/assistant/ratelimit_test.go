package assistant

import (
	"testing"
	"time"
)

func TestGate(t *testing.T) {
	t.Parallel()

	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	const interval = 3 * time.Second

	tests := []struct {
		name    string
		elapsed time.Duration
		want    time.Duration
	}{
		{name: "exactly at interval", elapsed: 3 * time.Second, want: 0},
		{name: "well past interval", elapsed: time.Hour, want: 0},
		{name: "one second elapsed", elapsed: time.Second, want: 2 * time.Second},
		{name: "immediately after", elapsed: 0, want: 3 * time.Second},
		{name: "just under interval", elapsed: 3*time.Second - time.Millisecond, want: time.Millisecond},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got := Gate(base.Add(tt.elapsed), base, interval)
			if got != tt.want {
				t.Errorf("Gate(+%v) = %v, want %v", tt.elapsed, got, tt.want)
			}
			if got < 0 {
				t.Errorf("Gate(+%v) = %v, must never be negative", tt.elapsed, got)
			}
		})
	}
}

func TestGateZeroInterval(t *testing.T) {
	t.Parallel()

	now := time.Now()
	if got := Gate(now, now, 0); got != 0 {
		t.Errorf("Gate with zero interval = %v, want 0", got)
	}
	if got := Gate(now, now, -time.Second); got != 0 {
		t.Errorf("Gate with negative interval = %v, want 0", got)
	}
}

func TestGateZeroLastTime(t *testing.T) {
	t.Parallel()

	// A zero last-question time means no question was ever accepted; the
	// first question must pass immediately.
	if got := Gate(time.Now(), time.Time{}, 3*time.Second); got != 0 {
		t.Errorf("Gate with zero last = %v, want 0", got)
	}
}
