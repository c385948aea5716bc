package assistant

import "time"

// Gate returns how long a caller must pause before proceeding so that at
// least minInterval elapses between consecutive question acceptances:
//
//	now + delay - last >= minInterval
//
// Returns zero when the spacing is already satisfied. Never negative.
// Pure function of its inputs; the caller performs the actual pause.
func Gate(now, last time.Time, minInterval time.Duration) time.Duration {
	if minInterval <= 0 {
		return 0
	}
	elapsed := now.Sub(last)
	if elapsed >= minInterval {
		return 0
	}
	return minInterval - elapsed
}
