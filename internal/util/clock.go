package util

import "time"

// Clock returns the current time.
type Clock func() time.Time

// SystemClock reads the wall clock.
func SystemClock() Clock {
	return time.Now
}
