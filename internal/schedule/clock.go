package schedule

import "time"

// Clock supplies the current instant so callers can pin time in tests.
type Clock interface {
	Now() time.Time
}

// SystemClock reads the wall clock.
type SystemClock struct{}

// Now implements Clock.
func (SystemClock) Now() time.Time { return time.Now() }

// FixedClock always returns At.
type FixedClock struct {
	At time.Time
}

// Now implements Clock.
func (c FixedClock) Now() time.Time { return c.At }
