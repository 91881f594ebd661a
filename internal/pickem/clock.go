package pickem

import "time"

// Clock supplies the current time to status evaluation.
type Clock interface {
	Now() time.Time
}

// SystemClock reads the wall clock.
type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now().UTC() }

// FixedClock always returns the same instant. Useful in tests and for
// evaluating a batch of rounds against one clock reading.
type FixedClock struct {
	At time.Time
}

func (c FixedClock) Now() time.Time { return c.At }
