package core

import "time"

// Clock provides the current time. Services take it as an explicit dependency so
// time-dependent rules (due dates, certificate validity) are testable; a nil
// Clock falls back to the wall clock.
type Clock func() time.Time

func (c Clock) Now() time.Time {
	if c == nil {
		return time.Now()
	}
	return c()
}

// FixedClock returns a Clock stuck at t.
func FixedClock(t time.Time) Clock {
	return func() time.Time { return t }
}
