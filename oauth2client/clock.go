package oauth2client

import "time"

// Clock supplies the current time for expiry decisions.
type Clock interface {
	Now() time.Time
}

// ClockFunc adapts a plain function to the Clock interface.
type ClockFunc func() time.Time

// Now calls f.
func (f ClockFunc) Now() time.Time {
	return f()
}

// SystemClock reads the wall clock via time.Now.
var SystemClock Clock = ClockFunc(time.Now)
