package chronos

import (
	"time"
)

// Dur parses a duration literal and panics if it is invalid. Meant for
// constants and tests.
func Dur(s string) time.Duration {
	t, err := time.ParseDuration(s)
	if err != nil {
		panic(err)
	}
	return t
}

// Millis returns d as whole milliseconds, the unit procvisor logs durations in.
func Millis(d time.Duration) int64 {
	return d.Milliseconds()
}

// Since is [time.Since] in milliseconds.
func Since(t time.Time) int64 {
	return Millis(time.Since(t))
}
