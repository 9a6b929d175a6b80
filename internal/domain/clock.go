package domain

import (
	"time"

	"github.com/jonboulle/clockwork"
)

// clock is a package-level time source so tests can freeze time via SetClock.
// Production code uses the real clock; tests inject a fake for deterministic output.
var clock = clockwork.NewRealClock()

// location is the zone used for hour-of-day, month keys and CSV rendering.
var location = time.Local

// SetClock swaps the time source used for processing timestamps. Pass nil to
// reset to real time.
func SetClock(c clockwork.Clock) {
	if c == nil {
		clock = clockwork.NewRealClock()
		return
	}
	clock = c
}

// SetLocation sets the zone used to bucket and render event times. Pass nil to
// reset to the host's local zone.
func SetLocation(loc *time.Location) {
	if loc == nil {
		location = time.Local
		return
	}
	location = loc
}

// Now returns the current time from the package clock.
func Now() time.Time {
	return clock.Now()
}
