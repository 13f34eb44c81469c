// Package system adapts the wall clock to the chart.Clock seam.
package system

import "time"

// Clock yields UTC wall-clock time; progress events and run timestamps
// always carry UTC.
type Clock struct{}

// New creates a Clock.
func New() Clock {
	return Clock{}
}

// Now returns the current time in UTC.
func (Clock) Now() time.Time {
	return time.Now().UTC()
}
