// Package system provides crawler.Clock implementations.
package system

import "time"

// Clock reads the wall clock in UTC.
type Clock struct{}

// New creates a Clock.
func New() Clock {
	return Clock{}
}

// Now returns the current UTC time.
func (Clock) Now() time.Time {
	return time.Now().UTC()
}

// Frozen always reports the same instant. Handy for deterministic summaries.
type Frozen time.Time

// Now returns the frozen instant.
func (f Frozen) Now() time.Time {
	return time.Time(f)
}
