// Package week provides the Sunday-aligned week boundary math used to key
// assignment weeks. A week is identified by the epoch-second timestamp of its
// Sunday 00:00:00 UTC boundary.
package week

import "time"

const Seconds = 7 * 24 * 60 * 60

// Start returns the Sunday 00:00:00 UTC boundary of the week containing t.
func Start(t time.Time) time.Time {
	t = t.UTC()
	d := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
	return d.AddDate(0, 0, -int(d.Weekday()))
}

// StartUnix returns Start as epoch seconds.
func StartUnix(t time.Time) int64 {
	return Start(t).Unix()
}

// IsStart reports whether ts is a week boundary.
func IsStart(ts int64) bool {
	t := time.Unix(ts, 0).UTC()
	return t.Equal(Start(t))
}

// Next returns the boundary one week after ts.
func Next(ts int64) int64 {
	return ts + Seconds
}

// Prev returns the boundary one week before ts.
func Prev(ts int64) int64 {
	return ts - Seconds
}
