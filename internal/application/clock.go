package application

import "time"

// Clock lets services be tested against a fixed time
type Clock interface {
	Now() time.Time
}

// SystemClock is the wall clock
type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now().UTC() }

// FixedClock always returns T
type FixedClock struct{ T time.Time }

func (c FixedClock) Now() time.Time { return c.T }

// LocationClock is the wall clock in Loc, so calendar boundaries such as
// the start of the month follow local time.
type LocationClock struct{ Loc *time.Location }

func (c LocationClock) Now() time.Time { return time.Now().In(c.Loc) }
