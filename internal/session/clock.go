package session

import (
	"math"
	"time"
)

// DefaultTimeFormat renders the Last-Change column.
const DefaultTimeFormat = "2006-01-02 15:04:05"

// EpochMillis converts fractional epoch seconds to epoch milliseconds,
// rounding to the nearest millisecond.
func EpochMillis(seconds float64) int64 {
	return int64(math.Round(seconds * 1000))
}

// Clock renders replication timestamps in a fixed location and layout.
type Clock struct {
	loc    *time.Location
	layout string
}

// NewClock returns a Clock. Nil loc means time.Local; an empty layout means
// DefaultTimeFormat.
func NewClock(loc *time.Location, layout string) Clock {
	if loc == nil {
		loc = time.Local
	}
	if layout == "" {
		layout = DefaultTimeFormat
	}
	return Clock{loc: loc, layout: layout}
}

// Format converts fractional epoch seconds into the display string and the
// corresponding time.
func (c Clock) Format(seconds float64) (string, time.Time) {
	t := time.UnixMilli(EpochMillis(seconds)).In(c.loc)
	return t.Format(c.layout), t
}
