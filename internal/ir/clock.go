package ir

import "time"

// Clock supplies the current time. Date windows, run start times and
// record timestamps all read it, so a fixed clock makes them repeatable.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

// SystemClock reads the wall clock.
var SystemClock Clock = systemClock{}
