package session

import (
	"time"

	"github.com/google/uuid"
)

// Clock supplies the current time.
type Clock interface {
	Now() time.Time
}

// ClockFunc adapts a function to Clock.
type ClockFunc func() time.Time

func (f ClockFunc) Now() time.Time { return f() }

// SystemClock is the wall clock.
var SystemClock Clock = ClockFunc(time.Now)

// IDGenerator produces identifiers for workouts, exercise instances and sets.
type IDGenerator interface {
	NewID() string
}

// UUIDs generates random v4 UUIDs.
type UUIDs struct{}

func (UUIDs) NewID() string { return uuid.NewString() }
