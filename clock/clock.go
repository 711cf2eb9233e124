// Package clock provides the shared time origin of a simulation run.
//
// Every component that needs signal phases derives them from the same
// immutable origin, so any agent and the coordinator can compute the
// phase of any light independently and always agree.
package clock

import (
	"fmt"
	"time"
)

// Clock is the timing origin of one run. It is created once by the
// coordinator, handed to every agent at spawn, and never mutated, so
// it is safe to read from any goroutine without locking.
type Clock struct {
	Origin time.Time // wall-clock start of the run
	DT     float64   // agent tick length (seconds)
}

// New starts a clock at the given wall-clock origin.
func New(origin time.Time, dt float64) *Clock {
	return &Clock{Origin: origin, DT: dt}
}

// T returns the simulation time in seconds elapsed since the origin.
func (c *Clock) T() float64 {
	return time.Since(c.Origin).Seconds()
}

// At converts a wall-clock instant to simulation seconds.
func (c *Clock) At(t time.Time) float64 {
	return t.Sub(c.Origin).Seconds()
}

// String formats the current simulation time as HH:MM:SS for
// heartbeat logs.
func (c *Clock) String() string {
	t := c.T()
	h := int(t / 3600)
	t -= float64(h * 3600)
	m := int(t / 60)
	t -= float64(m * 60)
	s := int(t)
	return fmt.Sprintf("%02d:%02d:%02d", h, m, s)
}
