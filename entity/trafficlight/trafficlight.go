// Package trafficlight derives signal phases from elapsed time. Phase
// is a pure function of the light parameters and the shared clock
// origin: there is no mutable counter anywhere, so agents, the
// coordinator and the planner can never disagree about the phase of a
// light at the same instant.
package trafficlight

import (
	"math"

	"github.com/graphpaper-lab/roadsim/entity/graph"
	"github.com/graphpaper-lab/roadsim/utils/config"
)

// State is the instantaneous signal color.
type State int

const (
	StateRed State = iota
	StateYellow
	StateGreen
)

func (s State) String() string {
	switch s {
	case StateRed:
		return "red"
	case StateYellow:
		return "yellow"
	case StateGreen:
		return "green"
	}
	return "unknown"
}

// PhaseClock evaluates light phases. It only carries the yellow-window
// tuning; all per-light parameters live in the graph.
type PhaseClock struct {
	YellowFraction float64 // trailing yellow as a fraction of green time
	MinYellow      float64 // lower bound on the yellow window (seconds)
}

// NewPhaseClock builds a phase clock from the light configuration.
func NewPhaseClock(cfg config.Light) PhaseClock {
	return PhaseClock{
		YellowFraction: cfg.YellowFraction,
		MinYellow:      cfg.MinYellow,
	}
}

// Phase returns the color of the light at simulation time t.
//
// With t' = (t - offset) mod cycle the light is GREEN for
// t' < green, YELLOW for the trailing window after green, and RED for
// the rest of the cycle. green == cycle short-circuits to a light
// that is always green.
func (c PhaseClock) Phase(l *graph.TrafficLight, t float64) State {
	if l.Green >= l.Cycle {
		return StateGreen
	}
	tc := cycleTime(l, t)
	if tc < l.Green {
		return StateGreen
	}
	if tc < l.Green+c.yellowWindow(l) {
		return StateYellow
	}
	return StateRed
}

// yellowWindow is the trailing yellow length, clamped so that yellow
// never spills into the next green onset.
func (c PhaseClock) yellowWindow(l *graph.TrafficLight) float64 {
	y := math.Max(c.YellowFraction*l.Green, c.MinYellow)
	return math.Min(y, l.Cycle-l.Green)
}

// NextGreen returns the wait in seconds until the light is next green
// when arriving at simulation time t. It is 0 while the light is
// green and closed-form otherwise; no forward simulation is needed.
// A light that is never green yields +Inf.
func NextGreen(l *graph.TrafficLight, t float64) float64 {
	if l.Green >= l.Cycle {
		return 0
	}
	if l.Green <= 0 {
		return math.Inf(1)
	}
	tc := cycleTime(l, t)
	if tc < l.Green {
		return 0
	}
	return l.Cycle - tc
}

// cycleTime maps t into [0, cycle) relative to the phase offset.
func cycleTime(l *graph.TrafficLight, t float64) float64 {
	tc := math.Mod(t-l.Offset, l.Cycle)
	if tc < 0 {
		tc += l.Cycle
	}
	return tc
}
