package graph

import "fmt"

// TrafficLight is the static configuration of one signal head, bound
// to a junction-incident road-end. Its state is derived, never
// stored: phase(t) is a pure function of these parameters and the
// shared clock origin, so every component computes it independently.
type TrafficLight struct {
	ID         int32
	JunctionID int32
	SegmentID  int32
	AtStart    bool    // which geometric end of the segment the head faces
	Cycle      float64 // cycle time (seconds)
	Offset     float64 // phase offset (seconds)
	Green      float64 // green duration within the cycle (seconds)
}

// validate rejects parameter combinations before any agent exists.
func (l *TrafficLight) validate() error {
	if l.Cycle <= 0 {
		return fmt.Errorf("light %d: cycle_time must be positive, got %v", l.ID, l.Cycle)
	}
	if l.Green < 0 {
		return fmt.Errorf("light %d: green_time must be non-negative, got %v", l.ID, l.Green)
	}
	if l.Offset < 0 {
		return fmt.Errorf("light %d: phase_offset must be non-negative, got %v", l.ID, l.Offset)
	}
	if l.Green > l.Cycle {
		return fmt.Errorf("light %d: green_time %v exceeds cycle_time %v", l.ID, l.Green, l.Cycle)
	}
	return nil
}
