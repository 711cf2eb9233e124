package graph

import (
	"math"

	"github.com/paulmach/orb"
)

// Kind classifies junction geometry.
type Kind int

const (
	KindT Kind = iota
	KindCrossroads
	KindY
	KindRoundabout
	KindRampMerge
	KindLandmark // named point on the map, no geometry, never lit
)

var kindNames = map[string]Kind{
	"t":          KindT,
	"crossroads": KindCrossroads,
	"y":          KindY,
	"roundabout": KindRoundabout,
	"ramp_merge": KindRampMerge,
	"landmark":   KindLandmark,
}

func (k Kind) String() string {
	for name, kind := range kindNames {
		if kind == k {
			return name
		}
	}
	return "unknown"
}

// Rotation is the configured circulation direction of a roundabout.
type Rotation int

const (
	RotationCW Rotation = iota
	RotationCCW
)

// Exit is one way of leaving a junction: a segment plus the travel
// direction on it. Bearing is the compass heading of the departure.
type Exit struct {
	Segment *RoadSegment
	Forward bool
	Bearing float64
}

// Junction ties together the road-ends that meet at one point. The
// junction zone is the disc of Radius around Position; a vehicle that
// entered it on green is committed and ignores later phase changes.
type Junction struct {
	ID       int32
	Kind     Kind
	Position orb.Point
	Radius   float64
	Rotation Rotation // roundabouts only

	exits  []Exit
	lights map[approachKey]*TrafficLight
}

type approachKey struct {
	segmentID int32
	atStart   bool
}

// Exits returns the ways out of the junction, excluding the u-turn
// back onto the arrival segment. Pass 0 to exclude nothing.
func (j *Junction) Exits(excludeSegment int32) []Exit {
	out := make([]Exit, 0, len(j.exits))
	for _, e := range j.exits {
		if e.Segment.ID == excludeSegment {
			continue
		}
		out = append(out, e)
	}
	return out
}

// Straightest picks the exit whose departure bearing deviates least
// from the incoming travel heading. This is the auto-follow choice.
func (j *Junction) Straightest(inHeading float64, excludeSegment int32) (Exit, bool) {
	best := Exit{}
	bestDev := math.MaxFloat64
	found := false
	for _, e := range j.Exits(excludeSegment) {
		dev := math.Abs(AngleDiff(inHeading, e.Bearing))
		if dev < bestDev {
			bestDev = dev
			best = e
			found = true
		}
	}
	return best, found
}

// Light returns the traffic light governing the given approach, or
// nil when the approach is unsignalled.
func (j *Junction) Light(segmentID int32, atStart bool) *TrafficLight {
	return j.lights[approachKey{segmentID: segmentID, atStart: atStart}]
}
