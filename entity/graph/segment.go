package graph

import (
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/planar"
)

// RoadSegment is one polyline between two endpoints. Segments are
// immutable once the graph is built; agents only ever read them.
type RoadSegment struct {
	ID           int32
	Points       orb.LineString
	OneWay       bool    // travel allowed only from the first vertex to the last
	MaxSpeed     float64 // m/s
	FromJunction int32   // junction at Points[0], 0 if none
	ToJunction   int32   // junction at Points[len-1], 0 if none

	length float64
}

// Length returns the polyline length in editor units.
func (s *RoadSegment) Length() float64 {
	return s.length
}

// PositionAt returns the point at progress in [0,1] along the segment
// in the given travel direction.
func (s *RoadSegment) PositionAt(progress float64, forward bool) orb.Point {
	if !forward {
		progress = 1 - progress
	}
	return pointAlong(s.Points, progress*s.length)
}

// HeadingAt returns the travel heading at progress in [0,1].
func (s *RoadSegment) HeadingAt(progress float64, forward bool) float64 {
	if forward {
		return headingAlong(s.Points, progress*s.length)
	}
	return normalizeDeg(headingAlong(s.Points, (1-progress)*s.length) + 180)
}

// EndJunction returns the junction id at the travel end of the
// segment (0 when the segment dead-ends).
func (s *RoadSegment) EndJunction(forward bool) int32 {
	if forward {
		return s.ToJunction
	}
	return s.FromJunction
}

// StartJunction returns the junction id at the travel start.
func (s *RoadSegment) StartJunction(forward bool) int32 {
	if forward {
		return s.FromJunction
	}
	return s.ToJunction
}

// departureHeading is the heading leaving the given geometric end,
// pointing away from the junction that sits there.
func (s *RoadSegment) departureHeading(fromStart bool) float64 {
	if fromStart {
		return headingAlong(s.Points, 0)
	}
	return normalizeDeg(headingAlong(s.Points, s.length) + 180)
}

func (s *RoadSegment) computeLength() {
	s.length = planar.Length(s.Points)
}
