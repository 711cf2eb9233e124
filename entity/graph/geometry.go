package graph

import (
	"math"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/planar"
)

// Coordinates are planar editor units: x grows east, y grows north.
// Headings are compass degrees in [0, 360): 0 = north, 90 = east.

// Heading returns the compass heading of the direction from a to b.
func Heading(a, b orb.Point) float64 {
	deg := math.Atan2(b[0]-a[0], b[1]-a[1]) * 180 / math.Pi
	return normalizeDeg(deg)
}

// AngleDiff returns the signed smallest rotation from heading a to
// heading b, in (-180, 180].
func AngleDiff(a, b float64) float64 {
	d := math.Mod(b-a, 360)
	if d > 180 {
		d -= 360
	} else if d <= -180 {
		d += 360
	}
	return d
}

func normalizeDeg(deg float64) float64 {
	deg = math.Mod(deg, 360)
	if deg < 0 {
		deg += 360
	}
	return deg
}

// pointAlong walks the polyline and returns the point at the given
// distance from its first vertex, clamping at both ends.
func pointAlong(ls orb.LineString, distance float64) orb.Point {
	if distance <= 0 {
		return ls[0]
	}
	for i := 0; i+1 < len(ls); i++ {
		d := planar.Distance(ls[i], ls[i+1])
		if distance <= d && d > 0 {
			f := distance / d
			return orb.Point{
				ls[i][0] + (ls[i+1][0]-ls[i][0])*f,
				ls[i][1] + (ls[i+1][1]-ls[i][1])*f,
			}
		}
		distance -= d
	}
	return ls[len(ls)-1]
}

// headingAlong returns the travel heading of the polyline piece that
// contains the point at the given distance from the first vertex.
func headingAlong(ls orb.LineString, distance float64) float64 {
	if distance < 0 {
		distance = 0
	}
	for i := 0; i+1 < len(ls); i++ {
		d := planar.Distance(ls[i], ls[i+1])
		if distance <= d && d > 0 {
			return Heading(ls[i], ls[i+1])
		}
		distance -= d
	}
	n := len(ls)
	return Heading(ls[n-2], ls[n-1])
}
