// Package route models user-given driving directives and resolves
// them lazily against the road graph. A route is an ordered list of
// directives; each one consumes the next junction the vehicle
// reaches, except junction-targeted directives, which wait for their
// junction and let the vehicle auto-follow until then.
package route

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/graphpaper-lab/roadsim/entity/graph"
)

// BearingTolerance is the widest deviation (degrees) between a
// requested bearing and an actual exit that still counts as a match.
const BearingTolerance = 60.0

// Turn is a relative turn at a junction.
type Turn int

const (
	TurnLeft Turn = iota
	TurnRight
	TurnStraight
)

// Bearing is an 8-wind compass direction.
type Bearing int

const (
	BearingN Bearing = iota
	BearingNE
	BearingE
	BearingSE
	BearingS
	BearingSW
	BearingW
	BearingNW
)

// Heading returns the compass heading of the bearing in degrees.
func (b Bearing) Heading() float64 {
	return float64(b) * 45
}

func (b Bearing) String() string {
	return [...]string{"N", "NE", "E", "SE", "S", "SW", "W", "NW"}[b]
}

var bearingNames = map[string]Bearing{
	"N": BearingN, "NE": BearingNE, "E": BearingE, "SE": BearingSE,
	"S": BearingS, "SW": BearingSW, "W": BearingW, "NW": BearingNW,
}

// Kind discriminates the directive variants.
type Kind int

const (
	KindTurn      Kind = iota
	KindCompass        // compass bearing, consumes the next junction
	KindCompassAt      // compass bearing at one specific junction
)

// Directive is one parsed unit of a route.
type Directive struct {
	Kind     Kind
	Turn     Turn    // KindTurn only
	Bearing  Bearing // KindCompass, KindCompassAt
	Junction int32   // KindCompassAt only
}

func (d Directive) String() string {
	switch d.Kind {
	case KindTurn:
		return [...]string{"LEFT", "RIGHT", "STRAIGHT"}[d.Turn]
	case KindCompass:
		return d.Bearing.String()
	case KindCompassAt:
		return fmt.Sprintf("%s_%d", d.Bearing, d.Junction)
	}
	return "?"
}

// Parse turns a space-separated token sequence into directives.
// Accepted tokens: LEFT|L, RIGHT|R, STRAIGHT|ST, the 8 compass winds,
// and the compact <BEARING>_<junction id> form.
func Parse(s string) ([]Directive, error) {
	out := make([]Directive, 0)
	for _, token := range strings.Fields(strings.ToUpper(s)) {
		d, err := parseToken(token)
		if err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, nil
}

func parseToken(token string) (Directive, error) {
	switch token {
	case "LEFT", "L":
		return Directive{Kind: KindTurn, Turn: TurnLeft}, nil
	case "RIGHT", "R":
		return Directive{Kind: KindTurn, Turn: TurnRight}, nil
	case "STRAIGHT", "ST":
		return Directive{Kind: KindTurn, Turn: TurnStraight}, nil
	}
	if b, ok := bearingNames[token]; ok {
		return Directive{Kind: KindCompass, Bearing: b}, nil
	}
	if name, id, ok := strings.Cut(token, "_"); ok {
		b, bok := bearingNames[name]
		if !bok {
			return Directive{}, fmt.Errorf("route: unknown bearing %q in token %q", name, token)
		}
		jid, err := strconv.ParseInt(id, 10, 32)
		if err != nil {
			return Directive{}, fmt.Errorf("route: bad junction id in token %q", token)
		}
		return Directive{Kind: KindCompassAt, Bearing: b, Junction: int32(jid)}, nil
	}
	return Directive{}, fmt.Errorf("route: unknown token %q", token)
}

// Route is the per-vehicle cursor over a directive list. An empty or
// finished route means auto-follow.
type Route struct {
	directives []Directive
	next       int
	exhausted  bool
}

// New wraps parsed directives into a route cursor.
func New(directives []Directive) *Route {
	return &Route{directives: directives}
}

// Active reports whether the route still has directives to apply.
func (r *Route) Active() bool {
	return r != nil && !r.exhausted && r.next < len(r.directives)
}

// Exhausted reports whether a directive failed to resolve earlier;
// the vehicle auto-follows from that point on.
func (r *Route) Exhausted() bool {
	return r != nil && r.exhausted
}

// Resolve applies the pending directive to the junction being
// crossed. inHeading is the arrival travel heading and arriveSegment
// the segment the vehicle came in on (excluded as a u-turn).
//
// ok=false means the caller should auto-follow: either no directive
// applies here (empty route, or a junction-targeted directive held
// for a later junction), or the directive could not be matched to any
// exit, in which case the whole route is flagged exhausted.
func (r *Route) Resolve(j *graph.Junction, inHeading float64, arriveSegment int32) (graph.Exit, bool) {
	if !r.Active() {
		return graph.Exit{}, false
	}
	d := r.directives[r.next]
	if d.Kind == KindCompassAt && d.Junction != j.ID {
		// held: keep the directive for its own junction
		return graph.Exit{}, false
	}

	target := inHeading
	switch d.Kind {
	case KindTurn:
		switch d.Turn {
		case TurnLeft:
			target = inHeading - 90
		case TurnRight:
			target = inHeading + 90
		}
	case KindCompass, KindCompassAt:
		target = d.Bearing.Heading()
	}

	best := graph.Exit{}
	bestDev := math.MaxFloat64
	for _, e := range j.Exits(arriveSegment) {
		dev := math.Abs(graph.AngleDiff(target, e.Bearing))
		if dev < bestDev {
			bestDev = dev
			best = e
		}
	}
	if bestDev > BearingTolerance {
		// requested direction absent at this junction
		r.exhausted = true
		return graph.Exit{}, false
	}
	r.next++
	return best, true
}

// Pending returns the directive that will be applied next, for
// status reporting.
func (r *Route) Pending() (Directive, bool) {
	if !r.Active() {
		return Directive{}, false
	}
	return r.directives[r.next], true
}
