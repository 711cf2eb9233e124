package agent

import (
	"math"

	"github.com/paulmach/orb"

	"github.com/graphpaper-lab/roadsim/entity/graph"
	"github.com/graphpaper-lab/roadsim/entity/trafficlight"
)

// step advances the vehicle by one tick of dt seconds at simulation
// time t and returns the update to emit, if any. A stranded vehicle
// reports its terminal status exactly once and then goes quiet.
func (a *Agent) step(dt, t float64) (PositionUpdate, bool) {
	r := &a.runtime
	if r.status == StatusStranded {
		if r.reported {
			return PositionUpdate{}, false
		}
		r.reported = true
		return a.update(t), true
	}

	if r.onArc {
		a.stepArc(dt)
		return a.update(t), true
	}

	v := a.speed()
	candidate := r.progress + v*dt/r.segment.Length()

	// signal check on the final stretch of a lit approach. A committed
	// vehicle is exempt until its progress resets on the next segment.
	if !r.committed {
		if l := a.opts.Graph.LightFor(r.segment.ID, r.forward); l != nil && candidate >= a.opts.StopLineRatio {
			switch a.opts.Phase.Phase(l, t) {
			case trafficlight.StateGreen:
				r.committed = true
			default:
				// hold at the stop line, do not advance into the junction
				r.progress = math.Max(r.progress, math.Min(candidate, a.opts.StopLineRatio))
				r.status = StatusWaiting
				return a.update(t), true
			}
		}
	}

	r.status = StatusDriving
	if candidate < 1 {
		r.progress = candidate
		return a.update(t), true
	}

	a.crossJunction(t)
	return a.update(t), true
}

// speed returns the vehicle's effective speed on the current segment.
func (a *Agent) speed() float64 {
	v := a.opts.BaseSpeed * a.opts.SpeedMultiplier
	if !a.runtime.onArc && a.runtime.segment.MaxSpeed > 0 {
		v = math.Min(v, a.runtime.segment.MaxSpeed)
	}
	return v
}

// crossJunction handles progress crossing 1: resolve the next
// directive (or auto-follow), then either enter a roundabout arc or
// hop straight onto the chosen segment.
func (a *Agent) crossJunction(t float64) {
	r := &a.runtime
	jid := r.segment.EndJunction(r.forward)
	if jid == 0 {
		a.strand("segment %d dead-ends", r.segment.ID)
		return
	}
	j, err := a.opts.Graph.Junction(jid)
	if err != nil {
		a.strand("segment %d ends at unknown junction %d", r.segment.ID, jid)
		return
	}

	inHeading := r.segment.HeadingAt(1, r.forward)
	exit, ok := r.route.Resolve(j, inHeading, r.segment.ID)
	if !ok {
		if r.route.Exhausted() {
			log.Debugf("vehicle %d: directive unresolvable at junction %d, auto-following", a.opts.ID, j.ID)
		}
		exit, ok = j.Straightest(inHeading, r.segment.ID)
	}
	if !ok {
		a.strand("no exit from junction %d", j.ID)
		return
	}

	if j.Kind == graph.KindRoundabout {
		a.enterArc(j, exit)
		return
	}

	// commitment is a per-approach flag; it clears with the reset
	r.segment = exit.Segment
	r.forward = exit.Forward
	r.progress = 0
	r.committed = false
	r.status = StatusDriving
}

// enterArc switches the vehicle to arc traversal around a roundabout,
// circulating in the junction's configured rotation from the arrival
// road-end to the resolved exit.
func (a *Agent) enterArc(j *graph.Junction, exit graph.Exit) {
	r := &a.runtime
	entry := r.segment.HeadingAt(1, r.forward) // direction into the junction
	// bearing from the center back toward the arrival road-end
	entryBearing := normalize(entry + 180)

	cw := j.Rotation == graph.RotationCW
	var sweep float64
	if cw {
		sweep = normalize(exit.Bearing - entryBearing)
	} else {
		sweep = normalize(entryBearing - exit.Bearing)
	}
	if sweep == 0 {
		sweep = 360
	}

	r.onArc = true
	r.arc = j
	r.arcEntry = entryBearing
	r.arcSweep = sweep
	r.arcForward = cw
	r.arcExit = exit
	r.arcLen = j.Radius * sweep * math.Pi / 180
	r.progress = 0
	r.status = StatusDriving
	// inside the junction zone: exempt from lights until the exit
	r.committed = true
}

// stepArc advances the vehicle along the roundabout arc; lights never
// apply inside the junction zone.
func (a *Agent) stepArc(dt float64) {
	r := &a.runtime
	v := a.speed()
	r.progress += v * dt / r.arcLen
	if r.progress < 1 {
		return
	}
	r.segment = r.arcExit.Segment
	r.forward = r.arcExit.Forward
	r.onArc = false
	r.arc = nil
	r.progress = 0
	r.committed = false
	r.status = StatusDriving
}

func (a *Agent) strand(format string, args ...any) {
	r := &a.runtime
	r.status = StatusStranded
	r.progress = 1
	r.reported = true // the caller emits this terminal update itself
	log.WithField("vehicle", a.opts.ID).Warnf("stranded: "+format, args...)
}

// arcAngle returns the current bearing from the roundabout center to
// the vehicle.
func (r *vehicleRuntime) arcAngle() float64 {
	delta := r.arcSweep * r.progress
	if r.arcForward {
		return normalize(r.arcEntry + delta)
	}
	return normalize(r.arcEntry - delta)
}

// update builds the position update for the current state.
func (a *Agent) update(t float64) PositionUpdate {
	r := &a.runtime
	u := PositionUpdate{
		VehicleID: a.opts.ID,
		Color:     a.opts.Color,
		Status:    r.status.String(),
		Committed: r.committed,
		Exhausted: r.route.Exhausted(),
		Progress:  r.progress,
		T:         t,
	}
	if r.onArc {
		theta := r.arcAngle()
		rad := theta * math.Pi / 180
		u.ArcAt = r.arc.ID
		u.Position = orb.Point{
			r.arc.Position[0] + r.arc.Radius*math.Sin(rad),
			r.arc.Position[1] + r.arc.Radius*math.Cos(rad),
		}
		if r.arcForward {
			u.Heading = normalize(theta + 90)
		} else {
			u.Heading = normalize(theta - 90)
		}
	} else {
		u.SegmentID = r.segment.ID
		u.Position = r.segment.PositionAt(r.progress, r.forward)
		u.Heading = r.segment.HeadingAt(r.progress, r.forward)
	}
	return u
}

func normalize(deg float64) float64 {
	deg = math.Mod(deg, 360)
	if deg < 0 {
		deg += 360
	}
	return deg
}
