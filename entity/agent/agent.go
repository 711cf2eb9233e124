// Package agent implements the per-vehicle worker. Every vehicle is
// one goroutine owning its whole movement state; it shares nothing
// mutable with other agents or the coordinator and talks over exactly
// two channels: position updates out, control messages in.
package agent

import (
	"time"

	"github.com/paulmach/orb"
	"github.com/sirupsen/logrus"

	"github.com/graphpaper-lab/roadsim/clock"
	"github.com/graphpaper-lab/roadsim/entity/graph"
	"github.com/graphpaper-lab/roadsim/entity/route"
	"github.com/graphpaper-lab/roadsim/entity/trafficlight"
)

var log = logrus.WithField("module", "agent")

// Status is the vehicle state reported with each position update.
type Status int

const (
	StatusDriving  Status = iota
	StatusWaiting         // held at a stop line by a red or yellow light
	StatusStranded        // no viable next segment; terminal
)

func (s Status) String() string {
	switch s {
	case StatusDriving:
		return "driving"
	case StatusWaiting:
		return "waiting"
	case StatusStranded:
		return "stranded"
	}
	return "unknown"
}

// PositionUpdate is one reading of a vehicle, emitted to the
// coordinator after a tick.
type PositionUpdate struct {
	VehicleID int32     `json:"vehicle_id"`
	SegmentID int32     `json:"segment_id,omitempty"` // 0 while on a roundabout arc
	ArcAt     int32     `json:"arc_at,omitempty"`     // roundabout junction id while on an arc
	Progress  float64   `json:"progress"`
	Heading   float64   `json:"heading"`
	Position  orb.Point `json:"position"`
	Color     string    `json:"color"`
	Status    string    `json:"status"`
	Committed bool      `json:"committed,omitempty"`
	Exhausted bool      `json:"route_exhausted,omitempty"`
	T         float64   `json:"t"`
}

// ControlMsg is a coordinator-to-agent instruction. The shared time
// origin travels in Options at spawn; termination uses the stop
// channel, not a message, so it cannot queue behind other control.
type ControlMsg struct {
	Route []route.Directive // replace the current route
}

// Options configures one agent at spawn time. Graph and Clock are
// read-only snapshots; the agent never mutates them.
type Options struct {
	ID              int32
	Color           string
	SpeedMultiplier float64
	Segment         *graph.RoadSegment
	Forward         bool
	Progress        float64
	Route           *route.Route

	Graph *graph.Graph
	Clock *clock.Clock
	Phase trafficlight.PhaseClock

	BaseSpeed     float64 // m/s before the multiplier
	StopLineRatio float64 // fraction of the segment where the signal check begins
	TickInterval  time.Duration

	Updates chan<- PositionUpdate
}

// Agent advances one vehicle. Run drives it from a goroutine; step
// contains the whole movement model and is callable directly from
// tests for determinism.
type Agent struct {
	opts Options
	ctrl chan ControlMsg

	runtime vehicleRuntime
}

// vehicleRuntime is the complete mutable state of the vehicle. It is
// only ever touched from the agent's own goroutine.
type vehicleRuntime struct {
	segment   *graph.RoadSegment
	forward   bool
	progress  float64 // in [0,1] along the segment or arc
	committed bool

	// roundabout arc traversal
	onArc      bool
	arc        *graph.Junction
	arcEntry   float64 // bearing from the junction center, degrees
	arcSweep   float64 // swept angle, degrees, sign-free
	arcLen     float64
	arcExit    graph.Exit
	arcForward bool // true when sweeping clockwise (compass-increasing)

	route    *route.Route
	status   Status
	reported bool // terminal status already emitted
}

// New builds an agent; it does not start the goroutine.
func New(opts Options) *Agent {
	if opts.Progress < 0 || opts.Progress >= 1 {
		opts.Progress = 0
	}
	if opts.SpeedMultiplier <= 0 {
		opts.SpeedMultiplier = 1
	}
	r := opts.Route
	if r == nil {
		r = route.New(nil)
	}
	return &Agent{
		opts: opts,
		ctrl: make(chan ControlMsg, 4),
		runtime: vehicleRuntime{
			segment:  opts.Segment,
			forward:  opts.Forward,
			progress: opts.Progress,
			route:    r,
		},
	}
}

// ID returns the vehicle id.
func (a *Agent) ID() int32 {
	return a.opts.ID
}

// Control returns the coordinator-side end of the control channel.
func (a *Agent) Control() chan<- ControlMsg {
	return a.ctrl
}

// Run is the agent's tick loop. The stop channel is observed at the
// top of every iteration; once it fires the agent emits nothing more
// and acknowledges on done before returning.
func (a *Agent) Run(stop <-chan struct{}, done chan<- int32) {
	ticker := time.NewTicker(a.opts.TickInterval)
	defer ticker.Stop()
	dt := a.opts.TickInterval.Seconds()
	for {
		select {
		case <-stop:
			done <- a.opts.ID
			return
		default:
		}
		select {
		case <-stop:
			done <- a.opts.ID
			return
		case msg := <-a.ctrl:
			a.apply(msg)
		case <-ticker.C:
			if u, emit := a.step(dt, a.opts.Clock.T()); emit {
				select {
				case a.opts.Updates <- u:
				default:
					// renderer side is lagging; drop rather than block the tick
				}
			}
		}
	}
}

func (a *Agent) apply(msg ControlMsg) {
	a.runtime.route = route.New(msg.Route)
	log.Debugf("vehicle %d: route replaced (%d directives)", a.opts.ID, len(msg.Route))
}
