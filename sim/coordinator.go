// Package sim contains the simulation coordinator: the single
// authority owning the road graph, the light configuration and the
// agent lifecycle. Agents receive read-only snapshots at spawn and
// report back over one shared, buffered update channel; the
// coordinator drains it once per render frame.
package sim

import (
	"fmt"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/graphpaper-lab/roadsim/clock"
	"github.com/graphpaper-lab/roadsim/entity/agent"
	"github.com/graphpaper-lab/roadsim/entity/graph"
	"github.com/graphpaper-lab/roadsim/entity/route"
	"github.com/graphpaper-lab/roadsim/entity/trafficlight"
	"github.com/graphpaper-lab/roadsim/utils/config"
	"github.com/graphpaper-lab/roadsim/utils/randengine"
)

var log = logrus.WithField("module", "sim")

const updateBuffer = 1024

// colors assigned to spawned vehicles when the caller does not pick one.
var palette = []string{
	"#2e6fdb", "#d9443f", "#3fa75a", "#e0a626", "#8c4fd1", "#38b8c4",
}

// handle is the coordinator-side view of one running agent. Each
// agent has its own done channel so overlapping Remove and Stop calls
// can never consume each other's acknowledgments.
type handle struct {
	a    *agent.Agent
	ctrl chan<- agent.ControlMsg
	stop chan struct{} // closed to terminate this agent
	done chan int32    // carries this agent's termination ack
}

// Coordinator mediates between the agents and the outside world.
type Coordinator struct {
	runID string
	g     *graph.Graph
	clk   *clock.Clock
	phase trafficlight.PhaseClock
	rc    *config.RuntimeConfig

	engine *randengine.Engine

	updates chan agent.PositionUpdate

	mtx     sync.Mutex
	agents  map[int32]*handle
	latest  map[int32]agent.PositionUpdate
	nextID  int32
	stopped atomic.Bool
}

// NewCoordinator builds a coordinator over a validated graph. The
// clock origin is fixed here; every agent spawned later shares it.
func NewCoordinator(g *graph.Graph, rc *config.RuntimeConfig) *Coordinator {
	return &Coordinator{
		runID:   uuid.NewString(),
		g:       g,
		clk:     clock.New(time.Now(), rc.C.Step.TickInterval),
		phase:   trafficlight.NewPhaseClock(rc.C.Light),
		rc:      rc,
		engine:  randengine.New(rc.C.Seed),
		updates: make(chan agent.PositionUpdate, updateBuffer),
		agents:  make(map[int32]*handle),
		latest:  make(map[int32]agent.PositionUpdate),
		nextID:  1,
	}
}

// RunID identifies this run in logs and renderer frames.
func (c *Coordinator) RunID() string { return c.runID }

// Graph returns the read-only network snapshot of the run.
func (c *Coordinator) Graph() *graph.Graph { return c.g }

// Clock returns the shared time origin of the run.
func (c *Coordinator) Clock() *clock.Clock { return c.clk }

// SpawnOptions selects where and how a vehicle starts. Zero values
// mean "pick for me".
type SpawnOptions struct {
	SegmentID       int32
	Progress        float64
	SpeedMultiplier float64
	Color           string
	Route           []route.Directive
}

// Spawn creates a vehicle and starts its agent goroutine. Random
// segment, color and speed are drawn for fields left at zero.
func (c *Coordinator) Spawn(opts SpawnOptions) (int32, error) {
	if c.stopped.Load() {
		return 0, fmt.Errorf("sim: coordinator already stopped")
	}

	var seg *graph.RoadSegment
	if opts.SegmentID != 0 {
		s, err := c.g.Segment(opts.SegmentID)
		if err != nil {
			return 0, fmt.Errorf("sim: spawn: %w", err)
		}
		seg = s
	} else {
		segments := c.g.Segments()
		if len(segments) == 0 {
			return 0, fmt.Errorf("sim: spawn: empty road graph")
		}
		seg = segments[c.engine.IntnSafe(len(segments))]
	}
	forward := true
	if !seg.OneWay && c.engine.IntnSafe(2) == 1 {
		forward = false
	}
	color := opts.Color
	if color == "" {
		color = palette[c.engine.IntnSafe(len(palette))]
	}
	mult := opts.SpeedMultiplier
	if mult <= 0 {
		mult = 0.8 + 0.4*c.engine.Float64Safe()
	}

	c.mtx.Lock()
	defer c.mtx.Unlock()
	// re-check under the mutex: Stop flips the flag and clears the
	// agent map in its own critical section, and an agent registered
	// after that would never see its stop channel closed
	if c.stopped.Load() {
		return 0, fmt.Errorf("sim: coordinator already stopped")
	}
	id := c.nextID
	c.nextID++

	a := agent.New(agent.Options{
		ID:              id,
		Color:           color,
		SpeedMultiplier: mult,
		Segment:         seg,
		Forward:         forward,
		Progress:        opts.Progress,
		Route:           route.New(opts.Route),
		Graph:           c.g,
		Clock:           c.clk,
		Phase:           c.phase,
		BaseSpeed:       c.rc.C.Vehicle.DefaultSpeed,
		StopLineRatio:   c.rc.C.Vehicle.StopLineRatio,
		TickInterval:    time.Duration(c.rc.C.Step.TickInterval * float64(time.Second)),
		Updates:         c.updates,
	})
	h := &handle{a: a, ctrl: a.Control(), stop: make(chan struct{}), done: make(chan int32, 1)}
	c.agents[id] = h
	go a.Run(h.stop, h.done)

	log.Infof("spawned vehicle %d on segment %d (forward=%v, x%.2f)", id, seg.ID, forward, mult)
	return id, nil
}

// SetRoute replaces the route of a running vehicle.
func (c *Coordinator) SetRoute(id int32, directives []route.Directive) error {
	c.mtx.Lock()
	h, ok := c.agents[id]
	c.mtx.Unlock()
	if !ok {
		return fmt.Errorf("sim: no vehicle %d", id)
	}
	select {
	case h.ctrl <- agent.ControlMsg{Route: directives}:
		return nil
	default:
		return fmt.Errorf("sim: vehicle %d control channel full", id)
	}
}

// Remove terminates one vehicle and waits briefly for its ack.
func (c *Coordinator) Remove(id int32) error {
	c.mtx.Lock()
	h, ok := c.agents[id]
	if ok {
		delete(c.agents, id)
		delete(c.latest, id)
	}
	c.mtx.Unlock()
	if !ok {
		return fmt.Errorf("sim: no vehicle %d", id)
	}
	close(h.stop)
	select {
	case <-h.done:
	case <-time.After(time.Second):
		log.Warnf("vehicle %d did not acknowledge removal", id)
	}
	log.Infof("removed vehicle %d", id)
	return nil
}

// VehicleCount returns the number of running agents.
func (c *Coordinator) VehicleCount() int {
	c.mtx.Lock()
	defer c.mtx.Unlock()
	return len(c.agents)
}

// StopReport summarizes a shutdown: which agents acknowledged and
// which had to be reclaimed after the timeout.
type StopReport struct {
	Acked  []int32
	Forced []int32
}

// Stop signals every agent to terminate and waits up to timeout for
// acks. Unresponsive agents are reclaimed (logged and dropped) rather
// than aborting the stop sequence. After Stop, Drain returns empty
// frames and no further updates are surfaced.
func (c *Coordinator) Stop(timeout time.Duration) StopReport {
	if !c.stopped.CompareAndSwap(false, true) {
		return StopReport{}
	}

	c.mtx.Lock()
	pending := make(map[int32]*handle, len(c.agents))
	for id, h := range c.agents {
		close(h.stop)
		pending[id] = h
	}
	c.agents = make(map[int32]*handle)
	c.latest = make(map[int32]agent.PositionUpdate)
	c.mtx.Unlock()

	// all stop channels are closed, so the agents wind down in
	// parallel; one shared deadline bounds the whole collection
	report := StopReport{}
	deadline := time.NewTimer(timeout)
	defer deadline.Stop()
	expired := false
	for id, h := range pending {
		if !expired {
			select {
			case <-h.done:
				report.Acked = append(report.Acked, id)
				continue
			case <-deadline.C:
				expired = true
			}
		}
		select {
		case <-h.done:
			report.Acked = append(report.Acked, id)
		default:
			report.Forced = append(report.Forced, id)
			log.Errorf("vehicle %d unresponsive at termination, reclaiming", id)
		}
	}
	// discard anything still queued; state is not persisted
	for {
		select {
		case <-c.updates:
		default:
			sort.Slice(report.Acked, func(i, j int) bool { return report.Acked[i] < report.Acked[j] })
			log.Infof("stop complete: %d acked, %d forced", len(report.Acked), len(report.Forced))
			return report
		}
	}
}

// Stopped reports whether Stop has completed or begun.
func (c *Coordinator) Stopped() bool {
	return c.stopped.Load()
}
