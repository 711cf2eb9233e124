package sim

import (
	"sort"

	"github.com/graphpaper-lab/roadsim/entity/agent"
)

// LightView is the renderer-facing state of one traffic light.
type LightView struct {
	ID       int32  `json:"id"`
	Junction int32  `json:"junction"`
	Phase    string `json:"phase"`
}

// Frame is what the renderer receives per drained tick: the latest
// known reading of every vehicle plus the current phase of every
// light.
type Frame struct {
	Run      string                 `json:"run"`
	T        float64                `json:"t"`
	Vehicles []agent.PositionUpdate `json:"vehicles"`
	Lights   []LightView            `json:"lights"`
}

// Drain empties the update channel, folds the readings into the
// per-vehicle latest state, and snapshots a frame. It is called once
// per render frame by the coordinator's owner, decoupling the render
// rate from the agent tick rate. After Stop it returns an empty frame.
func (c *Coordinator) Drain() Frame {
	if c.stopped.Load() {
		// discard silently; agents are gone and state is discarded
		for {
			select {
			case <-c.updates:
			default:
				return Frame{Run: c.runID, T: c.clk.T()}
			}
		}
	}

	c.mtx.Lock()
	defer c.mtx.Unlock()
	for {
		select {
		case u := <-c.updates:
			if _, running := c.agents[u.VehicleID]; running {
				c.latest[u.VehicleID] = u
			}
		default:
			return c.frameLocked()
		}
	}
}

func (c *Coordinator) frameLocked() Frame {
	t := c.clk.T()
	f := Frame{
		Run:      c.runID,
		T:        t,
		Vehicles: make([]agent.PositionUpdate, 0, len(c.latest)),
		Lights:   make([]LightView, 0),
	}
	for _, u := range c.latest {
		f.Vehicles = append(f.Vehicles, u)
	}
	sort.Slice(f.Vehicles, func(i, j int) bool { return f.Vehicles[i].VehicleID < f.Vehicles[j].VehicleID })
	for _, l := range c.g.Lights() {
		f.Lights = append(f.Lights, LightView{
			ID:       l.ID,
			Junction: l.JunctionID,
			Phase:    c.phase.Phase(l, t).String(),
		})
	}
	sort.Slice(f.Lights, func(i, j int) bool { return f.Lights[i].ID < f.Lights[j].ID })
	return f
}
