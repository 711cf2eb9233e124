// Package planner ranks candidate junction-to-junction routes by
// estimated travel time, including the expected wait at signalled
// approaches. It is stateless: callers pass a graph snapshot and a
// departure time, and get back a ranked list.
package planner

import (
	"fmt"
	"math"

	"github.com/sirupsen/logrus"

	"github.com/graphpaper-lab/roadsim/entity/graph"
	"github.com/graphpaper-lab/roadsim/entity/trafficlight"
	"github.com/graphpaper-lab/roadsim/utils/container"
)

var log = logrus.WithField("module", "planner")

// Options bounds the enumeration. HopLimit is the maximum number of
// intermediate junctions per candidate; it guarantees termination on
// cyclic graphs.
type Options struct {
	HopLimit  int
	BaseSpeed float64 // m/s used where a segment has no own limit
}

// Candidate is one enumerated route with its cost estimate.
type Candidate struct {
	Junctions []int32 `json:"junctions"` // full path, source and destination included
	Segments  []int32 `json:"segments"`
	Distance  float64 `json:"distance"`
	ETA       float64 `json:"eta"` // seconds, light waits included
}

// Plan enumerates candidate routes from one junction to another,
// departing at simulation time departT, and returns them sorted by
// ascending estimated travel time. A disconnected pair yields an
// empty list and no error.
func Plan(g *graph.Graph, from, to int32, departT float64, opts Options) ([]Candidate, error) {
	if _, err := g.Junction(from); err != nil {
		return nil, fmt.Errorf("planner: source: %w", err)
	}
	if _, err := g.Junction(to); err != nil {
		return nil, fmt.Errorf("planner: destination: %w", err)
	}
	if from == to {
		return []Candidate{}, nil
	}

	s := &search{
		g:       g,
		from:    from,
		to:      to,
		departT: departT,
		opts:    opts,
		queue:   container.NewPriorityQueue[Candidate](),
		visited: map[int32]bool{from: true},
	}
	s.explore(from, path{})

	out := make([]Candidate, 0, s.queue.Len())
	for s.queue.Len() > 0 {
		c, _ := s.queue.HeapPop()
		out = append(out, c)
	}
	log.Debugf("%d candidates from %d to %d at t=%.1f", len(out), from, to, departT)
	return out, nil
}

type path struct {
	junctions []int32
	segments  []int32
	distance  float64
	eta       float64
}

type search struct {
	g        *graph.Graph
	from, to int32
	departT  float64
	opts     Options
	queue    *container.PriorityQueue[Candidate]
	visited  map[int32]bool
}

// explore extends the path from the given junction along every exit,
// depth-first. The visited set keeps candidates simple (no junction
// twice) and the hop limit cuts the search on cyclic graphs.
func (s *search) explore(at int32, p path) {
	j, err := s.g.Junction(at)
	if err != nil {
		return
	}
	for _, e := range j.Exits(0) {
		next := e.Segment.EndJunction(e.Forward)
		if next == 0 || s.visited[next] {
			continue
		}

		travel := e.Segment.Length() / s.effectiveSpeed(e.Segment)
		eta := p.eta + travel
		if l := s.g.LightFor(e.Segment.ID, e.Forward); l != nil {
			wait := trafficlight.NextGreen(l, s.departT+eta)
			if math.IsInf(wait, 1) {
				// never-green approach, not a usable candidate
				continue
			}
			eta += wait
		}

		np := path{
			junctions: append(append([]int32{}, p.junctions...), next),
			segments:  append(append([]int32{}, p.segments...), e.Segment.ID),
			distance:  p.distance + e.Segment.Length(),
			eta:       eta,
		}
		if next == s.to {
			s.queue.HeapPush(Candidate{
				Junctions: append([]int32{s.from}, np.junctions...),
				Segments:  np.segments,
				Distance:  np.distance,
				ETA:       np.eta,
			}, np.eta)
			continue
		}
		// intermediate junction count is the path length minus the hit
		if len(np.junctions) > s.opts.HopLimit {
			continue
		}
		s.visited[next] = true
		s.explore(next, np)
		delete(s.visited, next)
	}
}

func (s *search) effectiveSpeed(seg *graph.RoadSegment) float64 {
	v := s.opts.BaseSpeed
	if seg.MaxSpeed > 0 && seg.MaxSpeed < v {
		v = seg.MaxSpeed
	}
	if v <= 0 {
		v = 1
	}
	return v
}
